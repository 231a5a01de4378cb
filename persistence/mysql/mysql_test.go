//go:build !windows

package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quiverdb/quiverd/persistence"
	"github.com/quiverdb/quiverd/testutil"
)

// TestNewStoreUsesSocketWhenGiven proves buildDSN actually routes through
// the unix socket instead of falling back to tcp://host:port: a dummy
// socket that replies with garbage should fail with a protocol error
// rather than "connection refused", which is what misrouted traffic
// to the (closed) tcp port would produce.
func TestNewStoreUsesSocketWhenGiven(t *testing.T) {
	sock := testutil.StartDummyUnixSocket(t, "quiverd-mysql-test", "mysql.sock")
	defer sock.Close()

	_, err := NewStore(persistence.Config{
		DbName: "quiver",
		Socket: sock.Path,
		Host:   "127.0.0.1",
		Port:   1, // deliberately unreachable, to prove the socket path is the one taken
	})
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "connection refused")
}
