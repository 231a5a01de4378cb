package server

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiverd/persistence"
)

func sendStmt(t *testing.T, conn net.Conn, query string) Response {
	t.Helper()
	var buf []byte
	buf = append(buf, byte(reqInsecure))
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(query)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, query...)
	_, err := conn.Write(buf)
	require.NoError(t, err)

	var head [9]byte
	_, err = io.ReadFull(conn, head[:])
	require.NoError(t, err)
	size := binary.LittleEndian.Uint64(head[1:])
	data := make([]byte, size)
	_, err = io.ReadFull(conn, data)
	require.NoError(t, err)
	return Response{Type: ResponseType(head[0]), Data: data}
}

// TestServerEndToEnd drives a real listener through the file persistence
// backend: create a model, insert a row, read it back, shut down, reload
// from the snapshot, and confirm the row survived (spec §8 scenario 6,
// extended across a load/finish cycle).
func TestServerEndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "quiver.snap")
	cfg := Config{
		ListenAddr:   "127.0.0.1:0",
		Persistence:  persistence.Config{Backend: "file", DbName: dbPath},
		DefaultSpace: "twitter",
	}

	srv, err := Load(cfg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	require.NoError(t, err)
	srv.ln = ln
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = srv.serve(ctx, ln)
	}()

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	require.NoError(t, err)

	resp := sendStmt(t, conn, `create space twitter with {}`)
	require.Equal(t, RespAck, resp.Type)

	resp = sendStmt(t, conn, `create model twitter.users (username string primary key, name string)`)
	require.Equal(t, RespAck, resp.Type)

	resp = sendStmt(t, conn, `insert into twitter.users ("sayan", "Sayan")`)
	require.Equal(t, RespAck, resp.Type)

	resp = sendStmt(t, conn, `select * from twitter.users where username = "sayan"`)
	require.Equal(t, RespRow, resp.Type)
	assert.NotEmpty(t, resp.Data)

	resp = sendStmt(t, conn, `select * from twitter.users where username = "nobody"`)
	assert.Equal(t, RespError, resp.Type)
	assert.Equal(t, "QExecDmlRowNotFound", string(resp.Data))

	conn.Close()
	cancel()
	require.NoError(t, srv.Finish(context.Background()))

	reloaded, err := Load(cfg)
	require.NoError(t, err)
	_, ok := reloaded.ns.Space("twitter")
	assert.True(t, ok)
}
