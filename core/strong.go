package core

import (
	"sync/atomic"

	"github.com/quiverdb/quiverd/ql"
)

// stateOkay is the process-wide flag strong.rs calls `registry::state_okay()`
// — cleared while the server is mid-shutdown or otherwise in a state where
// destructive multi-key operations must not proceed. Defaults to okay.
var stateOkay atomic.Bool

func init() {
	stateOkay.Store(true)
}

// SetStateOkay flips the process-wide gate strong operations check before
// mutating anything.
func SetStateOkay(ok bool) { stateOkay.Store(ok) }

// StateOkay reports the current gate value.
func StateOkay() bool { return stateOkay.Load() }

// SSET sets every key in pairs iff none of them currently exist, otherwise
// touches nothing and reports OverwriteErr (spec §4.D/SUPPLEMENTAL,
// strong.rs's sset: "only if all the keys can be set, will the action run").
// An empty pair list is ActionErr, mirroring `is_lowbit_set!(howmany) ||
// howmany == 0`.
func (kv *KVStore) SSET(pairs []ql.KVPair) error {
	if len(pairs) == 0 {
		return newErr(ErrActionErr, "SSET requires at least one key/value pair")
	}
	if !StateOkay() {
		return newErr(ErrServerErr, "server is not in a state to accept strong writes")
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	keys := make([]string, len(pairs))
	for i, p := range pairs {
		key, err := FromValue(p.Key).Key()
		if err != nil {
			return err
		}
		keys[i] = key
		if _, exists := kv.data[key]; exists {
			return newErr(ErrOverwriteErr, "one or more keys already exist")
		}
	}
	for i, p := range pairs {
		kv.set(keys[i], FromValue(p.Value))
	}
	return nil
}

// SDEL deletes every key iff all of them currently exist, otherwise touches
// nothing and reports Nil (strong.rs's sdel).
func (kv *KVStore) SDEL(keyValues []ql.Value) error {
	if len(keyValues) == 0 {
		return newErr(ErrActionErr, "SDEL requires at least one key")
	}
	if !StateOkay() {
		return newErr(ErrServerErr, "server is not in a state to accept strong writes")
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	keys := make([]string, len(keyValues))
	for i, v := range keyValues {
		key, err := FromValue(v).Key()
		if err != nil {
			return err
		}
		keys[i] = key
		if _, exists := kv.data[key]; !exists {
			return newErr(ErrNil, "one or more keys do not exist")
		}
	}
	for _, key := range keys {
		kv.delete(key)
	}
	return nil
}

// SUPDATE updates every key in pairs iff all of them currently exist,
// otherwise touches nothing and reports Nil (strong.rs's supdate).
func (kv *KVStore) SUPDATE(pairs []ql.KVPair) error {
	if len(pairs) == 0 {
		return newErr(ErrActionErr, "SUPDATE requires at least one key/value pair")
	}
	if !StateOkay() {
		return newErr(ErrServerErr, "server is not in a state to accept strong writes")
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	keys := make([]string, len(pairs))
	for i, p := range pairs {
		key, err := FromValue(p.Key).Key()
		if err != nil {
			return err
		}
		keys[i] = key
		if _, exists := kv.data[key]; !exists {
			return newErr(ErrNil, "one or more keys do not exist")
		}
	}
	for i, p := range pairs {
		kv.set(keys[i], FromValue(p.Value))
	}
	return nil
}
