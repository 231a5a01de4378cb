package core

import (
	"sync"

	"github.com/quiverdb/quiverd/ql"
)

// Namespace is the process-wide root `{ spaces: lock<map<ItemID,
// shared<Space>>> }` (spec §3). Created once at startup, torn down once at
// shutdown; mutations are DDL-rare and serialized under a write lock, DML
// uses read-only access (spec §3, §5).
type Namespace struct {
	mu     sync.RWMutex
	spaces map[string]*Space
}

// NewNamespace builds an empty GlobalNS.
func NewNamespace() *Namespace {
	return &Namespace{spaces: make(map[string]*Space)}
}

// CreateSpace takes GlobalNS's write lock directly (grounded on
// `exec_create` in the Rust original this section was distilled from,
// which takes `gns._spaces().write()` rather than any per-space lock,
// since the space doesn't exist yet to lock).
func (ns *Namespace) CreateSpace(name string, props map[string]ql.PropValue) error {
	id, err := NewItemID(name)
	if err != nil {
		return err
	}
	sp, err := NewSpace(props)
	if err != nil {
		return err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if _, exists := ns.spaces[id.String()]; exists {
		return newErr(ErrDdlCreateSpaceAlreadyExists, "space already exists: "+name)
	}
	ns.spaces[id.String()] = sp
	return nil
}

// AlterSpace takes an ordinary read lookup of the spaces map, then the
// space's own env lock (grounded on `exec_alter`: `gns._spaces().read()`
// then `space.meta.env.write()` — alter never takes GlobalNS's write lock).
// name is resolved through the same canonical ItemID form CreateSpace
// stores under, rather than the raw input string.
func (ns *Namespace) AlterSpace(name string, props map[string]ql.PropValue) error {
	id, err := NewItemID(name)
	if err != nil {
		return err
	}
	ns.mu.RLock()
	sp, ok := ns.spaces[id.String()]
	ns.mu.RUnlock()
	if !ok {
		return newErr(ErrDdlAlterSpaceNotFound, "space not found: "+name)
	}
	return sp.Alter(props)
}

// Space looks up a space by name under a read lock.
func (ns *Namespace) Space(name string) (*Space, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	sp, ok := ns.spaces[name]
	return sp, ok
}

// DropSpace removes a space under write lock. force bypasses the
// not-empty (space must have no models) policy check. name is resolved
// through the same canonical ItemID form CreateSpace stores under.
func (ns *Namespace) DropSpace(name string, force bool) error {
	id, err := NewItemID(name)
	if err != nil {
		return err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	sp, ok := ns.spaces[id.String()]
	if !ok {
		return newErr(ErrDdlDropSpaceNotFound, "space not found: "+name)
	}
	if !force && sp.ModelCount() > 0 {
		return newErr(ErrDdlNotEmpty, "space has models; drop with force to override")
	}
	delete(ns.spaces, id.String())
	return nil
}

// CreateModel resolves ent.Space (or defaultSpace if ent.Space is empty)
// and installs a new model under it.
func (ns *Namespace) CreateModel(ent ql.Entity, defaultSpace string, fields []ql.FieldDecl, props map[string]ql.PropValue) error {
	spaceName := ent.Space
	if spaceName == "" {
		spaceName = defaultSpace
	}
	sp, ok := ns.Space(spaceName)
	if !ok {
		return newErr(ErrDdlAlterSpaceNotFound, "space not found: "+spaceName)
	}
	if _, err := NewItemID(ent.Model); err != nil {
		return err
	}
	model, err := NewModel(fields)
	if err != nil {
		return err
	}
	_ = props // model-level properties (e.g. future TTL/compression) have no recognized keys yet
	return sp.CreateModel(ent.Model, model)
}

// Resolve looks up ent.Model within ent.Space (or defaultSpace).
func (ns *Namespace) Resolve(ent ql.Entity, defaultSpace string) (*Model, error) {
	spaceName := ent.Space
	if spaceName == "" {
		spaceName = defaultSpace
	}
	sp, ok := ns.Space(spaceName)
	if !ok {
		return nil, newErr(ErrDdlAlterSpaceNotFound, "space not found: "+spaceName)
	}
	m, ok := sp.Model(ent.Model)
	if !ok {
		return nil, newErr(ErrDdlDropModelNotFound, "model not found: "+ent.Model)
	}
	return m, nil
}

// Range calls fn for every (name, space) pair currently registered,
// stopping early if fn returns false. Used by the persistence layer to
// dump the whole namespace into a snapshot.
func (ns *Namespace) Range(fn func(name string, sp *Space) bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	for name, sp := range ns.spaces {
		if !fn(name, sp) {
			return
		}
	}
}

// installSpace installs an already-built space under name without any
// validation, for the persistence layer reconstructing a namespace from a
// snapshot. Not for DDL use (see CreateSpace).
func (ns *Namespace) installSpace(name string, sp *Space) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.spaces[name] = sp
}

// DropModel resolves ent against defaultSpace and drops the named model.
func (ns *Namespace) DropModel(ent ql.Entity, defaultSpace string, force bool) error {
	spaceName := ent.Space
	if spaceName == "" {
		spaceName = defaultSpace
	}
	sp, ok := ns.Space(spaceName)
	if !ok {
		return newErr(ErrDdlAlterSpaceNotFound, "space not found: "+spaceName)
	}
	return sp.DropModel(ent.Model, force)
}
