package core

import (
	"sync"

	"github.com/quiverdb/quiverd/ql"
)

// SpaceMeta holds a space's `env` property dict under its own lock, merged
// independently of the enclosing models map (grounded on SpaceMeta in the
// Rust original this section was distilled from: `meta: { env: RwLock<MetaDict> } }`).
type SpaceMeta struct {
	mu  sync.RWMutex
	Env MetaDict
}

// Merge applies patch to the space's env dict under its own write lock —
// ALTER SPACE never needs the enclosing GlobalNS write lock, only a read
// lookup of the spaces map followed by this lock (spec §4.F, SUPPLEMENTAL
// FEATURES).
func (sm *SpaceMeta) Merge(patch map[string]ql.PropValue) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.Env == nil {
		sm.Env = MetaDict{}
	}
	sm.Env.Merge(patch)
}

// Snapshot returns a shallow copy of the env dict under a read lock, for
// the persistence layer dumping a space without racing concurrent ALTERs.
func (sm *SpaceMeta) Snapshot() MetaDict {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make(MetaDict, len(sm.Env))
	for k, v := range sm.Env {
		out[k] = v
	}
	return out
}

// Space owns its models (spec §3: `{ models: concurrent map<ItemID,
// shared<Model>>, meta: { env: lock<MetaDict> } }`).
type Space struct {
	mu     sync.RWMutex
	models map[string]*Model
	Meta   SpaceMeta
}

// NewSpace validates props — the only recognized property key is `env`
// (spec §4.F) — and builds an empty Space.
func NewSpace(props map[string]ql.PropValue) (*Space, error) {
	for k := range props {
		if k != "env" {
			return nil, newErr(ErrDdlSpaceBadProperty, "unrecognized space property: "+k)
		}
	}
	sp := &Space{models: make(map[string]*Model)}
	if env, ok := props["env"]; ok {
		if env.Nested == nil {
			return nil, newErr(ErrDdlSpaceBadProperty, "env property must be a nested dict")
		}
		sp.Meta.Env = FromProps(env.Nested)
	} else {
		sp.Meta.Env = MetaDict{}
	}
	return sp, nil
}

// Alter validates and merges patch into the space's env (spec §4.F: "the
// only recognized property is env").
func (s *Space) Alter(patch map[string]ql.PropValue) error {
	for k := range patch {
		if k != "env" {
			return newErr(ErrDdlSpaceBadProperty, "unrecognized space property: "+k)
		}
	}
	env, ok := patch["env"]
	if !ok {
		return nil
	}
	if env.Nested == nil {
		return newErr(ErrDdlSpaceBadProperty, "env property must be a nested dict")
	}
	s.Meta.Merge(env.Nested)
	return nil
}

// CreateModel installs model under name, write-locked against concurrent
// DDL/DML on this space (spec §4.F, §5).
func (s *Space) CreateModel(name string, model *Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.models[name]; exists {
		return newErr(ErrDdlCreateModelAlreadyExists, "model already exists: "+name)
	}
	s.models[name] = model
	return nil
}

// Model looks up a model by name under a read lock, so DML never blocks
// behind other DML on sibling models.
func (s *Space) Model(name string) (*Model, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[name]
	return m, ok
}

// DropModel removes a model under write lock. force bypasses the
// not-empty policy check (spec §4.F: "model must have no rows before
// drop — implementations may choose a force variant").
func (s *Space) DropModel(name string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[name]
	if !ok {
		return newErr(ErrDdlDropModelNotFound, "model not found: "+name)
	}
	if !force && m.Index.Len() > 0 {
		return newErr(ErrDdlNotEmpty, "model has rows; drop with force to override")
	}
	delete(s.models, name)
	return nil
}

// ModelCount reports how many models the space currently owns, used by
// GlobalNS's not-empty drop-space policy check.
func (s *Space) ModelCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models)
}

// Range calls fn for every (name, model) pair the space owns, stopping
// early if fn returns false. Used by the persistence layer to dump a
// space's models into a snapshot.
func (s *Space) Range(fn func(name string, m *Model) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, m := range s.models {
		if !fn(name, m) {
			return
		}
	}
}

// installModel installs an already-built model under name without any
// validation, for the persistence layer reconstructing a space from a
// snapshot. Not for DDL use (see CreateModel).
func (s *Space) installModel(name string, m *Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[name] = m
}
