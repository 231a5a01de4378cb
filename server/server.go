package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/k0kubun/pp/v3"

	"github.com/quiverdb/quiverd/core"
	"github.com/quiverdb/quiverd/persistence"
	"github.com/quiverdb/quiverd/ql"
)

// Debug, when set by the embedding binary's --debug flag, pretty-prints
// every parsed statement tree before it runs.
var Debug bool

// Server is the embedding binary's top-level object: it owns the global
// namespace handle, the flat KV store, the persistence backend and the
// accept loop, none of which are the core's concern per spec §1/§6.
type Server struct {
	cfg   Config
	ns    *core.Namespace
	kv    *core.KVStore
	store persistence.Store
	clock core.Clock
	ln    net.Listener
}

// Load implements the `load(config) -> (Config, Global)` hook named in
// spec §6: open the configured persistence backend and hydrate a
// Namespace from its latest snapshot, or start empty if there is none.
func Load(cfg Config) (*Server, error) {
	store, err := OpenStore(cfg.Persistence)
	if err != nil {
		return nil, err
	}

	ns := core.NewNamespace()
	snap, ok, err := store.Latest(context.Background())
	if err != nil {
		store.Close()
		return nil, err
	}
	if ok {
		loaded, err := core.LoadNamespace(snap.Payload)
		if err != nil {
			store.Close()
			return nil, err
		}
		ns = loaded
		slog.Info("loaded namespace snapshot", "version", snap.Version, "id", snap.ID)
	} else {
		slog.Info("no snapshot found, starting with an empty namespace")
	}

	return &Server{
		cfg:   cfg,
		ns:    ns,
		kv:    core.NewKVStore(),
		store: store,
		clock: core.SystemClock{},
	}, nil
}

// Finish implements the `finish(Global)` hook: save one last snapshot and
// close the persistence backend. Called on graceful shutdown.
func (s *Server) Finish(ctx context.Context) error {
	if err := s.snapshot(ctx); err != nil {
		slog.Error("final snapshot failed", "error", err)
	}
	return s.store.Close()
}

func (s *Server) snapshot(ctx context.Context) error {
	payload, err := s.ns.Dump()
	if err != nil {
		return err
	}
	id, err := newSnapshotID()
	if err != nil {
		return err
	}
	return s.store.Save(ctx, persistence.Snapshot{
		ID:        id,
		Version:   s.clock.Now(),
		Payload:   payload,
		CreatedAt: s.clock.Now(),
	})
}

// Run accepts connections on cfg.ListenAddr until ctx is cancelled,
// handling each on its own goroutine (spec §5: "per-connection request
// handling is a task"). If cfg.SnapshotEvery is nonzero, a background
// ticker also saves periodic snapshots.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.ln = ln
	return s.serve(ctx, ln)
}

// serve runs the accept loop against an already-open listener, split out
// of Run so tests can drive a real listener without going through config
// defaults.
func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	slog.Info("quiverd listening", "addr", ln.Addr().String())

	if s.cfg.SnapshotEvery > 0 {
		go s.snapshotLoop(ctx)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.cfg.SnapshotEvery) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.snapshot(ctx); err != nil {
				slog.Error("periodic snapshot failed", "error", err)
			}
		}
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	executor := core.NewExecutor(s.ns, s.kv, s.cfg.DefaultSpace)

	for {
		stmt, err := readRequest(conn)
		if err != nil {
			if !errors.Is(err, errConnClosed) {
				slog.Debug("connection read error", "error", err, "remote", conn.RemoteAddr())
			}
			return
		}

		resp := s.execute(executor, stmt)
		if err := WriteResponse(conn, resp); err != nil {
			slog.Debug("connection write error", "error", err, "remote", conn.RemoteAddr())
			return
		}
	}
}

// execute runs stmt through the executor and builds the wire response,
// resolving declaration order for SELECT responses (spec §4.G: "Project
// requested fields in request order, or all fields in declaration order
// for *").
func (s *Server) execute(executor *core.Executor, stmt ql.Stmt) Response {
	if Debug {
		pp.Println(stmt)
	}
	result, err := executor.Execute(stmt)
	if err != nil {
		return ErrorResponse(errorKindName(err))
	}

	sel, ok := stmt.(*ql.Select)
	if !ok {
		return AckResponse()
	}
	rows, _ := result.([]map[string]core.Datacell)
	if len(rows) == 0 {
		return AckResponse()
	}

	order := sel.Fields
	if sel.Star {
		m, err := executor.NS.Resolve(sel.Entity, s.cfg.DefaultSpace)
		if err != nil {
			return ErrorResponse(errorKindName(err))
		}
		order = make([]string, len(m.Fields))
		for i, fs := range m.Fields {
			order[i] = fs.Name
		}
	}
	return RowResponse(core.EncodeRow(order, rows[0]))
}
