package server

import (
	"context"
	"log/slog"
	"net"

	"github.com/smirkdb/smirk/internal/persistence"
	"github.com/smirkdb/smirk/internal/stats"
	"github.com/smirkdb/smirk/internal/store"
)

// Server accepts TCP connections and runs one handler goroutine per
// connection. All connections share one store; ordering comes from the
// store's own lock, not from the accept loop.
type Server struct {
	addr  string
	st    *store.Store
	snap  *persistence.Snapshotter
	stats *stats.Stats
	log   *slog.Logger
}

func New(addr string, st *store.Store, snap *persistence.Snapshotter, stats *stats.Stats, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		addr:  addr,
		st:    st,
		snap:  snap,
		stats: stats,
		log:   log,
	}
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}
		go s.handleConn(conn)
	}
}
