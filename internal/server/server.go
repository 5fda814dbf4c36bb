package server

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/loganszeto/calcd-go/internal/config"
	"github.com/loganszeto/calcd-go/internal/registry"
	"github.com/loganszeto/calcd-go/internal/stats"
	"github.com/loganszeto/calcd-go/internal/util"
)

type Server struct {
	cfg   config.Config
	reg   *registry.Registry
	stats *stats.Stats
	log   *slog.Logger
	clock util.Clock

	sem      *semaphore.Weighted
	handlers sync.WaitGroup
	stopOnce sync.Once
	lnAddr   atomic.Value // string
}

func New(cfg config.Config, log *slog.Logger) *Server {
	return &Server{
		cfg:   cfg,
		reg:   registry.New(),
		stats: stats.New(),
		log:   log,
		clock: util.RealClock{},
		sem:   semaphore.NewWeighted(cfg.MaxConnections),
	}
}

// Addr reports the bound listen address once ListenAndServe has opened
// the socket. Empty before that.
func (s *Server) Addr() string {
	if v := s.lnAddr.Load(); v != nil {
		return v.(string)
	}
	return ""
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	s.lnAddr.Store(ln.Addr().String())

	s.log.Info("listening",
		"addr", ln.Addr().String(),
		"max_connections", s.cfg.MaxConnections,
		"request_quota", s.cfg.RequestQuota)

	g, gctx := errgroup.WithContext(ctx)

	go func() {
		<-gctx.Done()
		_ = ln.Close()
	}()

	g.Go(func() error { return s.acceptLoop(gctx, ln) })
	g.Go(func() error { return s.monitorLoop(gctx) })
	g.Go(func() error { return s.statsLoop(gctx) })
	err = g.Wait()
	s.shutdown()
	return err
}

// acceptLoop admits connections while pool capacity is available.
// Acquiring before Accept leaves excess dials queued in the kernel
// backlog instead of handing them a socket we would immediately close.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil
		}
		conn, err := ln.Accept()
		if err != nil {
			s.sem.Release(1)
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("accept failed", "error", err)
			continue
		}
		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			defer s.sem.Release(1)
			s.handleConn(conn)
		}()
	}
}

// shutdown notifies every live connection, then waits for handlers to
// drain up to the configured deadline.
func (s *Server) shutdown() {
	s.stopOnce.Do(func() {
		recs := s.reg.Snapshot()
		s.log.Info("shutting down", "active_connections", len(recs))
		for _, rec := range recs {
			rec.Kick(noticeShutdown)
		}

		done := make(chan struct{})
		go func() {
			s.handlers.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(s.cfg.DrainTimeout.Duration()):
			s.log.Warn("drain deadline exceeded", "remaining", s.reg.Len())
		}
		s.logStats()
		s.log.Info("shutdown complete")
	})
}
