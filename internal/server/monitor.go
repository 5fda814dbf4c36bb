package server

import (
	"context"
	"time"
)

func (s *Server) monitorLoop(ctx context.Context) error {
	t := time.NewTicker(s.cfg.MonitorInterval.Duration())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.sweepIdle(s.clock.Now())
		}
	}
}

// sweepIdle kicks connections idle past the threshold and reports how
// many were evicted. The handler owns registry removal; it runs when
// the kicked socket wakes its read loop.
func (s *Server) sweepIdle(now time.Time) int {
	evicted := 0
	for _, rec := range s.reg.Snapshot() {
		idle := now.Sub(rec.LastActive())
		if idle > s.cfg.IdleTimeout.Duration() {
			s.log.Info("evicting idle connection",
				"conn_id", rec.ID,
				"remote_addr", rec.RemoteAddr,
				"idle", idle)
			rec.Kick(noticeIdle)
			s.stats.RecordEviction()
			evicted++
		}
	}
	return evicted
}

func (s *Server) statsLoop(ctx context.Context) error {
	t := time.NewTicker(s.cfg.StatsInterval.Duration())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.logStats()
		}
	}
}

func (s *Server) logStats() {
	snap := s.stats.Snapshot()
	s.log.Info("server stats",
		"total_connections", snap["total_connections"],
		"active_connections", snap["active_connections"],
		"total_requests", snap["total_requests"])
}
