package stats

import "sync/atomic"

type Stats struct {
	conns    atomic.Int64
	active   atomic.Int64
	requests atomic.Int64
}

func New() *Stats {
	return &Stats{}
}

func (s *Stats) ConnectionOpened() {
	s.conns.Add(1)
	s.active.Add(1)
	connectionsTotal.Inc()
	connectionsActive.Inc()
}

func (s *Stats) ConnectionClosed() {
	s.active.Add(-1)
	connectionsActive.Dec()
}

func (s *Stats) RecordRequest() {
	s.requests.Add(1)
	requestsTotal.Inc()
}

func (s *Stats) RecordResponse(status string, seconds float64) {
	responsesTotal.WithLabelValues(status).Inc()
	requestSeconds.Observe(seconds)
}

func (s *Stats) RecordEviction() {
	evictionsTotal.Inc()
}

func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"total_connections":  s.conns.Load(),
		"active_connections": s.active.Load(),
		"total_requests":     s.requests.Load(),
	}
}
