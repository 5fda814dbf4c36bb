package registry

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const kickWriteTimeout = time.Second

// Record tracks one live client connection.
type Record struct {
	ID          string
	RemoteAddr  string
	ConnectedAt time.Time

	conn       net.Conn
	lastActive atomic.Int64 // unix milliseconds
	requests   atomic.Int64
	closeOnce  sync.Once
}

func NewRecord(conn net.Conn, now time.Time) *Record {
	r := &Record{
		ID:          uuid.NewString(),
		RemoteAddr:  conn.RemoteAddr().String(),
		ConnectedAt: now,
		conn:        conn,
	}
	r.lastActive.Store(now.UnixMilli())
	return r
}

func (r *Record) Touch(now time.Time) {
	r.lastActive.Store(now.UnixMilli())
}

func (r *Record) LastActive() time.Time {
	return time.UnixMilli(r.lastActive.Load())
}

func (r *Record) IncRequests() int64 {
	return r.requests.Add(1)
}

func (r *Record) Requests() int64 {
	return r.requests.Load()
}

// Kick writes a final notice straight to the socket and closes it.
// Only the first call acts; the handler's read loop observes the close
// and exits. Pass an empty notice to close silently.
func (r *Record) Kick(notice string) {
	r.closeOnce.Do(func() {
		if notice != "" {
			_ = r.conn.SetWriteDeadline(time.Now().Add(kickWriteTimeout))
			_, _ = r.conn.Write([]byte(notice + "\n"))
		}
		_ = r.conn.Close()
	})
}
