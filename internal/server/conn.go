package server

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/loganszeto/calcd-go/internal/protocol"
	"github.com/loganszeto/calcd-go/internal/registry"
)

// Request lines longer than this close the connection.
const maxLineBytes = 1024

const (
	noticeReadTimeout = "ERROR connection timeout - closing connection"
	noticeQuota       = "ERROR too many requests - connection limit reached"
	noticeIdle        = "ERROR connection timeout - server closing connection"
	noticeShutdown    = "SERVER server shutting down - closing connection"
)

func (s *Server) handleConn(conn net.Conn) {
	rec := registry.NewRecord(conn, s.clock.Now())
	s.reg.Add(rec)
	s.stats.ConnectionOpened()

	log := s.log.With("conn_id", rec.ID, "remote_addr", rec.RemoteAddr)
	log.Info("connection opened")

	defer func() {
		rec.Kick("")
		s.reg.Remove(rec.ID)
		s.stats.ConnectionClosed()
		log.Info("connection closed",
			"requests", rec.Requests(),
			"duration", s.clock.Now().Sub(rec.ConnectedAt))
	}()

	writer := bufio.NewWriter(conn)
	if err := writeLine(writer, protocol.Banner); err != nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 256), maxLineBytes)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout.Duration()))
		if !scanner.Scan() {
			err := scanner.Err()
			switch {
			case err == nil:
				log.Debug("client disconnected")
			case errors.Is(err, net.ErrClosed):
				// kicked by the idle monitor or shutdown
			case isTimeout(err):
				_ = writeLine(writer, noticeReadTimeout)
				log.Info("read timeout")
			case errors.Is(err, bufio.ErrTooLong):
				log.Warn("request line too long")
			default:
				log.Warn("read failed", "error", err)
			}
			return
		}
		line := strings.TrimSuffix(scanner.Text(), "\r")

		rec.Touch(s.clock.Now())
		n := rec.IncRequests()
		s.stats.RecordRequest()

		if n > s.cfg.RequestQuota {
			_ = writeLine(writer, noticeQuota)
			log.Info("request quota exhausted", "requests", n)
			return
		}

		start := time.Now()
		out := s.process(line)
		s.stats.RecordResponse(string(out.Status), time.Since(start).Seconds())
		log.Debug("request handled", "line", line, "status", string(out.Status))

		if err := protocol.WriteOutcome(writer, out); err != nil {
			log.Warn("write failed", "error", err)
			return
		}
		if err := writer.Flush(); err != nil {
			log.Warn("write failed", "error", err)
			return
		}
	}
}

func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line + "\n"); err != nil {
		return err
	}
	return w.Flush()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
