package integration

import (
	"testing"
	"time"
)

func TestIdleEviction(t *testing.T) {
	addr, _ := startServer(t, "--idle-timeout", "1s", "--monitor-interval", "100ms")

	idle := dialCalc(t, addr)
	busy := dialCalc(t, addr)

	if got := idle.send(t, "ADD 1 1"); got != "OK 2" {
		t.Fatalf("idle connection warm-up: got %q", got)
	}

	// Keep one session active well past the other's idle window.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := busy.send(t, "ADD 2 2"); got != "OK 4" {
			t.Fatalf("busy connection: got %q", got)
		}
		time.Sleep(250 * time.Millisecond)
	}

	line, err := idle.tryReadLine(3 * time.Second)
	if err != nil {
		t.Fatalf("expected idle notice, got error: %v", err)
	}
	if line != "ERROR connection timeout - server closing connection" {
		t.Fatalf("idle notice: got %q", line)
	}
	if _, err := idle.tryReadLine(2 * time.Second); err == nil {
		t.Fatal("idle connection still open after eviction")
	}

	// The active session is untouched.
	if got := busy.send(t, "ADD 3 3"); got != "OK 6" {
		t.Fatalf("busy connection after sweep: got %q", got)
	}
}

func TestReadTimeoutNotice(t *testing.T) {
	addr, _ := startServer(t, "--read-timeout", "500ms", "--idle-timeout", "1h")
	c := dialCalc(t, addr)

	line, err := c.tryReadLine(3 * time.Second)
	if err != nil {
		t.Fatalf("expected timeout notice, got error: %v", err)
	}
	if line != "ERROR connection timeout - closing connection" {
		t.Fatalf("timeout notice: got %q", line)
	}
	if _, err := c.tryReadLine(2 * time.Second); err == nil {
		t.Fatal("connection still open after timeout notice")
	}
}
