package integration

import (
	"net"
	"syscall"
	"testing"
	"time"
)

func TestGracefulShutdown(t *testing.T) {
	addr, cmd := startServer(t)

	c1 := dialCalc(t, addr)
	c2 := dialCalc(t, addr)

	if got := c1.send(t, "ADD 1 1"); got != "OK 2" {
		t.Fatalf("c1: got %q", got)
	}
	if got := c2.send(t, "MUL 3 3"); got != "OK 9" {
		t.Fatalf("c2: got %q", got)
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("signal: %v", err)
	}

	for i, c := range []*client{c1, c2} {
		line, err := c.tryReadLine(5 * time.Second)
		if err != nil {
			t.Fatalf("conn %d: expected shutdown notice, got error: %v", i, err)
		}
		if line != "SERVER server shutting down - closing connection" {
			t.Fatalf("conn %d: got %q", i, line)
		}
		if _, err := c.tryReadLine(2 * time.Second); err == nil {
			t.Fatalf("conn %d still open after shutdown notice", i)
		}
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()
	select {
	case err := <-waitCh:
		if err != nil {
			t.Fatalf("server exit: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("server did not exit after SIGTERM")
	}

	if conn, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		conn.Close()
		t.Fatal("server still accepting after shutdown")
	}
}
