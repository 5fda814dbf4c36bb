package integration

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/loganszeto/calcd-go/internal/protocol"
)

func TestConcurrentSessions(t *testing.T) {
	addr, _ := startServer(t, "--max-connections", "60")

	const goroutines = 20
	const loops = 30

	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				errCh <- err
				return
			}
			defer conn.Close()
			reader := bufio.NewReader(conn)
			writer := bufio.NewWriter(conn)
			if _, err := protocol.ReadLine(reader); err != nil {
				errCh <- fmt.Errorf("conn %d banner: %w", id, err)
				return
			}
			for j := 0; j < loops; j++ {
				req := fmt.Sprintf("ADD %d %d", id, j)
				want := fmt.Sprintf("OK %d", id+j)
				if _, err := writer.WriteString(req + "\n"); err != nil {
					errCh <- err
					return
				}
				if err := writer.Flush(); err != nil {
					errCh <- err
					return
				}
				line, err := protocol.ReadLine(reader)
				if err != nil {
					errCh <- fmt.Errorf("conn %d: %w", id, err)
					return
				}
				if line != want {
					errCh <- fmt.Errorf("%s: got %q, want %q", req, line, want)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatal(err)
		}
	}
}

// With a pool of one, a second session only proceeds after the first
// session ends.
func TestConnectionPoolSerializes(t *testing.T) {
	addr, _ := startServer(t, "--max-connections", "1")

	first := dialCalc(t, addr)
	if got := first.send(t, "ADD 1 1"); got != "OK 2" {
		t.Fatalf("first session: got %q", got)
	}

	second, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer second.Close()
	c2 := &client{conn: second, r: bufio.NewReader(second), w: bufio.NewWriter(second)}

	if line, err := c2.tryReadLine(300 * time.Millisecond); err == nil {
		t.Fatalf("expected no banner while the pool is full, got %q", line)
	}

	if err := first.conn.Close(); err != nil {
		t.Fatalf("close first: %v", err)
	}

	if banner := c2.readLine(t, 5*time.Second); banner != protocol.Banner {
		t.Fatalf("unexpected banner %q", banner)
	}
	if got := c2.send(t, "MUL 2 3"); got != "OK 6" {
		t.Fatalf("second session: got %q", got)
	}
}
