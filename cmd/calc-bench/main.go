package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loganszeto/calcd-go/internal/protocol"
)

type report struct {
	Addr        string  `json:"addr"`
	Connections int     `json:"connections"`
	Ops         int64   `json:"ops"`
	Failures    int64   `json:"failures"`
	Elapsed     string  `json:"elapsed"`
	OpsPerSec   float64 `json:"ops_per_sec"`
	P50         string  `json:"p50"`
	P95         string  `json:"p95"`
	P99         string  `json:"p99"`
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	conns := flag.Int("conns", 5, "concurrent connections")
	ops := flag.Int("ops", 10000, "total operations")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	reportPath := flag.String("report", "", "write a JSON report to this file")
	flag.Parse()

	if *conns <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "conns and ops must be > 0")
		os.Exit(1)
	}

	var opsDone atomic.Int64
	var failures atomic.Int64
	latCh := make(chan time.Duration, *ops)

	var g errgroup.Group
	start := time.Now()
	for i := 0; i < *conns; i++ {
		rng := rand.New(rand.NewSource(*seed + int64(i)))
		g.Go(func() error {
			return runConn(*addr, int64(*ops), rng, &opsDone, &failures, latCh)
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}
	close(latCh)
	elapsed := time.Since(start)

	lats := make([]time.Duration, 0, *ops)
	for d := range latCh {
		lats = append(lats, d)
	}
	sort.Slice(lats, func(i, j int) bool { return lats[i] < lats[j] })

	rep := report{
		Addr:        *addr,
		Connections: *conns,
		Ops:         int64(len(lats)),
		Failures:    failures.Load(),
		Elapsed:     elapsed.String(),
		OpsPerSec:   float64(len(lats)) / elapsed.Seconds(),
		P50:         percentile(lats, 50).String(),
		P95:         percentile(lats, 95).String(),
		P99:         percentile(lats, 99).String(),
	}

	fmt.Printf("Total ops: %d\n", rep.Ops)
	fmt.Printf("Failures: %d\n", rep.Failures)
	fmt.Printf("Elapsed: %s\n", rep.Elapsed)
	fmt.Printf("Ops/sec: %.2f\n", rep.OpsPerSec)
	fmt.Printf("p50: %s  p95: %s  p99: %s\n", rep.P50, rep.P95, rep.P99)

	if *reportPath != "" {
		if err := writeReport(*reportPath, rep); err != nil {
			fmt.Fprintf(os.Stderr, "write report: %v\n", err)
			os.Exit(1)
		}
	}
}

// runConn claims operations from the shared budget until it is spent.
func runConn(addr string, budget int64, rng *rand.Rand, opsDone, failures *atomic.Int64, latCh chan<- time.Duration) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	if _, err := protocol.ReadLine(reader); err != nil {
		return fmt.Errorf("read banner: %w", err)
	}

	for {
		if opsDone.Add(1) > budget {
			return nil
		}
		line := randomRequest(rng)
		startOp := time.Now()
		if _, err := writer.WriteString(line + "\n"); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
		out, err := protocol.ReadResponse(reader)
		if err != nil {
			return err
		}
		latCh <- time.Since(startOp)
		if out.Status != protocol.StatusOK {
			failures.Add(1)
		}
	}
}

func randomRequest(rng *rand.Rand) string {
	a := rng.Float64() * 1000
	b := rng.Float64()*999 + 1
	switch n := rng.Intn(100); {
	case n < 30:
		return fmt.Sprintf("ADD %.4f %.4f", a, b)
	case n < 50:
		return fmt.Sprintf("SUB %.4f %.4f", a, b)
	case n < 70:
		return fmt.Sprintf("MUL %.4f %.4f", a, b)
	case n < 85:
		return fmt.Sprintf("DIV %.4f %.4f", a, b)
	case n < 95:
		return fmt.Sprintf("SQRT %.4f", a)
	default:
		return fmt.Sprintf("POW %.4f %.4f", rng.Float64()*10, rng.Float64()*5)
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func writeReport(path string, rep report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
