package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gorilla/websocket"

	"github.com/loganszeto/calcd-go/internal/protocol"
	"github.com/loganszeto/calcd-go/internal/server"
	"github.com/loganszeto/calcd-go/internal/stats"
)

const (
	defaultObject   = "calcd/stats.json"
	defaultInterval = time.Minute
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	port := getenv("PORT", "8081")
	bucket := os.Getenv("CALC_DEMO_BUCKET")
	object := getenv("CALC_DEMO_OBJECT", defaultObject)
	interval := defaultInterval
	if v := os.Getenv("CALC_DEMO_UPLOAD_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Error("bad CALC_DEMO_UPLOAD_INTERVAL", "value", v, "error", err)
			os.Exit(1)
		}
		interval = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := stats.New()

	if bucket != "" {
		rep, err := newStatsReporter(ctx, bucket, object, st, log)
		if err != nil {
			log.Error("storage client failed", "error", err)
			os.Exit(1)
		}
		go rep.run(ctx, interval)
	}

	handler := &wsHandler{stats: st, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", handler.handleWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("calc-demo: connect a websocket to /ws and send calculator requests\n"))
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           withLogging(log, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Info("calc demo listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func withLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

type wsHandler struct {
	stats *stats.Stats
	log   *slog.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// handleWS speaks the calculator protocol over websocket frames: one
// request per message, one response per message, banner first.
func (h *wsHandler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.stats.ConnectionOpened()
	defer h.stats.ConnectionClosed()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(protocol.Banner)); err != nil {
		return
	}

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		h.stats.RecordRequest()
		start := time.Now()
		out := server.Process(strings.TrimSpace(string(payload)))
		h.stats.RecordResponse(string(out.Status), time.Since(start).Seconds())

		line, err := protocol.RenderOutcome(out)
		if err != nil {
			line = "ERROR internal server error"
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}
}

type statsReporter struct {
	client *storage.Client
	bucket string
	object string
	stats  *stats.Stats
	log    *slog.Logger
	mu     sync.Mutex
}

func newStatsReporter(ctx context.Context, bucket, object string, st *stats.Stats, log *slog.Logger) (*statsReporter, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &statsReporter{
		client: client,
		bucket: bucket,
		object: object,
		stats:  st,
		log:    log,
	}, nil
}

func (g *statsReporter) run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := g.upload(ctx); err != nil {
				g.log.Warn("stats upload failed", "error", err)
			}
		}
	}
}

func (g *statsReporter) upload(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	body := map[string]any{
		"captured_at": time.Now().UTC().Format(time.RFC3339),
		"stats":       g.stats.Snapshot(),
	}
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(g.object).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func getenv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
