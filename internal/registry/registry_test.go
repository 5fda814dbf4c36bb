package registry

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeRecord(t *testing.T, now time.Time) (*Record, net.Conn) {
	t.Helper()
	srv, cli := net.Pipe()
	t.Cleanup(func() {
		srv.Close()
		cli.Close()
	})
	return NewRecord(srv, now), cli
}

func TestRegistryAddRemove(t *testing.T) {
	reg := New()
	now := time.Now()

	var ids []string
	for i := 0; i < 3; i++ {
		rec, _ := newPipeRecord(t, now)
		reg.Add(rec)
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, 3, reg.Len())
	assert.Len(t, reg.Snapshot(), 3)

	reg.Remove(ids[0])
	assert.Equal(t, 2, reg.Len())

	// Removing an unknown ID is a no-op.
	reg.Remove("nope")
	assert.Equal(t, 2, reg.Len())
}

func TestRecordActivity(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec, _ := newPipeRecord(t, start)

	require.NotEmpty(t, rec.ID)
	assert.Equal(t, "pipe", rec.RemoteAddr)
	assert.Equal(t, start, rec.ConnectedAt)
	assert.Equal(t, start.UnixMilli(), rec.LastActive().UnixMilli())

	later := start.Add(42 * time.Second)
	rec.Touch(later)
	assert.Equal(t, later.UnixMilli(), rec.LastActive().UnixMilli())

	assert.Equal(t, int64(1), rec.IncRequests())
	assert.Equal(t, int64(2), rec.IncRequests())
	assert.Equal(t, int64(2), rec.Requests())
}

func TestRecordKick(t *testing.T) {
	rec, cli := newPipeRecord(t, time.Now())

	got := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(cli)
		got <- string(data)
	}()

	rec.Kick("SERVER server shutting down - closing connection")
	rec.Kick("SERVER server shutting down - closing connection")

	select {
	case data := <-got:
		assert.Equal(t, "SERVER server shutting down - closing connection\n", data)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for kick notice")
	}
}

func TestRecordKickSilent(t *testing.T) {
	rec, cli := newPipeRecord(t, time.Now())

	got := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(cli)
		got <- string(data)
	}()

	rec.Kick("")

	select {
	case data := <-got:
		assert.Empty(t, data)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close")
	}
}
