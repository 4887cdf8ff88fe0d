package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psidex/topoedit/internal/topology"
)

func newTestRegistry() (*Registry, *time.Time) {
	r := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestRegistry_CreateGetDelete(t *testing.T) {
	r, _ := newTestRegistry()

	s := r.Create(topology.WithCanvas(100, 100))
	require.NotNil(t, s.Store)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, topology.Position{X: 50, Y: 50}, got.Store.CreateDefaultNode().Position)

	require.NoError(t, r.Delete(s.ID))
	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after Delete")
	}

	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, r.Delete(s.ID), ErrSessionNotFound)
}

func TestRegistry_Hooks(t *testing.T) {
	r, _ := newTestRegistry()
	var created, deleted []string
	r.OnCreate(func(s *Session) { created = append(created, s.ID) })
	r.OnDelete(func(s *Session) { deleted = append(deleted, s.ID) })

	a := r.Create()
	b := r.Create()
	require.NoError(t, r.Delete(a.ID))

	assert.ElementsMatch(t, []string{a.ID, b.ID}, created)
	assert.Equal(t, []string{a.ID}, deleted)
	assert.Equal(t, []string{b.ID}, r.List())
}

func TestRegistry_Reap(t *testing.T) {
	r, now := newTestRegistry()

	old := r.Create()
	*now = now.Add(10 * time.Minute)
	fresh := r.Create()
	*now = now.Add(10 * time.Minute)

	// Looking a session up keeps it alive.
	_, err := r.Get(fresh.ID)
	require.NoError(t, err)

	reaped := r.Reap(15 * time.Minute)

	assert.Equal(t, []string{old.ID}, reaped)
	assert.Equal(t, []string{fresh.ID}, r.List())
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r, _ := newTestRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
