package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vbonduro/spaceaccess/internal/db"
	"github.com/vbonduro/spaceaccess/internal/store"
)

// fakeClock hands out strictly increasing timestamps unless pinned with set.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// set makes the next Now call return t.
func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.Add(-time.Second)
}

type testServices struct {
	store     *store.Store
	clock     *fakeClock
	directory *Directory
	locations *Locations
	tracker   *Tracker
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	st := store.New(d)
	clock := newFakeClock()
	logger := slog.Default()

	svc := &testServices{
		store:     st,
		clock:     clock,
		directory: NewDirectory(st, logger, WithClock(clock.Now)),
		locations: NewLocations(st, logger),
		tracker:   NewTracker(st, logger, WithClock(clock.Now)),
	}
	require.NoError(t, svc.locations.EnsureSeed(context.Background()))
	return svc
}
