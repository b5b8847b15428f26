package occupancy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/spaceaccess/internal/domain"
)

var base = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type logBuilder struct {
	loc    uuid.UUID
	seq    int64
	events []*domain.ScanEvent
}

func (b *logBuilder) add(student string, typ domain.EventType, offset time.Duration) *logBuilder {
	b.seq++
	b.events = append(b.events, &domain.ScanEvent{
		ID:               b.seq,
		ScannedStudentID: student,
		Type:             typ,
		LocationID:       b.loc,
		Timestamp:        base.Add(offset),
	})
	return b
}

func capacity(n int) *int { return &n }

func TestResolveEmptyLog(t *testing.T) {
	loc := &domain.Location{ID: domain.SeedLocationID, Name: "Main Space", Capacity: capacity(100)}

	occ := Resolve(loc, nil)
	assert.Equal(t, 0, occ.Count)
	assert.Equal(t, 100, *occ.Capacity)
	assert.False(t, occ.OverCapacity)
	assert.Empty(t, occ.Present)
}

func TestResolveCountsLatestEntryOnce(t *testing.T) {
	loc := &domain.Location{ID: uuid.New(), Capacity: capacity(100)}
	b := &logBuilder{loc: loc.ID}

	b.add("12345", domain.EventEntry, 0)
	assert.Equal(t, 1, Resolve(loc, b.events).Count)

	b.add("12345", domain.EventEntry, time.Minute)
	assert.Equal(t, 1, Resolve(loc, b.events).Count)

	b.add("12345", domain.EventExit, 2*time.Minute)
	assert.Equal(t, 0, Resolve(loc, b.events).Count)
}

func TestResolveManualEventsDoNotCount(t *testing.T) {
	loc := &domain.Location{ID: uuid.New()}
	b := &logBuilder{loc: loc.ID}
	b.add("1", domain.EventEntry, 0).add("1", domain.EventManual, time.Second).add("2", domain.EventEntry, 0)

	occ := Resolve(loc, b.events)
	assert.Equal(t, 1, occ.Count)
	assert.Equal(t, []string{"2"}, occ.Present)
}

func TestResolveOlderEventInsertedLateIsIgnored(t *testing.T) {
	loc := &domain.Location{ID: uuid.New()}
	b := &logBuilder{loc: loc.ID}
	b.add("7", domain.EventEntry, time.Hour)
	before := Resolve(loc, b.events)

	// Appended later in the log but timestamped earlier.
	b.add("7", domain.EventExit, 0)
	after := Resolve(loc, b.events)

	assert.Equal(t, before.Count, after.Count)
	assert.Equal(t, 1, after.Count)
}

func TestResolveTieBreaksByLogSequence(t *testing.T) {
	loc := &domain.Location{ID: uuid.New()}
	b := &logBuilder{loc: loc.ID}
	b.add("9", domain.EventEntry, 0).add("9", domain.EventExit, 0)
	assert.Equal(t, 0, Resolve(loc, b.events).Count)

	b = &logBuilder{loc: loc.ID}
	b.add("9", domain.EventExit, 0).add("9", domain.EventEntry, 0)
	assert.Equal(t, 1, Resolve(loc, b.events).Count)
}

func TestResolveIgnoresOtherLocations(t *testing.T) {
	loc := &domain.Location{ID: uuid.New()}
	other := &logBuilder{loc: uuid.New()}
	other.add("1", domain.EventEntry, 0).add("2", domain.EventEntry, 0)

	b := &logBuilder{loc: loc.ID}
	b.add("3", domain.EventEntry, 0)

	events := append(other.events, b.events...)
	occ := Resolve(loc, events)
	assert.Equal(t, 1, occ.Count)
	assert.Equal(t, []string{"3"}, occ.Present)
}

func TestResolveOverCapacity(t *testing.T) {
	loc := &domain.Location{ID: uuid.New(), Capacity: capacity(1)}
	b := &logBuilder{loc: loc.ID}
	b.add("1", domain.EventEntry, 0)
	assert.False(t, Resolve(loc, b.events).OverCapacity)

	b.add("2", domain.EventEntry, time.Second)
	occ := Resolve(loc, b.events)
	assert.Equal(t, 2, occ.Count)
	assert.True(t, occ.OverCapacity)
}

func TestResolveUnboundedNeverOverCapacity(t *testing.T) {
	loc := &domain.Location{ID: uuid.New()}
	b := &logBuilder{loc: loc.ID}
	for i := 0; i < 50; i++ {
		b.add(string(rune('a'+i%26))+string(rune('a'+i/26)), domain.EventEntry, time.Duration(i)*time.Second)
	}

	occ := Resolve(loc, b.events)
	assert.Equal(t, 50, occ.Count)
	assert.Nil(t, occ.Capacity)
	assert.False(t, occ.OverCapacity)
}

func TestResolveInputOrderIrrelevant(t *testing.T) {
	loc := &domain.Location{ID: uuid.New()}
	b := &logBuilder{loc: loc.ID}
	b.add("1", domain.EventEntry, 0).add("1", domain.EventExit, time.Minute).add("2", domain.EventEntry, 2*time.Minute)

	reversed := make([]*domain.ScanEvent, len(b.events))
	for i, ev := range b.events {
		reversed[len(b.events)-1-i] = ev
	}

	assert.Equal(t, Resolve(loc, b.events), Resolve(loc, reversed))
}
