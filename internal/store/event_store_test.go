package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/spaceaccess/internal/domain"
)

var t0 = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func seedLocations(t *testing.T, s *Store) (main, other *domain.Location) {
	t.Helper()
	ctx := context.Background()
	_, err := s.Locations.EnsureSeed(ctx)
	require.NoError(t, err)
	main, err = s.Locations.GetByID(ctx, domain.SeedLocationID)
	require.NoError(t, err)
	other, err = s.Locations.Create(ctx, "Annex", nil)
	require.NoError(t, err)
	return main, other
}

func appendEvent(t *testing.T, s *Store, user *domain.User, loc *domain.Location, typ domain.EventType, at time.Time) *domain.ScanEvent {
	t.Helper()
	ev := &domain.ScanEvent{
		ScannedStudentID: user.StudentID,
		NameAtScan:       user.DisplayName(),
		Type:             typ,
		LocationID:       loc.ID,
		Timestamp:        at,
	}
	ev.UserID = &user.ID
	got, err := s.Events.Append(context.Background(), ev)
	require.NoError(t, err)
	return got
}

func TestEventStoreAppend(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	main, _ := seedLocations(t, s)

	u, err := s.Users.Create(ctx, "12345", "Ada", "Lovelace", t0)
	require.NoError(t, err)

	ev := appendEvent(t, s, u, main, domain.EventEntry, t0)
	assert.NotZero(t, ev.ID)
	assert.Equal(t, "12345", ev.ScannedStudentID)
	assert.Equal(t, "Ada Lovelace", ev.NameAtScan)
	assert.Equal(t, domain.EventEntry, ev.Type)
	assert.Equal(t, main.ID, ev.LocationID)
	assert.True(t, t0.Equal(ev.Timestamp))
	assert.Equal(t, "{}", ev.RawPayload)
	require.NotNil(t, ev.UserID)
	assert.Equal(t, u.ID, *ev.UserID)

	next := appendEvent(t, s, u, main, domain.EventExit, t0)
	assert.Greater(t, next.ID, ev.ID)
}

func TestEventStoreRejectsUnknownType(t *testing.T) {
	s := openTestStore(t)
	main, _ := seedLocations(t, s)

	_, err := s.Events.Append(context.Background(), &domain.ScanEvent{
		ScannedStudentID: "1",
		Type:             domain.EventType("teleport"),
		LocationID:       main.ID,
		Timestamp:        t0,
	})
	assert.Error(t, err)
}

func TestEventStoreListByLocationInLogOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	main, other := seedLocations(t, s)

	u, err := s.Users.Create(ctx, "1", "", "", t0)
	require.NoError(t, err)

	late := appendEvent(t, s, u, main, domain.EventExit, t0.Add(time.Hour))
	early := appendEvent(t, s, u, main, domain.EventEntry, t0)
	appendEvent(t, s, u, other, domain.EventEntry, t0)

	events, err := s.Events.ListByLocation(ctx, main.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, early.ID, events[0].ID)
	assert.Equal(t, late.ID, events[1].ID)
}

func TestEventStoreListNewestFirstWithJoins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	main, other := seedLocations(t, s)

	ada, err := s.Users.Create(ctx, "100", "Ada", "Lovelace", t0)
	require.NoError(t, err)
	bob, err := s.Users.Create(ctx, "200", "Bob", "Builder", t0)
	require.NoError(t, err)

	appendEvent(t, s, ada, main, domain.EventEntry, t0)
	appendEvent(t, s, bob, other, domain.EventEntry, t0.Add(time.Minute))
	appendEvent(t, s, ada, main, domain.EventExit, t0.Add(2*time.Minute))

	details, total, err := s.Events.List(ctx, domain.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, details, 3)
	assert.Equal(t, domain.EventExit, details[0].Type)
	assert.Equal(t, "Ada", details[0].FirstName)
	assert.Equal(t, "Main Space", details[0].LocationName)
	assert.Equal(t, "Annex", details[1].LocationName)
	assert.Equal(t, "Builder", details[1].LastName)
}

func TestEventStoreListPaginates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	main, _ := seedLocations(t, s)

	u, err := s.Users.Create(ctx, "1", "", "", t0)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		appendEvent(t, s, u, main, domain.EventEntry, t0.Add(time.Duration(i)*time.Second))
	}

	page, total, err := s.Events.List(ctx, domain.EventFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.True(t, t0.Add(2*time.Second).Equal(page[0].Timestamp))
	assert.True(t, t0.Add(time.Second).Equal(page[1].Timestamp))
}

func TestEventStoreSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	main, _ := seedLocations(t, s)

	ada, err := s.Users.Create(ctx, "555001", "Ada", "Lovelace", t0)
	require.NoError(t, err)
	bob, err := s.Users.Create(ctx, "777002", "Bob", "Builder", t0)
	require.NoError(t, err)
	appendEvent(t, s, ada, main, domain.EventEntry, t0)
	appendEvent(t, s, bob, main, domain.EventEntry, t0)

	for query, want := range map[string]int{
		"555":     1,
		"love":    1,
		"BOB":     1,
		"builder": 1,
		"00":      2,
		"nobody":  0,
		"%":       0,
		"_":       0,
		"  ada  ": 1,
	} {
		got, total, err := s.Events.List(ctx, domain.EventFilter{Query: query})
		require.NoError(t, err, query)
		assert.Equal(t, want, total, query)
		assert.Len(t, got, want, query)
	}
}

func TestEventStoreSearchFoldsNonASCII(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	main, _ := seedLocations(t, s)

	u, err := s.Users.Create(ctx, "424242", "Élise", "Öztürk", t0)
	require.NoError(t, err)
	appendEvent(t, s, u, main, domain.EventEntry, t0)

	for _, query := range []string{"Élise", "élise", "ÉLISE", "ÖZTÜRK", "öztürk", "ztürk"} {
		got, total, err := s.Events.List(ctx, domain.EventFilter{Query: query})
		require.NoError(t, err, query)
		assert.Equal(t, 1, total, query)
		require.Len(t, got, 1, query)
		assert.Equal(t, "424242", got[0].ScannedStudentID, query)
	}
}

func TestEventStoreSearchMatchesNameAtScanAfterUserGone(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	main, _ := seedLocations(t, s)

	u, err := s.Users.Create(ctx, "1", "Ghost", "", t0)
	require.NoError(t, err)
	appendEvent(t, s, u, main, domain.EventEntry, t0)

	_, err = s.Users.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", u.ID)
	require.NoError(t, err)

	got, _, err := s.Events.List(ctx, domain.EventFilter{Query: "ghost"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].UserID)
	assert.Equal(t, "Ghost", got[0].NameAtScan)
	assert.Equal(t, "", got[0].FirstName)
}

func TestEventStoreUpdateAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	main, _ := seedLocations(t, s)

	u, err := s.Users.Create(ctx, "1", "", "", t0)
	require.NoError(t, err)
	ev := appendEvent(t, s, u, main, domain.EventEntry, t0)

	require.NoError(t, s.Events.UpdateNameAtScan(ctx, ev.ID, "Renamed Person"))
	got, err := s.Events.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Person", got.NameAtScan)
	assert.True(t, t0.Equal(got.Timestamp))
	assert.Equal(t, domain.EventEntry, got.Type)

	require.NoError(t, s.Events.Delete(ctx, ev.ID))
	got, err = s.Events.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.True(t, domain.IsNotFound(s.Events.Delete(ctx, ev.ID)))
	assert.True(t, domain.IsNotFound(s.Events.UpdateNameAtScan(ctx, ev.ID, "x")))
}

func TestEventStoreCascadesLocationDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, other := seedLocations(t, s)

	u, err := s.Users.Create(ctx, "1", "", "", t0)
	require.NoError(t, err)
	ev := appendEvent(t, s, u, other, domain.EventEntry, t0)

	require.NoError(t, s.Locations.Delete(ctx, other.ID))

	got, err := s.Events.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
