package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campus-scheduler/internal/persistence"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testClock() time.Time {
	return time.Date(2025, time.January, 2, 12, 0, 0, 0, time.UTC)
}

func TestOpen_AppliesPragmas(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	var foreignKeys int
	require.NoError(t, db.Handle().QueryRow(`PRAGMA foreign_keys`).Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys, "foreign key enforcement must be on")

	var journalMode string
	require.NoError(t, db.Handle().QueryRow(`PRAGMA journal_mode`).Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
}

func seedUser(t *testing.T, db *DB, id, email string) persistence.User {
	t.Helper()
	user := persistence.User{
		ID:          id,
		Email:       email,
		DisplayName: "Test User",
		Roles:       []string{"instructor"},
		CreatedAt:   testClock(),
		UpdatedAt:   testClock(),
	}
	require.NoError(t, NewUserRepository(db).CreateUser(context.Background(), user))
	return user
}

func seedVenue(t *testing.T, db *DB, id, name string) persistence.Venue {
	t.Helper()
	venue := persistence.Venue{
		ID:        id,
		Name:      name,
		Building:  "Science Block",
		Capacity:  40,
		CreatedAt: testClock(),
		UpdatedAt: testClock(),
	}
	require.NoError(t, NewVenueRepository(db).CreateVenue(context.Background(), venue))
	return venue
}

func seedTerm(t *testing.T, db *DB, id string) persistence.Term {
	t.Helper()
	term := persistence.Term{
		ID:           id,
		Name:         "Spring",
		AcademicYear: "2025",
		StartsOn:     time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:       time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		CreatedAt:    testClock(),
		UpdatedAt:    testClock(),
	}
	require.NoError(t, NewTermRepository(db).CreateTerm(context.Background(), term))
	return term
}

func TestUserRepository_RoundTrip(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "user-1", "ada@example.edu")

	got, err := repo.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, []string{"instructor"}, got.Roles)

	byEmail, err := repo.GetUserByEmail(ctx, "ADA@example.edu")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byEmail.ID)

	got.DisplayName = "Ada Lovelace"
	got.Roles = []string{"instructor", "registrar"}
	got.UpdatedAt = testClock().Add(time.Hour)
	require.NoError(t, repo.UpdateUser(ctx, got))

	updated, err := repo.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.DisplayName)
	assert.Equal(t, []string{"instructor", "registrar"}, updated.Roles)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.DeleteUser(ctx, "user-1"))
	_, err = repo.GetUser(ctx, "user-1")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	seedUser(t, db, "user-1", "ada@example.edu")

	err := repo.CreateUser(context.Background(), persistence.User{
		ID:          "user-2",
		Email:       "Ada@Example.edu",
		DisplayName: "Impostor",
		CreatedAt:   testClock(),
		UpdatedAt:   testClock(),
	})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)
}

func TestVenueRepository_RoundTrip(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewVenueRepository(db)
	ctx := context.Background()

	seedVenue(t, db, "venue-1", "Lecture Hall A")
	seedVenue(t, db, "venue-2", "Lab 2")

	venues, err := repo.ListVenues(ctx)
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, "Lab 2", venues[0].Name)

	got, err := repo.GetVenue(ctx, "venue-1")
	require.NoError(t, err)
	got.Capacity = 80
	got.UpdatedAt = testClock().Add(time.Hour)
	require.NoError(t, repo.UpdateVenue(ctx, got))

	updated, err := repo.GetVenue(ctx, "venue-1")
	require.NoError(t, err)
	assert.Equal(t, 80, updated.Capacity)

	require.NoError(t, repo.DeleteVenue(ctx, "venue-2"))
	_, err = repo.GetVenue(ctx, "venue-2")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestVenueRepository_NonPositiveCapacityRejected(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	err := NewVenueRepository(db).CreateVenue(context.Background(), persistence.Venue{
		ID:        "venue-bad",
		Name:      "Broom Closet",
		Capacity:  0,
		CreatedAt: testClock(),
		UpdatedAt: testClock(),
	})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
}

func TestTermRepository_RoundTrip(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewTermRepository(db)
	ctx := context.Background()

	term := seedTerm(t, db, "term-1")

	got, err := repo.GetTerm(ctx, "term-1")
	require.NoError(t, err)
	assert.True(t, got.StartsOn.Equal(term.StartsOn))
	assert.True(t, got.EndsOn.Equal(term.EndsOn))

	terms, err := repo.ListTerms(ctx)
	require.NoError(t, err)
	assert.Len(t, terms, 1)
}

func TestMeetingRepository_BatchIsAtomic(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewMeetingRepository(db)
	ctx := context.Background()

	seedUser(t, db, "inst-1", "inst@example.edu")
	seedVenue(t, db, "venue-1", "Lecture Hall A")
	seedTerm(t, db, "term-1")

	base := persistence.Meeting{
		BatchID:      "batch-1",
		SectionID:    "sec-1",
		TermID:       "term-1",
		VenueID:      "venue-1",
		InstructorID: "inst-1",
		Date:         time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		DayOfWeek:    time.Monday,
		StartMinutes: 9 * 60,
		EndMinutes:   10 * 60,
		Status:       persistence.MeetingStatusScheduled,
		CreatedAt:    testClock(),
		UpdatedAt:    testClock(),
	}

	good := base
	good.ID = "m-1"
	bad := base
	bad.ID = "m-2"
	bad.VenueID = "venue-missing"

	err := repo.CreateMeetings(ctx, []persistence.Meeting{good, bad})
	assert.ErrorIs(t, err, persistence.ErrForeignKeyViolation)

	// The failing row must roll back the whole batch.
	meetings, err := repo.ListMeetings(ctx, persistence.MeetingFilter{})
	require.NoError(t, err)
	assert.Empty(t, meetings)
}

func TestMeetingRepository_ListAndCancel(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewMeetingRepository(db)
	ctx := context.Background()

	seedUser(t, db, "inst-1", "inst@example.edu")
	seedVenue(t, db, "venue-1", "Lecture Hall A")
	seedTerm(t, db, "term-1")

	batch := make([]persistence.Meeting, 0, 3)
	for i, day := range []int{6, 13, 20} {
		batch = append(batch, persistence.Meeting{
			ID:           fmt.Sprintf("m-%d", i+1),
			BatchID:      "batch-1",
			SectionID:    "sec-1",
			TermID:       "term-1",
			VenueID:      "venue-1",
			InstructorID: "inst-1",
			Date:         time.Date(2025, time.January, day, 0, 0, 0, 0, time.UTC),
			DayOfWeek:    time.Monday,
			StartMinutes: 9 * 60,
			EndMinutes:   10 * 60,
			Status:       persistence.MeetingStatusScheduled,
			CreatedAt:    testClock(),
			UpdatedAt:    testClock(),
		})
	}
	require.NoError(t, repo.CreateMeetings(ctx, batch))

	meetings, err := repo.ListMeetings(ctx, persistence.MeetingFilter{VenueID: "venue-1"})
	require.NoError(t, err)
	require.Len(t, meetings, 3)
	assert.Equal(t, "m-1", meetings[0].ID)
	assert.Equal(t, time.Monday, meetings[0].DayOfWeek)

	from := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	windowed, err := repo.ListMeetings(ctx, persistence.MeetingFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, windowed, 2)

	require.NoError(t, repo.CancelMeeting(ctx, "m-1", testClock().Add(time.Hour)))
	active, err := repo.ListMeetings(ctx, persistence.MeetingFilter{})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	require.NoError(t, repo.CancelBatch(ctx, "batch-1", testClock().Add(time.Hour)))
	active, err = repo.ListMeetings(ctx, persistence.MeetingFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.ListMeetings(ctx, persistence.MeetingFilter{IncludeCancelled: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Cancelling an already-cancelled batch finds nothing to touch.
	err = repo.CancelBatch(ctx, "batch-1", testClock().Add(2*time.Hour))
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	seedUser(t, db, "user-1", "ada@example.edu")

	session := persistence.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Token:     "token-1",
		ExpiresAt: testClock().Add(24 * time.Hour),
		CreatedAt: testClock(),
		UpdatedAt: testClock(),
	}
	_, err := repo.CreateSession(ctx, session)
	require.NoError(t, err)

	got, err := repo.GetSession(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Nil(t, got.RevokedAt)

	// Rotate the token, keyed by session ID.
	got.Token = "token-2"
	got.UpdatedAt = testClock().Add(time.Hour)
	_, err = repo.UpdateSession(ctx, got)
	require.NoError(t, err)

	_, err = repo.GetSession(ctx, "token-1")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	revoked, err := repo.RevokeSession(ctx, "token-2", testClock().Add(2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)

	require.NoError(t, repo.DeleteExpiredSessions(ctx, testClock().Add(48*time.Hour)))
	_, err = repo.GetSession(ctx, "token-2")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}
