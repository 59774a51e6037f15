package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/authz"
	"github.com/example/campus-scheduler/internal/calendar"
	"github.com/example/campus-scheduler/internal/recurrence"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/testfixtures"
)

type meetingEnv struct {
	service  *application.MeetingService
	meetings *testfixtures.MemoryMeetingStore
	users    *testfixtures.MemoryUserStore
	venues   *testfixtures.MemoryVenueStore
	terms    *testfixtures.MemoryTermStore

	instructor application.User
	venue      application.Venue
	term       application.Term
}

func newMeetingEnv(t *testing.T, engine *recurrence.Engine) *meetingEnv {
	t.Helper()

	env := &meetingEnv{
		meetings: testfixtures.NewMemoryMeetingStore(),
		users:    testfixtures.NewMemoryUserStore(),
		venues:   testfixtures.NewMemoryVenueStore(),
		terms:    testfixtures.NewMemoryTermStore(),
	}
	env.instructor = testfixtures.NewUser(authz.RoleInstructor)
	env.users.Seed(env.instructor, "")
	env.venue = testfixtures.NewVenue()
	env.venues.Seed(env.venue)
	env.term = testfixtures.NewTerm()
	env.terms.Seed(env.term)

	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("m")
	env.service = application.NewMeetingService(
		env.meetings, env.users, env.venues, env.terms,
		engine, ids.NextFunc(), clock.NowFunc(), nil,
	)
	return env
}

func (env *meetingEnv) template() application.MeetingTemplate {
	return application.MeetingTemplate{
		SectionID:    "sec-101",
		TermID:       env.term.ID,
		VenueID:      env.venue.ID,
		InstructorID: env.instructor.ID,
		Window:       testfixtures.MorningWindow(),
	}
}

func weeklyJanuaryRule() recurrence.Rule {
	return recurrence.Rule{
		Pattern:  recurrence.PatternWeekly,
		StartsOn: time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2025, time.January, 27, 0, 0, 0, 0, time.UTC),
	}
}

func (env *meetingEnv) seedExisting(id string, venueID, instructorID string, window calendar.TimeRange) {
	env.meetings.Seed(application.Meeting{
		ID:           id,
		BatchID:      "batch-" + id,
		SectionID:    "sec-existing",
		TermID:       env.term.ID,
		VenueID:      venueID,
		InstructorID: instructorID,
		Date:         time.Date(2025, time.January, 13, 0, 0, 0, 0, time.UTC),
		DayOfWeek:    time.Monday,
		Window:       window,
		Status:       application.MeetingScheduled,
	})
}

func TestMeetingService_ScheduleMeetings(t *testing.T) {
	t.Parallel()

	t.Run("persists a weekly series without colliding with its own weeks", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)

		result, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)
		require.Nil(t, result.Conflict)
		require.Len(t, result.Meetings, 4)
		assert.NotEmpty(t, result.BatchID)
		assert.Equal(t, 4, env.meetings.Len())

		for _, m := range result.Meetings {
			assert.Equal(t, result.BatchID, m.BatchID)
			assert.Equal(t, time.Monday, m.DayOfWeek)
			assert.Equal(t, application.MeetingScheduled, m.Status)
		}
		assert.Equal(t, time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC), result.Meetings[0].Date)
		assert.Equal(t, time.Date(2025, time.January, 27, 0, 0, 0, 0, time.UTC), result.Meetings[3].Date)
	})

	t.Run("reports a venue conflict and persists nothing", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		busy := calendar.TimeRange{Start: calendar.TimeOfDay(9*60 + 30), End: calendar.TimeOfDay(11 * 60)}
		env.seedExisting("busy-1", env.venue.ID, "someone-else", busy)

		result, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)
		require.NotNil(t, result.Conflict)
		assert.Equal(t, scheduler.ConflictVenue, result.Conflict.Kind)
		assert.Equal(t, "busy-1", result.Conflict.ConflictingMeetingID)
		assert.Equal(t, 1, env.meetings.Len())
	})

	t.Run("reports conflicts with bookings made under an overlapping term", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		otherTerm := testfixtures.NewTerm()
		env.terms.Seed(otherTerm)
		env.meetings.Seed(application.Meeting{
			ID:           "other-term-1",
			BatchID:      "batch-other-term-1",
			SectionID:    "sec-other",
			TermID:       otherTerm.ID,
			VenueID:      env.venue.ID,
			InstructorID: "someone-else",
			Date:         time.Date(2025, time.January, 13, 0, 0, 0, 0, time.UTC),
			DayOfWeek:    time.Monday,
			Window:       testfixtures.MorningWindow(),
			Status:       application.MeetingScheduled,
		})

		result, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)
		require.NotNil(t, result.Conflict)
		assert.Equal(t, scheduler.ConflictVenue, result.Conflict.Kind)
		assert.Equal(t, "other-term-1", result.Conflict.ConflictingMeetingID)
		assert.Equal(t, 1, env.meetings.Len())
	})

	t.Run("ignores bookings dated outside the term window", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		fallTerm := application.Term{
			ID:       "term-fall",
			Name:     "Fall",
			StartsOn: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
			EndsOn:   time.Date(2025, time.December, 19, 0, 0, 0, 0, time.UTC),
		}
		env.terms.Seed(fallTerm)
		env.meetings.Seed(application.Meeting{
			ID:           "fall-1",
			BatchID:      "batch-fall-1",
			SectionID:    "sec-other",
			TermID:       fallTerm.ID,
			VenueID:      env.venue.ID,
			InstructorID: env.instructor.ID,
			Date:         time.Date(2025, time.September, 8, 0, 0, 0, 0, time.UTC),
			DayOfWeek:    time.Monday,
			Window:       testfixtures.MorningWindow(),
			Status:       application.MeetingScheduled,
		})

		result, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)
		assert.Nil(t, result.Conflict)
		assert.Len(t, result.Meetings, 4)
	})

	t.Run("reports an instructor conflict when only the instructor collides", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		otherVenue := testfixtures.NewVenue()
		env.venues.Seed(otherVenue)
		busy := calendar.TimeRange{Start: calendar.TimeOfDay(10 * 60), End: calendar.TimeOfDay(12 * 60)}
		env.seedExisting("busy-2", otherVenue.ID, env.instructor.ID, busy)

		result, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)
		require.NotNil(t, result.Conflict)
		assert.Equal(t, scheduler.ConflictInstructor, result.Conflict.Kind)
		assert.Equal(t, "busy-2", result.Conflict.ConflictingMeetingID)
	})

	t.Run("allows touching windows", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		earlier := calendar.TimeRange{Start: calendar.TimeOfDay(8 * 60), End: calendar.TimeOfDay(9 * 60)}
		env.seedExisting("busy-3", env.venue.ID, env.instructor.ID, earlier)

		result, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)
		assert.Nil(t, result.Conflict)
		assert.Len(t, result.Meetings, 4)
	})

	t.Run("denies principals without meeting write access", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)

		_, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.ViewerPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		assert.ErrorIs(t, err, application.ErrUnauthorized)
	})

	t.Run("rejects templates referencing unknown resources", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		template := env.template()
		template.VenueID = "missing-venue"

		_, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  template,
			Rule:      weeklyJanuaryRule(),
		})
		vErr, ok := application.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, vErr.Fields, "venue_id")
	})

	t.Run("rejects unknown terms", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		template := env.template()
		template.TermID = "missing-term"

		_, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  template,
			Rule:      weeklyJanuaryRule(),
		})
		vErr, ok := application.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, vErr.Fields, "term_id")
	})

	t.Run("rejects invalid time windows", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		template := env.template()
		template.Window = calendar.TimeRange{Start: calendar.TimeOfDay(10 * 60), End: calendar.TimeOfDay(9 * 60)}

		_, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  template,
			Rule:      weeklyJanuaryRule(),
		})
		vErr, ok := application.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, vErr.Fields, "window")
	})

	t.Run("defaults the rule window to the term bounds", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)

		result, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      recurrence.Rule{Pattern: recurrence.PatternWeekly},
		})
		require.NoError(t, err)
		require.Nil(t, result.Conflict)
		require.Len(t, result.Meetings, 26)
		assert.Equal(t, env.term.StartsOn, result.Meetings[0].Date)
		assert.Equal(t, time.Date(2025, time.June, 25, 0, 0, 0, 0, time.UTC), result.Meetings[25].Date)
	})

	t.Run("rejects occurrences outside the term", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)

		_, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule: recurrence.Rule{
				Pattern:  recurrence.PatternWeekly,
				StartsOn: time.Date(2025, time.June, 23, 0, 0, 0, 0, time.UTC),
				EndsOn:   time.Date(2025, time.July, 7, 0, 0, 0, 0, time.UTC),
			},
		})
		vErr, ok := application.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, vErr.Fields, "rule")
	})

	t.Run("surfaces oversized expansions as validation failures", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, recurrence.NewEngine(10))

		_, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      recurrence.Rule{Pattern: recurrence.PatternDaily},
		})
		vErr, ok := application.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, vErr.Fields, "rule")
		assert.Equal(t, 0, env.meetings.Len())
	})
}

func TestMeetingService_PreviewMeetings(t *testing.T) {
	t.Parallel()

	t.Run("expands and checks without persisting", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)

		result, err := env.service.PreviewMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.ViewerPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)
		require.Nil(t, result.Conflict)
		assert.Len(t, result.Meetings, 4)
		assert.Equal(t, 0, env.meetings.Len())
	})

	t.Run("reports conflicts the same way scheduling does", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		busy := calendar.TimeRange{Start: calendar.TimeOfDay(9 * 60), End: calendar.TimeOfDay(10 * 60)}
		env.seedExisting("busy-9", env.venue.ID, "someone-else", busy)

		result, err := env.service.PreviewMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.ViewerPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)
		require.NotNil(t, result.Conflict)
		assert.Equal(t, scheduler.ConflictVenue, result.Conflict.Kind)
	})
}

func TestMeetingService_ListMeetings(t *testing.T) {
	t.Parallel()

	t.Run("flags overlaps between different batches", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		overlapping := calendar.TimeRange{Start: calendar.TimeOfDay(9*60 + 45), End: calendar.TimeOfDay(11 * 60)}
		env.seedExisting("ex-1", env.venue.ID, "instructor-a", testfixtures.MorningWindow())
		env.seedExisting("ex-2", env.venue.ID, "instructor-b", overlapping)

		meetings, warnings, err := env.service.ListMeetings(context.Background(), application.ListMeetingsParams{
			Principal: testfixtures.ViewerPrincipal(),
			TermID:    env.term.ID,
		})
		require.NoError(t, err)
		assert.Len(t, meetings, 2)
		require.Len(t, warnings, 2)
		ids := []string{warnings[0].MeetingID, warnings[1].MeetingID}
		assert.ElementsMatch(t, []string{"ex-1", "ex-2"}, ids)
	})

	t.Run("does not warn about a series overlapping itself", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)

		_, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)

		meetings, warnings, err := env.service.ListMeetings(context.Background(), application.ListMeetingsParams{
			Principal: testfixtures.ViewerPrincipal(),
			TermID:    env.term.ID,
		})
		require.NoError(t, err)
		assert.Len(t, meetings, 4)
		assert.Empty(t, warnings)
	})

	t.Run("filters by instructor and date range", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		env.seedExisting("ex-3", env.venue.ID, "instructor-a", testfixtures.MorningWindow())

		from := time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC)
		meetings, _, err := env.service.ListMeetings(context.Background(), application.ListMeetingsParams{
			Principal:    testfixtures.ViewerPrincipal(),
			InstructorID: "instructor-a",
			From:         &from,
		})
		require.NoError(t, err)
		assert.Empty(t, meetings)

		meetings, _, err = env.service.ListMeetings(context.Background(), application.ListMeetingsParams{
			Principal:    testfixtures.ViewerPrincipal(),
			InstructorID: "instructor-a",
		})
		require.NoError(t, err)
		assert.Len(t, meetings, 1)
	})
}

func TestMeetingService_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("cancelling a batch frees its slots", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)

		first, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)
		require.Nil(t, first.Conflict)

		require.NoError(t, env.service.CancelBatch(context.Background(), testfixtures.RegistrarPrincipal(), first.BatchID))

		meetings, _, err := env.service.ListMeetings(context.Background(), application.ListMeetingsParams{
			Principal: testfixtures.ViewerPrincipal(),
			TermID:    env.term.ID,
		})
		require.NoError(t, err)
		assert.Empty(t, meetings)

		second, err := env.service.ScheduleMeetings(context.Background(), application.ScheduleMeetingsParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Template:  env.template(),
			Rule:      weeklyJanuaryRule(),
		})
		require.NoError(t, err)
		assert.Nil(t, second.Conflict)
	})

	t.Run("cancelling a single occurrence requires delete access", func(t *testing.T) {
		t.Parallel()
		env := newMeetingEnv(t, nil)
		env.seedExisting("ex-4", env.venue.ID, "instructor-a", testfixtures.MorningWindow())

		err := env.service.CancelMeeting(context.Background(), testfixtures.ViewerPrincipal(), "ex-4")
		assert.ErrorIs(t, err, application.ErrUnauthorized)

		require.NoError(t, env.service.CancelMeeting(context.Background(), testfixtures.RegistrarPrincipal(), "ex-4"))
		err = env.service.CancelMeeting(context.Background(), testfixtures.RegistrarPrincipal(), "ex-4")
		assert.ErrorIs(t, err, application.ErrNotFound)
	})
}
