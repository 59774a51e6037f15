package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campus-scheduler/internal/calendar"
)

func window(startHour, endHour int) calendar.TimeRange {
	return calendar.TimeRange{
		Start: calendar.NewTimeOfDay(startHour, 0),
		End:   calendar.NewTimeOfDay(endHour, 0),
	}
}

func halfPastWindow(startHour, endHour int) calendar.TimeRange {
	return calendar.TimeRange{
		Start: calendar.NewTimeOfDay(startHour, 30),
		End:   calendar.NewTimeOfDay(endHour, 30),
	}
}

func existingMeetings() []Meeting {
	return []Meeting{
		{ID: "m-1", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Monday, Window: window(9, 10)},
		{ID: "m-2", VenueID: "venue-b", InstructorID: "inst-2", Day: time.Monday, Window: window(11, 12)},
		{ID: "m-3", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Wednesday, Window: window(9, 10)},
	}
}

func TestCheckOne_VenueConflict(t *testing.T) {
	t.Parallel()

	ix := BuildIndex(existingMeetings())
	candidate := Meeting{ID: "c-1", VenueID: "venue-a", InstructorID: "inst-9", Day: time.Monday, Window: halfPastWindow(9, 10)}

	result, err := CheckOne(ix, candidate)
	require.NoError(t, err)
	assert.Equal(t, ConflictVenue, result.Kind)
	assert.Equal(t, "m-1", result.ConflictingMeetingID)
}

func TestCheckOne_InstructorConflict(t *testing.T) {
	t.Parallel()

	ix := BuildIndex(existingMeetings())
	candidate := Meeting{ID: "c-1", VenueID: "venue-c", InstructorID: "inst-1", Day: time.Monday, Window: halfPastWindow(9, 10)}

	result, err := CheckOne(ix, candidate)
	require.NoError(t, err)
	assert.Equal(t, ConflictInstructor, result.Kind)
	assert.Equal(t, "m-1", result.ConflictingMeetingID)
}

func TestCheckOne_VenueReportedBeforeInstructor(t *testing.T) {
	t.Parallel()

	// The candidate collides on both axes; the venue conflict wins.
	ix := BuildIndex(existingMeetings())
	candidate := Meeting{ID: "c-1", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Monday, Window: halfPastWindow(9, 10)}

	result, err := CheckOne(ix, candidate)
	require.NoError(t, err)
	assert.Equal(t, ConflictVenue, result.Kind)
}

func TestCheckOne_DifferentWeekdayNeverConflicts(t *testing.T) {
	t.Parallel()

	ix := BuildIndex(existingMeetings())
	candidate := Meeting{ID: "c-1", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Tuesday, Window: window(9, 10)}

	result, err := CheckOne(ix, candidate)
	require.NoError(t, err)
	assert.True(t, result.Ok())
}

func TestCheckOne_TouchingWindowsDoNotConflict(t *testing.T) {
	t.Parallel()

	ix := BuildIndex(existingMeetings())
	candidate := Meeting{ID: "c-1", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Monday, Window: window(10, 11)}

	result, err := CheckOne(ix, candidate)
	require.NoError(t, err)
	assert.True(t, result.Ok())
}

func TestCheckOne_InvalidWindow(t *testing.T) {
	t.Parallel()

	ix := BuildIndex(nil)
	candidate := Meeting{ID: "c-1", VenueID: "venue-a", Day: time.Monday, Window: window(10, 9)}

	_, err := CheckOne(ix, candidate)
	assert.ErrorIs(t, err, calendar.ErrInvalidTimeRange)
}

func TestCheckOne_IgnoresOwnBooking(t *testing.T) {
	t.Parallel()

	// Re-checking a persisted meeting against a snapshot that contains it
	// must not report the meeting as conflicting with itself.
	meetings := existingMeetings()
	ix := BuildIndex(meetings)

	result, err := CheckOne(ix, meetings[0])
	require.NoError(t, err)
	assert.True(t, result.Ok())
}

func TestCheckSequence_FailFastWithIndex(t *testing.T) {
	t.Parallel()

	ix := BuildIndex(existingMeetings())
	candidates := []Meeting{
		{ID: "c-0", VenueID: "venue-c", InstructorID: "inst-9", Day: time.Monday, Window: window(9, 10)},
		{ID: "c-1", VenueID: "venue-a", InstructorID: "inst-9", Day: time.Monday, Window: halfPastWindow(9, 10)},
		{ID: "c-2", VenueID: "venue-c", InstructorID: "inst-9", Day: time.Friday, Window: window(9, 10)},
	}

	result, err := CheckSequence(ix, candidates)
	require.NoError(t, err)
	assert.Equal(t, ConflictVenue, result.Kind)
	assert.Equal(t, 1, result.CandidateIndex)
	assert.Equal(t, "m-1", result.ConflictingMeetingID)
}

func TestCheckSequence_DoesNotFoldBatchMembers(t *testing.T) {
	t.Parallel()

	// Two self-conflicting candidates pass against an empty snapshot.
	ix := BuildIndex(nil)
	candidates := []Meeting{
		{ID: "c-0", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Monday, Window: window(9, 10)},
		{ID: "c-1", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Monday, Window: halfPastWindow(9, 10)},
	}

	result, err := CheckSequence(ix, candidates)
	require.NoError(t, err)
	assert.True(t, result.Ok())
}

func TestCheckSequenceFolding_CatchesBatchInternalConflicts(t *testing.T) {
	t.Parallel()

	ix := BuildIndex(nil)
	candidates := []Meeting{
		{ID: "c-0", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Monday, Window: window(9, 10)},
		{ID: "c-1", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Monday, Window: halfPastWindow(9, 10)},
	}

	result, err := CheckSequenceFolding(ix, candidates)
	require.NoError(t, err)
	assert.Equal(t, ConflictVenue, result.Kind)
	assert.Equal(t, 1, result.CandidateIndex)
	assert.Equal(t, "c-0", result.ConflictingMeetingID)
}

func TestCheckSequenceFolding_LeavesSnapshotUntouched(t *testing.T) {
	t.Parallel()

	ix := BuildIndex(nil)
	candidates := []Meeting{
		{ID: "c-0", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Monday, Window: window(9, 10)},
	}

	result, err := CheckSequenceFolding(ix, candidates)
	require.NoError(t, err)
	require.True(t, result.Ok())

	// The caller's snapshot gains nothing from the folded batch.
	assert.Empty(t, ix.VenueBookings("venue-a", time.Monday))
}

func TestBuildIndex_BucketsSortedByStart(t *testing.T) {
	t.Parallel()

	ix := BuildIndex([]Meeting{
		{ID: "late", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Monday, Window: window(14, 15)},
		{ID: "early", VenueID: "venue-a", InstructorID: "inst-1", Day: time.Monday, Window: window(8, 9)},
		{ID: "mid", VenueID: "venue-a", InstructorID: "inst-2", Day: time.Monday, Window: window(10, 11)},
	})

	bookings := ix.VenueBookings("venue-a", time.Monday)
	require.Len(t, bookings, 3)
	assert.Equal(t, "early", bookings[0].MeetingID)
	assert.Equal(t, "mid", bookings[1].MeetingID)
	assert.Equal(t, "late", bookings[2].MeetingID)

	instructor := ix.InstructorBookings("inst-1", time.Monday)
	require.Len(t, instructor, 2)
	assert.Equal(t, "early", instructor[0].MeetingID)

	assert.Empty(t, ix.VenueBookings("venue-a", time.Tuesday))
	assert.Empty(t, ix.VenueBookings("venue-z", time.Monday))
}
