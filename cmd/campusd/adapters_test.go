package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/calendar"
	"github.com/example/campus-scheduler/internal/persistence"
)

func TestTranslateStorageError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, translateStorageError(nil))
	assert.ErrorIs(t, translateStorageError(persistence.ErrNotFound), application.ErrNotFound)
	assert.ErrorIs(t, translateStorageError(persistence.ErrDuplicate), application.ErrAlreadyExists)
	assert.ErrorIs(t, translateStorageError(fmt.Errorf("wrapped: %w", persistence.ErrNotFound)), application.ErrNotFound)

	opaque := fmt.Errorf("disk full")
	assert.Equal(t, opaque, translateStorageError(opaque))
}

func TestMeetingModelConversion(t *testing.T) {
	t.Parallel()

	meeting := application.Meeting{
		ID:           "meeting-1",
		BatchID:      "batch-1",
		SectionID:    "sec-101",
		TermID:       "term-1",
		VenueID:      "venue-1",
		InstructorID: "user-1",
		Date:         time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		DayOfWeek:    time.Monday,
		Window: calendar.TimeRange{
			Start: calendar.NewTimeOfDay(9, 0),
			End:   calendar.NewTimeOfDay(10, 30),
		},
		Status: application.MeetingScheduled,
	}

	model := toPersistenceMeeting(meeting)
	require.Equal(t, 9*60, model.StartMinutes)
	require.Equal(t, 10*60+30, model.EndMinutes)
	require.Equal(t, persistence.MeetingStatusScheduled, model.Status)

	assert.Equal(t, meeting, toApplicationMeeting(model))
}
