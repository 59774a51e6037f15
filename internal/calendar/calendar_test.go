package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "09:00", want: NewTimeOfDay(9, 0)},
		{input: "00:00", want: NewTimeOfDay(0, 0)},
		{input: "23:59", want: NewTimeOfDay(23, 59)},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "noon", wantErr: true},
		{input: "", wantErr: true},
		{input: "9:30", wantErr: true},
		{input: "09:30:00", wantErr: true},
		{input: "9:30xyz", wantErr: true},
		{input: " 09:30", wantErr: true},
		{input: "09: 30", wantErr: true},
		{input: "-9:30", wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTimeOfDay(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTimeOfDay_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "09:05", NewTimeOfDay(9, 5).String())
	assert.Equal(t, "00:00", TimeOfDay(0).String())
	assert.Equal(t, "23:59", NewTimeOfDay(23, 59).String())
}

func TestTimeRange_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		r       TimeRange
		wantErr bool
	}{
		{name: "valid", r: TimeRange{Start: NewTimeOfDay(9, 0), End: NewTimeOfDay(10, 0)}},
		{name: "full day", r: TimeRange{Start: 0, End: MinutesPerDay}},
		{name: "empty", r: TimeRange{Start: NewTimeOfDay(9, 0), End: NewTimeOfDay(9, 0)}, wantErr: true},
		{name: "inverted", r: TimeRange{Start: NewTimeOfDay(10, 0), End: NewTimeOfDay(9, 0)}, wantErr: true},
		{name: "negative start", r: TimeRange{Start: -1, End: 60}, wantErr: true},
		{name: "past midnight", r: TimeRange{Start: NewTimeOfDay(23, 0), End: MinutesPerDay + 30}, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.r.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeRange)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRangesOverlap(t *testing.T) {
	t.Parallel()

	nine2ten := TimeRange{Start: NewTimeOfDay(9, 0), End: NewTimeOfDay(10, 0)}
	ten2eleven := TimeRange{Start: NewTimeOfDay(10, 0), End: NewTimeOfDay(11, 0)}
	halfPast := TimeRange{Start: NewTimeOfDay(9, 30), End: NewTimeOfDay(10, 30)}

	t.Run("reflexive", func(t *testing.T) {
		t.Parallel()
		assert.True(t, RangesOverlap(nine2ten, nine2ten))
	})

	t.Run("symmetric", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, RangesOverlap(nine2ten, halfPast), RangesOverlap(halfPast, nine2ten))
		assert.Equal(t, RangesOverlap(nine2ten, ten2eleven), RangesOverlap(ten2eleven, nine2ten))
	})

	t.Run("touching endpoints do not overlap", func(t *testing.T) {
		t.Parallel()
		assert.False(t, RangesOverlap(nine2ten, ten2eleven))
	})

	t.Run("partial overlap", func(t *testing.T) {
		t.Parallel()
		assert.True(t, RangesOverlap(nine2ten, halfPast))
	})

	t.Run("containment", func(t *testing.T) {
		t.Parallel()
		outer := TimeRange{Start: NewTimeOfDay(8, 0), End: NewTimeOfDay(12, 0)}
		assert.True(t, RangesOverlap(outer, nine2ten))
		assert.True(t, RangesOverlap(nine2ten, outer))
	})
}

func TestDayOf(t *testing.T) {
	t.Parallel()

	// 2025-01-06 is a Monday.
	monday := time.Date(2025, time.January, 6, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Monday, DayOf(monday))
	assert.Equal(t, time.Sunday, DayOf(monday.AddDate(0, 0, 6)))
}

func TestDateOnly(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, time.March, 14, 18, 45, 12, 999, time.UTC)
	got := DateOnly(ts)
	assert.Equal(t, time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC), got)
	assert.True(t, SameDate(ts, got))
	assert.False(t, SameDate(ts, ts.AddDate(0, 0, 1)))
}
