package scheduler

import (
	"sort"
	"time"

	"github.com/example/campus-scheduler/internal/calendar"
)

// Meeting is one concrete scheduled class occurrence.
type Meeting struct {
	ID           string
	SectionID    string
	VenueID      string
	InstructorID string
	Day          time.Weekday
	Window       calendar.TimeRange
	Date         time.Time
}

// Booking is one reserved time window inside an Index bucket.
type Booking struct {
	Window    calendar.TimeRange
	MeetingID string
}

type resourceKey struct {
	id  string
	day time.Weekday
}

// Index is a read-only snapshot of existing bookings grouped by venue and by
// instructor per weekday. It is rebuilt from the flat meeting list on each
// conflict check; the backend remains the source of truth.
type Index struct {
	venues      map[resourceKey][]Booking
	instructors map[resourceKey][]Booking
}

// BuildIndex groups the meetings by (venue, weekday) and (instructor,
// weekday), keeping each bucket sorted by window start.
func BuildIndex(meetings []Meeting) *Index {
	ix := &Index{
		venues:      make(map[resourceKey][]Booking),
		instructors: make(map[resourceKey][]Booking),
	}
	for _, meeting := range meetings {
		ix.add(meeting)
	}
	for key := range ix.venues {
		sortBookings(ix.venues[key])
	}
	for key := range ix.instructors {
		sortBookings(ix.instructors[key])
	}
	return ix
}

// VenueBookings returns the ordered reserved windows for a venue on a weekday.
func (ix *Index) VenueBookings(venueID string, day time.Weekday) []Booking {
	if ix == nil {
		return nil
	}
	return cloneBookings(ix.venues[resourceKey{id: venueID, day: day}])
}

// InstructorBookings returns the ordered reserved windows for an instructor
// on a weekday.
func (ix *Index) InstructorBookings(instructorID string, day time.Weekday) []Booking {
	if ix == nil {
		return nil
	}
	return cloneBookings(ix.instructors[resourceKey{id: instructorID, day: day}])
}

// add appends a meeting's windows without re-sorting; callers sort afterwards.
func (ix *Index) add(meeting Meeting) {
	booking := Booking{Window: meeting.Window, MeetingID: meeting.ID}
	if meeting.VenueID != "" {
		key := resourceKey{id: meeting.VenueID, day: meeting.Day}
		ix.venues[key] = append(ix.venues[key], booking)
	}
	if meeting.InstructorID != "" {
		key := resourceKey{id: meeting.InstructorID, day: meeting.Day}
		ix.instructors[key] = append(ix.instructors[key], booking)
	}
}

// clone deep-copies the index so folding checks can extend a working copy
// without touching the caller's snapshot.
func (ix *Index) clone() *Index {
	if ix == nil {
		return BuildIndex(nil)
	}
	out := &Index{
		venues:      make(map[resourceKey][]Booking, len(ix.venues)),
		instructors: make(map[resourceKey][]Booking, len(ix.instructors)),
	}
	for key, bookings := range ix.venues {
		out.venues[key] = cloneBookings(bookings)
	}
	for key, bookings := range ix.instructors {
		out.instructors[key] = cloneBookings(bookings)
	}
	return out
}

func sortBookings(bookings []Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].Window.Start == bookings[j].Window.Start {
			return bookings[i].MeetingID < bookings[j].MeetingID
		}
		return bookings[i].Window.Start < bookings[j].Window.Start
	})
}

func cloneBookings(bookings []Booking) []Booking {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]Booking, len(bookings))
	copy(out, bookings)
	return out
}
