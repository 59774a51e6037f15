package persistence

import "time"

// User represents a staff account in the campus scheduler domain.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Roles        []string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Venue represents a bookable room or hall on a campus.
type Venue struct {
	ID        string
	Name      string
	Building  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Term represents a semester within an academic year.
type Term struct {
	ID           string
	Name         string
	AcademicYear string
	StartsOn     time.Time
	EndsOn       time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MeetingStatus marks whether an occurrence is active or cancelled.
type MeetingStatus string

const (
	// MeetingStatusScheduled is the state of a live occurrence.
	MeetingStatusScheduled MeetingStatus = "scheduled"
	// MeetingStatusCancelled is the soft-deleted state.
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// Meeting represents one concrete scheduled class occurrence. BatchID groups
// the occurrences generated from a single recurrence expansion.
type Meeting struct {
	ID           string
	BatchID      string
	SectionID    string
	TermID       string
	VenueID      string
	InstructorID string
	Date         time.Time
	DayOfWeek    time.Weekday
	StartMinutes int
	EndMinutes   int
	Status       MeetingStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
