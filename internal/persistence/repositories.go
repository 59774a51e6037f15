package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for staff accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
}

// VenueRepository exposes CRUD operations for venues.
type VenueRepository interface {
	CreateVenue(ctx context.Context, venue Venue) error
	UpdateVenue(ctx context.Context, venue Venue) error
	GetVenue(ctx context.Context, id string) (Venue, error)
	ListVenues(ctx context.Context) ([]Venue, error)
	DeleteVenue(ctx context.Context, id string) error
}

// TermRepository exposes CRUD operations for academic terms.
type TermRepository interface {
	CreateTerm(ctx context.Context, term Term) error
	UpdateTerm(ctx context.Context, term Term) error
	GetTerm(ctx context.Context, id string) (Term, error)
	ListTerms(ctx context.Context) ([]Term, error)
	DeleteTerm(ctx context.Context, id string) error
}

// MeetingFilter narrows meeting queries. Zero fields match everything.
type MeetingFilter struct {
	VenueID          string
	InstructorID     string
	SectionID        string
	TermID           string
	From             *time.Time
	To               *time.Time
	IncludeCancelled bool
}

// MeetingRepository stores concrete meeting occurrences.
type MeetingRepository interface {
	// CreateMeetings persists a batch atomically: either every occurrence
	// is written or none is.
	CreateMeetings(ctx context.Context, meetings []Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
	CancelMeeting(ctx context.Context, id string, cancelledAt time.Time) error
	CancelBatch(ctx context.Context, batchID string, cancelledAt time.Time) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
