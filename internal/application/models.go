package application

import (
	"time"

	"github.com/example/campus-scheduler/internal/authz"
	"github.com/example/campus-scheduler/internal/calendar"
	"github.com/example/campus-scheduler/internal/recurrence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
// Roles are snapshotted when the session is validated.
type Principal struct {
	UserID string
	Roles  []authz.Role
}

// Can reports whether the principal's permission snapshot grants the action.
func (p Principal) Can(module authz.Module, action authz.Action) bool {
	return authz.PermissionsForRoles(p.Roles).Authorize(module, action)
}

// User represents a staff account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Roles       []authz.Role
	Disabled    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	Roles       []authz.Role
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update an existing user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// AssignRolesParams wraps the data required to replace a user's roles.
type AssignRolesParams struct {
	Principal Principal
	UserID    string
	Roles     []authz.Role
}

// Venue represents a bookable room or hall.
type Venue struct {
	ID        string
	Name      string
	Building  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VenueInput captures caller provided venue fields.
type VenueInput struct {
	Name     string
	Building string
	Capacity int
}

// CreateVenueParams wraps the data required to create a venue.
type CreateVenueParams struct {
	Principal Principal
	Input     VenueInput
}

// UpdateVenueParams wraps the data required to update a venue.
type UpdateVenueParams struct {
	Principal Principal
	VenueID   string
	Input     VenueInput
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

// TermInput captures caller provided term fields.
type TermInput struct {
	Name         string
	AcademicYear string
	StartsOn     time.Time
	EndsOn       time.Time
}

// CreateTermParams wraps the data required to create a term.
type CreateTermParams struct {
	Principal Principal
	Input     TermInput
}

// UpdateTermParams wraps the data required to update a term.
type UpdateTermParams struct {
	Principal Principal
	TermID    string
	Input     TermInput
}

// MeetingStatus marks whether an occurrence is live or cancelled.
type MeetingStatus string

const (
	// MeetingScheduled is the state of a live occurrence.
	MeetingScheduled MeetingStatus = "scheduled"
	// MeetingCancelled is the soft-deleted state.
	MeetingCancelled MeetingStatus = "cancelled"
)

// Meeting represents one concrete scheduled class occurrence.
type Meeting struct {
	ID           string
	BatchID      string
	SectionID    string
	TermID       string
	VenueID      string
	InstructorID string
	Date         time.Time
	DayOfWeek    time.Weekday
	Window       calendar.TimeRange
	Status       MeetingStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MeetingTemplate is the prototype a recurrence rule stamps onto each
// generated date.
type MeetingTemplate struct {
	SectionID    string
	TermID       string
	VenueID      string
	InstructorID string
	Window       calendar.TimeRange
}

// ScheduleMeetingsParams wraps a template plus the rule describing how it
// repeats.
type ScheduleMeetingsParams struct {
	Principal Principal
	Template  MeetingTemplate
	Rule      recurrence.Rule
}

// ConflictReport names the first collision found during a preflight check.
type ConflictReport struct {
	Kind                 scheduler.ConflictKind
	Date                 time.Time
	CandidateIndex       int
	ConflictingMeetingID string
}

// ScheduleMeetingsResult carries either the persisted batch or the conflict
// that blocked it. Conflict is nil on success.
type ScheduleMeetingsResult struct {
	BatchID  string
	Meetings []Meeting
	Conflict *ConflictReport
}

// ListMeetingsParams narrows meeting listings.
type ListMeetingsParams struct {
	Principal        Principal
	VenueID          string
	InstructorID     string
	SectionID        string
	TermID           string
	From             *time.Time
	To               *time.Time
	IncludeCancelled bool
}

// ConflictWarning flags an overlap between two already-persisted meetings,
// surfaced on listings so operators can spot double bookings.
type ConflictWarning struct {
	MeetingID            string
	Kind                 scheduler.ConflictKind
	ConflictingMeetingID string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RefreshSessionParams captures the data required to rotate a session token.
type RefreshSessionParams struct {
	Token string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}
