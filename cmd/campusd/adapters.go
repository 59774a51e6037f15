package main

import (
	"context"
	"errors"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/authz"
	"github.com/example/campus-scheduler/internal/calendar"
	"github.com/example/campus-scheduler/internal/persistence"
)

// translateStorageError lifts persistence sentinels into the application's
// error vocabulary so the services never match on storage errors directly.
func translateStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrAlreadyExists
	default:
		return err
	}
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, translateStorageError(err)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, translateStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, translateStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	current, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, translateStorageError(err)
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, current.PasswordHash)); err != nil {
		return application.User{}, translateStorageError(err)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, translateStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return translateStorageError(a.repo.DeleteUser(ctx, id))
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, translateStorageError(err)
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

func (a *userRepositoryAdapter) CountUsers(ctx context.Context) (int, error) {
	count, err := a.repo.CountUsers(ctx)
	return count, translateStorageError(err)
}

// GetUserCredentialsByEmail lets the same adapter also serve as the auth
// service's credential store.
func (a *userRepositoryAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, translateStorageError(err)
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *userRepositoryAdapter) UserExists(ctx context.Context, id string) (bool, error) {
	if _, err := a.repo.GetUser(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type venueRepositoryAdapter struct {
	repo persistence.VenueRepository
}

func newVenueRepositoryAdapter(repo persistence.VenueRepository) *venueRepositoryAdapter {
	return &venueRepositoryAdapter{repo: repo}
}

func (a *venueRepositoryAdapter) CreateVenue(ctx context.Context, venue application.Venue) (application.Venue, error) {
	if err := a.repo.CreateVenue(ctx, toPersistenceVenue(venue)); err != nil {
		return application.Venue{}, translateStorageError(err)
	}
	stored, err := a.repo.GetVenue(ctx, venue.ID)
	if err != nil {
		return application.Venue{}, translateStorageError(err)
	}
	return toApplicationVenue(stored), nil
}

func (a *venueRepositoryAdapter) GetVenue(ctx context.Context, id string) (application.Venue, error) {
	stored, err := a.repo.GetVenue(ctx, id)
	if err != nil {
		return application.Venue{}, translateStorageError(err)
	}
	return toApplicationVenue(stored), nil
}

func (a *venueRepositoryAdapter) UpdateVenue(ctx context.Context, venue application.Venue) (application.Venue, error) {
	if err := a.repo.UpdateVenue(ctx, toPersistenceVenue(venue)); err != nil {
		return application.Venue{}, translateStorageError(err)
	}
	stored, err := a.repo.GetVenue(ctx, venue.ID)
	if err != nil {
		return application.Venue{}, translateStorageError(err)
	}
	return toApplicationVenue(stored), nil
}

func (a *venueRepositoryAdapter) DeleteVenue(ctx context.Context, id string) error {
	return translateStorageError(a.repo.DeleteVenue(ctx, id))
}

func (a *venueRepositoryAdapter) ListVenues(ctx context.Context) ([]application.Venue, error) {
	models, err := a.repo.ListVenues(ctx)
	if err != nil {
		return nil, translateStorageError(err)
	}
	venues := make([]application.Venue, 0, len(models))
	for _, model := range models {
		venues = append(venues, toApplicationVenue(model))
	}
	return venues, nil
}

func (a *venueRepositoryAdapter) VenueExists(ctx context.Context, id string) (bool, error) {
	if _, err := a.repo.GetVenue(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type termRepositoryAdapter struct {
	repo persistence.TermRepository
}

func newTermRepositoryAdapter(repo persistence.TermRepository) *termRepositoryAdapter {
	return &termRepositoryAdapter{repo: repo}
}

func (a *termRepositoryAdapter) CreateTerm(ctx context.Context, term application.Term) (application.Term, error) {
	if err := a.repo.CreateTerm(ctx, toPersistenceTerm(term)); err != nil {
		return application.Term{}, translateStorageError(err)
	}
	stored, err := a.repo.GetTerm(ctx, term.ID)
	if err != nil {
		return application.Term{}, translateStorageError(err)
	}
	return toApplicationTerm(stored), nil
}

func (a *termRepositoryAdapter) GetTerm(ctx context.Context, id string) (application.Term, error) {
	stored, err := a.repo.GetTerm(ctx, id)
	if err != nil {
		return application.Term{}, translateStorageError(err)
	}
	return toApplicationTerm(stored), nil
}

func (a *termRepositoryAdapter) UpdateTerm(ctx context.Context, term application.Term) (application.Term, error) {
	if err := a.repo.UpdateTerm(ctx, toPersistenceTerm(term)); err != nil {
		return application.Term{}, translateStorageError(err)
	}
	stored, err := a.repo.GetTerm(ctx, term.ID)
	if err != nil {
		return application.Term{}, translateStorageError(err)
	}
	return toApplicationTerm(stored), nil
}

func (a *termRepositoryAdapter) DeleteTerm(ctx context.Context, id string) error {
	return translateStorageError(a.repo.DeleteTerm(ctx, id))
}

func (a *termRepositoryAdapter) ListTerms(ctx context.Context) ([]application.Term, error) {
	models, err := a.repo.ListTerms(ctx)
	if err != nil {
		return nil, translateStorageError(err)
	}
	terms := make([]application.Term, 0, len(models))
	for _, model := range models {
		terms = append(terms, toApplicationTerm(model))
	}
	return terms, nil
}

type meetingRepositoryAdapter struct {
	repo persistence.MeetingRepository
}

func newMeetingRepositoryAdapter(repo persistence.MeetingRepository) *meetingRepositoryAdapter {
	return &meetingRepositoryAdapter{repo: repo}
}

func (a *meetingRepositoryAdapter) CreateMeetings(ctx context.Context, meetings []application.Meeting) ([]application.Meeting, error) {
	models := make([]persistence.Meeting, 0, len(meetings))
	for _, meeting := range meetings {
		models = append(models, toPersistenceMeeting(meeting))
	}
	if err := a.repo.CreateMeetings(ctx, models); err != nil {
		return nil, translateStorageError(err)
	}
	return meetings, nil
}

func (a *meetingRepositoryAdapter) GetMeeting(ctx context.Context, id string) (application.Meeting, error) {
	stored, err := a.repo.GetMeeting(ctx, id)
	if err != nil {
		return application.Meeting{}, translateStorageError(err)
	}
	return toApplicationMeeting(stored), nil
}

func (a *meetingRepositoryAdapter) ListMeetings(ctx context.Context, filter application.MeetingRepositoryFilter) ([]application.Meeting, error) {
	models, err := a.repo.ListMeetings(ctx, persistence.MeetingFilter{
		VenueID:          filter.VenueID,
		InstructorID:     filter.InstructorID,
		SectionID:        filter.SectionID,
		TermID:           filter.TermID,
		From:             filter.From,
		To:               filter.To,
		IncludeCancelled: filter.IncludeCancelled,
	})
	if err != nil {
		return nil, translateStorageError(err)
	}
	meetings := make([]application.Meeting, 0, len(models))
	for _, model := range models {
		meetings = append(meetings, toApplicationMeeting(model))
	}
	return meetings, nil
}

func (a *meetingRepositoryAdapter) CancelMeeting(ctx context.Context, id string, at time.Time) error {
	return translateStorageError(a.repo.CancelMeeting(ctx, id, at))
}

func (a *meetingRepositoryAdapter) CancelBatch(ctx context.Context, batchID string, at time.Time) error {
	return translateStorageError(a.repo.CancelBatch(ctx, batchID, at))
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, translateStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, translateStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, translateStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, translateStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return translateStorageError(a.repo.DeleteExpiredSessions(ctx, reference))
}

func toApplicationUser(model persistence.User) application.User {
	roles := make([]authz.Role, 0, len(model.Roles))
	for _, role := range model.Roles {
		roles = append(roles, authz.Role(role))
	}
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		Roles:       roles,
		Disabled:    model.Disabled,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, string(role))
	}
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Roles:        roles,
		PasswordHash: passwordHash,
		Disabled:     user.Disabled,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationVenue(model persistence.Venue) application.Venue {
	return application.Venue{
		ID:        model.ID,
		Name:      model.Name,
		Building:  model.Building,
		Capacity:  model.Capacity,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceVenue(venue application.Venue) persistence.Venue {
	return persistence.Venue{
		ID:        venue.ID,
		Name:      venue.Name,
		Building:  venue.Building,
		Capacity:  venue.Capacity,
		CreatedAt: venue.CreatedAt,
		UpdatedAt: venue.UpdatedAt,
	}
}

func toApplicationTerm(model persistence.Term) application.Term {
	return application.Term{
		ID:           model.ID,
		Name:         model.Name,
		AcademicYear: model.AcademicYear,
		StartsOn:     model.StartsOn,
		EndsOn:       model.EndsOn,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func toPersistenceTerm(term application.Term) persistence.Term {
	return persistence.Term{
		ID:           term.ID,
		Name:         term.Name,
		AcademicYear: term.AcademicYear,
		StartsOn:     term.StartsOn,
		EndsOn:       term.EndsOn,
		CreatedAt:    term.CreatedAt,
		UpdatedAt:    term.UpdatedAt,
	}
}

func toApplicationMeeting(model persistence.Meeting) application.Meeting {
	return application.Meeting{
		ID:           model.ID,
		BatchID:      model.BatchID,
		SectionID:    model.SectionID,
		TermID:       model.TermID,
		VenueID:      model.VenueID,
		InstructorID: model.InstructorID,
		Date:         model.Date,
		DayOfWeek:    model.DayOfWeek,
		Window: calendar.TimeRange{
			Start: calendar.TimeOfDay(model.StartMinutes),
			End:   calendar.TimeOfDay(model.EndMinutes),
		},
		Status:    application.MeetingStatus(model.Status),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceMeeting(meeting application.Meeting) persistence.Meeting {
	return persistence.Meeting{
		ID:           meeting.ID,
		BatchID:      meeting.BatchID,
		SectionID:    meeting.SectionID,
		TermID:       meeting.TermID,
		VenueID:      meeting.VenueID,
		InstructorID: meeting.InstructorID,
		Date:         meeting.Date,
		DayOfWeek:    meeting.DayOfWeek,
		StartMinutes: int(meeting.Window.Start),
		EndMinutes:   int(meeting.Window.End),
		Status:       persistence.MeetingStatus(meeting.Status),
		CreatedAt:    meeting.CreatedAt,
		UpdatedAt:    meeting.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
