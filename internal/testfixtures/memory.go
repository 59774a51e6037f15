package testfixtures

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/campus-scheduler/internal/application"
)

// MemoryUserStore is an in-memory implementation of the application's user
// repository, credential store, and directory interfaces.
type MemoryUserStore struct {
	mu     sync.RWMutex
	users  map[string]application.User
	hashes map[string]string
}

// NewMemoryUserStore returns an empty user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:  make(map[string]application.User),
		hashes: make(map[string]string),
	}
}

// Seed inserts a user with its password hash, bypassing uniqueness checks.
func (s *MemoryUserStore) Seed(user application.User, hash string) {
	s.mu.Lock()
	s.users[user.ID] = user
	s.hashes[user.ID] = hash
	s.mu.Unlock()
}

func (s *MemoryUserStore) CreateUser(_ context.Context, user application.User, hash string) (application.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return application.User{}, application.ErrAlreadyExists
		}
	}
	s.users[user.ID] = user
	s.hashes[user.ID] = hash
	return user, nil
}

func (s *MemoryUserStore) GetUser(_ context.Context, id string) (application.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return application.User{}, application.ErrNotFound
	}
	return user, nil
}

func (s *MemoryUserStore) UpdateUser(_ context.Context, user application.User) (application.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return application.User{}, application.ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return application.User{}, application.ErrAlreadyExists
		}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryUserStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return application.ErrNotFound
	}
	delete(s.users, id)
	delete(s.hashes, id)
	return nil
}

func (s *MemoryUserStore) ListUsers(_ context.Context) ([]application.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]application.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *MemoryUserStore) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *MemoryUserStore) GetUserCredentialsByEmail(_ context.Context, email string) (application.UserCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return application.UserCredentials{User: user, PasswordHash: s.hashes[id]}, nil
		}
	}
	return application.UserCredentials{}, application.ErrNotFound
}

func (s *MemoryUserStore) UserExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

// MemoryVenueStore is an in-memory venue repository and catalog.
type MemoryVenueStore struct {
	mu     sync.RWMutex
	venues map[string]application.Venue
}

// NewMemoryVenueStore returns an empty venue store.
func NewMemoryVenueStore() *MemoryVenueStore {
	return &MemoryVenueStore{venues: make(map[string]application.Venue)}
}

// Seed inserts a venue, bypassing uniqueness checks.
func (s *MemoryVenueStore) Seed(venue application.Venue) {
	s.mu.Lock()
	s.venues[venue.ID] = venue
	s.mu.Unlock()
}

func (s *MemoryVenueStore) CreateVenue(_ context.Context, venue application.Venue) (application.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.venues {
		if existing.Name == venue.Name && existing.Building == venue.Building {
			return application.Venue{}, application.ErrAlreadyExists
		}
	}
	s.venues[venue.ID] = venue
	return venue, nil
}

func (s *MemoryVenueStore) GetVenue(_ context.Context, id string) (application.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	venue, ok := s.venues[id]
	if !ok {
		return application.Venue{}, application.ErrNotFound
	}
	return venue, nil
}

func (s *MemoryVenueStore) UpdateVenue(_ context.Context, venue application.Venue) (application.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.venues[venue.ID]; !ok {
		return application.Venue{}, application.ErrNotFound
	}
	s.venues[venue.ID] = venue
	return venue, nil
}

func (s *MemoryVenueStore) DeleteVenue(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.venues[id]; !ok {
		return application.ErrNotFound
	}
	delete(s.venues, id)
	return nil
}

func (s *MemoryVenueStore) ListVenues(_ context.Context) ([]application.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]application.Venue, 0, len(s.venues))
	for _, venue := range s.venues {
		out = append(out, venue)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryVenueStore) VenueExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.venues[id]
	return ok, nil
}

// MemoryTermStore is an in-memory term repository and catalog.
type MemoryTermStore struct {
	mu    sync.RWMutex
	terms map[string]application.Term
}

// NewMemoryTermStore returns an empty term store.
func NewMemoryTermStore() *MemoryTermStore {
	return &MemoryTermStore{terms: make(map[string]application.Term)}
}

// Seed inserts a term, bypassing uniqueness checks.
func (s *MemoryTermStore) Seed(term application.Term) {
	s.mu.Lock()
	s.terms[term.ID] = term
	s.mu.Unlock()
}

func (s *MemoryTermStore) CreateTerm(_ context.Context, term application.Term) (application.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.terms {
		if existing.Name == term.Name && existing.AcademicYear == term.AcademicYear {
			return application.Term{}, application.ErrAlreadyExists
		}
	}
	s.terms[term.ID] = term
	return term, nil
}

func (s *MemoryTermStore) GetTerm(_ context.Context, id string) (application.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term, ok := s.terms[id]
	if !ok {
		return application.Term{}, application.ErrNotFound
	}
	return term, nil
}

func (s *MemoryTermStore) UpdateTerm(_ context.Context, term application.Term) (application.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.terms[term.ID]; !ok {
		return application.Term{}, application.ErrNotFound
	}
	s.terms[term.ID] = term
	return term, nil
}

func (s *MemoryTermStore) DeleteTerm(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.terms[id]; !ok {
		return application.ErrNotFound
	}
	delete(s.terms, id)
	return nil
}

func (s *MemoryTermStore) ListTerms(_ context.Context) ([]application.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]application.Term, 0, len(s.terms))
	for _, term := range s.terms {
		out = append(out, term)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsOn.Before(out[j].StartsOn) })
	return out, nil
}

// MemoryMeetingStore is an in-memory meeting repository.
type MemoryMeetingStore struct {
	mu       sync.RWMutex
	meetings map[string]application.Meeting
}

// NewMemoryMeetingStore returns an empty meeting store.
func NewMemoryMeetingStore() *MemoryMeetingStore {
	return &MemoryMeetingStore{meetings: make(map[string]application.Meeting)}
}

// Seed inserts meetings directly.
func (s *MemoryMeetingStore) Seed(meetings ...application.Meeting) {
	s.mu.Lock()
	for _, m := range meetings {
		s.meetings[m.ID] = m
	}
	s.mu.Unlock()
}

// Len reports how many meetings the store holds, cancelled ones included.
func (s *MemoryMeetingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meetings)
}

func (s *MemoryMeetingStore) CreateMeetings(_ context.Context, meetings []application.Meeting) ([]application.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range meetings {
		if _, ok := s.meetings[m.ID]; ok {
			return nil, application.ErrAlreadyExists
		}
	}
	for _, m := range meetings {
		s.meetings[m.ID] = m
	}
	return append([]application.Meeting(nil), meetings...), nil
}

func (s *MemoryMeetingStore) GetMeeting(_ context.Context, id string) (application.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[id]
	if !ok {
		return application.Meeting{}, application.ErrNotFound
	}
	return m, nil
}

func (s *MemoryMeetingStore) ListMeetings(_ context.Context, filter application.MeetingRepositoryFilter) ([]application.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]application.Meeting, 0, len(s.meetings))
	for _, m := range s.meetings {
		if !matchesFilter(m, filter) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Window.Start != out[j].Window.Start {
			return out[i].Window.Start < out[j].Window.Start
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryMeetingStore) CancelMeeting(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok || m.Status == application.MeetingCancelled {
		return application.ErrNotFound
	}
	m.Status = application.MeetingCancelled
	m.UpdatedAt = at
	s.meetings[id] = m
	return nil
}

func (s *MemoryMeetingStore) CancelBatch(_ context.Context, batchID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancelled := 0
	for id, m := range s.meetings {
		if m.BatchID != batchID || m.Status == application.MeetingCancelled {
			continue
		}
		m.Status = application.MeetingCancelled
		m.UpdatedAt = at
		s.meetings[id] = m
		cancelled++
	}
	if cancelled == 0 {
		return application.ErrNotFound
	}
	return nil
}

func matchesFilter(m application.Meeting, filter application.MeetingRepositoryFilter) bool {
	if !filter.IncludeCancelled && m.Status == application.MeetingCancelled {
		return false
	}
	if filter.VenueID != "" && m.VenueID != filter.VenueID {
		return false
	}
	if filter.InstructorID != "" && m.InstructorID != filter.InstructorID {
		return false
	}
	if filter.SectionID != "" && m.SectionID != filter.SectionID {
		return false
	}
	if filter.TermID != "" && m.TermID != filter.TermID {
		return false
	}
	if filter.From != nil && m.Date.Before(*filter.From) {
		return false
	}
	if filter.To != nil && m.Date.After(*filter.To) {
		return false
	}
	return true
}

// MemorySessionStore is an in-memory session repository.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]application.Session
}

// NewMemorySessionStore returns an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]application.Session)}
}

// Seed inserts a session directly.
func (s *MemorySessionStore) Seed(session application.Session) {
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
}

func (s *MemorySessionStore) CreateSession(_ context.Context, session application.Session) (application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.Token == session.Token {
			return application.Session{}, application.ErrAlreadyExists
		}
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *MemorySessionStore) GetSession(_ context.Context, token string) (application.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.Token == token {
			return session, nil
		}
	}
	return application.Session{}, application.ErrNotFound
}

func (s *MemorySessionStore) UpdateSession(_ context.Context, session application.Session) (application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return application.Session{}, application.ErrNotFound
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *MemorySessionStore) RevokeSession(_ context.Context, token string, revokedAt time.Time) (application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if session.Token != token {
			continue
		}
		at := revokedAt
		session.RevokedAt = &at
		session.UpdatedAt = revokedAt
		s.sessions[id] = session
		return session, nil
	}
	return application.Session{}, application.ErrNotFound
}

func (s *MemorySessionStore) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(reference) {
			delete(s.sessions, id)
		}
	}
	return nil
}
