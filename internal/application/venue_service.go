package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/authz"
)

// VenueRepository captures the persistence interactions needed by the service.
type VenueRepository interface {
	CreateVenue(ctx context.Context, venue Venue) (Venue, error)
	GetVenue(ctx context.Context, id string) (Venue, error)
	UpdateVenue(ctx context.Context, venue Venue) (Venue, error)
	DeleteVenue(ctx context.Context, id string) error
	ListVenues(ctx context.Context) ([]Venue, error)
}

// VenueService orchestrates validation and persistence for venue operations.
type VenueService struct {
	venues      VenueRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewVenueService wires dependencies for venue operations.
func NewVenueService(venues VenueRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *VenueService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &VenueService{venues: venues, idGenerator: idGenerator, now: now, logger: logger}
}

// CreateVenue validates the request before delegating to persistence.
func (s *VenueService) CreateVenue(ctx context.Context, params CreateVenueParams) (Venue, error) {
	if s == nil {
		return Venue{}, fmt.Errorf("VenueService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "VenueService", "CreateVenue")

	if !params.Principal.Can(authz.ModuleVenues, authz.ActionWrite) {
		return Venue{}, ErrUnauthorized
	}

	input := normalizeVenueInput(params.Input)
	if err := validateVenueInput(input); err != nil {
		logger.Warn("venue creation rejected", "error_kind", ErrorKind(err))
		return Venue{}, err
	}

	now := s.now()
	venue := Venue{
		ID:        s.idGenerator(),
		Name:      input.Name,
		Building:  input.Building,
		Capacity:  input.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.venues.CreateVenue(ctx, venue)
	if err != nil {
		logger.Error("venue creation failed", "error_kind", ErrorKind(err), "error", err)
		return Venue{}, err
	}
	logger.Info("venue created", "venue_id", created.ID)
	return created, nil
}

// GetVenue returns a single venue by ID.
func (s *VenueService) GetVenue(ctx context.Context, principal Principal, id string) (Venue, error) {
	if s == nil {
		return Venue{}, fmt.Errorf("VenueService is nil")
	}
	if !principal.Can(authz.ModuleVenues, authz.ActionRead) {
		return Venue{}, ErrUnauthorized
	}
	if id == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return Venue{}, vErr
	}
	return s.venues.GetVenue(ctx, id)
}

// ListVenues returns every registered venue.
func (s *VenueService) ListVenues(ctx context.Context, principal Principal) ([]Venue, error) {
	if s == nil {
		return nil, fmt.Errorf("VenueService is nil")
	}
	if !principal.Can(authz.ModuleVenues, authz.ActionRead) {
		return nil, ErrUnauthorized
	}
	return s.venues.ListVenues(ctx)
}

// UpdateVenue replaces the mutable attributes of an existing venue.
func (s *VenueService) UpdateVenue(ctx context.Context, params UpdateVenueParams) (Venue, error) {
	if s == nil {
		return Venue{}, fmt.Errorf("VenueService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "VenueService", "UpdateVenue", "venue_id", params.VenueID)

	if !params.Principal.Can(authz.ModuleVenues, authz.ActionWrite) {
		return Venue{}, ErrUnauthorized
	}
	if params.VenueID == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return Venue{}, vErr
	}

	input := normalizeVenueInput(params.Input)
	if err := validateVenueInput(input); err != nil {
		logger.Warn("venue update rejected", "error_kind", ErrorKind(err))
		return Venue{}, err
	}

	existing, err := s.venues.GetVenue(ctx, params.VenueID)
	if err != nil {
		return Venue{}, err
	}

	existing.Name = input.Name
	existing.Building = input.Building
	existing.Capacity = input.Capacity
	existing.UpdatedAt = s.now()

	updated, err := s.venues.UpdateVenue(ctx, existing)
	if err != nil {
		logger.Error("venue update failed", "error_kind", ErrorKind(err), "error", err)
		return Venue{}, err
	}
	logger.Info("venue updated", "venue_id", updated.ID)
	return updated, nil
}

// DeleteVenue removes a venue.
func (s *VenueService) DeleteVenue(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("VenueService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "VenueService", "DeleteVenue", "venue_id", id)

	if !principal.Can(authz.ModuleVenues, authz.ActionDelete) {
		return ErrUnauthorized
	}
	if id == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return vErr
	}

	if err := s.venues.DeleteVenue(ctx, id); err != nil {
		logger.Error("venue deletion failed", "error_kind", ErrorKind(err), "error", err)
		return err
	}
	logger.Info("venue deleted")
	return nil
}

func normalizeVenueInput(input VenueInput) VenueInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Building = strings.TrimSpace(input.Building)
	return input
}

func validateVenueInput(input VenueInput) error {
	vErr := newValidationError()
	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Building == "" {
		vErr.add("building", "building is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
