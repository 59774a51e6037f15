package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/authz"
	"github.com/example/campus-scheduler/internal/calendar"
)

// TermRepository captures the persistence interactions needed by the service.
type TermRepository interface {
	CreateTerm(ctx context.Context, term Term) (Term, error)
	GetTerm(ctx context.Context, id string) (Term, error)
	UpdateTerm(ctx context.Context, term Term) (Term, error)
	DeleteTerm(ctx context.Context, id string) error
	ListTerms(ctx context.Context) ([]Term, error)
}

// TermService orchestrates validation and persistence for term operations.
type TermService struct {
	terms       TermRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTermService wires dependencies for term operations.
func NewTermService(terms TermRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TermService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TermService{terms: terms, idGenerator: idGenerator, now: now, logger: logger}
}

// CreateTerm validates the request before delegating to persistence.
func (s *TermService) CreateTerm(ctx context.Context, params CreateTermParams) (Term, error) {
	if s == nil {
		return Term{}, fmt.Errorf("TermService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "TermService", "CreateTerm")

	if !params.Principal.Can(authz.ModuleTerms, authz.ActionWrite) {
		return Term{}, ErrUnauthorized
	}

	input := normalizeTermInput(params.Input)
	if err := validateTermInput(input); err != nil {
		logger.Warn("term creation rejected", "error_kind", ErrorKind(err))
		return Term{}, err
	}

	now := s.now()
	term := Term{
		ID:           s.idGenerator(),
		Name:         input.Name,
		AcademicYear: input.AcademicYear,
		StartsOn:     calendar.DateOnly(input.StartsOn),
		EndsOn:       calendar.DateOnly(input.EndsOn),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.terms.CreateTerm(ctx, term)
	if err != nil {
		logger.Error("term creation failed", "error_kind", ErrorKind(err), "error", err)
		return Term{}, err
	}
	logger.Info("term created", "term_id", created.ID)
	return created, nil
}

// GetTerm returns a single term by ID.
func (s *TermService) GetTerm(ctx context.Context, principal Principal, id string) (Term, error) {
	if s == nil {
		return Term{}, fmt.Errorf("TermService is nil")
	}
	if !principal.Can(authz.ModuleTerms, authz.ActionRead) {
		return Term{}, ErrUnauthorized
	}
	if id == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return Term{}, vErr
	}
	return s.terms.GetTerm(ctx, id)
}

// ListTerms returns every registered term.
func (s *TermService) ListTerms(ctx context.Context, principal Principal) ([]Term, error) {
	if s == nil {
		return nil, fmt.Errorf("TermService is nil")
	}
	if !principal.Can(authz.ModuleTerms, authz.ActionRead) {
		return nil, ErrUnauthorized
	}
	return s.terms.ListTerms(ctx)
}

// UpdateTerm replaces the mutable attributes of an existing term.
func (s *TermService) UpdateTerm(ctx context.Context, params UpdateTermParams) (Term, error) {
	if s == nil {
		return Term{}, fmt.Errorf("TermService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "TermService", "UpdateTerm", "term_id", params.TermID)

	if !params.Principal.Can(authz.ModuleTerms, authz.ActionWrite) {
		return Term{}, ErrUnauthorized
	}
	if params.TermID == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return Term{}, vErr
	}

	input := normalizeTermInput(params.Input)
	if err := validateTermInput(input); err != nil {
		logger.Warn("term update rejected", "error_kind", ErrorKind(err))
		return Term{}, err
	}

	existing, err := s.terms.GetTerm(ctx, params.TermID)
	if err != nil {
		return Term{}, err
	}

	existing.Name = input.Name
	existing.AcademicYear = input.AcademicYear
	existing.StartsOn = calendar.DateOnly(input.StartsOn)
	existing.EndsOn = calendar.DateOnly(input.EndsOn)
	existing.UpdatedAt = s.now()

	updated, err := s.terms.UpdateTerm(ctx, existing)
	if err != nil {
		logger.Error("term update failed", "error_kind", ErrorKind(err), "error", err)
		return Term{}, err
	}
	logger.Info("term updated", "term_id", updated.ID)
	return updated, nil
}

// DeleteTerm removes a term.
func (s *TermService) DeleteTerm(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("TermService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "TermService", "DeleteTerm", "term_id", id)

	if !principal.Can(authz.ModuleTerms, authz.ActionDelete) {
		return ErrUnauthorized
	}
	if id == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return vErr
	}

	if err := s.terms.DeleteTerm(ctx, id); err != nil {
		logger.Error("term deletion failed", "error_kind", ErrorKind(err), "error", err)
		return err
	}
	logger.Info("term deleted")
	return nil
}

func normalizeTermInput(input TermInput) TermInput {
	input.Name = strings.TrimSpace(input.Name)
	input.AcademicYear = strings.TrimSpace(input.AcademicYear)
	return input
}

func validateTermInput(input TermInput) error {
	vErr := newValidationError()
	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.AcademicYear == "" {
		vErr.add("academic_year", "academic year is required")
	}
	if input.StartsOn.IsZero() {
		vErr.add("starts_on", "start date is required")
	}
	if input.EndsOn.IsZero() {
		vErr.add("ends_on", "end date is required")
	}
	if !input.StartsOn.IsZero() && !input.EndsOn.IsZero() && input.EndsOn.Before(input.StartsOn) {
		vErr.add("ends_on", "end date must not precede start date")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
