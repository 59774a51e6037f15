package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/authz"
	"github.com/example/campus-scheduler/internal/calendar"
	"github.com/example/campus-scheduler/internal/recurrence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// MeetingRepository captures the persistence interactions needed by the service.
type MeetingRepository interface {
	CreateMeetings(ctx context.Context, meetings []Meeting) ([]Meeting, error)
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingRepositoryFilter) ([]Meeting, error)
	CancelMeeting(ctx context.Context, id string, at time.Time) error
	CancelBatch(ctx context.Context, batchID string, at time.Time) error
}

// MeetingRepositoryFilter narrows queries issued to the meeting repository.
type MeetingRepositoryFilter struct {
	VenueID          string
	InstructorID     string
	SectionID        string
	TermID           string
	From             *time.Time
	To               *time.Time
	IncludeCancelled bool
}

// UserDirectory exposes user lookup operations.
type UserDirectory interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// VenueCatalog exposes venue lookup operations.
type VenueCatalog interface {
	VenueExists(ctx context.Context, id string) (bool, error)
}

// TermCatalog exposes term lookup operations.
type TermCatalog interface {
	GetTerm(ctx context.Context, id string) (Term, error)
}

// MeetingService expands recurrence rules into concrete occurrences and
// guards every batch with a conflict preflight before persisting.
type MeetingService struct {
	meetings    MeetingRepository
	users       UserDirectory
	venues      VenueCatalog
	terms       TermCatalog
	engine      *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	warnings    *warningCache
}

// NewMeetingService wires dependencies for meeting operations.
func NewMeetingService(meetings MeetingRepository, users UserDirectory, venues VenueCatalog, terms TermCatalog, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MeetingService {
	if engine == nil {
		engine = recurrence.NewEngine(0)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:    meetings,
		users:       users,
		venues:      venues,
		terms:       terms,
		engine:      engine,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
		warnings:    newWarningCache(0, 0, now),
	}
}

// ScheduleMeetings expands the rule, checks every generated occurrence for
// venue and instructor conflicts, and persists the batch atomically. When a
// conflict is found nothing is persisted and the result carries the report.
func (s *MeetingService) ScheduleMeetings(ctx context.Context, params ScheduleMeetingsParams) (ScheduleMeetingsResult, error) {
	if s == nil {
		return ScheduleMeetingsResult{}, fmt.Errorf("MeetingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "MeetingService", "ScheduleMeetings",
		"section_id", params.Template.SectionID)

	if !params.Principal.Can(authz.ModuleMeetings, authz.ActionWrite) {
		logger.Warn("scheduling denied", "principal_id", params.Principal.UserID)
		return ScheduleMeetingsResult{}, ErrUnauthorized
	}

	candidates, result, err := s.prepareBatch(ctx, params, logger)
	if err != nil || result.Conflict != nil {
		return result, err
	}

	persisted, err := s.meetings.CreateMeetings(ctx, candidates)
	if err != nil {
		logger.Error("batch persistence failed", "error_kind", ErrorKind(err), "error", err)
		return ScheduleMeetingsResult{}, err
	}
	s.warnings.Invalidate()

	logger.Info("batch scheduled", "batch_id", result.BatchID, "occurrences", len(persisted))
	return ScheduleMeetingsResult{BatchID: result.BatchID, Meetings: persisted}, nil
}

// PreviewMeetings runs the same expansion and conflict preflight as
// ScheduleMeetings without persisting anything.
func (s *MeetingService) PreviewMeetings(ctx context.Context, params ScheduleMeetingsParams) (ScheduleMeetingsResult, error) {
	if s == nil {
		return ScheduleMeetingsResult{}, fmt.Errorf("MeetingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "MeetingService", "PreviewMeetings",
		"section_id", params.Template.SectionID)

	if !params.Principal.Can(authz.ModuleMeetings, authz.ActionRead) {
		return ScheduleMeetingsResult{}, ErrUnauthorized
	}

	candidates, result, err := s.prepareBatch(ctx, params, logger)
	if err != nil || result.Conflict != nil {
		return result, err
	}
	return ScheduleMeetingsResult{BatchID: result.BatchID, Meetings: candidates}, nil
}

// prepareBatch validates the template, expands the rule, and runs the
// folding conflict check against every persisted occurrence dated inside
// the term window.
func (s *MeetingService) prepareBatch(ctx context.Context, params ScheduleMeetingsParams, logger *slog.Logger) ([]Meeting, ScheduleMeetingsResult, error) {
	template := normalizeTemplate(params.Template)
	if err := s.validateTemplate(ctx, template); err != nil {
		logger.Warn("template rejected", "error_kind", ErrorKind(err))
		return nil, ScheduleMeetingsResult{}, err
	}

	term, err := s.terms.GetTerm(ctx, template.TermID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			vErr := newValidationError()
			vErr.add("term_id", "term does not exist")
			return nil, ScheduleMeetingsResult{}, vErr
		}
		return nil, ScheduleMeetingsResult{}, err
	}

	rule := params.Rule
	if rule.StartsOn.IsZero() {
		rule.StartsOn = term.StartsOn
	}
	if rule.EndsOn.IsZero() && rule.Pattern != recurrence.PatternCustom {
		rule.EndsOn = term.EndsOn
	}

	dates, err := s.engine.Expand(rule)
	if err != nil {
		vErr := newValidationError()
		switch {
		case errors.Is(err, recurrence.ErrInvalidPattern):
			vErr.add("rule.pattern", "unknown recurrence pattern")
		case errors.Is(err, recurrence.ErrInvalidRuleWindow):
			vErr.add("rule", "recurrence window is invalid")
		case errors.Is(err, recurrence.ErrRuleTooLarge):
			vErr.add("rule", "recurrence expands to too many occurrences")
		default:
			return nil, ScheduleMeetingsResult{}, err
		}
		logger.Warn("rule rejected", "error_kind", ErrorKind(vErr))
		return nil, ScheduleMeetingsResult{}, vErr
	}
	if outside := datesOutsideTerm(dates, term); outside > 0 {
		vErr := newValidationError()
		vErr.add("rule", fmt.Sprintf("%d occurrences fall outside the term", outside))
		return nil, ScheduleMeetingsResult{}, vErr
	}

	batchID := s.idGenerator()
	now := s.now()
	candidates := make([]Meeting, 0, len(dates))
	for _, date := range dates {
		candidates = append(candidates, Meeting{
			ID:           s.idGenerator(),
			BatchID:      batchID,
			SectionID:    template.SectionID,
			TermID:       template.TermID,
			VenueID:      template.VenueID,
			InstructorID: template.InstructorID,
			Date:         date,
			DayOfWeek:    calendar.DayOf(date),
			Window:       template.Window,
			Status:       MeetingScheduled,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	// The preflight must see every live booking whose date can share a
	// calendar week with the batch, including bookings made under other
	// terms that overlap this one. Filtering by date window rather than
	// term id keeps cross-term double bookings visible.
	from, to := term.StartsOn, term.EndsOn
	existing, err := s.meetings.ListMeetings(ctx, MeetingRepositoryFilter{From: &from, To: &to})
	if err != nil {
		return nil, ScheduleMeetingsResult{}, err
	}

	// The detector works on weekly timetable slots, so a batch is checked
	// through one representative per distinct (venue, instructor, weekday,
	// window) signature. Folding raw occurrences would make every weekly
	// series collide with its own later weeks.
	reps, repIndex := slotRepresentatives(candidates)

	ix := scheduler.BuildIndex(slotRepresentativesOf(existing))
	res, err := scheduler.CheckSequenceFolding(ix, reps)
	if err != nil {
		return nil, ScheduleMeetingsResult{}, err
	}
	if !res.Ok() {
		offending := repIndex[res.CandidateIndex]
		report := &ConflictReport{
			Kind:                 res.Kind,
			Date:                 candidates[offending].Date,
			CandidateIndex:       offending,
			ConflictingMeetingID: res.ConflictingMeetingID,
		}
		logger.Info("conflict detected",
			"kind", string(res.Kind),
			"occurrence_index", offending,
			"conflicting_meeting_id", res.ConflictingMeetingID)
		return nil, ScheduleMeetingsResult{BatchID: batchID, Conflict: report}, nil
	}

	return candidates, ScheduleMeetingsResult{BatchID: batchID}, nil
}

// GetMeeting returns a single occurrence by ID.
func (s *MeetingService) GetMeeting(ctx context.Context, principal Principal, id string) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	if !principal.Can(authz.ModuleMeetings, authz.ActionRead) {
		return Meeting{}, ErrUnauthorized
	}
	if id == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return Meeting{}, vErr
	}
	return s.meetings.GetMeeting(ctx, id)
}

// ListMeetings returns occurrences matching the filter along with overlap
// warnings for the returned set.
func (s *MeetingService) ListMeetings(ctx context.Context, params ListMeetingsParams) ([]Meeting, []ConflictWarning, error) {
	if s == nil {
		return nil, nil, fmt.Errorf("MeetingService is nil")
	}
	if !params.Principal.Can(authz.ModuleMeetings, authz.ActionRead) {
		return nil, nil, ErrUnauthorized
	}

	filter := MeetingRepositoryFilter{
		VenueID:          params.VenueID,
		InstructorID:     params.InstructorID,
		SectionID:        params.SectionID,
		TermID:           params.TermID,
		From:             params.From,
		To:               params.To,
		IncludeCancelled: params.IncludeCancelled,
	}
	meetings, err := s.meetings.ListMeetings(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	key := buildWarningCacheKey(params)
	if cached, ok := s.warnings.Get(key); ok {
		return meetings, cached, nil
	}
	warnings := detectListWarnings(meetings)
	s.warnings.Store(key, warnings)
	return meetings, warnings, nil
}

// CancelMeeting soft-deletes a single occurrence.
func (s *MeetingService) CancelMeeting(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("MeetingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "MeetingService", "CancelMeeting", "meeting_id", id)

	if !principal.Can(authz.ModuleMeetings, authz.ActionDelete) {
		return ErrUnauthorized
	}
	if id == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return vErr
	}
	if err := s.meetings.CancelMeeting(ctx, id, s.now()); err != nil {
		logger.Error("cancel failed", "error_kind", ErrorKind(err), "error", err)
		return err
	}
	s.warnings.Invalidate()
	logger.Info("meeting cancelled")
	return nil
}

// CancelBatch soft-deletes every live occurrence created together.
func (s *MeetingService) CancelBatch(ctx context.Context, principal Principal, batchID string) error {
	if s == nil {
		return fmt.Errorf("MeetingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "MeetingService", "CancelBatch", "batch_id", batchID)

	if !principal.Can(authz.ModuleMeetings, authz.ActionDelete) {
		return ErrUnauthorized
	}
	if batchID == "" {
		vErr := newValidationError()
		vErr.add("batch_id", "batch id is required")
		return vErr
	}
	if err := s.meetings.CancelBatch(ctx, batchID, s.now()); err != nil {
		logger.Error("batch cancel failed", "error_kind", ErrorKind(err), "error", err)
		return err
	}
	s.warnings.Invalidate()
	logger.Info("batch cancelled")
	return nil
}

func (s *MeetingService) validateTemplate(ctx context.Context, template MeetingTemplate) error {
	vErr := newValidationError()
	if template.SectionID == "" {
		vErr.add("section_id", "section id is required")
	}
	if template.TermID == "" {
		vErr.add("term_id", "term id is required")
	}
	if template.VenueID == "" {
		vErr.add("venue_id", "venue id is required")
	}
	if template.InstructorID == "" {
		vErr.add("instructor_id", "instructor id is required")
	}
	if err := template.Window.Validate(); err != nil {
		vErr.add("window", "end time must be after start time")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if template.VenueID != "" {
		ok, err := s.venues.VenueExists(ctx, template.VenueID)
		if err != nil {
			return err
		}
		if !ok {
			vErr.add("venue_id", "venue does not exist")
		}
	}
	if template.InstructorID != "" {
		ok, err := s.users.UserExists(ctx, template.InstructorID)
		if err != nil {
			return err
		}
		if !ok {
			vErr.add("instructor_id", "instructor does not exist")
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func normalizeTemplate(template MeetingTemplate) MeetingTemplate {
	template.SectionID = strings.TrimSpace(template.SectionID)
	template.TermID = strings.TrimSpace(template.TermID)
	template.VenueID = strings.TrimSpace(template.VenueID)
	template.InstructorID = strings.TrimSpace(template.InstructorID)
	return template
}

func datesOutsideTerm(dates []time.Time, term Term) int {
	outside := 0
	for _, date := range dates {
		if date.Before(term.StartsOn) || date.After(term.EndsOn) {
			outside++
		}
	}
	return outside
}

func toSchedulerMeeting(m Meeting) scheduler.Meeting {
	return scheduler.Meeting{
		ID:           m.ID,
		SectionID:    m.SectionID,
		VenueID:      m.VenueID,
		InstructorID: m.InstructorID,
		Day:          m.DayOfWeek,
		Window:       m.Window,
		Date:         m.Date,
	}
}

type slotKey struct {
	batchID      string
	venueID      string
	instructorID string
	day          time.Weekday
	window       calendar.TimeRange
}

func (m Meeting) slotKey() slotKey {
	batch := m.BatchID
	if batch == "" {
		batch = m.ID
	}
	return slotKey{
		batchID:      batch,
		venueID:      m.VenueID,
		instructorID: m.InstructorID,
		day:          m.DayOfWeek,
		window:       m.Window,
	}
}

// slotRepresentatives collapses occurrences sharing a timetable slot within
// the same batch down to their earliest member, preserving input order. The
// second return maps each representative back to its original index.
func slotRepresentatives(meetings []Meeting) ([]scheduler.Meeting, []int) {
	seen := make(map[slotKey]struct{}, len(meetings))
	reps := make([]scheduler.Meeting, 0, len(meetings))
	indexes := make([]int, 0, len(meetings))
	for i, m := range meetings {
		if m.Status == MeetingCancelled {
			continue
		}
		key := m.slotKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		reps = append(reps, toSchedulerMeeting(m))
		indexes = append(indexes, i)
	}
	return reps, indexes
}

func slotRepresentativesOf(meetings []Meeting) []scheduler.Meeting {
	reps, _ := slotRepresentatives(meetings)
	return reps
}

// detectListWarnings flags overlapping slots within a listed set. Each slot
// of a colliding pair gets its own warning so the overlap is visible from
// either side.
func detectListWarnings(meetings []Meeting) []ConflictWarning {
	reps := slotRepresentativesOf(meetings)
	if len(reps) < 2 {
		return nil
	}
	ix := scheduler.BuildIndex(reps)

	var warnings []ConflictWarning
	for _, rep := range reps {
		res, err := scheduler.CheckOne(ix, rep)
		if err != nil || res.Ok() {
			continue
		}
		warnings = append(warnings, ConflictWarning{
			MeetingID:            rep.ID,
			Kind:                 res.Kind,
			ConflictingMeetingID: res.ConflictingMeetingID,
		})
	}
	return warnings
}
