package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/calendar"
	"github.com/example/campus-scheduler/internal/recurrence"
)

type meetingService interface {
	ScheduleMeetings(ctx context.Context, params application.ScheduleMeetingsParams) (application.ScheduleMeetingsResult, error)
	PreviewMeetings(ctx context.Context, params application.ScheduleMeetingsParams) (application.ScheduleMeetingsResult, error)
	GetMeeting(ctx context.Context, principal application.Principal, id string) (application.Meeting, error)
	ListMeetings(ctx context.Context, params application.ListMeetingsParams) ([]application.Meeting, []application.ConflictWarning, error)
	CancelMeeting(ctx context.Context, principal application.Principal, id string) error
	CancelBatch(ctx context.Context, principal application.Principal, batchID string) error
}

type MeetingHandler struct {
	service   meetingService
	responder responder
	logger    *slog.Logger
}

func NewMeetingHandler(service meetingService, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

// Schedule expands and persists a recurring series. A detected conflict is
// a domain outcome, reported as 409 with the structured report rather than
// as a server error.
func (h *MeetingHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	h.runSchedule(w, r, "Schedule", h.service.ScheduleMeetings, http.StatusCreated)
}

// Preview runs the same expansion and conflict check without persisting.
func (h *MeetingHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.runSchedule(w, r, "Preview", h.service.PreviewMeetings, http.StatusOK)
}

func (h *MeetingHandler) runSchedule(w http.ResponseWriter, r *http.Request, operation string, call func(context.Context, application.ScheduleMeetingsParams) (application.ScheduleMeetingsResult, error), successStatus int) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params, vErr := req.toParams(principal)
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	logger := h.log(r.Context(), operation, "section_id", params.Template.SectionID)

	result, err := call(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "scheduling request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if result.Conflict != nil {
		logger.InfoContext(r.Context(), "scheduling request conflicted", "kind", string(result.Conflict.Kind))
		h.responder.writeJSON(r.Context(), w, http.StatusConflict, conflictResponse{
			ErrorCode: "SCHEDULE_CONFLICT",
			Message:   "the requested times collide with an existing booking",
			Conflict:  toConflictDTO(*result.Conflict),
		})
		return
	}

	h.responder.writeJSON(r.Context(), w, successStatus, scheduleResponse{
		BatchID:  result.BatchID,
		Meetings: toMeetingDTOs(result.Meetings),
	})
}

func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	params := application.ListMeetingsParams{
		Principal:        principal,
		VenueID:          query.Get("venue_id"),
		InstructorID:     query.Get("instructor_id"),
		SectionID:        query.Get("section_id"),
		TermID:           query.Get("term_id"),
		IncludeCancelled: query.Get("include_cancelled") == "true",
	}
	for key, dst := range map[string]**time.Time{"from": &params.From, "to": &params.To} {
		if raw := query.Get(key); raw != "" {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil {
				h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
				return
			}
			*dst = &parsed
		}
	}

	meetings, warnings, err := h.service.ListMeetings(r.Context(), params)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list meetings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	warningDTOs := make([]warningDTO, 0, len(warnings))
	for _, warning := range warnings {
		warningDTOs = append(warningDTOs, warningDTO{
			MeetingID:            warning.MeetingID,
			Kind:                 string(warning.Kind),
			ConflictingMeetingID: warning.ConflictingMeetingID,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingListResponse{
		Meetings: toMeetingDTOs(meetings),
		Warnings: warningDTOs,
	})
}

func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	meeting, err := h.service.GetMeeting(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMeetingDTO(meeting))
}

func (h *MeetingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	if err := h.service.CancelMeeting(r.Context(), principal, id); err != nil {
		h.log(r.Context(), "Cancel", "meeting_id", id).ErrorContext(r.Context(), "failed to cancel meeting", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *MeetingHandler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	batchID, _ := PathIDFromContext(r.Context())

	if err := h.service.CancelBatch(r.Context(), principal, batchID); err != nil {
		h.log(r.Context(), "CancelBatch", "batch_id", batchID).ErrorContext(r.Context(), "failed to cancel batch", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *MeetingHandler) requireReady(w http.ResponseWriter, r *http.Request) (application.Principal, bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return application.Principal{}, false
	}
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return application.Principal{}, false
	}
	return principal, true
}

type scheduleRequest struct {
	SectionID    string      `json:"section_id"`
	TermID       string      `json:"term_id"`
	VenueID      string      `json:"venue_id"`
	InstructorID string      `json:"instructor_id"`
	StartsAt     string      `json:"starts_at"`
	EndsAt       string      `json:"ends_at"`
	Rule         ruleRequest `json:"rule"`
}

type ruleRequest struct {
	Pattern  string   `json:"pattern"`
	StartsOn string   `json:"starts_on"`
	EndsOn   string   `json:"ends_on"`
	Dates    []string `json:"dates"`
}

type scheduleResponse struct {
	BatchID  string       `json:"batch_id"`
	Meetings []meetingDTO `json:"meetings"`
}

type conflictResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Conflict  conflictDTO `json:"conflict"`
}

type conflictDTO struct {
	Kind                 string `json:"kind"`
	Date                 string `json:"date"`
	OccurrenceIndex      int    `json:"occurrence_index"`
	ConflictingMeetingID string `json:"conflicting_meeting_id"`
}

type meetingDTO struct {
	ID           string `json:"id"`
	BatchID      string `json:"batch_id"`
	SectionID    string `json:"section_id"`
	TermID       string `json:"term_id"`
	VenueID      string `json:"venue_id"`
	InstructorID string `json:"instructor_id"`
	Date         string `json:"date"`
	DayOfWeek    int    `json:"day_of_week"`
	StartsAt     string `json:"starts_at"`
	EndsAt       string `json:"ends_at"`
	Status       string `json:"status"`
}

type warningDTO struct {
	MeetingID            string `json:"meeting_id"`
	Kind                 string `json:"kind"`
	ConflictingMeetingID string `json:"conflicting_meeting_id"`
}

type meetingListResponse struct {
	Meetings []meetingDTO `json:"meetings"`
	Warnings []warningDTO `json:"warnings,omitempty"`
}

func (req scheduleRequest) toParams(principal application.Principal) (application.ScheduleMeetingsParams, *application.ValidationError) {
	fields := map[string]string{}

	start, err := calendar.ParseTimeOfDay(req.StartsAt)
	if err != nil {
		fields["starts_at"] = "must be a time of day in HH:MM form"
	}
	end, err := calendar.ParseTimeOfDay(req.EndsAt)
	if err != nil {
		fields["ends_at"] = "must be a time of day in HH:MM form"
	}

	pattern, err := recurrence.ParsePattern(req.Rule.Pattern)
	if err != nil {
		fields["rule.pattern"] = "unknown recurrence pattern"
	}

	rule := recurrence.Rule{Pattern: pattern}
	if req.Rule.StartsOn != "" {
		if rule.StartsOn, err = time.Parse(dateLayout, req.Rule.StartsOn); err != nil {
			fields["rule.starts_on"] = "must be a date in YYYY-MM-DD form"
		}
	}
	if req.Rule.EndsOn != "" {
		if rule.EndsOn, err = time.Parse(dateLayout, req.Rule.EndsOn); err != nil {
			fields["rule.ends_on"] = "must be a date in YYYY-MM-DD form"
		}
	}
	for _, raw := range req.Rule.Dates {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			fields["rule.dates"] = "every entry must be a date in YYYY-MM-DD form"
			break
		}
		rule.Dates = append(rule.Dates, date)
	}

	if len(fields) > 0 {
		return application.ScheduleMeetingsParams{}, &application.ValidationError{Fields: fields}
	}

	return application.ScheduleMeetingsParams{
		Principal: principal,
		Template: application.MeetingTemplate{
			SectionID:    req.SectionID,
			TermID:       req.TermID,
			VenueID:      req.VenueID,
			InstructorID: req.InstructorID,
			Window:       calendar.TimeRange{Start: start, End: end},
		},
		Rule: rule,
	}, nil
}

func toConflictDTO(report application.ConflictReport) conflictDTO {
	return conflictDTO{
		Kind:                 string(report.Kind),
		Date:                 report.Date.Format(dateLayout),
		OccurrenceIndex:      report.CandidateIndex,
		ConflictingMeetingID: report.ConflictingMeetingID,
	}
}

func toMeetingDTO(meeting application.Meeting) meetingDTO {
	return meetingDTO{
		ID:           meeting.ID,
		BatchID:      meeting.BatchID,
		SectionID:    meeting.SectionID,
		TermID:       meeting.TermID,
		VenueID:      meeting.VenueID,
		InstructorID: meeting.InstructorID,
		Date:         meeting.Date.Format(dateLayout),
		DayOfWeek:    int(meeting.DayOfWeek),
		StartsAt:     meeting.Window.Start.String(),
		EndsAt:       meeting.Window.End.String(),
		Status:       string(meeting.Status),
	}
}

func toMeetingDTOs(meetings []application.Meeting) []meetingDTO {
	dtos := make([]meetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		dtos = append(dtos, toMeetingDTO(meeting))
	}
	return dtos
}
