package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/campus-scheduler/internal/application"
)

const dateLayout = "2006-01-02"

type termService interface {
	CreateTerm(ctx context.Context, params application.CreateTermParams) (application.Term, error)
	GetTerm(ctx context.Context, principal application.Principal, id string) (application.Term, error)
	ListTerms(ctx context.Context, principal application.Principal) ([]application.Term, error)
	UpdateTerm(ctx context.Context, params application.UpdateTermParams) (application.Term, error)
	DeleteTerm(ctx context.Context, principal application.Principal, id string) error
}

type TermHandler struct {
	service   termService
	responder responder
	logger    *slog.Logger
}

func NewTermHandler(service termService, logger *slog.Logger) *TermHandler {
	base := defaultLogger(logger)
	return &TermHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TermHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TermHandler", operation, attrs...)
}

func (h *TermHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}

	terms, err := h.service.ListTerms(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]termDTO, 0, len(terms))
	for _, term := range terms {
		dtos = append(dtos, toTermDTO(term))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, termListResponse{Terms: dtos})
}

func (h *TermHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	term, err := h.service.GetTerm(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTermDTO(term))
}

func (h *TermHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}

	var req termRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	term, err := h.service.CreateTerm(r.Context(), application.CreateTermParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.log(r.Context(), "Create").ErrorContext(r.Context(), "failed to create term", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTermDTO(term))
}

func (h *TermHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	var req termRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	term, err := h.service.UpdateTerm(r.Context(), application.UpdateTermParams{
		Principal: principal,
		TermID:    id,
		Input:     input,
	})
	if err != nil {
		h.log(r.Context(), "Update", "term_id", id).ErrorContext(r.Context(), "failed to update term", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTermDTO(term))
}

func (h *TermHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	if err := h.service.DeleteTerm(r.Context(), principal, id); err != nil {
		h.log(r.Context(), "Delete", "term_id", id).ErrorContext(r.Context(), "failed to delete term", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *TermHandler) requireReady(w http.ResponseWriter, r *http.Request) (application.Principal, bool) {
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

type termDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year"`
	StartsOn     string `json:"starts_on"`
	EndsOn       string `json:"ends_on"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type termRequest struct {
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year"`
	StartsOn     string `json:"starts_on"`
	EndsOn       string `json:"ends_on"`
}

type termListResponse struct {
	Terms []termDTO `json:"terms"`
}

func (req termRequest) toInput() (application.TermInput, error) {
	input := application.TermInput{
		Name:         req.Name,
		AcademicYear: req.AcademicYear,
	}
	var err error
	if req.StartsOn != "" {
		if input.StartsOn, err = time.Parse(dateLayout, req.StartsOn); err != nil {
			return application.TermInput{}, errBadRequestBody
		}
	}
	if req.EndsOn != "" {
		if input.EndsOn, err = time.Parse(dateLayout, req.EndsOn); err != nil {
			return application.TermInput{}, errBadRequestBody
		}
	}
	return input, nil
}

func toTermDTO(term application.Term) termDTO {
	return termDTO{
		ID:           term.ID,
		Name:         term.Name,
		AcademicYear: term.AcademicYear,
		StartsOn:     term.StartsOn.Format(dateLayout),
		EndsOn:       term.EndsOn.Format(dateLayout),
		CreatedAt:    term.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    term.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
