package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/campus-scheduler/internal/application"
)

type venueService interface {
	CreateVenue(ctx context.Context, params application.CreateVenueParams) (application.Venue, error)
	GetVenue(ctx context.Context, principal application.Principal, id string) (application.Venue, error)
	ListVenues(ctx context.Context, principal application.Principal) ([]application.Venue, error)
	UpdateVenue(ctx context.Context, params application.UpdateVenueParams) (application.Venue, error)
	DeleteVenue(ctx context.Context, principal application.Principal, id string) error
}

type VenueHandler struct {
	service   venueService
	responder responder
	logger    *slog.Logger
}

func NewVenueHandler(service venueService, logger *slog.Logger) *VenueHandler {
	base := defaultLogger(logger)
	return &VenueHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *VenueHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "VenueHandler", operation, attrs...)
}

func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}

	venues, err := h.service.ListVenues(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]venueDTO, 0, len(venues))
	for _, venue := range venues {
		dtos = append(dtos, toVenueDTO(venue))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, venueListResponse{Venues: dtos})
}

func (h *VenueHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	venue, err := h.service.GetVenue(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toVenueDTO(venue))
}

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}

	var req venueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	venue, err := h.service.CreateVenue(r.Context(), application.CreateVenueParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.log(r.Context(), "Create").ErrorContext(r.Context(), "failed to create venue", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toVenueDTO(venue))
}

func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	var req venueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	venue, err := h.service.UpdateVenue(r.Context(), application.UpdateVenueParams{
		Principal: principal,
		VenueID:   id,
		Input:     req.toInput(),
	})
	if err != nil {
		h.log(r.Context(), "Update", "venue_id", id).ErrorContext(r.Context(), "failed to update venue", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toVenueDTO(venue))
}

func (h *VenueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	if err := h.service.DeleteVenue(r.Context(), principal, id); err != nil {
		h.log(r.Context(), "Delete", "venue_id", id).ErrorContext(r.Context(), "failed to delete venue", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *VenueHandler) requireReady(w http.ResponseWriter, r *http.Request) (application.Principal, bool) {
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

type venueDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Building  string `json:"building"`
	Capacity  int    `json:"capacity"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type venueRequest struct {
	Name     string `json:"name"`
	Building string `json:"building"`
	Capacity int    `json:"capacity"`
}

type venueListResponse struct {
	Venues []venueDTO `json:"venues"`
}

func (req venueRequest) toInput() application.VenueInput {
	return application.VenueInput{
		Name:     req.Name,
		Building: req.Building,
		Capacity: req.Capacity,
	}
}

func toVenueDTO(venue application.Venue) venueDTO {
	return venueDTO{
		ID:        venue.ID,
		Name:      venue.Name,
		Building:  venue.Building,
		Capacity:  venue.Capacity,
		CreatedAt: venue.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: venue.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
