package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/authz"
)

type userService interface {
	CreateUser(ctx context.Context, params application.CreateUserParams) (application.User, error)
	GetUser(ctx context.Context, principal application.Principal, id string) (application.User, error)
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
	UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error)
	AssignRoles(ctx context.Context, params application.AssignRolesParams) (application.User, error)
	DeleteUser(ctx context.Context, principal application.Principal, id string) error
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}

	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list users", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]userDTO, 0, len(users))
	for _, user := range users {
		dtos = append(dtos, toUserDTO(user))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userListResponse{Users: dtos})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	user, err := h.service.GetUser(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.CreateUser(r.Context(), application.CreateUserParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.log(r.Context(), "Create").ErrorContext(r.Context(), "failed to create user", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), application.UpdateUserParams{
		Principal: principal,
		UserID:    id,
		Input:     req.toInput(),
	})
	if err != nil {
		h.log(r.Context(), "Update", "user_id", id).ErrorContext(r.Context(), "failed to update user", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) AssignRoles(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	var req rolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.AssignRoles(r.Context(), application.AssignRolesParams{
		Principal: principal,
		UserID:    id,
		Roles:     toRoles(req.Roles),
	})
	if err != nil {
		h.log(r.Context(), "AssignRoles", "user_id", id).ErrorContext(r.Context(), "failed to assign roles", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.requireReady(w, r)
	if !ok {
		return
	}
	id, _ := PathIDFromContext(r.Context())

	if err := h.service.DeleteUser(r.Context(), principal, id); err != nil {
		h.log(r.Context(), "Delete", "user_id", id).ErrorContext(r.Context(), "failed to delete user", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *UserHandler) requireReady(w http.ResponseWriter, r *http.Request) (application.Principal, bool) {
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

type userDTO struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	Disabled    bool     `json:"disabled"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type userRequest struct {
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Password    string   `json:"password"`
	Roles       []string `json:"roles"`
}

type rolesRequest struct {
	Roles []string `json:"roles"`
}

type userListResponse struct {
	Users []userDTO `json:"users"`
}

func (req userRequest) toInput() application.UserInput {
	return application.UserInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Roles:       toRoles(req.Roles),
	}
}

func toRoles(names []string) []authz.Role {
	roles := make([]authz.Role, 0, len(names))
	for _, name := range names {
		roles = append(roles, authz.Role(name))
	}
	return roles
}

func toUserDTO(user application.User) userDTO {
	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, string(role))
	}
	return userDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       roles,
		Disabled:    user.Disabled,
		CreatedAt:   user.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   user.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
