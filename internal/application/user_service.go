package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/authz"
)

// UserRepository captures the persistence interactions needed by the service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
}

// UserService orchestrates validation and persistence for user operations.
type UserService struct {
	users          UserRepository
	idGenerator    func() string
	now            func() time.Time
	logger         *slog.Logger
	passwordParams Argon2idParams
}

// NewUserService wires dependencies for user operations.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:          users,
		idGenerator:    idGenerator,
		now:            now,
		logger:         logger,
		passwordParams: DefaultArgon2idParams,
	}
}

// CreateUser validates the request before delegating to persistence.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "UserService", "CreateUser")

	if !params.Principal.Can(authz.ModuleUsers, authz.ActionWrite) {
		logger.Warn("user creation denied", "principal_id", params.Principal.UserID)
		return User{}, ErrUnauthorized
	}

	input := normalizeUserInput(params.Input)
	if err := validateUserInput(input, true); err != nil {
		logger.Warn("user creation rejected", "error_kind", ErrorKind(err))
		return User{}, err
	}

	hash, err := HashPassword(input.Password, s.passwordParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := User{
		ID:          s.idGenerator(),
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Roles:       normalizeRoles(input.Roles),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.users.CreateUser(ctx, user, hash)
	if err != nil {
		logger.Error("user creation failed", "error_kind", ErrorKind(err), "error", err)
		return User{}, err
	}
	logger.Info("user created", "user_id", created.ID)
	return created, nil
}

// GetUser returns a single user by ID.
func (s *UserService) GetUser(ctx context.Context, principal Principal, id string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if !principal.Can(authz.ModuleUsers, authz.ActionRead) && principal.UserID != id {
		return User{}, ErrUnauthorized
	}
	if id == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return User{}, vErr
	}
	return s.users.GetUser(ctx, id)
}

// ListUsers returns every user account.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.Can(authz.ModuleUsers, authz.ActionRead) {
		return nil, ErrUnauthorized
	}
	return s.users.ListUsers(ctx)
}

// UpdateUser replaces the mutable attributes of an existing user.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "UserService", "UpdateUser", "user_id", params.UserID)

	if !params.Principal.Can(authz.ModuleUsers, authz.ActionWrite) {
		return User{}, ErrUnauthorized
	}
	if params.UserID == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return User{}, vErr
	}

	input := normalizeUserInput(params.Input)
	if err := validateUserInput(input, false); err != nil {
		logger.Warn("user update rejected", "error_kind", ErrorKind(err))
		return User{}, err
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return User{}, err
	}

	existing.Email = input.Email
	existing.DisplayName = input.DisplayName
	existing.UpdatedAt = s.now()

	updated, err := s.users.UpdateUser(ctx, existing)
	if err != nil {
		logger.Error("user update failed", "error_kind", ErrorKind(err), "error", err)
		return User{}, err
	}
	logger.Info("user updated", "user_id", updated.ID)
	return updated, nil
}

// AssignRoles replaces a user's role set.
func (s *UserService) AssignRoles(ctx context.Context, params AssignRolesParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "UserService", "AssignRoles", "user_id", params.UserID)

	if !params.Principal.Can(authz.ModuleRoles, authz.ActionAssign) {
		logger.Warn("role assignment denied", "principal_id", params.Principal.UserID)
		return User{}, ErrUnauthorized
	}
	if params.UserID == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return User{}, vErr
	}
	if err := validateRoles(params.Roles); err != nil {
		return User{}, err
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return User{}, err
	}

	existing.Roles = normalizeRoles(params.Roles)
	existing.UpdatedAt = s.now()

	updated, err := s.users.UpdateUser(ctx, existing)
	if err != nil {
		logger.Error("role assignment failed", "error_kind", ErrorKind(err), "error", err)
		return User{}, err
	}
	logger.Info("roles assigned", "user_id", updated.ID, "roles", len(updated.Roles))
	return updated, nil
}

// DeleteUser removes a user account.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "UserService", "DeleteUser", "user_id", id)

	if !principal.Can(authz.ModuleUsers, authz.ActionDelete) {
		return ErrUnauthorized
	}
	if id == "" {
		vErr := newValidationError()
		vErr.add("id", "id is required")
		return vErr
	}
	if principal.UserID == id {
		vErr := newValidationError()
		vErr.add("id", "cannot delete own account")
		return vErr
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		logger.Error("user deletion failed", "error_kind", ErrorKind(err), "error", err)
		return err
	}
	logger.Info("user deleted")
	return nil
}

// EnsureAdmin creates an initial administrator when the user table is empty.
// It is a no-op once any account exists.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "UserService", "EnsureAdmin")

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	input := normalizeUserInput(UserInput{
		Email:       email,
		DisplayName: "Administrator",
		Password:    password,
		Roles:       []authz.Role{authz.RoleAdmin},
	})
	if err := validateUserInput(input, true); err != nil {
		return err
	}

	hash, err := HashPassword(input.Password, s.passwordParams)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	admin := User{
		ID:          s.idGenerator(),
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Roles:       input.Roles,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.users.CreateUser(ctx, admin, hash); err != nil {
		return err
	}
	logger.Info("bootstrap administrator created", "email", admin.Email)
	return nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	return input
}

func validateUserInput(input UserInput, requirePassword bool) error {
	vErr := newValidationError()
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if !strings.Contains(input.Email, "@") {
		vErr.add("email", "email must be a valid address")
	}
	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}
	if requirePassword {
		if input.Password == "" {
			vErr.add("password", "password is required")
		} else if len(input.Password) < 8 {
			vErr.add("password", "password must be at least 8 characters")
		}
	}
	if err := validateRoles(input.Roles); err != nil {
		if roleErr, ok := AsValidationError(err); ok {
			for field, msg := range roleErr.Fields {
				vErr.add(field, msg)
			}
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func validateRoles(roles []authz.Role) error {
	vErr := newValidationError()
	for _, role := range roles {
		if !authz.ValidRole(role) {
			vErr.add("roles", fmt.Sprintf("unknown role %q", role))
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func normalizeRoles(roles []authz.Role) []authz.Role {
	seen := make(map[authz.Role]struct{}, len(roles))
	out := make([]authz.Role, 0, len(roles))
	for _, role := range roles {
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}
