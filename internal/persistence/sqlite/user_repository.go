package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/campus-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository on SQLite.
type UserRepository struct {
	db *DB
}

// NewUserRepository binds a repository to the shared handle.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, email, display_name, roles, password_hash, disabled, created_at, updated_at"

// CreateUser inserts a new account.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	_, err := r.db.Handle().ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.DisplayName,
		encodeRoles(user.Roles),
		user.PasswordHash,
		boolToInt(user.Disabled),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapError(err)
}

// UpdateUser rewrites an existing account.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	result, err := r.db.Handle().ExecContext(ctx, `
		UPDATE users
		SET email = ?, display_name = ?, roles = ?, password_hash = ?, disabled = ?, updated_at = ?
		WHERE id = ?`,
		user.Email,
		user.DisplayName,
		encodeRoles(user.Roles),
		user.PasswordHash,
		boolToInt(user.Disabled),
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetUser retrieves an account by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	row := r.db.Handle().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves an account by email (case-insensitive).
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	row := r.db.Handle().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	return scanUser(row)
}

// ListUsers returns every account ordered by creation time.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.db.Handle().QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	users := make([]persistence.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, mapError(rows.Err())
}

// DeleteUser removes an account by ID.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.db.Handle().ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// CountUsers returns the number of accounts; used for first-run bootstrap.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.Handle().QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user               persistence.User
		roles              string
		disabled           int
		createdAt, updated string
	)
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &roles, &user.PasswordHash, &disabled, &createdAt, &updated)
	if err != nil {
		return persistence.User{}, mapError(err)
	}

	user.Roles = decodeRoles(roles)
	user.Disabled = disabled != 0
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func encodeRoles(roles []string) string {
	return strings.Join(roles, ",")
}

func decodeRoles(encoded string) []string {
	if encoded == "" {
		return nil
	}
	return strings.Split(encoded, ",")
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
