package sqlite

import (
	"context"

	"github.com/example/campus-scheduler/internal/persistence"
)

// TermRepository implements persistence.TermRepository on SQLite.
type TermRepository struct {
	db *DB
}

// NewTermRepository binds a repository to the shared handle.
func NewTermRepository(db *DB) *TermRepository {
	return &TermRepository{db: db}
}

const termColumns = "id, name, academic_year, starts_on, ends_on, created_at, updated_at"

// CreateTerm inserts a new academic term.
func (r *TermRepository) CreateTerm(ctx context.Context, term persistence.Term) error {
	_, err := r.db.Handle().ExecContext(ctx, `
		INSERT INTO terms (`+termColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		term.ID,
		term.Name,
		term.AcademicYear,
		formatDate(term.StartsOn),
		formatDate(term.EndsOn),
		formatTime(term.CreatedAt),
		formatTime(term.UpdatedAt),
	)
	return mapError(err)
}

// UpdateTerm rewrites an existing term.
func (r *TermRepository) UpdateTerm(ctx context.Context, term persistence.Term) error {
	result, err := r.db.Handle().ExecContext(ctx, `
		UPDATE terms
		SET name = ?, academic_year = ?, starts_on = ?, ends_on = ?, updated_at = ?
		WHERE id = ?`,
		term.Name,
		term.AcademicYear,
		formatDate(term.StartsOn),
		formatDate(term.EndsOn),
		formatTime(term.UpdatedAt),
		term.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetTerm retrieves a term by ID.
func (r *TermRepository) GetTerm(ctx context.Context, id string) (persistence.Term, error) {
	row := r.db.Handle().QueryRowContext(ctx, `SELECT `+termColumns+` FROM terms WHERE id = ?`, id)
	return scanTerm(row)
}

// ListTerms returns every term ordered by start date.
func (r *TermRepository) ListTerms(ctx context.Context) ([]persistence.Term, error) {
	rows, err := r.db.Handle().QueryContext(ctx, `SELECT `+termColumns+` FROM terms ORDER BY starts_on, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	terms := make([]persistence.Term, 0)
	for rows.Next() {
		term, err := scanTerm(rows)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, mapError(rows.Err())
}

// DeleteTerm removes a term by ID.
func (r *TermRepository) DeleteTerm(ctx context.Context, id string) error {
	result, err := r.db.Handle().ExecContext(ctx, `DELETE FROM terms WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func scanTerm(row rowScanner) (persistence.Term, error) {
	var (
		term                                   persistence.Term
		startsOn, endsOn, createdAt, updatedAt string
	)
	err := row.Scan(&term.ID, &term.Name, &term.AcademicYear, &startsOn, &endsOn, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Term{}, mapError(err)
	}
	if term.StartsOn, err = parseDate(startsOn); err != nil {
		return persistence.Term{}, err
	}
	if term.EndsOn, err = parseDate(endsOn); err != nil {
		return persistence.Term{}, err
	}
	if term.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Term{}, err
	}
	if term.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Term{}, err
	}
	return term, nil
}
