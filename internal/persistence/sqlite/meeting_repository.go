package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository on SQLite.
type MeetingRepository struct {
	db *DB
}

// NewMeetingRepository binds a repository to the shared handle.
func NewMeetingRepository(db *DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = "id, batch_id, section_id, term_id, venue_id, instructor_id, meeting_date, day_of_week, start_minutes, end_minutes, status, created_at, updated_at"

// CreateMeetings persists a batch of occurrences in one transaction.
func (r *MeetingRepository) CreateMeetings(ctx context.Context, meetings []persistence.Meeting) error {
	if len(meetings) == 0 {
		return nil
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO meetings (`+meetingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return mapError(err)
		}
		defer stmt.Close()

		for _, meeting := range meetings {
			_, err := stmt.ExecContext(ctx,
				meeting.ID,
				meeting.BatchID,
				meeting.SectionID,
				meeting.TermID,
				meeting.VenueID,
				meeting.InstructorID,
				formatDate(meeting.Date),
				int(meeting.DayOfWeek),
				meeting.StartMinutes,
				meeting.EndMinutes,
				string(meeting.Status),
				formatTime(meeting.CreatedAt),
				formatTime(meeting.UpdatedAt),
			)
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// GetMeeting retrieves one occurrence by ID.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	row := r.db.Handle().QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)
	return scanMeeting(row)
}

// ListMeetings returns occurrences matching the filter ordered by date then
// start time. Cancelled occurrences are excluded unless requested.
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE 1=1`
	args := make([]any, 0, 6)

	if !filter.IncludeCancelled {
		query += ` AND status = ?`
		args = append(args, string(persistence.MeetingStatusScheduled))
	}
	if filter.VenueID != "" {
		query += ` AND venue_id = ?`
		args = append(args, filter.VenueID)
	}
	if filter.InstructorID != "" {
		query += ` AND instructor_id = ?`
		args = append(args, filter.InstructorID)
	}
	if filter.SectionID != "" {
		query += ` AND section_id = ?`
		args = append(args, filter.SectionID)
	}
	if filter.TermID != "" {
		query += ` AND term_id = ?`
		args = append(args, filter.TermID)
	}
	if filter.From != nil {
		query += ` AND meeting_date >= ?`
		args = append(args, formatDate(*filter.From))
	}
	if filter.To != nil {
		query += ` AND meeting_date <= ?`
		args = append(args, formatDate(*filter.To))
	}
	query += ` ORDER BY meeting_date, start_minutes, id`

	rows, err := r.db.Handle().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	meetings := make([]persistence.Meeting, 0)
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, mapError(rows.Err())
}

// CancelMeeting soft-deletes one occurrence.
func (r *MeetingRepository) CancelMeeting(ctx context.Context, id string, cancelledAt time.Time) error {
	result, err := r.db.Handle().ExecContext(ctx, `
		UPDATE meetings SET status = ?, updated_at = ? WHERE id = ? AND status != ?`,
		string(persistence.MeetingStatusCancelled),
		formatTime(cancelledAt),
		id,
		string(persistence.MeetingStatusCancelled),
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// CancelBatch soft-deletes every occurrence generated from one expansion.
func (r *MeetingRepository) CancelBatch(ctx context.Context, batchID string, cancelledAt time.Time) error {
	result, err := r.db.Handle().ExecContext(ctx, `
		UPDATE meetings SET status = ?, updated_at = ? WHERE batch_id = ? AND status != ?`,
		string(persistence.MeetingStatusCancelled),
		formatTime(cancelledAt),
		batchID,
		string(persistence.MeetingStatusCancelled),
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var (
		meeting                         persistence.Meeting
		day                             int
		status                          string
		meetingDate, createdAt, updated string
	)
	err := row.Scan(
		&meeting.ID,
		&meeting.BatchID,
		&meeting.SectionID,
		&meeting.TermID,
		&meeting.VenueID,
		&meeting.InstructorID,
		&meetingDate,
		&day,
		&meeting.StartMinutes,
		&meeting.EndMinutes,
		&status,
		&createdAt,
		&updated,
	)
	if err != nil {
		return persistence.Meeting{}, mapError(err)
	}

	meeting.DayOfWeek = time.Weekday(day)
	meeting.Status = persistence.MeetingStatus(status)
	if meeting.Date, err = parseDate(meetingDate); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Meeting{}, err
	}
	return meeting, nil
}
