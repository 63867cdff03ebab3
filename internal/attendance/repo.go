package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const recordColumns = `id, participant_id, registration_id, name, email, status, timestamp, scanned_by, location, day_bucket`

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new record. A uniqueness violation on the
// (participant_id, day_bucket) index surfaces as ErrDuplicateDay.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, participant_id, registration_id, name, email, status, timestamp, scanned_by, location, day_bucket)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING timestamp
	`, rec.ID, rec.ParticipantID, rec.RegistrationID, rec.Name, rec.Email, rec.Status, rec.Timestamp, rec.ScannedBy, rec.Location, rec.DayBucket)
	if err := row.Scan(&rec.Timestamp); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrDuplicateDay
		}
		return Record{}, err
	}
	return rec, nil
}

// Get returns a single record by id.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM attendance_records WHERE id = $1`, id)
	var rec Record
	if err := scanRecord(row.Scan, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// FindByParticipantAndDay returns the participant's record for a day bucket,
// or nil when none exists.
func (r *Repository) FindByParticipantAndDay(ctx context.Context, participantID, day string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE participant_id = $1 AND day_bucket = $2
	`, participantID, day)
	var rec Record
	if err := scanRecord(row.Scan, &rec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListByParticipant returns a participant's history, newest first. day is an
// optional day-bucket filter.
func (r *Repository) ListByParticipant(ctx context.Context, participantID, day string) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE participant_id = $1`
	args := []any{participantID}
	if day != "" {
		query += " AND day_bucket = $2"
		args = append(args, day)
	}
	query += " ORDER BY timestamp DESC"
	return r.queryRecords(ctx, query, args...)
}

// List returns records matching the filter, newest first, along with the
// total match count before pagination.
func (r *Repository) List(ctx context.Context, f Filter) ([]Record, int, error) {
	where := ""
	args := []any{}
	if f.Day != "" {
		args = append(args, f.Day)
		where = fmt.Sprintf(" WHERE day_bucket = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		if where == "" {
			where = fmt.Sprintf(" WHERE status = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND status = $%d", len(args))
		}
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM attendance_records%s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`,
		recordColumns, where, len(args)-1, len(args))

	records, err := r.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListAll returns every record. The feed merge wants the whole ledger.
func (r *Repository) ListAll(ctx context.Context) ([]Record, error) {
	return r.queryRecords(ctx, `SELECT `+recordColumns+` FROM attendance_records ORDER BY timestamp`)
}

// CountByStatus groups record counts by status, optionally within a day.
func (r *Repository) CountByStatus(ctx context.Context, day string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM attendance_records`
	args := []any{}
	if day != "" {
		query += " WHERE day_bucket = $1"
		args = append(args, day)
	}
	query += " GROUP BY status"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *Repository) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var rec Record
		if err := scanRecord(rows.Scan, &rec); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func scanRecord(scan func(...any) error, rec *Record) error {
	return scan(&rec.ID, &rec.ParticipantID, &rec.RegistrationID, &rec.Name, &rec.Email,
		&rec.Status, &rec.Timestamp, &rec.ScannedBy, &rec.Location, &rec.DayBucket)
}
