package registration

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists participants in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new participant, mapping uniqueness violations to the
// matching sentinel error.
func (r *Repository) Insert(ctx context.Context, p Participant) (Participant, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO participants (id, name, email, registration_id, qr_code, registered_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING registered_at
	`, p.ID, p.Name, p.Email, p.RegistrationID, p.QRCode, p.RegisteredAt)
	if err := row.Scan(&p.RegisteredAt); err != nil {
		return Participant{}, mapInsertErr(err)
	}
	p.IsActive = true
	return p, nil
}

// mapInsertErr translates uniqueness violations on the participant indexes
// to their sentinel errors. Any other violation, a primary-key collision
// included, surfaces as-is.
func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "idx_participants_registration_id":
		return ErrDuplicateRegistrationID
	case "idx_participants_email":
		return ErrDuplicateEmail
	}
	return err
}

// FindActiveByEmail matches the email case-insensitively among active
// participants. Returns nil when no match exists.
func (r *Repository) FindActiveByEmail(ctx context.Context, email string) (*Participant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, registration_id, qr_code, registered_at, is_active
		FROM participants
		WHERE LOWER(email) = LOWER($1) AND is_active
	`, email)
	return scanParticipant(row)
}

// FindByRegistrationID only matches active participants.
func (r *Repository) FindByRegistrationID(ctx context.Context, registrationID string) (*Participant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, registration_id, qr_code, registered_at, is_active
		FROM participants
		WHERE registration_id = $1 AND is_active
	`, registrationID)
	return scanParticipant(row)
}

// ListActive returns active participants ordered by registration time,
// newest first. limit <= 0 means no limit.
func (r *Repository) ListActive(ctx context.Context, limit int) ([]Participant, error) {
	query := `
		SELECT id, name, email, registration_id, qr_code, registered_at, is_active
		FROM participants
		WHERE is_active
		ORDER BY registered_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.RegistrationID, &p.QRCode, &p.RegisteredAt, &p.IsActive); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// Deactivate soft-deletes a participant by primary key.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE participants SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActive returns the number of active participants.
func (r *Repository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE is_active`).Scan(&n)
	return n, err
}

func scanParticipant(row *sql.Row) (*Participant, error) {
	var p Participant
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.RegistrationID, &p.QRCode, &p.RegisteredAt, &p.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
