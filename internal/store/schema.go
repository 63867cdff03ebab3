package store

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
-- Participants
CREATE TABLE IF NOT EXISTS participants (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    registration_id TEXT NOT NULL,
    qr_code TEXT NOT NULL,
    registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);

-- Email uniqueness is case-insensitive and only binds active participants,
-- so a deactivated email can register again.
CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_email
    ON participants (LOWER(email)) WHERE is_active;
CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_registration_id
    ON participants (registration_id);
CREATE INDEX IF NOT EXISTS idx_participants_registered_at
    ON participants (registered_at);

-- Attendance ledger
CREATE TABLE IF NOT EXISTS attendance_records (
    id TEXT PRIMARY KEY,
    participant_id TEXT NOT NULL REFERENCES participants(id),
    registration_id TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'present',
    timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    scanned_by TEXT NOT NULL DEFAULT 'system',
    location TEXT NOT NULL DEFAULT 'main-hall',
    day_bucket TEXT NOT NULL
);

-- Backstop for the service-level duplicate check: concurrent scans of the
-- same code cannot create two records for one day.
CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_participant_day
    ON attendance_records (participant_id, day_bucket);
CREATE INDEX IF NOT EXISTS idx_attendance_timestamp
    ON attendance_records (timestamp);
CREATE INDEX IF NOT EXISTS idx_attendance_status
    ON attendance_records (status);
`
