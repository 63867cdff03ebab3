package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Statuses persisted on ledger records. StatusAbsent is never written by the
// marking service; it only appears in derived views (live feed, export).
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Record is a single attendance event. Participant identity fields are a
// snapshot taken at scan time, not a live join.
type Record struct {
	ID             string    `json:"id"`
	ParticipantID  string    `json:"participantId"`
	RegistrationID string    `json:"registrationId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	ScannedBy      string    `json:"scannedBy"`
	Location       string    `json:"location"`
	DayBucket      string    `json:"-"`
}

var (
	// ErrParticipantNotFound means the scanned payload resolved to no active
	// participant.
	ErrParticipantNotFound = errors.New("participant not found or inactive")
	// ErrDuplicateDay is the storage-level signal that a record for this
	// participant and day already exists.
	ErrDuplicateDay = errors.New("attendance record exists for this day")
)

// AlreadyMarkedError carries the conflicting record so callers can show the
// original scan instead of a bare failure.
type AlreadyMarkedError struct {
	Existing Record
}

func (e *AlreadyMarkedError) Error() string {
	return fmt.Sprintf("attendance already marked for today at %s", e.Existing.Timestamp.Format(time.RFC3339))
}

// DayBucket returns the calendar-day key for t in server-local time. It is
// the uniqueness key for the one-record-per-participant-per-day rule.
func DayBucket(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// Filter narrows ledger listings. Zero values mean "no filter".
type Filter struct {
	Day    string // day bucket, "2006-01-02"
	Status string
	Limit  int
	Page   int // 1-based
}

// Store persists attendance records. Insert reports ErrDuplicateDay when the
// (participant, day) uniqueness backstop trips; all other uniqueness
// enforcement lives in the Service.
type Store interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	FindByParticipantAndDay(ctx context.Context, participantID, day string) (*Record, error)
	ListByParticipant(ctx context.Context, participantID, day string) ([]Record, error)
	List(ctx context.Context, f Filter) ([]Record, int, error)
	ListAll(ctx context.Context) ([]Record, error)
	CountByStatus(ctx context.Context, day string) (map[string]int, error)
}
