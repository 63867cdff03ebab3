package registration

import (
	"context"
	"errors"
	"time"
)

// Participant is a registered event participant. Identity fields are
// immutable after registration; only IsActive may be flipped.
type Participant struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	RegistrationID string    `json:"registrationId"`
	QRCode         string    `json:"qrCode,omitempty"`
	RegisteredAt   time.Time `json:"registeredAt"`
	IsActive       bool      `json:"isActive"`
}

var (
	// ErrDuplicateEmail means an active participant already holds the email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateRegistrationID means the generated ID collided with an
	// existing one; callers retry with a fresh ID.
	ErrDuplicateRegistrationID = errors.New("registration id already exists")
	// ErrNotFound means no matching active participant exists.
	ErrNotFound = errors.New("participant not found")
)

// Store persists participants. Both the Postgres and in-memory backends
// implement it.
type Store interface {
	Insert(ctx context.Context, p Participant) (Participant, error)
	FindActiveByEmail(ctx context.Context, email string) (*Participant, error)
	FindByRegistrationID(ctx context.Context, registrationID string) (*Participant, error)
	ListActive(ctx context.Context, limit int) ([]Participant, error)
	Deactivate(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int, error)
}
