package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventcheck/internal/identity"
)

// idRetries bounds how often Register re-rolls a registration ID after a
// duplicate-key insert before giving up.
const idRetries = 3

// Service implements the participant directory on top of a Store.
type Service struct {
	store  Store
	prefix string
	now    func() time.Time
}

// NewService creates a directory service. prefix is the registration ID
// prefix, e.g. "NSCC".
func NewService(store Store, prefix string) *Service {
	if prefix == "" {
		prefix = "NSCC"
	}
	return &Service{store: store, prefix: prefix, now: time.Now}
}

// Register issues a registration ID and QR payload for a new participant and
// persists the record. Fails with ErrDuplicateEmail when an active
// participant already holds the (case-insensitive) email.
func (s *Service) Register(ctx context.Context, name, email string) (Participant, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return Participant{}, errors.New("name and email required")
	}

	if existing, err := s.store.FindActiveByEmail(ctx, email); err != nil {
		return Participant{}, err
	} else if existing != nil {
		return Participant{}, ErrDuplicateEmail
	}

	var lastErr error
	for i := 0; i < idRetries; i++ {
		registrationID := identity.NewRegistrationID(s.prefix)
		registeredAt := s.now()

		payload, err := identity.Encode(identity.Payload{
			RegistrationID: registrationID,
			Name:           name,
			Email:          email,
			Timestamp:      registeredAt,
		})
		if err != nil {
			return Participant{}, err
		}
		qr, err := identity.QRDataURL(payload)
		if err != nil {
			return Participant{}, err
		}

		p, err := s.store.Insert(ctx, Participant{
			ID:             uuid.NewString(),
			Name:           name,
			Email:          email,
			RegistrationID: registrationID,
			QRCode:         qr,
			RegisteredAt:   registeredAt,
		})
		if errors.Is(err, ErrDuplicateRegistrationID) {
			lastErr = err
			continue
		}
		if err != nil {
			return Participant{}, err
		}
		return p, nil
	}
	return Participant{}, fmt.Errorf("registration id collision persisted after %d attempts: %w", idRetries, lastErr)
}

// FindByRegistrationID resolves an active participant, failing with
// ErrNotFound when none exists.
func (s *Service) FindByRegistrationID(ctx context.Context, registrationID string) (Participant, error) {
	p, err := s.store.FindByRegistrationID(ctx, registrationID)
	if err != nil {
		return Participant{}, err
	}
	if p == nil {
		return Participant{}, ErrNotFound
	}
	return *p, nil
}

// ListActive returns active participants, newest registration first.
func (s *Service) ListActive(ctx context.Context, limit int) ([]Participant, error) {
	return s.store.ListActive(ctx, limit)
}

// Deactivate soft-deletes a participant. Attendance history is not touched.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.store.Deactivate(ctx, id)
}
