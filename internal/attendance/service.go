package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventcheck/internal/identity"
	"eventcheck/internal/registration"
)

// Directory resolves scanned registration IDs to active participants.
type Directory interface {
	FindByRegistrationID(ctx context.Context, registrationID string) (*registration.Participant, error)
}

// Service enforces the one-record-per-participant-per-day rule. It is the
// only place the rule lives; the ledger's uniqueness index is a backstop for
// concurrent scans of the same code.
type Service struct {
	directory       Directory
	ledger          Store
	defaultLocation string
	now             func() time.Time
}

// NewService creates a marking service.
func NewService(directory Directory, ledger Store, defaultLocation string) *Service {
	if defaultLocation == "" {
		defaultLocation = "main-hall"
	}
	return &Service{directory: directory, ledger: ledger, defaultLocation: defaultLocation, now: time.Now}
}

// Mark validates a scanned payload, resolves the participant, and appends a
// present record for today. A repeat scan on the same day fails with
// *AlreadyMarkedError carrying the existing record unchanged.
func (s *Service) Mark(ctx context.Context, rawPayload, scannedBy, location string) (Record, error) {
	payload, err := identity.Decode(rawPayload)
	if err != nil {
		return Record{}, err
	}

	participant, err := s.directory.FindByRegistrationID(ctx, payload.RegistrationID)
	if err != nil {
		return Record{}, err
	}
	if participant == nil {
		return Record{}, ErrParticipantNotFound
	}

	now := s.now()
	day := DayBucket(now)

	existing, err := s.ledger.FindByParticipantAndDay(ctx, participant.ID, day)
	if err != nil {
		return Record{}, err
	}
	if existing != nil {
		return Record{}, &AlreadyMarkedError{Existing: *existing}
	}

	if scannedBy == "" {
		scannedBy = "system"
	}
	if location == "" {
		location = s.defaultLocation
	}

	rec, err := s.ledger.Insert(ctx, Record{
		ID:             uuid.NewString(),
		ParticipantID:  participant.ID,
		RegistrationID: participant.RegistrationID,
		Name:           participant.Name,
		Email:          participant.Email,
		Status:         StatusPresent,
		Timestamp:      now,
		ScannedBy:      scannedBy,
		Location:       location,
		DayBucket:      day,
	})
	if errors.Is(err, ErrDuplicateDay) {
		// Lost the race to a concurrent scan; report the winner's record.
		winner, ferr := s.ledger.FindByParticipantAndDay(ctx, participant.ID, day)
		if ferr != nil || winner == nil {
			return Record{}, fmt.Errorf("resolve conflicting record: %w", err)
		}
		return Record{}, &AlreadyMarkedError{Existing: *winner}
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns ledger records matching the filter plus the total match
// count.
func (s *Service) List(ctx context.Context, f Filter) ([]Record, int, error) {
	return s.ledger.List(ctx, f)
}

// History returns a participant's attendance records, newest first, after
// resolving the registration ID. day is an optional day-bucket filter.
func (s *Service) History(ctx context.Context, registrationID, day string) (registration.Participant, []Record, error) {
	participant, err := s.directory.FindByRegistrationID(ctx, registrationID)
	if err != nil {
		return registration.Participant{}, nil, err
	}
	if participant == nil {
		return registration.Participant{}, nil, ErrParticipantNotFound
	}
	records, err := s.ledger.ListByParticipant(ctx, participant.ID, day)
	if err != nil {
		return registration.Participant{}, nil, err
	}
	return *participant, records, nil
}

// HistoryByParticipantID lists ledger records directly by participant id,
// bypassing the active-only directory lookup. Deactivated participants'
// history stays reachable through this path.
func (s *Service) HistoryByParticipantID(ctx context.Context, participantID string) ([]Record, error) {
	return s.ledger.ListByParticipant(ctx, participantID, "")
}
