package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studylink/studylink-server/internal/store"
)

// Common errors for appointment operations.
var (
	ErrCannotBookSelf      = errors.New("cannot book an appointment with yourself")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidTimeRange    = errors.New("start time must be in the future and before end time")
	ErrTimeConflict        = errors.New("appointment overlaps an existing one")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrNotAuthorized       = errors.New("not authorized for this appointment")
	ErrInvalidStatus       = errors.New("invalid appointment status")
	ErrInvalidTransition   = errors.New("appointment is not in the required state")
)

// Service provides appointment scheduling business logic.
type Service struct {
	store store.Store
	now   func() time.Time
}

// New creates an appointment service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
		now:   time.Now,
	}
}

// Create books a pending appointment between two users. Both bounds must
// lie in the future, and neither participant may already hold a pending or
// accepted appointment overlapping the interval. Intervals that merely
// touch do not conflict.
func (s *Service) Create(ctx context.Context, senderID, receiverID string, start, end time.Time, description string) (*store.Appointment, error) {
	if senderID == receiverID {
		return nil, ErrCannotBookSelf
	}

	now := s.now()
	if !start.Before(end) || start.Before(now) || end.Before(now) {
		return nil, ErrInvalidTimeRange
	}

	if _, err := s.store.GetUserByID(ctx, receiverID); err != nil {
		return nil, ErrUserNotFound
	}

	conflict, err := s.store.HasAppointmentConflict(ctx, senderID, receiverID, start, end)
	if err != nil {
		return nil, fmt.Errorf("check appointment conflict: %w", err)
	}
	if conflict {
		return nil, ErrTimeConflict
	}

	appt := &store.Appointment{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		StartTime:   start,
		EndTime:     end,
		Description: description,
	}
	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return appt, nil
}

// Get returns an appointment to one of its participants.
func (s *Service) Get(ctx context.Context, id, actingUserID string) (*store.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt.SenderID != actingUserID && appt.ReceiverID != actingUserID {
		return nil, ErrNotAuthorized
	}
	return appt, nil
}

// UpdateStatus moves an appointment through its lifecycle. Accept and
// reject are receiver-only and require a pending record; cancel is open to
// either participant while the record is pending or accepted. The
// transition is a compare-and-set, so of two concurrent actors only one
// wins.
func (s *Service) UpdateStatus(ctx context.Context, id, actingUserID string, to store.AppointmentStatus) (*store.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	var from []store.AppointmentStatus
	switch to {
	case store.AppointmentStatusAccepted, store.AppointmentStatusRejected:
		if appt.ReceiverID != actingUserID {
			return nil, ErrNotAuthorized
		}
		from = []store.AppointmentStatus{store.AppointmentStatusPending}
	case store.AppointmentStatusCanceled:
		if appt.SenderID != actingUserID && appt.ReceiverID != actingUserID {
			return nil, ErrNotAuthorized
		}
		from = []store.AppointmentStatus{store.AppointmentStatusPending, store.AppointmentStatusAccepted}
	default:
		return nil, ErrInvalidStatus
	}

	if err := s.store.UpdateAppointmentStatus(ctx, id, from, to); err != nil {
		if errors.Is(err, store.ErrStaleTransition) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	updated, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload appointment: %w", err)
	}
	return updated, nil
}

// Destroy deletes an appointment. Either participant may do so; rejected
// and canceled records stay around until one of them does.
func (s *Service) Destroy(ctx context.Context, id, actingUserID string) error {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("get appointment: %w", err)
	}
	if appt.SenderID != actingUserID && appt.ReceiverID != actingUserID {
		return ErrNotAuthorized
	}

	if err := s.store.DeleteAppointment(ctx, id); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// ListMine returns all appointments with the user on either side, newest
// first.
func (s *Service) ListMine(ctx context.Context, userID string) ([]*store.Appointment, error) {
	appts, err := s.store.ListAppointments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}
