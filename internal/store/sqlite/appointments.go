package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studylink/studylink-server/internal/store"
)

// ==== AppointmentStore implementation ====

// CreateAppointment persists a new appointment and fills in its ID and
// timestamps.
func (s *SQLiteStore) CreateAppointment(ctx context.Context, appt *store.Appointment) error {
	id := newUUID()
	query := `
		INSERT INTO appointments (id, sender_id, receiver_id, start_time, end_time, description, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	status := appt.Status
	if status == "" {
		status = store.AppointmentStatusPending
	}
	_, err := s.db.ExecContext(ctx, query,
		id, appt.SenderID, appt.ReceiverID,
		appt.StartTime.UTC(), appt.EndTime.UTC(),
		appt.Description, string(status),
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	saved, err := s.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	*appt = *saved
	return nil
}

// GetAppointment retrieves an appointment by ID.
func (s *SQLiteStore) GetAppointment(ctx context.Context, id string) (*store.Appointment, error) {
	query := `
		SELECT id, sender_id, receiver_id, start_time, end_time, description, status, created_at, updated_at
		FROM appointments
		WHERE id = ?
	`
	var appt store.Appointment
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&appt.ID,
		&appt.SenderID,
		&appt.ReceiverID,
		&appt.StartTime,
		&appt.EndTime,
		&appt.Description,
		&status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query appointment: %w", err)
	}
	appt.Status = store.AppointmentStatus(status)
	return &appt, nil
}

// HasAppointmentConflict reports whether any pending or accepted appointment
// involving either user overlaps [start, end). The overlap test is
// existing.start < end AND existing.end > start, so adjacent intervals do
// not conflict.
func (s *SQLiteStore) HasAppointmentConflict(ctx context.Context, userA, userB string, start, end time.Time) (bool, error) {
	query := `
		SELECT 1 FROM appointments
		WHERE status IN ('pending', 'accepted')
		  AND (sender_id IN (?, ?) OR receiver_id IN (?, ?))
		  AND start_time < ?
		  AND end_time > ?
		LIMIT 1
	`
	var exists int
	err := s.db.QueryRowContext(ctx, query, userA, userB, userA, userB, end.UTC(), start.UTC()).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query appointment conflict: %w", err)
	}
	return true, nil
}

// UpdateAppointmentStatus transitions an appointment to a new status only if
// its current status is one of from. The conditional WHERE clause is the
// compare-and-set that keeps concurrent transitions serializable.
func (s *SQLiteStore) UpdateAppointmentStatus(ctx context.Context, id string, from []store.AppointmentStatus, to store.AppointmentStatus) error {
	if len(from) == 0 {
		return fmt.Errorf("update appointment status: empty from set")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")
	query := fmt.Sprintf(`
		UPDATE appointments
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (%s)
	`, placeholders)

	args := make([]any, 0, len(from)+2)
	args = append(args, string(to), id)
	for _, f := range from {
		args = append(args, string(f))
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrStaleTransition
	}
	return nil
}

// DeleteAppointment deletes an appointment.
func (s *SQLiteStore) DeleteAppointment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListAppointments lists appointments where the user is sender or receiver,
// newest first.
func (s *SQLiteStore) ListAppointments(ctx context.Context, userID string) ([]*store.Appointment, error) {
	query := `
		SELECT id, sender_id, receiver_id, start_time, end_time, description, status, created_at, updated_at
		FROM appointments
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var appts []*store.Appointment
	for rows.Next() {
		var appt store.Appointment
		var status string
		if err := rows.Scan(&appt.ID, &appt.SenderID, &appt.ReceiverID, &appt.StartTime, &appt.EndTime, &appt.Description, &status, &appt.CreatedAt, &appt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appt.Status = store.AppointmentStatus(status)
		appts = append(appts, &appt)
	}

	return appts, rows.Err()
}
