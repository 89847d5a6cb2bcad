package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/studylink/studylink-server/internal/store"
)

func newUUID() string {
	return uuid.New().String()
}

// ==== ConnectionStore implementation ====

// CreateConnection creates a new pending connection request.
func (s *SQLiteStore) CreateConnection(ctx context.Context, senderID, receiverID string) (*store.Connection, error) {
	id := newUUID()
	query := `
		INSERT INTO connections (id, sender_id, receiver_id, status)
		VALUES (?, ?, ?, 'pending')
	`
	if _, err := s.db.ExecContext(ctx, query, id, senderID, receiverID); err != nil {
		return nil, fmt.Errorf("insert connection: %w", err)
	}

	return s.GetConnection(ctx, id)
}

// GetConnection retrieves a connection by ID.
func (s *SQLiteStore) GetConnection(ctx context.Context, id string) (*store.Connection, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, chat_room_id, created_at, updated_at
		FROM connections
		WHERE id = ?
	`
	return scanConnection(s.db.QueryRowContext(ctx, query, id))
}

// GetConnectionBetween retrieves the connection between two users in either
// direction, regardless of status.
func (s *SQLiteStore) GetConnectionBetween(ctx context.Context, userA, userB string) (*store.Connection, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, chat_room_id, created_at, updated_at
		FROM connections
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
	`
	return scanConnection(s.db.QueryRowContext(ctx, query, userA, userB, userB, userA))
}

func scanConnection(row *sql.Row) (*store.Connection, error) {
	var conn store.Connection
	var status string
	var chatRoomID sql.NullString
	err := row.Scan(
		&conn.ID,
		&conn.SenderID,
		&conn.ReceiverID,
		&status,
		&chatRoomID,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query connection: %w", err)
	}
	conn.Status = store.ConnectionStatus(status)
	if chatRoomID.Valid {
		conn.ChatRoomID = &chatRoomID.String
	}
	return &conn, nil
}

// AcceptConnection transitions a pending connection to accepted and
// provisions its chat room with both participants in a single transaction.
// The status update is conditional on the row still being pending, so
// concurrent accepts cannot provision two rooms.
func (s *SQLiteStore) AcceptConnection(ctx context.Context, id string) (*store.Connection, error) {
	conn, err := s.GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	roomID := newUUID()
	if _, err := tx.ExecContext(ctx, `INSERT INTO chat_rooms (id) VALUES (?)`, roomID); err != nil {
		return nil, fmt.Errorf("insert chat room: %w", err)
	}

	memberQuery := `INSERT INTO chat_room_participants (chat_room_id, user_id) VALUES (?, ?)`
	if _, err := tx.ExecContext(ctx, memberQuery, roomID, conn.SenderID); err != nil {
		return nil, fmt.Errorf("add sender participant: %w", err)
	}
	if _, err := tx.ExecContext(ctx, memberQuery, roomID, conn.ReceiverID); err != nil {
		return nil, fmt.Errorf("add receiver participant: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE connections
		SET status = 'accepted', chat_room_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'
	`, roomID, id)
	if err != nil {
		return nil, fmt.Errorf("update connection status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		// Another actor already moved the record; the rollback discards the
		// room so no orphan is left behind.
		return nil, store.ErrStaleTransition
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetConnection(ctx, id)
}

// DeletePendingConnection deletes a connection only if it is still pending.
func (s *SQLiteStore) DeletePendingConnection(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE id = ? AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
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

// DeleteConnection deletes a connection and tears down its chat room.
// Participants and messages cascade with the room.
func (s *SQLiteStore) DeleteConnection(ctx context.Context, id string) error {
	conn, err := s.GetConnection(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	if conn.ChatRoomID != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chat_rooms WHERE id = ?`, *conn.ChatRoomID); err != nil {
			return fmt.Errorf("delete chat room: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListConnections lists connections where the user is on either side,
// optionally filtered by status, newest first.
func (s *SQLiteStore) ListConnections(ctx context.Context, userID string, status *store.ConnectionStatus) ([]*store.Connection, error) {
	var query string
	var args []any

	if status != nil {
		query = `
			SELECT id, sender_id, receiver_id, status, chat_room_id, created_at, updated_at
			FROM connections
			WHERE (sender_id = ? OR receiver_id = ?) AND status = ?
			ORDER BY updated_at DESC
		`
		args = []any{userID, userID, string(*status)}
	} else {
		query = `
			SELECT id, sender_id, receiver_id, status, chat_room_id, created_at, updated_at
			FROM connections
			WHERE sender_id = ? OR receiver_id = ?
			ORDER BY updated_at DESC
		`
		args = []any{userID, userID}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	var conns []*store.Connection
	for rows.Next() {
		var conn store.Connection
		var st string
		var chatRoomID sql.NullString
		if err := rows.Scan(&conn.ID, &conn.SenderID, &conn.ReceiverID, &st, &chatRoomID, &conn.CreatedAt, &conn.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conn.Status = store.ConnectionStatus(st)
		if chatRoomID.Valid {
			conn.ChatRoomID = &chatRoomID.String
		}
		conns = append(conns, &conn)
	}

	return conns, rows.Err()
}
