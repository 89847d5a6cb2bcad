package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/studylink/studylink-server/internal/store"
)

// ==== ChatStore implementation ====

// GetChatRoom retrieves a chat room by ID.
func (s *SQLiteStore) GetChatRoom(ctx context.Context, id string) (*store.ChatRoom, error) {
	query := `SELECT id, created_at FROM chat_rooms WHERE id = ?`
	var room store.ChatRoom
	err := s.db.QueryRowContext(ctx, query, id).Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query chat room: %w", err)
	}
	return &room, nil
}

// IsParticipant checks whether a user belongs to a chat room.
func (s *SQLiteStore) IsParticipant(ctx context.Context, userID, roomID string) (bool, error) {
	query := `
		SELECT 1 FROM chat_room_participants
		WHERE chat_room_id = ? AND user_id = ?
	`
	var exists int
	err := s.db.QueryRowContext(ctx, query, roomID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query participant: %w", err)
	}
	return true, nil
}

// ListParticipants lists the user IDs attached to a chat room.
func (s *SQLiteStore) ListParticipants(ctx context.Context, roomID string) ([]string, error) {
	query := `
		SELECT user_id FROM chat_room_participants
		WHERE chat_room_id = ?
		ORDER BY user_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var participants []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, userID)
	}

	return participants, rows.Err()
}

// SaveMessage persists a message and fills in its ID and timestamp.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	id := newUUID()
	query := `
		INSERT INTO messages (id, chat_room_id, sender_id, content)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, id, msg.ChatRoomID, msg.SenderID, msg.Content); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT id, chat_room_id, sender_id, content, created_at FROM messages WHERE id = ?`, id)
	if err := row.Scan(&msg.ID, &msg.ChatRoomID, &msg.SenderID, &msg.Content, &msg.CreatedAt); err != nil {
		return fmt.Errorf("reload message: %w", err)
	}
	return nil
}

// ListMessages retrieves messages from a room, oldest first. If beforeID is
// provided only messages created before that message are returned.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID string, limit int, beforeID *string) ([]*store.Message, error) {
	var query string
	var args []any

	if beforeID != nil {
		query = `
			SELECT id, chat_room_id, sender_id, content, created_at
			FROM messages
			WHERE chat_room_id = ?
			  AND created_at < (SELECT created_at FROM messages WHERE id = ?)
			ORDER BY created_at DESC
			LIMIT ?
		`
		args = []any{roomID, *beforeID, limit}
	} else {
		query = `
			SELECT id, chat_room_id, sender_id, content, created_at
			FROM messages
			WHERE chat_room_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		`
		args = []any{roomID, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.ChatRoomID, &msg.SenderID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	// Reverse to get chronological order
	for i := range len(messages) / 2 {
		messages[i], messages[len(messages)-1-i] = messages[len(messages)-1-i], messages[i]
	}

	return messages, rows.Err()
}
