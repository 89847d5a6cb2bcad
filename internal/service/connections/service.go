package connections

import (
	"context"
	"errors"
	"fmt"

	"github.com/studylink/studylink-server/internal/store"
)

// Common errors for connection operations.
var (
	ErrCannotConnectSelf    = errors.New("cannot send connection request to yourself")
	ErrUserNotFound         = errors.New("user not found")
	ErrAlreadyConnected     = errors.New("already connected")
	ErrRequestAlreadyExists = errors.New("connection request already exists")
	ErrConnectionNotFound   = errors.New("connection not found")
	ErrNotAuthorized        = errors.New("not authorized for this connection")
	ErrInvalidTransition    = errors.New("connection is not in the required state")
)

// Connection status as reported to the other side of the pair.
const (
	StatusNone            = "none"
	StatusPendingSent     = "pending_sent"
	StatusPendingReceived = "pending_received"
	StatusConnected       = "connected"
)

// Notifier pushes connection lifecycle notifications at live users.
// The relay hub satisfies this; tests inject a recorder.
type Notifier interface {
	NotifyUser(userID, action string)
}

// Service provides connection management business logic.
type Service struct {
	store    store.Store
	notifier Notifier
}

// New creates a connection service. notifier may be nil.
func New(st store.Store, notifier Notifier) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
	}
}

func (s *Service) notify(userID, action string) {
	if s.notifier != nil {
		s.notifier.NotifyUser(userID, action)
	}
}

// SendRequest creates a pending connection from one user to another.
func (s *Service) SendRequest(ctx context.Context, senderID, receiverID string) (*store.Connection, error) {
	if senderID == receiverID {
		return nil, ErrCannotConnectSelf
	}

	if _, err := s.store.GetUserByID(ctx, receiverID); err != nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.store.GetConnectionBetween(ctx, senderID, receiverID)
	if err == nil {
		switch existing.Status {
		case store.ConnectionStatusAccepted:
			return nil, ErrAlreadyConnected
		case store.ConnectionStatusPending:
			return nil, ErrRequestAlreadyExists
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing connection: %w", err)
	}

	conn, err := s.store.CreateConnection(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("create connection request: %w", err)
	}

	s.notify(receiverID, "send")
	return conn, nil
}

// Accept transitions a pending connection to accepted and provisions its
// chat room. Only the receiver may accept.
func (s *Service) Accept(ctx context.Context, connectionID, actingUserID string) (*store.Connection, error) {
	conn, err := s.store.GetConnection(ctx, connectionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}

	if conn.ReceiverID != actingUserID {
		return nil, ErrNotAuthorized
	}

	accepted, err := s.store.AcceptConnection(ctx, connectionID)
	if err != nil {
		if errors.Is(err, store.ErrStaleTransition) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("accept connection: %w", err)
	}

	s.notify(conn.SenderID, "accept")
	return accepted, nil
}

// Decline deletes a pending connection. Only the receiver may decline;
// no rejected record is kept.
func (s *Service) Decline(ctx context.Context, connectionID, actingUserID string) error {
	conn, err := s.store.GetConnection(ctx, connectionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConnectionNotFound
		}
		return fmt.Errorf("get connection: %w", err)
	}

	if conn.ReceiverID != actingUserID {
		return ErrNotAuthorized
	}

	if err := s.store.DeletePendingConnection(ctx, connectionID); err != nil {
		if errors.Is(err, store.ErrStaleTransition) {
			return ErrInvalidTransition
		}
		return fmt.Errorf("decline connection: %w", err)
	}

	s.notify(conn.SenderID, "reject")
	return nil
}

// Cancel withdraws the pending request the sender aimed at receiverID.
func (s *Service) Cancel(ctx context.Context, senderID, receiverID string) error {
	conn, err := s.store.GetConnectionBetween(ctx, senderID, receiverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConnectionNotFound
		}
		return fmt.Errorf("get connection: %w", err)
	}

	if conn.SenderID != senderID {
		return ErrNotAuthorized
	}

	if err := s.store.DeletePendingConnection(ctx, conn.ID); err != nil {
		if errors.Is(err, store.ErrStaleTransition) {
			return ErrInvalidTransition
		}
		return fmt.Errorf("cancel connection: %w", err)
	}

	s.notify(receiverID, "cancel")
	return nil
}

// Disconnect removes an accepted connection together with its chat room.
// Either side may disconnect.
func (s *Service) Disconnect(ctx context.Context, userID, otherUserID string) error {
	conn, err := s.store.GetConnectionBetween(ctx, userID, otherUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConnectionNotFound
		}
		return fmt.Errorf("get connection: %w", err)
	}

	if conn.Status != store.ConnectionStatusAccepted {
		return ErrConnectionNotFound
	}

	if err := s.store.DeleteConnection(ctx, conn.ID); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// Status describes the relation between two users from userID's point of
// view. Declined requests are deleted, so a rejected state is unreachable
// here.
func (s *Service) Status(ctx context.Context, userID, otherUserID string) (string, error) {
	conn, err := s.store.GetConnectionBetween(ctx, userID, otherUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return StatusNone, nil
		}
		return "", fmt.Errorf("get connection: %w", err)
	}

	switch conn.Status {
	case store.ConnectionStatusAccepted:
		return StatusConnected, nil
	case store.ConnectionStatusPending:
		if conn.SenderID == userID {
			return StatusPendingSent, nil
		}
		return StatusPendingReceived, nil
	}
	return StatusNone, nil
}

// ListPending returns incoming pending requests for the user.
func (s *Service) ListPending(ctx context.Context, userID string) ([]*store.Connection, error) {
	pending := store.ConnectionStatusPending
	conns, err := s.store.ListConnections(ctx, userID, &pending)
	if err != nil {
		return nil, fmt.Errorf("list pending connections: %w", err)
	}

	incoming := make([]*store.Connection, 0, len(conns))
	for _, c := range conns {
		if c.ReceiverID == userID {
			incoming = append(incoming, c)
		}
	}
	return incoming, nil
}

// ListAccepted returns the user's accepted connections.
func (s *Service) ListAccepted(ctx context.Context, userID string) ([]*store.Connection, error) {
	accepted := store.ConnectionStatusAccepted
	conns, err := s.store.ListConnections(ctx, userID, &accepted)
	if err != nil {
		return nil, fmt.Errorf("list accepted connections: %w", err)
	}
	return conns, nil
}
