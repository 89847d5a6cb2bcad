package connections

import (
	"context"
	"errors"
	"testing"

	"github.com/studylink/studylink-server/internal/store"
	"github.com/studylink/studylink-server/internal/store/sqlite"
)

type recordedNotify struct {
	userID string
	action string
}

type notifyRecorder struct {
	calls []recordedNotify
}

func (r *notifyRecorder) NotifyUser(userID, action string) {
	r.calls = append(r.calls, recordedNotify{userID: userID, action: action})
}

func newTestService(t *testing.T) (*Service, *sqlite.SQLiteStore, *notifyRecorder) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	rec := &notifyRecorder{}
	return New(st, rec), st, rec
}

func mustUser(t *testing.T, st *sqlite.SQLiteStore, name string) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), name, name+"@example.com", "hash")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func TestSendRequestValidation(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	alice := mustUser(t, st, "alice")

	if _, err := svc.SendRequest(ctx, alice.ID, alice.ID); !errors.Is(err, ErrCannotConnectSelf) {
		t.Fatalf("expected ErrCannotConnectSelf, got %v", err)
	}
	if _, err := svc.SendRequest(ctx, alice.ID, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSendRequestDuplicateIsConflict(t *testing.T) {
	svc, st, rec := newTestService(t)
	ctx := context.Background()

	alice := mustUser(t, st, "alice")
	bob := mustUser(t, st, "bob")

	conn, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if conn.Status != store.ConnectionStatusPending {
		t.Fatalf("expected pending, got %s", conn.Status)
	}
	if len(rec.calls) != 1 || rec.calls[0] != (recordedNotify{bob.ID, "send"}) {
		t.Fatalf("unexpected notifications: %+v", rec.calls)
	}

	// Same direction.
	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); !errors.Is(err, ErrRequestAlreadyExists) {
		t.Fatalf("expected ErrRequestAlreadyExists, got %v", err)
	}
	// Opposite direction hits the same pair.
	if _, err := svc.SendRequest(ctx, bob.ID, alice.ID); !errors.Is(err, ErrRequestAlreadyExists) {
		t.Fatalf("expected ErrRequestAlreadyExists for reversed pair, got %v", err)
	}

	if _, err := svc.Accept(ctx, conn.ID, bob.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("expected ErrAlreadyConnected, got %v", err)
	}
}

func TestAcceptOnlyReceiver(t *testing.T) {
	svc, st, rec := newTestService(t)
	ctx := context.Background()

	alice := mustUser(t, st, "alice")
	bob := mustUser(t, st, "bob")

	conn, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}

	if _, err := svc.Accept(ctx, conn.ID, alice.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for sender accept, got %v", err)
	}

	accepted, err := svc.Accept(ctx, conn.ID, bob.ID)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if accepted.Status != store.ConnectionStatusAccepted || accepted.ChatRoomID == nil {
		t.Fatalf("unexpected accepted connection: %+v", accepted)
	}
	if got := rec.calls[len(rec.calls)-1]; got != (recordedNotify{alice.ID, "accept"}) {
		t.Fatalf("expected accept notification to sender, got %+v", got)
	}

	// Accepting twice is a state error.
	if _, err := svc.Accept(ctx, conn.ID, bob.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDeclineDeletesRecord(t *testing.T) {
	svc, st, rec := newTestService(t)
	ctx := context.Background()

	alice := mustUser(t, st, "alice")
	bob := mustUser(t, st, "bob")

	conn, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}

	if err := svc.Decline(ctx, conn.ID, alice.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for sender decline, got %v", err)
	}
	if err := svc.Decline(ctx, conn.ID, bob.ID); err != nil {
		t.Fatalf("Decline failed: %v", err)
	}
	if got := rec.calls[len(rec.calls)-1]; got != (recordedNotify{alice.ID, "reject"}) {
		t.Fatalf("expected reject notification to sender, got %+v", got)
	}

	// Nothing survives a decline, so the pair can start over.
	status, err := svc.Status(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != StatusNone {
		t.Fatalf("expected none after decline, got %s", status)
	}
	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("resend after decline failed: %v", err)
	}
}

func TestCancelByReceiverID(t *testing.T) {
	svc, st, rec := newTestService(t)
	ctx := context.Background()

	alice := mustUser(t, st, "alice")
	bob := mustUser(t, st, "bob")

	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}

	// The receiver cannot cancel, only the sender can.
	if err := svc.Cancel(ctx, bob.ID, alice.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}

	if err := svc.Cancel(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if got := rec.calls[len(rec.calls)-1]; got != (recordedNotify{bob.ID, "cancel"}) {
		t.Fatalf("expected cancel notification to receiver, got %+v", got)
	}

	if err := svc.Cancel(ctx, alice.ID, bob.ID); !errors.Is(err, ErrConnectionNotFound) {
		t.Fatalf("expected ErrConnectionNotFound, got %v", err)
	}
}

func TestStatusPerspective(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	alice := mustUser(t, st, "alice")
	bob := mustUser(t, st, "bob")

	status, _ := svc.Status(ctx, alice.ID, bob.ID)
	if status != StatusNone {
		t.Fatalf("expected none, got %s", status)
	}

	conn, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}

	status, _ = svc.Status(ctx, alice.ID, bob.ID)
	if status != StatusPendingSent {
		t.Fatalf("expected pending_sent, got %s", status)
	}
	status, _ = svc.Status(ctx, bob.ID, alice.ID)
	if status != StatusPendingReceived {
		t.Fatalf("expected pending_received, got %s", status)
	}

	if _, err := svc.Accept(ctx, conn.ID, bob.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	status, _ = svc.Status(ctx, alice.ID, bob.ID)
	if status != StatusConnected {
		t.Fatalf("expected connected, got %s", status)
	}
}

func TestDisconnectRemovesConnectionAndRoom(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	alice := mustUser(t, st, "alice")
	bob := mustUser(t, st, "bob")

	conn, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	accepted, err := svc.Accept(ctx, conn.ID, bob.ID)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	if err := svc.Disconnect(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if _, err := st.GetChatRoom(ctx, *accepted.ChatRoomID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected chat room to be gone, got %v", err)
	}
	if err := svc.Disconnect(ctx, alice.ID, bob.ID); !errors.Is(err, ErrConnectionNotFound) {
		t.Fatalf("expected ErrConnectionNotFound, got %v", err)
	}
}

func TestListPendingIncomingOnly(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	alice := mustUser(t, st, "alice")
	bob := mustUser(t, st, "bob")
	carol := mustUser(t, st, "carol")

	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if _, err := svc.SendRequest(ctx, bob.ID, carol.ID); err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}

	pending, err := svc.ListPending(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].SenderID != alice.ID {
		t.Fatalf("expected only the incoming request from alice, got %+v", pending)
	}
}
