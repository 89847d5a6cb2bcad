package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestHub(t *testing.T) (*Hub, Registry) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	registry := NewMapRegistry()
	hub := NewHub(registry, zerolog.Nop())
	go hub.Run(ctx)
	return hub, registry
}

func TestAnnounceAndStatusCheck(t *testing.T) {
	hub, registry := newTestHub(t)

	alice := NewClient("conn-a")
	bob := NewClient("conn-b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandAnnounce, UserID: "user-alice"}

	// Everyone hears the presence change, announcer included.
	ev := mustEvent(t, bob.Events, EventOnlineStatus)
	if ev.UserID != "user-alice" || ev.Status != "online" {
		t.Fatalf("unexpected status broadcast: %+v", ev)
	}
	mustEvent(t, alice.Events, EventOnlineStatus)

	if handle, ok := registry.Lookup("user-alice"); !ok || handle != "conn-a" {
		t.Fatalf("registry not bound: %v %v", handle, ok)
	}

	bob.Commands <- &Command{Kind: CommandCheckStatus, UserID: "user-alice"}
	ev = mustEvent(t, bob.Events, EventUserStatus)
	if ev.UserID != "user-alice" || ev.Status != "online" {
		t.Fatalf("unexpected status response: %+v", ev)
	}

	bob.Commands <- &Command{Kind: CommandCheckStatus, UserID: "user-ghost"}
	ev = mustEvent(t, bob.Events, EventUserStatus)
	if ev.Status != "offline" {
		t.Fatalf("expected offline, got %+v", ev)
	}
}

func TestAnnounceLastWriteWins(t *testing.T) {
	hub, registry := newTestHub(t)

	first := NewClient("conn-1")
	second := NewClient("conn-2")
	hub.RegisterClient(first)
	hub.RegisterClient(second)

	first.Commands <- &Command{Kind: CommandAnnounce, UserID: "user-alice"}
	mustEvent(t, first.Events, EventOnlineStatus)

	second.Commands <- &Command{Kind: CommandAnnounce, UserID: "user-alice"}
	mustEvent(t, second.Events, EventOnlineStatus)

	if handle, _ := registry.Lookup("user-alice"); handle != "conn-2" {
		t.Fatalf("expected second connection to own the binding, got %s", handle)
	}
}

func TestDisconnectBroadcastsOffline(t *testing.T) {
	hub, registry := newTestHub(t)

	alice := NewClient("conn-a")
	bob := NewClient("conn-b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandAnnounce, UserID: "user-alice"}
	mustEvent(t, bob.Events, EventOnlineStatus)

	hub.UnregisterClient(alice)

	ev := mustEvent(t, bob.Events, EventOnlineStatus)
	if ev.UserID != "user-alice" || ev.Status != "offline" {
		t.Fatalf("unexpected offline broadcast: %+v", ev)
	}
	if registry.Online("user-alice") {
		t.Fatal("registry should be empty after disconnect")
	}
}

func TestRoomMessageFanout(t *testing.T) {
	hub, _ := newTestHub(t)

	alice := NewClient("conn-a")
	bob := NewClient("conn-b")
	carol := NewClient("conn-c")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	hub.RegisterClient(carol)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}

	// Joins travel on independent pumps; let them land before sending.
	time.Sleep(50 * time.Millisecond)

	alice.Commands <- &Command{
		Kind:    CommandSendMessage,
		Message: ChatMessage{ChatRoomID: "room-1", UserID: "user-alice", Message: "hi"},
	}

	ev := mustEvent(t, bob.Events, EventNewMessage)
	if ev.Message.Message != "hi" || ev.Message.ChatRoomID != "room-1" || ev.Message.UserID != "user-alice" {
		t.Fatalf("unexpected message event: %+v", ev)
	}
	if ev.Message.Timestamp == 0 {
		t.Fatal("expected timestamp to be stamped")
	}
	// Sender is a room member and hears its own message.
	mustEvent(t, alice.Events, EventNewMessage)
	// Carol never joined.
	mustNoEvent(t, carol.Events)
}

func TestSendMessageMissingFields(t *testing.T) {
	tests := []struct {
		name string
		msg  ChatMessage
	}{
		{"missing room", ChatMessage{UserID: "user-alice", Message: "hi"}},
		{"missing sender", ChatMessage{ChatRoomID: "room-1", Message: "hi"}},
		{"missing message", ChatMessage{ChatRoomID: "room-1", UserID: "user-alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub, _ := newTestHub(t)

			alice := NewClient("conn-a")
			hub.RegisterClient(alice)
			alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}

			alice.Commands <- &Command{Kind: CommandSendMessage, Message: tt.msg}

			ev := mustEvent(t, alice.Events, EventMessageError)
			if ev.Message.Message == "" {
				t.Fatalf("expected error description, got %+v", ev)
			}
			// Nothing reaches the room.
			mustNoEvent(t, alice.Events)
		})
	}
}

func TestInjectMessageReachesRoom(t *testing.T) {
	hub, _ := newTestHub(t)

	bob := NewClient("conn-b")
	hub.RegisterClient(bob)
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}

	// Let the join land before injecting.
	time.Sleep(50 * time.Millisecond)
	hub.InjectMessage(ChatMessage{ChatRoomID: "room-1", UserID: "user-alice", Message: "persisted"})

	ev := mustEvent(t, bob.Events, EventNewMessage)
	if ev.Message.Message != "persisted" {
		t.Fatalf("unexpected injected message: %+v", ev)
	}

	// Absent room is a silent no-op.
	hub.InjectMessage(ChatMessage{ChatRoomID: "room-ghost", Message: "void"})
	mustNoEvent(t, bob.Events)
}

func TestSignalRoundTrip(t *testing.T) {
	hub, _ := newTestHub(t)

	caller := NewClient("conn-caller")
	callee := NewClient("conn-callee")
	hub.RegisterClient(caller)
	hub.RegisterClient(callee)

	caller.Commands <- &Command{Kind: CommandAnnounce, UserID: "user-caller"}
	callee.Commands <- &Command{Kind: CommandAnnounce, UserID: "user-callee"}
	mustEvent(t, caller.Events, EventOnlineStatus)
	mustEvent(t, callee.Events, EventOnlineStatus)

	// Announces travel on independent pumps; let both bind first.
	time.Sleep(50 * time.Millisecond)

	offer := json.RawMessage(`{"sdp":"offer"}`)
	caller.Commands <- &Command{Kind: CommandSignal, Signal: Signal{
		Kind: SignalCallUser, To: "user-callee", Payload: offer,
	}}

	incoming := mustEvent(t, callee.Events, EventIncomingCall)
	if incoming.From != "conn-caller" || string(incoming.Payload) != string(offer) {
		t.Fatalf("unexpected incoming call: %+v", incoming)
	}

	// Callee answers back at the handle carried in the incoming call.
	answer := json.RawMessage(`{"sdp":"answer"}`)
	callee.Commands <- &Command{Kind: CommandSignal, Signal: Signal{
		Kind: SignalAnswerCall, To: incoming.From, Payload: answer,
	}}

	answered := mustEvent(t, caller.Events, EventCallAnswered)
	if string(answered.Payload) != string(answer) {
		t.Fatalf("unexpected answer: %+v", answered)
	}

	caller.Commands <- &Command{Kind: CommandSignal, Signal: Signal{
		Kind: SignalICECandidate, To: "user-callee", Payload: json.RawMessage(`{"candidate":"c"}`),
	}}
	mustEvent(t, callee.Events, EventICECandidate)
}

func TestSignalAbsentTargetIsSilent(t *testing.T) {
	hub, _ := newTestHub(t)

	caller := NewClient("conn-caller")
	hub.RegisterClient(caller)

	caller.Commands <- &Command{Kind: CommandSignal, Signal: Signal{
		Kind: SignalCallUser, To: "user-nobody", Payload: json.RawMessage(`{}`),
	}}

	mustNoEvent(t, caller.Events)
}

func TestEndCallResolvesHandleThenUser(t *testing.T) {
	hub, _ := newTestHub(t)

	caller := NewClient("conn-caller")
	callee := NewClient("conn-callee")
	hub.RegisterClient(caller)
	hub.RegisterClient(callee)

	callee.Commands <- &Command{Kind: CommandAnnounce, UserID: "user-callee"}
	mustEvent(t, callee.Events, EventOnlineStatus)

	// By connection handle.
	caller.Commands <- &Command{Kind: CommandSignal, Signal: Signal{
		Kind: SignalEndCall, To: "conn-callee",
	}}
	mustEvent(t, callee.Events, EventCallEnded)

	// By user id.
	caller.Commands <- &Command{Kind: CommandSignal, Signal: Signal{
		Kind: SignalEndCall, To: "user-callee",
	}}
	mustEvent(t, callee.Events, EventCallEnded)
}

func TestNotifyConnectionTargetsUser(t *testing.T) {
	hub, _ := newTestHub(t)

	receiver := NewClient("conn-r")
	bystander := NewClient("conn-x")
	hub.RegisterClient(receiver)
	hub.RegisterClient(bystander)

	receiver.Commands <- &Command{Kind: CommandAnnounce, UserID: "user-receiver"}
	mustEvent(t, receiver.Events, EventOnlineStatus)
	mustEvent(t, bystander.Events, EventOnlineStatus)

	hub.NotifyUser("user-receiver", "send")

	ev := mustEvent(t, receiver.Events, EventReceiveConnection)
	if ev.Action != "send" {
		t.Fatalf("unexpected notification: %+v", ev)
	}
	mustNoEvent(t, bystander.Events)

	// Offline targets are dropped silently.
	hub.NotifyUser("user-nobody", "accept")
}
