package relay

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type dispatch struct {
	client *Client
	cmd    *Command
}

type roomInject struct {
	room  string
	event *Event
}

type userInject struct {
	userID string
	event  *Event
}

// Hub routes presence, chat and signaling traffic between connections.
// All state is owned by the Run goroutine; external callers talk to it
// through channels only.
type Hub struct {
	registry Registry
	log      zerolog.Logger

	clients map[string]*Client
	rooms   map[string]*Room

	register    chan *Client
	unregister  chan *Client
	dispatches  chan dispatch
	roomInjects chan roomInject
	userInjects chan userInject
}

// NewHub creates a hub backed by the given presence registry.
func NewHub(registry Registry, log zerolog.Logger) *Hub {
	return &Hub{
		registry:    registry,
		log:         log,
		clients:     make(map[string]*Client),
		rooms:       make(map[string]*Room),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		dispatches:  make(chan dispatch, 64),
		roomInjects: make(chan roomInject, 64),
		userInjects: make(chan userInject, 64),
	}
}

// RegisterClient hands a connection to the hub. The hub pumps the client's
// Commands channel until UnregisterClient or context cancellation.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient removes a connection: room membership is dropped and,
// if the connection owned a presence binding, everyone is told the user
// went offline.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// InjectMessage fans a chat message out to a room on behalf of a trusted
// caller. Fire and forget; delivery to absent rooms is a silent no-op.
func (h *Hub) InjectMessage(msg ChatMessage) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	select {
	case h.roomInjects <- roomInject{room: msg.ChatRoomID, event: &Event{
		Kind:    EventNewMessage,
		Room:    msg.ChatRoomID,
		Message: msg,
	}}:
	default:
		h.log.Warn().Str("room", msg.ChatRoomID).Msg("inject queue full, message dropped")
	}
}

// NotifyUser pushes a connection lifecycle notification at a user. Offline
// users are a silent no-op.
func (h *Hub) NotifyUser(userID, action string) {
	select {
	case h.userInjects <- userInject{userID: userID, event: &Event{
		Kind:   EventReceiveConnection,
		Action: action,
	}}:
	default:
		h.log.Warn().Str("user_id", userID).Msg("notify queue full, notification dropped")
	}
}

// Run owns all hub state. Blocks until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c.ID] = c
			go h.pump(ctx, c)
		case c := <-h.unregister:
			h.dropClient(c)
		case d := <-h.dispatches:
			h.handle(d.client, d.cmd)
		case in := <-h.roomInjects:
			if room, ok := h.rooms[in.room]; ok {
				room.Broadcast(in.event)
			}
		case in := <-h.userInjects:
			h.sendToUser(in.userID, in.event)
		}
	}
}

// pump forwards one client's commands into the hub's dispatch loop.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.dispatches <- dispatch{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) dropClient(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	close(c.Commands)

	for roomID := range c.Rooms {
		if room, ok := h.rooms[roomID]; ok {
			room.RemoveClient(c)
			if room.Empty() {
				delete(h.rooms, roomID)
			}
		}
	}

	if userID, ok := h.registry.RemoveHandle(c.ID); ok {
		h.broadcastAll(&Event{Kind: EventOnlineStatus, UserID: userID, Status: "offline"})
		h.log.Debug().Str("user_id", userID).Str("handle", c.ID).Msg("user went offline")
	}
}

func (h *Hub) handle(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandAnnounce:
		if cmd.UserID == "" {
			h.sendError(c, relayError(ErrCodeBadRequest, "userOnline requires userId"))
			return
		}
		h.registry.Bind(cmd.UserID, c.ID)
		h.broadcastAll(&Event{Kind: EventOnlineStatus, UserID: cmd.UserID, Status: "online"})
		h.log.Debug().Str("user_id", cmd.UserID).Str("handle", c.ID).Msg("user announced online")

	case CommandCheckStatus:
		status := "offline"
		if h.registry.Online(cmd.UserID) {
			status = "online"
		}
		h.send(c, &Event{Kind: EventUserStatus, UserID: cmd.UserID, Status: status})

	case CommandJoinRoom:
		if cmd.Room == "" {
			h.sendError(c, relayError(ErrCodeBadRequest, "joinRoom requires chatRoomId"))
			return
		}
		room, ok := h.rooms[cmd.Room]
		if !ok {
			room = NewRoom(cmd.Room)
			h.rooms[cmd.Room] = room
		}
		room.AddClient(c)
		c.Rooms[cmd.Room] = struct{}{}

	case CommandSendMessage:
		if cmd.Message.ChatRoomID == "" || cmd.Message.UserID == "" || cmd.Message.Message == "" {
			h.send(c, &Event{
				Kind:    EventMessageError,
				Message: ChatMessage{Message: "chatRoomId, userId and message are required"},
			})
			return
		}
		msg := cmd.Message
		if msg.Timestamp == 0 {
			msg.Timestamp = time.Now().Unix()
		}
		if room, ok := h.rooms[msg.ChatRoomID]; ok {
			room.Broadcast(&Event{Kind: EventNewMessage, Room: msg.ChatRoomID, Message: msg})
		}

	case CommandSignal:
		h.handleSignal(c, cmd.Signal)

	case CommandNotifyConnection:
		h.sendToUser(cmd.UserID, &Event{Kind: EventReceiveConnection, Action: cmd.Action})

	default:
		h.sendError(c, relayError(ErrCodeUnknownType, "unknown command"))
	}
}

// handleSignal routes one signaling frame. Absent targets are silent
// no-ops: the caller gives up when nothing comes back.
func (h *Hub) handleSignal(c *Client, sig Signal) {
	target := h.resolveSignalTarget(sig)
	if target == nil {
		h.log.Debug().Str("to", sig.To).Int("kind", int(sig.Kind)).Msg("signal target not reachable")
		return
	}

	switch sig.Kind {
	case SignalCallUser:
		h.send(target, &Event{Kind: EventIncomingCall, From: c.ID, Payload: sig.Payload})
	case SignalAnswerCall:
		h.send(target, &Event{Kind: EventCallAnswered, Payload: sig.Payload})
	case SignalUpdateOffer:
		h.send(target, &Event{Kind: EventUpdateOffer, From: c.ID, Payload: sig.Payload})
	case SignalUpdateAnswer:
		h.send(target, &Event{Kind: EventUpdateAnswer, Payload: sig.Payload})
	case SignalICECandidate:
		h.send(target, &Event{Kind: EventICECandidate, Payload: sig.Payload})
	case SignalEndCall:
		h.send(target, &Event{Kind: EventCallEnded})
	case SignalScreenShareEnded:
		h.send(target, &Event{Kind: EventScreenShareEnded})
	}
}

// resolveSignalTarget maps a signal's To field onto a live connection.
// endCall accepts either a connection handle or a user id because the
// caller may only hold one of the two by the time it hangs up; everything
// else addresses by user id.
func (h *Hub) resolveSignalTarget(sig Signal) *Client {
	if sig.Kind == SignalEndCall {
		if c, ok := h.clients[sig.To]; ok {
			return c
		}
	}
	if handle, ok := h.registry.Lookup(sig.To); ok {
		return h.clients[handle]
	}
	if sig.Kind == SignalAnswerCall {
		// The callee answers at the handle it got in incomingCall.
		return h.clients[sig.To]
	}
	return nil
}

func (h *Hub) sendToUser(userID string, ev *Event) {
	handle, ok := h.registry.Lookup(userID)
	if !ok {
		return
	}
	if c, ok := h.clients[handle]; ok {
		h.send(c, ev)
	}
}

func (h *Hub) broadcastAll(ev *Event) {
	for _, c := range h.clients {
		h.send(c, ev)
	}
}

func (h *Hub) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
	}
}

func (h *Hub) sendError(c *Client, err *RelayError) {
	h.send(c, &Event{Kind: EventError, Error: err})
}
