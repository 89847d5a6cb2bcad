package relay

import "encoding/json"

// CommandKind describes what the connection wants to do.
type CommandKind int

const (
	// CommandAnnounce binds the connection to a user in the presence registry.
	CommandAnnounce CommandKind = iota
	// CommandCheckStatus asks for another user's presence.
	CommandCheckStatus
	// CommandJoinRoom subscribes the connection to a chat room.
	CommandJoinRoom
	// CommandSendMessage fans a chat message out to a room.
	CommandSendMessage
	// CommandSignal forwards a signaling frame to a peer.
	CommandSignal
	// CommandNotifyConnection pushes a connection lifecycle notification.
	CommandNotifyConnection
)

// SignalKind is the signaling verb being relayed.
type SignalKind int

const (
	SignalCallUser SignalKind = iota
	SignalAnswerCall
	SignalUpdateOffer
	SignalUpdateAnswer
	SignalICECandidate
	SignalEndCall
	SignalScreenShareEnded
)

// Signal is one addressed signaling frame. Payload is the opaque SDP or
// ICE candidate and is never inspected by the relay.
type Signal struct {
	Kind    SignalKind
	To      string
	Payload json.RawMessage
}

// Command represents an action requested by a connection.
type Command struct {
	Kind    CommandKind
	UserID  string
	Room    string
	Message ChatMessage
	Signal  Signal
	Action  string
}
