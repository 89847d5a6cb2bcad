package relay

import "encoding/json"

// EventKind is a notification the relay emits to connections.
type EventKind int

const (
	// EventOnlineStatus announces a presence change to every connection.
	EventOnlineStatus EventKind = iota
	// EventUserStatus answers a presence query, requester only.
	EventUserStatus
	// EventNewMessage delivers a chat message to room members.
	EventNewMessage
	// EventMessageError rejects a chat message, sender only.
	EventMessageError
	// EventIncomingCall delivers an offer to the callee.
	EventIncomingCall
	// EventCallAnswered delivers the answer back to the caller.
	EventCallAnswered
	// EventUpdateOffer delivers a renegotiation offer.
	EventUpdateOffer
	// EventUpdateAnswer delivers a renegotiation answer.
	EventUpdateAnswer
	// EventICECandidate delivers a candidate to the peer.
	EventICECandidate
	// EventCallEnded tells the peer the call is over.
	EventCallEnded
	// EventScreenShareEnded tells the peer screen sharing stopped.
	EventScreenShareEnded
	// EventReceiveConnection notifies a user about a connection request
	// aimed at them.
	EventReceiveConnection
	// EventError notifies the connection about a rejected frame.
	EventError
)

// Event is sent to connections to describe what happened.
type Event struct {
	Kind    EventKind
	UserID  string
	Status  string
	Room    string
	Message ChatMessage
	From    string
	Payload json.RawMessage
	Action  string
	Error   *RelayError
}
