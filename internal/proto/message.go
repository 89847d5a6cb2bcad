package proto

import "encoding/json"

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeUserOnline       = "userOnline"
	InboundTypeCheckUserStatus  = "checkUserStatus"
	InboundTypeJoinRoom         = "joinRoom"
	InboundTypeSendMessage      = "sendMessage"
	InboundTypeCallUser         = "callUser"
	InboundTypeAnswerCall       = "answerCall"
	InboundTypeUpdateOffer      = "updateOffer"
	InboundTypeUpdateAnswer     = "updateAnswer"
	InboundTypeICECandidate     = "iceCandidate"
	InboundTypeEndCall          = "endCall"
	InboundTypeScreenShareEnded = "screenShareEnded"
	InboundTypeNotifyConnection = "notifyConnection"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventOnlineStatusUpdate = "onlineStatusUpdate"
	EventUserStatusResponse = "userStatusResponse"
	EventNewMessage         = "newMessage"
	EventMessageError       = "messageError"
	EventIncomingCall       = "incomingCall"
	EventCallAnswered       = "callAnswered"
	EventUpdateOffer        = "updateOffer"
	EventUpdateAnswer       = "updateAnswer"
	EventICECandidate       = "iceCandidate"
	EventCallEnded          = "callEnded"
	EventScreenShareEnded   = "screenShareEnded"
	EventReceiveConnection  = "receiveConnection"
)

// UserOnlineData announces which user owns this connection.
type UserOnlineData struct {
	UserID string `json:"userId"`
}

// CheckUserStatusData asks whether a user is currently online.
type CheckUserStatusData struct {
	UserID string `json:"userId"`
}

// JoinRoomData subscribes the connection to a chat room.
type JoinRoomData struct {
	ChatRoomID string `json:"chatRoomId"`
}

// SendMessageData is a chat message fanned out to a room.
type SendMessageData struct {
	ChatRoomID string `json:"chatRoomId"`
	UserID     string `json:"userId"`
	Message    string `json:"message"`
}

// SignalData addresses a signaling frame at a peer. Offer, Answer and
// Candidate are opaque to the relay and forwarded verbatim.
type SignalData struct {
	To        string          `json:"to"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// NotifyConnectionData pushes a connection lifecycle notification at a user.
type NotifyConnectionData struct {
	Action string `json:"action"`
	UserID string `json:"userId"`
}

// Outbound is the envelope for frames sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// UserStatusData reports a user's presence as "online" or "offline".
type UserStatusData struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// NewMessageData is a chat message delivered to room members.
type NewMessageData struct {
	ChatRoomID string `json:"chatRoomId"`
	UserID     string `json:"userId"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

// MessageErrorData is returned to the sender of a rejected chat message.
type MessageErrorData struct {
	Message string `json:"message"`
}

// IncomingCallData carries an offer to the callee. From is the caller's
// connection handle so the callee can answer without a presence lookup.
type IncomingCallData struct {
	From  string          `json:"from"`
	Offer json.RawMessage `json:"offer"`
}

// CallAnsweredData carries the callee's answer back to the caller.
type CallAnsweredData struct {
	Answer json.RawMessage `json:"answer"`
}

// UpdateOfferData carries a renegotiation offer mid-call.
type UpdateOfferData struct {
	From  string          `json:"from"`
	Offer json.RawMessage `json:"offer"`
}

// UpdateAnswerData carries a renegotiation answer mid-call.
type UpdateAnswerData struct {
	Answer json.RawMessage `json:"answer"`
}

// ICECandidateData forwards a candidate to the peer.
type ICECandidateData struct {
	Candidate json.RawMessage `json:"candidate"`
}

// ReceiveConnectionData tells a user that a connection request aimed at
// them was sent, canceled, rejected or accepted.
type ReceiveConnectionData struct {
	Action string `json:"action"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
