package relay

// ChatMessage is a chat payload moving through the relay.
type ChatMessage struct {
	ChatRoomID string
	UserID     string
	Message    string
	Timestamp  int64
}
