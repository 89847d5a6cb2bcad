package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
)

// connectPair registers two users, runs the request/accept handshake and
// returns both tokens plus the provisioned chat room id.
func connectPair(t *testing.T, ts *httptest.Server) (aliceToken, bobToken, roomID string) {
	t.Helper()

	aliceToken, _ = registerTestUser(t, ts, "alice")
	bobToken, bob := registerTestUser(t, ts, "bob")

	var sent ConnectionResponse
	if status := doJSON(t, ts, "POST", "/api/connections/request", aliceToken, SendConnectionRequest{UserID: bob.ID}, &sent); status != stdhttp.StatusCreated {
		t.Fatalf("send request: status %d", status)
	}
	var accepted ConnectionResponse
	if status := doJSON(t, ts, "PUT", "/api/connections/"+sent.ID+"/accept", bobToken, nil, &accepted); status != stdhttp.StatusOK {
		t.Fatalf("accept request: status %d", status)
	}
	if accepted.ChatRoomID == nil {
		t.Fatal("accepted connection has no chat room")
	}
	return aliceToken, bobToken, *accepted.ChatRoomID
}

func TestSendAndHistoryRoundTrip(t *testing.T) {
	ts, _, _ := startTestServer(t)

	aliceToken, bobToken, roomID := connectPair(t, ts)

	var first MessageResponse
	status := doJSON(t, ts, "POST", "/api/messages", aliceToken, SendMessageRequest{ChatRoomID: roomID, Content: "hey bob"}, &first)
	if status != stdhttp.StatusCreated {
		t.Fatalf("send: expected 201, got %d", status)
	}
	if first.ID == "" || first.ChatRoomID != roomID || first.Content != "hey bob" {
		t.Fatalf("unexpected message: %+v", first)
	}

	doJSON(t, ts, "POST", "/api/messages", bobToken, SendMessageRequest{ChatRoomID: roomID, Content: "hey alice"}, nil)

	var history []MessageResponse
	if status := doJSON(t, ts, "GET", "/api/messages/"+roomID, bobToken, nil, &history); status != stdhttp.StatusOK {
		t.Fatalf("history: status %d", status)
	}
	if len(history) != 2 || history[0].Content != "hey bob" || history[1].Content != "hey alice" {
		t.Fatalf("expected chronological history, got %+v", history)
	}
}

func TestMessagesParticipantOnly(t *testing.T) {
	ts, _, _ := startTestServer(t)

	_, _, roomID := connectPair(t, ts)
	eveToken, _ := registerTestUser(t, ts, "eve")

	if status := doJSON(t, ts, "POST", "/api/messages", eveToken, SendMessageRequest{ChatRoomID: roomID, Content: "intruder"}, nil); status != stdhttp.StatusForbidden {
		t.Fatalf("stranger send: expected 403, got %d", status)
	}
	if status := doJSON(t, ts, "GET", "/api/messages/"+roomID, eveToken, nil, nil); status != stdhttp.StatusForbidden {
		t.Fatalf("stranger history: expected 403, got %d", status)
	}
}

func TestHistoryPaging(t *testing.T) {
	ts, _, _ := startTestServer(t)

	aliceToken, _, roomID := connectPair(t, ts)

	for _, content := range []string{"one", "two", "three"} {
		doJSON(t, ts, "POST", "/api/messages", aliceToken, SendMessageRequest{ChatRoomID: roomID, Content: content}, nil)
	}

	var page []MessageResponse
	doJSON(t, ts, "GET", "/api/messages/"+roomID+"?limit=2", aliceToken, nil, &page)
	if len(page) != 2 || page[0].Content != "two" || page[1].Content != "three" {
		t.Fatalf("expected latest two messages, got %+v", page)
	}

	var older []MessageResponse
	doJSON(t, ts, "GET", "/api/messages/"+roomID+"?before="+page[0].ID, aliceToken, nil, &older)
	if len(older) != 1 || older[0].Content != "one" {
		t.Fatalf("expected page before %q to hold the first message, got %+v", page[0].ID, older)
	}
}

func TestBroadcastValidation(t *testing.T) {
	ts, _, _ := startTestServer(t)

	var resp struct {
		Status string `json:"status"`
	}
	status := doJSON(t, ts, "POST", "/broadcast", "", BroadcastRequest{UserID: "u1", Message: "no room"}, &resp)
	if status != stdhttp.StatusBadRequest || resp.Status != "error" {
		t.Fatalf("missing chatRoomId: expected 400/error, got %d/%q", status, resp.Status)
	}

	status = doJSON(t, ts, "POST", "/broadcast", "", BroadcastRequest{ChatRoomID: "room-1", UserID: "u1", Message: "hello"}, &resp)
	if status != stdhttp.StatusOK || resp.Status != "success" {
		t.Fatalf("broadcast: expected 200/success, got %d/%q", status, resp.Status)
	}
}
