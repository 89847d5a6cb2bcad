package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/studylink/studylink-server/internal/auth"
	"github.com/studylink/studylink-server/internal/config"
	"github.com/studylink/studylink-server/internal/relay"
	"github.com/studylink/studylink-server/internal/service/appointments"
	"github.com/studylink/studylink-server/internal/service/connections"
	"github.com/studylink/studylink-server/internal/service/reports"
	"github.com/studylink/studylink-server/internal/store"
	"github.com/studylink/studylink-server/internal/store/sqlite"
)

// startTestServer spins up the full HTTP surface against an in-memory
// store and a running hub.
func startTestServer(t *testing.T) (*httptest.Server, *auth.Service, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	disabledLogger := zerolog.Nop()
	hub := relay.NewHub(relay.NewMapRegistry(), disabledLogger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.Addr = ":0"

	server := NewServer(Deps{
		Hub:          hub,
		Store:        st,
		AuthService:  authService,
		Connections:  connections.New(st, hub),
		Appointments: appointments.New(st),
		Reports:      reports.New(st),
		Config:       &cfg,
		Log:          &disabledLogger,
	})

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, authService, st
}

// registerTestUser registers a user through the API and returns its token
// and decoded profile.
func registerTestUser(t *testing.T, ts *httptest.Server, name string) (string, UserResponse) {
	t.Helper()

	body, _ := json.Marshal(RegisterRequest{
		Name:     name,
		Email:    name + "@example.com",
		Password: "password123",
	})
	resp, err := ts.Client().Post(ts.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusCreated {
		t.Fatalf("register %s: unexpected status %d", name, resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return authResp.Token, authResp.User
}

// loginTestUser logs a previously registered user back in.
func loginTestUser(t *testing.T, ts *httptest.Server, name string) (string, UserResponse) {
	t.Helper()

	var authResp AuthResponse
	status := doJSON(t, ts, "POST", "/api/login", "", LoginRequest{
		Email:    name + "@example.com",
		Password: "password123",
	}, &authResp)
	if status != stdhttp.StatusOK {
		t.Fatalf("login %s: unexpected status %d", name, status)
	}
	return authResp.Token, authResp.User
}

// doJSON performs an authenticated JSON request and decodes the response
// body into out when it is non-nil.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := stdhttp.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}
