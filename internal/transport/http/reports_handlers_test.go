package http

import (
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/studylink/studylink-server/internal/store"
)

// registerAdmin registers a user, promotes it to the admin role and logs
// in again so the token carries the new role claim.
func registerAdmin(t *testing.T, ts *httptest.Server, st store.Store, name string) string {
	t.Helper()

	_, user := registerTestUser(t, ts, name)
	if err := st.SetUserRole(context.Background(), user.ID, store.RoleAdmin); err != nil {
		t.Fatalf("promote %s: %v", name, err)
	}

	var authResp AuthResponse
	status := doJSON(t, ts, "POST", "/api/login", "", LoginRequest{Email: name + "@example.com", Password: "password123"}, &authResp)
	if status != stdhttp.StatusOK {
		t.Fatalf("admin login: status %d", status)
	}
	return authResp.Token
}

func TestReportModerationFlow(t *testing.T) {
	ts, _, st := startTestServer(t)

	aliceToken, _ := registerTestUser(t, ts, "alice")
	_, bob := registerTestUser(t, ts, "bob")
	adminToken := registerAdmin(t, ts, st, "root")

	var filed ReportResponse
	status := doJSON(t, ts, "POST", "/api/reports", aliceToken, CreateReportRequest{TargetID: bob.ID, Reason: "spam"}, &filed)
	if status != stdhttp.StatusCreated || filed.Status != "open" {
		t.Fatalf("file report: status=%d report=%+v", status, filed)
	}

	// Moderation surface is admin only.
	if status := doJSON(t, ts, "GET", "/api/admins/reports", aliceToken, nil, nil); status != stdhttp.StatusForbidden {
		t.Fatalf("non-admin list: expected 403, got %d", status)
	}

	var all []ReportResponse
	if status := doJSON(t, ts, "GET", "/api/admins/reports", adminToken, nil, &all); status != stdhttp.StatusOK {
		t.Fatalf("admin list: status %d", status)
	}
	if len(all) != 1 || all[0].ID != filed.ID {
		t.Fatalf("unexpected report list: %+v", all)
	}

	// Warning stays visible to the target without locking it.
	var updated ReportResponse
	doJSON(t, ts, "PUT", "/api/admins/reports/"+filed.ID+"/status", adminToken, UpdateReportStatusRequest{Status: "warned"}, &updated)
	if updated.Status != "warned" {
		t.Fatalf("expected warned, got %q", updated.Status)
	}

	bobToken2, _ := loginTestUser(t, ts, "bob")
	var warnings []ReportResponse
	doJSON(t, ts, "GET", "/api/reports/warnings", bobToken2, nil, &warnings)
	if len(warnings) != 1 || warnings[0].ID != filed.ID {
		t.Fatalf("target must see its warnings: %+v", warnings)
	}

	// Banning locks the target out of login.
	doJSON(t, ts, "PUT", "/api/admins/reports/"+filed.ID+"/status", adminToken, UpdateReportStatusRequest{Status: "banned"}, &updated)
	if updated.Status != "banned" {
		t.Fatalf("expected banned, got %q", updated.Status)
	}
	if status := doJSON(t, ts, "POST", "/api/login", "", LoginRequest{Email: "bob@example.com", Password: "password123"}, nil); status != stdhttp.StatusForbidden {
		t.Fatalf("banned login: expected 403, got %d", status)
	}
}

func TestReportValidation(t *testing.T) {
	ts, _, st := startTestServer(t)

	aliceToken, alice := registerTestUser(t, ts, "alice")
	adminToken := registerAdmin(t, ts, st, "root")

	if status := doJSON(t, ts, "POST", "/api/reports", aliceToken, CreateReportRequest{TargetID: alice.ID, Reason: "self"}, nil); status != stdhttp.StatusBadRequest {
		t.Fatalf("self report: expected 400, got %d", status)
	}
	if status := doJSON(t, ts, "POST", "/api/reports", aliceToken, CreateReportRequest{TargetID: "nope", Reason: "spam"}, nil); status != stdhttp.StatusNotFound {
		t.Fatalf("unknown target: expected 404, got %d", status)
	}
	if status := doJSON(t, ts, "PUT", "/api/admins/reports/nope/status", adminToken, UpdateReportStatusRequest{Status: "warned"}, nil); status != stdhttp.StatusNotFound {
		t.Fatalf("unknown report: expected 404, got %d", status)
	}
}

func TestAdminLockAndUnlock(t *testing.T) {
	ts, _, st := startTestServer(t)

	_, bob := registerTestUser(t, ts, "bob")
	adminToken := registerAdmin(t, ts, st, "root")

	if status := doJSON(t, ts, "PUT", "/api/admins/lock/"+bob.ID, adminToken, LockUserRequest{Locked: true}, nil); status != stdhttp.StatusOK {
		t.Fatalf("lock: expected 200, got %d", status)
	}
	if status := doJSON(t, ts, "POST", "/api/login", "", LoginRequest{Email: "bob@example.com", Password: "password123"}, nil); status != stdhttp.StatusForbidden {
		t.Fatalf("locked login: expected 403, got %d", status)
	}

	if status := doJSON(t, ts, "PUT", "/api/admins/lock/"+bob.ID, adminToken, LockUserRequest{Locked: false}, nil); status != stdhttp.StatusOK {
		t.Fatalf("unlock: expected 200, got %d", status)
	}
	if status := doJSON(t, ts, "POST", "/api/login", "", LoginRequest{Email: "bob@example.com", Password: "password123"}, nil); status != stdhttp.StatusOK {
		t.Fatalf("unlocked login: expected 200, got %d", status)
	}

	if status := doJSON(t, ts, "PUT", "/api/admins/lock/nope", adminToken, LockUserRequest{Locked: true}, nil); status != stdhttp.StatusNotFound {
		t.Fatalf("unknown user lock: expected 404, got %d", status)
	}
}
