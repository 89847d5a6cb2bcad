package http

import (
	stdhttp "net/http"
	"testing"
	"time"
)

func TestAppointmentBookingFlow(t *testing.T) {
	ts, _, _ := startTestServer(t)

	aliceToken, _ := registerTestUser(t, ts, "alice")
	bobToken, bob := registerTestUser(t, ts, "bob")

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Minute)
	end := start.Add(time.Hour)

	var created AppointmentResponse
	status := doJSON(t, ts, "POST", "/api/appointments", aliceToken, CreateAppointmentRequest{
		ReceiverID:  bob.ID,
		StartTime:   start,
		EndTime:     end,
		Description: "math revision",
	}, &created)
	if status != stdhttp.StatusCreated {
		t.Fatalf("create: expected 201, got %d", status)
	}
	if created.Status != "pending" || created.ReceiverID != bob.ID {
		t.Fatalf("unexpected appointment: %+v", created)
	}

	// Overlapping slot for a shared participant conflicts.
	if status := doJSON(t, ts, "POST", "/api/appointments", aliceToken, CreateAppointmentRequest{
		ReceiverID: bob.ID,
		StartTime:  start.Add(30 * time.Minute),
		EndTime:    end.Add(30 * time.Minute),
	}, nil); status != stdhttp.StatusConflict {
		t.Fatalf("overlap: expected 409, got %d", status)
	}

	// Only the receiver may accept.
	if status := doJSON(t, ts, "PATCH", "/api/appointments/"+created.ID+"/status", aliceToken,
		UpdateAppointmentStatusRequest{Status: "accepted"}, nil); status != stdhttp.StatusForbidden {
		t.Fatalf("sender accept: expected 403, got %d", status)
	}

	var updated AppointmentResponse
	if status := doJSON(t, ts, "PATCH", "/api/appointments/"+created.ID+"/status", bobToken,
		UpdateAppointmentStatusRequest{Status: "accepted"}, &updated); status != stdhttp.StatusOK {
		t.Fatalf("accept: expected 200, got %d", status)
	}
	if updated.Status != "accepted" {
		t.Fatalf("expected accepted, got %q", updated.Status)
	}

	// Both participants see it.
	var mine []AppointmentResponse
	doJSON(t, ts, "GET", "/api/appointments", bobToken, nil, &mine)
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Fatalf("unexpected list for receiver: %+v", mine)
	}

	// Either side may cancel an accepted appointment.
	doJSON(t, ts, "PATCH", "/api/appointments/"+created.ID+"/status", aliceToken,
		UpdateAppointmentStatusRequest{Status: "canceled"}, &updated)
	if updated.Status != "canceled" {
		t.Fatalf("expected canceled, got %q", updated.Status)
	}

	// A settled appointment cannot move again.
	if status := doJSON(t, ts, "PATCH", "/api/appointments/"+created.ID+"/status", bobToken,
		UpdateAppointmentStatusRequest{Status: "accepted"}, nil); status != stdhttp.StatusBadRequest {
		t.Fatalf("transition from canceled: expected 400, got %d", status)
	}
}

func TestAppointmentValidation(t *testing.T) {
	ts, _, _ := startTestServer(t)

	aliceToken, alice := registerTestUser(t, ts, "alice")
	_, bob := registerTestUser(t, ts, "bob")

	start := time.Now().Add(24 * time.Hour).UTC()

	if status := doJSON(t, ts, "POST", "/api/appointments", aliceToken, CreateAppointmentRequest{
		ReceiverID: alice.ID,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}, nil); status != stdhttp.StatusBadRequest {
		t.Fatalf("self booking: expected 400, got %d", status)
	}

	if status := doJSON(t, ts, "POST", "/api/appointments", aliceToken, CreateAppointmentRequest{
		ReceiverID: bob.ID,
		StartTime:  start.Add(time.Hour),
		EndTime:    start,
	}, nil); status != stdhttp.StatusBadRequest {
		t.Fatalf("inverted range: expected 400, got %d", status)
	}

	if status := doJSON(t, ts, "POST", "/api/appointments", aliceToken, CreateAppointmentRequest{
		ReceiverID: "nope",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}, nil); status != stdhttp.StatusNotFound {
		t.Fatalf("unknown receiver: expected 404, got %d", status)
	}

	if status := doJSON(t, ts, "PATCH", "/api/appointments/nope/status", aliceToken,
		UpdateAppointmentStatusRequest{Status: "accepted"}, nil); status != stdhttp.StatusNotFound {
		t.Fatalf("unknown appointment: expected 404, got %d", status)
	}
}

func TestAppointmentGetAndDestroyParticipantOnly(t *testing.T) {
	ts, _, _ := startTestServer(t)

	aliceToken, _ := registerTestUser(t, ts, "alice")
	_, bob := registerTestUser(t, ts, "bob")
	eveToken, _ := registerTestUser(t, ts, "eve")

	start := time.Now().Add(24 * time.Hour).UTC()
	var created AppointmentResponse
	doJSON(t, ts, "POST", "/api/appointments", aliceToken, CreateAppointmentRequest{
		ReceiverID: bob.ID,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}, &created)

	if status := doJSON(t, ts, "GET", "/api/appointments/"+created.ID, eveToken, nil, nil); status != stdhttp.StatusForbidden {
		t.Fatalf("stranger get: expected 403, got %d", status)
	}
	if status := doJSON(t, ts, "DELETE", "/api/appointments/"+created.ID, eveToken, nil, nil); status != stdhttp.StatusForbidden {
		t.Fatalf("stranger delete: expected 403, got %d", status)
	}

	if status := doJSON(t, ts, "DELETE", "/api/appointments/"+created.ID, aliceToken, nil, nil); status != stdhttp.StatusOK {
		t.Fatalf("delete: expected 200, got %d", status)
	}
	if status := doJSON(t, ts, "GET", "/api/appointments/"+created.ID, aliceToken, nil, nil); status != stdhttp.StatusNotFound {
		t.Fatalf("deleted appointment: expected 404, got %d", status)
	}
}
