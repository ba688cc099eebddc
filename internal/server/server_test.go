package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apexfuel/apex/internal/database"
	"github.com/apexfuel/apex/internal/logging"
	"github.com/apexfuel/apex/internal/model"
	"github.com/apexfuel/apex/internal/payment"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(db, Config{
		Session: payment.Config{
			Countdown:    time.Minute,
			ConfirmDelay: 20 * time.Millisecond,
			TickInterval: 10 * time.Millisecond,
		},
	}, logging.Setup("error", ""))
	t.Cleanup(srv.Manager().Shutdown)
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	router := newTestServer(t).Router()
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestStationEndpoints(t *testing.T) {
	router := newTestServer(t).Router()

	rec := doJSON(t, router, http.MethodGet, "/api/stations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	stations := decode[[]model.Station](t, rec)
	if len(stations) != 4 {
		t.Fatalf("expected 4 stations, got %d", len(stations))
	}

	rec = doJSON(t, router, http.MethodGet, "/api/stations?sort=price&fuel=diesel", nil)
	sorted := decode[[]model.Station](t, rec)
	if sorted[0].Brand != "Jio-bp" {
		t.Errorf("cheapest diesel = %q, want Jio-bp", sorted[0].Brand)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/stations/99", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown station status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/stations?sort=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad sort status = %d, want 400", rec.Code)
	}
}

func TestQuoteEndpoint(t *testing.T) {
	router := newTestServer(t).Router()

	rec := doJSON(t, router, http.MethodGet, "/api/quote?station_id=1&fuel=petrol&amount=1000", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	quote := decode[model.Quote](t, rec)
	if quote.PointsEarned != 30 {
		t.Errorf("points_earned = %d, want 30", quote.PointsEarned)
	}
	if quote.Cashback != 50 {
		t.Errorf("cashback = %d, want 50", quote.Cashback)
	}
	if want := 1000 / 102.45; quote.EstimatedLiters != want {
		t.Errorf("estimated_liters = %v, want %v", quote.EstimatedLiters, want)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/quote?station_id=1&fuel=lpg&amount=100", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad fuel status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/quote?station_id=77&fuel=petrol&amount=100", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown station status = %d, want 404", rec.Code)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	// Seeded balance
	rec := doJSON(t, router, http.MethodGet, "/api/profile", nil)
	profile := decode[model.Profile](t, rec)
	if profile.PointsBalance != 1450 {
		t.Fatalf("seeded balance = %d, want 1450", profile.PointsBalance)
	}

	// Invalid amount is rejected locally
	rec = doJSON(t, router, http.MethodPost, "/api/payments", map[string]any{
		"station_id": 1, "fuel_type": "petrol", "amount": 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero amount status = %d, want 400", rec.Code)
	}

	// Start a real session
	rec = doJSON(t, router, http.MethodPost, "/api/payments", map[string]any{
		"station_id": 1, "fuel_type": "petrol", "amount": 1000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201: %s", rec.Code, rec.Body)
	}
	snap := decode[payment.Snapshot](t, rec)
	if snap.State != payment.StateAwaitingConfirmation {
		t.Fatalf("state = %q, want awaiting_confirmation", snap.State)
	}

	// A second session is refused while the first is pending
	rec = doJSON(t, router, http.MethodPost, "/api/payments", map[string]any{
		"station_id": 2, "fuel_type": "diesel", "amount": 500,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("concurrent start status = %d, want 409", rec.Code)
	}

	// The simulated confirmation lands and credits 3%
	waitForBalance(t, router, 1480)

	rec = doJSON(t, router, http.MethodGet, "/api/payments/current", nil)
	if got := decode[payment.Snapshot](t, rec); got.State != payment.StateIdle {
		t.Errorf("state after completion = %q, want idle", got.State)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/payments", nil)
	history := decode[[]model.Payment](t, rec)
	if len(history) != 1 {
		t.Fatalf("expected 1 payment in history, got %d", len(history))
	}
	if history[0].PointsEarned != 30 {
		t.Errorf("history points = %d, want 30", history[0].PointsEarned)
	}
}

func TestPaymentCancel(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodDelete, "/api/payments/current", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cancel with no session status = %d, want 404", rec.Code)
	}

	doJSON(t, router, http.MethodPost, "/api/payments", map[string]any{
		"station_id": 1, "fuel_type": "petrol", "amount": 300,
	})
	rec = doJSON(t, router, http.MethodDelete, "/api/payments/current", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cancel status = %d, want 204", rec.Code)
	}

	// Outlive the confirm delay: no points from the cancelled session
	time.Sleep(60 * time.Millisecond)
	rec = doJSON(t, router, http.MethodGet, "/api/profile", nil)
	if profile := decode[model.Profile](t, rec); profile.PointsBalance != 1450 {
		t.Errorf("balance after cancel = %d, want 1450", profile.PointsBalance)
	}
}

func TestRewardEndpoints(t *testing.T) {
	router := newTestServer(t).Router()

	rec := doJSON(t, router, http.MethodGet, "/api/rewards", nil)
	rewards := decode[[]model.RewardAvailability](t, rec)
	if len(rewards) != 4 {
		t.Fatalf("expected 4 rewards, got %d", len(rewards))
	}
	// 1450 seeded points: 500 and 800 affordable, 1200 and 2500 not
	if !rewards[0].Affordable || !rewards[1].Affordable {
		t.Error("expected the two cheapest rewards to be affordable")
	}
	if rewards[2].Affordable || rewards[3].Affordable {
		t.Error("expected the two priciest rewards to be unaffordable")
	}

	// Redeem the 500-point voucher
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/rewards/%d/redeem", rewards[0].ID), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("redeem status = %d, want 201: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/profile", nil)
	if profile := decode[model.Profile](t, rec); profile.PointsBalance != 950 {
		t.Errorf("balance after redeem = %d, want 950", profile.PointsBalance)
	}

	// 2500-point reward still out of reach
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/rewards/%d/redeem", rewards[3].ID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unaffordable redeem status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/rewards/999/redeem", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown reward status = %d, want 404", rec.Code)
	}
}

func TestMonthlyExpenses(t *testing.T) {
	router := newTestServer(t).Router()

	rec := doJSON(t, router, http.MethodGet, "/api/expenses/monthly", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	series := decode[[]model.MonthlyExpense](t, rec)
	if len(series) != 8 {
		t.Fatalf("expected 8 seeded months, got %d", len(series))
	}
	if series[0].Month != "Jan" {
		t.Errorf("first month = %q, want Jan", series[0].Month)
	}
}

func waitForBalance(t *testing.T, router http.Handler, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, router, http.MethodGet, "/api/profile", nil)
		if profile := decode[model.Profile](t, rec); profile.PointsBalance == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for balance %d", want)
}
