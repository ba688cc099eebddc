package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/apexfuel/apex/internal/model"
	"github.com/apexfuel/apex/internal/payment"
	"github.com/apexfuel/apex/internal/store"
)

type PaymentHandler struct {
	manager  *payment.Manager
	stations *store.StationStore
	payments *store.PaymentStore
	userID   int64
	logger   *slog.Logger
}

func NewPaymentHandler(m *payment.Manager, ss *store.StationStore, ps *store.PaymentStore, userID int64, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{manager: m, stations: ss, payments: ps, userID: userID, logger: logger}
}

type startPaymentRequest struct {
	StationID int64   `json:"station_id"`
	FuelType  string  `json:"fuel_type"`
	Amount    float64 `json:"amount"`
}

// Start generates the simulated QR session for the requested payment.
func (h *PaymentHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	station, err := h.stations.GetByID(req.StationID)
	if err != nil {
		h.logger.Error("get station", "id", req.StationID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get station")
		return
	}
	if station == nil {
		writeError(w, http.StatusNotFound, "station not found")
		return
	}
	if _, ok := station.PriceFor(req.FuelType); !ok {
		writeError(w, http.StatusBadRequest, "fuel_type must be petrol or diesel")
		return
	}

	snap, err := h.manager.Start(payment.Request{
		UserID:   h.userID,
		Station:  *station,
		FuelType: req.FuelType,
		Amount:   req.Amount,
	})
	switch {
	case errors.Is(err, payment.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	case errors.Is(err, payment.ErrSessionActive):
		writeError(w, http.StatusConflict, "a payment session is already active")
		return
	case err != nil:
		h.logger.Error("start session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start payment")
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *PaymentHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Snapshot())
}

// Confirm completes the active session ahead of the simulated
// confirmation timer.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Confirm(); err != nil {
		writeError(w, http.StatusNotFound, "no active payment session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirming"})
}

func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Cancel(); err != nil {
		writeError(w, http.StatusNotFound, "no active payment session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListRecent(h.userID, 20)
	if err != nil {
		h.logger.Error("list payments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) MonthlyExpenses(w http.ResponseWriter, r *http.Request) {
	series, err := h.payments.MonthlyExpenses()
	if err != nil {
		h.logger.Error("monthly expenses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load expenses")
		return
	}
	if series == nil {
		series = []model.MonthlyExpense{}
	}
	writeJSON(w, http.StatusOK, series)
}
