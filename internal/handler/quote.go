package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/apexfuel/apex/internal/pricing"
	"github.com/apexfuel/apex/internal/store"
)

type QuoteHandler struct {
	stations *store.StationStore
	logger   *slog.Logger
}

func NewQuoteHandler(ss *store.StationStore, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{stations: ss, logger: logger}
}

// Get computes the estimate for ?station_id=&fuel=&amount=. Quotes are
// pure and recomputed per request, never stored.
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stationID, err := strconv.ParseInt(q.Get("station_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}

	station, err := h.stations.GetByID(stationID)
	if err != nil {
		h.logger.Error("get station", "id", stationID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get station")
		return
	}
	if station == nil {
		writeError(w, http.StatusNotFound, "station not found")
		return
	}

	fuelType := q.Get("fuel")
	price, ok := station.PriceFor(fuelType)
	if !ok {
		writeError(w, http.StatusBadRequest, "fuel must be petrol or diesel")
		return
	}

	quote, err := pricing.Quote(fuelType, amount, price)
	if errors.Is(err, pricing.ErrNegativeAmount) {
		writeError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}
	if err != nil {
		h.logger.Error("quote", "station_id", stationID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute quote")
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
