package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/apexfuel/apex/internal/model"
	"github.com/apexfuel/apex/internal/store"
)

type StationHandler struct {
	stations *store.StationStore
	logger   *slog.Logger
}

func NewStationHandler(ss *store.StationStore, logger *slog.Logger) *StationHandler {
	return &StationHandler{stations: ss, logger: logger}
}

func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.Filter{
		FuelType: q.Get("fuel"),
		Sort:     q.Get("sort"),
	}
	if filter.FuelType != "" && filter.FuelType != model.FuelPetrol && filter.FuelType != model.FuelDiesel {
		writeError(w, http.StatusBadRequest, "fuel must be petrol or diesel")
		return
	}
	switch filter.Sort {
	case "", store.SortDistance, store.SortPrice, store.SortRating:
	default:
		writeError(w, http.StatusBadRequest, "sort must be distance, price, or rating")
		return
	}
	if raw := q.Get("max_distance"); raw != "" {
		maxDist, err := strconv.ParseFloat(raw, 64)
		if err != nil || maxDist <= 0 {
			writeError(w, http.StatusBadRequest, "max_distance must be a positive number")
			return
		}
		filter.MaxDistanceKm = maxDist
	}

	stations, err := h.stations.List(filter)
	if err != nil {
		h.logger.Error("list stations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list stations")
		return
	}
	if stations == nil {
		stations = []model.Station{}
	}
	writeJSON(w, http.StatusOK, stations)
}

func (h *StationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	station, err := h.stations.GetByID(id)
	if err != nil {
		h.logger.Error("get station", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get station")
		return
	}
	if station == nil {
		writeError(w, http.StatusNotFound, "station not found")
		return
	}
	writeJSON(w, http.StatusOK, station)
}
