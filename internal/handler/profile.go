package handler

import (
	"log/slog"
	"net/http"

	"github.com/apexfuel/apex/internal/ledger"
	"github.com/apexfuel/apex/internal/model"
	"github.com/apexfuel/apex/internal/store"
)

type ProfileHandler struct {
	users  *store.UserStore
	ledger *ledger.Ledger
	userID int64
	logger *slog.Logger
}

func NewProfileHandler(us *store.UserStore, l *ledger.Ledger, userID int64, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{users: us, ledger: l, userID: userID, logger: logger}
}

// Get returns the user profile with the live points balance.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(h.userID)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	balance, err := h.ledger.Balance(h.userID)
	if err != nil {
		h.logger.Error("get balance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load balance")
		return
	}

	writeJSON(w, http.StatusOK, model.Profile{User: *user, PointsBalance: balance})
}

// Transactions returns the user's points ledger history.
func (h *ProfileHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.ledger.Transactions(h.userID)
	if err != nil {
		h.logger.Error("list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txns == nil {
		txns = []model.PointTransaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}
