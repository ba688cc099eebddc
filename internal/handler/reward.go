package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/apexfuel/apex/internal/ledger"
	"github.com/apexfuel/apex/internal/model"
	"github.com/apexfuel/apex/internal/websocket"
)

type RewardHandler struct {
	ledger *ledger.Ledger
	hub    *websocket.Hub
	userID int64
	logger *slog.Logger
}

func NewRewardHandler(l *ledger.Ledger, hub *websocket.Hub, userID int64, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{ledger: l, hub: hub, userID: userID, logger: logger}
}

func (h *RewardHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// List returns the rewards catalog with affordability against the
// current balance.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.ledger.ListRewards(h.userID)
	if err != nil {
		h.logger.Error("list rewards", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.RewardAvailability{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	redemption, err := h.ledger.RedeemReward(h.userID, id)
	switch {
	case errors.Is(err, ledger.ErrRewardNotFound):
		writeError(w, http.StatusNotFound, "reward not found")
		return
	case errors.Is(err, ledger.ErrRewardInactive):
		writeError(w, http.StatusBadRequest, "reward is not active")
		return
	case errors.Is(err, ledger.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, "insufficient points")
		return
	case err != nil:
		h.logger.Error("redeem reward", "reward_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to redeem reward")
		return
	}

	h.logger.Info("reward redeemed", "reward_id", id, "points_spent", redemption.PointsSpent)

	if balance, err := h.ledger.Balance(h.userID); err == nil {
		h.broadcast(websocket.Message{
			Type:    websocket.TypePointsUpdated,
			Payload: map[string]int{"points_balance": balance},
		})
	}
	if rewards, err := h.ledger.ListRewards(h.userID); err == nil {
		h.broadcast(websocket.Message{Type: websocket.TypeRewardsChange, Payload: rewards})
	}

	writeJSON(w, http.StatusCreated, redemption)
}
