package model

import "time"

// Transaction kinds recorded in the points ledger.
const (
	PointsEarn   = "earn"
	PointsRedeem = "redeem"
)

type PointTransaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Kind        string    `json:"kind"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
