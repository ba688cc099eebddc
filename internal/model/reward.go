package model

import "time"

type Reward struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PointCost   int       `json:"point_cost"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// RewardAvailability pairs a reward with whether the current balance
// covers its cost. PointsShort is zero when affordable.
type RewardAvailability struct {
	Reward
	Affordable  bool `json:"affordable"`
	PointsShort int  `json:"points_short"`
}

type RewardRedemption struct {
	ID          int64     `json:"id"`
	RewardID    int64     `json:"reward_id"`
	UserID      int64     `json:"user_id"`
	PointsSpent int       `json:"points_spent"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}
