package model

import "time"

type User struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Tier             string    `json:"tier"`
	StreakDays       int       `json:"streak_days"`
	MonthlySpend     int       `json:"monthly_spend"`
	MonthlySavings   int       `json:"monthly_savings"`
	TransactionCount int       `json:"transaction_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// Profile is a User together with the live points balance derived
// from the ledger.
type Profile struct {
	User
	PointsBalance int `json:"points_balance"`
}
