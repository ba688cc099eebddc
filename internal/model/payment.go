package model

import "time"

// Payment is a completed fuel payment, recorded when a session finishes.
type Payment struct {
	ID           int64     `json:"id"`
	Reference    string    `json:"reference"`
	UserID       int64     `json:"user_id"`
	StationID    int64     `json:"station_id"`
	StationName  string    `json:"station_name"`
	FuelType     string    `json:"fuel_type"`
	Amount       float64   `json:"amount"`
	Liters       float64   `json:"liters"`
	PointsEarned int       `json:"points_earned"`
	PaidAt       time.Time `json:"paid_at"`
}

// MonthlyExpense is one data point of the dashboard expense chart.
type MonthlyExpense struct {
	Month   string `json:"month"`
	Year    int    `json:"year"`
	Spend   int    `json:"spend"`
	Savings int    `json:"savings"`
}
