package model

// Quote is the derived estimate for a prospective payment amount.
// It is recomputed on every input change and never stored.
type Quote struct {
	FuelType        string  `json:"fuel_type"`
	Amount          float64 `json:"amount"`
	PricePerLiter   float64 `json:"price_per_liter"`
	EstimatedLiters float64 `json:"estimated_liters"`
	PointsEarned    int     `json:"points_earned"`
	Cashback        int     `json:"cashback"`
}
