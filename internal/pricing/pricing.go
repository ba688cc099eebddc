package pricing

import (
	"errors"
	"math"

	"github.com/apexfuel/apex/internal/model"
)

// Reward rates applied to every payment amount. PointsRate is also used
// by the payment manager when crediting a completed session, so quotes
// and awarded points always agree.
const (
	PointsRate   = 0.03
	CashbackRate = 0.05
)

var (
	ErrNegativeAmount = errors.New("pricing: amount must not be negative")
	ErrInvalidPrice   = errors.New("pricing: price per liter must be positive")
)

// Quote computes the estimate for paying amount at the given per-liter
// price. Pure function, no rounding of the volume; points and cashback
// are truncated, not rounded.
func Quote(fuelType string, amount, pricePerLiter float64) (model.Quote, error) {
	if amount < 0 {
		return model.Quote{}, ErrNegativeAmount
	}
	if pricePerLiter <= 0 {
		return model.Quote{}, ErrInvalidPrice
	}

	return model.Quote{
		FuelType:        fuelType,
		Amount:          amount,
		PricePerLiter:   pricePerLiter,
		EstimatedLiters: amount / pricePerLiter,
		PointsEarned:    Points(amount),
		Cashback:        int(math.Floor(amount * CashbackRate)),
	}, nil
}

// Points returns the points earned for a payment amount:
// floor(amount * 3%).
func Points(amount float64) int {
	return int(math.Floor(amount * PointsRate))
}
