package payment

import (
	"fmt"
	"time"

	"github.com/apexfuel/apex/internal/model"
)

// State represents the lifecycle state of a payment session.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateCompleted            State = "completed"
	StateExpired              State = "expired"
)

// Config holds the session timing configuration. The defaults match the
// reference behavior: a 5-minute QR validity window, a simulated
// confirmation after 10 seconds, ticking once per second.
type Config struct {
	Countdown    time.Duration
	ConfirmDelay time.Duration
	TickInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Countdown <= 0 {
		c.Countdown = 5 * time.Minute
	}
	if c.ConfirmDelay <= 0 {
		c.ConfirmDelay = 10 * time.Second
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	return c
}

// Request describes the payment the user wants to start.
type Request struct {
	UserID   int64
	Station  model.Station
	FuelType string
	Amount   float64
}

// Snapshot is the session state handed to the presentation layer.
type Snapshot struct {
	SessionID        string  `json:"session_id,omitempty"`
	State            State   `json:"state"`
	StationID        int64   `json:"station_id,omitempty"`
	StationName      string  `json:"station_name,omitempty"`
	FuelType         string  `json:"fuel_type,omitempty"`
	Amount           float64 `json:"amount,omitempty"`
	RemainingSeconds int     `json:"remaining_seconds"`
	Countdown        string  `json:"countdown"`
	PointsEarned     int     `json:"points_earned,omitempty"`
	Reference        string  `json:"reference,omitempty"`
}

// FormatCountdown renders remaining seconds as mm:ss for display.
// Negative values clamp to 00:00.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
