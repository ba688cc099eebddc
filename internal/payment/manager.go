package payment

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apexfuel/apex/internal/model"
	"github.com/apexfuel/apex/internal/pricing"
)

var (
	// ErrInvalidAmount rejects a session start with a non-positive amount.
	ErrInvalidAmount = errors.New("payment: amount must be greater than zero")

	// ErrSessionActive rejects a session start while another session is
	// awaiting confirmation. Starting never cancels the active session.
	ErrSessionActive = errors.New("payment: a payment session is already active")

	// ErrNoActiveSession is returned by Confirm and Cancel when the
	// machine is idle.
	ErrNoActiveSession = errors.New("payment: no active payment session")
)

// PointsCreditor credits earned points to the ledger.
type PointsCreditor interface {
	Credit(userID int64, points int, description, reference string) error
}

// Recorder persists a completed payment.
type Recorder interface {
	RecordPayment(p model.Payment) (*model.Payment, error)
}

// StatusCallback is invoked on every state transition and countdown tick.
type StatusCallback func(Snapshot)

// Manager drives the Idle -> AwaitingConfirmation -> Completed/Expired
// lifecycle of a simulated payment. At most one session is active at a
// time; every transition is guarded by the session identity so a stale
// timer callback can never touch a newer session.
type Manager struct {
	cfg      Config
	ledger   PointsCreditor
	payments Recorder
	logger   *slog.Logger
	callback StatusCallback

	mu      sync.Mutex
	session *session
}

type session struct {
	id        string
	req       Request
	state     State
	remaining int
	cancel    context.CancelFunc
	confirmCh chan struct{}
}

func NewManager(cfg Config, ledger PointsCreditor, payments Recorder, logger *slog.Logger, cb StatusCallback) *Manager {
	return &Manager{
		cfg:      cfg.withDefaults(),
		ledger:   ledger,
		payments: payments,
		logger:   logger,
		callback: cb,
	}
}

// Start begins a new payment session and its countdown. Returns
// ErrInvalidAmount for a non-positive amount and ErrSessionActive when
// a session is already awaiting confirmation.
func (m *Manager) Start(req Request) (Snapshot, error) {
	if req.Amount <= 0 {
		return Snapshot{}, ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return Snapshot{}, ErrSessionActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:        uuid.NewString(),
		req:       req,
		state:     StateAwaitingConfirmation,
		remaining: int(m.cfg.Countdown / time.Second),
		cancel:    cancel,
		confirmCh: make(chan struct{}, 1),
	}
	m.session = s

	m.logger.Info("payment session started",
		"session_id", s.id,
		"station", req.Station.Name,
		"fuel_type", req.FuelType,
		"amount", req.Amount,
	)

	go m.run(ctx, s)

	snap := m.snapshotOf(s)
	m.emit(snap)
	return snap, nil
}

// Confirm triggers completion of the active session, the same path the
// simulated external confirmation takes.
func (m *Manager) Confirm() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return ErrNoActiveSession
	}
	select {
	case m.session.confirmCh <- struct{}{}:
	default:
	}
	return nil
}

// Cancel resets the active session to idle. Outstanding timer callbacks
// are cancelled and can no longer touch the session.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return ErrNoActiveSession
	}

	s := m.session
	s.state = StateIdle
	s.cancel()
	m.session = nil

	m.logger.Info("payment session cancelled", "session_id", s.id)
	m.emit(Snapshot{State: StateIdle, Countdown: FormatCountdown(0)})
	return nil
}

// Snapshot returns the current session state for rendering.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return Snapshot{State: StateIdle, Countdown: FormatCountdown(0)}
	}
	return m.snapshotOf(m.session)
}

// Shutdown cancels any active session without emitting status updates.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.cancel()
		m.session = nil
	}
}

// run owns the two timers of a session: the countdown ticker and the
// simulated external confirmation. Whichever terminal transition fires
// first wins; the loser is suppressed by the state guard in tick and
// complete.
func (m *Manager) run(ctx context.Context, s *session) {
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()
	confirm := time.NewTimer(m.cfg.ConfirmDelay)
	defer confirm.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := m.tick(s); done {
				return
			}
		case <-confirm.C:
			m.complete(s)
			return
		case <-s.confirmCh:
			m.complete(s)
			return
		}
	}
}

// tick decrements the countdown and expires the session once it runs
// out. Reports true when the session reached a terminal state.
func (m *Manager) tick(s *session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Stale callback after cancel, completion, or replacement
	if m.session != s || s.state != StateAwaitingConfirmation {
		return true
	}

	s.remaining--
	if s.remaining < 0 {
		s.state = StateExpired
		s.cancel()
		m.session = nil

		m.logger.Info("payment session expired", "session_id", s.id, "amount", s.req.Amount)

		snap := m.snapshotOf(s)
		snap.RemainingSeconds = 0
		snap.Countdown = FormatCountdown(0)
		m.emit(snap)
		m.emit(Snapshot{State: StateIdle, Countdown: FormatCountdown(0)})
		return true
	}

	m.emit(m.snapshotOf(s))
	return false
}

// complete finishes the session: credit points, record the payment,
// then reset to idle. Runs at most once per session.
func (m *Manager) complete(s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != s || s.state != StateAwaitingConfirmation {
		return
	}

	s.state = StateCompleted
	s.cancel()
	m.session = nil

	points := pricing.Points(s.req.Amount)
	reference := "APX-" + uuid.NewString()[:8]

	if err := m.ledger.Credit(s.req.UserID, points, "Fuel payment at "+s.req.Station.Name, reference); err != nil {
		m.logger.Error("credit points", "session_id", s.id, "error", err)
	}

	liters := 0.0
	if price, ok := s.req.Station.PriceFor(s.req.FuelType); ok && price > 0 {
		liters = s.req.Amount / price
	}
	if _, err := m.payments.RecordPayment(model.Payment{
		Reference:    reference,
		UserID:       s.req.UserID,
		StationID:    s.req.Station.ID,
		StationName:  s.req.Station.Name,
		FuelType:     s.req.FuelType,
		Amount:       s.req.Amount,
		Liters:       liters,
		PointsEarned: points,
	}); err != nil {
		m.logger.Error("record payment", "session_id", s.id, "error", err)
	}

	m.logger.Info("payment session completed",
		"session_id", s.id,
		"reference", reference,
		"points_earned", points,
	)

	snap := m.snapshotOf(s)
	snap.PointsEarned = points
	snap.Reference = reference
	m.emit(snap)
	m.emit(Snapshot{State: StateIdle, Countdown: FormatCountdown(0)})
}

func (m *Manager) snapshotOf(s *session) Snapshot {
	return Snapshot{
		SessionID:        s.id,
		State:            s.state,
		StationID:        s.req.Station.ID,
		StationName:      s.req.Station.Name,
		FuelType:         s.req.FuelType,
		Amount:           s.req.Amount,
		RemainingSeconds: s.remaining,
		Countdown:        FormatCountdown(s.remaining),
	}
}

func (m *Manager) emit(snap Snapshot) {
	if m.callback != nil {
		m.callback(snap)
	}
}
