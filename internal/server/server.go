package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/apexfuel/apex/internal/handler"
	"github.com/apexfuel/apex/internal/ledger"
	"github.com/apexfuel/apex/internal/middleware"
	"github.com/apexfuel/apex/internal/payment"
	"github.com/apexfuel/apex/internal/store"
	ws "github.com/apexfuel/apex/internal/websocket"
)

// Config holds the composition-root settings.
type Config struct {
	// UserID is the demo account everything is attributed to.
	UserID int64
	// Session overrides the payment session timings; zero values use
	// the defaults (5 min countdown, 10 s simulated confirmation).
	Session payment.Config
}

// Server owns the application state: the ledger, the payment session
// manager, the catalog stores, and the hub pushing updates to clients.
type Server struct {
	db      *sql.DB
	hub     *ws.Hub
	ledger  *ledger.Ledger
	manager *payment.Manager
	userID  int64

	stationH *handler.StationHandler
	quoteH   *handler.QuoteHandler
	paymentH *handler.PaymentHandler
	rewardH  *handler.RewardHandler
	profileH *handler.ProfileHandler

	logger *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	if cfg.UserID == 0 {
		cfg.UserID = 1
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	stationStore := store.NewStationStore(db)
	paymentStore := store.NewPaymentStore(db)
	userStore := store.NewUserStore(db)
	ldgr := ledger.New(db)

	s := &Server{
		db:     db,
		hub:    hub,
		ledger: ldgr,
		userID: cfg.UserID,
		logger: logger,
	}

	// Every session transition and tick is pushed to clients; a
	// completed payment additionally refreshes the balance and the
	// rewards affordability list.
	s.manager = payment.NewManager(cfg.Session, ldgr, paymentStore, logger.With("component", "payment"), func(snap payment.Snapshot) {
		hub.Broadcast(ws.Message{Type: ws.TypePaymentStatus, Payload: snap})
		if snap.State == payment.StateCompleted {
			s.broadcastPoints()
		}
	})

	s.stationH = handler.NewStationHandler(stationStore, logger.With("component", "station"))
	s.quoteH = handler.NewQuoteHandler(stationStore, logger.With("component", "quote"))
	s.paymentH = handler.NewPaymentHandler(s.manager, stationStore, paymentStore, cfg.UserID, logger.With("component", "payment_handler"))
	s.rewardH = handler.NewRewardHandler(ldgr, hub, cfg.UserID, logger.With("component", "reward"))
	s.profileH = handler.NewProfileHandler(userStore, ldgr, cfg.UserID, logger.With("component", "profile"))

	return s
}

func (s *Server) broadcastPoints() {
	balance, err := s.ledger.Balance(s.userID)
	if err != nil {
		s.logger.Error("balance for broadcast", "error", err)
		return
	}
	s.hub.Broadcast(ws.Message{
		Type:    ws.TypePointsUpdated,
		Payload: map[string]int{"points_balance": balance},
	})
	if rewards, err := s.ledger.ListRewards(s.userID); err == nil {
		s.hub.Broadcast(ws.Message{Type: ws.TypeRewardsChange, Payload: rewards})
	}
}

// initialState is sent to every freshly connected WebSocket client.
func (s *Server) initialState() []ws.Message {
	msgs := []ws.Message{
		{Type: ws.TypePaymentStatus, Payload: s.manager.Snapshot()},
	}
	if balance, err := s.ledger.Balance(s.userID); err == nil {
		msgs = append(msgs, ws.Message{
			Type:    ws.TypePointsUpdated,
			Payload: map[string]int{"points_balance": balance},
		})
	}
	return msgs
}

// Manager returns the payment session manager for shutdown.
func (s *Server) Manager() *payment.Manager {
	return s.manager
}

// Hub returns the WebSocket hub for shutdown.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	mux.HandleFunc("GET /api/stations", s.stationH.List)
	mux.HandleFunc("GET /api/stations/{id}", s.stationH.Get)

	mux.HandleFunc("GET /api/quote", s.quoteH.Get)

	mux.HandleFunc("POST /api/payments", s.paymentH.Start)
	mux.HandleFunc("GET /api/payments", s.paymentH.History)
	mux.HandleFunc("GET /api/payments/current", s.paymentH.Current)
	mux.HandleFunc("POST /api/payments/current/confirm", s.paymentH.Confirm)
	mux.HandleFunc("DELETE /api/payments/current", s.paymentH.Cancel)

	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)

	mux.HandleFunc("GET /api/profile", s.profileH.Get)
	mux.HandleFunc("GET /api/profile/transactions", s.profileH.Transactions)
	mux.HandleFunc("GET /api/expenses/monthly", s.paymentH.MonthlyExpenses)

	mux.HandleFunc("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket"), s.initialState))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
