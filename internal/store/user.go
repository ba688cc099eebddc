package store

import (
	"database/sql"
	"fmt"

	"github.com/apexfuel/apex/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// GetByID returns the user or nil when no such user exists.
func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(
		`SELECT id, name, tier, streak_days, monthly_spend, monthly_savings, transaction_count, created_at
		 FROM users WHERE id = ?`, id,
	)

	var u model.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Tier, &u.StreakDays,
		&u.MonthlySpend, &u.MonthlySavings, &u.TransactionCount, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
