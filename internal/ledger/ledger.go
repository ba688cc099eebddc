package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/apexfuel/apex/internal/model"
)

var (
	// ErrInsufficientBalance is returned by Debit when the requested
	// points exceed the current balance. The balance is left untouched.
	ErrInsufficientBalance = errors.New("ledger: insufficient points balance")

	// ErrNegativePoints is returned when a caller passes a negative
	// point amount to Credit or Debit.
	ErrNegativePoints = errors.New("ledger: points must not be negative")

	ErrRewardNotFound = errors.New("ledger: reward not found")
	ErrRewardInactive = errors.New("ledger: reward is not active")
)

// Ledger owns the points balance of a user. Credit and Debit are the
// only mutators; the balance is the sum of earn rows minus the sum of
// redeem rows, so there is no stored counter to drift.
type Ledger struct {
	db *sql.DB
}

func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Credit records earned points.
func (l *Ledger) Credit(userID int64, points int, description, reference string) error {
	if points < 0 {
		return ErrNegativePoints
	}

	_, err := l.db.Exec(
		`INSERT INTO point_transactions (user_id, kind, points, description, reference) VALUES (?, ?, ?, ?, ?)`,
		userID, model.PointsEarn, points, description, reference,
	)
	if err != nil {
		return fmt.Errorf("insert earn: %w", err)
	}
	return nil
}

// Debit spends points. The balance check and the redeem row are written
// in one transaction so a debit can never interleave with another
// mutation and push the balance negative.
func (l *Ledger) Debit(userID int64, points int, description, reference string) error {
	if points < 0 {
		return ErrNegativePoints
	}

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	balance, err := balanceOf(tx, userID)
	if err != nil {
		return err
	}
	if points > balance {
		return ErrInsufficientBalance
	}

	_, err = tx.Exec(
		`INSERT INTO point_transactions (user_id, kind, points, description, reference) VALUES (?, ?, ?, ?, ?)`,
		userID, model.PointsRedeem, points, description, reference,
	)
	if err != nil {
		return fmt.Errorf("insert redeem: %w", err)
	}
	return tx.Commit()
}

// Balance returns the current points balance for the user.
func (l *Ledger) Balance(userID int64) (int, error) {
	return balanceOf(l.db, userID)
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func balanceOf(q querier, userID int64) (int, error) {
	var balance int
	err := q.QueryRow(
		`SELECT COALESCE(SUM(CASE kind WHEN 'earn' THEN points ELSE -points END), 0)
		 FROM point_transactions WHERE user_id = ?`,
		userID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum balance: %w", err)
	}
	return balance, nil
}

// Transactions returns the user's ledger entries, newest first.
func (l *Ledger) Transactions(userID int64) ([]model.PointTransaction, error) {
	rows, err := l.db.Query(
		`SELECT id, user_id, kind, points, description, reference, created_at
		 FROM point_transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.PointTransaction
	for rows.Next() {
		var t model.PointTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Kind, &t.Points, &t.Description, &t.Reference, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
