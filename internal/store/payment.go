package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apexfuel/apex/internal/model"
)

// PaymentStore records completed payments and serves the history and
// expense-chart queries backed by them.
type PaymentStore struct {
	db *sql.DB

	// now is swappable for tests pinning the expense month.
	now func() time.Time
}

func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db, now: time.Now}
}

const paymentCols = `id, reference, user_id, station_id, station_name, fuel_type, amount, liters, points_earned, paid_at`

func scanPayment(scanner interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	err := scanner.Scan(
		&p.ID, &p.Reference, &p.UserID, &p.StationID, &p.StationName,
		&p.FuelType, &p.Amount, &p.Liters, &p.PointsEarned, &p.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RecordPayment writes a completed payment, bumps the user's
// transaction count, and folds the amount into the current month of the
// expense series, all in one transaction.
func (s *PaymentStore) RecordPayment(p model.Payment) (*model.Payment, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO payments (reference, user_id, station_id, station_name, fuel_type, amount, liters, points_earned)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Reference, p.UserID, p.StationID, p.StationName, p.FuelType, p.Amount, p.Liters, p.PointsEarned,
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE users SET transaction_count = transaction_count + 1 WHERE id = ?`, p.UserID,
	); err != nil {
		return nil, fmt.Errorf("bump transaction count: %w", err)
	}

	paidAt := s.now()
	if _, err := tx.Exec(
		`INSERT INTO monthly_expenses (month, year, spend, savings) VALUES (?, ?, ?, 0)
		 ON CONFLICT (year, month) DO UPDATE SET spend = spend + excluded.spend`,
		paidAt.Format("Jan"), paidAt.Year(), int(p.Amount),
	); err != nil {
		return nil, fmt.Errorf("fold into monthly expenses: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+paymentCols+` FROM payments WHERE id = ?`, id)
	saved, err := scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return saved, nil
}

// ListRecent returns the user's payments, newest first.
func (s *PaymentStore) ListRecent(userID int64, limit int) ([]model.Payment, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+paymentCols+` FROM payments WHERE user_id = ? ORDER BY paid_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// MonthlyExpenses returns the expense/savings series in chart order.
func (s *PaymentStore) MonthlyExpenses() ([]model.MonthlyExpense, error) {
	rows, err := s.db.Query(`SELECT month, year, spend, savings FROM monthly_expenses ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list monthly expenses: %w", err)
	}
	defer rows.Close()

	var series []model.MonthlyExpense
	for rows.Next() {
		var m model.MonthlyExpense
		if err := rows.Scan(&m.Month, &m.Year, &m.Spend, &m.Savings); err != nil {
			return nil, fmt.Errorf("scan monthly expense: %w", err)
		}
		series = append(series, m)
	}
	return series, rows.Err()
}
