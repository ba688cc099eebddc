package ledger

import (
	"database/sql"
	"fmt"

	"github.com/apexfuel/apex/internal/model"
)

const rewardCols = `id, title, description, point_cost, active, created_at`

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var active int

	err := scanner.Scan(&r.ID, &r.Title, &r.Description, &r.PointCost, &active, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Active = active != 0
	return &r, nil
}

// GetReward returns the reward or nil when no such reward exists.
func (l *Ledger) GetReward(id int64) (*model.Reward, error) {
	row := l.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// ListRewards returns the active rewards catalog together with
// affordability against the user's current balance. Affordability is
// derived fresh on every call, never cached.
func (l *Ledger) ListRewards(userID int64) ([]model.RewardAvailability, error) {
	balance, err := l.Balance(userID)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.Query(`SELECT ` + rewardCols + ` FROM rewards WHERE active = 1 ORDER BY point_cost ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.RewardAvailability
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		ra := model.RewardAvailability{Reward: *r, Affordable: balance >= r.PointCost}
		if !ra.Affordable {
			ra.PointsShort = r.PointCost - balance
		}
		rewards = append(rewards, ra)
	}
	return rewards, rows.Err()
}

// RedeemReward debits the reward's point cost and records the
// redemption as one atomic step. On ErrInsufficientBalance nothing is
// written.
func (l *Ledger) RedeemReward(userID, rewardID int64) (*model.RewardRedemption, error) {
	tx, err := l.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, rewardID)
	reward, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, ErrRewardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	if !reward.Active {
		return nil, ErrRewardInactive
	}

	balance, err := balanceOf(tx, userID)
	if err != nil {
		return nil, err
	}
	if reward.PointCost > balance {
		return nil, ErrInsufficientBalance
	}

	_, err = tx.Exec(
		`INSERT INTO point_transactions (user_id, kind, points, description) VALUES (?, ?, ?, ?)`,
		userID, model.PointsRedeem, reward.PointCost, "Redeemed: "+reward.Title,
	)
	if err != nil {
		return nil, fmt.Errorf("insert redeem: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO reward_redemptions (reward_id, user_id, points_spent) VALUES (?, ?, ?)`,
		rewardID, userID, reward.PointCost,
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	row = l.db.QueryRow(
		`SELECT id, reward_id, user_id, points_spent, redeemed_at FROM reward_redemptions WHERE id = ?`, id,
	)
	var red model.RewardRedemption
	if err := row.Scan(&red.ID, &red.RewardID, &red.UserID, &red.PointsSpent, &red.RedeemedAt); err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return &red, nil
}
