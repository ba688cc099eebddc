package ledger

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/apexfuel/apex/internal/database"
)

func setupLedger(t *testing.T) (*Ledger, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

// newUser inserts a fresh user with no ledger history.
func newUser(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	result, err := db.Exec(`INSERT INTO users (name) VALUES (?)`, name)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

func TestSeededOpeningBalance(t *testing.T) {
	l, _ := setupLedger(t)

	balance, err := l.Balance(1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 1450 {
		t.Errorf("seeded balance = %d, want 1450", balance)
	}
}

func TestCreditDebitRoundTrip(t *testing.T) {
	l, db := setupLedger(t)
	uid := newUser(t, db, "Alice")

	if err := l.Credit(uid, 120, "Fuel payment", "APX-1"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.Debit(uid, 120, "Voucher", ""); err != nil {
		t.Fatalf("debit: %v", err)
	}

	balance, err := l.Balance(uid)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance after round trip = %d, want 0", balance)
	}
}

func TestDebitInsufficientLeavesBalance(t *testing.T) {
	l, db := setupLedger(t)
	uid := newUser(t, db, "Alice")

	if err := l.Credit(uid, 50, "", ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	err := l.Debit(uid, 51, "", "")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	balance, _ := l.Balance(uid)
	if balance != 50 {
		t.Errorf("balance = %d, want 50 (unchanged after failed debit)", balance)
	}
}

func TestNegativePointsRejected(t *testing.T) {
	l, db := setupLedger(t)
	uid := newUser(t, db, "Alice")

	if err := l.Credit(uid, -1, "", ""); !errors.Is(err, ErrNegativePoints) {
		t.Errorf("credit err = %v, want ErrNegativePoints", err)
	}
	if err := l.Debit(uid, -1, "", ""); !errors.Is(err, ErrNegativePoints) {
		t.Errorf("debit err = %v, want ErrNegativePoints", err)
	}
}

func TestTransactionsNewestFirst(t *testing.T) {
	l, db := setupLedger(t)
	uid := newUser(t, db, "Alice")

	l.Credit(uid, 10, "first", "")
	l.Credit(uid, 20, "second", "")
	l.Debit(uid, 5, "third", "")

	txns, err := l.Transactions(uid)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txns))
	}
	if txns[0].Description != "third" {
		t.Errorf("txns[0].Description = %q, want %q", txns[0].Description, "third")
	}
	if txns[0].Kind != "redeem" || txns[0].Points != 5 {
		t.Errorf("txns[0] = %s/%d, want redeem/5", txns[0].Kind, txns[0].Points)
	}
}

func TestListRewardsAffordability(t *testing.T) {
	l, db := setupLedger(t)
	uid := newUser(t, db, "Alice")
	l.Credit(uid, 1000, "", "")

	rewards, err := l.ListRewards(uid)
	if err != nil {
		t.Fatalf("list rewards: %v", err)
	}
	if len(rewards) != 4 {
		t.Fatalf("expected 4 seeded rewards, got %d", len(rewards))
	}

	// Ordered by cost: 500, 800, 1200, 2500
	for i, want := range []struct {
		cost       int
		affordable bool
		short      int
	}{
		{500, true, 0},
		{800, true, 0},
		{1200, false, 200},
		{2500, false, 1500},
	} {
		r := rewards[i]
		if r.PointCost != want.cost {
			t.Fatalf("rewards[%d].PointCost = %d, want %d", i, r.PointCost, want.cost)
		}
		if r.Affordable != want.affordable {
			t.Errorf("rewards[%d].Affordable = %v, want %v", i, r.Affordable, want.affordable)
		}
		if r.PointsShort != want.short {
			t.Errorf("rewards[%d].PointsShort = %d, want %d", i, r.PointsShort, want.short)
		}
	}
}

func TestAffordabilityRecomputedAfterCredit(t *testing.T) {
	l, db := setupLedger(t)
	uid := newUser(t, db, "Alice")
	l.Credit(uid, 499, "", "")

	rewards, _ := l.ListRewards(uid)
	if rewards[0].Affordable {
		t.Fatal("499 points should not afford the 500-point reward")
	}
	if rewards[0].PointsShort != 1 {
		t.Errorf("PointsShort = %d, want 1", rewards[0].PointsShort)
	}

	l.Credit(uid, 1, "", "")
	rewards, _ = l.ListRewards(uid)
	if !rewards[0].Affordable {
		t.Error("500 points should afford the 500-point reward")
	}
}

func TestRedeemReward(t *testing.T) {
	l, db := setupLedger(t)
	uid := newUser(t, db, "Alice")
	l.Credit(uid, 600, "", "")

	rewards, _ := l.ListRewards(uid)
	red, err := l.RedeemReward(uid, rewards[0].ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if red.PointsSpent != 500 {
		t.Errorf("points_spent = %d, want 500", red.PointsSpent)
	}
	if red.UserID != uid {
		t.Errorf("user_id = %d, want %d", red.UserID, uid)
	}

	balance, _ := l.Balance(uid)
	if balance != 100 {
		t.Errorf("balance after redemption = %d, want 100", balance)
	}
}

func TestRedeemRewardInsufficient(t *testing.T) {
	l, db := setupLedger(t)
	uid := newUser(t, db, "Broke")

	rewards, _ := l.ListRewards(uid)
	_, err := l.RedeemReward(uid, rewards[0].ID)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	// Nothing written
	balance, _ := l.Balance(uid)
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
	var count int
	db.QueryRow(`SELECT COUNT(*) FROM reward_redemptions WHERE user_id = ?`, uid).Scan(&count)
	if count != 0 {
		t.Errorf("redemption count = %d, want 0", count)
	}
}

func TestRedeemRewardNotFound(t *testing.T) {
	l, db := setupLedger(t)
	uid := newUser(t, db, "Alice")

	if _, err := l.RedeemReward(uid, 999); !errors.Is(err, ErrRewardNotFound) {
		t.Errorf("err = %v, want ErrRewardNotFound", err)
	}
}

func TestRedeemRewardInactive(t *testing.T) {
	l, db := setupLedger(t)
	uid := newUser(t, db, "Alice")
	l.Credit(uid, 5000, "", "")

	result, err := db.Exec(`INSERT INTO rewards (title, point_cost, active) VALUES ('Retired', 10, 0)`)
	if err != nil {
		t.Fatalf("insert inactive reward: %v", err)
	}
	id, _ := result.LastInsertId()

	if _, err := l.RedeemReward(uid, id); !errors.Is(err, ErrRewardInactive) {
		t.Errorf("err = %v, want ErrRewardInactive", err)
	}
}
