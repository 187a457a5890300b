package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the fiat currency every wallet is opened with at signup.
const DefaultCurrency = "EUR"

type Wallet struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	Currency  string          `db:"currency"`
	Balance   decimal.Decimal `db:"balance"`
	CreatedAt time.Time       `db:"created_at"`
}

// Position is the net quantity of an asset held by a wallet,
// recomputed from its BUY and SELL transactions.
type Position struct {
	Asset  string          `db:"asset"`
	Amount decimal.Decimal `db:"amount"`
}
