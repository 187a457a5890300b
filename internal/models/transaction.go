package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// define possible transaction types
const (
	TransactionTypeDeposit    = "DEPOSIT"
	TransactionTypeWithdrawal = "WITHDRAWAL"
	TransactionTypeBuy        = "BUY"
	TransactionTypeSell       = "SELL"
)

// define possible transaction status
const (
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
)

// Transaction is an append-only ledger entry. Rows are never updated after insert.
type Transaction struct {
	ID               int64           `db:"id"`
	WalletID         int64           `db:"wallet_id"`
	Type             string          `db:"type"`
	Asset            string          `db:"asset"`
	Amount           decimal.Decimal `db:"amount"`
	PriceAtTheMoment decimal.Decimal `db:"price_at_the_moment"`
	TotalPayed       decimal.Decimal `db:"total_payed"`
	Status           string          `db:"status"`
	CreatedAt        time.Time       `db:"created_at"`
}

func IsTradeType(t string) bool {
	return t == TransactionTypeBuy || t == TransactionTypeSell
}
