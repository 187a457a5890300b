package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerService is the ledger surface the HTTP handlers depend on.
type LedgerService interface {
	OpenAccount(ctx context.Context, email, hashedPassword string) (*models.User, *models.Wallet, error)
	Deposit(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Transaction, error)
	Withdraw(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Transaction, error)
	Trade(ctx context.Context, ownerID int64, tradeType, asset string, amount decimal.Decimal) (*models.Transaction, error)
	Quote(ctx context.Context, asset string) (decimal.Decimal, error)
	Positions(ctx context.Context, ownerID int64) ([]models.Position, error)
}

// amounts are stored as NUMERIC(18,8)
const amountScale = 8

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type queryStringValues struct {
	Limit  int
	Offset int
}

func retrieveUrlQueryValues(r *http.Request) *queryStringValues {
	var queryValues = &queryStringValues{}

	// Parse pagination params
	limitStr := r.URL.Query().Get("limit")
	pageStr := r.URL.Query().Get("page")

	// Default pagination values
	offset := 0
	limit := defaultPageSize

	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = min(parsedLimit, maxPageSize)
		}
	}
	queryValues.Limit = limit

	if pageStr != "" {
		if parsedPage, err := strconv.Atoi(pageStr); err == nil && parsedPage >= 1 {
			offset = (parsedPage - 1) * limit
		}
	}
	queryValues.Offset = offset

	return queryValues
}
