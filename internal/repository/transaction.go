package repository

import (
	"context"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/jmoiron/sqlx"
)

type TransactionRepository interface {
	ListByWallet(ctx context.Context, walletID int64, limit, offset int) ([]models.Transaction, error)
	Positions(ctx context.Context, walletID int64) ([]models.Position, error)
}

type TransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

func (repo *TransactionRepositoryImpl) ListByWallet(ctx context.Context, walletID int64, limit, offset int) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	transactions := []models.Transaction{}

	query := `
		SELECT id, wallet_id, type, asset, amount, price_at_the_moment, total_payed, status, created_at
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &transactions, query, walletID, limit, offset)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// Positions recomputes every non-zero holding of the wallet from the ledger.
func (repo *TransactionRepositoryImpl) Positions(ctx context.Context, walletID int64) ([]models.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	positions := []models.Position{}

	query := `
		SELECT asset, SUM(CASE WHEN type = 'BUY' THEN amount ELSE -amount END) AS amount
		FROM transactions
		WHERE wallet_id = $1 AND type IN ('BUY', 'SELL') AND status = 'COMPLETED'
		GROUP BY asset
		HAVING SUM(CASE WHEN type = 'BUY' THEN amount ELSE -amount END) <> 0
		ORDER BY asset`

	err := repo.db.SelectContext(ctx, &positions, query, walletID)
	if err != nil {
		return nil, err
	}

	return positions, nil
}
