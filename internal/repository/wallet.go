package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/jmoiron/sqlx"
)

type WalletRepository interface {
	GetAllByUserID(ctx context.Context, userID int64) ([]models.Wallet, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Wallet, bool, error)
}

type WalletRepositoryImpl struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

func (repo *WalletRepositoryImpl) GetAllByUserID(ctx context.Context, userID int64) ([]models.Wallet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	wallets := []models.Wallet{}

	query := `
        SELECT id, user_id, currency, balance, created_at FROM wallets WHERE user_id = $1 ORDER BY id`

	err := repo.db.SelectContext(ctx, &wallets, query, userID)
	if err != nil {
		return nil, err
	}

	return wallets, nil
}

// GetByUserID returns the user's primary wallet, the one trades are applied to.
func (repo *WalletRepositoryImpl) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `
        SELECT id, user_id, currency, balance, created_at FROM wallets WHERE user_id = $1 ORDER BY id LIMIT 1`

	err := repo.db.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}
