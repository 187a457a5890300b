package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

var rgxSavepoint = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type unitOfWork struct {
	tx *sqlx.Tx
}

func (u *unitOfWork) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO users (email, hashed_password)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := u.tx.QueryRowxContext(ctx, query, user.Email, user.HashedPassword).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateRecord
		}
		return err
	}

	return nil
}

func (u *unitOfWork) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if wallet.Currency == "" {
		wallet.Currency = models.DefaultCurrency
	}

	query := `
		INSERT INTO wallets (user_id, currency)
		VALUES ($1, $2)
		RETURNING id, balance, created_at`

	return u.tx.QueryRowxContext(ctx, query, wallet.UserID, wallet.Currency).Scan(&wallet.ID, &wallet.Balance, &wallet.CreatedAt)
}

// GetWalletForUpdate takes a row lock with SELECT ... FOR UPDATE. The wait for
// the lock is bounded only by the caller's context, so a slow leaseholder
// stalls every other mutation on the same wallet.
func (u *unitOfWork) GetWalletForUpdate(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	var wallet models.Wallet

	query := `
		SELECT id, user_id, currency, balance, created_at FROM wallets
		WHERE user_id = $1
		ORDER BY id
		LIMIT 1
		FOR UPDATE`

	err := u.tx.GetContext(ctx, &wallet, query, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &wallet, nil
}

func (u *unitOfWork) UpdateWalletBalance(ctx context.Context, walletID int64, balance decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `UPDATE wallets SET balance = $1 WHERE id = $2`

	res, err := u.tx.ExecContext(ctx, query, balance, walletID)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (u *unitOfWork) AppendTransaction(ctx context.Context, txn *models.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if txn.Status == "" {
		txn.Status = models.TransactionStatusCompleted
	}

	query := `
		INSERT INTO transactions (wallet_id, type, asset, amount, price_at_the_moment, total_payed, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return u.tx.QueryRowxContext(ctx, query,
		txn.WalletID,
		txn.Type,
		txn.Asset,
		txn.Amount,
		txn.PriceAtTheMoment,
		txn.TotalPayed,
		txn.Status,
	).Scan(&txn.ID, &txn.CreatedAt)
}

// SumAssetPosition computes BUY minus SELL for one asset in a single aggregate,
// so the wallet's history is never loaded into memory.
func (u *unitOfWork) SumAssetPosition(ctx context.Context, walletID int64, asset string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var position decimal.Decimal

	query := `
		SELECT COALESCE(SUM(CASE
			WHEN type = 'BUY' THEN amount
			WHEN type = 'SELL' THEN -amount
			ELSE 0
		END), 0)
		FROM transactions
		WHERE wallet_id = $1 AND asset = $2 AND status = 'COMPLETED'`

	if err := u.tx.GetContext(ctx, &position, query, walletID, asset); err != nil {
		return decimal.Zero, err
	}

	return position, nil
}

func (u *unitOfWork) Savepoint(ctx context.Context, name string) error {
	if !rgxSavepoint.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}

	_, err := u.tx.ExecContext(ctx, "SAVEPOINT "+name)
	return err
}

func (u *unitOfWork) RollbackToSavepoint(ctx context.Context, name string) error {
	if !rgxSavepoint.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}

	_, err := u.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name)
	return err
}
