package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemoryWallet(t *testing.T, db *MemoryDatabase, email string) (*models.User, *models.Wallet) {
	t.Helper()

	user := &models.User{Email: email, HashedPassword: "hash"}
	wallet := &models.Wallet{}

	err := db.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		if err := uow.CreateUser(ctx, user); err != nil {
			return err
		}
		wallet.UserID = user.ID
		return uow.CreateWallet(ctx, wallet)
	})
	require.NoError(t, err)

	return user, wallet
}

func TestMemory_SignupCreatesUserAndWallet(t *testing.T) {
	db := NewMemory()
	user, wallet := seedMemoryWallet(t, db, "alice@example.com")

	stored, found, err := db.Wallet().GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, wallet.ID, stored.ID)
	require.Equal(t, models.DefaultCurrency, stored.Currency)
	require.True(t, stored.Balance.IsZero())

	err = db.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		return uow.CreateUser(ctx, &models.User{Email: "alice@example.com"})
	})
	require.ErrorIs(t, err, ErrDuplicateRecord)
}

func TestMemory_RollbackDiscardsStagedWrites(t *testing.T) {
	db := NewMemory()
	user, _ := seedMemoryWallet(t, db, "bob@example.com")

	boom := errors.New("boom")
	err := db.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		wallet, err := uow.GetWalletForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		if err := uow.UpdateWalletBalance(ctx, wallet.ID, decimal.NewFromInt(500)); err != nil {
			return err
		}
		if err := uow.AppendTransaction(ctx, &models.Transaction{WalletID: wallet.ID, Type: models.TransactionTypeDeposit}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	wallet, _, err := db.Wallet().GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, wallet.Balance.IsZero())

	txns, err := db.Transaction().ListByWallet(context.Background(), wallet.ID, 10, 0)
	require.NoError(t, err)
	require.Empty(t, txns)
}

func TestMemory_LeaseSerializesConcurrentUnitsOfWork(t *testing.T) {
	db := NewMemory()
	user, _ := seedMemoryWallet(t, db, "carol@example.com")

	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
				wallet, err := uow.GetWalletForUpdate(ctx, user.ID)
				if err != nil {
					return err
				}
				return uow.UpdateWalletBalance(ctx, wallet.ID, wallet.Balance.Add(decimal.NewFromInt(1)))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	wallet, _, err := db.Wallet().GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, wallet.Balance.Equal(decimal.NewFromInt(workers)), "got %s", wallet.Balance)
}

func TestMemory_LeaseWaitHonoursContext(t *testing.T) {
	db := NewMemory()
	user, _ := seedMemoryWallet(t, db, "dave@example.com")

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = db.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
			if _, err := uow.GetWalletForUpdate(ctx, user.ID); err != nil {
				return err
			}
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := db.WithinUnitOfWork(ctx, func(ctx context.Context, uow UnitOfWork) error {
		_, err := uow.GetWalletForUpdate(ctx, user.ID)
		return err
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemory_LeaseIsReentrant(t *testing.T) {
	db := NewMemory()
	user, _ := seedMemoryWallet(t, db, "erin@example.com")

	err := db.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		first, err := uow.GetWalletForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		if err := uow.UpdateWalletBalance(ctx, first.ID, decimal.NewFromInt(5)); err != nil {
			return err
		}

		second, err := uow.GetWalletForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		require.True(t, second.Balance.Equal(decimal.NewFromInt(5)))
		return nil
	})
	require.NoError(t, err)
}

func TestMemory_SavepointRestoresStagedState(t *testing.T) {
	db := NewMemory()
	user, _ := seedMemoryWallet(t, db, "frank@example.com")

	err := db.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		wallet, err := uow.GetWalletForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		require.NoError(t, uow.UpdateWalletBalance(ctx, wallet.ID, decimal.NewFromInt(10)))

		require.NoError(t, uow.Savepoint(ctx, "order_1"))
		require.NoError(t, uow.UpdateWalletBalance(ctx, wallet.ID, decimal.NewFromInt(99)))
		require.NoError(t, uow.AppendTransaction(ctx, &models.Transaction{
			WalletID: wallet.ID,
			Type:     models.TransactionTypeBuy,
			Asset:    "BTC",
			Amount:   decimal.NewFromInt(1),
		}))
		require.NoError(t, uow.RollbackToSavepoint(ctx, "order_1"))

		position, err := uow.SumAssetPosition(ctx, wallet.ID, "BTC")
		require.NoError(t, err)
		require.True(t, position.IsZero())
		return nil
	})
	require.NoError(t, err)

	wallet, _, err := db.Wallet().GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, wallet.Balance.Equal(decimal.NewFromInt(10)))
}

func TestMemory_PositionsNetBuysAndSells(t *testing.T) {
	db := NewMemory()
	user, _ := seedMemoryWallet(t, db, "grace@example.com")

	err := db.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		wallet, err := uow.GetWalletForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		for _, txn := range []models.Transaction{
			{WalletID: wallet.ID, Type: models.TransactionTypeBuy, Asset: "BTC", Amount: decimal.NewFromInt(2)},
			{WalletID: wallet.ID, Type: models.TransactionTypeSell, Asset: "BTC", Amount: decimal.RequireFromString("0.5")},
			{WalletID: wallet.ID, Type: models.TransactionTypeBuy, Asset: "ETH", Amount: decimal.NewFromInt(1)},
			{WalletID: wallet.ID, Type: models.TransactionTypeSell, Asset: "ETH", Amount: decimal.NewFromInt(1)},
		} {
			txn := txn
			if err := uow.AppendTransaction(ctx, &txn); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	wallet, _, err := db.Wallet().GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)

	positions, err := db.Transaction().Positions(context.Background(), wallet.ID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Equal(t, "BTC", positions[0].Asset)
	require.True(t, positions[0].Amount.Equal(decimal.RequireFromString("1.5")))
}
