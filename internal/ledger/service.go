package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/cradoe/coinledger/internal/repository"
	"github.com/shopspring/decimal"
)

// scale of the NUMERIC(18,8) columns money is stored in
const scale = 8

// PriceSource quotes the current price of an asset.
type PriceSource interface {
	GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// Service applies wallet mutations. Every mutation leases the owner's wallet,
// checks its preconditions against the leased state, then updates the balance
// and appends the ledger entry in the same unit of work.
type Service struct {
	db     repository.Database
	prices PriceSource
}

func NewService(db repository.Database, prices PriceSource) *Service {
	return &Service{
		db:     db,
		prices: prices,
	}
}

// OpenAccount creates a user together with an empty wallet in the default
// currency.
func (s *Service) OpenAccount(ctx context.Context, email, hashedPassword string) (*models.User, *models.Wallet, error) {
	user := &models.User{Email: email, HashedPassword: hashedPassword}
	wallet := &models.Wallet{Currency: models.DefaultCurrency}

	err := s.db.WithinUnitOfWork(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		if err := uow.CreateUser(ctx, user); err != nil {
			return err
		}

		wallet.UserID = user.ID
		return uow.CreateWallet(ctx, wallet)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			return nil, nil, ErrDuplicateEmail
		}
		return nil, nil, err
	}

	return user, wallet, nil
}

func (s *Service) Deposit(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidationRejected)
	}

	var txn *models.Transaction
	err := s.db.WithinUnitOfWork(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		txn, err = deposit(ctx, uow, ownerID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

func (s *Service) Withdraw(ctx context.Context, ownerID int64, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidationRejected)
	}

	var txn *models.Transaction
	err := s.db.WithinUnitOfWork(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		txn, err = withdraw(ctx, uow, ownerID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// Trade buys or sells amount of asset at the oracle's current price.
func (s *Service) Trade(ctx context.Context, ownerID int64, tradeType, asset string, amount decimal.Decimal) (*models.Transaction, error) {
	order := models.Order{
		OwnerID: ownerID,
		Type:    strings.ToUpper(strings.TrimSpace(tradeType)),
		Asset:   strings.ToUpper(strings.TrimSpace(asset)),
		Amount:  amount,
	}
	if err := validateTrade(order); err != nil {
		return nil, err
	}

	var txn *models.Transaction
	err := s.db.WithinUnitOfWork(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		txn, err = s.trade(ctx, uow, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// Quote returns the price an order for asset would be queued at.
func (s *Service) Quote(ctx context.Context, asset string) (decimal.Decimal, error) {
	price, err := s.prices.GetPrice(ctx, strings.ToUpper(strings.TrimSpace(asset)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	return price, nil
}

// Positions returns the owner's non-zero holdings per asset.
func (s *Service) Positions(ctx context.Context, ownerID int64) ([]models.Position, error) {
	wallet, found, err := s.db.Wallet().GetByUserID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	return s.db.Transaction().Positions(ctx, wallet.ID)
}

func validateTrade(order models.Order) error {
	switch {
	case !models.IsTradeType(order.Type):
		return fmt.Errorf("%w: type must be BUY or SELL", ErrValidationRejected)
	case order.Asset == "":
		return fmt.Errorf("%w: asset is required", ErrValidationRejected)
	case !order.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be greater than zero", ErrValidationRejected)
	}
	return nil
}

func leaseWallet(ctx context.Context, uow repository.UnitOfWork, ownerID int64) (*models.Wallet, error) {
	wallet, err := uow.GetWalletForUpdate(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return wallet, nil
}

func deposit(ctx context.Context, uow repository.UnitOfWork, ownerID int64, amount decimal.Decimal) (*models.Transaction, error) {
	wallet, err := leaseWallet(ctx, uow, ownerID)
	if err != nil {
		return nil, err
	}

	if err := uow.UpdateWalletBalance(ctx, wallet.ID, wallet.Balance.Add(amount)); err != nil {
		return nil, err
	}

	return appendEntry(ctx, uow, wallet, models.TransactionTypeDeposit, wallet.Currency, amount, decimal.NewFromInt(1))
}

func withdraw(ctx context.Context, uow repository.UnitOfWork, ownerID int64, amount decimal.Decimal) (*models.Transaction, error) {
	wallet, err := leaseWallet(ctx, uow, ownerID)
	if err != nil {
		return nil, err
	}

	if wallet.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	if err := uow.UpdateWalletBalance(ctx, wallet.ID, wallet.Balance.Sub(amount)); err != nil {
		return nil, err
	}

	return appendEntry(ctx, uow, wallet, models.TransactionTypeWithdrawal, wallet.Currency, amount, decimal.NewFromInt(1))
}

// trade applies a validated order. A positive order.Price is used as is,
// otherwise the price is fetched while the wallet lease is held.
func (s *Service) trade(ctx context.Context, uow repository.UnitOfWork, order models.Order) (*models.Transaction, error) {
	wallet, err := leaseWallet(ctx, uow, order.OwnerID)
	if err != nil {
		return nil, err
	}

	price := order.Price
	if !price.IsPositive() {
		price, err = s.prices.GetPrice(ctx, order.Asset)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
		}
	}

	total := order.Amount.Mul(price).Round(scale)

	var balance decimal.Decimal
	switch order.Type {
	case models.TransactionTypeBuy:
		if total.GreaterThan(wallet.Balance) {
			return nil, ErrInsufficientFunds
		}
		balance = wallet.Balance.Sub(total)

	case models.TransactionTypeSell:
		held, err := uow.SumAssetPosition(ctx, wallet.ID, order.Asset)
		if err != nil {
			return nil, err
		}
		if order.Amount.GreaterThan(held) {
			return nil, ErrInsufficientHoldings
		}
		balance = wallet.Balance.Add(total)

	default:
		return nil, fmt.Errorf("%w: type must be BUY or SELL", ErrValidationRejected)
	}

	if err := uow.UpdateWalletBalance(ctx, wallet.ID, balance); err != nil {
		return nil, err
	}

	return appendEntry(ctx, uow, wallet, order.Type, order.Asset, order.Amount, price)
}

func appendEntry(ctx context.Context, uow repository.UnitOfWork, wallet *models.Wallet, txnType, asset string, amount, price decimal.Decimal) (*models.Transaction, error) {
	txn := &models.Transaction{
		WalletID:         wallet.ID,
		Type:             txnType,
		Asset:            asset,
		Amount:           amount,
		PriceAtTheMoment: price,
		TotalPayed:       amount.Mul(price).Round(scale),
		Status:           models.TransactionStatusCompleted,
	}

	if err := uow.AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}
