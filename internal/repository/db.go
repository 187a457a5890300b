package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cradoe/coinledger/assets"
	"github.com/cradoe/coinledger/internal/models"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("record already exists")
)

// Database interface defines available repositories
type Database interface {
	User() UserRepository
	Wallet() WalletRepository
	Transaction() TransactionRepository

	// WithinUnitOfWork runs fn inside one database transaction. The transaction
	// commits when fn returns nil and rolls back on error or panic; wallet
	// leases taken through the UnitOfWork are released either way.
	WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error

	Ping(ctx context.Context) error
	Close() error
}

// UnitOfWork is the set of writes that must commit or roll back together.
type UnitOfWork interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateWallet(ctx context.Context, wallet *models.Wallet) error

	// GetWalletForUpdate returns the owner's wallet and holds an exclusive lease
	// on it until the unit of work ends. Calling it again for a wallet already
	// leased by the same unit of work does not block.
	GetWalletForUpdate(ctx context.Context, ownerID int64) (*models.Wallet, error)
	UpdateWalletBalance(ctx context.Context, walletID int64, balance decimal.Decimal) error
	AppendTransaction(ctx context.Context, txn *models.Transaction) error
	SumAssetPosition(ctx context.Context, walletID int64, asset string) (decimal.Decimal, error)

	Savepoint(ctx context.Context, name string) error
	RollbackToSavepoint(ctx context.Context, name string) error
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db              *sqlx.DB
	userRepo        UserRepository
	walletRepo      WalletRepository
	transactionRepo TransactionRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	// Run migrations if enabled
	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection pool. Repositories are created lazily.
func NewWithDB(db *sqlx.DB) *DatabaseImpl {
	return &DatabaseImpl{db: db}
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseImpl) WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) (err error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit unit of work: %w", cerr)
		}
	}()

	err = fn(ctx, &unitOfWork{tx: tx})
	return err
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Wallet() WalletRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.walletRepo == nil {
		d.walletRepo = NewWalletRepository(d.db)
	}
	return d.walletRepo
}

func (d *DatabaseImpl) Transaction() TransactionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transactionRepo == nil {
		d.transactionRepo = NewTransactionRepository(d.db)
	}
	return d.transactionRepo
}
