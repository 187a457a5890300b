package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryDatabase is an in-process Database. Each wallet has a lease (a
// one-slot channel) that plays the role of the Postgres row lock: it is taken
// by GetWalletForUpdate and given back when the unit of work commits or rolls
// back. Writes are staged on the unit of work and applied on commit.
type MemoryDatabase struct {
	mu sync.Mutex

	nextUserID        int64
	nextWalletID      int64
	nextTransactionID int64

	users        map[int64]models.User
	wallets      map[int64]models.Wallet
	transactions []models.Transaction
	leases       map[int64]chan struct{}
}

func NewMemory() *MemoryDatabase {
	return &MemoryDatabase{
		users:   make(map[int64]models.User),
		wallets: make(map[int64]models.Wallet),
		leases:  make(map[int64]chan struct{}),
	}
}

func (d *MemoryDatabase) User() UserRepository               { return &memoryUsers{db: d} }
func (d *MemoryDatabase) Wallet() WalletRepository           { return &memoryWallets{db: d} }
func (d *MemoryDatabase) Transaction() TransactionRepository { return &memoryTransactions{db: d} }

func (d *MemoryDatabase) Ping(ctx context.Context) error { return nil }
func (d *MemoryDatabase) Close() error                   { return nil }

func (d *MemoryDatabase) WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) (err error) {
	uow := &memoryUnitOfWork{
		db:         d,
		held:       make(map[int64]chan struct{}),
		balances:   make(map[int64]decimal.Decimal),
		savepoints: make(map[string]memorySnapshot),
	}

	defer func() {
		if p := recover(); p != nil {
			uow.release()
			panic(p)
		}
		if err != nil {
			uow.release()
			return
		}
		uow.commit()
	}()

	err = fn(ctx, uow)
	return err
}

func (d *MemoryDatabase) lease(walletID int64) chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.leases[walletID]
	if !ok {
		l = make(chan struct{}, 1)
		d.leases[walletID] = l
	}
	return l
}

func (d *MemoryDatabase) primaryWallet(ownerID int64) (models.Wallet, bool) {
	var (
		found  models.Wallet
		exists bool
	)
	for _, w := range d.wallets {
		if w.UserID == ownerID && (!exists || w.ID < found.ID) {
			found, exists = w, true
		}
	}
	return found, exists
}

type memorySnapshot struct {
	balances     map[int64]decimal.Decimal
	users        int
	wallets      int
	transactions int
}

type memoryUnitOfWork struct {
	db *MemoryDatabase

	held         map[int64]chan struct{}
	balances     map[int64]decimal.Decimal
	users        []models.User
	wallets      []models.Wallet
	transactions []models.Transaction
	savepoints   map[string]memorySnapshot
}

func (u *memoryUnitOfWork) CreateUser(ctx context.Context, user *models.User) error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	for _, existing := range u.db.users {
		if existing.Email == user.Email {
			return ErrDuplicateRecord
		}
	}
	for _, staged := range u.users {
		if staged.Email == user.Email {
			return ErrDuplicateRecord
		}
	}

	u.db.nextUserID++
	user.ID = u.db.nextUserID
	user.CreatedAt = time.Now().UTC()
	u.users = append(u.users, *user)

	return nil
}

func (u *memoryUnitOfWork) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	if wallet.Currency == "" {
		wallet.Currency = models.DefaultCurrency
	}

	u.db.nextWalletID++
	wallet.ID = u.db.nextWalletID
	wallet.Balance = decimal.Zero
	wallet.CreatedAt = time.Now().UTC()
	u.wallets = append(u.wallets, *wallet)

	return nil
}

func (u *memoryUnitOfWork) GetWalletForUpdate(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	for _, staged := range u.wallets {
		if staged.UserID == ownerID {
			w := staged
			if b, ok := u.balances[w.ID]; ok {
				w.Balance = b
			}
			return &w, nil
		}
	}

	u.db.mu.Lock()
	wallet, ok := u.db.primaryWallet(ownerID)
	u.db.mu.Unlock()
	if !ok {
		return nil, ErrRecordNotFound
	}

	if _, held := u.held[wallet.ID]; !held {
		l := u.db.lease(wallet.ID)
		select {
		case l <- struct{}{}:
			u.held[wallet.ID] = l
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// re-read after the lease is ours so the previous holder's commit is visible
	u.db.mu.Lock()
	wallet = u.db.wallets[wallet.ID]
	u.db.mu.Unlock()

	if b, ok := u.balances[wallet.ID]; ok {
		wallet.Balance = b
	}

	return &wallet, nil
}

func (u *memoryUnitOfWork) UpdateWalletBalance(ctx context.Context, walletID int64, balance decimal.Decimal) error {
	if _, held := u.held[walletID]; !held && !u.stagedWallet(walletID) {
		return fmt.Errorf("wallet %d is not leased by this unit of work", walletID)
	}

	u.balances[walletID] = balance
	return nil
}

func (u *memoryUnitOfWork) AppendTransaction(ctx context.Context, txn *models.Transaction) error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	if txn.Status == "" {
		txn.Status = models.TransactionStatusCompleted
	}

	u.db.nextTransactionID++
	txn.ID = u.db.nextTransactionID
	txn.CreatedAt = time.Now().UTC()
	u.transactions = append(u.transactions, *txn)

	return nil
}

func (u *memoryUnitOfWork) SumAssetPosition(ctx context.Context, walletID int64, asset string) (decimal.Decimal, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	position := decimal.Zero
	for _, txns := range [][]models.Transaction{u.db.transactions, u.transactions} {
		for _, t := range txns {
			if t.WalletID != walletID || t.Asset != asset || t.Status != models.TransactionStatusCompleted {
				continue
			}
			switch t.Type {
			case models.TransactionTypeBuy:
				position = position.Add(t.Amount)
			case models.TransactionTypeSell:
				position = position.Sub(t.Amount)
			}
		}
	}

	return position, nil
}

func (u *memoryUnitOfWork) Savepoint(ctx context.Context, name string) error {
	balances := make(map[int64]decimal.Decimal, len(u.balances))
	for id, b := range u.balances {
		balances[id] = b
	}

	u.savepoints[name] = memorySnapshot{
		balances:     balances,
		users:        len(u.users),
		wallets:      len(u.wallets),
		transactions: len(u.transactions),
	}
	return nil
}

// RollbackToSavepoint discards staged writes made after the savepoint. Leases
// taken since then stay held until the unit of work ends.
func (u *memoryUnitOfWork) RollbackToSavepoint(ctx context.Context, name string) error {
	snap, ok := u.savepoints[name]
	if !ok {
		return fmt.Errorf("savepoint %q does not exist", name)
	}

	balances := make(map[int64]decimal.Decimal, len(snap.balances))
	for id, b := range snap.balances {
		balances[id] = b
	}

	u.balances = balances
	u.users = u.users[:snap.users]
	u.wallets = u.wallets[:snap.wallets]
	u.transactions = u.transactions[:snap.transactions]

	return nil
}

func (u *memoryUnitOfWork) stagedWallet(walletID int64) bool {
	for _, w := range u.wallets {
		if w.ID == walletID {
			return true
		}
	}
	return false
}

func (u *memoryUnitOfWork) commit() {
	u.db.mu.Lock()
	for _, user := range u.users {
		u.db.users[user.ID] = user
	}
	for _, wallet := range u.wallets {
		u.db.wallets[wallet.ID] = wallet
	}
	for id, balance := range u.balances {
		w := u.db.wallets[id]
		w.Balance = balance
		u.db.wallets[id] = w
	}
	u.db.transactions = append(u.db.transactions, u.transactions...)
	u.db.mu.Unlock()

	u.release()
}

func (u *memoryUnitOfWork) release() {
	for id, l := range u.held {
		<-l
		delete(u.held, id)
	}
}

type memoryUsers struct {
	db *MemoryDatabase
}

func (r *memoryUsers) GetOne(ctx context.Context, id int64) (*models.User, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	user, ok := r.db.users[id]
	if !ok {
		return nil, false, nil
	}
	return &user, true, nil
}

func (r *memoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, user := range r.db.users {
		if user.Email == email {
			u := user
			return &u, true, nil
		}
	}
	return nil, false, nil
}

type memoryWallets struct {
	db *MemoryDatabase
}

func (r *memoryWallets) GetAllByUserID(ctx context.Context, userID int64) ([]models.Wallet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	wallets := []models.Wallet{}
	for _, w := range r.db.wallets {
		if w.UserID == userID {
			wallets = append(wallets, w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].ID < wallets[j].ID })

	return wallets, nil
}

func (r *memoryWallets) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	wallet, ok := r.db.primaryWallet(userID)
	if !ok {
		return nil, false, nil
	}
	return &wallet, true, nil
}

type memoryTransactions struct {
	db *MemoryDatabase
}

func (r *memoryTransactions) ListByWallet(ctx context.Context, walletID int64, limit, offset int) ([]models.Transaction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	transactions := []models.Transaction{}
	for i := len(r.db.transactions) - 1; i >= 0; i-- {
		if r.db.transactions[i].WalletID == walletID {
			transactions = append(transactions, r.db.transactions[i])
		}
	}

	if offset >= len(transactions) {
		return []models.Transaction{}, nil
	}
	transactions = transactions[offset:]
	if limit > 0 && limit < len(transactions) {
		transactions = transactions[:limit]
	}

	return transactions, nil
}

func (r *memoryTransactions) Positions(ctx context.Context, walletID int64) ([]models.Position, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	totals := make(map[string]decimal.Decimal)
	for _, t := range r.db.transactions {
		if t.WalletID != walletID || t.Status != models.TransactionStatusCompleted {
			continue
		}
		switch t.Type {
		case models.TransactionTypeBuy:
			totals[t.Asset] = totals[t.Asset].Add(t.Amount)
		case models.TransactionTypeSell:
			totals[t.Asset] = totals[t.Asset].Sub(t.Amount)
		}
	}

	positions := []models.Position{}
	for asset, amount := range totals {
		if !amount.IsZero() {
			positions = append(positions, models.Position{Asset: asset, Amount: amount})
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Asset < positions[j].Asset })

	return positions, nil
}
