package handler

import (
	"net/http"
	"time"

	"github.com/cradoe/coinledger/internal/context"
	"github.com/cradoe/coinledger/internal/errHandler"
	"github.com/cradoe/coinledger/internal/models"
	"github.com/cradoe/coinledger/internal/repository"
	"github.com/cradoe/coinledger/internal/response"
)

type UserResponseData struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponseData(user *models.User) UserResponseData {
	return UserResponseData{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

type UserProfile struct {
	User         UserResponseData          `json:"user"`
	Wallets      []WalletResponseData      `json:"wallets"`
	Transactions []TransactionResponseData `json:"transactions"`
}

type UserHandler struct {
	WalletRepo      repository.WalletRepository
	TransactionRepo repository.TransactionRepository
	ErrHandler      *errHandler.ErrorRepository
}

func NewUserHandler(handler *UserHandler) *UserHandler {
	return &UserHandler{
		WalletRepo:      handler.WalletRepo,
		TransactionRepo: handler.TransactionRepo,
		ErrHandler:      handler.ErrHandler,
	}
}

// HandleGetUser returns the authenticated user with their wallets and a page
// of ledger entries across those wallets, newest first.
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	query := retrieveUrlQueryValues(r)

	wallets, err := h.WalletRepo.GetAllByUserID(r.Context(), user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	profile := UserProfile{
		User:         newUserResponseData(user),
		Wallets:      make([]WalletResponseData, 0, len(wallets)),
		Transactions: []TransactionResponseData{},
	}

	for i := range wallets {
		profile.Wallets = append(profile.Wallets, newWalletResponseData(&wallets[i]))

		txns, err := h.TransactionRepo.ListByWallet(r.Context(), wallets[i].ID, query.Limit, query.Offset)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		for j := range txns {
			profile.Transactions = append(profile.Transactions, newTransactionResponseData(&txns[j]))
		}
	}

	err = response.JSONOkResponse(w, profile, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
