package handler

import (
	"net/http"
	"time"

	"github.com/cradoe/coinledger/internal/context"
	"github.com/cradoe/coinledger/internal/errHandler"
	"github.com/cradoe/coinledger/internal/models"
	"github.com/cradoe/coinledger/internal/request"
	"github.com/cradoe/coinledger/internal/response"
	"github.com/cradoe/coinledger/internal/validator"

	"github.com/shopspring/decimal"
)

type WalletResponseData struct {
	ID        int64           `json:"id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

func newWalletResponseData(wallet *models.Wallet) WalletResponseData {
	return WalletResponseData{
		ID:        wallet.ID,
		Currency:  wallet.Currency,
		Balance:   wallet.Balance,
		CreatedAt: wallet.CreatedAt,
	}
}

type TransactionResponseData struct {
	ID               int64           `json:"id"`
	WalletID         int64           `json:"wallet_id"`
	Type             string          `json:"type"`
	Asset            string          `json:"asset"`
	Amount           decimal.Decimal `json:"amount"`
	PriceAtTheMoment decimal.Decimal `json:"price_at_the_moment"`
	TotalPayed       decimal.Decimal `json:"total_payed"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

func newTransactionResponseData(txn *models.Transaction) TransactionResponseData {
	return TransactionResponseData{
		ID:               txn.ID,
		WalletID:         txn.WalletID,
		Type:             txn.Type,
		Asset:            txn.Asset,
		Amount:           txn.Amount,
		PriceAtTheMoment: txn.PriceAtTheMoment,
		TotalPayed:       txn.TotalPayed,
		Status:           txn.Status,
		CreatedAt:        txn.CreatedAt,
	}
}

type PositionResponseData struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

type WalletHandler struct {
	Ledger     LedgerService
	ErrHandler *errHandler.ErrorRepository
}

func NewWalletHandler(handler *WalletHandler) *WalletHandler {
	return &WalletHandler{
		Ledger:     handler.Ledger,
		ErrHandler: handler.ErrHandler,
	}
}

type amountInput struct {
	Amount    decimal.Decimal     `json:"amount"`
	Validator validator.Validator `json:"-"`
}

func (h *WalletHandler) decodeAmount(w http.ResponseWriter, r *http.Request) (decimal.Decimal, bool) {
	var input amountInput

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return decimal.Zero, false
	}

	input.Validator.CheckAmount(input.Amount, amountScale)

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return decimal.Zero, false
	}

	return input.Amount, true
}

func (h *WalletHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	ownerID := context.ContextGetOwnerID(r)

	amount, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}

	txn, err := h.Ledger.Deposit(r.Context(), ownerID, amount)
	if err != nil {
		h.ErrHandler.LedgerError(w, r, err)
		return
	}

	err = response.JSONAcceptedResponse(w, newTransactionResponseData(txn), "Deposit successful")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ownerID := context.ContextGetOwnerID(r)

	amount, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}

	txn, err := h.Ledger.Withdraw(r.Context(), ownerID, amount)
	if err != nil {
		h.ErrHandler.LedgerError(w, r, err)
		return
	}

	err = response.JSONAcceptedResponse(w, newTransactionResponseData(txn), "Withdrawal successful")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WalletHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	ownerID := context.ContextGetOwnerID(r)

	positions, err := h.Ledger.Positions(r.Context(), ownerID)
	if err != nil {
		h.ErrHandler.LedgerError(w, r, err)
		return
	}

	data := make([]PositionResponseData, 0, len(positions))
	for _, p := range positions {
		data = append(data, PositionResponseData{Asset: p.Asset, Amount: p.Amount})
	}

	err = response.JSONOkResponse(w, data, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
