package handler

import (
	"context"
	"net/http"
	"strings"

	appctx "github.com/cradoe/coinledger/internal/context"
	"github.com/cradoe/coinledger/internal/errHandler"
	"github.com/cradoe/coinledger/internal/models"
	"github.com/cradoe/coinledger/internal/request"
	"github.com/cradoe/coinledger/internal/response"
	"github.com/cradoe/coinledger/internal/validator"

	"github.com/shopspring/decimal"
)

// OrderQueue accepts orders for the batch worker.
type OrderQueue interface {
	Enqueue(ctx context.Context, order models.Order) error
}

type OrderResponseData struct {
	OwnerID int64           `json:"owner_id"`
	Type    string          `json:"type"`
	Asset   string          `json:"asset"`
	Amount  decimal.Decimal `json:"amount"`
	Price   decimal.Decimal `json:"price"`
}

type TradeHandler struct {
	Ledger     LedgerService
	Queue      OrderQueue
	ErrHandler *errHandler.ErrorRepository
}

func NewTradeHandler(handler *TradeHandler) *TradeHandler {
	return &TradeHandler{
		Ledger:     handler.Ledger,
		Queue:      handler.Queue,
		ErrHandler: handler.ErrHandler,
	}
}

type tradeInput struct {
	Type      string              `json:"type"`
	Asset     string              `json:"asset"`
	Amount    decimal.Decimal     `json:"amount"`
	Validator validator.Validator `json:"-"`
}

func (h *TradeHandler) decodeTrade(w http.ResponseWriter, r *http.Request) (*tradeInput, bool) {
	var input tradeInput

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return nil, false
	}

	input.Type = strings.ToUpper(strings.TrimSpace(input.Type))
	input.Asset = strings.ToUpper(strings.TrimSpace(input.Asset))

	input.Validator.Check(validator.PermittedValue(input.Type, models.TransactionTypeBuy, models.TransactionTypeSell), "Type must be BUY or SELL")
	input.Validator.Check(validator.NotBlank(input.Asset), "Asset is required")
	input.Validator.Check(validator.Matches(input.Asset, validator.RgxTicker), "Asset must be a ticker symbol")
	input.Validator.CheckAmount(input.Amount, amountScale)

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return nil, false
	}

	return &input, true
}

// HandleTrade executes a BUY or SELL synchronously at the oracle price.
func (h *TradeHandler) HandleTrade(w http.ResponseWriter, r *http.Request) {
	ownerID := appctx.ContextGetOwnerID(r)

	input, ok := h.decodeTrade(w, r)
	if !ok {
		return
	}

	txn, err := h.Ledger.Trade(r.Context(), ownerID, input.Type, input.Asset, input.Amount)
	if err != nil {
		h.ErrHandler.LedgerError(w, r, err)
		return
	}

	err = response.JSONAcceptedResponse(w, newTransactionResponseData(txn), "Trade executed")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleSubmitOrder quotes the asset and hands the order to the batch worker.
// Nothing is written to the ledger until the worker applies it.
func (h *TradeHandler) HandleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	ownerID := appctx.ContextGetOwnerID(r)

	input, ok := h.decodeTrade(w, r)
	if !ok {
		return
	}

	price, err := h.Ledger.Quote(r.Context(), input.Asset)
	if err != nil {
		h.ErrHandler.LedgerError(w, r, err)
		return
	}

	order := models.Order{
		OwnerID: ownerID,
		Type:    input.Type,
		Asset:   input.Asset,
		Amount:  input.Amount,
		Price:   price,
	}

	err = h.Queue.Enqueue(r.Context(), order)
	if err != nil {
		h.ErrHandler.LedgerError(w, r, err)
		return
	}

	data := OrderResponseData{
		OwnerID: order.OwnerID,
		Type:    order.Type,
		Asset:   order.Asset,
		Amount:  order.Amount,
		Price:   order.Price,
	}

	err = response.JSONAcceptedResponse(w, data, "Order queued")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
