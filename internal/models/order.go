package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrMalformedOrder = errors.New("malformed order")

// Order is the payload carried by the order queue. Decimal fields travel as strings.
type Order struct {
	OwnerID int64           `json:"owner_id"`
	Type    string          `json:"type,omitempty"`
	Asset   string          `json:"asset"`
	Amount  decimal.Decimal `json:"amount"`
	Price   decimal.Decimal `json:"price"`
}

func (o Order) Encode() ([]byte, error) {
	return json.Marshal(o)
}

// DecodeOrder parses and validates a queued payload. Orders without a type are
// treated as BUY, the only side the first queue producers emitted.
func DecodeOrder(payload []byte) (*Order, error) {
	var order Order

	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOrder, err)
	}

	order.Asset = strings.ToUpper(strings.TrimSpace(order.Asset))
	order.Type = strings.ToUpper(strings.TrimSpace(order.Type))
	if order.Type == "" {
		order.Type = TransactionTypeBuy
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return &order, nil
}

func (o Order) Validate() error {
	switch {
	case o.OwnerID <= 0:
		return fmt.Errorf("%w: owner_id is required", ErrMalformedOrder)
	case o.Asset == "":
		return fmt.Errorf("%w: asset is required", ErrMalformedOrder)
	case !IsTradeType(o.Type):
		return fmt.Errorf("%w: unknown type %q", ErrMalformedOrder, o.Type)
	case !o.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be greater than zero", ErrMalformedOrder)
	case o.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrMalformedOrder)
	}
	return nil
}
