package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDecodeOrder_Valid(t *testing.T) {
	payload := []byte(`{"owner_id":7,"type":"sell","asset":" btc ","amount":"0.25","price":"64000.5"}`)

	order, err := DecodeOrder(payload)
	require.NoError(t, err)

	require.Equal(t, int64(7), order.OwnerID)
	require.Equal(t, TransactionTypeSell, order.Type)
	require.Equal(t, "BTC", order.Asset)
	require.True(t, order.Amount.Equal(decimal.RequireFromString("0.25")))
	require.True(t, order.Price.Equal(decimal.RequireFromString("64000.5")))
}

func TestDecodeOrder_DefaultsToBuy(t *testing.T) {
	order, err := DecodeOrder([]byte(`{"owner_id":1,"asset":"ETH","amount":"1","price":"3000"}`))
	require.NoError(t, err)
	require.Equal(t, TransactionTypeBuy, order.Type)
}

func TestDecodeOrder_Rejects(t *testing.T) {
	tests := map[string]string{
		"not json":      `{"owner_id":`,
		"missing owner": `{"asset":"BTC","amount":"1","price":"1"}`,
		"zero amount":   `{"owner_id":1,"asset":"BTC","amount":"0","price":"1"}`,
		"negative":      `{"owner_id":1,"asset":"BTC","amount":"-2","price":"1"}`,
		"bad type":      `{"owner_id":1,"type":"HOLD","asset":"BTC","amount":"1","price":"1"}`,
		"no asset":      `{"owner_id":1,"amount":"1","price":"1"}`,
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeOrder([]byte(payload))
			require.True(t, errors.Is(err, ErrMalformedOrder), "got %v", err)
		})
	}
}

func TestOrderEncode_DecimalsAsStrings(t *testing.T) {
	order := Order{OwnerID: 3, Type: TransactionTypeBuy, Asset: "BTC", Amount: decimal.RequireFromString("1.5"), Price: decimal.RequireFromString("10")}

	payload, err := order.Encode()
	require.NoError(t, err)
	require.JSONEq(t, `{"owner_id":3,"type":"BUY","asset":"BTC","amount":"1.5","price":"10"}`, string(payload))
}
