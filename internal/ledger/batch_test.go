package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestApplyOrders_SkipsFailedOrdersAndCommitsTheRest(t *testing.T) {
	svc, db, prices := newTestService(t)
	alice := openFundedAccount(t, svc, "alice@example.com", "1000")
	bob := openFundedAccount(t, svc, "bob@example.com", "50")

	orders := []models.Order{
		{OwnerID: alice, Type: "BUY", Asset: "BTC", Amount: dec("1"), Price: dec("100")},
		{OwnerID: alice, Type: "SELL", Asset: "BTC", Amount: dec("5"), Price: dec("100")},
		{OwnerID: bob, Type: "BUY", Asset: "ETH", Amount: dec("1"), Price: dec("40")},
		{OwnerID: 999, Type: "BUY", Asset: "ETH", Amount: dec("1"), Price: dec("40")},
		{OwnerID: alice, Type: "SELL", Asset: "BTC", Amount: dec("0.5"), Price: dec("120")},
	}

	failed := map[int]error{}
	applied, err := svc.ApplyOrders(context.Background(), orders, func(i int, order models.Order, err error) {
		failed[i] = err
	})

	require.NoError(t, err)
	require.Equal(t, 3, applied)
	require.Len(t, failed, 2)
	require.ErrorIs(t, failed[1], ErrInsufficientHoldings)
	require.ErrorIs(t, failed[3], ErrNotFound)

	require.True(t, balanceOf(t, db, alice).Equal(dec("960")))
	require.True(t, balanceOf(t, db, bob).Equal(dec("10")))

	positions, err := svc.Positions(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.True(t, positions[0].Amount.Equal(dec("0.5")))

	prices.AssertNotCalled(t, "GetPrice", mock.Anything, mock.Anything)
}

func TestApplyOrders_FallsBackToOraclePrice(t *testing.T) {
	svc, db, prices := newTestService(t)
	owner := openFundedAccount(t, svc, "oracle@example.com", "100")
	prices.On("GetPrice", mock.Anything, "ETH").Return(dec("25"), nil).Once()

	applied, err := svc.ApplyOrders(context.Background(), []models.Order{
		{OwnerID: owner, Type: "BUY", Asset: "ETH", Amount: dec("2")},
	}, nil)

	require.NoError(t, err)
	require.Equal(t, 1, applied)
	require.True(t, balanceOf(t, db, owner).Equal(dec("50")))
	prices.AssertExpectations(t)
}

func TestApplyOrders_InvalidOrderIsRejected(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := openFundedAccount(t, svc, "invalid@example.com", "100")

	var got error
	applied, err := svc.ApplyOrders(context.Background(), []models.Order{
		{OwnerID: owner, Type: "BUY", Asset: "BTC", Amount: decimal.Zero, Price: dec("1")},
	}, func(_ int, _ models.Order, err error) {
		got = err
	})

	require.NoError(t, err)
	require.Zero(t, applied)
	require.ErrorIs(t, got, ErrValidationRejected)
	require.ErrorIs(t, got, models.ErrMalformedOrder)
	require.True(t, balanceOf(t, db, owner).Equal(dec("100")))
}

func TestApplyOrders_PriceFailureSkipsOnlyThatOrder(t *testing.T) {
	svc, db, prices := newTestService(t)
	owner := openFundedAccount(t, svc, "mixed@example.com", "100")
	prices.On("GetPrice", mock.Anything, "BTC").Return(decimal.Zero, errors.New("timeout"))

	var failures int
	applied, err := svc.ApplyOrders(context.Background(), []models.Order{
		{OwnerID: owner, Type: "BUY", Asset: "BTC", Amount: dec("1")},
		{OwnerID: owner, Type: "BUY", Asset: "ETH", Amount: dec("1"), Price: dec("30")},
	}, func(_ int, _ models.Order, err error) {
		require.ErrorIs(t, err, ErrPriceUnavailable)
		failures++
	})

	require.NoError(t, err)
	require.Equal(t, 1, applied)
	require.Equal(t, 1, failures)
	require.True(t, balanceOf(t, db, owner).Equal(dec("70")))
}
