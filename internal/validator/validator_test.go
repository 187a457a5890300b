package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestValidator_CollectsErrors(t *testing.T) {
	var v Validator

	v.Check(NotBlank("  "), "Email is required")
	v.Check(IsEmail("not-an-email"), "Must be a valid email address")
	v.Check(PermittedValue("BUY", "BUY", "SELL"), "Type must be BUY or SELL")

	require.True(t, v.HasErrors())
	require.Equal(t, []string{"Email is required", "Must be a valid email address"}, v.Errors)
}

func TestHelpers(t *testing.T) {
	require.True(t, IsEmail("alice@example.com"))
	require.True(t, Matches("BTC", RgxTicker))
	require.False(t, Matches("BTC/USDT", RgxTicker))
	require.True(t, IsPositive(decimal.RequireFromString("0.00000001")))
	require.False(t, IsPositive(decimal.Zero))
	require.True(t, MaxDecimalPlaces(decimal.RequireFromString("1.12345678"), 8))
	require.False(t, MaxDecimalPlaces(decimal.RequireFromString("1.123456789"), 8))
}

func TestValidator_CheckAmount(t *testing.T) {
	tests := []struct {
		amount string
		errors []string
	}{
		{amount: "0.5"},
		{amount: "0", errors: []string{"Amount must be greater than zero"}},
		{amount: "0.000000001", errors: []string{"Amount has too many decimal places"}},
		{amount: "-0.000000001", errors: []string{"Amount must be greater than zero", "Amount has too many decimal places"}},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			var v Validator
			v.CheckAmount(decimal.RequireFromString(tt.amount), 8)

			require.Equal(t, tt.errors, v.Errors)
		})
	}
}
