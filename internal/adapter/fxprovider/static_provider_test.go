package fxprovider

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStaticProviderDirectQuote(t *testing.T) {
	provider := NewStaticProvider("static", map[string]decimal.Decimal{
		"USD/EUR": decimal.RequireFromString("0.90"),
	})

	rate, err := provider.FetchRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	require.Equal(t, "0.9", rate.Mid.String())
	require.Equal(t, "static", rate.Provider)
}

func TestStaticProviderDerivesInverse(t *testing.T) {
	provider := NewStaticProvider("static", map[string]decimal.Decimal{
		"USD/EUR": decimal.RequireFromString("0.80"),
	})

	rate, err := provider.FetchRate(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	require.Equal(t, "1.25", rate.Mid.String())
}

func TestStaticProviderUnknownPair(t *testing.T) {
	provider := NewStaticProvider("static", map[string]decimal.Decimal{
		"USD/EUR": decimal.RequireFromString("0.90"),
	})

	_, err := provider.FetchRate(context.Background(), "USD", "JPY")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no quote for USD/JPY")
}
