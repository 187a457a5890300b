package pricing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cradoe/coinledger/internal/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	srv    *httptest.Server
	hits   atomic.Int32
	status int
	body   string
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()

	u := &upstream{status: status, body: body}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		if r.URL.Path != "/api/v3/ticker/price" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(u.status)
		fmt.Fprintf(w, u.body, r.URL.Query().Get("symbol"))
	}))
	t.Cleanup(u.srv.Close)

	return u
}

func newTestOracle(t *testing.T, u *upstream) (*Oracle, *miniredis.Miniredis, *cache.Cache) {
	t.Helper()

	srv := miniredis.RunT(t)
	c := cache.New(srv.Addr(), 0)
	t.Cleanup(func() { _ = c.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	feed := NewBinanceFeed(u.srv.Client(), u.srv.URL, "")

	return NewOracle(c, feed, logger, Options{}), srv, c
}

func TestOracle_CacheAsideWithinTTL(t *testing.T) {
	u := newUpstream(t, http.StatusOK, `{"symbol":"%s","price":"64000.12000000"}`)
	oracle, srv, _ := newTestOracle(t, u)
	ctx := context.Background()

	first, err := oracle.GetPrice(ctx, "BTC")
	require.NoError(t, err)
	require.True(t, first.Equal(decimal.RequireFromString("64000.12")))

	second, err := oracle.GetPrice(ctx, "btc")
	require.NoError(t, err)
	require.True(t, second.Equal(first))
	require.EqualValues(t, 1, u.hits.Load())

	require.True(t, srv.Exists("BTC"))
	require.Equal(t, 5*time.Second, srv.TTL("BTC"))

	srv.FastForward(5 * time.Second)

	_, err = oracle.GetPrice(ctx, "BTC")
	require.NoError(t, err)
	require.EqualValues(t, 2, u.hits.Load())
}

func TestOracle_RejectsUnsupportedTickerWithoutUpstreamCall(t *testing.T) {
	u := newUpstream(t, http.StatusOK, `{"symbol":"%s","price":"1"}`)
	oracle, _, _ := newTestOracle(t, u)

	_, err := oracle.GetPrice(context.Background(), "DOGE")

	require.ErrorIs(t, err, ErrUnavailable)
	require.Zero(t, u.hits.Load())
}

func TestOracle_CachedUnsupportedTickerIsServed(t *testing.T) {
	u := newUpstream(t, http.StatusOK, `{"symbol":"%s","price":"1"}`)
	oracle, srv, _ := newTestOracle(t, u)

	require.NoError(t, srv.Set("DOGE", "0.12"))

	price, err := oracle.GetPrice(context.Background(), "DOGE")
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.RequireFromString("0.12")))
	require.Zero(t, u.hits.Load())
}

func TestOracle_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non-200", status: http.StatusTooManyRequests, body: `{"code":-1003,"msg":"%s"}`},
		{name: "malformed body", status: http.StatusOK, body: `{"symbol":"%s","price":`},
		{name: "zero price", status: http.StatusOK, body: `{"symbol":"%s","price":"0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUpstream(t, tt.status, tt.body)
			oracle, srv, _ := newTestOracle(t, u)

			_, err := oracle.GetPrice(context.Background(), "ETH")

			require.ErrorIs(t, err, ErrUnavailable)
			require.EqualValues(t, 1, u.hits.Load(), "no retry")
			require.False(t, srv.Exists("ETH"))
		})
	}
}

func TestOracle_PublishesFreshPrice(t *testing.T) {
	u := newUpstream(t, http.StatusOK, `{"symbol":"%s","price":"3100.5"}`)
	oracle, _, _ := newTestOracle(t, u)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prices, err := oracle.Subscribe(ctx, "ETH")
	require.NoError(t, err)

	_, err = oracle.GetPrice(context.Background(), "ETH")
	require.NoError(t, err)

	select {
	case price := <-prices:
		require.True(t, price.Equal(decimal.RequireFromString("3100.5")))
	case <-time.After(2 * time.Second):
		t.Fatal("no price published")
	}
}

func TestOracle_CacheOutageStillServesUpstream(t *testing.T) {
	u := newUpstream(t, http.StatusOK, `{"symbol":"%s","price":"64000"}`)
	oracle, srv, _ := newTestOracle(t, u)

	srv.Close()

	price, err := oracle.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromInt(64000)))
}

func TestBinanceFeed_BuildsSymbolWithQuote(t *testing.T) {
	var symbol string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol = r.URL.Query().Get("symbol")
		fmt.Fprint(w, `{"symbol":"ETHEUR","price":"2900.1"}`)
	}))
	defer srv.Close()

	feed := NewBinanceFeed(srv.Client(), srv.URL+"/", "eur")

	price, err := feed.FetchPrice(context.Background(), "eth")
	require.NoError(t, err)
	require.Equal(t, "ETHEUR", symbol)
	require.True(t, price.Equal(decimal.RequireFromString("2900.1")))
}
