package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cradoe/coinledger/internal/pricing"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var _ PriceService = (*pricing.Oracle)(nil)

type stubOracle struct {
	stubPrices
	feed chan decimal.Decimal
}

func (s *stubOracle) Supports(ticker string) bool {
	_, ok := s.stubPrices[ticker]
	return ok
}

func (s *stubOracle) Subscribe(ctx context.Context, ticker string) (<-chan decimal.Decimal, error) {
	return s.feed, nil
}

func newTestPriceHandler(oracle PriceService) *PriceHandler {
	return NewPriceHandler(&PriceHandler{
		Oracle:     oracle,
		Logger:     discardLogger(),
		ErrHandler: newTestErrHandler(),
	})
}

func TestHandleGetPrice(t *testing.T) {
	h := newTestPriceHandler(&stubOracle{stubPrices: stubPrices{"BTC": decimal.RequireFromString("64000.5")}})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices/{ticker}", h.HandleGetPrice)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/prices/btc", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var data PriceResponseData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &data))
	require.Equal(t, "BTC", data.Ticker)
	require.True(t, data.Price.Equal(decimal.RequireFromString("64000.5")))

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/prices/doge", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHandlePriceStream_PushesPublishedPrices(t *testing.T) {
	oracle := &stubOracle{
		stubPrices: stubPrices{"ETH": decimal.NewFromInt(3000)},
		feed:       make(chan decimal.Decimal),
	}
	h := newTestPriceHandler(oracle)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices/{ticker}/stream", h.HandlePriceStream)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/prices/eth/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first PriceResponseData
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "ETH", first.Ticker)
	require.True(t, first.Price.Equal(decimal.NewFromInt(3000)))

	oracle.feed <- decimal.NewFromInt(3100)

	var next PriceResponseData
	require.NoError(t, conn.ReadJSON(&next))
	require.True(t, next.Price.Equal(decimal.NewFromInt(3100)))
}

func TestHandlePriceStream_UnknownTicker(t *testing.T) {
	h := newTestPriceHandler(&stubOracle{stubPrices: stubPrices{}})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices/{ticker}/stream", h.HandlePriceStream)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/prices/nope/stream", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
}
