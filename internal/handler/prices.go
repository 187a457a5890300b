package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cradoe/coinledger/internal/errHandler"
	"github.com/cradoe/coinledger/internal/response"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	streamWriteWait    = 10 * time.Second
	streamPongWait     = 60 * time.Second
	streamPingInterval = (streamPongWait * 9) / 10
)

// PriceService is the oracle surface the price endpoints depend on.
type PriceService interface {
	GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
	Subscribe(ctx context.Context, ticker string) (<-chan decimal.Decimal, error)
	Supports(ticker string) bool
}

type PriceResponseData struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
}

type PriceHandler struct {
	Oracle     PriceService
	Logger     *slog.Logger
	ErrHandler *errHandler.ErrorRepository
	upgrader   websocket.Upgrader
}

func NewPriceHandler(handler *PriceHandler) *PriceHandler {
	return &PriceHandler{
		Oracle:     handler.Oracle,
		Logger:     handler.Logger,
		ErrHandler: handler.ErrHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the stream is public market data, browsers on any origin may read it
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *PriceHandler) HandleGetPrice(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))

	price, err := h.Oracle.GetPrice(r.Context(), ticker)
	if err != nil {
		h.ErrHandler.LedgerError(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, PriceResponseData{Ticker: ticker, Price: price}, "", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandlePriceStream upgrades to a websocket and pushes every price published
// for the ticker. The current price, when known, is sent first.
func (h *PriceHandler) HandlePriceStream(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))

	if !h.Oracle.Supports(ticker) {
		h.ErrHandler.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	prices, err := h.Oracle.Subscribe(ctx, ticker)
	if err != nil {
		h.ErrHandler.LedgerError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		h.Logger.Warn("price stream upgrade failed", "ticker", ticker, "error", err)
		return
	}
	defer conn.Close()

	h.Logger.Info("price stream opened", "ticker", ticker)
	defer h.Logger.Info("price stream closed", "ticker", ticker)

	go h.readUntilClosed(conn, cancel)

	if price, err := h.Oracle.GetPrice(ctx, ticker); err == nil {
		if !h.push(conn, ticker, price) {
			return
		}
	}

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait))
			return
		case price, ok := <-prices:
			if !ok {
				return
			}
			if !h.push(conn, ticker, price) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func (h *PriceHandler) push(conn *websocket.Conn, ticker string, price decimal.Decimal) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))

	if err := conn.WriteJSON(PriceResponseData{Ticker: ticker, Price: price}); err != nil {
		h.Logger.Debug("price stream write failed", "ticker", ticker, "error", err)
		return false
	}
	return true
}

// readUntilClosed drains client frames so control messages are processed and
// cancels the stream once the client goes away.
func (h *PriceHandler) readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
