package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultCacheTTL     = 5 * time.Second
	DefaultFetchTimeout = 5 * time.Second
)

var DefaultSupportedAssets = []string{"BTC", "ETH"}

var ErrUnavailable = errors.New("price unavailable")

// PriceCache is the subset of the Redis cache the oracle needs.
type PriceCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channel string) (<-chan string, error)
}

// Feed fetches the current price of a ticker from an upstream market.
type Feed interface {
	FetchPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

type Options struct {
	SupportedAssets []string
	CacheTTL        time.Duration
	FetchTimeout    time.Duration
}

// Oracle answers price queries cache-aside: a cached price is returned as is,
// a miss for a supported ticker triggers exactly one upstream fetch whose
// result is cached for CacheTTL and published on the ticker's channel.
type Oracle struct {
	cache     PriceCache
	feed      Feed
	logger    *slog.Logger
	supported map[string]struct{}
	ttl       time.Duration
	timeout   time.Duration
}

// NewOracle builds an Oracle. cache may be nil, in which case every query
// goes upstream and nothing is published.
func NewOracle(cache PriceCache, feed Feed, logger *slog.Logger, opts Options) *Oracle {
	if len(opts.SupportedAssets) == 0 {
		opts.SupportedAssets = DefaultSupportedAssets
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}

	supported := make(map[string]struct{}, len(opts.SupportedAssets))
	for _, a := range opts.SupportedAssets {
		supported[strings.ToUpper(strings.TrimSpace(a))] = struct{}{}
	}

	return &Oracle{
		cache:     cache,
		feed:      feed,
		logger:    logger,
		supported: supported,
		ttl:       opts.CacheTTL,
		timeout:   opts.FetchTimeout,
	}
}

// ChannelName is the pub/sub channel fresh prices for ticker are published on.
func ChannelName(ticker string) string {
	return "price_of_" + ticker
}

func (o *Oracle) Supports(ticker string) bool {
	_, ok := o.supported[strings.ToUpper(ticker)]
	return ok
}

func (o *Oracle) GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if price, ok := o.cached(ctx, ticker); ok {
		return price, nil
	}

	if !o.Supports(ticker) {
		return decimal.Zero, fmt.Errorf("%w: %s is not a supported asset", ErrUnavailable, ticker)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	price, err := o.feed.FetchPrice(fetchCtx, ticker)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrUnavailable, ticker, err)
	}

	o.remember(ctx, ticker, price)

	return price, nil
}

// Subscribe streams every price published for ticker until ctx is done.
// Messages that do not parse as a decimal are dropped.
func (o *Oracle) Subscribe(ctx context.Context, ticker string) (<-chan decimal.Decimal, error) {
	if o.cache == nil {
		return nil, fmt.Errorf("%w: live prices need a cache", ErrUnavailable)
	}

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !o.Supports(ticker) {
		return nil, fmt.Errorf("%w: %s is not a supported asset", ErrUnavailable, ticker)
	}

	messages, err := o.cache.Subscribe(ctx, ChannelName(ticker))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	prices := make(chan decimal.Decimal)
	go func() {
		defer close(prices)

		for msg := range messages {
			price, err := decimal.NewFromString(msg)
			if err != nil {
				o.logger.Warn("dropping malformed price message", "ticker", ticker, "message", msg)
				continue
			}

			select {
			case prices <- price:
			case <-ctx.Done():
				return
			}
		}
	}()

	return prices, nil
}

func (o *Oracle) cached(ctx context.Context, ticker string) (decimal.Decimal, bool) {
	if o.cache == nil {
		return decimal.Zero, false
	}

	value, found, err := o.cache.Get(ctx, ticker)
	if err != nil {
		o.logger.Warn("price cache read failed", "ticker", ticker, "error", err)
		return decimal.Zero, false
	}
	if !found {
		return decimal.Zero, false
	}

	price, err := decimal.NewFromString(value)
	if err != nil {
		o.logger.Warn("ignoring malformed cached price", "ticker", ticker, "value", value)
		return decimal.Zero, false
	}

	return price, true
}

// remember caches and publishes a fresh price. Failures are logged and
// otherwise ignored: the caller already has its price.
func (o *Oracle) remember(ctx context.Context, ticker string, price decimal.Decimal) {
	if o.cache == nil {
		return
	}

	value := price.String()

	if err := o.cache.SetEx(ctx, ticker, value, o.ttl); err != nil {
		o.logger.Warn("price cache write failed", "ticker", ticker, "error", err)
		return
	}

	if err := o.cache.Publish(ctx, ChannelName(ticker), value); err != nil {
		o.logger.Warn("price publish failed", "ticker", ticker, "error", err)
	}
}
