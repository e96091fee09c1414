package broker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/jpillora/backoff"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/tradewire-lab/fxrelay/internal/instrument"
	"github.com/tradewire-lab/fxrelay/internal/logger"
	"github.com/tradewire-lab/fxrelay/internal/types"
	"github.com/tradewire-lab/fxrelay/pkg/errors"
	"go.uber.org/zap"
)

// Default client behaviour. Reads are retried; order placement never is,
// because a retried placement can double-fill.
const (
	DefaultTimeout       = 10 * time.Second
	DefaultReadRetries   = 3
	DefaultRetryInterval = 1 * time.Second
)

// Config contains the venue connection settings.
type Config struct {
	// BaseURL is the venue REST root, e.g. https://api-fxpractice.oanda.com
	BaseURL string `yaml:"base_url" json:"base_url" jsonschema:"title=Base URL,description=Venue REST API root URL" validate:"required,url"`
	// AccountID is the venue account the relay trades on
	AccountID string `yaml:"account_id" json:"account_id" jsonschema:"title=Account ID,description=Venue account identifier" validate:"required"`
	// Token is the bearer credential. Supplied via environment, never logged.
	Token string `yaml:"-" json:"-" validate:"required"`
	// Timeout bounds every HTTP call
	Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"title=Timeout,description=Per-request timeout"`
	// ReadRetries is the attempt budget for read calls
	ReadRetries int `yaml:"read_retries" json:"read_retries" jsonschema:"title=Read Retries,description=Attempt budget for read calls"`
	// RetryInterval is the fixed delay between read retries
	RetryInterval time.Duration `yaml:"retry_interval" json:"retry_interval" jsonschema:"title=Retry Interval,description=Delay between read retries"`
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid broker config", err)
	}

	return nil
}

// OandaClient implements Broker against an OANDA-style v3 REST API.
// It is stateless - all data is fetched directly from the venue.
type OandaClient struct {
	http        *resty.Client
	accountID   string
	instruments *instrument.Table
	log         *logger.Logger
	retries     int
	interval    time.Duration
}

// NewOandaClient creates a venue client from config.
func NewOandaClient(config Config, instruments *instrument.Table, log *logger.Logger) (*OandaClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	if config.ReadRetries <= 0 {
		config.ReadRetries = DefaultReadRetries
	}

	if config.RetryInterval <= 0 {
		config.RetryInterval = DefaultRetryInterval
	}

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetAuthToken(config.Token).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json")

	c := &OandaClient{
		http:        client,
		accountID:   config.AccountID,
		instruments: instruments,
		log:         log,
		retries:     config.ReadRetries,
		interval:    config.RetryInterval,
	}

	// Every venue call is audit-logged with method, URL, status, and body.
	// The Authorization header is deliberately not part of the record.
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		c.log.Info("venue call",
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)

		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		c.log.Warn("venue call failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(err),
		)
	})

	return c, nil
}

func (c *OandaClient) accountPath(suffix string) string {
	return fmt.Sprintf("/v3/accounts/%s/%s", c.accountID, suffix)
}

// getWithRetry performs a GET with the configured attempt budget. Transient
// failures (transport errors, 5xx) are retried with a fixed delay; 4xx
// responses are not, since retrying a rejected request cannot help.
func (c *OandaClient) getWithRetry(ctx context.Context, path string, query map[string]string, out any) error {
	delay := &backoff.Backoff{
		Min:    c.interval,
		Max:    c.interval,
		Factor: 1,
		Jitter: false,
	}

	var lastErr error

	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Wrap(errors.ErrCodeBrokerUnavailable, "venue read cancelled", ctx.Err())
			case <-time.After(delay.Duration()):
			}
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(query).
			SetResult(out).
			Get(path)

		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode() >= 500:
			lastErr = fmt.Errorf("venue returned %d: %s", resp.StatusCode(), resp.String())
		case resp.IsError():
			return errors.Newf(errors.ErrCodeBrokerBadResponse, "venue returned %d: %s", resp.StatusCode(), resp.String())
		default:
			return nil
		}
	}

	return errors.Wrapf(errors.ErrCodeBrokerUnavailable, lastErr, "venue read failed after %d attempts", c.retries)
}

// GetOpenPosition returns the position for a symbol, or None when the venue
// reports no exposure on it.
func (c *OandaClient) GetOpenPosition(ctx context.Context, symbol string) (optional.Option[types.Position], error) {
	var out openPositionsResponse
	if err := c.getWithRetry(ctx, c.accountPath("openPositions"), nil, &out); err != nil {
		return optional.None[types.Position](), err
	}

	for _, p := range out.Positions {
		if p.Instrument != symbol {
			continue
		}

		longUnits, err := parseUnits(p.Long.Units)
		if err != nil {
			return optional.None[types.Position](), errors.Wrapf(errors.ErrCodeBrokerBadResponse, err, "bad long units %q", p.Long.Units)
		}

		shortUnits, err := parseUnits(p.Short.Units)
		if err != nil {
			return optional.None[types.Position](), errors.Wrapf(errors.ErrCodeBrokerBadResponse, err, "bad short units %q", p.Short.Units)
		}

		// Normalize polarity: short exposure is always non-positive here,
		// whatever sign convention the venue uses on the wire.
		if shortUnits > 0 {
			shortUnits = -shortUnits
		}

		position := types.Position{
			Symbol:     symbol,
			LongUnits:  longUnits,
			ShortUnits: shortUnits,
		}

		if position.IsFlat() {
			return optional.None[types.Position](), nil
		}

		return optional.Some(position), nil
	}

	return optional.None[types.Position](), nil
}

// GetPendingOrders returns the resting orders for a symbol.
func (c *OandaClient) GetPendingOrders(ctx context.Context, symbol string) ([]types.PendingOrder, error) {
	var out pendingOrdersResponse

	query := map[string]string{
		"instrument": symbol,
		"state":      "PENDING",
	}

	if err := c.getWithRetry(ctx, c.accountPath("orders"), query, &out); err != nil {
		return nil, err
	}

	orders := make([]types.PendingOrder, 0, len(out.Orders))

	for _, o := range out.Orders {
		orderType, ok := mapOrderType(o.Type)
		if !ok {
			// Venue-managed orders (TAKE_PROFIT, STOP_LOSS, ...) are not
			// resting entries and never participate in dedupe or cancels.
			continue
		}

		units, err := parseUnits(o.Units)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeBrokerBadResponse, err, "bad order units %q", o.Units)
		}

		price, err := decimal.NewFromString(o.Price)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeBrokerBadResponse, err, "bad order price %q", o.Price)
		}

		orders = append(orders, types.PendingOrder{
			ID:     o.ID,
			Symbol: o.Instrument,
			Type:   orderType,
			Price:  price,
			Units:  units,
		})
	}

	return orders, nil
}

// CancelOrder cancels a pending order. A 404 means the order already filled
// or was already cancelled, which is success for our purposes.
func (c *OandaClient) CancelOrder(ctx context.Context, orderID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Put(c.accountPath("orders/" + orderID + "/cancel"))
	if err != nil {
		return errors.Wrap(errors.ErrCodeBrokerUnavailable, "cancel request failed", err)
	}

	switch {
	case resp.StatusCode() == 404:
		return nil
	case resp.StatusCode() >= 500:
		return errors.Newf(errors.ErrCodeBrokerUnavailable, "cancel returned %d: %s", resp.StatusCode(), resp.String())
	case resp.IsError():
		return errors.Newf(errors.ErrCodeCancelFailed, "cancel returned %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// PlaceOrder places a single order. Never retried.
func (c *OandaClient) PlaceOrder(ctx context.Context, spec types.OrderSpec) (types.OrderResult, error) {
	if err := spec.Validate(); err != nil {
		return types.OrderResult{}, err
	}

	body := orderRequestBody{
		Type:         string(spec.Type),
		Instrument:   spec.Symbol,
		Units:        strconv.FormatInt(spec.Units, 10),
		TimeInForce:  string(spec.TimeInForce),
		PositionFill: "DEFAULT",
		ClientExtensions: &clientExtensions{
			ID: spec.ClientID,
		},
	}

	if spec.Price.IsSome() {
		body.Price = c.instruments.FormatPrice(spec.Symbol, spec.Price.Unwrap())
	}

	if spec.StopLoss.IsSome() {
		body.StopLossOnFill = &stopLossOnFill{
			Price: c.instruments.FormatPrice(spec.Symbol, spec.StopLoss.Unwrap()),
		}
	}

	if spec.TakeProfit.IsSome() {
		body.TakeProfitOnFill = &takeProfitOnFill{
			Price: c.instruments.FormatPrice(spec.Symbol, spec.TakeProfit.Unwrap()),
		}
	}

	var out createOrderResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(orderRequest{Order: body}).
		SetResult(&out).
		SetError(&out).
		Post(c.accountPath("orders"))
	if err != nil {
		return types.OrderResult{}, errors.Wrap(errors.ErrCodeBrokerUnavailable, "order request failed", err)
	}

	switch {
	case resp.StatusCode() >= 500:
		return types.OrderResult{}, errors.Newf(errors.ErrCodeBrokerUnavailable, "order returned %d: %s", resp.StatusCode(), resp.String())
	case resp.IsError():
		return types.OrderResult{}, errors.Newf(errors.ErrCodeOrderRejected, "venue rejected order: %s", rejectReason(out, resp.String()))
	}

	return types.OrderResult{
		OrderID:  out.OrderCreateTransaction.ID,
		ClientID: spec.ClientID,
		Filled:   out.OrderFillTransaction != nil,
	}, nil
}

// ClosePosition requests full closure of the selected side(s). Never retried.
func (c *OandaClient) ClosePosition(ctx context.Context, symbol string, closeLong, closeShort bool) (types.CloseResult, error) {
	if !closeLong && !closeShort {
		return types.CloseResult{}, errors.New(errors.ErrCodeInvalidParameter, "no side selected to close")
	}

	var body closePositionRequest
	if closeLong {
		body.LongUnits = "ALL"
	}

	if closeShort {
		body.ShortUnits = "ALL"
	}

	var out closePositionResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Put(c.accountPath("positions/" + symbol + "/close"))
	if err != nil {
		return types.CloseResult{}, errors.Wrap(errors.ErrCodeBrokerUnavailable, "close request failed", err)
	}

	switch {
	case resp.StatusCode() >= 500:
		return types.CloseResult{}, errors.Newf(errors.ErrCodeBrokerUnavailable, "close returned %d: %s", resp.StatusCode(), resp.String())
	case resp.IsError():
		return types.CloseResult{}, errors.Newf(errors.ErrCodeCloseFailed, "venue rejected close: %s", resp.String())
	}

	result := types.CloseResult{}
	if out.LongOrderFillTransaction != nil {
		result.LongTransactionID = out.LongOrderFillTransaction.ID
	}

	if out.ShortOrderFillTransaction != nil {
		result.ShortTransactionID = out.ShortOrderFillTransaction.ID
	}

	return result, nil
}

// GetMidPrice returns the average of best bid and ask for a symbol.
func (c *OandaClient) GetMidPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var out pricingResponse

	query := map[string]string{"instruments": symbol}
	if err := c.getWithRetry(ctx, c.accountPath("pricing"), query, &out); err != nil {
		return decimal.Zero, err
	}

	for _, p := range out.Prices {
		if p.Instrument != symbol || len(p.Bids) == 0 || len(p.Asks) == 0 {
			continue
		}

		bid, err := decimal.NewFromString(p.Bids[0].Price)
		if err != nil {
			return decimal.Zero, errors.Wrapf(errors.ErrCodeBrokerBadResponse, err, "bad bid %q", p.Bids[0].Price)
		}

		ask, err := decimal.NewFromString(p.Asks[0].Price)
		if err != nil {
			return decimal.Zero, errors.Wrapf(errors.ErrCodeBrokerBadResponse, err, "bad ask %q", p.Asks[0].Price)
		}

		return bid.Add(ask).Div(decimal.NewFromInt(2)), nil
	}

	return decimal.Zero, errors.Newf(errors.ErrCodeBrokerBadResponse, "no pricing for %s", symbol)
}

// Helper functions

// parseUnits parses a venue units string. An empty string means zero.
func parseUnits(s string) (int64, error) {
	if s == "" || s == "0" {
		return 0, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}

	return d.IntPart(), nil
}

// mapOrderType maps a venue order type to ours. Only resting entry orders map.
func mapOrderType(t string) (types.OrderType, bool) {
	switch t {
	case "LIMIT":
		return types.OrderTypeLimit, true
	case "STOP":
		return types.OrderTypeStop, true
	case "MARKET":
		return types.OrderTypeMarket, true
	default:
		return "", false
	}
}

func rejectReason(out createOrderResponse, fallback string) string {
	if out.RejectReason != "" {
		return out.RejectReason
	}

	if out.ErrorMessage != "" {
		return out.ErrorMessage
	}

	return fallback
}

// Ensure OandaClient implements Broker.
var _ Broker = (*OandaClient)(nil)
