package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nakulchoubisa/option-sell-bot/internal/types"
)

const (
	kiteBaseURL    = "https://api.kite.trade"
	kiteAPIVersion = "3"
)

// Compile-time interface checks. KiteBroker also satisfies Pricer so it can
// serve as the paper backend's external price source.
var (
	_ Broker = (*KiteBroker)(nil)
	_ Pricer = (*KiteBroker)(nil)
)

// KiteBroker routes orders to the Zerodha Kite Connect REST API. A valid
// access token must be generated and supplied out of band.
type KiteBroker struct {
	baseURL     string
	apiKey      string
	accessToken string
	httpClient  *http.Client
}

// NewKiteBroker creates a live Kite client. An empty baseURL selects the
// production endpoint.
func NewKiteBroker(apiKey, accessToken, baseURL string) *KiteBroker {
	if baseURL == "" {
		baseURL = kiteBaseURL
	}
	return &KiteBroker{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns "kite".
func (b *KiteBroker) Name() string {
	return "kite"
}

// kiteEnvelope is the common response wrapper of the Kite Connect API.
type kiteEnvelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
	Data      json.RawMessage `json:"data"`
}

func (b *KiteBroker) do(ctx context.Context, method, path string, form url.Values) (json.RawMessage, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("kite: build request: %w", err)
	}
	req.Header.Set("X-Kite-Version", kiteAPIVersion)
	req.Header.Set("Authorization", "token "+b.apiKey+":"+b.accessToken)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kite: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env kiteEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("kite: decode response: %w", err)
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("kite: %s (%s)", env.Message, env.ErrorType)
	}
	return env.Data, nil
}

// LTP queries the venue for the last traded price of an exchange-qualified
// symbol such as "NSE:INFY" or "NFO:NIFTY24AUG25000CE". It fails with
// ErrPriceUnavailable when the venue returns no quote for the symbol.
func (b *KiteBroker) LTP(ctx context.Context, symbol string) (float64, error) {
	data, err := b.do(ctx, http.MethodGet, "/quote/ltp?i="+url.QueryEscape(symbol), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	var quotes map[string]struct {
		LastPrice float64 `json:"last_price"`
	}
	if err := json.Unmarshal(data, &quotes); err != nil {
		return 0, fmt.Errorf("%w: decode quote: %v", ErrPriceUnavailable, err)
	}
	q, ok := quotes[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: no quote for %s", ErrPriceUnavailable, symbol)
	}
	return q.LastPrice, nil
}

// splitSymbol separates "NSE:INFY" into exchange and tradingsymbol. Bare
// symbols default to the NFO derivatives segment.
func splitSymbol(symbol string) (exchange, tradingsymbol string) {
	if i := strings.IndexByte(symbol, ':'); i >= 0 {
		return symbol[:i], symbol[i+1:]
	}
	return "NFO", symbol
}

// PlaceOrder submits the order to the venue and returns its order id with
// status PLACED. The venue fills asynchronously; this confirmation does not
// imply execution.
func (b *KiteBroker) PlaceOrder(ctx context.Context, req OrderRequest) (*Confirmation, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exchange, tradingsymbol := splitSymbol(req.Symbol)
	form := url.Values{}
	form.Set("exchange", exchange)
	form.Set("tradingsymbol", tradingsymbol)
	form.Set("transaction_type", req.Side)
	form.Set("quantity", strconv.Itoa(req.Qty))
	form.Set("product", req.Product)
	form.Set("order_type", req.OrderType)
	if req.OrderType == types.OrderTypeLimit {
		form.Set("price", strconv.FormatFloat(*req.Price, 'f', -1, 64))
	}

	data, err := b.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(req.Variety), form)
	if err != nil {
		return nil, err
	}

	var placed struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(data, &placed); err != nil {
		return nil, fmt.Errorf("kite: decode order response: %w", err)
	}

	log.Info().
		Str("broker", b.Name()).
		Str("order_id", placed.OrderID).
		Str("symbol", req.Symbol).
		Str("side", req.Side).
		Int("qty", req.Qty).
		Msg("order placed at venue")

	return &Confirmation{
		OrderID:   placed.OrderID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Qty:       req.Qty,
		OrderType: req.OrderType,
		Price:     req.Price,
		Product:   req.Product,
		Variety:   req.Variety,
		Status:    types.OrderPlaced,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// CancelOrder requests cancellation at the venue. Unlike the simulated
// backends, venue errors are propagated to the caller.
func (b *KiteBroker) CancelOrder(ctx context.Context, orderID string) (*CancelResult, error) {
	path := "/orders/regular/" + url.PathEscape(orderID)
	if _, err := b.do(ctx, http.MethodDelete, path, nil); err != nil {
		return nil, err
	}
	return &CancelResult{OrderID: orderID, Status: types.OrderCancelled}, nil
}
