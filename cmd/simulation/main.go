package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nakulchoubisa/option-sell-bot/internal/auth"
	"github.com/nakulchoubisa/option-sell-bot/internal/broker"
	"github.com/nakulchoubisa/option-sell-bot/internal/config"
	"github.com/nakulchoubisa/option-sell-bot/internal/database"
	"github.com/nakulchoubisa/option-sell-bot/internal/trading"
	"github.com/nakulchoubisa/option-sell-bot/internal/types"
)

const (
	minOrders     = 10
	maxOrders     = 60
	numWorkers    = 4
	serverAddress = "http://localhost:8080"
	simDBPath     = "simulation.db"
)

var (
	symbols = []string{
		"NSE:INFY",
		"NSE:TCS",
		"NSE:SBIN",
		"NFO:NIFTY24SEP25000CE",
		"NFO:BANKNIFTY24SEP52000PE",
	}
	sides = []string{types.SideBuy, types.SideSell}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the trading gateway
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client
	stats     map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
// It authenticates with the API and prepares performance tracking
func newSimulationClient(apiKey, apiSecret string) (*simulationClient, error) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	sc := &simulationClient{
		baseURL: serverAddress,
		client:  client,
		stats: map[string]*routeStats{
			"auth":  {name: "Authentication"},
			"order": {name: "Place Order"},
			"close": {name: "Close Position"},
			"pnl":   {name: "Daily PnL"},
		},
	}

	token, err := sc.authenticate(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	sc.authToken = token

	return sc, nil
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate(apiKey, apiSecret string) (string, error) {
	start := time.Now()
	defer func() {
		sc.stats["auth"].addDuration(time.Since(start))
	}()

	credentials := map[string]string{
		"api_key":    apiKey,
		"api_secret": apiSecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Data.Token, nil
}

// doJSON performs an authenticated JSON request and decodes the standard
// response envelope into out.
func (sc *simulationClient) doJSON(method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sc.authToken))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data"`
	}{Data: out}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return nil
}

// placeOrder submits a new order and returns the position and order ids
func (sc *simulationClient) placeOrder(req *broker.OrderRequest) (*types.PlaceOrderResponse, error) {
	start := time.Now()
	defer func() {
		sc.stats["order"].addDuration(time.Since(start))
	}()

	var result types.PlaceOrderResponse
	if err := sc.doJSON("POST", "/api/v1/broker/order", req, &result); err != nil {
		sc.stats["order"].failures++
		return nil, err
	}
	return &result, nil
}

// closePosition closes an open position by id
func (sc *simulationClient) closePosition(positionID uint) (*types.ClosePositionResponse, error) {
	start := time.Now()
	defer func() {
		sc.stats["close"].addDuration(time.Since(start))
	}()

	var result types.ClosePositionResponse
	path := fmt.Sprintf("/api/v1/broker/positions/%d/close", positionID)
	if err := sc.doJSON("POST", path, nil, &result); err != nil {
		sc.stats["close"].failures++
		return nil, err
	}
	return &result, nil
}

// dailyPnL fetches today's P&L summary
func (sc *simulationClient) dailyPnL() (map[string]interface{}, error) {
	start := time.Now()
	defer func() {
		sc.stats["pnl"].addDuration(time.Since(start))
	}()

	var result map[string]interface{}
	if err := sc.doJSON("GET", "/api/v1/broker/pnl", nil, &result); err != nil {
		sc.stats["pnl"].failures++
		return nil, err
	}
	return result, nil
}

// printPerformanceStats prints per-route latency statistics
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("ROUTE PERFORMANCE")
	fmt.Println(strings.Repeat("=", 80))

	for _, rs := range sc.stats {
		if rs.totalCalls == 0 {
			continue
		}
		min, max, mean, median, p95, p99 := rs.calculate()
		fmt.Printf("%-16s calls=%-4d failures=%-3d min=%-10v max=%-10v mean=%-10v median=%-10v p95=%-10v p99=%v\n",
			rs.name, rs.totalCalls, rs.failures, min, max, mean, median, p95, p99)
	}
}

// simulationStats aggregates outcome counts for the run
type simulationStats struct {
	StartTime       time.Time
	TotalOrders     int
	FailedOrders    int
	ClosedPositions int
	FailedCloses    int
	Realized        float64
	Symbols         map[string]int
	Sides           map[string]int
	mu              sync.Mutex
}

// main runs an end-to-end scenario against an in-process gateway: workers
// place random orders, every open position is closed, and the daily P&L
// summary is fetched and printed.
func main() {
	// Start the gateway with a mock broker so the run is self-contained
	cfg := config.Default()
	cfg.Storage.SQLitePath = simDBPath
	go func() {
		if err := startServer(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	time.Sleep(500 * time.Millisecond)

	simClient, err := newSimulationClient(cfg.Auth.APIKey, cfg.Auth.APISecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create simulation client")
	}

	stats := &simulationStats{
		StartTime: time.Now(),
		Symbols:   make(map[string]int),
		Sides:     make(map[string]int),
	}

	targetOrders := rand.Intn(maxOrders-minOrders+1) + minOrders
	log.Info().Int("target_orders", targetOrders).Msg("Starting trading simulation")

	positionsChan := make(chan uint, targetOrders)

	// Start worker goroutines
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			placeOrdersHTTP(workerID, targetOrders/numWorkers, simClient, stats, positionsChan)
		}(w)
	}

	wg.Wait()
	close(positionsChan)

	// Deduplicate position ids; orders for the same symbol share a position
	seen := make(map[uint]bool)
	var positionIDs []uint
	for id := range positionsChan {
		if !seen[id] {
			seen[id] = true
			positionIDs = append(positionIDs, id)
		}
	}

	// Close every open position
	for _, id := range positionIDs {
		closed, err := simClient.closePosition(id)
		if err != nil {
			log.Error().Err(err).Uint("position_id", id).Msg("Failed to close position")
			stats.FailedCloses++
			continue
		}
		stats.ClosedPositions++
		stats.Realized += closed.Realized
		log.Info().
			Uint("position_id", closed.ID).
			Str("symbol", closed.Symbol).
			Float64("close_price", closed.ClosePrice).
			Float64("realized", closed.Realized).
			Msg("Position closed")
	}

	// Fetch the daily summary
	summary, err := simClient.dailyPnL()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch daily PnL")
	}

	printSummary(stats, summary)
	simClient.printPerformanceStats()
}

// placeOrdersHTTP generates and submits random orders to the API
// Runs as a worker goroutine, sending resulting position IDs to positionsChan
func placeOrdersHTTP(workerID, numOrders int, simClient *simulationClient, stats *simulationStats, positionsChan chan<- uint) {
	for i := 0; i < numOrders; i++ {
		price := float64(rand.Intn(400) + 50)
		order := &broker.OrderRequest{
			Symbol:    symbols[rand.Intn(len(symbols))],
			Side:      sides[rand.Intn(len(sides))],
			Qty:       rand.Intn(100) + 1,
			OrderType: types.OrderTypeLimit,
			Price:     &price,
		}

		result, err := simClient.placeOrder(order)

		stats.mu.Lock()
		stats.TotalOrders++
		if err != nil {
			stats.FailedOrders++
		} else {
			stats.Symbols[order.Symbol]++
			stats.Sides[order.Side]++
		}
		stats.mu.Unlock()

		if err != nil {
			log.Error().Err(err).
				Int("worker_id", workerID).
				Str("symbol", order.Symbol).
				Msg("Failed to place order")
			continue
		}

		positionsChan <- result.PositionID
		log.Info().
			Int("worker_id", workerID).
			Uint("position_id", result.PositionID).
			Uint("order_id", result.OrderID).
			Str("symbol", order.Symbol).
			Str("side", order.Side).
			Int("qty", order.Qty).
			Float64("price", price).
			Msg("Order placed")

		// Random sleep between orders
		time.Sleep(time.Duration(rand.Intn(200)) * time.Millisecond)
	}
}

// printSummary prints run totals and distribution charts
func printSummary(stats *simulationStats, summary map[string]interface{}) {
	duration := time.Since(stats.StartTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("TRADING SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Order Statistics
----------------
Total Orders:     %d
Failed Orders:    %d
Closed Positions: %d
Failed Closes:    %d
Realized P&L:     %.2f
Duration:         %v

Symbol Distribution
-------------------
`, stats.TotalOrders, stats.FailedOrders, stats.ClosedPositions,
		stats.FailedCloses, stats.Realized, duration.Round(time.Millisecond))

	maxSymbolCount := 0
	for _, count := range stats.Symbols {
		if count > maxSymbolCount {
			maxSymbolCount = count
		}
	}
	for symbol, count := range stats.Symbols {
		barLength := int(float64(count) / float64(maxSymbolCount) * 20)
		bar := strings.Repeat("#", barLength)
		fmt.Printf("%-26s: %s (%d)\n", symbol, bar, count)
	}

	fmt.Println("\nSide Distribution")
	fmt.Println("-----------------")
	for side, count := range stats.Sides {
		barLength := int(float64(count) / float64(stats.TotalOrders) * 20)
		bar := strings.Repeat("#", barLength)
		fmt.Printf("%-4s: %s (%d)\n", side, bar, count)
	}

	if summary != nil {
		fmt.Println("\nDaily P&L")
		fmt.Println("---------")
		fmt.Printf("day=%v positions=%v realized=%v mtm=%v total=%v\n",
			summary["day"], summary["count_positions"], summary["realized"],
			summary["mtm"], summary["total_pnl"])
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	log.Info().
		Int("total_orders", stats.TotalOrders).
		Int("closed_positions", stats.ClosedPositions).
		Float64("realized", stats.Realized).
		Dur("duration", duration).
		Msg("Simulation completed")
}

// startServer initializes and starts the trading gateway in-process
func startServer(cfg *config.Config) error {
	db, err := database.NewDatabase(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	brokerHandle, err := broker.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	authService := auth.NewService(cfg.Auth.JWTSecret)
	authService.RegisterAPICredentials(cfg.Auth.APIKey, cfg.Auth.APISecret)

	tradingService := trading.NewService(db, brokerHandle)

	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	tradingHandlers := trading.NewGinHandlers(tradingService)

	setupRoutes(router, authHandlers, tradingHandlers)

	return router.Run(":8080")
}

// setupRoutes configures the endpoints exercised by the simulation
// Auth middleware is omitted so the run stays self-contained
func setupRoutes(
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	tradingHandlers *trading.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		brokerGroup := v1.Group("/broker")
		{
			brokerGroup.GET("/mode", tradingHandlers.ModeHandler())
			brokerGroup.GET("/ltp", tradingHandlers.LTPHandler())
			brokerGroup.POST("/order", tradingHandlers.PlaceOrderHandler())
			brokerGroup.GET("/orders", tradingHandlers.ListOrdersHandler())
			brokerGroup.GET("/positions", tradingHandlers.ListPositionsHandler())
			brokerGroup.POST("/positions/:id/close", tradingHandlers.ClosePositionHandler())
			brokerGroup.GET("/pnl", tradingHandlers.DailyPnLHandler())
		}
	}
}
