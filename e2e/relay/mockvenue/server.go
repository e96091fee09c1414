// Package mockvenue provides a mock OANDA-style v3 REST venue for end-to-end
// testing. It keeps positions, resting orders, and pricing in memory, counts
// calls per endpoint, and can be scripted to fail specific operations.
package mockvenue

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Operation names used for call counters and scripted failures.
const (
	OpOpenPositions = "openPositions"
	OpPendingOrders = "pendingOrders"
	OpCreateOrder   = "createOrder"
	OpCancelOrder   = "cancelOrder"
	OpClosePosition = "closePosition"
	OpPricing       = "pricing"
)

// Position is one instrument's venue-side exposure.
type Position struct {
	Instrument string
	LongUnits  int64
	ShortUnits int64
}

// Order is a venue-side resting order.
type Order struct {
	ID         string
	Instrument string
	Type       string
	Price      string
	Units      int64
	ClientID   string
	StopLoss   string
	TakeProfit string
}

// Quote is the current bid/ask for an instrument.
type Quote struct {
	Bid string
	Ask string
}

type scriptedFailure struct {
	status int
	times  int
}

// Server is the mock venue.
type Server struct {
	mu sync.Mutex

	httpServer *http.Server
	listener   net.Listener

	accountID  string
	positions  map[string]*Position
	orders     map[string]*Order
	quotes     map[string]Quote
	orderIDSeq int64
	txIDSeq    int64

	counters map[string]int
	failures map[string]*scriptedFailure

	// rejectNextOrder makes the next order placement come back with a
	// business rejection instead of a transaction.
	rejectNextOrder string
}

// NewServer creates a mock venue for the given account.
func NewServer(accountID string) *Server {
	return &Server{
		accountID:  accountID,
		positions:  make(map[string]*Position),
		orders:     make(map[string]*Order),
		quotes:     make(map[string]Quote),
		orderIDSeq: 1000,
		txIDSeq:    5000,
		counters:   make(map[string]int),
		failures:   make(map[string]*scriptedFailure),
	}
}

// Start begins serving on a random port.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener

	router := mux.NewRouter()
	prefix := "/v3/accounts/" + s.accountID

	router.HandleFunc(prefix+"/openPositions", s.handleOpenPositions).Methods(http.MethodGet)
	router.HandleFunc(prefix+"/orders", s.handlePendingOrders).Methods(http.MethodGet)
	router.HandleFunc(prefix+"/orders", s.handleCreateOrder).Methods(http.MethodPost)
	router.HandleFunc(prefix+"/orders/{orderID}/cancel", s.handleCancelOrder).Methods(http.MethodPut)
	router.HandleFunc(prefix+"/positions/{instrument}/close", s.handleClosePosition).Methods(http.MethodPut)
	router.HandleFunc(prefix+"/pricing", s.handlePricing).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	return nil
}

// Stop shuts the mock venue down.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// BaseURL returns the http root for the bound address.
func (s *Server) BaseURL() string {
	return "http://" + s.listener.Addr().String()
}

// State scripting

// SetQuote sets the current bid/ask for an instrument.
func (s *Server) SetQuote(instrument, bid, ask string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[instrument] = Quote{Bid: bid, Ask: ask}
}

// SetPosition seeds an open position.
func (s *Server) SetPosition(instrument string, longUnits, shortUnits int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions[instrument] = &Position{Instrument: instrument, LongUnits: longUnits, ShortUnits: shortUnits}
}

// Position returns a copy of the current position, nil when flat.
func (s *Server) Position(instrument string) *Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[instrument]
	if !ok {
		return nil
	}

	copied := *p

	return &copied
}

// Orders returns copies of the resting orders.
func (s *Server) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, *o)
	}

	return orders
}

// Calls returns the call count for an operation.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters[op]
}

// FailNext makes the next n calls to an operation return the given HTTP status.
func (s *Server) FailNext(op string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[op] = &scriptedFailure{status: status, times: n}
}

// RejectNextOrder makes the next order placement come back rejected with the
// given venue reason.
func (s *Server) RejectNextOrder(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rejectNextOrder = reason
}

// record bumps the counter and pops one scripted failure if armed.
// Returns the failure status to write, or 0 to proceed.
func (s *Server) record(op string) int {
	s.counters[op]++

	f, ok := s.failures[op]
	if !ok || f.times == 0 {
		return 0
	}

	f.times--

	return f.status
}

func (s *Server) nextOrderID() string {
	s.orderIDSeq++

	return strconv.FormatInt(s.orderIDSeq, 10)
}

func (s *Server) nextTxID() string {
	s.txIDSeq++

	return strconv.FormatInt(s.txIDSeq, 10)
}

// Handlers

func (s *Server) handleOpenPositions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status := s.record(OpOpenPositions); status != 0 {
		http.Error(w, "scripted failure", status)

		return
	}

	positions := make([]map[string]any, 0, len(s.positions))
	for _, p := range s.positions {
		positions = append(positions, map[string]any{
			"instrument": p.Instrument,
			"long":       map[string]any{"units": strconv.FormatInt(p.LongUnits, 10)},
			"short":      map[string]any{"units": strconv.FormatInt(p.ShortUnits, 10)},
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

func (s *Server) handlePendingOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status := s.record(OpPendingOrders); status != 0 {
		http.Error(w, "scripted failure", status)

		return
	}

	instrument := r.URL.Query().Get("instrument")

	orders := make([]map[string]any, 0, len(s.orders))
	for _, o := range s.orders {
		if instrument != "" && o.Instrument != instrument {
			continue
		}

		orders = append(orders, map[string]any{
			"id":         o.ID,
			"instrument": o.Instrument,
			"type":       o.Type,
			"price":      o.Price,
			"units":      strconv.FormatInt(o.Units, 10),
			"state":      "PENDING",
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

type inboundOrder struct {
	Order struct {
		Type             string `json:"type"`
		Instrument       string `json:"instrument"`
		Units            string `json:"units"`
		Price            string `json:"price"`
		TimeInForce      string `json:"timeInForce"`
		ClientExtensions *struct {
			ID string `json:"id"`
		} `json:"clientExtensions"`
		StopLossOnFill *struct {
			Price string `json:"price"`
		} `json:"stopLossOnFill"`
		TakeProfitOnFill *struct {
			Price string `json:"price"`
		} `json:"takeProfitOnFill"`
	} `json:"order"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status := s.record(OpCreateOrder); status != 0 {
		http.Error(w, "scripted failure", status)

		return
	}

	if s.rejectNextOrder != "" {
		reason := s.rejectNextOrder
		s.rejectNextOrder = ""

		writeJSON(w, http.StatusBadRequest, map[string]any{"rejectReason": reason})

		return
	}

	var in inboundOrder
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errorMessage": "bad order body"})

		return
	}

	units, err := strconv.ParseInt(in.Order.Units, 10, 64)
	if err != nil || units == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"rejectReason": "UNITS_INVALID"})

		return
	}

	orderID := s.nextOrderID()

	clientID := ""
	if in.Order.ClientExtensions != nil {
		clientID = in.Order.ClientExtensions.ID
	}

	response := map[string]any{
		"orderCreateTransaction": map[string]any{"id": orderID},
	}

	switch in.Order.Type {
	case "MARKET":
		// Market orders fill immediately against the current position.
		s.applyFill(in.Order.Instrument, units)

		response["orderFillTransaction"] = map[string]any{"id": s.nextTxID()}
	case "LIMIT", "STOP":
		if in.Order.Price == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"rejectReason": "PRICE_INVALID"})

			return
		}

		order := &Order{
			ID:         orderID,
			Instrument: in.Order.Instrument,
			Type:       in.Order.Type,
			Price:      in.Order.Price,
			Units:      units,
			ClientID:   clientID,
		}

		if in.Order.StopLossOnFill != nil {
			order.StopLoss = in.Order.StopLossOnFill.Price
		}

		if in.Order.TakeProfitOnFill != nil {
			order.TakeProfit = in.Order.TakeProfitOnFill.Price
		}

		s.orders[orderID] = order
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"rejectReason": "TYPE_INVALID"})

		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// applyFill books units against the instrument's position.
func (s *Server) applyFill(instrument string, units int64) {
	p, ok := s.positions[instrument]
	if !ok {
		p = &Position{Instrument: instrument}
		s.positions[instrument] = p
	}

	if units > 0 {
		p.LongUnits += units
	} else {
		p.ShortUnits += units
	}

	if p.LongUnits == 0 && p.ShortUnits == 0 {
		delete(s.positions, instrument)
	}
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status := s.record(OpCancelOrder); status != 0 {
		http.Error(w, "scripted failure", status)

		return
	}

	orderID := mux.Vars(r)["orderID"]

	if _, ok := s.orders[orderID]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"errorMessage": "order not found"})

		return
	}

	delete(s.orders, orderID)
	writeJSON(w, http.StatusOK, map[string]any{"orderCancelTransaction": map[string]any{"id": s.nextTxID()}})
}

type inboundClose struct {
	LongUnits  string `json:"longUnits"`
	ShortUnits string `json:"shortUnits"`
}

func (s *Server) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status := s.record(OpClosePosition); status != 0 {
		http.Error(w, "scripted failure", status)

		return
	}

	instrument := mux.Vars(r)["instrument"]

	p, ok := s.positions[instrument]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errorMessage": "no position to close"})

		return
	}

	var in inboundClose
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errorMessage": "bad close body"})

		return
	}

	response := map[string]any{}

	if in.LongUnits == "ALL" && p.LongUnits != 0 {
		p.LongUnits = 0
		response["longOrderFillTransaction"] = map[string]any{"id": s.nextTxID()}
	}

	if in.ShortUnits == "ALL" && p.ShortUnits != 0 {
		p.ShortUnits = 0
		response["shortOrderFillTransaction"] = map[string]any{"id": s.nextTxID()}
	}

	if p.LongUnits == 0 && p.ShortUnits == 0 {
		delete(s.positions, instrument)
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status := s.record(OpPricing); status != 0 {
		http.Error(w, "scripted failure", status)

		return
	}

	instrument := r.URL.Query().Get("instruments")

	quote, ok := s.quotes[instrument]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"prices": []any{}})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"prices": []map[string]any{
			{
				"instrument": instrument,
				"bids":       []map[string]any{{"price": quote.Bid}},
				"asks":       []map[string]any{{"price": quote.Ask}},
			},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
