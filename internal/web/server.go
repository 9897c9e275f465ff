package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/elys-network/basketvault/internal/logger"
	"github.com/elys-network/basketvault/internal/node"
	"github.com/elys-network/basketvault/internal/state"
	"github.com/elys-network/basketvault/internal/vault"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
	maxBodyBytes      = 1 << 20
)

// WebServer exposes a node over HTTP
type WebServer struct {
	router *mux.Router
	port   string
	node   *node.Node
	logger zerolog.Logger
	server *http.Server
}

// CallRequest is one call of a batch as sent over the wire.
type CallRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// BatchRequest is the body of POST /api/calls.
type BatchRequest struct {
	Caller string        `json:"caller"`
	Calls  []CallRequest `json:"calls"`
}

// SwapRequest is the body of POST /api/pool/swap.
type SwapRequest struct {
	Trader       string      `json:"trader"`
	TokenIn      string      `json:"token_in"`
	TokenOut     string      `json:"token_out"`
	AmountIn     sdkmath.Int `json:"amount_in"`
	MinAmountOut sdkmath.Int `json:"min_amount_out"`
}

// PriceRequest is the body of POST /api/oracles/{denom}.
type PriceRequest struct {
	Answer sdkmath.Int `json:"answer"`
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, n *node.Node) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		node:   n,
		logger: logger.GetForComponent("web_server"),
	}

	server.setupRoutes()
	return server
}

// Handler returns the routed handler, mainly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/vault", ws.handleGetVault).Methods("GET")
	api.HandleFunc("/calls", ws.handleGetCallNames).Methods("GET")
	api.HandleFunc("/calls", ws.handleExecute).Methods("POST")
	api.HandleFunc("/events", ws.handleGetEvents).Methods("GET")
	api.HandleFunc("/batches/{id}", ws.handleGetBatch).Methods("GET")
	api.HandleFunc("/snapshots/latest", ws.handleGetLatestSnapshot).Methods("GET")
	api.HandleFunc("/snapshots", ws.handleSaveSnapshot).Methods("POST")
	api.HandleFunc("/accounts/{address}", ws.handleGetAccount).Methods("GET")
	api.HandleFunc("/pool/swap", ws.handleSwap).Methods("POST")
	api.HandleFunc("/oracles/{denom}", ws.handleSetOraclePrice).Methods("POST")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server and blocks until it stops.
func (ws *WebServer) Start() error {
	ws.logger.Info().Str("port", ws.port).Msg("Starting web server")

	ws.server = &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a started server.
func (ws *WebServer) Shutdown(ctx context.Context) error {
	if ws.server == nil {
		return nil
	}
	return ws.server.Shutdown(ctx)
}

// handleHealth reports process stats and whether the store answers
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	storeHealthy := true
	if err := ws.node.Ping(r.Context()); err != nil {
		ws.logger.Warn().Err(err).Msg("Store ping failed")
		storeHealthy = false
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !storeHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	status := ws.node.Status()
	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "basketvault",
			"version": "1.0.0",
		},
		"vault_status": map[string]interface{}{
			"store_healthy": storeHealthy,
			"phase":         status.Phase.String(),
			"seq":           status.Seq,
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetVault returns the live vault state
func (ws *WebServer) handleGetVault(w http.ResponseWriter, r *http.Request) {
	ws.writeJSONResponse(w, http.StatusOK, ws.node.Status())
}

// handleGetCallNames lists the accepted call methods
func (ws *WebServer) handleGetCallNames(w http.ResponseWriter, r *http.Request) {
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"methods": vault.CallNames(),
	})
}

// handleExecute decodes and runs one batch of calls
func (ws *WebServer) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !ws.decodeBody(w, r, &req) {
		return
	}
	if req.Caller == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "caller is required")
		return
	}

	calls := make([]vault.Call, 0, len(req.Calls))
	for i, c := range req.Calls {
		call, err := vault.DecodeCall(c.Method, c.Params)
		if err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, "call "+strconv.Itoa(i)+": "+err.Error())
			return
		}
		calls = append(calls, call)
	}

	results, err := ws.node.Execute(r.Context(), req.Caller, calls)
	if errors.Is(err, node.ErrEventsNotPersisted) {
		ws.logger.Error().Err(err).Str("caller", req.Caller).Msg("Batch committed without persisted events")
		ws.writeJSONResponse(w, http.StatusAccepted, map[string]interface{}{
			"results": results,
			"warning": err.Error(),
		})
		return
	}
	if err != nil {
		ws.writeCallError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"seq":     ws.node.Status().Seq,
	})
}

// handleGetEvents returns stored events after a sequence number
func (ws *WebServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if afterStr := r.URL.Query().Get("after"); afterStr != "" {
		parsed, err := strconv.ParseUint(afterStr, 10, 64)
		if err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid after parameter")
			return
		}
		after = parsed
	}

	limit := defaultEventLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= maxEventLimit {
			limit = parsedLimit
		}
	}

	events, err := ws.node.Events(r.Context(), after, limit)
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to get events")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
		"limit":  limit,
	})
}

// handleGetBatch returns the events of one batch
func (ws *WebServer) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid batch ID")
		return
	}

	events, err := ws.node.Batch(r.Context(), id)
	if err != nil {
		ws.logger.Error().Err(err).Str("batchId", id.String()).Msg("Failed to get batch")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve batch")
		return
	}
	if len(events) == 0 {
		ws.writeErrorResponse(w, http.StatusNotFound, "Batch not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"batch_id": id,
		"events":   events,
	})
}

// handleGetLatestSnapshot returns the newest persisted state
func (ws *WebServer) handleGetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := ws.node.LatestSnapshot(r.Context())
	if errors.Is(err, state.ErrNoSnapshot) {
		ws.writeErrorResponse(w, http.StatusNotFound, "No snapshot found")
		return
	}
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to get latest snapshot")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve snapshot")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, snapshot)
}

// handleSaveSnapshot persists a snapshot now
func (ws *WebServer) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := ws.node.SaveSnapshot(r.Context())
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to save snapshot")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to save snapshot")
		return
	}

	ws.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"snapshot_id": id,
	})
}

// handleGetAccount returns the ledger balances of an address
func (ws *WebServer) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"address":  address,
		"balances": ws.node.Balances(address),
	})
}

// handleSwap trades against the pool
func (ws *WebServer) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req SwapRequest
	if !ws.decodeBody(w, r, &req) {
		return
	}
	if req.Trader == "" || req.AmountIn.IsNil() {
		ws.writeErrorResponse(w, http.StatusBadRequest, "trader and amount_in are required")
		return
	}
	if req.MinAmountOut.IsNil() {
		req.MinAmountOut = sdkmath.ZeroInt()
	}

	out, err := ws.node.Swap(req.Trader, req.TokenIn, req.TokenOut, req.AmountIn, req.MinAmountOut)
	if err != nil {
		ws.writeCallError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"amount_out": out,
	})
}

// handleSetOraclePrice publishes a feed answer
func (ws *WebServer) handleSetOraclePrice(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if !ws.decodeBody(w, r, &req) {
		return
	}
	denom := mux.Vars(r)["denom"]
	if req.Answer.IsNil() {
		ws.writeErrorResponse(w, http.StatusBadRequest, "answer is required")
		return
	}

	if err := ws.node.SetOraclePrice(denom, req.Answer); err != nil {
		if errors.Is(err, node.ErrUnknownFeed) {
			ws.writeErrorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"token":  denom,
		"answer": req.Answer,
	})
}

func (ws *WebServer) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeCallError maps a rejected operation to a status code. Registered errors are
// rule violations by the caller, everything else is ours.
func (ws *WebServer) writeCallError(w http.ResponseWriter, err error) {
	codespace, _, _ := errorsmod.ABCIInfo(err, false)
	switch {
	case errors.Is(err, vault.ErrCallerIsNotOwner),
		errors.Is(err, vault.ErrCallerIsNotManager),
		errors.Is(err, vault.ErrCallerIsNotOwnerOrManager),
		errors.Is(err, vault.ErrCallerIsNotPendingOwner):
		ws.writeErrorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, node.ErrUnknownToken):
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case codespace != errorsmod.UndefinedCodespace:
		ws.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
	default:
		ws.logger.Error().Err(err).Msg("Operation failed")
		ws.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		ws.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		ws.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
