package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/basketvault/internal/config"
	"github.com/elys-network/basketvault/internal/node"
	"github.com/elys-network/basketvault/internal/state"
	"github.com/elys-network/basketvault/internal/types"
	"github.com/elys-network/basketvault/internal/web"
)

const definition = `
owner: alice
manager: bob
tokens: [uatom, uusdc]
numeraire: uusdc
oracles:
  uatom:
    answer: "100000000"
accounts:
  alice: 1000000000000uatom,1000000000000uusdc
  carol: 1000000uatom
`

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

const initialBatch = `{
  "caller": "alice",
  "calls": [
    {
      "method": "initial_deposit",
      "params": {
        "amounts": [{"denom": "uatom", "amount": "1000000"}, {"denom": "uusdc", "amount": "1000000"}],
        "weights": [{"denom": "uatom", "weight": "0.5"}, {"denom": "uusdc", "weight": "0.5"}]
      }
    },
    {"method": "enable_trading_risking_arbitrage"}
  ]
}`

func newServer(t *testing.T) (*web.WebServer, *state.MemoryStore) {
	t.Helper()
	def, err := config.ParseVaultDefinition([]byte(definition))
	require.NoError(t, err)
	store := state.NewMemoryStore()
	clock := fixedClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	n, err := node.Bootstrap(context.Background(), def, store, clock, config.DefaultSnapshotSchedule)
	require.NoError(t, err)
	return web.NewWebServer("", n), store
}

func do(t *testing.T, ws *web.WebServer, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestHealth(t *testing.T) {
	ws, _ := newServer(t)
	for _, path := range []string{"/health", "/api/health"} {
		rec, body := do(t, ws, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", body["status"])
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestExecuteBatch(t *testing.T) {
	ws, store := newServer(t)

	rec, body := do(t, ws, http.MethodPost, "/api/calls", initialBatch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, body["results"], 2)
	assert.EqualValues(t, 2, body["seq"])

	events, err := store.Events(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	rec, body = do(t, ws, http.MethodGet, "/api/events?after=1&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = do(t, ws, http.MethodGet, "/api/batches/"+events[0].BatchID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["events"], 2)

	rec, body = do(t, ws, http.MethodGet, "/api/vault", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.PhaseActive.String(), body["phase"])
}

func TestExecuteErrors(t *testing.T) {
	ws, _ := newServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed body", `{"caller":`, http.StatusBadRequest},
		{"missing caller", `{"calls":[{"method":"finalize"}]}`, http.StatusBadRequest},
		{"unknown method", `{"caller":"alice","calls":[{"method":"mint"}]}`, http.StatusBadRequest},
		{"wrong role", `{"caller":"bob","calls":[{"method":"finalize"}]}`, http.StatusForbidden},
		{"rule violation", `{"caller":"alice","calls":[{"method":"finalize"}]}`, http.StatusUnprocessableEntity},
		{"empty batch", `{"caller":"alice","calls":[]}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, ws, http.MethodPost, "/api/calls", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Equal(t, true, body["error"])
		})
	}
}

func TestSwapAndAccounts(t *testing.T) {
	ws, _ := newServer(t)
	rec, _ := do(t, ws, http.MethodPost, "/api/calls", initialBatch)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(t, ws, http.MethodPost, "/api/pool/swap",
		`{"trader":"carol","token_in":"uatom","token_out":"uusdc","amount_in":"1000","min_amount_out":"990"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := body["amount_out"].(string)

	rec, body = do(t, ws, http.MethodGet, "/api/accounts/carol", "")
	require.Equal(t, http.StatusOK, rec.Code)
	balances := body["balances"].([]interface{})
	require.Len(t, balances, 2)
	assert.Equal(t, out, balances[1].(map[string]interface{})["amount"])

	rec, _ = do(t, ws, http.MethodPost, "/api/pool/swap",
		`{"trader":"carol","token_in":"uatom","token_out":"uosmo","amount_in":"1000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, ws, http.MethodPost, "/api/pool/swap",
		`{"trader":"carol","token_in":"uatom","token_out":"uusdc","amount_in":"1000","min_amount_out":"1000"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOracleAndSnapshots(t *testing.T) {
	ws, _ := newServer(t)

	rec, _ := do(t, ws, http.MethodGet, "/api/snapshots/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, ws, http.MethodPost, "/api/oracles/uatom", `{"answer":"105000000"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, ws, http.MethodPost, "/api/oracles/uusdc", `{"answer":"1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, ws, http.MethodPost, "/api/oracles/uatom", `{"answer":"0"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, ws, http.MethodPost, "/api/calls", initialBatch)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, ws, http.MethodPost, "/api/snapshots", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, body := do(t, ws, http.MethodGet, "/api/snapshots/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["seq"])
}

func TestGetBatchErrors(t *testing.T) {
	ws, _ := newServer(t)

	rec, _ := do(t, ws, http.MethodGet, "/api/batches/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, ws, http.MethodGet, "/api/batches/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, ws, http.MethodGet, "/api/events?after=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
