package zilrpc_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesync/pkg/zilrpc"
)

const stakingContract = "0x62a9d5d611cdcae8d78005f31635898dfd9e6a6e"

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []any           `json:"params"`
}

// recorder keeps the last request seen by the fake node
type recorder struct {
	mu   sync.Mutex
	last rpcRequest
}

func (r *recorder) set(req rpcRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = req
}

func (r *recorder) get() rpcRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func TestGetSmartContractSubState(t *testing.T) {
	t.Parallel()

	t.Run("it returns the raw result object", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var rec recorder
		server := httptest.NewServer(rpcHandler(t, &rec, `{"lastrewardcycle":"42"}`, ""))
		defer server.Close()

		client := zilrpc.NewClientWithHTTP(server.Client())
		defer client.Close()

		// Act
		result, err := client.GetSmartContractSubState(t.Context(), server.URL, stakingContract, "lastrewardcycle", nil)

		// Assert
		require.NoError(t, err)
		assert.JSONEq(t, `{"lastrewardcycle":"42"}`, string(result))
	})

	t.Run("it sends the address without prefix and the indices as a list", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var rec recorder
		server := httptest.NewServer(rpcHandler(t, &rec, `{"ssn_deleg_amt":{}}`, ""))
		defer server.Close()

		client := zilrpc.NewClientWithHTTP(server.Client())
		defer client.Close()

		// Act
		_, err := client.GetSmartContractSubState(t.Context(), server.URL, stakingContract, "ssn_deleg_amt",
			[]string{"0xabc"})

		// Assert
		require.NoError(t, err)
		got := rec.get()
		assert.Equal(t, zilrpc.MethodGetSmartContractSubState, got.Method)
		require.Len(t, got.Params, 3)
		assert.Equal(t, "62a9d5d611cdcae8d78005f31635898dfd9e6a6e", got.Params[0])
		assert.Equal(t, "ssn_deleg_amt", got.Params[1])
		assert.Equal(t, []any{"0xabc"}, got.Params[2])
	})

	t.Run("it reports a null result as empty", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var rec recorder
		server := httptest.NewServer(rpcHandler(t, &rec, `null`, ""))
		defer server.Close()

		client := zilrpc.NewClientWithHTTP(server.Client())
		defer client.Close()

		// Act
		_, err := client.GetSmartContractSubState(t.Context(), server.URL, stakingContract, "unknown", nil)

		// Assert
		require.ErrorIs(t, err, zilrpc.ErrEmptyResult)
	})

	t.Run("it surfaces the node's error object", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var rec recorder
		server := httptest.NewServer(rpcHandler(t, &rec, "", "Address not contract address"))
		defer server.Close()

		client := zilrpc.NewClientWithHTTP(server.Client())
		defer client.Close()

		// Act
		_, err := client.GetSmartContractSubState(t.Context(), server.URL, stakingContract, "ssnlist", nil)

		// Assert
		require.ErrorIs(t, err, zilrpc.ErrCallFailed)
		var rpcErr *zilrpc.RPCError
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, -5, rpcErr.Code)
		assert.Contains(t, rpcErr.Message, "Address not contract address")
	})

	t.Run("it fails once the client is closed", func(t *testing.T) {
		t.Parallel()

		// Arrange
		client := zilrpc.NewClient()
		client.Close()

		// Act
		_, err := client.GetSmartContractSubState(t.Context(), "http://127.0.0.1:1", stakingContract, "ssnlist", nil)

		// Assert
		require.ErrorIs(t, err, zilrpc.ErrClientIsClosed)
	})
}

func TestGetNumTxBlocks(t *testing.T) {
	t.Parallel()

	t.Run("it parses the decimal string result", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var rec recorder
		server := httptest.NewServer(rpcHandler(t, &rec, `"4263011"`, ""))
		defer server.Close()

		client := zilrpc.NewClientWithHTTP(server.Client())
		defer client.Close()

		// Act
		n, err := client.GetNumTxBlocks(t.Context(), server.URL)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(4263011), n)
		assert.Equal(t, zilrpc.MethodGetNumTxBlocks, rec.get().Method)
	})

	t.Run("it rejects a result that is not a number", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var rec recorder
		server := httptest.NewServer(rpcHandler(t, &rec, `"soon"`, ""))
		defer server.Close()

		client := zilrpc.NewClientWithHTTP(server.Client())
		defer client.Close()

		// Act
		_, err := client.GetNumTxBlocks(t.Context(), server.URL)

		// Assert
		require.ErrorIs(t, err, zilrpc.ErrInvalidResult)
	})
}

func TestClientReusesConnectionPerEndpoint(t *testing.T) {
	t.Parallel()

	// Arrange
	var calls atomic.Int32
	var rec recorder
	inner := rpcHandler(t, &rec, `"1"`, "")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		inner(w, r)
	}))
	defer server.Close()

	client := zilrpc.NewClientWithHTTP(server.Client())
	defer client.Close()

	// Act
	for range 3 {
		_, err := client.GetNumTxBlocks(t.Context(), server.URL)
		require.NoError(t, err)
	}

	// Assert
	assert.Equal(t, int32(3), calls.Load())
}

// rpcHandler answers every JSON-RPC request with the given result, or with an
// error object when errMsg is set.
func rpcHandler(t *testing.T, rec *recorder, result, errMsg string) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.set(req)

		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if errMsg != "" {
			resp["error"] = map[string]any{"code": -5, "message": errMsg}
		} else {
			resp["result"] = json.RawMessage(result)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
