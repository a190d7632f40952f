package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// rpcMock creates a test HTTP server that serves a fixed JSON-RPC response
// per method. Pass method→result pairs; any unknown method returns an RPC error.
func rpcMock(t *testing.T, responses map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if result, ok := responses[req.Method]; ok {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  result,
			})
		} else {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
			})
		}
	}))
}

// rpcErrorServer creates a test HTTP server that always returns a JSON-RPC error.
func rpcErrorServer(t *testing.T, code int, msg string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": code, "message": msg},
		})
	}))
}

// rpcBadJSON creates a server that returns malformed JSON.
func rpcBadJSON(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not valid json`)) //nolint:errcheck
	}))
}

// receiptAfter serves a null receipt for the first n polls, then result.
func receiptAfter(t *testing.T, n int32, result map[string]interface{}) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		var res interface{}
		if polls.Add(1) > n {
			res = result
		}
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  res,
		})
	}))
	return srv, &polls
}

var ctx = context.Background()

// ---------------------------------------------------------------------------
// simple quantities
// ---------------------------------------------------------------------------

func TestBlockNumber(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_blockNumber": "0x1b4"})
	defer srv.Close()

	n, err := NewEVMClient(srv.URL).BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(436), n)
}

func TestChainIDAndGasPrice(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_chainId":  "0x38",
		"eth_gasPrice": "0x12a05f200",
	})
	defer srv.Close()
	c := NewEVMClient(srv.URL)

	id, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(56), id.Int64())

	gp, err := c.GasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000), gp.Int64())
	assert.InDelta(t, 5.0, WeiToGwei(gp), 1e-9)
}

func TestGetPendingNonce(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_getTransactionCount": "0x7"})
	defer srv.Close()

	n, err := NewEVMClient(srv.URL).GetPendingNonce(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)
}

func TestEstimateGas(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_estimateGas": "0xea60"})
	defer srv.Close()

	gas, err := NewEVMClient(srv.URL).EstimateGas(ctx, "0xfrom", "0xto", "0x1234", big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(60000), gas)
}

func TestUnparseableQuantity(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_blockNumber": "0xZZ"})
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).BlockNumber(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not parse")
}

func TestCallContractAndSend(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_call":               "0x" + "00000000000000000000000000000000000000000000000000000000000003e8",
		"eth_sendRawTransaction": "0xhash",
	})
	defer srv.Close()
	c := NewEVMClient(srv.URL)

	out, err := c.CallContract(ctx, "0xtoken", "0x70a08231")
	require.NoError(t, err)
	assert.Len(t, out, 66)

	hash, err := c.SendRawTransaction(ctx, "0xf86c")
	require.NoError(t, err)
	assert.Equal(t, "0xhash", hash)
}

// ---------------------------------------------------------------------------
// error taxonomy
// ---------------------------------------------------------------------------

func TestRPCErrorReturned(t *testing.T) {
	srv := rpcErrorServer(t, -32000, "nonce too low")
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).SendRawTransaction(ctx, "0x00")
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
	assert.False(t, rpcErr.IsRevert())
	assert.Equal(t, "RPC error -32000: nonce too low", err.Error())
}

func TestUnreachableEndpoint(t *testing.T) {
	srv := rpcMock(t, nil)
	url := srv.URL
	srv.Close()

	_, err := NewEVMClient(url).BlockNumber(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestBadJSON(t *testing.T) {
	srv := rpcBadJSON(t)
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).BlockNumber(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing response")
}

func TestSimulateCallRevert(t *testing.T) {
	srv := rpcErrorServer(t, 3, "execution reverted: not enough LP tokens")
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).SimulateCall(ctx, "0xfrom", "0xto", "0xdeadbeef", nil)
	require.ErrorIs(t, err, ErrReverted)
	re := AsRevert(err)
	require.NotNil(t, re)
	assert.Equal(t, "not enough LP tokens", re.Reason)
}

func TestAsRevert(t *testing.T) {
	assert.Nil(t, AsRevert(errors.New("plain")))
	assert.Nil(t, AsRevert(&RPCError{Code: -32000, Message: "insufficient funds"}))

	re := AsRevert(&RPCError{Code: -32000, Message: "execution reverted"})
	require.NotNil(t, re)
	assert.Empty(t, re.Reason)

	orig := &RevertError{Hash: "0x1", Reason: "why"}
	assert.Same(t, orig, AsRevert(orig))
	assert.Equal(t, "transaction reverted (hash: 0x1): why", orig.Error())
}

// ---------------------------------------------------------------------------
// receipts
// ---------------------------------------------------------------------------

func TestGetTransactionReceiptSuccess(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_getTransactionReceipt": map[string]interface{}{
			"status":      "0x1",
			"blockNumber": "0x100",
			"gasUsed":     "0x5208",
		},
	})
	defer srv.Close()

	receipt, err := NewEVMClient(srv.URL).GetTransactionReceipt(ctx, "0xtxhash")
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, uint64(1), receipt.Status)
	assert.Equal(t, uint64(256), receipt.BlockNumber)
	assert.Equal(t, uint64(21000), receipt.GasUsed)
	assert.Equal(t, "0xtxhash", receipt.Hash)
}

func TestGetTransactionReceiptPending(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil,
	})
	defer srv.Close()

	receipt, err := NewEVMClient(srv.URL).GetTransactionReceipt(ctx, "0xpending")
	require.NoError(t, err)
	assert.Nil(t, receipt, "pending tx should return nil receipt")
}

func TestWaitForReceiptAfterPolling(t *testing.T) {
	srv, polls := receiptAfter(t, 2, map[string]interface{}{
		"status":      "0x1",
		"blockNumber": "0xA",
		"gasUsed":     "0x5208",
	})
	defer srv.Close()

	c := NewEVMClient(srv.URL, WithPollInterval(10*time.Millisecond))
	receipt, err := c.WaitForReceipt(ctx, "0xtxhash", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), receipt.BlockNumber)
	assert.Equal(t, int32(3), polls.Load())
}

// flakyReceipts answers the polls in order: "null" is a pending receipt,
// "502" an HTTP error, "mined" a successful receipt. The last entry repeats.
func flakyReceipts(t *testing.T, script ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		i := int(polls.Add(1)) - 1
		if i >= len(script) {
			i = len(script) - 1
		}
		var res interface{}
		switch script[i] {
		case "502":
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		case "mined":
			res = map[string]interface{}{"status": "0x1", "blockNumber": "0xB", "gasUsed": "0x5208"}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  res,
		})
	}))
	return srv, &polls
}

func TestWaitForReceiptSurvivesTransientErrors(t *testing.T) {
	srv, polls := flakyReceipts(t, "null", "502", "mined")
	defer srv.Close()

	c := NewEVMClient(srv.URL, WithPollInterval(10*time.Millisecond))
	receipt, err := c.WaitForReceipt(ctx, "0xflaky", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, uint64(11), receipt.BlockNumber)
	assert.Equal(t, int32(3), polls.Load())
}

func TestWaitForReceiptNodeDownUntilTimeout(t *testing.T) {
	srv, polls := flakyReceipts(t, "502")
	defer srv.Close()

	c := NewEVMClient(srv.URL, WithPollInterval(10*time.Millisecond))
	_, err := c.WaitForReceipt(ctx, "0xdown", 100*time.Millisecond)
	require.ErrorIs(t, err, ErrNotMined)
	assert.Contains(t, err.Error(), "HTTP 502")
	assert.Greater(t, polls.Load(), int32(1))
}

func TestPendingErrorUnwraps(t *testing.T) {
	err := &PendingError{Hash: "0xabc", Err: fmt.Errorf("%w: 0xabc within 1m0s", ErrNotMined)}
	assert.ErrorIs(t, err, ErrNotMined)
	assert.Contains(t, err.Error(), "0xabc was broadcast")
}

func TestWaitForReceiptReverted(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_getTransactionReceipt": map[string]interface{}{
			"status":      "0x0",
			"blockNumber": "0xA",
			"gasUsed":     "0x5208",
		},
	})
	defer srv.Close()

	receipt, err := NewEVMClient(srv.URL).WaitForReceipt(ctx, "0xreverted", 5*time.Second)
	require.ErrorIs(t, err, ErrReverted)
	require.NotNil(t, receipt)
	assert.Equal(t, uint64(0), receipt.Status)
	assert.Contains(t, err.Error(), "0xreverted")
}

func TestWaitForReceiptTimeout(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil,
	})
	defer srv.Close()

	c := NewEVMClient(srv.URL, WithPollInterval(20*time.Millisecond))
	_, err := c.WaitForReceipt(ctx, "0xstuck", 100*time.Millisecond)
	require.ErrorIs(t, err, ErrNotMined)
}

func TestWaitForReceiptCallerCancel(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil,
	})
	defer srv.Close()

	cctx, cancel := context.WithCancel(ctx)
	time.AfterFunc(50*time.Millisecond, cancel)

	c := NewEVMClient(srv.URL, WithPollInterval(10*time.Millisecond))
	_, err := c.WaitForReceipt(cctx, "0xstuck", 0)
	require.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// fees
// ---------------------------------------------------------------------------

func TestSuggestFeesLegacyChain(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_gasPrice":         "0xb2d05e00", // 3 gwei
		"eth_getBlockByNumber": map[string]interface{}{"number": "0x1"},
	})
	defer srv.Close()

	fees, err := NewEVMClient(srv.URL).SuggestFees(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3_000_000_000), fees.TipCap.Int64())
	assert.Equal(t, int64(6_000_000_000), fees.FeeCap.Int64())
}

func TestSuggestFeesWithBaseFee(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_gasPrice":         "0x1",                                                  // below the floor
		"eth_getBlockByNumber": map[string]interface{}{"baseFeePerGas": "0x2540be400"}, // 10 gwei
	})
	defer srv.Close()

	fees, err := NewEVMClient(srv.URL).SuggestFees(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), fees.TipCap.Int64())
	assert.Equal(t, int64(21_000_000_000), fees.FeeCap.Int64())
}

func TestPing(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_blockNumber": "0x10"})
	defer srv.Close()

	latency, block, err := NewEVMClient(srv.URL).Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), block)
	assert.GreaterOrEqual(t, latency, time.Duration(0))
}
