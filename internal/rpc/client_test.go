package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestServer(t *testing.T, handle func(req rpcRequest) any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  handle(req),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string, retries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:      url,
		Timeout:      2 * time.Second,
		MaxRetries:   retries,
		RetryBackoff: 10 * time.Millisecond,
	})
}

func TestGetMultipleAccounts_PreservesOrderAndNulls(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	data := []byte{1, 2, 3, 4}

	var gotAddrs []string
	srv := newTestServer(t, func(req rpcRequest) any {
		assert.Equal(t, "getMultipleAccounts", req.Method)
		assert.NoError(t, json.Unmarshal(req.Params[0], &gotAddrs))
		return map[string]any{
			"context": map[string]any{"slot": 10},
			"value": []any{
				nil,
				map[string]any{
					"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
					"owner":      owner.String(),
					"lamports":   42,
					"executable": false,
				},
				nil,
			},
		}
	})

	keys := []solana.PublicKey{
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
	}

	out, err := newTestClient(srv.URL, 0).GetMultipleAccounts(context.Background(), keys)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Nil(t, out[0])
	assert.Nil(t, out[2])
	require.NotNil(t, out[1])
	assert.Equal(t, data, out[1].Data)
	assert.Equal(t, owner, out[1].Owner)
	assert.Equal(t, uint64(42), out[1].Lamports)

	assert.Equal(t, []string{keys[0].String(), keys[1].String(), keys[2].String()}, gotAddrs)
}

func TestGetMultipleAccounts_Empty(t *testing.T) {
	out, err := newTestClient("http://127.0.0.1:0", 0).GetMultipleAccounts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGetTransaction_NotFoundIsNil(t *testing.T) {
	srv := newTestServer(t, func(req rpcRequest) any {
		assert.Equal(t, "getTransaction", req.Method)
		return nil
	})

	status, err := newTestClient(srv.URL, 0).GetTransaction(context.Background(), "sig", "")
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestGetTransaction_Landed(t *testing.T) {
	srv := newTestServer(t, func(req rpcRequest) any {
		return map[string]any{
			"slot": 123,
			"meta": map[string]any{
				"err":                  map[string]any{"InstructionError": []any{2, "Custom"}},
				"fee":                  5000,
				"computeUnitsConsumed": 90000,
			},
		}
	})

	status, err := newTestClient(srv.URL, 0).GetTransaction(context.Background(), "sig", "confirmed")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, uint64(123), status.Slot)
	assert.Equal(t, uint64(5000), status.Fee)
	assert.Equal(t, uint64(90000), status.ComputeUnits)
	assert.True(t, status.Failed())
}

func TestGetLatestBlockhash(t *testing.T) {
	hash := solana.HashFromBytes(make([]byte, 32))
	srv := newTestServer(t, func(req rpcRequest) any {
		return map[string]any{
			"context": map[string]any{"slot": 7},
			"value": map[string]any{
				"blockhash":            hash.String(),
				"lastValidBlockHeight": 99,
			},
		}
	})

	bh, err := newTestClient(srv.URL, 0).GetLatestBlockhash(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, hash, bh.Blockhash)
	assert.Equal(t, uint64(99), bh.LastValidBlockHeight)
	assert.Equal(t, uint64(7), bh.Slot)
}

func TestSendTransaction_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32002,"message":"Blockhash not found"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).SendTransaction(context.Background(), "AQ==", SendOptions{SkipPreflight: true})
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32002, rpcErr.Code)
}

func TestCall_RetriesOnTransportFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"ok"}`))
	}))
	defer srv.Close()

	var out struct {
		Result string `json:"result"`
	}
	require.NoError(t, newTestClient(srv.URL, 3).Call(context.Background(), "getHealth", nil, &out))
	assert.Equal(t, "ok", out.Result)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCall_NoRetriesMeansSingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var out any
	err := newTestClient(srv.URL, 0).Call(context.Background(), "getHealth", nil, &out)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
