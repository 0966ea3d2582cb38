package jupiter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wsolMint = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

var computeBudgetProgram = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

func quoteBody(mode string) string {
	return `{
		"inputMint": "` + wsolMint + `",
		"outputMint": "` + usdcMint + `",
		"inAmount": "5000000",
		"outAmount": "912345",
		"otherAmountThreshold": "866728",
		"swapMode": "` + mode + `",
		"slippageBps": 500,
		"priceImpactPct": "0",
		"routePlan": [],
		"contextSlot": 12345,
		"timeTaken": 0.01,
		"swapUsdValue": "0.91"
	}`
}

func testInstruction(program solana.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		ProgramID: program.String(),
		Accounts:  accounts,
		Data:      base64.StdEncoding.EncodeToString(data),
	}
}

func TestQuote_RequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(quoteBody(SwapModeExactIn)))
	}))
	defer srv.Close()

	slippage := uint16(500)
	direct := true
	c := NewClient(srv.URL+"/", "k123")
	q, err := c.Quote(context.Background(), QuoteRequest{
		InputMint:        wsolMint,
		OutputMint:       usdcMint,
		Amount:           "5000000",
		SlippageBps:      &slippage,
		SwapMode:         SwapModeExactIn,
		OnlyDirectRoutes: &direct,
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/quote", got.URL.Path)
	params := got.URL.Query()
	assert.Equal(t, wsolMint, params.Get("inputMint"))
	assert.Equal(t, usdcMint, params.Get("outputMint"))
	assert.Equal(t, "5000000", params.Get("amount"))
	assert.Equal(t, "500", params.Get("slippageBps"))
	assert.Equal(t, "true", params.Get("onlyDirectRoutes"))
	assert.Equal(t, "ExactIn", params.Get("swapMode"))
	assert.Equal(t, "k123", got.Header.Get("x-api-key"))

	assert.Equal(t, "912345", q.OutAmount)
	assert.Equal(t, uint64(5000000), q.InAmountUint64())
	assert.Equal(t, uint64(12345), q.ContextSlot)
}

func TestQuote_RequiredFields(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "")
	_, err := c.Quote(context.Background(), QuoteRequest{OutputMint: usdcMint, Amount: "1"})
	assert.EqualError(t, err, "inputMint is required")
	_, err = c.Quote(context.Background(), QuoteRequest{InputMint: wsolMint, Amount: "1"})
	assert.EqualError(t, err, "outputMint is required")
	_, err = c.Quote(context.Background(), QuoteRequest{InputMint: wsolMint, OutputMint: usdcMint})
	assert.EqualError(t, err, "amount is required")
	_, err = c.Quote(context.Background(), QuoteRequest{InputMint: wsolMint, OutputMint: usdcMint, Amount: "1", SwapMode: "Both"})
	assert.Error(t, err)
}

func TestQuote_ErrorFieldIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Could not find any route"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Quote(context.Background(), QuoteRequest{
		InputMint: wsolMint, OutputMint: usdcMint, Amount: "1",
	})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, endpointQuote, apiErr.Endpoint)
	assert.Contains(t, err.Error(), "Could not find any route")
}

func TestQuote_InvalidPayloadFailsAtBoundary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"inputMint":"` + wsolMint + `","outputMint":"` + usdcMint + `","inAmount":"abc","outAmount":"1","otherAmountThreshold":"1","swapMode":"ExactIn"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Quote(context.Background(), QuoteRequest{
		InputMint: wsolMint, OutputMint: usdcMint, Amount: "1",
	})
	require.Error(t, err)

	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, "inAmount", decErr.Field)
}

func TestQuote_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Quote(context.Background(), QuoteRequest{
		InputMint: wsolMint, OutputMint: usdcMint, Amount: "1",
	})
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, "jupiter http 503: upstream down", err.Error())
}

func TestSwapInstructions_RequestAndDecode(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	program := solana.NewWallet().PublicKey()
	alt := solana.NewWallet().PublicKey()

	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/swap-instructions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))

		resp := SwapInstructionsResponse{
			ComputeBudgetInstructions: []Instruction{
				testInstruction(computeBudgetProgram, []byte{2, 0, 0, 0, 0}),
			},
			SetupInstructions: []Instruction{},
			SwapInstruction: ptr(testInstruction(program, []byte{9, 9},
				AccountMeta{Pubkey: payer.String(), IsSigner: true, IsWritable: true})),
			AddressLookupTableAddresses: []string{alt.String()},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	var quote QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(quoteBody(SwapModeExactIn)), &quote))
	quote.raw = json.RawMessage(quoteBody(SwapModeExactIn))

	out, err := NewClient(srv.URL, "").SwapInstructions(context.Background(), &quote, payer)
	require.NoError(t, err)

	assert.JSONEq(t, `"`+payer.String()+`"`, string(body["userPublicKey"]))
	assert.JSONEq(t, `false`, string(body["wrapAndUnwrapSol"]))
	assert.JSONEq(t, `100000000000`, string(body["computeUnitPriceMicroLamports"]))
	// fields not modelled by QuoteResponse must be echoed back
	assert.Contains(t, string(body["quoteResponse"]), "swapUsdValue")

	assert.Equal(t, payer, out.Payer)
	assert.Len(t, out.ComputeBudgetInstructions, 1)
	assert.Equal(t, []string{alt.String()}, out.AddressLookupTableAddresses)

	ixs, err := out.Instructions()
	require.NoError(t, err)
	require.Len(t, ixs, 2)
	assert.Equal(t, computeBudgetProgram, ixs[0].ProgramID())
	assert.Equal(t, program, ixs[1].ProgramID())
}

func TestSwapInstructions_ErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Slippage tolerance exceeded"}`))
	}))
	defer srv.Close()

	var quote QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(quoteBody(SwapModeExactOut)), &quote))

	_, err := NewClient(srv.URL, "").SwapInstructions(context.Background(), &quote, solana.NewWallet().PublicKey())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Slippage tolerance exceeded")
	assert.Contains(t, err.Error(), "failed to get swap instructions")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestSwapInstructions_MissingSwapInstruction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"computeBudgetInstructions":[],"setupInstructions":[],"addressLookupTableAddresses":[]}`))
	}))
	defer srv.Close()

	var quote QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(quoteBody(SwapModeExactIn)), &quote))

	_, err := NewClient(srv.URL, "").SwapInstructions(context.Background(), &quote, solana.NewWallet().PublicKey())
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, "swapInstruction", decErr.Field)
}

func TestSwapInstructions_RequiresPayer(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:0", "").SwapInstructions(context.Background(), &QuoteResponse{}, solana.PublicKey{})
	assert.EqualError(t, err, "payer is required")
}

func TestErrorField(t *testing.T) {
	tests := []struct {
		body string
		msg  string
		ok   bool
	}{
		{`{"error":"boom"}`, "boom", true},
		{`{"error":""}`, "", false},
		{`{"error":null}`, "", false},
		{`{"error":false}`, "", false},
		{`{"error":0}`, "", false},
		{`{"error":{"code":1}}`, `{"code":1}`, true},
		{`{"inputMint":"x"}`, "", false},
		{`[1,2]`, "", false},
		{`not json`, "", false},
	}
	for _, tt := range tests {
		msg, ok := errorField([]byte(tt.body))
		assert.Equal(t, tt.ok, ok, tt.body)
		assert.Equal(t, tt.msg, msg, tt.body)
	}
}

func ptr[T any](v T) *T { return &v }
