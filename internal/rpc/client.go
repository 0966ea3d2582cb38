package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Client is an HTTP client with retry and timeout support for Solana RPC
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logrus.Logger
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

// NewClient creates a new RPC client with retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      cfg.BaseURL,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       cfg.Logger,
	}
}

// Call makes a JSON-RPC call with retry logic
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  method,
			}).Debug("retrying RPC call")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		resp, err := c.doRequest(ctx, data)
		if err != nil {
			lastErr = err
			continue
		}

		if err := json.Unmarshal(resp, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}

		return nil
	}

	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// GetLatestBlockhash fetches the most recent blockhash at the given commitment
func (c *Client) GetLatestBlockhash(ctx context.Context, commitment string) (*LatestBlockhash, error) {
	if commitment == "" {
		commitment = "finalized"
	}

	var resp struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Blockhash            string `json:"blockhash"`
				LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		map[string]any{"commitment": commitment},
	}

	if err := c.Call(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	hash, err := solana.HashFromBase58(resp.Result.Value.Blockhash)
	if err != nil {
		return nil, fmt.Errorf("invalid blockhash format: %w", err)
	}

	return &LatestBlockhash{
		Blockhash:            hash,
		LastValidBlockHeight: resp.Result.Value.LastValidBlockHeight,
		Slot:                 resp.Result.Context.Slot,
	}, nil
}

// GetMultipleAccounts fetches several accounts in one batched call. The
// returned slice has the same length and order as keys; accounts that do not
// exist on chain are nil.
func (c *Client) GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([]*AccountInfo, error) {
	if len(keys) == 0 {
		return []*AccountInfo{}, nil
	}

	addrs := make([]string, len(keys))
	for i, k := range keys {
		addrs[i] = k.String()
	}

	var resp struct {
		Result struct {
			Value []*struct {
				Data       []string `json:"data"`
				Owner      string   `json:"owner"`
				Lamports   uint64   `json:"lamports"`
				Executable bool     `json:"executable"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		addrs,
		map[string]any{"encoding": "base64"},
	}

	if err := c.Call(ctx, "getMultipleAccounts", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if len(resp.Result.Value) != len(keys) {
		return nil, fmt.Errorf("getMultipleAccounts: expected %d accounts, got %d", len(keys), len(resp.Result.Value))
	}

	out := make([]*AccountInfo, len(keys))
	for i, v := range resp.Result.Value {
		if v == nil {
			continue
		}
		if len(v.Data) == 0 {
			return nil, fmt.Errorf("getMultipleAccounts: account %s has no data", addrs[i])
		}
		data, err := base64.StdEncoding.DecodeString(v.Data[0])
		if err != nil {
			return nil, fmt.Errorf("getMultipleAccounts: account %s: invalid base64 data: %w", addrs[i], err)
		}
		owner, err := solana.PublicKeyFromBase58(v.Owner)
		if err != nil {
			return nil, fmt.Errorf("getMultipleAccounts: account %s: invalid owner: %w", addrs[i], err)
		}
		out[i] = &AccountInfo{
			Owner:      owner,
			Lamports:   v.Lamports,
			Executable: v.Executable,
			Data:       data,
		}
	}

	return out, nil
}

// SendTransaction submits a base64-encoded signed transaction and returns its
// signature
func (c *Client) SendTransaction(ctx context.Context, encodedTx string, opts SendOptions) (string, error) {
	cfg := map[string]any{
		"encoding":      "base64",
		"skipPreflight": opts.SkipPreflight,
	}
	if opts.PreflightCommitment != "" {
		cfg["preflightCommitment"] = opts.PreflightCommitment
	}
	if opts.MaxRetries != nil {
		cfg["maxRetries"] = *opts.MaxRetries
	}

	var resp struct {
		Result string    `json:"result"`
		Error  *RPCError `json:"error"`
	}

	if err := c.Call(ctx, "sendTransaction", []any{encodedTx, cfg}, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	return resp.Result, nil
}

// GetTransaction fetches a landed transaction by signature. It returns nil
// without error while the node does not know the transaction yet.
func (c *Client) GetTransaction(ctx context.Context, signature string, commitment string) (*TransactionStatus, error) {
	if commitment == "" {
		commitment = "confirmed"
	}

	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "json",
			"commitment":                     commitment,
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result struct {
		Result *struct {
			Slot      uint64 `json:"slot"`
			BlockTime *int64 `json:"blockTime"`
			Meta      *struct {
				Err                  interface{} `json:"err"`
				Fee                  uint64      `json:"fee"`
				ComputeUnitsConsumed *uint64     `json:"computeUnitsConsumed"`
				LogMessages          []string    `json:"logMessages"`
			} `json:"meta"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	if err := c.Call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}
	if result.Result == nil {
		return nil, nil
	}

	status := &TransactionStatus{
		Signature: signature,
		Slot:      result.Result.Slot,
		BlockTime: result.Result.BlockTime,
	}
	if m := result.Result.Meta; m != nil {
		status.Err = m.Err
		status.Fee = m.Fee
		status.Logs = m.LogMessages
		if m.ComputeUnitsConsumed != nil {
			status.ComputeUnits = *m.ComputeUnitsConsumed
		}
	}

	return status, nil
}
