package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/time/rate"
)

const (
	endpointQuote            = "quote"
	endpointSwapInstructions = "swap-instructions"

	// DefaultComputeUnitPriceMicroLamports is a deliberately aggressive
	// priority fee bid.
	DefaultComputeUnitPriceMicroLamports uint64 = 100_000_000_000
)

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client

	ComputeUnitPriceMicroLamports uint64
	WrapAndUnwrapSol              bool

	limiter *rate.Limiter
}

func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.jup.ag/swap/v1"
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
		ComputeUnitPriceMicroLamports: DefaultComputeUnitPriceMicroLamports,
	}
}

// WithRateLimit throttles outgoing requests to perSecond with the given burst.
// A non-positive rate disables throttling.
func (c *Client) WithRateLimit(perSecond float64, burst int) *Client {
	if perSecond <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// WithTimeout replaces the HTTP client timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.HTTP.Timeout = d
	}
	return c
}

func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if strings.TrimSpace(req.InputMint) == "" {
		return nil, fmt.Errorf("inputMint is required")
	}
	if strings.TrimSpace(req.OutputMint) == "" {
		return nil, fmt.Errorf("outputMint is required")
	}
	if strings.TrimSpace(req.Amount) == "" {
		return nil, fmt.Errorf("amount is required")
	}
	if req.SwapMode != "" && req.SwapMode != SwapModeExactIn && req.SwapMode != SwapModeExactOut {
		return nil, fmt.Errorf("swapMode must be %s or %s", SwapModeExactIn, SwapModeExactOut)
	}

	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", req.Amount)

	if req.SlippageBps != nil {
		q.Set("slippageBps", fmt.Sprintf("%d", *req.SlippageBps))
	}
	if req.OnlyDirectRoutes != nil {
		q.Set("onlyDirectRoutes", fmt.Sprintf("%t", *req.OnlyDirectRoutes))
	}
	if req.SwapMode != "" {
		q.Set("swapMode", req.SwapMode)
	}
	if len(req.Dexes) > 0 {
		q.Set("dexes", strings.Join(req.Dexes, ","))
	}
	if len(req.ExcludeDexes) > 0 {
		q.Set("excludeDexes", strings.Join(req.ExcludeDexes, ","))
	}
	if req.RestrictIntermediateTokens != nil {
		q.Set("restrictIntermediateTokens", fmt.Sprintf("%t", *req.RestrictIntermediateTokens))
	}
	if req.AsLegacyTransaction != nil {
		q.Set("asLegacyTransaction", fmt.Sprintf("%t", *req.AsLegacyTransaction))
	}
	if req.PlatformFeeBps != nil {
		q.Set("platformFeeBps", fmt.Sprintf("%d", *req.PlatformFeeBps))
	}
	if req.MaxAccounts != nil {
		q.Set("maxAccounts", fmt.Sprintf("%d", *req.MaxAccounts))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+endpointQuote+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, httpReq, endpointQuote)
	if err != nil {
		return nil, err
	}

	var out QuoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode jupiter quote response: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("jupiter quote response: %w", err)
	}
	out.raw = json.RawMessage(body)
	return &out, nil
}

// SwapInstructions asks the API for the instructions that execute quote with
// payer as the signing user.
func (c *Client) SwapInstructions(ctx context.Context, quote *QuoteResponse, payer solana.PublicKey) (*SwapInstructionsResponse, error) {
	if quote == nil {
		return nil, fmt.Errorf("quote is required")
	}
	if payer.IsZero() {
		return nil, fmt.Errorf("payer is required")
	}

	payload, err := json.Marshal(swapInstructionsRequest{
		QuoteResponse:                 quote,
		UserPublicKey:                 payer.String(),
		WrapAndUnwrapSol:              c.WrapAndUnwrapSol,
		ComputeUnitPriceMicroLamports: c.ComputeUnitPriceMicroLamports,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode swap-instructions request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+endpointSwapInstructions, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := c.do(ctx, httpReq, endpointSwapInstructions)
	if err != nil {
		return nil, err
	}

	var out SwapInstructionsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode jupiter swap-instructions response: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("jupiter swap-instructions response: %w", err)
	}
	out.Payer = payer
	return &out, nil
}

func (c *Client) do(ctx context.Context, httpReq *http.Request, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	httpReq.Header.Set("accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read jupiter %s response: %w", endpoint, err)
	}

	if msg, ok := errorField(body); ok {
		return nil, &APIError{Endpoint: endpoint, StatusCode: res.StatusCode, Message: msg}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}
	return body, nil
}
