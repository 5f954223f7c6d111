package swap

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sol_cycle/internal/domain"
	"sol_cycle/internal/infra"

	"github.com/shopspring/decimal"
)

// Client builds swap transactions through the SolanaTracker swap API.
// It implements domain.SwapGateway.
type Client struct {
	baseURL     string
	apiKey      string
	forceLegacy bool
	maxRetries  int
	httpClient  *http.Client
	backoff     func(retry int) time.Duration
	logger      *slog.Logger
}

// NewClient creates a swap API client from config
func NewClient(cfg *infra.Config) *Client {
	timeout := time.Duration(cfg.Swap.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.Swap.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.Swap.BaseURL, "/"),
		apiKey:      cfg.Swap.APIKey,
		forceLegacy: cfg.Swap.ForceLegacy,
		maxRetries:  retries,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		backoff: infra.CalculateBackoff,
		logger:  slog.Default().With(slog.String("module", "swap")),
	}
}

// Quote requests a ready-to-sign transaction for req.
// Transient HTTP failures (429, 5xx, transport) are retried with exponential backoff.
func (c *Client) Quote(ctx context.Context, req domain.SwapRequest) (*domain.SwapInstructions, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("swap amount must be positive, got %s", req.Amount)
	}

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			delay := c.backoff(i)
			c.logger.Info("Retrying swap quote", slog.Int("attempt", i), slog.Duration("delay", delay))
			if err := infra.SleepContext(ctx, delay); err != nil {
				return nil, err
			}
		}

		ins, err := c.doQuote(ctx, req)
		if err == nil {
			return ins, nil
		}
		lastErr = err
		if !domain.IsRetriable(err) {
			return nil, err
		}
		c.logger.Warn("Swap quote attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))
	}
	return nil, lastErr
}

func (c *Client) doQuote(ctx context.Context, req domain.SwapRequest) (*domain.SwapInstructions, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.swapURL(req), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", infra.DefaultUserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewNetworkError("quote", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError("quote", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, apiErrorMessage(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, domain.NewNetworkError("quote", statusErr)
		}
		return nil, domain.NewFatalNetworkError("quote", statusErr)
	}

	var data swapResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode swap response: %w", err)
	}
	if data.Error != "" {
		return nil, fmt.Errorf("swap api: %s", data.Error)
	}
	if data.Txn == "" {
		return nil, domain.ErrNoInstructions
	}

	raw, err := base64.StdEncoding.DecodeString(data.Txn)
	if err != nil {
		return nil, fmt.Errorf("decode swap transaction: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.ErrNoInstructions
	}

	if data.Rate != nil {
		c.logger.Debug("Swap quoted",
			slog.Float64("amount_in", data.Rate.AmountIn),
			slog.Float64("amount_out", data.Rate.AmountOut),
			slog.Float64("price_impact", data.Rate.PriceImpact),
		)
	}

	return &domain.SwapInstructions{Transaction: raw, Kind: data.Type}, nil
}

// swapURL encodes the request. Slippage is sent in percent.
func (c *Client) swapURL(req domain.SwapRequest) string {
	q := url.Values{}
	q.Set("from", req.From)
	q.Set("to", req.To)
	q.Set("fromAmount", req.Amount.String())
	q.Set("slippage", BpsToPercent(req.SlippageBps).String())
	q.Set("payer", req.Payer)
	if req.Fee.IsPositive() {
		q.Set("priorityFee", req.Fee.String())
	}
	q.Set("forceLegacy", strconv.FormatBool(c.forceLegacy))
	return c.baseURL + "/swap?" + q.Encode()
}

// BpsToPercent converts basis points to percent (200 -> 2).
func BpsToPercent(bps int) decimal.Decimal {
	return decimal.NewFromInt(int64(bps)).Div(decimal.NewFromInt(100))
}

func apiErrorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return "empty body"
	}
	return msg
}
