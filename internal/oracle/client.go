// Package oracle is an OpenAI-compatible chat completions client that scores
// candidate products for a user. It implements recommend.Oracle.
package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/metrics"
	"github.com/actuallystonmai/product-recommender/internal/recommend"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.3
	defaultMaxTokens   = 800
	defaultMaxPicks    = 10
	breakerName        = "relevance-oracle"
)

type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	// MaxPicks is the number of recommendations the prompt asks for.
	MaxPicks int
	// HTTPTimeout caps a single HTTP round trip. The caller's context deadline
	// applies as well.
	HTTPTimeout time.Duration

	// Breaker settings. Zero values use the defaults in NewClient.
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type Client struct {
	httpClient *http.Client
	cfg        Config
	cb         *gobreaker.CircuitBreaker[[]domain.OracleVerdict]
	logger     zerolog.Logger
}

//nolint:gocritic // zerolog.Logger is passed by value
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.MaxPicks == 0 {
		cfg.MaxPicks = defaultMaxPicks
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.BreakerMinRequests == 0 {
		cfg.BreakerMinRequests = 5
	}
	if cfg.BreakerFailureRatio == 0 {
		cfg.BreakerFailureRatio = 0.6
	}
	if cfg.BreakerOpenTimeout == 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		cfg:        cfg,
		logger:     logger.With().Str("component", "oracle").Logger(),
	}

	metrics.OracleBreakerState.Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]domain.OracleVerdict](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("oracle circuit breaker state change")
			metrics.OracleBreakerState.Set(stateToFloat(to))
		},
		// malformed output and caller cancellation say nothing about oracle health
		IsSuccessful: func(err error) bool {
			return err == nil || IsMalformed(err) || errors.Is(err, context.Canceled)
		},
	})

	return c
}

// Configured reports whether the client has an endpoint and credentials.
func (c *Client) Configured() bool {
	return c.cfg.Endpoint != "" && c.cfg.APIKey != ""
}

// Score asks the oracle to rank req.Candidates. The returned verdicts are raw
// and must be validated against the candidate pool by the caller.
func (c *Client) Score(ctx context.Context, req domain.OracleRequest) ([]domain.OracleVerdict, error) {
	if !c.Configured() {
		return nil, recommend.ErrOracleNotConfigured
	}

	verdicts, err := c.cb.Execute(func() ([]domain.OracleVerdict, error) {
		return c.score(ctx, req)
	})
	switch {
	case err == nil:
		metrics.OracleRequests.WithLabelValues("success").Inc()
		return verdicts, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.OracleRequests.WithLabelValues("rejected").Inc()
		return nil, unavailable("circuit breaker open", err)
	case IsMalformed(err):
		metrics.OracleRequests.WithLabelValues("malformed").Inc()
		return nil, err
	case IsUnavailable(err):
		metrics.OracleRequests.WithLabelValues("unavailable").Inc()
		c.logger.Debug().Err(err).Int64("user_id", req.UserID).Msg("oracle unavailable")
		return nil, err
	default:
		metrics.OracleRequests.WithLabelValues("failure").Inc()
		return nil, err
	}
}

func (c *Client) score(ctx context.Context, req domain.OracleRequest) ([]domain.OracleVerdict, error) {
	prompt, err := buildPrompt(req, c.cfg.MaxPicks)
	if err != nil {
		return nil, malformed("build prompt", err)
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return nil, malformed("marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, unavailable("create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, unavailable("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, unavailable(fmt.Sprintf("status %d", resp.StatusCode), errors.New(strings.TrimSpace(string(snippet))))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, malformed("decode response", err)
	}
	if len(chat.Choices) == 0 {
		return nil, malformed("response has no choices", nil)
	}

	return parseVerdicts(chat.Choices[0].Message.Content)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
