package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/metrics"
	"github.com/actuallystonmai/product-recommender/internal/recommend"
)

func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-1",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func sampleRequest() domain.OracleRequest {
	return domain.OracleRequest{
		UserID:    7,
		Purchases: []domain.PurchaseEvent{{ProductID: 1, Quantity: 1, UnitPrice: 20}},
		Candidates: []domain.CatalogEntry{
			{ID: 42, Name: "Desk Lamp", CategoryName: "Home", Price: 35, DemandScore: 0.9, Tags: []string{"light"}},
			{ID: 43, Name: "Notebook", Price: 4},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.Endpoint = srv.URL + "/v1/"
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestScore_Success(t *testing.T) {
	var got chatRequest
	var auth, path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(completion("Here you go:\n```json\n[{\"product_id\": 42, \"score\": 0.8, \"reason\": \"lamps\"}]\n```")))
	}, Config{})

	verdicts, err := client.Score(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, json.Number("42"), verdicts[0].ProductID)
	assert.Equal(t, json.Number("0.8"), verdicts[0].Score)

	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
	assert.Equal(t, 800, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, `"name": "Desk Lamp"`)
	assert.Contains(t, got.Messages[0].Content, `"category": "Unknown"`)
	assert.Contains(t, got.Messages[0].Content, "Limit to top 10 recommendations.")
}

func TestScore_NotConfigured(t *testing.T) {
	client := NewClient(Config{Endpoint: "https://api.example.com/v1"}, zerolog.Nop())

	_, err := client.Score(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, recommend.ErrOracleNotConfigured)
	assert.False(t, client.Configured())
}

func TestScore_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no array", completion("I cannot help with that.")},
		{"broken array", completion("[{\"product_id\": 1,]")},
		{"no choices", `{"choices": []}`},
		{"not json", `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}, Config{})

			_, err := client.Score(context.Background(), sampleRequest())
			require.Error(t, err)
			assert.True(t, IsMalformed(err))
			assert.ErrorIs(t, err, domain.ErrOracleMalformed)
		})
	}
}

func TestScore_SkipsNonObjectEntries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(completion(`[1, "two", {"product_id": 43, "score": 1.4}]`)))
	}, Config{})

	verdicts, err := client.Score(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, json.Number("43"), verdicts[0].ProductID)
}

func TestScore_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}, Config{})
	unavailableBefore := testutil.ToFloat64(metrics.OracleRequests.WithLabelValues("unavailable"))

	_, err := client.Score(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
	assert.Contains(t, err.Error(), "429")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.OracleRequests.WithLabelValues("unavailable"))-unavailableBefore, 1e-9)
}

func TestScore_ContextDeadline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(completion("[]")))
	}, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Score(ctx, sampleRequest())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestScore_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, Config{BreakerMinRequests: 2, BreakerFailureRatio: 0.5, BreakerOpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := client.Score(context.Background(), sampleRequest())
		require.Error(t, err)
	}

	_, err := client.Score(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.True(t, strings.Contains(err.Error(), "circuit breaker open"))
	assert.Equal(t, int32(2), hits.Load())
}

func TestScore_MalformedDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(completion("no verdicts today")))
	}, Config{BreakerMinRequests: 1, BreakerFailureRatio: 0.1})

	for i := 0; i < 3; i++ {
		_, err := client.Score(context.Background(), sampleRequest())
		assert.True(t, IsMalformed(err))
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestParseVerdicts_Greedy(t *testing.T) {
	verdicts, err := parseVerdicts("first [not json] then [{\"product_id\": 5, \"score\": 0.1}]")
	// the greedy match spans both brackets and is not valid JSON
	assert.Nil(t, verdicts)
	assert.True(t, IsMalformed(err))
}
