package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/memstore"
)

func oracleShop() *memstore.Store {
	s := memstore.New()
	s.AddUser(domain.User{ID: 1})
	for id := int64(1); id <= 5; id++ {
		p := product(id, 1, 100)
		p.DemandScore = float64(id)
		s.AddProduct(p)
	}
	s.AddOrder(order(100, 1, baseTime, 1))
	s.AddCartItem(1, domain.CartSignal{ProductID: 2, Quantity: 1, AddedAt: baseTime})
	return s
}

func TestValidateVerdicts(t *testing.T) {
	pool := []domain.CatalogEntry{product(1, 1, 10), product(2, 1, 10), product(3, 1, 10)}

	verdicts := []domain.OracleVerdict{
		{ProductID: json.Number("1"), Score: json.Number("0.9")},
		{ProductID: json.Number("2"), Score: json.Number("1.7")},
		{ProductID: json.Number("3"), Score: json.Number("-0.2")},
		// dropped below this line
		{ProductID: "1", Score: json.Number("0.5")},
		{ProductID: json.Number("1.5"), Score: json.Number("0.5")},
		{ProductID: json.Number("99"), Score: json.Number("0.5")},
		{ProductID: json.Number("2"), Score: "high"},
		{ProductID: json.Number("1"), Score: json.Number("0.1")},
		{ProductID: nil, Score: nil},
	}

	got, dropped := validateVerdicts(verdicts, pool)

	assert.Equal(t, []domain.ScoredCandidate{
		{ProductID: 1, Score: 0.9, Source: domain.SourceOracle},
		{ProductID: 2, Score: 1, Source: domain.SourceOracle},
		{ProductID: 3, Score: 0, Source: domain.SourceOracle},
	}, got)
	assert.Equal(t, 6, dropped)
}

func TestValidateVerdicts_DecodedJSON(t *testing.T) {
	pool := []domain.CatalogEntry{product(7, 1, 10), product(8, 1, 10)}

	var verdicts []domain.OracleVerdict
	dec := json.NewDecoder(strings.NewReader(`[{"product_id": 7, "score": 0.8}, {"product_id": "8", "score": 0.4}]`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&verdicts))

	got, dropped := validateVerdicts(verdicts, pool)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ProductID)
	assert.InDelta(t, 0.8, got[0].Score, 1e-9)
	assert.Equal(t, 1, dropped)
}

func TestOracleCandidates_NilOracle(t *testing.T) {
	s := oracleShop()

	got := OracleCandidates(context.Background(), snapshotFor(s, 1), Deps{Behavior: s, Catalog: s}, Options{}, zerolog.Nop())
	assert.Empty(t, got)
}

func TestOracleCandidates_RequestContext(t *testing.T) {
	s := oracleShop()
	for i := int64(0); i < 12; i++ {
		s.AddOrder(order(1000+i, 1, baseTime.Add(time.Duration(i)*time.Hour), 1))
	}

	var captured domain.OracleRequest
	oracle := oracleFunc(func(_ context.Context, req domain.OracleRequest) ([]domain.OracleVerdict, error) {
		captured = req
		return []domain.OracleVerdict{
			{ProductID: json.Number("5"), Score: json.Number("0.6")},
			// product 1 was purchased and is not part of the pool
			{ProductID: json.Number("1"), Score: json.Number("0.9")},
		}, nil
	})

	got := OracleCandidates(context.Background(), snapshotFor(s, 1), Deps{Behavior: s, Catalog: s, Oracle: oracle}, Options{OraclePoolSize: 2}, zerolog.Nop())

	assert.Equal(t, []domain.ScoredCandidate{{ProductID: 5, Score: 0.6, Source: domain.SourceOracle}}, got)

	require.Len(t, captured.Candidates, 2)
	assert.Equal(t, int64(5), captured.Candidates[0].ID, "pool is ordered by demand")
	assert.Equal(t, int64(4), captured.Candidates[1].ID)
	assert.Len(t, captured.Purchases, defaultOraclePurchases)
	assert.True(t, captured.Purchases[0].OrderedAt.After(captured.Purchases[1].OrderedAt), "most recent purchases first")
	assert.Len(t, captured.Cart, 1)
	assert.Equal(t, int64(1), captured.UserID)
}

func TestOracleCandidates_Timeout(t *testing.T) {
	s := oracleShop()
	oracle := oracleFunc(func(ctx context.Context, _ domain.OracleRequest) ([]domain.OracleVerdict, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	start := time.Now()
	got := OracleCandidates(context.Background(), snapshotFor(s, 1), Deps{Behavior: s, Catalog: s, Oracle: oracle}, Options{OracleTimeout: 20 * time.Millisecond}, zerolog.Nop())

	assert.Empty(t, got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOracleCandidates_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not configured", ErrOracleNotConfigured},
		{"upstream failure", errors.New("502 bad gateway")},
		{"malformed body", domain.ErrOracleMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := oracleShop()
			oracle := oracleFunc(func(context.Context, domain.OracleRequest) ([]domain.OracleVerdict, error) {
				return nil, tt.err
			})

			got := OracleCandidates(context.Background(), snapshotFor(s, 1), Deps{Behavior: s, Catalog: s, Oracle: oracle}, Options{}, zerolog.Nop())
			assert.Empty(t, got)
		})
	}
}

func TestOracleCandidates_PoolUnavailable(t *testing.T) {
	s := oracleShop()
	snap := snapshotFor(s, 1)
	s.FailOn("TopByDemand", errors.New("timeout"))

	called := false
	oracle := oracleFunc(func(context.Context, domain.OracleRequest) ([]domain.OracleVerdict, error) {
		called = true
		return nil, nil
	})

	got := OracleCandidates(context.Background(), snap, Deps{Behavior: s, Catalog: s, Oracle: oracle}, Options{}, zerolog.Nop())
	assert.Empty(t, got)
	assert.False(t, called)
}
