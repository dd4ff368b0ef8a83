package recommend

import (
	"time"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

const (
	defaultMinOverlap          = 2
	defaultNeighborOrderLimit  = 50
	defaultCollaborativeLimit  = 20
	defaultContentPoolSize     = 30
	defaultContentMinScore     = 0.3
	defaultOraclePoolSize      = 20
	defaultOraclePurchases     = 10
	defaultOracleReviews       = 5
	defaultOracleTimeout       = 5 * time.Second
	defaultUnknownSourceWeight = 0.33
)

// Weights maps each scorer to its contribution in the combined score.
var Weights = map[domain.Source]float64{
	domain.SourceCollaborative: 0.4,
	domain.SourceContentBased:  0.3,
	domain.SourceOracle:        0.3,
}

// Options tunes the pipeline. Zero values fall back to the defaults above.
type Options struct {
	MinOverlap         int
	NeighborOrderLimit int
	CollaborativeLimit int

	ContentPoolSize int
	ContentMinScore float64

	OraclePoolSize  int
	OraclePurchases int
	OracleReviews   int
	OracleTimeout   time.Duration

	// StrictBounds clamps content and combined scores to [0,1].
	StrictBounds bool
}

func (o Options) withDefaults() Options {
	if o.MinOverlap < 1 {
		o.MinOverlap = defaultMinOverlap
	}
	if o.NeighborOrderLimit < 1 {
		o.NeighborOrderLimit = defaultNeighborOrderLimit
	}
	if o.CollaborativeLimit < 1 {
		o.CollaborativeLimit = defaultCollaborativeLimit
	}
	if o.ContentPoolSize < 1 {
		o.ContentPoolSize = defaultContentPoolSize
	}
	if o.ContentMinScore <= 0 {
		o.ContentMinScore = defaultContentMinScore
	}
	if o.OraclePoolSize < 1 {
		o.OraclePoolSize = defaultOraclePoolSize
	}
	if o.OraclePurchases < 1 {
		o.OraclePurchases = defaultOraclePurchases
	}
	if o.OracleReviews < 1 {
		o.OracleReviews = defaultOracleReviews
	}
	if o.OracleTimeout <= 0 {
		o.OracleTimeout = defaultOracleTimeout
	}
	return o
}
