package domain

// Source tags the algorithm that proposed a candidate.
type Source string

const (
	SourceCollaborative Source = "collaborative"
	SourceContentBased  Source = "content_based"
	SourceOracle        Source = "oracle"
)

type ScoredCandidate struct {
	ProductID int64   `json:"product_id"`
	Score     float64 `json:"score"`
	Source    Source  `json:"source"`
}

// SourcedCandidates is one scorer's output, tagged with the scorer that produced it.
type SourcedCandidates struct {
	Source     Source
	Candidates []ScoredCandidate
}

type CombinedCandidate struct {
	ProductID int64   `json:"product_id"`
	Score     float64 `json:"score"`
}

// NeighborOrder is another user's order overlapping the target user's purchases.
type NeighborOrder struct {
	OrderID    int64
	Overlap    int
	ProductIDs []int64
}
