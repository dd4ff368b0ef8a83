package domain

// OracleRequest is the context handed to the relevance oracle: a truncated
// behavior snapshot and the candidate pool it may choose from.
type OracleRequest struct {
	UserID     int64
	Purchases  []PurchaseEvent
	Cart       []CartSignal
	Reviews    []ReviewSignal
	Candidates []CatalogEntry
}

// OracleVerdict is one raw entry returned by the relevance oracle. Fields are
// untyped because the oracle output is validated by the caller.
type OracleVerdict struct {
	ProductID any `json:"product_id"`
	Score     any `json:"score"`
}
