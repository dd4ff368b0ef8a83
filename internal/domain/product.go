package domain

// CatalogEntry is a product as the catalog store currently sees it.
type CatalogEntry struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	CategoryID    int64    `json:"category_id"`
	CategoryName  string   `json:"category_name"`
	Tags          []string `json:"tags"`
	Price         float64  `json:"price"`
	StockQuantity int      `json:"stock_quantity"`
	IsActive      bool     `json:"is_active"`
	IsFeatured    bool     `json:"is_featured"`
	DemandScore   float64  `json:"demand_score"`
	Images        []string `json:"images"`
}

// Available reports whether the entry can be shown to a shopper right now.
func (e CatalogEntry) Available() bool {
	return e.IsActive && e.StockQuantity > 0
}
