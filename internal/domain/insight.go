package domain

type CrossSellPair struct {
	Product1ID   int64   `json:"product1_id"`
	Product2ID   int64   `json:"product2_id"`
	Frequency    int     `json:"frequency"`
	Product1Name string  `json:"product1_name"`
	Product2Name string  `json:"product2_name"`
	Confidence   float64 `json:"confidence"`
}

type TrendingProduct struct {
	ProductID     int64   `json:"product_id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	RecentSales   int     `json:"recent_sales"`
	TotalQuantity int     `json:"total_quantity"`
	AvgRating     float64 `json:"avg_rating"`
	TrendScore    float64 `json:"trend_score"`
}

type CategoryAffinity struct {
	Category1   string `json:"category1"`
	Category2   string `json:"category2"`
	CoPurchases int    `json:"co_purchases"`
}

// OrderVolume summarizes purchased orders over a trailing window.
type OrderVolume struct {
	WindowDays    int     `json:"window_days"`
	TotalOrders   int     `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
}
