package seeds

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	numUsers    = 50
	numProducts = 120
	numOrders   = 400
	numCart     = 80
	numReviews  = 200
)

var categories = []string{
	"Electronics", "Audio", "Home & Kitchen", "Books",
	"Sports", "Toys", "Beauty", "Garden",
}

var catalog = map[string][]string{
	"Electronics":    {"Smartphone", "Tablet", "Laptop", "Smartwatch", "E-Reader"},
	"Audio":          {"Headphones", "Earbuds", "Speaker", "Soundbar", "Turntable"},
	"Home & Kitchen": {"Blender", "Coffee Maker", "Air Fryer", "Knife Set", "Toaster"},
	"Books":          {"Cookbook", "Thriller Novel", "Biography", "Atlas", "Poetry Collection"},
	"Sports":         {"Yoga Mat", "Dumbbells", "Tennis Racket", "Running Shoes", "Water Bottle"},
	"Toys":           {"Puzzle", "Building Blocks", "Board Game", "Plush Bear", "RC Car"},
	"Beauty":         {"Face Serum", "Hair Dryer", "Lip Balm", "Perfume", "Sunscreen"},
	"Garden":         {"Hose", "Pruning Shears", "Planter", "Seed Kit", "Lawn Chair"},
}

var tagPool = map[string][]string{
	"Electronics":    {"wireless", "portable", "smart", "usb-c", "premium"},
	"Audio":          {"wireless", "bluetooth", "noise-cancelling", "portable", "premium"},
	"Home & Kitchen": {"stainless", "compact", "dishwasher-safe", "electric", "gift"},
	"Books":          {"hardcover", "bestseller", "paperback", "gift", "illustrated"},
	"Sports":         {"outdoor", "lightweight", "portable", "training", "eco"},
	"Toys":           {"kids", "educational", "gift", "family", "outdoor"},
	"Beauty":         {"organic", "travel-size", "gift", "vegan", "premium"},
	"Garden":         {"outdoor", "eco", "durable", "compact", "gift"},
}

// Setup truncates the shop tables and fills them with a deterministic data set.
//
//nolint:gocritic // zerolog.Logger is passed by value
func Setup(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	rng := rand.New(rand.NewSource(42))
	log := logger.With().Str("component", "seed").Logger()

	// Truncate existing data before insert
	log.Info().Msg("truncating existing data")
	if _, err := pool.Exec(ctx, `
		TRUNCATE agent_logs, reviews, cart_items, order_items, orders, products, categories, users
		RESTART IDENTITY CASCADE
	`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	steps := []struct {
		name string
		fn   func(context.Context, *pgxpool.Pool, *rand.Rand) error
	}{
		{"users", seedUsers},
		{"categories", seedCategories},
		{"products", seedProducts},
		{"orders", seedOrders},
		{"cart items", seedCart},
		{"reviews", seedReviews},
	}
	for _, step := range steps {
		log.Info().Str("table", step.name).Msg("inserting")
		if err := step.fn(ctx, pool, rng); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
	}

	log.Info().Msg("seeding complete")
	return nil
}

// insertRows runs one multi-row INSERT with width values per row.
func insertRows(ctx context.Context, pool *pgxpool.Pool, prefix string, width int, args []any) error {
	if len(args) == 0 {
		return nil
	}
	_, err := pool.Exec(ctx, buildInsert(prefix, width, len(args)/width), args...)
	return err
}

func buildInsert(prefix string, width, n int) string {
	rows := make([]string, 0, n)
	for i := range n {
		placeholders := make([]string, width)
		for j := range width {
			placeholders[j] = fmt.Sprintf("$%d", i*width+j+1)
		}
		rows = append(rows, "("+strings.Join(placeholders, ", ")+")")
	}
	return prefix + " VALUES " + strings.Join(rows, ", ")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand) error {
	args := []any{}
	for i := range numUsers {
		createdAt := time.Now().AddDate(0, 0, -rng.Intn(365))
		isActive := rng.Float64() > 0.05
		args = append(args,
			fmt.Sprintf("user%d@example.com", i+1),
			fmt.Sprintf("user%d", i+1),
			isActive,
			createdAt,
		)
	}
	return insertRows(ctx, pool, "INSERT INTO users (email, username, is_active, created_at)", 4, args)
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool, _ *rand.Rand) error {
	args := make([]any, 0, len(categories))
	for _, name := range categories {
		args = append(args, name)
	}
	return insertRows(ctx, pool, "INSERT INTO categories (name)", 1, args)
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand) error {
	args := []any{}
	for i := range numProducts {
		categoryIdx := i % len(categories)
		category := categories[categoryIdx]
		names := catalog[category]
		name := names[(i/len(categories))%len(names)]
		if i >= len(categories)*len(names) {
			name = fmt.Sprintf("%s %d", name, i/(len(categories)*len(names))+1)
		}

		tags := pickTags(rng, tagPool[category], 1+rng.Intn(3))
		price := math.Round((5+rng.Float64()*495)*100) / 100
		stock := rng.Intn(60)
		if rng.Float64() < 0.1 {
			stock = 0
		}
		isActive := rng.Float64() > 0.05
		isFeatured := rng.Float64() < 0.15
		images := []string{fmt.Sprintf("https://images.example.com/products/%d.jpg", i+1)}

		args = append(args,
			name, int64(categoryIdx+1), tags, price, stock,
			isActive, isFeatured, powerLawScore(rng), images,
		)
	}
	return insertRows(ctx, pool,
		"INSERT INTO products (name, category_id, tags, current_price, stock_quantity, is_active, is_featured, demand_score, images)",
		9, args)
}

func seedOrders(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand) error {
	statuses := []string{"pending", "processing", "shipped", "delivered", "cancelled"}
	statusWeights := []float64{0.1, 0.15, 0.2, 0.5, 0.05}

	orderArgs := []any{}
	itemArgs := []any{}
	for i := range numOrders {
		// skewed so a few shoppers place most orders
		userID := int64(math.Ceil(math.Pow(rng.Float64(), 1.5) * numUsers))
		userID = max(1, min(userID, numUsers))
		status := weightedChoice(rng, statuses, statusWeights)
		createdAt := time.Now().Add(-time.Duration(rng.Intn(120*24)) * time.Hour)

		seen := make(map[int64]bool)
		total := 0.0
		for range 1 + rng.Intn(4) {
			productID := int64(1 + rng.Intn(numProducts))
			if seen[productID] {
				continue
			}
			seen[productID] = true
			qty := 1 + rng.Intn(3)
			unitPrice := math.Round((5+rng.Float64()*495)*100) / 100
			total += unitPrice * float64(qty)
			itemArgs = append(itemArgs, int64(i+1), productID, qty, unitPrice)
		}

		orderArgs = append(orderArgs, userID, status, math.Round(total*100)/100, createdAt)
	}

	if err := insertRows(ctx, pool, "INSERT INTO orders (user_id, status, total_amount, created_at)", 4, orderArgs); err != nil {
		return fmt.Errorf("orders: %w", err)
	}
	if err := insertRows(ctx, pool, "INSERT INTO order_items (order_id, product_id, quantity, unit_price)", 4, itemArgs); err != nil {
		return fmt.Errorf("order items: %w", err)
	}
	return nil
}

func seedCart(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand) error {
	seen := make(map[[2]int64]bool)
	args := []any{}
	for range numCart {
		userID := int64(1 + rng.Intn(numUsers))
		productID := int64(1 + rng.Intn(numProducts))
		key := [2]int64{userID, productID}
		if seen[key] {
			continue
		}
		seen[key] = true

		addedAt := time.Now().Add(-time.Duration(rng.Intn(14*24)) * time.Hour)
		args = append(args, userID, productID, 1+rng.Intn(2), addedAt)
	}
	return insertRows(ctx, pool, "INSERT INTO cart_items (user_id, product_id, quantity, added_at)", 4, args)
}

func seedReviews(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand) error {
	ratings := []int{1, 2, 3, 4, 5}
	ratingWeights := []float64{0.05, 0.08, 0.17, 0.35, 0.35}

	args := []any{}
	for range numReviews {
		userID := int64(1 + rng.Intn(numUsers))
		productID := int64(1 + rng.Intn(numProducts))
		rating := weightedChoice(rng, ratings, ratingWeights)
		// sentiment follows the rating with some noise, in [-1, 1]
		sentiment := (float64(rating)-3)/2 + (rng.Float64()-0.5)*0.4
		sentiment = math.Round(max(-1, min(sentiment, 1))*100) / 100
		createdAt := time.Now().Add(-time.Duration(rng.Intn(180*24)) * time.Hour)

		args = append(args, userID, productID, rating, sentiment, createdAt)
	}
	return insertRows(ctx, pool, "INSERT INTO reviews (user_id, product_id, rating, sentiment_score, created_at)", 5, args)
}

func pickTags(rng *rand.Rand, pool []string, n int) []string {
	perm := rng.Perm(len(pool))
	tags := make([]string, 0, n)
	for _, idx := range perm[:min(n, len(pool))] {
		tags = append(tags, pool[idx])
	}
	return tags
}

func powerLawScore(rng *rand.Rand) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.001
	}
	raw := math.Pow(u, 2.0)
	if raw < 0.01 {
		raw = 0.01
	}
	return math.Round(raw*100) / 100
}

func weightedChoice[T any](rng *rand.Rand, choices []T, weights []float64) T {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}
