//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Run with: go test -tags integration ./internal/repository/...

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	if !dockerAvailable() {
		fmt.Println("skipping repository integration tests: docker not available")
		os.Exit(0)
	}

	ctx := context.Background()
	container, pool, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		os.Exit(1)
	}
	testPool = pool

	code := m.Run()

	pool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func dockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

func startPostgres(ctx context.Context) (testcontainers.Container, *pgxpool.Pool, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "admin",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "shop",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("mapped port: %w", err)
	}

	url := fmt.Sprintf("postgres://admin:password@%s:%s/shop?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	schema, err := os.ReadFile("../../migrations/create_tables.up.sql")
	if err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("read migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("apply migration: %w", err)
	}
	return container, pool, nil
}

// freshRepo empties every table and returns a repository over the shared pool.
func freshRepo(t *testing.T) *Repository {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `
		TRUNCATE agent_logs, reviews, cart_items, order_items, orders, products, categories, users
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return New(testPool)
}

func mustExec(t *testing.T, sql string, args ...any) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), sql, args...)
	require.NoError(t, err)
}

func addUsers(t *testing.T, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		mustExec(t, `INSERT INTO users (id, email, username) VALUES ($1, $2, $3)`,
			id, fmt.Sprintf("u%d@example.com", id), fmt.Sprintf("u%d", id))
	}
}

func addProduct(t *testing.T, id, categoryID int64, active bool, stock int, demand float64) {
	t.Helper()
	mustExec(t, `INSERT INTO products (id, name, category_id, tags, current_price, stock_quantity, is_active, demand_score, images)
		VALUES ($1, $2, $3, $4, 19.99, $5, $6, $7, $8)`,
		id, fmt.Sprintf("product %d", id), categoryID, []string{"gift"}, stock, active, demand,
		[]string{fmt.Sprintf("https://img.example.com/%d.jpg", id)})
}

func addOrder(t *testing.T, id, userID int64, status string, at time.Time, productIDs ...int64) {
	t.Helper()
	mustExec(t, `INSERT INTO orders (id, user_id, status, created_at) VALUES ($1, $2, $3, $4)`, id, userID, status, at)
	for _, pid := range productIDs {
		mustExec(t, `INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ($1, $2, 1, 9.50)`, id, pid)
	}
}

func seedCatalog(t *testing.T) {
	t.Helper()
	mustExec(t, `INSERT INTO categories (id, name) VALUES (1, 'Audio'), (2, 'Books')`)
	addProduct(t, 1, 1, true, 5, 0.2)
	addProduct(t, 2, 1, true, 5, 0.9)
	addProduct(t, 3, 1, false, 5, 1.0)
	addProduct(t, 4, 2, true, 0, 0.5)
	addProduct(t, 5, 2, true, 5, 0.9)
}

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestPurchases_StatusFilter(t *testing.T) {
	r := freshRepo(t)
	seedCatalog(t)
	addUsers(t, 1)
	addOrder(t, 1, 1, "delivered", now.Add(-3*time.Hour), 1)
	addOrder(t, 2, 1, "cancelled", now.Add(-2*time.Hour), 2)
	addOrder(t, 3, 1, "pending", now.Add(-time.Hour), 4)
	addOrder(t, 4, 1, "shipped", now, 5)
	addOrder(t, 5, 1, "processing", now.Add(-4*time.Hour), 2)

	got, err := r.Purchases(context.Background(), 1)
	require.NoError(t, err)

	ids := make([]int64, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ProductID)
	}
	assert.Equal(t, []int64{5, 1, 2}, ids, "purchased statuses only, most recent first")
	assert.InDelta(t, 9.5, got[0].UnitPrice, 1e-9)
	assert.Equal(t, int64(4), got[0].OrderID)
}

func TestNeighborOrders(t *testing.T) {
	r := freshRepo(t)
	seedCatalog(t)
	addUsers(t, 1, 2, 3)

	addOrder(t, 10, 1, "delivered", now, 1, 2)
	// overlap 2, full product list returned in line order
	addOrder(t, 11, 2, "delivered", now, 5, 1, 2)
	// overlap 1 even though product 1 is listed twice
	addOrder(t, 12, 2, "delivered", now, 1, 1, 5)
	// cancelled orders are not purchases
	addOrder(t, 13, 3, "cancelled", now, 1, 2, 4)
	// the user's own orders never count
	addOrder(t, 14, 1, "delivered", now, 1, 2, 5)
	addOrder(t, 15, 3, "shipped", now, 2, 1)

	got, err := r.NeighborOrders(context.Background(), []int64{1, 2}, 1, 2, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(11), got[0].OrderID)
	assert.Equal(t, 2, got[0].Overlap)
	assert.Equal(t, []int64{5, 1, 2}, got[0].ProductIDs)
	assert.Equal(t, int64(15), got[1].OrderID)
}

func TestNeighborOrders_CapKeepsHighestOverlap(t *testing.T) {
	r := freshRepo(t)
	seedCatalog(t)
	addUsers(t, 1, 2)

	// 1..20 share three products, 21..60 share two
	for i := int64(1); i <= 60; i++ {
		if i <= 20 {
			addOrder(t, i, 2, "delivered", now, 1, 2, 4, 5)
		} else {
			addOrder(t, i, 2, "delivered", now, 1, 2, 5)
		}
	}

	got, err := r.NeighborOrders(context.Background(), []int64{1, 2, 4}, 1, 2, 50)
	require.NoError(t, err)
	require.Len(t, got, 50)
	for i, o := range got {
		assert.Equal(t, int64(i+1), o.OrderID)
		if i < 20 {
			assert.Equal(t, 3, o.Overlap)
		} else {
			assert.Equal(t, 2, o.Overlap)
		}
	}
}

func TestGetActiveByCategory(t *testing.T) {
	r := freshRepo(t)
	seedCatalog(t)

	got, err := r.GetActiveByCategory(context.Background(), []int64{1}, nil, 30)
	require.NoError(t, err)
	require.Len(t, got, 2, "an empty exclusion list keeps every active product")
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "Audio", got[0].CategoryName)
	assert.Equal(t, []string{"gift"}, got[0].Tags)
	assert.InDelta(t, 19.99, got[0].Price, 1e-9)
	assert.Equal(t, int64(2), got[1].ID)

	got, err = r.GetActiveByCategory(context.Background(), []int64{1, 2}, []int64{1, 5}, 30)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID, "stock is checked by the ranker, not here")
}

func TestTopByDemand(t *testing.T) {
	r := freshRepo(t)
	seedCatalog(t)

	got, err := r.TopByDemand(context.Background(), nil, 3)
	require.NoError(t, err)

	ids := make([]int64, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	// 3 is inactive; 2 and 5 tie on demand and break by id
	assert.Equal(t, []int64{2, 5, 4}, ids)

	got, err = r.TopByDemand(context.Background(), []int64{2}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].ID)
}

func TestGetByIDs(t *testing.T) {
	r := freshRepo(t)
	seedCatalog(t)

	got, err := r.GetByIDs(context.Background(), []int64{3, 4, 99})
	require.NoError(t, err)
	assert.Len(t, got, 2, "inactive and out of stock rows are still returned")
}

func TestUserExists(t *testing.T) {
	r := freshRepo(t)
	addUsers(t, 7)

	ok, err := r.UserExists(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.UserExists(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderVolume(t *testing.T) {
	r := freshRepo(t)
	seedCatalog(t)
	addUsers(t, 1)
	addOrder(t, 1, 1, "delivered", now.Add(-time.Hour), 1)
	addOrder(t, 2, 1, "shipped", now.Add(-24*time.Hour), 2)
	addOrder(t, 3, 1, "cancelled", now.Add(-time.Hour), 2)
	addOrder(t, 4, 1, "delivered", now.AddDate(0, 0, -45), 2)
	mustExec(t, `UPDATE orders SET total_amount = id * 10`)

	v, err := r.OrderVolume(context.Background(), now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 2, v.TotalOrders)
	assert.InDelta(t, 15.0, v.AvgOrderValue, 1e-9)

	v, err = r.OrderVolume(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, v.TotalOrders)
	assert.InDelta(t, 0.0, v.AvgOrderValue, 1e-9)
}
