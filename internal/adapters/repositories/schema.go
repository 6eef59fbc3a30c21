package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"warehouse-route-service/internal/platform/obs"
	"warehouse-route-service/internal/scenario"
)

// Initialize the warehouse schema. The statements are valid for both SQLite and Postgres.
func InitSchema(ctx context.Context, db *sql.DB) (err error) {
	defer obs.Time(ctx, "repositories.InitSchema")(&err)

	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createNodesQuery := `
	CREATE TABLE IF NOT EXISTS nodes (
		node_id INTEGER PRIMARY KEY,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL
	);
	`

	createEdgesQuery := `
	CREATE TABLE IF NOT EXISTS edges (
		node_a INTEGER NOT NULL,
		node_b INTEGER NOT NULL,
		closed INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (node_a, node_b)
	);
	`

	createShelvesQuery := `
	CREATE TABLE IF NOT EXISTS shelves (
		shelf_id INTEGER PRIMARY KEY,
		node_id INTEGER NOT NULL,
		goods TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL DEFAULT 0
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id INTEGER PRIMARY KEY,
		start_offset_ms BIGINT NOT NULL DEFAULT 0
	);
	`

	createOrderItemsQuery := `
	CREATE TABLE IF NOT EXISTS order_items (
		order_id INTEGER NOT NULL,
		line_no INTEGER NOT NULL,
		goods TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		PRIMARY KEY (order_id, line_no)
	);
	`

	createFulfillmentsQuery := `
	CREATE TABLE IF NOT EXISTS fulfillments (
		order_id INTEGER NOT NULL,
		started_at_ms BIGINT NOT NULL,
		finished_at_ms BIGINT NOT NULL,
		delivered TEXT NOT NULL,
		unsatisfied TEXT NOT NULL,
		PRIMARY KEY (order_id, finished_at_ms)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_shelves_goods
	ON shelves(goods);
	`

	statements := []string{
		createNodesQuery,
		createEdgesQuery,
		createShelvesQuery,
		createOrdersQuery,
		createOrderItemsQuery,
		createFulfillmentsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the database from a warehouse document (JSON seed or TOML scenario).
func SeedFromFile(ctx context.Context, repo *SQLWarehouseRepository, path string) error {
	doc, err := scenario.Load(path)
	if err != nil {
		return fmt.Errorf("seed warehouse: %w", err)
	}

	if err := repo.Seed(ctx, doc.Layout(), doc.OrderRequests()); err != nil {
		return fmt.Errorf("seed warehouse: %w", err)
	}

	return nil
}
