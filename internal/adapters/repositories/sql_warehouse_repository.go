package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/platform/db"
	"warehouse-route-service/internal/platform/obs"
	"warehouse-route-service/internal/ports"
)

// SQL-backed implementation of the WarehouseRepository and FulfillmentRecorder ports.
// Queries are written with ? placeholders and rebound per dialect.
type SQLWarehouseRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLWarehouseRepository(conn *sql.DB, dialect db.Dialect) *SQLWarehouseRepository {
	return &SQLWarehouseRepository{DB: conn, Dialect: dialect}
}

func (s *SQLWarehouseRepository) q(query string) string { return s.Dialect.Rebind(query) }

// Seed upserts nodes, edges and shelves and replaces the stored orders.
func (s *SQLWarehouseRepository) Seed(
	ctx context.Context,
	layout *domain.Layout,
	orders []domain.OrderRequest,
) (err error) {
	defer obs.Time(ctx, "repositories.Seed")(&err)

	if s.DB == nil {
		return errors.New("seed warehouse: DB is nil")
	}
	if layout == nil {
		return errors.New("seed warehouse: layout is nil")
	}

	closed := make(map[domain.EdgeSpec]bool, len(layout.ClosedEdges))
	for _, e := range layout.ClosedEdges {
		closed[orderedEdge(e.NodeA, e.NodeB)] = true
	}
	stock := make(map[int]domain.StockSpec, len(layout.Stock))
	for _, st := range layout.Stock {
		stock[st.ShelfID] = st
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed warehouse: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, n := range layout.Nodes {
		if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO nodes (node_id, x, y)
		VALUES (?, ?, ?)
		ON CONFLICT (node_id) DO UPDATE
		SET x = EXCLUDED.x,
			y = EXCLUDED.y;
		`), n.ID, n.X, n.Y); err != nil {
			return fmt.Errorf("seed warehouse: insert node_id=%d: %w", n.ID, err)
		}
	}

	for _, e := range layout.Edges {
		k := orderedEdge(e.NodeA, e.NodeB)
		if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO edges (node_a, node_b, closed)
		VALUES (?, ?, ?)
		ON CONFLICT (node_a, node_b) DO UPDATE
		SET closed = EXCLUDED.closed;
		`), k.NodeA, k.NodeB, boolToInt(closed[k])); err != nil {
			return fmt.Errorf("seed warehouse: insert edge %d-%d: %w", k.NodeA, k.NodeB, err)
		}
	}

	for _, sh := range layout.Shelves {
		st := stock[sh.ShelfID]
		if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO shelves (shelf_id, node_id, goods, quantity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (shelf_id) DO UPDATE
		SET node_id = EXCLUDED.node_id,
			goods = EXCLUDED.goods,
			quantity = EXCLUDED.quantity;
		`), sh.ShelfID, sh.NodeID, st.Goods, st.Quantity); err != nil {
			return fmt.Errorf("seed warehouse: insert shelf_id=%d: %w", sh.ShelfID, err)
		}
	}

	for _, stmt := range []string{`DELETE FROM order_items;`, `DELETE FROM orders;`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed warehouse: clear orders: %w", err)
		}
	}

	for i, o := range orders {
		orderID := i + 1
		if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO orders (order_id, start_offset_ms)
		VALUES (?, ?);
		`), orderID, o.StartOffset.Milliseconds()); err != nil {
			return fmt.Errorf("seed warehouse: insert order_id=%d: %w", orderID, err)
		}
		for j, li := range o.Items {
			if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO order_items (order_id, line_no, goods, quantity)
			VALUES (?, ?, ?, ?);
			`), orderID, j+1, li.Goods, li.Quantity); err != nil {
				return fmt.Errorf("seed warehouse: insert order_id=%d line %d: %w", orderID, j+1, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed warehouse: commit tx: %w", err)
	}

	return nil
}

// Return the stored warehouse: nodes, edges with their closed flags, shelves and stock.
func (s *SQLWarehouseRepository) LoadLayout(ctx context.Context) (_ *domain.Layout, err error) {
	defer obs.Time(ctx, "repositories.LoadLayout")(&err)

	if s.DB == nil {
		return nil, errors.New("sql warehouse repository: DB is nil")
	}

	layout := &domain.Layout{}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT node_id, x, y
	FROM nodes
	ORDER BY node_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("load layout: query nodes table: %w", err)
	}
	for rows.Next() {
		var n domain.NodeSpec
		if err := rows.Scan(&n.ID, &n.X, &n.Y); err != nil {
			rows.Close()
			return nil, fmt.Errorf("load layout: scan node: %w", err)
		}
		layout.Nodes = append(layout.Nodes, n)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("load layout: node iteration: %w", err)
	}

	rows, err = s.DB.QueryContext(ctx, `
	SELECT node_a, node_b, closed
	FROM edges
	ORDER BY node_a, node_b;
	`)
	if err != nil {
		return nil, fmt.Errorf("load layout: query edges table: %w", err)
	}
	for rows.Next() {
		var e domain.EdgeSpec
		var closed int
		if err := rows.Scan(&e.NodeA, &e.NodeB, &closed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("load layout: scan edge: %w", err)
		}
		layout.Edges = append(layout.Edges, e)
		if closed != 0 {
			layout.ClosedEdges = append(layout.ClosedEdges, e)
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("load layout: edge iteration: %w", err)
	}

	rows, err = s.DB.QueryContext(ctx, `
	SELECT shelf_id, node_id, goods, quantity
	FROM shelves
	ORDER BY shelf_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("load layout: query shelves table: %w", err)
	}
	for rows.Next() {
		var sh domain.ShelfSpec
		var st domain.StockSpec
		if err := rows.Scan(&sh.ShelfID, &sh.NodeID, &st.Goods, &st.Quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("load layout: scan shelf: %w", err)
		}
		layout.Shelves = append(layout.Shelves, sh)
		if st.Goods != "" {
			st.ShelfID = sh.ShelfID
			layout.Stock = append(layout.Stock, st)
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("load layout: shelf iteration: %w", err)
	}

	return layout, nil
}

// Return the stored orders with their line items, in order ID order.
func (s *SQLWarehouseRepository) ListOrderRequests(ctx context.Context) (_ []domain.OrderRequest, err error) {
	defer obs.Time(ctx, "repositories.ListOrderRequests")(&err)

	if s.DB == nil {
		return nil, errors.New("sql warehouse repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT o.order_id, o.start_offset_ms, i.goods, i.quantity
	FROM orders o
	JOIN order_items i ON i.order_id = o.order_id
	ORDER BY o.order_id, i.line_no;
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: query orders table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.OrderRequest, 0, 16)
	lastID := -1
	for rows.Next() {
		var id int
		var offsetMS int64
		var li domain.LineItem
		if err := rows.Scan(&id, &offsetMS, &li.Goods, &li.Quantity); err != nil {
			return nil, fmt.Errorf("list orders: scan row: %w", err)
		}
		if id != lastID {
			out = append(out, domain.OrderRequest{StartOffset: time.Duration(offsetMS) * time.Millisecond})
			lastID = id
		}
		last := &out[len(out)-1]
		last.Items = append(last.Items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: row iteration: %w", err)
	}

	return out, nil
}

// SaveEdgeState persists an edge open/close so a restart resumes with it.
func (s *SQLWarehouseRepository) SaveEdgeState(ctx context.Context, a, b int, closed bool) (err error) {
	defer obs.Time(ctx, "repositories.SaveEdgeState")(&err)

	k := orderedEdge(a, b)
	res, err := s.DB.ExecContext(ctx, s.q(`
	UPDATE edges
	SET closed = ?
	WHERE node_a = ? AND node_b = ?;
	`), boolToInt(closed), k.NodeA, k.NodeB)
	if err != nil {
		return fmt.Errorf("save edge %d-%d: %w", k.NodeA, k.NodeB, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save edge %d-%d: %w", k.NodeA, k.NodeB, domain.ErrUnknownEdge)
	}
	return nil
}

type itemRow struct {
	Goods    string `json:"goods"`
	Quantity int    `json:"quantity"`
}

func encodeItems(items []domain.LineItem) (string, error) {
	rows := make([]itemRow, 0, len(items))
	for _, li := range items {
		rows = append(rows, itemRow{Goods: li.Goods, Quantity: li.Quantity})
	}
	b, err := json.Marshal(rows)
	return string(b), err
}

func decodeItems(s string) ([]domain.LineItem, error) {
	var rows []itemRow
	if err := json.Unmarshal([]byte(s), &rows); err != nil {
		return nil, err
	}
	var out []domain.LineItem
	for _, r := range rows {
		out = append(out, domain.LineItem{Goods: r.Goods, Quantity: r.Quantity})
	}
	return out, nil
}

// Store the outcome of a completed order.
func (s *SQLWarehouseRepository) RecordFulfillment(ctx context.Context, rec ports.FulfillmentRecord) (err error) {
	defer obs.Time(ctx, "repositories.RecordFulfillment")(&err)

	if s.DB == nil {
		return errors.New("sql warehouse repository: DB is nil")
	}

	delivered, err := encodeItems(rec.Delivered)
	if err != nil {
		return fmt.Errorf("record fulfillment order_id=%d: encode delivered: %w", rec.OrderID, err)
	}
	unsatisfied, err := encodeItems(rec.Unsatisfied)
	if err != nil {
		return fmt.Errorf("record fulfillment order_id=%d: encode unsatisfied: %w", rec.OrderID, err)
	}

	if _, err := s.DB.ExecContext(ctx, s.q(`
	INSERT INTO fulfillments (order_id, started_at_ms, finished_at_ms, delivered, unsatisfied)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (order_id, finished_at_ms) DO UPDATE
	SET started_at_ms = EXCLUDED.started_at_ms,
		delivered = EXCLUDED.delivered,
		unsatisfied = EXCLUDED.unsatisfied;
	`), rec.OrderID, rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(), delivered, unsatisfied); err != nil {
		return fmt.Errorf("record fulfillment order_id=%d: %w", rec.OrderID, err)
	}

	return nil
}

// Return every stored fulfilment, oldest first.
func (s *SQLWarehouseRepository) ListFulfillments(ctx context.Context) (_ []ports.FulfillmentRecord, err error) {
	defer obs.Time(ctx, "repositories.ListFulfillments")(&err)

	rows, err := s.DB.QueryContext(ctx, `
	SELECT order_id, started_at_ms, finished_at_ms, delivered, unsatisfied
	FROM fulfillments
	ORDER BY finished_at_ms, order_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list fulfillments: query fulfillments table: %w", err)
	}
	defer rows.Close()

	var out []ports.FulfillmentRecord
	for rows.Next() {
		var rec ports.FulfillmentRecord
		var startedMS, finishedMS int64
		var delivered, unsatisfied string
		if err := rows.Scan(&rec.OrderID, &startedMS, &finishedMS, &delivered, &unsatisfied); err != nil {
			return nil, fmt.Errorf("list fulfillments: scan row: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMS).UTC()
		rec.FinishedAt = time.UnixMilli(finishedMS).UTC()
		if rec.Delivered, err = decodeItems(delivered); err != nil {
			return nil, fmt.Errorf("list fulfillments: order_id=%d delivered: %w", rec.OrderID, err)
		}
		if rec.Unsatisfied, err = decodeItems(unsatisfied); err != nil {
			return nil, fmt.Errorf("list fulfillments: order_id=%d unsatisfied: %w", rec.OrderID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fulfillments: row iteration: %w", err)
	}

	return out, nil
}

func closeRows(rows *sql.Rows) error {
	iterErr := rows.Err()
	if err := rows.Close(); err != nil && iterErr == nil {
		return err
	}
	return iterErr
}

func orderedEdge(a, b int) domain.EdgeSpec {
	if a > b {
		a, b = b, a
	}
	return domain.EdgeSpec{NodeA: a, NodeB: b}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
