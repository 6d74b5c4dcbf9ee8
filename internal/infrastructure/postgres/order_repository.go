package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
// Las líneas viven en order_lines, clave (order_id, line_no).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de órdenes. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste la orden y sus líneas.
func (r *OrderRepo) Create(order *entity.Order) error {
	ctx := context.Background()
	query := `
		INSERT INTO orders (id, type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.q.Exec(ctx, query, order.ID, order.Type, order.Status, order.CreatedAt, order.UpdatedAt); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	lineQuery := `
		INSERT INTO order_lines (order_id, line_no, part_id, quantity, status)
		VALUES ($1, $2, $3, $4, $5)`
	for _, line := range order.Lines {
		if _, err := r.q.Exec(ctx, lineQuery, order.ID, line.LineNo, line.PartID, line.Quantity, line.Status); err != nil {
			return fmt.Errorf("create order line: %w", err)
		}
	}
	return nil
}

func (r *OrderRepo) getOne(query, id string) (*entity.Order, error) {
	var o entity.Order
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &o.Type, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := r.loadLines(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) loadLines(order *entity.Order) error {
	query := `
		SELECT line_no, part_id, quantity, status
		FROM order_lines WHERE order_id = $1 ORDER BY line_no`
	rows, err := r.q.Query(context.Background(), query, order.ID)
	if err != nil {
		return fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line entity.OrderLine
		if err := rows.Scan(&line.LineNo, &line.PartID, &line.Quantity, &line.Status); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}

// GetByID obtiene una orden con sus líneas; nil si no existe.
func (r *OrderRepo) GetByID(id string) (*entity.Order, error) {
	return r.getOne(`SELECT id, type, status, created_at, updated_at FROM orders WHERE id = $1`, id)
}

// GetForUpdate obtiene la orden y bloquea la fila (SELECT FOR UPDATE).
func (r *OrderRepo) GetForUpdate(id string) (*entity.Order, error) {
	return r.getOne(`SELECT id, type, status, created_at, updated_at FROM orders WHERE id = $1 FOR UPDATE`, id)
}

// Update persiste estado de la orden y de sus líneas.
func (r *OrderRepo) Update(order *entity.Order) error {
	ctx := context.Background()
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, order.ID, order.Status, order.UpdatedAt); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	lineQuery := `UPDATE order_lines SET status = $3 WHERE order_id = $1 AND line_no = $2`
	for _, line := range order.Lines {
		if _, err := r.q.Exec(ctx, lineQuery, order.ID, line.LineNo, line.Status); err != nil {
			return fmt.Errorf("update order line: %w", err)
		}
	}
	return nil
}

// List devuelve órdenes por estado (vacío = todas), ordenadas por creación (paginado).
func (r *OrderRepo) List(status string, limit, offset int) ([]*entity.Order, error) {
	query := `
		SELECT id, type, status, created_at, updated_at FROM orders
		WHERE ($1 = '' OR status = $1) ORDER BY created_at, id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(&o.ID, &o.Type, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range orders {
		if err := r.loadLines(o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}
