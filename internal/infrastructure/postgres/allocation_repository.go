package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

// AllocationRepo implementación de AllocationRepository sobre PostgreSQL (usable con pool o tx).
type AllocationRepo struct {
	q Querier
}

// NewAllocationRepository construye el adaptador de reservas. Pasar pool o tx (Querier).
func NewAllocationRepository(q Querier) *AllocationRepo {
	return &AllocationRepo{q: q}
}

const allocationColumns = `id, order_ref, part_id, stock_item_id, quantity, state, created_at, updated_at`

// Create persiste la reserva.
func (r *AllocationRepo) Create(alloc *entity.Allocation) error {
	query := `
		INSERT INTO allocations (` + allocationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		alloc.ID, alloc.OrderRef, alloc.PartID, alloc.StockItemID,
		alloc.Quantity, alloc.State, alloc.CreatedAt, alloc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

func (r *AllocationRepo) getOne(query, id string) (*entity.Allocation, error) {
	var a entity.Allocation
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&a.ID, &a.OrderRef, &a.PartID, &a.StockItemID, &a.Quantity, &a.State, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	return &a, nil
}

// GetByID obtiene una reserva por ID; nil si no existe.
func (r *AllocationRepo) GetByID(id string) (*entity.Allocation, error) {
	return r.getOne(`SELECT `+allocationColumns+` FROM allocations WHERE id = $1`, id)
}

// GetForUpdate obtiene la reserva y bloquea la fila (SELECT FOR UPDATE).
func (r *AllocationRepo) GetForUpdate(id string) (*entity.Allocation, error) {
	return r.getOne(`SELECT `+allocationColumns+` FROM allocations WHERE id = $1 FOR UPDATE`, id)
}

// Update persiste el cambio de estado de la reserva.
func (r *AllocationRepo) Update(alloc *entity.Allocation) error {
	query := `UPDATE allocations SET state = $2, updated_at = $3 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, alloc.ID, alloc.State, alloc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update allocation: %w", err)
	}
	return nil
}

// ListByOrderRef lista las reservas de una orden, por creación e ID.
func (r *AllocationRepo) ListByOrderRef(orderRef string) ([]*entity.Allocation, error) {
	query := `
		SELECT ` + allocationColumns + ` FROM allocations
		WHERE order_ref = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, orderRef)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocs []*entity.Allocation
	for rows.Next() {
		var a entity.Allocation
		if err := rows.Scan(&a.ID, &a.OrderRef, &a.PartID, &a.StockItemID, &a.Quantity, &a.State, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		allocs = append(allocs, &a)
	}
	return allocs, rows.Err()
}

// SumActiveByStockItem suma las reservas PENDING que pesan sobre un ítem.
func (r *AllocationRepo) SumActiveByStockItem(stockItemID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM allocations
		WHERE stock_item_id = $1 AND state = $2`
	var total decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, stockItemID, entity.AllocationPending).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum active allocations: %w", err)
	}
	return total, nil
}
