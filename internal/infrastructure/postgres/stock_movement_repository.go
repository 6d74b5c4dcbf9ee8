package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del ledger sobre PostgreSQL (usable con pool o tx).
// La tabla stock_movements es append-only: sin UPDATE ni DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, stock_item_id, quantity, reason, order_ref, dedup_key, created_at`

// Create persiste un asiento. El índice único sobre dedup_key convierte una
// carrera entre reintentos en domain.ErrDuplicate.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.StockItemID, movement.Quantity, movement.Reason,
		movement.OrderRef, movement.DedupKey, movement.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

func (r *StockMovementRepo) getOne(query string, arg any) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&m.ID, &m.StockItemID, &m.Quantity, &m.Reason, &m.OrderRef, &m.DedupKey, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return &m, nil
}

// GetByID obtiene un asiento por ID.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	return r.getOne(`SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id)
}

// GetByDedupKey devuelve el asiento original de una clave de idempotencia.
func (r *StockMovementRepo) GetByDedupKey(key string) (*entity.StockMovement, error) {
	return r.getOne(`SELECT `+movementColumns+` FROM stock_movements WHERE dedup_key = $1`, key)
}

func (r *StockMovementRepo) list(query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var movements []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(&m.ID, &m.StockItemID, &m.Quantity, &m.Reason, &m.OrderRef, &m.DedupKey, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		movements = append(movements, &m)
	}
	return movements, rows.Err()
}

// ListByStockItem lista los asientos de un ítem en orden cronológico (paginado).
func (r *StockMovementRepo) ListByStockItem(stockItemID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements
		WHERE stock_item_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`
	return r.list(query, stockItemID, limit, offset)
}

// ListByOrderRef lista los asientos originados por una orden.
func (r *StockMovementRepo) ListByOrderRef(orderRef string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements
		WHERE order_ref = $1 ORDER BY created_at, id`
	return r.list(query, orderRef)
}

// SumByStockItem re-deriva el total de un ítem desde el ledger.
func (r *StockMovementRepo) SumByStockItem(stockItemID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM stock_movements WHERE stock_item_id = $1`
	var total decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, stockItemID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum stock movements: %w", err)
	}
	return total, nil
}
