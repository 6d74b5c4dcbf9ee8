package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador de ítems de stock. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

const stockItemColumns = `id, part_id, location, quantity, batch, serial, status, received_at, expires_at, updated_at`

func scanStockItem(row pgx.Row) (*entity.StockItem, error) {
	var s entity.StockItem
	err := row.Scan(&s.ID, &s.PartID, &s.Location, &s.Quantity, &s.Batch, &s.Serial,
		&s.Status, &s.ReceivedAt, &s.ExpiresAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID obtiene un ítem por ID; nil si no existe.
func (r *StockItemRepo) GetByID(id string) (*entity.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE id = $1`
	item, err := scanStockItem(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return item, nil
}

// GetForUpdate obtiene el ítem y bloquea la fila (SELECT FOR UPDATE):
// reservas y asientos concurrentes sobre el mismo ítem se serializan acá.
func (r *StockItemRepo) GetForUpdate(id string) (*entity.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE id = $1 FOR UPDATE`
	item, err := scanStockItem(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item for update: %w", err)
	}
	return item, nil
}

// Upsert inserta o actualiza el ítem.
func (r *StockItemRepo) Upsert(item *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (` + stockItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id)
		DO UPDATE SET quantity = EXCLUDED.quantity, status = EXCLUDED.status,
			location = EXCLUDED.location, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.PartID, item.Location, item.Quantity, item.Batch, item.Serial,
		item.Status, item.ReceivedAt, item.ExpiresAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock item: %w", err)
	}
	return nil
}

// ListAvailableForUpdate devuelve los ítems asignables de una pieza, bloqueados,
// FIFO por recepción (vencimiento más próximo y luego ID como desempate).
func (r *StockItemRepo) ListAvailableForUpdate(partID string) ([]*entity.StockItem, error) {
	query := `
		SELECT ` + stockItemColumns + `
		FROM stock_items
		WHERE part_id = $1 AND status = $2 AND quantity > 0
		ORDER BY received_at, expires_at NULLS LAST, id
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, partID, entity.StockStatusOK)
	if err != nil {
		return nil, fmt.Errorf("list available stock items: %w", err)
	}
	defer rows.Close()

	var items []*entity.StockItem
	for rows.Next() {
		var s entity.StockItem
		if err := rows.Scan(&s.ID, &s.PartID, &s.Location, &s.Quantity, &s.Batch, &s.Serial,
			&s.Status, &s.ReceivedAt, &s.ExpiresAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}
