package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Inventario-core/internal/application/allocation"
	"github.com/jhoicas/Inventario-core/internal/application/catalog"
	"github.com/jhoicas/Inventario-core/internal/application/fulfillment"
	"github.com/jhoicas/Inventario-core/internal/application/ledger"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

// Los cuatro puertos transaccionales los implementa el mismo runner.
var _ ledger.TxRunner = (*TxRunner)(nil)
var _ catalog.TxRunner = (*TxRunner)(nil)
var _ allocation.TxRunner = (*TxRunner)(nil)
var _ fulfillment.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// El bloqueo por ítem lo dan los SELECT FOR UPDATE de los repositorios.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) inTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Run transacción del ledger: ítems + movimientos.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewStockItemRepository(q), NewStockMovementRepository(q))
	})
}

// RunCatalog transacción del catálogo: piezas + líneas BOM.
func (r *TxRunner) RunCatalog(ctx context.Context, fn func(
	partRepo repository.PartRepository,
	bomRepo repository.BOMRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewPartRepository(q), NewBOMRepository(q))
	})
}

// RunAllocation transacción del motor de reservas: ítems + movimientos + reservas.
func (r *TxRunner) RunAllocation(ctx context.Context, fn func(
	itemRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
	allocRepo repository.AllocationRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewStockItemRepository(q), NewStockMovementRepository(q), NewAllocationRepository(q))
	})
}

// RunOrder transacción de órdenes.
func (r *TxRunner) RunOrder(ctx context.Context, fn func(orderRepo repository.OrderRepository) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewOrderRepository(q))
	})
}
