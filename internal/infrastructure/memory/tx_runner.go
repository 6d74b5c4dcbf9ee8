package memory

import (
	"context"

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

// TxRunner ejecuta callbacks como transacciones sobre el almacén en memoria.
// Serializa las transacciones con un mutex (garantía equivalente al bloqueo de
// fila de PostgreSQL) y restaura el estado previo si el callback falla.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner con el almacén.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

func (r *TxRunner) run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	snap := r.store.snapshot()
	if err := fn(); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// Run transacción del ledger: ítems + movimientos.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	return r.run(ctx, func() error {
		return fn(NewStockItemRepository(r.store), NewStockMovementRepository(r.store))
	})
}

// RunCatalog transacción del catálogo: piezas + líneas BOM.
func (r *TxRunner) RunCatalog(ctx context.Context, fn func(
	partRepo repository.PartRepository,
	bomRepo repository.BOMRepository,
) error) error {
	return r.run(ctx, func() error {
		return fn(NewPartRepository(r.store), NewBOMRepository(r.store))
	})
}

// RunAllocation transacción del motor de reservas: ítems + movimientos + reservas.
func (r *TxRunner) RunAllocation(ctx context.Context, fn func(
	itemRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
	allocRepo repository.AllocationRepository,
) error) error {
	return r.run(ctx, func() error {
		return fn(NewStockItemRepository(r.store), NewStockMovementRepository(r.store), NewAllocationRepository(r.store))
	})
}

// RunOrder transacción de órdenes.
func (r *TxRunner) RunOrder(ctx context.Context, fn func(orderRepo repository.OrderRepository) error) error {
	return r.run(ctx, func() error {
		return fn(NewOrderRepository(r.store))
	})
}
