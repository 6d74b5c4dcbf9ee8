package allocation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-core/internal/application/allocation"
	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del motor de reservas.
//
// Invariante central: la suma de reservas activas de un ítem nunca excede su
// cantidad disponible, incluso con reservas concurrentes sobre el mismo ítem.
// ──────────────────────────────────────────────────────────────────────────────

type allocationFixture struct {
	store *memory.Store
	uc    *allocation.UseCase
}

func newAllocationFixture(t *testing.T, policy string) *allocationFixture {
	t.Helper()
	store := memory.NewStore()
	partRepo := memory.NewPartRepository(store)
	require.NoError(t, partRepo.Upsert(&entity.Part{
		ID: "P1", SKU: "CMP-1", Name: "Componente", UnitOfMeasure: "unidad",
	}))
	return &allocationFixture{
		store: store,
		uc:    allocation.NewUseCase(memory.NewTxRunner(store), partRepo, policy),
	}
}

// addItem siembra un ítem de stock con fecha de recepción y vencimiento controlados.
func (f *allocationFixture) addItem(t *testing.T, id string, quantity int64, receivedAt time.Time, expiresAt *time.Time) {
	t.Helper()
	require.NoError(t, memory.NewStockItemRepository(f.store).Upsert(&entity.StockItem{
		ID: id, PartID: "P1", Location: "BODEGA-1",
		Quantity: decimal.NewFromInt(quantity), Status: entity.StockStatusOK,
		ReceivedAt: receivedAt, ExpiresAt: expiresAt, UpdatedAt: receivedAt,
	}))
}

func (f *allocationFixture) activeSum(t *testing.T, stockItemID string) decimal.Decimal {
	t.Helper()
	sum, err := memory.NewAllocationRepository(f.store).SumActiveByStockItem(stockItemID)
	require.NoError(t, err)
	return sum
}

func TestAllocate_FIFOPorFechaDeRecepcion(t *testing.T) {
	f := newAllocationFixture(t, allocation.PolicyFIFO)
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	f.addItem(t, "item-nuevo", 10, base.AddDate(0, 0, 5), nil)
	f.addItem(t, "item-viejo", 10, base, nil)

	res, err := f.uc.Allocate(context.Background(), "orden-1", "P1", decimal.NewFromInt(12))
	require.NoError(t, err)

	assert.Equal(t, dto.AllocationFull, res.Status)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, "item-viejo", res.Lines[0].StockItemID, "el lote más antiguo se reserva primero")
	assert.True(t, res.Lines[0].Quantity.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "item-nuevo", res.Lines[1].StockItemID)
	assert.True(t, res.Lines[1].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestAllocate_PoliticaExpiryPriorizaVencimientoProximo(t *testing.T) {
	f := newAllocationFixture(t, allocation.PolicyExpiry)
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	soon := base.AddDate(0, 1, 0)
	// El ítem sin vencimiento es el más viejo: FIFO lo tomaría primero,
	// la política expiry prefiere el que vence antes.
	f.addItem(t, "item-sin-vencimiento", 10, base, nil)
	f.addItem(t, "item-vence-pronto", 10, base.AddDate(0, 0, 5), &soon)

	res, err := f.uc.Allocate(context.Background(), "orden-1", "P1", decimal.NewFromInt(4))
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	assert.Equal(t, "item-vence-pronto", res.Lines[0].StockItemID)
}

func TestAllocate_ParcialConFaltante(t *testing.T) {
	f := newAllocationFixture(t, allocation.PolicyFIFO)
	f.addItem(t, "item-1", 6, time.Now(), nil)

	res, err := f.uc.Allocate(context.Background(), "orden-1", "P1", decimal.NewFromInt(10))
	require.NoError(t, err, "quedarse corto no es un error: el resultado lo informa")

	assert.Equal(t, dto.AllocationPartial, res.Status)
	assert.True(t, res.Allocated.Equal(decimal.NewFromInt(6)))
	assert.True(t, res.Shortfall.Equal(decimal.NewFromInt(4)))
}

func TestAllocate_RespetaReservasActivasPrevias(t *testing.T) {
	f := newAllocationFixture(t, allocation.PolicyFIFO)
	f.addItem(t, "item-1", 10, time.Now(), nil)
	ctx := context.Background()

	first, err := f.uc.Allocate(ctx, "orden-1", "P1", decimal.NewFromInt(7))
	require.NoError(t, err)
	assert.Equal(t, dto.AllocationFull, first.Status)

	second, err := f.uc.Allocate(ctx, "orden-2", "P1", decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, dto.AllocationPartial, second.Status)
	assert.True(t, second.Allocated.Equal(decimal.NewFromInt(3)), "solo queda 10 − 7 disponible")

	assert.True(t, f.activeSum(t, "item-1").Equal(decimal.NewFromInt(10)),
		"las reservas activas nunca exceden la cantidad del ítem")
}

func TestAllocate_EntradasInvalidas(t *testing.T) {
	f := newAllocationFixture(t, allocation.PolicyFIFO)
	ctx := context.Background()

	_, err := f.uc.Allocate(ctx, "", "P1", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Allocate(ctx, "orden-1", "P1", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Allocate(ctx, "orden-1", "no-existe", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRelease_DevuelveElStockYEsIdempotente(t *testing.T) {
	f := newAllocationFixture(t, allocation.PolicyFIFO)
	f.addItem(t, "item-1", 10, time.Now(), nil)
	ctx := context.Background()

	res, err := f.uc.Allocate(ctx, "orden-1", "P1", decimal.NewFromInt(7))
	require.NoError(t, err)
	allocID := res.Lines[0].AllocationID

	require.NoError(t, f.uc.Release(ctx, allocID))
	require.NoError(t, f.uc.Release(ctx, allocID), "la segunda liberación es no-op")

	assert.True(t, f.activeSum(t, "item-1").IsZero())

	// El stock liberado vuelve a estar disponible para otra orden.
	again, err := f.uc.Allocate(ctx, "orden-2", "P1", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, dto.AllocationFull, again.Status)
}

func TestCommit_ConsumeElStockUnaVez(t *testing.T) {
	f := newAllocationFixture(t, allocation.PolicyFIFO)
	f.addItem(t, "item-1", 10, time.Now(), nil)
	ctx := context.Background()

	res, err := f.uc.Allocate(ctx, "orden-1", "P1", decimal.NewFromInt(7))
	require.NoError(t, err)
	allocID := res.Lines[0].AllocationID

	require.NoError(t, f.uc.Commit(ctx, allocID))
	require.NoError(t, f.uc.Commit(ctx, allocID), "el reintento de commit es no-op")

	item, err := memory.NewStockItemRepository(f.store).GetByID("item-1")
	require.NoError(t, err)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(3)), "el consumo se aplica una sola vez")

	movs, err := memory.NewStockMovementRepository(f.store).ListByStockItem("item-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.ReasonConsumption, movs[0].Reason)
	assert.True(t, movs[0].Quantity.Equal(decimal.NewFromInt(-7)), "el asiento de consumo es negativo")
}

func TestCommitYRelease_EstadosTerminalesSonExcluyentes(t *testing.T) {
	f := newAllocationFixture(t, allocation.PolicyFIFO)
	f.addItem(t, "item-1", 10, time.Now(), nil)
	ctx := context.Background()

	res, err := f.uc.Allocate(ctx, "orden-1", "P1", decimal.NewFromInt(4))
	require.NoError(t, err)
	committed := res.Lines[0].AllocationID
	require.NoError(t, f.uc.Commit(ctx, committed))
	assert.ErrorIs(t, f.uc.Release(ctx, committed), domain.ErrConflict, "lo consumido no se libera")

	res, err = f.uc.Allocate(ctx, "orden-2", "P1", decimal.NewFromInt(4))
	require.NoError(t, err)
	released := res.Lines[0].AllocationID
	require.NoError(t, f.uc.Release(ctx, released))
	assert.ErrorIs(t, f.uc.Commit(ctx, released), domain.ErrConflict, "lo liberado no se consume")
}

func TestAllocate_ConcurrenciaNuncaSobreReserva(t *testing.T) {
	f := newAllocationFixture(t, allocation.PolicyFIFO)
	f.addItem(t, "item-1", 10, time.Now(), nil)
	ctx := context.Background()

	requests := []int64{7, 5}
	results := make([]*dto.AllocationResult, len(requests))
	errs := make([]error, len(requests))

	var wg sync.WaitGroup
	for i, q := range requests {
		wg.Add(1)
		go func(i int, q int64) {
			defer wg.Done()
			results[i], errs[i] = f.uc.Allocate(ctx, "orden-concurrente", "P1", decimal.NewFromInt(q))
		}(i, q)
	}
	wg.Wait()

	total := decimal.Zero
	for i := range requests {
		require.NoError(t, errs[i])
		total = total.Add(results[i].Allocated)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(10)),
		"dos reservas simultáneas de 7 y 5 contra 10 reparten exactamente 10")
	assert.True(t, f.activeSum(t, "item-1").Equal(decimal.NewFromInt(10)))
}
