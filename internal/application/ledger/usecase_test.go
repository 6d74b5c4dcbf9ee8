package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/application/ledger"
	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del ledger de stock: asientos inmutables, suma corriente, rechazo
// atómico de negativos e idempotencia por clave de deduplicación.
// ──────────────────────────────────────────────────────────────────────────────

type ledgerFixture struct {
	store *memory.Store
	uc    *ledger.UseCase
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.NewStore()
	return &ledgerFixture{
		store: store,
		uc: ledger.NewUseCase(
			memory.NewTxRunner(store),
			memory.NewStockItemRepository(store),
			memory.NewStockMovementRepository(store),
		),
	}
}

func (f *ledgerFixture) receive(t *testing.T, partID string, quantity int64, dedupKey string) string {
	t.Helper()
	itemID, _, err := f.uc.RegisterReceipt(context.Background(), dto.RegisterReceiptRequest{
		PartID: partID, Location: "BODEGA-1", Quantity: decimal.NewFromInt(quantity), DedupKey: dedupKey,
	})
	require.NoError(t, err)
	return itemID
}

func TestRegisterReceipt_CreaItemYAsiento(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	itemID, movID, err := f.uc.RegisterReceipt(ctx, dto.RegisterReceiptRequest{
		PartID: "P1", Location: "BODEGA-1", Quantity: decimal.NewFromInt(10),
		Batch: "L-001", DedupKey: "rcpt-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, itemID)
	require.NotEmpty(t, movID)

	onHand, err := f.uc.QuantityOnHand(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(decimal.NewFromInt(10)))

	movs, err := f.uc.Movements(ctx, itemID, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.ReasonReceipt, movs[0].Reason)
}

func TestRegisterReceipt_IdempotentePorDedupKey(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	in := dto.RegisterReceiptRequest{
		PartID: "P1", Location: "BODEGA-1", Quantity: decimal.NewFromInt(10), DedupKey: "rcpt-1",
	}
	itemID1, movID1, err := f.uc.RegisterReceipt(ctx, in)
	require.NoError(t, err)
	itemID2, movID2, err := f.uc.RegisterReceipt(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, itemID1, itemID2, "el reintento devuelve el ítem original")
	assert.Equal(t, movID1, movID2, "el reintento devuelve el asiento original")

	onHand, err := f.uc.QuantityOnHand(ctx, itemID1)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(decimal.NewFromInt(10)), "la cantidad se aplica una sola vez")
}

func TestRegisterReceipt_EntradasInvalidas(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   dto.RegisterReceiptRequest
	}{
		{"sin pieza", dto.RegisterReceiptRequest{Location: "B", Quantity: decimal.NewFromInt(1), DedupKey: "k"}},
		{"sin ubicación", dto.RegisterReceiptRequest{PartID: "P", Quantity: decimal.NewFromInt(1), DedupKey: "k"}},
		{"sin dedup key", dto.RegisterReceiptRequest{PartID: "P", Location: "B", Quantity: decimal.NewFromInt(1)}},
		{"cantidad cero", dto.RegisterReceiptRequest{PartID: "P", Location: "B", Quantity: decimal.Zero, DedupKey: "k"}},
		{"cantidad negativa", dto.RegisterReceiptRequest{PartID: "P", Location: "B", Quantity: decimal.NewFromInt(-2), DedupKey: "k"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.uc.RegisterReceipt(ctx, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestRecordMovement_SumaCorriente(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	itemID := f.receive(t, "P1", 10, "rcpt-1")

	_, err := f.uc.RecordMovement(ctx, dto.RecordMovementRequest{
		StockItemID: itemID, Delta: decimal.NewFromInt(-3), Reason: entity.ReasonConsumption, DedupKey: "mov-1",
	})
	require.NoError(t, err)
	_, err = f.uc.RecordMovement(ctx, dto.RecordMovementRequest{
		StockItemID: itemID, Delta: decimal.NewFromInt(-7), Reason: entity.ReasonConsumption, DedupKey: "mov-2",
	})
	require.NoError(t, err)

	onHand, err := f.uc.QuantityOnHand(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, onHand.IsZero(), "10 − 3 − 7 = 0")

	// El consumo total deja la fila en cero: la historia sigue consultable.
	movs, err := f.uc.Movements(ctx, itemID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 3)
}

func TestRecordMovement_RechazaNegativoSinAplicarNada(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	itemID := f.receive(t, "P1", 3, "rcpt-1")

	_, err := f.uc.RecordMovement(ctx, dto.RecordMovementRequest{
		StockItemID: itemID, Delta: decimal.NewFromInt(-5), Reason: entity.ReasonConsumption, DedupKey: "mov-1",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	onHand, err := f.uc.QuantityOnHand(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(decimal.NewFromInt(3)), "el rechazo no deja nada aplicado a medias")

	movs, err := f.uc.Movements(ctx, itemID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1, "no se asienta el movimiento rechazado")
}

func TestRecordMovement_IdempotentePorDedupKey(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	itemID := f.receive(t, "P1", 10, "rcpt-1")

	in := dto.RecordMovementRequest{
		StockItemID: itemID, Delta: decimal.NewFromInt(-4), Reason: entity.ReasonConsumption, DedupKey: "mov-1",
	}
	movID1, err := f.uc.RecordMovement(ctx, in)
	require.NoError(t, err)
	movID2, err := f.uc.RecordMovement(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, movID1, movID2)
	onHand, err := f.uc.QuantityOnHand(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(decimal.NewFromInt(6)), "el delta se aplica una sola vez")
}

func TestRecordMovement_EntradasInvalidas(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	itemID := f.receive(t, "P1", 10, "rcpt-1")

	_, err := f.uc.RecordMovement(ctx, dto.RecordMovementRequest{
		StockItemID: itemID, Delta: decimal.NewFromInt(-1), Reason: "INVENTADO", DedupKey: "mov-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "la razón debe ser una de las conocidas")

	_, err = f.uc.RecordMovement(ctx, dto.RecordMovementRequest{
		StockItemID: itemID, Delta: decimal.Zero, Reason: entity.ReasonAdjustment, DedupKey: "mov-2",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "un delta cero no asienta nada")

	_, err = f.uc.RecordMovement(ctx, dto.RecordMovementRequest{
		StockItemID: "no-existe", Delta: decimal.NewFromInt(1), Reason: entity.ReasonAdjustment, DedupKey: "mov-3",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecomputeOnHand_ReparaLaVistaMaterializada(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	itemID := f.receive(t, "P1", 10, "rcpt-1")
	_, err := f.uc.RecordMovement(ctx, dto.RecordMovementRequest{
		StockItemID: itemID, Delta: decimal.NewFromInt(-4), Reason: entity.ReasonConsumption, DedupKey: "mov-1",
	})
	require.NoError(t, err)

	// Corrupción simulada del total materializado, por fuera del ledger.
	itemRepo := memory.NewStockItemRepository(f.store)
	item, err := itemRepo.GetByID(itemID)
	require.NoError(t, err)
	item.Quantity = decimal.NewFromInt(99)
	require.NoError(t, itemRepo.Upsert(item))

	total, err := f.uc.RecomputeOnHand(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(6)), "el ledger es la fuente de verdad: 10 − 4")

	onHand, err := f.uc.QuantityOnHand(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(decimal.NewFromInt(6)), "el total materializado queda reparado")
}
