package allocation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

// Políticas de selección de ítems al reservar.
const (
	PolicyFIFO   = "fifo"   // más antiguo primero (fecha de recepción)
	PolicyExpiry = "expiry" // vencimiento más próximo primero; sin vencimiento al final
)

// UseCase reserva stock contra órdenes respetando el invariante:
// suma de reservas activas + consumido ≤ cantidad disponible del ítem.
// Toda mutación corre dentro de una transacción con bloqueo por ítem,
// así dos reservas simultáneas sobre el mismo ítem nunca sobre-reservan.
type UseCase struct {
	txRunner TxRunner
	partRepo repository.PartRepository
	policy   string
}

// NewUseCase construye el motor de reservas. policy: PolicyFIFO (default) o PolicyExpiry.
func NewUseCase(txRunner TxRunner, partRepo repository.PartRepository, policy string) *UseCase {
	if policy != PolicyExpiry {
		policy = PolicyFIFO
	}
	return &UseCase{txRunner: txRunner, partRepo: partRepo, policy: policy}
}

// Allocate reserva hasta quantity unidades de partID contra orderRef.
// Recorre los ítems asignables según la política configurada y reserva en cada uno
// lo disponible (cantidad vigente menos reservas activas). Si el stock se agota,
// reserva lo que hay y devuelve estado PARTIAL con el faltante; no falla.
func (uc *UseCase) Allocate(ctx context.Context, orderRef, partID string, quantity decimal.Decimal) (*dto.AllocationResult, error) {
	if orderRef == "" || partID == "" || !quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	part, err := uc.partRepo.GetByID(partID)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, domain.ErrNotFound
	}

	result := &dto.AllocationResult{
		OrderRef:  orderRef,
		PartID:    partID,
		Requested: quantity,
		Allocated: decimal.Zero,
	}

	err = uc.txRunner.RunAllocation(ctx, func(
		itemRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		allocRepo repository.AllocationRepository,
	) error {
		items, err := itemRepo.ListAvailableForUpdate(partID)
		if err != nil {
			return err
		}
		uc.orderByPolicy(items)

		remaining := quantity
		now := time.Now()
		for _, item := range items {
			if !remaining.GreaterThan(decimal.Zero) {
				break
			}
			active, err := allocRepo.SumActiveByStockItem(item.ID)
			if err != nil {
				return err
			}
			available := item.Quantity.Sub(active)
			if !available.GreaterThan(decimal.Zero) {
				continue
			}
			take := decimal.Min(remaining, available)
			alloc := &entity.Allocation{
				ID:          uuid.New().String(),
				OrderRef:    orderRef,
				PartID:      partID,
				StockItemID: item.ID,
				Quantity:    take,
				State:       entity.AllocationPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := allocRepo.Create(alloc); err != nil {
				return err
			}
			result.Lines = append(result.Lines, dto.AllocationLine{
				AllocationID: alloc.ID,
				StockItemID:  item.ID,
				Quantity:     take,
			})
			result.Allocated = result.Allocated.Add(take)
			remaining = remaining.Sub(take)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Shortfall = result.Requested.Sub(result.Allocated)
	if result.Shortfall.GreaterThan(decimal.Zero) {
		result.Status = dto.AllocationPartial
	} else {
		result.Status = dto.AllocationFull
	}
	return result, nil
}

// Release devuelve una reserva al pool disponible. Idempotente: sobre una reserva
// ya liberada es no-op. Una reserva ya consumida (COMMITTED) no puede liberarse.
func (uc *UseCase) Release(ctx context.Context, allocationID string) error {
	if allocationID == "" {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.RunAllocation(ctx, func(
		_ repository.StockItemRepository,
		_ repository.StockMovementRepository,
		allocRepo repository.AllocationRepository,
	) error {
		alloc, err := allocRepo.GetForUpdate(allocationID)
		if err != nil {
			return err
		}
		if alloc == nil {
			return domain.ErrNotFound
		}
		switch alloc.State {
		case entity.AllocationReleased:
			return nil // segunda llamada: no-op
		case entity.AllocationCommitted:
			return domain.ErrConflict
		}
		alloc.State = entity.AllocationReleased
		alloc.UpdatedAt = time.Now()
		return allocRepo.Update(alloc)
	})
}

// Commit convierte una reserva en un movimiento de consumo del ledger, atómico
// frente a Allocate concurrentes sobre el mismo ítem (mismo bloqueo de fila).
// Idempotente: la clave de deduplicación se deriva del ID de la reserva, y una
// reserva ya consumida es no-op. Una reserva liberada no puede consumirse.
func (uc *UseCase) Commit(ctx context.Context, allocationID string) error {
	if allocationID == "" {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.RunAllocation(ctx, func(
		itemRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		allocRepo repository.AllocationRepository,
	) error {
		alloc, err := allocRepo.GetForUpdate(allocationID)
		if err != nil {
			return err
		}
		if alloc == nil {
			return domain.ErrNotFound
		}
		switch alloc.State {
		case entity.AllocationCommitted:
			return nil // reintento: no-op
		case entity.AllocationReleased:
			return domain.ErrConflict
		}

		dedupKey := "alloc-commit:" + alloc.ID
		existing, err := movRepo.GetByDedupKey(dedupKey)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		now := time.Now()
		if existing == nil {
			item, err := itemRepo.GetForUpdate(alloc.StockItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return domain.ErrNotFound
			}
			newQty := item.Quantity.Sub(alloc.Quantity)
			if newQty.IsNegative() {
				return domain.ErrInsufficientStock
			}
			item.Quantity = newQty
			item.UpdatedAt = now
			if err := itemRepo.Upsert(item); err != nil {
				return err
			}
			mov := &entity.StockMovement{
				ID:          uuid.New().String(),
				StockItemID: alloc.StockItemID,
				Quantity:    alloc.Quantity.Neg(),
				Reason:      entity.ReasonConsumption,
				OrderRef:    alloc.OrderRef,
				DedupKey:    dedupKey,
				CreatedAt:   now,
			}
			if err := movRepo.Create(mov); err != nil {
				return err
			}
		}

		alloc.State = entity.AllocationCommitted
		alloc.UpdatedAt = now
		return allocRepo.Update(alloc)
	})
}

// orderByPolicy ordena los candidatos según la política configurada.
// El orden es estable y determinista: a igualdad de criterio decide el ID.
func (uc *UseCase) orderByPolicy(items []*entity.StockItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if uc.policy == PolicyExpiry {
			switch {
			case a.ExpiresAt != nil && b.ExpiresAt == nil:
				return true
			case a.ExpiresAt == nil && b.ExpiresAt != nil:
				return false
			case a.ExpiresAt != nil && b.ExpiresAt != nil && !a.ExpiresAt.Equal(*b.ExpiresAt):
				return a.ExpiresAt.Before(*b.ExpiresAt)
			}
		}
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		return a.ID < b.ID
	})
}
