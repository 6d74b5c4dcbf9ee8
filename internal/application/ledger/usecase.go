package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

// UseCase administra el ledger de stock: asientos inmutables y total vigente.
// Toda mutación de cantidad disponible pasa por acá; nunca se escribe el total directo.
type UseCase struct {
	txRunner TxRunner
	itemRepo repository.StockItemRepository
	movRepo  repository.StockMovementRepository
}

// NewUseCase construye el caso de uso del ledger.
func NewUseCase(
	txRunner TxRunner,
	itemRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
) *UseCase {
	return &UseCase{txRunner: txRunner, itemRepo: itemRepo, movRepo: movRepo}
}

// RegisterReceipt crea el ítem de stock y su asiento RECEIPT en una sola transacción.
// Idempotente por DedupKey: un reintento devuelve el ítem y movimiento originales.
func (uc *UseCase) RegisterReceipt(ctx context.Context, in dto.RegisterReceiptRequest) (stockItemID, movementID string, err error) {
	if in.PartID == "" || in.Location == "" || in.DedupKey == "" {
		return "", "", domain.ErrInvalidInput
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return "", "", domain.ErrInvalidInput
	}

	err = uc.txRunner.Run(ctx, func(itemRepo repository.StockItemRepository, movRepo repository.StockMovementRepository) error {
		existing, err := movRepo.GetByDedupKey(in.DedupKey)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			stockItemID = existing.StockItemID
			movementID = existing.ID
			return nil
		}

		now := time.Now()
		item := &entity.StockItem{
			ID:         uuid.New().String(),
			PartID:     in.PartID,
			Location:   in.Location,
			Quantity:   in.Quantity,
			Batch:      in.Batch,
			Serial:     in.Serial,
			Status:     entity.StockStatusOK,
			ReceivedAt: now,
			ExpiresAt:  in.ExpiresAt,
			UpdatedAt:  now,
		}
		if err := itemRepo.Upsert(item); err != nil {
			return err
		}
		mov := &entity.StockMovement{
			ID:          uuid.New().String(),
			StockItemID: item.ID,
			Quantity:    in.Quantity,
			Reason:      entity.ReasonReceipt,
			OrderRef:    in.OrderRef,
			DedupKey:    in.DedupKey,
			CreatedAt:   now,
		}
		if err := movRepo.Create(mov); err != nil {
			return err
		}
		stockItemID = item.ID
		movementID = mov.ID
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return stockItemID, movementID, nil
}

// RecordMovement asienta un movimiento sobre un ítem existente.
// Bloquea la fila del ítem, rechaza con domain.ErrInsufficientStock cualquier delta
// que dejaría la cantidad en negativo (nada queda aplicado a medias) y es
// idempotente por DedupKey: la misma clave devuelve el ID del asiento original.
func (uc *UseCase) RecordMovement(ctx context.Context, in dto.RecordMovementRequest) (movementID string, err error) {
	if in.StockItemID == "" || in.DedupKey == "" || in.Delta.IsZero() {
		return "", domain.ErrInvalidInput
	}
	switch in.Reason {
	case entity.ReasonReceipt, entity.ReasonConsumption, entity.ReasonTransfer,
		entity.ReasonAdjustment, entity.ReasonReversal:
	default:
		return "", domain.ErrInvalidInput
	}

	err = uc.txRunner.Run(ctx, func(itemRepo repository.StockItemRepository, movRepo repository.StockMovementRepository) error {
		existing, err := movRepo.GetByDedupKey(in.DedupKey)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			movementID = existing.ID
			return nil
		}

		item, err := itemRepo.GetForUpdate(in.StockItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		newQty := item.Quantity.Add(in.Delta)
		if newQty.IsNegative() {
			return domain.ErrInsufficientStock
		}

		now := time.Now()
		// El consumo total deja la fila en cero, no la borra: la historia queda trazable.
		item.Quantity = newQty
		item.UpdatedAt = now
		if err := itemRepo.Upsert(item); err != nil {
			return err
		}
		mov := &entity.StockMovement{
			ID:          uuid.New().String(),
			StockItemID: in.StockItemID,
			Quantity:    in.Delta,
			Reason:      in.Reason,
			OrderRef:    in.OrderRef,
			DedupKey:    in.DedupKey,
			CreatedAt:   now,
		}
		if err := movRepo.Create(mov); err != nil {
			return err
		}
		movementID = mov.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return movementID, nil
}

// QuantityOnHand devuelve la cantidad vigente de un ítem (total mantenido por el ledger).
func (uc *UseCase) QuantityOnHand(ctx context.Context, stockItemID string) (decimal.Decimal, error) {
	item, err := uc.itemRepo.GetByID(stockItemID)
	if err != nil {
		return decimal.Zero, err
	}
	if item == nil {
		return decimal.Zero, domain.ErrNotFound
	}
	return item.Quantity, nil
}

// Movements lista los asientos de un ítem.
func (uc *UseCase) Movements(ctx context.Context, stockItemID string, limit, offset int) ([]*entity.StockMovement, error) {
	return uc.movRepo.ListByStockItem(stockItemID, limit, offset)
}

// RecomputeOnHand re-deriva el total vigente desde los asientos del ledger y repara
// la vista materializada si difiere. El ledger es la fuente de verdad, nunca el total.
func (uc *UseCase) RecomputeOnHand(ctx context.Context, stockItemID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := uc.txRunner.Run(ctx, func(itemRepo repository.StockItemRepository, movRepo repository.StockMovementRepository) error {
		item, err := itemRepo.GetForUpdate(stockItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		total, err = movRepo.SumByStockItem(stockItemID)
		if err != nil {
			return err
		}
		if !item.Quantity.Equal(total) {
			item.Quantity = total
			item.UpdatedAt = time.Now()
			return itemRepo.Upsert(item)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
