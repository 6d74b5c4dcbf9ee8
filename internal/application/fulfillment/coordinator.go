package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
	"github.com/jhoicas/Inventario-core/pkg/logger"
)

// Políticas ante un BOM incompleto durante la asignación de una orden de fabricación.
const (
	IncompleteBlockOrder = "block-order" // la orden entera vuelve a PENDING y se libera lo reservado
	IncompleteBlockLine  = "block-line"  // solo la línea afectada queda marcada (default)
)

// Coordinator secuencia asignación, consumo y cierre de órdenes de compra,
// venta y fabricación, con acciones compensatorias ante cancelación.
// El fallo de una línea nunca aborta la orden: se degrada a estado de línea
// y la orden refleja el peor estado entre sus líneas.
type Coordinator struct {
	txRunner         TxRunner
	orderRepo        repository.OrderRepository
	allocRepo        repository.AllocationRepository
	movRepo          repository.StockMovementRepository
	resolver         Resolver
	allocator        Allocator
	ledger           Ledger
	incompletePolicy string
	log              *logger.Logger
}

// NewCoordinator construye el coordinador de órdenes.
// incompletePolicy: IncompleteBlockLine (default) o IncompleteBlockOrder.
func NewCoordinator(
	txRunner TxRunner,
	orderRepo repository.OrderRepository,
	allocRepo repository.AllocationRepository,
	movRepo repository.StockMovementRepository,
	resolver Resolver,
	allocator Allocator,
	ledger Ledger,
	incompletePolicy string,
	log *logger.Logger,
) *Coordinator {
	if incompletePolicy != IncompleteBlockOrder {
		incompletePolicy = IncompleteBlockLine
	}
	return &Coordinator{
		txRunner:         txRunner,
		orderRepo:        orderRepo,
		allocRepo:        allocRepo,
		movRepo:          movRepo,
		resolver:         resolver,
		allocator:        allocator,
		ledger:           ledger,
		incompletePolicy: incompletePolicy,
		log:              log,
	}
}

// CreateOrder registra una orden nueva en estado PENDING.
func (c *Coordinator) CreateOrder(ctx context.Context, in dto.CreateOrderRequest) (*entity.Order, error) {
	switch in.Type {
	case entity.OrderTypePurchase, entity.OrderTypeSales, entity.OrderTypeBuild:
	default:
		return nil, domain.ErrInvalidInput
	}
	if len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	order := &entity.Order{
		ID:        uuid.New().String(),
		Type:      in.Type,
		Status:    entity.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, line := range in.Lines {
		if line.PartID == "" || !line.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		order.Lines = append(order.Lines, entity.OrderLine{
			LineNo:   i + 1,
			PartID:   line.PartID,
			Quantity: line.Quantity,
			Status:   entity.LinePending,
		})
	}
	err := c.txRunner.RunOrder(ctx, func(orderRepo repository.OrderRepository) error {
		return orderRepo.Create(order)
	})
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("order_id", order.ID).Str("type", order.Type).Int("lines", len(order.Lines)).Msg("orden creada")
	return order, nil
}

// GetOrder obtiene una orden por ID.
func (c *Coordinator) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	order, err := c.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// StartAllocation pasa la orden a ALLOCATING y reserva stock línea por línea.
// Órdenes BUILD expanden primero su BOM y reservan cada requerimiento hoja;
// SALES reserva la pieza directamente; PURCHASE no reserva (el stock entra al recibir).
// El estado final de la orden es el peor estado entre sus líneas.
func (c *Coordinator) StartAllocation(ctx context.Context, orderID string) (*dto.OrderAllocationResult, error) {
	order, err := c.transition(ctx, orderID, entity.OrderAllocating)
	if err != nil {
		return nil, err
	}

	result := &dto.OrderAllocationResult{OrderID: orderID}
	lineStatuses := make([]string, len(order.Lines))
	blockOrder := false

	for i, line := range order.Lines {
		status, shortfall, err := c.allocateLine(ctx, order, line)
		if err != nil {
			return nil, err
		}
		if status == entity.LineIncompleteBOM && c.incompletePolicy == IncompleteBlockOrder {
			blockOrder = true
		}
		lineStatuses[i] = status
		result.Lines = append(result.Lines, dto.LineAllocationStatus{
			LineNo:    line.LineNo,
			PartID:    line.PartID,
			Status:    status,
			Shortfall: shortfall,
		})
	}

	if blockOrder {
		// Política block-order: nada queda reservado y la orden vuelve a PENDING.
		if err := c.releaseOrderAllocations(ctx, orderID); err != nil {
			return nil, err
		}
		if _, err := c.transition(ctx, orderID, entity.OrderPending); err != nil {
			return nil, err
		}
		result.OrderStatus = entity.OrderPending
		c.log.Warn().Str("order_id", orderID).Msg("BOM incompleto: orden bloqueada por política block-order")
		return result, nil
	}

	var finalStatus string
	err = c.txRunner.RunOrder(ctx, func(orderRepo repository.OrderRepository) error {
		locked, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		for i := range locked.Lines {
			locked.Lines[i].Status = lineStatuses[i]
		}
		finalStatus = locked.WorstLineStatus()
		if !locked.CanTransition(finalStatus) {
			return domain.ErrInvalidTransition
		}
		locked.Status = finalStatus
		locked.UpdatedAt = time.Now()
		return orderRepo.Update(locked)
	})
	if err != nil {
		// Una cancelación concurrente pudo cerrar la orden entre la transición a
		// ALLOCATING y este punto; su barrido corrió antes de que existieran
		// todas las reservas, así que acá se libera lo que quedó huérfano.
		if errors.Is(err, domain.ErrInvalidTransition) {
			if relErr := c.releaseOrderAllocations(ctx, orderID); relErr != nil {
				return nil, relErr
			}
		}
		return nil, err
	}
	result.OrderStatus = finalStatus
	c.log.Info().Str("order_id", orderID).Str("status", finalStatus).Msg("asignación de orden terminada")
	return result, nil
}

// allocateLine reserva una línea y devuelve su estado y faltante total.
// Los errores de negocio se degradan a estado de línea; los de infraestructura se propagan.
func (c *Coordinator) allocateLine(ctx context.Context, order *entity.Order, line entity.OrderLine) (string, decimal.Decimal, error) {
	if order.Type == entity.OrderTypePurchase {
		// Las compras no reservan stock propio: las existencias entran al recibir.
		return entity.LineAllocated, decimal.Zero, nil
	}

	requirements := []dto.Requirement{{PartID: line.PartID, Quantity: line.Quantity, IsLeaf: true}}
	incomplete := false
	if order.Type == entity.OrderTypeBuild {
		resolution, err := c.resolver.ResolveRequirements(ctx, line.PartID, line.Quantity)
		if err != nil {
			if isDomainErr(err) {
				c.log.Warn().Err(err).Str("order_id", order.ID).Int("line", line.LineNo).Msg("resolución BOM falló; línea degradada")
				return entity.LinePartiallyAllocated, line.Quantity, nil
			}
			return "", decimal.Zero, err
		}
		requirements = resolution.Leaves()
		incomplete = resolution.Incomplete
	}

	shortfall := decimal.Zero
	for _, req := range requirements {
		res, err := c.allocator.Allocate(ctx, order.ID, req.PartID, req.Quantity)
		if err != nil {
			if isDomainErr(err) {
				shortfall = shortfall.Add(req.Quantity)
				continue
			}
			return "", decimal.Zero, err
		}
		shortfall = shortfall.Add(res.Shortfall)
	}

	switch {
	case incomplete:
		return entity.LineIncompleteBOM, shortfall, nil
	case shortfall.GreaterThan(decimal.Zero):
		return entity.LinePartiallyAllocated, shortfall, nil
	default:
		return entity.LineAllocated, shortfall, nil
	}
}

// StartFulfillment pasa la orden de ALLOCATED/PARTIALLY_ALLOCATED a FULFILLING.
func (c *Coordinator) StartFulfillment(ctx context.Context, orderID string) error {
	_, err := c.transition(ctx, orderID, entity.OrderFulfilling)
	return err
}

// Complete consume todas las reservas activas de la orden (cada commit es
// idempotente) y cierra la orden en COMPLETED.
func (c *Coordinator) Complete(ctx context.Context, orderID string) error {
	order, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != entity.OrderFulfilling {
		return domain.ErrInvalidTransition
	}

	allocs, err := c.allocRepo.ListByOrderRef(orderID)
	if err != nil {
		return err
	}
	for _, alloc := range allocs {
		if !alloc.Active() {
			continue
		}
		if err := c.allocator.Commit(ctx, alloc.ID); err != nil {
			return fmt.Errorf("commit de reserva %s: %w", alloc.ID, err)
		}
	}

	err = c.txRunner.RunOrder(ctx, func(orderRepo repository.OrderRepository) error {
		locked, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		if !locked.CanTransition(entity.OrderCompleted) {
			return domain.ErrInvalidTransition
		}
		for i := range locked.Lines {
			locked.Lines[i].Status = entity.LineFulfilled
		}
		locked.Status = entity.OrderCompleted
		locked.UpdatedAt = time.Now()
		return orderRepo.Update(locked)
	})
	if err != nil {
		return err
	}
	c.log.Info().Str("order_id", orderID).Msg("orden completada")
	return nil
}

// ReceivePurchaseOrder registra la recepción física de una orden de compra:
// crea un ítem de stock por línea (idempotente por orden+línea) y cierra la orden.
func (c *Coordinator) ReceivePurchaseOrder(ctx context.Context, orderID, location string) error {
	order, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Type != entity.OrderTypePurchase {
		return domain.ErrInvalidInput
	}
	if order.Status != entity.OrderFulfilling {
		return domain.ErrInvalidTransition
	}

	for _, line := range order.Lines {
		in := dto.RegisterReceiptRequest{
			PartID:   line.PartID,
			Location: location,
			Quantity: line.Quantity,
			OrderRef: orderID,
			DedupKey: fmt.Sprintf("po-receipt:%s:%d", orderID, line.LineNo),
		}
		if _, _, err := c.ledger.RegisterReceipt(ctx, in); err != nil {
			return fmt.Errorf("recepción línea %d: %w", line.LineNo, err)
		}
	}

	return c.Complete(ctx, orderID)
}

// Cancel cancela la orden desde cualquier estado previo a COMPLETED.
// Primero libera todas las reservas activas (acción compensatoria) y recién
// entonces marca CANCELLED. Los movimientos ya consumidos no se revierten:
// eso requiere una orden de reversa explícita (CreateReversalOrder).
func (c *Coordinator) Cancel(ctx context.Context, orderID string) error {
	order, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Closed() {
		return domain.ErrOrderClosed
	}
	if err := c.releaseOrderAllocations(ctx, orderID); err != nil {
		return err
	}
	if _, err := c.transition(ctx, orderID, entity.OrderCancelled); err != nil {
		return err
	}
	c.log.Info().Str("order_id", orderID).Msg("orden cancelada; reservas liberadas")
	return nil
}

// CreateReversalOrder crea la orden de reversa de una orden COMPLETED:
// un contra-asiento REVERSAL por cada consumo del ledger de la orden original.
// Idempotente por movimiento original.
func (c *Coordinator) CreateReversalOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	original, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if original.Status != entity.OrderCompleted {
		return nil, domain.ErrInvalidTransition
	}

	movements, err := c.movRepo.ListByOrderRef(orderID)
	if err != nil {
		return nil, err
	}

	// La identidad de la reversa se deriva de la orden original: un reintento
	// reutiliza la misma orden en vez de acumular duplicados vacíos.
	reversalID := uuid.NewSHA1(uuid.NameSpaceOID, []byte("reversal-order:"+orderID)).String()
	reversal, err := c.orderRepo.GetByID(reversalID)
	if err != nil {
		return nil, err
	}
	if reversal == nil {
		now := time.Now()
		reversal = &entity.Order{
			ID:        reversalID,
			Type:      original.Type,
			Status:    entity.OrderCompleted,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = c.txRunner.RunOrder(ctx, func(orderRepo repository.OrderRepository) error {
			return orderRepo.Create(reversal)
		})
		if err != nil {
			return nil, err
		}
	}
	lineNo := 0

	for _, mov := range movements {
		if mov.Reason != entity.ReasonConsumption {
			continue
		}
		lineNo++
		in := dto.RecordMovementRequest{
			StockItemID: mov.StockItemID,
			Delta:       mov.Quantity.Neg(), // el consumo es negativo; la reversa lo repone
			Reason:      entity.ReasonReversal,
			OrderRef:    reversal.ID,
			DedupKey:    "reversal:" + mov.ID,
		}
		if _, err := c.ledger.RecordMovement(ctx, in); err != nil {
			return nil, fmt.Errorf("reversa del movimiento %s: %w", mov.ID, err)
		}
	}
	c.log.Info().Str("order_id", orderID).Str("reversal_id", reversal.ID).Int("movements", lineNo).Msg("orden de reversa creada")
	return reversal, nil
}

// releaseOrderAllocations libera toda reserva activa de la orden (cada Release es idempotente).
func (c *Coordinator) releaseOrderAllocations(ctx context.Context, orderID string) error {
	allocs, err := c.allocRepo.ListByOrderRef(orderID)
	if err != nil {
		return err
	}
	for _, alloc := range allocs {
		if !alloc.Active() {
			continue
		}
		if err := c.allocator.Release(ctx, alloc.ID); err != nil {
			return fmt.Errorf("liberar reserva %s: %w", alloc.ID, err)
		}
	}
	return nil
}

// transition aplica una transición de la máquina de estados bajo bloqueo de la orden.
func (c *Coordinator) transition(ctx context.Context, orderID, to string) (*entity.Order, error) {
	var order *entity.Order
	err := c.txRunner.RunOrder(ctx, func(orderRepo repository.OrderRepository) error {
		locked, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		if !locked.CanTransition(to) {
			return domain.ErrInvalidTransition
		}
		locked.Status = to
		locked.UpdatedAt = time.Now()
		if err := orderRepo.Update(locked); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// isDomainErr distingue errores de negocio (degradables a estado de línea)
// de fallas de infraestructura, que se propagan sin cambios.
func isDomainErr(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrCycle) ||
		errors.Is(err, domain.ErrConflict)
}
