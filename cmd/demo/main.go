package main

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/application/allocation"
	appbom "github.com/jhoicas/Inventario-core/internal/application/bom"
	"github.com/jhoicas/Inventario-core/internal/application/catalog"
	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/application/fulfillment"
	"github.com/jhoicas/Inventario-core/internal/application/ledger"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
	"github.com/jhoicas/Inventario-core/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-core/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-core/pkg/config"
	"github.com/jhoicas/Inventario-core/pkg/logger"
)

// txRunner agrupa los cuatro puertos transaccionales del motor.
// Lo implementan tanto el backend PostgreSQL como el de memoria.
type txRunner interface {
	ledger.TxRunner
	catalog.TxRunner
	allocation.TxRunner
	fulfillment.TxRunner
}

type repos struct {
	part  repository.PartRepository
	bom   repository.BOMRepository
	item  repository.StockItemRepository
	mov   repository.StockMovementRepository
	alloc repository.AllocationRepository
	order repository.OrderRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})
	log.Info().Str("env", cfg.App.Env).Str("app", cfg.App.Name).Msg("iniciando demo del motor")

	ctx := context.Background()

	// Backend: PostgreSQL si hay DATABASE_URL, memoria si no.
	var tx txRunner
	var r repos
	if cfg.DB.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		tx = postgres.NewTxRunner(pool)
		r = repos{
			part:  postgres.NewPartRepository(pool),
			bom:   postgres.NewBOMRepository(pool),
			item:  postgres.NewStockItemRepository(pool),
			mov:   postgres.NewStockMovementRepository(pool),
			alloc: postgres.NewAllocationRepository(pool),
			order: postgres.NewOrderRepository(pool),
		}
		log.Info().Msg("backend: postgres")
	} else {
		store := memory.NewStore()
		tx = memory.NewTxRunner(store)
		r = repos{
			part:  memory.NewPartRepository(store),
			bom:   memory.NewBOMRepository(store),
			item:  memory.NewStockItemRepository(store),
			mov:   memory.NewStockMovementRepository(store),
			alloc: memory.NewAllocationRepository(store),
			order: memory.NewOrderRepository(store),
		}
		log.Info().Msg("backend: memoria")
	}

	resolver := appbom.NewResolver(r.part, r.bom)
	catalogUC := catalog.NewUseCase(tx, r.part, r.bom, resolver)
	ledgerUC := ledger.NewUseCase(tx, r.item, r.mov)
	allocUC := allocation.NewUseCase(tx, r.part, cfg.Engine.AllocationPolicy)
	coordinator := fulfillment.NewCoordinator(
		tx, r.order, r.alloc, r.mov, resolver, allocUC, ledgerUC,
		cfg.Engine.IncompleteBOMPolicy, log,
	)

	// Catálogo de ejemplo: A = 2×B + 1×C; B = 3×D.
	qty := func(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
	partA, err := catalogUC.UpsertPart(ctx, dto.UpsertPartRequest{SKU: "ASM-A", Name: "Ensamble A", UnitOfMeasure: "unidad", IsAssembly: true})
	if err != nil {
		log.Fatal().Err(err).Msg("crear pieza A")
	}
	partB, _ := catalogUC.UpsertPart(ctx, dto.UpsertPartRequest{SKU: "ASM-B", Name: "Subensamble B", UnitOfMeasure: "unidad", IsAssembly: true})
	partC, _ := catalogUC.UpsertPart(ctx, dto.UpsertPartRequest{SKU: "CMP-C", Name: "Componente C", UnitOfMeasure: "unidad"})
	partD, _ := catalogUC.UpsertPart(ctx, dto.UpsertPartRequest{SKU: "CMP-D", Name: "Componente D", UnitOfMeasure: "unidad"})

	if err := catalogUC.SetBOM(ctx, partA.ID, []dto.BOMLineInput{
		{ComponentID: partB.ID, Quantity: qty(2)},
		{ComponentID: partC.ID, Quantity: qty(1)},
	}); err != nil {
		log.Fatal().Err(err).Msg("definir BOM de A")
	}
	if err := catalogUC.SetBOM(ctx, partB.ID, []dto.BOMLineInput{
		{ComponentID: partD.ID, Quantity: qty(3)},
	}); err != nil {
		log.Fatal().Err(err).Msg("definir BOM de B")
	}

	resolution, err := resolver.ResolveRequirements(ctx, partA.ID, qty(5))
	if err != nil {
		log.Fatal().Err(err).Msg("resolver requerimientos")
	}
	for _, req := range resolution.Requirements {
		log.Info().Str("part_id", req.PartID).Str("qty", req.Quantity.String()).Bool("leaf", req.IsLeaf).Msg("requerimiento")
	}

	// Stock inicial: D alcanza, C queda corto para mostrar resultado PARTIAL.
	if _, _, err := ledgerUC.RegisterReceipt(ctx, dto.RegisterReceiptRequest{
		PartID: partD.ID, Location: "BODEGA-1", Quantity: qty(40), DedupKey: "demo-receipt-d",
	}); err != nil {
		log.Fatal().Err(err).Msg("recepción de D")
	}
	if _, _, err := ledgerUC.RegisterReceipt(ctx, dto.RegisterReceiptRequest{
		PartID: partC.ID, Location: "BODEGA-1", Quantity: qty(3), DedupKey: "demo-receipt-c",
	}); err != nil {
		log.Fatal().Err(err).Msg("recepción de C")
	}

	order, err := coordinator.CreateOrder(ctx, dto.CreateOrderRequest{
		Type:  "BUILD",
		Lines: []dto.OrderLineInput{{PartID: partA.ID, Quantity: qty(5)}},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear orden de fabricación")
	}

	allocResult, err := coordinator.StartAllocation(ctx, order.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("asignar orden")
	}
	for _, line := range allocResult.Lines {
		log.Info().Int("line", line.LineNo).Str("status", line.Status).Str("shortfall", line.Shortfall.String()).Msg("línea asignada")
	}

	if err := coordinator.StartFulfillment(ctx, order.ID); err != nil {
		log.Fatal().Err(err).Msg("iniciar fulfillment")
	}
	if err := coordinator.Complete(ctx, order.ID); err != nil {
		log.Fatal().Err(err).Msg("completar orden")
	}

	final, _ := coordinator.GetOrder(ctx, order.ID)
	log.Info().Str("order_id", final.ID).Str("status", final.Status).Msg("demo terminada")
}
