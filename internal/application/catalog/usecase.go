package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/bom"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

// UseCase administra el catálogo de piezas y sus BOM.
// SetBOM valida aciclicidad antes de confirmar y aplica el reemplazo de líneas
// en una sola transacción, invalidando resoluciones cacheadas de los ancestros.
type UseCase struct {
	txRunner    TxRunner
	partRepo    repository.PartRepository
	bomRepo     repository.BOMRepository
	invalidator ResolutionInvalidator
}

// NewUseCase construye el caso de uso de catálogo.
// invalidator puede ser nil si no hay resolver cacheado (ej. herramientas de carga).
func NewUseCase(
	txRunner TxRunner,
	partRepo repository.PartRepository,
	bomRepo repository.BOMRepository,
	invalidator ResolutionInvalidator,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		partRepo:    partRepo,
		bomRepo:     bomRepo,
		invalidator: invalidator,
	}
}

// GetPart obtiene una pieza por ID.
func (uc *UseCase) GetPart(ctx context.Context, id string) (*entity.Part, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	part, err := uc.partRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, domain.ErrNotFound
	}
	return part, nil
}

// GetBOM devuelve las líneas BOM vigentes de una pieza.
func (uc *UseCase) GetBOM(ctx context.Context, parentID string) ([]entity.BOMLine, error) {
	if _, err := uc.GetPart(ctx, parentID); err != nil {
		return nil, err
	}
	return uc.bomRepo.GetLines(parentID)
}

// UpsertPart crea o actualiza la definición de una pieza.
func (uc *UseCase) UpsertPart(ctx context.Context, in dto.UpsertPartRequest) (*entity.Part, error) {
	if in.Name == "" || in.UnitOfMeasure == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	part := &entity.Part{
		ID:            in.ID,
		SKU:           in.SKU,
		Name:          in.Name,
		UnitOfMeasure: in.UnitOfMeasure,
		IsAssembly:    in.IsAssembly,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if part.ID == "" {
		part.ID = uuid.New().String()
	}
	err := uc.txRunner.RunCatalog(ctx, func(partRepo repository.PartRepository, _ repository.BOMRepository) error {
		// La fecha de alta y la versión del BOM se leen bajo la misma transacción
		// que la escritura: un SetBOM concurrente no puede ver su versión retrocedida.
		existing, err := partRepo.GetByID(part.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			part.CreatedAt = existing.CreatedAt
			part.BOMVersion = existing.BOMVersion
		}
		return partRepo.Upsert(part)
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

// SetBOM reemplaza el conjunto de líneas BOM de una pieza.
// Falla con domain.ErrCycle si las líneas nuevas introducirían un ciclo
// (alcanzabilidad desde cada componente de vuelta al padre, validada antes del commit);
// en ese caso el catálogo queda intacto.
func (uc *UseCase) SetBOM(ctx context.Context, parentID string, lines []dto.BOMLineInput) error {
	parent, err := uc.GetPart(ctx, parentID)
	if err != nil {
		return err
	}
	if !parent.IsAssembly {
		return domain.ErrInvalidInput
	}

	seen := map[string]bool{}
	newLines := make([]entity.BOMLine, 0, len(lines))
	for _, in := range lines {
		if in.ComponentID == "" || !in.Quantity.GreaterThan(decimal.Zero) {
			return domain.ErrInvalidInput
		}
		if seen[in.ComponentID] {
			return domain.ErrDuplicate
		}
		seen[in.ComponentID] = true
		component, err := uc.partRepo.GetByID(in.ComponentID)
		if err != nil {
			return err
		}
		if component == nil {
			return domain.ErrNotFound
		}
		newLines = append(newLines, entity.BOMLine{
			ParentID:    parentID,
			ComponentID: in.ComponentID,
			Quantity:    in.Quantity,
			Substitutes: in.Substitutes,
		})
	}

	// Validación de aciclicidad contra el grafo vigente antes de tocar nada.
	cyclic, err := bom.WouldCreateCycle(uc.bomRepo.GetLines, parentID, newLines)
	if err != nil {
		return err
	}
	if cyclic {
		return domain.ErrCycle
	}

	err = uc.txRunner.RunCatalog(ctx, func(partRepo repository.PartRepository, bomRepo repository.BOMRepository) error {
		// Reemplazo atómico: versión nueva + líneas nuevas en la misma transacción.
		parent.BOMVersion++
		parent.UpdatedAt = time.Now()
		if err := partRepo.Upsert(parent); err != nil {
			return err
		}
		return bomRepo.ReplaceLines(parentID, newLines)
	})
	if err != nil {
		return err
	}

	// Un cambio de BOM invalida la resolución cacheada del padre y de todos sus ancestros.
	if uc.invalidator != nil {
		stale, err := uc.ancestorsOf(parentID)
		if err != nil {
			return err
		}
		uc.invalidator.Invalidate(stale...)
	}
	return nil
}

// ancestorsOf devuelve parentID más todos los ensambles que lo contienen,
// directa o transitivamente (BFS sobre aristas inversas).
func (uc *UseCase) ancestorsOf(partID string) ([]string, error) {
	visited := map[string]bool{partID: true}
	result := []string{partID}
	queue := []string{partID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		parents, err := uc.bomRepo.GetParents(current)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			if !visited[p] {
				visited[p] = true
				result = append(result, p)
				queue = append(queue, p)
			}
		}
	}
	return result, nil
}
