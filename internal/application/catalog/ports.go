package catalog

import (
	"context"

	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Garantiza que SetBOM (versión + líneas) se aplica de forma atómica.
type TxRunner interface {
	RunCatalog(ctx context.Context, fn func(
		partRepo repository.PartRepository,
		bomRepo repository.BOMRepository,
	) error) error
}

// ResolutionInvalidator invalida resoluciones cacheadas tras un cambio de BOM.
// Lo implementa el resolver; el catálogo lo llama con el padre y sus ancestros.
type ResolutionInvalidator interface {
	Invalidate(partIDs ...string)
}
