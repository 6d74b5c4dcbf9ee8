package repository

import "github.com/jhoicas/Inventario-core/internal/domain/entity"

// PartRepository define el puerto de persistencia del catálogo de piezas.
type PartRepository interface {
	GetByID(id string) (*entity.Part, error)
	Upsert(part *entity.Part) error
	List(limit, offset int) ([]*entity.Part, error)
}

// BOMRepository define el puerto de persistencia de líneas BOM.
// ReplaceLines sustituye el conjunto completo de líneas de un padre de forma atómica,
// para que resoluciones concurrentes nunca observen un BOM a medio actualizar.
type BOMRepository interface {
	GetLines(parentID string) ([]entity.BOMLine, error)
	ReplaceLines(parentID string, lines []entity.BOMLine) error
	// GetParents devuelve los padres directos que usan componentID
	// (aristas inversas, para invalidar ancestros tras un SetBOM).
	GetParents(componentID string) ([]string, error)
}
