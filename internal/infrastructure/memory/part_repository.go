package memory

import (
	"sort"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.PartRepository = (*PartRepo)(nil)

// PartRepo implementación en memoria de PartRepository.
type PartRepo struct {
	store *Store
}

// NewPartRepository construye el repositorio de piezas.
func NewPartRepository(store *Store) *PartRepo {
	return &PartRepo{store: store}
}

// GetByID devuelve una copia de la pieza, o nil si no existe.
func (r *PartRepo) GetByID(id string) (*entity.Part, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	part, ok := r.store.parts[id]
	if !ok {
		return nil, nil
	}
	cp := *part
	return &cp, nil
}

// Upsert inserta o reemplaza la definición de la pieza.
func (r *PartRepo) Upsert(part *entity.Part) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *part
	r.store.parts[part.ID] = &cp
	return nil
}

// List devuelve piezas ordenadas por ID (paginado).
func (r *PartRepo) List(limit, offset int) ([]*entity.Part, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ids := make([]string, 0, len(r.store.parts))
	for id := range r.store.parts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []*entity.Part
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(result) >= limit {
			break
		}
		cp := *r.store.parts[id]
		result = append(result, &cp)
	}
	return result, nil
}

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo implementación en memoria de BOMRepository.
// ReplaceLines sustituye el slice completo bajo el lock del almacén,
// así ninguna lectura concurrente observa un BOM a medio actualizar.
type BOMRepo struct {
	store *Store
}

// NewBOMRepository construye el repositorio de líneas BOM.
func NewBOMRepository(store *Store) *BOMRepo {
	return &BOMRepo{store: store}
}

// GetLines devuelve las líneas vigentes de un padre.
func (r *BOMRepo) GetLines(parentID string) ([]entity.BOMLine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return append([]entity.BOMLine(nil), r.store.bomLines[parentID]...), nil
}

// ReplaceLines reemplaza el conjunto de líneas de un padre de forma atómica.
func (r *BOMRepo) ReplaceLines(parentID string, lines []entity.BOMLine) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if len(lines) == 0 {
		delete(r.store.bomLines, parentID)
		return nil
	}
	r.store.bomLines[parentID] = append([]entity.BOMLine(nil), lines...)
	return nil
}

// GetParents devuelve los padres directos que referencian componentID.
func (r *BOMRepo) GetParents(componentID string) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var parents []string
	for parentID, lines := range r.store.bomLines {
		for _, line := range lines {
			if line.ComponentID == componentID {
				parents = append(parents, parentID)
				break
			}
		}
	}
	sort.Strings(parents)
	return parents, nil
}
