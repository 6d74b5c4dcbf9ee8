package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.PartRepository = (*PartRepo)(nil)

// PartRepo implementación de PartRepository sobre PostgreSQL (usable con pool o tx).
type PartRepo struct {
	q Querier
}

// NewPartRepository construye el adaptador de piezas. Pasar pool o tx (Querier).
func NewPartRepository(q Querier) *PartRepo {
	return &PartRepo{q: q}
}

// GetByID obtiene una pieza por ID; nil si no existe.
func (r *PartRepo) GetByID(id string) (*entity.Part, error) {
	query := `
		SELECT id, sku, name, unit_of_measure, is_assembly, bom_version, created_at, updated_at
		FROM parts WHERE id = $1`
	var p entity.Part
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.UnitOfMeasure, &p.IsAssembly, &p.BOMVersion, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get part: %w", err)
	}
	return &p, nil
}

// Upsert inserta o actualiza la definición de la pieza.
func (r *PartRepo) Upsert(part *entity.Part) error {
	query := `
		INSERT INTO parts (id, sku, name, unit_of_measure, is_assembly, bom_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name,
			unit_of_measure = EXCLUDED.unit_of_measure, is_assembly = EXCLUDED.is_assembly,
			bom_version = EXCLUDED.bom_version, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query,
		part.ID, part.SKU, part.Name, part.UnitOfMeasure, part.IsAssembly,
		part.BOMVersion, part.CreatedAt, part.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert part: %w", err)
	}
	return nil
}

// List devuelve piezas ordenadas por ID (paginado).
func (r *PartRepo) List(limit, offset int) ([]*entity.Part, error) {
	query := `
		SELECT id, sku, name, unit_of_measure, is_assembly, bom_version, created_at, updated_at
		FROM parts ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	var parts []*entity.Part
	for rows.Next() {
		var p entity.Part
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.UnitOfMeasure, &p.IsAssembly, &p.BOMVersion, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		parts = append(parts, &p)
	}
	return parts, rows.Err()
}

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo implementación de BOMRepository sobre PostgreSQL (usable con pool o tx).
type BOMRepo struct {
	q Querier
}

// NewBOMRepository construye el adaptador de líneas BOM. Pasar pool o tx (Querier).
func NewBOMRepository(q Querier) *BOMRepo {
	return &BOMRepo{q: q}
}

// GetLines devuelve las líneas vigentes de un padre, ordenadas por componente.
func (r *BOMRepo) GetLines(parentID string) ([]entity.BOMLine, error) {
	query := `
		SELECT parent_id, component_id, quantity, substitutes
		FROM bom_lines WHERE parent_id = $1 ORDER BY component_id`
	rows, err := r.q.Query(context.Background(), query, parentID)
	if err != nil {
		return nil, fmt.Errorf("get bom lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.BOMLine
	for rows.Next() {
		var line entity.BOMLine
		if err := rows.Scan(&line.ParentID, &line.ComponentID, &line.Quantity, &line.Substitutes); err != nil {
			return nil, fmt.Errorf("scan bom line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ReplaceLines sustituye el conjunto de líneas de un padre: delete + insert
// dentro de la transacción del caller, nunca visible a medias.
func (r *BOMRepo) ReplaceLines(parentID string, lines []entity.BOMLine) error {
	ctx := context.Background()
	if _, err := r.q.Exec(ctx, `DELETE FROM bom_lines WHERE parent_id = $1`, parentID); err != nil {
		return fmt.Errorf("delete bom lines: %w", err)
	}
	query := `
		INSERT INTO bom_lines (parent_id, component_id, quantity, substitutes)
		VALUES ($1, $2, $3, $4)`
	for _, line := range lines {
		if _, err := r.q.Exec(ctx, query, parentID, line.ComponentID, line.Quantity, line.Substitutes); err != nil {
			return fmt.Errorf("insert bom line: %w", err)
		}
	}
	return nil
}

// GetParents devuelve los padres directos que usan componentID.
func (r *BOMRepo) GetParents(componentID string) ([]string, error) {
	query := `SELECT DISTINCT parent_id FROM bom_lines WHERE component_id = $1 ORDER BY parent_id`
	rows, err := r.q.Query(context.Background(), query, componentID)
	if err != nil {
		return nil, fmt.Errorf("get bom parents: %w", err)
	}
	defer rows.Close()

	var parents []string
	for rows.Next() {
		var parent string
		if err := rows.Scan(&parent); err != nil {
			return nil, fmt.Errorf("scan bom parent: %w", err)
		}
		parents = append(parents, parent)
	}
	return parents, rows.Err()
}
