package bom

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

// Resolver expande el BOM multinivel de una pieza: para cada línea,
// cantidad requerida = cantidad del padre × cantidad de la línea,
// sumada a lo largo de todos los caminos hacia la misma pieza.
// Las lecturas son concurrentes; la caché se invalida desde el catálogo tras SetBOM.
type Resolver struct {
	partRepo repository.PartRepository
	bomRepo  repository.BOMRepository

	// Caché de resoluciones por unidad, clave = partID. La versión del BOM
	// guardada descarta entradas viejas si la invalidación llegó tarde.
	mu    sync.RWMutex
	cache map[string]*cachedResolution
}

type cachedResolution struct {
	bomVersion   int64
	requirements []dto.Requirement // cantidades por 1 unidad de la raíz
	incomplete   bool
}

// NewResolver construye el resolver con los repositorios del catálogo.
func NewResolver(partRepo repository.PartRepository, bomRepo repository.BOMRepository) *Resolver {
	return &Resolver{
		partRepo: partRepo,
		bomRepo:  bomRepo,
		cache:    make(map[string]*cachedResolution),
	}
}

// Invalidate descarta las resoluciones cacheadas de las piezas indicadas.
// Implementa catalog.ResolutionInvalidator.
func (r *Resolver) Invalidate(partIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range partIDs {
		delete(r.cache, id)
	}
}

// ResolveRequirements expande el BOM de partID para quantity unidades.
// Devuelve cada pieza alcanzada con su cantidad total: ensambles intermedios en
// orden topológico (padres antes que componentes) y hojas ordenadas por PartID.
// Un ensamble sin BOM definido marca el resultado como Incomplete en lugar de fallar.
// Falla con domain.ErrCycle si el recorrido revisita un ancestro.
func (r *Resolver) ResolveRequirements(ctx context.Context, partID string, quantity decimal.Decimal) (*dto.ResolutionResult, error) {
	if partID == "" || !quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	root, err := r.partRepo.GetByID(partID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, domain.ErrNotFound
	}

	// Caché por unidad: escalar por quantity al responder.
	r.mu.RLock()
	cached, ok := r.cache[partID]
	r.mu.RUnlock()
	if ok && cached.bomVersion == root.BOMVersion {
		return scale(partID, quantity, cached), nil
	}

	acc := newAccumulator()
	ancestors := map[string]bool{partID: true}
	if err := r.expand(ctx, partID, decimal.NewFromInt(1), 0, ancestors, acc); err != nil {
		return nil, err
	}

	entry := &cachedResolution{
		bomVersion:   root.BOMVersion,
		requirements: acc.ordered(),
		incomplete:   acc.incomplete,
	}
	r.mu.Lock()
	r.cache[partID] = entry
	r.mu.Unlock()

	return scale(partID, quantity, entry), nil
}

// expand recorre recursivamente las líneas BOM acumulando cantidades.
// El conjunto ancestors detecta ciclos aunque el catálogo ya los rechace al escribir;
// la profundidad queda acotada por el tamaño del catálogo al ser el grafo acíclico.
func (r *Resolver) expand(ctx context.Context, partID string, qty decimal.Decimal, depth int, ancestors map[string]bool, acc *accumulator) error {
	lines, err := r.bomRepo.GetLines(partID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if ancestors[line.ComponentID] {
			return domain.ErrCycle
		}
		component, err := r.partRepo.GetByID(line.ComponentID)
		if err != nil {
			return err
		}
		if component == nil {
			return domain.ErrNotFound
		}

		required := qty.Mul(line.Quantity)
		childLines, err := r.bomRepo.GetLines(line.ComponentID)
		if err != nil {
			return err
		}

		switch {
		case !component.IsAssembly:
			acc.add(line.ComponentID, required, depth+1, true, false)
		case len(childLines) == 0:
			// Ensamble sin BOM: resolución parcial, no error.
			acc.add(line.ComponentID, required, depth+1, false, true)
		default:
			acc.add(line.ComponentID, required, depth+1, false, false)
			ancestors[line.ComponentID] = true
			if err := r.expand(ctx, line.ComponentID, required, depth+1, ancestors, acc); err != nil {
				return err
			}
			delete(ancestors, line.ComponentID)
		}
	}
	return nil
}

// scale multiplica las cantidades por unidad de la caché por la cantidad pedida.
func scale(partID string, quantity decimal.Decimal, entry *cachedResolution) *dto.ResolutionResult {
	reqs := make([]dto.Requirement, len(entry.requirements))
	for i, req := range entry.requirements {
		req.Quantity = req.Quantity.Mul(quantity)
		reqs[i] = req
	}
	return &dto.ResolutionResult{
		PartID:       partID,
		Quantity:     quantity,
		Requirements: reqs,
		Incomplete:   entry.incomplete,
	}
}

// accumulator suma cantidades por pieza y conserva la profundidad máxima
// para ordenar topológicamente la salida.
type accumulator struct {
	totals     map[string]*accumEntry
	incomplete bool
}

type accumEntry struct {
	partID        string
	quantity      decimal.Decimal
	maxDepth      int
	isLeaf        bool
	incompleteBOM bool
}

func newAccumulator() *accumulator {
	return &accumulator{totals: make(map[string]*accumEntry)}
}

func (a *accumulator) add(partID string, qty decimal.Decimal, depth int, isLeaf, incompleteBOM bool) {
	if incompleteBOM {
		a.incomplete = true
	}
	e, ok := a.totals[partID]
	if !ok {
		a.totals[partID] = &accumEntry{
			partID:        partID,
			quantity:      qty,
			maxDepth:      depth,
			isLeaf:        isLeaf,
			incompleteBOM: incompleteBOM,
		}
		return
	}
	e.quantity = e.quantity.Add(qty)
	if depth > e.maxDepth {
		e.maxDepth = depth
	}
	e.incompleteBOM = e.incompleteBOM || incompleteBOM
}

// ordered devuelve los requerimientos: ensambles por profundidad máxima ascendente
// (orden topológico, padres primero), luego hojas ordenadas por PartID.
func (a *accumulator) ordered() []dto.Requirement {
	var assemblies, leaves []*accumEntry
	for _, e := range a.totals {
		if e.isLeaf {
			leaves = append(leaves, e)
		} else {
			assemblies = append(assemblies, e)
		}
	}
	sort.Slice(assemblies, func(i, j int) bool {
		if assemblies[i].maxDepth != assemblies[j].maxDepth {
			return assemblies[i].maxDepth < assemblies[j].maxDepth
		}
		return assemblies[i].partID < assemblies[j].partID
	})
	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].partID < leaves[j].partID
	})

	reqs := make([]dto.Requirement, 0, len(assemblies)+len(leaves))
	for _, e := range assemblies {
		reqs = append(reqs, dto.Requirement{
			PartID:        e.partID,
			Quantity:      e.quantity,
			IsLeaf:        false,
			IncompleteBOM: e.incompleteBOM,
		})
	}
	for _, e := range leaves {
		reqs = append(reqs, dto.Requirement{
			PartID:   e.partID,
			Quantity: e.quantity,
			IsLeaf:   true,
		})
	}
	return reqs
}
