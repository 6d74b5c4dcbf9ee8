package dto

import "github.com/shopspring/decimal"

// Requirement representa la necesidad total de una pieza para construir el ensamble raíz.
// La cantidad es la suma de productos a lo largo de todos los caminos raíz→pieza.
type Requirement struct {
	PartID        string          `json:"part_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	IsLeaf        bool            `json:"is_leaf"`        // sin BOM propio: hoja del grafo
	IncompleteBOM bool            `json:"incomplete_bom"` // ensamble sin BOM definido (resolución parcial)
}

// ResolutionResult resultado de expandir el BOM de una pieza.
// Requirements viene en orden topológico (padres antes que componentes),
// con las hojas ordenadas por PartID para comparación reproducible.
type ResolutionResult struct {
	PartID       string          `json:"part_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Requirements []Requirement   `json:"requirements"`
	Incomplete   bool            `json:"incomplete"` // true si alguna rama quedó sin expandir
}

// Leaves devuelve solo los requerimientos hoja (piezas a reservar/consumir).
func (r *ResolutionResult) Leaves() []Requirement {
	var leaves []Requirement
	for _, req := range r.Requirements {
		if req.IsLeaf {
			leaves = append(leaves, req)
		}
	}
	return leaves
}
