package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Part representa una pieza del catálogo: materia prima o ensamble con BOM propio.
type Part struct {
	ID            string
	SKU           string
	Name          string
	UnitOfMeasure string // unidad, kg, m, l, etc.
	IsAssembly    bool   // true si la pieza se construye a partir de un BOM
	BOMVersion    int64  // incrementa en cada SetBOM; clave de caché del resolver
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BOMLine representa una línea del BOM: componente y cantidad por unidad de ensamble.
// Pertenece a la pieza padre; la cantidad siempre es > 0.
type BOMLine struct {
	ParentID    string
	ComponentID string
	Quantity    decimal.Decimal
	Substitutes []string // IDs de piezas sustitutas opcionales
}
