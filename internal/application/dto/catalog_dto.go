package dto

import "github.com/shopspring/decimal"

// UpsertPartRequest entrada para crear o actualizar una pieza del catálogo.
type UpsertPartRequest struct {
	ID            string `json:"id,omitempty"` // vacío = crear con ID nuevo
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	UnitOfMeasure string `json:"unit_of_measure"`
	IsAssembly    bool   `json:"is_assembly"`
}

// BOMLineInput línea propuesta para SetBOM.
type BOMLineInput struct {
	ComponentID string          `json:"component_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Substitutes []string        `json:"substitutes,omitempty"`
}
