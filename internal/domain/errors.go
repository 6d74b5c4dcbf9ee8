package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrCycle             = errors.New("el grafo BOM contiene un ciclo")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrOrderClosed       = errors.New("la orden ya está cerrada")
)
