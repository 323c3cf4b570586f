package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrProductNotFound    = errors.New("producto no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrUsernameTaken      = errors.New("el username ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrInvalidQuantity    = errors.New("cantidad inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrInvariantViolation = errors.New("invariante de stock violado")
	ErrStoreUnavailable   = errors.New("almacén de datos no disponible")
)

// InsufficientStockError lleva el disponible actual y lo solicitado para que
// el caller pueda reaccionar sin una segunda consulta.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", e.Available, e.Requested)
}

// Is permite hacer match con el sentinel ErrInsufficientStock vía errors.Is.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
