package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrUnavailable       = errors.New("almacenamiento no disponible")
)

// OpError etiqueta un error con la operación y la entidad que fallaron.
// Unwrap expone el error original para errors.Is / errors.As.
type OpError struct {
	Op     string // ej: "record_sale"
	Entity string // product, stock_receipt, sale
	ID     string
	Err    error
}

func (e *OpError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Entity, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Wrap construye un OpError; devuelve nil si err es nil.
func Wrap(op, entity, id string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Entity: entity, ID: id, Err: err}
}
