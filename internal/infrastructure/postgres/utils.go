package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
	codeNumericOutOfRange   = "22003"
)

// mapError traduce errores de pgx a los errores de dominio, conservando el original en la cadena.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
		case codeCheckViolation:
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, pgErr.ConstraintName)
		case codeInvalidText:
			// Un id que no es UUID no puede existir; igual que en el store en memoria.
			return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.Message)
		case codeNumericOutOfRange:
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, pgErr.Message)
		}
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}

// wrapf agrega contexto a un error de pgx ya traducido.
func wrapf(err error, format string, args ...any) error {
	mapped := mapError(err)
	if errors.Is(mapped, domain.ErrNotFound) {
		return mapped
	}
	return fmt.Errorf(format+": %w", append(args, mapped)...)
}
