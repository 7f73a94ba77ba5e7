package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Tipos de error del motor de factoring. Ninguno se reintenta automáticamente.
	ErrConfiguration = errors.New("configuración de factoring incompleta")
	ErrState         = errors.New("operación no permitida en el estado actual")
	ErrValidation    = errors.New("datos inválidos para el archivo de cesión")
	ErrDataIntegrity = errors.New("incoherencia de importes")
)

// Errores específicos; envuelven uno de los tipos anteriores.
var (
	ErrDuplicatePayment    = fmt.Errorf("%w: la factura ya tiene un asiento de pago del factor", ErrDuplicate)
	ErrDuplicateTransfer   = fmt.Errorf("%w: la factura ya tiene una transferencia al factor", ErrDuplicate)
	ErrDuplicateDraftBatch = fmt.Errorf("%w: ya existe una cesión en borrador para este diario y empresa", ErrDuplicate)
	ErrNotTransferred      = fmt.Errorf("%w: la factura debe estar transferida al factor", ErrState)
)

// ConfigError indica qué dato de configuración falta y dónde corregirlo.
type ConfigError struct {
	Entity string // journal, partner, company...
	Field  string
	Hint   string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: falta %s", e.Entity, e.Field)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// ValidationError acumula todos los problemas detectados antes de fallar,
// para que el usuario pueda corregirlos en una sola pasada.
type ValidationError struct {
	Problems []string
}

// Add registra un problema (ignora cadenas vacías).
func (e *ValidationError) Add(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if strings.TrimSpace(msg) == "" {
		return
	}
	e.Problems = append(e.Problems, msg)
}

// HasProblems indica si se registró al menos un problema.
func (e *ValidationError) HasProblems() bool { return e != nil && len(e.Problems) > 0 }

// Report devuelve el informe multilínea que se guarda en el lote.
func (e *ValidationError) Report() string {
	if e == nil {
		return ""
	}
	return strings.Join(e.Problems, "\n")
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%d):\n%s", ErrValidation.Error(), len(e.Problems), e.Report())
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// OrNil devuelve el error solo si hay problemas acumulados.
func (e *ValidationError) OrNil() error {
	if e.HasProblems() {
		return e
	}
	return nil
}

// NoEligibleItemsError se devuelve cuando la selección de un lote no trae líneas.
// Filter describe el dominio aplicado para que el llamador redirija al usuario
// a la lista de facturas filtrada con las mismas condiciones.
type NoEligibleItemsError struct {
	ReceiptID string
	Filter    string
}

func (e *NoEligibleItemsError) Error() string {
	return fmt.Sprintf("la selección no devuelve ninguna línea elegible para la cesión %s; condiciones:\n%s", e.ReceiptID, e.Filter)
}

func (e *NoEligibleItemsError) Unwrap() error { return ErrState }
