package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FactorType proveedor de factoring asociado al diario.
type FactorType string

const (
	FactorTypeBPCE  FactorType = "bpce"
	FactorTypeEurof FactorType = "eurof"
)

// Label nombre comercial del proveedor.
func (t FactorType) Label() string {
	switch t {
	case FactorTypeBPCE:
		return "BPCE"
	case FactorTypeEurof:
		return "Eurofactor"
	default:
		return string(t)
	}
}

// ValidationMode modo de validación de la transferencia al factor.
type ValidationMode string

const (
	ValidationAutomatic ValidationMode = "automatic" // el asiento se publica y concilia al crearse
	ValidationManual    ValidationMode = "manual"    // queda en borrador hasta validarlo
)

// Tax impuesto de compra aplicado a la comisión del factor.
// AccountID es la cuenta de la línea de reparto de tipo "tax".
type Tax struct {
	ID        string
	Name      string
	Amount    decimal.Decimal // porcentaje
	AccountID string
}

// FactoringJournal diario de factoring con su configuración de comisiones y retenciones.
type FactoringJournal struct {
	ID             string
	CompanyID      string
	Code           string
	Name           string
	Currency       Currency
	FactorType     FactorType
	ValidationMode ValidationMode

	FeePercent      decimal.Decimal
	HoldbackPercent decimal.Decimal

	DefaultAccountID       string // cuenta del factor (liquidez adelantada)
	FeeAccountID           string
	HoldbackAccountID      string // retención proporcional
	LimitHoldbackAccountID string // retención por exceso de límite de crédito
	FeeTax                 *Tax

	// Cuentas del saldo de cesión (subrogación).
	ReceivableAccountID        string
	CurrentAccountID           string
	FactoringHoldbackAccountID string
	PendingRechargingAccountID string
	ExpenseAccountID           string
	// Cuentas adicionales cuyos asientos varios entran en la cesión.
	ReceivableAccountIDs []string

	SettingsText string
	Settings     ProviderSettings

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate comprueba los invariantes de configuración del diario.
func (j *FactoringJournal) Validate() error {
	if j.FeePercent.IsNegative() {
		return fmt.Errorf("diario %s: la comisión no puede ser negativa", j.Code)
	}
	if j.HoldbackPercent.IsNegative() {
		return fmt.Errorf("diario %s: la retención no puede ser negativa", j.Code)
	}
	if j.FeeTax != nil && j.FeeTax.Amount.IsNegative() {
		return fmt.Errorf("diario %s: el impuesto de la comisión no puede ser negativo", j.Code)
	}
	if j.ValidationMode != "" && j.ValidationMode != ValidationAutomatic && j.ValidationMode != ValidationManual {
		return fmt.Errorf("diario %s: modo de validación desconocido %q", j.Code, j.ValidationMode)
	}
	if _, err := ParseProviderSettings(j.SettingsText); err != nil {
		return fmt.Errorf("diario %s: %w", j.Code, err)
	}
	return nil
}

// FactorAccountIDs cuentas consultadas para el saldo del factor (sin vacíos).
func (j *FactoringJournal) FactorAccountIDs() []string {
	var ids []string
	for _, id := range []string{j.DefaultAccountID, j.HoldbackAccountID, j.LimitHoldbackAccountID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsManual indica si la transferencia requiere validación manual.
func (j *FactoringJournal) IsManual() bool {
	return j.ValidationMode == ValidationManual
}
