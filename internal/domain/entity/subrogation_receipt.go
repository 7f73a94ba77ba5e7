package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptState ciclo de vida de la cesión: draft → confirmed → posted.
type ReceiptState string

const (
	ReceiptDraft     ReceiptState = "draft"
	ReceiptConfirmed ReceiptState = "confirmed"
	ReceiptPosted    ReceiptState = "posted"
)

// SubrogationReceipt lote de líneas a cobrar cedidas al factor y su archivo.
type SubrogationReceipt struct {
	ID              string
	CompanyID       string
	FactorJournalID string
	FactorType      FactorType
	CurrencyCode    string
	State           ReceiptState
	Date            *time.Time // fecha de confirmación
	TargetDate      time.Time  // las líneas tienen fecha <= TargetDate
	StatementDate   *time.Time // último extracto bancario considerado
	Warn            string
	Comment         string
	// RequirePartnerFlag solo clientes marcados para el proveedor.
	RequirePartnerFlag bool

	ExpenseUntaxedAmount decimal.Decimal
	ExpenseTaxAmount     decimal.Decimal
	HoldbackAmount       decimal.Decimal
	Balance              decimal.Decimal

	LineIDs []string // líneas asignadas (subrogation_id)
	ItemIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName "<Proveedor> <moneda> <fecha|Draft>".
func (r *SubrogationReceipt) DisplayName() string {
	suffix := "Draft"
	if r.Date != nil {
		suffix = r.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("%s %s %s", r.FactorType.Label(), r.CurrencyCode, suffix)
}

// IsDraft indica si la cesión sigue en borrador.
func (r *SubrogationReceipt) IsDraft() bool { return r.State == ReceiptDraft }
