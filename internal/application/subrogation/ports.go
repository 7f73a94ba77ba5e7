package subrogation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptPDFGenerator genera el resumen imprimible (bordereau) de una cesión.
type ReceiptPDFGenerator interface {
	GenerateReceiptPDF(ctx context.Context, report *ReceiptReport) ([]byte, error)
}

// ReceiptReport datos del resumen de una cesión.
type ReceiptReport struct {
	CompanyName     string
	CompanyRegistry string // SIREN
	Title           string
	FactorLabel     string
	Currency        string
	State           string
	TargetDate      time.Time
	StatementDate   *time.Time
	Date            *time.Time

	Groups []ReportGroup

	Balance              decimal.Decimal
	HoldbackAmount       decimal.Decimal
	ExpenseUntaxedAmount decimal.Decimal
	ExpenseTaxAmount     decimal.Decimal
	Instruction          string
}

// ReportGroup bloque de líneas con su total (p. ej. Francia / exportación).
type ReportGroup struct {
	Label string
	Lines []ReportLine
	Total decimal.Decimal
}

// ReportLine línea cedida tal como aparece en el resumen.
type ReportLine struct {
	Partner  string
	Document string
	Type     string // F factura, A abono
	Date     time.Time
	DueDate  *time.Time
	Amount   decimal.Decimal
}
