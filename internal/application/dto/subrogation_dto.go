package dto

import "github.com/shopspring/decimal"

// CreateReceiptsRequest body para POST /api/subrogation/receipts.
type CreateReceiptsRequest struct {
	FactorType string `json:"factor_type"`
	// RequirePartnerFlag solo facturas de clientes marcados para el proveedor.
	RequirePartnerFlag bool `json:"require_partner_flag"`
}

// UpdateReceiptRequest body para PATCH /api/subrogation/receipts/:id.
type UpdateReceiptRequest struct {
	TargetDate           *string          `json:"target_date,omitempty"` // YYYY-MM-DD
	StatementDate        *string          `json:"statement_date,omitempty"`
	ExpenseUntaxedAmount *decimal.Decimal `json:"expense_untaxed_amount,omitempty"`
	ExpenseTaxAmount     *decimal.Decimal `json:"expense_tax_amount,omitempty"`
	HoldbackAmount       *decimal.Decimal `json:"holdback_amount,omitempty"`
	Comment              *string          `json:"comment,omitempty"`
}

// ReceiptResponse cesión en respuestas.
type ReceiptResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	FactorJournalID      string          `json:"factor_journal_id"`
	FactorType           string          `json:"factor_type"`
	Currency             string          `json:"currency"`
	State                string          `json:"state"`
	Date                 string          `json:"date,omitempty"`
	TargetDate           string          `json:"target_date"`
	StatementDate        string          `json:"statement_date,omitempty"`
	Warn                 string          `json:"warn,omitempty"`
	Comment              string          `json:"comment,omitempty"`
	ExpenseUntaxedAmount decimal.Decimal `json:"expense_untaxed_amount"`
	ExpenseTaxAmount     decimal.Decimal `json:"expense_tax_amount"`
	HoldbackAmount       decimal.Decimal `json:"holdback_amount"`
	Balance              decimal.Decimal `json:"balance"`
	LineCount            int             `json:"line_count"`
	ItemCount            int             `json:"item_count"`
	Instruction          string          `json:"instruction,omitempty"`
}

// ReceiptListResponse listado paginado de cesiones.
type ReceiptListResponse struct {
	Items []ReceiptResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CreateReceiptsResponse resultado de la creación: una cesión por diario
// y los diarios sin líneas elegibles.
type CreateReceiptsResponse struct {
	Receipts []ReceiptResponse `json:"receipts"`
	Warnings []string          `json:"warnings,omitempty"`
}

// ReceiptFileResponse archivo de cesión adjunto.
type ReceiptFileResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Checksum string `json:"checksum"`
	Location string `json:"location"`
	Data     string `json:"data"` // base64
}
