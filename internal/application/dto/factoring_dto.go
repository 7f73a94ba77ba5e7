package dto

import "github.com/shopspring/decimal"

// MoveLineResponse apunte de un asiento generado.
type MoveLineResponse struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	PartnerID  string          `json:"partner_id,omitempty"`
	Name       string          `json:"name"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Reconciled bool            `json:"reconciled"`
}

// FactorEntryResponse asiento de transferencia o de pago del factor.
type FactorEntryResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	JournalID    string             `json:"journal_id"`
	Role         string             `json:"role"`  // transfer|payment
	State        string             `json:"state"` // draft|posted|cancel
	Date         string             `json:"date"`
	OriginMoveID string             `json:"origin_move_id"`
	Lines        []MoveLineResponse `json:"lines"`
}

// TransferResponse resultado de POST /api/factoring/invoices/:id/transfer.
type TransferResponse struct {
	Entry         FactorEntryResponse `json:"entry"`
	Gross         decimal.Decimal     `json:"gross"`
	Fee           decimal.Decimal     `json:"fee"`
	FeeTax        decimal.Decimal     `json:"fee_tax"`
	Holdback      decimal.Decimal     `json:"holdback"`
	LimitHoldback decimal.Decimal     `json:"limit_holdback"`
	Remaining     decimal.Decimal     `json:"remaining"`
	InvoiceState  string              `json:"payment_state_with_factor"`
}

// FactorPaidResponse resultado de POST /api/factoring/invoices/:id/factor-paid.
type FactorPaidResponse struct {
	Entry               FactorEntryResponse `json:"entry"`
	InvoiceHoldback     decimal.Decimal     `json:"invoice_holdback"`
	LimitHoldback       decimal.Decimal     `json:"limit_holdback"`
	LimitHoldbackToFree decimal.Decimal     `json:"limit_holdback_to_free"`
	HoldbackTotal       decimal.Decimal     `json:"holdback_total"`
	// LimitHoldbackReconciled la conciliación de las retenciones por límite pendientes se completó.
	LimitHoldbackReconciled bool   `json:"limit_holdback_reconciled"`
	InvoiceState            string `json:"payment_state_with_factor"`
}

// InvoiceFactorStateResponse estado derivado de una factura.
type InvoiceFactorStateResponse struct {
	InvoiceID              string `json:"invoice_id"`
	Name                   string `json:"name"`
	State                  string `json:"state"`
	PaymentState           string `json:"payment_state"`
	PaymentStateWithFactor string `json:"payment_state_with_factor"`
	PaymentModeJournalID   string `json:"payment_mode_journal_id,omitempty"`
	FactorTransferID       string `json:"factor_transfer_id,omitempty"`
	FactorPaymentID        string `json:"factor_payment_id,omitempty"`
}

// FactorBalanceResponse saldos de un diario de factoring (opcionalmente por cliente).
type FactorBalanceResponse struct {
	JournalID            string          `json:"journal_id"`
	PartnerID            string          `json:"partner_id,omitempty"`
	Currency             string          `json:"currency"`
	Debit                decimal.Decimal `json:"debit"`
	Credit               decimal.Decimal `json:"credit"`
	Balance              decimal.Decimal `json:"balance"`
	HoldbackBalance      decimal.Decimal `json:"holdback_balance"`
	LimitHoldbackBalance decimal.Decimal `json:"limit_holdback_balance"`
	CustomerCredit       decimal.Decimal `json:"customer_credit"`
}

// PartnerFactorSummaryResponse exposición del cliente sobre todos los diarios.
type PartnerFactorSummaryResponse struct {
	PartnerID         string                  `json:"partner_id"`
	FactorCreditLimit decimal.Decimal         `json:"factor_credit_limit"`
	FactorCredit      decimal.Decimal         `json:"factor_credit"`
	FactorHoldback    decimal.Decimal         `json:"factor_holdback"`
	Journals          []FactorBalanceResponse `json:"journals"`
}

// CreateJournalRequest body para POST /api/factoring/journals.
type CreateJournalRequest struct {
	Code                       string          `json:"code"`
	Name                       string          `json:"name"`
	CurrencyCode               string          `json:"currency"`
	FactorType                 string          `json:"factor_type"`
	ValidationMode             string          `json:"validation_mode"`
	FeePercent                 decimal.Decimal `json:"fee_percent"`
	HoldbackPercent            decimal.Decimal `json:"holdback_percent"`
	DefaultAccountID           string          `json:"default_account_id"`
	FeeAccountID               string          `json:"fee_account_id"`
	HoldbackAccountID          string          `json:"holdback_account_id"`
	LimitHoldbackAccountID     string          `json:"limit_holdback_account_id"`
	FeeTaxName                 string          `json:"fee_tax_name,omitempty"`
	FeeTaxPercent              decimal.Decimal `json:"fee_tax_percent"`
	FeeTaxAccountID            string          `json:"fee_tax_account_id,omitempty"`
	ReceivableAccountID        string          `json:"receivable_account_id,omitempty"`
	CurrentAccountID           string          `json:"current_account_id,omitempty"`
	FactoringHoldbackAccountID string          `json:"factoring_holdback_account_id,omitempty"`
	PendingRechargingAccountID string          `json:"pending_recharging_account_id,omitempty"`
	ExpenseAccountID           string          `json:"expense_account_id,omitempty"`
	ReceivableAccountIDs       []string        `json:"receivable_account_ids,omitempty"`
	Settings                   string          `json:"settings,omitempty"` // líneas clave:valor
}

// JournalResponse diario de factoring.
type JournalResponse struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Currency        string          `json:"currency"`
	FactorType      string          `json:"factor_type"`
	ValidationMode  string          `json:"validation_mode"`
	FeePercent      decimal.Decimal `json:"fee_percent"`
	HoldbackPercent decimal.Decimal `json:"holdback_percent"`
}
