package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoveType tipo de asiento.
type MoveType string

const (
	MoveOutInvoice MoveType = "out_invoice"
	MoveOutRefund  MoveType = "out_refund"
	MoveEntry      MoveType = "entry"
)

// IsCustomerDocument factura o abono de cliente.
func (t MoveType) IsCustomerDocument() bool {
	return t == MoveOutInvoice || t == MoveOutRefund
}

// MoveState estado contable del asiento.
type MoveState string

const (
	MoveDraft  MoveState = "draft"
	MovePosted MoveState = "posted"
	MoveCancel MoveState = "cancel"
)

// PaymentState estado de pago; incluye los estados propios del factoring.
type PaymentState string

const (
	PaymentNotPaid             PaymentState = "not_paid"
	PaymentToTransferToFactor  PaymentState = "to_transfer_to_factor"
	PaymentSubmittedToFactor   PaymentState = "submitted_to_factor"
	PaymentTransferredToFactor PaymentState = "transferred_to_factor"
	PaymentFactorPaid          PaymentState = "factor_paid"
	PaymentInPayment           PaymentState = "in_payment"
	PaymentPaid                PaymentState = "paid"
	PaymentPartial             PaymentState = "partial"
	PaymentReversed            PaymentState = "reversed"
	PaymentLegacy              PaymentState = "invoicing_legacy"
)

// FactorRole papel de un asiento generado por el factoring.
type FactorRole string

const (
	FactorRoleNone     FactorRole = ""
	FactorRoleTransfer FactorRole = "transfer" // transferencia al factor
	FactorRolePayment  FactorRole = "payment"  // pago del factor / liberación de retenciones
)

// Move asiento contable (factura, abono o asiento generado).
//
// La factura no guarda referencias a su transferencia ni a su pago: esos
// vínculos se derivan de la conciliación y de OriginMoveID de los asientos generados.
type Move struct {
	ID                     string
	CompanyID              string
	Name                   string
	MoveType               MoveType
	State                  MoveState
	PaymentState           PaymentState
	PaymentStateWithFactor PaymentState // proyección almacenada, ver factoring.DerivePaymentState
	PartnerID              string
	CommercialPartnerID    string
	ShippingPartnerID      string
	JournalID              string
	PaymentModeJournalID   string // diario fijo del modo de pago
	CurrencyCode           string
	AmountTotal            decimal.Decimal
	Date                   time.Time
	InvoiceDate            *time.Time
	InvoiceDueDate         *time.Time
	InvoiceOrigin          string
	SkipFactor             bool
	FactorRole             FactorRole
	OriginMoveID           string
	Lines                  []*LedgerLine
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsCancelled asiento cancelado.
func (m *Move) IsCancelled() bool { return m.State == MoveCancel }

// CommercialPartner devuelve la empresa comercial (o el propio partner).
func (m *Move) CommercialPartner() string {
	if m.CommercialPartnerID != "" {
		return m.CommercialPartnerID
	}
	return m.PartnerID
}

// ReceivableLines líneas de cuentas a cobrar del asiento.
func (m *Move) ReceivableLines() []*LedgerLine {
	var out []*LedgerLine
	for _, l := range m.Lines {
		if l.AccountType == AccountReceivable {
			out = append(out, l)
		}
	}
	return out
}

// Residual importe pendiente de las líneas a cobrar; una línea conciliada
// parcialmente solo aporta lo que su grupo deja abierto.
func (m *Move) Residual() decimal.Decimal {
	total := decimal.Zero
	for _, l := range m.ReceivableLines() {
		total = total.Add(l.OpenBalance())
	}
	return total
}

// LinesOnAccount líneas del asiento en la cuenta indicada.
func (m *Move) LinesOnAccount(accountID string) []*LedgerLine {
	var out []*LedgerLine
	for _, l := range m.Lines {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	return out
}
