package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Partner cliente con su configuración de factoring.
type Partner struct {
	ID                  string
	CompanyID           string
	Name                string
	Ref                 string // referencia interna del cliente
	CountryCode         string
	CommercialPartnerID string
	ReceivableAccountID string
	CompanyRegistry     string // SIREN/SIRET

	// FactorCreditLimit exposición máxima cubierta por el factor; cero = sin límite.
	FactorCreditLimit decimal.Decimal
	FactorJournalID   string
	// FactorFlags elegibilidad por proveedor (p. ej. bpce_factoring_balance).
	FactorFlags       map[FactorType]bool
	FactorBankAccount string
	FactorIdentifier  string // identificante asignado por el factor (Eurofactor)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCreditLimit indica si hay un límite de crédito configurado.
func (p *Partner) HasCreditLimit() bool {
	return p.FactorCreditLimit.IsPositive()
}

// EligibleFor indica si el cliente está marcado para el proveedor.
func (p *Partner) EligibleFor(t FactorType) bool {
	return p.FactorFlags != nil && p.FactorFlags[t]
}

// IsFrench cliente domiciliado en Francia.
func (p *Partner) IsFrench() bool {
	return p.CountryCode == "FR"
}
