package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AggregateFilter condiciones de la consulta agregada por cuenta.
type AggregateFilter struct {
	CompanyID  string
	AccountIDs []string
	PostedOnly bool
	PartnerID  string // "" = todos los clientes
	DateFrom   *time.Time
	DateTo     *time.Time
	// SettledExclusionJournalID si está definido, las facturas solo cuentan cuando
	// su modo de pago está fijado a ese diario y no han llegado a factor_paid.
	SettledExclusionJournalID string
}

// AccountAggregate totales de una cuenta.
type AccountAggregate struct {
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal
}

// LedgerQuery consultas de saldos sobre el libro contable (solo lectura).
type LedgerQuery interface {
	// AggregateByAccount devuelve debe/haber/saldo por cuenta; las cuentas sin
	// apuntes no aparecen en el mapa.
	AggregateByAccount(ctx context.Context, filter AggregateFilter) (map[string]AccountAggregate, error)
}
