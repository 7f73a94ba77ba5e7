// Package factoring contiene el cálculo de saldos, retenciones y estados de pago
// de las facturas cedidas a un factor. Todas las funciones son puras salvo
// BalanceCalculator, que lee el libro a través de repository.LedgerQuery.
package factoring

import (
	"context"
	"fmt"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// FactorBalance saldos del factor para un diario (y opcionalmente un cliente).
type FactorBalance struct {
	Debit                decimal.Decimal
	Credit               decimal.Decimal
	Balance              decimal.Decimal
	HoldbackBalance      decimal.Decimal
	LimitHoldbackBalance decimal.Decimal
	// CustomerCredit debe de la cuenta a cobrar del cliente (cero sin cliente).
	CustomerCredit decimal.Decimal
}

// PartnerFactorSummary exposición del cliente agregada sobre todos los diarios.
type PartnerFactorSummary struct {
	FactorCredit   decimal.Decimal
	FactorHoldback decimal.Decimal
	PerJournal     map[string]FactorBalance
}

// BalanceCalculator calcula saldos en vivo; nunca cachea entre escrituras.
type BalanceCalculator struct {
	ledger repository.LedgerQuery
}

// NewBalanceCalculator construye el calculador sobre la consulta de libro dada.
func NewBalanceCalculator(ledger repository.LedgerQuery) *BalanceCalculator {
	return &BalanceCalculator{ledger: ledger}
}

// Compute devuelve los saldos del diario. Con partner != nil se restringe a
// sus apuntes y se calcula CustomerCredit sobre su cuenta a cobrar.
func (c *BalanceCalculator) Compute(ctx context.Context, journal *entity.FactoringJournal, partner *entity.Partner) (FactorBalance, error) {
	zero := FactorBalance{}
	if journal == nil {
		return zero, nil
	}
	accountIDs := journal.FactorAccountIDs()
	filter := repository.AggregateFilter{
		CompanyID:                 journal.CompanyID,
		PostedOnly:                true,
		SettledExclusionJournalID: journal.ID,
	}
	if partner != nil {
		filter.PartnerID = partner.ID
		if partner.ReceivableAccountID != "" {
			accountIDs = appendUnique(accountIDs, partner.ReceivableAccountID)
		}
	}
	if len(accountIDs) == 0 {
		return zero, nil
	}
	filter.AccountIDs = accountIDs

	aggs, err := c.ledger.AggregateByAccount(ctx, filter)
	if err != nil {
		return zero, fmt.Errorf("saldo del diario %s: %w", journal.Code, err)
	}

	cur := journal.Currency
	res := FactorBalance{}
	if a, ok := aggs[journal.DefaultAccountID]; ok && journal.DefaultAccountID != "" {
		res.Debit = cur.Round(a.Debit)
		res.Credit = cur.Round(a.Credit)
		res.Balance = cur.Round(a.Balance)
	}
	if a, ok := aggs[journal.HoldbackAccountID]; ok && journal.HoldbackAccountID != "" {
		res.HoldbackBalance = cur.Round(a.Balance)
	}
	if a, ok := aggs[journal.LimitHoldbackAccountID]; ok && journal.LimitHoldbackAccountID != "" {
		res.LimitHoldbackBalance = cur.Round(a.Balance)
	}
	if partner != nil && partner.ReceivableAccountID != "" {
		if a, ok := aggs[partner.ReceivableAccountID]; ok {
			res.CustomerCredit = cur.Round(a.Debit)
		}
	}
	return res, nil
}

// PartnerSummary agrega la exposición del cliente sobre los diarios dados.
// Cada diario produce su propio resultado; la suma se hace al final.
func (c *BalanceCalculator) PartnerSummary(ctx context.Context, journals []*entity.FactoringJournal, partner *entity.Partner) (PartnerFactorSummary, error) {
	per := make(map[string]FactorBalance, len(journals))
	for _, j := range journals {
		b, err := c.Compute(ctx, j, partner)
		if err != nil {
			return PartnerFactorSummary{}, err
		}
		per[j.ID] = b
	}
	return SumPartnerBalances(per), nil
}

// SumPartnerBalances pliega los saldos por diario en el resumen del cliente.
func SumPartnerBalances(per map[string]FactorBalance) PartnerFactorSummary {
	sum := PartnerFactorSummary{
		FactorCredit:   decimal.Zero,
		FactorHoldback: decimal.Zero,
		PerJournal:     per,
	}
	for _, b := range per {
		sum.FactorCredit = sum.FactorCredit.Add(b.CustomerCredit)
		sum.FactorHoldback = sum.FactorHoldback.Add(b.HoldbackBalance).Add(b.LimitHoldbackBalance)
	}
	return sum
}

func appendUnique(ids []string, id string) []string {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}
