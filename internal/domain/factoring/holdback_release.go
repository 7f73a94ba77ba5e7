package factoring

import (
	"fmt"

	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ReleaseInput datos para liberar las retenciones de una factura pagada por el factor.
type ReleaseInput struct {
	Currency entity.Currency
	// HoldbackLines líneas de retención (debe) sin conciliar de la transferencia.
	HoldbackLines []*entity.LedgerLine
	// CustomerCredit exposición del cliente incluyendo esta factura.
	CustomerCredit       decimal.Decimal
	InvoiceTotal         decimal.Decimal
	CreditLimit          decimal.Decimal // cero = sin límite
	InitialHoldback      decimal.Decimal
	InitialLimitHoldback decimal.Decimal

	DefaultAccountID       string
	LimitHoldbackAccountID string
	PartnerID              string
	Label                  string // nombre del cliente
}

// Release resultado del cálculo de liberación.
type Release struct {
	InvoiceHoldback     decimal.Decimal
	LimitHoldback       decimal.Decimal
	LimitHoldbackToFree decimal.Decimal
	HoldbackTotal       decimal.Decimal
	Lines               []entity.LedgerLineDraft
}

// ComputeHoldbackRelease calcula la retención a liberar y prepara el asiento
// de pago: un debe por el total en la cuenta del factor, un haber por cada
// línea de retención (a conciliar con ella) y, si procede, un haber en la
// cuenta de retención por límite.
func ComputeHoldbackRelease(in ReleaseInput) (Release, error) {
	cur := in.Currency
	rel := Release{InvoiceHoldback: decimal.Zero, LimitHoldback: decimal.Zero, LimitHoldbackToFree: decimal.Zero}
	for _, l := range in.HoldbackLines {
		rel.InvoiceHoldback = rel.InvoiceHoldback.Add(l.Debit)
	}
	rel.InvoiceHoldback = cur.Round(rel.InvoiceHoldback)

	customerBalance := in.CustomerCredit.Sub(in.InvoiceTotal)
	if in.CreditLimit.IsPositive() {
		lh := cur.Round(customerBalance.Sub(in.CreditLimit).Sub(in.InitialHoldback).Add(rel.InvoiceHoldback))
		if cur.IsPositive(lh) {
			rel.LimitHoldback = lh
		}
	}
	if in.InitialLimitHoldback.GreaterThan(rel.LimitHoldback) {
		rel.LimitHoldbackToFree = cur.Round(in.InitialLimitHoldback.Sub(rel.LimitHoldback))
	}
	rel.HoldbackTotal = rel.InvoiceHoldback
	if cur.IsPositive(rel.LimitHoldbackToFree) {
		rel.HoldbackTotal = rel.InvoiceHoldback.Add(rel.LimitHoldbackToFree)
	}

	name := fmt.Sprintf("Payment - %s", in.Label)
	if in.DefaultAccountID == "" {
		return rel, &domain.ConfigError{Entity: "journal", Field: "default_account_id"}
	}
	rel.Lines = append(rel.Lines, entity.LedgerLineDraft{
		Kind:         entity.LineHoldbackRelease,
		AccountID:    in.DefaultAccountID,
		AccountType:  entity.AccountOther,
		PartnerID:    in.PartnerID,
		Name:         name,
		Debit:        rel.HoldbackTotal,
		Credit:       decimal.Zero,
		CurrencyCode: cur.Code,
	})
	if cur.IsPositive(rel.LimitHoldbackToFree) {
		if in.LimitHoldbackAccountID == "" {
			return rel, &domain.ConfigError{Entity: "journal", Field: "limit_holdback_account_id"}
		}
		rel.Lines = append(rel.Lines, entity.LedgerLineDraft{
			Kind:         entity.LineLimitHoldback,
			AccountID:    in.LimitHoldbackAccountID,
			AccountType:  entity.AccountOther,
			PartnerID:    in.PartnerID,
			Name:         name,
			Debit:        decimal.Zero,
			Credit:       rel.LimitHoldbackToFree,
			CurrencyCode: cur.Code,
		})
	}
	for _, l := range in.HoldbackLines {
		rel.Lines = append(rel.Lines, entity.LedgerLineDraft{
			Kind:          entity.LineHoldback,
			AccountID:     l.AccountID,
			AccountType:   entity.AccountOther,
			PartnerID:     in.PartnerID,
			Name:          name,
			Debit:         decimal.Zero,
			Credit:        l.Debit,
			CurrencyCode:  cur.Code,
			ReconcileWith: []string{l.ID},
		})
	}

	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range rel.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	if cur.Compare(debit, credit) != 0 {
		return rel, fmt.Errorf("%w: asiento de liberación descuadrado (debe %s, haber %s)", domain.ErrDataIntegrity, debit, credit)
	}
	return rel, nil
}
