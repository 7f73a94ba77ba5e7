package factoring

import (
	"fmt"
	"time"

	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// TransferConfig parámetros del diario usados en el reparto.
type TransferConfig struct {
	Currency               entity.Currency
	FeePercent             decimal.Decimal
	FeeTaxRate             decimal.Decimal
	HoldbackPercent        decimal.Decimal
	DefaultAccountID       string
	FeeAccountID           string
	FeeTaxAccountID        string
	HoldbackAccountID      string
	LimitHoldbackAccountID string
	PartnerID              string
	Label                  string // nombre de la línea de liquidez original
	MaturityDate           *time.Time
}

// TransferConfigFromJournal construye la configuración a partir del diario.
func TransferConfigFromJournal(j *entity.FactoringJournal, partnerID, label string, maturity *time.Time) TransferConfig {
	cfg := TransferConfig{
		Currency:               j.Currency,
		FeePercent:             j.FeePercent,
		HoldbackPercent:        j.HoldbackPercent,
		DefaultAccountID:       j.DefaultAccountID,
		FeeAccountID:           j.FeeAccountID,
		HoldbackAccountID:      j.HoldbackAccountID,
		LimitHoldbackAccountID: j.LimitHoldbackAccountID,
		PartnerID:              partnerID,
		Label:                  label,
		MaturityDate:           maturity,
	}
	if j.FeeTax != nil {
		cfg.FeeTaxRate = j.FeeTax.Amount
		cfg.FeeTaxAccountID = j.FeeTax.AccountID
	}
	return cfg
}

// CustomerState exposición del cliente antes de la transferencia.
type CustomerState struct {
	Balance              decimal.Decimal // customer_credit del calculador
	CreditLimit          decimal.Decimal // cero = sin límite
	InitialHoldback      decimal.Decimal
	InitialLimitHoldback decimal.Decimal
}

// TransferAmounts importes calculados del reparto.
type TransferAmounts struct {
	Gross         decimal.Decimal
	Fee           decimal.Decimal
	FeeTax        decimal.Decimal
	Holdback      decimal.Decimal
	LimitHoldback decimal.Decimal
	Remaining     decimal.Decimal
}

// SplitTransfer reparte el importe bruto A en liquidez, comisión, impuesto,
// retención y retención por límite. Solo se emiten líneas estrictamente
// positivas y la suma de los debes es exactamente A.
func SplitTransfer(gross decimal.Decimal, cfg TransferConfig, cust CustomerState) ([]entity.LedgerLineDraft, TransferAmounts, error) {
	cur := cfg.Currency
	if gross.IsNegative() {
		return nil, TransferAmounts{}, fmt.Errorf("%w: importe bruto negativo %s", domain.ErrInvalidInput, gross)
	}
	a := cur.Round(gross)
	amt := TransferAmounts{Gross: a}
	amt.Fee = cur.Round(a.Mul(cfg.FeePercent).Div(hundred))
	amt.FeeTax = cur.Round(amt.Fee.Mul(cfg.FeeTaxRate).Div(hundred))
	amt.Holdback = cur.Round(a.Mul(cfg.HoldbackPercent).Div(hundred))

	amt.LimitHoldback = decimal.Zero
	if cust.CreditLimit.IsPositive() {
		lh := cur.Round(cust.Balance.
			Sub(cust.CreditLimit).
			Sub(cust.InitialHoldback).
			Sub(amt.Holdback).
			Sub(cust.InitialLimitHoldback).
			Sub(amt.Fee).
			Sub(amt.FeeTax))
		if lh.IsPositive() {
			amt.LimitHoldback = lh
		}
	}

	amt.Remaining = cur.Round(a.Sub(amt.Fee).Sub(amt.FeeTax).Sub(amt.Holdback).Sub(amt.LimitHoldback))
	if amt.Remaining.IsNegative() {
		// el factor nunca adelanta más que A
		amt.LimitHoldback = amt.LimitHoldback.Add(amt.Remaining)
		amt.Remaining = decimal.Zero
		if amt.LimitHoldback.IsNegative() {
			return nil, amt, fmt.Errorf("%w: comisión, impuesto y retención (%s) superan el importe %s",
				domain.ErrDataIntegrity, amt.Fee.Add(amt.FeeTax).Add(amt.Holdback), a)
		}
	}

	type part struct {
		kind    entity.LineKind
		amount  decimal.Decimal
		account string
		field   string
		label   string
	}
	parts := []part{
		{entity.LineLiquidity, amt.Remaining, cfg.DefaultAccountID, "default_account_id", "Factor Credit Transfer"},
		{entity.LineFee, amt.Fee, cfg.FeeAccountID, "fee_account_id", "Factor Fee"},
		{entity.LineFeeTax, amt.FeeTax, cfg.FeeTaxAccountID, "fee_tax.account_id", "Tax on Factor Fee"},
		{entity.LineHoldback, amt.Holdback, cfg.HoldbackAccountID, "holdback_account_id",
			fmt.Sprintf("Factor %s %% Holdback", cfg.HoldbackPercent.String())},
		{entity.LineLimitHoldback, amt.LimitHoldback, cfg.LimitHoldbackAccountID, "limit_holdback_account_id", "Factor Limit Holdback"},
	}

	var lines []entity.LedgerLineDraft
	sum := decimal.Zero
	for _, p := range parts {
		if !cur.IsPositive(p.amount) {
			continue
		}
		if p.account == "" {
			return nil, amt, &domain.ConfigError{Entity: "journal", Field: p.field, Hint: "configure la cuenta en el diario de factoring"}
		}
		lines = append(lines, entity.LedgerLineDraft{
			Kind:         p.kind,
			AccountID:    p.account,
			AccountType:  entity.AccountOther,
			PartnerID:    cfg.PartnerID,
			Name:         fmt.Sprintf("%s - %s", p.label, cfg.Label),
			Debit:        p.amount,
			Credit:       decimal.Zero,
			CurrencyCode: cur.Code,
			MaturityDate: cfg.MaturityDate,
		})
		sum = sum.Add(p.amount)
	}
	if cur.Compare(sum, a) != 0 {
		return nil, amt, fmt.Errorf("%w: las líneas suman %s y el importe es %s", domain.ErrDataIntegrity, sum, a)
	}
	return lines, amt, nil
}
