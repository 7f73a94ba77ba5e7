package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType tipo interno de la cuenta contable.
type AccountType string

const (
	AccountReceivable AccountType = "receivable"
	AccountOther      AccountType = "other"
)

// LedgerLine apunte contable (debe/haber). No se modifica tras publicarse
// salvo por conciliación, reversión o cancelación.
type LedgerLine struct {
	ID               string
	MoveID           string
	AccountID        string
	AccountType      AccountType
	PartnerID        string
	Name             string
	Debit            decimal.Decimal
	Credit           decimal.Decimal
	AmountCurrency   decimal.Decimal
	CurrencyCode     string
	Date             time.Time
	MaturityDate     *time.Time
	ReconcileGroupID string          // grupo de conciliación ("" si abierta)
	Reconciled       bool            // conciliación total
	AmountResidual   decimal.Decimal // pendiente asignado por el grupo (debe - haber)
	SubrogationID    string          // cesión a la que se asignó la línea
}

// Balance debe - haber.
func (l *LedgerLine) Balance() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// OpenBalance saldo aún pendiente de la línea: completo si no está conciliada,
// cero si lo está totalmente y lo que le deja su grupo si es parcial.
func (l *LedgerLine) OpenBalance() decimal.Decimal {
	switch {
	case l.ReconcileGroupID == "":
		return l.Balance()
	case l.Reconciled:
		return decimal.Zero
	}
	return l.AmountResidual
}

// AllocateResidual reparte el saldo de un grupo de conciliación entre sus líneas.
// Las líneas del lado contrario al saldo quedan a cero; las del mismo lado se
// cubren por fecha y conserva el pendiente la última. full indica que el grupo
// cuadra a la precisión de la moneda.
func AllocateResidual(lines []*LedgerLine, cur Currency) (map[string]decimal.Decimal, bool) {
	out := make(map[string]decimal.Decimal, len(lines))
	sum := decimal.Zero
	for _, l := range lines {
		out[l.ID] = decimal.Zero
		sum = sum.Add(l.Balance())
	}
	if cur.IsZero(sum) {
		return out, true
	}
	sign := sum.Sign()
	matched := decimal.Zero
	var open []*LedgerLine
	for _, l := range lines {
		switch l.Balance().Sign() {
		case sign:
			open = append(open, l)
		case -sign:
			matched = matched.Add(l.Balance().Abs())
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		if !open[i].Date.Equal(open[j].Date) {
			return open[i].Date.Before(open[j].Date)
		}
		return open[i].ID < open[j].ID
	})
	for _, l := range open {
		amount := l.Balance().Abs()
		used := decimal.Min(amount, matched)
		matched = matched.Sub(used)
		rest := cur.Round(amount.Sub(used))
		if sign < 0 {
			rest = rest.Neg()
		}
		out[l.ID] = rest
	}
	return out, false
}

// Offsetting indica si entre las líneas hay importes de signo contrario que compensar.
func Offsetting(lines []*LedgerLine) bool {
	debit, credit := false, false
	for _, l := range lines {
		switch l.Balance().Sign() {
		case 1:
			debit = true
		case -1:
			credit = true
		}
	}
	return debit && credit
}

// LineKind papel de la línea dentro de un asiento generado.
type LineKind string

const (
	LineLiquidity       LineKind = "liquidity"
	LineFee             LineKind = "fee"
	LineFeeTax          LineKind = "fee_tax"
	LineHoldback        LineKind = "holdback"
	LineLimitHoldback   LineKind = "limit_holdback"
	LineCounterpart     LineKind = "counterpart"
	LineHoldbackRelease LineKind = "holdback_release"
)

// LedgerLineDraft línea preparada antes de crear el asiento.
type LedgerLineDraft struct {
	Kind         LineKind
	AccountID    string
	AccountType  AccountType
	PartnerID    string
	Name         string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	CurrencyCode string
	MaturityDate *time.Time
	// ReconcileWith líneas existentes con las que conciliar tras publicar.
	ReconcileWith []string
}

// Amount importe positivo de la línea (debe o haber).
func (d LedgerLineDraft) Amount() decimal.Decimal {
	if d.Debit.IsPositive() {
		return d.Debit
	}
	return d.Credit
}
