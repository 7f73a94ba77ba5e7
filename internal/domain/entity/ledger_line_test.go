package entity_test

import (
	"testing"
	"time"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(id, debit, credit string, day int) *entity.LedgerLine {
	return &entity.LedgerLine{
		ID:     id,
		Debit:  d(debit),
		Credit: d(credit),
		Date:   time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestAllocateResidual(t *testing.T) {
	cases := []struct {
		name  string
		cur   entity.Currency
		lines []*entity.LedgerLine
		full  bool
		want  map[string]string
	}{
		{
			name:  "cobro parcial deja el resto en la factura",
			cur:   entity.EUR,
			lines: []*entity.LedgerLine{line("inv", "1150", "0", 1), line("pay", "0", "500", 5)},
			want:  map[string]string{"inv": "650", "pay": "0"},
		},
		{
			name:  "grupo cuadrado",
			cur:   entity.EUR,
			lines: []*entity.LedgerLine{line("inv", "1150", "0", 1), line("pay", "0", "500", 5), line("tr", "0", "650", 6)},
			full:  true,
			want:  map[string]string{"inv": "0", "pay": "0", "tr": "0"},
		},
		{
			name:  "el cobro cubre primero la factura más antigua",
			cur:   entity.EUR,
			lines: []*entity.LedgerLine{line("b", "100", "0", 9), line("a", "100", "0", 2), line("pay", "0", "150", 10)},
			want:  map[string]string{"a": "0", "b": "50", "pay": "0"},
		},
		{
			name:  "exceso de cobro queda en el haber",
			cur:   entity.EUR,
			lines: []*entity.LedgerLine{line("inv", "100", "0", 1), line("pay", "0", "120", 2)},
			want:  map[string]string{"inv": "0", "pay": "-20"},
		},
		{
			name:  "milésimas en KWD",
			cur:   entity.CurrencyFor("KWD"),
			lines: []*entity.LedgerLine{line("inv", "10.005", "0", 1), line("pay", "0", "10.004", 2)},
			want:  map[string]string{"inv": "0.001", "pay": "0"},
		},
		{
			name:  "JPY redondea a la unidad",
			cur:   entity.CurrencyFor("JPY"),
			lines: []*entity.LedgerLine{line("inv", "1000", "0", 1), line("pay", "0", "999.6", 2)},
			full:  true,
			want:  map[string]string{"inv": "0", "pay": "0"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, full := entity.AllocateResidual(tc.lines, tc.cur)
			assert.Equal(t, tc.full, full)
			for id, want := range tc.want {
				assert.True(t, d(want).Equal(got[id]), "%s: got %s, want %s", id, got[id], want)
			}
		})
	}
}

func TestOpenBalance(t *testing.T) {
	open := line("a", "100", "0", 1)
	assert.True(t, d("100").Equal(open.OpenBalance()), "sin conciliar cuenta entero")

	partial := line("b", "100", "0", 1)
	partial.ReconcileGroupID = "g"
	partial.AmountResidual = d("40")
	assert.True(t, d("40").Equal(partial.OpenBalance()))

	full := line("c", "100", "0", 1)
	full.ReconcileGroupID = "g"
	full.Reconciled = true
	full.AmountResidual = d("100")
	assert.True(t, full.OpenBalance().IsZero())
}

func TestMoveResidual_SoloCuentasACobrar(t *testing.T) {
	rec := line("r", "1150", "0", 1)
	rec.AccountType = entity.AccountReceivable
	rec.ReconcileGroupID = "g"
	rec.AmountResidual = d("650")
	m := &entity.Move{Lines: []*entity.LedgerLine{rec, line("v", "0", "1150", 1)}}
	assert.True(t, d("650").Equal(m.Residual()), "got %s", m.Residual())
}

func TestOffsetting(t *testing.T) {
	assert.True(t, entity.Offsetting([]*entity.LedgerLine{line("a", "10", "0", 1), line("b", "0", "5", 1)}))
	assert.False(t, entity.Offsetting([]*entity.LedgerLine{line("a", "0", "10", 1), line("b", "0", "5", 1)}))
	assert.False(t, entity.Offsetting(nil))
}
