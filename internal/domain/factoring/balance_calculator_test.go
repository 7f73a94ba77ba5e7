package factoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/factoring"
	"github.com/jhoicas/factoring-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLedger devuelve agregados fijos y registra los filtros recibidos.
type stubLedger struct {
	aggs    map[string]repository.AccountAggregate
	err     error
	filters []repository.AggregateFilter
}

func (s *stubLedger) AggregateByAccount(_ context.Context, f repository.AggregateFilter) (map[string]repository.AccountAggregate, error) {
	s.filters = append(s.filters, f)
	if s.err != nil {
		return nil, s.err
	}
	out := map[string]repository.AccountAggregate{}
	for _, id := range f.AccountIDs {
		if a, ok := s.aggs[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func agg(debit, credit string) repository.AccountAggregate {
	return repository.AccountAggregate{Debit: d(debit), Credit: d(credit), Balance: d(debit).Sub(d(credit))}
}

func testJournal() *entity.FactoringJournal {
	return &entity.FactoringJournal{
		ID:                     "j1",
		CompanyID:              "c1",
		Code:                   "FACT",
		Currency:               entity.EUR,
		HoldbackPercent:        d("10"),
		DefaultAccountID:       "acc-factor",
		HoldbackAccountID:      "acc-holdback",
		LimitHoldbackAccountID: "acc-limit",
	}
}

func TestBalanceCalculator_SinCuentasDevuelveCeroSinConsultar(t *testing.T) {
	ledger := &stubLedger{}
	calc := factoring.NewBalanceCalculator(ledger)

	b, err := calc.Compute(context.Background(), &entity.FactoringJournal{ID: "j0", Currency: entity.EUR}, nil)
	require.NoError(t, err)
	assert.True(t, b.Balance.IsZero())
	assert.True(t, b.HoldbackBalance.IsZero())
	assert.True(t, b.LimitHoldbackBalance.IsZero())
	assert.True(t, b.CustomerCredit.IsZero())
	assert.Empty(t, ledger.filters, "no debe consultar el libro sin cuentas")
}

func TestBalanceCalculator_SaldosPorCuenta(t *testing.T) {
	ledger := &stubLedger{aggs: map[string]repository.AccountAggregate{
		"acc-factor":   agg("1035.004", "0"),
		"acc-holdback": agg("115", "0"),
		"acc-limit":    agg("235", "235"),
		"acc-recv":     agg("1150", "1150"),
	}}
	calc := factoring.NewBalanceCalculator(ledger)
	partner := &entity.Partner{ID: "p1", ReceivableAccountID: "acc-recv"}

	b, err := calc.Compute(context.Background(), testJournal(), partner)
	require.NoError(t, err)
	assert.True(t, d("1035").Equal(b.Debit), "redondeo a la moneda al devolver: %s", b.Debit)
	assert.True(t, d("1035").Equal(b.Balance))
	assert.True(t, d("115").Equal(b.HoldbackBalance))
	assert.True(t, b.LimitHoldbackBalance.IsZero())
	assert.True(t, d("1150").Equal(b.CustomerCredit), "customer_credit es el debe de la cuenta a cobrar")

	require.Len(t, ledger.filters, 1)
	f := ledger.filters[0]
	assert.True(t, f.PostedOnly)
	assert.Equal(t, "p1", f.PartnerID)
	assert.Equal(t, "j1", f.SettledExclusionJournalID)
	assert.ElementsMatch(t, []string{"acc-factor", "acc-holdback", "acc-limit", "acc-recv"}, f.AccountIDs)
}

func TestBalanceCalculator_SinClienteNoHayCustomerCredit(t *testing.T) {
	ledger := &stubLedger{aggs: map[string]repository.AccountAggregate{"acc-factor": agg("10", "4")}}
	b, err := factoring.NewBalanceCalculator(ledger).Compute(context.Background(), testJournal(), nil)
	require.NoError(t, err)
	assert.True(t, d("6").Equal(b.Balance))
	assert.True(t, b.CustomerCredit.IsZero())
	assert.Empty(t, ledger.filters[0].PartnerID)
}

func TestBalanceCalculator_PropagaError(t *testing.T) {
	ledger := &stubLedger{err: errors.New("db caída")}
	_, err := factoring.NewBalanceCalculator(ledger).Compute(context.Background(), testJournal(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db caída")
}

func TestPartnerSummary_SumaPorDiario(t *testing.T) {
	ledger := &stubLedger{aggs: map[string]repository.AccountAggregate{
		"acc-holdback": agg("115", "0"),
		"acc-limit":    agg("235", "0"),
		"acc-recv":     agg("1150", "0"),
		"acc-h2":       agg("20", "0"),
	}}
	j2 := &entity.FactoringJournal{ID: "j2", Code: "F2", Currency: entity.EUR, HoldbackAccountID: "acc-h2"}
	partner := &entity.Partner{ID: "p1", ReceivableAccountID: "acc-recv"}

	sum, err := factoring.NewBalanceCalculator(ledger).PartnerSummary(context.Background(), []*entity.FactoringJournal{testJournal(), j2}, partner)
	require.NoError(t, err)
	assert.Len(t, sum.PerJournal, 2)
	assert.True(t, d("2300").Equal(sum.FactorCredit), "cada diario ve la cuenta a cobrar del cliente")
	assert.True(t, d("370").Equal(sum.FactorHoldback))
}
