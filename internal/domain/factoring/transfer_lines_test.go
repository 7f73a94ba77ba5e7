package factoring_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/factoring"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferConfig() factoring.TransferConfig {
	return factoring.TransferConfig{
		Currency:               entity.EUR,
		HoldbackPercent:        d("10"),
		DefaultAccountID:       "acc-factor",
		FeeAccountID:           "acc-fee",
		FeeTaxAccountID:        "acc-tax",
		HoldbackAccountID:      "acc-holdback",
		LimitHoldbackAccountID: "acc-limit",
		PartnerID:              "p1",
		Label:                  "INV/2024/0001",
	}
}

func byKind(lines []entity.LedgerLineDraft) map[entity.LineKind]entity.LedgerLineDraft {
	out := map[entity.LineKind]entity.LedgerLineDraft{}
	for _, l := range lines {
		out[l.Kind] = l
	}
	return out
}

func TestSplitTransfer_FacturaSinLimite(t *testing.T) {
	lines, amt, err := factoring.SplitTransfer(d("1150"), transferConfig(), factoring.CustomerState{Balance: d("1150")})
	require.NoError(t, err)

	k := byKind(lines)
	require.Len(t, lines, 2)
	assert.True(t, d("1035").Equal(k[entity.LineLiquidity].Debit))
	assert.True(t, d("115").Equal(k[entity.LineHoldback].Debit))
	assert.True(t, amt.LimitHoldback.IsZero())
	assert.Equal(t, "acc-factor", k[entity.LineLiquidity].AccountID)
	assert.Equal(t, "Factor Credit Transfer - INV/2024/0001", k[entity.LineLiquidity].Name)
	assert.Equal(t, "Factor 10 % Holdback - INV/2024/0001", k[entity.LineHoldback].Name)
}

func TestSplitTransfer_LimiteDeCredito800(t *testing.T) {
	cust := factoring.CustomerState{Balance: d("1150"), CreditLimit: d("800")}
	lines, amt, err := factoring.SplitTransfer(d("1150"), transferConfig(), cust)
	require.NoError(t, err)

	k := byKind(lines)
	assert.True(t, d("800").Equal(k[entity.LineLiquidity].Debit), "solo hasta el límite")
	assert.True(t, d("115").Equal(k[entity.LineHoldback].Debit))
	assert.True(t, d("235").Equal(k[entity.LineLimitHoldback].Debit))
	assert.True(t, d("235").Equal(amt.LimitHoldback))
}

func TestSplitTransfer_ComisionEImpuesto(t *testing.T) {
	cfg := transferConfig()
	cfg.FeePercent = d("0.5")
	cfg.FeeTaxRate = d("20")
	lines, amt, err := factoring.SplitTransfer(d("1000"), cfg, factoring.CustomerState{})
	require.NoError(t, err)

	k := byKind(lines)
	assert.True(t, d("5").Equal(amt.Fee))
	assert.True(t, d("1").Equal(amt.FeeTax))
	assert.True(t, d("100").Equal(amt.Holdback))
	assert.True(t, d("894").Equal(k[entity.LineLiquidity].Debit))
	assert.Equal(t, "acc-tax", k[entity.LineFeeTax].AccountID)
	assert.Equal(t, "Tax on Factor Fee - INV/2024/0001", k[entity.LineFeeTax].Name)
}

func TestSplitTransfer_DeficitAbsorbidoPorRetencionLimite(t *testing.T) {
	// La exposición supera en mucho el límite: la retención por límite se
	// recorta para que el factor no adelante más que A.
	cust := factoring.CustomerState{Balance: d("50000"), CreditLimit: d("100")}
	lines, amt, err := factoring.SplitTransfer(d("1150"), transferConfig(), cust)
	require.NoError(t, err)

	k := byKind(lines)
	_, hasLiquidity := k[entity.LineLiquidity]
	assert.False(t, hasLiquidity, "sin línea de liquidez cero")
	assert.True(t, amt.Remaining.IsZero())
	assert.True(t, d("1035").Equal(amt.LimitHoldback))
}

func TestSplitTransfer_CuentaFaltante(t *testing.T) {
	cfg := transferConfig()
	cfg.HoldbackAccountID = ""
	_, _, err := factoring.SplitTransfer(d("100"), cfg, factoring.CustomerState{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "holdback_account_id", cfgErr.Field)
}

func TestSplitTransfer_CuentaFaltanteConImporteCeroNoFalla(t *testing.T) {
	cfg := transferConfig()
	cfg.FeeAccountID = ""
	_, _, err := factoring.SplitTransfer(d("100"), cfg, factoring.CustomerState{})
	assert.NoError(t, err)
}

func TestSplitTransfer_RepartoExcesivo(t *testing.T) {
	cfg := transferConfig()
	cfg.FeePercent = d("95")
	cfg.FeeTaxRate = d("20")
	_, _, err := factoring.SplitTransfer(d("100"), cfg, factoring.CustomerState{})
	assert.True(t, errors.Is(err, domain.ErrDataIntegrity))
}

// La suma de las líneas es siempre A y ninguna línea es cero o negativa.
func TestSplitTransfer_PropiedadSumaYPositividad(t *testing.T) {
	amounts := []string{"0", "0.01", "0.03", "1", "9.99", "33.33", "100", "1150", "12345.67", "999999.99"}
	fees := []string{"0", "0.35", "1", "2.5"}
	holdbacks := []string{"0", "3", "10", "12.5", "20"}
	limits := []string{"0", "50", "800"}
	unit := entity.EUR.Unit()

	for _, a := range amounts {
		for _, fee := range fees {
			for _, hb := range holdbacks {
				for _, lim := range limits {
					name := fmt.Sprintf("A=%s fee=%s hb=%s lim=%s", a, fee, hb, lim)
					cfg := transferConfig()
					cfg.FeePercent = d(fee)
					cfg.FeeTaxRate = d("20")
					cfg.HoldbackPercent = d(hb)
					cust := factoring.CustomerState{Balance: d(a).Mul(d("2")), CreditLimit: d(lim)}

					lines, _, err := factoring.SplitTransfer(d(a), cfg, cust)
					require.NoError(t, err, name)
					sum := decimal.Zero
					for _, l := range lines {
						assert.True(t, l.Debit.IsPositive(), "%s: línea %s no positiva", name, l.Kind)
						assert.True(t, l.Credit.IsZero(), name)
						sum = sum.Add(l.Debit)
					}
					assert.True(t, sum.Sub(d(a)).Abs().LessThan(unit), "%s: suma %s", name, sum)
				}
			}
		}
	}
}
