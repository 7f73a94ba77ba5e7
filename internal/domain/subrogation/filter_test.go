package subrogation_test

import (
	"testing"
	"time"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/subrogation"
	"github.com/stretchr/testify/assert"
)

var cutoff = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func fixtures() (*entity.LedgerLine, *entity.Move, *entity.Partner, subrogation.Filter) {
	line := &entity.LedgerLine{ID: "l1", AccountID: "411", AccountType: entity.AccountReceivable, CurrencyCode: "EUR"}
	move := &entity.Move{
		ID: "m1", CompanyID: "c1", MoveType: entity.MoveOutInvoice, State: entity.MovePosted,
		PaymentState: entity.PaymentNotPaid, Date: cutoff.AddDate(0, 0, -3),
	}
	partner := &entity.Partner{ID: "p1", FactorJournalID: "j1", FactorFlags: map[entity.FactorType]bool{entity.FactorTypeBPCE: true}}
	f := subrogation.Filter{CompanyID: "c1", JournalID: "j1", Cutoff: cutoff, CurrencyCode: "EUR", FactorType: entity.FactorTypeBPCE, RequirePartnerFlag: true}
	return line, move, partner, f
}

func TestIsEligible_FacturaAbierta(t *testing.T) {
	line, move, partner, f := fixtures()
	assert.True(t, subrogation.IsEligible(line, move, partner, f))
}

func TestIsEligible_Exclusiones(t *testing.T) {
	cases := map[string]func(*entity.LedgerLine, *entity.Move, *entity.Partner, *subrogation.Filter){
		"borrador": func(_ *entity.LedgerLine, m *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			m.State = entity.MoveDraft
		},
		"ya cedida": func(l *entity.LedgerLine, _ *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			l.SubrogationID = "r0"
		},
		"conciliada": func(l *entity.LedgerLine, _ *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			l.Reconciled = true
		},
		"skip_factor": func(_ *entity.LedgerLine, m *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			m.SkipFactor = true
		},
		"otra empresa": func(_ *entity.LedgerLine, m *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			m.CompanyID = "c2"
		},
		"posterior al corte": func(_ *entity.LedgerLine, m *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			m.Date = cutoff.AddDate(0, 0, 1)
		},
		"otra moneda": func(l *entity.LedgerLine, _ *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			l.CurrencyCode = "USD"
		},
		"otro diario": func(_ *entity.LedgerLine, _ *entity.Move, p *entity.Partner, _ *subrogation.Filter) {
			p.FactorJournalID = "j2"
		},
		"cliente sin marca": func(_ *entity.LedgerLine, _ *entity.Move, p *entity.Partner, _ *subrogation.Filter) {
			p.FactorFlags = nil
		},
		"pagada": func(_ *entity.LedgerLine, m *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			m.PaymentState = entity.PaymentPaid
		},
		"pagada por el factor": func(_ *entity.LedgerLine, m *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			m.PaymentStateWithFactor = entity.PaymentFactorPaid
		},
		"línea no a cobrar": func(l *entity.LedgerLine, _ *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			l.AccountType = entity.AccountOther
		},
		"asiento fuera de grupo": func(_ *entity.LedgerLine, m *entity.Move, _ *entity.Partner, _ *subrogation.Filter) {
			m.MoveType = entity.MoveEntry
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			line, move, partner, f := fixtures()
			mutate(line, move, partner, &f)
			assert.False(t, subrogation.IsEligible(line, move, partner, f))
		})
	}
}

func TestIsEligible_SinMarcaSiNoSeExige(t *testing.T) {
	line, move, partner, f := fixtures()
	partner.FactorFlags = nil
	f.RequirePartnerFlag = false
	assert.True(t, subrogation.IsEligible(line, move, partner, f))
}

func TestIsEligible_AsientoVarioEnGrupoDeCuentas(t *testing.T) {
	line, move, partner, f := fixtures()
	move.MoveType = entity.MoveEntry
	line.AccountID = "4115EUR"
	f.ReceivableAccountIDs = []string{"4115EUR"}
	assert.True(t, subrogation.IsEligible(line, move, partner, f))
	assert.False(t, subrogation.IsEligible(line, move, nil, f), "sin cliente no es elegible")
}

func TestFilter_StringDescribeCondiciones(t *testing.T) {
	_, _, _, f := fixtures()
	s := f.String()
	assert.Contains(t, s, "date <= 2024-06-30")
	assert.Contains(t, s, "partner.factor_journal_id = j1")
	assert.Contains(t, s, "BPCE")
}
