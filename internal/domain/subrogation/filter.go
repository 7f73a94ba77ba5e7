// Package subrogation reglas de selección y ciclo de vida de las cesiones.
package subrogation

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

// Filter condiciones de elegibilidad de una línea para una cesión.
type Filter struct {
	CompanyID    string
	JournalID    string
	Cutoff       time.Time
	CurrencyCode string
	FactorType   entity.FactorType
	// RequirePartnerFlag exige que el cliente esté marcado para el proveedor.
	RequirePartnerFlag bool
	// ReceivableAccountIDs grupo de cuentas para los asientos varios.
	ReceivableAccountIDs []string
}

// FilterForJournal filtro de una cesión del diario hasta la fecha de corte.
func FilterForJournal(j *entity.FactoringJournal, cutoff time.Time, requireFlag bool) Filter {
	return Filter{
		CompanyID:            j.CompanyID,
		JournalID:            j.ID,
		Cutoff:               cutoff,
		CurrencyCode:         j.Currency.Code,
		FactorType:           j.FactorType,
		RequirePartnerFlag:   requireFlag,
		ReceivableAccountIDs: j.ReceivableAccountIDs,
	}
}

// String describe las condiciones para redirigir al usuario a la lista filtrada.
func (f Filter) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "company_id = %s\n", f.CompanyID)
	fmt.Fprintf(&b, "state = posted\n")
	fmt.Fprintf(&b, "date <= %s\n", f.Cutoff.Format("2006-01-02"))
	fmt.Fprintf(&b, "currency = %s\n", f.CurrencyCode)
	fmt.Fprintf(&b, "subrogation_id = vacío, conciliación total = no, skip_factor = no\n")
	fmt.Fprintf(&b, "partner.factor_journal_id = %s\n", f.JournalID)
	if f.RequirePartnerFlag {
		fmt.Fprintf(&b, "partner marcado para %s\n", f.FactorType.Label())
	}
	if len(f.ReceivableAccountIDs) > 0 {
		fmt.Fprintf(&b, "asientos varios: cuenta en [%s]\n", strings.Join(f.ReceivableAccountIDs, ", "))
	}
	return b.String()
}

// IsEligible evalúa la conjunción de reglas sobre una línea, su asiento y el
// cliente comercial. partner puede ser nil (línea sin cliente: no elegible).
func IsEligible(line *entity.LedgerLine, move *entity.Move, partner *entity.Partner, f Filter) bool {
	if line == nil || move == nil || partner == nil {
		return false
	}
	switch {
	case move.State != entity.MovePosted,
		line.SubrogationID != "",
		line.Reconciled,
		move.SkipFactor,
		move.CompanyID != f.CompanyID,
		move.Date.After(f.Cutoff),
		line.CurrencyCode != f.CurrencyCode,
		partner.FactorJournalID != f.JournalID:
		return false
	}
	if f.RequirePartnerFlag && !partner.EligibleFor(f.FactorType) {
		return false
	}
	if move.MoveType.IsCustomerDocument() {
		if line.AccountType != entity.AccountReceivable {
			return false
		}
		switch move.PaymentState {
		case entity.PaymentPaid, entity.PaymentInPayment, entity.PaymentReversed:
			return false
		}
		return move.PaymentStateWithFactor != entity.PaymentFactorPaid
	}
	for _, id := range f.ReceivableAccountIDs {
		if id == line.AccountID {
			return true
		}
	}
	return false
}
