package factoring

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/application/ports"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	domfactoring "github.com/jhoicas/factoring-api/internal/domain/factoring"
	"github.com/jhoicas/factoring-api/internal/domain/repository"
	"github.com/jhoicas/factoring-api/pkg/logger"
)

// SettlementUseCase registra el pago del factor y libera las retenciones.
type SettlementUseCase struct {
	tx  ports.TxRunner
	log *logger.Logger
	now func() time.Time
}

// NewSettlementUseCase construye el caso de uso.
func NewSettlementUseCase(tx ports.TxRunner, log *logger.Logger) *SettlementUseCase {
	return &SettlementUseCase{tx: tx, log: log, now: time.Now}
}

// WithClock fija el reloj usado para la fecha de los asientos.
func (uc *SettlementUseCase) WithClock(now func() time.Time) *SettlementUseCase {
	uc.now = now
	return uc
}

// releaseScope datos que la segunda transacción necesita de la primera.
type releaseScope struct {
	journal *entity.FactoringJournal
	partner *entity.Partner
}

// FactorPaid libera la retención de la factura y la parte de la retención por
// límite que ya no hace falta. Corre en dos transacciones: la primera crea,
// publica y concilia el asiento de pago y marca la factura como factor_paid;
// la segunda, ya confirmada la primera, concilia las retenciones por límite
// abiertas del cliente si su saldo quedó a cero. Un fallo de la segunda se
// registra y no deshace la primera.
func (uc *SettlementUseCase) FactorPaid(ctx context.Context, companyID, invoiceID string) (*dto.FactorPaidResponse, error) {
	var (
		resp  *dto.FactorPaidResponse
		scope releaseScope
	)
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		ic, err := loadInvoice(ctx, r, companyID, invoiceID)
		if err != nil {
			return err
		}
		if ic.links.Payment != nil {
			return domain.ErrDuplicatePayment
		}
		if ic.derive() != entity.PaymentTransferredToFactor || ic.links.Transfer == nil {
			return domain.ErrNotTransferred
		}
		inv, transfer := ic.invoice, ic.links.Transfer

		journal, err := r.Journals.GetByID(ctx, transfer.JournalID)
		if err != nil {
			return fmt.Errorf("diario %s: %w", transfer.JournalID, err)
		}
		if journal == nil {
			return &domain.ConfigError{Entity: "transfer", Field: "journal_id", Hint: transfer.Name}
		}
		partner, err := loadPartner(ctx, r, inv.CommercialPartner())
		if err != nil {
			return err
		}

		var holdbackLines []*entity.LedgerLine
		for _, l := range transfer.Lines {
			if journal.HoldbackAccountID != "" && l.AccountID == journal.HoldbackAccountID &&
				journal.Currency.IsPositive(l.Debit) && !l.Reconciled {
				holdbackLines = append(holdbackLines, l)
			}
		}

		bal, err := domfactoring.NewBalanceCalculator(r.Ledger).Compute(ctx, journal, partner)
		if err != nil {
			return err
		}
		rel, err := domfactoring.ComputeHoldbackRelease(domfactoring.ReleaseInput{
			Currency:               journal.Currency,
			HoldbackLines:          holdbackLines,
			CustomerCredit:         bal.CustomerCredit,
			InvoiceTotal:           inv.AmountTotal,
			CreditLimit:            partner.FactorCreditLimit,
			InitialHoldback:        bal.HoldbackBalance,
			InitialLimitHoldback:   bal.LimitHoldbackBalance,
			DefaultAccountID:       journal.DefaultAccountID,
			LimitHoldbackAccountID: journal.LimitHoldbackAccountID,
			PartnerID:              partner.ID,
			Label:                  partner.Name,
		})
		if err != nil {
			return err
		}

		entry, err := r.Moves.CreateEntry(ctx, repository.NewEntry{
			CompanyID:    companyID,
			JournalID:    journal.ID,
			PartnerID:    partner.ID,
			Name:         fmt.Sprintf("%s/PAY/%s", journal.Code, inv.Name),
			Date:         uc.now().UTC().Truncate(24 * time.Hour),
			CurrencyCode: journal.Currency.Code,
			FactorRole:   entity.FactorRolePayment,
			OriginMoveID: inv.ID,
			Lines:        rel.Lines,
		})
		if err != nil {
			return fmt.Errorf("crear pago del factor de %s: %w", inv.Name, err)
		}
		if err := r.Moves.SetState(ctx, entry.ID, entity.MovePosted); err != nil {
			return fmt.Errorf("publicar pago del factor de %s: %w", inv.Name, err)
		}
		if err := reconcileDrafts(ctx, r, entry, rel.Lines); err != nil {
			return err
		}

		ic, err = refreshInvoice(ctx, r, companyID, inv.ID)
		if err != nil {
			return err
		}
		if ic.invoice.PaymentStateWithFactor != entity.PaymentFactorPaid {
			ic.invoice.PaymentStateWithFactor = entity.PaymentFactorPaid
			if err := r.Moves.UpdatePaymentState(ctx, ic.invoice); err != nil {
				return fmt.Errorf("marcar %s como pagada por el factor: %w", inv.Name, err)
			}
		}
		entry, err = r.Moves.GetByID(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("releer pago del factor: %w", err)
		}

		scope = releaseScope{journal: journal, partner: partner}
		resp = &dto.FactorPaidResponse{
			Entry:               toEntryResponse(entry),
			InvoiceHoldback:     rel.InvoiceHoldback,
			LimitHoldback:       rel.LimitHoldback,
			LimitHoldbackToFree: rel.LimitHoldbackToFree,
			HoldbackTotal:       rel.HoldbackTotal,
			InvoiceState:        string(entity.PaymentFactorPaid),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("payment_id", resp.Entry.ID).
		Str("invoice_holdback", resp.InvoiceHoldback.String()).
		Str("limit_holdback_to_free", resp.LimitHoldbackToFree.String()).
		Str("holdback_total", resp.HoldbackTotal.String()).
		Msg("retención liberada")

	done, err := uc.reconcileLimitHoldback(ctx, scope)
	if err != nil {
		uc.log.Warn().Err(err).
			Str("invoice_id", invoiceID).
			Str("journal_id", scope.journal.ID).
			Str("partner_id", scope.partner.ID).
			Msg("no se pudieron conciliar las retenciones por límite pendientes")
	}
	resp.LimitHoldbackReconciled = done
	return resp, nil
}

// reconcileLimitHoldback concilia las retenciones por límite abiertas del cliente
// cuando el saldo recalculado de esa cuenta es cero.
func (uc *SettlementUseCase) reconcileLimitHoldback(ctx context.Context, scope releaseScope) (bool, error) {
	j := scope.journal
	if j.LimitHoldbackAccountID == "" {
		return false, nil
	}
	done := false
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		bal, err := domfactoring.NewBalanceCalculator(r.Ledger).Compute(ctx, j, scope.partner)
		if err != nil {
			return err
		}
		if !j.Currency.IsZero(bal.LimitHoldbackBalance) {
			return nil
		}
		open, err := r.Moves.ListOpenLines(ctx, j.LimitHoldbackAccountID, scope.partner.ID)
		if err != nil {
			return fmt.Errorf("retenciones por límite abiertas: %w", err)
		}
		if len(open) < 2 {
			return nil
		}
		ids := make([]string, 0, len(open))
		for _, l := range open {
			ids = append(ids, l.ID)
		}
		if err := r.Reconciler.Reconcile(ctx, ids); err != nil {
			return fmt.Errorf("conciliar retenciones por límite: %w", err)
		}
		done = true
		return nil
	})
	return done, err
}
