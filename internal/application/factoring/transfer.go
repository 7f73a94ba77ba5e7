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
	"github.com/shopspring/decimal"
)

// TransferUseCase transfiere facturas al factor.
type TransferUseCase struct {
	tx  ports.TxRunner
	log *logger.Logger
	now func() time.Time
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(tx ports.TxRunner, log *logger.Logger) *TransferUseCase {
	return &TransferUseCase{tx: tx, log: log, now: time.Now}
}

// WithClock fija el reloj usado para la fecha de los asientos.
func (uc *TransferUseCase) WithClock(now func() time.Time) *TransferUseCase {
	uc.now = now
	return uc
}

// TransferToFactor crea el asiento de transferencia por el residual de la factura.
// En modo automático se publica y concilia con la factura; en modo manual queda
// en borrador y la factura pasa a submitted_to_factor.
func (uc *TransferUseCase) TransferToFactor(ctx context.Context, companyID, invoiceID string) (*dto.TransferResponse, error) {
	var resp *dto.TransferResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		ic, err := loadInvoice(ctx, r, companyID, invoiceID)
		if err != nil {
			return err
		}
		inv := ic.invoice
		if inv.MoveType != entity.MoveOutInvoice || inv.State != entity.MovePosted {
			return fmt.Errorf("%w: solo se transfieren facturas de cliente publicadas", domain.ErrState)
		}
		if ic.links.Transfer != nil {
			return domain.ErrDuplicateTransfer
		}
		partner, err := loadPartner(ctx, r, inv.CommercialPartner())
		if err != nil {
			return err
		}

		journal := ic.journal
		if journal == nil && partner.FactorJournalID != "" {
			j, err := r.Journals.GetByID(ctx, partner.FactorJournalID)
			if err != nil {
				return fmt.Errorf("diario %s: %w", partner.FactorJournalID, err)
			}
			if j != nil && j.CompanyID == companyID {
				journal = j
				// El saldo del cliente solo cuenta facturas enrutadas por el diario.
				inv.PaymentModeJournalID = j.ID
				if err := r.Moves.UpdatePaymentState(ctx, inv); err != nil {
					return fmt.Errorf("fijar modo de pago de %s: %w", inv.Name, err)
				}
			}
		}
		if journal == nil {
			return &domain.ConfigError{Entity: "invoice", Field: "payment_mode_journal_id", Hint: "asignar un modo de pago con diario de factoring o un diario de factoring al cliente"}
		}
		if journal.Currency.Code != inv.CurrencyCode {
			return &domain.ConfigError{Entity: "journal", Field: "currency", Hint: fmt.Sprintf("el diario %s no opera en %s", journal.Code, inv.CurrencyCode)}
		}

		cur := journal.Currency
		gross := cur.Round(inv.Residual())
		if !cur.IsPositive(gross) {
			return fmt.Errorf("%w: la factura %s no tiene saldo pendiente", domain.ErrState, inv.Name)
		}

		bal, err := domfactoring.NewBalanceCalculator(r.Ledger).Compute(ctx, journal, partner)
		if err != nil {
			return err
		}
		cfg := domfactoring.TransferConfigFromJournal(journal, partner.ID, inv.Name, inv.InvoiceDueDate)
		lines, amounts, err := domfactoring.SplitTransfer(gross, cfg, domfactoring.CustomerState{
			Balance:              bal.CustomerCredit,
			CreditLimit:          partner.FactorCreditLimit,
			InitialHoldback:      bal.HoldbackBalance,
			InitialLimitHoldback: bal.LimitHoldbackBalance,
		})
		if err != nil {
			return err
		}
		counterpart, err := counterpartLine(inv, partner, gross, cur)
		if err != nil {
			return err
		}
		lines = append(lines, counterpart)

		entry, err := r.Moves.CreateEntry(ctx, repository.NewEntry{
			CompanyID:    companyID,
			JournalID:    journal.ID,
			PartnerID:    partner.ID,
			Name:         fmt.Sprintf("%s/%s", journal.Code, inv.Name),
			Date:         uc.today(),
			CurrencyCode: cur.Code,
			FactorRole:   entity.FactorRoleTransfer,
			OriginMoveID: inv.ID,
			Lines:        lines,
		})
		if err != nil {
			return fmt.Errorf("crear transferencia de %s: %w", inv.Name, err)
		}
		if !journal.IsManual() {
			if err := r.Moves.SetState(ctx, entry.ID, entity.MovePosted); err != nil {
				return fmt.Errorf("publicar transferencia de %s: %w", inv.Name, err)
			}
			if err := reconcileReceivables(ctx, r, entry, inv); err != nil {
				return err
			}
		}

		ic, err = refreshInvoice(ctx, r, companyID, inv.ID)
		if err != nil {
			return err
		}
		entry, err = r.Moves.GetByID(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("releer transferencia: %w", err)
		}
		resp = &dto.TransferResponse{
			Entry:         toEntryResponse(entry),
			Gross:         amounts.Gross,
			Fee:           amounts.Fee,
			FeeTax:        amounts.FeeTax,
			Holdback:      amounts.Holdback,
			LimitHoldback: amounts.LimitHoldback,
			Remaining:     amounts.Remaining,
			InvoiceState:  string(ic.invoice.PaymentStateWithFactor),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("transfer_id", resp.Entry.ID).
		Str("journal_id", resp.Entry.JournalID).
		Str("gross", resp.Gross.String()).
		Str("holdback", resp.Holdback.String()).
		Str("limit_holdback", resp.LimitHoldback.String()).
		Str("state", resp.InvoiceState).
		Msg("factura transferida al factor")
	return resp, nil
}

// ValidateTransfer publica una transferencia en borrador (modo manual) y la
// concilia con su factura.
func (uc *TransferUseCase) ValidateTransfer(ctx context.Context, companyID, transferID string) (*dto.InvoiceFactorStateResponse, error) {
	var resp *dto.InvoiceFactorStateResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		entry, err := r.Moves.GetByID(ctx, transferID)
		if err != nil {
			return fmt.Errorf("transferencia %s: %w", transferID, err)
		}
		if entry == nil || entry.FactorRole != entity.FactorRoleTransfer {
			return domain.ErrNotFound
		}
		if entry.CompanyID != companyID {
			return domain.ErrForbidden
		}
		if entry.State != entity.MoveDraft {
			return fmt.Errorf("%w: la transferencia %s no está en borrador", domain.ErrState, entry.Name)
		}
		inv, err := r.Moves.GetByID(ctx, entry.OriginMoveID)
		if err != nil {
			return fmt.Errorf("factura %s: %w", entry.OriginMoveID, err)
		}
		if inv == nil {
			return fmt.Errorf("%w: la transferencia %s no tiene factura de origen", domain.ErrDataIntegrity, entry.Name)
		}
		if err := r.Moves.SetState(ctx, entry.ID, entity.MovePosted); err != nil {
			return fmt.Errorf("publicar %s: %w", entry.Name, err)
		}
		if err := reconcileReceivables(ctx, r, entry, inv); err != nil {
			return err
		}
		ic, err := refreshInvoice(ctx, r, companyID, inv.ID)
		if err != nil {
			return err
		}
		resp = toStateResponse(ic)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("transfer_id", transferID).Str("invoice_id", resp.InvoiceID).Str("state", resp.PaymentStateWithFactor).Msg("transferencia validada")
	return resp, nil
}

func (uc *TransferUseCase) today() time.Time {
	return uc.now().UTC().Truncate(24 * time.Hour)
}

// counterpartLine haber en la cuenta a cobrar de la factura por el importe transferido.
func counterpartLine(inv *entity.Move, partner *entity.Partner, gross decimal.Decimal, cur entity.Currency) (entity.LedgerLineDraft, error) {
	account := ""
	for _, l := range inv.ReceivableLines() {
		if !l.Reconciled {
			account = l.AccountID
			break
		}
	}
	if account == "" {
		return entity.LedgerLineDraft{}, fmt.Errorf("%w: la factura %s no tiene líneas a cobrar abiertas", domain.ErrState, inv.Name)
	}
	return entity.LedgerLineDraft{
		Kind:         entity.LineCounterpart,
		AccountID:    account,
		AccountType:  entity.AccountReceivable,
		PartnerID:    partner.ID,
		Name:         inv.Name,
		Debit:        decimal.Zero,
		Credit:       gross,
		CurrencyCode: cur.Code,
		MaturityDate: inv.InvoiceDueDate,
	}, nil
}

func loadPartner(ctx context.Context, r ports.Repos, id string) (*entity.Partner, error) {
	p, err := r.Partners.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cliente %s: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("cliente %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}
