// Package factoring orquesta las operaciones de factoring sobre facturas:
// transferencia al factor, pago del factor con liberación de retenciones,
// cancelación y consultas de saldo. Cada operación corre en RunFactoring.
package factoring

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/application/ports"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	domfactoring "github.com/jhoicas/factoring-api/internal/domain/factoring"
)

// invoiceContext factura con su diario de factoring y los vínculos derivados del libro.
type invoiceContext struct {
	invoice *entity.Move
	journal *entity.FactoringJournal // nil si el modo de pago no apunta a un diario de factoring
	links   domfactoring.FactorLinks
}

func loadInvoice(ctx context.Context, r ports.Repos, companyID, invoiceID string) (*invoiceContext, error) {
	inv, err := r.Moves.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("factura %s: %w", invoiceID, err)
	}
	if inv == nil || !inv.MoveType.IsCustomerDocument() {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	ic := &invoiceContext{invoice: inv}
	if inv.PaymentModeJournalID != "" {
		j, err := r.Journals.GetByID(ctx, inv.PaymentModeJournalID)
		if err != nil {
			return nil, fmt.Errorf("diario %s: %w", inv.PaymentModeJournalID, err)
		}
		if j != nil && j.CompanyID == companyID {
			ic.journal = j
		}
	}
	linked, err := r.Moves.ListLinkedEntries(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("asientos vinculados a %s: %w", inv.Name, err)
	}
	ic.links = domfactoring.ResolveFactorLinks(inv.ID, linked)
	return ic, nil
}

// derive recalcula payment_state y su proyección con factor sobre la copia cargada.
func (ic *invoiceContext) derive() entity.PaymentState {
	inv := ic.invoice
	inv.PaymentState = domfactoring.PaymentStateFromLines(inv)
	inv.PaymentStateWithFactor = domfactoring.DerivePaymentState(domfactoring.PaymentStateInput{
		MoveType:     inv.MoveType,
		MoveState:    inv.State,
		PaymentState: inv.PaymentState,
		FactorRoute:  ic.journal != nil,
		Transfer:     ic.links.TransferRef(),
		Payment:      ic.links.PaymentRef(),
	})
	return inv.PaymentStateWithFactor
}

// refreshInvoice recarga la factura, deriva sus estados y los guarda.
func refreshInvoice(ctx context.Context, r ports.Repos, companyID, invoiceID string) (*invoiceContext, error) {
	ic, err := loadInvoice(ctx, r, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	ic.derive()
	if err := r.Moves.UpdatePaymentState(ctx, ic.invoice); err != nil {
		return nil, fmt.Errorf("guardar estado de %s: %w", ic.invoice.Name, err)
	}
	return ic, nil
}

// reconcileReceivables concilia, cuenta por cuenta, las líneas a cobrar abiertas
// del asiento del factor con las de la factura.
func reconcileReceivables(ctx context.Context, r ports.Repos, entry, invoice *entity.Move) error {
	byAccount := map[string][]string{}
	counterpart := map[string]bool{}
	for _, l := range invoice.ReceivableLines() {
		if !l.Reconciled {
			byAccount[l.AccountID] = append(byAccount[l.AccountID], l.ID)
		}
	}
	for _, l := range entry.ReceivableLines() {
		if !l.Reconciled {
			byAccount[l.AccountID] = append(byAccount[l.AccountID], l.ID)
			counterpart[l.AccountID] = true
		}
	}
	accounts := make([]string, 0, len(counterpart))
	for acc := range counterpart {
		accounts = append(accounts, acc)
	}
	sort.Strings(accounts)
	for _, acc := range accounts {
		if len(byAccount[acc]) < 2 {
			continue
		}
		if err := r.Reconciler.Reconcile(ctx, byAccount[acc]); err != nil {
			return fmt.Errorf("conciliar %s con %s: %w", entry.Name, invoice.Name, err)
		}
	}
	return nil
}

// reconcileDrafts concilia cada línea creada con las indicadas en su borrador.
// CreateEntry conserva el orden de las líneas.
func reconcileDrafts(ctx context.Context, r ports.Repos, entry *entity.Move, drafts []entity.LedgerLineDraft) error {
	if len(entry.Lines) != len(drafts) {
		return fmt.Errorf("%w: el asiento %s tiene %d líneas y se prepararon %d", domain.ErrDataIntegrity, entry.Name, len(entry.Lines), len(drafts))
	}
	for i, d := range drafts {
		if len(d.ReconcileWith) == 0 {
			continue
		}
		ids := append([]string{entry.Lines[i].ID}, d.ReconcileWith...)
		if err := r.Reconciler.Reconcile(ctx, ids); err != nil {
			return fmt.Errorf("conciliar %s: %w", d.Name, err)
		}
	}
	return nil
}

func lineIDs(m *entity.Move) []string {
	ids := make([]string, 0, len(m.Lines))
	for _, l := range m.Lines {
		ids = append(ids, l.ID)
	}
	return ids
}

func toEntryResponse(m *entity.Move) dto.FactorEntryResponse {
	out := dto.FactorEntryResponse{
		ID:           m.ID,
		Name:         m.Name,
		JournalID:    m.JournalID,
		Role:         string(m.FactorRole),
		State:        string(m.State),
		Date:         m.Date.Format("2006-01-02"),
		OriginMoveID: m.OriginMoveID,
		Lines:        make([]dto.MoveLineResponse, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		out.Lines = append(out.Lines, dto.MoveLineResponse{
			ID:         l.ID,
			AccountID:  l.AccountID,
			PartnerID:  l.PartnerID,
			Name:       l.Name,
			Debit:      l.Debit,
			Credit:     l.Credit,
			Reconciled: l.Reconciled,
		})
	}
	return out
}

func toStateResponse(ic *invoiceContext) *dto.InvoiceFactorStateResponse {
	inv := ic.invoice
	out := &dto.InvoiceFactorStateResponse{
		InvoiceID:              inv.ID,
		Name:                   inv.Name,
		State:                  string(inv.State),
		PaymentState:           string(inv.PaymentState),
		PaymentStateWithFactor: string(inv.PaymentStateWithFactor),
		PaymentModeJournalID:   inv.PaymentModeJournalID,
	}
	if ic.links.Transfer != nil {
		out.FactorTransferID = ic.links.Transfer.ID
	}
	if ic.links.Payment != nil {
		out.FactorPaymentID = ic.links.Payment.ID
	}
	return out
}
