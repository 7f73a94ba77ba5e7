package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.LedgerQuery    = (*ledgerRepo)(nil)
	_ repository.MoveRepository = (*moveRepo)(nil)
	_ repository.Reconciler     = (*reconciler)(nil)
)

type ledgerRepo struct{ s *Store }

// AggregateByAccount implementa repository.LedgerQuery.
func (r *ledgerRepo) AggregateByAccount(_ context.Context, f repository.AggregateFilter) (map[string]repository.AccountAggregate, error) {
	accounts := make(map[string]bool, len(f.AccountIDs))
	for _, id := range f.AccountIDs {
		accounts[id] = true
	}
	out := map[string]repository.AccountAggregate{}
	for _, m := range r.s.data.moves {
		if f.PostedOnly && m.State != entity.MovePosted {
			continue
		}
		if f.CompanyID != "" && m.CompanyID != f.CompanyID {
			continue
		}
		if f.DateFrom != nil && m.Date.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && m.Date.After(*f.DateTo) {
			continue
		}
		if f.SettledExclusionJournalID != "" && m.MoveType.IsCustomerDocument() {
			if m.PaymentModeJournalID != f.SettledExclusionJournalID || m.PaymentStateWithFactor == entity.PaymentFactorPaid {
				continue
			}
		}
		for _, l := range m.Lines {
			if !accounts[l.AccountID] || (f.PartnerID != "" && l.PartnerID != f.PartnerID) {
				continue
			}
			a := out[l.AccountID]
			a.Debit = a.Debit.Add(l.Debit)
			a.Credit = a.Credit.Add(l.Credit)
			a.Balance = a.Debit.Sub(a.Credit)
			out[l.AccountID] = a
		}
	}
	return out, nil
}

type moveRepo struct{ s *Store }

func (r *moveRepo) GetByID(_ context.Context, id string) (*entity.Move, error) {
	m, ok := r.s.data.moves[id]
	if !ok {
		return nil, nil
	}
	return cloneMove(m, true), nil
}

func (r *moveRepo) ListLinkedEntries(_ context.Context, moveID string) ([]*entity.Move, error) {
	src, ok := r.s.data.moves[moveID]
	if !ok {
		return nil, nil
	}
	groups := map[string]bool{}
	for _, l := range src.Lines {
		if l.ReconcileGroupID != "" {
			groups[l.ReconcileGroupID] = true
		}
	}
	var out []*entity.Move
	for _, m := range r.s.data.sortedMoves() {
		if m.ID == moveID {
			continue
		}
		linked := m.OriginMoveID == moveID
		for _, l := range m.Lines {
			if linked {
				break
			}
			linked = l.ReconcileGroupID != "" && groups[l.ReconcileGroupID]
		}
		if linked {
			out = append(out, cloneMove(m, true))
		}
	}
	return out, nil
}

// CreateEntry crea el asiento en borrador; las líneas conservan el orden de entry.Lines.
func (r *moveRepo) CreateEntry(_ context.Context, e repository.NewEntry) (*entity.Move, error) {
	now := r.s.now()
	m := &entity.Move{
		ID:                     uuid.New().String(),
		CompanyID:              e.CompanyID,
		Name:                   e.Name,
		MoveType:               entity.MoveEntry,
		State:                  entity.MoveDraft,
		PaymentState:           entity.PaymentNotPaid,
		PaymentStateWithFactor: entity.PaymentNotPaid,
		PartnerID:              e.PartnerID,
		CommercialPartnerID:    e.PartnerID,
		JournalID:              e.JournalID,
		CurrencyCode:           e.CurrencyCode,
		Date:                   e.Date,
		FactorRole:             e.FactorRole,
		OriginMoveID:           e.OriginMoveID,
		AmountTotal:            decimal.Zero,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	for _, d := range e.Lines {
		m.Lines = append(m.Lines, &entity.LedgerLine{
			ID:             uuid.New().String(),
			MoveID:         m.ID,
			AccountID:      d.AccountID,
			AccountType:    d.AccountType,
			PartnerID:      d.PartnerID,
			Name:           d.Name,
			Debit:          d.Debit,
			Credit:         d.Credit,
			AmountCurrency: d.Debit.Sub(d.Credit),
			AmountResidual: d.Debit.Sub(d.Credit),
			CurrencyCode:   d.CurrencyCode,
			Date:           e.Date,
			MaturityDate:   d.MaturityDate,
		})
		m.AmountTotal = m.AmountTotal.Add(d.Debit)
	}
	r.s.data.moves[m.ID] = m
	return cloneMove(m, true), nil
}

func (r *moveRepo) SetState(_ context.Context, moveID string, st entity.MoveState) error {
	m, ok := r.s.data.moves[moveID]
	if !ok {
		return fmt.Errorf("asiento %s: %w", moveID, domain.ErrNotFound)
	}
	m.State = st
	m.UpdatedAt = r.s.now()
	return nil
}

func (r *moveRepo) UpdatePaymentState(_ context.Context, move *entity.Move) error {
	m, ok := r.s.data.moves[move.ID]
	if !ok {
		return fmt.Errorf("asiento %s: %w", move.ID, domain.ErrNotFound)
	}
	m.PaymentState = move.PaymentState
	m.PaymentStateWithFactor = move.PaymentStateWithFactor
	m.PaymentModeJournalID = move.PaymentModeJournalID
	m.UpdatedAt = r.s.now()
	return nil
}

func (r *moveRepo) ListOpenLines(_ context.Context, accountID, partnerID string) ([]*entity.LedgerLine, error) {
	var out []*entity.LedgerLine
	for _, m := range r.s.data.sortedMoves() {
		if m.State != entity.MovePosted {
			continue
		}
		for _, l := range m.Lines {
			if l.AccountID == accountID && l.PartnerID == partnerID && !l.Reconciled {
				out = append(out, cloneLine(l))
			}
		}
	}
	return out, nil
}

func (r *moveRepo) ListCandidateLines(_ context.Context, f repository.CandidateFilter) ([]repository.CandidateLine, error) {
	var out []repository.CandidateLine
	for _, m := range r.s.data.sortedMoves() {
		if m.State != entity.MovePosted || m.CompanyID != f.CompanyID || m.Date.After(f.Cutoff) {
			continue
		}
		for _, l := range m.Lines {
			if l.SubrogationID != "" || l.Reconciled || (f.CurrencyCode != "" && l.CurrencyCode != f.CurrencyCode) {
				continue
			}
			out = append(out, repository.CandidateLine{Line: cloneLine(l), Move: cloneMove(m, false)})
		}
	}
	return out, nil
}

func (r *moveRepo) AssignSubrogation(_ context.Context, receiptID string, lineIDs []string) error {
	for _, id := range lineIDs {
		l, _ := r.s.data.line(id)
		if l == nil {
			return fmt.Errorf("línea %s: %w", id, domain.ErrNotFound)
		}
		l.SubrogationID = receiptID
	}
	return nil
}

func (r *moveRepo) ReleaseSubrogation(_ context.Context, receiptID string) error {
	for _, m := range r.s.data.moves {
		for _, l := range m.Lines {
			if l.SubrogationID == receiptID {
				l.SubrogationID = ""
			}
		}
	}
	return nil
}

func (r *moveRepo) ListBySubrogation(_ context.Context, receiptID string) ([]repository.CandidateLine, error) {
	var out []repository.CandidateLine
	for _, m := range r.s.data.sortedMoves() {
		for _, l := range m.Lines {
			if l.SubrogationID == receiptID {
				out = append(out, repository.CandidateLine{Line: cloneLine(l), Move: cloneMove(m, false)})
			}
		}
	}
	return out, nil
}

type reconciler struct{ s *Store }

// Reconcile agrupa las líneas (y los grupos a los que ya pertenecen).
func (r *reconciler) Reconcile(_ context.Context, lineIDs []string) error {
	if len(lineIDs) < 2 {
		return nil
	}
	members := map[string]*entity.LedgerLine{}
	groups := map[string]bool{}
	account := ""
	for _, id := range lineIDs {
		l, _ := r.s.data.line(id)
		if l == nil {
			return fmt.Errorf("línea %s: %w", id, domain.ErrNotFound)
		}
		if account == "" {
			account = l.AccountID
		}
		if l.AccountID != account {
			return fmt.Errorf("%w: solo se concilian líneas de la misma cuenta", domain.ErrInvalidInput)
		}
		members[l.ID] = l
		if l.ReconcileGroupID != "" {
			groups[l.ReconcileGroupID] = true
		}
	}
	for _, m := range r.s.data.moves {
		for _, l := range m.Lines {
			if l.ReconcileGroupID != "" && groups[l.ReconcileGroupID] {
				members[l.ID] = l
			}
		}
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	lines := make([]*entity.LedgerLine, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, members[id])
	}
	residuals, full := entity.AllocateResidual(lines, entity.CurrencyFor(lines[0].CurrencyCode))
	group := uuid.New().String()
	for _, l := range lines {
		l.ReconcileGroupID = group
		l.Reconciled = full
		l.AmountResidual = residuals[l.ID]
	}
	return nil
}

// RemoveReconciliation saca las líneas de sus grupos. El resto de cada grupo
// sigue conciliado entre sí mientras quede algo que compensar.
func (r *reconciler) RemoveReconciliation(_ context.Context, lineIDs []string) error {
	detach := map[string]bool{}
	groups := map[string]bool{}
	for _, id := range lineIDs {
		if l, _ := r.s.data.line(id); l != nil && l.ReconcileGroupID != "" {
			detach[id] = true
			groups[l.ReconcileGroupID] = true
		}
	}
	if len(groups) == 0 {
		return nil
	}
	rest := map[string][]*entity.LedgerLine{}
	for _, m := range r.s.data.moves {
		for _, l := range m.Lines {
			if !groups[l.ReconcileGroupID] {
				continue
			}
			if detach[l.ID] {
				unreconcile(l)
				continue
			}
			rest[l.ReconcileGroupID] = append(rest[l.ReconcileGroupID], l)
		}
	}
	for _, lines := range rest {
		if !entity.Offsetting(lines) {
			for _, l := range lines {
				unreconcile(l)
			}
			continue
		}
		sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
		residuals, full := entity.AllocateResidual(lines, entity.CurrencyFor(lines[0].CurrencyCode))
		for _, l := range lines {
			l.Reconciled = full
			l.AmountResidual = residuals[l.ID]
		}
	}
	return nil
}

func unreconcile(l *entity.LedgerLine) {
	l.ReconcileGroupID = ""
	l.Reconciled = false
	l.AmountResidual = l.Balance()
}
