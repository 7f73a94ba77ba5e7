// Package memory implementa los puertos de persistencia en memoria. Cada
// RunFactoring trabaja sobre el estado compartido y lo restaura desde una
// copia si la función devuelve error. Las transacciones se serializan.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/factoring-api/internal/application/ports"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

var _ ports.TxRunner = (*Store)(nil)

type statement struct {
	CompanyID string
	JournalID string
	Date      time.Time
}

type state struct {
	companies   map[string]*entity.Company
	journals    map[string]*entity.FactoringJournal
	partners    map[string]*entity.Partner
	moves       map[string]*entity.Move
	receipts    map[string]*entity.SubrogationReceipt
	attachments map[string]*entity.Attachment
	statements  []statement
}

func newState() *state {
	return &state{
		companies:   map[string]*entity.Company{},
		journals:    map[string]*entity.FactoringJournal{},
		partners:    map[string]*entity.Partner{},
		moves:       map[string]*entity.Move{},
		receipts:    map[string]*entity.SubrogationReceipt{},
		attachments: map[string]*entity.Attachment{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.companies {
		cp := *v
		c.companies[k] = &cp
	}
	for k, v := range s.journals {
		c.journals[k] = cloneJournal(v)
	}
	for k, v := range s.partners {
		c.partners[k] = clonePartner(v)
	}
	for k, v := range s.moves {
		c.moves[k] = cloneMove(v, true)
	}
	for k, v := range s.receipts {
		c.receipts[k] = cloneReceipt(v)
	}
	for k, v := range s.attachments {
		cp := *v
		cp.Data = append([]byte(nil), v.Data...)
		c.attachments[k] = &cp
	}
	c.statements = append([]statement(nil), s.statements...)
	return c
}

// line busca un apunte por ID junto a su asiento.
func (s *state) line(id string) (*entity.LedgerLine, *entity.Move) {
	for _, m := range s.moves {
		for _, l := range m.Lines {
			if l.ID == id {
				return l, m
			}
		}
	}
	return nil, nil
}

// sortedMoves asientos ordenados por fecha e ID.
func (s *state) sortedMoves() []*entity.Move {
	out := make([]*entity.Move, 0, len(s.moves))
	for _, m := range s.moves {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Store estado en memoria con transacciones por copia.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState(), now: time.Now}
}

// RunFactoring implementa ports.TxRunner.
func (s *Store) RunFactoring(ctx context.Context, fn func(r ports.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.data.clone()
	if err := fn(s.repos()); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) repos() ports.Repos {
	return ports.Repos{
		Ledger:      &ledgerRepo{s},
		Moves:       &moveRepo{s},
		Reconciler:  &reconciler{s},
		Journals:    &journalRepo{s},
		Partners:    &partnerRepo{s},
		Companies:   &companyRepo{s},
		Receipts:    &receiptRepo{s},
		Attachments: &attachmentRepo{s},
	}
}

// ── Carga de datos (tests y modo demo) ────────────────────────────────────────

// PutCompany guarda una empresa.
func (s *Store) PutCompany(c *entity.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.data.companies[c.ID] = &cp
}

// PutJournal guarda un diario.
func (s *Store) PutJournal(j *entity.FactoringJournal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.journals[j.ID] = cloneJournal(j)
}

// PutPartner guarda un cliente.
func (s *Store) PutPartner(p *entity.Partner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.partners[p.ID] = clonePartner(p)
}

// PutMove guarda un asiento con sus líneas; asigna IDs vacíos.
func (s *Store) PutMove(m *entity.Move) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	for _, l := range m.Lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.MoveID = m.ID
		if l.AmountCurrency.IsZero() {
			l.AmountCurrency = l.Debit.Sub(l.Credit)
		}
		if l.Date.IsZero() {
			l.Date = m.Date
		}
		if l.ReconcileGroupID == "" {
			l.AmountResidual = l.Balance()
		}
	}
	s.data.moves[m.ID] = cloneMove(m, true)
}

// PutStatement registra un extracto bancario del diario.
func (s *Store) PutStatement(companyID, journalID string, date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.statements = append(s.data.statements, statement{CompanyID: companyID, JournalID: journalID, Date: date})
}

// Move devuelve una copia del asiento (nil si no existe).
func (s *Store) Move(id string) *entity.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data.moves[id]
	if !ok {
		return nil
	}
	return cloneMove(m, true)
}

// Moves devuelve copias de todos los asientos ordenados por fecha.
func (s *Store) Moves() []*entity.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Move
	for _, m := range s.data.sortedMoves() {
		out = append(out, cloneMove(m, true))
	}
	return out
}

// SetClock fija el reloj usado en CreatedAt/UpdatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ── Copias ────────────────────────────────────────────────────────────────────

func cloneJournal(j *entity.FactoringJournal) *entity.FactoringJournal {
	cp := *j
	if j.FeeTax != nil {
		t := *j.FeeTax
		cp.FeeTax = &t
	}
	cp.ReceivableAccountIDs = append([]string(nil), j.ReceivableAccountIDs...)
	if j.Settings != nil {
		cp.Settings = entity.ProviderSettings{}
		for k, v := range j.Settings {
			cp.Settings[k] = v
		}
	}
	return &cp
}

func clonePartner(p *entity.Partner) *entity.Partner {
	cp := *p
	if p.FactorFlags != nil {
		cp.FactorFlags = make(map[entity.FactorType]bool, len(p.FactorFlags))
		for k, v := range p.FactorFlags {
			cp.FactorFlags[k] = v
		}
	}
	return &cp
}

func cloneLine(l *entity.LedgerLine) *entity.LedgerLine {
	cp := *l
	if l.MaturityDate != nil {
		t := *l.MaturityDate
		cp.MaturityDate = &t
	}
	return &cp
}

func cloneMove(m *entity.Move, withLines bool) *entity.Move {
	cp := *m
	cp.Lines = nil
	if withLines {
		for _, l := range m.Lines {
			cp.Lines = append(cp.Lines, cloneLine(l))
		}
	}
	return &cp
}

func cloneReceipt(r *entity.SubrogationReceipt) *entity.SubrogationReceipt {
	cp := *r
	cp.LineIDs = append([]string(nil), r.LineIDs...)
	cp.ItemIDs = append([]string(nil), r.ItemIDs...)
	return &cp
}
