package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/repository"
)

var (
	_ repository.JournalRepository = (*journalRepo)(nil)
	_ repository.PartnerRepository = (*partnerRepo)(nil)
	_ repository.CompanyRepository = (*companyRepo)(nil)
)

type journalRepo struct{ s *Store }

func (r *journalRepo) Create(_ context.Context, j *entity.FactoringJournal) error {
	for _, other := range r.s.data.journals {
		if other.CompanyID == j.CompanyID && other.Currency.Code == j.Currency.Code && other.FactorType == j.FactorType {
			return fmt.Errorf("%w: ya existe un diario %s en %s para la empresa", domain.ErrDuplicate, j.FactorType, j.Currency.Code)
		}
	}
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	now := r.s.now()
	j.CreatedAt, j.UpdatedAt = now, now
	r.s.data.journals[j.ID] = cloneJournal(j)
	return nil
}

func (r *journalRepo) GetByID(_ context.Context, id string) (*entity.FactoringJournal, error) {
	j, ok := r.s.data.journals[id]
	if !ok {
		return nil, nil
	}
	return cloneJournal(j), nil
}

func (r *journalRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.FactoringJournal, error) {
	return r.list(func(j *entity.FactoringJournal) bool { return j.CompanyID == companyID }), nil
}

func (r *journalRepo) ListByFactorType(_ context.Context, companyID string, t entity.FactorType) ([]*entity.FactoringJournal, error) {
	return r.list(func(j *entity.FactoringJournal) bool { return j.CompanyID == companyID && j.FactorType == t }), nil
}

func (r *journalRepo) list(keep func(*entity.FactoringJournal) bool) []*entity.FactoringJournal {
	var out []*entity.FactoringJournal
	for _, j := range r.s.data.journals {
		if keep(j) {
			out = append(out, cloneJournal(j))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Code < out[k].Code })
	return out
}

type partnerRepo struct{ s *Store }

func (r *partnerRepo) GetByID(_ context.Context, id string) (*entity.Partner, error) {
	p, ok := r.s.data.partners[id]
	if !ok {
		return nil, nil
	}
	return clonePartner(p), nil
}

func (r *partnerRepo) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Partner, error) {
	out := make(map[string]*entity.Partner, len(ids))
	for _, id := range ids {
		if p, ok := r.s.data.partners[id]; ok {
			out[id] = clonePartner(p)
		}
	}
	return out, nil
}

func (r *partnerRepo) Update(_ context.Context, p *entity.Partner) error {
	if _, ok := r.s.data.partners[p.ID]; !ok {
		return fmt.Errorf("cliente %s: %w", p.ID, domain.ErrNotFound)
	}
	p.UpdatedAt = r.s.now()
	r.s.data.partners[p.ID] = clonePartner(p)
	return nil
}

type companyRepo struct{ s *Store }

func (r *companyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	c, ok := r.s.data.companies[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}
