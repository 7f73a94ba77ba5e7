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

// BalanceUseCase consultas de saldos y del estado derivado de las facturas.
type BalanceUseCase struct {
	tx ports.TxRunner
}

// NewBalanceUseCase construye el caso de uso.
func NewBalanceUseCase(tx ports.TxRunner) *BalanceUseCase {
	return &BalanceUseCase{tx: tx}
}

// JournalBalance saldos del diario; con partnerID se restringe al cliente.
func (uc *BalanceUseCase) JournalBalance(ctx context.Context, companyID, journalID, partnerID string) (*dto.FactorBalanceResponse, error) {
	var resp *dto.FactorBalanceResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		j, err := loadJournal(ctx, r, companyID, journalID)
		if err != nil {
			return err
		}
		var partner *entity.Partner
		if partnerID != "" {
			if partner, err = loadPartner(ctx, r, partnerID); err != nil {
				return err
			}
			if partner.CompanyID != "" && partner.CompanyID != companyID {
				return domain.ErrForbidden
			}
		}
		b, err := domfactoring.NewBalanceCalculator(r.Ledger).Compute(ctx, j, partner)
		if err != nil {
			return err
		}
		out := toBalanceResponse(j, partnerID, b)
		resp = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// PartnerSummary exposición del cliente (factor_credit / factor_holdback) sobre
// todos los diarios de factoring de la empresa.
func (uc *BalanceUseCase) PartnerSummary(ctx context.Context, companyID, partnerID string) (*dto.PartnerFactorSummaryResponse, error) {
	var resp *dto.PartnerFactorSummaryResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		partner, err := loadPartner(ctx, r, partnerID)
		if err != nil {
			return err
		}
		if partner.CompanyID != "" && partner.CompanyID != companyID {
			return domain.ErrForbidden
		}
		journals, err := r.Journals.ListByCompany(ctx, companyID)
		if err != nil {
			return fmt.Errorf("diarios de la empresa: %w", err)
		}
		sum, err := domfactoring.NewBalanceCalculator(r.Ledger).PartnerSummary(ctx, journals, partner)
		if err != nil {
			return err
		}
		resp = &dto.PartnerFactorSummaryResponse{
			PartnerID:         partner.ID,
			FactorCreditLimit: partner.FactorCreditLimit,
			FactorCredit:      sum.FactorCredit,
			FactorHoldback:    sum.FactorHoldback,
			Journals:          make([]dto.FactorBalanceResponse, 0, len(journals)),
		}
		sort.Slice(journals, func(i, k int) bool { return journals[i].Code < journals[k].Code })
		for _, j := range journals {
			resp.Journals = append(resp.Journals, toBalanceResponse(j, partner.ID, sum.PerJournal[j.ID]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// InvoiceState estado derivado de la factura calculado sobre el libro actual, sin guardarlo.
func (uc *BalanceUseCase) InvoiceState(ctx context.Context, companyID, invoiceID string) (*dto.InvoiceFactorStateResponse, error) {
	var resp *dto.InvoiceFactorStateResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		ic, err := loadInvoice(ctx, r, companyID, invoiceID)
		if err != nil {
			return err
		}
		ic.derive()
		resp = toStateResponse(ic)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func loadJournal(ctx context.Context, r ports.Repos, companyID, journalID string) (*entity.FactoringJournal, error) {
	j, err := r.Journals.GetByID(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("diario %s: %w", journalID, err)
	}
	if j == nil {
		return nil, domain.ErrNotFound
	}
	if j.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return j, nil
}

func toBalanceResponse(j *entity.FactoringJournal, partnerID string, b domfactoring.FactorBalance) dto.FactorBalanceResponse {
	return dto.FactorBalanceResponse{
		JournalID:            j.ID,
		PartnerID:            partnerID,
		Currency:             j.Currency.Code,
		Debit:                b.Debit,
		Credit:               b.Credit,
		Balance:              b.Balance,
		HoldbackBalance:      b.HoldbackBalance,
		LimitHoldbackBalance: b.LimitHoldbackBalance,
		CustomerCredit:       b.CustomerCredit,
	}
}
