package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/repository"
)

var _ repository.PartnerRepository = (*PartnerRepo)(nil)

const partnerColumns = `id, company_id, name, ref, country_code, commercial_partner_id, receivable_account_id,
	company_registry, factor_credit_limit, factor_journal_id, factor_flags, factor_bank_account, factor_identifier,
	created_at, updated_at`

// PartnerRepo clientes con su configuración de factoring (usable con pool o tx).
type PartnerRepo struct {
	q Querier
}

// NewPartnerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPartnerRepository(q Querier) *PartnerRepo {
	return &PartnerRepo{q: q}
}

// GetByID obtiene un cliente por ID.
func (r *PartnerRepo) GetByID(ctx context.Context, id string) (*entity.Partner, error) {
	p, err := scanPartner(r.q.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}
	return p, nil
}

// GetByIDs clientes indexados por ID; los inexistentes no aparecen.
func (r *PartnerRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Partner, error) {
	out := make(map[string]*entity.Partner, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// Update guarda la configuración de factoring del cliente.
func (r *PartnerRepo) Update(ctx context.Context, p *entity.Partner) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE partners
		SET factor_credit_limit = $2, factor_journal_id = $3, factor_flags = $4,
		    factor_bank_account = $5, factor_identifier = $6, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.FactorCreditLimit, p.FactorJournalID, flagsToArray(p.FactorFlags), p.FactorBankAccount, p.FactorIdentifier,
	)
	if err != nil {
		return fmt.Errorf("update partner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cliente %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func scanPartner(row pgx.Row) (*entity.Partner, error) {
	var (
		p     entity.Partner
		flags []string
	)
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.Ref, &p.CountryCode, &p.CommercialPartnerID, &p.ReceivableAccountID,
		&p.CompanyRegistry, &p.FactorCreditLimit, &p.FactorJournalID, &flags, &p.FactorBankAccount, &p.FactorIdentifier,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(flags) > 0 {
		p.FactorFlags = make(map[entity.FactorType]bool, len(flags))
		for _, f := range flags {
			p.FactorFlags[entity.FactorType(f)] = true
		}
	}
	return &p, nil
}

// flagsToArray proveedores marcados, ordenados para que la columna sea estable.
func flagsToArray(flags map[entity.FactorType]bool) []string {
	out := []string{}
	for t, on := range flags {
		if on {
			out = append(out, string(t))
		}
	}
	sort.Strings(out)
	return out
}
