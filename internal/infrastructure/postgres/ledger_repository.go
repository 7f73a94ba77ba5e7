package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/factoring-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerQuery = (*LedgerRepo)(nil)

// LedgerRepo agregados del libro mayor (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// AggregateByAccount suma debe y haber por cuenta con los filtros indicados.
// Con SettledExclusionJournalID las facturas y abonos solo cuentan si su modo de
// pago es ese diario y aún no han llegado a factor_paid; los asientos generados cuentan siempre.
func (r *LedgerRepo) AggregateByAccount(ctx context.Context, f repository.AggregateFilter) (map[string]repository.AccountAggregate, error) {
	out := map[string]repository.AccountAggregate{}
	if len(f.AccountIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT l.account_id, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM move_lines l
		JOIN moves m ON m.id = l.move_id
		WHERE l.account_id = ANY($1)
		  AND ($2::text IS NULL OR m.company_id = $2)
		  AND (NOT $3::bool OR m.state = 'posted')
		  AND ($4::text IS NULL OR l.partner_id = $4)
		  AND ($5::date IS NULL OR m.date >= $5)
		  AND ($6::date IS NULL OR m.date <= $6)
		  AND ($7::text IS NULL
		       OR m.move_type NOT IN ('out_invoice', 'out_refund')
		       OR (m.payment_mode_journal_id = $7 AND m.payment_state_with_factor <> 'factor_paid'))
		GROUP BY l.account_id`
	rows, err := r.q.Query(ctx, query,
		f.AccountIDs, nullIfEmpty(f.CompanyID), f.PostedOnly, nullIfEmpty(f.PartnerID),
		f.DateFrom, f.DateTo, nullIfEmpty(f.SettledExclusionJournalID),
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate ledger: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			account       string
			debit, credit decimal.Decimal
		)
		if err := rows.Scan(&account, &debit, &credit); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out[account] = repository.AccountAggregate{Debit: debit, Credit: credit, Balance: debit.Sub(credit)}
	}
	return out, rows.Err()
}
