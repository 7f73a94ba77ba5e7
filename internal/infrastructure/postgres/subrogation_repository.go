package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/repository"
)

var _ repository.SubrogationRepository = (*SubrogationRepo)(nil)

// uxReceiptDraft índice único parcial: un borrador por empresa y diario.
const uxReceiptDraft = "ux_subrogation_receipts_draft"

const receiptColumns = `id, company_id, factor_journal_id, factor_type, currency_code, state, date, target_date,
	statement_date, warn, comment, require_partner_flag, expense_untaxed_amount, expense_tax_amount,
	holdback_amount, balance, created_at, updated_at`

// SubrogationRepo cesiones al factor (usable con pool o tx).
type SubrogationRepo struct {
	q Querier
}

// NewSubrogationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSubrogationRepository(q Querier) *SubrogationRepo {
	return &SubrogationRepo{q: q}
}

// Create persiste la cesión; un segundo borrador del mismo diario devuelve ErrDuplicateDraftBatch.
func (r *SubrogationRepo) Create(ctx context.Context, rc *entity.SubrogationReceipt) error {
	if rc.ID == "" {
		rc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	rc.CreatedAt, rc.UpdatedAt = now, now
	_, err := r.q.Exec(ctx, `
		INSERT INTO subrogation_receipts (`+receiptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		rc.ID, rc.CompanyID, rc.FactorJournalID, rc.FactorType, rc.CurrencyCode, rc.State, rc.Date, dateOnly(rc.TargetDate),
		rc.StatementDate, rc.Warn, rc.Comment, rc.RequirePartnerFlag, rc.ExpenseUntaxedAmount, rc.ExpenseTaxAmount,
		rc.HoldbackAmount, rc.Balance, rc.CreatedAt, rc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == uxReceiptDraft {
			return domain.ErrDuplicateDraftBatch
		}
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

// Update guarda cabecera, importes y estado. Las líneas se asignan con MoveRepository.
func (r *SubrogationRepo) Update(ctx context.Context, rc *entity.SubrogationReceipt) error {
	rc.UpdatedAt = time.Now().UTC()
	tag, err := r.q.Exec(ctx, `
		UPDATE subrogation_receipts
		SET state = $2, date = $3, target_date = $4, statement_date = $5, warn = $6, comment = $7,
		    require_partner_flag = $8, expense_untaxed_amount = $9, expense_tax_amount = $10,
		    holdback_amount = $11, balance = $12, updated_at = $13
		WHERE id = $1`,
		rc.ID, rc.State, rc.Date, dateOnly(rc.TargetDate), rc.StatementDate, rc.Warn, rc.Comment,
		rc.RequirePartnerFlag, rc.ExpenseUntaxedAmount, rc.ExpenseTaxAmount, rc.HoldbackAmount, rc.Balance, rc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateDraftBatch
		}
		return fmt.Errorf("update receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cesión %s: %w", rc.ID, domain.ErrNotFound)
	}
	return nil
}

// GetByID obtiene la cesión con sus líneas asignadas.
func (r *SubrogationRepo) GetByID(ctx context.Context, id string) (*entity.SubrogationReceipt, error) {
	return r.getOne(ctx, `SELECT `+receiptColumns+` FROM subrogation_receipts WHERE id = $1`, id)
}

// FindDraftForUpdate bloquea el borrador del diario hasta el fin de la transacción.
func (r *SubrogationRepo) FindDraftForUpdate(ctx context.Context, companyID, journalID string) (*entity.SubrogationReceipt, error) {
	return r.getOne(ctx, `
		SELECT `+receiptColumns+` FROM subrogation_receipts
		WHERE company_id = $1 AND factor_journal_id = $2 AND state = 'draft'
		FOR UPDATE`, companyID, journalID)
}

func (r *SubrogationRepo) getOne(ctx context.Context, query string, args ...any) (*entity.SubrogationReceipt, error) {
	rc, err := scanReceipt(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if err := r.loadLines(ctx, rc); err != nil {
		return nil, err
	}
	return rc, nil
}

// ListByCompany cesiones de la empresa, las más recientes primero.
func (r *SubrogationRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.SubrogationReceipt, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+receiptColumns+` FROM subrogation_receipts
		WHERE company_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	var list []*entity.SubrogationReceipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		list = append(list, rc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, rc := range list {
		if err := r.loadLines(ctx, rc); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Delete elimina la cesión; las líneas deben haberse liberado antes.
func (r *SubrogationRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM subrogation_receipts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}

// LastStatementDate fecha del último extracto de un diario del mismo proveedor y moneda.
func (r *SubrogationRepo) LastStatementDate(ctx context.Context, companyID string, t entity.FactorType, currencyCode string) (*time.Time, error) {
	var last *time.Time
	err := r.q.QueryRow(ctx, `
		SELECT MAX(s.date)
		FROM bank_statements s
		JOIN factoring_journals j ON j.id = s.journal_id
		WHERE s.company_id = $1 AND j.factor_type = $2 AND j.currency_code = $3`,
		companyID, t, currencyCode).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("last statement date: %w", err)
	}
	return last, nil
}

// loadLines rellena LineIDs e ItemIDs (asientos distintos) desde move_lines.
func (r *SubrogationRepo) loadLines(ctx context.Context, rc *entity.SubrogationReceipt) error {
	rows, err := r.q.Query(ctx, `
		SELECT l.id, l.move_id FROM move_lines l JOIN moves m ON m.id = l.move_id
		WHERE l.subrogation_id = $1 ORDER BY m.date, m.id, l.seq`, rc.ID)
	if err != nil {
		return fmt.Errorf("receipt lines: %w", err)
	}
	defer rows.Close()
	rc.LineIDs, rc.ItemIDs = nil, nil
	seen := map[string]bool{}
	for rows.Next() {
		var lineID, moveID string
		if err := rows.Scan(&lineID, &moveID); err != nil {
			return fmt.Errorf("scan receipt line: %w", err)
		}
		rc.LineIDs = append(rc.LineIDs, lineID)
		if !seen[moveID] {
			seen[moveID] = true
			rc.ItemIDs = append(rc.ItemIDs, moveID)
		}
	}
	return rows.Err()
}

func scanReceipt(row pgx.Row) (*entity.SubrogationReceipt, error) {
	var rc entity.SubrogationReceipt
	err := row.Scan(
		&rc.ID, &rc.CompanyID, &rc.FactorJournalID, &rc.FactorType, &rc.CurrencyCode, &rc.State, &rc.Date, &rc.TargetDate,
		&rc.StatementDate, &rc.Warn, &rc.Comment, &rc.RequirePartnerFlag, &rc.ExpenseUntaxedAmount, &rc.ExpenseTaxAmount,
		&rc.HoldbackAmount, &rc.Balance, &rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}
