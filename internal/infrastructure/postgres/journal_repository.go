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
	"github.com/shopspring/decimal"
)

var _ repository.JournalRepository = (*JournalRepo)(nil)

const journalColumns = `id, company_id, code, name, currency_code, factor_type, validation_mode,
	fee_percent, holdback_percent, default_account_id, fee_account_id, holdback_account_id, limit_holdback_account_id,
	fee_tax_name, fee_tax_percent, fee_tax_account_id,
	receivable_account_id, current_account_id, factoring_holdback_account_id, pending_recharging_account_id,
	expense_account_id, receivable_account_ids, settings_text, created_at, updated_at`

// JournalRepo diarios de factoring (usable con pool o tx).
type JournalRepo struct {
	q Querier
}

// NewJournalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewJournalRepository(q Querier) *JournalRepo {
	return &JournalRepo{q: q}
}

// Create persiste un diario; hay uno por empresa, moneda y proveedor.
func (r *JournalRepo) Create(ctx context.Context, j *entity.FactoringJournal) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	var (
		taxName, taxAccount string
		taxPercent          = decimal.Zero
	)
	if j.FeeTax != nil {
		taxName, taxPercent, taxAccount = j.FeeTax.Name, j.FeeTax.Amount, j.FeeTax.AccountID
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO factoring_journals (`+journalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		j.ID, j.CompanyID, j.Code, j.Name, j.Currency.Code, j.FactorType, j.ValidationMode,
		j.FeePercent, j.HoldbackPercent, j.DefaultAccountID, j.FeeAccountID, j.HoldbackAccountID, j.LimitHoldbackAccountID,
		taxName, taxPercent, taxAccount,
		j.ReceivableAccountID, j.CurrentAccountID, j.FactoringHoldbackAccountID, j.PendingRechargingAccountID,
		j.ExpenseAccountID, j.ReceivableAccountIDs, j.SettingsText, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe un diario %s en %s para la empresa", domain.ErrDuplicate, j.FactorType, j.Currency.Code)
		}
		return fmt.Errorf("insert journal: %w", err)
	}
	return nil
}

// GetByID obtiene un diario por ID.
func (r *JournalRepo) GetByID(ctx context.Context, id string) (*entity.FactoringJournal, error) {
	j, err := scanJournal(r.q.QueryRow(ctx, `SELECT `+journalColumns+` FROM factoring_journals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get journal: %w", err)
	}
	return j, nil
}

// ListByCompany diarios de la empresa ordenados por código.
func (r *JournalRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.FactoringJournal, error) {
	return r.list(ctx, `SELECT `+journalColumns+` FROM factoring_journals WHERE company_id = $1 ORDER BY code`, companyID)
}

// ListByFactorType diarios del proveedor en la empresa (uno por moneda).
func (r *JournalRepo) ListByFactorType(ctx context.Context, companyID string, t entity.FactorType) ([]*entity.FactoringJournal, error) {
	return r.list(ctx, `SELECT `+journalColumns+` FROM factoring_journals WHERE company_id = $1 AND factor_type = $2 ORDER BY code`, companyID, t)
}

func (r *JournalRepo) list(ctx context.Context, query string, args ...any) ([]*entity.FactoringJournal, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	defer rows.Close()
	var list []*entity.FactoringJournal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

func scanJournal(row pgx.Row) (*entity.FactoringJournal, error) {
	var (
		j                   entity.FactoringJournal
		currency            string
		taxName, taxAccount string
		taxPercent          decimal.Decimal
	)
	err := row.Scan(
		&j.ID, &j.CompanyID, &j.Code, &j.Name, &currency, &j.FactorType, &j.ValidationMode,
		&j.FeePercent, &j.HoldbackPercent, &j.DefaultAccountID, &j.FeeAccountID, &j.HoldbackAccountID, &j.LimitHoldbackAccountID,
		&taxName, &taxPercent, &taxAccount,
		&j.ReceivableAccountID, &j.CurrentAccountID, &j.FactoringHoldbackAccountID, &j.PendingRechargingAccountID,
		&j.ExpenseAccountID, &j.ReceivableAccountIDs, &j.SettingsText, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Currency = entity.CurrencyFor(currency)
	if taxAccount != "" || taxPercent.IsPositive() {
		j.FeeTax = &entity.Tax{Name: taxName, Amount: taxPercent, AccountID: taxAccount}
	}
	// Un texto inválido ya fue rechazado por Validate al crear el diario.
	j.Settings, _ = entity.ParseProviderSettings(j.SettingsText)
	return &j, nil
}
