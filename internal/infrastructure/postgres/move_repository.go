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

var (
	_ repository.MoveRepository = (*MoveRepo)(nil)
	_ repository.Reconciler     = (*ReconcileRepo)(nil)
)

const moveColumns = `m.id, m.company_id, m.name, m.move_type, m.state, m.payment_state, m.payment_state_with_factor,
	m.partner_id, m.commercial_partner_id, m.shipping_partner_id, m.journal_id, m.payment_mode_journal_id,
	m.currency_code, m.amount_total, m.date, m.invoice_date, m.invoice_due_date, m.invoice_origin,
	m.skip_factor, m.factor_role, m.origin_move_id, m.created_at, m.updated_at`

const lineColumns = `l.id, l.move_id, l.account_id, l.account_type, l.partner_id, l.name, l.debit, l.credit,
	l.amount_currency, l.currency_code, l.date, l.maturity_date, l.reconcile_group_id, l.reconciled, l.amount_residual, l.subrogation_id`

func scanMove(row pgx.Row) (*entity.Move, error) {
	var m entity.Move
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.Name, &m.MoveType, &m.State, &m.PaymentState, &m.PaymentStateWithFactor,
		&m.PartnerID, &m.CommercialPartnerID, &m.ShippingPartnerID, &m.JournalID, &m.PaymentModeJournalID,
		&m.CurrencyCode, &m.AmountTotal, &m.Date, &m.InvoiceDate, &m.InvoiceDueDate, &m.InvoiceOrigin,
		&m.SkipFactor, &m.FactorRole, &m.OriginMoveID, &m.CreatedAt, &m.UpdatedAt,
	)
	return &m, err
}

func scanLine(row pgx.Row, extra ...any) (*entity.LedgerLine, error) {
	var l entity.LedgerLine
	dest := []any{
		&l.ID, &l.MoveID, &l.AccountID, &l.AccountType, &l.PartnerID, &l.Name, &l.Debit, &l.Credit,
		&l.AmountCurrency, &l.CurrencyCode, &l.Date, &l.MaturityDate, &l.ReconcileGroupID, &l.Reconciled, &l.AmountResidual, &l.SubrogationID,
	}
	err := row.Scan(append(dest, extra...)...)
	return &l, err
}

// MoveRepo asientos y apuntes (usable con pool o tx).
type MoveRepo struct {
	q Querier
}

// NewMoveRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMoveRepository(q Querier) *MoveRepo {
	return &MoveRepo{q: q}
}

// GetByID obtiene el asiento con sus líneas.
func (r *MoveRepo) GetByID(ctx context.Context, id string) (*entity.Move, error) {
	m, err := scanMove(r.q.QueryRow(ctx, `SELECT `+moveColumns+` FROM moves m WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get move: %w", err)
	}
	lines, err := r.linesOf(ctx, []string{m.ID})
	if err != nil {
		return nil, err
	}
	m.Lines = lines[m.ID]
	return m, nil
}

// ListLinkedEntries asientos que comparten grupo de conciliación con moveID o lo tienen como origen.
func (r *MoveRepo) ListLinkedEntries(ctx context.Context, moveID string) ([]*entity.Move, error) {
	query := `
		SELECT ` + moveColumns + `
		FROM moves m
		WHERE m.id <> $1
		  AND (m.origin_move_id = $1 OR EXISTS (
		        SELECT 1 FROM move_lines l
		        JOIN move_lines src ON src.reconcile_group_id = l.reconcile_group_id
		        WHERE l.move_id = m.id AND src.move_id = $1 AND src.reconcile_group_id <> ''))
		ORDER BY m.date, m.id`
	return r.listMoves(ctx, query, moveID)
}

func (r *MoveRepo) listMoves(ctx context.Context, query string, args ...any) ([]*entity.Move, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	var (
		list []*entity.Move
		ids  []string
	)
	for rows.Next() {
		m, err := scanMove(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan move: %w", err)
		}
		list = append(list, m)
		ids = append(ids, m.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	lines, err := r.linesOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range list {
		m.Lines = lines[m.ID]
	}
	return list, nil
}

func (r *MoveRepo) linesOf(ctx context.Context, moveIDs []string) (map[string][]*entity.LedgerLine, error) {
	rows, err := r.q.Query(ctx, `SELECT `+lineColumns+` FROM move_lines l WHERE l.move_id = ANY($1) ORDER BY l.move_id, l.seq`, moveIDs)
	if err != nil {
		return nil, fmt.Errorf("list move lines: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]*entity.LedgerLine, len(moveIDs))
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan move line: %w", err)
		}
		out[l.MoveID] = append(out[l.MoveID], l)
	}
	return out, rows.Err()
}

// CreateEntry inserta el asiento en borrador y sus líneas en el orden recibido.
func (r *MoveRepo) CreateEntry(ctx context.Context, e repository.NewEntry) (*entity.Move, error) {
	now := time.Now().UTC()
	id := uuid.New().String()
	total := decimal.Zero
	for _, d := range e.Lines {
		total = total.Add(d.Debit)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO moves (id, company_id, name, move_type, state, payment_state, payment_state_with_factor,
		                   partner_id, commercial_partner_id, journal_id, currency_code, amount_total, date,
		                   factor_role, origin_move_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		id, e.CompanyID, e.Name, entity.MoveEntry, entity.MoveDraft, entity.PaymentNotPaid,
		e.PartnerID, e.JournalID, e.CurrencyCode, total, dateOnly(e.Date), e.FactorRole, e.OriginMoveID, now,
	)
	if err != nil {
		if isUniqueViolation(err) && e.FactorRole == entity.FactorRolePayment {
			return nil, domain.ErrDuplicatePayment
		}
		if isUniqueViolation(err) && e.FactorRole == entity.FactorRoleTransfer {
			return nil, domain.ErrDuplicateTransfer
		}
		return nil, fmt.Errorf("insert move: %w", err)
	}
	for seq, d := range e.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO move_lines (id, move_id, seq, account_id, account_type, partner_id, name, debit, credit,
			                        amount_currency, currency_code, date, maturity_date, amount_residual)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $10)`,
			uuid.New().String(), id, seq, d.AccountID, d.AccountType, d.PartnerID, d.Name, d.Debit, d.Credit,
			d.Debit.Sub(d.Credit), d.CurrencyCode, dateOnly(e.Date), d.MaturityDate,
		)
		if err != nil {
			return nil, fmt.Errorf("insert move line %d: %w", seq, err)
		}
	}
	return r.GetByID(ctx, id)
}

// SetState cambia el estado contable del asiento.
func (r *MoveRepo) SetState(ctx context.Context, moveID string, state entity.MoveState) error {
	tag, err := r.q.Exec(ctx, `UPDATE moves SET state = $2, updated_at = NOW() WHERE id = $1`, moveID, state)
	if err != nil {
		return fmt.Errorf("update move state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("asiento %s: %w", moveID, domain.ErrNotFound)
	}
	return nil
}

// UpdatePaymentState guarda el estado de pago, su proyección con factor y el modo de pago.
func (r *MoveRepo) UpdatePaymentState(ctx context.Context, move *entity.Move) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE moves
		SET payment_state = $2, payment_state_with_factor = $3, payment_mode_journal_id = $4, updated_at = NOW()
		WHERE id = $1`,
		move.ID, move.PaymentState, move.PaymentStateWithFactor, move.PaymentModeJournalID,
	)
	if err != nil {
		return fmt.Errorf("update payment state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("asiento %s: %w", move.ID, domain.ErrNotFound)
	}
	return nil
}

// ListOpenLines apuntes publicados sin conciliación total de la cuenta y cliente.
func (r *MoveRepo) ListOpenLines(ctx context.Context, accountID, partnerID string) ([]*entity.LedgerLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+lineColumns+`
		FROM move_lines l
		JOIN moves m ON m.id = l.move_id
		WHERE m.state = 'posted' AND l.account_id = $1 AND l.partner_id = $2 AND NOT l.reconciled
		ORDER BY m.date, m.id, l.seq`, accountID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("list open lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.LedgerLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan open line: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// ListCandidateLines líneas publicadas hasta el corte, sin cesión y sin conciliar.
// Las reglas por cliente y tipo de asiento se evalúan en el dominio.
func (r *MoveRepo) ListCandidateLines(ctx context.Context, f repository.CandidateFilter) ([]repository.CandidateLine, error) {
	return r.listWithMoves(ctx, `
		SELECT `+lineColumns+`, `+moveColumns+`
		FROM move_lines l
		JOIN moves m ON m.id = l.move_id
		WHERE m.state = 'posted' AND m.company_id = $1 AND m.date <= $2
		  AND l.subrogation_id = '' AND NOT l.reconciled
		  AND ($3::text IS NULL OR l.currency_code = $3)
		ORDER BY m.date, m.id, l.seq`,
		f.CompanyID, dateOnly(f.Cutoff), nullIfEmpty(f.CurrencyCode))
}

// ListBySubrogation líneas asignadas a la cesión con su asiento.
func (r *MoveRepo) ListBySubrogation(ctx context.Context, receiptID string) ([]repository.CandidateLine, error) {
	return r.listWithMoves(ctx, `
		SELECT `+lineColumns+`, `+moveColumns+`
		FROM move_lines l
		JOIN moves m ON m.id = l.move_id
		WHERE l.subrogation_id = $1
		ORDER BY m.date, m.id, l.seq`, receiptID)
}

func (r *MoveRepo) listWithMoves(ctx context.Context, query string, args ...any) ([]repository.CandidateLine, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	defer rows.Close()
	var out []repository.CandidateLine
	for rows.Next() {
		var m entity.Move
		l, err := scanLine(rows,
			&m.ID, &m.CompanyID, &m.Name, &m.MoveType, &m.State, &m.PaymentState, &m.PaymentStateWithFactor,
			&m.PartnerID, &m.CommercialPartnerID, &m.ShippingPartnerID, &m.JournalID, &m.PaymentModeJournalID,
			&m.CurrencyCode, &m.AmountTotal, &m.Date, &m.InvoiceDate, &m.InvoiceDueDate, &m.InvoiceOrigin,
			&m.SkipFactor, &m.FactorRole, &m.OriginMoveID, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		out = append(out, repository.CandidateLine{Line: l, Move: &m})
	}
	return out, rows.Err()
}

// AssignSubrogation marca las líneas con la cesión.
func (r *MoveRepo) AssignSubrogation(ctx context.Context, receiptID string, lineIDs []string) error {
	if len(lineIDs) == 0 {
		return nil
	}
	tag, err := r.q.Exec(ctx, `UPDATE move_lines SET subrogation_id = $1 WHERE id = ANY($2)`, receiptID, lineIDs)
	if err != nil {
		return fmt.Errorf("assign subrogation: %w", err)
	}
	if int(tag.RowsAffected()) != len(lineIDs) {
		return fmt.Errorf("asignar líneas a la cesión %s: %w", receiptID, domain.ErrNotFound)
	}
	return nil
}

// ReleaseSubrogation libera todas las líneas de la cesión.
func (r *MoveRepo) ReleaseSubrogation(ctx context.Context, receiptID string) error {
	if _, err := r.q.Exec(ctx, `UPDATE move_lines SET subrogation_id = '' WHERE subrogation_id = $1`, receiptID); err != nil {
		return fmt.Errorf("release subrogation: %w", err)
	}
	return nil
}

// ReconcileRepo grupos de conciliación (usable con pool o tx).
type ReconcileRepo struct {
	q Querier
}

// NewReconcileRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReconcileRepository(q Querier) *ReconcileRepo {
	return &ReconcileRepo{q: q}
}

// Reconcile agrupa las líneas junto con los grupos a los que ya pertenecen.
// Las filas se bloquean para que dos liquidaciones no mezclen grupos.
func (r *ReconcileRepo) Reconcile(ctx context.Context, lineIDs []string) error {
	if len(lineIDs) < 2 {
		return nil
	}
	rows, err := r.q.Query(ctx, `SELECT id, account_id, reconcile_group_id FROM move_lines WHERE id = ANY($1) FOR UPDATE`, lineIDs)
	if err != nil {
		return fmt.Errorf("lock lines: %w", err)
	}
	var (
		found   int
		account string
		groups  []string
		mixed   bool
	)
	for rows.Next() {
		var id, acc, group string
		if err := rows.Scan(&id, &acc, &group); err != nil {
			rows.Close()
			return fmt.Errorf("scan line: %w", err)
		}
		found++
		if account == "" {
			account = acc
		}
		mixed = mixed || acc != account
		if group != "" {
			groups = append(groups, group)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if found != len(uniqueIDs(lineIDs)) {
		return fmt.Errorf("conciliar: %w", domain.ErrNotFound)
	}
	if mixed {
		return fmt.Errorf("%w: solo se concilian líneas de la misma cuenta", domain.ErrInvalidInput)
	}

	var members []*entity.LedgerLine
	rows, err = r.q.Query(ctx, `
		SELECT id, debit, credit, currency_code, date FROM move_lines
		WHERE id = ANY($1) OR (reconcile_group_id <> '' AND reconcile_group_id = ANY($2))
		FOR UPDATE`, lineIDs, groups)
	if err != nil {
		return fmt.Errorf("lock reconcile group: %w", err)
	}
	for rows.Next() {
		var l entity.LedgerLine
		if err := rows.Scan(&l.ID, &l.Debit, &l.Credit, &l.CurrencyCode, &l.Date); err != nil {
			rows.Close()
			return fmt.Errorf("scan group line: %w", err)
		}
		members = append(members, &l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	residuals, full := entity.AllocateResidual(members, entity.CurrencyFor(members[0].CurrencyCode))
	ids := make([]string, 0, len(members))
	amounts := make([]string, 0, len(members))
	for _, l := range members {
		ids = append(ids, l.ID)
		amounts = append(amounts, residuals[l.ID].String())
	}
	_, err = r.q.Exec(ctx, `
		UPDATE move_lines AS l
		SET reconcile_group_id = $1, reconciled = $2, amount_residual = v.residual::numeric
		FROM unnest($3::text[], $4::text[]) AS v(id, residual)
		WHERE l.id = v.id`,
		uuid.New().String(), full, ids, amounts)
	if err != nil {
		return fmt.Errorf("reconcile lines: %w", err)
	}
	return nil
}

// RemoveReconciliation saca las líneas de sus grupos. El resto de cada grupo
// sigue conciliado entre sí mientras quede algo que compensar.
func (r *ReconcileRepo) RemoveReconciliation(ctx context.Context, lineIDs []string) error {
	if len(lineIDs) == 0 {
		return nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, reconcile_group_id, debit, credit, currency_code, date FROM move_lines
		WHERE reconcile_group_id <> '' AND reconcile_group_id IN (
			SELECT reconcile_group_id FROM move_lines WHERE id = ANY($1) AND reconcile_group_id <> '')
		ORDER BY id
		FOR UPDATE`, lineIDs)
	if err != nil {
		return fmt.Errorf("lock reconcile groups: %w", err)
	}
	detach := make(map[string]bool, len(lineIDs))
	for _, id := range lineIDs {
		detach[id] = true
	}
	var (
		loose []string
		rest  = map[string][]*entity.LedgerLine{}
	)
	for rows.Next() {
		var l entity.LedgerLine
		if err := rows.Scan(&l.ID, &l.ReconcileGroupID, &l.Debit, &l.Credit, &l.CurrencyCode, &l.Date); err != nil {
			rows.Close()
			return fmt.Errorf("scan group line: %w", err)
		}
		if detach[l.ID] {
			loose = append(loose, l.ID)
			continue
		}
		rest[l.ReconcileGroupID] = append(rest[l.ReconcileGroupID], &l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for group, lines := range rest {
		if !entity.Offsetting(lines) {
			for _, l := range lines {
				loose = append(loose, l.ID)
			}
			continue
		}
		residuals, full := entity.AllocateResidual(lines, entity.CurrencyFor(lines[0].CurrencyCode))
		ids := make([]string, 0, len(lines))
		amounts := make([]string, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ID)
			amounts = append(amounts, residuals[l.ID].String())
		}
		_, err := r.q.Exec(ctx, `
			UPDATE move_lines AS l
			SET reconciled = $2, amount_residual = v.residual::numeric
			FROM unnest($3::text[], $4::text[]) AS v(id, residual)
			WHERE l.id = v.id AND l.reconcile_group_id = $1`,
			group, full, ids, amounts)
		if err != nil {
			return fmt.Errorf("regroup %s: %w", group, err)
		}
	}
	if len(loose) == 0 {
		return nil
	}
	_, err = r.q.Exec(ctx, `
		UPDATE move_lines SET reconcile_group_id = '', reconciled = FALSE, amount_residual = debit - credit
		WHERE id = ANY($1)`, loose)
	if err != nil {
		return fmt.Errorf("remove reconciliation: %w", err)
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
