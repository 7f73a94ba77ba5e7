// Package subrogation gestiona las cesiones (quittances) de créditos al factor:
// selección de líneas, generación del archivo del proveedor y ciclo de vida.
package subrogation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/application/ports"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/repository"
	domsub "github.com/jhoicas/factoring-api/internal/domain/subrogation"
	"github.com/jhoicas/factoring-api/internal/infrastructure/settlement"
	"github.com/jhoicas/factoring-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// ResModel modelo con el que se enlazan los adjuntos de una cesión.
const ResModel = "subrogation.receipt"

// ReceiptUseCase ciclo de vida de las cesiones.
type ReceiptUseCase struct {
	tx     ports.TxRunner
	codecs *settlement.Registry
	pdf    ReceiptPDFGenerator
	log    *logger.Logger
	now    func() time.Time
}

// NewReceiptUseCase construye el caso de uso. pdf puede ser nil si no se sirven resúmenes.
func NewReceiptUseCase(tx ports.TxRunner, codecs *settlement.Registry, pdf ReceiptPDFGenerator, log *logger.Logger) *ReceiptUseCase {
	return &ReceiptUseCase{tx: tx, codecs: codecs, pdf: pdf, log: log, now: time.Now}
}

// WithClock fija el reloj (fecha de corte, de confirmación y del archivo).
func (uc *ReceiptUseCase) WithClock(now func() time.Time) *ReceiptUseCase {
	uc.now = now
	return uc
}

func (uc *ReceiptUseCase) today() time.Time {
	return uc.now().UTC().Truncate(24 * time.Hour)
}

// CreateOrUpdate prepara una cesión en borrador por cada diario del proveedor
// (uno por moneda) y calcula sus líneas. Si ningún diario tiene líneas elegibles
// devuelve *domain.NoEligibleItemsError; los borradores quedan guardados con el aviso.
func (uc *ReceiptUseCase) CreateOrUpdate(ctx context.Context, companyID string, factorType entity.FactorType, requireFlag bool) (*dto.CreateReceiptsResponse, error) {
	resp := &dto.CreateReceiptsResponse{}
	var empty []*domain.NoEligibleItemsError
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		journals, err := r.Journals.ListByFactorType(ctx, companyID, factorType)
		if err != nil {
			return fmt.Errorf("diarios %s: %w", factorType, err)
		}
		if len(journals) == 0 {
			return &domain.ConfigError{Entity: "company", Field: "factoring journal", Hint: fmt.Sprintf("no hay diario %s configurado", factorType.Label())}
		}
		for _, j := range journals {
			rc, err := r.Receipts.FindDraftForUpdate(ctx, companyID, j.ID)
			if err != nil {
				return fmt.Errorf("borrador del diario %s: %w", j.Code, err)
			}
			if rc == nil {
				rc = &entity.SubrogationReceipt{
					ID:                   uuid.New().String(),
					CompanyID:            companyID,
					FactorJournalID:      j.ID,
					FactorType:           j.FactorType,
					CurrencyCode:         j.Currency.Code,
					State:                entity.ReceiptDraft,
					ExpenseUntaxedAmount: decimal.Zero,
					ExpenseTaxAmount:     decimal.Zero,
					HoldbackAmount:       decimal.Zero,
					Balance:              decimal.Zero,
				}
				if err := r.Receipts.Create(ctx, rc); err != nil {
					return err
				}
			}
			rc.TargetDate = uc.today()
			rc.RequirePartnerFlag = requireFlag
			noItems, err := computeLines(ctx, r, rc, j)
			if err != nil {
				return err
			}
			if noItems != nil {
				empty = append(empty, noItems)
				resp.Warnings = append(resp.Warnings, noItems.Error())
			}
			resp.Receipts = append(resp.Receipts, toReceiptResponse(rc, ""))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, rc := range resp.Receipts {
		uc.log.Info().Str("receipt_id", rc.ID).Str("journal_id", rc.FactorJournalID).Int("lines", rc.LineCount).Str("balance", rc.Balance.String()).Msg("cesión preparada")
	}
	if len(empty) == len(resp.Receipts) {
		return nil, empty[0]
	}
	return resp, nil
}

// ComputeLines vuelve a seleccionar las líneas de una cesión en borrador.
func (uc *ReceiptUseCase) ComputeLines(ctx context.Context, companyID, receiptID string) (*dto.ReceiptResponse, error) {
	var (
		resp    *dto.ReceiptResponse
		noItems *domain.NoEligibleItemsError
	)
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		rc, j, err := loadReceipt(ctx, r, companyID, receiptID)
		if err != nil {
			return err
		}
		if err := domsub.CanRecompute(rc); err != nil {
			return err
		}
		if noItems, err = computeLines(ctx, r, rc, j); err != nil {
			return err
		}
		out := toReceiptResponse(rc, "")
		resp = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noItems != nil {
		return nil, noItems
	}
	return resp, nil
}

// computeLines libera la selección anterior, asigna las líneas elegibles y
// recalcula el saldo. Devuelve el aviso si no hay ninguna línea.
func computeLines(ctx context.Context, r ports.Repos, rc *entity.SubrogationReceipt, j *entity.FactoringJournal) (*domain.NoEligibleItemsError, error) {
	if err := r.Moves.ReleaseSubrogation(ctx, rc.ID); err != nil {
		return nil, fmt.Errorf("liberar líneas de %s: %w", rc.DisplayName(), err)
	}
	filter := domsub.FilterForJournal(j, rc.TargetDate, rc.RequirePartnerFlag)
	selected, err := selectLines(ctx, r, filter)
	if err != nil {
		return nil, err
	}

	rc.LineIDs = make([]string, 0, len(selected))
	rc.ItemIDs = nil
	rc.Balance = decimal.Zero
	seen := map[string]bool{}
	for _, c := range selected {
		rc.LineIDs = append(rc.LineIDs, c.Line.ID)
		rc.Balance = rc.Balance.Add(c.Line.AmountCurrency)
		if !seen[c.Move.ID] {
			seen[c.Move.ID] = true
			rc.ItemIDs = append(rc.ItemIDs, c.Move.ID)
		}
	}
	rc.Balance = j.Currency.Round(rc.Balance)
	if err := r.Moves.AssignSubrogation(ctx, rc.ID, rc.LineIDs); err != nil {
		return nil, fmt.Errorf("asignar líneas a %s: %w", rc.DisplayName(), err)
	}

	var noItems *domain.NoEligibleItemsError
	rc.Warn = ""
	if len(selected) == 0 {
		noItems = &domain.NoEligibleItemsError{ReceiptID: rc.ID, Filter: filter.String()}
		rc.Warn = noItems.Error()
	}
	if rc.StatementDate == nil {
		last, err := r.Receipts.LastStatementDate(ctx, rc.CompanyID, rc.FactorType, rc.CurrencyCode)
		if err != nil {
			return nil, fmt.Errorf("último extracto: %w", err)
		}
		rc.StatementDate = last
	}
	if err := r.Receipts.Update(ctx, rc); err != nil {
		return nil, fmt.Errorf("guardar %s: %w", rc.DisplayName(), err)
	}
	return noItems, nil
}

// selectLines líneas elegibles para el filtro, en el orden del repositorio.
func selectLines(ctx context.Context, r ports.Repos, f domsub.Filter) ([]repository.CandidateLine, error) {
	cands, err := r.Moves.ListCandidateLines(ctx, repository.CandidateFilter{
		CompanyID:    f.CompanyID,
		CurrencyCode: f.CurrencyCode,
		Cutoff:       f.Cutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("líneas candidatas: %w", err)
	}
	ids := make([]string, 0, len(cands))
	for _, c := range cands {
		ids = append(ids, partnerOf(c))
	}
	partners, err := r.Partners.GetByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("clientes de las líneas: %w", err)
	}
	var out []repository.CandidateLine
	for _, c := range cands {
		if domsub.IsEligible(c.Line, c.Move, partners[partnerOf(c)], f) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Confirm genera los archivos del proveedor y los adjunta. Si el archivo no es
// válido la cesión sigue en borrador con el informe en Warn y se devuelve el
// *domain.ValidationError con todos los problemas.
func (uc *ReceiptUseCase) Confirm(ctx context.Context, companyID, receiptID string) (*dto.ReceiptResponse, error) {
	var (
		resp   *dto.ReceiptResponse
		encErr error
		files  int
	)
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		rc, j, err := loadReceipt(ctx, r, companyID, receiptID)
		if err != nil {
			return err
		}
		if err := domsub.CanConfirm(rc); err != nil {
			return err
		}
		company, err := r.Companies.GetByID(ctx, companyID)
		if err != nil {
			return fmt.Errorf("empresa %s: %w", companyID, err)
		}
		if company == nil {
			return domain.ErrNotFound
		}
		codec, err := uc.codecs.Get(j.FactorType)
		if err != nil {
			return err
		}
		items, err := loadItems(ctx, r, rc.ID)
		if err != nil {
			return err
		}
		today := uc.today()
		out, err := codec.Encode(&settlement.Batch{Receipt: rc, Journal: j, Company: company, Items: items, FileDate: today})
		if err != nil {
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				return err
			}
			rc.Warn = verr.Report()
			if err := r.Receipts.Update(ctx, rc); err != nil {
				return fmt.Errorf("guardar aviso de %s: %w", rc.DisplayName(), err)
			}
			encErr = err
			return nil
		}
		if len(out) == 0 {
			return fmt.Errorf("%w: el proveedor no generó ningún archivo", domain.ErrValidation)
		}

		if err := r.Attachments.DeleteByRecord(ctx, ResModel, rc.ID); err != nil {
			return fmt.Errorf("adjuntos anteriores de %s: %w", rc.DisplayName(), err)
		}
		for _, f := range out {
			att := &entity.Attachment{ID: uuid.New().String(), Name: f.Name, ResModel: ResModel, ResID: rc.ID, Data: f.Data}
			if err := r.Attachments.Store(ctx, att); err != nil {
				return fmt.Errorf("adjuntar %s: %w", f.Name, err)
			}
		}
		files = len(out)
		rc.Date = &today
		rc.State = entity.ReceiptConfirmed
		rc.Warn = ""
		if err := r.Receipts.Update(ctx, rc); err != nil {
			return fmt.Errorf("confirmar %s: %w", rc.DisplayName(), err)
		}
		o := toReceiptResponse(rc, uc.instruction(j))
		resp = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if encErr != nil {
		uc.log.Warn().Str("receipt_id", receiptID).Err(encErr).Msg("archivo de cesión inválido")
		return nil, encErr
	}
	uc.log.Info().Str("receipt_id", receiptID).Int("files", files).Msg("cesión confirmada")
	return resp, nil
}

// Post contabiliza una cesión confirmada con retención y gastos informados.
func (uc *ReceiptUseCase) Post(ctx context.Context, companyID, receiptID string) (*dto.ReceiptResponse, error) {
	var resp *dto.ReceiptResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		rc, j, err := loadReceipt(ctx, r, companyID, receiptID)
		if err != nil {
			return err
		}
		if err := domsub.CanPost(rc); err != nil {
			return err
		}
		rc.State = entity.ReceiptPosted
		if err := r.Receipts.Update(ctx, rc); err != nil {
			return fmt.Errorf("contabilizar %s: %w", rc.DisplayName(), err)
		}
		o := toReceiptResponse(rc, uc.instruction(j))
		resp = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("receipt_id", receiptID).Msg("cesión contabilizada")
	return resp, nil
}

// Delete borra una cesión no contabilizada, libera sus líneas y sus adjuntos.
func (uc *ReceiptUseCase) Delete(ctx context.Context, companyID, receiptID string) error {
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		rc, _, err := loadReceipt(ctx, r, companyID, receiptID)
		if err != nil {
			return err
		}
		if err := domsub.CanDelete(rc); err != nil {
			return err
		}
		if err := r.Moves.ReleaseSubrogation(ctx, rc.ID); err != nil {
			return fmt.Errorf("liberar líneas: %w", err)
		}
		if err := r.Attachments.DeleteByRecord(ctx, ResModel, rc.ID); err != nil {
			return fmt.Errorf("borrar adjuntos: %w", err)
		}
		return r.Receipts.Delete(ctx, rc.ID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("receipt_id", receiptID).Msg("cesión borrada")
	return nil
}

// Update cambia fechas (solo en borrador), importes y comentario.
func (uc *ReceiptUseCase) Update(ctx context.Context, companyID, receiptID string, in dto.UpdateReceiptRequest) (*dto.ReceiptResponse, error) {
	var resp *dto.ReceiptResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		rc, j, err := loadReceipt(ctx, r, companyID, receiptID)
		if err != nil {
			return err
		}
		if err := domsub.CanEdit(rc); err != nil {
			return err
		}
		if in.TargetDate != nil || in.StatementDate != nil {
			if err := domsub.CanRecompute(rc); err != nil {
				return err
			}
		}
		if in.TargetDate != nil {
			t, err := parseDate(*in.TargetDate)
			if err != nil {
				return err
			}
			rc.TargetDate = t
		}
		if in.StatementDate != nil {
			if *in.StatementDate == "" {
				rc.StatementDate = nil
			} else {
				t, err := parseDate(*in.StatementDate)
				if err != nil {
					return err
				}
				rc.StatementDate = &t
			}
		}
		for _, a := range []struct {
			in  *decimal.Decimal
			out *decimal.Decimal
		}{
			{in.ExpenseUntaxedAmount, &rc.ExpenseUntaxedAmount},
			{in.ExpenseTaxAmount, &rc.ExpenseTaxAmount},
			{in.HoldbackAmount, &rc.HoldbackAmount},
		} {
			if a.in == nil {
				continue
			}
			if a.in.IsNegative() {
				return fmt.Errorf("%w: los importes no pueden ser negativos", domain.ErrInvalidInput)
			}
			*a.out = j.Currency.Round(*a.in)
		}
		if in.Comment != nil {
			rc.Comment = *in.Comment
		}
		if err := r.Receipts.Update(ctx, rc); err != nil {
			return fmt.Errorf("guardar %s: %w", rc.DisplayName(), err)
		}
		o := toReceiptResponse(rc, uc.instruction(j))
		resp = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Get devuelve la cesión con la instrucción de envío del proveedor.
func (uc *ReceiptUseCase) Get(ctx context.Context, companyID, receiptID string) (*dto.ReceiptResponse, error) {
	var resp *dto.ReceiptResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		rc, j, err := loadReceipt(ctx, r, companyID, receiptID)
		if err != nil {
			return err
		}
		o := toReceiptResponse(rc, uc.instruction(j))
		resp = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// List cesiones de la empresa, las más recientes primero.
func (uc *ReceiptUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) (*dto.ReceiptListResponse, error) {
	page.DefaultPage()
	resp := &dto.ReceiptListResponse{Items: []dto.ReceiptResponse{}, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		list, err := r.Receipts.ListByCompany(ctx, companyID, page.Limit, page.Offset)
		if err != nil {
			return fmt.Errorf("cesiones de la empresa: %w", err)
		}
		for _, rc := range list {
			resp.Items = append(resp.Items, toReceiptResponse(rc, ""))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Files archivos adjuntos a la cesión.
func (uc *ReceiptUseCase) Files(ctx context.Context, companyID, receiptID string) ([]dto.ReceiptFileResponse, error) {
	var out []dto.ReceiptFileResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		if _, _, err := loadReceipt(ctx, r, companyID, receiptID); err != nil {
			return err
		}
		atts, err := r.Attachments.ListByRecord(ctx, ResModel, receiptID)
		if err != nil {
			return fmt.Errorf("adjuntos: %w", err)
		}
		out = make([]dto.ReceiptFileResponse, 0, len(atts))
		for _, a := range atts {
			out = append(out, dto.ReceiptFileResponse{
				ID:       a.ID,
				Name:     a.Name,
				Checksum: a.Checksum,
				Location: a.Location,
				Data:     base64.StdEncoding.EncodeToString(a.Data),
			})
		}
		return nil
	})
	return out, err
}

// Instruction cómo enviar los archivos al factor (vacío si el proveedor no lo define).
func (uc *ReceiptUseCase) Instruction(ctx context.Context, companyID, receiptID string) (string, error) {
	resp, err := uc.Get(ctx, companyID, receiptID)
	if err != nil {
		return "", err
	}
	return resp.Instruction, nil
}

func (uc *ReceiptUseCase) instruction(j *entity.FactoringJournal) string {
	codec, err := uc.codecs.Get(j.FactorType)
	if err != nil {
		return ""
	}
	in, ok := codec.(settlement.Instructor)
	if !ok {
		return ""
	}
	settings := j.Settings
	if settings == nil {
		settings, _ = entity.ParseProviderSettings(j.SettingsText)
	}
	return in.Instruction(settings)
}

func loadReceipt(ctx context.Context, r ports.Repos, companyID, receiptID string) (*entity.SubrogationReceipt, *entity.FactoringJournal, error) {
	rc, err := r.Receipts.GetByID(ctx, receiptID)
	if err != nil {
		return nil, nil, fmt.Errorf("cesión %s: %w", receiptID, err)
	}
	if rc == nil {
		return nil, nil, domain.ErrNotFound
	}
	if rc.CompanyID != companyID {
		return nil, nil, domain.ErrForbidden
	}
	j, err := r.Journals.GetByID(ctx, rc.FactorJournalID)
	if err != nil {
		return nil, nil, fmt.Errorf("diario %s: %w", rc.FactorJournalID, err)
	}
	if j == nil {
		return nil, nil, &domain.ConfigError{Entity: "receipt", Field: "factor_journal_id", Hint: rc.DisplayName()}
	}
	return rc, j, nil
}

// loadItems líneas de la cesión con su cliente comercial y de entrega.
func loadItems(ctx context.Context, r ports.Repos, receiptID string) ([]settlement.Item, error) {
	lines, err := r.Moves.ListBySubrogation(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("líneas de la cesión: %w", err)
	}
	ids := make([]string, 0, 2*len(lines))
	for _, c := range lines {
		ids = append(ids, partnerOf(c))
		if c.Move.ShippingPartnerID != "" {
			ids = append(ids, c.Move.ShippingPartnerID)
		}
	}
	partners, err := r.Partners.GetByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("clientes de la cesión: %w", err)
	}
	items := make([]settlement.Item, 0, len(lines))
	for _, c := range lines {
		items = append(items, settlement.Item{
			Line:            c.Line,
			Move:            c.Move,
			Partner:         partners[partnerOf(c)],
			ShippingPartner: partners[c.Move.ShippingPartnerID],
		})
	}
	return items, nil
}

func partnerOf(c repository.CandidateLine) string {
	if id := c.Move.CommercialPartner(); id != "" {
		return id
	}
	return c.Line.PartnerID
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha %q, formato esperado AAAA-MM-DD", domain.ErrInvalidInput, s)
	}
	return t, nil
}

func toReceiptResponse(rc *entity.SubrogationReceipt, instruction string) dto.ReceiptResponse {
	out := dto.ReceiptResponse{
		ID:                   rc.ID,
		Name:                 rc.DisplayName(),
		FactorJournalID:      rc.FactorJournalID,
		FactorType:           string(rc.FactorType),
		Currency:             rc.CurrencyCode,
		State:                string(rc.State),
		TargetDate:           rc.TargetDate.Format("2006-01-02"),
		Warn:                 rc.Warn,
		Comment:              rc.Comment,
		ExpenseUntaxedAmount: rc.ExpenseUntaxedAmount,
		ExpenseTaxAmount:     rc.ExpenseTaxAmount,
		HoldbackAmount:       rc.HoldbackAmount,
		Balance:              rc.Balance,
		LineCount:            len(rc.LineIDs),
		ItemCount:            len(rc.ItemIDs),
		Instruction:          instruction,
	}
	if rc.Date != nil {
		out.Date = rc.Date.Format("2006-01-02")
	}
	if rc.StatementDate != nil {
		out.StatementDate = rc.StatementDate.Format("2006-01-02")
	}
	return out
}
