package factoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/application/ports"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/pkg/logger"
)

// JournalUseCase alta y consulta de diarios de factoring.
type JournalUseCase struct {
	tx  ports.TxRunner
	log *logger.Logger
}

// NewJournalUseCase construye el caso de uso.
func NewJournalUseCase(tx ports.TxRunner, log *logger.Logger) *JournalUseCase {
	return &JournalUseCase{tx: tx, log: log}
}

// Create valida y guarda un diario. Solo puede haber uno por moneda y proveedor en la empresa.
func (uc *JournalUseCase) Create(ctx context.Context, companyID string, in dto.CreateJournalRequest) (*dto.JournalResponse, error) {
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.CurrencyCode) == "" {
		return nil, domain.ErrInvalidInput
	}
	t := entity.FactorType(strings.ToLower(in.FactorType))
	if t != entity.FactorTypeBPCE && t != entity.FactorTypeEurof {
		return nil, fmt.Errorf("%w: proveedor desconocido %q", domain.ErrInvalidInput, in.FactorType)
	}
	mode := entity.ValidationMode(in.ValidationMode)
	if mode == "" {
		mode = entity.ValidationAutomatic
	}
	settings, err := entity.ParseProviderSettings(in.Settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	j := &entity.FactoringJournal{
		ID:                         uuid.New().String(),
		CompanyID:                  companyID,
		Code:                       strings.ToUpper(strings.TrimSpace(in.Code)),
		Name:                       in.Name,
		Currency:                   entity.CurrencyFor(in.CurrencyCode),
		FactorType:                 t,
		ValidationMode:             mode,
		FeePercent:                 in.FeePercent,
		HoldbackPercent:            in.HoldbackPercent,
		DefaultAccountID:           in.DefaultAccountID,
		FeeAccountID:               in.FeeAccountID,
		HoldbackAccountID:          in.HoldbackAccountID,
		LimitHoldbackAccountID:     in.LimitHoldbackAccountID,
		ReceivableAccountID:        in.ReceivableAccountID,
		CurrentAccountID:           in.CurrentAccountID,
		FactoringHoldbackAccountID: in.FactoringHoldbackAccountID,
		PendingRechargingAccountID: in.PendingRechargingAccountID,
		ExpenseAccountID:           in.ExpenseAccountID,
		ReceivableAccountIDs:       in.ReceivableAccountIDs,
		SettingsText:               in.Settings,
		Settings:                   settings,
	}
	if in.FeeTaxAccountID != "" || in.FeeTaxPercent.IsPositive() {
		j.FeeTax = &entity.Tax{ID: uuid.New().String(), Name: in.FeeTaxName, Amount: in.FeeTaxPercent, AccountID: in.FeeTaxAccountID}
	}
	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	err = uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		return r.Journals.Create(ctx, j)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("journal_id", j.ID).Str("code", j.Code).Str("factor_type", string(j.FactorType)).Msg("diario de factoring creado")
	resp := toJournalResponse(j)
	return &resp, nil
}

// List diarios de la empresa ordenados por código.
func (uc *JournalUseCase) List(ctx context.Context, companyID string) ([]dto.JournalResponse, error) {
	var out []dto.JournalResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		list, err := r.Journals.ListByCompany(ctx, companyID)
		if err != nil {
			return fmt.Errorf("diarios de la empresa: %w", err)
		}
		out = make([]dto.JournalResponse, 0, len(list))
		for _, j := range list {
			out = append(out, toJournalResponse(j))
		}
		return nil
	})
	return out, err
}

func toJournalResponse(j *entity.FactoringJournal) dto.JournalResponse {
	return dto.JournalResponse{
		ID:              j.ID,
		Code:            j.Code,
		Name:            j.Name,
		Currency:        j.Currency.Code,
		FactorType:      string(j.FactorType),
		ValidationMode:  string(j.ValidationMode),
		FeePercent:      j.FeePercent,
		HoldbackPercent: j.HoldbackPercent,
	}
}
