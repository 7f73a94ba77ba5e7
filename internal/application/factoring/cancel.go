package factoring

import (
	"context"
	"fmt"

	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/application/ports"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	domfactoring "github.com/jhoicas/factoring-api/internal/domain/factoring"
	"github.com/jhoicas/factoring-api/pkg/logger"
)

// CancelUseCase deshace la transferencia y el pago del factor de una factura.
type CancelUseCase struct {
	tx  ports.TxRunner
	log *logger.Logger
}

// NewCancelUseCase construye el caso de uso.
func NewCancelUseCase(tx ports.TxRunner, log *logger.Logger) *CancelUseCase {
	return &CancelUseCase{tx: tx, log: log}
}

// ResetToDraft devuelve la factura a borrador. Si va por un diario de factoring,
// el pago y la transferencia se pasan a borrador y se cancelan antes.
func (uc *CancelUseCase) ResetToDraft(ctx context.Context, companyID, invoiceID string) (*dto.InvoiceFactorStateResponse, error) {
	var (
		resp  *dto.InvoiceFactorStateResponse
		steps []domfactoring.CancelStep
	)
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		ic, err := loadInvoice(ctx, r, companyID, invoiceID)
		if err != nil {
			return err
		}
		if ic.invoice.State == entity.MoveDraft {
			return fmt.Errorf("%w: la factura %s ya está en borrador", domain.ErrState, ic.invoice.Name)
		}
		steps = domfactoring.CancellationPlan(ic.invoice, ic.journal != nil, ic.links)
		for _, step := range steps {
			if err := applyStep(ctx, r, step); err != nil {
				return err
			}
		}
		ic, err = refreshInvoice(ctx, r, companyID, invoiceID)
		if err != nil {
			return err
		}
		resp = toStateResponse(ic)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", invoiceID).Int("steps", len(steps)).Msg("factura devuelta a borrador")
	return resp, nil
}

// CancelFactor cancela el pago y la transferencia del factor, deshace sus
// conciliaciones y deja la factura sin pagar y sin modo de pago.
func (uc *CancelUseCase) CancelFactor(ctx context.Context, companyID, invoiceID string) (*dto.InvoiceFactorStateResponse, error) {
	var resp *dto.InvoiceFactorStateResponse
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		ic, err := loadInvoice(ctx, r, companyID, invoiceID)
		if err != nil {
			return err
		}
		payment, transfer := ic.links.Payment, ic.links.Transfer
		if payment == nil && transfer == nil {
			return fmt.Errorf("%w: la factura %s no tiene asientos del factor", domain.ErrState, ic.invoice.Name)
		}
		if payment != nil {
			if err := cancelAndUnreconcile(ctx, r, payment); err != nil {
				return err
			}
		}
		if transfer != nil && (transfer.State == entity.MoveDraft || transfer.State == entity.MovePosted) {
			if err := cancelAndUnreconcile(ctx, r, transfer); err != nil {
				return err
			}
			inv := ic.invoice
			inv.PaymentState = entity.PaymentNotPaid
			inv.PaymentStateWithFactor = entity.PaymentNotPaid
			inv.PaymentModeJournalID = ""
			if err := r.Moves.UpdatePaymentState(ctx, inv); err != nil {
				return fmt.Errorf("restablecer %s: %w", inv.Name, err)
			}
		}
		ic, err = refreshInvoice(ctx, r, companyID, invoiceID)
		if err != nil {
			return err
		}
		resp = toStateResponse(ic)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", invoiceID).Str("state", resp.PaymentStateWithFactor).Msg("factoring cancelado")
	return resp, nil
}

func applyStep(ctx context.Context, r ports.Repos, step domfactoring.CancelStep) error {
	m, err := r.Moves.GetByID(ctx, step.MoveID)
	if err != nil {
		return fmt.Errorf("asiento %s: %w", step.MoveID, err)
	}
	if m == nil {
		return fmt.Errorf("asiento %s: %w", step.MoveID, domain.ErrNotFound)
	}
	switch step.Action {
	case domfactoring.StepResetToDraft:
		if err := r.Reconciler.RemoveReconciliation(ctx, lineIDs(m)); err != nil {
			return fmt.Errorf("desconciliar %s: %w", m.Name, err)
		}
		if err := r.Moves.SetState(ctx, m.ID, entity.MoveDraft); err != nil {
			return fmt.Errorf("pasar %s a borrador: %w", m.Name, err)
		}
	case domfactoring.StepCancel:
		if err := r.Moves.SetState(ctx, m.ID, entity.MoveCancel); err != nil {
			return fmt.Errorf("cancelar %s: %w", m.Name, err)
		}
	default:
		return fmt.Errorf("paso de cancelación desconocido %q", step.Action)
	}
	return nil
}

func cancelAndUnreconcile(ctx context.Context, r ports.Repos, m *entity.Move) error {
	if err := r.Moves.SetState(ctx, m.ID, entity.MoveCancel); err != nil {
		return fmt.Errorf("cancelar %s: %w", m.Name, err)
	}
	if err := r.Reconciler.RemoveReconciliation(ctx, lineIDs(m)); err != nil {
		return fmt.Errorf("desconciliar %s: %w", m.Name, err)
	}
	return nil
}
