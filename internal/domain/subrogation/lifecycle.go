package subrogation

import (
	"fmt"

	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

// CanRecompute las líneas solo se recalculan en borrador.
func CanRecompute(r *entity.SubrogationReceipt) error {
	if r.State != entity.ReceiptDraft {
		return fmt.Errorf("%w: la cesión %s no está en borrador", domain.ErrState, r.DisplayName())
	}
	return nil
}

// CanConfirm draft → confirmed; el archivo se valida aparte.
func CanConfirm(r *entity.SubrogationReceipt) error {
	if r.State != entity.ReceiptDraft {
		return fmt.Errorf("%w: solo se confirma una cesión en borrador (estado %s)", domain.ErrState, r.State)
	}
	if len(r.LineIDs) == 0 {
		return fmt.Errorf("%w: la cesión %s no tiene líneas", domain.ErrState, r.DisplayName())
	}
	return nil
}

// CanPost confirmed → posted con retención y gastos informados.
func CanPost(r *entity.SubrogationReceipt) error {
	if r.State != entity.ReceiptConfirmed {
		return fmt.Errorf("%w: solo se contabiliza una cesión confirmada (estado %s)", domain.ErrState, r.State)
	}
	if !r.HoldbackAmount.IsPositive() || !r.ExpenseUntaxedAmount.IsPositive() || !r.ExpenseTaxAmount.IsPositive() {
		return fmt.Errorf("%w: revise los campos retención, importe sin impuestos e impuesto; deben tener valor", domain.ErrState)
	}
	return nil
}

// CanDelete las cesiones contabilizadas no se borran.
func CanDelete(r *entity.SubrogationReceipt) error {
	if r.State == entity.ReceiptPosted {
		return fmt.Errorf("%w: las cesiones contabilizadas no se pueden borrar", domain.ErrState)
	}
	return nil
}

// CanEdit los importes solo se editan antes de contabilizar.
func CanEdit(r *entity.SubrogationReceipt) error {
	if r.State == entity.ReceiptPosted {
		return fmt.Errorf("%w: la cesión %s está contabilizada", domain.ErrState, r.DisplayName())
	}
	return nil
}
