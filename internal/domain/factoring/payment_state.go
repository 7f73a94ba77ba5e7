package factoring

import (
	"sort"
	"time"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

// EntryRef estado mínimo de un asiento vinculado (transferencia o pago).
type EntryRef struct {
	ID    string
	State entity.MoveState
	Date  time.Time
}

// PaymentStateInput datos de los que depende el estado con factor.
type PaymentStateInput struct {
	MoveType     entity.MoveType
	MoveState    entity.MoveState
	PaymentState entity.PaymentState
	// FactorRoute el modo de pago de la factura está fijado a un diario de factoring.
	FactorRoute bool
	Transfer    *EntryRef
	Payment     *EntryRef
}

// DerivePaymentState proyecta el estado de pago con factor. Es una función pura:
// dos llamadas con la misma entrada devuelven el mismo estado.
func DerivePaymentState(in PaymentStateInput) entity.PaymentState {
	if !in.FactorRoute || !in.MoveType.IsCustomerDocument() {
		return in.PaymentState
	}
	switch {
	case (in.PaymentState == entity.PaymentPartial || in.PaymentState == entity.PaymentNotPaid) &&
		in.MoveState != entity.MoveCancel:
		if in.Transfer != nil && in.Transfer.State == entity.MoveDraft {
			return entity.PaymentSubmittedToFactor
		}
		return entity.PaymentToTransferToFactor
	case in.PaymentState == entity.PaymentPaid:
		if in.Payment != nil && in.Payment.State == entity.MovePosted {
			return entity.PaymentFactorPaid
		}
		return entity.PaymentTransferredToFactor
	default:
		return in.PaymentState
	}
}

// PaymentStateFromLines estado de pago subyacente a partir de la conciliación
// de las líneas a cobrar. Los estados reversed e invoicing_legacy se conservan.
func PaymentStateFromLines(move *entity.Move) entity.PaymentState {
	if move.PaymentState == entity.PaymentReversed || move.PaymentState == entity.PaymentLegacy {
		return move.PaymentState
	}
	if move.State != entity.MovePosted {
		return entity.PaymentNotPaid
	}
	lines := move.ReceivableLines()
	if len(lines) == 0 {
		return entity.PaymentNotPaid
	}
	full, touched := 0, 0
	for _, l := range lines {
		if l.Reconciled {
			full++
		}
		if l.ReconcileGroupID != "" {
			touched++
		}
	}
	switch {
	case full == len(lines):
		return entity.PaymentPaid
	case touched > 0:
		return entity.PaymentPartial
	default:
		return entity.PaymentNotPaid
	}
}

// FactorLinks transferencia y pago del factor derivados del libro.
type FactorLinks struct {
	Transfer *entity.Move
	Payment  *entity.Move
}

// TransferRef referencia de la transferencia (nil si no hay).
func (l FactorLinks) TransferRef() *EntryRef { return refOf(l.Transfer) }

// PaymentRef referencia del pago (nil si no hay).
func (l FactorLinks) PaymentRef() *EntryRef { return refOf(l.Payment) }

func refOf(m *entity.Move) *EntryRef {
	if m == nil {
		return nil
	}
	return &EntryRef{ID: m.ID, State: m.State, Date: m.Date}
}

// ResolveFactorLinks deriva los vínculos de la factura entre los asientos
// candidatos (conciliados con ella o con origen en ella). Se descartan la
// propia factura y los asientos cancelados; gana el primero por fecha e ID.
func ResolveFactorLinks(invoiceID string, candidates []*entity.Move) FactorLinks {
	sorted := make([]*entity.Move, 0, len(candidates))
	for _, m := range candidates {
		if m == nil || m.ID == invoiceID || m.IsCancelled() {
			continue
		}
		sorted = append(sorted, m)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var links FactorLinks
	for _, m := range sorted {
		switch m.FactorRole {
		case entity.FactorRoleTransfer:
			if links.Transfer == nil {
				links.Transfer = m
			}
		case entity.FactorRolePayment:
			if links.Payment == nil {
				links.Payment = m
			}
		}
	}
	return links
}

// StepAction acción de un paso de cancelación.
type StepAction string

const (
	StepResetToDraft StepAction = "reset_to_draft" // desconcilia y vuelve a borrador
	StepCancel       StepAction = "cancel"
)

// CancelStep paso ordenado de la cancelación de una factura.
type CancelStep struct {
	MoveID string
	Action StepAction
}

// CancellationPlan pasos para devolver la factura a borrador: el pago y la
// transferencia se pasan a borrador y se cancelan antes de desconciliar la
// propia factura, porque siguen conciliados con ella.
func CancellationPlan(invoice *entity.Move, factorRoute bool, links FactorLinks) []CancelStep {
	var steps []CancelStep
	if factorRoute && invoice.MoveType == entity.MoveOutInvoice {
		for _, m := range []*entity.Move{links.Payment, links.Transfer} {
			if m == nil {
				continue
			}
			steps = append(steps,
				CancelStep{MoveID: m.ID, Action: StepResetToDraft},
				CancelStep{MoveID: m.ID, Action: StepCancel},
			)
		}
	}
	return append(steps, CancelStep{MoveID: invoice.ID, Action: StepResetToDraft})
}
