package repository

import (
	"context"
	"time"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

// NewEntry datos de un asiento generado por el factoring.
type NewEntry struct {
	CompanyID    string
	JournalID    string
	PartnerID    string
	Name         string
	Date         time.Time
	CurrencyCode string
	FactorRole   entity.FactorRole
	OriginMoveID string
	Lines        []entity.LedgerLineDraft
}

// CandidateFilter preselección de líneas para una cesión; la elegibilidad
// fina se evalúa en el dominio.
type CandidateFilter struct {
	CompanyID    string
	CurrencyCode string
	Cutoff       time.Time
}

// CandidateLine línea abierta junto a la cabecera de su asiento.
type CandidateLine struct {
	Line *entity.LedgerLine
	Move *entity.Move // sin Lines
}

// MoveRepository puerto de persistencia de asientos y apuntes.
type MoveRepository interface {
	// GetByID devuelve el asiento con sus líneas, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Move, error)
	// ListLinkedEntries asientos conciliados con alguna línea de moveID o cuyo
	// origen es moveID; incluye sus líneas.
	ListLinkedEntries(ctx context.Context, moveID string) ([]*entity.Move, error)
	// CreateEntry crea el asiento en borrador con sus líneas.
	CreateEntry(ctx context.Context, entry NewEntry) (*entity.Move, error)
	// SetState cambia el estado contable (draft, posted, cancel).
	SetState(ctx context.Context, moveID string, state entity.MoveState) error
	// UpdatePaymentState guarda payment_state, la proyección con factor y el modo de pago.
	UpdatePaymentState(ctx context.Context, move *entity.Move) error
	// ListOpenLines apuntes publicados sin conciliar de una cuenta y cliente.
	ListOpenLines(ctx context.Context, accountID, partnerID string) ([]*entity.LedgerLine, error)
	// ListCandidateLines líneas publicadas, sin cesión y sin conciliar.
	ListCandidateLines(ctx context.Context, filter CandidateFilter) ([]CandidateLine, error)
	// AssignSubrogation marca las líneas con la cesión (receiptID "" libera).
	AssignSubrogation(ctx context.Context, receiptID string, lineIDs []string) error
	// ReleaseSubrogation libera todas las líneas de la cesión.
	ReleaseSubrogation(ctx context.Context, receiptID string) error
	// ListBySubrogation líneas asignadas a la cesión con su asiento.
	ListBySubrogation(ctx context.Context, receiptID string) ([]CandidateLine, error)
}

// Reconciler motor de conciliación.
type Reconciler interface {
	// Reconcile agrupa las líneas; la conciliación es total cuando el saldo del grupo es cero.
	Reconcile(ctx context.Context, lineIDs []string) error
	// RemoveReconciliation deshace los grupos de conciliación de las líneas.
	RemoveReconciliation(ctx context.Context, lineIDs []string) error
}
