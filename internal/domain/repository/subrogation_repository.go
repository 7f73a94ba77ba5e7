package repository

import (
	"context"
	"time"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

// SubrogationRepository puerto de persistencia de cesiones.
type SubrogationRepository interface {
	// Create devuelve domain.ErrDuplicateDraftBatch si ya hay un borrador del diario.
	Create(ctx context.Context, receipt *entity.SubrogationReceipt) error
	Update(ctx context.Context, receipt *entity.SubrogationReceipt) error
	GetByID(ctx context.Context, id string) (*entity.SubrogationReceipt, error)
	// FindDraftForUpdate bloquea el borrador del diario (nil si no hay).
	FindDraftForUpdate(ctx context.Context, companyID, journalID string) (*entity.SubrogationReceipt, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.SubrogationReceipt, error)
	Delete(ctx context.Context, id string) error
	// LastStatementDate fecha del último extracto de un diario del mismo proveedor y moneda.
	LastStatementDate(ctx context.Context, companyID string, factorType entity.FactorType, currencyCode string) (*time.Time, error)
}

// AttachmentStore almacén de adjuntos.
type AttachmentStore interface {
	Store(ctx context.Context, att *entity.Attachment) error
	ListByRecord(ctx context.Context, resModel, resID string) ([]*entity.Attachment, error)
	DeleteByRecord(ctx context.Context, resModel, resID string) error
}
