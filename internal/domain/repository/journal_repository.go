package repository

import (
	"context"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

// JournalRepository puerto de persistencia de diarios de factoring.
type JournalRepository interface {
	Create(ctx context.Context, journal *entity.FactoringJournal) error
	GetByID(ctx context.Context, id string) (*entity.FactoringJournal, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.FactoringJournal, error)
	ListByFactorType(ctx context.Context, companyID string, factorType entity.FactorType) ([]*entity.FactoringJournal, error)
}
