package repository

import (
	"context"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

// PartnerRepository puerto de persistencia de clientes.
type PartnerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Partner, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Partner, error)
	Update(ctx context.Context, partner *entity.Partner) error
}
