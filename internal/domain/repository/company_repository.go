package repository

import (
	"context"

	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

// CompanyRepository define el puerto de lectura de Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}
