package ports

import (
	"context"

	"github.com/jhoicas/factoring-api/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Ledger      repository.LedgerQuery
	Moves       repository.MoveRepository
	Reconciler  repository.Reconciler
	Journals    repository.JournalRepository
	Partners    repository.PartnerRepository
	Companies   repository.CompanyRepository
	Receipts    repository.SubrogationRepository
	Attachments repository.AttachmentStore
}

// TxRunner ejecuta fn dentro de una transacción; si fn devuelve error se
// deshacen todas sus escrituras. Los saldos leídos dentro de fn ven las
// escrituras previas de la misma transacción.
type TxRunner interface {
	RunFactoring(ctx context.Context, fn func(r Repos) error) error
}
