package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/factoring-api/internal/application/ports"
	"github.com/rs/zerolog/log"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	// blobs almacén externo de archivos (GCS); nil = columna data de attachments.
	blobs BlobStore
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// WithBlobStore guarda el contenido de los adjuntos fuera de la base;
// la tabla conserva el índice (nombre, checksum y ubicación).
func (r *TxRunner) WithBlobStore(blobs BlobStore) *TxRunner {
	r.blobs = blobs
	return r
}

// RunFactoring inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los saldos leídos dentro de fn ven las escrituras previas de la misma transacción.
func (r *TxRunner) RunFactoring(ctx context.Context, fn func(repos ports.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	blobs := newBlobTx(r.blobs)
	if err := fn(r.repos(tx, blobs)); err != nil {
		discardBlobs(ctx, blobs)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		discardBlobs(ctx, blobs)
		return fmt.Errorf("commit transaction: %w", err)
	}
	// Con la transacción confirmada un fallo aquí solo deja objetos huérfanos.
	if err := blobs.commit(ctx); err != nil {
		log.Warn().Err(err).Msg("objetos de adjuntos sin borrar")
	}
	return nil
}

func discardBlobs(ctx context.Context, blobs *blobTx) {
	if err := blobs.discard(ctx); err != nil {
		log.Warn().Err(err).Msg("objetos de adjuntos huérfanos tras rollback")
	}
}

func (r *TxRunner) repos(tx pgx.Tx, blobs *blobTx) ports.Repos {
	var store BlobStore
	if blobs != nil {
		store = blobs
	}
	return ports.Repos{
		Ledger:      NewLedgerRepository(tx),
		Moves:       NewMoveRepository(tx),
		Reconciler:  NewReconcileRepository(tx),
		Journals:    NewJournalRepository(tx),
		Partners:    NewPartnerRepository(tx),
		Companies:   NewCompanyRepository(tx),
		Receipts:    NewSubrogationRepository(tx),
		Attachments: NewAttachmentRepository(tx, store),
	}
}
