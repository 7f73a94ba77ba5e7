package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// blobTx ata el BlobStore a una transacción: lo subido se borra si la
// transacción no llega a confirmar y los borrados esperan al commit.
type blobTx struct {
	store BlobStore

	mu       sync.Mutex
	uploaded []string
	deleted  []string
}

func newBlobTx(store BlobStore) *blobTx {
	if store == nil {
		return nil
	}
	return &blobTx{store: store}
}

func (b *blobTx) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	loc, err := b.store.Put(ctx, key, contentType, data)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	b.uploaded = append(b.uploaded, loc)
	b.mu.Unlock()
	return loc, nil
}

func (b *blobTx) Get(ctx context.Context, location string) ([]byte, error) {
	return b.store.Get(ctx, location)
}

// Delete solo anota el objeto; se borra en commit.
func (b *blobTx) Delete(_ context.Context, location string) error {
	b.mu.Lock()
	b.deleted = append(b.deleted, location)
	b.mu.Unlock()
	return nil
}

// discard borra lo subido durante una transacción revertida.
func (b *blobTx) discard(ctx context.Context) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	locs := b.uploaded
	b.uploaded, b.deleted = nil, nil
	b.mu.Unlock()
	return b.removeAll(context.WithoutCancel(ctx), locs)
}

// commit aplica los borrados pendientes tras confirmar la transacción.
func (b *blobTx) commit(ctx context.Context) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	locs := b.deleted
	b.uploaded, b.deleted = nil, nil
	b.mu.Unlock()
	return b.removeAll(ctx, locs)
}

func (b *blobTx) removeAll(ctx context.Context, locs []string) error {
	var errs []error
	for _, loc := range locs {
		if err := b.store.Delete(ctx, loc); err != nil {
			errs = append(errs, fmt.Errorf("borrar objeto %s: %w", loc, err))
		}
	}
	return errors.Join(errs...)
}
