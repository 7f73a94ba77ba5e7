package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/repository"
)

var _ repository.AttachmentStore = (*AttachmentRepo)(nil)

// BlobStore contenido de los adjuntos fuera de la base (p. ej. un bucket GCS).
type BlobStore interface {
	// Put guarda data bajo key y devuelve la ubicación (gs://bucket/key).
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, location string) ([]byte, error)
	Delete(ctx context.Context, location string) error
}

// AttachmentRepo índice de adjuntos en la tabla attachments; el contenido va
// en la columna data o en el BlobStore si está configurado.
type AttachmentRepo struct {
	q     Querier
	blobs BlobStore
}

// NewAttachmentRepository construye el adaptador. blobs puede ser nil.
func NewAttachmentRepository(q Querier, blobs BlobStore) *AttachmentRepo {
	return &AttachmentRepo{q: q, blobs: blobs}
}

// Store persiste el adjunto y completa Checksum y Location.
func (r *AttachmentRepo) Store(ctx context.Context, att *entity.Attachment) error {
	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	sum := sha256.Sum256(att.Data)
	att.Checksum = hex.EncodeToString(sum[:])
	att.CreatedAt = time.Now().UTC()

	data := att.Data
	att.Location = "postgres://attachments/" + att.ID
	if r.blobs != nil {
		key := fmt.Sprintf("%s/%s/%s", att.ResModel, att.ResID, att.Name)
		loc, err := r.blobs.Put(ctx, key, "text/plain", att.Data)
		if err != nil {
			return fmt.Errorf("subir adjunto %s: %w", att.Name, err)
		}
		att.Location, data = loc, nil
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO attachments (id, name, res_model, res_id, data, checksum, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		att.ID, att.Name, att.ResModel, att.ResID, data, att.Checksum, att.Location, att.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

// ListByRecord adjuntos del registro ordenados por nombre, con su contenido.
func (r *AttachmentRepo) ListByRecord(ctx context.Context, resModel, resID string) ([]*entity.Attachment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, res_model, res_id, data, checksum, location, created_at
		FROM attachments WHERE res_model = $1 AND res_id = $2 ORDER BY name`, resModel, resID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	var list []*entity.Attachment
	for rows.Next() {
		var a entity.Attachment
		if err := rows.Scan(&a.ID, &a.Name, &a.ResModel, &a.ResID, &a.Data, &a.Checksum, &a.Location, &a.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		list = append(list, &a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if r.blobs == nil {
		return list, nil
	}
	for _, a := range list {
		if a.Data != nil {
			continue
		}
		data, err := r.blobs.Get(ctx, a.Location)
		if err != nil {
			return nil, fmt.Errorf("descargar adjunto %s: %w", a.Name, err)
		}
		a.Data = data
	}
	return list, nil
}

// DeleteByRecord borra los adjuntos del registro (y sus objetos externos).
func (r *AttachmentRepo) DeleteByRecord(ctx context.Context, resModel, resID string) error {
	rows, err := r.q.Query(ctx, `DELETE FROM attachments WHERE res_model = $1 AND res_id = $2 RETURNING location, data IS NULL`, resModel, resID)
	if err != nil {
		return fmt.Errorf("delete attachments: %w", err)
	}
	var external []string
	for rows.Next() {
		var (
			loc    string
			noData bool
		)
		if err := rows.Scan(&loc, &noData); err != nil {
			rows.Close()
			return fmt.Errorf("scan deleted attachment: %w", err)
		}
		if noData {
			external = append(external, loc)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if r.blobs == nil {
		return nil
	}
	for _, loc := range external {
		if err := r.blobs.Delete(ctx, loc); err != nil {
			return fmt.Errorf("borrar objeto %s: %w", loc, err)
		}
	}
	return nil
}
