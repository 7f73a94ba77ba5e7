// Package storage guarda los archivos de cesión en Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/jhoicas/factoring-api/internal/infrastructure/postgres"
	"google.golang.org/api/option"
)

var _ postgres.BlobStore = (*GCSBlobStore)(nil)

// GCSBlobStore objetos gs://bucket/prefix/key. El cliente se reutiliza entre llamadas.
type GCSBlobStore struct {
	client  *storage.Client
	bucket  string
	prefix  string
	timeout time.Duration
}

// NewGCSBlobStore crea el cliente. Sin credentialsFile usa las credenciales por defecto (ADC).
func NewGCSBlobStore(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSBlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket vacío")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSBlobStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), timeout: 2 * time.Minute}, nil
}

// Close libera el cliente.
func (s *GCSBlobStore) Close() error {
	return s.client.Close()
}

// Put sube data y devuelve su URI gs://.
func (s *GCSBlobStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	object := ObjectName(s.prefix, key)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write GCS object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", object, err)
	}
	return "gs://" + s.bucket + "/" + object, nil
}

// Get descarga el objeto de la URI gs://.
func (s *GCSBlobStore) Get(ctx context.Context, location string) ([]byte, error) {
	bucket, object, err := ParseURI(location)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object %s: %w", location, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %s: %w", location, err)
	}
	return data, nil
}

// Delete borra el objeto; un objeto inexistente no es error.
func (s *GCSBlobStore) Delete(ctx context.Context, location string) error {
	bucket, object, err := ParseURI(location)
	if err != nil {
		return err
	}
	err = s.client.Bucket(bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete GCS object %s: %w", location, err)
	}
	return nil
}

// ObjectName nombre del objeto bajo el prefijo, sin segmentos vacíos ni "..".
func ObjectName(prefix, key string) string {
	var parts []string
	for _, p := range strings.Split(prefix+"/"+key, "/") {
		if p == "" || p == "." || p == ".." {
			continue
		}
		parts = append(parts, p)
	}
	return path.Join(parts...)
}

// ParseURI separa gs://bucket/objeto.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
