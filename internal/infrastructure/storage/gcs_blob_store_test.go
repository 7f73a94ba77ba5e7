package storage_test

import (
	"testing"

	"github.com/jhoicas/factoring-api/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "subrogation/subrogation.receipt/r1/BPCE_42.txt",
		storage.ObjectName("subrogation", "subrogation.receipt/r1/BPCE_42.txt"))
	assert.Equal(t, "r1/a.txt", storage.ObjectName("", "/r1//a.txt"))
	assert.Equal(t, "p/etc/passwd", storage.ObjectName("p", "../../etc/passwd"))
}

func TestParseURI(t *testing.T) {
	bucket, object, err := storage.ParseURI("gs://quittances/subrogation/r1/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "quittances", bucket)
	assert.Equal(t, "subrogation/r1/a.txt", object)

	for _, bad := range []string{"s3://b/o", "gs://bucket", "gs:///obj", "postgres://attachments/1"} {
		_, _, err := storage.ParseURI(bad)
		assert.Error(t, err, bad)
	}
}
