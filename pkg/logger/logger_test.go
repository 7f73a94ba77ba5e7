package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jhoicas/factoring-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Output: &buf}).Component("transfer")

	log.Info().Str("invoice_id", "m1").Msg("transferencia creada")
	log.Debug().Msg("no se escribe")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "transfer", entry["component"])
	assert.Equal(t, "m1", entry["invoice_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_NivelDesconocidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "verbose", Output: &buf})
	log.Debug().Msg("debug")
	assert.Zero(t, buf.Len())
	log.Warn().Msg("warn")
	assert.NotZero(t, buf.Len())
}
