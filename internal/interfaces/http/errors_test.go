package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_ErroresInternosNoSeExponen(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"error del driver", errors.New(`ERROR: relation "move_lines" does not exist (SQLSTATE 42P01)`), "INTERNAL"},
		{"integridad", fmt.Errorf("%w: línea huérfana l-42 en SELECT * FROM move_lines", domain.ErrDataIntegrity), "DATA_INTEGRITY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			app := fiber.New()
			app.Get("/boom", RequestLogger(logger.New(logger.Config{Env: "production", Level: "error", Output: &logs})),
				func(c *fiber.Ctx) error { return writeError(c, tc.err) })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantCode, body.Code)
			assert.NotContains(t, body.Message, "move_lines")
			assert.Contains(t, logs.String(), "move_lines", "el detalle queda en el log")
			assert.Contains(t, logs.String(), "/boom")
		})
	}
}

func TestWriteError_SinLoggerNoFalla(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error { return writeError(c, errors.New("dial tcp 10.0.0.5:5432: timeout")) })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INTERNAL", body.Code)
	assert.NotContains(t, body.Message, "10.0.0.5")
}

func TestWriteError_ErroresDeNegocioConservanElMensaje(t *testing.T) {
	app := fiber.New()
	app.Get("/state", func(c *fiber.Ctx) error {
		return writeError(c, fmt.Errorf("%w: la factura FAC/2024/0001 no tiene saldo pendiente", domain.ErrState))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/state", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_STATE", body.Code)
	assert.Contains(t, body.Message, "FAC/2024/0001")
}
