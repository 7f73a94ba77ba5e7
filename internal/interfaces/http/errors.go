package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/pkg/logger"
)

// LocalLogger clave de c.Locals con el logger de la petición.
const LocalLogger = "logger"

// RequestLogger deja el logger en c.Locals para los errores internos.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalLogger, log)
		return c.Next()
	}
}

func requestLog(c *fiber.Ctx) *logger.Logger {
	if log, ok := c.Locals(LocalLogger).(*logger.Logger); ok && log != nil {
		return log
	}
	return logger.Nop()
}

// writeError traduce un error de dominio a la respuesta HTTP correspondiente.
func writeError(c *fiber.Ctx, err error) error {
	var (
		verr *domain.ValidationError
		cerr *domain.ConfigError
		nerr *domain.NoEligibleItemsError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: domain.ErrValidation.Error(), Details: verr.Problems})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	case errors.As(err, &nerr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_ELIGIBLE_ITEMS", Message: err.Error(), Details: []string{nerr.Filter}})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.As(err, &cerr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CONFIGURATION", Message: err.Error(), Details: []string{cerr.Entity + "." + cerr.Field}})
	case errors.Is(err, domain.ErrConfiguration):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CONFIGURATION", Message: err.Error()})
	case errors.Is(err, domain.ErrDataIntegrity):
		return internalError(c, err, "DATA_INTEGRITY", "inconsistencia en los datos contables")
	}
	return internalError(c, err, "INTERNAL", "error interno")
}

// internalError registra el detalle y responde 500 sin exponerlo al cliente.
func internalError(c *fiber.Ctx, err error, code, message string) error {
	requestLog(c).Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("code", code).
		Msg("error en la petición")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: code, Message: message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
