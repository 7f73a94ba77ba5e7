package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/application/factoring"
)

// FactoringHandler ciclo de vida de una factura cedida al factor (protegido).
type FactoringHandler struct {
	transfer *factoring.TransferUseCase
	settle   *factoring.SettlementUseCase
	cancel   *factoring.CancelUseCase
	balance  *factoring.BalanceUseCase
}

// NewFactoringHandler construye el handler.
func NewFactoringHandler(transfer *factoring.TransferUseCase, settle *factoring.SettlementUseCase, cancel *factoring.CancelUseCase, balance *factoring.BalanceUseCase) *FactoringHandler {
	return &FactoringHandler{transfer: transfer, settle: settle, cancel: cancel, balance: balance}
}

// Transfer godoc
// @Summary      Transferir factura al factor
// @Tags         factoring
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      201  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/factoring/invoices/{id}/transfer [post]
func (h *FactoringHandler) Transfer(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.transfer.TransferToFactor(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Validate contabiliza una transferencia en borrador (modo de validación manual).
// POST /api/factoring/transfers/:id/validate
func (h *FactoringHandler) Validate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.transfer.ValidateTransfer(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// FactorPaid godoc
// @Summary      Registrar el pago del factor
// @Tags         factoring
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      201  {object}  dto.FactorPaidResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/factoring/invoices/{id}/factor-paid [post]
func (h *FactoringHandler) FactorPaid(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.settle.FactorPaid(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CancelFactor anula el último paso del ciclo con el factor.
// POST /api/factoring/invoices/:id/cancel
func (h *FactoringHandler) CancelFactor(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.cancel.CancelFactor(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ResetToDraft devuelve la factura a borrador cancelando sus asientos de factoring.
// POST /api/factoring/invoices/:id/reset
func (h *FactoringHandler) ResetToDraft(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.cancel.ResetToDraft(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// State estado de pago derivado de la factura.
// GET /api/factoring/invoices/:id/state
func (h *FactoringHandler) State(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.balance.InvoiceState(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// JournalBalance godoc
// @Summary      Saldos del diario de factoring
// @Tags         factoring
// @Produce      json
// @Param        id          path   string  true   "ID del diario"
// @Param        partner_id  query  string  false  "Filtra por cliente"
// @Success      200  {object}  dto.FactorBalanceResponse
// @Router       /api/factoring/journals/{id}/balance [get]
func (h *FactoringHandler) JournalBalance(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.balance.JournalBalance(c.Context(), companyID, c.Params("id"), c.Query("partner_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PartnerSummary exposición del cliente ante los factores.
// GET /api/factoring/partners/:id/summary
func (h *FactoringHandler) PartnerSummary(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.balance.PartnerSummary(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// JournalHandler configuración de diarios de factoring.
type JournalHandler struct {
	uc *factoring.JournalUseCase
}

// NewJournalHandler construye el handler.
func NewJournalHandler(uc *factoring.JournalUseCase) *JournalHandler {
	return &JournalHandler{uc: uc}
}

// Create godoc
// @Summary      Crear diario de factoring
// @Tags         factoring
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateJournalRequest  true  "Diario"
// @Success      201   {object}  dto.JournalResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/factoring/journals [post]
func (h *JournalHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateJournalRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.Context(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List GET /api/factoring/journals
func (h *JournalHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.List(c.Context(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
