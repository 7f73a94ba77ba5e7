package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/application/subrogation"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

// ReceiptHandler cesiones de créditos al factor (protegido).
type ReceiptHandler struct {
	uc *subrogation.ReceiptUseCase
}

// NewReceiptHandler construye el handler.
func NewReceiptHandler(uc *subrogation.ReceiptUseCase) *ReceiptHandler {
	return &ReceiptHandler{uc: uc}
}

// Create godoc
// @Summary      Preparar cesiones en borrador
// @Description  Una cesión por diario del proveedor; reutiliza el borrador existente.
// @Tags         subrogation
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReceiptsRequest  true  "Proveedor"
// @Success      201   {object}  dto.CreateReceiptsResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/subrogation/receipts [post]
func (h *ReceiptHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateReceiptsRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.FactorType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "factor_type es requerido"})
	}
	out, err := h.uc.CreateOrUpdate(c.Context(), companyID, entity.FactorType(in.FactorType), in.RequirePartnerFlag)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List GET /api/subrogation/receipts?limit=&offset=
func (h *ReceiptHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.List(c.Context(), companyID, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get GET /api/subrogation/receipts/:id
func (h *ReceiptHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update PATCH /api/subrogation/receipts/:id
func (h *ReceiptHandler) Update(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Compute POST /api/subrogation/receipts/:id/compute
func (h *ReceiptHandler) Compute(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.ComputeLines(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Confirm godoc
// @Summary      Confirmar cesión y generar el archivo del factor
// @Tags         subrogation
// @Produce      json
// @Param        id   path  string  true  "ID de la cesión"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      400  {object}  dto.ErrorResponse  "problemas de validación en details"
// @Router       /api/subrogation/receipts/{id}/confirm [post]
func (h *ReceiptHandler) Confirm(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Confirm(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Post POST /api/subrogation/receipts/:id/post
func (h *ReceiptHandler) Post(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Post(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete DELETE /api/subrogation/receipts/:id
func (h *ReceiptHandler) Delete(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Delete(c.Context(), companyID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Files GET /api/subrogation/receipts/:id/files
func (h *ReceiptHandler) Files(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Files(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Instruction GET /api/subrogation/receipts/:id/instruction
func (h *ReceiptHandler) Instruction(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Instruction(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"instruction": out})
}

// Report godoc
// @Summary      Descargar el informe PDF de la cesión
// @Tags         subrogation
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la cesión"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/subrogation/receipts/{id}/report [get]
func (h *ReceiptHandler) Report(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	data, filename, err := h.uc.Report(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(data)
}
