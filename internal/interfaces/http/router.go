package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/factoring-api/internal/application/factoring"
	"github.com/jhoicas/factoring-api/internal/application/subrogation"
	"github.com/jhoicas/factoring-api/pkg/jwt"
	"github.com/jhoicas/factoring-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	JournalUC  *factoring.JournalUseCase
	TransferUC *factoring.TransferUseCase
	SettleUC   *factoring.SettlementUseCase
	CancelUC   *factoring.CancelUseCase
	BalanceUC  *factoring.BalanceUseCase
	ReceiptUC  *subrogation.ReceiptUseCase
	JWTSecret  string
	JWTIssuer  string
	Log        *logger.Logger // nil descarta los errores internos
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api", RequestLogger(log))

	// Todas las rutas requieren Bearer Token
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleAccountant, jwt.RoleViewer)
	operator := RequireRole(jwt.RoleAdmin, jwt.RoleAccountant)
	admin := RequireRole(jwt.RoleAdmin)

	// Diarios de factoring
	fact := protected.Group("/factoring")
	journalHandler := NewJournalHandler(deps.JournalUC)
	fact.Get("/journals", anyRole, journalHandler.List)
	fact.Post("/journals", admin, journalHandler.Create)

	// Ciclo de la factura con el factor
	factHandler := NewFactoringHandler(deps.TransferUC, deps.SettleUC, deps.CancelUC, deps.BalanceUC)
	fact.Get("/journals/:id/balance", anyRole, factHandler.JournalBalance)
	fact.Get("/partners/:id/summary", anyRole, factHandler.PartnerSummary)
	fact.Get("/invoices/:id/state", anyRole, factHandler.State)
	fact.Post("/invoices/:id/transfer", operator, factHandler.Transfer)
	fact.Post("/invoices/:id/factor-paid", operator, factHandler.FactorPaid)
	fact.Post("/invoices/:id/cancel", operator, factHandler.CancelFactor)
	fact.Post("/invoices/:id/reset", operator, factHandler.ResetToDraft)
	fact.Post("/transfers/:id/validate", operator, factHandler.Validate)

	// Cesiones (subrogation receipts)
	receipts := protected.Group("/subrogation/receipts")
	receiptHandler := NewReceiptHandler(deps.ReceiptUC)
	receipts.Get("/", anyRole, receiptHandler.List)
	receipts.Post("/", operator, receiptHandler.Create)
	receipts.Get("/:id", anyRole, receiptHandler.Get)
	receipts.Patch("/:id", operator, receiptHandler.Update)
	receipts.Delete("/:id", operator, receiptHandler.Delete)
	receipts.Post("/:id/compute", operator, receiptHandler.Compute)
	receipts.Post("/:id/confirm", operator, receiptHandler.Confirm)
	receipts.Post("/:id/post", admin, receiptHandler.Post)
	receipts.Get("/:id/files", anyRole, receiptHandler.Files)
	receipts.Get("/:id/instruction", anyRole, receiptHandler.Instruction)
	receipts.Get("/:id/report", anyRole, receiptHandler.Report)
}
