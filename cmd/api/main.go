package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/factoring-api/internal/application/factoring"
	"github.com/jhoicas/factoring-api/internal/application/ports"
	"github.com/jhoicas/factoring-api/internal/application/subrogation"
	"github.com/jhoicas/factoring-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/factoring-api/internal/infrastructure/pdf"
	"github.com/jhoicas/factoring-api/internal/infrastructure/postgres"
	"github.com/jhoicas/factoring-api/internal/infrastructure/settlement"
	"github.com/jhoicas/factoring-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/factoring-api/internal/interfaces/http"
	"github.com/jhoicas/factoring-api/pkg/config"
	"github.com/jhoicas/factoring-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Almacenamiento contable: PostgreSQL en despliegue, memoria para demos locales.
	var tx ports.TxRunner
	switch cfg.DB.Driver {
	case "memory":
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		tx = memory.NewStore()
	default:
		if cfg.DB.Migrate {
			version, err := postgres.Migrate(cfg.DB.ConnectionString(), cfg.DB.MigrationsDir)
			if err != nil {
				log.Fatal().Err(err).Str("dir", cfg.DB.MigrationsDir).Msg("migraciones")
			}
			log.Info().Uint("version", version).Msg("esquema actualizado")
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		runner := postgres.NewTxRunner(pool)

		// Archivos de cesión en Cloud Storage si hay bucket; si no, en la tabla attachments.
		if cfg.Storage.Bucket != "" {
			blobs, err := storage.NewGCSBlobStore(ctx, cfg.Storage.Bucket, cfg.Storage.Prefix, cfg.Storage.CredentialsFile)
			if err != nil {
				log.Fatal().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("cliente de Cloud Storage")
			}
			defer blobs.Close()
			runner = runner.WithBlobStore(blobs)
			log.Info().Str("bucket", cfg.Storage.Bucket).Str("prefix", cfg.Storage.Prefix).Msg("adjuntos en Cloud Storage")
		}
		tx = runner
	}

	journalUC := factoring.NewJournalUseCase(tx, log.Component("journal"))
	transferUC := factoring.NewTransferUseCase(tx, log.Component("transfer"))
	settleUC := factoring.NewSettlementUseCase(tx, log.Component("settlement"))
	cancelUC := factoring.NewCancelUseCase(tx, log.Component("cancel"))
	balanceUC := factoring.NewBalanceUseCase(tx)

	// PDF: resumen de la cesión para el factor
	pdfGenerator := infrapdf.NewMarotoReceiptGenerator()
	receiptUC := subrogation.NewReceiptUseCase(tx, settlement.DefaultRegistry(), pdfGenerator, log.Component("subrogation"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Factoring API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		JournalUC:  journalUC,
		TransferUC: transferUC,
		SettleUC:   settleUC,
		CancelUC:   cancelUC,
		BalanceUC:  balanceUC,
		ReceiptUC:  receiptUC,
		JWTSecret:  cfg.JWT.Secret,
		JWTIssuer:  cfg.JWT.Issuer,
		Log:        log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
