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

	"github.com/jrrjunior25/erp-pdv/internal/application/fiscal"
	infranfe "github.com/jrrjunior25/erp-pdv/internal/infrastructure/nfe"
	"github.com/jrrjunior25/erp-pdv/internal/infrastructure/nfe/signer"
	infrapdf "github.com/jrrjunior25/erp-pdv/internal/infrastructure/pdf"
	"github.com/jrrjunior25/erp-pdv/internal/infrastructure/postgres"
	"github.com/jrrjunior25/erp-pdv/internal/infrastructure/sefaz"
	"github.com/jrrjunior25/erp-pdv/internal/infrastructure/storage"
	httpRouter "github.com/jrrjunior25/erp-pdv/internal/interfaces/http"
	"github.com/jrrjunior25/erp-pdv/pkg/config"
	"github.com/jrrjunior25/erp-pdv/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ambiente_fiscal", cfg.Fiscal.Environment).
		Msg("iniciando aplicação")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão com PostgreSQL")
	}
	defer pool.Close()

	// Repositórios
	saleRepo := postgres.NewSaleRepository(pool)
	docRepo := postgres.NewFiscalDocumentRepository(pool)
	configRepo := postgres.NewFiscalConfigRepository(pool)
	allocator := postgres.NewSeriesAllocator(pool)

	// Infraestrutura fiscal
	fileStore, err := storage.NewFileStore(cfg.Storage.BaseDir)
	if err != nil {
		log.Fatal().Err(err).Msg("storage de artefatos fiscais")
	}
	xmlBuilder := infranfe.NewXMLBuilderService()
	signerSvc := signer.NewDigitalSignatureService()
	certLoader := signer.NewP12Loader()
	sefazClient := sefaz.NewClient()
	danfeGen := infrapdf.NewDanfeGenerator()

	// Aplicação
	configCache := fiscal.NewConfigCache(configRepo, time.Duration(cfg.Fiscal.ConfigTTLSec)*time.Second, nil)
	orchestrator := fiscal.NewOrchestrator(
		saleRepo, docRepo, allocator, configCache,
		xmlBuilder, certLoader, signerSvc, sefazClient,
		fileStore, danfeGen, log,
	)
	queries := fiscal.NewQueryService(docRepo, saleRepo, configCache, fileStore, danfeGen, sefazClient, log)
	pixUC := fiscal.NewPixUseCase(configCache, saleRepo, nil, log)
	configUC := fiscal.NewConfigUseCase(configRepo, configCache, certLoader)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    4 << 20, // upload do certificado via multipart
	})
	app.Use(recover.New())

	// Swagger UI local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ERP PDV Fiscal API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Fiscal:    httpRouter.NewFiscalHandler(orchestrator, queries, pixUC),
		Config:    httpRouter.NewConfigHandler(configUC),
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("encerramento do servidor")
	}

	log.Info().Msg("aplicação encerrada")
}
