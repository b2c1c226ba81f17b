package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependências para o router.
type RouterDeps struct {
	Fiscal    *FiscalHandler
	Config    *ConfigHandler
	JWTSecret string
}

// Router registra as rotas da API fiscal sob /api/v1 (todas protegidas por JWT).
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	protected := api.Group("/fiscal", AuthMiddleware(deps.JWTSecret))

	// Emissão
	protected.Post("/nfce/:saleId", deps.Fiscal.EmitNFCe)
	protected.Post("/nfe/:saleId", deps.Fiscal.EmitNFe)

	// PIX
	protected.Post("/pix", deps.Fiscal.GeneratePix)

	// Consultas e artefatos
	protected.Get("/documents", deps.Fiscal.List)
	protected.Get("/documents/key/:accessKey", deps.Fiscal.GetByAccessKey)
	protected.Get("/documents/:id", deps.Fiscal.GetByID)
	protected.Get("/documents/:id/xml", deps.Fiscal.DownloadXML)
	protected.Get("/documents/:id/pdf", deps.Fiscal.DownloadPDF)
	protected.Post("/documents/:id/pdf", deps.Fiscal.RegeneratePDF)
	protected.Get("/archives", deps.Fiscal.ListArchives)

	// SEFAZ
	protected.Get("/sefaz/status", deps.Fiscal.SefazStatus)

	// Cadastro do emitente (somente admin altera)
	protected.Get("/config", deps.Config.Get)
	protected.Put("/config", RequireRole("admin"), deps.Config.Save)
	protected.Post("/config/certificate", RequireRole("admin"), deps.Config.UploadCertificate)
}
