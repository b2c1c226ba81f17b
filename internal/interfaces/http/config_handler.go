package http

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jrrjunior25/erp-pdv/internal/application/dto"
	"github.com/jrrjunior25/erp-pdv/internal/application/fiscal"
)

// maxCertificateSize limite do upload do .pfx (certificados A1 têm poucos KB).
const maxCertificateSize = 1 << 20

// ConfigHandler cadastro do emitente e upload do certificado A1.
type ConfigHandler struct {
	uc *fiscal.ConfigUseCase
}

func NewConfigHandler(uc *fiscal.ConfigUseCase) *ConfigHandler {
	return &ConfigHandler{uc: uc}
}

// Get devolve a configuração ativa (sem o material do certificado).
// GET /api/v1/fiscal/config
func (h *ConfigHandler) Get(c *fiber.Ctx) error {
	cfg, err := h.uc.Get(c.Context())
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.NewFiscalConfigResponse(cfg))
}

// Save cria ou atualiza a configuração do emitente.
// PUT /api/v1/fiscal/config
func (h *ConfigHandler) Save(c *fiber.Ctx) error {
	var in dto.FiscalConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}

	cfg := in.ToEntity()
	if err := h.uc.Save(c.Context(), cfg); err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.NewFiscalConfigResponse(cfg))
}

// UploadCertificate recebe o .pfx/.p12 via multipart (campos: certificate, password).
// POST /api/v1/fiscal/config/certificate
func (h *ConfigHandler) UploadCertificate(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("certificate")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "campo multipart 'certificate' obrigatório"})
	}
	if fileHeader.Size > maxCertificateSize {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "certificado excede o tamanho máximo (1 MB)"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "não foi possível ler o arquivo"})
	}
	defer f.Close()

	p12Data, err := io.ReadAll(io.LimitReader(f, maxCertificateSize))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "não foi possível ler o arquivo"})
	}

	password := c.FormValue("password")
	validade, err := h.uc.UploadCertificate(c.Context(), p12Data, password)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.CertificateUploadResponse{Validade: validade})
}
