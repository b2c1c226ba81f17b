package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jrrjunior25/erp-pdv/internal/application/dto"
	"github.com/jrrjunior25/erp-pdv/internal/application/fiscal"
	"github.com/jrrjunior25/erp-pdv/internal/domain"
	infranfe "github.com/jrrjunior25/erp-pdv/internal/infrastructure/nfe"
)

// FiscalHandler atende as rotas de emissão e consulta de documentos fiscais
// (protegido por JWT).
type FiscalHandler struct {
	orch    *fiscal.Orchestrator
	queries *fiscal.QueryService
	pix     *fiscal.PixUseCase
}

// NewFiscalHandler constrói o handler.
func NewFiscalHandler(orch *fiscal.Orchestrator, queries *fiscal.QueryService, pix *fiscal.PixUseCase) *FiscalHandler {
	return &FiscalHandler{orch: orch, queries: queries, pix: pix}
}

// EmitNFCe emite a NFC-e (modelo 65) da venda.
// POST /api/v1/fiscal/nfce/:saleId
func (h *FiscalHandler) EmitNFCe(c *fiber.Ctx) error {
	saleID := c.Params("saleId")
	if saleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "saleId obrigatório"})
	}
	res, err := h.orch.EmitNFCe(c.Context(), saleID)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// EmitNFe emite a NF-e (modelo 55) da venda; corpo opcional com destinatário
// completo, transporte, parcelas da cobrança e observações.
// POST /api/v1/fiscal/nfe/:saleId
func (h *FiscalHandler) EmitNFe(c *fiber.Ctx) error {
	saleID := c.Params("saleId")
	if saleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "saleId obrigatório"})
	}

	var opts *fiscal.NFeOptions
	if len(c.Body()) > 0 {
		var in dto.EmitNFeRequest
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
		}
		opts = &fiscal.NFeOptions{Observacoes: in.Observacoes}
		if in.Dest != nil {
			opts.Dest = nfeRecipient(in.Dest)
		}
		if in.Transporte != nil {
			opts.Transporte = &infranfe.Transport{
				ModFrete: in.Transporte.ModFrete,
				CNPJ:     in.Transporte.CNPJ,
				Nome:     in.Transporte.Nome,
				IE:       in.Transporte.IE,
			}
		}
		dups, err := nfeDuplicatas(in.Duplicatas)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		opts.Duplicatas = dups
	}

	res, err := h.orch.EmitNFe(c.Context(), saleID, opts)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// nfeRecipient converte o destinatário do corpo para o grupo dest/enderDest.
func nfeRecipient(in *dto.NFeDestRequest) *infranfe.Recipient {
	dest := &infranfe.Recipient{Documento: in.Documento, Nome: in.Nome, IE: in.IE}
	if in.Logradouro != "" || in.Municipio != "" || in.CodMunicipio != "" {
		dest.Endereco = &infranfe.RecipientAddress{
			Logradouro:   in.Logradouro,
			Numero:       in.Numero,
			Bairro:       in.Bairro,
			Municipio:    in.Municipio,
			CodMunicipio: in.CodMunicipio,
			UF:           in.UF,
			CEP:          in.CEP,
		}
	}
	return dest
}

func nfeDuplicatas(in []dto.NFeDuplicataRequest) ([]infranfe.Duplicata, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]infranfe.Duplicata, 0, len(in))
	for i, d := range in {
		venc, err := time.Parse("2006-01-02", d.Vencimento)
		if err != nil {
			return nil, fmt.Errorf("duplicata %d: vencimento inválido (use AAAA-MM-DD)", i+1)
		}
		valor, err := decimal.NewFromString(d.Valor)
		if err != nil || !valor.IsPositive() {
			return nil, fmt.Errorf("duplicata %d: valor inválido", i+1)
		}
		out = append(out, infranfe.Duplicata{Vencimento: venc, Valor: valor})
	}
	return out, nil
}

// GeneratePix gera a cobrança BR Code PIX.
// POST /api/v1/fiscal/pix
func (h *FiscalHandler) GeneratePix(c *fiber.Ctx) error {
	var in dto.PixChargeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}

	amount, err := decimal.NewFromString(in.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "amount inválido"})
	}

	charge, err := h.pix.GenerateCharge(c.Context(), fiscal.PixRequest{
		Amount:       amount,
		TxID:         in.TxID,
		SaleID:       in.SaleID,
		Description:  in.Description,
		MerchantName: in.MerchantName,
		MerchantCity: in.MerchantCity,
		PixKey:       in.PixKey,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(charge)
}

// List lista documentos por período.
// GET /api/v1/fiscal/documents?year=2026&month=3&model=65
func (h *FiscalHandler) List(c *fiber.Ctx) error {
	year := c.QueryInt("year")
	month := c.QueryInt("month")
	modelo := c.Query("model")

	docs, err := h.queries.ListByPeriod(c.Context(), year, month, modelo)
	if err != nil {
		return domainError(c, err)
	}

	out := make([]dto.FiscalDocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.NewFiscalDocumentResponse(d))
	}
	return c.JSON(out)
}

// GetByID detalhe do documento.
// GET /api/v1/fiscal/documents/:id
func (h *FiscalHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.queries.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.NewFiscalDocumentResponse(doc))
}

// GetByAccessKey busca por chave de acesso (44 dígitos).
// GET /api/v1/fiscal/documents/key/:accessKey
func (h *FiscalHandler) GetByAccessKey(c *fiber.Ctx) error {
	doc, err := h.queries.GetByAccessKey(c.Context(), c.Params("accessKey"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.NewFiscalDocumentResponse(doc))
}

// DownloadXML devolve o XML do documento.
// GET /api/v1/fiscal/documents/:id/xml
func (h *FiscalHandler) DownloadXML(c *fiber.Ctx) error {
	id := c.Params("id")
	data, err := h.queries.DownloadXML(c.Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/xml")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.xml"`, id))
	return c.Send(data)
}

// DownloadPDF devolve o PDF do documento.
// GET /api/v1/fiscal/documents/:id/pdf
func (h *FiscalHandler) DownloadPDF(c *fiber.Ctx) error {
	id := c.Params("id")
	data, err := h.queries.DownloadPDF(c.Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.pdf"`, id))
	return c.Send(data)
}

// RegeneratePDF gera o PDF de novo a partir do banco.
// POST /api/v1/fiscal/documents/:id/pdf
func (h *FiscalHandler) RegeneratePDF(c *fiber.Ctx) error {
	id := c.Params("id")
	data, err := h.queries.RegeneratePDF(c.Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.pdf"`, id))
	return c.Send(data)
}

// ListArchives lista os artefatos gravados no período.
// GET /api/v1/fiscal/archives?kind=xml&year=2026&month=3
func (h *FiscalHandler) ListArchives(c *fiber.Ctx) error {
	kind := c.Query("kind", "xml")
	locators, err := h.queries.ListArchives(c.Context(), kind, c.QueryInt("year"), c.QueryInt("month"))
	if err != nil {
		return domainError(c, err)
	}
	if locators == nil {
		locators = []string{}
	}
	return c.JSON(locators)
}

// SefazStatus sonda o webservice da SEFAZ da UF configurada.
// GET /api/v1/fiscal/sefaz/status
func (h *FiscalHandler) SefazStatus(c *fiber.Ctx) error {
	st, err := h.queries.SefazStatus(c.Context())
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SefazStatusResponse{Online: st.Online, CStat: st.CStat, Motivo: st.Motivo})
}

// domainError mapeia erros de domínio para status HTTP.
func domainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNoFiscalConfig):
		return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{Code: "NO_FISCAL_CONFIG", Message: "configuração fiscal não cadastrada"})
	case errors.Is(err, domain.ErrSaleAlreadyFiscal), errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrSefazUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SEFAZ_UNAVAILABLE", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
