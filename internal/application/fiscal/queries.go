// Consultas e downloads dos documentos fiscais já emitidos.

package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/jrrjunior25/erp-pdv/internal/domain"
	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
	"github.com/jrrjunior25/erp-pdv/internal/domain/repository"
	"github.com/jrrjunior25/erp-pdv/internal/infrastructure/sefaz"
	"github.com/jrrjunior25/erp-pdv/internal/infrastructure/storage"
	"github.com/jrrjunior25/erp-pdv/pkg/logger"
)

// QueryService consultas de documentos, download de artefatos e sonda da SEFAZ.
type QueryService struct {
	documents   repository.FiscalDocumentRepository
	sales       repository.SaleRepository
	configCache *ConfigCache
	store       FileStore
	pdf         DocumentPDFGenerator
	transmitter Transmitter
	log         *logger.Logger
}

func NewQueryService(
	documents repository.FiscalDocumentRepository,
	sales repository.SaleRepository,
	configCache *ConfigCache,
	store FileStore,
	pdf DocumentPDFGenerator,
	transmitter Transmitter,
	log *logger.Logger,
) *QueryService {
	return &QueryService{
		documents:   documents,
		sales:       sales,
		configCache: configCache,
		store:       store,
		pdf:         pdf,
		transmitter: transmitter,
		log:         log,
	}
}

func (s *QueryService) GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	return s.documents.GetByID(ctx, id)
}

func (s *QueryService) GetByAccessKey(ctx context.Context, chave string) (*entity.FiscalDocument, error) {
	if len(chave) != 44 {
		return nil, fmt.Errorf("%w: chave de acesso deve ter 44 dígitos", domain.ErrInvalidInput)
	}
	return s.documents.GetByAccessKey(ctx, chave)
}

// ListByPeriod documentos emitidos no ano/mês; modelo vazio devolve todos.
func (s *QueryService) ListByPeriod(ctx context.Context, year, month int, modelo string) ([]*entity.FiscalDocument, error) {
	if year < 2000 || month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: período inválido (%d/%d)", domain.ErrInvalidInput, month, year)
	}
	return s.documents.ListByPeriod(ctx, year, month, modelo)
}

// ListArchives lista os localizadores dos artefatos gravados no período, no
// ambiente da configuração ativa. kind é "xml" ou "pdf".
func (s *QueryService) ListArchives(ctx context.Context, kind string, year, month int) ([]string, error) {
	if kind != storage.KindXML && kind != storage.KindPDF {
		return nil, fmt.Errorf("%w: tipo de artefato deve ser %q ou %q", domain.ErrInvalidInput, storage.KindXML, storage.KindPDF)
	}
	if year < 2000 || month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: período inválido (%d/%d)", domain.ErrInvalidInput, month, year)
	}
	cfg, err := s.configCache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListByPeriod(kind, cfg.Ambiente, year, time.Month(month))
}

// DownloadXML devolve o XML persistido do documento.
func (s *QueryService) DownloadXML(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.XMLPath == "" || !s.store.Exists(doc.XMLPath) {
		return nil, fmt.Errorf("%w: documento %s sem XML armazenado", domain.ErrNotFound, id)
	}
	return s.store.Load(doc.XMLPath)
}

// DownloadPDF devolve o PDF persistido do documento.
func (s *QueryService) DownloadPDF(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.PDFPath == "" || !s.store.Exists(doc.PDFPath) {
		return nil, fmt.Errorf("%w: documento %s sem PDF armazenado", domain.ErrNotFound, id)
	}
	return s.store.Load(doc.PDFPath)
}

// RegeneratePDF gera o documento auxiliar de novo a partir do banco e atualiza
// o locator. Útil quando o PDF falhou na emissão ou o layout mudou.
func (s *QueryService) RegeneratePDF(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sale, err := s.sales.GetByID(ctx, doc.SaleID)
	if err != nil {
		return nil, fmt.Errorf("buscar venda do documento: %w", err)
	}
	cfg, err := s.configCache.Get(ctx)
	if err != nil {
		return nil, err
	}

	pdfBytes, err := s.pdf.Generate(ctx, doc, sale, cfg)
	if err != nil {
		return nil, fmt.Errorf("gerar PDF: %w", err)
	}

	locator, err := s.store.SavePDF(doc.ChaveAcesso, doc.Ambiente, pdfBytes, doc.EmitidaEm)
	if err != nil {
		// O PDF foi gerado; só o armazenamento falhou.
		s.log.Error().Str("documento", doc.ID).Err(err).Msg("falha ao gravar PDF regenerado")
		return pdfBytes, nil
	}
	if locator != doc.PDFPath {
		doc.PDFPath = locator
		if err := s.documents.Update(ctx, doc); err != nil {
			s.log.Error().Str("documento", doc.ID).Err(err).Msg("falha ao atualizar locator do PDF")
		}
	}
	return pdfBytes, nil
}

// SefazStatus consulta o status do webservice da SEFAZ da UF configurada.
func (s *QueryService) SefazStatus(ctx context.Context) (*sefaz.StatusResult, error) {
	cfg, err := s.configCache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.transmitter.ServiceStatus(ctx, cfg.UF, cfg.Ambiente)
}
