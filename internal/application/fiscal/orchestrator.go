package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jrrjunior25/erp-pdv/internal/domain"
	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
	"github.com/jrrjunior25/erp-pdv/internal/domain/repository"
	infranfe "github.com/jrrjunior25/erp-pdv/internal/infrastructure/nfe"
	"github.com/jrrjunior25/erp-pdv/internal/infrastructure/sefaz"
	"github.com/jrrjunior25/erp-pdv/pkg/logger"
	"github.com/jrrjunior25/erp-pdv/pkg/nfe"
)

// EmissionResult é o desfecho tipado da emissão. A camada HTTP e o PDV
// decidem o que mostrar ao operador só a partir dele: uma rejeição ou um
// timeout da SEFAZ não é um erro Go, é um resultado.
type EmissionResult struct {
	Success    bool   `json:"success"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DocumentID string `json:"documentId"`
	Modelo     string `json:"modelo"`
	Serie      int    `json:"serie"`
	Numero     int64  `json:"numero"`
	AccessKey  string `json:"accessKey"`
	Protocolo  string `json:"protocolo,omitempty"`
	QRCodeURL  string `json:"qrCodeUrl,omitempty"`
	XMLPath    string `json:"xmlPath,omitempty"`
	PDFPath    string `json:"pdfPath,omitempty"`
}

// Orchestrator orquestra o ciclo completo de emissão:
//
//	venda → número da série → XML 4.00 → assinatura → SEFAZ → artefatos → DB
//
// Todo caminho termina com o documento em estado terminal no banco e a
// referência fiscal gravada na venda; falhas da SEFAZ nunca derrubam a venda.
type Orchestrator struct {
	sales       repository.SaleRepository
	documents   repository.FiscalDocumentRepository
	allocator   repository.SeriesAllocator
	configCache *ConfigCache
	builder     XMLBuilder
	certLoader  nfe.CertificateLoader
	signer      nfe.Signer
	transmitter Transmitter
	store       FileStore
	pdf         DocumentPDFGenerator
	log         *logger.Logger
}

// NewOrchestrator constrói o orquestrador com todas as dependências.
func NewOrchestrator(
	sales repository.SaleRepository,
	documents repository.FiscalDocumentRepository,
	allocator repository.SeriesAllocator,
	configCache *ConfigCache,
	builder XMLBuilder,
	certLoader nfe.CertificateLoader,
	signer nfe.Signer,
	transmitter Transmitter,
	store FileStore,
	pdf DocumentPDFGenerator,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		sales:       sales,
		documents:   documents,
		allocator:   allocator,
		configCache: configCache,
		builder:     builder,
		certLoader:  certLoader,
		signer:      signer,
		transmitter: transmitter,
		store:       store,
		pdf:         pdf,
		log:         log,
	}
}

// NFeOptions dados da NF-e que não vêm da venda: destinatário completo,
// transporte, parcelamento da cobrança e observações (infCpl).
type NFeOptions struct {
	Dest        *infranfe.Recipient
	Transporte  *infranfe.Transport
	Duplicatas  []infranfe.Duplicata
	Observacoes string
}

// EmitNFCe emite uma NFC-e (modelo 65) para a venda. Consumidor identificado
// só se a venda tiver CPF/CNPJ.
func (o *Orchestrator) EmitNFCe(ctx context.Context, saleID string) (*EmissionResult, error) {
	return o.emit(ctx, saleID, nfe.ModeloNFCe, nil)
}

// EmitNFe emite uma NF-e (modelo 55). O destinatário das opções, quando
// informado, substitui o consumidor da venda (NF-e exige destinatário
// identificado).
func (o *Orchestrator) EmitNFe(ctx context.Context, saleID string, opts *NFeOptions) (*EmissionResult, error) {
	return o.emit(ctx, saleID, nfe.ModeloNFe, opts)
}

// emit é o núcleo síncrono do pipeline. Erros de pré-condição (venda
// inexistente, já documentada, sem configuração) voltam como erro Go antes de
// qualquer linha no banco; depois que o documento PENDENTE existe, toda falha
// vira estado terminal persistido + EmissionResult.
func (o *Orchestrator) emit(ctx context.Context, saleID, modelo string, opts *NFeOptions) (*EmissionResult, error) {
	// ═══════════════════════════════════════════════════════════════════════
	// 1. Venda e pré-condições
	// ═══════════════════════════════════════════════════════════════════════
	sale, err := o.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("buscar venda %s: %w", saleID, err)
	}
	if sale.HasFiscalDocument() {
		return nil, fmt.Errorf("%w: venda %s já possui documento %s",
			domain.ErrSaleAlreadyFiscal, saleID, sale.FiscalDocumentID)
	}
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: venda %s sem itens", domain.ErrInvalidInput, saleID)
	}
	var dest *infranfe.Recipient
	if opts != nil && opts.Dest != nil {
		dest = opts.Dest
		sale.Cliente = &entity.SaleCustomer{Documento: dest.Documento, Nome: dest.Nome}
	}
	if modelo == nfe.ModeloNFe && dest == nil && sale.Cliente == nil {
		return nil, fmt.Errorf("%w: NF-e exige destinatário identificado", domain.ErrInvalidInput)
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 2. Configuração do emitente (cache TTL)
	// ═══════════════════════════════════════════════════════════════════════
	cfg, err := o.configCache.Get(ctx)
	if err != nil {
		return nil, err
	}

	serie := cfg.SerieNFCe
	if modelo == nfe.ModeloNFe {
		serie = cfg.SerieNFe
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 3. Número da série (alocação atômica) e XML
	// ═══════════════════════════════════════════════════════════════════════
	numero, err := o.allocator.NextNumber(ctx, modelo, serie)
	if err != nil {
		return nil, fmt.Errorf("alocar número: %w", err)
	}

	emissao := time.Now()
	buildCtx := &infranfe.BuildContext{
		Sale:    sale,
		Config:  cfg,
		Modelo:  modelo,
		Serie:   serie,
		Numero:  numero,
		Emissao: emissao,
		Dest:    dest,
	}
	if opts != nil {
		buildCtx.Transporte = opts.Transporte
		buildCtx.Duplicatas = opts.Duplicatas
		buildCtx.InfAdic = opts.Observacoes
	}
	built, err := o.builder.Build(buildCtx)
	if err != nil {
		return nil, fmt.Errorf("montar XML: %w", err)
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 4. Documento PENDENTE no banco
	// ═══════════════════════════════════════════════════════════════════════
	doc := &entity.FiscalDocument{
		ID:          uuid.NewString(),
		SaleID:      sale.ID,
		Modelo:      modelo,
		Serie:       serie,
		Numero:      numero,
		ChaveAcesso: built.AccessKey,
		Status:      entity.FiscalStatusPendente,
		Ambiente:    cfg.Ambiente,
		EmitidaEm:   emissao,
	}
	if err := o.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("registrar documento: %w", err)
	}

	// markError leva o documento a ERRO e devolve o resultado correspondente.
	markError := func(step, msg string) *EmissionResult {
		o.log.Error().Str("documento", doc.ID).Str("etapa", step).Msg(msg)
		doc.Status = entity.FiscalStatusErro
		doc.Motivo = msg
		o.persistOutcome(ctx, doc, sale)
		return o.result(doc, false, msg)
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 5. Sem certificado: guarda o XML não assinado e encerra com sucesso
	// ═══════════════════════════════════════════════════════════════════════
	if !cfg.HasCertificate() {
		doc.Status = entity.FiscalStatusSemCertificado
		doc.XMLPath = o.storeXML(doc, built.XML)
		o.persistOutcome(ctx, doc, sale)
		o.log.Warn().Str("documento", doc.ID).Str("chave", doc.ChaveAcesso).
			Msg("emitido sem certificado digital; XML não transmitido à SEFAZ")
		return o.result(doc, true, "documento gerado sem certificado digital; transmissão pendente de cadastro"), nil
	}

	if cfg.CertificateExpired(emissao) {
		return markError("certificado", "certificado digital vencido em "+cfg.CertValidade.Format("02/01/2006")), nil
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 6. Assinatura XML-DSig
	// ═══════════════════════════════════════════════════════════════════════
	cert, err := o.certLoader.Load(cfg.CertificadoP12, cfg.CertificadoSenha)
	if err != nil {
		return markError("certificado", err.Error()), nil
	}

	signedXML, err := o.signer.Sign(built.XML, built.AccessKey, cert)
	if err != nil {
		return markError("assinatura", err.Error()), nil
	}

	doc.XMLPath = o.storeXML(doc, signedXML)

	// ═══════════════════════════════════════════════════════════════════════
	// 7. Transmissão à SEFAZ
	// ═══════════════════════════════════════════════════════════════════════
	res, err := o.transmitter.Authorize(ctx, signedXML, cfg.UF, cfg.Ambiente)
	if err != nil {
		// Só cancelamento de contexto chega aqui; falha de rede vira CommError.
		return markError("transmissao", err.Error()), nil
	}

	switch {
	case res.Authorized:
		doc.Status = entity.FiscalStatusAutorizada
		doc.Protocolo = res.Protocolo
		doc.CStat = res.CStat
		doc.Motivo = res.Motivo
		if modelo == nfe.ModeloNFCe {
			doc.QRCodeURL = sefaz.QRCodeURL(cfg.UF, cfg.Ambiente, doc.ChaveAcesso)
		}
		doc.PDFPath = o.storePDF(ctx, doc, sale, cfg)
		o.persistOutcome(ctx, doc, sale)
		o.log.Info().Str("documento", doc.ID).Str("chave", doc.ChaveAcesso).
			Str("protocolo", doc.Protocolo).Msg("documento autorizado pela SEFAZ")
		return o.result(doc, true, res.Motivo), nil

	case res.Timeout:
		doc.Status = entity.FiscalStatusTimeout
		doc.CStat = res.CStat
		doc.Motivo = "lote em processamento; consultas ao recibo esgotadas"
		doc.Protocolo = res.Recibo
		o.persistOutcome(ctx, doc, sale)
		return o.result(doc, false, doc.Motivo), nil

	case res.CommError:
		return markError("transmissao", res.Motivo), nil

	default:
		doc.Status = entity.FiscalStatusRejeitada
		doc.CStat = res.CStat
		doc.Motivo = res.Motivo
		o.persistOutcome(ctx, doc, sale)
		o.log.Warn().Str("documento", doc.ID).Str("cStat", doc.CStat).
			Str("motivo", doc.Motivo).Msg("documento rejeitado pela SEFAZ")
		return o.result(doc, false, fmt.Sprintf("rejeitado (cStat %s): %s", doc.CStat, doc.Motivo)), nil
	}
}

// storeXML grava o XML no storage; falha é logada e não interrompe a emissão
// (a linha do banco é a fonte da verdade).
func (o *Orchestrator) storeXML(doc *entity.FiscalDocument, data []byte) string {
	locator, err := o.store.SaveXML(doc.ChaveAcesso, doc.Ambiente, data, doc.EmitidaEm)
	if err != nil {
		o.log.Error().Str("documento", doc.ID).Err(err).Msg("falha ao gravar XML no storage")
		return ""
	}
	return locator
}

// storePDF gera e grava o documento auxiliar; melhor esforço.
func (o *Orchestrator) storePDF(ctx context.Context, doc *entity.FiscalDocument, sale *entity.Sale, cfg *entity.FiscalConfig) string {
	pdfBytes, err := o.pdf.Generate(ctx, doc, sale, cfg)
	if err != nil {
		o.log.Error().Str("documento", doc.ID).Err(err).Msg("falha ao gerar PDF")
		return ""
	}
	locator, err := o.store.SavePDF(doc.ChaveAcesso, doc.Ambiente, pdfBytes, doc.EmitidaEm)
	if err != nil {
		o.log.Error().Str("documento", doc.ID).Err(err).Msg("falha ao gravar PDF no storage")
		return ""
	}
	return locator
}

// persistOutcome grava o estado final do documento e a referência fiscal na
// venda. Erros aqui são logados: o resultado da SEFAZ já aconteceu e não pode
// ser desfeito.
func (o *Orchestrator) persistOutcome(ctx context.Context, doc *entity.FiscalDocument, sale *entity.Sale) {
	if err := o.documents.Update(ctx, doc); err != nil {
		o.log.Error().Str("documento", doc.ID).Err(err).Msg("falha ao persistir estado final do documento")
	}
	if err := o.sales.SetFiscalReference(ctx, sale.ID, doc.ID, doc.ChaveAcesso, doc.Status); err != nil {
		o.log.Error().Str("venda", sale.ID).Err(err).Msg("falha ao gravar referência fiscal na venda")
	}
}

func (o *Orchestrator) result(doc *entity.FiscalDocument, success bool, msg string) *EmissionResult {
	return &EmissionResult{
		Success:    success,
		Status:     doc.Status,
		Message:    msg,
		DocumentID: doc.ID,
		Modelo:     doc.Modelo,
		Serie:      doc.Serie,
		Numero:     doc.Numero,
		AccessKey:  doc.ChaveAcesso,
		Protocolo:  doc.Protocolo,
		QRCodeURL:  doc.QRCodeURL,
		XMLPath:    doc.XMLPath,
		PDFPath:    doc.PDFPath,
	}
}
