// Portos da camada de aplicação fiscal: interfaces estreitas sobre a
// infraestrutura, para que o orquestrador e as consultas sejam testáveis
// com fakes.

package fiscal

import (
	"context"
	"time"

	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
	infranfe "github.com/jrrjunior25/erp-pdv/internal/infrastructure/nfe"
	"github.com/jrrjunior25/erp-pdv/internal/infrastructure/sefaz"
)

// XMLBuilder monta o XML da NF-e/NFC-e layout 4.00 e devolve a chave de acesso.
type XMLBuilder interface {
	Build(ctx *infranfe.BuildContext) (*infranfe.BuildResult, error)
}

// Transmitter envia o lote assinado à SEFAZ e consulta o status do serviço.
// Falhas de comunicação viram resultado com CommError=true, nunca erro solto.
type Transmitter interface {
	Authorize(ctx context.Context, signedXML []byte, uf, ambiente string) (*sefaz.AuthorizationResult, error)
	ServiceStatus(ctx context.Context, uf, ambiente string) (*sefaz.StatusResult, error)
}

// FileStore persiste e recupera os artefatos da emissão (XML e PDF).
type FileStore interface {
	SaveXML(chave, ambiente string, data []byte, emitidaEm time.Time) (string, error)
	SavePDF(chave, ambiente string, data []byte, emitidaEm time.Time) (string, error)
	Load(locator string) ([]byte, error)
	Exists(locator string) bool
	ListByPeriod(kind, ambiente string, year int, month time.Month) ([]string, error)
}

// DocumentPDFGenerator gera o documento auxiliar (DANFE / cupom NFC-e).
type DocumentPDFGenerator interface {
	Generate(ctx context.Context, doc *entity.FiscalDocument, sale *entity.Sale, emitente *entity.FiscalConfig) ([]byte, error)
}

// CertificateProber valida um blob PKCS#12 e devolve a validade do
// certificado, sem expor a chave privada à camada de aplicação.
type CertificateProber interface {
	Validity(p12Data []byte, password string) (time.Time, error)
}
