package entity

import "time"

// Status do documento fiscal perante a SEFAZ. As transições só andam para
// frente: PENDENTE é o estado inicial e os demais são terminais.
const (
	FiscalStatusPendente       = "PENDENTE"        // Registrado, aguardando transmissão
	FiscalStatusAutorizada     = "AUTORIZADA"      // Autorizado pela SEFAZ (cStat 100)
	FiscalStatusRejeitada      = "REJEITADA"       // Rejeitado pela SEFAZ (cStat de rejeição)
	FiscalStatusCancelada      = "CANCELADA"       // Cancelado após autorização
	FiscalStatusSemCertificado = "SEM_CERTIFICADO" // Emitido sem certificado: XML gerado, não transmitido
	FiscalStatusTimeout        = "TIMEOUT"         // Polling do recibo esgotado com o lote ainda em processamento
	FiscalStatusErro           = "ERRO"            // Falha de geração, assinatura ou comunicação
)

// FiscalDocument representa uma NF-e (modelo 55) ou NFC-e (modelo 65) emitida
// a partir de uma venda. A chave de acesso é única.
type FiscalDocument struct {
	ID          string
	SaleID      string
	Modelo      string // "55" ou "65"
	Serie       int
	Numero      int64
	ChaveAcesso string
	Status      string
	Protocolo   string // Número do protocolo de autorização
	CStat       string // Código de status SEFAZ da última resposta
	Motivo      string // xMotivo da última resposta
	XMLPath     string // Localizador do XML no storage
	PDFPath     string // Localizador do PDF no storage
	QRCodeURL   string // URL de consulta do QR Code (NFC-e)
	Ambiente    string // "1" ou "2"
	EmitidaEm   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsSuccessful indica emissão bem-sucedida do ponto de vista do PDV:
// autorizada pela SEFAZ ou gerada sem certificado (contingência de cadastro).
func (d *FiscalDocument) IsSuccessful() bool {
	return d.Status == FiscalStatusAutorizada || d.Status == FiscalStatusSemCertificado
}

// IsTerminal indica se o status não admite nova transmissão.
func (d *FiscalDocument) IsTerminal() bool {
	return d.Status != FiscalStatusPendente
}
