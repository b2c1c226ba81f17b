package dto

import (
	"time"

	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
)

// EmitNFeRequest corpo opcional da emissão de NF-e: destinatário completo,
// transporte, parcelamento da cobrança e observações.
type EmitNFeRequest struct {
	Dest        *NFeDestRequest       `json:"dest,omitempty"`
	Transporte  *NFeTransporteRequest `json:"transporte,omitempty"`
	Duplicatas  []NFeDuplicataRequest `json:"duplicatas,omitempty"`
	Observacoes string                `json:"observacoes,omitempty"`
}

// NFeDestRequest destinatário da NF-e; substitui o consumidor da venda.
type NFeDestRequest struct {
	Documento    string `json:"documento"` // CPF ou CNPJ
	Nome         string `json:"nome"`
	IE           string `json:"ie,omitempty"`
	Logradouro   string `json:"logradouro,omitempty"`
	Numero       string `json:"numero,omitempty"`
	Bairro       string `json:"bairro,omitempty"`
	Municipio    string `json:"municipio,omitempty"`
	CodMunicipio string `json:"codMunicipio,omitempty"`
	UF           string `json:"uf,omitempty"`
	CEP          string `json:"cep,omitempty"`
}

// NFeTransporteRequest modalidade do frete e transportadora opcional.
type NFeTransporteRequest struct {
	ModFrete string `json:"modFrete"` // 0-emitente, 1-destinatário, 2-terceiros, 9-sem frete
	CNPJ     string `json:"cnpj,omitempty"`
	Nome     string `json:"nome,omitempty"`
	IE       string `json:"ie,omitempty"`
}

// NFeDuplicataRequest parcela da cobrança (grupo cobr/dup).
type NFeDuplicataRequest struct {
	Vencimento string `json:"vencimento"` // AAAA-MM-DD
	Valor      string `json:"valor"`
}

// PixChargeRequest pedido de cobrança PIX. Os campos além de amount são
// opcionais: saleId anexa a cobrança à venda; os demais sobrepõem os padrões
// da configuração fiscal.
type PixChargeRequest struct {
	Amount       string `json:"amount"`
	TxID         string `json:"txId,omitempty"`
	SaleID       string `json:"saleId,omitempty"`
	CustomerName string `json:"customerName,omitempty"` // exibição no PDV; não entra no payload
	Description  string `json:"description,omitempty"`
	MerchantName string `json:"merchantName,omitempty"`
	MerchantCity string `json:"merchantCity,omitempty"`
	PixKey       string `json:"pixKey,omitempty"`
}

// FiscalDocumentResponse visão externa do documento fiscal.
type FiscalDocumentResponse struct {
	ID          string    `json:"id"`
	SaleID      string    `json:"saleId"`
	Modelo      string    `json:"modelo"`
	Serie       int       `json:"serie"`
	Numero      int64     `json:"numero"`
	ChaveAcesso string    `json:"chaveAcesso"`
	Status      string    `json:"status"`
	Protocolo   string    `json:"protocolo,omitempty"`
	CStat       string    `json:"cStat,omitempty"`
	Motivo      string    `json:"motivo,omitempty"`
	QRCodeURL   string    `json:"qrCodeUrl,omitempty"`
	Ambiente    string    `json:"ambiente"`
	EmitidaEm   time.Time `json:"emitidaEm"`
}

// NewFiscalDocumentResponse converte a entidade para a resposta da API.
func NewFiscalDocumentResponse(d *entity.FiscalDocument) FiscalDocumentResponse {
	return FiscalDocumentResponse{
		ID:          d.ID,
		SaleID:      d.SaleID,
		Modelo:      d.Modelo,
		Serie:       d.Serie,
		Numero:      d.Numero,
		ChaveAcesso: d.ChaveAcesso,
		Status:      d.Status,
		Protocolo:   d.Protocolo,
		CStat:       d.CStat,
		Motivo:      d.Motivo,
		QRCodeURL:   d.QRCodeURL,
		Ambiente:    d.Ambiente,
		EmitidaEm:   d.EmitidaEm,
	}
}

// FiscalConfigRequest cadastro/atualização do emitente. O certificado tem
// endpoint próprio (upload multipart).
type FiscalConfigRequest struct {
	CNPJ         string `json:"cnpj"`
	RazaoSocial  string `json:"razaoSocial"`
	NomeFantasia string `json:"nomeFantasia"`
	IE           string `json:"ie"`
	CRT          string `json:"crt"`
	Logradouro   string `json:"logradouro"`
	Numero       string `json:"numero"`
	Bairro       string `json:"bairro"`
	Municipio    string `json:"municipio"`
	CodMunicipio string `json:"codMunicipio"`
	UF           string `json:"uf"`
	CEP          string `json:"cep"`
	Ambiente     string `json:"ambiente"`
	SerieNFCe    int    `json:"serieNfce"`
	SerieNFe     int    `json:"serieNfe"`
	CSCID        string `json:"cscId"`
	CSCToken     string `json:"cscToken"`
	PixChave     string `json:"pixChave"`
	PixMerchant  string `json:"pixMerchant"`
	PixCidade    string `json:"pixCidade"`
}

// ToEntity converte o pedido em entidade (sem o certificado).
func (r FiscalConfigRequest) ToEntity() *entity.FiscalConfig {
	return &entity.FiscalConfig{
		CNPJ:         r.CNPJ,
		RazaoSocial:  r.RazaoSocial,
		NomeFantasia: r.NomeFantasia,
		IE:           r.IE,
		CRT:          r.CRT,
		Logradouro:   r.Logradouro,
		Numero:       r.Numero,
		Bairro:       r.Bairro,
		Municipio:    r.Municipio,
		CodMunicipio: r.CodMunicipio,
		UF:           r.UF,
		CEP:          r.CEP,
		Ambiente:     r.Ambiente,
		SerieNFCe:    r.SerieNFCe,
		SerieNFe:     r.SerieNFe,
		CSCID:        r.CSCID,
		CSCToken:     r.CSCToken,
		PixChave:     r.PixChave,
		PixMerchant:  r.PixMerchant,
		PixCidade:    r.PixCidade,
	}
}

// FiscalConfigResponse visão externa do cadastro do emitente.
// O blob e a senha do certificado nunca saem pela API; só a validade.
type FiscalConfigResponse struct {
	CNPJ           string     `json:"cnpj"`
	RazaoSocial    string     `json:"razaoSocial"`
	NomeFantasia   string     `json:"nomeFantasia,omitempty"`
	IE             string     `json:"ie"`
	CRT            string     `json:"crt"`
	Logradouro     string     `json:"logradouro"`
	Numero         string     `json:"numero"`
	Bairro         string     `json:"bairro"`
	Municipio      string     `json:"municipio"`
	CodMunicipio   string     `json:"codMunicipio"`
	UF             string     `json:"uf"`
	CEP            string     `json:"cep"`
	Ambiente       string     `json:"ambiente"`
	SerieNFCe      int        `json:"serieNfce"`
	SerieNFe       int        `json:"serieNfe"`
	CSCID          string     `json:"cscId,omitempty"`
	PixChave       string     `json:"pixChave,omitempty"`
	PixMerchant    string     `json:"pixMerchant,omitempty"`
	PixCidade      string     `json:"pixCidade,omitempty"`
	HasCertificate bool       `json:"hasCertificate"`
	CertValidade   *time.Time `json:"certValidade,omitempty"`
}

// NewFiscalConfigResponse converte a entidade ocultando o material sensível.
func NewFiscalConfigResponse(c *entity.FiscalConfig) FiscalConfigResponse {
	resp := FiscalConfigResponse{
		CNPJ:           c.CNPJ,
		RazaoSocial:    c.RazaoSocial,
		NomeFantasia:   c.NomeFantasia,
		IE:             c.IE,
		CRT:            c.CRT,
		Logradouro:     c.Logradouro,
		Numero:         c.Numero,
		Bairro:         c.Bairro,
		Municipio:      c.Municipio,
		CodMunicipio:   c.CodMunicipio,
		UF:             c.UF,
		CEP:            c.CEP,
		Ambiente:       c.Ambiente,
		SerieNFCe:      c.SerieNFCe,
		SerieNFe:       c.SerieNFe,
		CSCID:          c.CSCID,
		PixChave:       c.PixChave,
		PixMerchant:    c.PixMerchant,
		PixCidade:      c.PixCidade,
		HasCertificate: c.HasCertificate(),
	}
	if !c.CertValidade.IsZero() {
		v := c.CertValidade
		resp.CertValidade = &v
	}
	return resp
}

// CertificateUploadResponse resultado do upload do certificado A1.
type CertificateUploadResponse struct {
	Validade time.Time `json:"validade"`
}

// SefazStatusResponse resultado da sonda do webservice.
type SefazStatusResponse struct {
	Online bool   `json:"online"`
	CStat  string `json:"cStat"`
	Motivo string `json:"motivo"`
}
