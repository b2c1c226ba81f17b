package entity

import "time"

// FiscalConfig é o cadastro do emitente: dados cadastrais, certificado A1,
// CSC e chave PIX. Existe no máximo um registro ativo por instalação.
type FiscalConfig struct {
	ID           string
	CNPJ         string
	RazaoSocial  string
	NomeFantasia string
	IE           string // Inscrição Estadual
	CRT          string // Código de Regime Tributário ("1" = Simples Nacional)

	// Endereço do emitente (grupo enderEmit do XML).
	Logradouro   string
	Numero       string
	Bairro       string
	Municipio    string
	CodMunicipio string // Código IBGE do município (cMunFG)
	UF           string
	CEP          string

	// Ambiente e séries.
	Ambiente  string // "1" produção, "2" homologação
	SerieNFCe int
	SerieNFe  int

	// CSC para o QR Code da NFC-e.
	CSCID    string
	CSCToken string

	// Certificado digital A1 (PKCS#12) e validade.
	CertificadoP12   []byte
	CertificadoSenha string
	CertValidade     time.Time

	// PIX.
	PixChave    string
	PixMerchant string // Nome do recebedor no BR Code (máx. 25)
	PixCidade   string // Cidade do recebedor (máx. 15)

	Ativo     bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCertificate indica se há certificado A1 carregado para assinatura.
func (c *FiscalConfig) HasCertificate() bool {
	return len(c.CertificadoP12) > 0 && c.CertificadoSenha != ""
}

// CertificateExpired indica se o certificado está vencido na data dada.
func (c *FiscalConfig) CertificateExpired(now time.Time) bool {
	return !c.CertValidade.IsZero() && now.After(c.CertValidade)
}
