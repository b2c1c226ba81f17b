package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale é a venda fechada no PDV que origina o documento fiscal.
// A emissão só lê a venda; a escrita de volta se limita à referência fiscal.
type Sale struct {
	ID        string
	Numero    int64
	Cliente   *SaleCustomer // nil = consumidor não identificado
	Items     []SaleItem
	Payments  []SalePayment
	Desconto  decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time

	// Referência fiscal preenchida após a emissão.
	FiscalDocumentID string
	FiscalAccessKey  string
	FiscalStatus     string

	// Cobrança PIX anexada à venda, quando gerada com saleId.
	PixQRCode string
	PixTxID   string
}

// SaleCustomer identificação opcional do consumidor (CPF/CNPJ na nota).
type SaleCustomer struct {
	Documento string // CPF (11 dígitos) ou CNPJ (14 dígitos)
	Nome      string
}

// SaleItem linha da venda.
type SaleItem struct {
	Codigo     string
	Descricao  string
	NCM        string
	CFOP       string
	Unidade    string
	Quantidade decimal.Decimal // 4 casas decimais
	ValorUnit  decimal.Decimal
	Desconto   decimal.Decimal
	Total      decimal.Decimal
}

// SalePayment pagamento da venda (código tPag da tabela do grupo YA).
type SalePayment struct {
	Codigo string
	Valor  decimal.Decimal
}

// HasFiscalDocument indica se a venda já originou documento fiscal.
func (s *Sale) HasFiscalDocument() bool {
	return s.FiscalDocumentID != ""
}
