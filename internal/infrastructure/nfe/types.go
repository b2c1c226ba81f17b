// Package nfe implementa a geração do XML da NF-e/NFC-e layout 4.00
// (Manual de Orientação do Contribuinte, SEFAZ).
package nfe

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
)

// BuildContext contexto com todos os dados necessários para montar o XML da nota.
type BuildContext struct {
	Sale   *entity.Sale
	Config *entity.FiscalConfig

	Modelo  string // "55" ou "65"
	Serie   int
	Numero  int64
	Emissao time.Time

	// Opcionais
	Ambiente string // Se vazio, usa o ambiente da configuração
	CNF      string // Código numérico; vazio = aleatório
	InfAdic  string // Informações complementares (infCpl)

	// Grupos da NF-e (modelo 55) informados na emissão.
	Dest       *Recipient  // Substitui o consumidor da venda no grupo dest
	Transporte *Transport  // modFrete e transportadora (grupo transp)
	Duplicatas []Duplicata // Parcelas da cobrança (grupo cobr/dup)
}

// Recipient destinatário da NF-e com endereço completo (grupo dest/enderDest).
type Recipient struct {
	Documento string // CPF (11 dígitos) ou CNPJ (14 dígitos)
	Nome      string
	IE        string // Inscrição estadual; vazio = não contribuinte (indIEDest 9)
	Endereco  *RecipientAddress
}

// RecipientAddress endereço do destinatário (enderDest).
type RecipientAddress struct {
	Logradouro   string
	Numero       string
	Bairro       string
	Municipio    string
	CodMunicipio string // Código IBGE de 7 dígitos
	UF           string
	CEP          string
}

// Transport grupo transp: modalidade do frete e transportadora opcional.
type Transport struct {
	ModFrete string // 0-emitente, 1-destinatário, 2-terceiros, 9-sem frete
	CNPJ     string
	Nome     string
	IE       string
}

// Duplicata parcela da fatura (grupo cobr/dup).
type Duplicata struct {
	Vencimento time.Time
	Valor      decimal.Decimal
}

// BuildResult resultado da montagem: o XML sem assinatura e a chave de acesso
// efetivamente embutida no atributo Id. A chave é sempre devolvida junto com o
// XML para que nenhuma camada precise reextraí-la do documento.
type BuildResult struct {
	XML       []byte
	AccessKey string
}
