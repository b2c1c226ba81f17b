// Package nfe contém catálogos e constantes do layout 4.00 da NF-e/NFC-e
// (Manual de Orientação do Contribuinte, SEFAZ).
package nfe

// =============================================================================
// Modelos de documento fiscal
// =============================================================================

const (
	ModeloNFe  = "55" // Nota Fiscal Eletrônica
	ModeloNFCe = "65" // Nota Fiscal de Consumidor Eletrônica
)

// =============================================================================
// Ambiente de emissão (tpAmb)
// =============================================================================

const (
	AmbienteProducao    = "1"
	AmbienteHomologacao = "2"
)

// =============================================================================
// Tipo de emissão (tpEmis) - somente emissão normal é suportada
// =============================================================================

const (
	TpEmisNormal = "1"
)

// =============================================================================
// Códigos IBGE das UFs (cUF da chave de acesso)
// =============================================================================

var UFCodes = map[string]string{
	"AC": "12", "AL": "27", "AP": "16", "AM": "13", "BA": "29",
	"CE": "23", "DF": "53", "ES": "32", "GO": "52", "MA": "21",
	"MT": "51", "MS": "50", "MG": "31", "PA": "15", "PB": "25",
	"PR": "41", "PE": "26", "PI": "22", "RJ": "33", "RN": "24",
	"RS": "43", "RO": "11", "RR": "14", "SC": "42", "SP": "35",
	"SE": "28", "TO": "17",
}

// UFCode devolve o código IBGE da sigla; SP quando a sigla é desconhecida.
func UFCode(uf string) string {
	if code, ok := UFCodes[uf]; ok {
		return code
	}
	return UFCodes["SP"]
}

// =============================================================================
// Formas de pagamento (tPag, tabela do grupo YA)
// =============================================================================

const (
	PagDinheiro        = "01"
	PagCheque          = "02"
	PagCartaoCredito   = "03"
	PagCartaoDebito    = "04"
	PagCreditoLoja     = "05"
	PagValeAlimentacao = "10"
	PagBoleto          = "15"
	PagPIX             = "17"
	PagTransferencia   = "18"
	PagSemPagamento    = "90"
	PagOutros          = "99"
)

// ValidPaymentCodes formas de pagamento aceitas no grupo pag.
var ValidPaymentCodes = map[string]bool{
	PagDinheiro: true, PagCheque: true, PagCartaoCredito: true,
	PagCartaoDebito: true, PagCreditoLoja: true, PagValeAlimentacao: true,
	PagBoleto: true, PagPIX: true, PagTransferencia: true,
	PagSemPagamento: true, PagOutros: true,
}

// =============================================================================
// Regimes tributários (CRT)
// =============================================================================

const (
	CRTSimplesNacional         = "1"
	CRTSimplesExcessoSublimite = "2"
	CRTRegimeNormal            = "3"
)

// =============================================================================
// CFOPs padrão para venda presencial
// =============================================================================

const (
	CFOPVendaDentroEstado = "5102" // Venda de mercadoria adquirida de terceiros
	CFOPVendaConsumidor   = "5405" // Venda sujeita a substituição tributária
)

// DefaultNCM NCM genérico usado quando o produto não possui classificação.
const DefaultNCM = "00000000"
