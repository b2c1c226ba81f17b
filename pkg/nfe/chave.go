// Package nfe: cálculo e validação da chave de acesso NF-e/NFC-e (layout 4.00).
// A chave tem 44 dígitos: cUF(2) + AAMM(4) + CNPJ(14) + mod(2) + serie(3) +
// nNF(9) + tpEmis(1) + cNF(8) + cDV(1). O dígito verificador usa módulo 11
// com pesos cíclicos de 2 a 9, aplicados da direita para a esquerda.

package nfe

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// AccessKeyLength é o tamanho fixo da chave de acesso.
const AccessKeyLength = 44

// ChaveParams contém os dados para montar a chave de acesso.
type ChaveParams struct {
	UFCode  string    // Código IBGE da UF (2 dígitos, ex. "35" = SP)
	CNPJ    string    // CNPJ do emitente (com ou sem pontuação)
	Modelo  string    // "55" = NF-e, "65" = NFC-e
	Serie   int       // Série do documento (0-999)
	Numero  int64     // Número do documento (1-999999999)
	TpEmis  string    // Tipo de emissão ("1" = normal)
	CNF     string    // Código numérico de 8 dígitos; vazio = gerado aleatório
	Emissao time.Time // Data de emissão (define AAMM)
}

// ChaveComponents são os campos extraídos de uma chave válida.
type ChaveComponents struct {
	UFCode string
	AAMM   string
	CNPJ   string
	Modelo string
	Serie  string
	Numero string
	TpEmis string
	CNF    string
	DV     string
}

// BuildAccessKey monta a chave de acesso de 44 dígitos com DV calculado.
func BuildAccessKey(p ChaveParams) (string, error) {
	cnpj := OnlyDigits(p.CNPJ)
	if len(cnpj) != 14 {
		return "", fmt.Errorf("nfe: CNPJ do emitente deve ter 14 dígitos, possui %d", len(cnpj))
	}
	if len(p.UFCode) != 2 || !isDigits(p.UFCode) {
		return "", fmt.Errorf("nfe: código da UF inválido: %q", p.UFCode)
	}
	if p.Modelo != ModeloNFe && p.Modelo != ModeloNFCe {
		return "", fmt.Errorf("nfe: modelo inválido: %q (esperado 55 ou 65)", p.Modelo)
	}
	if p.Serie < 0 || p.Serie > 999 {
		return "", fmt.Errorf("nfe: série fora do intervalo 0-999: %d", p.Serie)
	}
	if p.Numero < 1 || p.Numero > 999_999_999 {
		return "", fmt.Errorf("nfe: número do documento fora do intervalo 1-999999999: %d", p.Numero)
	}
	tpEmis := p.TpEmis
	if tpEmis == "" {
		tpEmis = TpEmisNormal
	}
	if len(tpEmis) != 1 || !isDigits(tpEmis) {
		return "", fmt.Errorf("nfe: tpEmis inválido: %q", p.TpEmis)
	}
	cnf := p.CNF
	if cnf == "" {
		var err error
		cnf, err = randomCNF()
		if err != nil {
			return "", fmt.Errorf("nfe: falha ao gerar cNF: %w", err)
		}
	}
	if len(cnf) != 8 || !isDigits(cnf) {
		return "", fmt.Errorf("nfe: cNF deve ter 8 dígitos: %q", p.CNF)
	}
	emissao := p.Emissao
	if emissao.IsZero() {
		emissao = time.Now()
	}

	base := fmt.Sprintf("%s%s%s%s%03d%09d%s%s",
		p.UFCode,
		emissao.Format("0601"), // AAMM
		cnpj,
		p.Modelo,
		p.Serie,
		p.Numero,
		tpEmis,
		cnf,
	)
	dv, err := CheckDigit(base)
	if err != nil {
		return "", err
	}
	return base + string(dv), nil
}

// CheckDigit calcula o dígito verificador módulo 11 dos 43 primeiros dígitos.
// Pesos de 2 a 9 em ciclo, da direita para a esquerda. Resto < 2 resulta em 0;
// caso contrário o DV é 11 menos o resto.
func CheckDigit(base string) (byte, error) {
	if len(base) != AccessKeyLength-1 {
		return 0, fmt.Errorf("nfe: base da chave deve ter 43 dígitos, possui %d", len(base))
	}
	if !isDigits(base) {
		return 0, fmt.Errorf("nfe: base da chave contém caracteres não numéricos")
	}
	weight := 2
	var sum int
	for i := len(base) - 1; i >= 0; i-- {
		sum += int(base[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	remainder := sum % 11
	if remainder < 2 {
		return '0', nil
	}
	return byte('0' + (11 - remainder)), nil
}

// ValidateAccessKey verifica tamanho, conteúdo numérico e DV da chave.
func ValidateAccessKey(key string) error {
	if len(key) != AccessKeyLength {
		return fmt.Errorf("nfe: chave de acesso deve ter %d dígitos, possui %d", AccessKeyLength, len(key))
	}
	if !isDigits(key) {
		return fmt.Errorf("nfe: chave de acesso contém caracteres não numéricos")
	}
	dv, err := CheckDigit(key[:AccessKeyLength-1])
	if err != nil {
		return err
	}
	if key[AccessKeyLength-1] != dv {
		return fmt.Errorf("nfe: dígito verificador inválido: esperado %c, recebido %c", dv, key[AccessKeyLength-1])
	}
	return nil
}

// ParseAccessKey valida a chave e devolve os componentes posicionais.
func ParseAccessKey(key string) (*ChaveComponents, error) {
	if err := ValidateAccessKey(key); err != nil {
		return nil, err
	}
	return &ChaveComponents{
		UFCode: key[0:2],
		AAMM:   key[2:6],
		CNPJ:   key[6:20],
		Modelo: key[20:22],
		Serie:  key[22:25],
		Numero: key[25:34],
		TpEmis: key[34:35],
		CNF:    key[35:43],
		DV:     key[43:44],
	}, nil
}

// OnlyDigits remove tudo que não for dígito 0-9.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func randomCNF() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}
