// Package pix implementa o BR Code PIX estático (padrão EMV® QRCPS-MPM do
// Banco Central, Manual de Padrões para Iniciação do PIX).
// O payload é uma sequência TLV (tag 2 dígitos + tamanho 2 dígitos + valor)
// encerrada pelo CRC-16/CCITT-FALSE no campo 63.
package pix

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultTxID preenchimento EMV do txid quando a cobrança não tem
// identificador ("***").
const DefaultTxID = "***"

// Tags EMV do BR Code.
const (
	tagPayloadFormat      = "00"
	tagMerchantAccount    = "26"
	tagMerchantCategory   = "52"
	tagCurrency           = "53"
	tagAmount             = "54"
	tagCountry            = "58"
	tagMerchantName       = "59"
	tagMerchantCity       = "60"
	tagAdditionalData     = "62"
	tagCRC                = "63"
	subTagGUI             = "00"
	subTagPixKey          = "01"
	subTagDescription     = "02"
	subTagTxID            = "05"
)

// Constantes fixas do arranjo PIX.
const (
	payloadFormatValue = "01"
	pixGUI             = "br.gov.bcb.pix"
	categoryValue      = "0000"
	currencyBRL        = "986" // ISO 4217
	countryBR          = "BR"

	maxMerchantName = 25
	maxMerchantCity = 15
	maxTxID         = 25
	maxDescription  = 25

	// Menor payload plausível: formato + conta + moeda + país + nome +
	// cidade + CRC. Abaixo disso nem vale conferir o CRC.
	minPayloadLen = 50
)

// Params dados para gerar o BR Code estático.
type Params struct {
	PixKey       string          // Chave PIX do recebedor (e-mail, CPF/CNPJ, telefone ou EVP)
	MerchantName string          // Nome do recebedor (normalizado e truncado a 25)
	MerchantCity string          // Cidade (normalizada e truncada a 15)
	Amount       decimal.Decimal // Zero = QR sem valor definido
	TxID         string          // Identificador da transação; vazio = "***"
	Description  string          // Texto livre da cobrança (sub-campo 02 do MAI); opcional
}

// Encode gera o payload BR Code completo com CRC.
func Encode(p Params) (string, error) {
	if strings.TrimSpace(p.PixKey) == "" {
		return "", fmt.Errorf("pix: chave PIX é obrigatória")
	}
	name := Normalize(p.MerchantName, maxMerchantName)
	if name == "" {
		return "", fmt.Errorf("pix: nome do recebedor é obrigatório")
	}
	city := Normalize(p.MerchantCity, maxMerchantCity)
	if city == "" {
		return "", fmt.Errorf("pix: cidade do recebedor é obrigatória")
	}
	txid := SanitizeTxID(p.TxID)

	var b strings.Builder
	b.WriteString(emv(tagPayloadFormat, payloadFormatValue))

	account := emv(subTagGUI, pixGUI) + emv(subTagPixKey, p.PixKey)
	if desc := Normalize(p.Description, maxDescription); desc != "" {
		account += emv(subTagDescription, desc)
	}
	b.WriteString(emv(tagMerchantAccount, account))

	b.WriteString(emv(tagMerchantCategory, categoryValue))
	b.WriteString(emv(tagCurrency, currencyBRL))
	if p.Amount.IsPositive() {
		b.WriteString(emv(tagAmount, p.Amount.Round(2).StringFixed(2)))
	}
	b.WriteString(emv(tagCountry, countryBR))
	b.WriteString(emv(tagMerchantName, name))
	b.WriteString(emv(tagMerchantCity, city))
	b.WriteString(emv(tagAdditionalData, emv(subTagTxID, txid)))

	payload := b.String() + tagCRC + "04"
	return payload + crc16Hex(payload), nil
}

// Validate verifica o formato básico e o CRC do BR Code.
func Validate(code string) error {
	if len(code) < minPayloadLen {
		return fmt.Errorf("pix: payload com %d caracteres (mínimo %d)", len(code), minPayloadLen)
	}
	if !strings.HasPrefix(code, tagPayloadFormat+"02"+payloadFormatValue) {
		return fmt.Errorf("pix: payload não inicia com o indicador de formato EMV")
	}
	idx := strings.LastIndex(code, tagCRC+"04")
	if idx < 0 || idx+8 != len(code) {
		return fmt.Errorf("pix: campo CRC (6304) ausente ou mal posicionado")
	}
	expected := crc16Hex(code[:idx+4])
	got := code[idx+4:]
	if expected != got {
		return fmt.Errorf("pix: CRC inválido: esperado %s, recebido %s", expected, got)
	}
	return nil
}

// Decode valida e devolve o mapa tag→valor do nível raiz do payload.
func Decode(code string) (map[string]string, error) {
	if err := Validate(code); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	rest := code
	for len(rest) >= 4 {
		tag := rest[0:2]
		length, err := strconv.Atoi(rest[2:4])
		if err != nil || len(rest) < 4+length {
			return nil, fmt.Errorf("pix: TLV malformado na tag %s", tag)
		}
		fields[tag] = rest[4 : 4+length]
		rest = rest[4+length:]
	}
	return fields, nil
}

// Normalize remove diacríticos (NFD + marcas combinantes), converte para
// maiúsculas e trunca no limite do campo EMV.
func Normalize(s string, max int) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToUpper(strings.TrimSpace(out))
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// SanitizeTxID mantém apenas [A-Za-z0-9] e trunca a 25; vazio vira "***".
func SanitizeTxID(txid string) string {
	var b strings.Builder
	for _, r := range txid {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return DefaultTxID
	}
	if len(out) > maxTxID {
		out = out[:maxTxID]
	}
	return out
}

// emv monta um campo TLV: tag + tamanho com 2 dígitos + valor.
func emv(tag, value string) string {
	return fmt.Sprintf("%s%02d%s", tag, len(value), value)
}

// crc16Hex calcula o CRC-16/CCITT-FALSE (polinômio 0x1021, init 0xFFFF,
// sem reflexão, sem xorout) em 4 dígitos hexadecimais maiúsculos.
func crc16Hex(payload string) string {
	crc := uint16(0xFFFF)
	for i := 0; i < len(payload); i++ {
		crc ^= uint16(payload[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}
