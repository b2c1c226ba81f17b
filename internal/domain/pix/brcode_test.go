package pix_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrrjunior25/erp-pdv/internal/domain/pix"
)

// ──────────────────────────────────────────────────────────────────────────────
// Testes do BR Code PIX estático.
//
// O vetor de referência foi montado manualmente campo a campo seguindo o
// Manual de Padrões QRCPS-MPM; se a ordem dos campos, o padding dos tamanhos
// ou o CRC mudarem, o QR deixa de ser lido pelos apps bancários.
// ──────────────────────────────────────────────────────────────────────────────

const (
	testPixKey = "loja@teste.com.br"

	testBRCodeComValor = "00020126390014br.gov.bcb.pix0117loja@teste.com.br520400005303986540525.505802BR5910LOJA TESTE6009SAO PAULO62120508VENDA1236304E36E"
	testBRCodeSemValor = "00020126390014br.gov.bcb.pix0117loja@teste.com.br5204000053039865802BR5910LOJA TESTE6009SAO PAULO62070503***630457F4"
)

func buildTestParams() pix.Params {
	return pix.Params{
		PixKey:       testPixKey,
		MerchantName: "LOJA TESTE",
		MerchantCity: "SAO PAULO",
		Amount:       decimal.NewFromFloat(25.50),
		TxID:         "VENDA123",
	}
}

func TestEncode_VetorExato(t *testing.T) {
	code, err := pix.Encode(buildTestParams())
	require.NoError(t, err, "Encode não deve falhar com parâmetros válidos")
	assert.Equal(t, testBRCodeComValor, code,
		"o payload deve coincidir exatamente com o vetor de referência EMV")
}

func TestEncode_SemValor(t *testing.T) {
	p := buildTestParams()
	p.Amount = decimal.Zero
	p.TxID = ""
	code, err := pix.Encode(p)
	require.NoError(t, err)
	assert.Equal(t, testBRCodeSemValor, code,
		"QR sem valor deve omitir a tag 54 e usar txid ***")
	assert.NotContains(t, code, "5405", "a tag 54 não pode aparecer sem valor")
}

func TestEncode_CodigoGeradoValida(t *testing.T) {
	code, err := pix.Encode(buildTestParams())
	require.NoError(t, err)
	assert.NoError(t, pix.Validate(code), "todo código emitido deve passar em Validate")
}

func TestEncode_RemoveDiacriticos(t *testing.T) {
	p := buildTestParams()
	p.MerchantName = "Padaria São João"
	p.MerchantCity = "Brasília"
	code, err := pix.Encode(p)
	require.NoError(t, err)
	assert.Contains(t, code, "PADARIA SAO JOAO", "acentos devem ser removidos do nome")
	assert.Contains(t, code, "BRASILIA", "acentos devem ser removidos da cidade")
}

func TestEncode_TruncaCampos(t *testing.T) {
	p := buildTestParams()
	p.MerchantName = strings.Repeat("A", 40)
	code, err := pix.Encode(p)
	require.NoError(t, err)

	fields, err := pix.Decode(code)
	require.NoError(t, err)
	assert.Len(t, fields["59"], 25, "nome do recebedor limitado a 25 caracteres")
}

func TestEncode_ErroSemChave(t *testing.T) {
	p := buildTestParams()
	p.PixKey = "  "
	_, err := pix.Encode(p)
	assert.Error(t, err, "Encode sem chave PIX deve retornar erro")
}

func TestEncode_ErroSemNome(t *testing.T) {
	p := buildTestParams()
	p.MerchantName = ""
	_, err := pix.Encode(p)
	assert.Error(t, err)
}

// ── CRC ──────────────────────────────────────────────────────────────────────

func TestValidate_CRCDeterminista(t *testing.T) {
	c1, err1 := pix.Encode(buildTestParams())
	c2, err2 := pix.Encode(buildTestParams())
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, c1, c2, "mesmos parâmetros devem produzir o mesmo payload e CRC")
}

func TestValidate_SensivelAUmCaractere(t *testing.T) {
	code, err := pix.Encode(buildTestParams())
	require.NoError(t, err)

	// Altera um único caractere do meio do payload mantendo o CRC original.
	mid := len(code) / 2
	tampered := code[:mid] + "X" + code[mid+1:]
	assert.Error(t, pix.Validate(tampered),
		"mudar um caractere do payload deve invalidar o CRC")
}

func TestValidate_SemCampoCRC(t *testing.T) {
	assert.Error(t, pix.Validate("000201"), "payload sem 6304 deve ser rejeitado")
}

func TestValidate_PrefixoInvalido(t *testing.T) {
	code, err := pix.Encode(buildTestParams())
	require.NoError(t, err)
	assert.Error(t, pix.Validate("99"+code[2:]),
		"payload sem o indicador de formato EMV deve ser rejeitado")
}

func TestValidate_CurtoDemais(t *testing.T) {
	// Payload com prefixo e CRC corretos porém abaixo do mínimo de 50
	// caracteres: a validação de tamanho rejeita antes de qualquer parse.
	// AAE6 é o CRC-16/CCITT-FALSE de "0002016304".
	err := pix.Validate("0002016304AAE6")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mínimo")
}

// ── Decode ───────────────────────────────────────────────────────────────────

func TestDecode_RecuperaCampos(t *testing.T) {
	code, err := pix.Encode(buildTestParams())
	require.NoError(t, err)

	fields, err := pix.Decode(code)
	require.NoError(t, err)

	assert.Equal(t, "01", fields["00"])
	assert.Contains(t, fields["26"], testPixKey, "a conta do recebedor deve conter a chave PIX")
	assert.Contains(t, fields["26"], "br.gov.bcb.pix")
	assert.Equal(t, "986", fields["53"], "moeda BRL")
	assert.Equal(t, "25.50", fields["54"])
	assert.Equal(t, "BR", fields["58"])
	assert.Equal(t, "LOJA TESTE", fields["59"])
	assert.Equal(t, "SAO PAULO", fields["60"])
	assert.Contains(t, fields["62"], "VENDA123")
}

// ── Sanitização de txid ──────────────────────────────────────────────────────

func TestSanitizeTxID(t *testing.T) {
	assert.Equal(t, "***", pix.SanitizeTxID(""), "txid vazio vira ***")
	assert.Equal(t, "VENDA123", pix.SanitizeTxID("VENDA-123"), "separadores são removidos")
	assert.Len(t, pix.SanitizeTxID(strings.Repeat("a", 40)), 25, "txid limitado a 25")
}
