package sefaz_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrrjunior25/erp-pdv/internal/infrastructure/sefaz"
)

// ──────────────────────────────────────────────────────────────────────────────
// Testes do cliente SOAP da SEFAZ usando httptest como webservice falso.
// Cobrem o autômato completo: autorização direta, lote assíncrono com
// consulta de recibo, esgotamento do polling, rejeição e queda de rede.
// ──────────────────────────────────────────────────────────────────────────────

const signedXML = `<NFe xmlns="http://www.portalfiscal.inf.br/nfe"><infNFe Id="NFe35200611222333000181650010000000421123456784"/></NFe>`

func soapResponse(inner string) string {
	return `<?xml version="1.0" encoding="utf-8"?>` +
		`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">` +
		`<soap:Body><nfeResultMsg>` + inner + `</nfeResultMsg></soap:Body></soap:Envelope>`
}

func retEnviAutorizada(protocolo string) string {
	return soapResponse(`<retEnviNFe versao="4.00"><cStat>104</cStat><xMotivo>Lote processado</xMotivo>` +
		`<protNFe><infProt><cStat>100</cStat><xMotivo>Autorizado o uso da NF-e</xMotivo><nProt>` + protocolo + `</nProt></infProt></protNFe></retEnviNFe>`)
}

func retEnviRecebido(recibo string) string {
	return soapResponse(`<retEnviNFe versao="4.00"><cStat>103</cStat><xMotivo>Lote recebido com sucesso</xMotivo>` +
		`<infRec><nRec>` + recibo + `</nRec></infRec></retEnviNFe>`)
}

func retReciAutorizada(protocolo string) string {
	return soapResponse(`<retConsReciNFe versao="4.00"><cStat>104</cStat><xMotivo>Lote processado</xMotivo>` +
		`<protNFe><infProt><cStat>100</cStat><xMotivo>Autorizado o uso da NF-e</xMotivo><nProt>` + protocolo + `</nProt></infProt></protNFe></retConsReciNFe>`)
}

func retReciProcessando() string {
	return soapResponse(`<retConsReciNFe versao="4.00"><cStat>105</cStat><xMotivo>Lote em processamento</xMotivo></retConsReciNFe>`)
}

func retEnviRejeitada(cStat, motivo string) string {
	return soapResponse(`<retEnviNFe versao="4.00"><cStat>104</cStat><xMotivo>Lote processado</xMotivo>` +
		`<protNFe><infProt><cStat>` + cStat + `</cStat><xMotivo>` + motivo + `</xMotivo></infProt></protNFe></retEnviNFe>`)
}

// newTestClient aponta o cliente para o servidor falso e encurta o polling.
func newTestClient(srv *httptest.Server) *sefaz.Client {
	c := sefaz.NewClientWithEndpoints(sefaz.Endpoints{
		Autorizacao:    srv.URL + "/aut",
		RetAutorizacao: srv.URL + "/ret",
		StatusServico:  srv.URL + "/status",
		QRCodeBase:     srv.URL + "/qrcode",
	})
	c.PollAttempts = 5
	c.PollDelay = 5 * time.Millisecond
	return c
}

func TestAuthorize_AutorizacaoSincrona(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(retEnviAutorizada("135260000000001")))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Authorize(context.Background(), []byte(signedXML), "SP", "2")
	require.NoError(t, err)

	assert.True(t, res.Authorized)
	assert.Equal(t, "100", res.CStat)
	assert.Equal(t, "135260000000001", res.Protocolo)
	assert.False(t, res.Timeout)
	assert.False(t, res.CommError)
}

func TestAuthorize_LoteRecebidoDepoisAutorizado(t *testing.T) {
	var reciCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/aut":
			w.Write([]byte(retEnviRecebido("351000012345678")))
		case "/ret":
			if reciCalls.Add(1) == 1 {
				w.Write([]byte(retReciProcessando()))
				return
			}
			w.Write([]byte(retReciAutorizada("135260000000002")))
		}
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Authorize(context.Background(), []byte(signedXML), "SP", "2")
	require.NoError(t, err)

	assert.True(t, res.Authorized, "cStat 103 seguido de 100 na consulta deve autorizar")
	assert.Equal(t, "135260000000002", res.Protocolo)
	assert.Equal(t, "351000012345678", res.Recibo)
	assert.EqualValues(t, 2, reciCalls.Load(), "a primeira consulta devolveu 105 e exigiu nova tentativa")
}

func TestAuthorize_PollingEsgotadoViraTimeout(t *testing.T) {
	var reciCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/aut":
			w.Write([]byte(retEnviRecebido("351000099999999")))
		case "/ret":
			reciCalls.Add(1)
			w.Write([]byte(retReciProcessando()))
		}
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Authorize(context.Background(), []byte(signedXML), "SP", "2")
	require.NoError(t, err)

	assert.True(t, res.Timeout, "105 em todas as consultas deve terminar em timeout")
	assert.False(t, res.Authorized)
	assert.EqualValues(t, 5, reciCalls.Load(), "o polling deve tentar exatamente PollAttempts vezes")
}

func TestAuthorize_RejeicaoCarregaCStatEMotivo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(retEnviRejeitada("539", "Duplicidade de NF-e")))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Authorize(context.Background(), []byte(signedXML), "SP", "2")
	require.NoError(t, err)

	assert.False(t, res.Authorized)
	assert.Equal(t, "539", res.CStat)
	assert.Equal(t, "Duplicidade de NF-e", res.Motivo)
}

func TestAuthorize_FalhaDeRedeViraResultado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // servidor já fechado: connection refused

	res, err := newTestClient(srv).Authorize(context.Background(), []byte(signedXML), "SP", "2")
	require.NoError(t, err, "falha de transporte não deve virar erro Go")

	assert.True(t, res.CommError)
	assert.False(t, res.Authorized)
	assert.Contains(t, res.Motivo, "falha de comunicação")
}

func TestAuthorize_RespostaIlegivelViraResultado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>erro 500 do proxy</html>"))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Authorize(context.Background(), []byte(signedXML), "SP", "2")
	require.NoError(t, err)
	assert.True(t, res.CommError)
}

func TestAuthorize_CancelamentoInterrompePolling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/aut":
			w.Write([]byte(retEnviRecebido("351000055555555")))
		case "/ret":
			w.Write([]byte(retReciProcessando()))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	c.PollDelay = 1 * time.Hour // sem cancelamento o teste travaria

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Authorize(ctx, []byte(signedXML), "SP", "2")
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled,
			"cancelar o contexto deve interromper a espera entre consultas")
	case <-time.After(2 * time.Second):
		t.Fatal("o polling não respeitou o cancelamento do contexto")
	}
}

// ── Status do serviço ────────────────────────────────────────────────────────

func TestServiceStatus_Online(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(soapResponse(`<retConsStatServ versao="4.00"><cStat>107</cStat><xMotivo>Servico em Operacao</xMotivo></retConsStatServ>`)))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).ServiceStatus(context.Background(), "SP", "2")
	require.NoError(t, err)
	assert.True(t, res.Online, "cStat 107 significa serviço em operação")
	assert.Equal(t, "107", res.CStat)
}

func TestServiceStatus_Offline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(soapResponse(`<retConsStatServ versao="4.00"><cStat>108</cStat><xMotivo>Servico Paralisado Momentaneamente</xMotivo></retConsStatServ>`)))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).ServiceStatus(context.Background(), "SP", "2")
	require.NoError(t, err)
	assert.False(t, res.Online, "qualquer cStat diferente de 107 é offline")
}

// ── Tabela de endpoints e QR Code ────────────────────────────────────────────

func TestEndpointsFor_UFDesconhecidaCaiEmSP(t *testing.T) {
	sp := sefaz.EndpointsFor("SP", "2")
	assert.Equal(t, sp, sefaz.EndpointsFor("XX", "2"),
		"UF sem entrada na tabela usa os endpoints de SP")
}

func TestQRCodeURL_Formato(t *testing.T) {
	url := sefaz.QRCodeURL("SP", "2", "35200611222333000181650010000000421123456784")
	assert.Contains(t, url, "chNFe=35200611222333000181650010000000421123456784")
	assert.Contains(t, url, "nVersao=100")
	assert.Contains(t, url, "tpAmb=2")
}
