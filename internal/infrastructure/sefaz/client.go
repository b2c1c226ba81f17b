package sefaz

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"

	"github.com/jrrjunior25/erp-pdv/pkg/nfe"
)

// ── Códigos de status SEFAZ (cStat) ───────────────────────────────────────────

const (
	CStatAutorizado        = "100" // Autorizado o uso da NF-e
	CStatLoteRecebido      = "103" // Lote recebido com sucesso
	CStatLoteProcessado    = "104" // Lote processado (resultado no protNFe)
	CStatLoteEmProcesso    = "105" // Lote em processamento
	CStatServicoEmOperacao = "107" // Serviço em operação
)

const (
	nsNFe       = "http://www.portalfiscal.inf.br/nfe"
	soap12NS    = "http://www.w3.org/2003/05/soap-envelope"
	wsdlNFe4    = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeAutorizacao4"
	wsdlRet4    = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeRetAutorizacao4"
	wsdlStatus4 = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeStatusServico4"
)

// ── Resultados tipados ─────────────────────────────────────────────────────────

// AuthorizationResult resultado da transmissão. Falhas de comunicação viram
// resultado com CommError=true em vez de erro: o orquestrador decide o status
// do documento, nunca um panic ou um erro solto.
type AuthorizationResult struct {
	Authorized bool
	Timeout    bool   // Polling esgotado com o lote ainda em processamento
	CommError  bool   // Falha de transporte ou resposta ilegível
	CStat      string
	Motivo     string
	Protocolo  string
	Recibo     string
}

// StatusResult resultado da consulta de status do serviço.
type StatusResult struct {
	Online bool
	CStat  string
	Motivo string
}

// ── Cliente ───────────────────────────────────────────────────────────────────

// Client cliente SOAP 1.2 dos webservices da SEFAZ.
// PollAttempts e PollDelay controlam a consulta do recibo; os testes encurtam
// ambos para não esperar de verdade.
type Client struct {
	httpClient *http.Client

	PollAttempts int
	PollDelay    time.Duration

	// endpointsFor permite injetar endpoints de teste (httptest).
	endpointsFor func(uf, ambiente string) Endpoints
}

// NewClient constrói o cliente com timeout de rede generoso (60 s); os
// webservices estaduais podem demorar vários segundos.
func NewClient() *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		PollAttempts: 5,
		PollDelay:    2 * time.Second,
		endpointsFor: EndpointsFor,
	}
}

// NewClientWithEndpoints constrói o cliente apontando para endpoints fixos.
func NewClientWithEndpoints(ep Endpoints) *Client {
	c := NewClient()
	c.endpointsFor = func(string, string) Endpoints { return ep }
	return c
}

// ── Envelope SOAP 1.2 ─────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name `xml:"soap12:Envelope"`
	XmlnsS  string   `xml:"xmlns:soap12,attr"`
	Body    soapBody `xml:"soap12:Body"`
}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soap12:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// nfeDadosMsg embrulha o XML fiscal dentro do body SOAP; Payload vai verbatim.
type nfeDadosMsg struct {
	XMLName xml.Name `xml:"nfeDadosMsg"`
	Xmlns   string   `xml:"xmlns,attr"`
	Payload string   `xml:",innerxml"`
}

// ── Autorização ───────────────────────────────────────────────────────────────

// Authorize envia o lote síncrono (indSinc=1) e interpreta a resposta:
// cStat 100 autoriza; 103/105 com recibo dispara a consulta do recibo;
// qualquer outro código rejeita com o motivo da SEFAZ.
func (c *Client) Authorize(ctx context.Context, signedXML []byte, uf, ambiente string) (*AuthorizationResult, error) {
	ep := c.endpointsFor(uf, ambiente)

	lote := fmt.Sprintf("%d", time.Now().UnixNano()%1_000_000_000_000_000)
	payload := `<enviNFe xmlns="` + nsNFe + `" versao="4.00">` +
		`<idLote>` + lote + `</idLote><indSinc>1</indSinc>` +
		string(signedXML) +
		`</enviNFe>`

	raw, err := c.post(ctx, ep.Autorizacao, wsdlNFe4, payload)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("sefaz: cancelado: %w", ctx.Err())
		}
		return commFailure(err), nil
	}

	result := parseAuthorizationResponse(raw)
	if result.CommError || result.Authorized {
		return result, nil
	}

	// Lote aceito mas ainda não processado: consultar o recibo.
	if (result.CStat == CStatLoteRecebido || result.CStat == CStatLoteEmProcesso) && result.Recibo != "" {
		return c.pollReceipt(ctx, ep, ambiente, result.Recibo)
	}
	return result, nil
}

// pollReceipt consulta consReciNFe até PollAttempts vezes com PollDelay entre
// tentativas. A espera respeita o contexto: cancelamento interrompe o loop
// entre tentativas em vez de dormir até o fim.
func (c *Client) pollReceipt(ctx context.Context, ep Endpoints, ambiente, recibo string) (*AuthorizationResult, error) {
	payload := `<consReciNFe xmlns="` + nsNFe + `" versao="4.00">` +
		`<tpAmb>` + ambiente + `</tpAmb><nRec>` + recibo + `</nRec></consReciNFe>`

	for attempt := 0; attempt < c.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("sefaz: consulta do recibo cancelada: %w", ctx.Err())
		case <-time.After(c.PollDelay):
		}

		raw, err := c.post(ctx, ep.RetAutorizacao, wsdlRet4, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("sefaz: consulta do recibo cancelada: %w", ctx.Err())
			}
			return commFailure(err), nil
		}

		result := parseReceiptResponse(raw)
		result.Recibo = recibo
		if result.CStat == CStatLoteEmProcesso {
			continue // ainda processando, tentar de novo
		}
		return result, nil
	}

	return &AuthorizationResult{
		Timeout: true,
		Recibo:  recibo,
		CStat:   CStatLoteEmProcesso,
		Motivo:  fmt.Sprintf("lote ainda em processamento após %d consultas do recibo", c.PollAttempts),
	}, nil
}

// ServiceStatus consulta NfeStatusServico4; online somente com cStat 107.
func (c *Client) ServiceStatus(ctx context.Context, uf, ambiente string) (*StatusResult, error) {
	ep := c.endpointsFor(uf, ambiente)
	payload := `<consStatServ xmlns="` + nsNFe + `" versao="4.00">` +
		`<tpAmb>` + ambiente + `</tpAmb><cUF>` + nfe.UFCode(uf) + `</cUF><xServ>STATUS</xServ></consStatServ>`

	raw, err := c.post(ctx, ep.StatusServico, wsdlStatus4, payload)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("sefaz: cancelado: %w", ctx.Err())
		}
		return &StatusResult{Online: false, Motivo: fmt.Sprintf("falha de comunicação: %v", err)}, nil
	}

	cStat, motivo := findStatus(raw, "//retConsStatServ")
	return &StatusResult{
		Online: cStat == CStatServicoEmOperacao,
		CStat:  cStat,
		Motivo: motivo,
	}, nil
}

// ── Transporte ────────────────────────────────────────────────────────────────

func (c *Client) post(ctx context.Context, url, wsdl, payload string) ([]byte, error) {
	envelope := soapEnvelope{
		XmlnsS: soap12NS,
		Body:   soapBody{Content: &nfeDadosMsg{Xmlns: wsdl, Payload: payload}},
	}
	xmlPayload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("sefaz: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(xmlPayload))
	if err != nil {
		return nil, fmt.Errorf("sefaz: criar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sefaz: chamada HTTP falhou: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // máx. 1 MB
	if err != nil {
		return nil, fmt.Errorf("sefaz: ler resposta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sefaz: HTTP %d", resp.StatusCode)
	}
	return raw, nil
}

// ── Parse das respostas ───────────────────────────────────────────────────────

func parseAuthorizationResponse(raw []byte) *AuthorizationResult {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return &AuthorizationResult{CommError: true, Motivo: "resposta SOAP ilegível"}
	}
	ret := doc.FindElement("//retEnviNFe")
	if ret == nil {
		return &AuthorizationResult{CommError: true, Motivo: "resposta sem retEnviNFe"}
	}

	result := &AuthorizationResult{
		CStat:  elementText(ret, "cStat"),
		Motivo: elementText(ret, "xMotivo"),
		Recibo: elementText(ret, "infRec/nRec"),
	}

	// Resposta síncrona pode já trazer o protocolo.
	if inf := ret.FindElement("protNFe/infProt"); inf != nil {
		result.CStat = elementText(inf, "cStat")
		result.Motivo = elementText(inf, "xMotivo")
		result.Protocolo = elementText(inf, "nProt")
	}
	result.Authorized = result.CStat == CStatAutorizado
	return result
}

func parseReceiptResponse(raw []byte) *AuthorizationResult {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return &AuthorizationResult{CommError: true, Motivo: "resposta SOAP ilegível"}
	}
	ret := doc.FindElement("//retConsReciNFe")
	if ret == nil {
		return &AuthorizationResult{CommError: true, Motivo: "resposta sem retConsReciNFe"}
	}

	result := &AuthorizationResult{
		CStat:  elementText(ret, "cStat"),
		Motivo: elementText(ret, "xMotivo"),
	}
	if inf := ret.FindElement("protNFe/infProt"); inf != nil {
		result.CStat = elementText(inf, "cStat")
		result.Motivo = elementText(inf, "xMotivo")
		result.Protocolo = elementText(inf, "nProt")
	}
	result.Authorized = result.CStat == CStatAutorizado
	return result
}

func findStatus(raw []byte, path string) (cStat, motivo string) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return "", "resposta SOAP ilegível"
	}
	ret := doc.FindElement(path)
	if ret == nil {
		return "", "resposta inesperada do webservice"
	}
	return elementText(ret, "cStat"), elementText(ret, "xMotivo")
}

func elementText(parent *etree.Element, path string) string {
	if el := parent.FindElement(path); el != nil {
		return el.Text()
	}
	return ""
}

func commFailure(err error) *AuthorizationResult {
	return &AuthorizationResult{
		CommError: true,
		Motivo:    fmt.Sprintf("falha de comunicação com a SEFAZ: %v", err),
	}
}
