package nfe_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
	infranfe "github.com/jrrjunior25/erp-pdv/internal/infrastructure/nfe"
	pkgnfe "github.com/jrrjunior25/erp-pdv/pkg/nfe"
)

func buildTestConfig() *entity.FiscalConfig {
	return &entity.FiscalConfig{
		CNPJ:         "11.222.333/0001-81",
		RazaoSocial:  "LOJA TESTE LTDA",
		NomeFantasia: "Loja Teste",
		IE:           "123456789",
		CRT:          pkgnfe.CRTSimplesNacional,
		Logradouro:   "Rua das Flores",
		Numero:       "100",
		Bairro:       "Centro",
		Municipio:    "Sao Paulo",
		CodMunicipio: "3550308",
		UF:           "SP",
		CEP:          "01000-000",
		Ambiente:     pkgnfe.AmbienteHomologacao,
		SerieNFCe:    1,
		SerieNFe:     1,
	}
}

func buildTestSale() *entity.Sale {
	return &entity.Sale{
		ID:     "sale-1",
		Numero: 1001,
		Items: []entity.SaleItem{
			{
				Codigo:     "P001",
				Descricao:  "Cafe torrado 500g",
				NCM:        "09012100",
				Unidade:    "UN",
				Quantidade: decimal.NewFromInt(2),
				ValorUnit:  decimal.NewFromFloat(12.50),
				Total:      decimal.NewFromFloat(25.00),
			},
			{
				Codigo:     "P002",
				Descricao:  "Acucar cristal 1kg",
				Unidade:    "UN",
				Quantidade: decimal.NewFromInt(1),
				ValorUnit:  decimal.NewFromFloat(5.50),
				Total:      decimal.NewFromFloat(5.50),
			},
		},
		Payments: []entity.SalePayment{
			{Codigo: pkgnfe.PagDinheiro, Valor: decimal.NewFromFloat(30.50)},
		},
		Total: decimal.NewFromFloat(30.50),
	}
}

func buildTestContext(modelo string) *infranfe.BuildContext {
	return &infranfe.BuildContext{
		Sale:    buildTestSale(),
		Config:  buildTestConfig(),
		Modelo:  modelo,
		Serie:   1,
		Numero:  42,
		CNF:     "12345678",
		Emissao: time.Date(2026, 3, 15, 10, 30, 0, 0, time.FixedZone("BRT", -3*3600)),
	}
}

func TestBuild_NFCeEstruturaValida(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(buildTestContext(pkgnfe.ModeloNFCe))
	require.NoError(t, err)

	assert.NoError(t, svc.ValidateStructure(res.XML, pkgnfe.ModeloNFCe),
		"o XML gerado deve passar na validação estrutural")
}

func TestBuild_ChaveEmbutidaIgualRetornada(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(buildTestContext(pkgnfe.ModeloNFCe))
	require.NoError(t, err)

	extracted, err := infranfe.ExtractAccessKey(res.XML)
	require.NoError(t, err)
	assert.Equal(t, res.AccessKey, extracted,
		"a chave devolvida deve ser a mesma embutida no Id do infNFe")
	assert.NoError(t, pkgnfe.ValidateAccessKey(res.AccessKey))
}

func TestBuild_CamposIdentificacao(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(buildTestContext(pkgnfe.ModeloNFCe))
	require.NoError(t, err)

	xml := string(res.XML)
	assert.Contains(t, xml, "<mod>65</mod>")
	assert.Contains(t, xml, "<serie>1</serie>")
	assert.Contains(t, xml, "<nNF>42</nNF>")
	assert.Contains(t, xml, "<tpAmb>2</tpAmb>")
	assert.Contains(t, xml, "<cUF>35</cUF>", "SP deve virar código IBGE 35")
	assert.Contains(t, xml, "<CNPJ>11222333000181</CNPJ>", "CNPJ sem pontuação no emit")
	assert.Contains(t, xml, `versao="4.00"`)
}

func TestBuild_TotaisAcumulados(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(buildTestContext(pkgnfe.ModeloNFCe))
	require.NoError(t, err)

	xml := string(res.XML)
	assert.Contains(t, xml, "<vProd>30.50</vProd>", "vProd do total = soma dos itens")
	assert.Contains(t, xml, "<vNF>30.50</vNF>")
	assert.Contains(t, xml, "<qCom>2.0000</qCom>", "quantidade com 4 casas decimais")
	assert.Contains(t, xml, "<vPag>30.50</vPag>")
}

func TestBuild_SimplesNacionalUsaCSOSN(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(buildTestContext(pkgnfe.ModeloNFCe))
	require.NoError(t, err)
	assert.Contains(t, string(res.XML), "<CSOSN>102</CSOSN>",
		"CRT 1 deve emitir ICMSSN102")
	assert.NotContains(t, string(res.XML), "<ICMS00>")
}

func TestBuild_RegimeNormalUsaICMS00(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFCe)
	ctx.Config.CRT = pkgnfe.CRTRegimeNormal
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(ctx)
	require.NoError(t, err)

	xml := string(res.XML)
	assert.Contains(t, xml, "<CST>00</CST>")
	assert.Contains(t, xml, "<pICMS>18.00</pICMS>")
	assert.NotContains(t, xml, "CSOSN")
}

func TestBuild_NFCeSemClienteOmiteDest(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(buildTestContext(pkgnfe.ModeloNFCe))
	require.NoError(t, err)
	assert.NotContains(t, string(res.XML), "<dest>",
		"NFC-e sem consumidor identificado não leva dest")
}

func TestBuild_NFCeComCPFIncluiDest(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFCe)
	ctx.Sale.Cliente = &entity.SaleCustomer{Documento: "123.456.789-09", Nome: "Cliente Teste"}
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(ctx)
	require.NoError(t, err)

	xml := string(res.XML)
	assert.Contains(t, xml, "<CPF>12345678909</CPF>")
	assert.Contains(t, xml, "HOMOLOGACAO",
		"em homologação o nome do destinatário é o texto fixo da SEFAZ")
}

func TestBuild_NFeModelo55(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFe)
	ctx.Sale.Cliente = &entity.SaleCustomer{Documento: "11444777000161", Nome: "Empresa Cliente"}
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(ctx)
	require.NoError(t, err)

	assert.NoError(t, svc.ValidateStructure(res.XML, pkgnfe.ModeloNFe))
	assert.Contains(t, string(res.XML), "<mod>55</mod>")
	assert.Contains(t, string(res.XML), "<CNPJ>11444777000161</CNPJ>")
}

func TestBuild_ErroSemItens(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFCe)
	ctx.Sale.Items = nil
	svc := infranfe.NewXMLBuilderService()
	_, err := svc.Build(ctx)
	assert.Error(t, err, "venda sem itens não é emissível")
}

func TestValidateStructure_RejeitaBlocoAusente(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(buildTestContext(pkgnfe.ModeloNFCe))
	require.NoError(t, err)

	// Remove o bloco total do documento.
	truncated := strings.Replace(string(res.XML), "<total>", "<_total>", 1)
	truncated = strings.Replace(truncated, "</total>", "</_total>", 1)
	err = svc.ValidateStructure([]byte(truncated), pkgnfe.ModeloNFCe)
	require.Error(t, err)
	assert.ErrorIs(t, err, infranfe.ErrInvalidDocument)
}

func TestValidateStructure_RejeitaXMLMalformado(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()
	assert.Error(t, svc.ValidateStructure([]byte("<NFe><infNFe>"), pkgnfe.ModeloNFCe))
}

func TestExtractAccessKey_ErroSemId(t *testing.T) {
	_, err := infranfe.ExtractAccessKey([]byte(`<NFe><infNFe versao="4.00"></infNFe></NFe>`))
	assert.Error(t, err, "XML sem Id deve falhar em vez de inventar chave")
}

func TestBuild_DestCompletoComEndereco(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFe)
	ctx.Dest = &infranfe.Recipient{
		Documento: "11444777000161",
		Nome:      "Empresa Cliente",
		IE:        "110.042.490.114",
		Endereco: &infranfe.RecipientAddress{
			Logradouro:   "Av Paulista",
			Numero:       "1000",
			Bairro:       "Bela Vista",
			Municipio:    "Sao Paulo",
			CodMunicipio: "3550308",
			UF:           "SP",
			CEP:          "01310-100",
		},
	}
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(ctx)
	require.NoError(t, err)

	xml := string(res.XML)
	assert.Contains(t, xml, "<enderDest>")
	assert.Contains(t, xml, "<xLgr>Av Paulista</xLgr>")
	assert.Contains(t, xml, "<cMun>3550308</cMun>")
	assert.Contains(t, xml, "<CEP>01310100</CEP>", "CEP sem pontuação")
	assert.Contains(t, xml, "<cPais>1058</cPais>")
	assert.Contains(t, xml, "<indIEDest>1</indIEDest>", "destinatário com IE é contribuinte")
	assert.Contains(t, xml, "<IE>110042490114</IE>")
}

func TestBuild_DestSemIEIndicaNaoContribuinte(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFe)
	ctx.Dest = &infranfe.Recipient{Documento: "11444777000161", Nome: "Empresa Cliente"}
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(ctx)
	require.NoError(t, err)

	xml := string(res.XML)
	assert.Contains(t, xml, "<indIEDest>9</indIEDest>")
	assert.NotContains(t, xml, "<enderDest>", "sem endereço informado o grupo é omitido")
}

func TestBuild_TranspPadraoSemOcorrencia(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFCe)
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(ctx)
	require.NoError(t, err)

	xml := string(res.XML)
	assert.Contains(t, xml, "<modFrete>9</modFrete>")
	assert.NotContains(t, xml, "<transporta>")
}

func TestBuild_TranspComTransportadora(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFe)
	ctx.Dest = &infranfe.Recipient{Documento: "11444777000161", Nome: "Empresa Cliente"}
	ctx.Transporte = &infranfe.Transport{
		ModFrete: "1",
		CNPJ:     "11.222.333/0001-81",
		Nome:     "Transportadora Rapida",
		IE:       "123456789",
	}
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(ctx)
	require.NoError(t, err)

	xml := string(res.XML)
	assert.Contains(t, xml, "<modFrete>1</modFrete>")
	assert.Contains(t, xml, "<transporta>")
	assert.Contains(t, xml, "<CNPJ>11222333000181</CNPJ><xNome>Transportadora Rapida</xNome>")
}

func TestBuild_CobrComDuplicatas(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFe)
	ctx.Dest = &infranfe.Recipient{Documento: "11444777000161", Nome: "Empresa Cliente"}
	ctx.Duplicatas = []infranfe.Duplicata{
		{Vencimento: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), Valor: decimal.NewFromFloat(15.25)},
		{Vencimento: time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC), Valor: decimal.NewFromFloat(15.25)},
	}
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(ctx)
	require.NoError(t, err)

	xml := string(res.XML)
	assert.Contains(t, xml, "<cobr>")
	assert.Contains(t, xml, "<nFat>42</nFat>")
	assert.Contains(t, xml, "<vOrig>30.50</vOrig>")
	assert.Contains(t, xml, "<nDup>042-01</nDup>")
	assert.Contains(t, xml, "<nDup>042-02</nDup>")
	assert.Contains(t, xml, "<dVenc>2026-04-15</dVenc>")
	assert.Contains(t, xml, "<vDup>15.25</vDup>")
}

func TestBuild_NFCeNaoLevaCobr(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFCe)
	ctx.Duplicatas = []infranfe.Duplicata{
		{Vencimento: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), Valor: decimal.NewFromFloat(30.50)},
	}
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(ctx)
	require.NoError(t, err)
	assert.NotContains(t, string(res.XML), "<cobr>")
}

func TestBuild_InfAdicComObservacoes(t *testing.T) {
	ctx := buildTestContext(pkgnfe.ModeloNFe)
	ctx.Dest = &infranfe.Recipient{Documento: "11444777000161", Nome: "Empresa Cliente"}
	ctx.InfAdic = "Pedido de compra 778"
	svc := infranfe.NewXMLBuilderService()
	res, err := svc.Build(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(res.XML), "<infCpl>Pedido de compra 778</infCpl>")
}
