package nfe

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jrrjunior25/erp-pdv/pkg/nfe"
)

// Namespace oficial do Portal da NF-e.
const (
	NsNFe = "http://www.portalfiscal.inf.br/nfe"

	layoutVersion = "4.00"
	verProc       = "ERP-PDV 1.0"
)

// XMLBuilderService monta o XML da NF-e/NFC-e (sem assinatura).
type XMLBuilderService struct{}

// NewXMLBuilderService cria o serviço.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build gera o documento layout 4.00 e devolve o XML junto com a chave de
// acesso embutida no Id do infNFe.
func (s *XMLBuilderService) Build(ctx *BuildContext) (*BuildResult, error) {
	if ctx == nil || ctx.Sale == nil || ctx.Config == nil {
		return nil, fmt.Errorf("nfe: faltam sale ou config no contexto")
	}
	if len(ctx.Sale.Items) == 0 {
		return nil, fmt.Errorf("nfe: a venda deve ter ao menos um item")
	}
	ambiente := ctx.Ambiente
	if ambiente == "" {
		ambiente = ctx.Config.Ambiente
	}

	ufCode := nfe.UFCode(ctx.Config.UF)
	chave, err := nfe.BuildAccessKey(nfe.ChaveParams{
		UFCode:  ufCode,
		CNPJ:    ctx.Config.CNPJ,
		Modelo:  ctx.Modelo,
		Serie:   ctx.Serie,
		Numero:  ctx.Numero,
		TpEmis:  nfe.TpEmisNormal,
		CNF:     ctx.CNF,
		Emissao: ctx.Emissao,
	})
	if err != nil {
		return nil, err
	}
	comp, err := nfe.ParseAccessKey(chave)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	root := xml.StartElement{
		Name: xml.Name{Local: "NFe"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: NsNFe}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// infNFe com Id = "NFe" + chave; o Id é a Reference URI da assinatura.
	infNFe := xml.StartElement{
		Name: xml.Name{Local: "infNFe"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "Id"}, Value: "NFe" + chave},
			{Name: xml.Name{Local: "versao"}, Value: layoutVersion},
		},
	}
	if err := enc.EncodeToken(infNFe); err != nil {
		return nil, err
	}

	s.writeIde(enc, ctx, ufCode, comp.CNF, comp.DV, ambiente)
	s.writeEmit(enc, ctx)
	s.writeDest(enc, ctx, ambiente)

	totals := s.writeDets(enc, ctx)
	s.writeTotal(enc, totals)
	s.writeTransp(enc, ctx)
	if ctx.Modelo == nfe.ModeloNFe {
		s.writeCobr(enc, ctx, totals)
	}
	s.writePag(enc, ctx, totals)

	if ctx.InfAdic != "" {
		writeStart(enc, "infAdic")
		writeTag(enc, "infCpl", ctx.InfAdic)
		writeEnd(enc, "infAdic")
	}

	if err := enc.EncodeToken(infNFe.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return &BuildResult{XML: buf.Bytes(), AccessKey: chave}, nil
}

// writeIde grupo de identificação da nota.
func (s *XMLBuilderService) writeIde(enc *xml.Encoder, ctx *BuildContext, ufCode, cnf, cdv, ambiente string) {
	natOp := "VENDA"
	tpImp := "1" // DANFE retrato
	if ctx.Modelo == nfe.ModeloNFCe {
		natOp = "VENDA AO CONSUMIDOR"
		tpImp = "4" // DANFE NFC-e
	}

	writeStart(enc, "ide")
	writeTag(enc, "cUF", ufCode)
	writeTag(enc, "cNF", cnf)
	writeTag(enc, "natOp", natOp)
	writeTag(enc, "mod", ctx.Modelo)
	writeTag(enc, "serie", strconv.Itoa(ctx.Serie))
	writeTag(enc, "nNF", strconv.FormatInt(ctx.Numero, 10))
	writeTag(enc, "dhEmi", ctx.Emissao.Format("2006-01-02T15:04:05-07:00"))
	writeTag(enc, "tpNF", "1")    // saída
	writeTag(enc, "idDest", "1")  // operação interna
	writeTag(enc, "cMunFG", ctx.Config.CodMunicipio)
	writeTag(enc, "tpImp", tpImp)
	writeTag(enc, "tpEmis", nfe.TpEmisNormal)
	writeTag(enc, "cDV", cdv)
	writeTag(enc, "tpAmb", ambiente)
	writeTag(enc, "finNFe", "1")   // normal
	writeTag(enc, "indFinal", "1") // consumidor final
	writeTag(enc, "indPres", "1")  // operação presencial
	writeTag(enc, "procEmi", "0")
	writeTag(enc, "verProc", verProc)
	writeEnd(enc, "ide")
}

// writeEmit grupo do emitente.
func (s *XMLBuilderService) writeEmit(enc *xml.Encoder, ctx *BuildContext) {
	cfg := ctx.Config
	writeStart(enc, "emit")
	writeTag(enc, "CNPJ", nfe.OnlyDigits(cfg.CNPJ))
	writeTag(enc, "xNome", cfg.RazaoSocial)
	if cfg.NomeFantasia != "" {
		writeTag(enc, "xFant", cfg.NomeFantasia)
	}
	writeStart(enc, "enderEmit")
	writeTag(enc, "xLgr", cfg.Logradouro)
	writeTag(enc, "nro", cfg.Numero)
	writeTag(enc, "xBairro", cfg.Bairro)
	writeTag(enc, "cMun", cfg.CodMunicipio)
	writeTag(enc, "xMun", cfg.Municipio)
	writeTag(enc, "UF", cfg.UF)
	writeTag(enc, "CEP", nfe.OnlyDigits(cfg.CEP))
	writeTag(enc, "cPais", "1058")
	writeTag(enc, "xPais", "BRASIL")
	writeEnd(enc, "enderEmit")
	writeTag(enc, "IE", nfe.OnlyDigits(cfg.IE))
	writeTag(enc, "CRT", cfg.CRT)
	writeEnd(enc, "emit")
}

// writeDest destinatário: obrigatório na NF-e; na NFC-e só quando o
// consumidor se identificou. O destinatário completo informado na emissão
// (com endereço e IE) tem prioridade sobre o consumidor da venda. Em
// homologação o nome é o texto fixo exigido pela SEFAZ.
func (s *XMLBuilderService) writeDest(enc *xml.Encoder, ctx *BuildContext, ambiente string) {
	dest := ctx.Dest
	if dest == nil {
		if cli := ctx.Sale.Cliente; cli != nil {
			dest = &Recipient{Documento: cli.Documento, Nome: cli.Nome}
		}
	}
	if dest == nil && ctx.Modelo == nfe.ModeloNFCe {
		return
	}

	writeStart(enc, "dest")
	if dest != nil {
		doc := nfe.OnlyDigits(dest.Documento)
		if len(doc) == 14 {
			writeTag(enc, "CNPJ", doc)
		} else if len(doc) == 11 {
			writeTag(enc, "CPF", doc)
		}
		nome := dest.Nome
		if ambiente == nfe.AmbienteHomologacao {
			nome = "NF-E EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL"
		}
		if nome != "" {
			writeTag(enc, "xNome", nome)
		}
		if end := dest.Endereco; end != nil {
			writeStart(enc, "enderDest")
			writeTag(enc, "xLgr", end.Logradouro)
			writeTag(enc, "nro", end.Numero)
			writeTag(enc, "xBairro", end.Bairro)
			writeTag(enc, "cMun", end.CodMunicipio)
			writeTag(enc, "xMun", end.Municipio)
			writeTag(enc, "UF", end.UF)
			writeTag(enc, "CEP", nfe.OnlyDigits(end.CEP))
			writeTag(enc, "cPais", "1058")
			writeTag(enc, "xPais", "BRASIL")
			writeEnd(enc, "enderDest")
		}
	}
	if dest != nil && dest.IE != "" {
		writeTag(enc, "indIEDest", "1") // contribuinte ICMS
		writeTag(enc, "IE", nfe.OnlyDigits(dest.IE))
	} else {
		writeTag(enc, "indIEDest", "9") // não contribuinte
	}
	writeEnd(enc, "dest")
}

// writeTransp grupo transp. Sem transporte informado, modFrete 9 (sem
// ocorrência, venda presencial).
func (s *XMLBuilderService) writeTransp(enc *xml.Encoder, ctx *BuildContext) {
	writeStart(enc, "transp")
	modFrete := "9"
	if t := ctx.Transporte; t != nil && t.ModFrete != "" {
		modFrete = t.ModFrete
	}
	writeTag(enc, "modFrete", modFrete)
	if t := ctx.Transporte; t != nil && (t.CNPJ != "" || t.Nome != "" || t.IE != "") {
		writeStart(enc, "transporta")
		if t.CNPJ != "" {
			writeTag(enc, "CNPJ", nfe.OnlyDigits(t.CNPJ))
		}
		if t.Nome != "" {
			writeTag(enc, "xNome", t.Nome)
		}
		if t.IE != "" {
			writeTag(enc, "IE", nfe.OnlyDigits(t.IE))
		}
		writeEnd(enc, "transporta")
	}
	writeEnd(enc, "transp")
}

// writeCobr grupo cobr da NF-e: fatura com o valor da nota e uma duplicata
// por parcela informada (nDup no formato NNN-PP).
func (s *XMLBuilderService) writeCobr(enc *xml.Encoder, ctx *BuildContext, t *docTotals) {
	writeStart(enc, "cobr")
	writeStart(enc, "fat")
	writeTag(enc, "nFat", strconv.FormatInt(ctx.Numero, 10))
	writeTag(enc, "vOrig", formatAmount(t.vNF))
	writeTag(enc, "vLiq", formatAmount(t.vNF))
	writeEnd(enc, "fat")
	for i, dup := range ctx.Duplicatas {
		writeStart(enc, "dup")
		writeTag(enc, "nDup", fmt.Sprintf("%03d-%02d", ctx.Numero%1000, i+1))
		writeTag(enc, "dVenc", dup.Vencimento.Format("2006-01-02"))
		writeTag(enc, "vDup", formatAmount(dup.Valor))
		writeEnd(enc, "dup")
	}
	writeEnd(enc, "cobr")
}

// docTotals somatórios acumulados durante a escrita dos itens.
type docTotals struct {
	vBC    decimal.Decimal
	vICMS  decimal.Decimal
	vProd  decimal.Decimal
	vDesc  decimal.Decimal
	vNF    decimal.Decimal
	vTroco decimal.Decimal
}

// writeDets escreve os grupos det (um por item) acumulando os totais.
func (s *XMLBuilderService) writeDets(enc *xml.Encoder, ctx *BuildContext) *docTotals {
	totals := &docTotals{}
	simples := ctx.Config.CRT == nfe.CRTSimplesNacional

	for i, item := range ctx.Sale.Items {
		det := xml.StartElement{
			Name: xml.Name{Local: "det"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "nItem"}, Value: strconv.Itoa(i + 1)}},
		}
		_ = enc.EncodeToken(det)

		ncm := item.NCM
		if ncm == "" {
			ncm = nfe.DefaultNCM
		}
		cfop := item.CFOP
		if cfop == "" {
			cfop = nfe.CFOPVendaDentroEstado
		}
		unidade := item.Unidade
		if unidade == "" {
			unidade = "UN"
		}

		vProd := item.Quantidade.Mul(item.ValorUnit).Round(2)

		writeStart(enc, "prod")
		writeTag(enc, "cProd", item.Codigo)
		writeTag(enc, "cEAN", "SEM GTIN")
		writeTag(enc, "xProd", item.Descricao)
		writeTag(enc, "NCM", ncm)
		writeTag(enc, "CFOP", cfop)
		writeTag(enc, "uCom", unidade)
		writeTag(enc, "qCom", item.Quantidade.Round(4).StringFixed(4))
		writeTag(enc, "vUnCom", formatAmount(item.ValorUnit))
		writeTag(enc, "vProd", formatAmount(vProd))
		writeTag(enc, "cEANTrib", "SEM GTIN")
		writeTag(enc, "uTrib", unidade)
		writeTag(enc, "qTrib", item.Quantidade.Round(4).StringFixed(4))
		writeTag(enc, "vUnTrib", formatAmount(item.ValorUnit))
		if item.Desconto.IsPositive() {
			writeTag(enc, "vDesc", formatAmount(item.Desconto))
		}
		writeTag(enc, "indTot", "1")
		writeEnd(enc, "prod")

		writeStart(enc, "imposto")
		writeStart(enc, "ICMS")
		if simples {
			// Simples Nacional sem permissão de crédito.
			writeStart(enc, "ICMSSN102")
			writeTag(enc, "orig", "0")
			writeTag(enc, "CSOSN", "102")
			writeEnd(enc, "ICMSSN102")
		} else {
			aliquota := decimal.NewFromInt(18) // ICMS interno padrão
			vICMS := vProd.Mul(aliquota).Div(decimal.NewFromInt(100)).Round(2)
			writeStart(enc, "ICMS00")
			writeTag(enc, "orig", "0")
			writeTag(enc, "CST", "00")
			writeTag(enc, "modBC", "3")
			writeTag(enc, "vBC", formatAmount(vProd))
			writeTag(enc, "pICMS", aliquota.StringFixed(2))
			writeTag(enc, "vICMS", formatAmount(vICMS))
			writeEnd(enc, "ICMS00")
			totals.vBC = totals.vBC.Add(vProd)
			totals.vICMS = totals.vICMS.Add(vICMS)
		}
		writeEnd(enc, "ICMS")
		writeStart(enc, "PIS")
		writeStart(enc, "PISNT")
		writeTag(enc, "CST", "07")
		writeEnd(enc, "PISNT")
		writeEnd(enc, "PIS")
		writeStart(enc, "COFINS")
		writeStart(enc, "COFINSNT")
		writeTag(enc, "CST", "07")
		writeEnd(enc, "COFINSNT")
		writeEnd(enc, "COFINS")
		writeEnd(enc, "imposto")

		_ = enc.EncodeToken(det.End())

		totals.vProd = totals.vProd.Add(vProd)
		totals.vDesc = totals.vDesc.Add(item.Desconto)
	}

	totals.vDesc = totals.vDesc.Add(ctx.Sale.Desconto)
	totals.vNF = totals.vProd.Sub(totals.vDesc)
	return totals
}

// writeTotal grupo total/ICMSTot com os somatórios acumulados.
func (s *XMLBuilderService) writeTotal(enc *xml.Encoder, t *docTotals) {
	zero := decimal.Zero
	writeStart(enc, "total")
	writeStart(enc, "ICMSTot")
	writeTag(enc, "vBC", formatAmount(t.vBC))
	writeTag(enc, "vICMS", formatAmount(t.vICMS))
	writeTag(enc, "vICMSDeson", formatAmount(zero))
	writeTag(enc, "vFCP", formatAmount(zero))
	writeTag(enc, "vBCST", formatAmount(zero))
	writeTag(enc, "vST", formatAmount(zero))
	writeTag(enc, "vFCPST", formatAmount(zero))
	writeTag(enc, "vFCPSTRet", formatAmount(zero))
	writeTag(enc, "vProd", formatAmount(t.vProd))
	writeTag(enc, "vFrete", formatAmount(zero))
	writeTag(enc, "vSeg", formatAmount(zero))
	writeTag(enc, "vDesc", formatAmount(t.vDesc))
	writeTag(enc, "vII", formatAmount(zero))
	writeTag(enc, "vIPI", formatAmount(zero))
	writeTag(enc, "vIPIDevol", formatAmount(zero))
	writeTag(enc, "vPIS", formatAmount(zero))
	writeTag(enc, "vCOFINS", formatAmount(zero))
	writeTag(enc, "vOutro", formatAmount(zero))
	writeTag(enc, "vNF", formatAmount(t.vNF))
	writeEnd(enc, "ICMSTot")
	writeEnd(enc, "total")
}

// writePag grupo de pagamentos; o troco é a diferença entre o pago e o vNF.
func (s *XMLBuilderService) writePag(enc *xml.Encoder, ctx *BuildContext, t *docTotals) {
	writeStart(enc, "pag")
	var pago decimal.Decimal
	if len(ctx.Sale.Payments) == 0 {
		writeStart(enc, "detPag")
		writeTag(enc, "tPag", nfe.PagDinheiro)
		writeTag(enc, "vPag", formatAmount(t.vNF))
		writeEnd(enc, "detPag")
		pago = t.vNF
	} else {
		for _, p := range ctx.Sale.Payments {
			codigo := p.Codigo
			if !nfe.ValidPaymentCodes[codigo] {
				codigo = nfe.PagOutros
			}
			writeStart(enc, "detPag")
			writeTag(enc, "tPag", codigo)
			writeTag(enc, "vPag", formatAmount(p.Valor))
			writeEnd(enc, "detPag")
			pago = pago.Add(p.Valor)
		}
	}
	if troco := pago.Sub(t.vNF); troco.IsPositive() {
		writeTag(enc, "vTroco", formatAmount(troco))
	}
	writeEnd(enc, "pag")
}

func writeStart(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
}

func writeEnd(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeTag(enc *xml.Encoder, local, value string) {
	writeStart(enc, local)
	_ = enc.EncodeToken(xml.CharData(value))
	writeEnd(enc, local)
}

// formatAmount formata valores monetários: ponto decimal, 2 casas, sem milhar.
func formatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
