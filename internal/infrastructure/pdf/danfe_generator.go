// Package pdf implementa a geração do DANFE NFC-e (documento auxiliar da
// NFC-e, venda presencial) usando Maroto v2.
//
// Layout da página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razão Social + CNPJ  │  NFC-e nº/série + Data       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMITENTE: Endereço / IE                                     │
//	│  CONSUMIDOR: CPF/CNPJ ou "não identificado"                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABELA: Qtd | Descrição | V.Unit | Total                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAIS: Subtotal / Desconto / TOTAL  + formas de pagamento  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER FISCAL: Chave de acesso + QR + protocolo             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
	pkgnfe "github.com/jrrjunior25/erp-pdv/pkg/nfe"
)

// ── Paleta de cores ───────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 20, Green: 60, Blue: 110}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// DanfeGenerator implementa fiscal.DocumentPDFGenerator usando Maroto v2.
type DanfeGenerator struct{}

// NewDanfeGenerator constrói o gerador.
func NewDanfeGenerator() *DanfeGenerator { return &DanfeGenerator{} }

// Generate gera o PDF do documento auxiliar e devolve os bytes.
func (g *DanfeGenerator) Generate(
	_ context.Context,
	doc *entity.FiscalDocument,
	sale *entity.Sale,
	emitente *entity.FiscalConfig,
) ([]byte, error) {
	if doc == nil || sale == nil || emitente == nil {
		return nil, fmt.Errorf("pdf: faltam documento, venda ou emitente")
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("DANFE NFC-e", true).
		WithAuthor(emitente.RazaoSocial, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc, emitente))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(emitenteRow(emitente))
	m.AddRows(consumidorRow(sale))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableItemRows(sale.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(sale))
	for _, r := range paymentRows(sale.Payments) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range fiscalFooterRows(doc) {
		m.AddRows(r)
	}

	pdfDoc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: gerar documento: %w", err)
	}
	return pdfDoc.GetBytes(), nil
}

// ── Seções ────────────────────────────────────────────────────────────────────

func headerRow(doc *entity.FiscalDocument, emitente *entity.FiscalConfig) core.Row {
	titulo := "DANFE NFC-e"
	if doc.Modelo == pkgnfe.ModeloNFe {
		titulo = "DANFE"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(emitente.RazaoSocial, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("CNPJ: "+emitente.CNPJ, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(titulo, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Nº %d  Série %d", doc.Numero, doc.Serie), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Emissão: "+doc.EmitidaEm.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func emitenteRow(emitente *entity.FiscalConfig) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("EMITENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s, %s - %s - %s/%s   |   IE: %s",
				emitente.Logradouro, emitente.Numero, emitente.Bairro,
				emitente.Municipio, emitente.UF, nonEmpty(emitente.IE, "ISENTO"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func consumidorRow(sale *entity.Sale) core.Row {
	texto := "CONSUMIDOR NÃO IDENTIFICADO"
	if sale.Cliente != nil {
		texto = fmt.Sprintf("%s   |   CPF/CNPJ: %s",
			nonEmpty(sale.Cliente.Nome, "—"), sale.Cliente.Documento)
	}
	return row.New(10).Add(
		col.New(12).Add(
			text.New("CONSUMIDOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(texto, props.Text{Size: 8, Top: 6, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Qtd.", 1, align.Center),
		h("Descrição", 6, align.Left),
		h("V. Unit.", 2, align.Right),
		h("Total", 3, align.Right),
	)
}

func tableItemRows(items []entity.SaleItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		total := it.Quantidade.Mul(it.ValorUnit).Sub(it.Desconto)
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				it.Quantidade.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(6).Add(text.New(
				it.Descricao,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"R$ "+it.ValorUnit.Round(2).StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				"R$ "+total.Round(2).StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

func totalsRow(sale *entity.Sale) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grand := func(s string, isLabel bool) core.Component {
		right := 1.0
		if isLabel {
			right = 2.0
		}
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: right,
		})
	}

	subtotal := sale.Total.Add(sale.Desconto)
	return row.New(20).Add(
		col.New(4),
		col.New(3).Add(
			label("Subtotal:"),
			label("Desconto:"),
			grand("TOTAL:", true),
		),
		col.New(3).Add(
			value("R$ "+subtotal.Round(2).StringFixed(2)),
			value("R$ "+sale.Desconto.Round(2).StringFixed(2)),
			grand("R$ "+sale.Total.Round(2).StringFixed(2), false),
		),
		col.New(2),
	)
}

func paymentRows(payments []entity.SalePayment) []core.Row {
	nomes := map[string]string{
		pkgnfe.PagDinheiro:      "Dinheiro",
		pkgnfe.PagCartaoCredito: "Cartão de crédito",
		pkgnfe.PagCartaoDebito:  "Cartão de débito",
		pkgnfe.PagPIX:           "PIX",
	}
	rows := make([]core.Row, 0, len(payments))
	for _, p := range payments {
		nome, ok := nomes[p.Codigo]
		if !ok {
			nome = "Outros"
		}
		rows = append(rows, row.New(5).Add(
			col.New(7),
			col.New(3).Add(text.New(nome+":", props.Text{
				Size: 8, Align: align.Right, Right: 2, Color: colorGray,
			})),
			col.New(2).Add(text.New("R$ "+p.Valor.Round(2).StringFixed(2), props.Text{
				Size: 8, Align: align.Right, Right: 1, Color: colorGray,
			})),
		))
	}
	return rows
}

func fiscalFooterRows(doc *entity.FiscalDocument) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMAÇÕES FISCAIS", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New("Chave de acesso:", props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1,
			}),
		)),
		row.New(4).Add(col.New(12).Add(
			text.New(groupAccessKey(doc.ChaveAcesso), props.Text{
				Size: 7, Color: colorGray, Top: 0.5, Left: 2,
			}),
		)),
	}

	if doc.Protocolo != "" {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Protocolo de autorização: %s em %s",
				doc.Protocolo, doc.EmitidaEm.Format("02/01/2006 15:04:05")),
				props.Text{Size: 7, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}

	rows = append(rows, row.New(3))

	if doc.QRCodeURL != "" {
		rows = append(rows, row.New(45).Add(
			col.New(4).Add(code.NewQr(doc.QRCodeURL, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Consulte pela chave de acesso em\nwww.nfce.fazenda.sp.gov.br", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
			),
		))
	}

	if doc.Status == entity.FiscalStatusSemCertificado {
		rows = append(rows, row.New(8).Add(col.New(12).Add(
			text.New("DOCUMENTO GERADO SEM CERTIFICADO DIGITAL - NÃO TRANSMITIDO À SEFAZ", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}
	if doc.Ambiente == pkgnfe.AmbienteHomologacao {
		rows = append(rows, row.New(8).Add(col.New(12).Add(
			text.New("EMITIDO EM AMBIENTE DE HOMOLOGAÇÃO - SEM VALOR FISCAL", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// groupAccessKey agrupa a chave em blocos de 4 dígitos para leitura.
func groupAccessKey(chave string) string {
	var out []byte
	for i := 0; i < len(chave); i++ {
		if i > 0 && i%4 == 0 {
			out = append(out, ' ')
		}
		out = append(out, chave[i])
	}
	return string(out)
}
