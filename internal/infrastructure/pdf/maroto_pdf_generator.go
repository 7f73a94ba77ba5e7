// Package pdf genera el resumen imprimible (bordereau) de una cesión al factor.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + SIREN     │  Cesión + fechas             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  Por grupo (Francia / Exportación o único):                 │
//	│  TABLA: Cliente | Pieza | Tipo | Fecha | Vencim. | Importe  │
//	│  Total del grupo                                            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Saldo / Retención / Gastos / Impuesto             │
//	│  FOOTER: instrucción de envío + QR de control               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/factoring-api/internal/application/subrogation"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ subrogation.ReceiptPDFGenerator = (*MarotoReceiptGenerator)(nil)

// MarotoReceiptGenerator implementa subrogation.ReceiptPDFGenerator usando Maroto v2.
type MarotoReceiptGenerator struct{}

// NewMarotoReceiptGenerator construye el generador.
func NewMarotoReceiptGenerator() *MarotoReceiptGenerator { return &MarotoReceiptGenerator{} }

// GenerateReceiptPDF genera el PDF y devuelve sus bytes.
func (g *MarotoReceiptGenerator) GenerateReceiptPDF(_ context.Context, rep *subrogation.ReceiptReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Cesión "+rep.Title, true).
		WithAuthor(rep.CompanyName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	if len(rep.Groups) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("La cesión no tiene líneas.", props.Text{Size: 9, Top: 3, Color: colorGray}),
		)))
	}
	for _, grp := range rep.Groups {
		m.AddRows(groupTitleRow(grp.Label))
		m.AddRows(tableHeaderRow())
		m.AddRows(tableDetailRows(grp.Lines, rep.Currency)...)
		m.AddRows(groupTotalRow(grp, rep.Currency))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(rep))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(rep)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: empresa + SIREN (izq) y cesión + fechas (der).
func headerRow(rep *subrogation.ReceiptReport) core.Row {
	dates := "Corte: " + rep.TargetDate.Format("02/01/2006")
	if rep.StatementDate != nil {
		dates += "   |   Extracto: " + rep.StatementDate.Format("02/01/2006")
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(rep.CompanyName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("SIREN: "+nonEmpty(rep.CompanyRegistry, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("CESIÓN DE CRÉDITOS · "+strings.ToUpper(rep.FactorLabel), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(rep.Title, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New(dates, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func groupTitleRow(label string) core.Row {
	return row.New(9).Add(col.New(12).Add(
		text.New(strings.ToUpper(label), props.Text{
			Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 3,
		}),
	))
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("Cliente", 4, align.Left),
		h("Pieza", 2, align.Left),
		h("Tipo", 1, align.Center),
		h("Fecha", 1, align.Center),
		h("Vencim.", 1, align.Center),
		h("Importe", 3, align.Right),
	)
}

// tableDetailRows: una fila por línea cedida.
func tableDetailRows(lines []subrogation.ReportLine, currency string) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		due := "—"
		if l.DueDate != nil {
			due = l.DueDate.Format("02/01/06")
		}
		result = append(result, row.New(7).Add(
			col.New(4).Add(text.New(l.Partner, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(l.Document, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(1).Add(text.New(l.Type, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(l.Date.Format("02/01/06"), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(due, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(formatAmount(l.Amount, currency), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func groupTotalRow(grp subrogation.ReportGroup, currency string) core.Row {
	return row.New(8).Add(
		col.New(9).Add(text.New(fmt.Sprintf("Total %s (%d líneas)", grp.Label, len(grp.Lines)), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 2, Right: 2,
		})),
		col.New(3).Add(text.New(formatAmount(grp.Total, currency), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 2, Right: 1,
		})),
	)
}

// totalsRow: saldo cedido y los importes informados por el factor.
func totalsRow(rep *subrogation.ReceiptReport) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(d decimal.Decimal) core.Component {
		return text.New(formatAmount(d, rep.Currency), props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			text.New("SALDO CEDIDO:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2}),
			label("Retención:"),
			label("Gastos sin impuestos:"),
			label("Impuesto de los gastos:"),
		),
		col.New(3).Add(
			text.New(formatAmount(rep.Balance, rep.Currency), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1}),
			value(rep.HoldbackAmount),
			value(rep.ExpenseUntaxedAmount),
			value(rep.ExpenseTaxAmount),
		),
		col.New(3),
	)
}

// footerRows: instrucción de envío del proveedor y QR de control del saldo.
func footerRows(rep *subrogation.ReceiptReport) []core.Row {
	instruction := nonEmpty(rep.Instruction, "Envíe los archivos de cesión por el canal acordado con el factor.")
	control := fmt.Sprintf("%s|%s|%s|%s", rep.Title, rep.Currency, rep.Balance.StringFixed(2), rep.State)
	return []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("ENVÍO AL FACTOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		)),
		row.New(35).Add(
			col.New(3).Add(code.NewQr(control, props.Rect{Percent: 95, Center: true})),
			col.New(9).Add(
				text.New(instruction, props.Text{Size: 8, Top: 3, Left: 3, Color: colorGray}),
				text.New("Estado: "+rep.State, props.Text{Style: fontstyle.Bold, Size: 9, Top: 24, Left: 3, Color: colorPrimary}),
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatAmount importe con separador de miles y coma decimal: "1 234,56 EUR".
func formatAmount(d decimal.Decimal, currency string) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+4)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if d.IsNegative() {
		out = "-" + out
	}
	if currency != "" {
		out += " " + currency
	}
	return out
}
