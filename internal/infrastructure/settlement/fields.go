package settlement

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const crlf = "\r\n"

// Align alineación del valor dentro del campo.
type Align int

const (
	AlignLeft  Align = iota // texto, relleno a la derecha
	AlignRight              // números, relleno a la izquierda
)

// Overflow tratamiento de un valor más largo que el campo.
type Overflow int

const (
	Strict  Overflow = iota // problema de validación
	CutHead                 // conserva los primeros caracteres
	CutTail                 // conserva los últimos caracteres
	Exact                   // la longitud debe ser exactamente Width
)

// Field definición de un campo de ancho fijo.
type Field struct {
	Name     string
	Width    int
	Align    Align
	Pad      byte
	Overflow Overflow
	Required bool
}

// Text campo de texto alineado a la izquierda.
func Text(name string, width int, overflow Overflow, required bool) Field {
	return Field{Name: name, Width: width, Align: AlignLeft, Pad: ' ', Overflow: overflow, Required: required}
}

// Number campo numérico relleno con ceros.
func Number(name string, width int, required bool) Field {
	return Field{Name: name, Width: width, Align: AlignRight, Pad: '0', Overflow: Strict, Required: required}
}

// Blank relleno de espacios.
func Blank(name string, width int) Field {
	return Field{Name: name, Width: width, Align: AlignLeft, Pad: ' ', Overflow: CutHead}
}

// optional copia del diseño con los campos indicados como no obligatorios.
// Se usa cuando el problema ya se reportó a nivel de diario.
func optional(layout []Field, names ...string) []Field {
	out := make([]Field, len(layout))
	copy(out, layout)
	for i := range out {
		for _, n := range names {
			if out[i].Name == n {
				out[i].Required = false
			}
		}
	}
	return out
}

// Charset caracteres admitidos por el proveedor además de A-Z y 0-9.
type Charset string

// sanitizer pasa a mayúsculas, quita acentos y sustituye lo no admitido por espacio.
type sanitizer struct {
	allowed Charset
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func (s sanitizer) clean(v string) string {
	out, _, err := transform.String(stripMarks, v)
	if err != nil {
		out = v
	}
	out = strings.ToUpper(out)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			return r
		case r < unicode.MaxASCII && strings.ContainsRune(string(s.allowed), r):
			return r
		default:
			return ' '
		}
	}, out)
}

// record construye una fila campo a campo acumulando problemas.
type record struct {
	ref      string // referencia de negocio para los mensajes
	san      sanitizer
	problems *domain.ValidationError
	parts    []string
}

func newRecord(ref string, san sanitizer, problems *domain.ValidationError) *record {
	return &record{ref: ref, san: san, problems: problems}
}

// put escribe el valor ya formateado en el campo.
func (r *record) put(f Field, value string) {
	v := r.san.clean(value)
	if f.Required && strings.TrimSpace(v) == "" {
		r.problems.Add("%s: falta el dato '%s'", r.ref, f.Name)
	}
	n := len(v)
	switch {
	case f.Overflow == Exact && n != f.Width && strings.TrimSpace(v) != "":
		r.problems.Add("%s: la longitud de '%s' (%s) debería ser de %d caracteres", r.ref, v, f.Name, f.Width)
	case n > f.Width && f.Overflow == Strict:
		r.problems.Add("%s: el valor '%s' de %s excede el ancho de %d caracteres", r.ref, v, f.Name, f.Width)
		v = v[:f.Width]
	case n > f.Width && f.Overflow == CutTail:
		v = v[n-f.Width:]
	case n > f.Width:
		v = v[:f.Width]
	}
	r.parts = append(r.parts, pad(v, f.Width, f.Pad, f.Align))
}

func pad(v string, width int, p byte, align Align) string {
	if len(v) >= width {
		return v
	}
	fill := strings.Repeat(string(p), width-len(v))
	if align == AlignRight {
		return fill + v
	}
	return v + fill
}

// cents importe absoluto en céntimos sin separador decimal.
func cents(amount decimal.Decimal) string {
	return strings.Replace(amount.Abs().StringFixed(2), ".", "", 1)
}

func yyyymmdd(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("20060102")
}

// checkLength valida la longitud exacta de cada fila.
func checkLength(rows []string, want int, problems *domain.ValidationError) {
	for i, row := range rows {
		if len(row) != want {
			problems.Add("la fila %d contiene %d caracteres en lugar de %d\n%s", i+1, len(row), want, row)
		}
	}
}

// sanitizeFilepath sustituye los caracteres no válidos en nombres de archivo.
func sanitizeFilepath(s string, extra ...string) string {
	repl := []string{"/", " ", ":", "<", ">", "\\", "|", "?", "*"}
	repl = append(repl, extra...)
	for _, c := range repl {
		s = strings.ReplaceAll(s, c, "_")
	}
	return s
}

// PieceType F factura, A abono (por tipo de asiento o signo de la línea).
func PieceType(m *entity.Move, l *entity.LedgerLine) string {
	switch m.MoveType {
	case entity.MoveOutRefund:
		return "A"
	case entity.MoveOutInvoice:
		return "F"
	}
	if l != nil && l.Balance().IsNegative() {
		return "A"
	}
	return "F"
}

func moveRef(it Item) string {
	if it.Move == nil {
		return fmt.Sprintf("línea %s", it.Line.ID)
	}
	return fmt.Sprintf("pieza '%s'", it.Move.Name)
}
