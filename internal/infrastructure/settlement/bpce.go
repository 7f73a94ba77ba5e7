package settlement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/pkg/siren"
	"github.com/shopspring/decimal"
)

// bpceRecordLen longitud fija de cada registro BPCE (sin CRLF).
const bpceRecordLen = 128

// Ajustes del diario usados por BPCE.
const (
	bpceSettingContract   = "contrat"
	bpceSettingRemittance = "remise"
)

var bpceHeader = []Field{
	Text("type", 2, Strict, true),
	Text("contrat", 10, Strict, true),
	Text("raison sociale", 30, CutHead, true),
	Number("date fichier", 8, true),
	Number("numéro de remise", 6, true),
	Text("devise", 3, Strict, true),
	Blank("filler", 69),
}

var bpceDetail = []Field{
	Text("type", 2, Strict, true),
	Number("séquence", 6, true),
	Text("type de pièce", 1, Strict, true),
	Text("référence client", 10, Strict, true),
	Text("nom client", 30, CutHead, true),
	Text("siren", 14, Strict, false),
	Text("numéro de pièce", 14, Strict, true),
	Number("date pièce", 8, true),
	Number("date échéance", 8, true),
	Number("montant", 13, true),
	Text("signe", 1, Strict, true),
	Blank("filler", 21),
}

var bpceTrailer = []Field{
	Text("type", 2, Strict, true),
	Number("séquence", 6, true),
	Number("nombre de pièces", 6, true),
	Number("montant net", 13, true),
	Text("signe", 1, Strict, true),
	Blank("filler", 100),
}

// BPCECodec archivo de ancho fijo BPCE: cabecera 01, detalle 02 y cierre 09.
type BPCECodec struct {
	san sanitizer
}

// NewBPCECodec construye el codec BPCE.
func NewBPCECodec() *BPCECodec {
	return &BPCECodec{san: sanitizer{allowed: ".,-/'"}}
}

// FactorType implementa Codec.
func (c *BPCECodec) FactorType() entity.FactorType { return entity.FactorTypeBPCE }

// Encode implementa Codec.
func (c *BPCECodec) Encode(b *Batch) ([]File, error) {
	problems := &domain.ValidationError{}
	settings := b.Journal.Settings
	if settings == nil {
		s, err := entity.ParseProviderSettings(b.Journal.SettingsText)
		if err != nil {
			problems.Add("%s", err.Error())
		}
		settings = s
	}
	header := bpceHeader
	if missing := settings.Missing(bpceSettingContract); len(missing) > 0 {
		problems.Add("el diario %s debe incluir las claves %v con valores correctos", b.Journal.Code, missing)
		header = optional(bpceHeader, "contrat")
	}
	if len(b.Items) == 0 {
		return nil, problems.OrNil()
	}

	remittance := 1
	if v := settings.Get(bpceSettingRemittance); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			problems.Add("el ajuste '%s' debe ser un número positivo: '%s'", bpceSettingRemittance, v)
		} else {
			remittance = n
		}
	}

	currency := b.Receipt.CurrencyCode
	rows := make([]string, 0, len(b.Items)+2)

	h := newRecord("cabecera", c.san, problems)
	values := []string{"01", settings.Get(bpceSettingContract), b.Company.Name,
		yyyymmdd(&b.FileDate), strconv.Itoa(remittance), currency, ""}
	for i, f := range header {
		h.put(f, values[i])
	}
	rows = append(rows, strings.Join(h.parts, ""))

	net := decimal.Zero
	for i, it := range b.Items {
		ref := moveRef(it)
		if it.Partner == nil {
			problems.Add("%s: sin cliente", ref)
			continue
		}
		amount := it.Line.Balance()
		net = net.Add(amount)
		sign := "+"
		if amount.IsNegative() {
			sign = "-"
		}
		docDate := it.Move.Date
		if it.Move.InvoiceDate != nil {
			docDate = *it.Move.InvoiceDate
		}
		due := it.Line.MaturityDate
		if due == nil {
			due = it.Move.InvoiceDueDate
		}
		registry := it.Partner.CompanyRegistry
		if registry != "" && it.Partner.IsFrench() {
			if err := siren.Validate(registry); err != nil {
				problems.Add("%s: cliente %s: %v", ref, it.Partner.Name, err)
			}
			registry = siren.Normalize(registry)
		}
		r := newRecord(ref, c.san, problems)
		values := []string{"02", strconv.Itoa(i + 1), PieceType(it.Move, it.Line), it.Partner.Ref,
			it.Partner.Name, registry, it.Move.Name, yyyymmdd(&docDate), yyyymmdd(due),
			cents(amount), sign, ""}
		for j, f := range bpceDetail {
			r.put(f, values[j])
		}
		rows = append(rows, strings.Join(r.parts, ""))
	}

	sign := "+"
	if net.IsNegative() {
		sign = "-"
	}
	t := newRecord("cierre", c.san, problems)
	values = []string{"09", strconv.Itoa(len(b.Items) + 1), strconv.Itoa(len(b.Items)), cents(net), sign, ""}
	for i, f := range bpceTrailer {
		t.put(f, values[i])
	}
	rows = append(rows, strings.Join(t.parts, ""))

	checkLength(rows, bpceRecordLen, problems)
	if problems.HasProblems() {
		return nil, problems
	}
	name := sanitizeFilepath(fmt.Sprintf("BPCE_%s_%s_%s.txt", b.FileDate.Format("2006-01-02"), b.Company.Name, b.Receipt.ID))
	return []File{newFile(name, []byte(strings.Join(rows, crlf)+crlf))}, nil
}
