package settlement

import (
	"fmt"
	"strings"

	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

const (
	eurofRecordLen = 240
	eurofFields    = 20
	eurofSep       = ";"
)

// Claves de configuración del diario Eurofactor.
const (
	eurofClient    = "client"
	eurofEmitterD  = "emetteurD" // actividad nacional
	eurofEmitterE  = "emetteurE" // exportación
	eurofMailProd  = "mail_prod"
	eurofKeyLength = 5
)

var eurofLayout = []Field{
	Text("emetteur", 5, Strict, true),
	Text("client", 5, Strict, true),
	Number("file_date", 8, true),
	Text("activity", 1, Strict, true),
	Text("afc", 3, Strict, true),
	Text("p_type", 1, Strict, true),
	Text("devise", 3, Strict, true),
	Text("ref_cli", 7, Exact, true),
	Text("ref_int", 15, Strict, true),
	Blank("blanc1", 23),
	Text("ref_move", 14, Strict, true),
	Number("total", 15, true),
	Number("date", 8, false),
	Number("date_due", 8, true),
	Text("paym", 1, Strict, true),
	Text("sale", 10, CutTail, false),
	Blank("ref_f", 25),
	Text("ref_a", 14, CutTail, false),
	Blank("blanc2", 51),
	Blank("blanc3", 3),
}

// EurofactorCodec registros de 240 caracteres separados por punto y coma,
// un archivo por actividad (D nacional, E exportación).
type EurofactorCodec struct {
	san sanitizer
}

// NewEurofactorCodec construye el codec Eurofactor.
func NewEurofactorCodec() *EurofactorCodec {
	return &EurofactorCodec{san: sanitizer{allowed: ".,-/'"}}
}

// FactorType implementa Codec.
func (c *EurofactorCodec) FactorType() entity.FactorType { return entity.FactorTypeEurof }

// Instruction indica dónde enviar los archivos (clave mail_prod).
func (c *EurofactorCodec) Instruction(settings entity.ProviderSettings) string {
	mail := settings.Get(eurofMailProd)
	if mail == "" {
		return ""
	}
	return fmt.Sprintf("Los archivos de cesión se envían a la dirección '%s'. Un solo archivo por correo.\n"+
		"El correo solo debe contener el archivo, sin firma ni imagen.", mail)
}

// Encode implementa Codec.
func (c *EurofactorCodec) Encode(b *Batch) ([]File, error) {
	problems := &domain.ValidationError{}
	if b.Receipt.StatementDate == nil {
		problems.Add("debe indicar la fecha del último extracto bancario")
	}
	layout := eurofLayout
	settings := b.Journal.Settings
	if settings == nil {
		s, err := entity.ParseProviderSettings(b.Journal.SettingsText)
		if err != nil {
			problems.Add("%s", err.Error())
		}
		settings = s
	}
	if missing := settings.Missing(eurofClient, eurofEmitterD, eurofEmitterE); len(missing) > 0 {
		problems.Add("el diario %s debe incluir las claves %v con valores correctos", b.Journal.Code, missing)
		layout = optional(eurofLayout, "emetteur", "client")
	}
	for _, k := range []string{eurofClient, eurofEmitterD, eurofEmitterE} {
		if v := settings.Get(k); v != "" && len(v) != eurofKeyLength {
			problems.Add("la longitud de '%s' (%s) debería ser de %d caracteres", v, k, eurofKeyLength)
		}
	}
	if len(b.Items) == 0 {
		return nil, problems.OrNil()
	}

	fileDate := yyyymmdd(&b.FileDate)
	byActivity := map[string][]string{}
	for _, it := range b.Items {
		ref := moveRef(it)
		m := it.Move
		partner := it.Partner
		if partner == nil {
			problems.Add("%s: sin cliente", ref)
			continue
		}
		refCli := ""
		switch {
		case it.ShippingPartner != nil && it.ShippingPartner.FactorIdentifier != "":
			refCli = it.ShippingPartner.FactorIdentifier
		case partner.FactorIdentifier != "":
			refCli = partner.FactorIdentifier
		default:
			problems.Add("falta un identificante Eurofactor para la %s", ref)
		}
		if partner.FactorBankAccount == "" {
			problems.Add("el cliente '%s' no tiene cuenta bancaria del factor", partner.Name)
		}

		activity, afc, emitter := "E", "999", settings.Get(eurofEmitterE)
		if partner.IsFrench() {
			activity, afc, emitter = "D", "711", settings.Get(eurofEmitterD)
		}
		pType := PieceType(m, it.Line)
		date := &m.Date
		paym := "T"
		refA := ""
		if pType == "F" {
			paym = "A"
			if m.InvoiceDate != nil {
				date = m.InvoiceDate
			}
		} else {
			refA = m.InvoiceOrigin
		}

		r := newRecord(ref, c.san, problems)
		values := []string{
			emitter, settings.Get(eurofClient), fileDate, activity, afc, pType,
			m.CurrencyCode, refCli, partner.Ref, "", m.Name, cents(m.AmountTotal),
			yyyymmdd(date), yyyymmdd(m.InvoiceDueDate), paym, m.InvoiceOrigin, "", refA, "", "",
		}
		for i, f := range layout {
			r.put(f, values[i])
		}
		row := strings.Join(r.parts, eurofSep) + eurofSep
		if n := strings.Count(row, eurofSep); n != eurofFields {
			problems.Add("%s: la fila contiene %d campos en lugar de %d", ref, n, eurofFields)
		}
		byActivity[activity] = append(byActivity[activity], row)
	}
	for _, rows := range byActivity {
		checkLength(rows, eurofRecordLen, problems)
	}
	if problems.HasProblems() {
		return nil, problems
	}

	var files []File
	dateName := b.FileDate.Format("2006-01-02")
	for _, act := range []struct{ code, key string }{{"D", eurofEmitterD}, {"E", eurofEmitterE}} {
		rows := byActivity[act.code]
		if len(rows) == 0 {
			continue
		}
		name := sanitizeFilepath(fmt.Sprintf("FAA%s_%s_%s_%s.txt", settings.Get(act.key), dateName, b.Company.Name, b.Receipt.ID), "-")
		files = append(files, newFile(name, []byte(strings.Join(rows, crlf))))
	}
	return files, nil
}
