// Package settlement genera los archivos de cesión (quittance) de cada factor.
// Solo salida: ningún formato se vuelve a leer.
package settlement

import (
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
)

// Item línea cedida con su asiento y clientes.
type Item struct {
	Line    *entity.LedgerLine
	Move    *entity.Move
	Partner *entity.Partner // cliente comercial
	// ShippingPartner cliente de entrega; su identificante tiene prioridad (Eurofactor).
	ShippingPartner *entity.Partner
}

// Batch datos de entrada del codificador.
type Batch struct {
	Receipt  *entity.SubrogationReceipt
	Journal  *entity.FactoringJournal
	Company  *entity.Company
	Items    []Item
	FileDate time.Time
}

// File archivo generado listo para adjuntar.
type File struct {
	Name    string
	Data    []byte
	Encoded string // base64 de Data
}

func newFile(name string, data []byte) File {
	return File{Name: name, Data: data, Encoded: base64.StdEncoding.EncodeToString(data)}
}

// Codec formato de archivo de un proveedor.
type Codec interface {
	FactorType() entity.FactorType
	// Encode devuelve los archivos o un *domain.ValidationError con todos los problemas.
	Encode(b *Batch) ([]File, error)
}

// Instructor codecs que indican cómo enviar los archivos al factor.
type Instructor interface {
	Instruction(settings entity.ProviderSettings) string
}

// Registry codecs por tipo de factor.
type Registry struct {
	codecs map[entity.FactorType]Codec
}

// NewRegistry registra los codecs dados; el último gana si hay repetidos.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: make(map[entity.FactorType]Codec, len(codecs))}
	for _, c := range codecs {
		r.codecs[c.FactorType()] = c
	}
	return r
}

// DefaultRegistry BPCE y Eurofactor.
func DefaultRegistry() *Registry {
	return NewRegistry(NewBPCECodec(), NewEurofactorCodec())
}

// Get devuelve el codec del tipo o un error de configuración.
func (r *Registry) Get(t entity.FactorType) (Codec, error) {
	c, ok := r.codecs[t]
	if !ok {
		return nil, &domain.ConfigError{Entity: "journal", Field: "factor_type", Hint: fmt.Sprintf("sin formato de archivo para %q", t)}
	}
	return c, nil
}

// Types tipos registrados, ordenados.
func (r *Registry) Types() []entity.FactorType {
	out := make([]entity.FactorType, 0, len(r.codecs))
	for t := range r.codecs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
