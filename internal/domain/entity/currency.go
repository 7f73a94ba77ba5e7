package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency moneda con su precisión decimal (EUR = 2, JPY = 0).
type Currency struct {
	Code     string
	Decimals int32
}

// EUR moneda por defecto de los diarios de factoring franceses.
var EUR = Currency{Code: "EUR", Decimals: 2}

// CurrencyFor devuelve la moneda ISO con su precisión (2 decimales salvo las monedas sin subunidad o de milésimas).
func CurrencyFor(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch code {
	case "JPY", "KRW", "XOF", "XAF", "XPF":
		return Currency{Code: code, Decimals: 0}
	case "BHD", "JOD", "KWD", "OMR", "TND":
		return Currency{Code: code, Decimals: 3}
	}
	return Currency{Code: code, Decimals: 2}
}

// Round redondea al número de decimales de la moneda (half away from zero).
func (c Currency) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(c.Decimals)
}

// Unit devuelve la unidad mínima de la moneda (0.01 para EUR).
func (c Currency) Unit() decimal.Decimal {
	return decimal.New(1, -c.Decimals)
}

// Compare compara a y b con tolerancia de media unidad mínima: -1, 0 o 1.
func (c Currency) Compare(a, b decimal.Decimal) int {
	diff := c.Round(a.Sub(b))
	switch {
	case diff.IsZero():
		return 0
	case diff.IsNegative():
		return -1
	default:
		return 1
	}
}

// IsZero indica si el importe es cero a la precisión de la moneda.
func (c Currency) IsZero(d decimal.Decimal) bool {
	return c.Compare(d, decimal.Zero) == 0
}

// IsPositive indica si el importe es estrictamente positivo a la precisión de la moneda.
func (c Currency) IsPositive(d decimal.Decimal) bool {
	return c.Compare(d, decimal.Zero) > 0
}
