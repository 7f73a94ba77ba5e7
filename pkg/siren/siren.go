package siren

import (
	"fmt"
	"unicode"
)

// Validate comprueba un SIREN (9 dígitos) o SIRET (14 dígitos) con o sin espacios.
// Ambos llevan como último dígito una clave de Luhn.
func Validate(registry string) error {
	digits := extractDigits(registry)
	if len(digits) != 9 && len(digits) != 14 {
		return fmt.Errorf("siren: se esperaban 9 (SIREN) o 14 (SIRET) dígitos, se encontraron %d", len(digits))
	}
	if !luhn(digits) {
		return fmt.Errorf("siren: clave de control inválida en %s", string(digits))
	}
	return nil
}

// Normalize devuelve solo los dígitos del identificador.
func Normalize(registry string) string {
	return string(extractDigits(registry))
}

func luhn(digits []byte) bool {
	var sum int
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if (len(digits)-1-i)%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
