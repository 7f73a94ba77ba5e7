package entity

import (
	"fmt"
	"sort"
	"strings"
)

// ProviderSettings parámetros propios de cada factor (clave = valor).
type ProviderSettings map[string]string

// ParseProviderSettings interpreta el texto libre del diario:
//
//	client = 45678
//	emetteurD = 54321  # comentario
//
// Las líneas que empiezan por # o sin "=" se ignoran.
func ParseProviderSettings(text string) (ProviderSettings, error) {
	vals := ProviderSettings{}
	for i, row := range strings.Split(strings.TrimSpace(text), "\n") {
		row = strings.TrimRight(row, "\r")
		if row == "" || strings.HasPrefix(row, "#") || !strings.Contains(row, "=") {
			continue
		}
		parts := strings.Split(row, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("línea %d de la configuración del factor no es conforme: %q", i+1, row)
		}
		key, val := parts[0], parts[1]
		if idx := strings.Index(val, "#"); idx >= 0 {
			val = val[:idx]
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("línea %d de la configuración del factor sin clave: %q", i+1, row)
		}
		vals[key] = strings.TrimSpace(val)
	}
	return vals, nil
}

// Get devuelve el valor de la clave o "" si no existe.
func (s ProviderSettings) Get(key string) string {
	if s == nil {
		return ""
	}
	return s[key]
}

// Missing devuelve, ordenadas, las claves requeridas sin valor.
func (s ProviderSettings) Missing(keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if s.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}
