package entity

import "time"

// Company empresa que cede sus créditos al factor.
type Company struct {
	ID        string
	Name      string
	Registry  string // SIREN
	Currency  Currency
	CreatedAt time.Time
	UpdatedAt time.Time
}
