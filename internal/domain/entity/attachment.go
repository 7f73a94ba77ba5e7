package entity

import "time"

// Attachment archivo adjunto a un registro (p. ej. archivo de cesión).
type Attachment struct {
	ID        string
	Name      string
	ResModel  string
	ResID     string
	Data      []byte
	Checksum  string
	Location  string // URI del backend (gs://... o postgres)
	CreatedAt time.Time
}
