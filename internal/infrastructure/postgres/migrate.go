package postgres

import (
	"errors"
	"fmt"
	"net/url"

	migrate "github.com/golang-migrate/migrate/v4"
	// Registran el driver pgx v5 y la fuente file:// de golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate aplica las migraciones pendientes de dir (file source) sobre dsn.
// Devuelve la versión resultante; sin cambios no es error.
func Migrate(dsn, dir string) (uint, error) {
	target, err := migrateURL(dsn)
	if err != nil {
		return 0, err
	}
	m, err := migrate.New("file://"+dir, target)
	if err != nil {
		return 0, fmt.Errorf("migraciones: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("aplicar migraciones: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("versión del esquema: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("esquema en estado dirty en la versión %d", version)
	}
	return version, nil
}

// migrateURL el driver pgx v5 de golang-migrate se registra con el esquema pgx5://.
func migrateURL(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("DSN inválido: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql", "pgx5":
		u.Scheme = "pgx5"
	default:
		return "", fmt.Errorf("esquema de DSN no soportado %q", u.Scheme)
	}
	return u.String(), nil
}
