package config_test

import (
	"testing"

	"github.com/jhoicas/factoring-api/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("APP_ENV", "development")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "subrogation", cfg.Storage.Prefix)
	assert.Empty(t, cfg.Storage.Bucket)
	assert.False(t, cfg.DB.Migrate)
	assert.Equal(t, "migrations", cfg.DB.MigrationsDir)
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE_BUCKET", "quittances")
	t.Setenv("STORAGE_PREFIX", "/cesiones/")
	t.Setenv("DB_MIGRATE", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, "quittances", cfg.Storage.Bucket)
	assert.Equal(t, "cesiones", cfg.Storage.Prefix)
	assert.True(t, cfg.DB.Migrate)
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{
		App:  config.AppConfig{Env: "production"},
		DB:   config.DBConfig{Driver: "postgres"},
		HTTP: config.HTTPConfig{Port: 8080},
	}
	assert.Error(t, cfg.Validate(), "producción sin JWT_SECRET")

	cfg.JWT.Secret = "s3cr3t"
	assert.NoError(t, cfg.Validate())

	cfg.DB.Driver = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestDSN_EscapaContrasena(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "factoring", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/factoring?sslmode=disable", c.ConnectionString())
}
