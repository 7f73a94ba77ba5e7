package postgres

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	got, err := migrateURL("postgres://app:secreto@db:5432/factoring?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://app:secreto@db:5432/factoring?sslmode=disable", got)

	got, err = migrateURL("postgresql://app@db/factoring")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://app@db/factoring", got)

	_, err = migrateURL("mysql://app@db/factoring")
	assert.Error(t, err)
}

func TestLookupIPv4_Literales(t *testing.T) {
	ip, err := lookupIPv4(context.Background(), net.DefaultResolver, "10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", ip)

	_, err = lookupIPv4(context.Background(), net.DefaultResolver, "::1")
	assert.Error(t, err, "una IPv6 literal no se fuerza a tcp4")
}
