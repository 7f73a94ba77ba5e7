package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/factoring-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/factoring-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "factoring-api-test"
	testExpMin    = 60
)

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// guardedApp expone /guarded detrás de AuthMiddleware(issuer) y RequireRole(roles...).
func guardedApp(issuer string, roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/guarded",
		apphttp.AuthMiddleware(testJWTSecret, issuer),
		apphttp.RequireRole(roles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"user_id":    apphttp.GetUserID(c),
				"company_id": apphttp.GetCompanyID(c),
				"role":       apphttp.GetRole(c),
			})
		},
	)
	return app
}

func TestAuthMiddleware_Acceso(t *testing.T) {
	emptyRole, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, "", testIssuer, testExpMin)
	require.NoError(t, err)

	cases := []struct {
		name     string
		issuer   string
		allowed  []string
		header   string
		wantCode int
		wantBody string
	}{
		{"admin en ruta de administración", testIssuer, []string{pkgjwt.RoleAdmin}, tokenForRole(t, pkgjwt.RoleAdmin), http.StatusOK, ""},
		{"contable en ruta de operación", testIssuer, []string{pkgjwt.RoleAdmin, pkgjwt.RoleAccountant}, tokenForRole(t, pkgjwt.RoleAccountant), http.StatusOK, ""},
		{"consulta en ruta de administración", testIssuer, []string{pkgjwt.RoleAdmin}, tokenForRole(t, pkgjwt.RoleViewer), http.StatusForbidden, "FORBIDDEN"},
		{"contable en ruta de administración", testIssuer, []string{pkgjwt.RoleAdmin}, tokenForRole(t, pkgjwt.RoleAccountant), http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", testIssuer, []string{pkgjwt.RoleAdmin}, "Bearer " + emptyRole, http.StatusUnauthorized, "MISSING_ROLE"},
		{"sin cabecera", testIssuer, []string{pkgjwt.RoleAdmin}, "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"token malformado", testIssuer, []string{pkgjwt.RoleAdmin}, "Bearer token.invalido.aqui", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"emisor distinto", "otro-emisor", []string{pkgjwt.RoleAdmin}, tokenForRole(t, pkgjwt.RoleAdmin), http.StatusUnauthorized, "INVALID_TOKEN"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := guardedApp(tc.issuer, tc.allowed...).Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.wantCode, resp.StatusCode)
			if tc.wantBody != "" {
				raw, _ := io.ReadAll(resp.Body)
				assert.Contains(t, string(raw), tc.wantBody)
			}
		})
	}
}

func TestAuthMiddleware_CargaClaimsEnLocals(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleViewer))
	resp, err := guardedApp(testIssuer, pkgjwt.RoleViewer).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, pkgjwt.RoleViewer, body["role"])
}
