package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/application/factoring"
	"github.com/jhoicas/factoring-api/internal/application/subrogation"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/infrastructure/memory"
	"github.com/jhoicas/factoring-api/internal/infrastructure/settlement"
	apphttp "github.com/jhoicas/factoring-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/factoring-api/pkg/jwt"
	"github.com/jhoicas/factoring-api/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	journalID = "j-bpce"
	partnerID = "p1"
)

var today = time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)

type pdfStub struct{}

func (pdfStub) GenerateReceiptPDF(_ context.Context, _ *subrogation.ReceiptReport) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

type apiFixture struct {
	store *memory.Store
	app   *fiber.App
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	s := memory.NewStore()
	s.SetClock(func() time.Time { return today })
	s.PutCompany(&entity.Company{ID: testCompanyID, Name: "Akretion", Currency: entity.EUR})
	s.PutJournal(&entity.FactoringJournal{
		ID:                     journalID,
		CompanyID:              testCompanyID,
		Code:                   "BPCE",
		Currency:               entity.EUR,
		FactorType:             entity.FactorTypeBPCE,
		ValidationMode:         entity.ValidationAutomatic,
		FeePercent:             decimal.Zero,
		HoldbackPercent:        decimal.NewFromInt(10),
		DefaultAccountID:       "467100",
		FeeAccountID:           "627000",
		HoldbackAccountID:      "467200",
		LimitHoldbackAccountID: "467300",
	})
	s.PutPartner(&entity.Partner{
		ID:                  partnerID,
		CompanyID:           testCompanyID,
		Name:                "ACME",
		CountryCode:         "FR",
		ReceivableAccountID: "411000",
		FactorJournalID:     journalID,
		FactorCreditLimit:   decimal.Zero,
	})

	log := logger.Nop()
	clock := func() time.Time { return today }
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		JournalUC:  factoring.NewJournalUseCase(s, log),
		TransferUC: factoring.NewTransferUseCase(s, log).WithClock(clock),
		SettleUC:   factoring.NewSettlementUseCase(s, log).WithClock(clock),
		CancelUC:   factoring.NewCancelUseCase(s, log),
		BalanceUC:  factoring.NewBalanceUseCase(s),
		ReceiptUC:  subrogation.NewReceiptUseCase(s, settlement.DefaultRegistry(), pdfStub{}, log).WithClock(clock),
		JWTSecret:  testJWTSecret,
		JWTIssuer:  testIssuer,
	})
	return &apiFixture{store: s, app: app}
}

func (f *apiFixture) invoice(name, total string) string {
	amount := decimal.RequireFromString(total)
	date := today.AddDate(0, 0, -10)
	m := &entity.Move{
		CompanyID:           testCompanyID,
		Name:                name,
		MoveType:            entity.MoveOutInvoice,
		State:               entity.MovePosted,
		PaymentState:        entity.PaymentNotPaid,
		PartnerID:           partnerID,
		CommercialPartnerID: partnerID,
		JournalID:           "sales",
		CurrencyCode:        "EUR",
		AmountTotal:         amount,
		Date:                date,
		InvoiceDate:         &date,
		Lines: []*entity.LedgerLine{
			{AccountID: "411000", AccountType: entity.AccountReceivable, PartnerID: partnerID, Name: name, Debit: amount, Credit: decimal.Zero, CurrencyCode: "EUR"},
			{AccountID: "706000", AccountType: entity.AccountOther, PartnerID: partnerID, Debit: decimal.Zero, Credit: amount, CurrencyCode: "EUR"},
		},
	}
	f.store.PutMove(m)
	return m.ID
}

func (f *apiFixture) call(t *testing.T, method, path, role, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestRouter_TransferenciaYDuplicado(t *testing.T) {
	f := newAPI(t)
	inv := f.invoice("FAC/2024/0001", "1150")

	resp, raw := f.call(t, http.MethodPost, "/api/factoring/invoices/"+inv+"/transfer", pkgjwt.RoleAccountant, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var out dto.TransferResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, string(entity.PaymentTransferredToFactor), out.InvoiceState)
	assert.True(t, decimal.NewFromInt(1035).Equal(out.Remaining))

	resp, raw = f.call(t, http.MethodPost, "/api/factoring/invoices/"+inv+"/transfer", pkgjwt.RoleAccountant, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(raw), "DUPLICATE")

	resp, raw = f.call(t, http.MethodGet, "/api/factoring/invoices/"+inv+"/state", pkgjwt.RoleViewer, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"payment_state_with_factor":"transferred_to_factor"`)
}

func TestRouter_ConsultaNoPuedeTransferir(t *testing.T) {
	f := newAPI(t)
	inv := f.invoice("FAC/2024/0002", "100")

	resp, raw := f.call(t, http.MethodPost, "/api/factoring/invoices/"+inv+"/transfer", pkgjwt.RoleViewer, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(raw), "FORBIDDEN")
}

func TestRouter_FacturaInexistente(t *testing.T) {
	f := newAPI(t)
	resp, raw := f.call(t, http.MethodGet, "/api/factoring/invoices/no-existe/state", pkgjwt.RoleViewer, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(raw), "NOT_FOUND")
}

func TestRouter_SaldoDelDiario(t *testing.T) {
	f := newAPI(t)
	inv := f.invoice("FAC/2024/0003", "1150")
	resp, _ := f.call(t, http.MethodPost, "/api/factoring/invoices/"+inv+"/transfer", pkgjwt.RoleAdmin, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := f.call(t, http.MethodGet, "/api/factoring/journals/"+journalID+"/balance?partner_id="+partnerID, pkgjwt.RoleViewer, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bal dto.FactorBalanceResponse
	require.NoError(t, json.Unmarshal(raw, &bal))
	assert.Equal(t, partnerID, bal.PartnerID)
	assert.True(t, decimal.NewFromInt(115).Equal(bal.HoldbackBalance))
}

func TestRouter_CrearDiario(t *testing.T) {
	f := newAPI(t)
	body := `{"code":"euf","name":"Eurofactor EUR","currency":"EUR","factor_type":"eurof","holdback_percent":"5","default_account_id":"467500"}`

	resp, _ := f.call(t, http.MethodPost, "/api/factoring/journals", pkgjwt.RoleAccountant, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin configura diarios")

	resp, raw := f.call(t, http.MethodPost, "/api/factoring/journals", pkgjwt.RoleAdmin, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var j dto.JournalResponse
	require.NoError(t, json.Unmarshal(raw, &j))
	assert.Equal(t, "EUF", j.Code)

	resp, raw = f.call(t, http.MethodPost, "/api/factoring/journals", pkgjwt.RoleAdmin, `{"code":"x","currency":"EUR","factor_type":"otro"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "INVALID_INPUT")
}

func TestRouter_CesionSinDiarioDelProveedor(t *testing.T) {
	f := newAPI(t)
	resp, raw := f.call(t, http.MethodPost, "/api/subrogation/receipts", pkgjwt.RoleAccountant, `{"factor_type":"eurof"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(raw), "CONFIGURATION")
}

func TestRouter_CesionSinLineas(t *testing.T) {
	f := newAPI(t)
	resp, raw := f.call(t, http.MethodPost, "/api/subrogation/receipts", pkgjwt.RoleAccountant, `{"factor_type":"bpce"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "NO_ELIGIBLE_ITEMS", e.Code)
	require.Len(t, e.Details, 1, "el filtro aplicado se devuelve al cliente")
}

func TestRouter_CicloDeLaCesion(t *testing.T) {
	f := newAPI(t)
	f.invoice("FAC/2024/0004", "600")

	resp, raw := f.call(t, http.MethodPost, "/api/subrogation/receipts", pkgjwt.RoleAccountant, `{"factor_type":"bpce"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var created dto.CreateReceiptsResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	require.Len(t, created.Receipts, 1)
	id := created.Receipts[0].ID
	assert.Equal(t, 1, created.Receipts[0].LineCount)

	resp, raw = f.call(t, http.MethodGet, "/api/subrogation/receipts?limit=5", pkgjwt.RoleViewer, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.ReceiptListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 5, list.Page.Limit)

	// Sin contrato BPCE el archivo no se puede generar: la cesión sigue en borrador.
	resp, raw = f.call(t, http.MethodPost, "/api/subrogation/receipts/"+id+"/confirm", pkgjwt.RoleAccountant, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var verr dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &verr))
	assert.Equal(t, "VALIDATION", verr.Code)
	assert.NotEmpty(t, verr.Details)

	resp, raw = f.call(t, http.MethodGet, "/api/subrogation/receipts/"+id, pkgjwt.RoleViewer, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got dto.ReceiptResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, string(entity.ReceiptDraft), got.State)
	assert.NotEmpty(t, got.Warn)

	resp, raw = f.call(t, http.MethodPatch, "/api/subrogation/receipts/"+id, pkgjwt.RoleAccountant, `{"comment":"lote de abril"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, string(raw), "lote de abril")

	resp, raw = f.call(t, http.MethodGet, "/api/subrogation/receipts/"+id+"/report", pkgjwt.RoleViewer, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))

	resp, _ = f.call(t, http.MethodDelete, "/api/subrogation/receipts/"+id, pkgjwt.RoleAccountant, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.call(t, http.MethodGet, "/api/subrogation/receipts/"+id, pkgjwt.RoleViewer, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
