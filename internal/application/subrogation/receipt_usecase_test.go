package subrogation_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jhoicas/factoring-api/internal/application/dto"
	"github.com/jhoicas/factoring-api/internal/application/subrogation"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/infrastructure/memory"
	"github.com/jhoicas/factoring-api/internal/infrastructure/settlement"
	"github.com/jhoicas/factoring-api/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	companyID = "c1"
	bpceID    = "j-bpce"
	eurofID   = "j-eurof"
)

var (
	today   = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	invDate = time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// pdfStub guarda el último informe recibido.
type pdfStub struct {
	last *subrogation.ReceiptReport
}

func (p *pdfStub) GenerateReceiptPDF(_ context.Context, r *subrogation.ReceiptReport) ([]byte, error) {
	p.last = r
	return []byte("%PDF-1.4"), nil
}

type fixture struct {
	store *memory.Store
	uc    *subrogation.ReceiptUseCase
	pdf   *pdfStub
}

func newFixture(t *testing.T, bpceSettings string) *fixture {
	t.Helper()
	s := memory.NewStore()
	s.SetClock(func() time.Time { return today })
	s.PutCompany(&entity.Company{ID: companyID, Name: "Ma Société", Registry: "552120222", Currency: entity.EUR})
	s.PutJournal(&entity.FactoringJournal{
		ID: bpceID, CompanyID: companyID, Code: "BPCE", Currency: entity.EUR,
		FactorType: entity.FactorTypeBPCE, SettingsText: bpceSettings,
	})
	s.PutJournal(&entity.FactoringJournal{
		ID: eurofID, CompanyID: companyID, Code: "EUROF", Currency: entity.EUR,
		FactorType: entity.FactorTypeEurof, SettingsText: "mail_prod = quittance@eurofactor.test",
	})
	for _, p := range []*entity.Partner{
		{ID: "p1", CompanyID: companyID, Name: "ACME", Ref: "CLI001", CountryCode: "FR", FactorJournalID: bpceID,
			FactorFlags: map[entity.FactorType]bool{entity.FactorTypeBPCE: true}},
		{ID: "p2", CompanyID: companyID, Name: "Sin marca", Ref: "CLI002", CountryCode: "FR", FactorJournalID: bpceID},
		{ID: "p3", CompanyID: companyID, Name: "Otro factor", Ref: "CLI003", CountryCode: "FR", FactorJournalID: "j-otro"},
		{ID: "p4", CompanyID: companyID, Name: "Dupont", Ref: "CLI004", CountryCode: "FR", FactorJournalID: eurofID},
		{ID: "p5", CompanyID: companyID, Name: "Müller GmbH", Ref: "CLI005", CountryCode: "DE", FactorJournalID: eurofID},
	} {
		s.PutPartner(p)
	}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	pdf := &pdfStub{}
	uc := subrogation.NewReceiptUseCase(s, settlement.DefaultRegistry(), pdf, log).WithClock(func() time.Time { return today })
	return &fixture{store: s, uc: uc, pdf: pdf}
}

// invoice publica una factura a cobrar del cliente con la fecha indicada.
func (f *fixture) invoice(name, partnerID, total string, date time.Time) string {
	amount := d(total)
	due := date.AddDate(0, 2, 0)
	m := &entity.Move{
		CompanyID: companyID, Name: name, MoveType: entity.MoveOutInvoice, State: entity.MovePosted,
		PaymentState: entity.PaymentNotPaid, PartnerID: partnerID, CommercialPartnerID: partnerID,
		CurrencyCode: "EUR", AmountTotal: amount, Date: date, InvoiceDate: &date, InvoiceDueDate: &due,
		Lines: []*entity.LedgerLine{
			{AccountID: "411000", AccountType: entity.AccountReceivable, PartnerID: partnerID, Debit: amount, Credit: decimal.Zero, CurrencyCode: "EUR"},
			{AccountID: "706000", AccountType: entity.AccountOther, PartnerID: partnerID, Debit: decimal.Zero, Credit: amount, CurrencyCode: "EUR"},
		},
	}
	f.store.PutMove(m)
	return m.ID
}

func TestCreateOrUpdate_SeleccionaLineasElegibles(t *testing.T) {
	f := newFixture(t, "contrat = 1234567890")
	ctx := context.Background()
	f.invoice("FAC/2024/0001", "p1", "1200", invDate)
	f.invoice("FAC/2024/0002", "p1", "300", invDate.AddDate(0, 0, 5))
	f.invoice("FAC/2024/0003", "p1", "999", today.AddDate(0, 0, 3)) // posterior al corte
	f.invoice("FAC/2024/0004", "p3", "500", invDate)                // otro diario

	resp, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	require.NoError(t, err)
	require.Len(t, resp.Receipts, 1)
	rc := resp.Receipts[0]
	assert.Equal(t, string(entity.ReceiptDraft), rc.State)
	assert.Equal(t, 2, rc.LineCount)
	assert.Equal(t, 2, rc.ItemCount)
	assert.True(t, d("1500").Equal(rc.Balance))
	assert.Equal(t, "2024-07-01", rc.TargetDate)
	assert.Empty(t, resp.Warnings)

	// Una segunda llamada reutiliza el borrador y recalcula.
	f.invoice("FAC/2024/0005", "p1", "100", invDate)
	again, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	require.NoError(t, err)
	assert.Equal(t, rc.ID, again.Receipts[0].ID)
	assert.Equal(t, 3, again.Receipts[0].LineCount)
	assert.True(t, d("1600").Equal(again.Receipts[0].Balance))
}

func TestCreateOrUpdate_ExigeMarcaDelCliente(t *testing.T) {
	f := newFixture(t, "contrat = 1234567890")
	f.invoice("FAC/2024/0001", "p1", "1200", invDate)
	f.invoice("FAC/2024/0002", "p2", "800", invDate)

	resp, err := f.uc.CreateOrUpdate(context.Background(), companyID, entity.FactorTypeBPCE, true)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Receipts[0].LineCount)
	assert.True(t, d("1200").Equal(resp.Receipts[0].Balance))
}

func TestCreateOrUpdate_SinLineasElegibles(t *testing.T) {
	f := newFixture(t, "contrat = 1234567890")
	ctx := context.Background()

	_, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	var noItems *domain.NoEligibleItemsError
	require.True(t, errors.As(err, &noItems))
	assert.True(t, errors.Is(err, domain.ErrState))
	assert.Contains(t, noItems.Filter, "partner.factor_journal_id = "+bpceID)

	// El borrador queda guardado con el aviso.
	list, err := f.uc.List(ctx, companyID, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.NotEmpty(t, list.Items[0].Warn)
}

func TestCreateOrUpdate_SinDiarioDelProveedor(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.uc.CreateOrUpdate(context.Background(), "otra", entity.FactorTypeBPCE, false)
	var cfg *domain.ConfigError
	require.True(t, errors.As(err, &cfg))
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestCreateOrUpdate_FechaDelUltimoExtracto(t *testing.T) {
	f := newFixture(t, "contrat = 1234567890")
	f.invoice("FAC/2024/0001", "p1", "1200", invDate)
	stmt := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	f.store.PutStatement(companyID, bpceID, stmt)
	f.store.PutStatement(companyID, bpceID, stmt.AddDate(0, 0, -7))

	resp, err := f.uc.CreateOrUpdate(context.Background(), companyID, entity.FactorTypeBPCE, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-28", resp.Receipts[0].StatementDate)
}

func TestConfirm_GeneraArchivoBPCE(t *testing.T) {
	f := newFixture(t, "contrat = 1234567890\nremise = 7")
	ctx := context.Background()
	f.invoice("FAC/2024/0001", "p1", "1200", invDate)
	f.invoice("FAC/2024/0002", "p1", "300", invDate)

	resp, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	require.NoError(t, err)
	id := resp.Receipts[0].ID

	confirmed, err := f.uc.Confirm(ctx, companyID, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReceiptConfirmed), confirmed.State)
	assert.Equal(t, "2024-07-01", confirmed.Date)
	assert.Equal(t, "BPCE EUR 2024-07-01", confirmed.Name)
	assert.Empty(t, confirmed.Warn)

	files, err := f.uc.Files(ctx, companyID, id)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.NotEmpty(t, files[0].Checksum)
	assert.NotEmpty(t, files[0].Data)

	// Una cesión confirmada ya no se recalcula.
	_, err = f.uc.ComputeLines(ctx, companyID, id)
	assert.True(t, errors.Is(err, domain.ErrState))
}

func TestConfirm_ArchivoInvalidoQuedaEnBorrador(t *testing.T) {
	f := newFixture(t, "") // sin contrato
	ctx := context.Background()
	f.invoice("FAC/2024/0001", "p1", "1200", invDate)

	resp, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	require.NoError(t, err)
	id := resp.Receipts[0].ID

	_, err = f.uc.Confirm(ctx, companyID, id)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	got, err := f.uc.Get(ctx, companyID, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReceiptDraft), got.State)
	assert.Contains(t, got.Warn, "contrat")

	files, err := f.uc.Files(ctx, companyID, id)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestPost_ExigeRetencionYGastos(t *testing.T) {
	f := newFixture(t, "contrat = 1234567890")
	ctx := context.Background()
	f.invoice("FAC/2024/0001", "p1", "1200", invDate)
	resp, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	require.NoError(t, err)
	id := resp.Receipts[0].ID

	_, err = f.uc.Post(ctx, companyID, id)
	assert.True(t, errors.Is(err, domain.ErrState), "un borrador no se contabiliza")

	_, err = f.uc.Confirm(ctx, companyID, id)
	require.NoError(t, err)
	_, err = f.uc.Post(ctx, companyID, id)
	assert.True(t, errors.Is(err, domain.ErrState), "faltan importes")

	holdback, untaxed, tax := d("120"), d("15.5"), d("3.1")
	comment := "remesa de junio"
	_, err = f.uc.Update(ctx, companyID, id, dto.UpdateReceiptRequest{
		HoldbackAmount: &holdback, ExpenseUntaxedAmount: &untaxed, ExpenseTaxAmount: &tax, Comment: &comment,
	})
	require.NoError(t, err)

	posted, err := f.uc.Post(ctx, companyID, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReceiptPosted), posted.State)
	assert.Equal(t, comment, posted.Comment)

	err = f.uc.Delete(ctx, companyID, id)
	assert.True(t, errors.Is(err, domain.ErrState))
}

func TestUpdate_FechasSoloEnBorrador(t *testing.T) {
	f := newFixture(t, "contrat = 1234567890")
	ctx := context.Background()
	f.invoice("FAC/2024/0001", "p1", "1200", invDate)
	resp, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	require.NoError(t, err)
	id := resp.Receipts[0].ID

	target := "2024-06-20"
	got, err := f.uc.Update(ctx, companyID, id, dto.UpdateReceiptRequest{TargetDate: &target})
	require.NoError(t, err)
	assert.Equal(t, target, got.TargetDate)

	bad := "20/06/2024"
	_, err = f.uc.Update(ctx, companyID, id, dto.UpdateReceiptRequest{TargetDate: &bad})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	negative := d("-1")
	_, err = f.uc.Update(ctx, companyID, id, dto.UpdateReceiptRequest{HoldbackAmount: &negative})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.uc.Confirm(ctx, companyID, id)
	require.NoError(t, err)
	_, err = f.uc.Update(ctx, companyID, id, dto.UpdateReceiptRequest{TargetDate: &target})
	assert.True(t, errors.Is(err, domain.ErrState))
}

func TestDelete_LiberaLasLineas(t *testing.T) {
	f := newFixture(t, "contrat = 1234567890")
	ctx := context.Background()
	inv := f.invoice("FAC/2024/0001", "p1", "1200", invDate)

	resp, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	require.NoError(t, err)
	first := resp.Receipts[0].ID
	assert.Equal(t, first, f.store.Move(inv).Lines[0].SubrogationID)

	require.NoError(t, f.uc.Delete(ctx, companyID, first))
	assert.Empty(t, f.store.Move(inv).Lines[0].SubrogationID)

	_, err = f.uc.Get(ctx, companyID, first)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	resp, err = f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	require.NoError(t, err)
	assert.NotEqual(t, first, resp.Receipts[0].ID)
	assert.Equal(t, 1, resp.Receipts[0].LineCount)
}

func TestGet_OtraEmpresa(t *testing.T) {
	f := newFixture(t, "contrat = 1234567890")
	ctx := context.Background()
	f.invoice("FAC/2024/0001", "p1", "1200", invDate)
	resp, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	require.NoError(t, err)

	_, err = f.uc.Get(ctx, "c2", resp.Receipts[0].ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestReport_EurofactorSeparaFranciaYExportacion(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.invoice("FAC/2024/0010", "p4", "1000", invDate)
	f.invoice("FAC/2024/0011", "p5", "250", invDate)
	f.invoice("FAC/2024/0012", "p4", "40", invDate.AddDate(0, 0, -2))

	resp, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeEurof, false)
	require.NoError(t, err)
	id := resp.Receipts[0].ID

	pdf, title, err := f.uc.Report(ctx, companyID, id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	assert.Equal(t, "Eurofactor EUR Draft", title)

	rep := f.pdf.last
	require.NotNil(t, rep)
	require.Len(t, rep.Groups, 2)
	assert.Equal(t, "Francia", rep.Groups[0].Label)
	assert.True(t, d("1040").Equal(rep.Groups[0].Total))
	assert.Equal(t, "FAC/2024/0012", rep.Groups[0].Lines[0].Document, "ordenadas por fecha")
	assert.Equal(t, "Exportación", rep.Groups[1].Label)
	assert.True(t, d("250").Equal(rep.Groups[1].Total))
	assert.Equal(t, "F", rep.Groups[1].Lines[0].Type)
	assert.Equal(t, "552120222", rep.CompanyRegistry)
}

func TestInstruction_Eurofactor(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.invoice("FAC/2024/0010", "p4", "1000", invDate)
	resp, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeEurof, false)
	require.NoError(t, err)

	bpce, err := f.uc.CreateOrUpdate(ctx, companyID, entity.FactorTypeBPCE, false)
	assert.Nil(t, bpce)
	assert.Error(t, err)

	in, err := f.uc.Instruction(ctx, companyID, resp.Receipts[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, in)
}
