package subrogation

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/factoring-api/internal/application/ports"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/infrastructure/settlement"
)

// Report genera el PDF resumen de la cesión.
func (uc *ReceiptUseCase) Report(ctx context.Context, companyID, receiptID string) ([]byte, string, error) {
	if uc.pdf == nil {
		return nil, "", fmt.Errorf("%w: generador de PDF no configurado", domain.ErrConfiguration)
	}
	var report *ReceiptReport
	err := uc.tx.RunFactoring(ctx, func(r ports.Repos) error {
		rc, j, err := loadReceipt(ctx, r, companyID, receiptID)
		if err != nil {
			return err
		}
		company, err := r.Companies.GetByID(ctx, companyID)
		if err != nil {
			return fmt.Errorf("empresa %s: %w", companyID, err)
		}
		if company == nil {
			return domain.ErrNotFound
		}
		items, err := loadItems(ctx, r, rc.ID)
		if err != nil {
			return err
		}
		report = buildReport(rc, j, company, items, uc.instruction(j))
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.pdf.GenerateReceiptPDF(ctx, report)
	if err != nil {
		return nil, "", fmt.Errorf("generar resumen de %s: %w", report.Title, err)
	}
	return pdf, report.Title, nil
}

// buildReport agrupa las líneas: Eurofactor separa Francia y exportación según
// el cliente de entrega (o el comercial); BPCE usa un único bloque.
func buildReport(rc *entity.SubrogationReceipt, j *entity.FactoringJournal, company *entity.Company, items []settlement.Item, instruction string) *ReceiptReport {
	rep := &ReceiptReport{
		CompanyName:          company.Name,
		CompanyRegistry:      company.Registry,
		Title:                rc.DisplayName(),
		FactorLabel:          rc.FactorType.Label(),
		Currency:             rc.CurrencyCode,
		State:                string(rc.State),
		TargetDate:           rc.TargetDate,
		StatementDate:        rc.StatementDate,
		Date:                 rc.Date,
		Balance:              rc.Balance,
		HoldbackAmount:       rc.HoldbackAmount,
		ExpenseUntaxedAmount: rc.ExpenseUntaxedAmount,
		ExpenseTaxAmount:     rc.ExpenseTaxAmount,
		Instruction:          instruction,
	}

	var france, export, all ReportGroup
	france.Label, export.Label, all.Label = "Francia", "Exportación", "Créditos cedidos"
	for _, it := range items {
		line := toReportLine(it)
		switch {
		case j.FactorType != entity.FactorTypeEurof:
			all.add(line)
		case isFrench(it):
			france.add(line)
		default:
			export.add(line)
		}
	}
	for _, g := range []ReportGroup{all, france, export} {
		if len(g.Lines) == 0 {
			continue
		}
		sort.SliceStable(g.Lines, func(a, b int) bool {
			if !g.Lines[a].Date.Equal(g.Lines[b].Date) {
				return g.Lines[a].Date.Before(g.Lines[b].Date)
			}
			return g.Lines[a].Document < g.Lines[b].Document
		})
		g.Total = j.Currency.Round(g.Total)
		rep.Groups = append(rep.Groups, g)
	}
	return rep
}

func (g *ReportGroup) add(l ReportLine) {
	g.Lines = append(g.Lines, l)
	g.Total = g.Total.Add(l.Amount)
}

func isFrench(it settlement.Item) bool {
	if it.ShippingPartner != nil {
		return it.ShippingPartner.IsFrench()
	}
	return it.Partner != nil && it.Partner.IsFrench()
}

func toReportLine(it settlement.Item) ReportLine {
	out := ReportLine{
		Type:    settlement.PieceType(it.Move, it.Line),
		Date:    it.Line.Date,
		DueDate: it.Line.MaturityDate,
		Amount:  it.Line.AmountCurrency,
	}
	if out.Amount.IsZero() {
		out.Amount = it.Line.Balance()
	}
	if it.Partner != nil {
		out.Partner = it.Partner.Name
	}
	if it.Move != nil {
		out.Document = it.Move.Name
		if it.Move.InvoiceDate != nil {
			out.Date = *it.Move.InvoiceDate
		}
		if out.DueDate == nil {
			out.DueDate = it.Move.InvoiceDueDate
		}
	}
	return out
}
