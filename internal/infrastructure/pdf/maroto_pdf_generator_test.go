package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/factoring-api/internal/application/subrogation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1 234,56 EUR", formatAmount(decimal.RequireFromString("1234.56"), "EUR"))
	assert.Equal(t, "-1 000 000,00 EUR", formatAmount(decimal.RequireFromString("-1000000"), "EUR"))
	assert.Equal(t, "0,50", formatAmount(decimal.RequireFromString("0.5"), ""))
}

func TestGenerateReceiptPDF(t *testing.T) {
	target := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	due := target.AddDate(0, 2, 0)
	rep := &subrogation.ReceiptReport{
		CompanyName: "Ma Société", CompanyRegistry: "552120222", Title: "Eurofactor EUR Draft",
		FactorLabel: "Eurofactor", Currency: "EUR", State: "draft", TargetDate: target,
		Groups: []subrogation.ReportGroup{{
			Label: "Francia",
			Lines: []subrogation.ReportLine{{Partner: "Dupont", Document: "FAC/2024/0010", Type: "F", Date: target, DueDate: &due, Amount: decimal.RequireFromString("1000")}},
			Total: decimal.RequireFromString("1000"),
		}},
		Balance: decimal.RequireFromString("1000"),
	}

	out, err := NewMarotoReceiptGenerator().GenerateReceiptPDF(context.Background(), rep)
	require.NoError(t, err)
	assert.True(t, len(out) > 4 && string(out[:4]) == "%PDF")
}
