package ledgerline

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/model"
)

func TestCSVWorkbookRender(t *testing.T) {
	balance := decimal.NewFromInt(45000)
	data := &WorkbookData{
		Transactions: []*model.Transaction{
			{
				TxnDate:          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				Narration:        "EMI PAYMENT NACH",
				Debit:            decimal.NewFromInt(5000),
				Credit:           decimal.Zero,
				Balance:          &balance,
				Category:         "BANK FIN",
				FinanceTag:       model.TagBankFinance,
				TagConfidence:    0.75231,
				CounterpartyNorm: "EMI PAYMENT NACH",
			},
			{
				TxnDate:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
				Narration: "CASH DEPOSIT",
				Debit:     decimal.Zero,
				Credit:    decimal.NewFromInt(5000),
				Category:  "FINAL",
			},
		},
		Aggregates: []*model.MonthlyAggregate{
			{MonthKey: "2024-06", TxnCount: 2, CreditTotal: decimal.NewFromInt(5000), DebitTotal: decimal.NewFromInt(5000)},
		},
		Pivots: []*model.PivotBucket{
			{MonthKey: "2024-06", Category: "BANK FIN", TxnType: model.TypeDebit, SumDebit: decimal.NewFromInt(5000), CountDebit: 1},
		},
		Risk: &model.RiskSummary{Score: 10, Band: "Low", Reasons: []string{"Negligible private financing exposure"}},
	}

	raw, contentType, err := NewCSVWorkbook().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	require.Equal(t, []string{"TRANSACTIONS"}, records[0])
	assert.Equal(t, []string{
		"01-JUN-2024", "JUN-24", "EMI PAYMENT NACH", "5000.00", "0.00", "45000.00",
		"BANK FIN", model.TagBankFinance, "0.75231", "EMI PAYMENT NACH",
	}, records[2])
	assert.Equal(t, "", records[3][5], "missing balance renders empty")

	var sections []string
	for _, record := range records {
		if len(record) == 1 {
			sections = append(sections, record[0])
		}
	}
	assert.Equal(t, []string{"TRANSACTIONS", "MONTHLY SUMMARY", "PIVOTS", "RISK"}, sections)

	assert.Contains(t, records, []string{"SCORE", "10"})
	assert.Contains(t, records, []string{"BAND", "Low"})
	assert.Contains(t, records, []string{"REASON", "Negligible private financing exposure"})
}

func TestCSVWorkbookRenderEmpty(t *testing.T) {
	raw, _, err := NewCSVWorkbook().Render(&WorkbookData{})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "TRANSACTIONS")
	assert.NotContains(t, string(raw), "RISK", "risk section is omitted when no summary was computed")
}
