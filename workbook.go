/*
Copyright 2025 Ledgerline Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ledgerline

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/ledgerline/ledgerline/model"
)

// WorkbookData is the fully-computed input handed to the renderer. The
// renderer does no business logic: every value is final.
type WorkbookData struct {
	Version      *model.StatementVersion
	Transactions []*model.Transaction
	Aggregates   []*model.MonthlyAggregate
	Pivots       []*model.PivotBucket
	Risk         *model.RiskSummary
}

// WorkbookRenderer renders the underwriting workbook artifact from finalized
// rows. Implementations return the artifact bytes and its content type.
type WorkbookRenderer interface {
	Render(data *WorkbookData) ([]byte, string, error)
}

// CSVWorkbook renders a sectioned CSV workbook.
type CSVWorkbook struct{}

func NewCSVWorkbook() *CSVWorkbook {
	return &CSVWorkbook{}
}

func (w *CSVWorkbook) Render(data *WorkbookData) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	records := [][]string{
		{"TRANSACTIONS"},
		{"DATE", "MONTH", "NARRATION", "DR", "CR", "BALANCE", "CATEGORY", "FINANCE TAG", "CONFIDENCE", "COUNTERPARTY"},
	}
	for _, txn := range data.Transactions {
		balance := ""
		if txn.Balance != nil {
			balance = txn.Balance.StringFixed(2)
		}
		records = append(records, []string{
			model.DateLabel(txn.TxnDate),
			model.MonthLabel(txn.TxnDate),
			txn.Narration,
			txn.Debit.StringFixed(2),
			txn.Credit.StringFixed(2),
			balance,
			txn.Category,
			txn.FinanceTag,
			strconv.FormatFloat(txn.TagConfidence, 'f', 5, 64),
			txn.CounterpartyNorm,
		})
	}

	records = append(records,
		[]string{},
		[]string{"MONTHLY SUMMARY"},
		[]string{"MONTH", "TXN COUNT", "CREDIT TOTAL", "DEBIT TOTAL", "NET FLOW"},
	)
	for _, agg := range data.Aggregates {
		records = append(records, []string{
			agg.MonthKey,
			strconv.Itoa(agg.TxnCount),
			agg.CreditTotal.StringFixed(2),
			agg.DebitTotal.StringFixed(2),
			agg.NetFlow.StringFixed(2),
		})
	}

	records = append(records,
		[]string{},
		[]string{"PIVOTS"},
		[]string{"MONTH", "CATEGORY", "TYPE", "SUM DR", "SUM CR", "COUNT DR", "COUNT CR"},
	)
	for _, pivot := range data.Pivots {
		records = append(records, []string{
			pivot.MonthKey,
			pivot.Category,
			pivot.TxnType,
			pivot.SumDebit.StringFixed(2),
			pivot.SumCredit.StringFixed(2),
			strconv.Itoa(pivot.CountDebit),
			strconv.Itoa(pivot.CountCredit),
		})
	}

	if data.Risk != nil {
		records = append(records,
			[]string{},
			[]string{"RISK"},
			[]string{"SCORE", strconv.Itoa(data.Risk.Score)},
			[]string{"BAND", data.Risk.Band},
		)
		for _, reason := range data.Risk.Reasons {
			records = append(records, []string{"REASON", reason})
		}
	}

	if err := writer.WriteAll(records); err != nil {
		return nil, "", err
	}
	writer.Flush()
	return buf.Bytes(), "text/csv", nil
}
