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
	"sort"

	"github.com/ledgerline/ledgerline/model"
)

// CheckContinuity verifies the running-balance invariant over the
// balance-bearing transactions: each reported balance must equal the
// previous balance plus credit minus debit, within one paisa. Transactions
// are ordered by (date, row_index); row_index breaks same-day ties
// deterministically. The first row has no predecessor and never fails.
// The count is reported, not fatal: balance gaps can stem from rows the
// statement never itemizes (interest capitalization and the like), not only
// from extraction defects.
func CheckContinuity(txns []*model.Transaction) (int, []*model.LedgerRow) {
	var ordered []*model.Transaction
	for _, txn := range txns {
		if txn.Balance != nil {
			ordered = append(ordered, txn)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].TxnDate.Equal(ordered[j].TxnDate) {
			return ordered[i].TxnDate.Before(ordered[j].TxnDate)
		}
		return ordered[i].RowIndex < ordered[j].RowIndex
	})

	failures := 0
	rows := make([]*model.LedgerRow, 0, len(ordered))
	for i, txn := range ordered {
		row := &model.LedgerRow{
			VersionID:       txn.VersionID,
			RowIndex:        txn.RowIndex,
			TxnDate:         txn.TxnDate,
			ReportedBalance: txn.Balance,
			ContinuityOK:    true,
		}
		if i > 0 {
			expected := ordered[i-1].Balance.Add(txn.Credit).Sub(txn.Debit)
			delta := txn.Balance.Sub(expected)
			row.ExpectedBalance = &expected
			row.Delta = &delta
			if delta.Abs().GreaterThan(amountTolerance) {
				row.ContinuityOK = false
				failures++
			}
		}
		rows = append(rows, row)
	}
	return failures, rows
}
