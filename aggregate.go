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

// ComputeMonthlyAggregates builds the month-level KPI rollups. Aggregates
// are recomputed wholly from the finalized transaction set each run, never
// patched incrementally. Output is sorted by month key.
func ComputeMonthlyAggregates(txns []*model.Transaction) []*model.MonthlyAggregate {
	byMonth := make(map[string]*model.MonthlyAggregate)
	for _, txn := range txns {
		agg, ok := byMonth[txn.MonthKey]
		if !ok {
			agg = &model.MonthlyAggregate{MonthKey: txn.MonthKey}
			byMonth[txn.MonthKey] = agg
		}
		agg.TxnCount++
		agg.CreditTotal = agg.CreditTotal.Add(txn.Credit)
		agg.DebitTotal = agg.DebitTotal.Add(txn.Debit)
	}

	out := make([]*model.MonthlyAggregate, 0, len(byMonth))
	for _, agg := range byMonth {
		agg.NetFlow = agg.CreditTotal.Sub(agg.DebitTotal)
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthKey < out[j].MonthKey })
	return out
}

// ComputePivots groups finalized transactions into (month, category, type)
// buckets. Grouping is a pure function of the transaction set; output is
// sorted by the composite key.
func ComputePivots(txns []*model.Transaction) []*model.PivotBucket {
	type pivotKey struct {
		month, category, txnType string
	}
	byKey := make(map[pivotKey]*model.PivotBucket)
	for _, txn := range txns {
		key := pivotKey{txn.MonthKey, txn.Category, txn.TxnType}
		bucket, ok := byKey[key]
		if !ok {
			bucket = &model.PivotBucket{MonthKey: txn.MonthKey, Category: txn.Category, TxnType: txn.TxnType}
			byKey[key] = bucket
		}
		bucket.SumDebit = bucket.SumDebit.Add(txn.Debit)
		bucket.SumCredit = bucket.SumCredit.Add(txn.Credit)
		if txn.Debit.IsPositive() {
			bucket.CountDebit++
		}
		if txn.Credit.IsPositive() {
			bucket.CountCredit++
		}
	}

	out := make([]*model.PivotBucket, 0, len(byKey))
	for _, bucket := range byKey {
		out = append(out, bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MonthKey != b.MonthKey {
			return a.MonthKey < b.MonthKey
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.TxnType < b.TxnType
	})
	return out
}
