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
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/model"
)

// amountTolerance is the absolute tolerance on total comparisons. Anything
// beyond one paisa is an extraction defect, not rounding.
var amountTolerance = decimal.NewFromFloat(0.01)

// ReconcileStrict counts the TRANSACTION-kind raw lines of one document that
// no merged candidate consumed. Any nonzero count fails the whole job:
// undercounting transactions in an underwriting artifact is worse than
// failing visibly.
func ReconcileStrict(lines []*model.RawLine, candidates []*model.MergedCandidate) int {
	consumed := make(map[int]struct{})
	for _, candidate := range candidates {
		for _, idx := range candidate.RawIndices {
			consumed[idx] = struct{}{}
		}
	}

	unmapped := 0
	for idx, line := range lines {
		if line.LineKind != model.LineKindTransaction {
			continue
		}
		if _, ok := consumed[idx]; !ok {
			unmapped++
		}
	}
	return unmapped
}

// GateTotals carries the job-wide reconciliation inputs compared before any
// transaction row is persisted.
type GateTotals struct {
	Unmapped          int
	RawCandidateCount int
	ParsedCount       int
	RawDebitTotal     decimal.Decimal
	ParsedDebitTotal  decimal.Decimal
	RawCreditTotal    decimal.Decimal
	ParsedCreditTotal decimal.Decimal
}

// Failures returns the structured gate failure reasons, empty when the job
// may proceed to persistence.
func (g GateTotals) Failures() []string {
	var reasons []string
	if g.Unmapped > 0 {
		reasons = append(reasons, fmt.Sprintf("UNMAPPED_TRANSACTION_LINES:%d", g.Unmapped))
	}
	if g.RawCandidateCount != g.ParsedCount {
		reasons = append(reasons, fmt.Sprintf("ROW_COUNT_MISMATCH:raw=%d,parsed=%d", g.RawCandidateCount, g.ParsedCount))
	}
	drDiff := g.RawDebitTotal.Sub(g.ParsedDebitTotal).Abs()
	crDiff := g.RawCreditTotal.Sub(g.ParsedCreditTotal).Abs()
	if drDiff.GreaterThan(amountTolerance) || crDiff.GreaterThan(amountTolerance) {
		reasons = append(reasons, fmt.Sprintf("TOTAL_MISMATCH:raw_dr=%s,parsed_dr=%s,raw_cr=%s,parsed_cr=%s",
			g.RawDebitTotal.StringFixed(2), g.ParsedDebitTotal.StringFixed(2),
			g.RawCreditTotal.StringFixed(2), g.ParsedCreditTotal.StringFixed(2)))
	}
	return reasons
}
