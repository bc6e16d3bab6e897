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
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/model"
)

// Risk band breakpoints on the clamped 0-100 score.
const (
	bandLowMax    = 24
	bandMediumMax = 49
	bandHighMax   = 74
)

// ComputeRisk derives the underwriting risk summary from the finalized,
// tagged transaction set. Every signal carries a fixed point delta and its
// own human-readable reason; nothing here is learned or tuned at runtime.
func ComputeRisk(txns []*model.Transaction) *model.RiskSummary {
	var (
		totalDebits, pvtDebits, bankDebits decimal.Decimal
		pvtByCp                            = make(map[string]decimal.Decimal)
		bankCps                            = make(map[string]struct{})
		weeklyRepetition, emiMiss          bool
	)

	for _, txn := range txns {
		if !txn.Debit.IsPositive() {
			continue
		}
		totalDebits = totalDebits.Add(txn.Debit)
		switch txn.FinanceTag {
		case model.TagPrivateFinance:
			pvtDebits = pvtDebits.Add(txn.Debit)
			pvtByCp[txn.CounterpartyNorm] = pvtByCp[txn.CounterpartyNorm].Add(txn.Debit)
		case model.TagBankFinance:
			bankDebits = bankDebits.Add(txn.Debit)
			bankCps[txn.CounterpartyNorm] = struct{}{}
		}
		if txn.HasReason(ReasonWeeklyCadence) {
			weeklyRepetition = true
		}
	}
	for _, txn := range txns {
		if txn.FinanceTag == model.TagBankFinance &&
			(txn.Category == "RETURN" || strings.Contains(NormalizeText(txn.Narration), "BOUNCE")) {
			emiMiss = true
		}
	}

	summary := &model.RiskSummary{
		WeeklyRepetition: weeklyRepetition,
		EMIMiss:          emiMiss,
		MultipleEMIs:     len(bankCps) >= 4,
	}
	if totalDebits.IsPositive() {
		summary.PvtShareOfDebits = shareOf(pvtDebits, totalDebits)
		summary.BankShareOfDebits = shareOf(bankDebits, totalDebits)
	}
	if pvtDebits.IsPositive() {
		var topCp decimal.Decimal
		for _, amount := range pvtByCp {
			if amount.GreaterThan(topCp) {
				topCp = amount
			}
		}
		summary.TopLenderConcentration = topCp.Div(pvtDebits).InexactFloat64()
	}

	score := 0
	switch {
	case summary.PvtShareOfDebits >= 50:
		score += 35
		summary.Reasons = append(summary.Reasons, fmt.Sprintf("Private financing dominates debits at %.1f%% (%s)", summary.PvtShareOfDebits, FormatINRCompact(pvtDebits)))
	case summary.PvtShareOfDebits >= 30:
		score += 20
		summary.Reasons = append(summary.Reasons, fmt.Sprintf("Elevated private financing share of debits at %.1f%% (%s)", summary.PvtShareOfDebits, FormatINRCompact(pvtDebits)))
	}
	if summary.TopLenderConcentration >= 0.5 {
		score += 10
		summary.Reasons = append(summary.Reasons, fmt.Sprintf("Single private lender holds %.0f%% of private debits", summary.TopLenderConcentration*100))
	}
	if weeklyRepetition {
		score += 10
		summary.Reasons = append(summary.Reasons, "Weekly repayment cadence detected")
	}
	if emiMiss {
		score += 15
		summary.Reasons = append(summary.Reasons, "Bank EMI return/bounce present")
	}
	if summary.MultipleEMIs {
		score += 10
		summary.Reasons = append(summary.Reasons, fmt.Sprintf("Servicing %d distinct bank financing counterparties", len(bankCps)))
	}
	if summary.PvtShareOfDebits < 10 {
		score -= 10
		summary.Reasons = append(summary.Reasons, "Negligible private financing exposure")
	}
	if bankDebits.IsPositive() && !emiMiss {
		score -= 10
		summary.Reasons = append(summary.Reasons, fmt.Sprintf("Bank obligations serviced without misses (%s)", FormatINRCompact(bankDebits)))
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	summary.Score = score
	summary.Band = riskBand(score)
	return summary
}

func riskBand(score int) string {
	switch {
	case score <= bandLowMax:
		return "Low"
	case score <= bandMediumMax:
		return "Medium"
	case score <= bandHighMax:
		return "High"
	default:
		return "Very High"
	}
}

func shareOf(part, whole decimal.Decimal) float64 {
	return part.Div(whole).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

var (
	lakh  = decimal.NewFromInt(100000)
	crore = decimal.NewFromInt(10000000)
)

// FormatINRCompact renders an amount in the compact Indian convention used
// in exposure summaries: ₹x.xx Cr, ₹x.xx L, or the plain amount below a lakh.
func FormatINRCompact(amount decimal.Decimal) string {
	switch {
	case amount.Abs().GreaterThanOrEqual(crore):
		return "₹" + amount.Div(crore).StringFixed(2) + " Cr"
	case amount.Abs().GreaterThanOrEqual(lakh):
		return "₹" + amount.Div(lakh).StringFixed(2) + " L"
	default:
		return "₹" + amount.StringFixed(2)
	}
}
