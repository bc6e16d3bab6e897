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
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/ledgerline/ledgerline/model"
)

// Reason codes attached by the classifier. Keyword hits use the
// "PVT_KW:<kw>" / "BANK_KW:<kw>" form.
const (
	ReasonFalsePositive = "FALSE_POSITIVE_PATTERN"
	ReasonPvtEntity     = "PVT_ENTITY"
	ReasonBankEntity    = "BANK_ENTITY"
	ReasonRepeat30D     = "REPEAT_30D"
	ReasonWeeklyCadence = "WEEKLY_CADENCE"
	ReasonSameDaySplit  = "SAME_DAY_SPLIT"
	ReasonSmallTicket   = "HF_SMALL_TICKET"
	ReasonEMIPattern    = "EMI_PATTERN"
	ReasonBankDisbursal = "BANK_DISBURSAL"
	ReasonBankOverride  = "BANK_OVERRIDE"
)

// Fixed signal bonuses. Entity bonuses outweigh any single keyword so a
// known lender name alone moves a transaction most of the way to threshold.
const (
	pvtEntityBonus     = 1.40
	bankEntityBonus    = 1.55
	repeat30DBonus     = 0.65
	weeklyCadenceBonus = 0.70
	sameDaySplitBonus  = 0.45
	smallTicketBonus   = 0.45
	emiPatternBonus    = 0.55
	bankDisbursalBonus = 0.50
	confidenceSpread   = 1.8
)

var (
	nonAlnumPattern = regexp.MustCompile(`[^A-Z0-9 ]+`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// NormalizeText uppercases, collapses every non-alphanumeric run to a single
// space and trims. All keyword, entity and false-positive matching runs on
// this form.
func NormalizeText(text string) string {
	text = strings.ToUpper(text)
	text = nonAlnumPattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// NormalizeCounterparty reduces a narration to a stable counterparty key:
// the first three normalized tokens of length >= 3, or UNKNOWN when the
// narration has none.
func NormalizeCounterparty(narration string) string {
	var tokens []string
	for _, token := range strings.Fields(NormalizeText(narration)) {
		if len(token) >= 3 {
			tokens = append(tokens, token)
			if len(tokens) == 3 {
				break
			}
		}
	}
	if len(tokens) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(tokens, " ")
}

// standingInstructionTokens mark bank auto-debit rails.
var standingInstructionTokens = []string{"EMI", "ECS", "NACH", "ACH"}

// cadenceIndex holds the per-counterparty series signals computed once over
// the whole document set before per-transaction scoring.
type cadenceIndex struct {
	debitDates   map[string][]time.Time
	sameDayCount map[string]map[string]int
	smallTickets map[string]int
	weeklyCps    map[string]bool
}

func buildCadenceIndex(txns []*model.Transaction, cfg *model.FinanceTagConfig) *cadenceIndex {
	idx := &cadenceIndex{
		debitDates:   make(map[string][]time.Time),
		sameDayCount: make(map[string]map[string]int),
		smallTickets: make(map[string]int),
		weeklyCps:    make(map[string]bool),
	}

	for _, txn := range txns {
		cp := txn.CounterpartyNorm
		if !txn.Debit.IsPositive() {
			continue
		}
		idx.debitDates[cp] = append(idx.debitDates[cp], txn.TxnDate)
		if idx.sameDayCount[cp] == nil {
			idx.sameDayCount[cp] = make(map[string]int)
		}
		idx.sameDayCount[cp][txn.TxnDate.Format("2006-01-02")]++
		if txn.Debit.LessThanOrEqual(cfg.Thresholds.SmallTicketMax) {
			idx.smallTickets[cp]++
		}
	}

	minGaps := cfg.Thresholds.WeeklyMinHits - 1
	if minGaps < 1 {
		minGaps = 1
	}
	for cp, dates := range idx.debitDates {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		idx.debitDates[cp] = dates

		gapHits := 0
		for i := 1; i < len(dates); i++ {
			gap := int(dates[i].Sub(dates[i-1]).Hours() / 24)
			if (gap >= 6 && gap <= 9) || (gap >= 13 && gap <= 16) {
				gapHits++
			}
		}
		if gapHits >= minGaps {
			idx.weeklyCps[cp] = true
		}
	}
	return idx
}

// repeatHits counts the counterparty's debit transactions (including this
// one) within the configured day window of the given date.
func (idx *cadenceIndex) repeatHits(cp string, date time.Time, windowDays int) int {
	hits := 0
	for _, d := range idx.debitDates[cp] {
		days := math.Abs(d.Sub(date).Hours() / 24)
		if days <= float64(windowDays) {
			hits++
		}
	}
	return hits
}

// matchesEntity reports whether any configured entity fragment appears in
// the normalized narration, tolerating a one-character misspelling in any
// same-length token window for fragments long enough to carry signal.
func matchesEntity(norm string, entities []string) bool {
	words := strings.Fields(norm)
	for _, entity := range entities {
		fragment := NormalizeText(entity)
		if fragment == "" {
			continue
		}
		if strings.Contains(norm, fragment) {
			return true
		}
		if len(fragment) < 6 {
			continue
		}
		span := len(strings.Fields(fragment))
		for i := 0; i+span <= len(words); i++ {
			window := strings.Join(words[i:i+span], " ")
			if levenshtein.DistanceForStrings([]rune(window), []rune(fragment), levenshtein.DefaultOptions) <= 1 {
				return true
			}
		}
	}
	return false
}

// ApplyFinanceTags scores every transaction in place: finance_tag, the
// rounded confidence and the sorted deduplicated reason codes. Scores are
// deterministic functions of the narration, the transaction series and the
// supplied configuration.
func ApplyFinanceTags(txns []*model.Transaction, cfg *model.FinanceTagConfig) {
	idx := buildCadenceIndex(txns, cfg)
	maxThreshold := math.Max(cfg.Thresholds.PvtMinScore, cfg.Thresholds.BankMinScore)

	for _, txn := range txns {
		norm := NormalizeText(txn.Narration)
		txn.FinanceTag = ""
		txn.TagConfidence = 0

		if hitsFalsePositive(norm, cfg.FalsePositives) {
			txn.ReasonCodes = []string{ReasonFalsePositive}
			continue
		}

		var (
			pvtScore, bankScore float64
			reasons             []string
		)

		for kw, weight := range cfg.PvtKeywords {
			if strings.Contains(norm, NormalizeText(kw)) {
				pvtScore += weight
				reasons = append(reasons, "PVT_KW:"+kw)
			}
		}
		for kw, weight := range cfg.BankKeywords {
			if strings.Contains(norm, NormalizeText(kw)) {
				bankScore += weight
				reasons = append(reasons, "BANK_KW:"+kw)
			}
		}

		if matchesEntity(norm, cfg.PvtEntities) {
			pvtScore += pvtEntityBonus
			reasons = append(reasons, ReasonPvtEntity)
		}
		if matchesEntity(norm, cfg.BankEntities) {
			bankScore += bankEntityBonus
			reasons = append(reasons, ReasonBankEntity)
		}

		// The counted series is debit-only, but the bonus lands on the
		// current row regardless of its side.
		cp := txn.CounterpartyNorm
		if idx.repeatHits(cp, txn.TxnDate, cfg.Thresholds.WeeklyWindowDays) >= cfg.Thresholds.WeeklyMinHits {
			pvtScore += repeat30DBonus
			reasons = append(reasons, ReasonRepeat30D)
		}
		if idx.weeklyCps[cp] {
			pvtScore += weeklyCadenceBonus
			reasons = append(reasons, ReasonWeeklyCadence)
		}
		if idx.sameDayCount[cp][txn.TxnDate.Format("2006-01-02")] >= cfg.Thresholds.SameDaySplitMinHits {
			pvtScore += sameDaySplitBonus
			reasons = append(reasons, ReasonSameDaySplit)
		}
		if idx.smallTickets[cp] >= 4 && txn.Amount.LessThanOrEqual(cfg.Thresholds.SmallTicketMax) {
			pvtScore += smallTicketBonus
			reasons = append(reasons, ReasonSmallTicket)
		}

		if containsToken(norm, standingInstructionTokens) {
			bankScore += emiPatternBonus
			reasons = append(reasons, ReasonEMIPattern)
		}
		if txn.Credit.IsPositive() && (strings.Contains(norm, "DISBURS") || strings.Contains(norm, "LOAN")) {
			bankScore += bankDisbursalBonus
			reasons = append(reasons, ReasonBankDisbursal)
		}

		bankMet := bankScore >= cfg.Thresholds.BankMinScore
		pvtMet := pvtScore >= cfg.Thresholds.PvtMinScore

		var winning float64
		switch {
		case bankMet:
			txn.FinanceTag = model.TagBankFinance
			winning = bankScore
			if pvtMet {
				reasons = append(reasons, ReasonBankOverride)
			}
		case pvtMet:
			txn.FinanceTag = model.TagPrivateFinance
			winning = pvtScore
		}

		if txn.FinanceTag != "" {
			txn.TagConfidence = roundConfidence(clamp01(winning / (maxThreshold * confidenceSpread)))
		}
		txn.ReasonCodes = dedupeSorted(reasons)
	}
}

func hitsFalsePositive(norm string, patterns []string) bool {
	for _, pattern := range patterns {
		if p := NormalizeText(pattern); p != "" && strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

func containsToken(norm string, tokens []string) bool {
	for _, word := range strings.Fields(norm) {
		for _, token := range tokens {
			if word == token {
				return true
			}
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func roundConfidence(v float64) float64 {
	return math.Round(v*100000) / 100000
}

func dedupeSorted(reasons []string) []string {
	if len(reasons) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(reasons))
	var out []string
	for _, r := range reasons {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Categorize assigns the legacy rule category kept alongside the finance
// tag for workbook consumers.
func Categorize(txn *model.Transaction) string {
	norm := NormalizeText(txn.Narration)
	switch {
	case strings.Contains(norm, "RETURN") || strings.Contains(norm, "RTN") || strings.Contains(norm, "BOUNCE"):
		return "RETURN"
	case strings.Contains(norm, "EMI") || strings.Contains(norm, "LOAN") || strings.Contains(norm, "INTEREST") || strings.Contains(norm, "BANK CHARGES"):
		return "BANK FIN"
	case strings.Contains(norm, "PVT") || strings.Contains(norm, "PRIVATE") || strings.Contains(norm, "HAND LOAN"):
		return "PVT FIN"
	case txn.Amount.GreaterThanOrEqual(oddFigureFloor) && !txn.Amount.Mod(oddFigureStep).IsZero():
		return "ODD FIG"
	case strings.Contains(norm, "DOUBT"):
		return "DOUBT"
	case txn.Debit.IsPositive() && txn.Credit.IsPositive():
		return "CONS"
	default:
		return "FINAL"
	}
}

var (
	oddFigureFloor = decimal.NewFromInt(1000000)
	oddFigureStep  = decimal.NewFromInt(1000)
)
