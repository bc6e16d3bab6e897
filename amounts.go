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
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// currencyNumberPattern matches currency-shaped numbers inside narration
// text: optional sign, digit groups with optional thousands separators,
// optional 2-decimal fraction.
var currencyNumberPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d{1,2})?`)

// ParseAmount parses one amount cell into an exact decimal. Thousands
// separators, the rupee glyph and stray spaces are stripped first. Malformed
// text yields zero, never an error: line-level noise must not abort
// extraction, only the reconciliation gates judge correctness.
func ParseAmount(text string) decimal.Decimal {
	cleaned := strings.NewReplacer(",", "", "₹", "", " ", "").Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// InferAmountTriplet resolves the (debit, credit, balance) triplet of one
// merged candidate. Explicit columns win when any of them carries a value;
// otherwise the narration's numeric tokens are interpreted positionally:
// one number is balance-only, two are (amount, balance), three or more take
// the last three in reading order as (debit, credit, balance).
func InferAmountTriplet(debitText, creditText, balanceText, narration string) (decimal.Decimal, decimal.Decimal, *decimal.Decimal) {
	debit := ParseAmount(debitText)
	credit := ParseAmount(creditText)

	if !debit.IsZero() || !credit.IsZero() || strings.TrimSpace(balanceText) != "" {
		var balance *decimal.Decimal
		if strings.TrimSpace(balanceText) != "" {
			b := ParseAmount(balanceText)
			balance = &b
		}
		return debit, credit, balance
	}

	numbers := currencyNumberPattern.FindAllString(narration, -1)
	switch {
	case len(numbers) == 0:
		return decimal.Zero, decimal.Zero, nil
	case len(numbers) == 1:
		b := ParseAmount(numbers[0])
		return decimal.Zero, decimal.Zero, &b
	case len(numbers) == 2:
		b := ParseAmount(numbers[1])
		return ParseAmount(numbers[0]), decimal.Zero, &b
	default:
		last := numbers[len(numbers)-3:]
		b := ParseAmount(last[2])
		return ParseAmount(last[0]), ParseAmount(last[1]), &b
	}
}

// statementDateLayouts are tried in order; statements are day-first.
var statementDateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2/1/06",
	"2-1-06",
	"2-Jan-2006",
	"2-Jan-06",
}

// ParseStatementDate parses a statement date token in any of the supported
// day-first forms.
func ParseStatementDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized statement date %q", text)
}
