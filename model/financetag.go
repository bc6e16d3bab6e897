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

package model

import "github.com/shopspring/decimal"

// FinanceTagThresholds holds the tunable decision boundaries of the
// finance-tag classifier.
type FinanceTagThresholds struct {
	PvtMinScore         float64 `json:"pvt_min_score"`
	BankMinScore        float64 `json:"bank_min_score"`
	WeeklyWindowDays    int     `json:"weekly_window_days"`
	WeeklyMinHits       int     `json:"weekly_min_hits"`
	SameDaySplitMinHits int     `json:"same_day_split_min_hits"`
	SmallTicketMax      decimal.Decimal `json:"small_ticket_max"`
}

// FinanceTagConfig is the full classifier configuration: keyword weights,
// known lender entities, false-positive patterns and thresholds. Operator
// overrides from the database are merged onto the defaults.
type FinanceTagConfig struct {
	PvtKeywords    map[string]float64   `json:"pvt_keywords"`
	BankKeywords   map[string]float64   `json:"bank_keywords"`
	PvtEntities    []string             `json:"pvt_entities"`
	BankEntities   []string             `json:"bank_entities"`
	FalsePositives []string             `json:"false_positive_patterns"`
	Thresholds     FinanceTagThresholds `json:"thresholds"`
}

// DefaultFinanceTagConfig returns the built-in classifier configuration.
// These weights are the calibrated production defaults; database overrides
// layer on top of a copy, never mutate it.
func DefaultFinanceTagConfig() *FinanceTagConfig {
	return &FinanceTagConfig{
		PvtKeywords: map[string]float64{
			"HAND LOAN":  1.10,
			"PRIVATE":    0.80,
			"VATTI":      0.80,
			"KANDHU":     0.80,
			"INTEREST":   0.75,
			"WEEKLY":     0.70,
			"METTU":      0.70,
			"BIWEEKLY":   0.65,
			"FORTNIGHT":  0.65,
			"COLLECTION": 0.45,
			"LOAN":       0.35,
			"FINANCE":    0.35,
			"MEDIATOR":   0.30,
			"BROKER":     0.25,
			"AGENT":      0.25,
		},
		BankKeywords: map[string]float64{
			"EMI":        0.95,
			"ECS":        0.90,
			"NACH":       0.90,
			"ACH":        0.85,
			"NBFC":       0.80,
			"AUTO DEBIT": 0.75,
			"LOAN A/C":   0.75,
			"LOAN AC":    0.75,
			"DISBURS":    0.70,
			"MORATORIUM": 0.65,
			"BANK":       0.45,
		},
		PvtEntities:  []string{},
		BankEntities: []string{},
		FalsePositives: []string{
			"SALARY",
			"REFUND",
			"REVERSAL",
			"INTERNAL TRANSFER",
			"SELF TRANSFER",
			"CASH DEPOSIT",
		},
		Thresholds: FinanceTagThresholds{
			PvtMinScore:         2.10,
			BankMinScore:        2.40,
			WeeklyWindowDays:    30,
			WeeklyMinHits:       3,
			SameDaySplitMinHits: 2,
			SmallTicketMax:      decimal.NewFromInt(100000),
		},
	}
}

// Clone returns a deep copy safe to merge overrides into.
func (c *FinanceTagConfig) Clone() *FinanceTagConfig {
	out := &FinanceTagConfig{
		PvtKeywords:    make(map[string]float64, len(c.PvtKeywords)),
		BankKeywords:   make(map[string]float64, len(c.BankKeywords)),
		PvtEntities:    append([]string(nil), c.PvtEntities...),
		BankEntities:   append([]string(nil), c.BankEntities...),
		FalsePositives: append([]string(nil), c.FalsePositives...),
		Thresholds:     c.Thresholds,
	}
	for k, v := range c.PvtKeywords {
		out.PvtKeywords[k] = v
	}
	for k, v := range c.BankKeywords {
		out.BankKeywords[k] = v
	}
	return out
}
