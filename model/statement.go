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

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statement version parse lifecycle. PARSING is the only non-terminal state.
const (
	StatusParsing     = "PARSING"
	StatusReady       = "READY"
	StatusParseFailed = "PARSE_FAILED"
)

// Raw line kinds as emitted by the extraction boundary.
const (
	LineKindTransaction    = "TRANSACTION"
	LineKindNonTransaction = "NON_TXN_LINE"
)

// Transaction direction derived from the inferred debit/credit pair.
const (
	TypeCredit  = "CREDIT"
	TypeDebit   = "DEBIT"
	TypeMixed   = "MIXED"
	TypeUnknown = "UNKNOWN"
)

// Finance tags assigned by the classifier. An untagged transaction carries "".
const (
	TagPrivateFinance = "PVT_FIN"
	TagBankFinance    = "BANK_FIN"
)

// RawLine is one atomic unit of extracted statement text with page/row
// coordinates. Immutable once extracted; identified by (PDFFileID, PageNo, RowNo).
type RawLine struct {
	ID               string `json:"id"`
	VersionID        string `json:"version_id"`
	PDFFileID        string `json:"pdf_file_id"`
	PageNo           int    `json:"page_no"`
	RowNo            int    `json:"row_no"`
	RawText          string `json:"raw_row_text"`
	DateText         string `json:"raw_date_text,omitempty"`
	NarrationText    string `json:"raw_narration_text,omitempty"`
	DebitText        string `json:"raw_dr_text,omitempty"`
	CreditText       string `json:"raw_cr_text,omitempty"`
	BalanceText      string `json:"raw_balance_text,omitempty"`
	LineKind         string `json:"line_type"`
	ExtractionMethod string `json:"extraction_method"`
}

// MergedCandidate is one or more raw lines combined into a single logical
// transaction. RawIndices refer back to the document's raw line sequence;
// a raw line belongs to at most one candidate.
type MergedCandidate struct {
	RawIndices  []int  `json:"raw_indices"`
	DateText    string `json:"date_text"`
	Narration   string `json:"narration"`
	DebitText   string `json:"dr_text,omitempty"`
	CreditText  string `json:"cr_text,omitempty"`
	BalanceText string `json:"bal_text,omitempty"`
}

// PDFFile is one source document attached to a statement version, resolvable
// to raw bytes through the object store.
type PDFFile struct {
	ID           string    `json:"id"`
	VersionID    string    `json:"version_id"`
	StoragePath  string    `json:"storage_path"`
	OriginalName string    `json:"original_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Fingerprint is the ordered identity contribution of this document to the
// job-level parse hash.
func (p *PDFFile) Fingerprint() string {
	return p.ID + "|" + p.StoragePath + "|" + p.OriginalName + "|" + p.CreatedAt.UTC().Format(time.RFC3339)
}

// StatementVersion owns exactly one generation of raw lines, transactions,
// aggregates and pivots. A re-run deletes the prior generation before writing.
type StatementVersion struct {
	ID                  int64      `json:"-"`
	VersionID           string     `json:"version_id"`
	StatementID         string     `json:"statement_id"`
	LeadID              string     `json:"lead_id,omitempty"`
	Status              string     `json:"status"`
	ParseHash           string     `json:"parse_hash"`
	RawRowCount         int        `json:"raw_row_count"`
	ParsedRowCount      int        `json:"parsed_row_count"`
	UnmappedTxnLines    int        `json:"unmapped_txn_lines"`
	ContinuityFailures  int        `json:"continuity_failures"`
	ErrorReason         string     `json:"error_reason,omitempty"`
	WorkbookPath        string     `json:"workbook_path,omitempty"`
	WorkbookGeneratedAt *time.Time `json:"workbook_generated_at,omitempty"`
	ParseStartedAt      *time.Time `json:"parse_started_at,omitempty"`
	ParseCompletedAt    *time.Time `json:"parse_completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Transaction is a finalized, classified statement transaction. Immutable
// after creation within a job run; replaced wholesale on re-run.
type Transaction struct {
	ID               string           `json:"id"`
	VersionID        string           `json:"version_id"`
	PDFFileID        string           `json:"pdf_file_id"`
	RawLineIDs       []string         `json:"raw_line_ids"`
	RawIndices       []int            `json:"raw_indices"`
	TxnDate          time.Time        `json:"txn_date"`
	MonthKey         string           `json:"month_key"`
	Narration        string           `json:"narration"`
	Debit            decimal.Decimal  `json:"dr"`
	Credit           decimal.Decimal  `json:"cr"`
	Balance          *decimal.Decimal `json:"balance,omitempty"`
	Amount           decimal.Decimal  `json:"amount"`
	CounterpartyNorm string           `json:"counterparty_norm"`
	TxnType          string           `json:"txn_type"`
	Category         string           `json:"category"`
	FinanceTag       string           `json:"finance_tag,omitempty"`
	TagConfidence    float64          `json:"tag_confidence"`
	ReasonCodes      []string         `json:"tag_reason_codes"`
	RowIndex         int              `json:"row_index"`
	DedupeHash       string           `json:"dedupe_hash"`
	TransactionUID   string           `json:"transaction_uid"`
}

// HasReason reports whether the classifier attached the given reason code.
func (t *Transaction) HasReason(code string) bool {
	for _, r := range t.ReasonCodes {
		if r == code {
			return true
		}
	}
	return false
}

// LedgerRow is one row of the running-balance continuity ledger. Expected
// balance is previous reported balance plus credit minus debit; the first
// row of a version is exempt from the check.
type LedgerRow struct {
	VersionID       string           `json:"version_id"`
	RowIndex        int              `json:"row_index"`
	TxnDate         time.Time        `json:"txn_date"`
	ExpectedBalance *decimal.Decimal `json:"expected_balance,omitempty"`
	ReportedBalance *decimal.Decimal `json:"reported_balance,omitempty"`
	Delta           *decimal.Decimal `json:"delta,omitempty"`
	ContinuityOK    bool             `json:"continuity_ok"`
}

// MonthlyAggregate is a derived month-level KPI rollup, recomputed wholly
// each run and never mutated incrementally.
type MonthlyAggregate struct {
	MonthKey    string          `json:"month_key"`
	TxnCount    int             `json:"txn_count"`
	CreditTotal decimal.Decimal `json:"credit_total"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	NetFlow     decimal.Decimal `json:"net_flow"`
}

// PivotBucket groups finalized transactions by (month, category, type).
type PivotBucket struct {
	MonthKey    string          `json:"month_key"`
	Category    string          `json:"category"`
	TxnType     string          `json:"txn_type"`
	SumDebit    decimal.Decimal `json:"sum_dr"`
	SumCredit   decimal.Decimal `json:"sum_cr"`
	CountDebit  int             `json:"count_dr"`
	CountCredit int             `json:"count_cr"`
}

// RiskSummary is the derived underwriting risk assessment for one version.
type RiskSummary struct {
	Score                  int      `json:"risk_score"`
	Band                   string   `json:"risk_band"`
	Reasons                []string `json:"reasons"`
	PvtShareOfDebits       float64  `json:"pvt_share_of_debits"`
	BankShareOfDebits      float64  `json:"bank_share_of_debits"`
	TopLenderConcentration float64  `json:"top_lender_concentration"`
	WeeklyRepetition       bool     `json:"weekly_repetition"`
	EMIMiss                bool     `json:"emi_miss"`
	MultipleEMIs           bool     `json:"multiple_emis"`
}

// AuditEvent records a terminal pipeline action against an entity.
type AuditEvent struct {
	ID         string                 `json:"id"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Action     string                 `json:"action"`
	Payload    map[string]interface{} `json:"payload"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ParseResult is the terminal outcome of one parse job, returned to callers
// regardless of success or gate failure.
type ParseResult struct {
	Status             string       `json:"status"`
	VersionID          string       `json:"version_id"`
	ParseHash          string       `json:"parse_hash"`
	Idempotent         bool         `json:"idempotent,omitempty"`
	Reasons            []string     `json:"reasons,omitempty"`
	Unmapped           int          `json:"unmapped,omitempty"`
	RawRowCount        int          `json:"raw_row_count"`
	ParsedRowCount     int          `json:"parsed_row_count"`
	ContinuityFailures int          `json:"continuity_failures"`
	WorkbookPath       string       `json:"workbook_path,omitempty"`
	WorkbookActive     bool         `json:"workbook_active"`
	WorkbookSkipReason string       `json:"workbook_skip_reason,omitempty"`
	Risk               *RiskSummary `json:"risk,omitempty"`
}

// TxnType derives the transaction direction from a debit/credit pair.
func TxnType(debit, credit decimal.Decimal) string {
	switch {
	case credit.IsPositive() && !debit.IsPositive():
		return TypeCredit
	case debit.IsPositive() && !credit.IsPositive():
		return TypeDebit
	case debit.IsPositive() && credit.IsPositive():
		return TypeMixed
	default:
		return TypeUnknown
	}
}
