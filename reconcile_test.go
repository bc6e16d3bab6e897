package ledgerline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ledgerline/ledgerline/model"
)

func TestReconcileAllConsumed(t *testing.T) {
	lines := []*model.RawLine{
		txnLine("01/06/2024", "UPI KUMAR"),
		contLine("REF 1100"),
		txnLine("02/06/2024", "ATM WDL"),
	}
	candidates := MergeLines(lines)
	assert.Zero(t, ReconcileStrict(lines, candidates))
}

func TestReconcileCountsOrphanTransactionLines(t *testing.T) {
	// a TRANSACTION line without a date before the first dated line is
	// dropped by the merger and must be reported as unmapped
	lines := []*model.RawLine{
		{RawText: "UPI KUMAR 500 9500", LineKind: model.LineKindTransaction},
		txnLine("01/06/2024", "ATM WDL"),
	}
	candidates := MergeLines(lines)
	assert.Equal(t, 1, ReconcileStrict(lines, candidates))
}

func TestGateFailuresClean(t *testing.T) {
	gates := GateTotals{
		RawCandidateCount: 2,
		ParsedCount:       2,
		RawDebitTotal:     decimal.NewFromInt(500),
		ParsedDebitTotal:  decimal.NewFromInt(500),
		RawCreditTotal:    decimal.NewFromInt(200),
		ParsedCreditTotal: decimal.NewFromInt(200),
	}
	assert.Empty(t, gates.Failures())
}

func TestGateFailureReasons(t *testing.T) {
	gates := GateTotals{
		Unmapped:          2,
		RawCandidateCount: 3,
		ParsedCount:       2,
		RawDebitTotal:     decimal.NewFromFloat(500.00),
		ParsedDebitTotal:  decimal.NewFromFloat(450.00),
	}
	reasons := gates.Failures()
	assert.Equal(t, []string{
		"UNMAPPED_TRANSACTION_LINES:2",
		"ROW_COUNT_MISMATCH:raw=3,parsed=2",
		"TOTAL_MISMATCH:raw_dr=500.00,parsed_dr=450.00,raw_cr=0.00,parsed_cr=0.00",
	}, reasons)
}

func TestGateToleratesSubPaisaDrift(t *testing.T) {
	gates := GateTotals{
		RawCandidateCount: 1,
		ParsedCount:       1,
		RawDebitTotal:     decimal.NewFromFloat(100.00),
		ParsedDebitTotal:  decimal.NewFromFloat(100.01),
	}
	assert.Empty(t, gates.Failures(), "exactly 0.01 is within tolerance")
}
