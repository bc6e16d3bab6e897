package ledgerline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	assert.True(t, ParseAmount("1,200.00").Equal(decimal.NewFromFloat(1200.00)))
	assert.True(t, ParseAmount("₹3,400.50").Equal(decimal.NewFromFloat(3400.50)))
	assert.True(t, ParseAmount("-250").Equal(decimal.NewFromInt(-250)))
	assert.True(t, ParseAmount("").IsZero())
	assert.True(t, ParseAmount("N/A").IsZero(), "malformed text yields zero, not an error")
}

func TestInferExplicitColumnsWin(t *testing.T) {
	dr, cr, bal := InferAmountTriplet("5,000", "", "45,000", "EMI PAYMENT 999 888 777")
	assert.True(t, dr.Equal(decimal.NewFromInt(5000)))
	assert.True(t, cr.IsZero())
	require.NotNil(t, bal)
	assert.True(t, bal.Equal(decimal.NewFromInt(45000)))
}

func TestInferBalanceOnlyColumn(t *testing.T) {
	dr, cr, bal := InferAmountTriplet("", "", "45,000", "NO NUMBERS")
	assert.True(t, dr.IsZero())
	assert.True(t, cr.IsZero())
	require.NotNil(t, bal)
	assert.True(t, bal.Equal(decimal.NewFromInt(45000)))
}

func TestInferFallbackLastThreeNumbers(t *testing.T) {
	dr, cr, bal := InferAmountTriplet("", "", "", "05-01-2024 Lorem 1,200.00 50.00 3,400.00")
	assert.True(t, dr.Equal(decimal.NewFromFloat(1200.00)))
	assert.True(t, cr.Equal(decimal.NewFromFloat(50.00)))
	require.NotNil(t, bal)
	assert.True(t, bal.Equal(decimal.NewFromFloat(3400.00)))
}

func TestInferFallbackTwoNumbers(t *testing.T) {
	dr, cr, bal := InferAmountTriplet("", "", "", "UPI KUMAR 1,200.00 3,400.00")
	assert.True(t, dr.Equal(decimal.NewFromFloat(1200.00)), "two numbers read as (amount, balance)")
	assert.True(t, cr.IsZero())
	require.NotNil(t, bal)
	assert.True(t, bal.Equal(decimal.NewFromFloat(3400.00)))
}

func TestInferFallbackOneNumber(t *testing.T) {
	dr, cr, bal := InferAmountTriplet("", "", "", "BALANCE FORWARD 3,400.00")
	assert.True(t, dr.IsZero())
	assert.True(t, cr.IsZero())
	require.NotNil(t, bal)
	assert.True(t, bal.Equal(decimal.NewFromFloat(3400.00)))
}

func TestInferNoNumbers(t *testing.T) {
	dr, cr, bal := InferAmountTriplet("", "", "", "NO FINANCIAL SIGNAL HERE")
	assert.True(t, dr.IsZero())
	assert.True(t, cr.IsZero())
	assert.Nil(t, bal)
}

func TestParseStatementDate(t *testing.T) {
	for text, want := range map[string]time.Time{
		"01/06/2024":  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		"1-6-24":      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		"01-Jun-2024": time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		"01-JUN-2024": time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	} {
		got, err := ParseStatementDate(text)
		require.NoError(t, err, text)
		assert.True(t, got.Equal(want), text)
	}

	_, err := ParseStatementDate("June the first")
	assert.Error(t, err)
}
