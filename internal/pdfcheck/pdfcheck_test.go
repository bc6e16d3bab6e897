package pdfcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n%...")))
	assert.False(t, IsPDF([]byte("01/01/2024|OPENING BALANCE|0|0|1000")))
	assert.False(t, IsPDF(nil))
}

func TestScreenRejectsGarbage(t *testing.T) {
	_, err := Screen([]byte("not a pdf at all"))
	assert.Error(t, err)
}

func TestScreenRejectsTruncatedHeader(t *testing.T) {
	_, err := Screen([]byte("%PDF-1.4"))
	assert.Error(t, err)
}
