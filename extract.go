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
	"context"
	"regexp"
	"strings"

	"github.com/ledgerline/ledgerline/internal/apierror"
	"github.com/ledgerline/ledgerline/internal/pdfcheck"
	"github.com/ledgerline/ledgerline/model"
)

// LineExtractor turns one source document into the ordered raw line sequence
// the pipeline consumes. Implementations are engine boundaries: the pipeline
// never looks inside a document itself.
type LineExtractor interface {
	Extract(ctx context.Context, documentID string, data []byte) ([]*model.RawLine, error)
}

// dateTokenPattern recognizes the date forms statements lead transaction
// rows with: 01/06/2024, 1-6-24, 01-Jun-2024.
var dateTokenPattern = regexp.MustCompile(`^(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{1,2}-[A-Za-z]{3}-\d{4})\b`)

// Extraction methods recorded per raw line.
const (
	extractionMethodCells = "TEXT_CELLS"
	extractionMethodLine  = "TEXT_LINE"
)

// TabularTextExtractor is the deterministic default engine for text-based
// statement exports. Pages are separated by form feeds; a row is either a
// pipe-delimited cell row (date|narration|dr|cr|balance) or a free-text line
// whose leading date token marks it as a transaction row. PDF payloads are
// screened but need a dedicated text-layer engine behind this interface.
type TabularTextExtractor struct{}

func NewTabularTextExtractor() *TabularTextExtractor {
	return &TabularTextExtractor{}
}

func (e *TabularTextExtractor) Extract(_ context.Context, documentID string, data []byte) ([]*model.RawLine, error) {
	if pdfcheck.IsPDF(data) {
		if _, err := pdfcheck.Screen(data); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Source document failed PDF validation", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Source document has no extractable text layer for this engine", nil)
	}

	var lines []*model.RawLine
	for pageIdx, page := range strings.Split(string(data), "\f") {
		rowNo := 0
		for _, row := range strings.Split(page, "\n") {
			row = strings.TrimRight(row, " \t\r")
			if strings.TrimSpace(row) == "" {
				continue
			}

			line := e.extractRow(row)
			line.PDFFileID = documentID
			line.PageNo = pageIdx + 1
			line.RowNo = rowNo
			rowNo++
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (e *TabularTextExtractor) extractRow(row string) *model.RawLine {
	if strings.Contains(row, "|") {
		return e.extractCellRow(row)
	}

	line := &model.RawLine{
		RawText:          strings.TrimSpace(row),
		LineKind:         model.LineKindNonTransaction,
		ExtractionMethod: extractionMethodLine,
	}
	if date := dateTokenPattern.FindString(line.RawText); date != "" {
		line.DateText = date
		line.NarrationText = strings.TrimSpace(strings.TrimPrefix(line.RawText, date))
		line.LineKind = model.LineKindTransaction
	}
	return line
}

func (e *TabularTextExtractor) extractCellRow(row string) *model.RawLine {
	cells := strings.Split(row, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}

	line := &model.RawLine{
		RawText:          strings.TrimSpace(row),
		LineKind:         model.LineKindNonTransaction,
		ExtractionMethod: extractionMethodCells,
	}
	if dateTokenPattern.MatchString(cells[0]) {
		line.DateText = cells[0]
		line.LineKind = model.LineKindTransaction
	}
	if len(cells) > 1 {
		line.NarrationText = cells[1]
	}
	if len(cells) > 2 {
		line.DebitText = cells[2]
	}
	if len(cells) > 3 {
		line.CreditText = cells[3]
	}
	if len(cells) > 4 {
		line.BalanceText = cells[4]
	}
	return line
}
