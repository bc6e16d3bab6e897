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
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/ledgerline/ledgerline/config"
	"github.com/ledgerline/ledgerline/internal/apierror"
	redlock "github.com/ledgerline/ledgerline/internal/lock"
	"github.com/ledgerline/ledgerline/internal/notification"
	"github.com/ledgerline/ledgerline/model"
)

var tracer = otel.Tracer("ledgerline.pipeline")

// parseLockDuration bounds how long one job may hold a version's advisory
// lock before it is considered abandoned.
const parseLockDuration = 10 * time.Minute

// ParseStatement runs the full parse pipeline for one statement version:
// download, extract, merge, infer, reconcile, classify, aggregate, persist,
// render. It always drives the version to a terminal status; gate failures
// come back as a PARSE_FAILED result with structured reasons, unexpected
// errors are captured on the version and returned to the caller.
func (l *Ledgerline) ParseStatement(ctx context.Context, versionID string, force bool) (*model.ParseResult, error) {
	ctx, span := tracer.Start(ctx, "Parsing statement version")
	defer span.End()

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	version, err := l.datasource.GetStatementVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	pdfs, err := l.datasource.GetPDFFiles(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if len(pdfs) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, fmt.Sprintf("Statement version '%s' has no source documents", versionID), nil)
	}

	parseHash := computeParseHash(versionID, pdfs)
	workbookActive, workbookSkipReason := cfg.WorkbookActive()

	if result, done := l.shortCircuitIdempotent(version, parseHash, force, workbookActive, workbookSkipReason); done {
		return result, nil
	}

	if l.redis != nil {
		lock := redlock.NewParseLock(l.redis, versionID)
		if err := lock.Lock(ctx, parseLockDuration); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Statement version '%s' is already being parsed", versionID), err)
		}
		defer func() {
			if err := lock.Unlock(context.Background()); err != nil {
				logrus.Warnf("failed to release parse lock for %s: %v", versionID, err)
			}
		}()
	}

	if err := l.datasource.MarkVersionParsing(ctx, versionID); err != nil {
		return nil, err
	}
	if err := l.datasource.DeleteDerivedRows(ctx, versionID); err != nil {
		return nil, err
	}

	result, err := l.runPipeline(ctx, cfg, version, pdfs, parseHash, workbookActive, workbookSkipReason)
	if err != nil {
		notification.NotifyError(err)
		if markErr := l.datasource.MarkVersionFailed(ctx, versionID, err.Error()); markErr != nil {
			logrus.Errorf("failed to record parse failure for %s: %v", versionID, markErr)
		}
		return nil, err
	}
	return result, nil
}

func (l *Ledgerline) shortCircuitIdempotent(version *model.StatementVersion, parseHash string, force, workbookActive bool, workbookSkipReason string) (*model.ParseResult, bool) {
	if force || version.Status != model.StatusReady || version.ParseHash != parseHash {
		return nil, false
	}
	if workbookActive && version.WorkbookPath == "" {
		// complete except for the workbook artifact, re-run to render it
		return nil, false
	}
	return &model.ParseResult{
		Status:             model.StatusReady,
		VersionID:          version.VersionID,
		ParseHash:          parseHash,
		Idempotent:         true,
		RawRowCount:        version.RawRowCount,
		ParsedRowCount:     version.ParsedRowCount,
		ContinuityFailures: version.ContinuityFailures,
		WorkbookPath:       version.WorkbookPath,
		WorkbookActive:     workbookActive,
		WorkbookSkipReason: workbookSkipReason,
	}, true
}

func (l *Ledgerline) runPipeline(ctx context.Context, cfg *config.Configuration, version *model.StatementVersion, pdfs []*model.PDFFile, parseHash string, workbookActive bool, workbookSkipReason string) (*model.ParseResult, error) {
	gates := GateTotals{}
	var (
		allLines []*model.RawLine
		txns     []*model.Transaction
		rowIndex int
	)

	for _, pdf := range pdfs {
		data, err := l.storage.Get(ctx, pdf.StoragePath)
		if err != nil {
			return nil, errors.Wrapf(err, "downloading source document %s", pdf.StoragePath)
		}
		lines, err := l.extractor.Extract(ctx, pdf.ID, data)
		if err != nil {
			return nil, errors.Wrapf(err, "extracting source document %s", pdf.OriginalName)
		}
		for _, line := range lines {
			line.ID = model.GenerateUUIDWithSuffix("raw")
			line.VersionID = version.VersionID
		}

		candidates := MergeLines(lines)
		gates.Unmapped += ReconcileStrict(lines, candidates)
		gates.RawCandidateCount += len(candidates)

		offset := len(allLines)
		allLines = append(allLines, lines...)

		for _, candidate := range candidates {
			debit, credit, balance := InferAmountTriplet(candidate.DebitText, candidate.CreditText, candidate.BalanceText, candidate.Narration)
			gates.RawDebitTotal = gates.RawDebitTotal.Add(debit)
			gates.RawCreditTotal = gates.RawCreditTotal.Add(credit)

			txn := l.buildTransaction(version, pdf, candidate, lines, offset, rowIndex, debit, credit, balance)
			rowIndex++
			if txn == nil {
				continue
			}
			gates.ParsedDebitTotal = gates.ParsedDebitTotal.Add(txn.Debit)
			gates.ParsedCreditTotal = gates.ParsedCreditTotal.Add(txn.Credit)
			txns = append(txns, txn)
		}
	}
	gates.ParsedCount = len(txns)

	if reasons := gates.Failures(); len(reasons) > 0 {
		return l.failGates(ctx, version, gates, reasons, len(allLines))
	}

	tagConfig, err := l.datasource.LoadFinanceTagConfig(ctx)
	if err != nil {
		return nil, err
	}
	for _, txn := range txns {
		txn.Category = Categorize(txn)
	}
	ApplyFinanceTags(txns, tagConfig)

	aggregates := ComputeMonthlyAggregates(txns)
	pivots := ComputePivots(txns)
	continuityFailures, ledgerRows := CheckContinuity(txns)
	risk := ComputeRisk(txns)

	if err := l.datasource.RecordRawLines(ctx, allLines); err != nil {
		return nil, err
	}
	if err := l.datasource.RecordTransactions(ctx, txns); err != nil {
		return nil, err
	}
	if err := l.datasource.RecordLedgerRows(ctx, ledgerRows); err != nil {
		return nil, err
	}
	if err := l.datasource.RecordMonthlyAggregates(ctx, version.VersionID, aggregates); err != nil {
		return nil, err
	}
	if err := l.datasource.RecordPivots(ctx, version.VersionID, pivots); err != nil {
		return nil, err
	}

	version.ParseHash = parseHash
	version.RawRowCount = len(allLines)
	version.ParsedRowCount = len(txns)
	version.UnmappedTxnLines = 0
	version.ContinuityFailures = continuityFailures

	if workbookActive {
		path, generatedAt, err := l.renderWorkbook(ctx, version, txns, aggregates, pivots, risk)
		if err != nil {
			return nil, err
		}
		version.WorkbookPath = path
		version.WorkbookGeneratedAt = &generatedAt
	}

	if err := l.datasource.MarkVersionReady(ctx, version); err != nil {
		return nil, err
	}
	l.recordAudit(ctx, version, "PARSE_READY", map[string]interface{}{
		"parse_hash":          parseHash,
		"raw_row_count":       version.RawRowCount,
		"parsed_row_count":    version.ParsedRowCount,
		"continuity_failures": continuityFailures,
		"risk_score":          risk.Score,
		"risk_band":           risk.Band,
	})

	logrus.WithFields(logrus.Fields{
		"version_id":          version.VersionID,
		"raw_rows":            version.RawRowCount,
		"transactions":        version.ParsedRowCount,
		"continuity_failures": continuityFailures,
		"risk_band":           risk.Band,
	}).Info("statement parse completed")

	return &model.ParseResult{
		Status:             model.StatusReady,
		VersionID:          version.VersionID,
		ParseHash:          parseHash,
		RawRowCount:        version.RawRowCount,
		ParsedRowCount:     version.ParsedRowCount,
		ContinuityFailures: continuityFailures,
		WorkbookPath:       version.WorkbookPath,
		WorkbookActive:     workbookActive,
		WorkbookSkipReason: workbookSkipReason,
		Risk:               risk,
	}, nil
}

// buildTransaction finalizes one merged candidate. Candidates without any
// parseable financial signal or date are excluded, never fabricated; the
// row-count gate catches the shortfall.
func (l *Ledgerline) buildTransaction(version *model.StatementVersion, pdf *model.PDFFile, candidate *model.MergedCandidate, lines []*model.RawLine, offset, rowIndex int, debit, credit decimal.Decimal, balance *decimal.Decimal) *model.Transaction {
	if !debit.IsPositive() && !credit.IsPositive() && balance == nil {
		return nil
	}
	date, err := ParseStatementDate(candidate.DateText)
	if err != nil {
		logrus.Warnf("dropping candidate with unparseable date %q in %s", candidate.DateText, pdf.OriginalName)
		return nil
	}

	amount := debit
	if !amount.IsPositive() {
		amount = credit
	}

	globalIndices := make([]int, len(candidate.RawIndices))
	rawLineIDs := make([]string, len(candidate.RawIndices))
	for i, idx := range candidate.RawIndices {
		globalIndices[i] = offset + idx
		rawLineIDs[i] = lines[idx].ID
	}

	balanceOrZero := decimal.Zero
	if balance != nil {
		balanceOrZero = *balance
	}
	dedupeHash := model.HashUID(
		version.StatementID,
		date.Format("2006-01-02"),
		amount.StringFixed(2),
		candidate.Narration,
		balanceOrZero.StringFixed(2),
		rowIndex,
	)

	return &model.Transaction{
		ID:               model.GenerateUUIDWithSuffix("txn"),
		VersionID:        version.VersionID,
		PDFFileID:        pdf.ID,
		RawLineIDs:       rawLineIDs,
		RawIndices:       globalIndices,
		TxnDate:          date,
		MonthKey:         model.MonthKey(date),
		Narration:        candidate.Narration,
		Debit:            debit,
		Credit:           credit,
		Balance:          balance,
		Amount:           amount,
		CounterpartyNorm: NormalizeCounterparty(candidate.Narration),
		TxnType:          model.TxnType(debit, credit),
		RowIndex:         rowIndex,
		DedupeHash:       dedupeHash,
		TransactionUID:   model.HashUID(version.VersionID, dedupeHash),
	}
}

func (l *Ledgerline) failGates(ctx context.Context, version *model.StatementVersion, gates GateTotals, reasons []string, rawRowCount int) (*model.ParseResult, error) {
	reason := strings.Join(reasons, "; ")
	if err := l.datasource.MarkVersionFailed(ctx, version.VersionID, reason); err != nil {
		return nil, err
	}
	l.recordAudit(ctx, version, "PARSE_FAILED", map[string]interface{}{
		"reasons":  reasons,
		"unmapped": gates.Unmapped,
	})
	logrus.WithFields(logrus.Fields{
		"version_id": version.VersionID,
		"reasons":    reasons,
	}).Warn("statement parse failed reconciliation gates")

	return &model.ParseResult{
		Status:         model.StatusParseFailed,
		VersionID:      version.VersionID,
		Reasons:        reasons,
		Unmapped:       gates.Unmapped,
		RawRowCount:    rawRowCount,
		ParsedRowCount: gates.ParsedCount,
	}, nil
}

func (l *Ledgerline) renderWorkbook(ctx context.Context, version *model.StatementVersion, txns []*model.Transaction, aggregates []*model.MonthlyAggregate, pivots []*model.PivotBucket, risk *model.RiskSummary) (string, time.Time, error) {
	artifact, contentType, err := l.workbook.Render(&WorkbookData{
		Version:      version,
		Transactions: txns,
		Aggregates:   aggregates,
		Pivots:       pivots,
		Risk:         risk,
	})
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "rendering workbook")
	}

	path := fmt.Sprintf("exports/%s/workbook.csv", version.VersionID)
	if err := l.storage.Put(ctx, path, artifact, contentType); err != nil {
		return "", time.Time{}, errors.Wrap(err, "uploading workbook")
	}
	return path, time.Now().UTC(), nil
}

func (l *Ledgerline) recordAudit(ctx context.Context, version *model.StatementVersion, action string, payload map[string]interface{}) {
	event := &model.AuditEvent{
		ID:         model.GenerateUUIDWithSuffix("audit"),
		EntityType: "statement_version",
		EntityID:   version.VersionID,
		Action:     action,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.datasource.RecordAuditEvent(ctx, event); err != nil {
		logrus.Warnf("failed to record audit event %s for %s: %v", action, version.VersionID, err)
	}
}

func computeParseHash(versionID string, pdfs []*model.PDFFile) string {
	parts := make([]interface{}, 0, len(pdfs)+1)
	parts = append(parts, versionID)
	for _, pdf := range pdfs {
		parts = append(parts, pdf.Fingerprint())
	}
	return model.HashUID(parts...)
}
