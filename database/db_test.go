package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/apierror"
	"github.com/ledgerline/ledgerline/model"
)

func newTestDatasource(t *testing.T) (Datasource, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return Datasource{Conn: db}, mock
}

func TestGetStatementVersion(t *testing.T) {
	ds, mock := newTestDatasource(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"version_id", "statement_id", "lead_id", "status", "parse_hash",
		"raw_row_count", "parsed_row_count", "unmapped_txn_lines", "continuity_failures",
		"error_reason", "workbook_path",
		"workbook_generated_at", "parse_started_at", "parse_completed_at", "created_at",
	}).AddRow("ver_1", "stmt_1", "lead_1", model.StatusReady, "abc123",
		42, 40, 0, 1,
		"", "exports/ver_1/workbook.csv",
		now, now, now, now)

	mock.ExpectQuery("SELECT version_id, statement_id").
		WithArgs("ver_1").
		WillReturnRows(rows)

	version, err := ds.GetStatementVersion(context.Background(), "ver_1")
	assert.NoError(t, err)
	assert.Equal(t, "ver_1", version.VersionID)
	assert.Equal(t, model.StatusReady, version.Status)
	assert.Equal(t, 42, version.RawRowCount)
	assert.Equal(t, "exports/ver_1/workbook.csv", version.WorkbookPath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStatementVersionNotFound(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery("SELECT version_id, statement_id").
		WithArgs("ver_missing").
		WillReturnRows(sqlmock.NewRows([]string{"version_id"}))

	_, err := ds.GetStatementVersion(context.Background(), "ver_missing")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestMarkVersionParsing(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectExec("UPDATE statement_versions").
		WithArgs("ver_1", model.StatusParsing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, ds.MarkVersionParsing(context.Background(), "ver_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkVersionFailedNotFound(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectExec("UPDATE statement_versions").
		WithArgs("ver_missing", model.StatusParseFailed, "ROW_COUNT_MISMATCH:raw=3,parsed=2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ds.MarkVersionFailed(context.Background(), "ver_missing", "ROW_COUNT_MISMATCH:raw=3,parsed=2")
	assert.Error(t, err)
}

func TestGetPDFFiles(t *testing.T) {
	ds, mock := newTestDatasource(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "version_id", "storage_path", "original_name", "created_at"}).
		AddRow("pdf_1", "ver_1", "statements/a.pdf", "a.pdf", now).
		AddRow("pdf_2", "ver_1", "statements/b.pdf", "b.pdf", now.Add(time.Second))

	mock.ExpectQuery("SELECT id, version_id, storage_path").
		WithArgs("ver_1").
		WillReturnRows(rows)

	files, err := ds.GetPDFFiles(context.Background(), "ver_1")
	assert.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "pdf_1", files[0].ID)
	assert.Equal(t, "statements/b.pdf", files[1].StoragePath)
}

func TestDeleteDerivedRows(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM raw_statement_lines").WithArgs("ver_1").WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec("DELETE FROM transactions").WithArgs("ver_1").WillReturnResult(sqlmock.NewResult(0, 8))
	mock.ExpectExec("DELETE FROM statement_ledger").WithArgs("ver_1").WillReturnResult(sqlmock.NewResult(0, 8))
	mock.ExpectExec("DELETE FROM aggregates_monthly").WithArgs("ver_1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM pivots").WithArgs("ver_1").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	assert.NoError(t, ds.DeleteDerivedRows(context.Background(), "ver_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRawLines(t *testing.T) {
	ds, mock := newTestDatasource(t)

	lines := []*model.RawLine{
		{ID: "raw_1", VersionID: "ver_1", PDFFileID: "pdf_1", PageNo: 1, RowNo: 0, RawText: "01/02/2024|ATM WDL|500|0|9500", DateText: "01/02/2024", LineKind: model.LineKindTransaction},
		{ID: "raw_2", VersionID: "ver_1", PDFFileID: "pdf_1", PageNo: 1, RowNo: 1, RawText: "REF 991", LineKind: model.LineKindNonTransaction},
	}

	mock.ExpectExec("INSERT INTO raw_statement_lines").
		WillReturnResult(sqlmock.NewResult(0, 2))

	assert.NoError(t, ds.RecordRawLines(context.Background(), lines))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRawLinesChunks(t *testing.T) {
	ds, mock := newTestDatasource(t)

	lines := make([]*model.RawLine, rawLineBatchSize+1)
	for i := range lines {
		lines[i] = &model.RawLine{ID: model.GenerateUUIDWithSuffix("raw"), VersionID: "ver_1", PDFFileID: "pdf_1", PageNo: 1, RowNo: i, RawText: "x", LineKind: model.LineKindNonTransaction}
	}

	mock.ExpectExec("INSERT INTO raw_statement_lines").WillReturnResult(sqlmock.NewResult(0, int64(rawLineBatchSize)))
	mock.ExpectExec("INSERT INTO raw_statement_lines").WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, ds.RecordRawLines(context.Background(), lines))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordTransactions(t *testing.T) {
	ds, mock := newTestDatasource(t)

	balance := decimal.NewFromInt(9500)
	txns := []*model.Transaction{
		{
			TransactionUID: "uid_1", DedupeHash: "hash_1", VersionID: "ver_1", PDFFileID: "pdf_1",
			TxnDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), MonthKey: "2024-02",
			Narration: "ATM WDL", Debit: decimal.NewFromInt(500), Credit: decimal.Zero,
			Balance: &balance, Amount: decimal.NewFromInt(500),
			CounterpartyNorm: "ATM WDL", TxnType: model.TypeDebit, Category: "FINAL",
			RowIndex: 0, RawIndices: []int{0},
		},
	}

	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, ds.RecordTransactions(context.Background(), txns))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTransactions(t *testing.T) {
	ds, mock := newTestDatasource(t)

	rows := sqlmock.NewRows([]string{
		"transaction_uid", "dedupe_hash", "version_id", "pdf_file_id", "txn_date", "month_key", "narration",
		"dr", "cr", "balance", "amount", "counterparty_norm", "txn_type", "category",
		"finance_tag", "tag_confidence", "tag_reason_codes", "row_index",
	}).AddRow("uid_1", "hash_1", "ver_1", "pdf_1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "2024-02", "EMI HDFC",
		"4500.00", "0.00", "5000.00", "4500.00", "EMI HDFC", model.TypeDebit, "BANK FIN",
		model.TagBankFinance, 0.92, []byte(`["BANK_KW:EMI"]`), 0)

	mock.ExpectQuery("SELECT transaction_uid, dedupe_hash").
		WithArgs("ver_1").
		WillReturnRows(rows)

	txns, err := ds.GetTransactions(context.Background(), "ver_1")
	assert.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.TagBankFinance, txns[0].FinanceTag)
	assert.True(t, txns[0].Debit.Equal(decimal.NewFromInt(4500)))
	require.NotNil(t, txns[0].Balance)
	assert.True(t, txns[0].Balance.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, []string{"BANK_KW:EMI"}, txns[0].ReasonCodes)
}

func TestRecordMonthlyAggregates(t *testing.T) {
	ds, mock := newTestDatasource(t)

	aggs := []*model.MonthlyAggregate{
		{MonthKey: "2024-01", TxnCount: 3, CreditTotal: decimal.NewFromInt(1000), DebitTotal: decimal.NewFromInt(400), NetFlow: decimal.NewFromInt(600)},
		{MonthKey: "2024-02", TxnCount: 1, CreditTotal: decimal.Zero, DebitTotal: decimal.NewFromInt(500), NetFlow: decimal.NewFromInt(-500)},
	}

	mock.ExpectExec("INSERT INTO aggregates_monthly").
		WillReturnResult(sqlmock.NewResult(0, 2))

	assert.NoError(t, ds.RecordMonthlyAggregates(context.Background(), "ver_1", aggs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLedgerRows(t *testing.T) {
	ds, mock := newTestDatasource(t)

	expected := decimal.NewFromInt(9500)
	reported := decimal.NewFromInt(9400)
	delta := decimal.NewFromInt(-100)
	rows := []*model.LedgerRow{
		{VersionID: "ver_1", RowIndex: 1, TxnDate: time.Now(), ExpectedBalance: &expected, ReportedBalance: &reported, Delta: &delta, ContinuityOK: false},
	}

	mock.ExpectExec("INSERT INTO statement_ledger").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, ds.RecordLedgerRows(context.Background(), rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAuditEvent(t *testing.T) {
	ds, mock := newTestDatasource(t)

	event := &model.AuditEvent{
		ID:         "audit_1",
		EntityType: "statement_version",
		EntityID:   "ver_1",
		Action:     "PARSE_COMPLETED",
		Payload:    map[string]interface{}{"raw_row_count": 42},
		CreatedAt:  time.Now(),
	}

	mock.ExpectExec("INSERT INTO audit_events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, ds.RecordAuditEvent(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}
