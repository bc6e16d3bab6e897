package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/ledgerline/ledgerline/internal/apierror"
	"github.com/ledgerline/ledgerline/model"
)

// Batch sizes keep multi-row inserts under the postgres placeholder limit
// while amortizing round trips on large statements.
const (
	rawLineBatchSize = 1000
	txnBatchSize     = 500
)

// RecordRawLines batch-inserts the full extraction generation of a version.
func (d Datasource) RecordRawLines(ctx context.Context, lines []*model.RawLine) error {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Saving raw statement lines to db")
	defer span.End()

	for start := 0; start < len(lines); start += rawLineBatchSize {
		end := start + rawLineBatchSize
		if end > len(lines) {
			end = len(lines)
		}
		if err := d.insertRawLineBatch(ctx, lines[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (d Datasource) insertRawLineBatch(ctx context.Context, lines []*model.RawLine) error {
	var (
		placeholders []string
		args         []interface{}
	)
	for i, line := range lines {
		base := i * 13
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11, base+12, base+13))
		args = append(args,
			line.ID, line.VersionID, line.PDFFileID, line.PageNo, line.RowNo,
			line.RawText, line.DateText, line.NarrationText,
			line.DebitText, line.CreditText, line.BalanceText,
			line.LineKind, line.ExtractionMethod,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO raw_statement_lines
			(id, version_id, pdf_file_id, page_no, row_no, raw_row_text, raw_date_text, raw_narration_text, raw_dr_text, raw_cr_text, raw_balance_text, line_type, extraction_method)
		VALUES %s
	`, strings.Join(placeholders, ","))

	if _, err := d.Conn.ExecContext(ctx, query, args...); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record raw statement lines", err)
	}
	return nil
}

// RecordTransactions batch-inserts finalized transactions. Duplicate dedupe
// hashes within the version are skipped rather than failing the batch.
func (d Datasource) RecordTransactions(ctx context.Context, txns []*model.Transaction) error {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Saving transactions to db")
	defer span.End()

	for start := 0; start < len(txns); start += txnBatchSize {
		end := start + txnBatchSize
		if end > len(txns) {
			end = len(txns)
		}
		if err := d.insertTransactionBatch(ctx, txns[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (d Datasource) insertTransactionBatch(ctx context.Context, txns []*model.Transaction) error {
	var (
		placeholders []string
		args         []interface{}
	)
	for i, txn := range txns {
		reasonsJSON, err := json.Marshal(txn.ReasonCodes)
		if err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal reason codes", err)
		}
		indicesJSON, err := json.Marshal(txn.RawIndices)
		if err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal raw indices", err)
		}

		var balance interface{}
		if txn.Balance != nil {
			balance = txn.Balance.StringFixed(2)
		}

		base := i * 19
		ph := make([]string, 19)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
		args = append(args,
			txn.TransactionUID, txn.DedupeHash, txn.VersionID, txn.PDFFileID,
			txn.TxnDate, txn.MonthKey, txn.Narration,
			txn.Debit.StringFixed(2), txn.Credit.StringFixed(2), balance, txn.Amount.StringFixed(2),
			txn.CounterpartyNorm, txn.TxnType, txn.Category,
			nullIfEmpty(txn.FinanceTag), txn.TagConfidence, reasonsJSON,
			txn.RowIndex, indicesJSON,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO transactions
			(transaction_uid, dedupe_hash, version_id, pdf_file_id, txn_date, month_key, narration, dr, cr, balance, amount, counterparty_norm, txn_type, category, finance_tag, tag_confidence, tag_reason_codes, row_index, raw_indices)
		VALUES %s
		ON CONFLICT (version_id, dedupe_hash) DO NOTHING
	`, strings.Join(placeholders, ","))

	if _, err := d.Conn.ExecContext(ctx, query, args...); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record transactions", err)
	}
	return nil
}

// GetTransactions retrieves a version's finalized transactions in document
// row order.
func (d Datasource) GetTransactions(ctx context.Context, versionID string) ([]*model.Transaction, error) {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Fetching transactions for version")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT transaction_uid, dedupe_hash, version_id, COALESCE(pdf_file_id, ''), txn_date, month_key, narration,
			dr, cr, balance, amount, COALESCE(counterparty_norm, ''), txn_type, COALESCE(category, ''),
			COALESCE(finance_tag, ''), tag_confidence, tag_reason_codes, row_index
		FROM transactions
		WHERE version_id = $1
		ORDER BY row_index
	`, versionID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		txn := &model.Transaction{}
		var (
			dr, cr, amount string
			balance        sql.NullString
			reasonsJSON    []byte
		)
		err = rows.Scan(
			&txn.TransactionUID, &txn.DedupeHash, &txn.VersionID, &txn.PDFFileID, &txn.TxnDate, &txn.MonthKey, &txn.Narration,
			&dr, &cr, &balance, &amount, &txn.CounterpartyNorm, &txn.TxnType, &txn.Category,
			&txn.FinanceTag, &txn.TagConfidence, &reasonsJSON, &txn.RowIndex,
		)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction data", err)
		}

		if txn.Debit, err = decimal.NewFromString(dr); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to parse debit amount", err)
		}
		if txn.Credit, err = decimal.NewFromString(cr); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to parse credit amount", err)
		}
		if txn.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to parse amount", err)
		}
		if balance.Valid {
			b, err := decimal.NewFromString(balance.String)
			if err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to parse balance", err)
			}
			txn.Balance = &b
		}
		if len(reasonsJSON) > 0 {
			if err = json.Unmarshal(reasonsJSON, &txn.ReasonCodes); err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal reason codes", err)
			}
		}

		transactions = append(transactions, txn)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over transactions", err)
	}

	return transactions, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
