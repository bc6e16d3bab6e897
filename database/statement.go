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

package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/ledgerline/ledgerline/internal/apierror"
	"github.com/ledgerline/ledgerline/model"
)

// GetStatementVersion retrieves a statement version by its public ID.
func (d Datasource) GetStatementVersion(ctx context.Context, versionID string) (*model.StatementVersion, error) {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Getting statement version from db")
	defer span.End()

	row := d.Conn.QueryRowContext(ctx, `
		SELECT version_id, statement_id, COALESCE(lead_id, ''), status, COALESCE(parse_hash, ''),
			raw_row_count, parsed_row_count, unmapped_txn_lines, continuity_failures,
			COALESCE(error_reason, ''), COALESCE(workbook_path, ''),
			workbook_generated_at, parse_started_at, parse_completed_at, created_at
		FROM statement_versions
		WHERE version_id = $1
	`, versionID)

	version := &model.StatementVersion{}
	err := row.Scan(
		&version.VersionID, &version.StatementID, &version.LeadID, &version.Status, &version.ParseHash,
		&version.RawRowCount, &version.ParsedRowCount, &version.UnmappedTxnLines, &version.ContinuityFailures,
		&version.ErrorReason, &version.WorkbookPath,
		&version.WorkbookGeneratedAt, &version.ParseStartedAt, &version.ParseCompletedAt, &version.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Statement version with ID '%s' not found", versionID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve statement version", err)
	}

	return version, nil
}

// MarkVersionParsing moves the version into PARSING and stamps the start
// time. The error reason from a previous failed run is cleared.
func (d Datasource) MarkVersionParsing(ctx context.Context, versionID string) error {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Marking statement version as parsing")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE statement_versions
		SET status = $2, parse_started_at = NOW(), parse_completed_at = NULL, error_reason = NULL
		WHERE version_id = $1
	`, versionID, model.StatusParsing)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update statement version status", err)
	}
	return checkVersionAffected(result, versionID)
}

// MarkVersionReady finalizes a successful run, persisting counts, the parse
// hash and workbook details in one statement.
func (d Datasource) MarkVersionReady(ctx context.Context, version *model.StatementVersion) error {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Marking statement version as ready")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE statement_versions
		SET status = $2, parse_hash = $3, raw_row_count = $4, parsed_row_count = $5,
			unmapped_txn_lines = $6, continuity_failures = $7,
			workbook_path = NULLIF($8, ''), workbook_generated_at = $9,
			parse_completed_at = NOW(), error_reason = NULL
		WHERE version_id = $1
	`, version.VersionID, model.StatusReady, version.ParseHash, version.RawRowCount, version.ParsedRowCount,
		version.UnmappedTxnLines, version.ContinuityFailures,
		version.WorkbookPath, version.WorkbookGeneratedAt)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark statement version ready", err)
	}
	return checkVersionAffected(result, version.VersionID)
}

// MarkVersionFailed moves the version into PARSE_FAILED with the gate or
// error reason callers will see.
func (d Datasource) MarkVersionFailed(ctx context.Context, versionID string, reason string) error {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Marking statement version as failed")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE statement_versions
		SET status = $2, error_reason = $3, parse_completed_at = NOW()
		WHERE version_id = $1
	`, versionID, model.StatusParseFailed, reason)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark statement version failed", err)
	}
	return checkVersionAffected(result, versionID)
}

func checkVersionAffected(result sql.Result, versionID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Statement version with ID '%s' not found", versionID), nil)
	}
	return nil
}

// GetPDFFiles lists the source documents of a version in creation order.
// The order is part of the parse-hash identity, so it must be stable.
func (d Datasource) GetPDFFiles(ctx context.Context, versionID string) ([]*model.PDFFile, error) {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Listing statement pdf files")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, version_id, storage_path, original_name, created_at
		FROM pdf_files
		WHERE version_id = $1
		ORDER BY created_at, id
	`, versionID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve pdf files", err)
	}
	defer rows.Close()

	var files []*model.PDFFile
	for rows.Next() {
		file := &model.PDFFile{}
		err = rows.Scan(&file.ID, &file.VersionID, &file.StoragePath, &file.OriginalName, &file.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan pdf file data", err)
		}
		files = append(files, file)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over pdf files", err)
	}

	return files, nil
}

// DeleteDerivedRows removes every derived row the version owns. A re-run
// replaces the whole generation, so this runs in one transaction.
func (d Datasource) DeleteDerivedRows(ctx context.Context, versionID string) error {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Deleting derived rows for version")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}

	for _, table := range []string{
		"raw_statement_lines",
		"transactions",
		"statement_ledger",
		"aggregates_monthly",
		"pivots",
	} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE version_id = $1", table), versionID); err != nil {
			_ = tx.Rollback()
			return apierror.NewAPIError(apierror.ErrInternalServer, fmt.Sprintf("Failed to delete derived rows from %s", table), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit derived row deletion", err)
	}
	return nil
}
