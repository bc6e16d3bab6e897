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

	"github.com/ledgerline/ledgerline/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	statement // Interface for statement-version lifecycle operations
	rawline   // Interface for raw extracted line operations
	txn       // Interface for finalized transaction operations
	derived   // Interface for aggregates, pivots and the continuity ledger
	tagconfig // Interface for classifier configuration operations
	audit     // Interface for audit trail operations
}

// statement defines methods for the statement-version parse lifecycle.
type statement interface {
	GetStatementVersion(ctx context.Context, versionID string) (*model.StatementVersion, error)     // Retrieves a version by ID
	MarkVersionParsing(ctx context.Context, versionID string) error                                 // Moves a version to PARSING and stamps the start time
	MarkVersionReady(ctx context.Context, version *model.StatementVersion) error                    // Moves a version to READY with final counts
	MarkVersionFailed(ctx context.Context, versionID string, reason string) error                   // Moves a version to PARSE_FAILED with a reason
	GetPDFFiles(ctx context.Context, versionID string) ([]*model.PDFFile, error)                    // Lists source documents for a version in creation order
	DeleteDerivedRows(ctx context.Context, versionID string) error                                  // Deletes every derived row owned by the version
}

// rawline defines methods for persisting extracted statement lines.
type rawline interface {
	RecordRawLines(ctx context.Context, lines []*model.RawLine) error // Batch-inserts raw lines
}

// txn defines methods for finalized, classified transactions.
type txn interface {
	RecordTransactions(ctx context.Context, txns []*model.Transaction) error                 // Batch-inserts transactions
	GetTransactions(ctx context.Context, versionID string) ([]*model.Transaction, error)     // Retrieves a version's transactions in row order
}

// derived defines methods for recomputed per-version artifacts.
type derived interface {
	RecordMonthlyAggregates(ctx context.Context, versionID string, aggs []*model.MonthlyAggregate) error // Batch-inserts monthly aggregates
	RecordPivots(ctx context.Context, versionID string, pivots []*model.PivotBucket) error               // Batch-inserts pivot buckets
	RecordLedgerRows(ctx context.Context, rows []*model.LedgerRow) error                                 // Batch-inserts continuity ledger rows
}

// tagconfig defines methods for operator-managed classifier configuration.
type tagconfig interface {
	LoadFinanceTagConfig(ctx context.Context) (*model.FinanceTagConfig, error) // Loads defaults merged with database overrides
}

// audit defines methods for the pipeline audit trail.
type audit interface {
	RecordAuditEvent(ctx context.Context, event *model.AuditEvent) error // Records a terminal pipeline action
}
