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

	"github.com/redis/go-redis/v9"

	"github.com/ledgerline/ledgerline/config"
	"github.com/ledgerline/ledgerline/database"
	"github.com/ledgerline/ledgerline/internal/apierror"
	redis_db "github.com/ledgerline/ledgerline/internal/redis-db"
	"github.com/ledgerline/ledgerline/internal/storage"
	"github.com/ledgerline/ledgerline/model"
)

// Ledgerline represents the main struct for the statement parsing service.
type Ledgerline struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	storage    storage.ObjectStore
	extractor  LineExtractor
	workbook   WorkbookRenderer
}

// NewLedgerline initializes a new instance of Ledgerline with the provided
// database datasource. It fetches the configuration and wires the redis
// client, object store, queue, extractor and workbook renderer.
func NewLedgerline(db database.IDataSource) (*Ledgerline, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)})
	if err != nil {
		return nil, err
	}
	store, err := storage.NewS3Store(configuration)
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	newLedgerline := &Ledgerline{
		datasource: db,
		queue:      newQueue,
		redis:      redisClient.Client(),
		storage:    store,
		extractor:  NewTabularTextExtractor(),
		workbook:   NewCSVWorkbook(),
	}
	return newLedgerline, nil
}

// NewLedgerlineWithDeps wires explicit collaborators. Used by tests to
// substitute in-memory fakes for the storage, queue and renderer boundaries.
func NewLedgerlineWithDeps(db database.IDataSource, store storage.ObjectStore, redisClient redis.UniversalClient, extractor LineExtractor, workbook WorkbookRenderer) *Ledgerline {
	return &Ledgerline{
		datasource: db,
		redis:      redisClient,
		storage:    store,
		extractor:  extractor,
		workbook:   workbook,
	}
}

// GetStatementVersion retrieves a statement version by its version ID.
func (l *Ledgerline) GetStatementVersion(ctx context.Context, versionID string) (*model.StatementVersion, error) {
	return l.datasource.GetStatementVersion(ctx, versionID)
}

// GetTransactions retrieves the finalized transactions of a statement version.
func (l *Ledgerline) GetTransactions(ctx context.Context, versionID string) ([]*model.Transaction, error) {
	return l.datasource.GetTransactions(ctx, versionID)
}

// QueueParseStatement enqueues a parse job instead of running it inline.
func (l *Ledgerline) QueueParseStatement(ctx context.Context, versionID string, force bool) error {
	if l.queue == nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Job queue is not configured", nil)
	}
	return l.queue.EnqueueParseJob(ctx, versionID, force)
}
