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

	"github.com/stretchr/testify/mock"

	"github.com/ledgerline/ledgerline/model"
)

// MockDataSource is a mock implementation of database.IDataSource for tests.
type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) GetStatementVersion(ctx context.Context, versionID string) (*model.StatementVersion, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StatementVersion), args.Error(1)
}

func (m *MockDataSource) MarkVersionParsing(ctx context.Context, versionID string) error {
	args := m.Called(ctx, versionID)
	return args.Error(0)
}

func (m *MockDataSource) MarkVersionReady(ctx context.Context, version *model.StatementVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockDataSource) MarkVersionFailed(ctx context.Context, versionID string, reason string) error {
	args := m.Called(ctx, versionID, reason)
	return args.Error(0)
}

func (m *MockDataSource) GetPDFFiles(ctx context.Context, versionID string) ([]*model.PDFFile, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PDFFile), args.Error(1)
}

func (m *MockDataSource) DeleteDerivedRows(ctx context.Context, versionID string) error {
	args := m.Called(ctx, versionID)
	return args.Error(0)
}

func (m *MockDataSource) RecordRawLines(ctx context.Context, lines []*model.RawLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockDataSource) RecordTransactions(ctx context.Context, txns []*model.Transaction) error {
	args := m.Called(ctx, txns)
	return args.Error(0)
}

func (m *MockDataSource) GetTransactions(ctx context.Context, versionID string) ([]*model.Transaction, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockDataSource) RecordMonthlyAggregates(ctx context.Context, versionID string, aggs []*model.MonthlyAggregate) error {
	args := m.Called(ctx, versionID, aggs)
	return args.Error(0)
}

func (m *MockDataSource) RecordPivots(ctx context.Context, versionID string, pivots []*model.PivotBucket) error {
	args := m.Called(ctx, versionID, pivots)
	return args.Error(0)
}

func (m *MockDataSource) RecordLedgerRows(ctx context.Context, rows []*model.LedgerRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockDataSource) LoadFinanceTagConfig(ctx context.Context) (*model.FinanceTagConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FinanceTagConfig), args.Error(1)
}

func (m *MockDataSource) RecordAuditEvent(ctx context.Context, event *model.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MemoryStore is an in-memory object store fake used by pipeline tests.
type MemoryStore struct {
	Objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, path string) ([]byte, error) {
	data, ok := s.Objects[path]
	if !ok {
		return nil, errMissingObject(path)
	}
	return data, nil
}

func (s *MemoryStore) Put(_ context.Context, path string, data []byte, _ string) error {
	s.Objects[path] = data
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, path string) error {
	delete(s.Objects, path)
	return nil
}

type errMissingObject string

func (e errMissingObject) Error() string {
	return "object not found: " + string(e)
}
