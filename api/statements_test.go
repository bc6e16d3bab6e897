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

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline"
	"github.com/ledgerline/ledgerline/config"
	"github.com/ledgerline/ledgerline/internal/apierror"
	"github.com/ledgerline/ledgerline/model"
)

type TestRequest struct {
	Payload io.Reader
	Router  *gin.Engine
	Method  string
	Route   string
	Header  map[string]string
}

func SetUpTestRequest(s TestRequest) *httptest.ResponseRecorder {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)
	return resp
}

func setupRouter(mockDS *ledgerline.MockDataSource, store *ledgerline.MemoryStore) *gin.Engine {
	config.MockConfig(&config.Configuration{})
	l := ledgerline.NewLedgerlineWithDeps(mockDS, store, nil, ledgerline.NewTabularTextExtractor(), ledgerline.NewCSVWorkbook())
	return NewAPI(l).Router()
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(&ledgerline.MockDataSource{}, ledgerline.NewMemoryStore())

	resp := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/health"})
	assert.Equal(t, http.StatusOK, resp.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["workbook_active"])
	assert.Equal(t, "Workbook generation disabled by config", body["workbook_skip_reason"])
}

func TestParseStatementEndpointSuccess(t *testing.T) {
	store := ledgerline.NewMemoryStore()
	store.Objects["statements/vsn_1/doc.txt"] = []byte("01-Jun-2024|EMI PAYMENT NACH|5000||45000\n")

	mockDS := &ledgerline.MockDataSource{}
	mockDS.On("GetStatementVersion", mock.Anything, "vsn_1").Return(&model.StatementVersion{VersionID: "vsn_1", StatementID: "stmt_1"}, nil)
	mockDS.On("GetPDFFiles", mock.Anything, "vsn_1").Return([]*model.PDFFile{{ID: "pdf_1", StoragePath: "statements/vsn_1/doc.txt", OriginalName: "doc.txt"}}, nil)
	mockDS.On("MarkVersionParsing", mock.Anything, "vsn_1").Return(nil)
	mockDS.On("DeleteDerivedRows", mock.Anything, "vsn_1").Return(nil)
	mockDS.On("LoadFinanceTagConfig", mock.Anything).Return(model.DefaultFinanceTagConfig(), nil)
	mockDS.On("RecordRawLines", mock.Anything, mock.Anything).Return(nil)
	mockDS.On("RecordTransactions", mock.Anything, mock.Anything).Return(nil)
	mockDS.On("RecordMonthlyAggregates", mock.Anything, "vsn_1", mock.Anything).Return(nil)
	mockDS.On("RecordPivots", mock.Anything, "vsn_1", mock.Anything).Return(nil)
	mockDS.On("RecordLedgerRows", mock.Anything, mock.Anything).Return(nil)
	mockDS.On("MarkVersionReady", mock.Anything, mock.Anything).Return(nil)
	mockDS.On("RecordAuditEvent", mock.Anything, mock.Anything).Return(nil)

	router := setupRouter(mockDS, store)
	resp := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodPost, Route: "/jobs/parse_statement/vsn_1"})
	assert.Equal(t, http.StatusOK, resp.Code)

	var result model.ParseResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, model.StatusReady, result.Status)
	assert.Equal(t, 1, result.ParsedRowCount)
	require.NotNil(t, result.Risk)
}

func TestParseStatementEndpointGateFailure(t *testing.T) {
	store := ledgerline.NewMemoryStore()
	store.Objects["statements/vsn_1/doc.txt"] = []byte("01/06/2024|NO NUMBERS HERE|||\n")

	mockDS := &ledgerline.MockDataSource{}
	mockDS.On("GetStatementVersion", mock.Anything, "vsn_1").Return(&model.StatementVersion{VersionID: "vsn_1", StatementID: "stmt_1"}, nil)
	mockDS.On("GetPDFFiles", mock.Anything, "vsn_1").Return([]*model.PDFFile{{ID: "pdf_1", StoragePath: "statements/vsn_1/doc.txt", OriginalName: "doc.txt"}}, nil)
	mockDS.On("MarkVersionParsing", mock.Anything, "vsn_1").Return(nil)
	mockDS.On("DeleteDerivedRows", mock.Anything, "vsn_1").Return(nil)
	mockDS.On("MarkVersionFailed", mock.Anything, "vsn_1", mock.Anything).Return(nil)
	mockDS.On("RecordAuditEvent", mock.Anything, mock.Anything).Return(nil)

	router := setupRouter(mockDS, store)
	resp := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodPost, Route: "/jobs/parse_statement/vsn_1"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var result model.ParseResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, model.StatusParseFailed, result.Status)
	assert.Equal(t, []string{"ROW_COUNT_MISMATCH:raw=1,parsed=0"}, result.Reasons)
}

func TestParseStatementEndpointNotFound(t *testing.T) {
	mockDS := &ledgerline.MockDataSource{}
	mockDS.On("GetStatementVersion", mock.Anything, "vsn_missing").
		Return(nil, apierror.NewAPIError(apierror.ErrNotFound, "Statement version 'vsn_missing' not found", nil))

	router := setupRouter(mockDS, ledgerline.NewMemoryStore())
	resp := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodPost, Route: "/jobs/parse_statement/vsn_missing"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetStatementVersionEndpoint(t *testing.T) {
	mockDS := &ledgerline.MockDataSource{}
	mockDS.On("GetStatementVersion", mock.Anything, "vsn_1").
		Return(&model.StatementVersion{VersionID: "vsn_1", Status: model.StatusReady, ParsedRowCount: 12}, nil)

	router := setupRouter(mockDS, ledgerline.NewMemoryStore())
	resp := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/statement_versions/vsn_1"})
	assert.Equal(t, http.StatusOK, resp.Code)

	var version model.StatementVersion
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&version))
	assert.Equal(t, model.StatusReady, version.Status)
	assert.Equal(t, 12, version.ParsedRowCount)
}

func TestGetTransactionsEndpoint(t *testing.T) {
	mockDS := &ledgerline.MockDataSource{}
	mockDS.On("GetTransactions", mock.Anything, "vsn_1").
		Return([]*model.Transaction{{VersionID: "vsn_1", Narration: "EMI PAYMENT NACH"}}, nil)

	router := setupRouter(mockDS, ledgerline.NewMemoryStore())
	resp := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/statement_versions/vsn_1/transactions"})
	assert.Equal(t, http.StatusOK, resp.Code)

	var txns []*model.Transaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&txns))
	require.Len(t, txns, 1)
	assert.Equal(t, "EMI PAYMENT NACH", txns[0].Narration)
}
