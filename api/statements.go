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
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	model2 "github.com/ledgerline/ledgerline/api/model"
	"github.com/ledgerline/ledgerline/config"
	"github.com/ledgerline/ledgerline/internal/apierror"
	"github.com/ledgerline/ledgerline/model"
)

// ParseStatement runs the parse pipeline for a statement version, or enqueues
// it when async=true. A READY result returns 200, a PARSE_FAILED result
// returns 422 with the structured gate reasons; unexpected errors map through
// the API error codes.
func (a Api) ParseStatement(c *gin.Context) {
	versionID, passed := c.Params.Get("version_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version_id is required. pass version_id in the route /:version_id"})
		return
	}

	req := model2.ParseStatementRequest{
		VersionID: versionID,
		Force:     c.Query("force") == "true",
		Async:     c.Query("async") == "true",
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if req.Async {
		if err := a.ledgerline.QueueParseStatement(c.Request.Context(), req.VersionID, req.Force); err != nil {
			logrus.Error(err)
			c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"version_id": req.VersionID, "queued": true})
		return
	}

	resp, err := a.ledgerline.ParseStatement(c.Request.Context(), req.VersionID, req.Force)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if resp.Status == model.StatusParseFailed {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetStatementVersion retrieves a statement version with its parse status,
// counts and workbook path.
func (a Api) GetStatementVersion(c *gin.Context) {
	versionID, passed := c.Params.Get("version_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version_id is required. pass version_id in the route /:version_id"})
		return
	}

	resp, err := a.ledgerline.GetStatementVersion(c.Request.Context(), versionID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetTransactions retrieves the finalized transactions of a READY statement
// version.
func (a Api) GetTransactions(c *gin.Context) {
	versionID, passed := c.Params.Get("version_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version_id is required. pass version_id in the route /:version_id"})
		return
	}

	resp, err := a.ledgerline.GetTransactions(c.Request.Context(), versionID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health reports whether workbook rendering is active and which bucket the
// service reads statements from.
func (a Api) Health(c *gin.Context) {
	conf, err := config.Fetch()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	workbookActive, skipReason := conf.WorkbookActive()
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"bucket":               conf.Storage.Bucket,
		"workbook_active":      workbookActive,
		"workbook_skip_reason": skipReason,
	})
}
