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

package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ParseStatementRequest carries the route and query parameters of a parse
// request. Force re-runs an already READY version; Async enqueues the job
// instead of running it inline.
type ParseStatementRequest struct {
	VersionID string `json:"version_id"`
	Force     bool   `json:"force"`
	Async     bool   `json:"async"`
}

func (p ParseStatementRequest) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.VersionID, validation.Required, validation.Length(1, 64)),
	)
}
