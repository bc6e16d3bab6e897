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

// Package pdfcheck screens source documents before extraction. A corrupt or
// truncated PDF should fail the job up front with a clear input error, not
// surface later as an inexplicable reconciliation mismatch.
package pdfcheck

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pkg/errors"
)

// IsPDF reports whether the payload carries the PDF magic header.
// Plain-text statement exports skip validation and page counting.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// Screen validates the document and returns its page count.
func Screen(data []byte) (int, error) {
	rs := bytes.NewReader(data)
	if err := api.Validate(rs, nil); err != nil {
		return 0, errors.Wrap(err, "pdf validation failed")
	}

	if _, err := rs.Seek(0, 0); err != nil {
		return 0, err
	}
	pages, err := api.PageCount(rs, nil)
	if err != nil {
		return 0, errors.Wrap(err, "pdf page count failed")
	}
	if pages == 0 {
		return 0, errors.New("pdf has no pages")
	}
	return pages, nil
}
