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
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUIDWithSuffix generates a UUID prefixed with a module name,
// e.g. "txn_6f1e...", so identifiers are self-describing in logs and tables.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// HashUID computes a content-addressed identity over the given parts.
// Parts are stringified and joined with "|" before hashing, so the same
// logical inputs always produce the same identity across runs.
func HashUID(parts ...interface{}) string {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprint(p)
	}
	sum := sha1.Sum([]byte(strings.Join(strs, "|")))
	return hex.EncodeToString(sum[:])
}

// MonthKey returns the canonical month bucket for a date, e.g. "2024-06".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthLabel returns the workbook month label, e.g. "JUN-24".
func MonthLabel(t time.Time) string {
	return strings.ToUpper(t.Format("Jan-06"))
}

// DateLabel returns the workbook date label, e.g. "01-JUN-2024".
func DateLabel(t time.Time) string {
	return strings.ToUpper(t.Format("02-Jan-2006"))
}
