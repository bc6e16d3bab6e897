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

import "github.com/ledgerline/ledgerline/model"

// MergeLines groups one document's ordered raw lines into logical
// transactions. A TRANSACTION line carrying a date flushes any in-progress
// candidate and opens a new one; undated lines are continuations appended to
// the open candidate's narration with a single space. Lines before the first
// dated line belong to no transaction and are dropped. A document with zero
// dated lines yields an empty sequence, which is valid.
func MergeLines(lines []*model.RawLine) []*model.MergedCandidate {
	var (
		candidates []*model.MergedCandidate
		current    *model.MergedCandidate
	)

	for idx, line := range lines {
		if line.LineKind == model.LineKindTransaction && line.DateText != "" {
			if current != nil {
				candidates = append(candidates, current)
			}
			current = &model.MergedCandidate{
				RawIndices:  []int{idx},
				DateText:    line.DateText,
				Narration:   lineNarration(line),
				DebitText:   line.DebitText,
				CreditText:  line.CreditText,
				BalanceText: line.BalanceText,
			}
			continue
		}

		if current == nil {
			continue
		}
		current.RawIndices = append(current.RawIndices, idx)
		if text := lineNarration(line); text != "" {
			if current.Narration != "" {
				current.Narration += " "
			}
			current.Narration += text
		}
	}

	if current != nil {
		candidates = append(candidates, current)
	}
	return candidates
}

func lineNarration(line *model.RawLine) string {
	if line.NarrationText != "" {
		return line.NarrationText
	}
	return line.RawText
}
