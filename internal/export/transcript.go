/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders scripts as readable transcripts for proofreading.
package export

import (
	"fmt"

	"github.com/HiruNya/gobu/internal/script"
)

// LineKind classifies a transcript line.
type LineKind int

const (
	LineHeading LineKind = iota + 1
	LineDialogue
	LineContinue
	LineDirection
)

// Line is one rendered line of a transcript.
type Line struct {
	Kind    LineKind
	Speaker string
	Text    string
}

// Transcript flattens a script into headings, dialogue and stage directions in
// anchor order. Continue lines carry the speaker of the dialogue before them.
func Transcript(table *script.Table, name string, directions bool) ([]Line, error) {
	anchors, _, ok := table.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown script %q", name)
	}
	var out []Line
	for i := 0; i < anchors.Len(); i++ {
		anchor, steps, _ := anchors.At(i)
		out = append(out, Line{Kind: LineHeading, Text: anchor})
		speaker := ""
		for _, st := range steps {
			switch st.Kind {
			case script.StepDialogue:
				speaker = st.Speaker
				out = append(out, Line{Kind: LineDialogue, Speaker: st.Speaker, Text: st.Text})
			case script.StepDialogueContinue:
				out = append(out, Line{Kind: LineContinue, Speaker: speaker, Text: st.Text})
			default:
				if directions {
					out = append(out, Line{Kind: LineDirection, Text: st.String()})
				}
			}
		}
	}
	return out, nil
}
