/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import "encoding/json"

// Snapshot is a view of the engine position for save games, tooling and
// crash reports. Resume restores an engine from one.
// Its JSON form is described by docs/snapshot.schema.json.
type Snapshot struct {
	Script   string   `json:"script"`
	Anchor   string   `json:"anchor"`
	Position Position `json:"position"`
	Cursor   int      `json:"cursor"`
	Length   int      `json:"length"`
	State    string   `json:"state"`
	Next     string   `json:"next,omitempty"`
	Misses   int      `json:"misses"`
	// Trail lists every anchor visited since the last SetScript, ending with
	// the current one.
	Trail []Segment `json:"trail,omitempty"`
}

// Segment is one visited anchor and the number of its steps that ran. End
// marks the End that follows a script's last anchor.
type Segment struct {
	Script string `json:"script"`
	Anchor string `json:"anchor"`
	Steps  int    `json:"steps"`
	End    bool   `json:"end,omitempty"`
}

// Snapshot captures the current position.
func (e *Engine) Snapshot() Snapshot {
	name, anchor := e.Location()
	s := Snapshot{
		Script:   name,
		Anchor:   anchor,
		Position: e.pos,
		Cursor:   e.cursor,
		Length:   len(e.current),
		State:    e.state.String(),
		Misses:   len(e.misses),
	}
	if e.current != nil {
		s.Trail = append(append([]Segment(nil), e.trail...), e.segment())
	}
	if e.cursor < len(e.current) {
		s.Next = e.current[e.cursor].String()
	}
	return s
}

// MarshalIndent renders the snapshot as indented JSON.
func (s Snapshot) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// String renders the snapshot on one line, e.g. for crash reports.
func (s Snapshot) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		return s.Script + ":" + s.Anchor
	}
	return string(b)
}
