/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import (
	"log/slog"

	"github.com/HiruNya/gobu/internal/script"
)

// Resume walks the snapshot's trail, replaying each visited anchor against st
// so the stage shows what it showed when the snapshot was taken. Replayed
// lines are not sent to the backlog. A snapshot without a trail is replayed
// from its own anchor. Resume reports false when the scripts no longer match
// the snapshot.
func (e *Engine) Resume(st Stage, s Snapshot) bool {
	trail := s.Trail
	if len(trail) == 0 {
		trail = []Segment{e.segmentOf(s)}
	}
	rec := e.recorder
	e.recorder = nil
	defer func() { e.recorder = rec }()

	e.trail = nil
	for i, seg := range trail {
		final := i == len(trail)-1
		if !e.enter(seg) || !e.replay(st, seg.Steps, final, s.State == Finished.String()) {
			e.logger.Warn("resume stopped early",
				slog.String("script", seg.Script),
				slog.String("anchor", seg.Anchor),
				slog.Int("cursor", e.cursor))
			return false
		}
		if !final {
			e.trail = append(e.trail, seg)
		}
	}
	return true
}

// segmentOf derives the single segment of a snapshot saved without a trail.
func (e *Engine) segmentOf(s Snapshot) Segment {
	seg := Segment{Script: s.Script, Anchor: s.Anchor, Steps: s.Cursor}
	if anchors, _, ok := e.scripts.Get(s.Script); ok && s.Anchor == "" && s.Position.Anchor >= anchors.Len() {
		seg.End = true
	}
	return seg
}

// enter positions the engine at the start of seg without touching the trail.
func (e *Engine) enter(seg Segment) bool {
	if !seg.End {
		e.selectAnchor(seg.Script, seg.Anchor)
		return e.state != Idle
	}
	anchors, si, ok := e.scripts.Get(seg.Script)
	if !ok {
		return false
	}
	e.pos = Position{Script: si, Anchor: anchors.Len()}
	e.current = endOnly
	e.cursor = 0
	e.pastEnd = true
	e.state = Running
	return true
}

// replay executes the first n steps of the current anchor. Only the final
// segment may stop on a blocking step or a finishing End; earlier segments
// end with the GoTo that left them or by running out of steps.
func (e *Engine) replay(st Stage, n int, final, finished bool) bool {
	if n > len(e.current) {
		return false
	}
	var last script.Step
	for e.cursor < n {
		last = e.current[e.cursor]
		e.cursor++
		switch last.Kind {
		case script.StepGoTo:
			if final || e.cursor != n {
				return false
			}
		case script.StepEnd:
			if !final || !finished || e.cursor != n {
				return false
			}
			e.state = Finished
			return true
		default:
			e.execute(st, last)
		}
	}
	if !final {
		return n == len(e.current) || last.Kind == script.StepGoTo
	}
	if n > 0 && last.Kind.Blocking() {
		e.state = AwaitingInput
	}
	return true
}
