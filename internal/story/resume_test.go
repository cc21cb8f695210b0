/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import (
	"reflect"
	"testing"
)

const resumeSrc = `:intro
STAGE 'park'
SPAWN 'alice' as 'a'
"A" : "one"
"two"
END`

func TestResumeReplaysStageUpToCursor(t *testing.T) {
	e := New()
	load(e, "s", resumeSrc)
	e.SetScript("s", "intro")
	st := newFakeStage("park", "alice")
	e.Advance(st)
	e.Advance(st)
	saved := e.Snapshot()

	rec := &memRecorder{}
	r := New(WithBacklog(rec))
	load(r, "s", resumeSrc)
	st2 := newFakeStage("park", "alice")
	if !r.Resume(st2, saved) {
		t.Fatalf("resume failed for %+v", saved)
	}
	if r.Cursor() != saved.Cursor || r.State() != AwaitingInput {
		t.Fatalf("cursor=%d state=%s", r.Cursor(), r.State())
	}
	if !reflect.DeepEqual(st2.calls, st.calls) {
		t.Fatalf("stage calls differ:\n got %v\nwant %v", st2.calls, st.calls)
	}
	if len(rec.lines) != 0 {
		t.Fatalf("replay must not reach the backlog: %v", rec.lines)
	}
	if res := r.Advance(st2); res.Halt != HaltEnd {
		t.Fatalf("expected END after resuming, got %+v", res)
	}
}

func TestResumeFinishedAndUnknown(t *testing.T) {
	e := New()
	load(e, "s", resumeSrc)
	e.SetScript("s", "intro")
	st := newFakeStage("park", "alice")
	for e.Advance(st).Halt != HaltEnd {
	}
	r := New()
	load(r, "s", resumeSrc)
	if !r.Resume(newFakeStage("park", "alice"), e.Snapshot()) || r.State() != Finished {
		t.Fatalf("finished snapshot should resume finished, state=%s", r.State())
	}
	if r.Resume(newFakeStage(), Snapshot{Script: "gone"}) || r.State() != Idle {
		t.Fatalf("unknown script must not resume")
	}
}

func TestResumeReplaysEarlierAnchors(t *testing.T) {
	const src = `STAGE 'park'
SPAWN 'alice' as 'a'
"Alice" : "Hi"
:two
"Alice" : "More"`
	e := New()
	load(e, "s", src)
	e.SetScript("s", "")
	st := newFakeStage("park", "alice")
	e.Advance(st)
	e.Advance(st)
	saved := e.Snapshot()
	if saved.Anchor != "two" || len(saved.Trail) != 2 {
		t.Fatalf("expected a two segment trail ending in anchor two, got %+v", saved)
	}
	validateSnapshot(t, saved)

	r := New()
	load(r, "s", src)
	st2 := newFakeStage("park", "alice")
	if !r.Resume(st2, saved) {
		t.Fatalf("resume failed for %+v", saved)
	}
	if !reflect.DeepEqual(st2.calls, st.calls) {
		t.Fatalf("stage calls differ:\n got %v\nwant %v", st2.calls, st.calls)
	}
	if !st2.entities["a"] || r.State() != AwaitingInput {
		t.Fatalf("entities=%v state=%s", st2.entities, r.State())
	}
	if got := r.Snapshot(); !reflect.DeepEqual(got, saved) {
		t.Fatalf("snapshot after resume\n got %+v\nwant %+v", got, saved)
	}
}

func TestResumeFollowsGoToAcrossScripts(t *testing.T) {
	e := New()
	load(e, "s", ":start\nSTAGE 'park'\nSPAWN 'alice' as 'a'\n-> t:three\n\"never\"")
	load(e, "t", ":three\nSTAGE 'beach'\n\"Alice\" : \"Sand\"\nEND")
	e.SetScript("s", "start")
	st := newFakeStage("park", "beach", "alice")
	if r := e.Advance(st); r.Halt != HaltDialogue || st.text != "Sand" {
		t.Fatalf("unexpected advance %+v text=%q", r, st.text)
	}
	saved := e.Snapshot()

	r := New()
	load(r, "s", ":start\nSTAGE 'park'\nSPAWN 'alice' as 'a'\n-> t:three\n\"never\"")
	load(r, "t", ":three\nSTAGE 'beach'\n\"Alice\" : \"Sand\"\nEND")
	st2 := newFakeStage("park", "beach", "alice")
	if !r.Resume(st2, saved) {
		t.Fatalf("resume failed for %+v", saved)
	}
	if !reflect.DeepEqual(st2.calls, st.calls) {
		t.Fatalf("stage calls differ:\n got %v\nwant %v", st2.calls, st.calls)
	}
	if name, anchor := r.Location(); name != "t" || anchor != "three" {
		t.Fatalf("resumed at %s:%s", name, anchor)
	}
	if res := r.Advance(st2); res.Halt != HaltEnd {
		t.Fatalf("expected END after resuming, got %+v", res)
	}
}

func TestResumeAfterLastAnchorStaysFinished(t *testing.T) {
	const src = `"Alice" : "Hi"`
	e := New()
	load(e, "s", src)
	e.SetScript("s", "")
	st := newFakeStage()
	for e.Advance(st).Halt != HaltEnd {
	}
	saved := e.Snapshot()
	if saved.Anchor != "" || saved.State != Finished.String() || !saved.Trail[len(saved.Trail)-1].End {
		t.Fatalf("unexpected finished snapshot %+v", saved)
	}
	validateSnapshot(t, saved)

	r := New()
	load(r, "s", src)
	if !r.Resume(newFakeStage(), saved) || r.State() != Finished {
		t.Fatalf("finished snapshot should resume finished, state=%s", r.State())
	}

	// Saves written before trails were recorded carry only the position.
	legacy := saved
	legacy.Trail = nil
	r = New()
	load(r, "s", src)
	if !r.Resume(newFakeStage(), legacy) || r.State() != Finished || r.Position() != saved.Position {
		t.Fatalf("position-only snapshot should resume finished, state=%s pos=%+v", r.State(), r.Position())
	}
}

func TestResumeRejectsChangedScript(t *testing.T) {
	e := New()
	load(e, "s", "\"one\"\n\"two\"\n\"three\"")
	e.SetScript("s", "")
	st := newFakeStage()
	e.Advance(st)
	e.Advance(st)
	saved := e.Snapshot()

	r := New()
	load(r, "s", "\"one\"")
	if r.Resume(newFakeStage(), saved) {
		t.Fatalf("resume should fail when the anchor is shorter than the save")
	}
}
