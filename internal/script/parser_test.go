/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseAnchorsAndDialogue(t *testing.T) {
	input := `"Alice" : "Hello"
"continued"

:second
SHOW 'alice' ~ 'happy' with 'fade'
END`

	a, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Names(); !reflect.DeepEqual(got, []string{"main", "second"}) {
		t.Fatalf("unexpected anchors: %v", got)
	}
	main, idx, ok := a.Get("main")
	if !ok || idx != 0 {
		t.Fatalf("main anchor missing or misplaced: ok=%v idx=%d", ok, idx)
	}
	want := []Step{Dialogue("Alice", "Hello"), DialogueContinue("continued")}
	if !reflect.DeepEqual(main, want) {
		t.Fatalf("main steps = %+v, want %+v", main, want)
	}
	second, _, _ := a.Get("second")
	want = []Step{Show("alice", "happy", "fade"), End()}
	if !reflect.DeepEqual(second, want) {
		t.Fatalf("second steps = %+v, want %+v", second, want)
	}
}

func TestParseEmptyInputYieldsMain(t *testing.T) {
	for _, in := range []string{"", "   \n\t\r\n"} {
		a, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", in, err)
		}
		if a.Len() != 1 {
			t.Fatalf("Parse(%q): expected 1 anchor, got %d", in, a.Len())
		}
		steps, _, ok := a.Get(DefaultAnchor)
		if !ok || len(steps) != 0 {
			t.Fatalf("Parse(%q): expected empty main anchor, got ok=%v steps=%v", in, ok, steps)
		}
	}
}

func TestParseHeaderFirstHasNoMain(t *testing.T) {
	a, err := Parse(":intro\n\"x\"\n:empty\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Names(); !reflect.DeepEqual(got, []string{"intro", "empty"}) {
		t.Fatalf("unexpected anchors: %v", got)
	}
	empty, _, ok := a.Get("empty")
	if !ok || len(empty) != 0 {
		t.Fatalf("expected empty anchor to exist with no steps, got ok=%v %v", ok, empty)
	}
}

func TestParseDuplicateAnchorKeepsPosition(t *testing.T) {
	a, err := Parse(":a\n\"1\"\n:b\n\"2\"\n:a\n\"3\"")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected anchors: %v", got)
	}
	steps, idx, _ := a.Get("a")
	if idx != 0 || len(steps) != 1 || steps[0].Text != "3" {
		t.Fatalf("expected later block to replace a at index 0, got idx=%d steps=%+v", idx, steps)
	}
}

func TestParseStagingInstructions(t *testing.T) {
	input := `STAGE 'park'
PLAY 'theme'
SPAWN 'bob'
SPAWN 'bob' with 'fade' as 'b2' at (3, 4)
MOVE 'b2' ( 1.5 , -2 )
HIDE 'b2' with 'out'
HIDE 'bob'
KILL 'b2'
KILL 'bob' with 'out'`

	a, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _, _ := a.Get("main")
	want := []Step{
		StageStep("park"),
		Play("theme"),
		Spawn("bob", "", nil, ""),
		Spawn("bob", "b2", &Pos{X: 3, Y: 4}, "fade"),
		Move("b2", 1.5, -2),
		Hide("b2", "out"),
		Hide("bob", ""),
		Kill("b2", ""),
		Kill("bob", "out"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("steps mismatch\n got: %+v\nwant: %+v", got, want)
	}
	if got[2].StageName() != "bob" || got[3].StageName() != "b2" {
		t.Fatalf("unexpected stage names %q, %q", got[2].StageName(), got[3].StageName())
	}
}

func TestParseNumbersAreTolerant(t *testing.T) {
	a, err := Parse("MOVE 'x' (abc, 2.5)\nSPAWN 'y' at (,)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	steps, _, _ := a.Get("main")
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].Pos != (Pos{X: 0, Y: 2.5}) {
		t.Fatalf("expected malformed x to read as 0, got %+v", steps[0].Pos)
	}
	if !steps[1].HasPos || steps[1].Pos != (Pos{}) {
		t.Fatalf("expected empty components to read as 0, got %+v", steps[1])
	}
}

func TestParseGoToForms(t *testing.T) {
	cases := []struct {
		in     string
		script string
		anchor string
	}{
		{"-> chapter2:start", "chapter2", "start"},
		{"-> :later", "", "later"},
		{"-> chapter2:", "chapter2", ""},
		{"->chapter2 :x", "chapter2", "x"},
		{"-> :", "", ""},
		{"-> s : a", "s", "a"},
		{"-> :\tlater", "", "later"},
	}
	for _, tc := range cases {
		a, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", tc.in, err)
		}
		steps, _, _ := a.Get("main")
		if len(steps) != 1 || steps[0].Kind != StepGoTo {
			t.Fatalf("Parse(%q): expected one goto, got %+v", tc.in, steps)
		}
		if steps[0].Script != tc.script || steps[0].Anchor != tc.anchor {
			t.Fatalf("Parse(%q): got %q:%q, want %q:%q", tc.in, steps[0].Script, steps[0].Anchor, tc.script, tc.anchor)
		}
	}
}

func TestParseGoToSpacedColonKeepsNextLine(t *testing.T) {
	a, err := Parse("-> other: \n\"b\"")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	steps, _, _ := a.Get("main")
	if len(steps) != 2 || steps[0] != GoTo("other", "") || steps[1].Kind != StepDialogueContinue {
		t.Fatalf("unexpected steps %+v", steps)
	}
}

func TestParseGoToBeforeHeader(t *testing.T) {
	a, err := Parse("\"a\"\n-> other:\n:next\n\"b\"")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Names(); !reflect.DeepEqual(got, []string{"main", "next"}) {
		t.Fatalf("unexpected anchors: %v", got)
	}
	steps, _, _ := a.Get("main")
	if steps[1] != GoTo("other", "") {
		t.Fatalf("unexpected goto: %+v", steps[1])
	}
}

func TestParseEscapes(t *testing.T) {
	a, err := Parse(`"Bob" : "He said \"hi\" \\ done \n"` + "\nSHOW 'it\\'s'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	steps, _, _ := a.Get("main")
	if steps[0].Text != `He said "hi" \ done \n` {
		t.Fatalf("unexpected unescaped text: %q", steps[0].Text)
	}
	if steps[1].Entity != "it's" {
		t.Fatalf("unexpected entity: %q", steps[1].Entity)
	}
}

func TestParseDialogueBeforeContinue(t *testing.T) {
	a, err := Parse(`"a" "b" "c" : "d"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	steps, _, _ := a.Get("main")
	want := []Step{DialogueContinue("a"), DialogueContinue("b"), Dialogue("c", "d")}
	if !reflect.DeepEqual(steps, want) {
		t.Fatalf("got %+v, want %+v", steps, want)
	}
}

func TestStepStringRoundTrip(t *testing.T) {
	steps := []Step{
		Dialogue("Alice", `say "x"`),
		DialogueContinue("more"),
		Show("alice", "sad", ""),
		Show("alice", "", "fade"),
		Hide("alice", "fade"),
		Spawn("bob", "b2", &Pos{X: 1, Y: 2.5}, "fade"),
		Kill("b2", ""),
		Move("bob", -1, 0.25),
		StageStep("park"),
		GoTo("ch2", "start"),
		Play("theme"),
		End(),
	}
	for _, st := range steps {
		a, err := Parse(st.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", st.String(), err)
		}
		got, _, _ := a.Get("main")
		if len(got) != 1 || got[0] != st {
			t.Fatalf("round trip of %q gave %+v", st.String(), got)
		}
	}
}

func TestParseErrorPointsAtFurthestFailure(t *testing.T) {
	_, err := Parse("SHOW alice")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T %v", err, err)
	}
	if pe.Line != 1 || pe.Column != 6 || pe.Offset != 5 {
		t.Fatalf("unexpected location: line %d col %d offset %d", pe.Line, pe.Column, pe.Offset)
	}
	if !reflect.DeepEqual(pe.Expected, []string{`"'"`}) {
		t.Fatalf("unexpected expected set: %v", pe.Expected)
	}
	if !reflect.DeepEqual(pe.Stack, []string{"anchor main", "show"}) {
		t.Fatalf("unexpected stack: %v", pe.Stack)
	}
	if pe.Found != "alice" {
		t.Fatalf("unexpected found: %q", pe.Found)
	}
	if !strings.Contains(pe.Error(), "line 1, column 6") {
		t.Fatalf("message lacks location: %s", pe.Error())
	}
}

func TestParseErrorOnLaterLine(t *testing.T) {
	_, err := Parse("\"ok\"\nMOVE 'x' 1, 2)")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line != 2 || pe.Column != 10 {
		t.Fatalf("unexpected location: line %d col %d", pe.Line, pe.Column)
	}
	if !reflect.DeepEqual(pe.Stack, []string{"anchor main", "move", "position"}) {
		t.Fatalf("unexpected stack: %v", pe.Stack)
	}
}

func TestParseErrorUnterminatedAndEmptyHeader(t *testing.T) {
	_, err := Parse("SHOW 'alice")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Offset != len("SHOW 'alice") || pe.Expected[0] != `closing "'"` {
		t.Fatalf("unexpected unterminated error: %+v", pe)
	}
	if !strings.HasSuffix(pe.Error(), "found end of input") {
		t.Fatalf("unexpected message: %s", pe.Error())
	}

	_, err = Parse(": intro\nEND")
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line != 1 || pe.Column != 2 || pe.Expected[0] != "anchor name" {
		t.Fatalf("unexpected empty header error: %+v", pe)
	}
}

func TestParseRejectsUnknownText(t *testing.T) {
	_, err := Parse("\"fine\"\nhello there")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line != 2 || pe.Column != 1 {
		t.Fatalf("unexpected location: line %d col %d", pe.Line, pe.Column)
	}
	found := map[string]bool{}
	for _, e := range pe.Expected {
		found[e] = true
	}
	for _, want := range []string{`"SHOW"`, `"END"`, `":"`, "end of input"} {
		if !found[want] {
			t.Fatalf("expected set %v lacks %s", pe.Expected, want)
		}
	}
}
