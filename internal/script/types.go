/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "fmt"

// DefaultAnchor names the implicit anchor that holds every instruction written
// before the first ":name" header.
const DefaultAnchor = "main"

// StepKind indicates which verb of the language a Step carries.
// Dialogue:         "Speaker" : "text"
// DialogueContinue: "text"
// Show/Hide/Spawn/Kill/Move: entity staging
// Stage:            background swap
// GoTo:             -> script:anchor
// Play:             background music
// End:              end of the story

type StepKind int

const (
	StepDialogue StepKind = iota
	StepDialogueContinue
	StepShow
	StepHide
	StepSpawn
	StepKill
	StepMove
	StepStage
	StepGoTo
	StepPlay
	StepEnd
)

var stepKindNames = [...]string{
	StepDialogue:         "dialogue",
	StepDialogueContinue: "continue",
	StepShow:             "show",
	StepHide:             "hide",
	StepSpawn:            "spawn",
	StepKill:             "kill",
	StepMove:             "move",
	StepStage:            "stage",
	StepGoTo:             "goto",
	StepPlay:             "play",
	StepEnd:              "end",
}

func (k StepKind) String() string {
	if k >= 0 && int(k) < len(stepKindNames) {
		return stepKindNames[k]
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// Blocking reports whether a step of this kind halts auto-advance.
func (k StepKind) Blocking() bool {
	return k == StepDialogue || k == StepDialogueContinue || k == StepEnd
}

// Pos is a position in grid cells.
type Pos struct {
	X, Y float64
}

// Step is one parsed instruction. Only the fields relevant to Kind are set;
// an empty string means the optional value was not written.
//
// Field use per kind:
//   - Dialogue: Speaker, Text
//   - DialogueContinue: Text
//   - Show: Entity, State, Transition
//   - Hide, Kill: Entity, Transition
//   - Spawn: Character, Entity (stage name), Pos/HasPos, Transition
//   - Move: Entity, Pos (HasPos is always true)
//   - Stage, Play: Key
//   - GoTo: Script, Anchor
//
// Steps are values and are never mutated after parsing.
type Step struct {
	Kind       StepKind
	Speaker    string
	Text       string
	Entity     string
	Character  string
	State      string
	Transition string
	Key        string
	Script     string
	Anchor     string
	Pos        Pos
	HasPos     bool
}

// StageName returns the name a Spawn step places its entity under.
func (s Step) StageName() string {
	if s.Entity != "" {
		return s.Entity
	}
	return s.Character
}

func (s Step) String() string {
	switch s.Kind {
	case StepDialogue:
		return fmt.Sprintf("%q : %q", s.Speaker, s.Text)
	case StepDialogueContinue:
		return fmt.Sprintf("%q", s.Text)
	case StepShow:
		out := "SHOW '" + s.Entity + "'"
		if s.State != "" {
			out += " ~ '" + s.State + "'"
		}
		return withTransition(out, s.Transition)
	case StepHide:
		return withTransition("HIDE '"+s.Entity+"'", s.Transition)
	case StepSpawn:
		out := "SPAWN '" + s.Character + "'"
		if s.Entity != "" {
			out += " as '" + s.Entity + "'"
		}
		if s.HasPos {
			out += fmt.Sprintf(" at (%g, %g)", s.Pos.X, s.Pos.Y)
		}
		return withTransition(out, s.Transition)
	case StepKill:
		return withTransition("KILL '"+s.Entity+"'", s.Transition)
	case StepMove:
		return fmt.Sprintf("MOVE '%s' (%g, %g)", s.Entity, s.Pos.X, s.Pos.Y)
	case StepStage:
		return "STAGE '" + s.Key + "'"
	case StepGoTo:
		return "-> " + s.Script + ":" + s.Anchor
	case StepPlay:
		return "PLAY '" + s.Key + "'"
	case StepEnd:
		return "END"
	}
	return s.Kind.String()
}

func withTransition(s, transition string) string {
	if transition == "" {
		return s
	}
	return s + " with '" + transition + "'"
}

// Convenience constructors, mostly used by tests and tooling.

func Dialogue(speaker, text string) Step {
	return Step{Kind: StepDialogue, Speaker: speaker, Text: text}
}

func DialogueContinue(text string) Step { return Step{Kind: StepDialogueContinue, Text: text} }

func Show(entity, state, transition string) Step {
	return Step{Kind: StepShow, Entity: entity, State: state, Transition: transition}
}

func Hide(entity, transition string) Step {
	return Step{Kind: StepHide, Entity: entity, Transition: transition}
}

func Spawn(character, entity string, pos *Pos, transition string) Step {
	s := Step{Kind: StepSpawn, Character: character, Entity: entity, Transition: transition}
	if pos != nil {
		s.Pos, s.HasPos = *pos, true
	}
	return s
}

func Kill(entity, transition string) Step {
	return Step{Kind: StepKill, Entity: entity, Transition: transition}
}

func Move(entity string, x, y float64) Step {
	return Step{Kind: StepMove, Entity: entity, Pos: Pos{X: x, Y: y}, HasPos: true}
}

func StageStep(background string) Step { return Step{Kind: StepStage, Key: background} }

func GoTo(scriptName, anchor string) Step {
	return Step{Kind: StepGoTo, Script: scriptName, Anchor: anchor}
}

func Play(music string) Step { return Step{Kind: StepPlay, Key: music} }

func End() Step { return Step{Kind: StepEnd} }
