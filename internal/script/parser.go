/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// Parse reads a script and returns its anchors in document order.
//
// Grammar (whitespace between tokens is skipped):
//
//	script      := (':' name)? instruction* (':' name instruction*)*
//	instruction := dialogue | continue | show | hide | spawn | kill
//	             | move | stage | goto | play | end
//	dialogue    := "speaker" ':' "text"
//	continue    := "text"
//	show        := SHOW 'entity' ('~' 'state')? ('with' 'transition')?
//	hide        := HIDE 'entity' ('with' 'transition')?
//	spawn       := SPAWN 'character' (at pos | as 'name' | with 'transition')*
//	kill        := KILL 'entity' ('with' 'transition')?
//	move        := MOVE 'entity' pos
//	stage       := STAGE 'background'
//	goto        := '->' script? ':' anchor?
//	play        := PLAY 'music'
//	end         := END
//	pos         := '(' number ',' number ')'
//
// Alternatives are tried in the order listed and the first match wins.
// Instructions written before the first header belong to the "main" anchor.
// A later anchor with the name of an earlier one replaces its instructions.
func Parse(input string) (*Anchors, error) {
	c := newCursor(input)
	out := NewAnchors()

	name := DefaultAnchor
	explicit := false
	for {
		c.push("anchor " + name)
		steps := c.instructions()
		c.pop()

		c.skipSpace()
		atEnd := c.eof()
		if explicit || len(steps) > 0 || (atEnd && out.Len() == 0) {
			out.Set(name, steps)
		}
		if atEnd {
			return out, nil
		}

		c.push("anchor header")
		header, ok := c.anchorHeader()
		c.pop()
		if !ok {
			return nil, c.err()
		}
		name, explicit = header, true
	}
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(input string) *Anchors {
	a, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return a
}

func (c *cursor) anchorHeader() (string, bool) {
	if !c.exact(":") {
		c.fail("end of input")
		return "", false
	}
	name := c.takeWhile(func(b byte) bool { return !isSpace(b) })
	if name == "" {
		c.fail("anchor name")
		return "", false
	}
	return name, true
}

func (c *cursor) instructions() []Step {
	steps := []Step{}
	for {
		st, ok := c.instruction()
		if !ok {
			return steps
		}
		steps = append(steps, st)
	}
}

type production struct {
	name  string
	parse func(*cursor) (Step, bool)
}

// productions lists the instruction alternatives in priority order. A dialogue
// line must be tried before a bare continue since both start with a quote.
var productions = []production{
	{"dialogue", parseDialogue},
	{"continue", parseContinue},
	{"show", parseShow},
	{"hide", parseHide},
	{"spawn", parseSpawn},
	{"kill", parseKill},
	{"move", parseMove},
	{"stage", parseStage},
	{"goto", parseGoTo},
	{"play", parsePlay},
	{"end", parseEnd},
}

func (c *cursor) instruction() (Step, bool) {
	for _, p := range productions {
		mark := c.pos
		c.push(p.name)
		st, ok := p.parse(c)
		c.pop()
		if ok {
			return st, true
		}
		c.pos = mark
	}
	return Step{}, false
}

func parseDialogue(c *cursor) (Step, bool) {
	speaker, ok := c.quoted('"')
	if !ok || !c.literal(":") {
		return Step{}, false
	}
	text, ok := c.quoted('"')
	if !ok {
		return Step{}, false
	}
	return Dialogue(speaker, text), true
}

func parseContinue(c *cursor) (Step, bool) {
	text, ok := c.quoted('"')
	if !ok {
		return Step{}, false
	}
	return DialogueContinue(text), true
}

func parseShow(c *cursor) (Step, bool) {
	if !c.literal("SHOW") {
		return Step{}, false
	}
	entity, ok := c.quoted('\'')
	if !ok {
		return Step{}, false
	}
	st := Show(entity, "", "")
	c.attempt(func() bool {
		if !c.literal("~") {
			return false
		}
		var ok bool
		st.State, ok = c.quoted('\'')
		return ok
	})
	st.Transition = c.optionalTransition()
	return st, true
}

func parseHide(c *cursor) (Step, bool) {
	if !c.literal("HIDE") {
		return Step{}, false
	}
	entity, ok := c.quoted('\'')
	if !ok {
		return Step{}, false
	}
	return Hide(entity, c.optionalTransition()), true
}

func parseSpawn(c *cursor) (Step, bool) {
	if !c.literal("SPAWN") {
		return Step{}, false
	}
	character, ok := c.quoted('\'')
	if !ok {
		return Step{}, false
	}
	st := Spawn(character, "", nil, "")
	for {
		matched := c.attempt(func() bool {
			if !c.literal("at") {
				return false
			}
			p, ok := c.pos2()
			if ok {
				st.Pos, st.HasPos = p, true
			}
			return ok
		}) || c.attempt(func() bool {
			if !c.literal("as") {
				return false
			}
			name, ok := c.quoted('\'')
			if ok {
				st.Entity = name
			}
			return ok
		}) || c.attempt(func() bool {
			if !c.literal("with") {
				return false
			}
			name, ok := c.quoted('\'')
			if ok {
				st.Transition = name
			}
			return ok
		})
		if !matched {
			return st, true
		}
	}
}

func parseKill(c *cursor) (Step, bool) {
	if !c.literal("KILL") {
		return Step{}, false
	}
	entity, ok := c.quoted('\'')
	if !ok {
		return Step{}, false
	}
	return Kill(entity, c.optionalTransition()), true
}

func parseMove(c *cursor) (Step, bool) {
	if !c.literal("MOVE") {
		return Step{}, false
	}
	entity, ok := c.quoted('\'')
	if !ok {
		return Step{}, false
	}
	p, ok := c.pos2()
	if !ok {
		return Step{}, false
	}
	return Move(entity, p.X, p.Y), true
}

func parseStage(c *cursor) (Step, bool) {
	if !c.literal("STAGE") {
		return Step{}, false
	}
	bg, ok := c.quoted('\'')
	if !ok {
		return Step{}, false
	}
	return StageStep(bg), true
}

func parseGoTo(c *cursor) (Step, bool) {
	if !c.literal("->") {
		return Step{}, false
	}
	c.skipSpace()
	scriptName := c.takeWhile(func(b byte) bool { return b != ':' && !isSpace(b) })
	c.skipBlank()
	if !c.exact(":") {
		return Step{}, false
	}
	c.skipBlank()
	anchor := c.takeWhile(func(b byte) bool { return !isSpace(b) })
	return GoTo(scriptName, anchor), true
}

func parsePlay(c *cursor) (Step, bool) {
	if !c.literal("PLAY") {
		return Step{}, false
	}
	key, ok := c.quoted('\'')
	if !ok {
		return Step{}, false
	}
	return Play(key), true
}

func parseEnd(c *cursor) (Step, bool) {
	if !c.literal("END") {
		return Step{}, false
	}
	return End(), true
}

// optionalTransition matches "with 'name'" and returns "" when absent.
func (c *cursor) optionalTransition() string {
	var name string
	c.attempt(func() bool {
		if !c.literal("with") {
			return false
		}
		var ok bool
		name, ok = c.quoted('\'')
		return ok
	})
	return name
}

// pos2 matches a coordinate pair. Components that are not valid numbers read as 0.
func (c *cursor) pos2() (Pos, bool) {
	c.push("position")
	defer c.pop()
	if !c.literal("(") {
		return Pos{}, false
	}
	x, ok := c.number(",)")
	if !ok || !c.exact(",") {
		return Pos{}, false
	}
	y, ok := c.number(")")
	if !ok || !c.exact(")") {
		return Pos{}, false
	}
	return Pos{X: x, Y: y}, true
}
