/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strconv"
	"strings"
)

// cursor is the matching state shared by all productions. Productions that fail
// may leave pos anywhere; callers that backtrack restore it with attempt.
//
// The cursor also remembers the furthest position at which any token failed to
// match, together with the production stack at that moment. That position is
// what a parse error reports, which is the usual PEG heuristic for pointing at
// the real mistake instead of the outermost alternative.
type cursor struct {
	src   string
	pos   int
	stack []string

	failPos   int
	failStack []string
	expected  []string
}

func newCursor(src string) *cursor {
	return &cursor{src: src, failPos: -1}
}

func (c *cursor) eof() bool { return c.pos >= len(c.src) }

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.pos]
}

func (c *cursor) push(production string) { c.stack = append(c.stack, production) }

func (c *cursor) pop() { c.stack = c.stack[:len(c.stack)-1] }

// fail records that the token described by what was expected at the current position.
func (c *cursor) fail(what string) {
	switch {
	case c.pos > c.failPos:
		c.failPos = c.pos
		c.failStack = append(c.failStack[:0], c.stack...)
		c.expected = append(c.expected[:0], what)
	case c.pos == c.failPos:
		for _, e := range c.expected {
			if e == what {
				return
			}
		}
		c.expected = append(c.expected, what)
	}
}

// attempt runs fn and rewinds the cursor when fn does not match.
func (c *cursor) attempt(fn func() bool) bool {
	mark := c.pos
	if fn() {
		return true
	}
	c.pos = mark
	return false
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }

func isBlank(b byte) bool { return b == ' ' || b == '\t' }

func (c *cursor) skipSpace() {
	for !c.eof() && isSpace(c.src[c.pos]) {
		c.pos++
	}
}

func (c *cursor) skipBlank() {
	for !c.eof() && isBlank(c.src[c.pos]) {
		c.pos++
	}
}

// exact matches tok at the current position without skipping whitespace.
func (c *cursor) exact(tok string) bool {
	if strings.HasPrefix(c.src[c.pos:], tok) {
		c.pos += len(tok)
		return true
	}
	c.fail(strconv.Quote(tok))
	return false
}

// literal skips whitespace and matches tok.
func (c *cursor) literal(tok string) bool {
	c.skipSpace()
	return c.exact(tok)
}

// takeWhile consumes bytes while keep holds and returns them.
func (c *cursor) takeWhile(keep func(byte) bool) string {
	start := c.pos
	for !c.eof() && keep(c.src[c.pos]) {
		c.pos++
	}
	return c.src[start:c.pos]
}

// quoted skips whitespace and reads a string delimited by delim. A backslash
// escapes the delimiter and itself; any other backslash is kept as written.
func (c *cursor) quoted(delim byte) (string, bool) {
	c.skipSpace()
	if c.peek() != delim {
		c.fail(strconv.Quote(string(delim)))
		return "", false
	}
	c.pos++
	var b strings.Builder
	for i := c.pos; i < len(c.src); i++ {
		ch := c.src[i]
		if ch == '\\' && i+1 < len(c.src) && (c.src[i+1] == delim || c.src[i+1] == '\\') {
			b.WriteByte(c.src[i+1])
			i++
			continue
		}
		if ch == delim {
			c.pos = i + 1
			return b.String(), true
		}
		b.WriteByte(ch)
	}
	c.pos = len(c.src)
	c.fail("closing " + strconv.Quote(string(delim)))
	return "", false
}

// number reads raw text up to one of the stop bytes and converts it leniently:
// text that is not a valid float yields 0. It fails only when a newline or the
// end of input comes before any stop byte.
func (c *cursor) number(stops string) (float64, bool) {
	start := c.pos
	for !c.eof() {
		ch := c.src[c.pos]
		if strings.IndexByte(stops, ch) >= 0 {
			return lenientFloat(c.src[start:c.pos]), true
		}
		if ch == '\n' {
			break
		}
		c.pos++
	}
	c.fail(strconv.Quote(stops[:1]))
	return 0, false
}

func lenientFloat(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return v
}

// lineCol converts a byte offset into a 1-based line and rune column.
func lineCol(src string, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	return line, len([]rune(before)) + 1
}
