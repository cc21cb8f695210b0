/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"strings"
)

// ParseError describes where a script stopped matching the grammar. Offset is a
// byte offset; Line and Column are 1-based, Column counts runes.
type ParseError struct {
	Offset   int
	Line     int
	Column   int
	Stack    []string // productions active at the failure, outermost first
	Expected []string // tokens that would have matched, quoted
	Found    string   // input text at the failure, up to the end of the line
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse error at line %d, column %d", e.Line, e.Column)
	if len(e.Stack) > 0 {
		fmt.Fprintf(&b, " in %s", strings.Join(e.Stack, " > "))
	}
	switch len(e.Expected) {
	case 0:
	case 1:
		fmt.Fprintf(&b, ": expected %s", e.Expected[0])
	default:
		fmt.Fprintf(&b, ": expected one of %s", strings.Join(e.Expected, ", "))
	}
	if e.Found == "" {
		b.WriteString(", found end of input")
	} else {
		fmt.Fprintf(&b, ", found %q", e.Found)
	}
	return b.String()
}

const maxFound = 24

// err builds a ParseError from the furthest recorded failure.
func (c *cursor) err() *ParseError {
	off := c.failPos
	if off < 0 {
		off = c.pos
	}
	line, col := lineCol(c.src, off)
	found := c.src[min(off, len(c.src)):]
	if i := strings.IndexByte(found, '\n'); i >= 0 {
		found = found[:i]
	}
	found = strings.TrimRight(found, "\r")
	if r := []rune(found); len(r) > maxFound {
		found = string(r[:maxFound]) + "..."
	}
	return &ParseError{
		Offset:   off,
		Line:     line,
		Column:   col,
		Stack:    append([]string(nil), c.failStack...),
		Expected: append([]string(nil), c.expected...),
		Found:    found,
	}
}
