/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stage

import "github.com/HiruNya/gobu/internal/script"

// Vec is a pair of pixel values or fractions, depending on use.
type Vec struct {
	X, Y float64
}

// Grid divides the screen into cells so scripts can place entities without
// knowing the screen size.
type Grid struct {
	Cols, Rows   int
	CellW, CellH float64
}

// NewGrid splits a width x height screen into cols x rows cells. Non-positive
// counts are treated as one cell.
func NewGrid(cols, rows int, width, height float64) Grid {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return Grid{Cols: cols, Rows: rows, CellW: width / float64(cols), CellH: height / float64(rows)}
}

// Pixel converts a position in cells into pixels.
func (g Grid) Pixel(p script.Pos) Vec {
	return Vec{X: p.X * g.CellW, Y: p.Y * g.CellH}
}
