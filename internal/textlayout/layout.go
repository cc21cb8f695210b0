/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout breaks dialogue into lines that fit a text box.
// Measurement goes through a Provider so tests can use a fixed-width face.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// LineHeight is the distance between two baselines.
func (m Metrics) LineHeight() float32 { return m.Ascent + m.Descent + m.LineGap }

// Provider supplies the face text is measured with.
type Provider interface {
	Face() (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13: every glyph is 7px wide.
type BasicProvider struct{}

func (BasicProvider) Face() (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

// Box is text laid out into lines.
type Box struct {
	Lines  []string
	Width  float32 // widest line
	Height float32
}

// Wrapper breaks text greedily on spaces. Explicit newlines always break.
// A word wider than the box gets a line of its own and overflows.
type Wrapper struct {
	Provider Provider
}

func NewWrapper(p Provider) *Wrapper {
	if p == nil {
		p = BasicProvider{}
	}
	return &Wrapper{Provider: p}
}

// Wrap lays text out into lines no wider than maxWidth pixels. A maxWidth of
// zero or less disables wrapping.
func (w *Wrapper) Wrap(text string, maxWidth float32) Box {
	var box Box
	if text == "" {
		return box
	}
	face, met := w.Provider.Face()
	d := &font.Drawer{Face: face}
	space := advance(d, " ")

	add := func(line string, width float32) {
		box.Lines = append(box.Lines, line)
		if width > box.Width {
			box.Width = width
		}
		box.Height += met.LineHeight()
	}
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		var cur strings.Builder
		var curW float32
		for _, word := range strings.Fields(para) {
			ww := advance(d, word)
			if cur.Len() > 0 && maxWidth > 0 && curW+space+ww > maxWidth {
				add(cur.String(), curW)
				cur.Reset()
				curW = 0
			}
			if cur.Len() > 0 {
				cur.WriteByte(' ')
				curW += space
			}
			cur.WriteString(word)
			curW += ww
		}
		add(cur.String(), curW)
	}
	return box
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}

// Measure returns the width of s on one line.
func Measure(p Provider, s string) float32 {
	if p == nil {
		p = BasicProvider{}
	}
	face, _ := p.Face()
	return advance(&font.Drawer{Face: face}, s)
}
