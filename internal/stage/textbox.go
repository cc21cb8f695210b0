/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stage

import "github.com/HiruNya/gobu/internal/textlayout"

// TextBox holds text already broken into lines for a fixed width.
type TextBox struct {
	Text  string
	Lines []string
	Width float32 // wrap width in pixels, 0 disables wrapping

	wrapper *textlayout.Wrapper
}

// NewTextBox returns a box wrapping at width with the given font provider
// (nil selects the built-in fixed-width face).
func NewTextBox(width float32, p textlayout.Provider) *TextBox {
	return &TextBox{Width: width, wrapper: textlayout.NewWrapper(p)}
}

// SetText replaces the text and re-wraps it.
func (t *TextBox) SetText(s string) {
	t.Text = s
	if t.wrapper == nil {
		t.wrapper = textlayout.NewWrapper(nil)
	}
	t.Lines = t.wrapper.Wrap(s, t.Width).Lines
}
