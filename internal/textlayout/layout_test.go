/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestWrapGreedy(t *testing.T) {
	w := NewWrapper(nil)
	box := w.Wrap("Hello world from Go", 50)
	want := []string{"Hello", "world", "from Go"}
	if !reflect.DeepEqual(box.Lines, want) {
		t.Fatalf("lines = %q, want %q", box.Lines, want)
	}
	if box.Width != 49 || box.Height <= 0 {
		t.Fatalf("unexpected box size: %+v", box)
	}
}

func TestWrapHonoursNewlinesAndLongWords(t *testing.T) {
	w := NewWrapper(BasicProvider{})
	box := w.Wrap("a\n\nsupercalifragilistic b", 35)
	want := []string{"a", "", "supercalifragilistic", "b"}
	if !reflect.DeepEqual(box.Lines, want) {
		t.Fatalf("lines = %q, want %q", box.Lines, want)
	}
	if got := w.Wrap("", 10); len(got.Lines) != 0 {
		t.Fatalf("empty text should have no lines: %+v", got)
	}
	if got := w.Wrap("no wrap at all here", 0); len(got.Lines) != 1 {
		t.Fatalf("zero width disables wrapping: %+v", got)
	}
}

func TestMeasureDeterministic(t *testing.T) {
	if w := Measure(nil, "ABC"); w != 21 {
		t.Fatalf("expected 21px for three 7px glyphs, got %v", w)
	}
}

func TestLoadFontMissingFile(t *testing.T) {
	if _, err := LoadFont(filepath.Join(t.TempDir(), "none.ttf"), 12, 0); err == nil {
		t.Fatalf("expected error for missing font")
	}
}
