/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import (
	"os"
	"path/filepath"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

func validateSnapshot(t *testing.T, s Snapshot) {
	t.Helper()
	data, err := s.MarshalIndent()
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	schemaBytes, err := os.ReadFile(filepath.Join("..", "..", "docs", "snapshot.schema.json"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("snapshot does not conform to schema: %s", data)
	}
}

func TestSnapshotConformsToSchema(t *testing.T) {
	e := New(WithStrict(true))
	validateSnapshot(t, e.Snapshot())

	load(e, "s", ":intro\n\"A\" : \"hi\"\nSTAGE 'x'\n\"more\"")
	e.SetScript("s", "intro")
	validateSnapshot(t, e.Snapshot())

	e.Advance(newFakeStage())
	s := e.Snapshot()
	if s.Script != "s" || s.Anchor != "intro" || s.Cursor != 1 || s.Length != 3 || s.State != "awaiting_input" {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.Next != "STAGE 'x'" {
		t.Fatalf("unexpected next step %q", s.Next)
	}
	validateSnapshot(t, s)

	e.SetScript("gone", "")
	validateSnapshot(t, e.Snapshot())
}

func TestSnapshotStringIsJSON(t *testing.T) {
	e := New()
	load(e, "s", "END")
	e.SetScript("s", "")
	e.Advance(newFakeStage())
	if got := e.Snapshot().String(); got == "" || got[0] != '{' {
		t.Fatalf("expected JSON, got %q", got)
	}
}
