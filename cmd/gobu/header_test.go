/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

// TestSourceFilesCarryLicenseHeader parses every Go file of the module and
// checks that it opens with a closed Apache header naming the gobu authors.
func TestSourceFilesCarryLicenseHeader(t *testing.T) {
	root := filepath.Join("..", "..")
	fset := token.NewFileSet()
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ParseComments|parser.PackageClauseOnly)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		n++
		if len(f.Comments) == 0 || fset.Position(f.Comments[0].Pos()).Line != 1 {
			t.Fatalf("%s: missing license header", path)
		}
		header := f.Comments[0].Text()
		if !strings.Contains(header, "Apache License, Version 2.0") || !strings.Contains(header, "by the gobu authors") {
			t.Fatalf("%s: unexpected license header %q", path, header)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if n == 0 {
		t.Fatalf("no Go files found under %s", root)
	}
}
