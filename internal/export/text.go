/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HiruNya/gobu/internal/script"
)

// WriteText writes the named script as a plain-text transcript in the same
// layout as the PDF: "== anchor ==" headings, "SPEAKER: text" dialogue,
// continue lines indented and directions in brackets.
func WriteText(w io.Writer, table *script.Table, name string, directions bool) error {
	lines, err := Transcript(table, name, directions)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for i, l := range lines {
		switch l.Kind {
		case LineHeading:
			if i > 0 {
				fmt.Fprintln(bw)
			}
			fmt.Fprintf(bw, "== %s ==\n", l.Text)
		case LineDialogue:
			if l.Speaker != "" {
				fmt.Fprintf(bw, "%s: %s\n", strings.ToUpper(l.Speaker), l.Text)
			} else {
				fmt.Fprintln(bw, l.Text)
			}
		case LineContinue:
			fmt.Fprintf(bw, "    %s\n", l.Text)
		case LineDirection:
			fmt.Fprintf(bw, "[%s]\n", l.Text)
		}
	}
	return bw.Flush()
}

// ExportScriptText writes WriteText output to outPath.
func ExportScriptText(table *script.Table, name, outPath string, directions bool) (err error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteText(f, table, name, directions)
}
