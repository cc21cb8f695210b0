/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/HiruNya/gobu/internal/script"
)

// BatchOptions controls exporting several scripts at once.
//
// Outputs are written to <OutDir>/<format>/<script>.<format>.
type BatchOptions struct {
	Formats []string // allowed: pdf, txt; empty means pdf
	Scripts []string // empty means every script in table order
	OutDir  string
	PDF     PDFOptions
}

// Batch runs the exports and returns the files written.
func Batch(table *script.Table, opt BatchOptions) ([]string, error) {
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("no scripts to export")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = []string{"pdf"}
	}
	names := opt.Scripts
	if len(names) == 0 {
		names = table.Names()
	}
	var written []string
	for _, name := range names {
		for _, f := range formats {
			f = strings.ToLower(strings.TrimSpace(f))
			out := filepath.Join(opt.OutDir, f, name+"."+f)
			var err error
			switch f {
			case "pdf":
				po := opt.PDF
				po.Title = ""
				err = ExportScriptPDF(table, name, out, po)
			case "txt":
				err = ExportScriptText(table, name, out, opt.PDF.Directions)
			default:
				return written, fmt.Errorf("unknown format: %s", f)
			}
			if err != nil {
				return written, fmt.Errorf("%s %s: %w", f, name, err)
			}
			written = append(written, out)
		}
	}
	return written, nil
}
