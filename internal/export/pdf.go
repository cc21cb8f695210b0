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
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/HiruNya/gobu/internal/script"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt). Built-in Helvetica keeps text vector without embedding;
// text outside code page 1252 is replaced.
type PDFOptions struct {
	PageSize   string  // gofpdf size name, "A4" when empty
	FontSize   float64 // body size, 11 when zero
	Title      string  // defaults to the script name
	Directions bool    // include stage directions in italics
}

// ExportScriptPDF writes the named script as a transcript: one heading per
// anchor, dialogue as "SPEAKER: text", continue lines indented.
func ExportScriptPDF(table *script.Table, name, outPath string, opt PDFOptions) error {
	lines, err := Transcript(table, name, opt.Directions)
	if err != nil {
		return err
	}
	size := opt.PageSize
	if size == "" {
		size = "A4"
	}
	fs := opt.FontSize
	if fs <= 0 {
		fs = 11
	}
	title := opt.Title
	if title == "" {
		title = name
	}
	lh := fs * 1.4
	const margin = 56.0
	const indent = 24.0

	pdf := gofpdf.New("P", "pt", size, "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("gobu", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	textW := pageW - 2*margin

	pdf.SetFont("Helvetica", "B", fs*1.6)
	pdf.MultiCell(textW, fs*2, tr(title), "", "L", false)
	for _, l := range lines {
		switch l.Kind {
		case LineHeading:
			pdf.Ln(lh / 2)
			pdf.SetFont("Helvetica", "B", fs*1.2)
			pdf.MultiCell(textW, lh, tr(l.Text), "B", "L", false)
			pdf.Ln(lh / 3)
		case LineDialogue:
			pdf.SetFont("Helvetica", "", fs)
			text := l.Text
			if l.Speaker != "" {
				text = strings.ToUpper(l.Speaker) + ": " + text
			}
			pdf.MultiCell(textW, lh, tr(text), "", "L", false)
		case LineContinue:
			pdf.SetFont("Helvetica", "", fs)
			pdf.SetX(margin + indent)
			pdf.MultiCell(textW-indent, lh, tr(l.Text), "", "L", false)
		case LineDirection:
			pdf.SetFont("Helvetica", "I", fs*0.9)
			pdf.SetTextColor(96, 96, 96)
			pdf.MultiCell(textW, lh, tr(l.Text), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
