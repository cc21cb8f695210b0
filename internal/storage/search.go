/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Query describes a dialogue search.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Speaker and Script are exact, case-insensitive filters. Kinds restricts to
// step kinds such as dialogue or continue.
// Limit/Offset implement pagination; a zero Limit means 100.
type Query struct {
	Text    string
	Speaker string
	Script  string
	Kinds   []string
	Limit   int
	Offset  int
}

// Result is one matching step. Snippet marks matches with [ ] when Text was
// given and holds the whole text otherwise.
type Result struct {
	DocID   int64
	Script  string
	Anchor  string
	Seq     int
	Kind    string
	Speaker string
	Snippet string
}

func (r Result) String() string {
	if r.Speaker != "" {
		return fmt.Sprintf("%s:%s#%d %s: %s", r.Script, r.Anchor, r.Seq, r.Speaker, r.Snippet)
	}
	return fmt.Sprintf("%s:%s#%d %s", r.Script, r.Anchor, r.Seq, r.Snippet)
}

// Search runs q against the index. Without Text it scans documents with the
// filters applied, in script order.
func Search(ctx context.Context, db *sql.DB, q Query) ([]Result, error) {
	var args []any
	var sb strings.Builder
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT d.doc_id, d.script, d.anchor, d.seq, d.kind, COALESCE(d.speaker,''), snippet(fts_documents, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_documents JOIN documents d ON fts_documents.rowid = d.doc_id\n")
		sb.WriteString("WHERE fts_documents MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT d.doc_id, d.script, d.anchor, d.seq, d.kind, COALESCE(d.speaker,''), COALESCE(d.text,'')\n")
		sb.WriteString("FROM documents d\nWHERE 1=1\n")
	}
	if len(q.Kinds) > 0 {
		sb.WriteString(" AND d.kind IN (" + placeholders(len(q.Kinds)) + ")\n")
		for _, k := range q.Kinds {
			args = append(args, strings.ToLower(k))
		}
	}
	if s := strings.TrimSpace(q.Speaker); s != "" {
		sb.WriteString(" AND lower(d.speaker) = ?\n")
		args = append(args, strings.ToLower(s))
	}
	if s := strings.TrimSpace(q.Script); s != "" {
		sb.WriteString(" AND lower(d.script) = ?\n")
		args = append(args, strings.ToLower(s))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("ORDER BY d.doc_id\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var r Result
		var sn sql.NullString
		if err := rows.Scan(&r.DocID, &r.Script, &r.Anchor, &r.Seq, &r.Kind, &r.Speaker, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
