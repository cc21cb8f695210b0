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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "github.com/HiruNya/gobu/internal/log"
	"github.com/HiruNya/gobu/internal/script"
	"github.com/HiruNya/gobu/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName holds the disposable dialogue index next to the scripts manifest.
	IndexDirName  = ".gobu"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// IndexPath returns the index database path for a game directory.
func IndexPath(dir string) string {
	return filepath.Join(dir, IndexDirName, IndexFileName)
}

// OpenIndex creates or opens the dialogue index at path, enables WAL mode and
// brings the schema up to date.
func OpenIndex(path string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	// Forward slashes for the SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready")
	return db, nil
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep the stored schema so runMigrations can see it.
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_documents_speaker ON documents(speaker);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the documents table and the FTS5 index fed from it.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// One row per step: dialogue lines carry speaker and text, other steps
		// carry their script rendering in text.
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id  INTEGER PRIMARY KEY,
			script  TEXT    NOT NULL,
			anchor  TEXT    NOT NULL,
			seq     INTEGER NOT NULL,
			kind    TEXT    NOT NULL,
			speaker TEXT,
			text    TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_script ON documents(script, anchor, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_speaker ON documents(speaker);`,

		// External-content FTS5 index over documents, kept in sync by triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
			text,
			speaker,
			content='documents',
			content_rowid='doc_id',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO fts_documents(rowid, text, speaker) VALUES (new.doc_id, new.text, new.speaker);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text, speaker) VALUES ('delete', old.doc_id, old.text, old.speaker);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE OF text, speaker ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text, speaker) VALUES ('delete', old.doc_id, old.text, old.speaker);
			INSERT INTO fts_documents(rowid, text, speaker) VALUES (new.doc_id, new.text, new.speaker);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// Document is one indexed step. Dialogue lines carry speaker and text; other
// steps carry their script rendering in Text and no speaker.
type Document struct {
	Script  string
	Anchor  string
	Seq     int
	Kind    string
	Speaker string
	Text    string
}

// Documents flattens every script of the table into documents, in table
// order. Continue lines are attributed to the speaker of the dialogue before
// them.
func Documents(table *script.Table) []Document {
	var out []Document
	for i := 0; i < table.Len(); i++ {
		name, anchors, _ := table.At(i)
		for j := 0; j < anchors.Len(); j++ {
			anchor, steps, _ := anchors.At(j)
			speaker := ""
			for seq, st := range steps {
				d := Document{Script: name, Anchor: anchor, Seq: seq, Kind: st.Kind.String(), Text: st.String()}
				switch st.Kind {
				case script.StepDialogue:
					speaker = st.Speaker
					d.Speaker, d.Text = st.Speaker, st.Text
				case script.StepDialogueContinue:
					d.Speaker, d.Text = speaker, st.Text
				}
				out = append(out, d)
			}
		}
	}
	return out
}

// RebuildIndex replaces the indexed documents with the steps of every script
// in the table and returns how many rows were written.
func RebuildIndex(ctx context.Context, db *sql.DB, table *script.Table) (int, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_rebuild")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin rebuild: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents;`); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("clear documents: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents(script, anchor, seq, kind, speaker, text) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	docs := Documents(table)
	for _, d := range docs {
		who := sql.NullString{String: d.Speaker, Valid: d.Speaker != ""}
		if _, err := stmt.ExecContext(ctx, d.Script, d.Anchor, d.Seq, d.Kind, who, d.Text); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert %s/%s#%d: %w", d.Script, d.Anchor, d.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rebuild: %w", err)
	}
	l.Info("index rebuilt", slog.Int("documents", len(docs)), slog.Int("scripts", table.Len()))
	return len(docs), nil
}

// DetectAndRebuildIndex opens the index at path and rebuilds it from table
// when the file is corrupt or the schema is missing. The damaged file is
// copied into a backups directory first. It reports whether a rebuild ran.
func DetectAndRebuildIndex(ctx context.Context, path string, table *script.Table) (bool, error) {
	db, err := OpenIndex(path)
	if err == nil {
		healthy := true
		var chk string
		if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
			healthy = false
		}
		if healthy {
			if _, err := db.ExecContext(ctx, `SELECT 1 FROM documents LIMIT 1;`); err != nil {
				healthy = false
			}
		}
		_ = db.Close()
		if healthy {
			return false, nil
		}
	}
	applog.WithComponent("storage").Warn("index damaged, rebuilding", slog.String("path", path), slog.Any("err", err))
	backupFile(path)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	db, oerr := OpenIndex(path)
	if oerr != nil {
		return false, fmt.Errorf("reopen after rebuild: %w", oerr)
	}
	defer db.Close()
	if _, err := RebuildIndex(ctx, db, table); err != nil {
		return false, err
	}
	return true, nil
}

// backupFile copies path into a timestamped backup in <dir>/backups.
func backupFile(path string) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
	if data, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}
