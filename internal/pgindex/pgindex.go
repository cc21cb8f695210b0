/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pgindex mirrors the dialogue index into PostgreSQL so several
// games can be searched from one shared database. It speaks the same Query
// and Result types as the embedded SQLite index in storage.
package pgindex

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	applog "github.com/HiruNya/gobu/internal/log"
	"github.com/HiruNya/gobu/internal/script"
	"github.com/HiruNya/gobu/internal/storage"
)

// EnvDSN names the environment variable holding the connection string.
const EnvDSN = "GOBU_PG_DSN"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open connects to dsn, checks the connection and applies pending migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded migrations not yet recorded in schema_migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("pgindex"), "migrate")
	files, err := migrationFiles()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
		l.Info("migration applied", slog.String("file", fname))
	}
	return nil
}

func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

// Sync replaces the documents stored for game with those of table and
// returns how many were written.
func Sync(ctx context.Context, db *sql.DB, game string, table *script.Table) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin sync: %w", err)
	}
	var gameID int64
	if err := tx.QueryRowContext(ctx, `INSERT INTO games(name) VALUES($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`, game).Scan(&gameID); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("upsert game: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE game_id = $1`, gameID); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("clear documents: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents(game_id, script, anchor, seq, kind, speaker, raw_text) VALUES($1,$2,$3,$4,$5,$6,$7)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	docs := storage.Documents(table)
	for _, d := range docs {
		who := sql.NullString{String: d.Speaker, Valid: d.Speaker != ""}
		if _, err := stmt.ExecContext(ctx, gameID, d.Script, d.Anchor, d.Seq, d.Kind, who, d.Text); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert %s/%s#%d: %w", d.Script, d.Anchor, d.Seq, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE games SET synced_at = now(), documents = $2 WHERE id = $1`, gameID, len(docs)); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("update game: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sync: %w", err)
	}
	applog.WithComponent("pgindex").Info("game synced", slog.String("game", game), slog.Int("documents", len(docs)))
	return len(docs), nil
}

// Search runs q against the documents of game. Text is matched with
// plainto_tsquery, so FTS5 operators are treated as plain words.
func Search(ctx context.Context, db *sql.DB, game string, q storage.Query) ([]storage.Result, error) {
	query, args := buildSearch(game, q)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.Result
	for rows.Next() {
		var r storage.Result
		if err := rows.Scan(&r.DocID, &r.Script, &r.Anchor, &r.Seq, &r.Kind, &r.Speaker, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func buildSearch(game string, q storage.Query) (string, []any) {
	var (
		args []any
		b    strings.Builder
	)
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	cols := "d.id, d.script, d.anchor, d.seq, d.kind, COALESCE(d.speaker,''), "
	if text := strings.TrimSpace(q.Text); text != "" {
		t := place(text)
		b.WriteString("SELECT " + cols + "COALESCE(ts_headline('simple', COALESCE(d.raw_text,''), plainto_tsquery('simple', " + t + "), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') ")
		b.WriteString("FROM documents d JOIN games g ON g.id = d.game_id WHERE g.name = " + place(game) + " AND d.search_vector @@ plainto_tsquery('simple', " + t + ") ")
	} else {
		b.WriteString("SELECT " + cols + "COALESCE(d.raw_text,'') ")
		b.WriteString("FROM documents d JOIN games g ON g.id = d.game_id WHERE g.name = " + place(game) + " ")
	}
	if len(q.Kinds) > 0 {
		kinds := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			kinds[i] = strings.ToLower(strings.TrimSpace(k))
		}
		b.WriteString("AND d.kind = ANY (" + place(kinds) + ") ")
	}
	if s := strings.TrimSpace(q.Speaker); s != "" {
		b.WriteString("AND lower(d.speaker) = " + place(strings.ToLower(s)) + " ")
	}
	if s := strings.TrimSpace(q.Script); s != "" {
		b.WriteString("AND lower(d.script) = " + place(strings.ToLower(s)) + " ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString("ORDER BY d.id LIMIT " + place(limit) + " OFFSET " + place(offset))
	return b.String(), args
}
