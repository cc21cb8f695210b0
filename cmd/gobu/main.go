/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HiruNya/gobu/internal/config"
	"github.com/HiruNya/gobu/internal/crash"
	"github.com/HiruNya/gobu/internal/export"
	"github.com/HiruNya/gobu/internal/game"
	applog "github.com/HiruNya/gobu/internal/log"
	"github.com/HiruNya/gobu/internal/pgindex"
	"github.com/HiruNya/gobu/internal/storage"
	"github.com/HiruNya/gobu/internal/story"
	"github.com/HiruNya/gobu/internal/version"
)

func usage() {
	fmt.Println("gobu - visual novel engine")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gobu version|-v|--version                       Show version")
	fmt.Println("  gobu check <config.yaml>                         Load everything and report problems")
	fmt.Println("  gobu play [-load] <config.yaml>                  Play in the console (Enter advances, q quits)")
	fmt.Println("  gobu search [flags] <config.yaml> [query]        Search dialogue (-speaker, -script, -kind, -limit, -offset, -pg dsn)")
	fmt.Println("  gobu export [-directions] <config.yaml> <script|all> <out>")
	fmt.Println("                                                   Export a transcript (.pdf or .txt, or every script into a dir)")
}

// g is the game being played, reported on by crash.Recover.
var g *game.Game

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover(crash.Context{
		Position: func() string {
			if g == nil {
				return "not started"
			}
			return g.Position()
		},
		Autosave: func() (string, error) {
			if g == nil {
				return "", game.ErrNoSaveFile
			}
			return g.Autosave()
		},
	})

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("gobu")
		fmt.Println(version.String())
		return
	case "check":
		err = runCheck(args[2:])
	case "play":
		err = runPlay(args[2:])
	case "search":
		err = runSearch(args[2:])
	case "export":
		err = runExport(args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if errors.Is(err, errUsage) {
		usage()
		os.Exit(2)
	}
	if err != nil {
		l.Error(args[1]+" failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

// loadConfig reads the config and re-initializes logging from it.
func loadConfig(path string) (config.AppConfig, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	return cfg, nil
}

func runCheck(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	problems := game.Check(cfg.Game)
	for _, p := range problems {
		fmt.Println(p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) found", len(problems))
	}
	fmt.Println("OK")
	return nil
}

func runPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	load := fs.Bool("load", false, "resume from the save file")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	cfg, err := loadConfig(fs.Arg(0))
	if err != nil {
		return err
	}
	g, err = game.New(cfg.Game)
	if err != nil {
		return err
	}
	defer func() { _ = g.Close() }()
	if *load {
		if err := g.Load(); err != nil {
			return err
		}
		show(os.Stdout, g)
	}
	return playLoop(os.Stdin, os.Stdout, g)
}

// playLoop shows the story line by line. At each line the reader may
// advance with an empty line, save with s, load with l, list the backlog
// with b or quit with q.
func playLoop(in io.Reader, out io.Writer, g *game.Game) error {
	sc := bufio.NewScanner(in)
	last := time.Now()
	for {
		now := time.Now()
		g.Update(now.Sub(last).Seconds())
		last = now

		if g.Engine.State() == story.AwaitingInput {
			if advance, err := prompt(sc, out, g); !advance {
				return err
			}
		}
		switch r := g.Continue(); r.Halt {
		case story.HaltEnd:
			_, _ = fmt.Fprintln(out, "(the end)")
			return nil
		case story.HaltIdle:
			return fmt.Errorf("nothing to play at %s", g.Engine.Snapshot())
		case story.HaltRunaway:
			return fmt.Errorf("script never waits for input at %s", g.Engine.Snapshot())
		}
		show(out, g)
	}
}

// prompt handles commands until the reader asks to advance. It reports
// false when they quit or the input ends.
func prompt(sc *bufio.Scanner, out io.Writer, g *game.Game) (bool, error) {
	for {
		_, _ = fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return false, sc.Err()
		}
		switch strings.TrimSpace(sc.Text()) {
		case "":
			return true, nil
		case "q":
			return false, nil
		case "s":
			if err := g.Save(); err != nil {
				_, _ = fmt.Fprintln(out, "save failed:", err)
			} else {
				_, _ = fmt.Fprintln(out, "saved")
			}
		case "l":
			if err := g.Load(); err != nil {
				_, _ = fmt.Fprintln(out, "load failed:", err)
			} else {
				show(out, g)
			}
		case "b":
			for _, e := range g.Backlog.Last(10) {
				_, _ = fmt.Fprintf(out, "  %s: %s\n", e.Speaker, e.Text)
			}
		default:
			_, _ = fmt.Fprintln(out, "Enter advances, s saves, l loads, b shows the backlog, q quits")
		}
	}
}

func show(out io.Writer, g *game.Game) {
	if key, _ := g.Scene.Background(); key != "" {
		_, _ = fmt.Fprintf(out, "[%s]", key)
	}
	for _, e := range g.Scene.Entities() {
		if e.Visible {
			_, _ = fmt.Fprintf(out, " %s(%s)", e.Name, e.State)
		}
	}
	_, _ = fmt.Fprintln(out)
	for _, line := range g.Scene.Text.Lines {
		if name := g.Scene.Speaker.Text; name != "" {
			_, _ = fmt.Fprintf(out, "%s: %s\n", name, line)
			continue
		}
		_, _ = fmt.Fprintln(out, line)
	}
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	speaker := fs.String("speaker", "", "only lines by this speaker")
	scriptName := fs.String("script", "", "only this script")
	kinds := fs.String("kind", "", "comma-separated step kinds, e.g. dialogue,continue")
	limit := fs.Int("limit", 20, "max results")
	offset := fs.Int("offset", 0, "results to skip")
	dsn := fs.String("pg", os.Getenv(pgindex.EnvDSN), "search a PostgreSQL mirror instead of the local index")
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
		return errUsage
	}
	cfg, err := loadConfig(fs.Arg(0))
	if err != nil {
		return err
	}
	m, err := storage.LoadScriptsManifest(cfg.Game.Scripts)
	if err != nil {
		return err
	}
	q := storage.Query{
		Text:    strings.Join(fs.Args()[1:], " "),
		Speaker: *speaker,
		Script:  *scriptName,
		Limit:   *limit,
		Offset:  *offset,
	}
	if *kinds != "" {
		q.Kinds = strings.Split(*kinds, ",")
	}
	ctx := context.Background()
	var results []storage.Result
	if *dsn != "" {
		results, err = searchPG(ctx, *dsn, filepath.Base(filepath.Dir(cfg.Game.Scripts)), m, q)
	} else {
		results, err = searchLocal(ctx, filepath.Dir(cfg.Game.Scripts), m, q)
	}
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Println(r)
	}
	if len(results) == 0 {
		fmt.Println("no matches")
	}
	return nil
}

// searchLocal refreshes the SQLite index kept next to the scripts manifest
// and searches it.
func searchLocal(ctx context.Context, dir string, m *storage.Manifest, q storage.Query) ([]storage.Result, error) {
	path := storage.IndexPath(dir)
	if _, err := storage.DetectAndRebuildIndex(ctx, path, m.Scripts); err != nil {
		return nil, err
	}
	db, err := storage.OpenIndex(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if _, err := storage.RebuildIndex(ctx, db, m.Scripts); err != nil {
		return nil, err
	}
	return storage.Search(ctx, db, q)
}

// searchPG syncs the game into the PostgreSQL mirror at dsn and searches it.
func searchPG(ctx context.Context, dsn, name string, m *storage.Manifest, q storage.Query) ([]storage.Result, error) {
	db, err := pgindex.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if _, err := pgindex.Sync(ctx, db, name, m.Scripts); err != nil {
		return nil, err
	}
	return pgindex.Search(ctx, db, name, q)
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	directions := fs.Bool("directions", false, "include stage directions")
	if err := fs.Parse(args); err != nil || fs.NArg() != 3 {
		return errUsage
	}
	cfg, err := loadConfig(fs.Arg(0))
	if err != nil {
		return err
	}
	m, err := storage.LoadScriptsManifest(cfg.Game.Scripts)
	if err != nil {
		return err
	}
	name, out := fs.Arg(1), fs.Arg(2)
	if name == "all" {
		written, err := export.Batch(m.Scripts, export.BatchOptions{
			Formats: []string{"pdf", "txt"},
			OutDir:  out,
			PDF:     export.PDFOptions{Directions: *directions},
		})
		for _, w := range written {
			fmt.Println("Wrote", w)
		}
		return err
	}
	if strings.EqualFold(filepath.Ext(out), ".txt") {
		err = export.ExportScriptText(m.Scripts, name, out, *directions)
	} else {
		err = export.ExportScriptPDF(m.Scripts, name, out, export.PDFOptions{Directions: *directions})
	}
	if err != nil {
		return err
	}
	fmt.Println("Wrote", out)
	return nil
}
