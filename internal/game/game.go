/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package game assembles a playable game from its configuration: the scene
// and its libraries, the story engine, the backlog, music output and the
// optional script watcher.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/HiruNya/gobu/internal/assets"
	"github.com/HiruNya/gobu/internal/audio"
	"github.com/HiruNya/gobu/internal/backlog"
	"github.com/HiruNya/gobu/internal/config"
	applog "github.com/HiruNya/gobu/internal/log"
	"github.com/HiruNya/gobu/internal/stage"
	"github.com/HiruNya/gobu/internal/storage"
	"github.com/HiruNya/gobu/internal/story"
	"github.com/HiruNya/gobu/internal/textlayout"
	"github.com/HiruNya/gobu/internal/watch"
)

// ErrNoSaveFile is returned by Save and Load when no save file is configured.
var ErrNoSaveFile = errors.New("no save file configured")

// BuildError reports which part of the game could not be built.
type BuildError struct {
	Part string
	Err  error
}

func (e *BuildError) Error() string { return fmt.Sprintf("build %s: %v", e.Part, e.Err) }

func (e *BuildError) Unwrap() error { return e.Err }

// Game is a running game. It is driven from a single goroutine.
type Game struct {
	Scene   *stage.Scene
	Engine  *story.Engine
	Backlog *backlog.Log
	Assets  *assets.Arena

	cfg      config.GameConfig
	manifest *storage.Manifest
	byPath   map[string]string // script file -> script name
	player   stage.MusicPlayer
	watcher  *watch.Watcher
	logger   *slog.Logger
}

// New builds a game from cfg and selects the manifest's default script, or
// its first script when no default is set.
func New(cfg config.GameConfig) (*Game, error) {
	l := applog.WithOperation(applog.WithComponent("game"), "build")
	if cfg.Scripts == "" {
		return nil, &BuildError{Part: "scripts", Err: errors.New("no scripts manifest configured")}
	}
	g := &Game{
		Assets: assets.NewArena(),
		cfg:    cfg,
		byPath: make(map[string]string),
		player: stage.NopPlayer{},
		logger: applog.WithComponent("game"),
	}

	w, h := float64(cfg.Window.Width), float64(cfg.Window.Height)
	g.Scene = stage.NewScene(w, h)
	if cfg.Grid.Cols > 0 && cfg.Grid.Rows > 0 {
		g.Scene.SetGrid(stage.NewGrid(cfg.Grid.Cols, cfg.Grid.Rows, w, h))
	}
	if err := g.buildText(); err != nil {
		return nil, err
	}
	if err := g.buildCharacters(); err != nil {
		return nil, err
	}
	if cfg.Backgrounds != "" {
		entries, err := storage.LoadBackgrounds(cfg.Backgrounds)
		if err != nil {
			return nil, &BuildError{Part: "backgrounds", Err: err}
		}
		for _, e := range entries {
			g.Scene.AddBackground(e.Key, g.Assets.Register(e.Path))
		}
	}
	if cfg.Transitions != "" {
		reg, err := storage.LoadTransitions(cfg.Transitions)
		if err != nil {
			return nil, &BuildError{Part: "transitions", Err: err}
		}
		g.Scene.SetTransitions(reg)
	}
	if err := g.buildMusic(); err != nil {
		return nil, err
	}

	m, err := storage.LoadScriptsManifest(cfg.Scripts)
	if err != nil {
		return nil, &BuildError{Part: "scripts", Err: err}
	}
	g.manifest = m
	for name, p := range m.Paths {
		g.byPath[filepath.Clean(p)] = name
	}
	g.Backlog = backlog.New(backlog.Config{})
	g.Engine = story.New(story.WithStrict(cfg.Strict), story.WithBacklog(g.Backlog))
	g.Engine.LoadScripts(m.Scripts)
	g.Restart()

	if cfg.Watch {
		if err := g.startWatch(); err != nil {
			return nil, &BuildError{Part: "watch", Err: err}
		}
	}
	l.Info("game built",
		slog.Int("scripts", m.Scripts.Len()),
		slog.Int("images", g.Assets.Len()),
		slog.Bool("strict", cfg.Strict),
		slog.Bool("watch", cfg.Watch))
	return g, nil
}

func (g *Game) buildText() error {
	var p textlayout.Provider
	if g.cfg.Text.Font != "" {
		size := g.cfg.Text.FontSize
		if size <= 0 {
			size = 13
		}
		fp, err := textlayout.LoadFont(g.cfg.Text.Font, size, 72)
		if err != nil {
			return &BuildError{Part: "font", Err: err}
		}
		p = fp
	}
	g.Scene.Text = stage.NewTextBox(float32(g.cfg.Text.Width), p)
	g.Scene.Speaker = stage.NewTextBox(0, p)
	return nil
}

func (g *Game) buildCharacters() error {
	if g.cfg.Characters == "" {
		return nil
	}
	defs, err := storage.LoadCharacters(g.cfg.Characters)
	if err != nil {
		return &BuildError{Part: "characters", Err: err}
	}
	for _, d := range defs {
		c := &stage.Character{
			Default: d.Default,
			States:  make(map[string]assets.Handle, len(d.States)),
			Size:    stage.Vec{X: d.Width, Y: d.Height},
			Offset:  stage.Vec{X: d.OffsetX, Y: d.OffsetY},
		}
		for _, s := range d.States {
			c.States[s.Key] = g.Assets.Register(s.Path)
		}
		if c.Size.X == 0 || c.Size.Y == 0 {
			iw, ih := g.Assets.Size(c.States[c.Default])
			if c.Size.X == 0 {
				c.Size.X = float64(iw)
			}
			if c.Size.Y == 0 {
				c.Size.Y = float64(ih)
			}
		}
		g.Scene.AddCharacter(d.Name, c)
	}
	return nil
}

func (g *Game) buildMusic() error {
	if g.cfg.Music == "" {
		return nil
	}
	tracks, err := storage.LoadMusic(g.cfg.Music)
	if err != nil {
		return &BuildError{Part: "music", Err: err}
	}
	for key, data := range tracks {
		g.Scene.AddMusic(key, data)
	}
	if len(tracks) == 0 {
		return nil
	}
	p := audio.NewPlayer(g.cfg.MusicLoop)
	if err := p.Init(); err != nil {
		g.logger.Warn("music disabled", slog.Any("err", err))
		return nil
	}
	g.player = p
	g.Scene.SetPlayer(p)
	return nil
}

func (g *Game) startWatch() error {
	var dirs []string
	for p := range g.byPath {
		dirs = append(dirs, filepath.Dir(p))
	}
	w, err := watch.New(nil, dirs...)
	if err != nil {
		return err
	}
	g.watcher = w
	return nil
}

// Restart clears the scene and the backlog and selects the start script again.
func (g *Game) Restart() {
	g.Scene.Reset()
	g.Backlog.Clear()
	name, anchor := g.manifest.Default, g.manifest.DefaultAnchor
	if name == "" {
		if first, _, ok := g.manifest.Scripts.At(0); ok {
			name, anchor = first, ""
		}
	}
	g.Engine.SetScript(name, anchor)
}

// Continue is what happens when the reader asks for more: running
// transitions jump to their end and the story advances.
func (g *Game) Continue() story.Result {
	g.Scene.FinishTransitions()
	r := g.Engine.Advance(g.Scene)
	if r.Halt == story.HaltEnd && r.Executed > 0 {
		_, lines := g.Backlog.Stats()
		g.logger.InfoContext(g.Engine.Context(context.Background()), "story finished", slog.Int("backlog", lines))
	}
	return r
}

// Update advances the scene by dt seconds and applies script changes picked
// up by the watcher.
func (g *Game) Update(dt float64) {
	g.Scene.Update(dt)
	if g.watcher != nil {
		g.Reload(g.watcher.Drain()...)
	}
}

// Reload re-reads the given script files and merges them into the engine.
// Files that are not part of the manifest are ignored; a file that fails to
// parse keeps its previous version. It returns the scripts reloaded.
func (g *Game) Reload(paths ...string) []string {
	var out []string
	for _, p := range paths {
		name, ok := g.byPath[filepath.Clean(p)]
		if !ok {
			continue
		}
		anchors, err := storage.LoadScriptFile(name, p)
		if err != nil {
			g.logger.WarnContext(g.Engine.Context(context.Background()), "reload failed, keeping previous version", slog.String("reloaded", name), slog.Any("err", err))
			continue
		}
		g.Engine.LoadScript(name, anchors)
		g.logger.InfoContext(g.Engine.Context(context.Background()), "script reloaded", slog.String("reloaded", name), slog.Int("anchors", anchors.Len()))
		out = append(out, name)
	}
	return out
}

// Position describes where the story is, for crash reports.
func (g *Game) Position() string { return g.Engine.Snapshot().String() }

// Save writes the story position to the configured save file.
func (g *Game) Save() error {
	if g.cfg.SaveFile == "" {
		return ErrNoSaveFile
	}
	return storage.SaveGame(g.cfg.SaveFile, g.Engine.Snapshot())
}

// Autosave writes the story position next to the save file and returns
// where it went.
func (g *Game) Autosave() (string, error) {
	if g.cfg.SaveFile == "" {
		return "", ErrNoSaveFile
	}
	path := g.cfg.SaveFile + ".autosave"
	return path, storage.SaveGame(path, g.Engine.Snapshot())
}

// Load restores the story position from the save file, rebuilding the scene
// from scratch.
func (g *Game) Load() error {
	if g.cfg.SaveFile == "" {
		return ErrNoSaveFile
	}
	snap, err := storage.LoadGame(g.cfg.SaveFile)
	if err != nil {
		return err
	}
	g.Scene.Reset()
	g.Backlog.Clear()
	if !g.Engine.Resume(g.Scene, snap) {
		return fmt.Errorf("resume %s:%s at %d: save no longer matches the script", snap.Script, snap.Anchor, snap.Cursor)
	}
	g.logger.InfoContext(g.Engine.Context(context.Background()), "game loaded", slog.Int("cursor", snap.Cursor), slog.Int("segments", len(snap.Trail)))
	return nil
}

// Close stops the watcher and the music.
func (g *Game) Close() error {
	var err error
	if g.watcher != nil {
		err = g.watcher.Close()
	}
	if perr := g.player.Stop(); err == nil {
		err = perr
	}
	return err
}
