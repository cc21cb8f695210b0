/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `config_version: 1
game:
  scripts: manifests/scripts.toml
  characters: /abs/characters.toml
  grid: {cols: 8, rows: 6}
  text: {width: 500}
  strict: true
logging:
  level: DEBUG
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	dir := filepath.Dir(path)
	if got, want := cfg.Game.Scripts, filepath.Join(dir, "manifests", "scripts.toml"); got != want {
		t.Fatalf("Game.Scripts = %q, want %q", got, want)
	}
	if cfg.Game.Characters != "/abs/characters.toml" {
		t.Fatalf("absolute path changed: %q", cfg.Game.Characters)
	}
	if cfg.Game.Grid != (GridConfig{Cols: 8, Rows: 6}) || cfg.Game.Text.Width != 500 || cfg.Game.Text.FontSize != 13 {
		t.Fatalf("unexpected game config %#v", cfg.Game)
	}
	if cfg.Game.Window != Defaults().Game.Window {
		t.Fatalf("window should keep defaults, got %#v", cfg.Game.Window)
	}
	if !cfg.Game.Strict || cfg.Game.Watch {
		t.Fatalf("booleans not taken from file: %#v", cfg.Game)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging %#v", cfg.Logging)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "game: [unclosed")); err == nil {
		t.Fatalf("expected error for invalid yaml")
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "game.yaml")
	cfg := Defaults()
	cfg.Game.Scripts = "scripts.toml"
	cfg.Game.Watch = true
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Game.Scripts != filepath.Join(filepath.Dir(path), "scripts.toml") || !got.Game.Watch {
		t.Fatalf("round trip lost fields: %#v", got.Game)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/gobu.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/gobu.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverrides(t *testing.T) {
	envs := map[string]string{
		EnvStrict:    "yes",
		EnvWatch:     "1",
		EnvTextWidth: "320",
		EnvLogLevel:  "error",
		EnvLogFormat: "json",
		EnvLogSource: "1",
		EnvLogFile:   "X:/gobu.log",
	}
	for k, v := range envs {
		old := os.Getenv(k)
		_ = os.Setenv(k, v)
		k := k
		t.Cleanup(func() { _ = os.Setenv(k, old) })
	}
	cfg, err := Load(writeConfig(t, "game:\n  strict: false\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Game.Strict || !cfg.Game.Watch || cfg.Game.Text.Width != 320 {
		t.Fatalf("env overrides not applied to game: %#v", cfg.Game)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/gobu.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
	if env, ok := EnvOverrideFor("game.strict"); !ok || env != EnvStrict {
		t.Fatalf("EnvOverrideFor(game.strict) = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("game.scripts"); ok {
		t.Fatalf("scripts has no env override")
	}
}
