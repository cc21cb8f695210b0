/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is a game's configuration, persisted as YAML next to its manifests.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Game          GameConfig    `yaml:"game"`
	Logging       LoggingConfig `yaml:"logging"`
}

// GameConfig names the manifests a game is built from and how it is presented.
// Relative paths are resolved against the config file's directory by Load.
type GameConfig struct {
	Scripts     string `yaml:"scripts"`
	Characters  string `yaml:"characters"`
	Backgrounds string `yaml:"backgrounds"`
	Music       string `yaml:"music"`
	Transitions string `yaml:"transitions"`

	Window WindowConfig `yaml:"window"`
	Grid   GridConfig   `yaml:"grid"`
	Text   TextConfig   `yaml:"text"`

	// Strict records lookup misses and logs them as warnings.
	Strict bool `yaml:"strict"`
	// Watch reloads scripts when their files change.
	Watch     bool   `yaml:"watch"`
	MusicLoop bool   `yaml:"music_loop"`
	SaveFile  string `yaml:"save_file"`
}

type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type GridConfig struct {
	Cols int `yaml:"cols"`
	Rows int `yaml:"rows"`
}

// TextConfig configures the dialogue box. An empty Font uses the built-in face.
type TextConfig struct {
	Width    float64 `yaml:"width"`
	Font     string  `yaml:"font"`
	FontSize float64 `yaml:"font_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Game: GameConfig{
			Window: WindowConfig{Width: 800, Height: 600},
			Grid:   GridConfig{Cols: 1, Rows: 1},
			Text:   TextConfig{Width: 760, FontSize: 13},
		},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvStrict    = "GOBU_STRICT"
	EnvWatch     = "GOBU_WATCH"
	EnvSaveFile  = "GOBU_SAVE_FILE"
	EnvTextWidth = "GOBU_TEXT_WIDTH"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GOBU_LOG_LEVEL"
	EnvLogFormat = "GOBU_LOG_FORMAT"
	EnvLogSource = "GOBU_LOG_SOURCE"
	EnvLogFile   = "GOBU_LOG_FILE"
)

// Load reads the config file at path, applies it over the defaults, resolves
// the manifest paths against the file's directory and merges environment overrides.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var fileCfg AppConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	mergeInto(&cfg, &fileCfg)
	resolvePaths(&cfg.Game, filepath.Dir(path))
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	g, sg := &dst.Game, &src.Game
	for _, p := range []struct{ dst, src *string }{
		{&g.Scripts, &sg.Scripts},
		{&g.Characters, &sg.Characters},
		{&g.Backgrounds, &sg.Backgrounds},
		{&g.Music, &sg.Music},
		{&g.Transitions, &sg.Transitions},
		{&g.SaveFile, &sg.SaveFile},
		{&g.Text.Font, &sg.Text.Font},
	} {
		if s := strings.TrimSpace(*p.src); s != "" {
			*p.dst = s
		}
	}
	if sg.Window.Width > 0 && sg.Window.Height > 0 {
		g.Window = sg.Window
	}
	if sg.Grid.Cols > 0 && sg.Grid.Rows > 0 {
		g.Grid = sg.Grid
	}
	if sg.Text.Width > 0 {
		g.Text.Width = sg.Text.Width
	}
	if sg.Text.FontSize > 0 {
		g.Text.FontSize = sg.Text.FontSize
	}
	// booleans: copy directly from src (file) so the game's choices persist
	g.Strict = sg.Strict
	g.Watch = sg.Watch
	g.MusicLoop = sg.MusicLoop
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func resolvePaths(g *GameConfig, dir string) {
	for _, p := range []*string{&g.Scripts, &g.Characters, &g.Backgrounds, &g.Music, &g.Transitions, &g.SaveFile, &g.Text.Font} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvStrict)); v != "" {
		cfg.Game.Strict = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvWatch)); v != "" {
		cfg.Game.Watch = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSaveFile)); v != "" {
		cfg.Game.SaveFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTextWidth)); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.Game.Text.Width = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "game.strict":
		env = EnvStrict
	case "game.watch":
		env = EnvWatch
	case "game.save_file":
		env = EnvSaveFile
	case "game.text.width":
		env = EnvTextWidth
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
