/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/HiruNya/gobu/internal/anim"
	applog "github.com/HiruNya/gobu/internal/log"
	"github.com/HiruNya/gobu/internal/script"
)

// Manifest is a loaded scripts manifest.
type Manifest struct {
	Scripts *script.Table
	// Default is the script to start with; DefaultAnchor may be empty for its first anchor.
	Default       string
	DefaultAnchor string
	// Paths maps each script name to the file it was read from.
	Paths map[string]string
}

// Entry is one key = "path" line of a manifest, with the path resolved.
type Entry struct {
	Key  string
	Path string
}

// CharacterDef is a character as declared in a character manifest.
type CharacterDef struct {
	Name    string
	Default string
	States  []Entry // document order
	Width   float64
	Height  float64
	OffsetX float64
	OffsetY float64
}

// LoadScriptFile reads and parses a single script file.
func LoadScriptFile(name, path string) (*script.Anchors, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "load_script").With(
		slog.String("script", name), slog.String("path", path),
	)
	data, err := os.ReadFile(path)
	if err != nil {
		l.Error("read script failed", slog.Any("err", err))
		return nil, &ImportError{Kind: KindIO, Path: path, Err: err}
	}
	anchors, err := script.Parse(string(data))
	if err != nil {
		l.Error("parse script failed", slog.Any("err", err))
		return nil, &ImportError{Kind: KindSyntax, Path: path, Err: err}
	}
	l.Debug("script loaded", slog.Int("anchors", anchors.Len()))
	return anchors, nil
}

// LoadScriptsManifest reads a scripts manifest and parses every script it
// names. Nothing is returned unless every script parsed.
func LoadScriptsManifest(path string) (*Manifest, error) {
	var raw map[string]string
	md, err := decodeManifest(path, &raw)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	m := &Manifest{Scripts: script.NewTable(), Paths: make(map[string]string)}
	for _, k := range md.Keys() {
		if len(k) != 1 {
			continue
		}
		key := k[0]
		value := raw[key]
		if strings.EqualFold(key, "default") {
			m.Default, m.DefaultAnchor, _ = strings.Cut(value, ":")
			continue
		}
		file := resolve(dir, value)
		anchors, err := LoadScriptFile(key, file)
		if err != nil {
			return nil, err
		}
		m.Scripts.Set(key, anchors)
		m.Paths[key] = file
	}
	applog.WithComponent("storage").Info("scripts manifest loaded",
		slog.String("path", path), slog.Int("scripts", m.Scripts.Len()), slog.String("default", m.Default))
	return m, nil
}

// LoadCharacters reads a character manifest. Each table is a character:
// default, size and offset are reserved keys; every other string key is a
// state naming an image. Without default the first state is used.
func LoadCharacters(path string) ([]CharacterDef, error) {
	var raw map[string]map[string]any
	md, err := decodeManifest(path, &raw)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	var out []CharacterDef
	byName := make(map[string]int)
	for _, k := range md.Keys() {
		switch len(k) {
		case 1:
			byName[k[0]] = len(out)
			out = append(out, CharacterDef{Name: k[0]})
		case 2:
			i, ok := byName[k[0]]
			if !ok {
				continue
			}
			if err := applyCharacterKey(&out[i], k[1], raw[k[0]][k[1]], dir); err != nil {
				return nil, &ImportError{Kind: KindManifest, Path: path, Err: err}
			}
		}
	}
	for i := range out {
		if out[i].Default == "" && len(out[i].States) > 0 {
			out[i].Default = out[i].States[0].Key
		}
	}
	return out, nil
}

func applyCharacterKey(c *CharacterDef, key string, v any, dir string) error {
	switch strings.ToLower(key) {
	case "default":
		if s, ok := v.(string); ok {
			c.Default = s
		}
	case "size":
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("character %s: size must be a table", c.Name)
		}
		for mk, mv := range m {
			n, ok := number(mv)
			if !ok {
				return fmt.Errorf("character %s: size.%s is not a number", c.Name, mk)
			}
			switch mk {
			case "w", "width":
				c.Width = n
			case "h", "height":
				c.Height = n
			}
		}
	case "offset":
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("character %s: offset must be a table", c.Name)
		}
		c.OffsetX, _ = number(m["x"])
		c.OffsetY, _ = number(m["y"])
	default:
		if s, ok := v.(string); ok {
			c.States = append(c.States, Entry{Key: key, Path: resolve(dir, s)})
		}
	}
	return nil
}

// LoadBackgrounds reads a key = "image path" manifest.
func LoadBackgrounds(path string) ([]Entry, error) {
	return loadEntries(path)
}

// LoadMusic reads a key = "audio path" manifest and loads each file. Files
// that cannot be read are skipped.
func LoadMusic(path string) (map[string][]byte, error) {
	entries, err := loadEntries(path)
	if err != nil {
		return nil, err
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "load_music")
	out := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(e.Path)
		if err != nil {
			l.Warn("skipping unreadable track", slog.String("key", e.Key), slog.String("path", e.Path), slog.Any("err", err))
			continue
		}
		out[e.Key] = data
	}
	return out, nil
}

type transitionsFile struct {
	CharacterTransition map[string]anim.Spec `toml:"CharacterTransition"`
}

// LoadTransitions reads [CharacterTransition.<name>] tables into a registry.
func LoadTransitions(path string) (*anim.Registry, error) {
	var raw transitionsFile
	if _, err := decodeManifest(path, &raw); err != nil {
		return nil, err
	}
	r := anim.NewRegistry()
	for name, spec := range raw.CharacterTransition {
		if spec.Kind == 0 {
			return nil, &ImportError{Kind: KindManifest, Path: path, Err: fmt.Errorf("transition %s: missing type", name)}
		}
		r.Register(name, spec)
	}
	return r, nil
}

func loadEntries(path string) ([]Entry, error) {
	var raw map[string]string
	md, err := decodeManifest(path, &raw)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	var out []Entry
	for _, k := range md.Keys() {
		if len(k) == 1 {
			out = append(out, Entry{Key: k[0], Path: resolve(dir, raw[k[0]])})
		}
	}
	return out, nil
}

func decodeManifest(path string, v any) (toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return toml.MetaData{}, &ImportError{Kind: KindIO, Path: path, Err: err}
	}
	md, err := toml.Decode(string(data), v)
	if err != nil {
		return toml.MetaData{}, &ImportError{Kind: KindManifest, Path: path, Err: err}
	}
	return md, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
