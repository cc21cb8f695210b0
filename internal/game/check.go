/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package game

import (
	"errors"
	"fmt"

	"github.com/HiruNya/gobu/internal/assets"
	"github.com/HiruNya/gobu/internal/config"
	"github.com/HiruNya/gobu/internal/script"
	"github.com/HiruNya/gobu/internal/storage"
)

// ErrUnknownRef marks a step naming something no manifest declares.
var ErrUnknownRef = errors.New("unknown reference")

// Problem is one thing Check found wrong.
type Problem struct {
	Part string // manifest part, or script:anchor#step
	Err  error
}

func (p Problem) String() string { return p.Part + ": " + p.Err.Error() }

type library struct {
	characters  map[string]bool
	backgrounds map[string]bool
	music       map[string]bool
	transitions map[string]bool
}

// Check loads everything cfg names without opening audio or watching files
// and reports every problem instead of stopping at the first. Besides
// manifest and syntax errors it reports unreadable images and steps naming
// characters, backgrounds, music, transitions or anchors that do not exist.
// Libraries whose manifest is not configured are not checked against.
func Check(cfg config.GameConfig) []Problem {
	var out []Problem
	add := func(part string, err error) { out = append(out, Problem{Part: part, Err: err}) }
	arena := assets.NewArena()
	lib := library{}

	if cfg.Characters != "" {
		defs, err := storage.LoadCharacters(cfg.Characters)
		if err != nil {
			add("characters", err)
		}
		lib.characters = make(map[string]bool)
		for _, d := range defs {
			lib.characters[d.Name] = true
			if len(d.States) == 0 {
				add("characters", fmt.Errorf("character %s has no states", d.Name))
			}
			found := false
			for _, s := range d.States {
				arena.Register(s.Path)
				found = found || s.Key == d.Default
			}
			if !found && len(d.States) > 0 {
				add("characters", fmt.Errorf("character %s: default state %q not declared", d.Name, d.Default))
			}
		}
	}
	if cfg.Backgrounds != "" {
		entries, err := storage.LoadBackgrounds(cfg.Backgrounds)
		if err != nil {
			add("backgrounds", err)
		}
		lib.backgrounds = make(map[string]bool)
		for _, e := range entries {
			lib.backgrounds[e.Key] = true
			arena.Register(e.Path)
		}
	}
	if cfg.Music != "" {
		tracks, err := storage.LoadMusic(cfg.Music)
		if err != nil {
			add("music", err)
		}
		lib.music = make(map[string]bool)
		for k := range tracks {
			lib.music[k] = true
		}
	}
	if cfg.Transitions != "" {
		reg, err := storage.LoadTransitions(cfg.Transitions)
		if err != nil {
			add("transitions", err)
		} else {
			lib.transitions = make(map[string]bool)
			for _, n := range reg.Names() {
				lib.transitions[n] = true
			}
		}
	}
	for h := assets.Handle(1); int(h) <= arena.Len(); h++ {
		if img, _ := arena.Get(h); img.Err != nil {
			add("images", img.Err)
		}
	}

	if cfg.Scripts == "" {
		add("scripts", errors.New("no scripts manifest configured"))
		return out
	}
	m, err := storage.LoadScriptsManifest(cfg.Scripts)
	if err != nil {
		add("scripts", err)
		return out
	}
	if m.Default != "" {
		if anchors, _, ok := m.Scripts.Get(m.Default); !ok {
			add("scripts", fmt.Errorf("%w: default script %q", ErrUnknownRef, m.Default))
		} else if m.DefaultAnchor != "" {
			if _, _, ok := anchors.Get(m.DefaultAnchor); !ok {
				add("scripts", fmt.Errorf("%w: default anchor %q", ErrUnknownRef, m.DefaultAnchor))
			}
		}
	}
	for i := 0; i < m.Scripts.Len(); i++ {
		name, anchors, _ := m.Scripts.At(i)
		for j := 0; j < anchors.Len(); j++ {
			anchor, steps, _ := anchors.At(j)
			for k, step := range steps {
				for _, err := range lib.refs(m.Scripts, name, step) {
					add(fmt.Sprintf("%s:%s#%d", name, anchor, k), err)
				}
			}
		}
	}
	return out
}

func (lib library) refs(table *script.Table, current string, step script.Step) []error {
	var errs []error
	miss := func(kind string, set map[string]bool, key string) {
		if set != nil && key != "" && !set[key] {
			errs = append(errs, fmt.Errorf("%w: %s %q", ErrUnknownRef, kind, key))
		}
	}
	switch step.Kind {
	case script.StepSpawn:
		miss("character", lib.characters, step.Character)
	case script.StepStage:
		miss("background", lib.backgrounds, step.Key)
	case script.StepPlay:
		miss("music", lib.music, step.Key)
	case script.StepGoTo:
		target := step.Script
		if target == "" {
			target = current
		}
		anchors, _, ok := table.Get(target)
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: script %q", ErrUnknownRef, target))
		case step.Anchor != "":
			if _, _, ok := anchors.Get(step.Anchor); !ok {
				errs = append(errs, fmt.Errorf("%w: anchor %q", ErrUnknownRef, target+":"+step.Anchor))
			}
		}
	}
	miss("transition", lib.transitions, step.Transition)
	return errs
}
