/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package stage holds what is on screen: characters spawned as entities, the
// background, the dialogue and speaker boxes, and the music playing. Scene
// implements story.Stage; rendering reads its state through the accessors.
package stage

import (
	"fmt"
	"log/slog"

	"github.com/HiruNya/gobu/internal/anim"
	"github.com/HiruNya/gobu/internal/assets"
	glog "github.com/HiruNya/gobu/internal/log"
	"github.com/HiruNya/gobu/internal/script"
	"github.com/HiruNya/gobu/internal/story"
)

// Character is a template entities are spawned from.
type Character struct {
	Default string
	States  map[string]assets.Handle
	Size    Vec // pixels
	Offset  Vec // fraction of Size subtracted from the position, 0.5 centres
}

// Entity is a character instance on stage.
type Entity struct {
	Name      string
	Character string
	State     string
	Texture   assets.Handle
	Pos       Vec
	Size      Vec
	Offset    Vec
	Visible   bool
	Look      anim.Appearance
	// Transition is the running transition, if any.
	Transition *anim.Transition
	// Pending is a removal waiting for the transition to finish.
	Pending story.Removal
}

// TopLeft returns the corner the entity is drawn from.
func (e *Entity) TopLeft() Vec {
	return Vec{X: e.Pos.X - e.Size.X*e.Offset.X, Y: e.Pos.Y - e.Size.Y*e.Offset.Y}
}

// Scene is the in-memory stage. It is owned by the game loop goroutine.
type Scene struct {
	characters  map[string]*Character
	backgrounds map[string]assets.Handle
	music       map[string][]byte
	transitions *anim.Registry

	entities map[string]*Entity
	order    []string // draw order, oldest spawn first

	background string
	nowPlaying string
	grid       Grid
	player     MusicPlayer

	Text    *TextBox
	Speaker *TextBox

	logger *slog.Logger
}

var _ story.Stage = (*Scene)(nil)

// NewScene returns an empty scene for a width x height screen with a single
// grid cell and no music output.
func NewScene(width, height float64) *Scene {
	return &Scene{
		characters:  make(map[string]*Character),
		backgrounds: make(map[string]assets.Handle),
		music:       make(map[string][]byte),
		transitions: anim.NewRegistry(),
		entities:    make(map[string]*Entity),
		grid:        NewGrid(1, 1, width, height),
		player:      NopPlayer{},
		Text:        NewTextBox(0, nil),
		Speaker:     NewTextBox(0, nil),
		logger:      glog.WithComponent("stage"),
	}
}

func (s *Scene) AddCharacter(name string, c *Character) { s.characters[name] = c }

func (s *Scene) AddBackground(key string, h assets.Handle) { s.backgrounds[key] = h }

func (s *Scene) AddMusic(key string, data []byte) { s.music[key] = data }

func (s *Scene) SetTransitions(r *anim.Registry) {
	if r != nil {
		s.transitions = r
	}
}

// SetGrid divides the current screen into cols x rows cells.
func (s *Scene) SetGrid(g Grid) { s.grid = g }

func (s *Scene) Grid() Grid { return s.grid }

func (s *Scene) SetPlayer(p MusicPlayer) {
	if p == nil {
		p = NopPlayer{}
	}
	s.player = p
}

// SetVisible shows or hides an entity. Showing cancels a deferred hide.
func (s *Scene) SetVisible(name string, visible bool) bool {
	e, ok := s.entities[name]
	if !ok {
		return false
	}
	e.Visible = visible
	if visible && e.Pending == story.RemovalHide {
		e.Pending = 0
	}
	return true
}

// SetState switches the entity's texture to another state of its character.
func (s *Scene) SetState(name, state string) bool {
	e, ok := s.entities[name]
	if !ok {
		return false
	}
	c, ok := s.characters[e.Character]
	if !ok {
		return false
	}
	h, ok := c.States[state]
	if !ok {
		return false
	}
	e.State, e.Texture = state, h
	return true
}

// ApplyTransition starts a fresh instance of the named transition on the
// entity. A transition already running is finished first.
func (s *Scene) ApplyTransition(name, transition string) bool {
	e, ok := s.entities[name]
	if !ok {
		return false
	}
	t, ok := s.transitions.Create(transition)
	if !ok {
		return false
	}
	if e.Transition != nil {
		e.Transition.Finish(&e.Look)
	}
	t.Start(&e.Look)
	e.Transition = t
	return true
}

// Defer marks the entity for removal once its transition finishes. Without a
// running transition the removal happens on the next Update.
func (s *Scene) Defer(name string, r story.Removal) bool {
	e, ok := s.entities[name]
	if !ok {
		return false
	}
	e.Pending = r
	return true
}

// Spawn places a new entity of the character under name, replacing any
// entity with that name. It starts visible at the origin in its default state.
func (s *Scene) Spawn(character, name string) bool {
	c, ok := s.characters[character]
	if !ok {
		return false
	}
	h, ok := c.States[c.Default]
	if !ok {
		return false
	}
	if _, exists := s.entities[name]; exists {
		s.dropFromOrder(name)
	}
	s.entities[name] = &Entity{
		Name:      name,
		Character: character,
		State:     c.Default,
		Texture:   h,
		Size:      c.Size,
		Offset:    c.Offset,
		Visible:   true,
		Look:      anim.Appearance{Alpha: 1},
	}
	s.order = append(s.order, name)
	return true
}

func (s *Scene) Remove(name string) bool {
	if _, ok := s.entities[name]; !ok {
		return false
	}
	delete(s.entities, name)
	s.dropFromOrder(name)
	return true
}

func (s *Scene) dropFromOrder(name string) {
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Move places the entity at a grid position.
func (s *Scene) Move(name string, pos script.Pos) bool {
	e, ok := s.entities[name]
	if !ok {
		return false
	}
	e.Pos = s.grid.Pixel(pos)
	return true
}

func (s *Scene) SetBackground(key string) bool {
	if _, ok := s.backgrounds[key]; !ok {
		return false
	}
	s.background = key
	return true
}

// PlayMusic hands the named track to the player.
func (s *Scene) PlayMusic(key string) error {
	data, ok := s.music[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMusic, key)
	}
	if err := s.player.Set(key, data); err != nil {
		return fmt.Errorf("play %s: %w", key, err)
	}
	s.nowPlaying = key
	return nil
}

func (s *Scene) SetDialogueText(text string) { s.Text.SetText(text) }

func (s *Scene) SetSpeakerText(speaker string) { s.Speaker.SetText(speaker) }

// Update advances running transitions by dt seconds and completes deferred
// removals whose transition has finished.
func (s *Scene) Update(dt float64) {
	for _, name := range append([]string(nil), s.order...) {
		e := s.entities[name]
		if e.Transition != nil && e.Transition.Update(dt, &e.Look) == anim.Finished {
			e.Transition = nil
		}
		if e.Transition == nil {
			s.completeRemoval(e)
		}
	}
}

// FinishTransitions jumps every running transition to its end state and
// completes the removals waiting on them.
func (s *Scene) FinishTransitions() {
	for _, name := range append([]string(nil), s.order...) {
		e := s.entities[name]
		if e.Transition != nil {
			e.Transition.Finish(&e.Look)
			e.Transition = nil
		}
		s.completeRemoval(e)
	}
}

func (s *Scene) completeRemoval(e *Entity) {
	switch e.Pending {
	case story.RemovalHide:
		e.Visible = false
		e.Look.Alpha = 1
		e.Pending = 0
		s.logger.Debug("deferred hide done", slog.String("entity", e.Name))
	case story.RemovalKill:
		s.Remove(e.Name)
		s.logger.Debug("deferred kill done", slog.String("entity", e.Name))
	}
}

// Entity returns a copy of the named entity.
func (s *Scene) Entity(name string) (Entity, bool) {
	e, ok := s.entities[name]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// Entities returns copies of all entities in draw order.
func (s *Scene) Entities() []Entity {
	out := make([]Entity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.entities[name])
	}
	return out
}

// Background returns the current background key and image.
func (s *Scene) Background() (string, assets.Handle) {
	return s.background, s.backgrounds[s.background]
}

func (s *Scene) NowPlaying() string { return s.nowPlaying }

// Animating reports whether any transition is still running.
func (s *Scene) Animating() bool {
	for _, e := range s.entities {
		if e.Transition != nil {
			return true
		}
	}
	return false
}

// Reset clears what is on screen and stops the music. The character,
// background, music and transition libraries are kept.
func (s *Scene) Reset() {
	s.entities = make(map[string]*Entity)
	s.order = nil
	s.background = ""
	if s.nowPlaying != "" {
		if err := s.player.Stop(); err != nil {
			s.logger.Warn("stop music", slog.Any("err", err))
		}
		s.nowPlaying = ""
	}
	s.Text.SetText("")
	s.Speaker.SetText("")
}
