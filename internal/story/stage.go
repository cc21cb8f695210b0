/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import "github.com/HiruNya/gobu/internal/script"

// Removal is the kind of removal deferred until an entity's transition ends.
type Removal int

const (
	// RemovalHide hides the entity once its transition finishes.
	RemovalHide Removal = iota + 1
	// RemovalKill removes the entity from the stage once its transition finishes.
	RemovalKill
)

func (r Removal) String() string {
	switch r {
	case RemovalHide:
		return "hide"
	case RemovalKill:
		return "kill"
	}
	return "none"
}

// Stage is everything the engine mutates while executing steps. Every method
// is best-effort: a bool result reports whether the named entity, character,
// state, transition or background existed. A false result is not an error and
// the engine carries on.
type Stage interface {
	SetVisible(entity string, visible bool) bool
	SetState(entity, state string) bool
	ApplyTransition(entity, transition string) bool
	// Defer marks the entity for removal once its running transition finishes.
	Defer(entity string, r Removal) bool
	// Spawn places a new entity built from character under name.
	Spawn(character, name string) bool
	Remove(entity string) bool
	Move(entity string, pos script.Pos) bool
	SetBackground(key string) bool
	PlayMusic(key string) error
	SetDialogueText(text string)
	SetSpeakerText(speaker string)
}

// Recorder receives every line of dialogue the engine displays.
type Recorder interface {
	Record(speaker, text, scriptName, anchor string)
}
