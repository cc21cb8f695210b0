/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package anim implements character transitions: time-driven changes to how an
// entity is drawn, such as fading in or out.
package anim

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the closed set of transition behaviours.
type Kind int

const (
	FadeIn Kind = iota + 1
	FadeOut
)

func (k Kind) String() string {
	switch k {
	case FadeIn:
		return "FadeIn"
	case FadeOut:
		return "FadeOut"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the manifest spelling, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fadein":
		return FadeIn, nil
	case "fadeout":
		return FadeOut, nil
	}
	return 0, fmt.Errorf("anim: unknown transition type %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Status is what a transition reports after an update.
type Status int

const (
	Continue Status = iota
	Finished
)

// Appearance is the part of an entity a transition may change.
type Appearance struct {
	Alpha float64 // 0 transparent .. 1 opaque
}

// Spec describes a named transition as written in a transitions manifest.
type Spec struct {
	Kind     Kind    `toml:"type"`
	Duration float64 `toml:"time"` // seconds
}

// New returns a fresh running instance of the spec.
func (s Spec) New() *Transition { return &Transition{spec: s, left: s.Duration} }

// Transition is one running instance. It is owned by a single entity.
type Transition struct {
	spec    Spec
	elapsed float64
	left    float64
}

func (t *Transition) Kind() Kind { return t.spec.Kind }

// Start puts the appearance in the state the transition begins from.
func (t *Transition) Start(a *Appearance) {
	switch t.spec.Kind {
	case FadeIn:
		a.Alpha = 0
	case FadeOut:
		a.Alpha = 1
	}
}

// Update advances the transition by dt seconds.
// A fade in reports Finished once its elapsed time exceeds the duration, a fade
// out once its remaining time drops below zero.
func (t *Transition) Update(dt float64, a *Appearance) Status {
	if t.spec.Duration <= 0 {
		t.Finish(a)
		return Finished
	}
	switch t.spec.Kind {
	case FadeIn:
		t.elapsed += dt
		if t.elapsed > t.spec.Duration {
			a.Alpha = 1
			return Finished
		}
		a.Alpha = t.elapsed / t.spec.Duration
	case FadeOut:
		t.left -= dt
		if t.left < 0 {
			a.Alpha = 0
			return Finished
		}
		a.Alpha = t.left / t.spec.Duration
	default:
		return Finished
	}
	return Continue
}

// Finish jumps to the final appearance: opaque for a fade in, transparent for a fade out.
func (t *Transition) Finish(a *Appearance) {
	switch t.spec.Kind {
	case FadeIn:
		a.Alpha = 1
	case FadeOut:
		a.Alpha = 0
	}
}

// Registry maps transition names to specs.
type Registry struct {
	specs map[string]Spec
}

func NewRegistry() *Registry { return &Registry{specs: make(map[string]Spec)} }

// Register adds or replaces a named spec.
func (r *Registry) Register(name string, s Spec) { r.specs[name] = s }

func (r *Registry) Lookup(name string) (Spec, bool) {
	if r == nil {
		return Spec{}, false
	}
	s, ok := r.specs[name]
	return s, ok
}

// Create returns a new running instance of the named transition.
func (r *Registry) Create(name string) (*Transition, bool) {
	s, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	return s.New(), true
}

// Names returns the registered names sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.specs))
	for k := range r.specs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.specs)
}
