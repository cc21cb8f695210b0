/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package story runs parsed scripts. An Engine holds the script table and the
// current execution position, and drives a Stage one step at a time until a
// step needs the reader: a line of dialogue or the end of the story.
//
// The engine is not safe for concurrent use; it belongs to the game loop.
package story

import (
	"context"
	"log/slog"

	glog "github.com/HiruNya/gobu/internal/log"
	"github.com/HiruNya/gobu/internal/script"
)

// State is the coarse execution state of an Engine.
type State int

const (
	// Idle means no script is selected, or the last selection did not resolve.
	Idle State = iota
	// Running means steps are available and Advance will execute them.
	Running
	// AwaitingInput means a dialogue step is on screen.
	AwaitingInput
	// Finished means an End step was reached. It is sticky until SetScript.
	Finished
)

var stateNames = [...]string{Idle: "idle", Running: "running", AwaitingInput: "awaiting_input", Finished: "finished"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Halt says why Advance returned.
type Halt int

const (
	// HaltDialogue: a dialogue line is displayed and waits for the reader.
	HaltDialogue Halt = iota + 1
	// HaltEnd: the story is finished.
	HaltEnd
	// HaltIdle: nothing to execute because the selected script or anchor does not exist.
	HaltIdle
	// HaltRunaway: too many steps executed without reaching a blocking one.
	HaltRunaway
)

func (h Halt) String() string {
	switch h {
	case HaltDialogue:
		return "dialogue"
	case HaltEnd:
		return "end"
	case HaltIdle:
		return "idle"
	case HaltRunaway:
		return "runaway"
	}
	return "none"
}

// Result reports the outcome of one Advance.
type Result struct {
	Halt Halt
	// Step is the step that halted execution. Zero for HaltRunaway and for an
	// Advance on an engine that was already idle.
	Step script.Step
	// Executed counts the steps run by this Advance, the halting one included.
	Executed int
}

// Position addresses an anchor by index: the script's position in the table
// and the anchor's position within that script.
type Position struct {
	Script int `json:"script"`
	Anchor int `json:"anchor"`
}

// DefaultMaxChain bounds the steps one Advance may execute.
const DefaultMaxChain = 10000

var endOnly = []script.Step{script.End()}

// Engine is the story state machine.
type Engine struct {
	scripts  *script.Table
	current  []script.Step
	cursor   int
	pos      Position
	state    State
	speaker  string
	strict   bool
	misses   []Miss
	maxChain int
	logger   *slog.Logger
	recorder Recorder
	// pastEnd is set while current is the End that follows the last anchor.
	pastEnd bool
	// trail holds the segments left since the last SetScript.
	trail []Segment
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrict records every lookup miss, see Misses, and logs it at WARN.
func WithStrict(strict bool) Option { return func(e *Engine) { e.strict = strict } }

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBacklog sends every displayed dialogue line to r.
func WithBacklog(r Recorder) Option { return func(e *Engine) { e.recorder = r } }

// WithMaxChain overrides DefaultMaxChain. Values below 1 are ignored.
func WithMaxChain(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxChain = n
		}
	}
}

// New returns an idle engine with an empty script table.
func New(opts ...Option) *Engine {
	e := &Engine{scripts: script.NewTable(), maxChain: DefaultMaxChain}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = glog.WithComponent("story")
	}
	return e
}

// LoadScript adds a script to the table. When a script with that name exists,
// each incoming anchor replaces the same-named anchor in place and new anchors
// are appended.
func (e *Engine) LoadScript(name string, anchors *script.Anchors) {
	if existing, _, ok := e.scripts.Get(name); ok {
		merged := existing.Clone()
		merged.Merge(anchors)
		e.scripts.Set(name, merged)
		return
	}
	e.scripts.Set(name, anchors.Clone())
}

// LoadScripts loads every script of t in table order.
func (e *Engine) LoadScripts(t *script.Table) {
	for i := 0; i < t.Len(); i++ {
		name, anchors, _ := t.At(i)
		e.LoadScript(name, anchors)
	}
}

// Scripts returns the script table. Callers must not modify it.
func (e *Engine) Scripts() *script.Table { return e.scripts }

// SetScript selects the anchor to run next. An empty anchor selects the
// script's first anchor. When the script or anchor does not exist the engine
// becomes Idle with nothing to execute. The path recorded for snapshots
// starts over.
func (e *Engine) SetScript(name, anchor string) {
	e.trail = nil
	e.selectAnchor(name, anchor)
}

func (e *Engine) selectAnchor(name, anchor string) {
	e.cursor = 0
	e.current = nil
	e.state = Idle
	e.pastEnd = false

	// Misses are logged before pos changes so they carry the position that
	// asked for the jump.
	anchors, si, ok := e.scripts.Get(name)
	if !ok {
		e.miss(Miss{Op: OpScript, Key: name})
		e.pos = Position{}
		return
	}
	var steps []script.Step
	ai := 0
	if anchor == "" {
		_, steps, ok = anchors.At(0)
	} else {
		steps, ai, ok = anchors.Get(anchor)
	}
	if !ok {
		e.miss(Miss{Op: OpAnchor, Key: name + ":" + anchor})
		e.pos = Position{Script: si}
		return
	}
	e.pos = Position{Script: si, Anchor: ai}
	e.current = steps
	e.state = Running
}

// NextScript moves to the anchor that follows the current one. Past the last
// anchor the current steps become a single End.
func (e *Engine) NextScript() {
	e.leave()
	e.cursor = 0
	e.state = Running
	_, anchors, ok := e.scripts.At(e.pos.Script)
	if !ok {
		e.current = endOnly
		e.pastEnd = true
		return
	}
	e.pos.Anchor++
	if _, steps, ok := anchors.At(e.pos.Anchor); ok {
		e.current = steps
		return
	}
	e.current = endOnly
	e.pastEnd = true
}

// segment describes the current anchor and how far into it the engine is.
func (e *Engine) segment() Segment {
	name, anchor := e.Location()
	return Segment{Script: name, Anchor: anchor, Steps: e.cursor, End: e.pastEnd}
}

// leave records the current anchor in the trail before moving elsewhere.
func (e *Engine) leave() {
	if e.current == nil {
		return
	}
	e.trail = append(e.trail, e.segment())
}

// Advance executes steps until one of them needs the reader. Non-blocking
// steps chain without returning; running out of steps moves to the next
// anchor. Advancing a finished engine keeps reporting HaltEnd.
func (e *Engine) Advance(st Stage) Result {
	switch e.state {
	case Idle:
		return Result{Halt: HaltIdle}
	case Finished:
		return Result{Halt: HaltEnd, Step: script.End()}
	}
	e.state = Running

	executed := 0
	for chained := 0; chained < e.maxChain; chained++ {
		if e.cursor >= len(e.current) {
			e.NextScript()
			continue
		}
		step := e.current[e.cursor]
		e.cursor++
		executed++
		e.execute(st, step)

		switch {
		case step.Kind == script.StepEnd:
			e.state = Finished
			return Result{Halt: HaltEnd, Step: step, Executed: executed}
		case step.Kind.Blocking():
			e.state = AwaitingInput
			return Result{Halt: HaltDialogue, Step: step, Executed: executed}
		case e.state == Idle:
			return Result{Halt: HaltIdle, Step: step, Executed: executed}
		}
	}
	e.state = AwaitingInput
	e.logger.ErrorContext(e.Context(context.Background()), "step chain exceeded limit", slog.Int("limit", e.maxChain))
	return Result{Halt: HaltRunaway, Executed: executed}
}

func (e *Engine) execute(st Stage, step script.Step) {
	switch step.Kind {
	case script.StepDialogue:
		st.SetDialogueText(step.Text)
		st.SetSpeakerText(step.Speaker)
		e.speaker = step.Speaker
		e.record(step.Text)
	case script.StepDialogueContinue:
		st.SetDialogueText(step.Text)
		e.record(step.Text)
	case script.StepShow:
		e.check(step, OpShow, step.Entity, st.SetVisible(step.Entity, true))
		if step.State != "" {
			e.check(step, OpState, step.State, st.SetState(step.Entity, step.State))
		}
		if step.Transition != "" {
			e.check(step, OpTransition, step.Transition, st.ApplyTransition(step.Entity, step.Transition))
		}
	case script.StepHide:
		if step.Transition != "" {
			// The entity stays visible until its transition finishes.
			visible := st.SetVisible(step.Entity, true)
			e.check(step, OpTransition, step.Transition, st.ApplyTransition(step.Entity, step.Transition))
			e.check(step, OpHide, step.Entity, visible && st.Defer(step.Entity, RemovalHide))
			return
		}
		e.check(step, OpHide, step.Entity, st.SetVisible(step.Entity, false))
	case script.StepSpawn:
		name := step.StageName()
		e.check(step, OpSpawn, step.Character, st.Spawn(step.Character, name))
		if step.HasPos {
			e.check(step, OpMove, name, st.Move(name, step.Pos))
		}
		if step.Transition != "" {
			e.check(step, OpTransition, step.Transition, st.ApplyTransition(name, step.Transition))
		}
	case script.StepKill:
		if step.Transition != "" {
			e.check(step, OpTransition, step.Transition, st.ApplyTransition(step.Entity, step.Transition))
			e.check(step, OpKill, step.Entity, st.Defer(step.Entity, RemovalKill))
			return
		}
		e.check(step, OpKill, step.Entity, st.Remove(step.Entity))
	case script.StepMove:
		e.check(step, OpMove, step.Entity, st.Move(step.Entity, step.Pos))
	case script.StepStage:
		e.check(step, OpBackground, step.Key, st.SetBackground(step.Key))
	case script.StepPlay:
		if err := st.PlayMusic(step.Key); err != nil {
			e.logger.Debug("music not started", slog.String("key", step.Key), slog.Any("err", err))
			e.check(step, OpMusic, step.Key, false)
		}
	case script.StepGoTo:
		name := step.Script
		if name == "" {
			name, _ = e.Location()
		}
		e.leave()
		e.selectAnchor(name, step.Anchor)
	case script.StepEnd:
	}
}

func (e *Engine) record(text string) {
	if e.recorder == nil {
		return
	}
	name, anchor := e.Location()
	e.recorder.Record(e.speaker, text, name, anchor)
}

// Location returns the names of the current script and anchor, or empty
// strings when the position does not resolve.
func (e *Engine) Location() (string, string) {
	name, anchors, ok := e.scripts.At(e.pos.Script)
	if !ok {
		return "", ""
	}
	anchor, _, _ := anchors.At(e.pos.Anchor)
	return name, anchor
}

// Current returns the steps being executed. Callers must not modify them.
func (e *Engine) Current() []script.Step { return e.current }

// Cursor returns how many steps of Current have been executed.
func (e *Engine) Cursor() int { return e.cursor }

func (e *Engine) Position() Position { return e.pos }

func (e *Engine) State() State { return e.state }

// Context returns ctx annotated with the current location for logging.
func (e *Engine) Context(ctx context.Context) context.Context {
	name, anchor := e.Location()
	return glog.WithPosition(ctx, name, anchor)
}
