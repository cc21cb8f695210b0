/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HiruNya/gobu/internal/script"
)

// Op names the lookup that missed.
type Op string

const (
	OpScript     Op = "script"
	OpAnchor     Op = "anchor"
	OpShow       Op = "show"
	OpHide       Op = "hide"
	OpState      Op = "state"
	OpTransition Op = "transition"
	OpSpawn      Op = "spawn"
	OpKill       Op = "kill"
	OpMove       Op = "move"
	OpBackground Op = "background"
	OpMusic      Op = "music"
)

// Miss is a name a step referred to that the stage or the script table did not know.
// Misses never change what the engine does; they only surface in strict mode.
type Miss struct {
	Step script.Step
	Op   Op
	Key  string
}

func (m Miss) String() string {
	return fmt.Sprintf("%s %q not found", m.Op, m.Key)
}

// Misses returns the misses recorded in strict mode, oldest first.
func (e *Engine) Misses() []Miss {
	return append([]Miss(nil), e.misses...)
}

// ResetMisses forgets recorded misses.
func (e *Engine) ResetMisses() { e.misses = nil }

func (e *Engine) check(step script.Step, op Op, key string, applied bool) {
	if !applied {
		e.miss(Miss{Step: step, Op: op, Key: key})
	}
}

func (e *Engine) miss(m Miss) {
	attrs := []any{slog.String("op", string(m.Op)), slog.String("key", m.Key)}
	if m.Op != OpScript && m.Op != OpAnchor {
		attrs = append(attrs, slog.String("step", m.Step.String()))
	}
	ctx := e.Context(context.Background())
	if !e.strict {
		e.logger.DebugContext(ctx, "lookup miss", attrs...)
		return
	}
	e.misses = append(e.misses, m)
	e.logger.WarnContext(ctx, "lookup miss", attrs...)
}
