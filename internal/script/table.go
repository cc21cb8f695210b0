/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// ordered is an insertion-ordered map. Re-setting an existing key replaces the
// value but keeps the key at its first position.
type ordered[V any] struct {
	keys  []string
	index map[string]int
	vals  []V
}

func (o *ordered[V]) set(key string, v V) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.vals[i] = v
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
}

func (o *ordered[V]) get(key string) (V, int, bool) {
	i, ok := o.index[key]
	if !ok {
		var zero V
		return zero, -1, false
	}
	return o.vals[i], i, true
}

func (o *ordered[V]) at(i int) (string, V, bool) {
	if i < 0 || i >= len(o.keys) {
		var zero V
		return "", zero, false
	}
	return o.keys[i], o.vals[i], true
}

// Anchors is the parsed form of one script: anchor name -> instructions, in
// the order the anchors first appeared.
type Anchors struct {
	m ordered[[]Step]
}

// NewAnchors returns an empty anchor table.
func NewAnchors() *Anchors { return &Anchors{} }

// Set stores the instructions of an anchor. An existing anchor keeps its position.
func (a *Anchors) Set(name string, steps []Step) { a.m.set(name, steps) }

// Get returns the instructions of the named anchor and its position.
func (a *Anchors) Get(name string) ([]Step, int, bool) {
	if a == nil {
		return nil, -1, false
	}
	return a.m.get(name)
}

// At returns the anchor at position i.
func (a *Anchors) At(i int) (string, []Step, bool) {
	if a == nil {
		return "", nil, false
	}
	return a.m.at(i)
}

// Len returns the number of anchors.
func (a *Anchors) Len() int {
	if a == nil {
		return 0
	}
	return len(a.m.keys)
}

// Names returns the anchor names in order.
func (a *Anchors) Names() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.m.keys...)
}

// Merge copies every anchor of other into a. Same-named anchors are replaced
// in place, new ones are appended.
func (a *Anchors) Merge(other *Anchors) {
	for i := 0; i < other.Len(); i++ {
		name, steps, _ := other.At(i)
		a.Set(name, steps)
	}
}

// Clone returns a shallow copy; the step slices are shared since steps are immutable.
func (a *Anchors) Clone() *Anchors {
	c := NewAnchors()
	c.Merge(a)
	return c
}

// Table maps script names to their anchors, in load order.
type Table struct {
	m ordered[*Anchors]
}

func NewTable() *Table { return &Table{} }

// Set stores a script, replacing any previous one with the same name.
func (t *Table) Set(name string, anchors *Anchors) { t.m.set(name, anchors) }

// Get returns the named script and its position.
func (t *Table) Get(name string) (*Anchors, int, bool) {
	if t == nil {
		return nil, -1, false
	}
	return t.m.get(name)
}

// At returns the script at position i.
func (t *Table) At(i int) (string, *Anchors, bool) {
	if t == nil {
		return "", nil, false
	}
	return t.m.at(i)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.m.keys)
}

func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.m.keys...)
}
