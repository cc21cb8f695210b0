/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backlog keeps the dialogue the reader has already seen so it can be
// scrolled back through.
package backlog

import (
	"sync"
	"time"
)

// Entry is one displayed line. Repeats counts consecutive identical lines
// folded into this entry.
type Entry struct {
	Speaker string
	Text    string
	Script  string
	Anchor  string
	TS      time.Time
	Repeats int
}

func (e Entry) size() int { return len(e.Speaker) + len(e.Text) + len(e.Script) + len(e.Anchor) }

func (e Entry) same(o Entry) bool {
	return e.Speaker == o.Speaker && e.Text == o.Text && e.Script == o.Script && e.Anchor == o.Anchor
}

// Config controls memory and depth caps.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxEntries limits how many lines are kept (0 means unlimited).
	MaxEntries int
}

// Log is a bounded history of displayed dialogue, oldest first.
// It is safe for concurrent use.
type Log struct {
	cfg     Config
	mu      sync.Mutex
	entries []Entry
	// accounting
	totalBytes int
	now        func() time.Time
}

func New(cfg Config) *Log {
	// Set conservative defaults if not provided
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1024 * 1024 // 1 MiB
	}
	return &Log{cfg: cfg, now: time.Now}
}

// Record appends a line. A line identical to the previous one is folded into it.
func (l *Log) Record(speaker, text, scriptName, anchor string) {
	l.Push(Entry{Speaker: speaker, Text: text, Script: scriptName, Anchor: anchor, TS: l.now()})
}

// Push appends e, coalescing it with the last entry when they are identical.
func (l *Log) Push(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.entries); n > 0 && l.entries[n-1].same(e) {
		l.entries[n-1].TS = e.TS
		l.entries[n-1].Repeats++
		return
	}
	e.Repeats = 0
	l.entries = append(l.entries, e)
	l.totalBytes += e.size()
	l.enforceCapsLocked()
}

// Entries returns a copy of the history, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Last returns up to n of the most recent entries, oldest first.
func (l *Log) Last(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	return append([]Entry(nil), l.entries[len(l.entries)-n:]...)
}

// Clear forgets everything, e.g. when a new game starts.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.totalBytes = 0
}

// Stats returns current sizes for diagnostics.
func (l *Log) Stats() (totalBytes int, entries int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalBytes, len(l.entries)
}

func (l *Log) enforceCapsLocked() {
	drop := 0
	if l.cfg.MaxEntries > 0 && len(l.entries) > l.cfg.MaxEntries {
		drop = len(l.entries) - l.cfg.MaxEntries
	}
	for i := 0; i < drop; i++ {
		l.totalBytes -= l.entries[i].size()
	}
	// Global memory cap: prune oldest, but keep the newest line
	for l.cfg.MaxBytes > 0 && l.totalBytes > l.cfg.MaxBytes && len(l.entries)-drop > 1 {
		l.totalBytes -= l.entries[drop].size()
		drop++
	}
	if drop > 0 {
		l.entries = append([]Entry{}, l.entries[drop:]...)
	}
}
