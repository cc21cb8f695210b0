/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package audio plays background music through the system speaker.
// Tracks are WAV data held in memory, as loaded from the music manifest.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	glog "github.com/HiruNya/gobu/internal/log"
)

const sampleRate = beep.SampleRate(44100)

// ErrNotInitialized is returned by Set before Init succeeded.
var ErrNotInitialized = errors.New("audio: speaker not initialized")

// Player plays one track at a time, replacing the previous one.
type Player struct {
	mu      sync.Mutex
	loop    bool
	ready   bool
	ctrl    *beep.Ctrl
	current beep.StreamSeekCloser
	logger  *slog.Logger
}

// NewPlayer returns a player; loop repeats every track until replaced.
func NewPlayer(loop bool) *Player {
	return &Player{loop: loop, logger: glog.WithComponent("audio")}
}

// Init opens the speaker. It fails on machines without an audio device.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("audio: init speaker: %w", err)
	}
	p.ready = true
	return nil
}

// Set decodes data and starts playing it.
func (p *Player) Set(name string, data []byte) error {
	s, format, err := decode(data)
	if err != nil {
		return fmt.Errorf("audio: %s: %w", name, err)
	}
	var st beep.Streamer = s
	if p.loop {
		st = beep.Loop(-1, s)
	}
	if format.SampleRate != sampleRate {
		st = beep.Resample(4, format.SampleRate, sampleRate, st)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		_ = s.Close()
		return ErrNotInitialized
	}
	speaker.Clear()
	p.closeCurrent()
	p.ctrl = &beep.Ctrl{Streamer: st}
	p.current = s
	speaker.Play(p.ctrl)
	p.logger.Info("music started", slog.String("track", name), slog.Duration("length", format.SampleRate.D(s.Len())))
	return nil
}

// Stop silences the current track.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return nil
	}
	speaker.Clear()
	p.closeCurrent()
	return nil
}

func (p *Player) closeCurrent() {
	if p.current != nil {
		if err := p.current.Close(); err != nil {
			p.logger.Debug("close track", slog.Any("err", err))
		}
	}
	p.current, p.ctrl = nil, nil
}

// Length reports the length of a track without playing it.
func Length(data []byte) (time.Duration, error) {
	s, format, err := decode(data)
	if err != nil {
		return 0, err
	}
	defer s.Close()
	return format.SampleRate.D(s.Len()), nil
}

func decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	if len(data) < 12 || !bytes.Equal(data[:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, beep.Format{}, errors.New("unsupported format, want WAV")
	}
	return wav.Decode(bytes.NewReader(data))
}
