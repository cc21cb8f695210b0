/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stage

import "errors"

// ErrUnknownMusic is returned by PlayMusic for keys missing from the music library.
var ErrUnknownMusic = errors.New("unknown music")

// MusicPlayer plays one track at a time. Set replaces whatever is playing.
type MusicPlayer interface {
	Set(name string, data []byte) error
	Stop() error
}

// NopPlayer accepts every track and plays nothing.
type NopPlayer struct{}

func (NopPlayer) Set(string, []byte) error { return nil }
func (NopPlayer) Stop() error              { return nil }
