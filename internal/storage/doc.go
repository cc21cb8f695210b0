/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage loads a game from disk and keeps what it derives from it.
// It decodes the TOML manifests (scripts, characters, backgrounds, music and
// transitions) and parses the script files they name. It maintains the
// embedded SQLite dialogue index at <game>/.gobu/index.sqlite used for search;
// the index is derived from the scripts and can be thrown away at any time.
// Save games are written transactionally with timestamped backups.
package storage
