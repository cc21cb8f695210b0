/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import "fmt"

// ImportKind classifies why an import failed.
type ImportKind int

const (
	// KindIO means a file could not be read.
	KindIO ImportKind = iota + 1
	// KindSyntax means a script file did not parse.
	KindSyntax
	// KindManifest means a manifest was not valid TOML or had the wrong shape.
	KindManifest
)

func (k ImportKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindSyntax:
		return "syntax"
	case KindManifest:
		return "manifest"
	default:
		return fmt.Sprintf("ImportKind(%d)", int(k))
	}
}

// ImportError reports the file an import failed on. Err is the underlying
// *script.ParseError, toml error or fs error.
type ImportError struct {
	Kind ImportKind
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }
