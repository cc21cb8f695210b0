/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets owns the images referenced by character and background
// manifests. Everything else refers to an image through a Handle.
package assets

import (
	"bufio"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	glog "github.com/HiruNya/gobu/internal/log"
)

// Handle refers to an image registered in an Arena. The zero Handle refers to nothing.
type Handle int

func (h Handle) Valid() bool { return h > 0 }

// Image is what the engine knows about an image file: where it is, its format
// and its pixel size. Decoding pixels is left to the renderer.
type Image struct {
	Path   string
	Format string
	Width  int
	Height int
	// Err is set when the header could not be read; Width and Height are then zero.
	Err error
}

// Arena registers images once per path and hands out stable handles.
type Arena struct {
	images []Image
	byPath map[string]Handle
	logger *slog.Logger
}

func NewArena() *Arena {
	return &Arena{byPath: make(map[string]Handle), logger: glog.WithComponent("assets")}
}

// Register returns the handle for path, reading the image header the first
// time the path is seen. An unreadable image still gets a handle so the
// manifest that names it keeps loading.
func (a *Arena) Register(path string) Handle {
	key := filepath.Clean(path)
	if h, ok := a.byPath[key]; ok {
		return h
	}
	img := Image{Path: key}
	w, h, format, err := decodeHeader(key)
	if err != nil {
		img.Err = err
		a.logger.Warn("image header unreadable", slog.String("path", key), slog.Any("err", err))
	} else {
		img.Width, img.Height, img.Format = w, h, format
	}
	a.images = append(a.images, img)
	handle := Handle(len(a.images))
	a.byPath[key] = handle
	return handle
}

// Get returns the image behind h.
func (a *Arena) Get(h Handle) (Image, bool) {
	if a == nil || !h.Valid() || int(h) > len(a.images) {
		return Image{}, false
	}
	return a.images[h-1], true
}

// Size returns the pixel size of the image behind h, or zeros.
func (a *Arena) Size(h Handle) (int, int) {
	img, _ := a.Get(h)
	return img.Width, img.Height
}

func (a *Arena) Len() int {
	if a == nil {
		return 0
	}
	return len(a.images)
}

func decodeHeader(path string) (int, int, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, "", err
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return 0, 0, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, format, nil
}
