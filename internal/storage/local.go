// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muziris-studio/broll-search/internal/config"
)

// Local stores objects on the filesystem, mapping the leading category
// segment of each object name onto a configured directory.
type Local struct {
	dirs map[string]string
}

// NewLocal creates a local store and its backing directories.
func NewLocal(cfg config.Storage) (*Local, error) {
	if cfg.MediaDir == "" {
		return nil, fmt.Errorf("local storage requires media_dir")
	}
	if cfg.ThumbnailDir == "" {
		cfg.ThumbnailDir = filepath.Join(cfg.MediaDir, "thumbnails")
	}
	if cfg.FrameDir == "" {
		cfg.FrameDir = filepath.Join(cfg.MediaDir, "frames")
	}
	dirs := map[string]string{
		"media":      cfg.MediaDir,
		"thumbnails": cfg.ThumbnailDir,
		"frames":     cfg.FrameDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &Local{dirs: dirs}, nil
}

// resolve maps an object name onto a filesystem path, rejecting names that
// would escape the storage directories.
func (l *Local) resolve(name string) (string, error) {
	category, rest, ok := strings.Cut(name, "/")
	if !ok || rest == "" {
		return "", fmt.Errorf("object name %q lacks a category segment", name)
	}
	dir, ok := l.dirs[category]
	if !ok {
		return "", fmt.Errorf("unknown object category %q", category)
	}
	cleaned := filepath.Clean(rest)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("object name %q escapes storage root", name)
	}
	return filepath.Join(dir, cleaned), nil
}

func (l *Local) Save(ctx context.Context, name string, r io.Reader, contentType string) error {
	path, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create object %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write object %s: %w", name, err)
	}
	return f.Close()
}

func (l *Local) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", name, err)
	}
	return f, nil
}

func (l *Local) Delete(ctx context.Context, name string) error {
	path, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object %s: %w", name, err)
	}
	return nil
}

// DeletePrefix removes every object under a name prefix, e.g.
// "frames/clip/" after a video is deleted.
func (l *Local) DeletePrefix(ctx context.Context, prefix string) error {
	path, err := l.resolve(strings.TrimSuffix(prefix, "/"))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("delete prefix %s: %w", prefix, err)
	}
	return nil
}

// StreamTarget returns the local file path; the HTTP layer serves it with
// range support directly.
func (l *Local) StreamTarget(ctx context.Context, name string, expires time.Duration) (Target, error) {
	path, err := l.resolve(name)
	if err != nil {
		return Target{}, err
	}
	if _, err := os.Stat(path); err != nil {
		return Target{}, fmt.Errorf("stat object %s: %w", name, err)
	}
	return Target{Path: path}, nil
}
