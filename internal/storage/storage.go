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

// Package storage abstracts where media objects live: uploaded clips,
// generated thumbnails, and sampled frame images.
//
// Object names are slash-separated with a leading category segment, e.g.
// "media/clip.mp4", "thumbnails/clip.jpg", "frames/clip/0001.jpg". The
// local backend maps categories onto configured directories; the GCS
// backend stores the names verbatim in one bucket and hands out V4 signed
// URLs for streaming.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/muziris-studio/broll-search/internal/config"
)

// Backend names accepted by New.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

// Target tells the HTTP layer how to serve an object: either a local file
// path to serve directly or a signed URL to redirect to. Exactly one field
// is set.
type Target struct {
	Path string
	URL  string
}

// ObjectStore is the persistence port for media objects.
type ObjectStore interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	DeletePrefix(ctx context.Context, prefix string) error
	StreamTarget(ctx context.Context, name string, expires time.Duration) (Target, error)
}

// New selects a backend from the storage configuration.
func New(ctx context.Context, cfg config.Storage) (ObjectStore, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		return NewLocal(cfg)
	case BackendGCS:
		return NewGCS(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
