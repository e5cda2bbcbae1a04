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
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/muziris-studio/broll-search/internal/config"
)

// GCS stores objects in a single Cloud Storage bucket. Streaming hands out
// V4 signed URLs so browsers fetch video bytes from GCS directly instead of
// proxying them through the API server.
type GCS struct {
	client      *storage.Client
	bucket      string
	signerEmail string
}

// NewGCS creates a Cloud Storage backed store.
func NewGCS(ctx context.Context, cfg config.Storage) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs storage requires a bucket name")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: cfg.Bucket, signerEmail: cfg.SignerEmail}, nil
}

func (g *GCS) Save(ctx context.Context, name string, r io.Reader, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", g.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish gs://%s/%s: %w", g.bucket, name, err)
	}
	return nil
}

func (g *GCS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(g.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", g.bucket, name, err)
	}
	return r, nil
}

func (g *GCS) Delete(ctx context.Context, name string) error {
	err := g.client.Bucket(g.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gs://%s/%s: %w", g.bucket, name, err)
	}
	return nil
}

// DeletePrefix removes every object under a name prefix.
func (g *GCS) DeletePrefix(ctx context.Context, prefix string) error {
	bucket := g.client.Bucket(g.bucket)
	it := bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list gs://%s/%s: %w", g.bucket, prefix, err)
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil &&
			!errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete gs://%s/%s: %w", g.bucket, attrs.Name, err)
		}
	}
}

// StreamTarget returns a time-limited V4 signed URL for the object. When a
// signer email is configured the URL is signed through the IAM Credentials
// API; otherwise the client library falls back to local credentials.
func (g *GCS) StreamTarget(ctx context.Context, name string, expires time.Duration) (Target, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: g.signerEmail,
	}
	u, err := g.client.Bucket(g.bucket).SignedURL(name, opts)
	if err != nil {
		return Target{}, fmt.Errorf("sign gs://%s/%s: %w", g.bucket, name, err)
	}
	return Target{URL: u}, nil
}
