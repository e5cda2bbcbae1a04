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

// Package store persists the video library metadata: video records, audio
// transcript segments, and analyzed visual frames, embeddings included.
//
// Two backends share one implementation over database/sql. SQLite (via
// modernc.org/sqlite, no cgo) is the default for single-node deployments;
// Postgres (via lib/pq) serves shared deployments. Queries are written with
// "?" placeholders and rebound to "$n" for Postgres.
//
// Embeddings are stored as JSON-encoded float arrays in binary columns.
// Segment reads skip rows whose embedding is missing or empty, so a crash
// mid-ingest never surfaces unsearchable rows.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/muziris-studio/broll-search/internal/config"
	"github.com/muziris-studio/broll-search/internal/core/model"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrVideoNotFound is returned when a video lookup matches no row.
var ErrVideoNotFound = errors.New("video not found")

// MetadataStore is the persistence port used by the API handlers and the
// ingestion pipeline. The search engine consumes the narrower SegmentSource
// view of the same store.
type MetadataStore interface {
	CreateVideo(ctx context.Context, v *model.Video) error
	GetVideo(ctx context.Context, id string) (*model.Video, error)
	GetVideoByFilename(ctx context.Context, filename string) (*model.Video, error)
	ListVideos(ctx context.Context) ([]model.Video, error)
	UpdateVideoStatus(ctx context.Context, id string, status string) error
	UpdateVideoMedia(ctx context.Context, id string, duration float64, thumbnail string) error
	DeleteVideo(ctx context.Context, id string) error

	AddCustomTag(ctx context.Context, id string, tag string) (string, error)
	RemoveCustomTag(ctx context.Context, id string, tag string) (string, error)

	PutAudioSegment(ctx context.Context, seg *model.AudioSegment) error
	PutVisualSegment(ctx context.Context, seg *model.VisualSegment) error
	AudioSegments(ctx context.Context) ([]model.AudioSegment, error)
	VisualSegments(ctx context.Context) ([]model.VisualSegment, error)
	DeleteSegments(ctx context.Context, videoID string) error

	DistinctEmotions(ctx context.Context) ([]string, error)
	DistinctGenres(ctx context.Context) ([]string, error)

	Close() error
}

// Store implements MetadataStore over a database/sql connection.
type Store struct {
	db     *sql.DB
	driver string
}

// Open selects a backend from the database configuration.
func Open(cfg config.Database) (*Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(cfg.Path)
	case DriverPostgres:
		return OpenPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites "?" placeholders to "$n" for the Postgres driver. SQLite
// queries pass through untouched.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// encodeEmbedding serializes a vector for storage. A nil or empty vector is
// stored as NULL so segment reads can exclude it.
func encodeEmbedding(vec []float64) (any, error) {
	if len(vec) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}
	return raw, nil
}

// decodeEmbedding deserializes a stored vector. Empty payloads decode to nil.
func decodeEmbedding(raw []byte) ([]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	return vec, nil
}

// splitTags parses a comma-separated tag list, trimming blanks.
func splitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
