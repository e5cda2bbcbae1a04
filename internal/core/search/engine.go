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

// Package search implements the search-time relevance engine: cosine
// similarity over stored embeddings, lexically boosted by the metadata
// fields the query literally matches, hard-filtered by the entities the
// query names, and ranked into a single capped list across audio and visual
// candidates.
//
// This file contains the Engine, which orchestrates one search request:
//
//  1. Normalize the query and run entity detection over it.
//  2. Short-circuit the trivial cases: an empty request returns nothing
//     without calling the embedding provider; an empty query with explicit
//     filters browses the visual library at full similarity.
//  3. Embed the query once.
//  4. Score every audio and visual segment, skipping candidates the hard
//     filters exclude and candidates with invalid stored embeddings.
//  5. Sort stably by boosted similarity and cap the result list.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/muziris-studio/broll-search/internal/config"
	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search/lexicon"
)

// visualWindowSeconds is the playback window suggested for a visual result.
// A frame is an instant; the window gives the editor usable surrounding
// footage.
const visualWindowSeconds = 10.0

// SegmentSource supplies the searchable candidates. Implementations must
// exclude rows whose stored embedding is null or empty.
type SegmentSource interface {
	AudioSegments(ctx context.Context) ([]model.AudioSegment, error)
	VisualSegments(ctx context.Context) ([]model.VisualSegment, error)
}

// Embedder turns query text into an embedding vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
}

// Engine answers search requests. It is safe for concurrent use.
type Engine struct {
	source   SegmentSource
	embedder Embedder
	detector *Detector
	booster  *Booster
	weights  config.SearchWeights
	tracer   trace.Tracer
}

// NewEngine wires a relevance engine over a segment source, an embedding
// provider, a lexicon, and a weight table.
func NewEngine(source SegmentSource, embedder Embedder, lex *lexicon.Lexicon, weights config.SearchWeights) *Engine {
	booster := NewBooster(weights, lex)
	return &Engine{
		source:   source,
		embedder: embedder,
		detector: NewDetector(lex),
		booster:  booster,
		weights:  booster.Weights(),
		tracer:   otel.Tracer("broll-search/engine"),
	}
}

// Search executes one request end to end.
func (e *Engine) Search(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, error) {
	ctx, span := e.tracer.Start(ctx, "search")
	defer span.End()

	query := Normalize(req.Query)
	emotionFilters := normalizeFilters(req.Emotions)
	genreFilters := normalizeFilters(req.Genres)

	// Nothing to search for and nothing to browse by.
	if query == "" && len(emotionFilters) == 0 && len(genreFilters) == 0 {
		return &model.SearchResponse{Results: []model.SearchResult{}}, nil
	}

	// Filter-only browsing: every visual segment qualifies at full
	// similarity and only the explicit filters narrow the list. The
	// embedding provider is never called.
	if query == "" {
		return e.browse(ctx, emotionFilters, genreFilters)
	}

	det := e.detector.Detect(query)

	queryVec, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	var results []model.SearchResult

	// Audio candidates. An explicit emotion or genre filter describes
	// visual properties, so either one removes the audio side entirely.
	if len(emotionFilters) == 0 && len(genreFilters) == 0 {
		audio, err := e.source.AudioSegments(ctx)
		if err != nil {
			return nil, &StoreError{Op: "audio scan", Err: err}
		}
		for i := range audio {
			seg := &audio[i]
			if e.detector.IsFiller(seg.Transcript) && !det.WantsMusic {
				continue
			}
			if !e.detector.KeepAudio(det, seg) {
				continue
			}
			cos, err := Cosine(queryVec, seg.Embedding)
			if err != nil {
				slog.Debug("skipping audio segment with invalid embedding", "segment", seg.ID)
				continue
			}
			score := capScore(cos + e.booster.AudioBoost(query, seg.Transcript))
			if score > e.weights.AudioThreshold {
				results = append(results, audioResult(seg, score))
			}
		}
	}

	visual, err := e.source.VisualSegments(ctx)
	if err != nil {
		return nil, &StoreError{Op: "visual scan", Err: err}
	}
	for i := range visual {
		seg := &visual[i]
		if !matchesLabel(seg.Emotion, emotionFilters) {
			continue
		}
		if !matchesList(seg.Genres, genreFilters) {
			continue
		}
		if !e.detector.KeepVisual(det, seg) {
			continue
		}
		cos, err := Cosine(queryVec, seg.Embedding)
		if err != nil {
			slog.Debug("skipping visual segment with invalid embedding", "segment", seg.ID)
			continue
		}
		score := capScore(cos + e.booster.VisualBoost(query, seg))
		if score > e.weights.VisualThreshold {
			results = append(results, visualResult(seg, score))
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > e.weights.MaxResults {
		results = results[:e.weights.MaxResults]
	}

	resp := &model.SearchResponse{Results: results}
	if len(results) == 0 {
		resp.Results = []model.SearchResult{}
		resp.Message = NoResultsMessage(det.Title)
	}
	return resp, nil
}

// browse returns all visual segments that pass the explicit filters, each at
// full similarity. Store order is preserved.
func (e *Engine) browse(ctx context.Context, emotionFilters, genreFilters []string) (*model.SearchResponse, error) {
	visual, err := e.source.VisualSegments(ctx)
	if err != nil {
		return nil, &StoreError{Op: "visual scan", Err: err}
	}
	results := make([]model.SearchResult, 0, len(visual))
	for i := range visual {
		seg := &visual[i]
		if !matchesLabel(seg.Emotion, emotionFilters) {
			continue
		}
		if !matchesList(seg.Genres, genreFilters) {
			continue
		}
		results = append(results, visualResult(seg, 1.0))
		if len(results) == e.weights.MaxResults {
			break
		}
	}
	resp := &model.SearchResponse{Results: results}
	if len(results) == 0 {
		resp.Message = NoResultsMessage("")
	}
	return resp, nil
}

// normalizeFilters lowercases and trims the requested filter values,
// dropping any that normalize to nothing.
func normalizeFilters(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := Normalize(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// matchesLabel reports whether the segment's label equals one of the
// normalized filters. "sad" does not admit "sadness". An empty filter list
// admits everything.
func matchesLabel(label string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	norm := Normalize(label)
	for _, f := range filters {
		if norm == f {
			return true
		}
	}
	return false
}

// matchesList reports whether any entry of the segment's comma-separated
// label list equals one of the normalized filters. Entries match whole, so
// "action" does not admit "action-comedy". An empty filter list admits
// everything.
func matchesList(list string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, item := range strings.Split(list, ",") {
		norm := Normalize(item)
		for _, f := range filters {
			if norm == f {
				return true
			}
		}
	}
	return false
}

// capScore clamps a boosted similarity to 1.0 so a strong lexical hit on an
// already similar segment cannot exceed a perfect score.
func capScore(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	return s
}

func audioResult(seg *model.AudioSegment, score float64) model.SearchResult {
	return model.SearchResult{
		ID:         model.AudioResultID(seg.ID),
		VideoID:    seg.VideoID,
		Filename:   seg.Filename,
		Timestamp:  seg.StartTime,
		StartTime:  seg.StartTime,
		EndTime:    seg.EndTime,
		Duration:   seg.EndTime - seg.StartTime,
		Text:       seg.Transcript,
		Similarity: score,
		Source:     model.SourceAudio,
	}
}

func visualResult(seg *model.VisualSegment, score float64) model.SearchResult {
	text := "[Visual - " + seg.Emotion + "] " + seg.Description
	if seg.OCRText != "" {
		text += " | Text: \"" + seg.OCRText + "\""
	}
	return model.SearchResult{
		ID:          model.VisualResultID(seg.ID),
		VideoID:     seg.VideoID,
		Filename:    seg.Filename,
		Timestamp:   seg.Timestamp,
		StartTime:   seg.Timestamp,
		EndTime:     seg.Timestamp + visualWindowSeconds,
		Duration:    visualWindowSeconds,
		Text:        text,
		Similarity:  score,
		Source:      model.SourceVisual,
		Emotion:     seg.Emotion,
		Genres:      seg.Genres,
		CustomTags:  seg.CustomTags,
		TagSet:      seg.TagSet,
		SeriesMovie: seg.SeriesMovie,
	}
}
