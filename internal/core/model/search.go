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

// This file contains the wire types for the search surface: the request
// taken from the client and the ranked result entries returned to it.
package model

import "fmt"

// Result source values. A result comes either from a transcript segment or
// from an analyzed frame.
const (
	SourceAudio  = "audio"
	SourceVisual = "visual"
)

// SearchRequest is the client's query plus the explicit filters. Filters are
// multi-select: a segment passes when it matches any of the requested values.
// A request with an empty query and no filters yields an empty response
// without the embedding provider ever being called.
type SearchRequest struct {
	Query    string   `json:"query"`              // The free-text query.
	Emotions []string `json:"emotions,omitempty"` // Explicit emotion filters, matched against segment emotion labels.
	Genres   []string `json:"genres,omitempty"`   // Explicit genre filters; apply to visual segments only.
}

// HasFilters reports whether any explicit filter is set.
func (r SearchRequest) HasFilters() bool {
	return len(r.Emotions) > 0 || len(r.Genres) > 0
}

// SearchResult is one ranked entry in a search response.
type SearchResult struct {
	ID         string  `json:"id"`         // "audio_<row>" or "visual_<row>", unique within a response.
	VideoID    string  `json:"video_id"`   // The owning video's UUID.
	Filename   string  `json:"filename"`   // The owning video's filename.
	Timestamp  float64 `json:"timestamp"`  // The seek position for the player.
	StartTime  float64 `json:"start_time"` // Result window start in seconds.
	EndTime    float64 `json:"end_time"`   // Result window end in seconds.
	Duration   float64 `json:"duration"`   // Result window length in seconds.
	Text       string  `json:"text"`       // The display text: a transcript line or a visual summary.
	Similarity float64 `json:"similarity"` // The boosted cosine similarity, capped at 1.0.
	Source     string  `json:"source"`     // SourceAudio or SourceVisual.

	Emotion     string `json:"emotion,omitempty"`      // The frame's emotion label (visual results only).
	Genres      string `json:"genres,omitempty"`       // The frame's genre labels (visual results only).
	CustomTags  string `json:"custom_tags,omitempty"`  // The owning video's user-assigned tags.
	TagSet      TagSet `json:"tag_set,omitempty"`      // The frame's categorized tags (visual results only).
	SeriesMovie string `json:"series_movie,omitempty"` // The recognized series or movie (visual results only).
}

// SearchResponse is the ranked result list. Message carries a human-readable
// explanation when the list is empty (e.g., a detected title with no matching
// footage).
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Message string         `json:"message,omitempty"`
}

// AudioResultID formats the stable result ID for an audio segment row.
func AudioResultID(row int64) string { return fmt.Sprintf("audio_%d", row) }

// VisualResultID formats the stable result ID for a visual segment row.
func VisualResultID(row int64) string { return fmt.Sprintf("visual_%d", row) }
