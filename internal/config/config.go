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

// Package config defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the metadata database, object storage, AI models, ingestion, and the
// search relevance weights.
//
// Structs:
//   - Database: Configuration for the metadata store (SQLite or Postgres).
//   - Storage: Configuration for the clip object store (local disk or GCS).
//   - EmbeddingModel: Configuration for a text embedding model.
//   - GenerativeModel: Configuration for a generative model (vision, transcription).
//   - PromptTemplates: Text templates for prompts sent to generative models.
//   - SearchWeights: The named lexical boost weights and score thresholds.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with empty maps.
//   - DefaultSearchWeights: The built-in relevance weight table.
package config

// Database represents the configuration for the metadata store. Exactly one
// backend is active at a time, selected by Driver.
type Database struct {
	Driver string `toml:"driver"` // The store backend: "sqlite" or "postgres".
	Path   string `toml:"path"`   // The SQLite database file path (sqlite driver only).
	DSN    string `toml:"dsn"`    // The Postgres connection string (postgres driver only).
}

// Storage represents the configuration for where raw clips, thumbnails, and
// sampled frames live.
type Storage struct {
	Backend      string `toml:"backend"`       // The object store backend: "local" or "gcs".
	MediaDir     string `toml:"media_dir"`     // The local directory for uploaded clips.
	ThumbnailDir string `toml:"thumbnail_dir"` // The local directory for generated thumbnails.
	FrameDir     string `toml:"frame_dir"`     // The local scratch directory for sampled frames.
	Bucket       string `toml:"bucket"`        // The GCS bucket name (gcs backend only).
	SignerEmail  string `toml:"signer_email"`  // The service account email used for signing GCS URLs.
}

// EmbeddingModel represents the configuration for a text embedding model.
type EmbeddingModel struct {
	Model                string `toml:"model"`                   // The name of the embedding model.
	MaxRequestsPerMinute int    `toml:"max_requests_per_minute"` // The maximum number of requests allowed per minute.
}

// GenerativeModel represents the configuration for a generative model used
// for frame analysis or audio transcription.
type GenerativeModel struct {
	Model              string  `toml:"model"`               // The name of the generative model.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the model.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter for the model.
	TopP               float32 `toml:"top_p"`               // The top_p parameter for the model.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens for the model output.
	OutputFormat       string  `toml:"output_format"`       // The desired output format (e.g., "application/json").
	RateLimit          int     `toml:"rate_limit"`          // The rate limit for the model in requests per second.
}

// PromptTemplates holds the templates for the different generative calls.
type PromptTemplates struct {
	VisionPrompt     string `toml:"vision"`     // The template for per-frame visual analysis.
	TranscribePrompt string `toml:"transcribe"` // The template for audio transcription.
}

// FFmpeg holds the paths to the external media tools used by ingestion.
type FFmpeg struct {
	FFmpegPath  string `toml:"ffmpeg_path"`  // The path to the ffmpeg executable.
	FFprobePath string `toml:"ffprobe_path"` // The path to the ffprobe executable.
}

// SearchWeights holds the named lexical boost weights, score thresholds, and
// the result cap used by the relevance engine. Any field left at zero in the
// TOML file falls back to its built-in default.
type SearchWeights struct {
	CustomTags      float64 `toml:"custom_tags"`      // Boost for a user-assigned tag match.
	ActorFull       float64 `toml:"actor_full"`       // Boost for a full actor name match.
	ActorToken      float64 `toml:"actor_token"`      // Boost for a single actor name token match.
	SeriesMovie     float64 `toml:"series_movie"`     // Boost for a series or movie title match.
	Description     float64 `toml:"description"`      // Boost for a visual description match.
	DeepEmotions    float64 `toml:"deep_emotions"`    // Boost for a deep emotion text match.
	OCRText         float64 `toml:"ocr_text"`         // Boost for an on-screen text match.
	SceneContext    float64 `toml:"scene_context"`    // Boost for a scene context match.
	FlatTags        float64 `toml:"flat_tags"`        // Boost for an uncategorized tag match.
	EmotionTags     float64 `toml:"emotion_tags"`     // Boost for an emotion tag match.
	LaughTags       float64 `toml:"laugh_tags"`       // Boost for a laugh tag match.
	ContextualTags  float64 `toml:"contextual_tags"`  // Boost for a contextual tag match.
	CharacterTags   float64 `toml:"character_tags"`   // Boost for a character tag match.
	SemanticTags    float64 `toml:"semantic_tags"`    // Boost for a semantic tag match.
	EmotionFallback float64 `toml:"emotion_fallback"` // Weak boost applied when only an emotion synonym matched.
	AudioExact      float64 `toml:"audio_exact"`      // Boost for an exact transcript substring match.
	AudioThreshold  float64 `toml:"audio_threshold"`  // Minimum boosted score for an audio result.
	VisualThreshold float64 `toml:"visual_threshold"` // Minimum boosted score for a visual result.
	MaxResults      int     `toml:"max_results"`      // The maximum number of results returned per search.
}

// DefaultSearchWeights returns the built-in relevance weight table. The
// ordering of the tag weights matters: categorized tags carry more weight
// than the flat tag list because they are curated per category.
func DefaultSearchWeights() SearchWeights {
	return SearchWeights{
		CustomTags:      0.50,
		ActorFull:       0.45,
		ActorToken:      0.42,
		SeriesMovie:     0.40,
		Description:     0.35,
		DeepEmotions:    0.32,
		OCRText:         0.30,
		SceneContext:    0.28,
		FlatTags:        0.25,
		EmotionTags:     0.45,
		LaughTags:       0.45,
		ContextualTags:  0.43,
		CharacterTags:   0.43,
		SemanticTags:    0.40,
		EmotionFallback: 0.25,
		AudioExact:      0.35,
		AudioThreshold:  0.40,
		VisualThreshold: 0.30,
		MaxResults:      20,
	}
}

// Merge fills any zero-valued weight with its default so that a TOML file
// only needs to name the weights it wants to override.
func (w SearchWeights) Merge() SearchWeights {
	d := DefaultSearchWeights()
	fill := func(v, def float64) float64 {
		if v == 0 {
			return def
		}
		return v
	}
	w.CustomTags = fill(w.CustomTags, d.CustomTags)
	w.ActorFull = fill(w.ActorFull, d.ActorFull)
	w.ActorToken = fill(w.ActorToken, d.ActorToken)
	w.SeriesMovie = fill(w.SeriesMovie, d.SeriesMovie)
	w.Description = fill(w.Description, d.Description)
	w.DeepEmotions = fill(w.DeepEmotions, d.DeepEmotions)
	w.OCRText = fill(w.OCRText, d.OCRText)
	w.SceneContext = fill(w.SceneContext, d.SceneContext)
	w.FlatTags = fill(w.FlatTags, d.FlatTags)
	w.EmotionTags = fill(w.EmotionTags, d.EmotionTags)
	w.LaughTags = fill(w.LaughTags, d.LaughTags)
	w.ContextualTags = fill(w.ContextualTags, d.ContextualTags)
	w.CharacterTags = fill(w.CharacterTags, d.CharacterTags)
	w.SemanticTags = fill(w.SemanticTags, d.SemanticTags)
	w.EmotionFallback = fill(w.EmotionFallback, d.EmotionFallback)
	w.AudioExact = fill(w.AudioExact, d.AudioExact)
	w.AudioThreshold = fill(w.AudioThreshold, d.AudioThreshold)
	w.VisualThreshold = fill(w.VisualThreshold, d.VisualThreshold)
	if w.MaxResults == 0 {
		w.MaxResults = d.MaxResults
	}
	return w
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other configuration
// structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		Port            int    `toml:"port"`              // The HTTP listen port.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID for the GenAI client.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location for the GenAI client.
		ThreadPoolSize  int    `toml:"thread_pool_size"`  // The size of the worker pool for video processing.
	} `toml:"application"`
	Database         Database                   `toml:"database"`         // Metadata store configuration.
	Storage          Storage                    `toml:"storage"`          // Object storage configuration.
	PromptTemplates  PromptTemplates            `toml:"prompt_templates"` // Prompt templates configuration.
	EmbeddingModels  map[string]EmbeddingModel  `toml:"embedding_models"` // A map of embedding models, keyed by a logical name (e.g., "default").
	GenerativeModels map[string]GenerativeModel `toml:"agent_models"`     // A map of generative models, keyed by a logical name (e.g., "vision").
	FFmpeg           FFmpeg                     `toml:"ffmpeg"`           // External media tool paths.
	SearchWeights    SearchWeights              `toml:"search_weights"`   // Relevance weight overrides.
}

// NewConfig is a constructor function that creates a new, initialized Config
// instance. It's important to initialize the maps within the struct to avoid
// nil pointer panics when the configuration loader tries to populate them.
func NewConfig() *Config {
	return &Config{
		EmbeddingModels:  make(map[string]EmbeddingModel),
		GenerativeModels: make(map[string]GenerativeModel),
	}
}
