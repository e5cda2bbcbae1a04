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

// Package ai provides the model adapters used by ingestion and search: text
// embedding, per-frame visual analysis, and audio transcription, all backed
// by Gemini through the google.golang.org/genai Vertex AI client.
//
// Every adapter sits behind a small interface so the pipeline and the search
// engine can be tested with fakes. The generative adapters share a
// quota-aware wrapper that enforces a request rate and retries transient
// failures.
package ai

import (
	"context"

	"google.golang.org/genai"

	"github.com/muziris-studio/broll-search/internal/core/model"
)

// Logical model names looked up in the configuration maps.
const (
	EmbeddingKeyDefault = "default"
	AgentKeyVision      = "vision"
	AgentKeyTranscribe  = "transcribe"
)

// EmbeddingProvider turns text into an embedding vector.
type EmbeddingProvider interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
}

// VisionAnalyzer produces a structured analysis of a single video frame.
// The dialogue argument carries nearby transcript text so the model can
// ground its scene description.
type VisionAnalyzer interface {
	AnalyzeFrame(ctx context.Context, image []byte, mimeType string, dialogue string) (*model.FrameAnalysis, error)
}

// Transcriber produces time-aligned transcript segments from an audio track.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) ([]model.TranscriptSegment, error)
}

// DefaultSafetySettings disables content blocking for every harm category.
// The inputs here are user-owned footage, not open web content, and a
// blocked analysis response would strand the video in processing.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}
