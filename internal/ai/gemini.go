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

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/muziris-studio/broll-search/internal/config"
	"github.com/muziris-studio/broll-search/internal/core/model"
)

// Clients bundles the three model adapters the application needs. It is the
// ai-side counterpart of the application state container.
type Clients struct {
	GenAI       *genai.Client
	Embedder    *GeminiEmbedder
	Vision      *GeminiVision
	Transcriber *GeminiTranscriber
}

// NewClients creates the Vertex AI client and wires up the embedding,
// vision, and transcription adapters from the configuration maps.
func NewClients(ctx context.Context, cfg *config.Config) (*Clients, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Application.GoogleProjectId,
		Location: cfg.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	embCfg, ok := cfg.EmbeddingModels[EmbeddingKeyDefault]
	if !ok {
		return nil, fmt.Errorf("missing embedding model config %q", EmbeddingKeyDefault)
	}
	visionModel, err := agentModel(gc, cfg, AgentKeyVision)
	if err != nil {
		return nil, err
	}
	transcribeModel, err := agentModel(gc, cfg, AgentKeyTranscribe)
	if err != nil {
		return nil, err
	}

	return &Clients{
		GenAI:       gc,
		Embedder:    NewGeminiEmbedder(gc.Models, embCfg.Model, embCfg.MaxRequestsPerMinute),
		Vision:      &GeminiVision{model: visionModel, prompt: cfg.PromptTemplates.VisionPrompt},
		Transcriber: &GeminiTranscriber{model: transcribeModel, prompt: cfg.PromptTemplates.TranscribePrompt},
	}, nil
}

// agentModel builds a quota-aware generative model from one entry of the
// agent_models configuration map.
func agentModel(gc *genai.Client, cfg *config.Config, key string) (*QuotaAwareModel, error) {
	values, ok := cfg.GenerativeModels[key]
	if !ok {
		return nil, fmt.Errorf("missing agent model config %q", key)
	}
	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](values.Temperature),
		TopP:             genai.Ptr[float32](values.TopP),
		MaxOutputTokens:  values.MaxTokens,
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: values.OutputFormat,
	}
	if values.SystemInstructions != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: values.SystemInstructions}},
		}
	}
	return NewQuotaAwareModel(gc.Models, values.Model, genConfig, values.RateLimit), nil
}

// GeminiEmbedder implements EmbeddingProvider over the EmbedContent API with
// a per-minute rate limit.
type GeminiEmbedder struct {
	models  *genai.Models
	name    string
	limiter *rate.Limiter
}

// NewGeminiEmbedder creates an embedder limited to maxPerMinute requests.
func NewGeminiEmbedder(models *genai.Models, name string, maxPerMinute int) *GeminiEmbedder {
	if maxPerMinute <= 0 {
		maxPerMinute = 60
	}
	return &GeminiEmbedder{
		models:  models,
		name:    name,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxPerMinute)), maxPerMinute),
	}
}

// EmbedText returns the embedding vector for one piece of text.
func (e *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := e.models.EmbedContent(ctx, e.name, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embed content: empty embedding for model %s", e.name)
	}
	values := resp.Embeddings[0].Values
	vec := make([]float64, len(values))
	for i, f := range values {
		vec[i] = float64(f)
	}
	return vec, nil
}

// GeminiVision implements VisionAnalyzer. The frame image is sent inline
// together with the analysis prompt and any nearby dialogue.
type GeminiVision struct {
	model  *QuotaAwareModel
	prompt string
}

// AnalyzeFrame asks the vision model for the structured frame analysis.
func (v *GeminiVision) AnalyzeFrame(ctx context.Context, image []byte, mimeType string, dialogue string) (*model.FrameAnalysis, error) {
	promptText := v.prompt
	if dialogue != "" {
		promptText += "\n\nDialogue near this frame:\n" + dialogue
	}
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			{Text: promptText},
		},
	}}
	raw, err := v.model.GenerateText(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("frame analysis: %w", err)
	}
	var analysis model.FrameAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("parse frame analysis: %w", err)
	}
	return &analysis, nil
}

// GeminiTranscriber implements Transcriber. The audio track is sent inline
// and the model returns time-aligned segments as JSON.
type GeminiTranscriber struct {
	model  *QuotaAwareModel
	prompt string
}

// Transcribe asks the transcription model for the segment list. Responses
// arrive either as a bare array or wrapped in a "segments" object, depending
// on the model's mood, so both shapes are accepted.
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) ([]model.TranscriptSegment, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
			{Text: t.prompt},
		},
	}}
	raw, err := t.model.GenerateText(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}

	var segments []model.TranscriptSegment
	if err := json.Unmarshal([]byte(raw), &segments); err == nil {
		return segments, nil
	}
	var wrapped struct {
		Segments []model.TranscriptSegment `json:"segments"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return nil, fmt.Errorf("parse transcription: %w", err)
	}
	return wrapped.Segments, nil
}
