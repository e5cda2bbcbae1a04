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
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	maxRetries   = 3
	retryBackoff = 15 * time.Second
)

// QuotaAwareModel decorates a generative model with a request rate limit and
// retries. Vertex AI enforces per-minute quotas; without the limiter a burst
// of frame analyses during ingestion would trip them and fail the video.
type QuotaAwareModel struct {
	name    string
	models  *genai.Models
	config  *genai.GenerateContentConfig
	limiter *rate.Limiter

	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	retryCount   metric.Int64Counter
}

// NewQuotaAwareModel wraps a model handle with a limiter allowing
// requestsPerSecond sustained calls.
func NewQuotaAwareModel(models *genai.Models, name string, config *genai.GenerateContentConfig, requestsPerSecond int) *QuotaAwareModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	meter := otel.Meter("broll-search/ai")
	in, _ := meter.Int64Counter("gen_ai_input_tokens")
	out, _ := meter.Int64Counter("gen_ai_output_tokens")
	retries, _ := meter.Int64Counter("gen_ai_retries")
	return &QuotaAwareModel{
		name:         name,
		models:       models,
		config:       config,
		limiter:      rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		inputTokens:  in,
		outputTokens: out,
		retryCount:   retries,
	}
}

// GenerateText runs one generation request under the rate limit, retrying
// transient failures, and returns the concatenated text of the response with
// any markdown JSON fences stripped.
func (m *QuotaAwareModel) GenerateText(ctx context.Context, contents []*genai.Content) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			m.retryCount.Add(ctx, 1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
		if err := m.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := m.models.GenerateContent(ctx, m.name, contents, m.config)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.UsageMetadata != nil {
			m.inputTokens.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
			m.outputTokens.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
		}
		return trimJSONFences(collectText(resp)), nil
	}
	return "", fmt.Errorf("generation failed after %d retries: %w", maxRetries, lastErr)
}

func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// trimJSONFences strips the ```json markdown fences models emit around
// structured output even when asked for raw JSON.
func trimJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
