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

package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/muziris-studio/broll-search/internal/core/model"
)

// FakeEmbedder returns canned vectors keyed by exact text, falling back to
// a default vector, and counts calls so tests can assert the provider was
// or was not consulted.
type FakeEmbedder struct {
	mu      sync.Mutex
	Vectors map[string][]float64
	Default []float64
	Calls   int
	Err     error
}

func NewFakeEmbedder() *FakeEmbedder {
	return &FakeEmbedder{
		Vectors: make(map[string][]float64),
		Default: []float64{1, 0},
	}
}

func (f *FakeEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if vec, ok := f.Vectors[text]; ok {
		return vec, nil
	}
	return f.Default, nil
}

// FakeVision returns the same analysis document for every frame.
type FakeVision struct {
	Analysis model.FrameAnalysis
	Err      error
}

func (f *FakeVision) AnalyzeFrame(ctx context.Context, image []byte, mimeType string, dialogue string) (*model.FrameAnalysis, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	a := f.Analysis
	return &a, nil
}

// FakeTranscriber returns a fixed transcript regardless of the audio.
type FakeTranscriber struct {
	Segments []model.TranscriptSegment
	Err      error
}

func (f *FakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) ([]model.TranscriptSegment, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Segments, nil
}

// FakeMediaTool stands in for ffmpeg. It reports a fixed duration and
// writes tiny placeholder files where real media would go.
type FakeMediaTool struct {
	Length     float64
	FrameCount int
	AudioErr   error
}

func (f *FakeMediaTool) Duration(ctx context.Context, path string) (float64, error) {
	return f.Length, nil
}

func (f *FakeMediaTool) Thumbnail(ctx context.Context, path string, at float64, outPath string) error {
	return os.WriteFile(outPath, []byte("thumb"), 0o644)
}

func (f *FakeMediaTool) ExtractAudio(ctx context.Context, path string, outPath string) error {
	if f.AudioErr != nil {
		return f.AudioErr
	}
	return os.WriteFile(outPath, []byte("audio"), 0o644)
}

func (f *FakeMediaTool) SampleFrames(ctx context.Context, path string, duration float64, outDir string) ([]model.SampledFrame, error) {
	count := f.FrameCount
	if count <= 0 {
		count = 1
	}
	frames := make([]model.SampledFrame, 0, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%04d.jpg", i)
		framePath := filepath.Join(outDir, name)
		if err := os.WriteFile(framePath, []byte("frame"), 0o644); err != nil {
			return nil, err
		}
		frames = append(frames, model.SampledFrame{
			Timestamp: float64(i) * 10,
			Path:      framePath,
			Name:      name,
		})
	}
	return frames, nil
}
