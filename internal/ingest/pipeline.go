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

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/muziris-studio/broll-search/internal/ai"
	"github.com/muziris-studio/broll-search/internal/core/cor"
	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search"
	"github.com/muziris-studio/broll-search/internal/core/search/lexicon"
	"github.com/muziris-studio/broll-search/internal/storage"
	"github.com/muziris-studio/broll-search/internal/store"
)

// Pipeline processes one uploaded video end to end: media decomposition,
// transcription, frame analysis, embedding, and persistence. The steps run
// as a cor chain so each gets its own span and counters.
type Pipeline struct {
	chain cor.Chain
	meta  store.MetadataStore
}

// NewPipeline wires the processing chain from its dependencies.
func NewPipeline(tool MediaTool, clients Providers, objects storage.ObjectStore, meta store.MetadataStore, lex *lexicon.Lexicon) *Pipeline {
	synth := search.NewSynthesizer(lex)
	chain := cor.NewBaseChain("video_ingest").
		AddCommand(NewMediaInfoCommand(tool, objects, meta)).
		AddCommand(NewAudioExtractCommand(tool)).
		AddCommand(NewTranscribeCommand(clients.Transcriber)).
		AddCommand(NewAudioIndexCommand(clients.Embedder, meta)).
		AddCommand(NewFrameSampleCommand(tool)).
		AddCommand(NewFrameAnalyzeCommand(clients.Vision, clients.Embedder, objects, meta, synth))
	return &Pipeline{chain: chain, meta: meta}
}

// Providers carries the model adapters the pipeline depends on.
type Providers struct {
	Embedder    ai.EmbeddingProvider
	Vision      ai.VisionAnalyzer
	Transcriber ai.Transcriber
}

// Process runs the chain for one job and moves the video to its terminal
// status. Any existing segments for the video are dropped first, so
// reprocessing replaces the previous analysis wholesale.
func (p *Pipeline) Process(ctx context.Context, j *model.IngestJob) error {
	// The scratch copy of the upload is only needed during processing; the
	// object store holds the canonical clip.
	if j.LocalPath != "" {
		defer os.Remove(j.LocalPath)
	}

	if err := p.meta.DeleteSegments(ctx, j.VideoID); err != nil {
		return p.failVideo(ctx, j, err)
	}

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, j)

	p.chain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		var errs []error
		for name, err := range chainCtx.GetErrors() {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return p.failVideo(ctx, j, errors.Join(errs...))
	}

	if err := p.meta.UpdateVideoStatus(ctx, j.VideoID, model.StatusComplete); err != nil {
		return err
	}
	slog.InfoContext(ctx, "video processed",
		"video_id", j.VideoID, "filename", j.Filename, "duration", j.Duration,
		"audio_segments", len(j.Transcript), "frames", len(j.Frames))
	return nil
}

func (p *Pipeline) failVideo(ctx context.Context, j *model.IngestJob, cause error) error {
	slog.ErrorContext(ctx, "video processing failed",
		"video_id", j.VideoID, "filename", j.Filename, "error", cause)
	if err := p.meta.UpdateVideoStatus(ctx, j.VideoID, model.StatusFailed); err != nil {
		slog.ErrorContext(ctx, "unable to mark video failed", "video_id", j.VideoID, "error", err)
	}
	return cause
}
