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
	"log/slog"
	"sync"

	"github.com/muziris-studio/broll-search/internal/core/model"
)

// ErrQueueFull is returned when the upload queue cannot accept more work.
var ErrQueueFull = errors.New("ingest queue full")

// WorkerPool runs ingest jobs on a fixed number of goroutines so a burst of
// uploads cannot fan out into an unbounded number of concurrent model calls.
type WorkerPool struct {
	pipeline *Pipeline
	jobs     chan *model.IngestJob
	size     int
	wg       sync.WaitGroup
}

// NewWorkerPool sizes the pool; size comes from the thread_pool_size
// application setting.
func NewWorkerPool(pipeline *Pipeline, size int) *WorkerPool {
	if size <= 0 {
		size = 2
	}
	return &WorkerPool{
		pipeline: pipeline,
		jobs:     make(chan *model.IngestJob, size*4),
		size:     size,
	}
}

// Start launches the workers. They run until the context is canceled.
func (w *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < w.size; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-w.jobs:
					if !ok {
						return
					}
					if err := w.pipeline.Process(ctx, j); err != nil {
						slog.ErrorContext(ctx, "ingest job failed",
							"video_id", j.VideoID, "error", err)
					}
				}
			}
		}()
	}
}

// Enqueue submits a job without blocking the upload request.
func (w *WorkerPool) Enqueue(j *model.IngestJob) error {
	select {
	case w.jobs <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (w *WorkerPool) Stop() {
	close(w.jobs)
	w.wg.Wait()
}
