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

// Package api exposes the REST surface of the b-roll search server: the
// search endpoint, the video library (listing, deletion, tagging,
// streaming, thumbnails), the filter vocabulary, uploads, and library
// statistics.
//
// Handlers are deliberately thin. They translate HTTP to calls on the
// metadata store, the object store, the relevance engine, and the ingest
// queue, and translate errors back to status codes. All business rules
// live behind those ports.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search"
	"github.com/muziris-studio/broll-search/internal/storage"
	"github.com/muziris-studio/broll-search/internal/store"
)

// Enqueuer accepts processing jobs for uploaded videos. The worker pool
// implements it; tests substitute a synchronous fake.
type Enqueuer interface {
	Enqueue(j *model.IngestJob) error
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	meta    store.MetadataStore
	objects storage.ObjectStore
	engine  *search.Engine
	queue   Enqueuer
}

// NewServer wires the handler dependencies.
func NewServer(meta store.MetadataStore, objects storage.ObjectStore, engine *search.Engine, queue Enqueuer) *Server {
	return &Server{meta: meta, objects: objects, engine: engine, queue: queue}
}

// Routes registers every endpoint on the given group, typically "/api/v1".
//
// The surface is:
//   - POST   /search: Runs a relevance query over the indexed library.
//   - GET    /filters: Returns the emotion and genre filter vocabulary.
//   - GET    /videos: Lists the library with per-video segment counts.
//   - DELETE /videos/:id: Removes a video, its segments, and its objects.
//   - POST   /videos/:id/tags: Adds a user-assigned tag.
//   - DELETE /videos/:id/tags/:tag: Removes a user-assigned tag.
//   - GET    /videos/:id/stream: Serves or redirects to the clip.
//   - GET    /videos/:id/thumbnail: Serves or redirects to the thumbnail.
//   - POST   /uploads: Accepts multipart video uploads for ingestion.
//   - GET    /stats: Returns library-wide counts.
func (s *Server) Routes(r *gin.RouterGroup) {
	r.POST("/search", s.handleSearch)
	r.GET("/filters", s.handleFilters)

	videos := r.Group("/videos")
	{
		videos.GET("", s.handleListVideos)
		videos.DELETE("/:id", s.handleDeleteVideo)
		videos.POST("/:id/tags", s.handleAddTag)
		videos.DELETE("/:id/tags/:tag", s.handleRemoveTag)
		videos.GET("/:id/stream", s.handleStream)
		videos.GET("/:id/thumbnail", s.handleThumbnail)
	}

	uploads := r.Group("/uploads")
	{
		uploads.POST("", s.handleUpload)
	}

	Dashboard(r, s.meta)
}
