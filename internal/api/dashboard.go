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

// This file contains the library statistics endpoint used by the dashboard
// view of the search UI.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/store"
)

// libraryStats summarizes the state of the indexed library.
type libraryStats struct {
	Videos        int `json:"videos"`         // Total videos in the library.
	Processing    int `json:"processing"`     // Videos still being ingested.
	Complete      int `json:"complete"`       // Videos fully indexed.
	Failed        int `json:"failed"`         // Videos whose ingestion failed.
	AudioSegments int `json:"audio_segments"` // Searchable transcript segments.
	VisualFrames  int `json:"visual_frames"`  // Searchable analyzed frames.
}

// Dashboard configures the statistics route group. The single "/stats"
// endpoint aggregates counts across the library for the dashboard header.
func Dashboard(r *gin.RouterGroup, meta store.MetadataStore) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			videos, err := meta.ListVideos(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load stats"})
				return
			}
			var out libraryStats
			out.Videos = len(videos)
			for i := range videos {
				switch videos[i].Status {
				case model.StatusProcessing:
					out.Processing++
				case model.StatusComplete:
					out.Complete++
				case model.StatusFailed:
					out.Failed++
				}
				out.AudioSegments += videos[i].AudioSegments
				out.VisualFrames += videos[i].VisualFrames
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
