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

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search"
)

// handleSearch runs one relevance query. The request body carries the
// free-text query and the optional emotion and genre filters; an empty
// query with filters set browses the library instead of searching it.
func (s *Server) handleSearch(c *gin.Context) {
	ctx := c.Request.Context()

	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search request"})
		return
	}

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "search failed", "query", req.Query, "error", err)
		var embErr *search.EmbeddingError
		if errors.As(err, &embErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "embedding provider unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
