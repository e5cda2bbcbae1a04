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

// This file contains the handlers for the video library: listing, deletion,
// tagging, the filter vocabulary, and media streaming.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/store"
)

// streamExpiry bounds the validity of signed streaming URLs handed to the
// player.
const streamExpiry = 15 * time.Minute

// handleListVideos returns every video in the library, newest first, with
// its audio segment and analyzed frame counts filled in.
func (s *Server) handleListVideos(c *gin.Context) {
	videos, err := s.meta.ListVideos(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "list videos failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list videos"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// handleDeleteVideo removes a video record, its segments, and its stored
// objects. Object cleanup failures are logged but do not fail the request;
// the metadata row is the source of truth and it is already gone.
func (s *Server) handleDeleteVideo(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	v, err := s.meta.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load video"})
		return
	}

	if err := s.meta.DeleteVideo(ctx, id); err != nil {
		slog.ErrorContext(ctx, "delete video failed", "video_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to delete video"})
		return
	}

	s.removeObjects(ctx, v)

	c.Status(http.StatusNoContent)
}

// removeObjects deletes the stored objects belonging to a video: the clip,
// the thumbnail, and the sampled frames. Failures are logged only; the
// metadata row is the source of truth and it is already gone.
func (s *Server) removeObjects(ctx context.Context, v *model.Video) {
	if err := s.objects.Delete(ctx, "media/"+v.Filename); err != nil {
		slog.WarnContext(ctx, "unable to remove clip object", "video_id", v.ID, "error", err)
	}
	if v.Thumbnail != "" {
		if err := s.objects.Delete(ctx, v.Thumbnail); err != nil {
			slog.WarnContext(ctx, "unable to remove thumbnail object", "video_id", v.ID, "error", err)
		}
	}
	if err := s.objects.DeletePrefix(ctx, "frames/"+v.ID); err != nil {
		slog.WarnContext(ctx, "unable to remove frame objects", "video_id", v.ID, "error", err)
	}
}

// tagRequest is the body for adding a custom tag.
type tagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// handleAddTag attaches a user-assigned tag to a video. The updated
// comma-separated tag list is returned so the client can render it without
// a second round trip. Tags become searchable immediately; the next visual
// scan picks them up through the segment join.
func (s *Server) handleAddTag(c *gin.Context) {
	ctx := c.Request.Context()

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Tag) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag is required"})
		return
	}

	tags, err := s.meta.AddCustomTag(ctx, c.Param("id"), req.Tag)
	if err != nil {
		if errors.Is(err, store.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to add tag"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"custom_tags": tags})
}

// handleRemoveTag detaches a user-assigned tag. The tag arrives as a path
// segment and may be percent-encoded (tags can contain spaces).
func (s *Server) handleRemoveTag(c *gin.Context) {
	ctx := c.Request.Context()

	tag := c.Param("tag")
	if decoded, err := url.PathUnescape(tag); err == nil {
		tag = decoded
	}

	tags, err := s.meta.RemoveCustomTag(ctx, c.Param("id"), tag)
	if err != nil {
		if errors.Is(err, store.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to remove tag"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"custom_tags": tags})
}

// handleFilters returns the distinct emotion and genre vocabulary found in
// the indexed frames, for populating the search UI's filter dropdowns.
func (s *Server) handleFilters(c *gin.Context) {
	ctx := c.Request.Context()

	emotions, err := s.meta.DistinctEmotions(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load filters"})
		return
	}
	genres, err := s.meta.DistinctGenres(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load filters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emotions": emotions, "genres": genres})
}

// handleStream serves the clip itself. With the local backend the file is
// served directly, which gives the player HTTP range support for seeking.
// With the GCS backend a time-limited signed URL is returned instead and
// the client follows it.
func (s *Server) handleStream(c *gin.Context) {
	s.serveObject(c, func(v videoObjects) string { return "media/" + v.filename })
}

// handleThumbnail serves the generated thumbnail image for a video.
func (s *Server) handleThumbnail(c *gin.Context) {
	s.serveObject(c, func(v videoObjects) string { return v.thumbnail })
}

type videoObjects struct {
	filename  string
	thumbnail string
}

// serveObject resolves a video, maps it to an object name, and serves that
// object according to the storage backend's streaming target.
func (s *Server) serveObject(c *gin.Context, name func(videoObjects) string) {
	ctx := c.Request.Context()

	v, err := s.meta.GetVideo(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load video"})
		return
	}

	objectName := name(videoObjects{filename: v.Filename, thumbnail: v.Thumbnail})
	if objectName == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "object not available"})
		return
	}

	target, err := s.objects.StreamTarget(ctx, objectName, streamExpiry)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "object not available"})
		return
	}
	if target.URL != "" {
		c.JSON(http.StatusOK, gin.H{"url": target.URL})
		return
	}
	c.File(target.Path)
}
