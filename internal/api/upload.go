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
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search"
	"github.com/muziris-studio/broll-search/internal/ingest"
	"github.com/muziris-studio/broll-search/internal/store"
)

// handleUpload accepts one or more video files as multipart/form-data under
// the "files" field. Each file is sniffed by content, stored as the
// canonical clip object, recorded in the library, and queued for
// processing. Re-uploading an existing filename replaces that video: the
// old record, segments, and objects are removed first.
//
// The response is 202 Accepted with the created video records; processing
// continues in the background and the client polls the video list for
// status transitions.
func (s *Server) handleUpload(c *gin.Context) {
	ctx := c.Request.Context()

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	accepted := make([]*model.Video, 0, len(files))
	for _, file := range files {
		filename := filepath.Base(file.Filename)

		// Scratch copy for sniffing and for the pipeline. The pipeline
		// removes it when processing ends.
		localPath := filepath.Join(os.TempDir(), uuid.NewString()+"-"+filename)
		if err := c.SaveUploadedFile(file, localPath); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to save upload"})
			return
		}

		// Trust the bytes, not the extension or the declared content type.
		kind, err := filetype.MatchFile(localPath)
		if err != nil || kind.MIME.Type != "video" {
			_ = os.Remove(localPath)
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "unsupported file type", "filename": filename,
			})
			return
		}

		// Re-upload of a known filename replaces the previous video.
		if prev, err := s.meta.GetVideoByFilename(ctx, filename); err == nil {
			if err := s.meta.DeleteVideo(ctx, prev.ID); err != nil {
				_ = os.Remove(localPath)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to replace video"})
				return
			}
			s.removeObjects(ctx, prev)
		} else if !errors.Is(err, store.ErrVideoNotFound) {
			_ = os.Remove(localPath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to check for existing video"})
			return
		}

		v := &model.Video{
			ID:         uuid.NewString(),
			Filename:   filename,
			Title:      search.CleanTitle(filename),
			Status:     model.StatusProcessing,
			UploadedAt: time.Now().UTC(),
		}
		if err := s.meta.CreateVideo(ctx, v); err != nil {
			_ = os.Remove(localPath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to record video"})
			return
		}

		if err := s.saveClip(c, localPath, filename, kind.MIME.Value); err != nil {
			slog.ErrorContext(ctx, "clip store failed", "filename", filename, "error", err)
			_ = s.meta.DeleteVideo(ctx, v.ID)
			_ = os.Remove(localPath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to store clip"})
			return
		}

		job := &model.IngestJob{
			VideoID:   v.ID,
			Filename:  v.Filename,
			Title:     v.Title,
			LocalPath: localPath,
		}
		if err := s.queue.Enqueue(job); err != nil {
			_ = s.meta.DeleteVideo(ctx, v.ID)
			s.removeObjects(ctx, v)
			_ = os.Remove(localPath)
			if errors.Is(err, ingest.ErrQueueFull) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upload queue full, retry later"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to queue video"})
			return
		}
		accepted = append(accepted, v)
	}

	c.JSON(http.StatusAccepted, gin.H{"videos": accepted})
}

// saveClip copies the scratch upload into the object store as the canonical
// clip object.
func (s *Server) saveClip(c *gin.Context, localPath, filename, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.objects.Save(c.Request.Context(), "media/"+filename, f, contentType)
}
