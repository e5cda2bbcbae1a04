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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zassert "github.com/zeebo/assert"

	"github.com/muziris-studio/broll-search/internal/api"
	"github.com/muziris-studio/broll-search/internal/config"
	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search"
	"github.com/muziris-studio/broll-search/internal/core/search/lexicon"
	"github.com/muziris-studio/broll-search/internal/ingest"
	"github.com/muziris-studio/broll-search/internal/storage"
	"github.com/muziris-studio/broll-search/internal/store"
	"github.com/muziris-studio/broll-search/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mp4Header is a minimal valid MP4 file signature ("ftypisom" box) so the
// content sniffer accepts test uploads.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm',
	0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2',
}

// syncQueue runs ingest jobs inline so handler tests observe terminal
// video states without polling.
type syncQueue struct {
	pipeline *ingest.Pipeline
}

func (q *syncQueue) Enqueue(j *model.IngestJob) error {
	return q.pipeline.Process(context.Background(), j)
}

// errQueue always rejects jobs with a fixed error.
type errQueue struct {
	err error
}

func (q *errQueue) Enqueue(j *model.IngestJob) error { return q.err }

type apiEnv struct {
	meta    *store.Store
	objects *storage.Local
	router  *gin.Engine
}

func newAPIEnv(t *testing.T, queueOverride api.Enqueuer) *apiEnv {
	t.Helper()
	meta, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = meta.Close() })

	objects, err := storage.NewLocal(config.Storage{MediaDir: t.TempDir()})
	require.NoError(t, err)

	lex := lexicon.Default()
	embedder := testutil.NewFakeEmbedder()
	pipeline := ingest.NewPipeline(
		&testutil.FakeMediaTool{Length: 25, FrameCount: 2},
		ingest.Providers{
			Embedder: embedder,
			Vision: &testutil.FakeVision{Analysis: model.FrameAnalysis{
				Description:  "a man laughing in a dark warehouse",
				Emotion:      "menacing",
				Genres:       "thriller",
				SceneContext: "villain reveal",
				EmotionTags:  []string{"menacing-expression"},
			}},
			Transcriber: &testutil.FakeTranscriber{Segments: []model.TranscriptSegment{
				{Start: 0, End: 4, Text: "you thought you could stop me"},
			}},
		},
		objects, meta, lex,
	)

	var queue api.Enqueuer = &syncQueue{pipeline: pipeline}
	if queueOverride != nil {
		queue = queueOverride
	}

	engine := search.NewEngine(meta, embedder, lex, config.DefaultSearchWeights())
	server := api.NewServer(meta, objects, engine, queue)

	router := gin.New()
	server.Routes(router.Group("/api/v1"))
	return &apiEnv{meta: meta, objects: objects, router: router}
}

func (e *apiEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// uploadFile posts one multipart file under the "files" field.
func (e *apiEnv) uploadFile(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return e.do(t, http.MethodPost, "/api/v1/uploads", &buf, mw.FormDataContentType())
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestUploadIngestsAndLists(t *testing.T) {
	env := newAPIEnv(t, nil)

	w := env.uploadFile(t, "villain_laugh.mp4", mp4Header)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/videos", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Videos []model.Video `json:"videos"`
	}
	decodeJSON(t, w, &listing)
	require.Len(t, listing.Videos, 1)
	v := listing.Videos[0]
	assert.Equal(t, "villain_laugh.mp4", v.Filename)
	assert.Equal(t, "villain laugh", v.Title)
	assert.Equal(t, model.StatusComplete, v.Status)
	assert.Equal(t, 1, v.AudioSegments)
	assert.Equal(t, 2, v.VisualFrames)
}

func TestUploadRejectsNonVideoContent(t *testing.T) {
	env := newAPIEnv(t, nil)

	w := env.uploadFile(t, "notes.mp4", []byte("just some text pretending to be a video"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	videos, err := env.meta.ListVideos(context.Background())
	require.NoError(t, err)
	zassert.Equal(t, 0, len(videos))
}

func TestUploadReplacesExistingFilename(t *testing.T) {
	env := newAPIEnv(t, nil)

	w := env.uploadFile(t, "clip.mp4", mp4Header)
	require.Equal(t, http.StatusAccepted, w.Code)
	first, err := env.meta.GetVideoByFilename(context.Background(), "clip.mp4")
	require.NoError(t, err)

	w = env.uploadFile(t, "clip.mp4", mp4Header)
	require.Equal(t, http.StatusAccepted, w.Code)

	videos, err := env.meta.ListVideos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.NotEqual(t, first.ID, videos[0].ID)
}

func TestUploadQueueFullReturns503(t *testing.T) {
	env := newAPIEnv(t, &errQueue{err: ingest.ErrQueueFull})

	w := env.uploadFile(t, "clip.mp4", mp4Header)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// The provisional record is rolled back.
	videos, err := env.meta.ListVideos(context.Background())
	require.NoError(t, err)
	zassert.Equal(t, 0, len(videos))
}

func TestSearchReturnsRankedResults(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.uploadFile(t, "villain_laugh.mp4", mp4Header)
	require.Equal(t, http.StatusAccepted, w.Code)

	body := strings.NewReader(`{"query": "laughing in a warehouse"}`)
	w = env.do(t, http.MethodPost, "/api/v1/search", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.SearchResponse
	decodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "villain_laugh.mp4", resp.Results[0].Filename)
	zassert.True(t, resp.Results[0].Similarity > 0)
}

func TestSearchRejectsMalformedBody(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/v1/search", strings.NewReader("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTagLifecycle(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.uploadFile(t, "clip.mp4", mp4Header)
	require.Equal(t, http.StatusAccepted, w.Code)
	v, err := env.meta.GetVideoByFilename(context.Background(), "clip.mp4")
	require.NoError(t, err)

	w = env.do(t, http.MethodPost, "/api/v1/videos/"+v.ID+"/tags",
		strings.NewReader(`{"tag": "hero entrance"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	var tagResp struct {
		CustomTags string `json:"custom_tags"`
	}
	decodeJSON(t, w, &tagResp)
	assert.Equal(t, "hero entrance", tagResp.CustomTags)

	w = env.do(t, http.MethodDelete, "/api/v1/videos/"+v.ID+"/tags/hero%20entrance", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &tagResp)
	assert.Equal(t, "", tagResp.CustomTags)
}

func TestTagRequiresBody(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/v1/videos/"+uuid.NewString()+"/tags",
		strings.NewReader(`{"tag": ""}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTagUnknownVideoIs404(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/v1/videos/"+uuid.NewString()+"/tags",
		strings.NewReader(`{"tag": "anything"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteVideoRemovesLibraryEntry(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.uploadFile(t, "clip.mp4", mp4Header)
	require.Equal(t, http.StatusAccepted, w.Code)
	v, err := env.meta.GetVideoByFilename(context.Background(), "clip.mp4")
	require.NoError(t, err)

	w = env.do(t, http.MethodDelete, "/api/v1/videos/"+v.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	videos, err := env.meta.ListVideos(context.Background())
	require.NoError(t, err)
	zassert.Equal(t, 0, len(videos))

	// The clip object is gone as well.
	_, err = env.objects.Open(context.Background(), "media/clip.mp4")
	zassert.Error(t, err)
}

func TestDeleteUnknownVideoIs404(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.do(t, http.MethodDelete, "/api/v1/videos/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFiltersReflectIndexedFrames(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.uploadFile(t, "clip.mp4", mp4Header)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/filters", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Emotions []string `json:"emotions"`
		Genres   []string `json:"genres"`
	}
	decodeJSON(t, w, &resp)
	assert.Equal(t, []string{"menacing"}, resp.Emotions)
	assert.Equal(t, []string{"thriller"}, resp.Genres)
}

func TestStreamServesLocalClip(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.uploadFile(t, "clip.mp4", mp4Header)
	require.Equal(t, http.StatusAccepted, w.Code)
	v, err := env.meta.GetVideoByFilename(context.Background(), "clip.mp4")
	require.NoError(t, err)

	w = env.do(t, http.MethodGet, "/api/v1/videos/"+v.ID+"/stream", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, mp4Header, w.Body.Bytes())
}

func TestStatsAggregateLibraryCounts(t *testing.T) {
	env := newAPIEnv(t, nil)
	w := env.uploadFile(t, "clip.mp4", mp4Header)
	require.Equal(t, http.StatusAccepted, w.Code)

	// A second video that never finished processing.
	require.NoError(t, env.meta.CreateVideo(context.Background(), &model.Video{
		ID:         uuid.NewString(),
		Filename:   "stuck.mp4",
		Title:      "stuck",
		Status:     model.StatusProcessing,
		UploadedAt: time.Now().UTC(),
	}))

	w = env.do(t, http.MethodGet, "/api/v1/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Videos        int `json:"videos"`
		Processing    int `json:"processing"`
		Complete      int `json:"complete"`
		AudioSegments int `json:"audio_segments"`
		VisualFrames  int `json:"visual_frames"`
	}
	decodeJSON(t, w, &stats)
	assert.Equal(t, 2, stats.Videos)
	assert.Equal(t, 1, stats.Processing)
	assert.Equal(t, 1, stats.Complete)
	assert.Equal(t, 1, stats.AudioSegments)
	assert.Equal(t, 2, stats.VisualFrames)
}
