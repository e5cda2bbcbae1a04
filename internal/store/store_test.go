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

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zassert "github.com/zeebo/assert"

	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestVideo(filename string) *model.Video {
	return &model.Video{
		ID:         uuid.NewString(),
		Filename:   filename,
		Title:      "Test Clip",
		Status:     model.StatusProcessing,
		UploadedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestVideoLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v := newTestVideo("farzi-clip.mp4")
	require.NoError(t, s.CreateVideo(ctx, v))

	got, err := s.GetVideo(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Filename, got.Filename)
	assert.Equal(t, model.StatusProcessing, got.Status)

	byName, err := s.GetVideoByFilename(ctx, "farzi-clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, v.ID, byName.ID)

	require.NoError(t, s.UpdateVideoMedia(ctx, v.ID, 42.5, "thumb.jpg"))
	require.NoError(t, s.UpdateVideoStatus(ctx, v.ID, model.StatusComplete))

	got, err = s.GetVideo(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.5, got.Duration)
	assert.Equal(t, "thumb.jpg", got.Thumbnail)
	assert.Equal(t, model.StatusComplete, got.Status)
}

func TestGetVideoNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetVideo(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrVideoNotFound)

	err = s.UpdateVideoStatus(ctx, uuid.NewString(), model.StatusFailed)
	assert.ErrorIs(t, err, store.ErrVideoNotFound)
}

func TestListVideosIncludesSegmentCounts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v := newTestVideo("counts.mp4")
	require.NoError(t, s.CreateVideo(ctx, v))

	require.NoError(t, s.PutAudioSegment(ctx, &model.AudioSegment{
		VideoID: v.ID, Filename: v.Filename, StartTime: 0, EndTime: 2,
		Duration: 2, Transcript: "hello", Embedding: []float64{0.1, 0.2},
	}))
	for i := 0; i < 2; i++ {
		require.NoError(t, s.PutVisualSegment(ctx, &model.VisualSegment{
			VideoID: v.ID, Filename: v.Filename, Timestamp: float64(i * 10),
			Description: "a frame", Embedding: []float64{0.3, 0.4},
		}))
	}

	videos, err := s.ListVideos(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, 1, videos[0].AudioSegments)
	assert.Equal(t, 2, videos[0].VisualFrames)
}

func TestCustomTagDedupAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v := newTestVideo("tags.mp4")
	require.NoError(t, s.CreateVideo(ctx, v))

	tags, err := s.AddCustomTag(ctx, v.ID, "Hero Entrance")
	require.NoError(t, err)
	assert.Equal(t, "Hero Entrance", tags)

	// Same tag in a different case is a no-op.
	tags, err = s.AddCustomTag(ctx, v.ID, "hero entrance")
	require.NoError(t, err)
	assert.Equal(t, "Hero Entrance", tags)

	tags, err = s.AddCustomTag(ctx, v.ID, "slow motion")
	require.NoError(t, err)
	assert.Equal(t, "Hero Entrance, slow motion", tags)

	tags, err = s.RemoveCustomTag(ctx, v.ID, "HERO ENTRANCE")
	require.NoError(t, err)
	assert.Equal(t, "slow motion", tags)
}

func TestSegmentReadsSkipMissingEmbeddings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v := newTestVideo("partial.mp4")
	require.NoError(t, s.CreateVideo(ctx, v))

	require.NoError(t, s.PutAudioSegment(ctx, &model.AudioSegment{
		VideoID: v.ID, Filename: v.Filename, Transcript: "embedded",
		Embedding: []float64{0.5, 0.5},
	}))
	require.NoError(t, s.PutAudioSegment(ctx, &model.AudioSegment{
		VideoID: v.ID, Filename: v.Filename, Transcript: "not embedded",
	}))

	audio, err := s.AudioSegments(ctx)
	require.NoError(t, err)
	require.Len(t, audio, 1)
	assert.Equal(t, "embedded", audio[0].Transcript)
	assert.Equal(t, []float64{0.5, 0.5}, audio[0].Embedding)
}

func TestVisualSegmentsJoinCustomTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v := newTestVideo("joined.mp4")
	require.NoError(t, s.CreateVideo(ctx, v))
	require.NoError(t, s.PutVisualSegment(ctx, &model.VisualSegment{
		VideoID: v.ID, Filename: v.Filename, Timestamp: 5,
		Description: "the bridge scene", Embedding: []float64{1, 0},
		Emotion: "Tense", Genres: "Thriller, Drama",
		TagSet: model.TagSet{Laugh: "nervous-chuckle"},
	}))

	// A tag added after ingestion shows up on the very next read.
	_, err := s.AddCustomTag(ctx, v.ID, "hero entrance")
	require.NoError(t, err)

	visual, err := s.VisualSegments(ctx)
	require.NoError(t, err)
	require.Len(t, visual, 1)
	assert.Equal(t, "hero entrance", visual[0].CustomTags)
	assert.Equal(t, "nervous-chuckle", visual[0].TagSet.Laugh)
	assert.Equal(t, v.ID, visual[0].VideoID)
}

func TestDeleteVideoCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v := newTestVideo("cascade.mp4")
	require.NoError(t, s.CreateVideo(ctx, v))
	require.NoError(t, s.PutAudioSegment(ctx, &model.AudioSegment{
		VideoID: v.ID, Filename: v.Filename, Transcript: "bye",
		Embedding: []float64{0.1},
	}))
	require.NoError(t, s.PutVisualSegment(ctx, &model.VisualSegment{
		VideoID: v.ID, Filename: v.Filename, Embedding: []float64{0.2},
	}))

	require.NoError(t, s.DeleteVideo(ctx, v.ID))

	audio, err := s.AudioSegments(ctx)
	require.NoError(t, err)
	zassert.Equal(t, 0, len(audio))
	visual, err := s.VisualSegments(ctx)
	require.NoError(t, err)
	zassert.Equal(t, 0, len(visual))
}

func TestDeleteSegmentsKeepsVideo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v := newTestVideo("reprocess.mp4")
	require.NoError(t, s.CreateVideo(ctx, v))
	require.NoError(t, s.PutVisualSegment(ctx, &model.VisualSegment{
		VideoID: v.ID, Filename: v.Filename, Embedding: []float64{0.2},
	}))

	require.NoError(t, s.DeleteSegments(ctx, v.ID))

	visual, err := s.VisualSegments(ctx)
	require.NoError(t, err)
	zassert.Equal(t, 0, len(visual))
	_, err = s.GetVideo(ctx, v.ID)
	require.NoError(t, err)
}

func TestDistinctFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v := newTestVideo("filters.mp4")
	require.NoError(t, s.CreateVideo(ctx, v))
	frames := []model.VisualSegment{
		{Emotion: "Happy", Genres: "Comedy, Drama"},
		{Emotion: "happy", Genres: "comedy"},
		{Emotion: "Tense", Genres: "Thriller"},
	}
	for i := range frames {
		frames[i].VideoID = v.ID
		frames[i].Filename = v.Filename
		frames[i].Embedding = []float64{0.1}
		require.NoError(t, s.PutVisualSegment(ctx, &frames[i]))
	}

	emotions, err := s.DistinctEmotions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"happy", "tense"}, emotions)

	genres, err := s.DistinctGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"comedy", "drama", "thriller"}, genres)
}
