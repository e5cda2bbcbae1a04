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

package search_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zassert "github.com/zeebo/assert"

	"github.com/muziris-studio/broll-search/internal/config"
	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search"
	"github.com/muziris-studio/broll-search/internal/core/search/lexicon"
)

// fakeSource serves canned segments.
type fakeSource struct {
	audio  []model.AudioSegment
	visual []model.VisualSegment
	err    error
}

func (f *fakeSource) AudioSegments(ctx context.Context) ([]model.AudioSegment, error) {
	return f.audio, f.err
}

func (f *fakeSource) VisualSegments(ctx context.Context) ([]model.VisualSegment, error) {
	return f.visual, f.err
}

// fakeEmbedder returns a fixed query vector and counts its calls so tests
// can prove the provider was not consulted.
type fakeEmbedder struct {
	vec   []float64
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	return f.vec, f.err
}

// unitVec builds a 2-d unit vector whose cosine against (1, 0) is exactly c.
func unitVec(c float64) []float64 {
	return []float64{c, math.Sqrt(1 - c*c)}
}

var queryVec = []float64{1, 0}

func newEngine(src *fakeSource, emb *fakeEmbedder) *search.Engine {
	return search.NewEngine(src, emb, lexicon.Default(), config.DefaultSearchWeights())
}

func TestSearchEmptyRequestSkipsProvider(t *testing.T) {
	emb := &fakeEmbedder{vec: queryVec}
	eng := newEngine(&fakeSource{}, emb)

	resp, err := eng.Search(context.Background(), model.SearchRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Zero(t, emb.calls)
}

func TestSearchEmptyQueryWithFiltersBrowsesVisuals(t *testing.T) {
	src := &fakeSource{
		visual: []model.VisualSegment{
			{ID: 1, Emotion: "happy", Description: "a party", Embedding: unitVec(0.1)},
			{ID: 2, Emotion: "sad", Description: "a goodbye", Embedding: unitVec(0.1)},
			{ID: 3, Emotion: "happy", Description: "a reunion", Embedding: unitVec(0.1)},
		},
		audio: []model.AudioSegment{
			{ID: 9, Transcript: "hello there", Embedding: unitVec(0.9)},
		},
	}
	emb := &fakeEmbedder{vec: queryVec}
	eng := newEngine(src, emb)

	resp, err := eng.Search(context.Background(), model.SearchRequest{Emotions: []string{"happy"}})
	require.NoError(t, err)
	assert.Zero(t, emb.calls)
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.Equal(t, model.SourceVisual, r.Source)
		assert.InDelta(t, 1.0, r.Similarity, 1e-9)
	}
}

func TestSearchThresholdsAreStrict(t *testing.T) {
	// With the boost weight pinned to the threshold, a candidate landing
	// exactly on the line must be excluded; one epsilon above gets in.
	weights := config.DefaultSearchWeights()
	weights.CustomTags = weights.VisualThreshold
	weights.AudioExact = weights.AudioThreshold

	src := &fakeSource{
		visual: []model.VisualSegment{
			// Orthogonal embedding: similarity is exactly the boost.
			{ID: 1, CustomTags: "night chase", Embedding: []float64{0, 1}},
		},
		audio: []model.AudioSegment{
			{ID: 2, Transcript: "the night chase begins", Embedding: []float64{0, 1}},
		},
	}
	eng := search.NewEngine(src, &fakeEmbedder{vec: queryVec}, lexicon.Default(), weights)
	resp, err := eng.Search(context.Background(), model.SearchRequest{Query: "night chase"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	weights.CustomTags = weights.VisualThreshold + 0.01
	weights.AudioExact = weights.AudioThreshold + 0.01
	eng = search.NewEngine(src, &fakeEmbedder{vec: queryVec}, lexicon.Default(), weights)
	resp, err = eng.Search(context.Background(), model.SearchRequest{Query: "night chase"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestSearchFatherAndSonRanking(t *testing.T) {
	src := &fakeSource{
		visual: []model.VisualSegment{
			{
				ID:          1,
				Description: "A father talks with his son in the park",
				Embedding:   unitVec(0.28),
				TagSet:      model.TagSet{Character: "father-son, family-moment"},
			},
		},
	}
	eng := newEngine(src, &fakeEmbedder{vec: queryVec})

	resp, err := eng.Search(context.Background(), model.SearchRequest{Query: "father and son"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	// cosine 0.28 plus the character tag boost 0.43.
	assert.InDelta(t, 0.71, resp.Results[0].Similarity, 1e-6)
}

func TestSearchEvilLaughRankingInversion(t *testing.T) {
	// The friendly frame is semantically closer to the query, but the
	// villainous tags carry the day once boosts are applied.
	src := &fakeSource{
		visual: []model.VisualSegment{
			{
				ID:          1,
				Description: "A man laughing warmly with friends",
				Embedding:   unitVec(0.35),
				TagSet:      model.TagSet{Laugh: "warm-smile, friendly-chuckle"},
			},
			{
				ID:          2,
				Description: "A villain towering over the city",
				Embedding:   unitVec(0.20),
				TagSet:      model.TagSet{Laugh: "maniacal-laughter, villainous-cackle"},
			},
		},
	}
	eng := newEngine(src, &fakeEmbedder{vec: queryVec})

	resp, err := eng.Search(context.Background(), model.SearchRequest{Query: "evil laugh"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, model.VisualResultID(2), resp.Results[0].ID)
	assert.InDelta(t, 0.65, resp.Results[0].Similarity, 1e-6)
	assert.Equal(t, model.VisualResultID(1), resp.Results[1].ID)
	assert.InDelta(t, 0.60, resp.Results[1].Similarity, 1e-6)
}

func TestSearchGenreFilterDropsAudio(t *testing.T) {
	src := &fakeSource{
		audio: []model.AudioSegment{
			{ID: 1, Transcript: "a thrilling chase scene", Embedding: unitVec(0.9)},
		},
		visual: []model.VisualSegment{
			{ID: 2, Description: "a thrilling chase scene", Genres: "thriller, action", Embedding: unitVec(0.9)},
			{ID: 3, Description: "a thrilling chase scene", Genres: "comedy", Embedding: unitVec(0.9)},
		},
	}
	eng := newEngine(src, &fakeEmbedder{vec: queryVec})

	resp, err := eng.Search(context.Background(), model.SearchRequest{Query: "chase scene", Genres: []string{"thriller"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.VisualResultID(2), resp.Results[0].ID)
}

func TestSearchMultiSelectFiltersAdmitAnyMatch(t *testing.T) {
	src := &fakeSource{
		visual: []model.VisualSegment{
			{ID: 1, Emotion: "happy", Description: "a party", Embedding: unitVec(0.1)},
			{ID: 2, Emotion: "sad", Description: "a goodbye", Embedding: unitVec(0.1)},
			{ID: 3, Emotion: "angry", Description: "an argument", Embedding: unitVec(0.1)},
		},
	}
	emb := &fakeEmbedder{vec: queryVec}
	eng := newEngine(src, emb)

	resp, err := eng.Search(context.Background(), model.SearchRequest{Emotions: []string{"happy", "sad"}})
	require.NoError(t, err)
	assert.Zero(t, emb.calls)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, model.VisualResultID(1), resp.Results[0].ID)
	assert.Equal(t, model.VisualResultID(2), resp.Results[1].ID)
}

func TestSearchFiltersMatchWholeLabels(t *testing.T) {
	src := &fakeSource{
		visual: []model.VisualSegment{
			{ID: 1, Emotion: "sadness", Description: "tearful farewell", Embedding: unitVec(0.1)},
			{ID: 2, Emotion: "sad", Description: "a goodbye", Embedding: unitVec(0.1)},
			{ID: 3, Emotion: "sad", Genres: "action-comedy", Description: "a car chase gag", Embedding: unitVec(0.1)},
			{ID: 4, Emotion: "sad", Genres: "drama, action", Description: "a rooftop chase", Embedding: unitVec(0.1)},
		},
	}
	eng := newEngine(src, &fakeEmbedder{vec: queryVec})

	// "sad" must not admit the "sadness" label by substring.
	resp, err := eng.Search(context.Background(), model.SearchRequest{Emotions: []string{"sad"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	for _, r := range resp.Results {
		assert.Equal(t, "sad", r.Emotion)
	}

	// "action" must match a whole comma-separated genre entry, not the
	// "action-comedy" compound.
	resp, err = eng.Search(context.Background(), model.SearchRequest{Genres: []string{"action"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.VisualResultID(4), resp.Results[0].ID)
}

func TestSearchFillerTranscriptsSuppressedUnlessMusicQuery(t *testing.T) {
	src := &fakeSource{
		audio: []model.AudioSegment{
			{ID: 1, Transcript: "♪♪", Embedding: unitVec(0.9)},
			{ID: 2, Transcript: "real dialogue about music", Embedding: unitVec(0.9)},
		},
	}
	eng := newEngine(src, &fakeEmbedder{vec: queryVec})

	resp, err := eng.Search(context.Background(), model.SearchRequest{Query: "dramatic scene"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.AudioResultID(2), resp.Results[0].ID)

	// A music query brings the note-only segments back.
	resp, err = eng.Search(context.Background(), model.SearchRequest{Query: "background music"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestSearchSkipsInvalidEmbeddings(t *testing.T) {
	src := &fakeSource{
		visual: []model.VisualSegment{
			{ID: 1, Description: "usable frame", Embedding: unitVec(0.9)},
			{ID: 2, Description: "broken frame", Embedding: []float64{0.1}}, // wrong dimension
		},
	}
	eng := newEngine(src, &fakeEmbedder{vec: queryVec})

	resp, err := eng.Search(context.Background(), model.SearchRequest{Query: "anything at all"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.VisualResultID(1), resp.Results[0].ID)
}

func TestSearchCapsResults(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 30; i++ {
		src.visual = append(src.visual, model.VisualSegment{
			ID:          int64(i + 1),
			Description: fmt.Sprintf("clip number %d", i+1),
			Embedding:   unitVec(0.9),
		})
	}
	eng := newEngine(src, &fakeEmbedder{vec: queryVec})

	resp, err := eng.Search(context.Background(), model.SearchRequest{Query: "any clip"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 20)
}

func TestSearchRankingIsStableDescending(t *testing.T) {
	src := &fakeSource{
		visual: []model.VisualSegment{
			{ID: 1, Description: "first", Embedding: unitVec(0.5)},
			{ID: 2, Description: "second", Embedding: unitVec(0.9)},
			{ID: 3, Description: "third", Embedding: unitVec(0.5)},
		},
	}
	eng := newEngine(src, &fakeEmbedder{vec: queryVec})

	resp, err := eng.Search(context.Background(), model.SearchRequest{Query: "some footage"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, model.VisualResultID(2), resp.Results[0].ID)
	// Equal scores keep their store order.
	assert.Equal(t, model.VisualResultID(1), resp.Results[1].ID)
	assert.Equal(t, model.VisualResultID(3), resp.Results[2].ID)
}

func TestSearchNoResultsMessageNamesDetectedTitle(t *testing.T) {
	src := &fakeSource{
		visual: []model.VisualSegment{
			{ID: 1, SeriesMovie: "Mirzapur", Description: "a standoff", Embedding: unitVec(0.9)},
		},
	}
	eng := newEngine(src, &fakeEmbedder{vec: queryVec})

	resp, err := eng.Search(context.Background(), model.SearchRequest{Query: "farzi scene"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Contains(t, resp.Message, "farzi")
}

func TestSearchEmbeddingFailureIsFatal(t *testing.T) {
	eng := newEngine(&fakeSource{}, &fakeEmbedder{err: errors.New("quota exhausted")})

	_, err := eng.Search(context.Background(), model.SearchRequest{Query: "anything"})
	var embErr *search.EmbeddingError
	zassert.True(t, errors.As(err, &embErr))
}

func TestSearchStoreFailureIsFatal(t *testing.T) {
	eng := newEngine(&fakeSource{err: errors.New("connection refused")}, &fakeEmbedder{vec: queryVec})

	_, err := eng.Search(context.Background(), model.SearchRequest{Query: "anything"})
	var storeErr *search.StoreError
	zassert.True(t, errors.As(err, &storeErr))
}

func TestSearchBoostedScoreIsCapped(t *testing.T) {
	src := &fakeSource{
		visual: []model.VisualSegment{
			{ID: 1, CustomTags: "winning goal", Description: "the winning goal", Embedding: unitVec(0.9)},
		},
	}
	eng := newEngine(src, &fakeEmbedder{vec: queryVec})

	resp, err := eng.Search(context.Background(), model.SearchRequest{Query: "winning goal"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 1.0, resp.Results[0].Similarity, 1e-9)
}
