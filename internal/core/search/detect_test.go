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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zassert "github.com/zeebo/assert"

	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search"
	"github.com/muziris-studio/broll-search/internal/core/search/lexicon"
)

func newDetector() *search.Detector {
	return search.NewDetector(lexicon.Default())
}

// longScene pads descriptive metadata past the sparse-metadata cutoff so
// the gender, count, action, and object filters engage.
func longScene(text string) string {
	return text + ", framed in a wide shot with natural light and visible background detail"
}

func TestDetectTitleActorAndAction(t *testing.T) {
	d := newDetector()
	det := d.Detect("shahid kapoor laughing scene from farzi")
	assert.Equal(t, "farzi", det.Title)
	require.NotNil(t, det.Actor)
	assert.Equal(t, "shahid kapoor", det.Actor.Canonical)
	require.NotNil(t, det.Action)
	assert.Equal(t, "laughing", det.Action.Name)
}

func TestDetectActorAlias(t *testing.T) {
	d := newDetector()
	det := d.Detect("srk romantic scene")
	require.NotNil(t, det.Actor)
	assert.Equal(t, "shah rukh khan", det.Actor.Canonical)
}

func TestDetectCountWords(t *testing.T) {
	d := newDetector()

	det := d.Detect("one man crying")
	zassert.True(t, det.HasCount)
	assert.Equal(t, 1, det.Count)

	det = d.Detect("two people talking")
	assert.Equal(t, 2, det.Count)

	// "several" asks for a plural frame without committing to a number.
	det = d.Detect("several people dancing")
	zassert.True(t, det.HasCount)
	assert.Equal(t, 0, det.Count)

	det = d.Detect("crying scene")
	zassert.False(t, det.HasCount)
}

func TestDetectMusicIntent(t *testing.T) {
	d := newDetector()
	zassert.True(t, d.Detect("sad song scene").WantsMusic)
	zassert.False(t, d.Detect("sad scene").WantsMusic)
}

func TestTitleFilterIsStrict(t *testing.T) {
	d := newDetector()
	det := d.Detect("farzi money scene")
	require.Equal(t, "farzi", det.Title)

	match := &model.VisualSegment{SeriesMovie: "Farzi (2023)", Filename: "farzi-clip.mp4"}
	blank := &model.VisualSegment{SeriesMovie: "", Filename: "holiday.mp4"}
	other := &model.VisualSegment{SeriesMovie: "Mirzapur", Filename: "mirzapur-clip.mp4"}

	zassert.True(t, d.KeepVisual(det, match))
	zassert.False(t, d.KeepVisual(det, blank))
	zassert.False(t, d.KeepVisual(det, other))
}

func TestTitleFilterFallsBackToFilename(t *testing.T) {
	d := newDetector()
	det := d.Detect("farzi scene")
	seg := &model.VisualSegment{SeriesMovie: "Unknown", Filename: "Farzi-money-printing.mp4"}
	zassert.True(t, d.KeepVisual(det, seg))
}

func TestTitleFilterAppliesToAudio(t *testing.T) {
	d := newDetector()
	det := d.Detect("farzi dialogue")
	keep := &model.AudioSegment{Filename: "farzi-intro.mp4"}
	drop := &model.AudioSegment{Filename: "office-party.mp4"}
	zassert.True(t, d.KeepAudio(det, keep))
	zassert.False(t, d.KeepAudio(det, drop))
}

func TestActorFilterChecksCharacterTags(t *testing.T) {
	d := newDetector()
	det := d.Detect("shahid kapoor scene")
	viaActors := &model.VisualSegment{Actors: "Shahid Kapoor"}
	viaTags := &model.VisualSegment{TagSet: model.TagSet{Character: "shahid-kapoor-role"}}
	neither := &model.VisualSegment{Actors: "Pankaj Tripathi"}
	zassert.True(t, d.KeepVisual(det, viaActors))
	zassert.True(t, d.KeepVisual(det, viaTags))
	zassert.False(t, d.KeepVisual(det, neither))
}

func TestCountFilterMatchesPeopleDescription(t *testing.T) {
	d := newDetector()
	det := d.Detect("two people arguing")

	pair := &model.VisualSegment{
		Description:       "An argument in a kitchen",
		PeopleDescription: longScene("two people facing each other across a table"),
	}
	crowd := &model.VisualSegment{
		Description:       "A street celebration",
		PeopleDescription: longScene("a crowd of 5 people celebrating in the street"),
	}
	zassert.True(t, d.KeepVisual(det, pair))
	zassert.False(t, d.KeepVisual(det, crowd))
}

func TestCountFilterUnspecifiedPluralAcceptsAnyGroup(t *testing.T) {
	d := newDetector()
	det := d.Detect("several people dancing")

	group := &model.VisualSegment{
		Description:       "Dancing at a wedding",
		PeopleDescription: longScene("a group of people dancing together in a hall"),
	}
	solo := &model.VisualSegment{
		Description:       "Dancing alone",
		PeopleDescription: longScene("one man dancing alone under a spotlight on stage"),
	}
	zassert.True(t, d.KeepVisual(det, group))
	zassert.False(t, d.KeepVisual(det, solo))
}

func TestSparseMetadataSkipsDescriptiveFilters(t *testing.T) {
	d := newDetector()
	det := d.Detect("two women running")

	// Too little text to judge: the count, gender, and action filters
	// all stand down rather than exclude the frame.
	sparse := &model.VisualSegment{Description: "video frame"}
	zassert.True(t, d.KeepVisual(det, sparse))

	short := &model.VisualSegment{Description: "a park"}
	zassert.True(t, d.KeepVisual(det, short))
}

func TestGenderFilterWithRichMetadata(t *testing.T) {
	d := newDetector()
	det := d.Detect("woman reading")

	women := &model.VisualSegment{
		Description:       "Reading by a window",
		PeopleDescription: longScene("a woman reading a book by the window in the afternoon"),
	}
	men := &model.VisualSegment{
		Description:       "Reading in a library",
		PeopleDescription: longScene("a man reading a newspaper at a long wooden table"),
	}
	zassert.True(t, d.KeepVisual(det, women))
	zassert.False(t, d.KeepVisual(det, men))
}

func TestObjectFilterWithRichMetadata(t *testing.T) {
	d := newDetector()
	det := d.Detect("man with a gun")

	armed := &model.VisualSegment{
		Description:  longScene("a man holding a pistol in a dim warehouse"),
		SceneContext: "standoff",
	}
	unarmed := &model.VisualSegment{
		Description:  longScene("a man holding an umbrella on a rainy street corner"),
		SceneContext: "commute",
	}
	zassert.True(t, d.KeepVisual(det, armed))
	zassert.False(t, d.KeepVisual(det, unarmed))
}

func TestOppositeEmotionSuppression(t *testing.T) {
	d := newDetector()
	det := d.Detect("happy moment")

	sadOnly := &model.VisualSegment{
		Emotion:     "sad",
		Description: "a tearful goodbye",
	}
	bittersweet := &model.VisualSegment{
		Emotion:     "sad",
		Description: "sad tears turning into a happy reunion",
	}
	happy := &model.VisualSegment{
		Emotion:     "happy",
		Description: "a birthday surprise",
	}
	zassert.False(t, d.KeepVisual(det, sadOnly))
	zassert.True(t, d.KeepVisual(det, bittersweet))
	zassert.True(t, d.KeepVisual(det, happy))
}

func TestFillerMarkers(t *testing.T) {
	d := newDetector()
	for _, filler := range []string{"♪", "♪♪♪", "  ♪ ♪ ", "[Music]", "(music)", "🎵🎶"} {
		zassert.True(t, d.IsFiller(filler))
	}
	zassert.False(t, d.IsFiller("♪ she sings a verse ♪"))
	zassert.False(t, d.IsFiller("plain dialogue"))
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Farzi money printing", search.CleanTitle("Farzi-money-printing.mp4"))
	assert.Equal(t, "office party", search.CleanTitle("office_party.webm"))
}

func TestNoResultsMessageFlavors(t *testing.T) {
	withTitle := search.NoResultsMessage("farzi")
	generic := search.NoResultsMessage("")
	assert.True(t, strings.Contains(withTitle, "farzi"))
	assert.NotEqual(t, withTitle, generic)
}
