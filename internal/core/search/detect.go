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

// This file implements the entity and attribute detector and the hard
// filters derived from it. The detector reads a query once and records every
// known entity it names: a title, an actor, a gender bucket, a subject
// count, an action, an object, and any emotion words. The filters then
// exclude candidates that contradict what the user asked for.
//
// Title and actor filters are strict: if the user names "Farzi", footage
// from anything else (or footage with no recognized title at all) is
// excluded no matter how similar its embedding is. The descriptive filters
// (gender, count, action, object) are lenient the other way around: when a
// frame's metadata is too thin to judge, the filter stands down instead of
// penalizing the frame for incomplete analysis.
package search

import (
	"strconv"
	"strings"

	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search/lexicon"
)

// Descriptive metadata shorter than this, or equal to the analyzer's
// placeholder, is considered too sparse for the gender, count, action, and
// object filters to act on.
const (
	minDescriptiveLen = 50
	placeholderText   = "video frame"
)

// Detection is everything the detector recognized in one query.
type Detection struct {
	Title      string                // The canonical detected title, or "".
	Actor      *lexicon.ActorAlias   // The detected actor, or nil.
	Gender     *lexicon.GenderBucket // The detected gender bucket, or nil.
	Count      int                   // The detected subject count; 0 with HasCount means unspecified plural.
	HasCount   bool                  // Whether a count word was present at all.
	Action     *lexicon.SynonymGroup // The detected action concept, or nil.
	Object     *lexicon.SynonymGroup // The detected object concept, or nil.
	Emotions   []string              // Emotion words found in the query, for opposite suppression.
	WantsMusic bool                  // Whether the query asks for music or sound.
}

// Detector recognizes lexicon entities in queries and applies the resulting
// hard filters to candidates.
type Detector struct {
	lex *lexicon.Lexicon
}

// NewDetector builds a detector over the given lexicon.
func NewDetector(lex *lexicon.Lexicon) *Detector {
	return &Detector{lex: lex}
}

// Detect scans a normalized query for every entity the lexicon knows.
func (d *Detector) Detect(query string) Detection {
	det := Detection{}
	if query == "" {
		return det
	}

	// Longest title first, so "the family man" wins over a hypothetical
	// shorter entry it contains.
	for _, title := range d.lex.Titles {
		if hasPhrase(query, title) && len(title) > len(det.Title) {
			det.Title = title
		}
	}

	for i := range d.lex.Actors {
		a := &d.lex.Actors[i]
		if hasPhrase(query, a.Canonical) {
			det.Actor = a
			break
		}
		for _, v := range a.Variants {
			if hasPhrase(query, v) {
				det.Actor = a
				break
			}
		}
		if det.Actor != nil {
			break
		}
	}

	for i := range d.lex.GenderBuckets {
		b := &d.lex.GenderBuckets[i]
		for _, t := range b.Triggers {
			if hasPhrase(query, t) {
				det.Gender = b
				break
			}
		}
		if det.Gender != nil {
			break
		}
	}

	for _, cw := range d.lex.CountWords {
		if hasPhrase(query, cw.Word) {
			det.Count = cw.Count
			det.HasCount = true
			break
		}
	}

	for i := range d.lex.Actions {
		g := &d.lex.Actions[i]
		for _, v := range g.Variants {
			if hasPhrase(query, v) {
				det.Action = g
				break
			}
		}
		if det.Action != nil {
			break
		}
	}

	for i := range d.lex.Objects {
		g := &d.lex.Objects[i]
		for _, v := range g.Variants {
			if hasPhrase(query, v) {
				det.Object = g
				break
			}
		}
		if det.Object != nil {
			break
		}
	}

	for _, tok := range Tokenize(query) {
		if _, ok := d.lex.EmotionOpposites[tok]; ok {
			det.Emotions = append(det.Emotions, tok)
		}
	}

	for _, w := range d.lex.MusicWords {
		if hasPhrase(query, w) {
			det.WantsMusic = true
			break
		}
	}
	return det
}

// KeepAudio reports whether an audio segment survives the detection filters.
// Only the title filter applies to audio: a detected title excludes every
// clip whose own title does not carry it.
func (d *Detector) KeepAudio(det Detection, seg *model.AudioSegment) bool {
	if det.Title == "" {
		return true
	}
	title := strings.ToLower(CleanTitle(seg.Filename))
	return strings.Contains(title, det.Title)
}

// KeepVisual reports whether a visual segment survives all detection
// filters.
func (d *Detector) KeepVisual(det Detection, seg *model.VisualSegment) bool {
	if det.Title != "" && !d.titleMatch(det.Title, seg) {
		return false
	}
	if det.Actor != nil && !d.actorMatch(det.Actor, seg) {
		return false
	}
	if !d.keepByEmotion(det, seg) {
		return false
	}

	// The descriptive filters only act on frames with enough metadata to
	// judge. A bare "video frame" placeholder proves nothing either way.
	text := strings.ToLower(seg.DescriptiveText())
	if len(text) <= minDescriptiveLen || strings.TrimSpace(text) == placeholderText {
		return true
	}
	if det.Gender != nil && !d.genderMatch(det.Gender, text, seg) {
		return false
	}
	if det.HasCount && !d.countMatch(det.Count, text) {
		return false
	}
	if det.Action != nil && !containsAnyVariant(text, det.Action) {
		return false
	}
	if det.Object != nil && !containsAnyVariant(text, det.Object) {
		return false
	}
	return true
}

// titleMatch is strict: a blank series field or a different title excludes
// the frame.
func (d *Detector) titleMatch(title string, seg *model.VisualSegment) bool {
	series := strings.ToLower(strings.TrimSpace(seg.SeriesMovie))
	if series == "" {
		return false
	}
	if strings.Contains(series, title) {
		return true
	}
	// The clip's own title is a second chance: uploads are usually named
	// after the source material.
	return strings.Contains(strings.ToLower(CleanTitle(seg.Filename)), title)
}

// actorMatch is strict against the recognized actors plus the character
// tags, which often carry the actor's name for famous roles.
func (d *Detector) actorMatch(actor *lexicon.ActorAlias, seg *model.VisualSegment) bool {
	haystack := strings.ToLower(seg.Actors + " " + seg.TagSet.Character)
	if strings.Contains(haystack, actor.Canonical) {
		return true
	}
	for _, v := range actor.Variants {
		if strings.Contains(haystack, v) {
			return true
		}
	}
	return false
}

// keepByEmotion drops a frame that shows the opposite of a queried emotion
// without also showing the emotion itself. Searching "happy" must not
// surface frames tagged only as sad.
func (d *Detector) keepByEmotion(det Detection, seg *model.VisualSegment) bool {
	if len(det.Emotions) == 0 {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{
		seg.Emotion, seg.DeepEmotions, seg.Description,
		seg.TagSet.Emotion, seg.TagSet.Laugh, seg.TagSet.Contextual,
		seg.TagSet.Character, seg.TagSet.Semantic,
	}, " "))
	for _, emo := range det.Emotions {
		opposite := d.lex.EmotionOpposites[emo]
		if opposite == "" {
			continue
		}
		if strings.Contains(haystack, opposite) && !strings.Contains(haystack, emo) {
			return false
		}
	}
	return true
}

// genderMatch checks the bucket's markers against the descriptive text. A
// recognized actor from the female or male lists also counts as a marker.
func (d *Detector) genderMatch(bucket *lexicon.GenderBucket, text string, seg *model.VisualSegment) bool {
	for _, neg := range bucket.Negative {
		if strings.Contains(text, neg) {
			return false
		}
	}
	for _, pos := range bucket.Positive {
		if hasPhrase(text, pos) {
			return true
		}
	}
	actors := strings.ToLower(seg.Actors)
	if actors != "" {
		switch bucket.Name {
		case "woman":
			for _, a := range d.lex.FemaleActors {
				if strings.Contains(actors, a) {
					return true
				}
			}
		case "man":
			for _, a := range d.lex.MaleActors {
				if strings.Contains(actors, a) {
					return true
				}
			}
		}
	}
	return false
}

// countMatch compares a queried subject count against the count readable
// from the descriptive text. want == 0 means "more than one, unspecified"
// and accepts any plural frame. An unreadable count keeps the frame; the
// metadata was rich enough to reach here but still may not state a number.
func (d *Detector) countMatch(want int, text string) bool {
	got, plural := subjectCount(text)
	if want == 0 {
		return plural || got >= 2
	}
	if got == 0 {
		return true
	}
	return got == want
}

// subjectCount extracts the number of visible people from descriptive text.
// It understands digits ("3 people") and the count words from the lexicon
// vocabulary ("two men"), and falls back to plural markers.
func subjectCount(text string) (count int, plural bool) {
	// Pair phrasings state a count of two without a number word.
	for _, pair := range []string{"man and a woman", "man and woman", "woman and a man", "couple"} {
		if strings.Contains(text, pair) {
			return 2, true
		}
	}
	toks := Tokenize(text)
	numbers := map[string]int{
		"one": 1, "a": 1, "an": 1, "two": 2, "three": 3,
		"four": 4, "five": 5, "six": 6,
	}
	pluralMarkers := map[string]bool{
		"people": true, "men": true, "women": true, "children": true,
		"kids": true, "group": true, "crowd": true, "couple": true,
		"several": true, "many": true,
	}
	for i, tok := range toks {
		if pluralMarkers[tok] {
			plural = true
		}
		n := 0
		if v, ok := numbers[tok]; ok {
			n = v
		} else if v, err := strconv.Atoi(tok); err == nil && v > 0 && v < 100 {
			n = v
		}
		if n == 0 {
			continue
		}
		// Only take the number when it quantifies people, not "two cars".
		if i+1 < len(toks) {
			next := toks[i+1]
			if pluralMarkers[next] || next == "person" || next == "man" ||
				next == "woman" || next == "child" || next == "kid" ||
				next == "boy" || next == "girl" || next == "actor" {
				if count == 0 {
					count = n
				}
			}
		}
	}
	if count >= 2 {
		plural = true
	}
	return count, plural
}

func containsAnyVariant(text string, g *lexicon.SynonymGroup) bool {
	for _, v := range g.Variants {
		if hasPhrase(text, v) {
			return true
		}
	}
	return false
}

// IsFiller reports whether a transcript line carries no searchable speech:
// it equals one of the filler markers or consists only of music note glyphs.
func (d *Detector) IsFiller(transcript string) bool {
	t := strings.ToLower(strings.TrimSpace(transcript))
	if t == "" {
		return true
	}
	for _, m := range d.lex.FillerMarkers {
		if t == m {
			return true
		}
	}
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '♪', '🎵', '🎶', ' ', '\t':
			return -1
		}
		return r
	}, t)
	return stripped == ""
}
