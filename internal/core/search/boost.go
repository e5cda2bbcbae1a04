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

// This file implements the lexical boost engine. Cosine similarity alone
// under-ranks short factual queries ("evil laugh", "farzi money scene"), so
// each candidate's similarity is raised when the query literally matches one
// of the segment's metadata fields.
//
// Two matching modes exist:
//   - Substring fields (description, OCR text, scene context, ...) match
//     when the whole query appears inside the field. Queries of three
//     characters or fewer are too noisy for substring matching and are
//     ignored.
//   - Categorized tag fields match token-wise: every meaningful query token
//     must be covered by some tag token, where a token is covered by an
//     exact or substring hit on the token itself, a query synonym, or an
//     emotion tag synonym. This is what lets "father and son" land on a
//     frame tagged "father-son, family-moment".
//
// Boosts never add up. The final boost is the maximum of all matched field
// weights, which keeps a heavily tagged segment from swamping the semantic
// score. A weak emotion-synonym fallback applies only when nothing stronger
// matched.
package search

import (
	"strings"

	"github.com/muziris-studio/broll-search/internal/config"
	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search/lexicon"
)

// Minimum query lengths for the two matching modes. Substring matching on a
// transcript needs a slightly longer query than matching on the short visual
// metadata fields.
const (
	minVisualQueryLen = 2 // visual substring matching needs a query longer than this
	minAudioQueryLen  = 3 // transcript substring matching needs a query longer than this
	minSubstringLen   = 3 // shortest token that may match another token by containment
)

// Booster computes lexical boosts for audio and visual candidates.
type Booster struct {
	weights config.SearchWeights
	lex     *lexicon.Lexicon
	stop    map[string]struct{}
}

// NewBooster builds a boost engine over the given weight table and lexicon.
func NewBooster(weights config.SearchWeights, lex *lexicon.Lexicon) *Booster {
	stop := make(map[string]struct{}, len(lex.Stopwords))
	for _, w := range lex.Stopwords {
		stop[w] = struct{}{}
	}
	return &Booster{weights: weights.Merge(), lex: lex, stop: stop}
}

// AudioBoost returns the transcript boost for a normalized query. Only an
// exact substring hit counts, and only for queries longer than three
// characters.
func (b *Booster) AudioBoost(query, transcript string) float64 {
	if len(query) <= minAudioQueryLen {
		return 0
	}
	if strings.Contains(strings.ToLower(transcript), query) {
		return b.weights.AudioExact
	}
	return 0
}

// VisualBoost returns the metadata boost for a normalized query against one
// visual segment. The result is the maximum matched field weight, never a
// sum.
func (b *Booster) VisualBoost(query string, seg *model.VisualSegment) float64 {
	best := 0.0
	bump := func(matched bool, w float64) {
		if matched && w > best {
			best = w
		}
	}

	if len(query) > minVisualQueryLen {
		contains := func(field string) bool {
			return field != "" && strings.Contains(strings.ToLower(field), query)
		}
		bump(contains(seg.CustomTags), b.weights.CustomTags)
		switch b.actorMatch(query, seg.Actors) {
		case actorMatchFull:
			bump(true, b.weights.ActorFull)
		case actorMatchToken:
			bump(true, b.weights.ActorToken)
		}
		bump(contains(seg.SeriesMovie), b.weights.SeriesMovie)
		bump(contains(seg.Description), b.weights.Description)
		bump(contains(seg.DeepEmotions), b.weights.DeepEmotions)
		bump(contains(seg.OCRText), b.weights.OCRText)
		bump(contains(seg.SceneContext), b.weights.SceneContext)
		bump(contains(seg.Tags), b.weights.FlatTags)
	}

	tokens := b.meaningfulTokens(query)
	if len(tokens) > 0 {
		bump(b.tagFieldMatches(tokens, seg.TagSet.Emotion), b.weights.EmotionTags)
		bump(b.tagFieldMatches(tokens, seg.TagSet.Laugh), b.weights.LaughTags)
		bump(b.tagFieldMatches(tokens, seg.TagSet.Contextual), b.weights.ContextualTags)
		bump(b.tagFieldMatches(tokens, seg.TagSet.Character), b.weights.CharacterTags)
		bump(b.tagFieldMatches(tokens, seg.TagSet.Semantic), b.weights.SemanticTags)
	}

	// Weak fallback: the query names an emotion and some tag or emotion
	// field expresses it through a synonym. Only applies when nothing
	// above the visual threshold matched, so a frame with a real tag hit
	// is never dragged down to the fallback weight.
	if best < b.weights.VisualThreshold && b.emotionFallback(tokens, seg) {
		bump(true, b.weights.EmotionFallback)
	}
	return best
}

type actorMatchKind int

const (
	actorMatchNone actorMatchKind = iota
	actorMatchToken
	actorMatchFull
)

// actorMatch checks the query against the segment's recognized actor names.
// A hit on the full query outranks a hit on an individual query token.
func (b *Booster) actorMatch(query, actors string) actorMatchKind {
	if actors == "" {
		return actorMatchNone
	}
	haystack := strings.ToLower(actors)
	if strings.Contains(haystack, query) {
		return actorMatchFull
	}
	for _, tok := range Tokenize(query) {
		if len(tok) > minVisualQueryLen && strings.Contains(haystack, tok) {
			return actorMatchToken
		}
	}
	return actorMatchNone
}

// meaningfulTokens tokenizes a query and drops stopwords.
func (b *Booster) meaningfulTokens(query string) []string {
	var out []string
	for _, tok := range Tokenize(query) {
		if _, skip := b.stop[tok]; !skip {
			out = append(out, tok)
		}
	}
	return out
}

// expansions returns the set of words that may stand in for a query token:
// the token itself, its query synonyms, and its emotion tag synonyms.
func (b *Booster) expansions(tok string) []string {
	out := []string{tok}
	out = append(out, b.lex.QuerySynonyms[tok]...)
	out = append(out, b.lex.EmotionTagSynonyms[tok]...)
	return out
}

// tagFieldMatches reports whether a categorized tag field covers every
// meaningful query token. A token is covered when any of its expansions hits
// any tag token exactly or by containment in either direction.
func (b *Booster) tagFieldMatches(tokens []string, field string) bool {
	if field == "" {
		return false
	}
	tagToks := TagTokens(field)
	if len(tagToks) == 0 {
		return false
	}
	for _, tok := range tokens {
		if !b.tokenCovered(tok, tagToks) {
			return false
		}
	}
	return true
}

func (b *Booster) tokenCovered(tok string, tagToks []string) bool {
	for _, exp := range b.expansions(tok) {
		for _, tt := range tagToks {
			if exp == tt {
				return true
			}
			if len(exp) >= minSubstringLen && len(tt) >= minSubstringLen &&
				(strings.Contains(tt, exp) || strings.Contains(exp, tt)) {
				return true
			}
		}
	}
	return false
}

// emotionFallback reports whether any query token's emotion synonyms appear
// somewhere in the segment's emotion-bearing text.
func (b *Booster) emotionFallback(tokens []string, seg *model.VisualSegment) bool {
	haystack := strings.ToLower(strings.Join([]string{
		seg.Emotion, seg.DeepEmotions,
		seg.TagSet.Emotion, seg.TagSet.Laugh, seg.TagSet.Contextual,
		seg.TagSet.Character, seg.TagSet.Semantic,
	}, " "))
	for _, tok := range tokens {
		for _, syn := range b.lex.EmotionTagSynonyms[tok] {
			if strings.Contains(haystack, syn) {
				return true
			}
		}
	}
	return false
}

// Weights exposes the merged weight table, mainly so the engine can share
// the thresholds and result cap with the boost computation.
func (b *Booster) Weights() config.SearchWeights { return b.weights }
