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

// This file implements the tag synthesis fallback. The vision model is asked
// for five categorized tag lists, but older analyses and occasional
// malformed responses come back without them. Rather than leave those frames
// invisible to the tag boosts, the synthesizer reads the lexicon in reverse:
// it scans the prose fields of the analysis for known emotion, action,
// object, and relationship vocabulary and emits the tags that vocabulary
// implies.
//
// Synthesis is best effort. It never fails; a frame with no recognizable
// vocabulary simply gets empty tag sets.
package search

import (
	"sort"
	"strings"

	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search/lexicon"
)

// maxSynthTags caps each synthesized category so a verbose description
// cannot produce an unbounded tag list.
const maxSynthTags = 5

// Synthesizer derives categorized tags from the prose fields of a frame
// analysis.
type Synthesizer struct {
	lex *lexicon.Lexicon
}

// NewSynthesizer builds a synthesizer over the given lexicon.
func NewSynthesizer(lex *lexicon.Lexicon) *Synthesizer {
	return &Synthesizer{lex: lex}
}

// Synthesize produces the five categorized tag strings for an analysis that
// arrived without them.
func (s *Synthesizer) Synthesize(a *model.FrameAnalysis) model.TagSet {
	emotionText := strings.ToLower(a.Emotion + " " + a.DeepEmotions)
	sceneText := strings.ToLower(a.SceneContext + " " + a.Environment)
	peopleText := strings.ToLower(a.PeopleDescription + " " + a.Description)
	descText := strings.ToLower(a.Description)

	return model.TagSet{
		Emotion:    joinTags(s.emotionTags(emotionText)),
		Laugh:      joinTags(s.laughTags(emotionText + " " + descText)),
		Contextual: joinTags(s.contextualTags(sceneText)),
		Character:  joinTags(s.characterTags(peopleText)),
		Semantic:   joinTags(s.semanticTags(descText)),
	}
}

// emotionTags emits "<word>-expression" for every emotion word whose
// vocabulary appears in the emotion text.
func (s *Synthesizer) emotionTags(text string) []string {
	var out []string
	for key, syns := range s.lex.EmotionTagSynonyms {
		matched := hasPhrase(text, key)
		for _, syn := range syns {
			if matched {
				break
			}
			matched = hasPhrase(text, syn)
		}
		if matched {
			out = append(out, key+"-expression")
		}
	}
	sortTags(out)
	return out
}

// laughTags emits the laughter vocabulary found in the text, qualified by an
// evil marker when the emotion text carries one ("maniacal-laughter" ranks
// very differently from "laughter").
func (s *Synthesizer) laughTags(text string) []string {
	var laughGroup *lexicon.SynonymGroup
	for i := range s.lex.Actions {
		if s.lex.Actions[i].Name == "laughing" {
			laughGroup = &s.lex.Actions[i]
			break
		}
	}
	if laughGroup == nil {
		return nil
	}
	var found []string
	for _, v := range laughGroup.Variants {
		if hasPhrase(text, v) {
			found = append(found, v)
		}
	}
	if len(found) == 0 {
		return nil
	}
	qualifier := ""
	for _, evil := range s.lex.EmotionTagSynonyms["evil"] {
		if hasPhrase(text, evil) {
			qualifier = evil
			break
		}
	}
	var out []string
	for _, f := range found {
		if qualifier != "" {
			out = append(out, qualifier+"-"+f)
		} else {
			out = append(out, f)
		}
	}
	sortTags(out)
	return out
}

// contextualTags emits the names of object and action groups visible in the
// scene and environment text.
func (s *Synthesizer) contextualTags(text string) []string {
	var out []string
	for i := range s.lex.Objects {
		if containsAnyVariant(text, &s.lex.Objects[i]) {
			out = append(out, s.lex.Objects[i].Name)
		}
	}
	for i := range s.lex.Actions {
		if containsAnyVariant(text, &s.lex.Actions[i]) {
			out = append(out, s.lex.Actions[i].Name)
		}
	}
	return out
}

// relationshipWords are the query synonym keys that describe people rather
// than emotions or places; they feed the character tags.
var relationshipWords = []string{"father", "mother", "son", "daughter", "family", "friend"}

// characterTags emits relationship vocabulary found in the people text. When
// two sides of a relationship are both present a combined tag is added, so a
// frame showing both gets "father-son" exactly like the vision model would
// have produced.
func (s *Synthesizer) characterTags(text string) []string {
	present := make(map[string]bool)
	for _, w := range relationshipWords {
		if hasPhrase(text, w) {
			present[w] = true
			continue
		}
		for _, syn := range s.lex.QuerySynonyms[w] {
			if hasPhrase(text, syn) {
				present[w] = true
				break
			}
		}
	}
	var out []string
	for _, w := range relationshipWords {
		if present[w] {
			out = append(out, w)
		}
	}
	if present["father"] && present["son"] {
		out = append(out, "father-son")
	}
	if present["mother"] && present["daughter"] {
		out = append(out, "mother-daughter")
	}
	return out
}

// semanticTags emits the action group names found in the description; they
// summarize what the frame shows at the concept level.
func (s *Synthesizer) semanticTags(text string) []string {
	var out []string
	for i := range s.lex.Actions {
		if containsAnyVariant(text, &s.lex.Actions[i]) {
			out = append(out, s.lex.Actions[i].Name)
		}
	}
	return out
}

// joinTags caps and comma-joins a tag list, returning "" for none.
func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	if len(tags) > maxSynthTags {
		tags = tags[:maxSynthTags]
	}
	return strings.Join(tags, ", ")
}

// sortTags orders tags lexically. Map iteration order would otherwise make
// synthesis output nondeterministic between runs.
func sortTags(tags []string) {
	sort.Strings(tags)
}
