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

// Package lexicon holds the curated vocabulary tables that drive the entity
// and attribute detector and the lexical boost engine. The tables are plain
// data: known titles, actor aliases, gender buckets, subject count words,
// action and object synonym groups, emotion opposites, and the synonym maps
// used for query expansion.
//
// The tables are injected into the relevance engine at construction so tests
// can substitute a small fixture lexicon. Slices are used instead of maps
// wherever iteration order affects matching, keeping detection
// deterministic.
package lexicon

// SynonymGroup names a concept and the surface forms that express it, used
// for both actions ("running" covers run, jog, sprint) and objects ("car"
// covers vehicle, taxi).
type SynonymGroup struct {
	Name     string   // The canonical concept name.
	Variants []string // Lowercase surface forms, including the name itself.
}

// GenderBucket maps query vocabulary onto the people-description markers a
// frame must (and must not) show for the bucket to match.
type GenderBucket struct {
	Name     string   // The bucket name: "woman", "man", "child", "couple", "group".
	Triggers []string // Query words that select this bucket.
	Positive []string // Markers that must appear in the frame's people text.
	Negative []string // Markers that must not appear in the frame's people text.
}

// CountWord maps a query word onto a subject count. A Count of zero means
// "more than one, unspecified" and matches any plural frame.
type CountWord struct {
	Word  string
	Count int
}

// ActorAlias maps an actor's canonical name onto the alternate spellings and
// shorthands seen in queries.
type ActorAlias struct {
	Canonical string
	Variants  []string
}

// Lexicon bundles every curated table the relevance engine consults. All
// entries are lowercase.
type Lexicon struct {
	Titles             []string            // Known series and movie titles.
	Actors             []ActorAlias        // Actor names and their aliases.
	FemaleActors       []string            // Actors counted as female markers by the gender buckets.
	MaleActors         []string            // Actors counted as male markers by the gender buckets.
	GenderBuckets      []GenderBucket      // Query gender vocabulary, in priority order.
	CountWords         []CountWord         // Query subject count vocabulary.
	Actions            []SynonymGroup      // Action concepts and their surface forms.
	Objects            []SynonymGroup      // Object concepts and their surface forms.
	EmotionOpposites   map[string]string   // Emotion word to its opposite, both directions present.
	QuerySynonyms      map[string][]string // Query token to equivalent tokens for tag matching.
	EmotionTagSynonyms map[string][]string // Emotion word to the tag fragments that express it.
	MusicWords         []string            // Query words that indicate the user wants music or sound.
	FillerMarkers      []string            // Transcript lines that carry no searchable speech.
	Stopwords          []string            // Query tokens ignored by tag matching.
}

// Default returns the built-in production lexicon.
func Default() *Lexicon {
	return &Lexicon{
		Titles: []string{
			"farzi", "mirzapur", "sacred games", "panchayat", "gullak",
			"scam 1992", "kota factory", "the family man", "paatal lok",
			"money heist", "breaking bad", "friends", "the office",
			"game of thrones", "stranger things", "peaky blinders",
			"better call saul", "dark", "narcos", "succession",
		},
		Actors: []ActorAlias{
			{Canonical: "shahid kapoor", Variants: []string{"shahid", "shahid kapur"}},
			{Canonical: "shah rukh khan", Variants: []string{"srk", "shahrukh", "shah rukh"}},
			{Canonical: "vijay sethupathi", Variants: []string{"sethupathi", "makkal selvan"}},
			{Canonical: "pankaj tripathi", Variants: []string{"tripathi"}},
			{Canonical: "nawazuddin siddiqui", Variants: []string{"nawaz", "nawazuddin"}},
			{Canonical: "alia bhatt", Variants: []string{"alia"}},
			{Canonical: "deepika padukone", Variants: []string{"deepika"}},
			{Canonical: "priyanka chopra", Variants: []string{"priyanka"}},
			{Canonical: "amitabh bachchan", Variants: []string{"amitabh", "big b"}},
			{Canonical: "bryan cranston", Variants: []string{"cranston"}},
			{Canonical: "jennifer aniston", Variants: []string{"aniston"}},
			{Canonical: "steve carell", Variants: []string{"carell"}},
		},
		FemaleActors: []string{
			"alia bhatt", "deepika padukone", "priyanka chopra",
			"jennifer aniston", "raashii khanna", "kriti sanon",
		},
		MaleActors: []string{
			"shahid kapoor", "shah rukh khan", "vijay sethupathi",
			"pankaj tripathi", "nawazuddin siddiqui", "amitabh bachchan",
			"bryan cranston", "steve carell",
		},
		GenderBuckets: []GenderBucket{
			{
				Name:     "couple",
				Triggers: []string{"couple", "husband and wife", "boyfriend and girlfriend"},
				Positive: []string{"couple", "man and woman", "man and a woman", "husband", "wife", "boyfriend", "girlfriend"},
			},
			{
				Name:     "child",
				Triggers: []string{"child", "children", "kid", "kids", "baby", "toddler"},
				Positive: []string{"child", "children", "kid", "boy", "girl", "baby", "toddler", "young"},
			},
			{
				Name:     "woman",
				Triggers: []string{"woman", "women", "girl", "girls", "lady", "ladies", "female", "actress"},
				Positive: []string{"woman", "women", "girl", "lady", "female", "she", "her", "actress"},
				Negative: []string{"only men", "all men", "all male"},
			},
			{
				Name:     "man",
				Triggers: []string{"man", "men", "guy", "guys", "male", "gentleman"},
				Positive: []string{"man", "men", "guy", "male", "he", "his", "gentleman", "actor"},
				Negative: []string{"only women", "all women", "all female"},
			},
			{
				Name:     "group",
				Triggers: []string{"group", "crowd", "team", "people"},
				Positive: []string{"group", "crowd", "team", "people", "several", "many"},
			},
		},
		CountWords: []CountWord{
			{Word: "one", Count: 1},
			{Word: "solo", Count: 1},
			{Word: "single", Count: 1},
			{Word: "alone", Count: 1},
			{Word: "two", Count: 2},
			{Word: "couple", Count: 2},
			{Word: "pair", Count: 2},
			{Word: "duo", Count: 2},
			{Word: "three", Count: 3},
			{Word: "trio", Count: 3},
			{Word: "four", Count: 4},
			{Word: "quartet", Count: 4},
			{Word: "five", Count: 5},
			{Word: "many", Count: 0},
			{Word: "multiple", Count: 0},
			{Word: "several", Count: 0},
			{Word: "group", Count: 0},
		},
		Actions: []SynonymGroup{
			{Name: "laughing", Variants: []string{"laugh", "laughing", "laughs", "laughter", "giggle", "giggling", "chuckle", "chuckling", "cackle", "cackling"}},
			{Name: "crying", Variants: []string{"cry", "crying", "cries", "tears", "sobbing", "weeping", "tearful"}},
			{Name: "running", Variants: []string{"run", "running", "runs", "jog", "jogging", "sprint", "sprinting", "chase", "chasing"}},
			{Name: "dancing", Variants: []string{"dance", "dancing", "dances", "dancer"}},
			{Name: "singing", Variants: []string{"sing", "singing", "sings", "singer"}},
			{Name: "fighting", Variants: []string{"fight", "fighting", "fights", "punch", "punching", "brawl", "combat"}},
			{Name: "eating", Variants: []string{"eat", "eating", "eats", "meal", "dining", "chewing"}},
			{Name: "drinking", Variants: []string{"drink", "drinking", "drinks", "sipping"}},
			{Name: "walking", Variants: []string{"walk", "walking", "walks", "strolling"}},
			{Name: "jumping", Variants: []string{"jump", "jumping", "jumps", "leaping"}},
			{Name: "driving", Variants: []string{"drive", "driving", "drives", "riding"}},
			{Name: "cooking", Variants: []string{"cook", "cooking", "cooks", "baking", "frying"}},
			{Name: "talking", Variants: []string{"talk", "talking", "talks", "speaking", "conversation", "chatting"}},
			{Name: "shouting", Variants: []string{"shout", "shouting", "shouts", "yelling", "screaming"}},
			{Name: "hugging", Variants: []string{"hug", "hugging", "hugs", "embrace", "embracing"}},
			{Name: "kissing", Variants: []string{"kiss", "kissing", "kisses"}},
			{Name: "sleeping", Variants: []string{"sleep", "sleeping", "sleeps", "asleep", "napping"}},
			{Name: "reading", Variants: []string{"read", "reading", "reads"}},
			{Name: "writing", Variants: []string{"write", "writing", "writes", "typing"}},
			{Name: "clapping", Variants: []string{"clap", "clapping", "claps", "applause", "applauding"}},
		},
		Objects: []SynonymGroup{
			{Name: "car", Variants: []string{"car", "cars", "vehicle", "taxi", "cab"}},
			{Name: "phone", Variants: []string{"phone", "phones", "mobile", "smartphone", "cellphone"}},
			{Name: "gun", Variants: []string{"gun", "guns", "pistol", "rifle", "weapon", "firearm"}},
			{Name: "money", Variants: []string{"money", "cash", "currency", "notes", "rupees", "dollars"}},
			{Name: "food", Variants: []string{"food", "dish", "plate", "meal", "snack"}},
			{Name: "dog", Variants: []string{"dog", "dogs", "puppy"}},
			{Name: "cat", Variants: []string{"cat", "cats", "kitten"}},
			{Name: "book", Variants: []string{"book", "books", "novel"}},
			{Name: "computer", Variants: []string{"computer", "laptop", "screen", "monitor"}},
			{Name: "knife", Variants: []string{"knife", "knives", "blade"}},
			{Name: "camera", Variants: []string{"camera", "cameras"}},
			{Name: "guitar", Variants: []string{"guitar", "guitars"}},
			{Name: "glasses", Variants: []string{"glasses", "sunglasses", "spectacles"}},
			{Name: "cigarette", Variants: []string{"cigarette", "cigarettes", "smoking", "cigar"}},
		},
		EmotionOpposites: map[string]string{
			"happy":    "sad",
			"sad":      "happy",
			"laughing": "crying",
			"crying":   "laughing",
			"excited":  "bored",
			"bored":    "excited",
			"calm":     "angry",
			"angry":    "calm",
			"joyful":   "melancholy",
			"smiling":  "frowning",
			"frowning": "smiling",
		},
		QuerySynonyms: map[string][]string{
			"father":   {"dad", "daddy", "papa"},
			"mother":   {"mom", "mommy", "mummy", "mama"},
			"son":      {"boy"},
			"daughter": {"girl"},
			"family":   {"families", "relatives"},
			"friend":   {"friends", "buddy", "pal"},
			"laugh":    {"laughing", "laughter", "chuckle", "giggle", "cackle"},
			"cry":      {"crying", "tears", "sobbing", "weeping"},
			"fight":    {"fighting", "brawl", "combat"},
			"dance":    {"dancing", "dancer"},
			"angry":    {"anger", "furious", "rage"},
			"happy":    {"happiness", "joy", "joyful", "cheerful"},
			"sad":      {"sadness", "sorrow", "melancholy"},
			"scared":   {"fear", "fearful", "terrified", "frightened"},
			"funny":    {"comedy", "comic", "humorous", "hilarious"},
			"office":   {"workplace", "corporate"},
			"wedding":  {"marriage", "bride", "groom"},
		},
		EmotionTagSynonyms: map[string][]string{
			"evil":    {"maniacal", "villainous", "sinister", "menacing", "wicked", "devious"},
			"happy":   {"joyful", "cheerful", "delighted", "smiling", "beaming", "gleeful"},
			"sad":     {"tearful", "melancholy", "sorrowful", "gloomy", "heartbroken"},
			"angry":   {"furious", "enraged", "irritated", "hostile", "seething"},
			"scared":  {"fearful", "terrified", "anxious", "panicked", "startled"},
			"laugh":   {"chuckle", "giggle", "laughter", "cackle", "snicker"},
			"warm":    {"friendly", "gentle", "tender", "affectionate", "kind"},
			"excited": {"thrilled", "energetic", "enthusiastic", "ecstatic"},
			"calm":    {"peaceful", "serene", "relaxed", "composed"},
			"nervous": {"anxious", "uneasy", "jittery", "tense"},
			"proud":   {"triumphant", "confident", "accomplished"},
		},
		MusicWords: []string{
			"music", "song", "songs", "audio", "sound", "beat", "melody",
			"tune", "singing", "instrumental",
		},
		FillerMarkers: []string{
			"♪", "♪♪", "♪♪♪", "🎵", "🎶",
			"[music]", "(music)", "[applause]", "(applause)",
			"[laughter]", "(laughter)", "...",
		},
		Stopwords: []string{
			"a", "an", "and", "the", "of", "with", "in", "on", "at", "to",
			"for", "by", "is", "are", "was", "were", "or",
		},
	}
}
