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

// This file contains the transient structures that exist only while a video
// moves through the ingestion pipeline or while a search request is being
// answered. These objects are intermediate containers for data as it is
// processed and passed between commands in a chain; none of them are
// persisted in this form.
package model

// TranscriptSegment is one time-aligned span of transcribed speech returned
// by the transcription model before it is turned into an AudioSegment.
type TranscriptSegment struct {
	Start float64 `json:"start"` // Start offset in seconds.
	End   float64 `json:"end"`   // End offset in seconds.
	Text  string  `json:"text"`  // The transcribed speech.
}

// FrameAnalysis is the structured JSON document the vision model returns for
// a single sampled frame. Array-valued tag fields are flattened to
// comma-separated strings before persistence.
type FrameAnalysis struct {
	Description       string   `json:"description"`        // The visual description of the frame.
	Emotion           string   `json:"emotion"`            // The dominant emotion label.
	OCRText           string   `json:"ocr_text"`           // Text visible on screen.
	Tags              string   `json:"tags"`               // Flat tag list, comma-separated.
	Genres            string   `json:"genres"`             // Genre labels, comma-separated.
	DeepEmotions      string   `json:"deep_emotions"`      // Nuanced emotion description.
	SceneContext      string   `json:"scene_context"`      // What is happening in the scene.
	PeopleDescription string   `json:"people_description"` // Who is visible: count, gender, appearance.
	Environment       string   `json:"environment"`        // The physical setting.
	DialogueContext   string   `json:"dialogue_context"`   // Dialogue inferred or provided.
	SeriesMovie       string   `json:"series_movie"`       // Recognized series or movie.
	Actors            string   `json:"actors"`             // Recognized actor names.
	EmotionTags       []string `json:"emotion_tags"`       // Categorized emotion tags.
	LaughTags         []string `json:"laugh_tags"`         // Categorized laugh tags.
	ContextualTags    []string `json:"contextual_tags"`    // Categorized context tags.
	CharacterTags     []string `json:"character_tags"`     // Categorized character tags.
	SemanticTags      []string `json:"semantic_tags"`      // Categorized semantic tags.
}

// IngestJob carries the state of one video through the processing pipeline.
// Each command in the chain fills in the fields it is responsible for.
type IngestJob struct {
	VideoID   string  // The UUID assigned to the video record.
	Filename  string  // The original upload filename.
	Title     string  // The display title derived from the filename.
	LocalPath string  // The path to the uploaded file on local disk.
	Duration  float64 // The probed clip duration in seconds.
	Thumbnail string  // The generated thumbnail object name.
	AudioPath string  // The extracted audio file path, empty for silent clips.

	Transcript []TranscriptSegment // The transcription result.
	Frames     []SampledFrame      // The frames extracted for analysis.
}

// SampledFrame is one frame image pulled out of a video for visual analysis.
type SampledFrame struct {
	Timestamp float64 // The frame offset in seconds.
	Path      string  // The local path of the extracted image.
	Name      string  // The object name used when the frame is persisted.
}
