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

// Package model defines the core data structures for the b-roll search
// system. This file contains the persistent entities: the video library
// record and the two kinds of searchable segments derived from each video
// during ingestion.
//
// A video is decomposed into:
//   - AudioSegment rows, one per transcript segment, each carrying a text
//     embedding of the title plus transcript text.
//   - VisualSegment rows, one per sampled frame, each carrying a text
//     embedding of the frame's full visual analysis plus the analysis
//     metadata fields used by the lexical boost engine.
package model

import "time"

// Video processing status values. A video starts in StatusProcessing and
// transitions exactly once to StatusComplete or StatusFailed.
const (
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

// Video represents a single uploaded clip in the library.
type Video struct {
	ID            string    `json:"id"`             // The UUID assigned at upload time.
	Filename      string    `json:"filename"`       // The original upload filename, unique within the library.
	Title         string    `json:"title"`          // The display title derived from the filename.
	Duration      float64   `json:"duration"`       // The clip length in seconds, probed with ffprobe.
	Status        string    `json:"status"`         // One of StatusProcessing, StatusComplete, StatusFailed.
	Thumbnail     string    `json:"thumbnail"`      // The generated thumbnail object name.
	CustomTags    string    `json:"custom_tags"`    // Comma-separated user-assigned tags.
	UploadedAt    time.Time `json:"uploaded_at"`    // The upload timestamp.
	AudioSegments int       `json:"audio_segments"` // Number of audio segments (populated on listing).
	VisualFrames  int       `json:"visual_frames"`  // Number of analyzed frames (populated on listing).
}

// AudioSegment is one transcript segment of a video, searchable by semantic
// similarity against its embedding and by exact transcript substring.
type AudioSegment struct {
	ID         int64     `json:"id"`         // The store-assigned row ID.
	VideoID    string    `json:"video_id"`   // The owning video's UUID.
	Filename   string    `json:"filename"`   // The owning video's filename, denormalized for result assembly.
	StartTime  float64   `json:"start_time"` // Segment start offset in seconds.
	EndTime    float64   `json:"end_time"`   // Segment end offset in seconds.
	Duration   float64   `json:"duration"`   // Segment length in seconds.
	Transcript string    `json:"transcript"` // The transcribed speech for this segment.
	Embedding  []float64 `json:"-"`          // The embedding of "Title: <t>. Transcript: <text>".
}

// TagSet holds the five categorized tag strings produced by frame analysis
// (or synthesized from the rest of the analysis when the model omits them).
// Each field is a comma-separated list.
type TagSet struct {
	Emotion    string `json:"emotion_tags"`    // e.g. "joyful-expression, warm-smile".
	Laugh      string `json:"laugh_tags"`      // e.g. "maniacal-laughter, villainous-cackle".
	Contextual string `json:"contextual_tags"` // e.g. "office-meeting, tense-standoff".
	Character  string `json:"character_tags"`  // e.g. "father-son, family-moment".
	Semantic   string `json:"semantic_tags"`   // e.g. "celebration, reunion".
}

// Empty reports whether no categorized tags are present at all.
func (t TagSet) Empty() bool {
	return t.Emotion == "" && t.Laugh == "" && t.Contextual == "" &&
		t.Character == "" && t.Semantic == ""
}

// VisualSegment is one analyzed frame of a video, searchable by semantic
// similarity against its embedding and by the lexical boost engine over its
// metadata fields.
type VisualSegment struct {
	ID          int64     `json:"id"`          // The store-assigned row ID.
	VideoID     string    `json:"video_id"`    // The owning video's UUID.
	Filename    string    `json:"filename"`    // The owning video's filename, denormalized for result assembly.
	Timestamp   float64   `json:"timestamp"`   // The frame offset in seconds.
	FramePath   string    `json:"frame_path"`  // The sampled frame image object name.
	Description string    `json:"description"` // The model's visual description of the frame.
	Embedding   []float64 `json:"-"`           // The embedding of the combined analysis text.

	Emotion           string `json:"emotion"`            // The dominant emotion label for the frame.
	OCRText           string `json:"ocr_text"`           // Text visible on screen.
	Tags              string `json:"tags"`               // Flat, uncategorized tag list.
	Genres            string `json:"genres"`             // Comma-separated genre labels.
	DeepEmotions      string `json:"deep_emotions"`      // Nuanced emotion description.
	SceneContext      string `json:"scene_context"`      // What is happening in the scene.
	PeopleDescription string `json:"people_description"` // Who is visible: count, gender, appearance.
	Environment       string `json:"environment"`        // The physical setting of the frame.
	DialogueContext   string `json:"dialogue_context"`   // The nearby transcript used during analysis.
	SeriesMovie       string `json:"series_movie"`       // The recognized series or movie, if any.
	Actors            string `json:"actors"`             // Recognized actor names, comma-separated.
	CustomTags        string `json:"custom_tags"`        // The owning video's user-assigned tags, denormalized.

	TagSet TagSet `json:"tag_set"` // The five categorized tag strings.
}

// DescriptiveText returns the combined free-text metadata for a visual
// segment. The entity filters inspect this text; when it is too short to be
// trusted the filters stand down rather than exclude the segment.
func (v *VisualSegment) DescriptiveText() string {
	out := v.Description
	if v.PeopleDescription != "" {
		out += " " + v.PeopleDescription
	}
	if v.SceneContext != "" {
		out += " " + v.SceneContext
	}
	if v.Environment != "" {
		out += " " + v.Environment
	}
	return out
}
