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

// This file defines the concrete pipeline commands. Each command embeds
// cor.BaseCommand, reads the *model.IngestJob from the chain context, does
// one unit of work, and passes the job on. A command that fails records the
// error on the context, which stops the chain.
package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/muziris-studio/broll-search/internal/ai"
	"github.com/muziris-studio/broll-search/internal/core/cor"
	"github.com/muziris-studio/broll-search/internal/core/model"
	"github.com/muziris-studio/broll-search/internal/core/search"
	"github.com/muziris-studio/broll-search/internal/storage"
	"github.com/muziris-studio/broll-search/internal/store"
)

// job pulls the ingest job out of the chain context.
func job(c cor.Command, context cor.Context) *model.IngestJob {
	return context.Get(c.GetInputParam()).(*model.IngestJob)
}

// fail records a command failure on both the metrics and the context.
func fail(c cor.Command, context cor.Context, err error) {
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(c.GetName(), err)
}

// pass records success and forwards the job to the next command.
func pass(c cor.Command, context cor.Context, j *model.IngestJob) {
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, j)
}

// MediaInfoCommand probes the clip duration, renders the thumbnail, and
// records both on the video row.
type MediaInfoCommand struct {
	cor.BaseCommand
	tool    MediaTool
	objects storage.ObjectStore
	meta    store.MetadataStore
}

func NewMediaInfoCommand(tool MediaTool, objects storage.ObjectStore, meta store.MetadataStore) *MediaInfoCommand {
	return &MediaInfoCommand{BaseCommand: *cor.NewBaseCommand("media_info"), tool: tool, objects: objects, meta: meta}
}

func (c *MediaInfoCommand) Execute(context cor.Context) {
	j := job(c, context)
	ctx := context.GetContext()

	duration, err := c.tool.Duration(ctx, j.LocalPath)
	if err != nil {
		fail(c, context, err)
		return
	}
	j.Duration = duration

	// Ten percent into the clip, capped at one second, so the thumbnail
	// lands past any fade-in on short clips too.
	at := duration * 0.1
	if at > 1.0 {
		at = 1.0
	}
	thumbFile, err := os.CreateTemp("", "thumb-*.jpg")
	if err != nil {
		fail(c, context, err)
		return
	}
	thumbFile.Close()
	context.AddTempFile(thumbFile.Name())
	if err := c.tool.Thumbnail(ctx, j.LocalPath, at, thumbFile.Name()); err != nil {
		fail(c, context, err)
		return
	}

	objectName := "thumbnails/" + j.VideoID + ".jpg"
	f, err := os.Open(thumbFile.Name())
	if err != nil {
		fail(c, context, err)
		return
	}
	err = c.objects.Save(ctx, objectName, f, "image/jpeg")
	f.Close()
	if err != nil {
		fail(c, context, err)
		return
	}
	j.Thumbnail = objectName

	if err := c.meta.UpdateVideoMedia(ctx, j.VideoID, j.Duration, j.Thumbnail); err != nil {
		fail(c, context, err)
		return
	}
	pass(c, context, j)
}

// AudioExtractCommand pulls the audio track into a temporary mp3. A clip
// without an audio stream is not an error; the job continues silent.
type AudioExtractCommand struct {
	cor.BaseCommand
	tool MediaTool
}

func NewAudioExtractCommand(tool MediaTool) *AudioExtractCommand {
	return &AudioExtractCommand{BaseCommand: *cor.NewBaseCommand("audio_extract"), tool: tool}
}

func (c *AudioExtractCommand) Execute(context cor.Context) {
	j := job(c, context)

	audioFile, err := os.CreateTemp("", "audio-*.mp3")
	if err != nil {
		fail(c, context, err)
		return
	}
	audioFile.Close()
	context.AddTempFile(audioFile.Name())

	if err := c.tool.ExtractAudio(context.GetContext(), j.LocalPath, audioFile.Name()); err != nil {
		slog.WarnContext(context.GetContext(), "no audio track extracted, treating clip as silent",
			"video_id", j.VideoID, "error", err)
		j.AudioPath = ""
		pass(c, context, j)
		return
	}
	j.AudioPath = audioFile.Name()
	pass(c, context, j)
}

// TranscribeCommand turns the extracted audio into time-aligned transcript
// segments. Silent clips pass straight through.
type TranscribeCommand struct {
	cor.BaseCommand
	transcriber ai.Transcriber
}

func NewTranscribeCommand(transcriber ai.Transcriber) *TranscribeCommand {
	return &TranscribeCommand{BaseCommand: *cor.NewBaseCommand("transcribe"), transcriber: transcriber}
}

func (c *TranscribeCommand) Execute(context cor.Context) {
	j := job(c, context)
	if j.AudioPath == "" {
		pass(c, context, j)
		return
	}
	audio, err := os.ReadFile(j.AudioPath)
	if err != nil {
		fail(c, context, err)
		return
	}
	segments, err := c.transcriber.Transcribe(context.GetContext(), audio, "audio/mpeg")
	if err != nil {
		fail(c, context, err)
		return
	}
	j.Transcript = segments
	pass(c, context, j)
}

// AudioIndexCommand embeds each transcript segment and persists it. The
// embedded text carries the clip title so title words contribute to the
// semantic match.
type AudioIndexCommand struct {
	cor.BaseCommand
	embedder ai.EmbeddingProvider
	meta     store.MetadataStore
}

func NewAudioIndexCommand(embedder ai.EmbeddingProvider, meta store.MetadataStore) *AudioIndexCommand {
	return &AudioIndexCommand{BaseCommand: *cor.NewBaseCommand("audio_index"), embedder: embedder, meta: meta}
}

func (c *AudioIndexCommand) Execute(context cor.Context) {
	j := job(c, context)
	ctx := context.GetContext()

	for _, seg := range j.Transcript {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		vec, err := c.embedder.EmbedText(ctx, fmt.Sprintf("Title: %s. Transcript: %s", j.Title, text))
		if err != nil {
			fail(c, context, err)
			return
		}
		err = c.meta.PutAudioSegment(ctx, &model.AudioSegment{
			VideoID:    j.VideoID,
			Filename:   j.Filename,
			StartTime:  seg.Start,
			EndTime:    seg.End,
			Duration:   seg.End - seg.Start,
			Transcript: text,
			Embedding:  vec,
		})
		if err != nil {
			fail(c, context, err)
			return
		}
	}
	pass(c, context, j)
}

// FrameSampleCommand extracts one frame per analysis window into a scratch
// directory tracked for cleanup.
type FrameSampleCommand struct {
	cor.BaseCommand
	tool MediaTool
}

func NewFrameSampleCommand(tool MediaTool) *FrameSampleCommand {
	return &FrameSampleCommand{BaseCommand: *cor.NewBaseCommand("frame_sample"), tool: tool}
}

func (c *FrameSampleCommand) Execute(context cor.Context) {
	j := job(c, context)

	dir, err := os.MkdirTemp("", "frames-")
	if err != nil {
		fail(c, context, err)
		return
	}
	frames, err := c.tool.SampleFrames(context.GetContext(), j.LocalPath, j.Duration, dir)
	if err != nil {
		fail(c, context, err)
		return
	}
	for _, frame := range frames {
		context.AddTempFile(frame.Path)
	}
	// Registered after the frame files so cleanup empties it first.
	context.AddTempFile(dir)

	j.Frames = frames
	pass(c, context, j)
}

// FrameAnalyzeCommand runs the vision model over every sampled frame,
// synthesizes categorized tags when the model returns none, embeds the
// combined analysis text, stores the frame image, and persists the segment.
type FrameAnalyzeCommand struct {
	cor.BaseCommand
	vision   ai.VisionAnalyzer
	embedder ai.EmbeddingProvider
	objects  storage.ObjectStore
	meta     store.MetadataStore
	synth    *search.Synthesizer
}

func NewFrameAnalyzeCommand(vision ai.VisionAnalyzer, embedder ai.EmbeddingProvider, objects storage.ObjectStore, meta store.MetadataStore, synth *search.Synthesizer) *FrameAnalyzeCommand {
	return &FrameAnalyzeCommand{
		BaseCommand: *cor.NewBaseCommand("frame_analyze"),
		vision:      vision,
		embedder:    embedder,
		objects:     objects,
		meta:        meta,
		synth:       synth,
	}
}

func (c *FrameAnalyzeCommand) Execute(context cor.Context) {
	j := job(c, context)
	ctx := context.GetContext()

	for _, frame := range j.Frames {
		image, err := os.ReadFile(frame.Path)
		if err != nil {
			fail(c, context, err)
			return
		}
		analysis, err := c.vision.AnalyzeFrame(ctx, image, "image/jpeg", frameDialogue(j, frame.Timestamp))
		if err != nil {
			fail(c, context, err)
			return
		}

		seg := segmentFromAnalysis(j, frame, analysis)
		if seg.TagSet.Empty() {
			seg.TagSet = c.synth.Synthesize(analysis)
		}
		vec, err := c.embedder.EmbedText(ctx, combinedText(seg))
		if err != nil {
			fail(c, context, err)
			return
		}
		seg.Embedding = vec

		objectName := path.Join("frames", j.VideoID, frame.Name)
		f, err := os.Open(frame.Path)
		if err != nil {
			fail(c, context, err)
			return
		}
		err = c.objects.Save(ctx, objectName, f, "image/jpeg")
		f.Close()
		if err != nil {
			fail(c, context, err)
			return
		}
		seg.FramePath = objectName

		if err := c.meta.PutVisualSegment(ctx, seg); err != nil {
			fail(c, context, err)
			return
		}
	}
	pass(c, context, j)
}

// frameDialogue assembles the prompt context for one frame: the clip title
// plus any transcript overlapping the frame's analysis window.
func frameDialogue(j *model.IngestJob, at float64) string {
	var lines []string
	lines = append(lines, "Video title: "+j.Title)
	for _, seg := range j.Transcript {
		if seg.End <= at || seg.Start >= at+frameIntervalSeconds {
			continue
		}
		if text := strings.TrimSpace(seg.Text); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

// segmentFromAnalysis maps the model's analysis document onto a persistent
// visual segment, flattening the categorized tag arrays.
func segmentFromAnalysis(j *model.IngestJob, frame model.SampledFrame, a *model.FrameAnalysis) *model.VisualSegment {
	return &model.VisualSegment{
		VideoID:           j.VideoID,
		Filename:          j.Filename,
		Timestamp:         frame.Timestamp,
		Description:       a.Description,
		Emotion:           a.Emotion,
		OCRText:           a.OCRText,
		Tags:              a.Tags,
		Genres:            a.Genres,
		DeepEmotions:      a.DeepEmotions,
		SceneContext:      a.SceneContext,
		PeopleDescription: a.PeopleDescription,
		Environment:       a.Environment,
		DialogueContext:   a.DialogueContext,
		SeriesMovie:       a.SeriesMovie,
		Actors:            a.Actors,
		TagSet: model.TagSet{
			Emotion:    strings.Join(a.EmotionTags, ", "),
			Laugh:      strings.Join(a.LaughTags, ", "),
			Contextual: strings.Join(a.ContextualTags, ", "),
			Character:  strings.Join(a.CharacterTags, ", "),
			Semantic:   strings.Join(a.SemanticTags, ", "),
		},
	}
}

// combinedText builds the text that is embedded for a visual segment. All
// metadata fields participate so any of them can drive a semantic match.
func combinedText(seg *model.VisualSegment) string {
	parts := []string{
		seg.Description, seg.Emotion, seg.OCRText, seg.Tags, seg.Genres,
		seg.DeepEmotions, seg.SceneContext, seg.PeopleDescription,
		seg.Environment, seg.DialogueContext, seg.SeriesMovie, seg.Actors,
		seg.TagSet.Emotion, seg.TagSet.Laugh, seg.TagSet.Contextual,
		seg.TagSet.Character, seg.TagSet.Semantic,
	}
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ". ")
}
