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

// Package ingest turns an uploaded video into searchable metadata. It
// decomposes the clip with ffmpeg, transcribes the audio track, analyzes
// sampled frames with the vision model, embeds everything, and persists the
// resulting segments. The steps are chained with the cor workflow framework
// and run on a fixed-size worker pool.
package ingest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/muziris-studio/broll-search/internal/config"
	"github.com/muziris-studio/broll-search/internal/core/model"
)

// frameIntervalSeconds is how far apart frames are sampled for visual
// analysis. Matches the window length attached to visual search results.
const frameIntervalSeconds = 10.0

// MediaTool is the port for the external media operations the pipeline
// needs. The ffmpeg implementation is below; tests substitute a fake.
type MediaTool interface {
	Duration(ctx context.Context, path string) (float64, error)
	Thumbnail(ctx context.Context, path string, at float64, outPath string) error
	ExtractAudio(ctx context.Context, path string, outPath string) error
	SampleFrames(ctx context.Context, path string, duration float64, outDir string) ([]model.SampledFrame, error)
}

// FFmpeg shells out to the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg builds the tool wrapper, defaulting to binaries on PATH.
func NewFFmpeg(cfg config.FFmpeg) *FFmpeg {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpegPath: cfg.FFmpegPath, ffprobePath: cfg.FFprobePath}
}

// Duration probes the clip length in seconds.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// Thumbnail extracts a single scaled frame at the given offset.
func (f *FFmpeg) Thumbnail(ctx context.Context, path string, at float64, outPath string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-hide_banner", "-y",
		"-ss", formatSeconds(at),
		"-i", path,
		"-frames:v", "1",
		"-vf", "scale=320:-2",
		outPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg thumbnail %s: %w", path, err)
	}
	return nil
}

// ExtractAudio pulls the audio track into an mp3 file. Clips without an
// audio stream make ffmpeg fail; callers treat that as a silent clip.
func (f *FFmpeg) ExtractAudio(ctx context.Context, path string, outPath string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-hide_banner", "-y",
		"-i", path,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "4",
		outPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg audio extract %s: %w", path, err)
	}
	return nil
}

// SampleFrames extracts one frame every frameIntervalSeconds into outDir
// and returns them in timestamp order.
func (f *FFmpeg) SampleFrames(ctx context.Context, path string, duration float64, outDir string) ([]model.SampledFrame, error) {
	// Always sample at least the first frame, even for very short clips.
	count := int(duration/frameIntervalSeconds) + 1
	var frames []model.SampledFrame
	for i := 0; i < count; i++ {
		ts := float64(i) * frameIntervalSeconds
		if ts >= duration && i > 0 {
			break
		}
		name := fmt.Sprintf("%04d.jpg", i)
		outPath := filepath.Join(outDir, name)
		cmd := exec.CommandContext(ctx, f.ffmpegPath,
			"-hide_banner", "-y",
			"-ss", formatSeconds(ts),
			"-i", path,
			"-frames:v", "1",
			"-q:v", "3",
			outPath)
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("ffmpeg frame sample %s at %.1fs: %w", path, ts, err)
		}
		frames = append(frames, model.SampledFrame{Timestamp: ts, Path: outPath, Name: name})
	}
	return frames, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
