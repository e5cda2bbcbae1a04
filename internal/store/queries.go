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

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/muziris-studio/broll-search/internal/core/model"
)

const videoColumns = "id, filename, title, duration, status, thumbnail, custom_tags, uploaded_at"

// CreateVideo inserts a new library record. The caller assigns the ID and
// the upload timestamp. Timestamps are stored as unix seconds, which both
// backends handle identically.
func (s *Store) CreateVideo(ctx context.Context, v *model.Video) error {
	query := s.rebind(`INSERT INTO videos (` + videoColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.Filename, v.Title, v.Duration, v.Status, v.Thumbnail, v.CustomTags, v.UploadedAt.Unix())
	if err != nil {
		return fmt.Errorf("create video %s: %w", v.ID, err)
	}
	return nil
}

// GetVideo fetches a single video by ID, returning ErrVideoNotFound when no
// row matches.
func (s *Store) GetVideo(ctx context.Context, id string) (*model.Video, error) {
	query := s.rebind(`SELECT ` + videoColumns + ` FROM videos WHERE id = ?`)
	return s.scanVideo(s.db.QueryRowContext(ctx, query, id))
}

// GetVideoByFilename fetches a video by its unique upload filename. The
// ingestion pipeline uses this to detect a re-upload of the same clip.
func (s *Store) GetVideoByFilename(ctx context.Context, filename string) (*model.Video, error) {
	query := s.rebind(`SELECT ` + videoColumns + ` FROM videos WHERE filename = ?`)
	return s.scanVideo(s.db.QueryRowContext(ctx, query, filename))
}

func (s *Store) scanVideo(row *sql.Row) (*model.Video, error) {
	var v model.Video
	var uploaded int64
	err := row.Scan(&v.ID, &v.Filename, &v.Title, &v.Duration, &v.Status,
		&v.Thumbnail, &v.CustomTags, &uploaded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan video: %w", err)
	}
	v.UploadedAt = time.Unix(uploaded, 0).UTC()
	return &v, nil
}

// ListVideos returns every library record, newest first, with per-video
// segment counts populated.
func (s *Store) ListVideos(ctx context.Context) ([]model.Video, error) {
	query := `
		SELECT v.id, v.filename, v.title, v.duration, v.status, v.thumbnail,
		       v.custom_tags, v.uploaded_at,
		       (SELECT COUNT(*) FROM audio_segments a WHERE a.video_id = v.id),
		       (SELECT COUNT(*) FROM visual_segments f WHERE f.video_id = v.id)
		FROM videos v
		ORDER BY v.uploaded_at DESC, v.id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		var v model.Video
		var uploaded int64
		if err := rows.Scan(&v.ID, &v.Filename, &v.Title, &v.Duration, &v.Status,
			&v.Thumbnail, &v.CustomTags, &uploaded,
			&v.AudioSegments, &v.VisualFrames); err != nil {
			return nil, fmt.Errorf("scan video row: %w", err)
		}
		v.UploadedAt = time.Unix(uploaded, 0).UTC()
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// UpdateVideoStatus moves a video to a new processing status.
func (s *Store) UpdateVideoStatus(ctx context.Context, id string, status string) error {
	query := s.rebind(`UPDATE videos SET status = ? WHERE id = ?`)
	return s.execOnVideo(ctx, query, status, id)
}

// UpdateVideoMedia records the probed duration and generated thumbnail once
// early ingestion steps complete.
func (s *Store) UpdateVideoMedia(ctx context.Context, id string, duration float64, thumbnail string) error {
	query := s.rebind(`UPDATE videos SET duration = ?, thumbnail = ? WHERE id = ?`)
	return s.execOnVideo(ctx, query, duration, thumbnail, id)
}

// DeleteVideo removes a video and, through the foreign key cascade, all of
// its audio and visual segments.
func (s *Store) DeleteVideo(ctx context.Context, id string) error {
	query := s.rebind(`DELETE FROM videos WHERE id = ?`)
	return s.execOnVideo(ctx, query, id)
}

// execOnVideo runs a statement expected to touch exactly one videos row and
// maps a zero-row result to ErrVideoNotFound.
func (s *Store) execOnVideo(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if n == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// AddCustomTag appends a user tag to a video, case-insensitively deduplicated
// against the existing list. It returns the updated comma-separated list.
func (s *Store) AddCustomTag(ctx context.Context, id string, tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", fmt.Errorf("empty tag")
	}
	v, err := s.GetVideo(ctx, id)
	if err != nil {
		return "", err
	}
	tags := splitTags(v.CustomTags)
	for _, existing := range tags {
		if strings.EqualFold(existing, tag) {
			return v.CustomTags, nil
		}
	}
	tags = append(tags, tag)
	updated := joinTags(tags)
	return updated, s.setCustomTags(ctx, id, updated)
}

// RemoveCustomTag deletes a user tag from a video, matching case
// insensitively, and returns the updated comma-separated list.
func (s *Store) RemoveCustomTag(ctx context.Context, id string, tag string) (string, error) {
	v, err := s.GetVideo(ctx, id)
	if err != nil {
		return "", err
	}
	tags := splitTags(v.CustomTags)
	kept := tags[:0]
	for _, existing := range tags {
		if !strings.EqualFold(existing, strings.TrimSpace(tag)) {
			kept = append(kept, existing)
		}
	}
	updated := joinTags(kept)
	return updated, s.setCustomTags(ctx, id, updated)
}

func (s *Store) setCustomTags(ctx context.Context, id string, tags string) error {
	query := s.rebind(`UPDATE videos SET custom_tags = ? WHERE id = ?`)
	return s.execOnVideo(ctx, query, tags, id)
}

// PutAudioSegment inserts one transcript segment with its embedding.
func (s *Store) PutAudioSegment(ctx context.Context, seg *model.AudioSegment) error {
	emb, err := encodeEmbedding(seg.Embedding)
	if err != nil {
		return err
	}
	query := s.rebind(`
		INSERT INTO audio_segments (video_id, filename, start_time, end_time, duration, transcript, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		seg.VideoID, seg.Filename, seg.StartTime, seg.EndTime, seg.Duration,
		seg.Transcript, emb); err != nil {
		return fmt.Errorf("put audio segment: %w", err)
	}
	return nil
}

// PutVisualSegment inserts one analyzed frame with its embedding and all of
// the metadata fields the relevance engine reads.
func (s *Store) PutVisualSegment(ctx context.Context, seg *model.VisualSegment) error {
	emb, err := encodeEmbedding(seg.Embedding)
	if err != nil {
		return err
	}
	query := s.rebind(`
		INSERT INTO visual_segments (
			video_id, filename, timestamp, frame_path, description, embedding,
			emotion, ocr_text, tags, genres, deep_emotions, scene_context,
			people_description, environment, dialogue_context, series_movie, actors,
			emotion_tags, laugh_tags, contextual_tags, character_tags, semantic_tags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		seg.VideoID, seg.Filename, seg.Timestamp, seg.FramePath, seg.Description, emb,
		seg.Emotion, seg.OCRText, seg.Tags, seg.Genres, seg.DeepEmotions, seg.SceneContext,
		seg.PeopleDescription, seg.Environment, seg.DialogueContext, seg.SeriesMovie, seg.Actors,
		seg.TagSet.Emotion, seg.TagSet.Laugh, seg.TagSet.Contextual,
		seg.TagSet.Character, seg.TagSet.Semantic); err != nil {
		return fmt.Errorf("put visual segment: %w", err)
	}
	return nil
}

// AudioSegments returns every searchable transcript segment in the library.
// Rows without a stored embedding are excluded.
func (s *Store) AudioSegments(ctx context.Context) ([]model.AudioSegment, error) {
	query := `
		SELECT id, video_id, filename, start_time, end_time, duration, transcript, embedding
		FROM audio_segments
		WHERE embedding IS NOT NULL
		ORDER BY video_id, start_time, id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query audio segments: %w", err)
	}
	defer rows.Close()

	var segments []model.AudioSegment
	for rows.Next() {
		var seg model.AudioSegment
		var raw []byte
		if err := rows.Scan(&seg.ID, &seg.VideoID, &seg.Filename, &seg.StartTime,
			&seg.EndTime, &seg.Duration, &seg.Transcript, &raw); err != nil {
			return nil, fmt.Errorf("scan audio segment: %w", err)
		}
		if seg.Embedding, err = decodeEmbedding(raw); err != nil {
			return nil, err
		}
		if len(seg.Embedding) == 0 {
			continue
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// VisualSegments returns every searchable analyzed frame in the library.
// The owning video's custom tags are joined in so a tag edit takes effect on
// the next search. Rows without a stored embedding are excluded.
func (s *Store) VisualSegments(ctx context.Context) ([]model.VisualSegment, error) {
	query := `
		SELECT f.id, f.video_id, f.filename, f.timestamp, f.frame_path,
		       f.description, f.embedding, f.emotion, f.ocr_text, f.tags,
		       f.genres, f.deep_emotions, f.scene_context, f.people_description,
		       f.environment, f.dialogue_context, f.series_movie, f.actors,
		       f.emotion_tags, f.laugh_tags, f.contextual_tags, f.character_tags,
		       f.semantic_tags, v.custom_tags
		FROM visual_segments f
		JOIN videos v ON v.id = f.video_id
		WHERE f.embedding IS NOT NULL
		ORDER BY f.video_id, f.timestamp, f.id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query visual segments: %w", err)
	}
	defer rows.Close()

	var segments []model.VisualSegment
	for rows.Next() {
		var seg model.VisualSegment
		var raw []byte
		if err := rows.Scan(&seg.ID, &seg.VideoID, &seg.Filename, &seg.Timestamp,
			&seg.FramePath, &seg.Description, &raw, &seg.Emotion, &seg.OCRText,
			&seg.Tags, &seg.Genres, &seg.DeepEmotions, &seg.SceneContext,
			&seg.PeopleDescription, &seg.Environment, &seg.DialogueContext,
			&seg.SeriesMovie, &seg.Actors,
			&seg.TagSet.Emotion, &seg.TagSet.Laugh, &seg.TagSet.Contextual,
			&seg.TagSet.Character, &seg.TagSet.Semantic,
			&seg.CustomTags); err != nil {
			return nil, fmt.Errorf("scan visual segment: %w", err)
		}
		if seg.Embedding, err = decodeEmbedding(raw); err != nil {
			return nil, err
		}
		if len(seg.Embedding) == 0 {
			continue
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// DeleteSegments removes every segment row for a video. The ingestion
// pipeline calls this before re-processing an existing clip.
func (s *Store) DeleteSegments(ctx context.Context, videoID string) error {
	for _, table := range []string{"audio_segments", "visual_segments"} {
		query := s.rebind(`DELETE FROM ` + table + ` WHERE video_id = ?`)
		if _, err := s.db.ExecContext(ctx, query, videoID); err != nil {
			return fmt.Errorf("delete %s for %s: %w", table, videoID, err)
		}
	}
	return nil
}

// DistinctEmotions returns the sorted set of per-frame emotion labels in the
// library, for populating the search filter dropdown.
func (s *Store) DistinctEmotions(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT emotion FROM visual_segments WHERE emotion <> '' ORDER BY emotion`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query emotions: %w", err)
	}
	defer rows.Close()

	var emotions []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scan emotion: %w", err)
		}
		emotions = append(emotions, strings.ToLower(strings.TrimSpace(e)))
	}
	return dedupSorted(emotions), rows.Err()
}

// DistinctGenres returns the sorted set of genre labels in the library.
// Genres are stored as comma-separated lists per frame, so the rows are
// split and deduplicated here.
func (s *Store) DistinctGenres(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT genres FROM visual_segments WHERE genres <> ''`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()

	var genres []string
	for rows.Next() {
		var list string
		if err := rows.Scan(&list); err != nil {
			return nil, fmt.Errorf("scan genres: %w", err)
		}
		for _, g := range splitTags(list) {
			genres = append(genres, strings.ToLower(g))
		}
	}
	return dedupSorted(genres), rows.Err()
}

func dedupSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
