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

// This file defines the error taxonomy for the relevance engine. The engine
// distinguishes between failures that abort a search (the embedding provider
// or the store being down) and per-candidate defects (a malformed stored
// embedding) that only exclude a single segment from the ranking.
package search

import (
	"errors"
	"fmt"
)

// ErrInvalidEmbedding marks a stored embedding that cannot be compared with
// the query vector (empty, or a different dimensionality). Candidates with
// invalid embeddings are skipped, never fatal.
var ErrInvalidEmbedding = errors.New("invalid embedding")

// EmbeddingError wraps a failure from the embedding provider. A search
// cannot proceed without a query vector, so this error is fatal.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding request failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// StoreError wraps a failure reading segments from the metadata store. Like
// EmbeddingError it aborts the search.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NoResultsMessage builds the human-readable explanation for an empty result
// list. When the query named a known title the message says so, because the
// fix (upload footage from that title) is different from the generic advice.
func NoResultsMessage(title string) string {
	if title != "" {
		return fmt.Sprintf("No clips found from %q. Upload footage from it or try different keywords.", title)
	}
	return "No matching clips found. Try different keywords or add custom tags to your videos."
}
