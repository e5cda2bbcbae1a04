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

package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muziris-studio/broll-search/internal/core/search"
)

func TestCosineIdenticalVectors(t *testing.T) {
	v := []float64{0.5, -0.25, 1.5}
	got, err := search.Cosine(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestCosineOrthogonalVectors(t *testing.T) {
	got, err := search.Cosine([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-9)
}

func TestCosineOppositeVectors(t *testing.T) {
	got, err := search.Cosine([]float64{1, 2}, []float64{-1, -2})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, got, 1e-9)
}

func TestCosineZeroMagnitudeIsZeroNotError(t *testing.T) {
	got, err := search.Cosine([]float64{0, 0, 0}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestCosineMismatchedLengths(t *testing.T) {
	_, err := search.Cosine([]float64{1, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, search.ErrInvalidEmbedding)
}

func TestCosineEmptyVectors(t *testing.T) {
	_, err := search.Cosine(nil, []float64{1})
	assert.ErrorIs(t, err, search.ErrInvalidEmbedding)
}
