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

// This file contains the text normalization and tokenization helpers shared
// by the detector and the boost engine. All matching in the engine happens
// on lowercase text.
package search

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Normalize lowercases and trims a query or metadata field.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tokenize splits normalized text into lowercase word tokens. Anything that
// is not a letter or digit separates tokens, so "father-son" yields
// ["father", "son"].
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TagTokens splits a comma-separated tag field into word tokens. The comma
// split happens first so multi-word tags contribute each of their words.
func TagTokens(field string) []string {
	var out []string
	for _, tag := range strings.Split(field, ",") {
		out = append(out, Tokenize(tag)...)
	}
	return out
}

// CleanTitle derives a display title from an upload filename: the extension
// is dropped and dashes and underscores become spaces, so
// "Farzi-money-printing.mp4" becomes "Farzi money printing".
func CleanTitle(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.ReplaceAll(base, "-", " ")
	base = strings.ReplaceAll(base, "_", " ")
	return strings.TrimSpace(base)
}

// hasPhrase reports whether needle appears in haystack on token boundaries
// for single words, or as a plain substring for multi-word phrases. Both
// arguments must already be lowercase.
func hasPhrase(haystack, needle string) bool {
	if needle == "" || haystack == "" {
		return false
	}
	if strings.ContainsRune(needle, ' ') {
		return strings.Contains(haystack, needle)
	}
	for _, tok := range Tokenize(haystack) {
		if tok == needle {
			return true
		}
	}
	return false
}
