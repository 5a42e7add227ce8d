// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lexical

import (
	"regexp"
	"strings"

	"github.com/surgebase/porter2"
)

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
	alnumRe    = regexp.MustCompile(`^[a-z0-9]+$`)
)

// Tokenize lowers text, strips everything outside [a-z0-9] to spaces, and
// splits on whitespace. With stem enabled, tokens longer than three
// characters are reduced to their Porter stem so that inflected forms
// ("numbers", "number") compare equal in ROUGE.
//
// Tokens that stop matching ^[a-z0-9]+$ after stemming are dropped, which
// also removes empties. Returns an empty slice, never nil.
func Tokenize(text string, stem bool) []string {
	text = strings.ToLower(text)
	text = nonAlnumRe.ReplaceAllString(text, " ")

	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if stem && len(tok) > 3 {
			tok = porter2.Stem(tok)
		}
		if alnumRe.MatchString(tok) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
