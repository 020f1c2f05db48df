// Package textutils provides merchant text cleanup for statement rows.
package textutils

import "strings"

// CleanSignatures strips institution signature tokens from the start or end
// of text. Tokens are applied in order, and the text is trimmed after every
// strip so that a later token can match what an earlier one uncovered.
// Whitespace trimming covers the ideographic space U+3000.
func CleanSignatures(text string, signatures []string) string {
	text = strings.TrimSpace(text)
	for _, sig := range signatures {
		if sig == "" {
			continue
		}
		if strings.HasPrefix(text, sig) {
			text = strings.TrimSpace(strings.TrimPrefix(text, sig))
		}
		if strings.HasSuffix(text, sig) {
			text = strings.TrimSpace(strings.TrimSuffix(text, sig))
		}
	}
	return text
}

// MergeSignatures appends extra tokens to base, skipping blanks and duplicates.
func MergeSignatures(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, sig := range list {
			if sig == "" {
				continue
			}
			if _, ok := seen[sig]; ok {
				continue
			}
			seen[sig] = struct{}{}
			out = append(out, sig)
		}
	}
	return out
}
