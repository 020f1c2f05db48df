// Package categorizer assigns merchant identities and categories to
// statement rows. It rewrites raw merchant text to canonical destinations
// using the owner's keyword rules, stages mappings for payees never seen
// before, and joins rows against the mapping table to produce normalized
// transactions.
package categorizer

import (
	"sort"
	"strings"

	"fjacquet/stmt-import/internal/models"
)

// RewriteRule maps a keyword to the canonical destination it rewrites to.
type RewriteRule struct {
	Keyword     string
	Destination string
}

// RewriteIndex is the keyword table built from a mapping table. It is built
// fresh for each run and never mutated afterwards.
type RewriteIndex struct {
	rules []RewriteRule
}

// BuildRewriteIndex inverts the mapping table into keyword rules. Every
// mapping contributes its comma-separated keywords and its own
// destination_original, each pointing at the mapping's destination. Mappings
// are visited in ascending id order, then by destination_original, and a
// keyword keeps the destination of the first mapping that claimed it.
// Keywords are case-sensitive.
func BuildRewriteIndex(mappings []models.PayeeMapping) *RewriteIndex {
	ordered := make([]models.PayeeMapping, len(mappings))
	copy(ordered, mappings)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ID != ordered[j].ID {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].DestinationOriginal < ordered[j].DestinationOriginal
	})

	claimed := make(map[string]string)
	for _, m := range ordered {
		canonical := canonicalDestination(m)
		keywords := append(m.KeywordList(), m.DestinationOriginal)
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			if _, ok := claimed[kw]; !ok {
				claimed[kw] = canonical
			}
		}
	}

	rules := make([]RewriteRule, 0, len(claimed))
	for kw, dest := range claimed {
		rules = append(rules, RewriteRule{Keyword: kw, Destination: dest})
	}
	// longest keyword first, ties lexicographic
	sort.Slice(rules, func(i, j int) bool {
		li, lj := len([]rune(rules[i].Keyword)), len([]rune(rules[j].Keyword))
		if li != lj {
			return li > lj
		}
		return rules[i].Keyword < rules[j].Keyword
	})

	return &RewriteIndex{rules: rules}
}

func canonicalDestination(m models.PayeeMapping) string {
	if m.Destination != "" {
		return m.Destination
	}
	return m.DestinationOriginal
}

// Len returns the number of keywords in the index.
func (ix *RewriteIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.rules)
}

// Rules returns the rules in match order.
func (ix *RewriteIndex) Rules() []RewriteRule {
	if ix == nil {
		return nil
	}
	out := make([]RewriteRule, len(ix.rules))
	copy(out, ix.rules)
	return out
}

// Lookup returns the first rule whose keyword is a substring of text.
func (ix *RewriteIndex) Lookup(text string) (RewriteRule, bool) {
	if ix == nil {
		return RewriteRule{}, false
	}
	for _, rule := range ix.rules {
		if strings.Contains(text, rule.Keyword) {
			return rule, true
		}
	}
	return RewriteRule{}, false
}

// ApplyRewrites returns a copy of rows with destinations rewritten. For each
// row the first matching rule wins; if its destination differs from the
// row's, the previous destination becomes the alias (unless an alias is
// already set) and the destination is replaced. DestinationOriginal is
// never changed.
func ApplyRewrites(rows []models.RawRow, ix *RewriteIndex) []models.RawRow {
	out := make([]models.RawRow, len(rows))
	for i, r := range rows {
		out[i] = r
		rule, ok := ix.Lookup(r.Destination)
		if !ok || rule.Destination == r.Destination {
			continue
		}
		if out[i].Alias == "" {
			out[i].Alias = r.Destination
		}
		out[i].Destination = rule.Destination
	}
	return out
}
