package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSignatures(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		signatures []string
		expected   string
	}{
		{name: "no signatures", text: " AMAZON ", expected: "AMAZON"},
		{name: "suffix", text: "セブンイレブン／ｉＤ", signatures: []string{"／ｉＤ"}, expected: "セブンイレブン"},
		{name: "prefix", text: "ｉＤ／ローソン", signatures: []string{"／ｉＤ", "ｉＤ／"}, expected: "ローソン"},
		{name: "prefix and suffix same token", text: "/N 楽天市場 /N", signatures: []string{"/N"}, expected: "楽天市場"},
		{name: "chained tokens", text: "ＡＰ／ファミリーマート／ＮＦＣ", signatures: []string{"／Ｎ", "／ＮＦＣ", "ＡＰ／"}, expected: "ファミリーマート"},
		{name: "ideographic space trimmed", text: "マツモトキヨシ　／ｉＤ", signatures: []string{"／ｉＤ"}, expected: "マツモトキヨシ"},
		{name: "token only in middle", text: "ABC/NDEF", signatures: []string{"/N"}, expected: "ABC/NDEF"},
		{name: "empty token ignored", text: "SHOP", signatures: []string{""}, expected: "SHOP"},
		{name: "whole text is token", text: "楽天ＳＰ", signatures: []string{"楽天ＳＰ"}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanSignatures(tt.text, tt.signatures))
		})
	}
}

func TestCleanSignatures_Deterministic(t *testing.T) {
	sigs := []string{"／Ｎ", "ＡＰ／"}
	first := CleanSignatures("ＡＰ／スターバックス／Ｎ", sigs)
	assert.Equal(t, first, CleanSignatures("ＡＰ／スターバックス／Ｎ", sigs))
	assert.Equal(t, "スターバックス", first)
}

func TestMergeSignatures(t *testing.T) {
	got := MergeSignatures([]string{"／ｉＤ", "ｉＤ／"}, "ｉＤ／", "", "QP/")
	assert.Equal(t, []string{"／ｉＤ", "ｉＤ／", "QP/"}, got)
}
