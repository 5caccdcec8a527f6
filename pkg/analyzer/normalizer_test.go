package analyzer

import (
	"reflect"
	"testing"
)

func TestParseCardRecord(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected Card
	}{
		{
			name:    "full record",
			content: "Pascal Siakam - Dunk - Feb 12 2025, Metallic Gold LE, Indiana Pacers",
			expected: Card{
				ID:         "c1",
				PlayerName: "Pascal Siakam",
				PlayType:   "Dunk",
				Series:     "Metallic Gold LE",
				Team:       "Indiana Pacers",
				Rarity:     RarityRare,
				RawText:    "Pascal Siakam - Dunk - Feb 12 2025, Metallic Gold LE, Indiana Pacers",
			},
		},
		{
			name:    "common series",
			content: "Tyrese Haliburton - Assist - Jan 3 2025, Base Set, Indiana Pacers",
			expected: Card{
				ID:         "c1",
				PlayerName: "Tyrese Haliburton",
				PlayType:   "Assist",
				Series:     "Base Set",
				Team:       "Indiana Pacers",
				Rarity:     RarityCommon,
				RawText:    "Tyrese Haliburton - Assist - Jan 3 2025, Base Set, Indiana Pacers",
			},
		},
		{
			name:    "missing team",
			content: "Chet Holmgren - Block - Mar 1 2025, Base Set",
			expected: Card{
				ID:         "c1",
				PlayerName: "Chet Holmgren",
				PlayType:   "Block",
				Series:     "Base Set",
				Rarity:     RarityCommon,
				RawText:    "Chet Holmgren - Block - Mar 1 2025, Base Set",
			},
		},
		{
			name:    "malformed record degrades to unknown",
			content: "justonestring",
			expected: Card{
				ID:         "c1",
				PlayerName: "Unknown",
				Rarity:     RarityCommon,
				RawText:    "justonestring",
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := ParseCardRecord("c1", tc.content)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Fatalf("unexpected card.\nwant: %#v\ngot:  %#v", tc.expected, got)
			}
		})
	}
}

func TestParseLibraryContinuesPastMalformedRecords(t *testing.T) {
	records := []RawRecord{
		{ID: "a", Content: "justonestring"},
		{ID: "b", Content: "Lu Dort - Steal - Apr 2 2025, Base Set, Oklahoma City Thunder"},
	}

	cards := ParseLibrary(records)
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].PlayerName != "Unknown" {
		t.Fatalf("malformed record should degrade to Unknown, got %q", cards[0].PlayerName)
	}
	if cards[1].PlayerName != "Lu Dort" {
		t.Fatalf("second record should still parse, got %q", cards[1].PlayerName)
	}
}

func TestInferRarity(t *testing.T) {
	tests := []struct {
		series   string
		expected Rarity
	}{
		{"Metallic Gold", RarityRare},
		{"Series 4 LE", RarityRare},
		{"Base Set", RarityCommon},
		{"", RarityCommon},
	}
	for _, tc := range tests {
		if got := InferRarity(tc.series); got != tc.expected {
			t.Fatalf("InferRarity(%q) = %q, want %q", tc.series, got, tc.expected)
		}
	}
}
