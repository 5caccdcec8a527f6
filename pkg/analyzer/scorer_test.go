package analyzer

import (
	"strings"
	"testing"
)

func TestScoreMixedResults(t *testing.T) {
	// 2 exact + 1 upgrade + 1 missing out of 4: 75%, not completable.
	results := []MatchResult{
		{Status: StatusExactMatch},
		{Status: StatusExactMatch},
		{Status: StatusRarityUpgrade},
		{Status: StatusMissing},
	}

	got := Score("ch1", "Playoff Run", results)
	if got.CompletionPercentage != 75 {
		t.Fatalf("expected 75%%, got %d", got.CompletionPercentage)
	}
	if got.CanComplete {
		t.Fatalf("challenge with a missing requirement must not be completable")
	}
	if len(got.PerRequirement) != 4 {
		t.Fatalf("per-requirement results must be preserved, got %d", len(got.PerRequirement))
	}
}

func TestScorePotentialDoesNotCount(t *testing.T) {
	results := []MatchResult{
		{Status: StatusExactMatch},
		{Status: StatusPotentialMatch},
	}

	got := Score("ch1", "t", results)
	if got.CompletionPercentage != 50 {
		t.Fatalf("potential matches must not count as matched, got %d%%", got.CompletionPercentage)
	}
	if got.CanComplete {
		t.Fatalf("potential matches must not make a challenge completable")
	}
}

func TestScoreZeroRequirements(t *testing.T) {
	// A challenge with no requirements is vacuously complete.
	got := Score("ch1", "t", nil)
	if got.CompletionPercentage != 100 {
		t.Fatalf("zero requirements should score 100%%, got %d", got.CompletionPercentage)
	}
	if !got.CanComplete {
		t.Fatalf("zero requirements should be completable")
	}
}

func TestScoreAllMatched(t *testing.T) {
	results := []MatchResult{
		{Status: StatusExactMatch},
		{Status: StatusRarityUpgrade},
	}

	got := Score("ch1", "t", results)
	if got.CompletionPercentage != 100 || !got.CanComplete {
		t.Fatalf("fully matched challenge should be 100%% completable, got %d%% %t",
			got.CompletionPercentage, got.CanComplete)
	}
}

func TestRecommendationOrder(t *testing.T) {
	results := []MatchResult{
		{Status: StatusExactMatch},
		{Status: StatusRarityUpgrade},
		{Status: StatusMissing},
		{Status: StatusPotentialMatch},
	}

	got := Score("ch1", "t", results)

	// Emission order is part of the contract: exact ack, upgrade note,
	// acquisition note, marketplace suggestion, verify note, closer.
	wantSubstrings := []string{
		"1 exact match",
		"higher-tier",
		"acquire 1 more",
		"marketplace",
		"verify them manually",
		"alternative series",
	}
	if len(got.Recommendations) != len(wantSubstrings) {
		t.Fatalf("expected %d recommendations, got %d: %#v",
			len(wantSubstrings), len(got.Recommendations), got.Recommendations)
	}
	for i, sub := range wantSubstrings {
		if !strings.Contains(got.Recommendations[i], sub) {
			t.Fatalf("recommendation %d should mention %q, got %q", i, sub, got.Recommendations[i])
		}
	}
}

func TestRecommendationZeroMatched(t *testing.T) {
	results := []MatchResult{
		{Status: StatusMissing},
		{Status: StatusMissing},
	}

	got := Score("ch1", "t", results)

	var foundFocus bool
	for _, rec := range got.Recommendations {
		if strings.Contains(rec, "any qualifying card first") {
			foundFocus = true
		}
	}
	if !foundFocus {
		t.Fatalf("zero matched + missing should emit the focus note, got %#v", got.Recommendations)
	}

	last := got.Recommendations[len(got.Recommendations)-1]
	if !strings.Contains(last, "alternative series") {
		t.Fatalf("closing suggestion must always be last, got %q", last)
	}
}

func TestScoreBounds(t *testing.T) {
	for missing := 0; missing <= 5; missing++ {
		for matched := 0; matched <= 5; matched++ {
			var results []MatchResult
			for i := 0; i < matched; i++ {
				results = append(results, MatchResult{Status: StatusExactMatch})
			}
			for i := 0; i < missing; i++ {
				results = append(results, MatchResult{Status: StatusMissing})
			}

			got := Score("ch", "t", results)
			if got.CompletionPercentage < 0 || got.CompletionPercentage > 100 {
				t.Fatalf("percentage out of bounds: %d (matched=%d missing=%d)",
					got.CompletionPercentage, matched, missing)
			}
			if got.CanComplete && got.CompletionPercentage != 100 {
				t.Fatalf("completable challenge must be at 100%%, got %d", got.CompletionPercentage)
			}
		}
	}
}
