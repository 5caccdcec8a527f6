package analyzer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/hoopscope/hoopscope/pkg/challenge"
)

func testChallenge() challenge.Challenge {
	return challenge.Challenge{
		ID:    "playoff-run-2025",
		Title: "Playoff Run",
		RequiredCards: []challenge.RequiredCard{
			{Title: "Pascal Siakam Moment", RarityText: "Common"},
			{Title: "Any SGA moment", RarityText: "Common"},
			{Title: "Victor Wembanyama Moment", RarityText: "Legendary"},
		},
	}
}

func testLibrary() []Card {
	return []Card{
		{ID: "1", PlayerName: "Pascal Siakam", Series: "Base Set", Rarity: RarityCommon},
		{ID: "2", PlayerName: "Shai Gilgeous-Alexander", Series: "Metallic Gold", Rarity: RarityRare},
	}
}

func TestRuleEngineAnalyze(t *testing.T) {
	engine := NewRuleEngine(DefaultResolverConfig())

	got, err := engine.Analyze(context.Background(), testChallenge(), testLibrary())
	if err != nil {
		t.Fatalf("rule engine must not fail: %v", err)
	}

	if len(got.PerRequirement) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got.PerRequirement))
	}
	statuses := []MatchStatus{
		got.PerRequirement[0].Status,
		got.PerRequirement[1].Status,
		got.PerRequirement[2].Status,
	}
	expect := []MatchStatus{StatusExactMatch, StatusRarityUpgrade, StatusMissing}
	if !reflect.DeepEqual(statuses, expect) {
		t.Fatalf("unexpected statuses.\nwant: %v\ngot:  %v", expect, statuses)
	}

	// 2 of 3 matched.
	if got.CompletionPercentage != 67 {
		t.Fatalf("expected 67%%, got %d", got.CompletionPercentage)
	}
	if got.CanComplete {
		t.Fatalf("challenge with a missing requirement is not completable")
	}
}

func TestRuleEngineIdempotent(t *testing.T) {
	engine := NewRuleEngine(DefaultResolverConfig())
	ch := testChallenge()
	lib := testLibrary()

	first, _ := engine.Analyze(context.Background(), ch, lib)
	second, _ := engine.Analyze(context.Background(), ch, lib)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("analysis is not idempotent.\nfirst:  %#v\nsecond: %#v", first, second)
	}
}

func TestRuleEngineLibraryGrowthIsMonotonic(t *testing.T) {
	engine := NewRuleEngine(DefaultResolverConfig())
	ch := testChallenge()

	before, _ := engine.Analyze(context.Background(), ch, testLibrary())

	grown := append(testLibrary(), Card{
		ID: "3", PlayerName: "Victor Wembanyama", Series: "Base Set", Rarity: RarityLegendary,
	})
	after, _ := engine.Analyze(context.Background(), ch, grown)

	if after.CompletionPercentage < before.CompletionPercentage {
		t.Fatalf("adding a satisfying card decreased completion: %d -> %d",
			before.CompletionPercentage, after.CompletionPercentage)
	}
	if before.PerRequirement[0].Status == StatusExactMatch &&
		after.PerRequirement[0].Status != StatusExactMatch {
		t.Fatalf("previously exact requirement degraded to %q", after.PerRequirement[0].Status)
	}
	if after.PerRequirement[2].Status != StatusExactMatch {
		t.Fatalf("new card should satisfy the legendary requirement, got %q",
			after.PerRequirement[2].Status)
	}
}

type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }
func (failingStrategy) Analyze(context.Context, challenge.Challenge, []Card) (AnalysisResult, error) {
	return AnalysisResult{}, errors.New("remote analyzer unavailable")
}

type warnRecorder struct{ warned bool }

func (w *warnRecorder) Warnf(string, ...interface{}) { w.warned = true }

func TestWithFallback(t *testing.T) {
	rules := NewRuleEngine(DefaultResolverConfig())
	log := &warnRecorder{}
	strategy := WithFallback(failingStrategy{}, rules, log)

	got, err := strategy.Analyze(context.Background(), testChallenge(), testLibrary())
	if err != nil {
		t.Fatalf("fallback chain must recover: %v", err)
	}
	if len(got.PerRequirement) != 3 {
		t.Fatalf("fallback did not run the rule engine, got %d results", len(got.PerRequirement))
	}
	if !log.warned {
		t.Fatalf("fallback should log the primary failure")
	}
}
