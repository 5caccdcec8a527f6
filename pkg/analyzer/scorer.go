package analyzer

import (
	"fmt"
	"math"
)

// Score reduces per-requirement results into an AnalysisResult.
//
// CompletionPercentage counts only ExactMatch and RarityUpgrade; potential
// matches never inflate the score. CanComplete is computed from the raw
// counts, not derived from the percentage. A challenge with zero
// requirements is vacuously complete: 100% and completable.
func Score(challengeID, challengeTitle string, results []MatchResult) AnalysisResult {
	out := AnalysisResult{
		ChallengeID:    challengeID,
		ChallengeTitle: challengeTitle,
		PerRequirement: results,
	}

	var exact, upgrades, potential, missing int
	for _, r := range results {
		switch r.Status {
		case StatusExactMatch:
			exact++
		case StatusRarityUpgrade:
			upgrades++
		case StatusPotentialMatch:
			potential++
		case StatusMissing:
			missing++
		}
	}

	matched := exact + upgrades
	total := len(results)
	if total == 0 {
		out.CompletionPercentage = 100
		out.CanComplete = true
	} else {
		out.CompletionPercentage = int(math.Round(100 * float64(matched) / float64(total)))
		out.CanComplete = matched == total
	}

	out.Recommendations = recommendations(exact, upgrades, potential, missing, matched)
	return out
}

// recommendations emits rule-based advice. Emission order is part of the
// observable contract: exact, upgrades, missing, potential, zero-matched,
// then the generic closer.
func recommendations(exact, upgrades, potential, missing, matched int) []string {
	var recs []string

	if exact >= 1 {
		recs = append(recs, fmt.Sprintf("You already own %d exact match(es) for this challenge", exact))
	}
	if upgrades >= 1 {
		recs = append(recs, fmt.Sprintf("%d requirement(s) can be covered by higher-tier moments you own", upgrades))
	}
	if missing >= 1 {
		recs = append(recs, fmt.Sprintf("You need to acquire %d more card(s) to complete this challenge", missing))
		recs = append(recs, "Check the marketplace for the missing players")
	}
	if potential >= 1 {
		recs = append(recs, fmt.Sprintf("%d requirement(s) have possible matches, verify them manually", potential))
	}
	if matched == 0 && missing >= 1 {
		recs = append(recs, "Focus on acquiring any qualifying card first to get started")
	}
	recs = append(recs, "Consider alternative series or special editions that may also qualify")

	return recs
}
