package analyzer

import (
	"fmt"
	"strings"

	"github.com/hoopscope/hoopscope/pkg/challenge"
)

const (
	missingNote        = "No matching player found in library"
	orHigherModifier   = "or higher tier"
	playoffsConstraint = "2025 NBA Playoffs"
)

// missingSuggestions is the fixed list of alternative actions attached to
// a Missing classification.
var missingSuggestions = []string{
	"Check the marketplace for this player",
	"Look for pack drops featuring this requirement",
	"Consider trading for a qualifying moment",
}

// Matcher classifies requirements against one library snapshot. It holds
// only read-only state, so a single matcher may serve concurrent analyses.
type Matcher struct {
	resolver *Resolver
	index    *Index
}

// NewMatcher wires a resolver and an index over the same library snapshot.
func NewMatcher(resolver *Resolver, index *Index) *Matcher {
	return &Matcher{resolver: resolver, index: index}
}

// MatchRequirement runs the classification state machine for one required
// card. Priority order: ExactMatch, then RarityUpgrade, then
// PotentialMatch, then Missing. The first satisfying condition wins.
func (m *Matcher) MatchRequirement(req challenge.RequiredCard) MatchResult {
	result := MatchResult{RequirementTitle: req.Title, Status: StatusMissing}

	names := m.resolver.Resolve(req.Title)
	if len(names) == 0 {
		return missingResult(req)
	}

	requiredTier := ExtractRequiredTier(req.RarityText)

	// 1. Exact match: first qualifying card in any candidate's bucket.
	for _, name := range names {
		for _, card := range m.index.Lookup(name) {
			if exactQualifies(card, req, requiredTier) {
				result.Status = StatusExactMatch
				result.MatchedCard = card
				result.Notes = fmt.Sprintf("Owned %s moment satisfies the requirement", card.PlayerName)
				return result
			}
		}
	}

	// 2. Rarity upgrade: first card of strictly higher tier than required.
	// Later candidate names are still scanned if earlier buckets had
	// nothing, but the first upgrade found wins.
	for _, name := range names {
		for _, card := range m.index.Lookup(name) {
			if card.Rarity.Order() > requiredTier.Order() {
				result.Status = StatusRarityUpgrade
				result.MatchedCard = card
				result.Notes = fmt.Sprintf("%s %s moment can stand in for the %s requirement", card.PlayerName, card.Rarity, displayTier(requiredTier))
				return result
			}
		}
	}

	// 3. Potential match: fuzzy scan over the whole library, deduplicated
	// by card id.
	seen := make(map[string]struct{})
	var candidates []*Card
	for _, name := range names {
		for _, card := range m.index.FuzzyCandidates(name) {
			if _, ok := seen[card.ID]; ok {
				continue
			}
			seen[card.ID] = struct{}{}
			candidates = append(candidates, card)
		}
	}
	if len(candidates) > 0 {
		result.Status = StatusPotentialMatch
		result.Candidates = candidates
		result.Notes = fmt.Sprintf("%d similar moment(s) found, verify tier and series manually", len(candidates))
		return result
	}

	return missingResult(req)
}

func missingResult(req challenge.RequiredCard) MatchResult {
	return MatchResult{
		RequirementTitle: req.Title,
		Status:           StatusMissing,
		Notes:            missingNote,
		Suggestions:      missingSuggestions,
	}
}

// ExtractRequiredTier pulls the required tier out of free-text rarity
// requirements by literal substring search, highest tier first. An empty
// result means no tier constraint.
func ExtractRequiredTier(rarityText string) Rarity {
	for _, tier := range []Rarity{RarityLegendary, RarityRare, RarityCommon} {
		if strings.Contains(rarityText, string(tier)) {
			return tier
		}
	}
	return ""
}

// exactQualifies is the exact-match predicate: series gate for playoff
// requirements, then the tier constraint, honoring the "or higher tier"
// modifier.
func exactQualifies(card *Card, req challenge.RequiredCard, requiredTier Rarity) bool {
	if strings.Contains(req.RarityText, playoffsConstraint) {
		if !strings.Contains(card.Series, "2025") && !strings.Contains(card.Series, "Playoffs") {
			return false
		}
	}

	if requiredTier != "" && strings.Contains(req.RarityText, orHigherModifier) {
		return card.Rarity.Order() >= requiredTier.Order()
	}

	return strings.Contains(strings.ToLower(string(card.Rarity)), strings.ToLower(string(requiredTier)))
}

func displayTier(tier Rarity) string {
	if tier == "" {
		return "unspecified"
	}
	return string(tier)
}
