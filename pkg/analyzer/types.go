package analyzer

// Rarity is a card's scarcity tier. Tiers are ordered:
// Common < Rare < Legendary.
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityRare      Rarity = "Rare"
	RarityLegendary Rarity = "Legendary"
)

// rarityOrder is the single source of truth for tier comparisons. It is
// shared between the exact-match predicate and the upgrade check so the
// two can never disagree on ordering.
var rarityOrder = map[Rarity]int{
	RarityCommon:    1,
	RarityRare:      2,
	RarityLegendary: 3,
}

// Order returns the numeric rank of a tier. Unknown or empty tiers rank 0,
// below Common.
func (r Rarity) Order() int {
	return rarityOrder[r]
}

// Card is one owned moment in the user's library. Cards are built once by
// the library normalizer and treated as immutable afterwards.
type Card struct {
	ID         string `json:"id"`
	PlayerName string `json:"player_name"`
	PlayType   string `json:"play_type,omitempty"`
	Series     string `json:"series,omitempty"`
	Team       string `json:"team,omitempty"`
	Rarity     Rarity `json:"rarity"`

	// RawText preserves the original record for auditability when parsing
	// degraded to a fallback card.
	RawText string `json:"raw_text,omitempty"`
}

// MatchStatus classifies how a single requirement resolved against the
// library. Statuses are mutually exclusive and listed in decreasing
// confidence order.
type MatchStatus string

const (
	StatusExactMatch     MatchStatus = "exact_match"
	StatusRarityUpgrade  MatchStatus = "rarity_upgrade"
	StatusPotentialMatch MatchStatus = "potential_match"
	StatusMissing        MatchStatus = "missing"
)

// Matched reports whether this status counts toward challenge completion.
// PotentialMatch deliberately does not.
func (s MatchStatus) Matched() bool {
	return s == StatusExactMatch || s == StatusRarityUpgrade
}

// MatchResult is the outcome for one required card. MatchedCard points
// into the library (set only for exact/upgrade); Candidates holds
// plausible-but-unverified cards (set only for potential matches).
type MatchResult struct {
	RequirementTitle string      `json:"requirement_title"`
	Status           MatchStatus `json:"status"`
	MatchedCard      *Card       `json:"matched_card,omitempty"`
	Candidates       []*Card     `json:"candidates,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	// Suggestions lists alternative actions; set only for Missing.
	Suggestions []string `json:"suggestions,omitempty"`
}

// AnalysisResult aggregates per-requirement outcomes for one challenge
// against one library snapshot.
type AnalysisResult struct {
	ChallengeID          string        `json:"challenge_id"`
	ChallengeTitle       string        `json:"challenge_title"`
	CompletionPercentage int           `json:"completion_percentage"`
	CanComplete          bool          `json:"can_complete"`
	PerRequirement       []MatchResult `json:"per_requirement"`
	Recommendations      []string      `json:"recommendations"`
}
