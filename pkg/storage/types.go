package storage

import (
	"time"

	"github.com/hoopscope/hoopscope/pkg/analyzer"
	"github.com/hoopscope/hoopscope/pkg/challenge"
)

// ChallengeRecord is a stored challenge with its requirements.
type ChallengeRecord struct {
	ChallengeID string `json:"challenge_id"`
	Source      string `json:"source"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`

	Requirements []RequirementRecord `json:"requirements"`
}

// RequirementRecord is one stored required card, ordered by Position
// within its challenge.
type RequirementRecord struct {
	Position   int    `json:"position"`
	Title      string `json:"title"`
	RarityText string `json:"rarity_text,omitempty"`
}

// ToChallenge converts a stored record back into its scraped form so it can
// be fed to an analysis strategy.
func (r ChallengeRecord) ToChallenge() challenge.Challenge {
	ch := challenge.Challenge{
		ID:    r.ChallengeID,
		Title: r.Title,
		URL:   r.URL,
	}
	for _, req := range r.Requirements {
		ch.RequiredCards = append(ch.RequiredCards, challenge.RequiredCard{
			Title:      req.Title,
			RarityText: req.RarityText,
		})
	}
	return ch
}

// Change captures a single challenge change event for auditing or printing.
type Change struct {
	OccurredAt  time.Time `json:"occurred_at"`
	ChallengeID string    `json:"challenge_id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	ChangeType  string    `json:"change_type"` // added | updated | removed
}

// CardRecord is one stored library card.
type CardRecord struct {
	CardID     string `json:"card_id"`
	PlayerName string `json:"player_name"`
	PlayType   string `json:"play_type,omitempty"`
	Series     string `json:"series,omitempty"`
	Team       string `json:"team,omitempty"`
	Rarity     string `json:"rarity"`
	RawText    string `json:"raw_text,omitempty"`
}

// ToCard converts a stored library card into its analysis form.
func (c CardRecord) ToCard() analyzer.Card {
	return analyzer.Card{
		ID:         c.CardID,
		PlayerName: c.PlayerName,
		PlayType:   c.PlayType,
		Series:     c.Series,
		Team:       c.Team,
		Rarity:     analyzer.Rarity(c.Rarity),
		RawText:    c.RawText,
	}
}

// CardsFromRecords converts a stored library into analyzer cards.
func CardsFromRecords(records []CardRecord) []analyzer.Card {
	cards := make([]analyzer.Card, 0, len(records))
	for _, rec := range records {
		cards = append(cards, rec.ToCard())
	}
	return cards
}

// RecordsFromCards converts parsed cards into their stored form.
func RecordsFromCards(cards []analyzer.Card) []CardRecord {
	records := make([]CardRecord, 0, len(cards))
	for _, c := range cards {
		records = append(records, CardRecord{
			CardID:     c.ID,
			PlayerName: c.PlayerName,
			PlayType:   c.PlayType,
			Series:     c.Series,
			Team:       c.Team,
			Rarity:     string(c.Rarity),
			RawText:    c.RawText,
		})
	}
	return records
}

// AnalysisRecord is one persisted analysis run. ResultJSON holds the full
// AnalysisResult; the scalar columns exist for listing and stats.
type AnalysisRecord struct {
	AnalysisID           string    `json:"analysis_id"`
	ChallengeID          string    `json:"challenge_id"`
	Strategy             string    `json:"strategy"`
	CompletionPercentage int       `json:"completion_percentage"`
	CanComplete          bool      `json:"can_complete"`
	ResultJSON           string    `json:"result_json"`
	CreatedAt            time.Time `json:"created_at"`
}

// SourceStats aggregates per-source counts for the stats command.
type SourceStats struct {
	Source           string `json:"source"`
	ChallengeCount   int    `json:"challenge_count"`
	RequirementCount int    `json:"requirement_count"`
}
