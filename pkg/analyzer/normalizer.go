package analyzer

import "strings"

// Library records come in as a single delimited text field:
//
//	"<player> - <playType> - <date>, <series>, <team>"
//
// Any sub-field may be absent. Records that don't fit the shape degrade to
// a placeholder card instead of failing the batch.

const unknownPlayer = "Unknown"

// ParseCardRecord turns one raw library record into a structured Card.
// It never fails: malformed input yields a card with PlayerName "Unknown"
// and the original text preserved in RawText.
func ParseCardRecord(id, content string) Card {
	segments := strings.SplitN(content, " - ", 3)
	if len(segments) < 3 {
		return Card{
			ID:         id,
			PlayerName: unknownPlayer,
			Rarity:     RarityCommon,
			RawText:    content,
		}
	}

	card := Card{
		ID:         id,
		PlayerName: strings.TrimSpace(segments[0]),
		PlayType:   strings.TrimSpace(segments[1]),
		RawText:    content,
	}

	// Third segment: "<date>, <series>, <team>".
	meta := strings.Split(segments[2], ", ")
	if len(meta) > 1 {
		card.Series = strings.TrimSpace(meta[1])
	}
	if len(meta) > 2 {
		card.Team = strings.TrimSpace(meta[2])
	}

	card.Rarity = InferRarity(card.Series)
	return card
}

// InferRarity derives the tier from a series name. Special-edition markers
// ("Metallic Gold", "LE") mean Rare; everything else is Common.
//
// No series marker currently maps to Legendary, so the top tier is only
// reachable through externally supplied data. The order table keeps all
// three tiers so upgrade comparisons stay total.
func InferRarity(series string) Rarity {
	if strings.Contains(series, "Metallic Gold") || strings.Contains(series, "LE") {
		return RarityRare
	}
	return RarityCommon
}

// ParseLibrary converts a batch of raw records, skipping nothing: parse
// failures become placeholder cards.
func ParseLibrary(records []RawRecord) []Card {
	cards := make([]Card, 0, len(records))
	for _, rec := range records {
		cards = append(cards, ParseCardRecord(rec.ID, rec.Content))
	}
	return cards
}

// RawRecord is one unparsed library record as supplied by a library source.
type RawRecord struct {
	ID      string
	Content string
}
