package challenge

import (
	"fmt"
	"log"
	"strings"
)

// RequiredCard is a single card requirement within a challenge. The title
// is free text and may embed one or more player names plus constraint
// phrases; RarityText carries the tier requirement, possibly with an
// "or higher tier" modifier.
type RequiredCard struct {
	Title      string
	RarityText string
}

// Challenge is an ordered list of required cards plus identifying metadata.
type Challenge struct {
	ID            string
	Title         string
	URL           string
	RequiredCards []RequiredCard
}

// PrintChallenge writes a challenge to stdout using single-character output
// flags: t (requirement title), r (rarity text), u (challenge URL),
// i (challenge id).
func PrintChallenge(ch Challenge, outputFlags string, delimiter string) {
	for _, req := range ch.RequiredCards {
		line := createLine(req, ch, outputFlags, delimiter)
		if len(line) > 0 {
			fmt.Println(line)
		}
	}
}

func createLine(req RequiredCard, ch Challenge, outputFlags, delimiter string) string {
	var line string
	for _, f := range outputFlags {
		switch f {
		case 't':
			line += req.Title + delimiter
		case 'r':
			line += req.RarityText + delimiter
		case 'u':
			line += ch.URL + delimiter
		case 'i':
			line += ch.ID + delimiter
		default:
			log.Fatal("Invalid print flag")
		}
	}
	return strings.TrimSuffix(line, delimiter)
}
