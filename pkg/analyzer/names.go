package analyzer

import (
	"sort"
	"strings"
)

// ResolverConfig carries the fixed vocabularies the name resolver works
// from. Both tables are injected so tests can run with synthetic rosters
// and so a stale hardcoded list never leaks into the matching core.
type ResolverConfig struct {
	// Players is the reference set of known player names.
	Players []string
	// Aliases maps a lowercase token found in requirement text to the
	// canonical player name it abbreviates.
	Aliases map[string]string
}

// DefaultResolverConfig returns the built-in NBA roster and alias table.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Players: []string{
			"Shai Gilgeous-Alexander",
			"Pascal Siakam",
			"Tyrese Haliburton",
			"Jalen Williams",
			"Chet Holmgren",
			"Nikola Jokic",
			"Luka Doncic",
			"Jayson Tatum",
			"Jaylen Brown",
			"Anthony Edwards",
			"Donovan Mitchell",
			"De'Aaron Fox",
			"Karl-Anthony Towns",
			"Giannis Antetokounmpo",
			"Stephen Curry",
			"LeBron James",
			"Kevin Durant",
			"Devin Booker",
			"Victor Wembanyama",
			"Myles Turner",
			"Andrew Nembhard",
			"Aaron Nesmith",
			"Isaiah Hartenstein",
			"Alex Caruso",
			"Lu Dort",
			"Cason Wallace",
			"Obi Toppin",
			"T.J. McConnell",
			"Bennedict Mathurin",
		},
		Aliases: map[string]string{
			"sga": "Shai Gilgeous-Alexander",
		},
	}
}

// Resolver extracts candidate player names from requirement text.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver builds a resolver over the given vocabularies.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns an ordered, duplicate-free list of candidate player
// names found in the text. Known names match by case-insensitive substring
// containment; alias tokens add their canonical name; if nothing matched,
// the first whitespace token longer than 2 characters is used as a
// last-resort candidate.
func (r *Resolver) Resolve(text string) []string {
	lower := strings.ToLower(text)

	var out []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, player := range r.cfg.Players {
		if strings.Contains(lower, strings.ToLower(player)) {
			add(player)
		}
	}

	// Alias tokens are checked in sorted order so results are stable
	// across runs.
	for _, token := range sortedKeys(r.cfg.Aliases) {
		if containsToken(lower, token) {
			add(r.cfg.Aliases[token])
		}
	}

	if len(out) == 0 {
		fields := strings.Fields(text)
		if len(fields) > 0 && len(fields[0]) > 2 {
			add(fields[0])
		}
	}

	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// containsToken reports whether tok appears in s as a whole
// whitespace-delimited word. s and tok must already be lowercase.
func containsToken(s, tok string) bool {
	for _, f := range strings.Fields(s) {
		if f == tok {
			return true
		}
	}
	return false
}
