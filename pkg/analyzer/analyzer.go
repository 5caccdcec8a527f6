// Package analyzer implements the rule-based card-requirement matching
// engine: it parses raw library records into cards, resolves player names
// out of requirement text, matches each requirement against the library,
// and aggregates the outcomes into a completion score with
// recommendations.
package analyzer

import (
	"context"

	"github.com/hoopscope/hoopscope/pkg/challenge"
)

// Strategy is an interchangeable challenge analyzer. Implementations must
// be stateless across calls apart from their read-only configuration: the
// same challenge and library snapshot always produce an
// AnalysisResult-shaped answer.
type Strategy interface {
	Name() string
	Analyze(ctx context.Context, ch challenge.Challenge, library []Card) (AnalysisResult, error)
}

// RuleEngine is the rule-based Strategy built from the matching core. It
// operates purely on in-memory data and never fails on well-typed input,
// which makes it the bottom of any fallback chain.
type RuleEngine struct {
	resolverCfg ResolverConfig
}

// NewRuleEngine builds a rule engine over the given vocabularies. Use
// DefaultResolverConfig for the built-in roster.
func NewRuleEngine(cfg ResolverConfig) *RuleEngine {
	return &RuleEngine{resolverCfg: cfg}
}

func (e *RuleEngine) Name() string { return "rules" }

// Analyze classifies every requirement in order and scores the outcome.
// The returned error is always nil; it exists to satisfy Strategy.
func (e *RuleEngine) Analyze(_ context.Context, ch challenge.Challenge, library []Card) (AnalysisResult, error) {
	matcher := NewMatcher(NewResolver(e.resolverCfg), BuildIndex(library))

	results := make([]MatchResult, 0, len(ch.RequiredCards))
	for _, req := range ch.RequiredCards {
		results = append(results, matcher.MatchRequirement(req))
	}

	return Score(ch.ID, ch.Title, results), nil
}

// Logger matches the logging subset fallback wiring needs; logrus and the
// stdlib log package both satisfy it via small adapters.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type fallbackStrategy struct {
	primary  Strategy
	fallback Strategy
	log      Logger
}

// WithFallback chains two strategies: if primary errors, fallback runs on
// the same inputs. Pass a RuleEngine as the fallback to guarantee a
// result when a remote analyzer is unavailable or returns garbage.
func WithFallback(primary, fallback Strategy, log Logger) Strategy {
	return &fallbackStrategy{primary: primary, fallback: fallback, log: log}
}

func (s *fallbackStrategy) Name() string {
	return s.primary.Name() + "+" + s.fallback.Name()
}

func (s *fallbackStrategy) Analyze(ctx context.Context, ch challenge.Challenge, library []Card) (AnalysisResult, error) {
	res, err := s.primary.Analyze(ctx, ch, library)
	if err == nil {
		return res, nil
	}
	if s.log != nil {
		s.log.Warnf("%s analyzer failed for challenge %s, falling back to %s: %v", s.primary.Name(), ch.ID, s.fallback.Name(), err)
	}
	return s.fallback.Analyze(ctx, ch, library)
}
