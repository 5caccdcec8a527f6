package platforms

import (
	"context"

	"github.com/hoopscope/hoopscope/pkg/challenge"
)

// PollOptions carries optional controls/filters used by challenge sources.
type PollOptions struct {
	// ActiveOnly skips expired or ended challenges when the source can
	// tell them apart.
	ActiveOnly bool
}

// AuthConfig carries optional authentication inputs.
type AuthConfig struct {
	SessionToken string
	Proxy        string
}

// ChallengeSource defines a common interface for challenge-page scraping,
// abstracting away the details of session handling, challenge discovery,
// and page parsing.
type ChallengeSource interface {
	Name() string
	// Authenticate configures the source with credentials, if needed.
	// Implementations that don't require auth should return nil.
	Authenticate(ctx context.Context, cfg AuthConfig) error
	ListChallengeRefs(ctx context.Context, opts PollOptions) ([]string, error)
	FetchChallenge(ctx context.Context, ref string, opts PollOptions) (challenge.Challenge, error)
}
