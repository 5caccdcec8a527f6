// Package ai implements a language-model-backed challenge analyzer. It is
// an alternate Strategy: callers should chain it with the rule engine via
// analyzer.WithFallback so an unreachable endpoint or unparseable model
// output never blocks an analysis.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hoopscope/hoopscope/pkg/analyzer"
	"github.com/hoopscope/hoopscope/pkg/challenge"
)

// Config controls how the AI analyzer behaves.
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	Endpoint   string
	HTTPClient *http.Client
}

const (
	defaultProvider = "openai"
	defaultModel    = "gpt-4.1-mini"
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
)

// NewAnalyzer builds a concrete analyzer.Strategy based on the provided config.
func NewAnalyzer(cfg Config) (analyzer.Strategy, error) {
	cfg.Provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}

	switch cfg.Provider {
	case "openai":
		return newOpenAIAnalyzer(cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type openAIAnalyzer struct {
	apiKey   string
	model    string
	endpoint string
	client   httpClient
}

func newOpenAIAnalyzer(cfg Config) (*openAIAnalyzer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("ai analysis requires an API key (set ai.api_key in config or OPENAI_API_KEY)")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	return &openAIAnalyzer{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   client,
	}, nil
}

func (a *openAIAnalyzer) Name() string { return "ai" }

// Analyze sends the challenge requirements and a library summary to the
// model and parses its JSON verdict into an AnalysisResult. Any transport
// or parse failure is returned as an error for the caller's fallback
// chain; this analyzer never fabricates a partial result.
func (a *openAIAnalyzer) Analyze(ctx context.Context, ch challenge.Challenge, library []analyzer.Card) (analyzer.AnalysisResult, error) {
	var zero analyzer.AnalysisResult

	payload := llmInput{
		ChallengeID:    ch.ID,
		ChallengeTitle: ch.Title,
	}
	for idx, req := range ch.RequiredCards {
		payload.Requirements = append(payload.Requirements, llmRequirement{
			ID:         idx,
			Title:      req.Title,
			RarityText: req.RarityText,
		})
	}
	for _, card := range library {
		payload.Library = append(payload.Library, llmCard{
			ID:     card.ID,
			Player: card.PlayerName,
			Series: card.Series,
			Rarity: string(card.Rarity),
		})
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return zero, err
	}

	reqBody := openAIChatRequest{
		Model: a.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(payloadJSON)},
		},
		Temperature:    0.1,
		ResponseFormat: openAIResponseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return zero, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return zero, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErrResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErrResp)
		if apiErrResp.Error.Message != "" {
			return zero, fmt.Errorf("ai analysis: %s", apiErrResp.Error.Message)
		}
		return zero, fmt.Errorf("ai analysis failed with HTTP %d", resp.StatusCode)
	}

	var apiResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return zero, err
	}

	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return zero, errors.New("ai analysis returned an empty response")
	}

	content := strings.TrimSpace(apiResp.Choices[0].Message.Content)

	var parsed llmOutput
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return zero, fmt.Errorf("unable to parse AI response: %w", err)
	}

	return buildResult(ch, parsed)
}

// buildResult validates the model's verdict against the challenge and maps
// it into the shared result shape. A response that doesn't line up with
// the requirement list is rejected rather than patched.
func buildResult(ch challenge.Challenge, parsed llmOutput) (analyzer.AnalysisResult, error) {
	var zero analyzer.AnalysisResult

	if len(parsed.Requirements) != len(ch.RequiredCards) {
		return zero, fmt.Errorf("ai response covered %d requirements, challenge has %d",
			len(parsed.Requirements), len(ch.RequiredCards))
	}

	out := analyzer.AnalysisResult{
		ChallengeID:     ch.ID,
		ChallengeTitle:  ch.Title,
		Recommendations: parsed.Recommendations,
	}

	// Results are keyed by id so the model's ordering doesn't matter, but
	// every id must appear exactly once.
	byID := make(map[int]llmVerdict, len(parsed.Requirements))
	for _, item := range parsed.Requirements {
		if _, dup := byID[item.ID]; dup {
			return zero, fmt.Errorf("ai response repeats requirement id %d", item.ID)
		}
		byID[item.ID] = item
	}

	var matched int
	for i, req := range ch.RequiredCards {
		item, ok := byID[i]
		if !ok {
			return zero, fmt.Errorf("ai response is missing requirement id %d", i)
		}
		status, ok := parseStatus(item.Status)
		if !ok {
			return zero, fmt.Errorf("ai response has unknown status %q for requirement %d", item.Status, i)
		}
		if status.Matched() {
			matched++
		}
		out.PerRequirement = append(out.PerRequirement, analyzer.MatchResult{
			RequirementTitle: req.Title,
			Status:           status,
			Notes:            item.Notes,
		})
	}

	// Completion figures are recomputed locally so a confused model can't
	// report a percentage that contradicts its own per-requirement calls.
	total := len(ch.RequiredCards)
	if total == 0 {
		out.CompletionPercentage = 100
		out.CanComplete = true
	} else {
		out.CompletionPercentage = (100*matched + total/2) / total
		out.CanComplete = matched == total
	}

	return out, nil
}

func parseStatus(s string) (analyzer.MatchStatus, bool) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "exact_match":
		return analyzer.StatusExactMatch, true
	case "rarity_upgrade":
		return analyzer.StatusRarityUpgrade, true
	case "potential_match":
		return analyzer.StatusPotentialMatch, true
	case "missing":
		return analyzer.StatusMissing, true
	default:
		return "", false
	}
}

const systemPrompt = `You evaluate NBA Top Shot challenge requirements against a user's moment library.

For every requirement you receive:
- Decide if an owned moment satisfies it exactly ("exact_match"), is a strictly higher tier than required ("rarity_upgrade"), is plausibly relevant but unverified ("potential_match"), or is absent ("missing").
- Respect tier ordering Common < Rare < Legendary and any "or higher tier" wording.
- Respect series constraints such as "2025 NBA Playoffs".
- Never invent moments that are not in the provided library.

Return ONLY JSON following this schema:
{
  "requirements": [
    {"id": 0, "status": "exact_match", "notes": "optional clarification"}
  ],
  "recommendations": ["string"]
}

Every input requirement id must appear exactly once.`

type openAIChatRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIMessage      `json:"messages"`
	Temperature    float64              `json:"temperature"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type llmInput struct {
	ChallengeID    string           `json:"challenge_id"`
	ChallengeTitle string           `json:"challenge_title"`
	Requirements   []llmRequirement `json:"requirements"`
	Library        []llmCard        `json:"library"`
}

type llmRequirement struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	RarityText string `json:"rarity_text,omitempty"`
}

type llmCard struct {
	ID     string `json:"id"`
	Player string `json:"player"`
	Series string `json:"series,omitempty"`
	Rarity string `json:"rarity"`
}

type llmOutput struct {
	Requirements    []llmVerdict `json:"requirements"`
	Recommendations []string     `json:"recommendations"`
}

type llmVerdict struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}
