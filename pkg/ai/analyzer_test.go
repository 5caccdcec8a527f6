package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/hoopscope/hoopscope/pkg/analyzer"
	"github.com/hoopscope/hoopscope/pkg/challenge"
)

type fakeClient struct {
	status int
	body   string
	err    error
}

func (f *fakeClient) Do(req *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewBufferString(f.body)),
	}, nil
}

func chatResponse(t *testing.T, content any) string {
	t.Helper()
	contentJSON, err := json.Marshal(content)
	if err != nil {
		t.Fatal(err)
	}
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": string(contentJSON)}},
		},
	}
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func testChallenge() challenge.Challenge {
	return challenge.Challenge{
		ID:    "ch1",
		Title: "Playoff Run",
		RequiredCards: []challenge.RequiredCard{
			{Title: "Pascal Siakam Moment", RarityText: "Common"},
			{Title: "Any SGA moment", RarityText: "Rare"},
		},
	}
}

func newTestAnalyzer(t *testing.T, client httpClient) *openAIAnalyzer {
	t.Helper()
	a, err := newOpenAIAnalyzer(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatal(err)
	}
	a.client = client
	return a
}

func TestAnalyzeParsesVerdicts(t *testing.T) {
	body := chatResponse(t, map[string]any{
		"requirements": []map[string]any{
			{"id": 1, "status": "missing", "notes": "not owned"},
			{"id": 0, "status": "exact_match"},
		},
		"recommendations": []string{"Buy an SGA moment"},
	})
	a := newTestAnalyzer(t, &fakeClient{status: 200, body: body})

	got, err := a.Analyze(context.Background(), testChallenge(), nil)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	// Verdicts are reordered by id to follow the challenge's requirement
	// order.
	if got.PerRequirement[0].Status != analyzer.StatusExactMatch {
		t.Fatalf("requirement 0: want exact_match, got %q", got.PerRequirement[0].Status)
	}
	if got.PerRequirement[1].Status != analyzer.StatusMissing {
		t.Fatalf("requirement 1: want missing, got %q", got.PerRequirement[1].Status)
	}
	if got.CompletionPercentage != 50 {
		t.Fatalf("completion recomputed locally, want 50 got %d", got.CompletionPercentage)
	}
	if got.CanComplete {
		t.Fatalf("one missing requirement, must not be completable")
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0] != "Buy an SGA moment" {
		t.Fatalf("recommendations not carried over: %#v", got.Recommendations)
	}
}

func TestAnalyzeRejectsMisalignedResponse(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{
			name: "missing id",
			body: map[string]any{
				"requirements": []map[string]any{
					{"id": 0, "status": "exact_match"},
				},
			},
		},
		{
			name: "duplicate id",
			body: map[string]any{
				"requirements": []map[string]any{
					{"id": 0, "status": "exact_match"},
					{"id": 0, "status": "missing"},
				},
			},
		},
		{
			name: "unknown status",
			body: map[string]any{
				"requirements": []map[string]any{
					{"id": 0, "status": "exact_match"},
					{"id": 1, "status": "probably_fine"},
				},
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAnalyzer(t, &fakeClient{status: 200, body: chatResponse(t, tc.body)})
			if _, err := a.Analyze(context.Background(), testChallenge(), nil); err == nil {
				t.Fatalf("misaligned response must be rejected")
			}
		})
	}
}

func TestAnalyzeSurfacesAPIErrors(t *testing.T) {
	a := newTestAnalyzer(t, &fakeClient{
		status: 429,
		body:   `{"error":{"message":"rate limited"}}`,
	})

	_, err := a.Analyze(context.Background(), testChallenge(), nil)
	if err == nil {
		t.Fatalf("API error must be surfaced for the fallback chain")
	}
}

func TestNewAnalyzerRequiresAPIKey(t *testing.T) {
	if _, err := NewAnalyzer(Config{}); err == nil {
		t.Fatalf("missing API key must be rejected")
	}
	if _, err := NewAnalyzer(Config{Provider: "llama-at-home", APIKey: "k"}); err == nil {
		t.Fatalf("unsupported provider must be rejected")
	}
}
