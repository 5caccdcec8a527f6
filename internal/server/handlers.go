package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hoopscope/hoopscope/internal/utils"
	"github.com/hoopscope/hoopscope/pkg/analyzer"
	"github.com/hoopscope/hoopscope/pkg/storage"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	libraryCount, err := s.DB.GetLibraryCount(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sources":       stats,
		"library_cards": libraryCount,
	})
}

func (s *Server) handleChallenges(w http.ResponseWriter, r *http.Request) {
	// Parse query params for filtering
	q := r.URL.Query()
	opts := storage.ListOptions{
		Source:      q.Get("source"),
		TitleFilter: q.Get("search"),
	}
	if sinceStr := q.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			http.Error(w, "since must be RFC3339", http.StatusBadRequest)
			return
		}
		opts.Since = since
	}

	challenges, err := s.DB.ListChallenges(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(challenges)
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	cards, err := s.DB.ListLibrary(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(cards)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	changes, err := s.DB.ListRecentChanges(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(changes)
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challengeID := q.Get("challenge_id")
	if challengeID == "" {
		http.Error(w, "challenge_id is required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	analyses, err := s.DB.ListAnalyses(r.Context(), challengeID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(analyses)
}

type AnalyzeRequest struct {
	ChallengeID string `json:"challenge_id"`
	Strategy    string `json:"strategy"` // rules (default) | ai
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ChallengeID == "" {
		http.Error(w, "challenge_id is required", http.StatusBadRequest)
		return
	}

	strategy := s.Rules
	switch req.Strategy {
	case "", "rules":
	case "ai":
		if s.AI == nil {
			http.Error(w, "ai strategy is not configured", http.StatusBadRequest)
			return
		}
		strategy = analyzer.WithFallback(s.AI, s.Rules, utils.Log)
	default:
		http.Error(w, "unknown strategy: "+req.Strategy, http.StatusBadRequest)
		return
	}

	rec, err := s.DB.GetChallenge(r.Context(), req.ChallengeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "challenge not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	records, err := s.DB.ListLibrary(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := strategy.Analyze(r.Context(), rec.ToChallenge(), storage.CardsFromRecords(records))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Persisting the run is best effort; the caller still gets the result.
	if _, err := s.DB.SaveAnalysis(context.WithoutCancel(r.Context()), strategy.Name(), result); err != nil {
		utils.Log.Warn("Could not persist analysis: ", err)
	}

	json.NewEncoder(w).Encode(result)
}
