package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hoopscope/hoopscope/pkg/analyzer"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "hoopscope.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testChallengeRecord() ChallengeRecord {
	return ChallengeRecord{
		ChallengeID: "playoff-run-2025",
		Source:      "topshot",
		Title:       "Playoff Run",
		URL:         "https://nbatopshot.com/challenges/playoff-run-2025",
		Requirements: []RequirementRecord{
			{Position: 0, Title: "Pascal Siakam Moment", RarityText: "Common"},
			{Position: 1, Title: "Any SGA moment", RarityText: "Rare or higher tier"},
		},
	}
}

func TestUpsertChallengeRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	changes, err := db.UpsertChallenge(ctx, 1, testChallengeRecord())
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(changes) != 1 || changes[0].ChangeType != "added" {
		t.Fatalf("first upsert should report one added change, got %#v", changes)
	}

	got, err := db.GetChallenge(ctx, "playoff-run-2025")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Playoff Run" || len(got.Requirements) != 2 {
		t.Fatalf("round trip mismatch: %#v", got)
	}
	if got.Requirements[1].RarityText != "Rare or higher tier" {
		t.Fatalf("requirement order/content lost: %#v", got.Requirements)
	}

	// Re-upserting unchanged content produces no change rows.
	changes, err = db.UpsertChallenge(ctx, 2, testChallengeRecord())
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("unchanged challenge should not log changes, got %#v", changes)
	}

	// Requirement edits produce an updated change row.
	rec := testChallengeRecord()
	rec.Requirements[0].RarityText = "Legendary"
	changes, err = db.UpsertChallenge(ctx, 3, rec)
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if len(changes) != 1 || changes[0].ChangeType != "updated" {
		t.Fatalf("edited requirements should log an update, got %#v", changes)
	}
}

func TestSyncSourceChallengesSweepsStale(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.UpsertChallenge(ctx, 1, testChallengeRecord()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	other := testChallengeRecord()
	other.ChallengeID = "dunk-week"
	other.Title = "Dunk Week"
	if _, err := db.UpsertChallenge(ctx, 1, other); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Second run only re-sees the first challenge.
	if _, err := db.UpsertChallenge(ctx, 2, testChallengeRecord()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	removed, err := db.SyncSourceChallenges(ctx, "topshot", 2)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(removed) != 1 || removed[0].ChallengeID != "dunk-week" {
		t.Fatalf("expected dunk-week removed, got %#v", removed)
	}

	n, err := db.GetChallengeCount(ctx, "topshot")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 challenge after sweep, got %d", n)
	}

	changes, err := db.ListRecentChanges(ctx, 10)
	if err != nil {
		t.Fatalf("changes: %v", err)
	}
	var sawRemoved bool
	for _, c := range changes {
		if c.ChangeType == "removed" && c.ChallengeID == "dunk-week" {
			sawRemoved = true
		}
	}
	if !sawRemoved {
		t.Fatalf("removal not logged: %#v", changes)
	}
}

func TestLibraryReplaceAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	cards := []CardRecord{
		{CardID: "1", PlayerName: "Pascal Siakam", Series: "Base Set", Rarity: "Common"},
		{CardID: "2", PlayerName: "Shai Gilgeous-Alexander", Series: "Metallic Gold", Rarity: "Rare"},
	}
	if err := db.ReplaceLibrary(ctx, cards); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := db.ListLibrary(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].CardID != "1" || got[1].CardID != "2" {
		t.Fatalf("library order not preserved: %#v", got)
	}

	// A new snapshot fully replaces the old one.
	if err := db.ReplaceLibrary(ctx, cards[:1]); err != nil {
		t.Fatalf("replace: %v", err)
	}
	n, err := db.GetLibraryCount(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 card after replacement, got %d", n)
	}
}

func TestSaveAndListAnalyses(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	result := analyzer.AnalysisResult{
		ChallengeID:          "playoff-run-2025",
		ChallengeTitle:       "Playoff Run",
		CompletionPercentage: 75,
		CanComplete:          false,
		Recommendations:      []string{"Check the marketplace for the missing players"},
	}

	id, err := db.SaveAnalysis(ctx, "rules", result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a generated analysis id")
	}

	recs, err := db.ListAnalyses(ctx, "playoff-run-2025", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(recs))
	}
	if recs[0].CompletionPercentage != 75 || recs[0].CanComplete || recs[0].Strategy != "rules" {
		t.Fatalf("analysis columns mismatch: %#v", recs[0])
	}

	latest, found, err := db.LatestAnalysis(ctx, "playoff-run-2025")
	if err != nil || !found {
		t.Fatalf("latest: found=%t err=%v", found, err)
	}
	if latest.AnalysisID != id {
		t.Fatalf("latest analysis mismatch: %s != %s", latest.AnalysisID, id)
	}

	if _, found, _ := db.LatestAnalysis(ctx, "nope"); found {
		t.Fatalf("unknown challenge should have no analyses")
	}
}

func TestConcurrentUpserts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	const n = 20
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := ChallengeRecord{
				ChallengeID: fmt.Sprintf("challenge-%02d", i),
				Source:      "topshot",
				Title:       fmt.Sprintf("Challenge %02d", i),
				Requirements: []RequirementRecord{
					{Position: 0, Title: "Pascal Siakam Moment", RarityText: "Common"},
				},
			}
			if _, err := db.UpsertChallenge(ctx, 1, rec); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent upsert: %v", err)
	}

	count, err := db.GetChallengeCount(ctx, "topshot")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != n {
		t.Fatalf("expected %d challenges after concurrent upserts, got %d", n, count)
	}
}
