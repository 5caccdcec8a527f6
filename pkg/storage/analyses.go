package storage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/hoopscope/hoopscope/pkg/analyzer"
)

// SaveAnalysis persists one analysis run and returns its generated id.
// Callers treat persistence as fire-and-forget: a failure here must never
// change the AnalysisResult handed back to the user.
func (d *DB) SaveAnalysis(ctx context.Context, strategy string, result analyzer.AnalysisResult) (string, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = d.sql.ExecContext(ctx, `INSERT INTO analyses(analysis_id, challenge_id, strategy, completion_pct, can_complete, result_json) VALUES(?,?,?,?,?,?)`,
		id, result.ChallengeID, strategy, result.CompletionPercentage, boolToInt(result.CanComplete), string(resultJSON))
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListAnalyses returns prior runs for a challenge, newest first.
func (d *DB) ListAnalyses(ctx context.Context, challengeID string, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT analysis_id, challenge_id, strategy, completion_pct, can_complete, result_json, created_at FROM analyses WHERE challenge_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		challengeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var canComplete int
		var createdAtStr string
		if err := rows.Scan(&rec.AnalysisID, &rec.ChallengeID, &rec.Strategy, &rec.CompletionPercentage, &canComplete, &rec.ResultJSON, &createdAtStr); err != nil {
			return nil, err
		}
		rec.CanComplete = canComplete == 1
		rec.CreatedAt = parseSQLiteTime(createdAtStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestAnalysis returns the most recent run for a challenge, or a zero
// record with found=false.
func (d *DB) LatestAnalysis(ctx context.Context, challengeID string) (AnalysisRecord, bool, error) {
	recs, err := d.ListAnalyses(ctx, challengeID, 1)
	if err != nil {
		return AnalysisRecord{}, false, err
	}
	if len(recs) == 0 {
		return AnalysisRecord{}, false, nil
	}
	return recs[0], true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
