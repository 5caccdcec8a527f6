package polling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hoopscope/hoopscope/pkg/challenge"
	"github.com/hoopscope/hoopscope/pkg/platforms"
	"github.com/hoopscope/hoopscope/pkg/storage"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// SourceConfig holds everything PollSource needs for a single source.
type SourceConfig struct {
	Source      platforms.ChallengeSource
	Options     platforms.PollOptions
	DB          *storage.DB
	Concurrency int    // defaults to 5 if <= 0
	Log         Logger // optional; nil = no logging

	// OnChallengeDone is called per-challenge after upsert+log (from worker
	// goroutines). Enables the CLI to stream-print changes as they happen.
	// Nil = no callback.
	OnChallengeDone func(ch challenge.Challenge, changes []storage.Change, isFirstRun bool)
}

// SourceResult holds the outcome of polling a single source.
type SourceResult struct {
	PolledChallengeIDs      []string
	ChallengeChanges        []storage.Change // all per-challenge changes accumulated
	RemovedChallengeChanges []storage.Change // from SyncSourceChallenges
	IsFirstRun              bool
	Errors                  []error // non-fatal errors
}

// PollSource polls a single source: lists challenge refs, fetches pages
// concurrently, upserts to DB, sweeps challenges the source no longer lists.
// DB is required.
func PollSource(ctx context.Context, cfg SourceConfig) (*SourceResult, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	src := cfg.Source
	db := cfg.DB
	runID := time.Now().UnixNano()

	result := &SourceResult{}

	// Determine if this is the first run for this source.
	challengeCount, err := db.GetChallengeCount(ctx, src.Name())
	if err != nil {
		log.Warnf("Could not get challenge count for %s: %v", src.Name(), err)
	} else {
		result.IsFirstRun = challengeCount == 0
	}

	refs, err := src.ListChallengeRefs(ctx, cfg.Options)
	if err != nil {
		return nil, err
	}

	if result.IsFirstRun && len(refs) > 0 {
		log.Infof("First poll for %s, populating database...", src.Name())
	}

	// Safety check: if the source returns 0 challenges but the DB has many,
	// abort to avoid wiping everything on a broken scrape.
	if len(refs) == 0 && challengeCount > 10 {
		log.Errorf("Source %s returned 0 challenges, but database has %d. Aborting sync to prevent data loss.", src.Name(), challengeCount)
		return result, nil
	}

	ids, changes, errs := processChallengesConcurrently(ctx, src, refs, cfg.Options, db, runID, result.IsFirstRun, concurrency, log, cfg.OnChallengeDone)
	result.PolledChallengeIDs = ids
	result.ChallengeChanges = changes
	result.Errors = errs

	// Sweep challenges the source stopped listing.
	removedChanges, err := db.SyncSourceChallenges(ctx, src.Name(), runID)
	if err != nil {
		if errors.Is(err, storage.ErrAbortingChallengeWipe) {
			log.Errorf("Sweep for %s would remove most challenges. Skipping removal.", src.Name())
		} else {
			log.Warnf("Failed to sweep removed challenges for %s: %v", src.Name(), err)
		}
	}
	result.RemovedChallengeChanges = removedChanges

	if !result.IsFirstRun {
		if err := db.LogChanges(ctx, removedChanges); err != nil {
			log.Warnf("Could not log removed challenge changes for %s: %v", src.Name(), err)
		}
	}

	return result, nil
}

// processChallengesConcurrently fetches and stores challenges using a worker pool.
func processChallengesConcurrently(
	ctx context.Context,
	src platforms.ChallengeSource,
	refs []string,
	opts platforms.PollOptions,
	db *storage.DB,
	runID int64,
	isFirstRun bool,
	concurrency int,
	log Logger,
	onDone func(challenge.Challenge, []storage.Change, bool),
) ([]string, []storage.Change, []error) {
	if len(refs) == 0 {
		return []string{}, nil, nil
	}

	refChan := make(chan string, len(refs))

	var mu sync.Mutex
	polledIDs := make([]string, 0, len(refs))
	var allChanges []storage.Change
	var allErrors []error

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range refChan {
				ch, changes, err := processOneChallenge(ctx, src, ref, opts, db, runID, isFirstRun, log)
				if err != nil {
					mu.Lock()
					allErrors = append(allErrors, err)
					mu.Unlock()
					continue
				}

				mu.Lock()
				polledIDs = append(polledIDs, ch.ID)
				allChanges = append(allChanges, changes...)
				mu.Unlock()

				if onDone != nil {
					onDone(ch, changes, isFirstRun)
				}
			}
		}()
	}

	for _, ref := range refs {
		refChan <- ref
	}
	close(refChan)
	wg.Wait()

	return polledIDs, allChanges, allErrors
}

// processOneChallenge fetches a single challenge page, converts it to a
// storage record, upserts it, and logs the resulting changes.
func processOneChallenge(
	ctx context.Context,
	src platforms.ChallengeSource,
	ref string,
	opts platforms.PollOptions,
	db *storage.DB,
	runID int64,
	isFirstRun bool,
	log Logger,
) (challenge.Challenge, []storage.Change, error) {
	ch, err := src.FetchChallenge(ctx, ref, opts)
	if err != nil {
		log.Warnf("Failed to fetch challenge %s: %v", ref, err)
		return challenge.Challenge{}, nil, err
	}

	changes, err := db.UpsertChallenge(ctx, runID, BuildChallengeRecord(src.Name(), ch))
	if err != nil {
		log.Warnf("Database error for challenge %s: %v", ch.ID, err)
		return challenge.Challenge{}, nil, err
	}

	if !isFirstRun {
		if err := db.LogChanges(ctx, changes); err != nil {
			log.Warnf("Could not log changes for challenge %s: %v", ch.ID, err)
		}
	}

	return ch, changes, nil
}

// BuildChallengeRecord converts a scraped challenge into its storage form.
func BuildChallengeRecord(source string, ch challenge.Challenge) storage.ChallengeRecord {
	rec := storage.ChallengeRecord{
		ChallengeID: ch.ID,
		Source:      source,
		Title:       ch.Title,
		URL:         ch.URL,
	}
	for i, req := range ch.RequiredCards {
		rec.Requirements = append(rec.Requirements, storage.RequirementRecord{
			Position:   i,
			Title:      req.Title,
			RarityText: req.RarityText,
		})
	}
	return rec
}
