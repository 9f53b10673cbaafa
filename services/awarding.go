package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"trophy-award-system/models"

	"github.com/shopspring/decimal"
)

// Collaborator contracts, satisfied by the gorm-backed services in this
// package and by in-memory fakes in tests.

type ActivitySource interface {
	FetchRecords(participantID string, from, to time.Time) ([]models.ActivityRecord, error)
}

type ParticipantSource interface {
	ActiveIDs() ([]string, error)
}

type CatalogSource interface {
	LoadDefinitions() ([]models.TrophyDefinition, error)
	FindByID(id string) (*models.TrophyDefinition, error)
}

type Ledger interface {
	Award(draft AwardDraft) (*models.AwardRecord, error)
	ListFor(participantID string) ([]models.AwardRecord, error)
}

// AwardingService orchestrates Aggregator → EligibilityEvaluator →
// AwardLedger, either for one participant (progress page, manual grant) or as
// a bulk sweep over every active participant.
type AwardingService struct {
	Activity     ActivitySource
	Participants ParticipantSource
	Catalog      CatalogSource
	Ledger       Ledger

	SweepWorkers int // fan-out bound for the bulk sweep; defaults to 8
}

func NewAwardingService(activity ActivitySource, participants ParticipantSource, catalog CatalogSource, ledger Ledger) *AwardingService {
	return &AwardingService{
		Activity:     activity,
		Participants: participants,
		Catalog:      catalog,
		Ledger:       ledger,
		SweepWorkers: 8,
	}
}

// SweepResult summarizes one bulk automatic sweep.
type SweepResult struct {
	AwardedCount       int      `json:"awarded_count"`
	ParticipantCount   int      `json:"participant_count"`
	FailedParticipants []string `json:"failed_participants,omitempty"`
}

// GetProgress evaluates one participant against the catalog at asOf and
// returns the per-trophy progress list. Read-only: it never writes awards,
// so it is safe to call while a sweep runs. The cross-participant monthly
// comparison is not performed here; the monthly trophy shows the current
// month's profit and whether it has already been won.
func (s *AwardingService) GetProgress(participantID string, asOf time.Time) ([]models.ProgressView, error) {
	defs, err := s.Catalog.LoadDefinitions()
	if err != nil {
		return nil, err
	}
	awards, err := s.Ledger.ListFor(participantID)
	if err != nil {
		return nil, err
	}
	records, err := s.Activity.FetchRecords(participantID, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}

	aggs := Aggregate(records, asOf)
	ev := Evaluate(defs, aggs, awards, MonthlyContext{
		Year:  asOf.Year(),
		Month: asOf.Month(),
	})
	return ev.Progress, nil
}

// RunAutomaticSweep evaluates every active participant at asOf and persists
// all newly earned trophies. The monthly best-performer trophy is decided for
// the just-completed calendar month in a single reduction between two fan-out
// phases: aggregates for everyone first, then award persistence.
//
// Duplicate inserts (a re-run, or a race with a manual grant) are absorbed by
// the ledger and logged; re-running a sweep never creates duplicate awards.
// A failing participant is skipped and reported; the sweep always continues.
func (s *AwardingService) RunAutomaticSweep(ctx context.Context, asOf time.Time) (SweepResult, error) {
	defs, err := s.Catalog.LoadDefinitions()
	if err != nil {
		return SweepResult{}, err
	}
	ids, err := s.Participants.ActiveIDs()
	if err != nil {
		return SweepResult{}, err
	}
	sort.Strings(ids)

	bestYear, bestMonth := previousMonth(asOf)
	result := SweepResult{ParticipantCount: len(ids)}

	// Phase 1: fan out aggregate computation.
	var (
		mu     sync.Mutex
		aggsBy = make(map[string]Aggregates, len(ids))
		failed = make(map[string]bool)
	)
	s.forEachParticipant(ctx, ids, func(id string) {
		records, err := s.Activity.FetchRecords(id, time.Time{}, asOf)
		if err != nil {
			log.Printf("[Sweep] ⚠️ Skipping participant %s: %v", id, err)
			mu.Lock()
			failed[id] = true
			mu.Unlock()
			return
		}
		aggs := Aggregate(records, asOf)
		mu.Lock()
		aggsBy[id] = aggs
		mu.Unlock()
	})

	// Barrier + reduction: one winner for the just-completed month. Ties go
	// to the lowest participant ID: ids are sorted and only a strictly
	// higher profit displaces the incumbent, so exactly one of the tied
	// participants wins, deterministically.
	bestID := ""
	bestProfit := decimal.Zero
	for _, id := range ids {
		aggs, ok := aggsBy[id]
		if !ok || aggs.MonthlyEntryDays(bestYear, bestMonth) == 0 {
			continue
		}
		profit := aggs.MonthlyProfit(bestYear, bestMonth)
		if bestID == "" || profit.GreaterThan(bestProfit) {
			bestID = id
			bestProfit = profit
		}
	}

	// Phase 2: fan out evaluation and award persistence.
	s.forEachParticipant(ctx, ids, func(id string) {
		aggs, ok := aggsBy[id]
		if !ok {
			return
		}
		awards, err := s.Ledger.ListFor(id)
		if err != nil {
			log.Printf("[Sweep] ⚠️ Skipping participant %s: %v", id, err)
			mu.Lock()
			failed[id] = true
			mu.Unlock()
			return
		}

		ev := Evaluate(defs, aggs, awards, MonthlyContext{
			Year:   bestYear,
			Month:  bestMonth,
			IsBest: id == bestID,
		})
		for _, el := range ev.NewlyEligible {
			_, err := s.Ledger.Award(AwardDraft{
				ParticipantID: id,
				TrophyID:      el.Trophy.ID,
				PeriodYear:    el.PeriodYear,
				PeriodMonth:   el.PeriodMonth,
				AwardedAt:     time.Now(),
				AwardedBy:     models.AwardedByAuto,
				ValueAchieved: el.ValueAchieved,
			})
			switch {
			case errors.Is(err, ErrAlreadyAwarded):
				log.Printf("[Sweep] Trophy %s already held by %s, skipping", el.Trophy.Code, id)
			case err != nil:
				log.Printf("[Sweep] ⚠️ Failed to persist %s for %s: %v", el.Trophy.Code, id, err)
				mu.Lock()
				failed[id] = true
				mu.Unlock()
			default:
				log.Printf("🏆 Trophy awarded: %s → %s (value=%s)", el.Trophy.Code, id, el.ValueAchieved)
				mu.Lock()
				result.AwardedCount++
				mu.Unlock()
			}
		}
	})

	for _, id := range ids {
		if failed[id] {
			result.FailedParticipants = append(result.FailedParticipants, id)
		}
	}
	return result, nil
}

// ManualAward grants a trophy on an administrator's say-so, bypassing the
// eligibility computation but not the ledger invariant. A duplicate grant for
// a non-repeatable trophy comes back as ErrManualGrantConflict, an explicit
// rejection, unlike the sweep's silent no-op. When valueAchieved is nil the
// participant's current aggregate for the trophy's condition is recorded.
func (s *AwardingService) ManualAward(participantID, trophyID string, valueAchieved *decimal.Decimal, asOf time.Time) (*models.AwardRecord, error) {
	def, err := s.Catalog.FindByID(trophyID)
	if err != nil {
		return nil, err
	}

	periodYear, periodMonth := 0, 0
	if def.Repeatable {
		y, m := previousMonth(asOf)
		periodYear, periodMonth = y, int(m)
	}

	value := decimal.Zero
	if valueAchieved != nil {
		value = *valueAchieved
	} else {
		records, err := s.Activity.FetchRecords(participantID, time.Time{}, asOf)
		if err != nil {
			return nil, err
		}
		aggs := Aggregate(records, asOf)
		if def.ConditionType == models.ConditionMonthlyBestProfit {
			value = aggs.MonthlyProfit(periodYear, time.Month(periodMonth))
		} else if v, ok := selectValue(*def, aggs); ok {
			value = v
		}
	}

	rec, err := s.Ledger.Award(AwardDraft{
		ParticipantID: participantID,
		TrophyID:      def.ID,
		PeriodYear:    periodYear,
		PeriodMonth:   periodMonth,
		AwardedAt:     time.Now(),
		AwardedBy:     models.AwardedByManual,
		ValueAchieved: value,
	})
	if errors.Is(err, ErrAlreadyAwarded) {
		return nil, ErrManualGrantConflict
	}
	if err != nil {
		return nil, err
	}
	log.Printf("🏆 Trophy manually awarded: %s → %s (value=%s)", def.Code, participantID, value)
	return rec, nil
}

// forEachParticipant runs fn for every ID on a bounded pool and waits for all
// of them. Evaluations are independent; only the monthly reduction needs
// ordering, and that happens between the two phases.
func (s *AwardingService) forEachParticipant(ctx context.Context, ids []string, fn func(id string)) {
	workers := s.SweepWorkers
	if workers <= 0 {
		workers = 8
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(id)
		}(id)
	}
	wg.Wait()
}

// previousMonth returns the calendar month just completed before asOf's
// month. Monthly awards always settle for a finished month, never a running
// one.
func previousMonth(asOf time.Time) (int, time.Month) {
	first := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, 0, -1)
	return prev.Year(), prev.Month()
}
