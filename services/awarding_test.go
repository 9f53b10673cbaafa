package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"trophy-award-system/models"

	"github.com/shopspring/decimal"
)

// In-memory collaborators. The ledger fake enforces the same uniqueness
// invariant the database index does.

type fakeActivity struct {
	records map[string][]models.ActivityRecord
	failFor map[string]bool
}

func (f *fakeActivity) FetchRecords(participantID string, from, to time.Time) ([]models.ActivityRecord, error) {
	if f.failFor[participantID] {
		return nil, errors.New("activity store unavailable")
	}
	toDay := to.Format(models.DayLayout)
	var out []models.ActivityRecord
	for _, r := range f.records[participantID] {
		if r.Day() <= toDay && (from.IsZero() || r.Day() >= from.Format(models.DayLayout)) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeParticipants struct{ ids []string }

func (f *fakeParticipants) ActiveIDs() ([]string, error) { return f.ids, nil }

type fakeCatalog struct{ defs []models.TrophyDefinition }

func (f *fakeCatalog) LoadDefinitions() ([]models.TrophyDefinition, error) { return f.defs, nil }

func (f *fakeCatalog) FindByID(id string) (*models.TrophyDefinition, error) {
	for _, d := range f.defs {
		if d.ID == id {
			def := d
			return &def, nil
		}
	}
	return nil, ErrTrophyNotFound
}

type fakeLedger struct {
	mu     sync.Mutex
	awards map[string]models.AwardRecord
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{awards: map[string]models.AwardRecord{}}
}

func (f *fakeLedger) key(participantID, trophyID string, y, m int) string {
	return fmt.Sprintf("%s|%s|%d|%d", participantID, trophyID, y, m)
}

func (f *fakeLedger) Award(draft AwardDraft) (*models.AwardRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(draft.ParticipantID, draft.TrophyID, draft.PeriodYear, draft.PeriodMonth)
	if _, ok := f.awards[k]; ok {
		return nil, ErrAlreadyAwarded
	}
	rec := models.AwardRecord{
		ID:            k,
		ParticipantID: draft.ParticipantID,
		TrophyID:      draft.TrophyID,
		PeriodYear:    draft.PeriodYear,
		PeriodMonth:   draft.PeriodMonth,
		AwardedAt:     draft.AwardedAt,
		AwardedBy:     draft.AwardedBy,
		ValueAchieved: draft.ValueAchieved,
	}
	f.awards[k] = rec
	return &rec, nil
}

func (f *fakeLedger) ListFor(participantID string) ([]models.AwardRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AwardRecord
	for _, a := range f.awards {
		if a.ParticipantID == participantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeLedger) countFor(trophyID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.awards {
		if a.TrophyID == trophyID {
			n++
		}
	}
	return n
}

func newSweepService(activity *fakeActivity, participants []string, defs []models.TrophyDefinition, ledger *fakeLedger) *AwardingService {
	return NewAwardingService(activity, &fakeParticipants{ids: participants}, &fakeCatalog{defs: defs}, ledger)
}

func TestRunAutomaticSweep_AwardsThresholdTrophy(t *testing.T) {
	def := thresholdDef("t-rev", models.ConditionCumulativeRevenue, 10_000_000, 0)
	activity := &fakeActivity{records: map[string][]models.ActivityRecord{
		"p1": {rec("2025-01-05", 6_000_000, 0), rec("2025-03-01", 5_000_000, 0)},
		"p2": {rec("2025-03-01", 1_000, 0)},
	}}
	ledger := newFakeLedger()
	svc := newSweepService(activity, []string{"p1", "p2"}, []models.TrophyDefinition{def}, ledger)

	result, err := svc.RunAutomaticSweep(context.Background(), day("2025-03-15"))
	if err != nil {
		t.Fatalf("RunAutomaticSweep() error = %v", err)
	}
	if result.AwardedCount != 1 {
		t.Fatalf("AwardedCount = %d, want 1", result.AwardedCount)
	}

	awards, _ := ledger.ListFor("p1")
	if len(awards) != 1 {
		t.Fatalf("p1 awards = %d, want 1", len(awards))
	}
	if !awards[0].ValueAchieved.Equal(decimal.NewFromInt(11_000_000)) {
		t.Errorf("ValueAchieved = %s, want 11000000", awards[0].ValueAchieved)
	}
	if awards[0].AwardedBy != models.AwardedByAuto {
		t.Errorf("AwardedBy = %s, want auto", awards[0].AwardedBy)
	}
}

func TestRunAutomaticSweep_Idempotent(t *testing.T) {
	def := thresholdDef("t-rev", models.ConditionCumulativeRevenue, 1_000, 0)
	activity := &fakeActivity{records: map[string][]models.ActivityRecord{
		"p1": {rec("2025-03-01", 5_000, 0)},
	}}
	ledger := newFakeLedger()
	svc := newSweepService(activity, []string{"p1"}, []models.TrophyDefinition{def}, ledger)

	first, err := svc.RunAutomaticSweep(context.Background(), day("2025-03-15"))
	if err != nil {
		t.Fatalf("first sweep error = %v", err)
	}
	if first.AwardedCount != 1 {
		t.Fatalf("first AwardedCount = %d, want 1", first.AwardedCount)
	}

	second, err := svc.RunAutomaticSweep(context.Background(), day("2025-03-15"))
	if err != nil {
		t.Fatalf("second sweep error = %v", err)
	}
	if second.AwardedCount != 0 {
		t.Errorf("second AwardedCount = %d, want 0 (re-run must not duplicate)", second.AwardedCount)
	}
	if got := ledger.countFor("t-rev"); got != 1 {
		t.Errorf("ledger rows for t-rev = %d, want 1", got)
	}
}

func TestRunAutomaticSweep_MonthlyTieBreak(t *testing.T) {
	// Profits 100, 250, 250 for March: a tie. Exactly one winner, the lowest
	// participant ID among the tied.
	activity := &fakeActivity{records: map[string][]models.ActivityRecord{
		"p1": {rec("2025-03-10", 0, 100)},
		"p2": {rec("2025-03-10", 0, 250)},
		"p3": {rec("2025-03-10", 0, 250)},
	}}
	ledger := newFakeLedger()
	svc := newSweepService(activity, []string{"p3", "p1", "p2"}, []models.TrophyDefinition{monthlyDef}, ledger)

	result, err := svc.RunAutomaticSweep(context.Background(), day("2025-04-02"))
	if err != nil {
		t.Fatalf("RunAutomaticSweep() error = %v", err)
	}
	if result.AwardedCount != 1 {
		t.Fatalf("AwardedCount = %d, want exactly 1 (never zero, never two)", result.AwardedCount)
	}
	if got := ledger.countFor("t-monthly"); got != 1 {
		t.Fatalf("monthly awards = %d, want 1", got)
	}

	winner, _ := ledger.ListFor("p2")
	if len(winner) != 1 {
		t.Fatalf("tie must go to p2 (lowest ID of the tied pair), ledger: %v", ledger.awards)
	}
	if winner[0].PeriodYear != 2025 || winner[0].PeriodMonth != 3 {
		t.Errorf("award period = %d-%d, want 2025-3", winner[0].PeriodYear, winner[0].PeriodMonth)
	}
	if !winner[0].ValueAchieved.Equal(decimal.NewFromInt(250)) {
		t.Errorf("ValueAchieved = %s, want 250", winner[0].ValueAchieved)
	}
}

func TestRunAutomaticSweep_MonthlyNeedsActivityInMonth(t *testing.T) {
	// Nobody recorded anything in March: no best performer, no award.
	activity := &fakeActivity{records: map[string][]models.ActivityRecord{
		"p1": {rec("2025-02-10", 0, 9_999)},
	}}
	ledger := newFakeLedger()
	svc := newSweepService(activity, []string{"p1"}, []models.TrophyDefinition{monthlyDef}, ledger)

	result, err := svc.RunAutomaticSweep(context.Background(), day("2025-04-02"))
	if err != nil {
		t.Fatalf("RunAutomaticSweep() error = %v", err)
	}
	if result.AwardedCount != 0 {
		t.Errorf("AwardedCount = %d, want 0", result.AwardedCount)
	}
}

func TestRunAutomaticSweep_PartialFailureContinues(t *testing.T) {
	def := thresholdDef("t-rev", models.ConditionCumulativeRevenue, 1_000, 0)
	activity := &fakeActivity{
		records: map[string][]models.ActivityRecord{
			"p1": {rec("2025-03-01", 5_000, 0)},
			"p2": {rec("2025-03-01", 5_000, 0)},
		},
		failFor: map[string]bool{"p1": true},
	}
	ledger := newFakeLedger()
	svc := newSweepService(activity, []string{"p1", "p2"}, []models.TrophyDefinition{def}, ledger)

	result, err := svc.RunAutomaticSweep(context.Background(), day("2025-03-15"))
	if err != nil {
		t.Fatalf("RunAutomaticSweep() error = %v (partial failure must not abort the batch)", err)
	}
	if result.AwardedCount != 1 {
		t.Errorf("AwardedCount = %d, want 1 (p2 still processed)", result.AwardedCount)
	}
	if len(result.FailedParticipants) != 1 || result.FailedParticipants[0] != "p1" {
		t.Errorf("FailedParticipants = %v, want [p1]", result.FailedParticipants)
	}
}

func TestManualAward(t *testing.T) {
	def := thresholdDef("t-rev", models.ConditionCumulativeRevenue, 10_000, 0)
	activity := &fakeActivity{records: map[string][]models.ActivityRecord{
		"p1": {rec("2025-03-01", 4_200, 0)},
	}}

	t.Run("defaults value to the current aggregate", func(t *testing.T) {
		ledger := newFakeLedger()
		svc := newSweepService(activity, []string{"p1"}, []models.TrophyDefinition{def}, ledger)

		rec, err := svc.ManualAward("p1", "t-rev", nil, day("2025-03-15"))
		if err != nil {
			t.Fatalf("ManualAward() error = %v", err)
		}
		if !rec.ValueAchieved.Equal(decimal.NewFromInt(4_200)) {
			t.Errorf("ValueAchieved = %s, want 4200", rec.ValueAchieved)
		}
		if rec.AwardedBy != models.AwardedByManual {
			t.Errorf("AwardedBy = %s, want manual", rec.AwardedBy)
		}
	})

	t.Run("duplicate grant is an explicit conflict", func(t *testing.T) {
		ledger := newFakeLedger()
		svc := newSweepService(activity, []string{"p1"}, []models.TrophyDefinition{def}, ledger)

		if _, err := svc.ManualAward("p1", "t-rev", nil, day("2025-03-15")); err != nil {
			t.Fatalf("first grant error = %v", err)
		}
		_, err := svc.ManualAward("p1", "t-rev", nil, day("2025-03-15"))
		if !errors.Is(err, ErrManualGrantConflict) {
			t.Fatalf("second grant error = %v, want ErrManualGrantConflict", err)
		}
		if got := ledger.countFor("t-rev"); got != 1 {
			t.Errorf("ledger rows = %d, want 1 (rejected grant must not write)", got)
		}
	})

	t.Run("unknown trophy", func(t *testing.T) {
		ledger := newFakeLedger()
		svc := newSweepService(activity, []string{"p1"}, []models.TrophyDefinition{def}, ledger)

		_, err := svc.ManualAward("p1", "t-nope", nil, day("2025-03-15"))
		if !errors.Is(err, ErrTrophyNotFound) {
			t.Fatalf("ManualAward() error = %v, want ErrTrophyNotFound", err)
		}
	})

	t.Run("sweep after a manual grant is a silent no-op", func(t *testing.T) {
		lowDef := thresholdDef("t-rev", models.ConditionCumulativeRevenue, 1_000, 0)
		ledger := newFakeLedger()
		svc := newSweepService(activity, []string{"p1"}, []models.TrophyDefinition{lowDef}, ledger)

		// p1 is sweep-eligible (4200 >= 1000) but the admin got there first:
		// the duplicate is absorbed by the ledger, not reported as a failure.
		if _, err := svc.ManualAward("p1", "t-rev", nil, day("2025-03-15")); err != nil {
			t.Fatalf("manual grant error = %v", err)
		}
		result, err := svc.RunAutomaticSweep(context.Background(), day("2025-03-15"))
		if err != nil {
			t.Fatalf("sweep after manual grant error = %v", err)
		}
		if result.AwardedCount != 0 || len(result.FailedParticipants) != 0 {
			t.Errorf("sweep result = %+v, want no awards and no failures", result)
		}
		if got := ledger.countFor("t-rev"); got != 1 {
			t.Errorf("ledger rows = %d, want 1", got)
		}
	})
}

func TestGetProgress(t *testing.T) {
	defs := []models.TrophyDefinition{
		thresholdDef("t-roll", models.ConditionRollingWindowRevenue, 10_000_000, 90),
		monthlyDef,
	}
	activity := &fakeActivity{records: map[string][]models.ActivityRecord{
		"p1": {rec("2025-01-05", 6_000_000, 0), rec("2025-03-01", 5_000_000, 0)},
	}}
	ledger := newFakeLedger()
	svc := newSweepService(activity, []string{"p1"}, defs, ledger)

	progress, err := svc.GetProgress("p1", day("2025-05-20"))
	if err != nil {
		t.Fatalf("GetProgress() error = %v", err)
	}
	if len(progress) != 2 {
		t.Fatalf("progress entries = %d, want 2", len(progress))
	}

	var roll *models.ProgressView
	for i := range progress {
		if progress[i].TrophyID == "t-roll" {
			roll = &progress[i]
		}
	}
	if roll == nil {
		t.Fatal("no progress entry for t-roll")
	}
	if roll.ProgressPercent != 50 || roll.Obtained {
		t.Errorf("rolling progress = {Percent:%d Obtained:%t}, want {50 false}", roll.ProgressPercent, roll.Obtained)
	}

	// Read-only: evaluating progress must never create awards.
	if len(ledger.awards) != 0 {
		t.Errorf("GetProgress wrote %d awards, want 0", len(ledger.awards))
	}
}
