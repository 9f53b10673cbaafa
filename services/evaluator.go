package services

import (
	"fmt"
	"time"

	"trophy-award-system/models"

	"github.com/shopspring/decimal"
)

// MonthlyContext carries the sweep's cross-participant decision for the
// repeatable monthly trophy. Computing "best of the month" needs every
// participant's aggregates, so the evaluator receives the verdict as an input
// flag together with the month it applies to.
type MonthlyContext struct {
	Year   int
	Month  time.Month
	IsBest bool
}

// EligibleTrophy is one newly satisfied trophy with the exact aggregate value
// at evaluation time, kept for the audit trail.
type EligibleTrophy struct {
	Trophy        models.TrophyDefinition
	ValueAchieved decimal.Decimal
	PeriodYear    int
	PeriodMonth   int
}

// Evaluation is the outcome of one participant's pass over the catalog.
type Evaluation struct {
	Progress      []models.ProgressView
	NewlyEligible []EligibleTrophy
}

// Evaluate walks the catalog against one participant's aggregates and
// existing awards. Pure: no clock, no storage, no logging. Catalog entries
// are assumed pre-validated (CatalogService.LoadDefinitions); anything else
// is skipped. Empty history and zero aggregates are normal inputs, never
// errors.
func Evaluate(defs []models.TrophyDefinition, aggs Aggregates, existing []models.AwardRecord, monthly MonthlyContext) Evaluation {
	byTrophy := map[string]int{}
	monthlyAwarded := map[string]bool{}
	for _, a := range existing {
		byTrophy[a.TrophyID]++
		if a.PeriodYear != 0 {
			monthlyAwarded[monthKey(a.TrophyID, a.PeriodYear, a.PeriodMonth)] = true
		}
	}

	ev := Evaluation{}
	for _, def := range defs {
		if def.ConditionType == models.ConditionMonthlyBestProfit {
			ev.evalMonthlyBest(def, aggs, byTrophy[def.ID], monthlyAwarded, monthly)
			continue
		}

		value, ok := selectValue(def, aggs)
		if !ok {
			continue // unknown type slipped past the catalog; nothing to show
		}

		if byTrophy[def.ID] > 0 {
			// Non-repeatable and already held: terminal, no re-award.
			ev.Progress = append(ev.Progress, progressFor(def, value, 100, true, byTrophy[def.ID]))
			continue
		}

		percent := progressPercent(value, def.ThresholdValue)
		eligible := value.GreaterThanOrEqual(def.ThresholdValue) // inclusive: hitting it exactly qualifies
		ev.Progress = append(ev.Progress, progressFor(def, value, percent, false, 0))
		if eligible {
			ev.NewlyEligible = append(ev.NewlyEligible, EligibleTrophy{
				Trophy:        def,
				ValueAchieved: value,
			})
		}
	}
	return ev
}

func (ev *Evaluation) evalMonthlyBest(def models.TrophyDefinition, aggs Aggregates, obtainedCount int, monthlyAwarded map[string]bool, monthly MonthlyContext) {
	monthProfit := aggs.MonthlyProfit(monthly.Year, monthly.Month)
	awardedThisMonth := monthlyAwarded[monthKey(def.ID, monthly.Year, int(monthly.Month))]

	percent := 0
	if awardedThisMonth {
		percent = 100
	}
	ev.Progress = append(ev.Progress, progressFor(def, monthProfit, percent, obtainedCount > 0, obtainedCount))

	if monthly.IsBest && !awardedThisMonth {
		ev.NewlyEligible = append(ev.NewlyEligible, EligibleTrophy{
			Trophy:        def,
			ValueAchieved: monthProfit,
			PeriodYear:    monthly.Year,
			PeriodMonth:   int(monthly.Month),
		})
	}
}

// selectValue picks the aggregate a definition is measured against.
func selectValue(def models.TrophyDefinition, aggs Aggregates) (decimal.Decimal, bool) {
	switch def.ConditionType {
	case models.ConditionCumulativeRevenue:
		return aggs.CumulativeRevenue, true
	case models.ConditionCumulativeProfit:
		return aggs.CumulativeProfit, true
	case models.ConditionRollingWindowRevenue:
		return aggs.RollingRevenue(def.WindowDays), true
	case models.ConditionRollingWindowProfit:
		return aggs.RollingProfit(def.WindowDays), true
	case models.ConditionCalendarYearProfit:
		return aggs.YearProfit(aggs.AsOf().Year()), true
	default:
		return decimal.Zero, false
	}
}

// progressPercent = clamp(100 * value / threshold, 0, 100), computed in
// decimal so currency never touches floating point. Threshold positivity is
// guaranteed by catalog validation.
func progressPercent(value, threshold decimal.Decimal) int {
	pct := value.Mul(decimal.NewFromInt(100)).Div(threshold).IntPart()
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}

func progressFor(def models.TrophyDefinition, value decimal.Decimal, percent int, obtained bool, count int) models.ProgressView {
	return models.ProgressView{
		TrophyID:        def.ID,
		Code:            def.Code,
		Name:            def.Name,
		IconEmoji:       def.IconEmoji,
		ConditionType:   def.ConditionType,
		ThresholdValue:  def.ThresholdValue,
		CurrentValue:    value,
		ProgressPercent: percent,
		Obtained:        obtained,
		ObtainedCount:   count,
	}
}

func monthKey(trophyID string, year, month int) string {
	return fmt.Sprintf("%s|%04d-%02d", trophyID, year, month)
}
