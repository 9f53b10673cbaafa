package services

import (
	"fmt"
	"time"

	"trophy-award-system/models"

	"github.com/shopspring/decimal"
)

// Aggregates holds scalar statistics over one participant's activity history,
// evaluated at an explicit asOf day. asOf is always passed in by the caller,
// never read from the wall clock, so every evaluation is deterministic.
//
// All date arithmetic is calendar-day based on the recorded timezone-naive
// entry dates: days are compared as YYYY-MM-DD strings, which order lexically
// exactly as they order chronologically.
type Aggregates struct {
	CumulativeRevenue decimal.Decimal
	CumulativeProfit  decimal.Decimal

	asOf    time.Time
	asOfDay string
	records []models.ActivityRecord
}

// Aggregate computes cumulative totals over records dated on or before asOf
// and retains the record set for the window/month/year sums. Empty input
// yields zero for every sum, never an error.
func Aggregate(records []models.ActivityRecord, asOf time.Time) Aggregates {
	aggs := Aggregates{
		CumulativeRevenue: decimal.Zero,
		CumulativeProfit:  decimal.Zero,
		asOf:              asOf,
		asOfDay:           asOf.Format(models.DayLayout),
		records:           records,
	}
	for _, r := range records {
		if r.Day() <= aggs.asOfDay {
			aggs.CumulativeRevenue = aggs.CumulativeRevenue.Add(r.Revenue)
			aggs.CumulativeProfit = aggs.CumulativeProfit.Add(r.Profit)
		}
	}
	return aggs
}

// AsOf returns the evaluation day the aggregates were computed for.
func (a Aggregates) AsOf() time.Time { return a.asOf }

// RollingRevenue sums revenue over [asOf-windowDays, asOf], both ends
// inclusive.
func (a Aggregates) RollingRevenue(windowDays int) decimal.Decimal {
	return a.rollingSum(windowDays, func(r models.ActivityRecord) decimal.Decimal { return r.Revenue })
}

// RollingProfit sums profit over [asOf-windowDays, asOf], both ends inclusive.
func (a Aggregates) RollingProfit(windowDays int) decimal.Decimal {
	return a.rollingSum(windowDays, func(r models.ActivityRecord) decimal.Decimal { return r.Profit })
}

func (a Aggregates) rollingSum(windowDays int, field func(models.ActivityRecord) decimal.Decimal) decimal.Decimal {
	from := a.asOf.AddDate(0, 0, -windowDays).Format(models.DayLayout)
	sum := decimal.Zero
	for _, r := range a.records {
		if d := r.Day(); d >= from && d <= a.asOfDay {
			sum = sum.Add(field(r))
		}
	}
	return sum
}

// MonthlyProfit sums profit for records whose day falls in the given calendar
// month.
func (a Aggregates) MonthlyProfit(year int, month time.Month) decimal.Decimal {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	sum := decimal.Zero
	for _, r := range a.records {
		if len(r.Day()) >= len(prefix) && r.Day()[:len(prefix)] == prefix {
			sum = sum.Add(r.Profit)
		}
	}
	return sum
}

// MonthlyEntryDays counts how many activity days the participant recorded in
// the given calendar month. The monthly best-performer comparison only
// considers participants with at least one entry in the month.
func (a Aggregates) MonthlyEntryDays(year int, month time.Month) int {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	n := 0
	for _, r := range a.records {
		if len(r.Day()) >= len(prefix) && r.Day()[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// YearProfit sums profit for records whose day falls in the given calendar
// year.
func (a Aggregates) YearProfit(year int) decimal.Decimal {
	prefix := fmt.Sprintf("%04d-", year)
	sum := decimal.Zero
	for _, r := range a.records {
		if len(r.Day()) >= len(prefix) && r.Day()[:len(prefix)] == prefix {
			sum = sum.Add(r.Profit)
		}
	}
	return sum
}
