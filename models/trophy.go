package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConditionType selects which aggregate a trophy is checked against.
type ConditionType string

const (
	ConditionCumulativeRevenue    ConditionType = "cumulative_revenue"
	ConditionCumulativeProfit     ConditionType = "cumulative_profit"
	ConditionRollingWindowRevenue ConditionType = "rolling_window_revenue"
	ConditionRollingWindowProfit  ConditionType = "rolling_window_profit"
	ConditionMonthlyBestProfit    ConditionType = "monthly_best_profit"
	ConditionCalendarYearProfit   ConditionType = "calendar_year_profit"
)

// TrophyDefinition: static config (admin-managed, read-only to the engine).
// ThresholdValue must be positive for every type except monthly_best_profit;
// WindowDays only applies to the rolling-window types. Only
// monthly_best_profit is repeatable (once per calendar month).
type TrophyDefinition struct {
	ID             string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Code           string          `gorm:"uniqueIndex;not null" json:"code"` // e.g., "revenue-10m", "monthly-top-earner"
	Name           string          `gorm:"not null" json:"name"`
	Description    string          `gorm:"type:text" json:"description"`
	IconEmoji      string          `gorm:"size:10" json:"icon_emoji"`
	ConditionType  ConditionType   `gorm:"type:varchar(32);not null" json:"condition_type"`
	ThresholdValue decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"threshold_value"`
	WindowDays     int             `gorm:"default:0" json:"window_days,omitempty"`
	Repeatable     bool            `gorm:"default:false" json:"repeatable"`
	Active         bool            `gorm:"default:true" json:"active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// SeedTrophies are ensured at boot so a fresh deployment has a usable
// catalog. Admins extend the set through the catalog endpoints.
var SeedTrophies = []TrophyDefinition{
	{
		Code:           "revenue-10m",
		Name:           "Ten Million Club",
		Description:    "Reached 10,000,000 in lifetime revenue",
		IconEmoji:      "🏆",
		ConditionType:  ConditionCumulativeRevenue,
		ThresholdValue: decimal.NewFromInt(10_000_000),
	},
	{
		Code:           "revenue-100m",
		Name:           "Hundred Million Club",
		Description:    "Reached 100,000,000 in lifetime revenue",
		IconEmoji:      "👑",
		ConditionType:  ConditionCumulativeRevenue,
		ThresholdValue: decimal.NewFromInt(100_000_000),
	},
	{
		Code:           "profit-5m",
		Name:           "Solid Earner",
		Description:    "Reached 5,000,000 in lifetime profit",
		IconEmoji:      "💰",
		ConditionType:  ConditionCumulativeProfit,
		ThresholdValue: decimal.NewFromInt(5_000_000),
	},
	{
		Code:           "quarter-sprint",
		Name:           "Quarter Sprint",
		Description:    "10,000,000 revenue inside a 90-day stretch",
		IconEmoji:      "🚀",
		ConditionType:  ConditionRollingWindowRevenue,
		ThresholdValue: decimal.NewFromInt(10_000_000),
		WindowDays:     90,
	},
	{
		Code:           "year-profit-20m",
		Name:           "Annual Champion",
		Description:    "20,000,000 profit within one calendar year",
		IconEmoji:      "🎖️",
		ConditionType:  ConditionCalendarYearProfit,
		ThresholdValue: decimal.NewFromInt(20_000_000),
	},
	{
		Code:          "monthly-top-earner",
		Name:          "Top Earner of the Month",
		Description:   "Highest profit among all active participants for the month",
		IconEmoji:     "🥇",
		ConditionType: ConditionMonthlyBestProfit,
		Repeatable:    true,
	},
}
