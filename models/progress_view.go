package models

import "github.com/shopspring/decimal"

// ProgressView is the derived, never-persisted per-trophy state shown to a
// participant. ProgressPercent is clamped to [0, 100].
type ProgressView struct {
	TrophyID        string          `json:"trophy_id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	IconEmoji       string          `json:"icon_emoji,omitempty"`
	ConditionType   ConditionType   `json:"condition_type"`
	ThresholdValue  decimal.Decimal `json:"threshold_value"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	ProgressPercent int             `json:"progress_percent"`
	Obtained        bool            `json:"obtained"`
	ObtainedCount   int             `json:"obtained_count"`
}
