package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AwardedBy records which path created an award.
type AwardedBy string

const (
	AwardedByAuto   AwardedBy = "auto"
	AwardedByManual AwardedBy = "manual"
)

// AwardRecord is an immutable, append-only grant of a trophy.
//
// PeriodYear/PeriodMonth are 0 for non-repeatable trophies and carry the
// awarded calendar month for the repeatable monthly trophy, so the single
// composite unique index enforces both invariants: at most one award per
// (participant, trophy) for non-repeatable trophies, at most one per
// (participant, trophy, month) for the repeatable one. Duplicate detection
// lives in this index, never in a select-then-insert in application code.
type AwardRecord struct {
	ID            string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ParticipantID string          `gorm:"not null;index;uniqueIndex:idx_award_once,priority:1" json:"participant_id"`
	TrophyID      string          `gorm:"not null;uniqueIndex:idx_award_once,priority:2" json:"trophy_id"`
	PeriodYear    int             `gorm:"not null;default:0;uniqueIndex:idx_award_once,priority:3" json:"period_year,omitempty"`
	PeriodMonth   int             `gorm:"not null;default:0;uniqueIndex:idx_award_once,priority:4" json:"period_month,omitempty"`
	AwardedAt     time.Time       `gorm:"not null" json:"awarded_at"`
	AwardedBy     AwardedBy       `gorm:"type:varchar(8);not null" json:"awarded_by"`
	ValueAchieved decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"value_achieved"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
