package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the canonical calendar-day format. Entry dates are
// timezone-naive: what the participant recorded is what gets compared,
// lexically; no conversion is ever applied.
const DayLayout = "2006-01-02"

// ActivityRecord is one participant's business result for a single calendar
// day. Unique on (participant_id, entry_date); resubmitting the same day
// overwrites the earlier entry (the edit window is enforced upstream).
// Records are never deleted by this service.
type ActivityRecord struct {
	ID            string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ParticipantID string          `gorm:"not null;uniqueIndex:idx_activity_participant_day,priority:1" json:"participant_id"`
	EntryDate     time.Time       `gorm:"type:date;not null;uniqueIndex:idx_activity_participant_day,priority:2" json:"entry_date"`
	Revenue       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"revenue"`
	Profit        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"profit"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// Day returns the record's calendar day as YYYY-MM-DD.
func (r ActivityRecord) Day() string {
	return r.EntryDate.Format(DayLayout)
}
