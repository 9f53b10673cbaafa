package services

import (
	"fmt"
	"time"

	"trophy-award-system/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AwardDraft is the input to a ledger write. PeriodYear/PeriodMonth stay 0
// for non-repeatable trophies.
type AwardDraft struct {
	ParticipantID string
	TrophyID      string
	PeriodYear    int
	PeriodMonth   int
	AwardedAt     time.Time
	AwardedBy     models.AwardedBy
	ValueAchieved decimal.Decimal
}

// AwardLedger is the append-only record of granted trophies. Uniqueness is
// enforced by the composite index on award_records in a single conditional
// insert: two concurrent sweeps can both attempt the same grant and exactly
// one row results.
type AwardLedger struct {
	DB *gorm.DB
}

func NewAwardLedger(db *gorm.DB) *AwardLedger {
	return &AwardLedger{DB: db}
}

// Award inserts the draft if absent. A duplicate (same participant, trophy
// and period) returns ErrAlreadyAwarded; it is never detected with a prior
// SELECT.
func (l *AwardLedger) Award(draft AwardDraft) (*models.AwardRecord, error) {
	rec := models.AwardRecord{
		ID:            uuid.NewString(),
		ParticipantID: draft.ParticipantID,
		TrophyID:      draft.TrophyID,
		PeriodYear:    draft.PeriodYear,
		PeriodMonth:   draft.PeriodMonth,
		AwardedAt:     draft.AwardedAt,
		AwardedBy:     draft.AwardedBy,
		ValueAchieved: draft.ValueAchieved,
	}

	res := l.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "participant_id"},
			{Name: "trophy_id"},
			{Name: "period_year"},
			{Name: "period_month"},
		},
		DoNothing: true,
	}).Create(&rec)
	if res.Error != nil {
		return nil, fmt.Errorf("insert award (participant=%s trophy=%s): %w",
			draft.ParticipantID, draft.TrophyID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyAwarded
	}
	return &rec, nil
}

// ListFor returns all awards held by a participant, newest first.
func (l *AwardLedger) ListFor(participantID string) ([]models.AwardRecord, error) {
	var awards []models.AwardRecord
	err := l.DB.Where("participant_id = ?", participantID).
		Order("awarded_at DESC").
		Find(&awards).Error
	if err != nil {
		return nil, fmt.Errorf("list awards for %s: %w", participantID, err)
	}
	return awards, nil
}
