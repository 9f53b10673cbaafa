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

// ActivityService owns the dated revenue/profit entries participants submit
// once per day.
type ActivityService struct {
	DB *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{DB: db}
}

// FetchRecords returns a participant's records with entry_date in [from, to].
// A zero from means "from the beginning".
func (s *ActivityService) FetchRecords(participantID string, from, to time.Time) ([]models.ActivityRecord, error) {
	q := s.DB.Where("participant_id = ?", participantID).
		Where("entry_date <= ?", to.Format(models.DayLayout))
	if !from.IsZero() {
		q = q.Where("entry_date >= ?", from.Format(models.DayLayout))
	}

	var records []models.ActivityRecord
	if err := q.Order("entry_date ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch activity for %s: %w", participantID, err)
	}
	return records, nil
}

// UpsertEntry creates or overwrites the participant's entry for one calendar
// day. The (participant_id, entry_date) unique index makes resubmission an
// update, not a duplicate; whether an edit is still allowed is decided
// upstream.
func (s *ActivityService) UpsertEntry(participantID string, day time.Time, revenue, profit decimal.Decimal) (*models.ActivityRecord, error) {
	if revenue.IsNegative() {
		return nil, fmt.Errorf("revenue must not be negative, got %s", revenue)
	}

	rec := models.ActivityRecord{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		EntryDate:     day.Truncate(24 * time.Hour),
		Revenue:       revenue,
		Profit:        profit,
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "participant_id"}, {Name: "entry_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"revenue", "profit", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("upsert activity entry (participant=%s day=%s): %w",
			participantID, day.Format(models.DayLayout), err)
	}
	return &rec, nil
}
