package services

import (
	"fmt"

	"trophy-award-system/models"

	"gorm.io/gorm"
)

// ParticipantService reads the locally mirrored participant table (populated
// by the sync worker).
type ParticipantService struct {
	DB *gorm.DB
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{DB: db}
}

// ActiveIDs returns the external IDs of every active participant, sorted so
// sweep iteration order is deterministic.
func (s *ParticipantService) ActiveIDs() ([]string, error) {
	var ids []string
	err := s.DB.Model(&models.Participant{}).
		Where("account_status = ?", models.ParticipantStatusActive).
		Order("external_participant_id ASC").
		Pluck("external_participant_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list active participants: %w", err)
	}
	return ids, nil
}

// Exists reports whether a participant is known locally.
func (s *ParticipantService) Exists(externalID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Participant{}).
		Where("external_participant_id = ?", externalID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup participant %s: %w", externalID, err)
	}
	return count > 0, nil
}
