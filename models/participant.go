package models

import (
	"time"

	"gorm.io/gorm"
)

// Participant account statuses mirrored from the profile service.
const (
	ParticipantStatusActive    = "active"
	ParticipantStatusSuspended = "suspended"
	ParticipantStatusClosed    = "closed"
)

// Participant is a local snapshot of participant data needed for trophy
// evaluation. Owned and managed solely by the trophy service; populated via
// the sync worker from the profile service.
type Participant struct {
	ID                    string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalParticipantID string    `gorm:"uniqueIndex;not null" json:"external_participant_id"`
	Username              string    `gorm:"index;not null" json:"username"`
	Email                 string    `json:"email,omitempty"`
	AccountStatus         string    `gorm:"type:varchar(16);not null;default:'active';index" json:"account_status"`
	CreatedAt             time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt             time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
