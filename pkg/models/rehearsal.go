// pkg/models/rehearsal.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RehearsalEvent is a scheduled rehearsal under a production.
type RehearsalEvent struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AuditionID uuid.UUID      `json:"audition_id" gorm:"type:uuid;not null;index"`
	Title      string         `json:"title" gorm:"type:varchar(200);not null"`
	StartTime  time.Time      `json:"start_time" gorm:"type:timestamptz;not null;index"`
	EndTime    time.Time      `json:"end_time" gorm:"type:timestamptz;not null"`
	Location   string         `json:"location" gorm:"type:varchar(200)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (RehearsalEvent) TableName() string {
	return "rehearsal_events"
}

// AgendaItem is one timed block inside a rehearsal (scene work, music,
// fight call, ...). Cast assignment is per rehearsal event, not per item.
type AgendaItem struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RehearsalEventID uuid.UUID `json:"rehearsal_event_id" gorm:"type:uuid;not null;index"`
	Title            string    `json:"title" gorm:"type:varchar(200);not null"`
	StartTime        time.Time `json:"start_time" gorm:"type:timestamptz;not null"`
	EndTime          time.Time `json:"end_time" gorm:"type:timestamptz;not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (AgendaItem) TableName() string {
	return "agenda_items"
}
