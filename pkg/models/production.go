// pkg/models/production.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audition is the parent production record. Rehearsal and performance
// dates live on it as jsonb arrays of "YYYY-MM-DD" strings rather than
// their own rows; the sync engine expands them into all-day items.
type Audition struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID          uuid.UUID      `json:"owner_id" gorm:"type:uuid;index;not null"` // director/casting owner
	ShowTitle        string         `json:"show_title" gorm:"type:varchar(200);not null"`
	Theater          string         `json:"theater" gorm:"type:varchar(200)"`
	Description      string         `json:"description" gorm:"type:text"`
	RehearsalDates   datatypes.JSON `json:"rehearsal_dates,omitempty" gorm:"type:jsonb"`   // []string
	PerformanceDates datatypes.JSON `json:"performance_dates,omitempty" gorm:"type:jsonb"` // []string
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (Audition) TableName() string {
	return "auditions"
}

// AuditionSlot is a bookable time slot under an audition.
type AuditionSlot struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AuditionID uuid.UUID `json:"audition_id" gorm:"type:uuid;not null;index"`
	StartTime  time.Time `json:"start_time" gorm:"type:timestamptz;not null;index"`
	EndTime    time.Time `json:"end_time" gorm:"type:timestamptz;not null"`
	Location   string    `json:"location" gorm:"type:varchar(200)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (AuditionSlot) TableName() string {
	return "audition_slots"
}

// AuditionSignup is an actor's claim on a slot. The slot carries the time.
type AuditionSignup struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SlotID    uuid.UUID `json:"slot_id" gorm:"type:uuid;not null;index"`
	ActorID   uuid.UUID `json:"actor_id" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditionSignup) TableName() string {
	return "audition_signups"
}

// CallbackInvitation invites an actor back for a timed callback.
type CallbackInvitation struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AuditionID uuid.UUID `json:"audition_id" gorm:"type:uuid;not null;index"`
	ActorID    uuid.UUID `json:"actor_id" gorm:"type:uuid;not null;index"`
	StartTime  time.Time `json:"start_time" gorm:"type:timestamptz;not null"`
	EndTime    time.Time `json:"end_time" gorm:"type:timestamptz;not null"`
	Location   string    `json:"location" gorm:"type:varchar(200)"`
	CreatedAt  time.Time `json:"created_at"`
}

func (CallbackInvitation) TableName() string {
	return "callback_invitations"
}

// CastMember ties a user to a production's cast; rehearsal and
// performance items sync only for cast members.
type CastMember struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AuditionID uuid.UUID `json:"audition_id" gorm:"type:uuid;not null;index:idx_cast_audition_user,unique"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_cast_audition_user,unique"`
	RoleName   string    `json:"role_name" gorm:"type:varchar(100)"`
	CreatedAt  time.Time `json:"created_at"`
}

func (CastMember) TableName() string {
	return "cast_members"
}
