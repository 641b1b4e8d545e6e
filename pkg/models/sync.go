// pkg/models/sync.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GoogleCredential holds a user's Google Calendar OAuth tokens. The sync
// engine reads it once per run and refreshes at most once.
type GoogleCredential struct {
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	AccessToken  string    `json:"-" gorm:"type:text;not null"`
	RefreshToken string    `json:"-" gorm:"type:text;not null"`
	TokenExpiry  time.Time `json:"token_expiry" gorm:"type:timestamptz;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (GoogleCredential) TableName() string {
	return "google_credentials"
}

// SyncSetting enables push-sync of one category for one user and names the
// target Google calendar. last_synced_at is the only field the engine writes.
type SyncSetting struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index:idx_sync_setting_user_category,unique"`
	Category     string     `json:"category" gorm:"type:varchar(30);not null;index:idx_sync_setting_user_category,unique"`
	Enabled      bool       `json:"enabled" gorm:"not null;default:false"`
	CalendarID   string     `json:"calendar_id" gorm:"type:varchar(255);not null;default:'primary'"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty" gorm:"type:timestamptz"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (SyncSetting) TableName() string {
	return "sync_settings"
}

// SyncedEvent links one local item to the Google event it produced. The
// unique index on (user_id, category, local_id) is the at-most-once
// guarantee the engine relies on for de-duplication.
type SyncedEvent struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_synced_event_identity,unique"`
	Category      string    `json:"category" gorm:"type:varchar(30);not null;index:idx_synced_event_identity,unique"`
	LocalID       string    `json:"local_id" gorm:"type:varchar(100);not null;index:idx_synced_event_identity,unique"`
	CalendarID    string    `json:"calendar_id" gorm:"type:varchar(255);not null"`
	GoogleEventID string    `json:"google_event_id" gorm:"type:varchar(255);not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func (SyncedEvent) TableName() string {
	return "synced_events"
}

// SyncRun is the persisted summary of one engine invocation.
type SyncRun struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	Synced     int            `json:"synced" gorm:"not null;default:0"`
	Errors     int            `json:"errors" gorm:"not null;default:0"`
	ItemErrors datatypes.JSON `json:"item_errors,omitempty" gorm:"type:jsonb"` // []ItemErrorDetail
	ReportURL  *string        `json:"report_url,omitempty" gorm:"type:varchar(500)"`
	StartedAt  time.Time      `json:"started_at" gorm:"type:timestamptz;not null"`
	FinishedAt *time.Time     `json:"finished_at,omitempty" gorm:"type:timestamptz"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}

// DeviceToken registers an FCM token so a device can receive the
// "sync finished" push.
type DeviceToken struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Token     string    `json:"token" gorm:"type:varchar(500);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (DeviceToken) TableName() string {
	return "device_tokens"
}

// SyncState is key/value bookkeeping (e.g. the directory sync watermark).
type SyncState struct {
	Key   string `json:"key" gorm:"primaryKey;type:varchar(255)"`
	Value string `json:"value" gorm:"type:text"`
}

func (SyncState) TableName() string {
	return "sync_states"
}
