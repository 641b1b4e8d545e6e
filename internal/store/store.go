// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stagesync-service/internal/calsync"
	"stagesync-service/pkg/models"
)

// Store is the GORM-backed implementation of the sync engine's stores
// (credentials, settings, mappings, runs) plus the handful of reads and
// writes the HTTP surface needs.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- CredentialStore ---

// Credential returns (nil, nil) when the user never connected Google
// Calendar; the engine maps that to its NotConnected error.
func (s *Store) Credential(ctx context.Context, userID uuid.UUID) (*models.GoogleCredential, error) {
	var cred models.GoogleCredential
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (s *Store) SaveCredential(ctx context.Context, cred *models.GoogleCredential) error {
	return s.db.WithContext(ctx).Save(cred).Error
}

// --- SettingStore ---

func (s *Store) EnabledSettings(ctx context.Context, userID uuid.UUID) ([]models.SyncSetting, error) {
	var settings []models.SyncSetting
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND enabled = ?", userID, true).
		Find(&settings).Error
	return settings, err
}

func (s *Store) TouchLastSynced(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.SyncSetting{}).
		Where("user_id = ? AND enabled = ?", userID, true).
		Update("last_synced_at", at).Error
}

// Settings returns all of a user's settings rows, enabled or not (the
// setup surface shows both).
func (s *Store) Settings(ctx context.Context, userID uuid.UUID) ([]models.SyncSetting, error) {
	var settings []models.SyncSetting
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("category ASC").
		Find(&settings).Error
	return settings, err
}

// UpsertSetting creates or updates one (user, category) setting row.
func (s *Store) UpsertSetting(ctx context.Context, userID uuid.UUID, category string, enabled bool, calendarID string) (*models.SyncSetting, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	var setting models.SyncSetting
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, category).
		First(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		setting = models.SyncSetting{
			UserID:     userID,
			Category:   category,
			Enabled:    enabled,
			CalendarID: calendarID,
		}
		if err := s.db.WithContext(ctx).Create(&setting).Error; err != nil {
			return nil, err
		}
		return &setting, nil
	}

	setting.Enabled = enabled
	setting.CalendarID = calendarID
	if err := s.db.WithContext(ctx).Save(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// --- MappingStore ---

// MappedIDs batch-fetches the already-synced local ids of one category in
// a single query, so the engine's dedup check is not one query per item.
func (s *Store) MappedIDs(ctx context.Context, userID uuid.UUID, cat calsync.Category, localIDs []string) (map[string]bool, error) {
	mapped := make(map[string]bool, len(localIDs))
	if len(localIDs) == 0 {
		return mapped, nil
	}

	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.SyncedEvent{}).
		Where("user_id = ? AND category = ? AND local_id IN ?", userID, string(cat), localIDs).
		Pluck("local_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		mapped[id] = true
	}
	return mapped, nil
}

func (s *Store) InsertMapping(ctx context.Context, m *models.SyncedEvent) error {
	return s.db.WithContext(ctx).Create(m).Error
}

// --- RunStore ---

func (s *Store) InsertRun(ctx context.Context, run *models.SyncRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

// RecentRuns returns the newest run summaries for a user.
func (s *Store) RecentRuns(ctx context.Context, userID uuid.UUID, limit int) ([]models.SyncRun, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	var runs []models.SyncRun
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// --- Device tokens ---

func (s *Store) RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	var existing models.DeviceToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&existing).Error
	if err == nil {
		if existing.UserID == userID {
			return nil
		}
		// Token moved to another account; reassign.
		return s.db.WithContext(ctx).Model(&existing).Update("user_id", userID).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(&models.DeviceToken{UserID: userID, Token: token}).Error
}

func (s *Store) RemoveDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.DeviceToken{}).Error
}

func (s *Store) DeviceTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var tokens []string
	err := s.db.WithContext(ctx).
		Model(&models.DeviceToken{}).
		Where("user_id = ?", userID).
		Pluck("token", &tokens).Error
	return tokens, err
}

// --- Users ---

func (s *Store) UserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID.String()).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureDefaultSettings seeds one disabled settings row per category so
// the setup UI always has a full list to toggle. Existing rows are left
// alone.
func (s *Store) EnsureDefaultSettings(ctx context.Context, userID uuid.UUID) error {
	for _, cat := range calsync.CategoryOrder {
		var count int64
		err := s.db.WithContext(ctx).
			Model(&models.SyncSetting{}).
			Where("user_id = ? AND category = ?", userID, string(cat)).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("checking setting %s: %w", cat, err)
		}
		if count > 0 {
			continue
		}
		setting := models.SyncSetting{
			UserID:     userID,
			Category:   string(cat),
			Enabled:    false,
			CalendarID: "primary",
		}
		if err := s.db.WithContext(ctx).Create(&setting).Error; err != nil {
			return fmt.Errorf("seeding setting %s: %w", cat, err)
		}
		log.Printf("📝 [SETTINGS] Seeded default %s setting for user %s", cat, userID)
	}
	return nil
}
