// internal/directory/directory.go
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"stagesync-service/pkg/models"
)

const watermarkKey = "last_directory_sync_time"

// Service mirrors platform profiles into the local users table so the
// engine and alert emails can resolve names/addresses without a network
// hop per request.
type Service struct {
	db           *gorm.DB
	platformURL  string
	serviceToken string
}

func NewService(db *gorm.DB, platformURL, serviceToken string) *Service {
	s := &Service{
		db:           db,
		platformURL:  platformURL,
		serviceToken: serviceToken,
	}

	go s.runScheduler()

	return s
}

// runScheduler performs periodic incremental syncs from the platform.
func (s *Service) runScheduler() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()

		since, err := s.watermark()
		if err != nil {
			log.Printf("⚠️ [DIRECTORY] Could not read watermark, syncing from beginning: %v", err)
			since = time.Time{}
		}

		if err := s.SyncUsersSince(ctx, since); err != nil {
			log.Printf("❌ [DIRECTORY] Scheduled sync failed: %v", err)
		}
	}
}

// SyncUsersSince fetches profiles updated since the given time and upserts
// them locally. A zero time means a full sync.
func (s *Service) SyncUsersSince(ctx context.Context, since time.Time) error {
	if since.IsZero() {
		// The platform requires the since parameter; use a floor date to
		// fetch everything.
		since = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
		log.Printf("🔄 [DIRECTORY] Starting full profile sync")
	} else {
		log.Printf("🔄 [DIRECTORY] Starting profile sync from: %s", since.UTC().Format(time.RFC3339))
	}

	users, err := s.fetchProfiles(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to fetch profiles from platform: %w", err)
	}

	log.Printf("📥 [DIRECTORY] Retrieved %d profiles", len(users))

	for _, user := range users {
		if err := s.upsertUser(ctx, user); err != nil {
			log.Printf("⚠️ [DIRECTORY] Failed to sync user %s: %v", user.ID, err)
			continue
		}
	}

	if err := s.setWatermark(time.Now()); err != nil {
		log.Printf("⚠️ [DIRECTORY] Failed to update watermark: %v", err)
	}

	return nil
}

func (s *Service) fetchProfiles(ctx context.Context, since time.Time) ([]models.User, error) {
	url := fmt.Sprintf("%s/api/v1/public/profiles?since=%s", s.platformURL, since.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Service-Token", s.serviceToken)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("platform returned status: %d, body: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Users []models.User `json:"users"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON response: %w", err)
	}
	return response.Users, nil
}

func (s *Service) upsertUser(ctx context.Context, user models.User) error {
	var existing models.User
	result := s.db.WithContext(ctx).Where("id = ?", user.ID).First(&existing)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return s.db.WithContext(ctx).Create(&user).Error
		}
		return result.Error
	}

	// Only apply records newer than what we have.
	if user.UpdatedAt.After(existing.UpdatedAt) {
		existing.Username = user.Username
		existing.Email = user.Email
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.UpdatedAt = user.UpdatedAt
		return s.db.WithContext(ctx).Save(&existing).Error
	}

	return nil
}

func (s *Service) watermark() (time.Time, error) {
	var state models.SyncState
	result := s.db.Where("key = ?", watermarkKey).First(&state)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, result.Error
	}

	parsed, err := time.Parse(time.RFC3339, state.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse watermark: %w", err)
	}
	return parsed, nil
}

func (s *Service) setWatermark(at time.Time) error {
	state := models.SyncState{
		Key:   watermarkKey,
		Value: at.UTC().Format(time.RFC3339),
	}

	var existing models.SyncState
	result := s.db.Where("key = ?", watermarkKey).First(&existing)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return s.db.Create(&state).Error
		}
		return result.Error
	}
	return s.db.Model(&existing).Update("value", state.Value).Error
}
