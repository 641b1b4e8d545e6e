// internal/transport/http/settings.go
package http

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"stagesync-service/internal/calsync"
)

type settingUpdate struct {
	Category   string `json:"category"`
	Enabled    bool   `json:"enabled"`
	CalendarID string `json:"calendar_id,omitempty"`
}

// GetSyncSettings returns the full per-category settings list for the
// setup UI, seeding disabled defaults for categories the user has never
// touched.
func (h *Handler) GetSyncSettings(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user_id"})
	}

	if err := h.store.EnsureDefaultSettings(c.Context(), userID); err != nil {
		log.Printf("❌ [SETTINGS] Failed to seed defaults for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load sync settings"})
	}

	settings, err := h.store.Settings(c.Context(), userID)
	if err != nil {
		log.Printf("❌ [SETTINGS] Failed to fetch settings for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load sync settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

// UpdateSyncSettings upserts the posted category toggles.
func (h *Handler) UpdateSyncSettings(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user_id"})
	}

	var updates []settingUpdate
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no settings provided"})
	}

	for _, u := range updates {
		if !calsync.KnownCategory(calsync.Category(u.Category)) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown category: " + u.Category})
		}
	}

	for _, u := range updates {
		if _, err := h.store.UpsertSetting(c.Context(), userID, u.Category, u.Enabled, u.CalendarID); err != nil {
			log.Printf("❌ [SETTINGS] Failed to upsert %s for user %s: %v", u.Category, userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update sync settings"})
		}
	}

	settings, err := h.store.Settings(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load sync settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}
