// internal/transport/http/devices.go
package http

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type deviceTokenRequest struct {
	Token string `json:"token"`
}

// RegisterFCMToken stores a device token so the user gets the "sync
// finished" push.
func (h *Handler) RegisterFCMToken(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user_id"})
	}

	var req deviceTokenRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token required"})
	}

	if err := h.store.RegisterDeviceToken(c.Context(), userID, req.Token); err != nil {
		log.Printf("❌ [FCM] Failed to register token for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to register token"})
	}
	return c.JSON(fiber.Map{"status": "registered"})
}

// UnregisterFCMToken removes a device token.
func (h *Handler) UnregisterFCMToken(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user_id"})
	}

	var req deviceTokenRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token required"})
	}

	if err := h.store.RemoveDeviceToken(c.Context(), userID, req.Token); err != nil {
		log.Printf("❌ [FCM] Failed to unregister token for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to unregister token"})
	}
	return c.JSON(fiber.Map{"status": "unregistered"})
}
