// internal/transport/http/conflicts.go
package http

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckConflict tests one candidate interval against everything the user
// is already committed to, across all categories. The UI calls this before
// letting a signup/assignment proceed.
func (h *Handler) CheckConflict(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user_id"})
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start must be RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end must be RFC3339"})
	}
	if end.Before(start) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end must not precede start"})
	}

	hit, err := h.conflicts.CheckCandidate(c.Context(), userID, start, end)
	if err != nil {
		log.Printf("❌ [CONFLICT] Check failed for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "conflict check failed"})
	}

	if hit == nil {
		return c.JSON(fiber.Map{"conflict": false})
	}
	return c.JSON(fiber.Map{
		"conflict":         true,
		"conflicting_item": hit,
	})
}

// EventConflicts runs the batch day-view report: every agenda item of a
// rehearsal event against every cast member's other commitments.
func (h *Handler) EventConflicts(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("event_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event_id"})
	}

	grouped, err := h.conflicts.EventConflictReport(c.Context(), eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "rehearsal event not found"})
		}
		log.Printf("❌ [CONFLICT] Event report failed for %s: %v", eventID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "conflict report failed"})
	}

	// uuid keys → strings for JSON.
	out := make(map[string]interface{}, len(grouped))
	for id, users := range grouped {
		out[id.String()] = users
	}
	return c.JSON(fiber.Map{"conflicts": out})
}
