// internal/transport/http/sync.go
package http

import (
	"bufio"
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"stagesync-service/internal/calsync"
	"stagesync-service/internal/sse"
)

type syncRequest struct {
	UserID string `json:"userId"`
}

// progressSink bridges the engine's events onto the SSE response.
type progressSink struct {
	w *sse.Writer
}

func (p progressSink) Emit(ev calsync.Event) error {
	return p.w.WriteEvent(ev)
}

// SyncGoogleCalendar triggers one push-sync run and streams its progress
// back as server-sent events. Request validation happens before the stream
// opens; once it opens the client gets per-category progress and exactly
// one terminal complete/error event.
func (h *Handler) SyncGoogleCalendar(c *fiber.Ctx) error {
	var req syncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userId required"})
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userId must be a valid UUID"})
	}

	log.Printf("🔄 [SYNC] Stream opened for user %s (ip=%s)", userID, c.IP())

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	runner := h.runner
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The run is not cancellable mid-category: a client disconnect
		// only stops delivery, the run itself finishes.
		sink := progressSink{w: sse.NewWriter(w)}
		runner.Run(context.Background(), userID, sink)
	}))

	return nil
}

// GetSyncRuns returns recent run summaries for a user.
func (h *Handler) GetSyncRuns(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user_id"})
	}

	runs, err := h.store.RecentRuns(c.Context(), userID, c.QueryInt("limit", 20))
	if err != nil {
		log.Printf("❌ [RUNS] Failed to fetch runs for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch sync runs"})
	}
	return c.JSON(fiber.Map{"runs": runs})
}
