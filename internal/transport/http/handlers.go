// internal/transport/http/handlers.go
package http

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stagesync-service/internal/calsync"
	"stagesync-service/internal/conflict"
	"stagesync-service/internal/store"
)

// Runner is the sync engine as the transport sees it: one call, one
// streamed run.
type Runner interface {
	Run(ctx context.Context, userID uuid.UUID, sink calsync.ProgressSink)
}

// ConflictChecker is the slice of the conflict service the handlers use.
type ConflictChecker interface {
	CheckCandidate(ctx context.Context, userID uuid.UUID, start, end time.Time) (*conflict.Commitment, error)
	EventConflictReport(ctx context.Context, rehearsalEventID uuid.UUID) (map[uuid.UUID][]conflict.UserConflicts, error)
}

type Handler struct {
	runner    Runner
	conflicts ConflictChecker
	store     *store.Store
}

func NewHandler(runner Runner, conflicts ConflictChecker, st *store.Store) *Handler {
	return &Handler{runner: runner, conflicts: conflicts, store: st}
}
