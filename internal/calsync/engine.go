// internal/calsync/engine.go
package calsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"stagesync-service/pkg/models"
)

// CredentialStore resolves and persists a user's Google OAuth credential.
// Credential returns (nil, nil) when the user has never connected.
type CredentialStore interface {
	Credential(ctx context.Context, userID uuid.UUID) (*models.GoogleCredential, error)
	SaveCredential(ctx context.Context, cred *models.GoogleCredential) error
}

// TokenRefresher exchanges a refresh token for a fresh access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken string, expiry time.Time, err error)
}

// SettingStore reads the per-category sync configuration.
type SettingStore interface {
	EnabledSettings(ctx context.Context, userID uuid.UUID) ([]models.SyncSetting, error)
	TouchLastSynced(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// ItemSource fetches the user's syncable items for one fetch pass, already
// reduced to the common Item projection and scoped by the category's
// ownership rule.
type ItemSource interface {
	Items(ctx context.Context, userID uuid.UUID, cat Category) ([]Item, error)
}

// MappingStore owns the synced_events table.
type MappingStore interface {
	MappedIDs(ctx context.Context, userID uuid.UUID, cat Category, localIDs []string) (map[string]bool, error)
	InsertMapping(ctx context.Context, m *models.SyncedEvent) error
}

// CalendarAPI creates events in the external calendar.
type CalendarAPI interface {
	CreateEvent(ctx context.Context, accessToken, calendarID string, item Item) (googleEventID string, err error)
}

// RunStore persists per-run summaries.
type RunStore interface {
	InsertRun(ctx context.Context, run *models.SyncRun) error
}

// ReportArchiver stores the full run report somewhere durable (R2) and
// returns a URL for it. Best-effort; a nil archiver disables archiving.
type ReportArchiver interface {
	ArchiveReport(ctx context.Context, userID, runID uuid.UUID, payload []byte) (url string, err error)
}

// Notifier tells the user's devices a run finished. Best-effort.
type Notifier interface {
	SyncFinished(ctx context.Context, userID uuid.UUID, synced, errors int)
}

// Alerter reaches the user out-of-band when the run cannot start because
// their Google credential is beyond repair. Best-effort.
type Alerter interface {
	CredentialAlert(ctx context.Context, userID uuid.UUID, reason string)
}

// Deps wires an Engine. Credentials, Refresher, Settings, Source, Mappings
// and Calendar are required; the rest may be nil.
type Deps struct {
	Credentials CredentialStore
	Refresher   TokenRefresher
	Settings    SettingStore
	Source      ItemSource
	Mappings    MappingStore
	Calendar    CalendarAPI
	Runs        RunStore
	Archive     ReportArchiver
	Notifier    Notifier
	Alerts      Alerter
}

// Engine performs one-way push-sync of a user's schedulable records into
// their Google Calendar. Categories run strictly sequentially in
// CategoryOrder; a run either fails during setup (terminal error event,
// nothing processed) or processes every enabled category and ends with a
// terminal complete event.
type Engine struct {
	deps Deps
}

func NewEngine(deps Deps) *Engine {
	return &Engine{deps: deps}
}

// Run executes one sync for userID, emitting progress to sink.
func (e *Engine) Run(ctx context.Context, userID uuid.UUID, sink ProgressSink) {
	runID := uuid.New()
	startedAt := time.Now().UTC()
	report := newReport(userID, runID, startedAt)

	log.Printf("🔄 [SYNC] Run %s started for user %s", runID, userID)

	accessToken, settings, err := e.setup(ctx, userID)
	if err != nil {
		log.Printf("❌ [SYNC] Run %s setup failed for user %s: %v", runID, userID, err)
		e.emit(sink, errorEvent(err.Error()))
		return
	}

	synced, errorCount := 0, 0
	total := len(settings)

	for i, setting := range settings {
		cat := Category(setting.Category)
		e.emit(sink, progressEvent(i+1, total, cat))

		// Personal events are imported from Google, never pushed back.
		if cat == CategoryPersonal {
			synced++
			continue
		}

		if err := e.syncCategory(ctx, userID, accessToken, setting, cat, report); err != nil {
			log.Printf("❌ [SYNC] Run %s: category %s failed: %v", runID, cat, err)
			report.categoryFailed(cat, err)
			errorCount++
			continue
		}
		synced++
	}

	e.finish(ctx, userID, runID, startedAt, synced, errorCount, report)
	e.emit(sink, completeEvent(synced, errorCount))
	log.Printf("✅ [SYNC] Run %s finished for user %s: synced=%d errors=%d items=%d itemErrors=%d",
		runID, userID, synced, errorCount, report.ItemsSynced, len(report.ItemErrors))
}

// setup resolves the credential (refreshing it at most once) and the
// enabled settings. Any error here is fatal to the run.
func (e *Engine) setup(ctx context.Context, userID uuid.UUID) (string, []models.SyncSetting, error) {
	cred, err := e.deps.Credentials.Credential(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("loading google credential: %w", err)
	}
	if cred == nil {
		return "", nil, ErrNotConnected
	}

	if !cred.TokenExpiry.After(time.Now()) {
		log.Printf("🔑 [SYNC] Credential expired for user %s, refreshing", userID)
		accessToken, expiry, err := e.deps.Refresher.Refresh(ctx, cred.RefreshToken)
		if err != nil {
			if e.deps.Alerts != nil {
				e.deps.Alerts.CredentialAlert(ctx, userID, err.Error())
			}
			return "", nil, fmt.Errorf("refreshing google credential: %w", err)
		}
		cred.AccessToken = accessToken
		cred.TokenExpiry = expiry
		if err := e.deps.Credentials.SaveCredential(ctx, cred); err != nil {
			return "", nil, fmt.Errorf("persisting refreshed credential: %w", err)
		}
		log.Printf("✅ [SYNC] Credential refreshed for user %s (expires %s)", userID, expiry.Format(time.RFC3339))
	}

	settings, err := e.deps.Settings.EnabledSettings(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("loading sync settings: %w", err)
	}

	ordered := make([]models.SyncSetting, 0, len(settings))
	for _, s := range settings {
		if !KnownCategory(Category(s.Category)) {
			log.Printf("⚠️ [SYNC] Ignoring setting with unknown category %q for user %s", s.Category, userID)
			continue
		}
		ordered = append(ordered, s)
	}
	if len(ordered) == 0 {
		return "", nil, ErrNotConfigured
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return categoryRank[Category(ordered[i].Category)] < categoryRank[Category(ordered[j].Category)]
	})

	return cred.AccessToken, ordered, nil
}

// syncCategory runs every fetch pass of one settings-level category. An
// error from a pass is a category-level failure; item failures are recorded
// and skipped.
func (e *Engine) syncCategory(ctx context.Context, userID uuid.UUID, accessToken string, setting models.SyncSetting, cat Category, report *Report) error {
	for _, pass := range subPasses(cat) {
		items, err := e.deps.Source.Items(ctx, userID, pass)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", pass, err)
		}
		if len(items) == 0 {
			continue
		}

		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.LocalID
		}
		mapped, err := e.deps.Mappings.MappedIDs(ctx, userID, pass, ids)
		if err != nil {
			return fmt.Errorf("loading mappings for %s: %w", pass, err)
		}

		for _, it := range items {
			if mapped[it.LocalID] {
				continue
			}
			googleEventID, err := e.deps.Calendar.CreateEvent(ctx, accessToken, setting.CalendarID, it)
			if err != nil {
				log.Printf("⚠️ [SYNC] Failed to create event for %s/%s (user %s): %v", pass, it.LocalID, userID, err)
				report.itemFailed(pass, it.LocalID, err)
				continue
			}
			mapping := &models.SyncedEvent{
				UserID:        userID,
				Category:      string(pass),
				LocalID:       it.LocalID,
				CalendarID:    setting.CalendarID,
				GoogleEventID: googleEventID,
			}
			if err := e.deps.Mappings.InsertMapping(ctx, mapping); err != nil {
				log.Printf("⚠️ [SYNC] Failed to record mapping for %s/%s (user %s): %v", pass, it.LocalID, userID, err)
				report.itemFailed(pass, it.LocalID, err)
				continue
			}
			report.itemSynced()
		}
	}
	return nil
}

// finish does the end-of-run bookkeeping. All of it is best-effort: the
// stream already has everything the client needs.
func (e *Engine) finish(ctx context.Context, userID, runID uuid.UUID, startedAt time.Time, synced, errorCount int, report *Report) {
	now := time.Now().UTC()

	if err := e.deps.Settings.TouchLastSynced(ctx, userID, now); err != nil {
		log.Printf("⚠️ [SYNC] Run %s: failed to update last_synced_at: %v", runID, err)
	}

	run := &models.SyncRun{
		ID:         runID,
		UserID:     userID,
		Synced:     synced,
		Errors:     errorCount,
		StartedAt:  startedAt,
		FinishedAt: &now,
	}
	if len(report.ItemErrors) > 0 {
		if b, err := json.Marshal(report.ItemErrors); err == nil {
			run.ItemErrors = b
		}
	}

	if e.deps.Archive != nil {
		payload, err := json.Marshal(report)
		if err == nil {
			url, err := e.deps.Archive.ArchiveReport(ctx, userID, runID, payload)
			if err != nil {
				log.Printf("⚠️ [SYNC] Run %s: report archive failed: %v", runID, err)
			} else {
				run.ReportURL = &url
			}
		}
	}

	if e.deps.Runs != nil {
		if err := e.deps.Runs.InsertRun(ctx, run); err != nil {
			log.Printf("⚠️ [SYNC] Run %s: failed to persist run summary: %v", runID, err)
		}
	}

	if e.deps.Notifier != nil {
		e.deps.Notifier.SyncFinished(ctx, userID, synced, errorCount)
	}
}

func (e *Engine) emit(sink ProgressSink, ev Event) {
	if err := sink.Emit(ev); err != nil {
		// A client gone mid-stream must not abort the run.
		log.Printf("⚠️ [SYNC] Failed to emit %s event: %v", ev.Type, err)
	}
}
