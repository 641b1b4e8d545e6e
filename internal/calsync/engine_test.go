package calsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"stagesync-service/pkg/models"
)

// --- fakes ---

type fakeCreds struct {
	cred  *models.GoogleCredential
	err   error
	saved []models.GoogleCredential
}

func (f *fakeCreds) Credential(ctx context.Context, userID uuid.UUID) (*models.GoogleCredential, error) {
	return f.cred, f.err
}

func (f *fakeCreds) SaveCredential(ctx context.Context, cred *models.GoogleCredential) error {
	f.saved = append(f.saved, *cred)
	return nil
}

type fakeRefresher struct {
	calls  int
	token  string
	expiry time.Time
	err    error
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	f.calls++
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return f.token, f.expiry, nil
}

type fakeSettings struct {
	settings []models.SyncSetting
	err      error
	touched  []time.Time
}

func (f *fakeSettings) EnabledSettings(ctx context.Context, userID uuid.UUID) ([]models.SyncSetting, error) {
	return f.settings, f.err
}

func (f *fakeSettings) TouchLastSynced(ctx context.Context, userID uuid.UUID, at time.Time) error {
	f.touched = append(f.touched, at)
	return nil
}

type fakeSource struct {
	items   map[Category][]Item
	errs    map[Category]error
	fetched []Category
}

func (f *fakeSource) Items(ctx context.Context, userID uuid.UUID, cat Category) ([]Item, error) {
	f.fetched = append(f.fetched, cat)
	if err := f.errs[cat]; err != nil {
		return nil, err
	}
	return f.items[cat], nil
}

type fakeMappings struct {
	rows      map[string]bool // key: category|localID
	inserted  []models.SyncedEvent
	insertErr error
}

func newFakeMappings() *fakeMappings {
	return &fakeMappings{rows: make(map[string]bool)}
}

func (f *fakeMappings) key(cat Category, localID string) string {
	return string(cat) + "|" + localID
}

func (f *fakeMappings) MappedIDs(ctx context.Context, userID uuid.UUID, cat Category, localIDs []string) (map[string]bool, error) {
	mapped := make(map[string]bool)
	for _, id := range localIDs {
		if f.rows[f.key(cat, id)] {
			mapped[id] = true
		}
	}
	return mapped, nil
}

func (f *fakeMappings) InsertMapping(ctx context.Context, m *models.SyncedEvent) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, *m)
	f.rows[f.key(Category(m.Category), m.LocalID)] = true
	return nil
}

type createCall struct {
	accessToken string
	calendarID  string
	item        Item
}

type fakeCalendar struct {
	calls []createCall
	fail  map[string]error // by LocalID
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, accessToken, calendarID string, item Item) (string, error) {
	f.calls = append(f.calls, createCall{accessToken, calendarID, item})
	if err := f.fail[item.LocalID]; err != nil {
		return "", err
	}
	return "gev-" + item.LocalID, nil
}

type sinkRecorder struct {
	events []Event
}

func (s *sinkRecorder) Emit(ev Event) error {
	s.events = append(s.events, ev)
	return nil
}

// --- helpers ---

func validCred(userID uuid.UUID) *models.GoogleCredential {
	return &models.GoogleCredential{
		UserID:       userID,
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenExpiry:  time.Now().Add(time.Hour),
	}
}

func enabled(userID uuid.UUID, cats ...Category) []models.SyncSetting {
	var out []models.SyncSetting
	for _, c := range cats {
		out = append(out, models.SyncSetting{
			UserID:     userID,
			Category:   string(c),
			Enabled:    true,
			CalendarID: "primary",
		})
	}
	return out
}

func slotItem(id string, start time.Time) Item {
	return Item{
		Category: CategoryAuditionSlots,
		LocalID:  id,
		Title:    "Audition Slot: Hamlet",
		Start:    start,
		End:      start.Add(30 * time.Minute),
		ColorTag: CategoryAuditionSlots.ColorTag(),
	}
}

type harness struct {
	creds     *fakeCreds
	refresher *fakeRefresher
	settings  *fakeSettings
	source    *fakeSource
	mappings  *fakeMappings
	calendar  *fakeCalendar
	engine    *Engine
}

func newHarness(userID uuid.UUID, cats ...Category) *harness {
	h := &harness{
		creds:     &fakeCreds{cred: validCred(userID)},
		refresher: &fakeRefresher{token: "new-token", expiry: time.Now().Add(time.Hour)},
		settings:  &fakeSettings{settings: enabled(userID, cats...)},
		source:    &fakeSource{items: make(map[Category][]Item), errs: make(map[Category]error)},
		mappings:  newFakeMappings(),
		calendar:  &fakeCalendar{fail: make(map[string]error)},
	}
	h.engine = NewEngine(Deps{
		Credentials: h.creds,
		Refresher:   h.refresher,
		Settings:    h.settings,
		Source:      h.source,
		Mappings:    h.mappings,
		Calendar:    h.calendar,
	})
	return h
}

func terminal(t *testing.T, events []Event) Event {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}
	last := events[len(events)-1]
	if last.Type != EventComplete && last.Type != EventError {
		t.Fatalf("last event is not terminal: %+v", last)
	}
	for _, ev := range events[:len(events)-1] {
		if ev.Type == EventComplete || ev.Type == EventError {
			t.Fatalf("terminal event emitted before the end: %+v", ev)
		}
	}
	return last
}

// --- tests ---

func TestRunSingleCategorySingleItem(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID, CategoryAuditionSlots)
	tomorrow := time.Now().Add(24 * time.Hour)
	h.source.items[CategoryAuditionSlots] = []Item{slotItem("slot-1", tomorrow)}

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	if len(sink.events) != 2 {
		t.Fatalf("expected progress + complete, got %d events: %+v", len(sink.events), sink.events)
	}
	progress := sink.events[0]
	if progress.Type != EventProgress || progress.Current != 1 || progress.Total != 1 || progress.EventType != "audition_slots" {
		t.Errorf("unexpected progress event: %+v", progress)
	}

	last := terminal(t, sink.events)
	if last.Type != EventComplete || *last.Synced != 1 || *last.Errors != 0 {
		t.Errorf("unexpected terminal event: %+v", last)
	}

	if len(h.calendar.calls) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(h.calendar.calls))
	}
	if h.calendar.calls[0].accessToken != "access-token" {
		t.Errorf("create used wrong token: %s", h.calendar.calls[0].accessToken)
	}
	if len(h.mappings.inserted) != 1 {
		t.Fatalf("expected 1 mapping, got %d", len(h.mappings.inserted))
	}
	m := h.mappings.inserted[0]
	if m.UserID != userID || m.Category != "audition_slots" || m.LocalID != "slot-1" || m.GoogleEventID != "gev-slot-1" {
		t.Errorf("unexpected mapping: %+v", m)
	}
	if h.refresher.calls != 0 {
		t.Errorf("valid credential must not be refreshed (refreshed %d times)", h.refresher.calls)
	}
	if len(h.settings.touched) != 1 {
		t.Errorf("expected last_synced_at touched once, got %d", len(h.settings.touched))
	}
}

func TestRunIsIdempotent(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID, CategoryAuditionSlots)
	h.source.items[CategoryAuditionSlots] = []Item{
		slotItem("slot-1", time.Now()),
		slotItem("slot-2", time.Now().Add(time.Hour)),
	}

	h.engine.Run(context.Background(), userID, &sinkRecorder{})
	if len(h.calendar.calls) != 2 {
		t.Fatalf("first run: expected 2 creates, got %d", len(h.calendar.calls))
	}

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	if len(h.calendar.calls) != 2 {
		t.Errorf("second run created new events: %d total calls", len(h.calendar.calls))
	}
	if len(h.mappings.inserted) != 2 {
		t.Errorf("second run inserted new mappings: %d total", len(h.mappings.inserted))
	}
	last := terminal(t, sink.events)
	if *last.Synced != 1 || *last.Errors != 0 {
		t.Errorf("second run summary: %+v", last)
	}
}

func TestRunNotConnected(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID, CategoryAuditionSlots)
	h.creds.cred = nil

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	if len(sink.events) != 1 {
		t.Fatalf("expected exactly one event, got %d: %+v", len(sink.events), sink.events)
	}
	ev := sink.events[0]
	if ev.Type != EventError || ev.Message != "Not connected to Google Calendar" {
		t.Errorf("unexpected error event: %+v", ev)
	}
	if len(h.calendar.calls) != 0 || len(h.source.fetched) != 0 {
		t.Error("setup failure must not process any category")
	}
	if len(h.settings.touched) != 0 {
		t.Error("setup failure must not touch last_synced_at")
	}
}

func TestRunNotConfigured(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID) // no enabled settings

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	if len(sink.events) != 1 || sink.events[0].Type != EventError {
		t.Fatalf("expected single error event, got %+v", sink.events)
	}
	if sink.events[0].Message != ErrNotConfigured.Error() {
		t.Errorf("unexpected message: %q", sink.events[0].Message)
	}
}

func TestRunRefreshesExpiredCredential(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID, CategoryAuditionSlots)
	h.creds.cred.TokenExpiry = time.Now().Add(-time.Minute)
	h.source.items[CategoryAuditionSlots] = []Item{slotItem("slot-1", time.Now())}

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	if h.refresher.calls != 1 {
		t.Fatalf("expected exactly one refresh, got %d", h.refresher.calls)
	}
	if len(h.creds.saved) != 1 {
		t.Fatalf("expected refreshed credential persisted once, got %d", len(h.creds.saved))
	}
	if h.creds.saved[0].AccessToken != "new-token" {
		t.Errorf("persisted token = %q", h.creds.saved[0].AccessToken)
	}
	if len(h.calendar.calls) != 1 || h.calendar.calls[0].accessToken != "new-token" {
		t.Errorf("category processing must use the refreshed token: %+v", h.calendar.calls)
	}
	if last := terminal(t, sink.events); last.Type != EventComplete {
		t.Errorf("expected complete, got %+v", last)
	}
}

func TestRunRefreshFailureIsFatal(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID, CategoryAuditionSlots)
	h.creds.cred.TokenExpiry = time.Now().Add(-time.Minute)
	h.refresher.err = errors.New("invalid_grant")

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	if len(sink.events) != 1 || sink.events[0].Type != EventError {
		t.Fatalf("expected single error event, got %+v", sink.events)
	}
	if len(h.source.fetched) != 0 {
		t.Error("no category may run after a refresh failure")
	}
	if len(h.creds.saved) != 0 {
		t.Error("failed refresh must not persist a credential")
	}
}

func TestRunCategoryIsolation(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID, CategoryAuditionSlots, CategoryCallbacks)
	h.source.errs[CategoryAuditionSlots] = errors.New("query exploded")
	h.source.items[CategoryCallbacks] = []Item{{
		Category: CategoryCallbacks,
		LocalID:  "cb-1",
		Title:    "Callback: Hamlet",
		Start:    time.Now(),
		End:      time.Now().Add(time.Hour),
	}}

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	last := terminal(t, sink.events)
	if last.Type != EventComplete {
		t.Fatalf("category failure must not be terminal: %+v", last)
	}
	if *last.Synced != 1 || *last.Errors != 1 {
		t.Errorf("summary = {synced:%d errors:%d}, want {1,1}", *last.Synced, *last.Errors)
	}
	if len(h.mappings.inserted) != 1 || h.mappings.inserted[0].LocalID != "cb-1" {
		t.Errorf("later category must still map its items: %+v", h.mappings.inserted)
	}

	// Both categories still produced a progress event, in order.
	var cats []string
	for _, ev := range sink.events {
		if ev.Type == EventProgress {
			cats = append(cats, ev.EventType)
		}
	}
	if len(cats) != 2 || cats[0] != "audition_slots" || cats[1] != "callbacks" {
		t.Errorf("unexpected progress order: %v", cats)
	}
}

func TestRunItemIsolation(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID, CategoryAuditionSlots)
	h.source.items[CategoryAuditionSlots] = []Item{
		slotItem("slot-bad", time.Now()),
		slotItem("slot-good", time.Now().Add(time.Hour)),
	}
	h.calendar.fail["slot-bad"] = errors.New("rate limited")

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	if len(h.mappings.inserted) != 1 || h.mappings.inserted[0].LocalID != "slot-good" {
		t.Errorf("sibling item must still be mapped: %+v", h.mappings.inserted)
	}

	// Item-level failures do not fail the category tally.
	last := terminal(t, sink.events)
	if *last.Synced != 1 || *last.Errors != 0 {
		t.Errorf("summary = {synced:%d errors:%d}, want {1,0}", *last.Synced, *last.Errors)
	}
}

func TestRunPersonalIsNoOp(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID, CategoryAuditionSlots, CategoryPersonal)
	h.source.items[CategoryAuditionSlots] = []Item{slotItem("slot-1", time.Now())}

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	for _, cat := range h.source.fetched {
		if cat == CategoryPersonal {
			t.Error("personal category must never be fetched")
		}
	}
	for _, call := range h.calendar.calls {
		if call.item.Category == CategoryPersonal {
			t.Error("personal category must never create events")
		}
	}

	// It still shows up in progress and counts as processed.
	var sawPersonal bool
	for _, ev := range sink.events {
		if ev.Type == EventProgress && ev.EventType == "personal" {
			sawPersonal = true
		}
	}
	if !sawPersonal {
		t.Error("expected a progress event for the personal category")
	}
	last := terminal(t, sink.events)
	if *last.Synced != 2 || *last.Errors != 0 {
		t.Errorf("summary = {synced:%d errors:%d}, want {2,0}", *last.Synced, *last.Errors)
	}
}

func TestRunRehearsalsExpandIntoSubPasses(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID, CategoryRehearsals)
	auditionID := uuid.New()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	h.source.items[CategoryRehearsalDates] = []Item{{
		Category: CategoryRehearsalDates,
		LocalID:  DateKey(auditionID, "2025-03-01"),
		Title:    "Rehearsal: Hamlet",
		Start:    day,
		End:      day.AddDate(0, 0, 1),
		AllDay:   true,
	}}
	h.source.items[CategoryRehearsalEvents] = []Item{{
		Category: CategoryRehearsalEvents,
		LocalID:  "re-1",
		Title:    "Rehearsal: Act II",
		Start:    day.Add(18 * time.Hour),
		End:      day.Add(21 * time.Hour),
	}}
	h.source.items[CategoryAgendaItems] = []Item{{
		Category: CategoryAgendaItems,
		LocalID:  "ag-1",
		Title:    "Fight call (Hamlet)",
		Start:    day.Add(18 * time.Hour),
		End:      day.Add(19 * time.Hour),
	}}

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	wantFetched := []Category{CategoryRehearsalDates, CategoryRehearsalEvents, CategoryAgendaItems}
	if len(h.source.fetched) != len(wantFetched) {
		t.Fatalf("fetched %v, want %v", h.source.fetched, wantFetched)
	}
	for i, cat := range wantFetched {
		if h.source.fetched[i] != cat {
			t.Errorf("fetch %d = %s, want %s", i, h.source.fetched[i], cat)
		}
	}

	// One progress event for the umbrella category, three mappings in
	// their own namespaces.
	var progressCount int
	for _, ev := range sink.events {
		if ev.Type == EventProgress {
			progressCount++
			if ev.EventType != "rehearsals" {
				t.Errorf("progress eventType = %s, want rehearsals", ev.EventType)
			}
		}
	}
	if progressCount != 1 {
		t.Errorf("expected 1 progress event, got %d", progressCount)
	}
	if len(h.mappings.inserted) != 3 {
		t.Fatalf("expected 3 mappings, got %d", len(h.mappings.inserted))
	}
	gotCats := map[string]bool{}
	for _, m := range h.mappings.inserted {
		gotCats[m.Category] = true
	}
	for _, want := range []string{"rehearsal_dates", "rehearsal_events", "agenda_items"} {
		if !gotCats[want] {
			t.Errorf("missing mapping namespace %s", want)
		}
	}

	last := terminal(t, sink.events)
	if *last.Synced != 1 || *last.Errors != 0 {
		t.Errorf("summary = {synced:%d errors:%d}, want {1,0}", *last.Synced, *last.Errors)
	}
}

func TestRunProcessesCategoriesInFixedOrder(t *testing.T) {
	userID := uuid.New()
	// Settings deliberately out of order.
	h := newHarness(userID, CategoryPersonal, CategoryPerformances, CategoryAuditionSlots)

	sink := &sinkRecorder{}
	h.engine.Run(context.Background(), userID, sink)

	var cats []string
	for _, ev := range sink.events {
		if ev.Type == EventProgress {
			cats = append(cats, ev.EventType)
		}
	}
	want := []string{"audition_slots", "performances", "personal"}
	if len(cats) != len(want) {
		t.Fatalf("progress categories %v, want %v", cats, want)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("progress %d = %s, want %s", i, cats[i], want[i])
		}
	}
	for i, ev := range sink.events[:len(sink.events)-1] {
		if ev.Current != i+1 || ev.Total != 3 {
			t.Errorf("progress %d: current=%d total=%d", i, ev.Current, ev.Total)
		}
	}
}

func TestRunRecordsRunSummary(t *testing.T) {
	userID := uuid.New()
	h := newHarness(userID, CategoryAuditionSlots)
	h.source.items[CategoryAuditionSlots] = []Item{slotItem("slot-1", time.Now())}

	var runs []models.SyncRun
	h.engine.deps.Runs = runStoreFunc(func(ctx context.Context, run *models.SyncRun) error {
		runs = append(runs, *run)
		return nil
	})

	h.engine.Run(context.Background(), userID, &sinkRecorder{})

	if len(runs) != 1 {
		t.Fatalf("expected 1 persisted run, got %d", len(runs))
	}
	run := runs[0]
	if run.UserID != userID || run.Synced != 1 || run.Errors != 0 {
		t.Errorf("unexpected run row: %+v", run)
	}
	if run.FinishedAt == nil {
		t.Error("run must record a finish time")
	}
}

type runStoreFunc func(ctx context.Context, run *models.SyncRun) error

func (f runStoreFunc) InsertRun(ctx context.Context, run *models.SyncRun) error {
	return f(ctx, run)
}
