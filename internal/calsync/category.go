// internal/calsync/category.go
package calsync

// Category is one class of schedulable records the engine can push.
type Category string

const (
	CategoryAuditionSlots Category = "audition_slots"
	CategoryAuditions     Category = "auditions" // the user's own signups
	CategoryCallbacks     Category = "callbacks"
	CategoryRehearsals    Category = "rehearsals"
	CategoryPerformances  Category = "performances"
	CategoryPersonal      Category = "personal" // one-way import only, never pushed

	// Internal sub-passes of the rehearsals category. They are also the
	// mapping-row namespaces, so rehearsal dates, rehearsal events and
	// agenda items never collide on local_id.
	CategoryRehearsalDates  Category = "rehearsal_dates"
	CategoryRehearsalEvents Category = "rehearsal_events"
	CategoryAgendaItems     Category = "agenda_items"
)

// CategoryOrder is the fixed processing order of a sync run. Progress
// events are emitted in exactly this order.
var CategoryOrder = []Category{
	CategoryAuditionSlots,
	CategoryAuditions,
	CategoryCallbacks,
	CategoryRehearsals,
	CategoryPerformances,
	CategoryPersonal,
}

var categoryRank = func() map[Category]int {
	m := make(map[Category]int, len(CategoryOrder))
	for i, c := range CategoryOrder {
		m[c] = i
	}
	return m
}()

// KnownCategory reports whether c is a category a SyncSetting may name.
func KnownCategory(c Category) bool {
	_, ok := categoryRank[c]
	return ok
}

// subPasses returns the fetch passes run for a settings-level category.
func subPasses(c Category) []Category {
	if c == CategoryRehearsals {
		return []Category{CategoryRehearsalDates, CategoryRehearsalEvents, CategoryAgendaItems}
	}
	return []Category{c}
}

var categoryLabels = map[Category]string{
	CategoryAuditionSlots: "audition slots",
	CategoryAuditions:     "audition signups",
	CategoryCallbacks:     "callbacks",
	CategoryRehearsals:    "rehearsals",
	CategoryPerformances:  "performances",
	CategoryPersonal:      "personal events",
}

// Label returns the human-readable name used in progress messages.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Google Calendar colorId per category, so mirrored events are visually
// grouped in the user's calendar.
var categoryColors = map[Category]string{
	CategoryAuditionSlots:   "9",  // blueberry
	CategoryAuditions:       "10", // basil
	CategoryCallbacks:       "6",  // tangerine
	CategoryRehearsalDates:  "5",  // banana
	CategoryRehearsalEvents: "7",  // peacock
	CategoryAgendaItems:     "8",  // graphite
	CategoryPerformances:    "11", // tomato
}

// ColorTag returns the calendar color for events in this category.
func (c Category) ColorTag() string {
	return categoryColors[c]
}
