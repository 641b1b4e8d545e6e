// internal/store/items.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"stagesync-service/internal/calsync"
)

// Items implements calsync.ItemSource. Each category carries its own
// ownership rule: slots belong to the audition owner, signups to the
// actor, rehearsals and performances to cast members.
func (s *Store) Items(ctx context.Context, userID uuid.UUID, cat calsync.Category) ([]calsync.Item, error) {
	switch cat {
	case calsync.CategoryAuditionSlots:
		return s.auditionSlotItems(ctx, userID)
	case calsync.CategoryAuditions:
		return s.signupItems(ctx, userID)
	case calsync.CategoryCallbacks:
		return s.callbackItems(ctx, userID)
	case calsync.CategoryRehearsalDates:
		return s.dateItems(ctx, userID, calsync.CategoryRehearsalDates)
	case calsync.CategoryRehearsalEvents:
		return s.rehearsalEventItems(ctx, userID)
	case calsync.CategoryAgendaItems:
		return s.agendaItems(ctx, userID)
	case calsync.CategoryPerformances:
		return s.dateItems(ctx, userID, calsync.CategoryPerformances)
	default:
		return nil, fmt.Errorf("no item source for category %q", cat)
	}
}

type timedItemRow struct {
	ID        uuid.UUID
	Title     string
	ShowTitle string
	Theater   string
	Location  string
	StartTime time.Time
	EndTime   time.Time
}

func (r timedItemRow) place() string {
	if r.Location != "" {
		return r.Location
	}
	return r.Theater
}

// auditionSlotItems: every slot under an audition the user owns.
func (s *Store) auditionSlotItems(ctx context.Context, userID uuid.UUID) ([]calsync.Item, error) {
	var rows []timedItemRow
	err := s.db.WithContext(ctx).
		Table("audition_slots").
		Select("audition_slots.id AS id, auditions.show_title AS show_title, auditions.theater AS theater, audition_slots.location AS location, audition_slots.start_time, audition_slots.end_time").
		Joins("JOIN auditions ON auditions.id = audition_slots.audition_id").
		Where("auditions.owner_id = ? AND auditions.deleted_at IS NULL", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]calsync.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, calsync.Item{
			Category:    calsync.CategoryAuditionSlots,
			LocalID:     r.ID.String(),
			Title:       "Audition Slot: " + r.ShowTitle,
			Description: fmt.Sprintf("Audition slot for %s", r.ShowTitle),
			Location:    r.place(),
			Start:       r.StartTime,
			End:         r.EndTime,
			ColorTag:    calsync.CategoryAuditionSlots.ColorTag(),
		})
	}
	return items, nil
}

// signupItems: the slots the user signed up for as an actor.
func (s *Store) signupItems(ctx context.Context, userID uuid.UUID) ([]calsync.Item, error) {
	var rows []timedItemRow
	err := s.db.WithContext(ctx).
		Table("audition_signups").
		Select("audition_signups.id AS id, auditions.show_title AS show_title, auditions.theater AS theater, audition_slots.location AS location, audition_slots.start_time, audition_slots.end_time").
		Joins("JOIN audition_slots ON audition_slots.id = audition_signups.slot_id").
		Joins("JOIN auditions ON auditions.id = audition_slots.audition_id").
		Where("audition_signups.actor_id = ? AND auditions.deleted_at IS NULL", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]calsync.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, calsync.Item{
			Category:    calsync.CategoryAuditions,
			LocalID:     r.ID.String(),
			Title:       "Audition: " + r.ShowTitle,
			Description: fmt.Sprintf("Your audition for %s", r.ShowTitle),
			Location:    r.place(),
			Start:       r.StartTime,
			End:         r.EndTime,
			ColorTag:    calsync.CategoryAuditions.ColorTag(),
		})
	}
	return items, nil
}

// callbackItems: callbacks where the user is the invited actor.
func (s *Store) callbackItems(ctx context.Context, userID uuid.UUID) ([]calsync.Item, error) {
	var rows []timedItemRow
	err := s.db.WithContext(ctx).
		Table("callback_invitations").
		Select("callback_invitations.id AS id, auditions.show_title AS show_title, auditions.theater AS theater, callback_invitations.location AS location, callback_invitations.start_time, callback_invitations.end_time").
		Joins("JOIN auditions ON auditions.id = callback_invitations.audition_id").
		Where("callback_invitations.actor_id = ? AND auditions.deleted_at IS NULL", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]calsync.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, calsync.Item{
			Category:    calsync.CategoryCallbacks,
			LocalID:     r.ID.String(),
			Title:       "Callback: " + r.ShowTitle,
			Description: fmt.Sprintf("Callback for %s", r.ShowTitle),
			Location:    r.place(),
			Start:       r.StartTime,
			End:         r.EndTime,
			ColorTag:    calsync.CategoryCallbacks.ColorTag(),
		})
	}
	return items, nil
}

// rehearsalEventItems: timed rehearsals of productions the user is cast in.
func (s *Store) rehearsalEventItems(ctx context.Context, userID uuid.UUID) ([]calsync.Item, error) {
	var rows []timedItemRow
	err := s.db.WithContext(ctx).
		Table("rehearsal_events").
		Select("rehearsal_events.id AS id, rehearsal_events.title AS title, auditions.show_title AS show_title, auditions.theater AS theater, rehearsal_events.location AS location, rehearsal_events.start_time, rehearsal_events.end_time").
		Joins("JOIN auditions ON auditions.id = rehearsal_events.audition_id").
		Joins("JOIN cast_members ON cast_members.audition_id = auditions.id").
		Where("cast_members.user_id = ? AND rehearsal_events.deleted_at IS NULL AND auditions.deleted_at IS NULL", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]calsync.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, calsync.Item{
			Category:    calsync.CategoryRehearsalEvents,
			LocalID:     r.ID.String(),
			Title:       fmt.Sprintf("Rehearsal: %s", r.Title),
			Description: fmt.Sprintf("%s rehearsal", r.ShowTitle),
			Location:    r.place(),
			Start:       r.StartTime,
			End:         r.EndTime,
			ColorTag:    calsync.CategoryRehearsalEvents.ColorTag(),
		})
	}
	return items, nil
}

// agendaItems: agenda blocks inside those rehearsals.
func (s *Store) agendaItems(ctx context.Context, userID uuid.UUID) ([]calsync.Item, error) {
	var rows []timedItemRow
	err := s.db.WithContext(ctx).
		Table("agenda_items").
		Select("agenda_items.id AS id, agenda_items.title AS title, auditions.show_title AS show_title, auditions.theater AS theater, rehearsal_events.location AS location, agenda_items.start_time, agenda_items.end_time").
		Joins("JOIN rehearsal_events ON rehearsal_events.id = agenda_items.rehearsal_event_id").
		Joins("JOIN auditions ON auditions.id = rehearsal_events.audition_id").
		Joins("JOIN cast_members ON cast_members.audition_id = auditions.id").
		Where("cast_members.user_id = ? AND rehearsal_events.deleted_at IS NULL AND auditions.deleted_at IS NULL", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]calsync.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, calsync.Item{
			Category:    calsync.CategoryAgendaItems,
			LocalID:     r.ID.String(),
			Title:       fmt.Sprintf("%s (%s)", r.Title, r.ShowTitle),
			Description: fmt.Sprintf("Rehearsal agenda for %s", r.ShowTitle),
			Location:    r.place(),
			Start:       r.StartTime,
			End:         r.EndTime,
			ColorTag:    calsync.CategoryAgendaItems.ColorTag(),
		})
	}
	return items, nil
}

type dateArrayRow struct {
	ID        uuid.UUID
	ShowTitle string
	Theater   string
	Dates     datatypes.JSON
}

// dateItems expands the jsonb date arrays on productions the user is cast
// in: rehearsal_dates or performance_dates, both emitted as all-day events
// with synthesized {auditionID}_{date} identities.
func (s *Store) dateItems(ctx context.Context, userID uuid.UUID, cat calsync.Category) ([]calsync.Item, error) {
	column := "rehearsal_dates"
	titlePrefix := "Rehearsal: "
	description := "Rehearsal day for %s"
	if cat == calsync.CategoryPerformances {
		column = "performance_dates"
		titlePrefix = "Performance: "
		description = "Performance of %s"
	}

	var rows []dateArrayRow
	err := s.db.WithContext(ctx).
		Table("auditions").
		Select(fmt.Sprintf("auditions.id AS id, auditions.show_title AS show_title, auditions.theater AS theater, auditions.%s AS dates", column)).
		Joins("JOIN cast_members ON cast_members.audition_id = auditions.id").
		Where("cast_members.user_id = ? AND auditions.deleted_at IS NULL", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var items []calsync.Item
	for _, r := range rows {
		items = append(items, calsync.ExpandDates(
			r.ID,
			r.Dates,
			cat,
			titlePrefix+r.ShowTitle,
			fmt.Sprintf(description, r.ShowTitle),
			r.Theater,
		)...)
	}
	return items, nil
}
