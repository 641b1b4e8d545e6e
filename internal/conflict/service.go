// internal/conflict/service.go
package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service assembles committed intervals from the domain tables and runs
// the detector over them. Commitments are always derived at check-time,
// never stored.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type commitmentRow struct {
	ID        uuid.UUID
	Title     string
	ShowTitle string
	StartTime time.Time
	EndTime   time.Time
}

// UserCommitments fetches every timed commitment of a user across all
// categories. Cross-category conflicts (an audition slot against a
// rehearsal) are intentional.
func (s *Service) UserCommitments(ctx context.Context, userID uuid.UUID) ([]Commitment, error) {
	var out []Commitment

	var signups []commitmentRow
	err := s.db.WithContext(ctx).
		Table("audition_signups").
		Select("audition_slots.id AS id, auditions.show_title AS show_title, audition_slots.start_time, audition_slots.end_time").
		Joins("JOIN audition_slots ON audition_slots.id = audition_signups.slot_id").
		Joins("JOIN auditions ON auditions.id = audition_slots.audition_id").
		Where("audition_signups.actor_id = ?", userID).
		Scan(&signups).Error
	if err != nil {
		return nil, fmt.Errorf("fetching signup commitments: %w", err)
	}
	for _, r := range signups {
		out = append(out, Commitment{
			Category: "auditions",
			LocalID:  r.ID.String(),
			Title:    "Audition: " + r.ShowTitle,
			Start:    r.StartTime,
			End:      r.EndTime,
		})
	}

	var callbacks []commitmentRow
	err = s.db.WithContext(ctx).
		Table("callback_invitations").
		Select("callback_invitations.id AS id, auditions.show_title AS show_title, callback_invitations.start_time, callback_invitations.end_time").
		Joins("JOIN auditions ON auditions.id = callback_invitations.audition_id").
		Where("callback_invitations.actor_id = ?", userID).
		Scan(&callbacks).Error
	if err != nil {
		return nil, fmt.Errorf("fetching callback commitments: %w", err)
	}
	for _, r := range callbacks {
		out = append(out, Commitment{
			Category: "callbacks",
			LocalID:  r.ID.String(),
			Title:    "Callback: " + r.ShowTitle,
			Start:    r.StartTime,
			End:      r.EndTime,
		})
	}

	var rehearsals []commitmentRow
	err = s.db.WithContext(ctx).
		Table("rehearsal_events").
		Select("rehearsal_events.id AS id, rehearsal_events.title AS title, auditions.show_title AS show_title, rehearsal_events.start_time, rehearsal_events.end_time").
		Joins("JOIN auditions ON auditions.id = rehearsal_events.audition_id").
		Joins("JOIN cast_members ON cast_members.audition_id = auditions.id").
		Where("cast_members.user_id = ? AND rehearsal_events.deleted_at IS NULL", userID).
		Scan(&rehearsals).Error
	if err != nil {
		return nil, fmt.Errorf("fetching rehearsal commitments: %w", err)
	}
	for _, r := range rehearsals {
		out = append(out, Commitment{
			Category: "rehearsal_events",
			LocalID:  r.ID.String(),
			Title:    fmt.Sprintf("Rehearsal: %s (%s)", r.Title, r.ShowTitle),
			Start:    r.StartTime,
			End:      r.EndTime,
		})
	}

	var agenda []commitmentRow
	err = s.db.WithContext(ctx).
		Table("agenda_items").
		Select("agenda_items.id AS id, agenda_items.title AS title, auditions.show_title AS show_title, agenda_items.start_time, agenda_items.end_time").
		Joins("JOIN rehearsal_events ON rehearsal_events.id = agenda_items.rehearsal_event_id").
		Joins("JOIN auditions ON auditions.id = rehearsal_events.audition_id").
		Joins("JOIN cast_members ON cast_members.audition_id = auditions.id").
		Where("cast_members.user_id = ? AND rehearsal_events.deleted_at IS NULL", userID).
		Scan(&agenda).Error
	if err != nil {
		return nil, fmt.Errorf("fetching agenda commitments: %w", err)
	}
	for _, r := range agenda {
		out = append(out, Commitment{
			Category: "agenda_items",
			LocalID:  r.ID.String(),
			Title:    fmt.Sprintf("%s (%s)", r.Title, r.ShowTitle),
			Start:    r.StartTime,
			End:      r.EndTime,
		})
	}

	return out, nil
}

// CheckCandidate tests one candidate interval against everything the user
// is already committed to. The scheduling UI blocks the signup on the
// first hit.
func (s *Service) CheckCandidate(ctx context.Context, userID uuid.UUID, start, end time.Time) (*Commitment, error) {
	existing, err := s.UserCommitments(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FirstConflict(start, end, existing), nil
}

type castRow struct {
	UserID   uuid.UUID
	Username string
}

// EventConflictReport runs the batch detector for one rehearsal event's
// day view: every agenda item of the event against every cast member's
// commitments outside this event.
func (s *Service) EventConflictReport(ctx context.Context, rehearsalEventID uuid.UUID) (map[uuid.UUID][]UserConflicts, error) {
	var auditionID uuid.UUID
	err := s.db.WithContext(ctx).
		Table("rehearsal_events").
		Select("audition_id").
		Where("id = ?", rehearsalEventID).
		Scan(&auditionID).Error
	if err != nil {
		return nil, fmt.Errorf("fetching rehearsal event: %w", err)
	}
	if auditionID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var items []struct {
		ID        uuid.UUID
		Title     string
		StartTime time.Time
		EndTime   time.Time
	}
	err = s.db.WithContext(ctx).
		Table("agenda_items").
		Select("id, title, start_time, end_time").
		Where("rehearsal_event_id = ?", rehearsalEventID).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("fetching agenda items: %w", err)
	}

	windows := make([]Window, 0, len(items))
	for _, it := range items {
		windows = append(windows, Window{ID: it.ID, Title: it.Title, Start: it.StartTime, End: it.EndTime})
	}

	var cast []castRow
	err = s.db.WithContext(ctx).
		Table("cast_members").
		Select("cast_members.user_id AS user_id, users.username AS username").
		Joins("LEFT JOIN users ON users.id::uuid = cast_members.user_id").
		Where("cast_members.audition_id = ?", auditionID).
		Scan(&cast).Error
	if err != nil {
		return nil, fmt.Errorf("fetching cast members: %w", err)
	}

	ownItem := make(map[string]bool, len(items))
	for _, it := range items {
		ownItem[it.ID.String()] = true
	}

	commitments := make(map[uuid.UUID][]Commitment, len(cast))
	names := make(map[uuid.UUID]string, len(cast))
	for _, member := range cast {
		existing, err := s.UserCommitments(ctx, member.UserID)
		if err != nil {
			return nil, err
		}
		// The event's own agenda (and the event itself) is not a conflict
		// with itself.
		filtered := existing[:0]
		for _, c := range existing {
			if ownItem[c.LocalID] || c.LocalID == rehearsalEventID.String() {
				continue
			}
			filtered = append(filtered, c)
		}
		commitments[member.UserID] = filtered
		names[member.UserID] = member.Username
	}

	grouped := GroupConflicts(windows, commitments)
	for id, users := range grouped {
		for i := range users {
			users[i].Username = names[users[i].UserID]
		}
		grouped[id] = users
	}
	return grouped, nil
}
