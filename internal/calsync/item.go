// internal/calsync/item.go
package calsync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Item is the common projection every category's fetch step reduces its
// rows to. Category-specific shapes never reach the dedup/create loop.
type Item struct {
	Category    Category
	LocalID     string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	ColorTag    string
}

const dateLayout = "2006-01-02"

// DateKey builds the synthesized identity of a date-derived item.
func DateKey(parentID uuid.UUID, date string) string {
	return fmt.Sprintf("%s_%s", parentID, date)
}

// ExpandDates turns a jsonb array of "YYYY-MM-DD" strings into all-day
// items with synthesized {parentID}_{date} identities. Blank or malformed
// entries are skipped without error.
func ExpandDates(parentID uuid.UUID, raw []byte, cat Category, title, description, location string) []Item {
	if len(raw) == 0 {
		return nil
	}

	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		return nil
	}

	var items []Item
	for _, d := range dates {
		if d == "" {
			continue
		}
		day, err := time.Parse(dateLayout, d)
		if err != nil {
			continue
		}
		items = append(items, Item{
			Category:    cat,
			LocalID:     DateKey(parentID, d),
			Title:       title,
			Description: description,
			Location:    location,
			Start:       day,
			End:         day.AddDate(0, 0, 1), // exclusive all-day end
			AllDay:      true,
			ColorTag:    cat.ColorTag(),
		})
	}
	return items
}
