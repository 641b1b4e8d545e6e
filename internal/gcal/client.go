// internal/gcal/client.go
package gcal

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"stagesync-service/internal/calsync"
)

// Client is the real Google Calendar implementation of the engine's
// CalendarAPI. It is stateless; the per-user access token comes in on
// every call so the engine can reuse one client across users.
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

const dateLayout = "2006-01-02"

// CreateEvent mirrors one item into the named calendar and returns the
// Google event id.
func (c *Client) CreateEvent(ctx context.Context, accessToken, calendarID string, item calsync.Item) (string, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}),
	))
	if err != nil {
		return "", fmt.Errorf("building calendar client: %w", err)
	}

	event := &calendar.Event{
		Summary:     item.Title,
		Description: item.Description,
		Location:    item.Location,
		ColorId:     item.ColorTag,
	}
	if item.AllDay {
		// All-day events take dates, with an exclusive end date.
		event.Start = &calendar.EventDateTime{Date: item.Start.Format(dateLayout)}
		event.End = &calendar.EventDateTime{Date: item.End.Format(dateLayout)}
	} else {
		event.Start = &calendar.EventDateTime{DateTime: item.Start.Format(time.RFC3339)}
		event.End = &calendar.EventDateTime{DateTime: item.End.Format(time.RFC3339)}
	}

	created, err := svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("inserting calendar event: %w", err)
	}

	log.Printf("📅 [GCAL] Created event %s (%s) in calendar %s", created.Id, item.Title, calendarID)
	return created.Id, nil
}
