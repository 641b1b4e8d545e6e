// internal/gcal/refresher.go
package gcal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// Refresher exchanges stored refresh tokens for fresh access tokens via
// Google's OAuth endpoint.
type Refresher struct {
	conf *oauth2.Config
}

func NewRefresher(clientID, clientSecret string) *Refresher {
	return &Refresher{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendar.CalendarScope},
		},
	}
}

func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	src := r.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("exchanging refresh token: %w", err)
	}
	return tok.AccessToken, tok.Expiry, nil
}
