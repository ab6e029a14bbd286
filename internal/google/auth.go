package google

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	sheets "google.golang.org/api/sheets/v4"
)

// NewHTTPClient builds an authenticated HTTP client from a user OAuth
// refresh token. The studio authorizes once (out of band) and the backend
// reuses the refresh token; there is no service account involved.
func NewHTTPClient(ctx context.Context, clientID, clientSecret, refreshToken string) *http.Client {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     googleauth.Endpoint,
		Scopes: []string{
			calendar.CalendarEventsScope,
			sheets.SpreadsheetsScope,
		},
	}
	return conf.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})
}
