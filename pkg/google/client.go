package google

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/adranna/tasknotes/pkg/index"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Scopes are the OAuth scopes the mirror needs.
var Scopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
}

// NewClient resolves calendarName and returns a client for it. httpClient
// must already carry OAuth credentials (see auth.GetClient).
func NewClient(ctx context.Context, httpClient *http.Client, calendarName string, idx *index.EventIndex, loc *time.Location, log logrus.FieldLogger, opts ...option.ClientOption) (*CalendarClient, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}

	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	var calendarID string
	for _, item := range calendarList.Items {
		if item.Summary == calendarName {
			calendarID = item.Id
			break
		}
	}
	if calendarID == "" {
		return nil, fmt.Errorf("calendar '%s' not found", calendarName)
	}

	return NewCalendarClient(srv, calendarID, idx, loc, log), nil
}
