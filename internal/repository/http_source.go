package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"TradeCal/internal/calendar/derived"
	drepo "TradeCal/internal/domain/repository"
	xhttp "TradeCal/pkg/http"
)

// HTTPCalendarSource loads calendar definitions from a remote endpoint
// serving a JSON array in the same shape as the YAML files.
type HTTPCalendarSource struct {
	client *xhttp.Client
	url    string
}

// NewHTTPCalendarSource creates a calendar source reading from url.
func NewHTTPCalendarSource(url string) drepo.CalendarSource {
	return &HTTPCalendarSource{
		client: xhttp.NewClient(xhttp.WithTimeout(15 * time.Second)),
		url:    url,
	}
}

func (s *HTTPCalendarSource) Load(ctx context.Context) ([]derived.Definition, error) {
	var files []calendarFile
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.url,
	}, &files)
	if err != nil {
		return nil, fmt.Errorf("fetch calendars: %w", err)
	}

	defs := make([]derived.Definition, 0, len(files))
	for i := range files {
		def, err := files[i].toDefinition()
		if err != nil {
			return nil, fmt.Errorf("calendar %d (%s): %w", i, files[i].Key, err)
		}
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Key < defs[j].Key })
	return defs, nil
}
