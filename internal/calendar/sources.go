package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"conciliador/internal/core"
)

const (
	DefaultNagerURL = "https://date.nager.at/api/v3/PublicHolidays"
	DefaultCountry  = "AR"
	DefaultTimeout  = 5 * time.Second
)

// Source fetches the public holidays of a year as ISO dates.
type Source interface {
	Fetch(ctx context.Context, year int) ([]string, error)
}

// LocalStore persists the last successful remote fetch per year.
type LocalStore interface {
	LoadHolidays(ctx context.Context, year int) ([]string, error)
	SaveHolidays(ctx context.Context, year int, dates []string) error
}

// NagerSource reads the Nager.Date public holiday API.
type NagerSource struct {
	BaseURL string
	Country string
	Client  *http.Client
}

// NewNagerSource returns a source bounded by timeout.
func NewNagerSource(baseURL, country string, timeout time.Duration) *NagerSource {
	if baseURL == "" {
		baseURL = DefaultNagerURL
	}
	if country == "" {
		country = DefaultCountry
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &NagerSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Country: country,
		Client:  &http.Client{Timeout: timeout},
	}
}

type nagerHoliday struct {
	Date string `json:"date"`
}

func (s *NagerSource) Fetch(ctx context.Context, year int) ([]string, error) {
	url := fmt.Sprintf("%s/%d/%s", s.BaseURL, year, s.Country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrExternalSourceUnavailable, err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrExternalSourceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", core.ErrExternalSourceUnavailable, resp.StatusCode)
	}

	var payload []nagerHoliday
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", core.ErrExternalSourceUnavailable, err)
	}
	dates := make([]string, 0, len(payload))
	for _, h := range payload {
		if _, err := time.Parse(time.DateOnly, h.Date); err != nil {
			return nil, fmt.Errorf("%w: malformed date %q", core.ErrExternalSourceUnavailable, h.Date)
		}
		dates = append(dates, h.Date)
	}
	return dates, nil
}

// Fallback is the static holiday table always merged into every lookup.
var Fallback = map[int][]string{
	2024: {
		"2024-01-01", "2024-02-12", "2024-02-13", "2024-03-24", "2024-03-29",
		"2024-04-02", "2024-05-01", "2024-05-25", "2024-06-17", "2024-06-20",
		"2024-07-09", "2024-08-17", "2024-10-12", "2024-11-18", "2024-12-08",
		"2024-12-25",
	},
	2025: {
		"2025-01-01", "2025-03-03", "2025-03-04", "2025-03-24", "2025-04-02",
		"2025-04-18", "2025-05-01", "2025-05-25", "2025-06-16", "2025-06-20",
		"2025-07-09", "2025-08-18", "2025-10-13", "2025-11-24", "2025-12-08",
		"2025-12-25",
	},
	2026: {
		"2026-01-01", "2026-02-16", "2026-02-17", "2026-03-24", "2026-04-02",
		"2026-04-03", "2026-05-01", "2026-05-25", "2026-06-15", "2026-06-20",
		"2026-07-09", "2026-08-17", "2026-10-12", "2026-11-23", "2026-12-08",
		"2026-12-25",
	},
}
