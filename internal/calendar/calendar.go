// Package calendar answers business-day questions against the Argentine
// public holiday calendar.
//
// Holidays are looked up per year: the remote source first, then the local
// store when the remote fails, always unioned with the static Fallback table.
// Results are cached per year, for the life of the Service unless a cache
// TTL is set. A lookup never fails; with
// no source available the year simply has no holidays besides the fallback.
package calendar

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"conciliador/internal/cache"
)

// HolidaySet holds ISO dates ("2025-03-24").
type HolidaySet map[string]struct{}

func (h HolidaySet) Contains(isoDate string) bool {
	_, ok := h[isoDate]
	return ok
}

type Service struct {
	remote   Source
	local    LocalStore
	fallback map[int][]string
	cache    cache.Cache[HolidaySet]
	cacheTTL time.Duration
	logger   *slog.Logger
}

type Option func(*Service)

// WithLocalStore enables the persistent holiday cache.
func WithLocalStore(s LocalStore) Option {
	return func(svc *Service) { svc.local = s }
}

// WithFallback replaces the static table, mainly for tests.
func WithFallback(f map[int][]string) Option {
	return func(svc *Service) { svc.fallback = f }
}

// WithCacheTTL bounds how long a year stays cached, so long-running
// processes pick up a remote source that recovered.
func WithCacheTTL(ttl time.Duration) Option {
	return func(svc *Service) { svc.cacheTTL = ttl }
}

func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// New returns a Service with its own empty cache. remote may be nil.
func New(remote Source, opts ...Option) *Service {
	s := &Service{
		remote:   remote,
		fallback: Fallback,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.cache = cache.NewLRUCache[HolidaySet](32, s.cacheTTL)
	return s
}

// WithFreshCache returns a copy of s sharing its sources but not its cache.
func (s *Service) WithFreshCache() *Service {
	cp := *s
	cp.cache = cache.NewLRUCache[HolidaySet](32, s.cacheTTL)
	return &cp
}

// Holidays returns the holiday set of year.
func (s *Service) Holidays(ctx context.Context, year int) HolidaySet {
	key := strconv.Itoa(year)
	if set, ok := s.cache.Get(key); ok {
		return set
	}

	set := HolidaySet{}
	remoteOK := false
	if s.remote != nil {
		dates, err := s.remote.Fetch(ctx, year)
		if err != nil {
			s.logger.WarnContext(ctx, "Holiday source failed", "year", year, "error", err)
		} else {
			remoteOK = true
			for _, d := range dates {
				set[d] = struct{}{}
			}
			s.logger.InfoContext(ctx, "Holidays loaded from remote source", "year", year, "count", len(dates))
		}
	}

	if s.local != nil {
		if remoteOK {
			if err := s.local.SaveHolidays(ctx, year, keys(set)); err != nil {
				s.logger.WarnContext(ctx, "Failed to persist holidays", "year", year, "error", err)
			}
		} else if dates, err := s.local.LoadHolidays(ctx, year); err != nil {
			s.logger.WarnContext(ctx, "Local holiday cache failed", "year", year, "error", err)
		} else {
			for _, d := range dates {
				set[d] = struct{}{}
			}
		}
	}

	for _, d := range s.fallback[year] {
		set[d] = struct{}{}
	}

	s.cache.Set(key, set)
	return set
}

// IsBusinessDay is false on weekends and listed holidays.
func (s *Service) IsBusinessDay(ctx context.Context, d time.Time) bool {
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !s.Holidays(ctx, d.Year()).Contains(d.Format(time.DateOnly))
}

// NextBusinessDay returns d itself when it is a business day, else the
// first business day after it.
func (s *Service) NextBusinessDay(ctx context.Context, d time.Time) time.Time {
	for !s.IsBusinessDay(ctx, d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// BusinessDayOrdinal counts business days from the 1st of the month up to
// the given date inclusive. A weekend or holiday date is first moved to the
// next business day, and the count is taken for that date, possibly in the
// following month or year. ok is false for impossible dates.
func (s *Service) BusinessDayOrdinal(ctx context.Context, day, monthIdx, year int) (n int, ok bool) {
	d := time.Date(year, time.Month(monthIdx+1), day, 0, 0, 0, 0, time.UTC)
	if monthIdx < 0 || monthIdx > 11 || d.Day() != day || int(d.Month()) != monthIdx+1 {
		return 0, false
	}

	d = s.NextBusinessDay(ctx, d)
	holidays := s.Holidays(ctx, d.Year())
	for i := 1; i <= d.Day(); i++ {
		cur := time.Date(d.Year(), d.Month(), i, 0, 0, 0, 0, time.UTC)
		if wd := cur.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if !holidays.Contains(cur.Format(time.DateOnly)) {
			n++
		}
	}
	return n, n > 0
}

func keys(set HolidaySet) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
