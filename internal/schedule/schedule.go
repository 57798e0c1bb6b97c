// Package schedule answers when a role's facility access window closes.
// Route pass expiry is clamped to the current window; a request outside every
// window is rejected.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Service reports the end of the active access window for a role.
type Service interface {
	// ActiveWindowEnd returns the end of the window containing now. ok is
	// false when now falls outside every window for the role. A zero end
	// with ok true means the role is not schedule-constrained.
	ActiveWindowEnd(ctx context.Context, role string, now time.Time) (end time.Time, ok bool, err error)
}

// window is a daily time-of-day interval, minutes from midnight.
type window struct {
	startMinute int
	endMinute   int
}

// configService implements Service from a static per-role window table.
// Roles without an entry are unconstrained.
type configService struct {
	windows map[string]window
}

// NewConfigService parses a window specification of the form
// "tenant=06:00-23:00;maintenance=07:00-19:00". An empty spec constrains no
// role. Role names are matched case-insensitively.
func NewConfigService(spec string) (Service, error) {
	windows := make(map[string]window)

	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		role, rangeSpec, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("invalid schedule window entry: %q", entry)
		}

		startSpec, endSpec, found := strings.Cut(rangeSpec, "-")
		if !found {
			return nil, fmt.Errorf("invalid schedule window range: %q", rangeSpec)
		}

		start, err := parseMinute(startSpec)
		if err != nil {
			return nil, err
		}
		end, err := parseMinute(endSpec)
		if err != nil {
			return nil, err
		}
		if end <= start {
			return nil, fmt.Errorf("schedule window must end after it starts: %q", entry)
		}

		windows[strings.ToLower(strings.TrimSpace(role))] = window{
			startMinute: start,
			endMinute:   end,
		}
	}

	return &configService{windows: windows}, nil
}

// ActiveWindowEnd returns the end of the window containing now.
func (s *configService) ActiveWindowEnd(
	ctx context.Context,
	role string,
	now time.Time,
) (time.Time, bool, error) {
	w, constrained := s.windows[strings.ToLower(role)]
	if !constrained {
		return time.Time{}, true, nil
	}

	minute := now.Hour()*60 + now.Minute()
	if minute < w.startMinute || minute >= w.endMinute {
		return time.Time{}, false, nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.Add(time.Duration(w.endMinute) * time.Minute), true, nil
}

// parseMinute converts "HH:MM" to minutes from midnight.
func parseMinute(spec string) (int, error) {
	spec = strings.TrimSpace(spec)

	var hour, minute int
	if _, err := fmt.Sscanf(spec, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid schedule time %q: %w", spec, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid schedule time %q", spec)
	}

	return hour*60 + minute, nil
}
