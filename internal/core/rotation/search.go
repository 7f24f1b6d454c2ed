package rotation

import (
	"time"

	"github.com/example/rota/internal/core/week"
)

// DefaultMaxScanWeeks bounds the forward search for return and compensation weeks.
const DefaultMaxScanWeeks = 156

// WeekProbe reports the baseline assignee of a candidate week and whether a
// conflicting planned override already occupies it.
type WeekProbe func(w time.Time) (baseline string, occupied bool, err error)

// FindReturnWeek scans forward from start, one week at a time, for the first
// week whose baseline is member and which no other planned override occupies.
// The scan stops after maxWeeks candidates with ErrExhausted.
func FindReturnWeek(start time.Time, member string, maxWeeks int, probe WeekProbe) (time.Time, error) {
	if maxWeeks <= 0 {
		maxWeeks = DefaultMaxScanWeeks
	}

	candidate := start
	for i := 0; i < maxWeeks; i++ {
		baseline, occupied, err := probe(candidate)
		if err != nil {
			return time.Time{}, err
		}
		if baseline == member && !occupied {
			return candidate, nil
		}
		candidate = week.Add(candidate, 1)
	}

	return time.Time{}, Errorf(ErrExhausted,
		"could not find an eligible week for %s within %d weeks after %s",
		member, maxWeeks, week.Format(start))
}
