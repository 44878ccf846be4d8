// Package celebration computes the decorative parts of the page: the
// countdown to the birthday and the particle layouts for confetti and the
// paper blast. The page animates them; nothing here is persisted.
package celebration

import "time"

// TimeLeft is the countdown broken into display units.
type TimeLeft struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
	IsPast  bool  `json:"isPast"`
}

// Countdown returns the time remaining until target. Once target is reached
// every unit is zero and IsPast is set.
func Countdown(now, target time.Time) TimeLeft {
	diff := target.Sub(now)
	if diff <= 0 {
		return TimeLeft{IsPast: true}
	}

	day := 24 * time.Hour
	return TimeLeft{
		Days:    int64(diff / day),
		Hours:   int64((diff % day) / time.Hour),
		Minutes: int64((diff % time.Hour) / time.Minute),
		Seconds: int64((diff % time.Minute) / time.Second),
	}
}
