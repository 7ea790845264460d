package timeutil

import (
	"time"
)

// TimeUTC is Unix time in seconds, UTC. On-chain expiries are stored
// in this unit.
type TimeUTC struct{ T int64 }

func NowUTC() TimeUTC {
	return TimeUTC{T: time.Now().UTC().Unix()}
}

func (t TimeUTC) AddSeconds(sec int64) TimeUTC {
	return TimeUTC{T: t.T + sec}
}
func (t TimeUTC) AddDays(days int) TimeUTC {
	return t.AddSeconds(int64(days) * 24 * 60 * 60)
}
func (t TimeUTC) Time() time.Time { return time.Unix(t.T, 0).UTC() }
func (t TimeUTC) String() string  { return t.Time().Format(time.RFC3339) }

// Reached reports whether now is at or past t.
func (t TimeUTC) Reached(now TimeUTC) bool { return now.T >= t.T }

type Clock interface {
	Now() TimeUTC
}

type systemClock struct{}

func (systemClock) Now() TimeUTC { return NowUTC() }

func System() Clock { return systemClock{} }

// Fixed is a Clock frozen at T; tests move it by assigning T.
type Fixed struct {
	At TimeUTC
}

func (f *Fixed) Now() TimeUTC { return f.At }
