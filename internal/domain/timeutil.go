package domain

import "time"

// CeilTime rounds t up to the next multiple of interval.
func CeilTime(t time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		return t
	}

	truncated := t.Truncate(interval)
	if truncated.Equal(t) {
		return t
	}

	return truncated.Add(interval)
}

func MinTime(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}

	return a
}
