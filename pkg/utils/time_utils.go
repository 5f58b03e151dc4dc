package utils

import "time"

const SecondsPerDay = 24 * 60 * 60

func NowUnixSeconds() int64 { return time.Now().Unix() }

// DaysUntil returns the whole number of days between now and the target unix
// timestamp, rounding up so that any remaining fraction of a day still counts
// as a day. Negative when the target is in the past.
func DaysUntil(target, now int64) int {
	delta := target - now
	if delta <= 0 {
		return int(delta / SecondsPerDay)
	}
	return int((delta + SecondsPerDay - 1) / SecondsPerDay)
}

// AddDays shifts a unix-second timestamp by n calendar-agnostic 24h days.
func AddDays(ts int64, n int) int64 {
	return ts + int64(n)*SecondsPerDay
}

func FromUnixSeconds(t int64) time.Time {
	if t <= 0 {
		return time.Time{}
	}
	return time.Unix(t, 0)
}

func FormatRFC3339(t int64) string {
	if t <= 0 {
		return ""
	}
	return time.Unix(t, 0).UTC().Format(time.RFC3339)
}
