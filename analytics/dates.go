package analytics

import "time"

// parseDate accepts the two date shapes found in store records: plain
// dates and full RFC 3339 timestamps. A zero time means the field is
// absent or malformed and must not contribute to any metric.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts
	}
	return time.Time{}
}

// monthKey buckets a date for monthly revenue series, e.g. "Jan 26".
func monthKey(ts time.Time) string {
	return ts.Format("Jan 06")
}

// parseMonthKey inverts monthKey for ordering; 0 when unparseable.
func parseMonthKey(key string) int64 {
	ts, err := time.Parse("Jan 06", key)
	if err != nil {
		return 0
	}
	return ts.Unix()
}
