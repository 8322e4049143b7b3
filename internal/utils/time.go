package utils

import "time"

// TimestampLayout keeps the millisecond precision notifications are stored
// with, so a created_at taken from a list page works as the next cursor.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Now is the current UTC time truncated to stored precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseCursor accepts RFC3339 with or without fractional seconds.
func ParseCursor(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
