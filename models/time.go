package models

import "time"

// TimestampFormat is ISO 8601 with millisecond precision, e.g. 2024-01-01T00:00:00.000Z.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
