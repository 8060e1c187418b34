package model

import "time"

// TimestampLayout is the ISO-8601 form used for every timestamp at the
// boundary. It carries millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp normalizes t to UTC at millisecond precision, the precision the
// boundary format can carry, so stored values survive a round trip unchanged.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
