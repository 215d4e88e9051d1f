package statestore

import "time"

// timeLayout is the format timestamps are written in; it is one of the
// layouts the sqlite3 driver recognises for DATETIME columns. The driver
// returns such columns as time.Time, which database/sql renders as RFC 3339
// when scanned into a string, so parseTime accepts both forms.
const timeLayout = "2006-01-02 15:04:05.999999999-07:00"

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
