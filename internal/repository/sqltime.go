package repository

import "time"

// timeFormat is the canonical DATETIME layout used for every write.
// Storing a single zone-less UTC format keeps string comparison in
// SQL consistent with chronological order on both MySQL and SQLite.
const timeFormat = "2006-01-02 15:04:05"

// fmtTime renders a timestamp for storage.
func fmtTime(t time.Time) string { return t.UTC().Format(timeFormat) }

// fmtTimePtr renders an optional timestamp, mapping nil to SQL NULL.
func fmtTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}
