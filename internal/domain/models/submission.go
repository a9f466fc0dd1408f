// internal/domain/models/submission.go
package models

import "time"

// TimestampLayout is the UTC, millisecond-precision layout of
// Submission.Timestamp, e.g. "2024-05-01T09:30:00.123Z".
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Submission is one stored contact-form message. ID is assigned by the
// store on append and is strictly increasing, starting at 1.
type Submission struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Columns is the export column order.
var Columns = []string{"id", "name", "email", "phone", "message", "timestamp"}
