package domain

import "time"

// AnalyticsEvent is one named event emitted on behalf of a session.
type AnalyticsEvent struct {
	ID         string            `db:"id"          json:"id"`
	SessionID  string            `db:"session_id"  json:"session_id"`
	Name       string            `db:"name"        json:"name"`
	Params     map[string]string `db:"-"           json:"params"`
	OccurredAt time.Time         `db:"occurred_at" json:"occurred_at"`
}
