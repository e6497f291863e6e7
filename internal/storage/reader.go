package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/performartech/hinis-website/internal/domain"
)

// MaxRecentLimit caps how many events Recent returns.
const MaxRecentLimit = 500

type eventRow struct {
	ID         string    `db:"id"`
	SessionID  string    `db:"session_id"`
	Name       string    `db:"name"`
	Params     []byte    `db:"params"`
	OccurredAt time.Time `db:"occurred_at"`
}

// Reader queries archived events.
type Reader struct {
	db *sqlx.DB
}

// NewReader creates a Reader.
func NewReader(db *sqlx.DB) *Reader {
	return &Reader{db: db}
}

// Recent returns the newest events, optionally filtered by name.
func (r *Reader) Recent(ctx context.Context, name string, limit int) ([]domain.AnalyticsEvent, error) {
	if limit <= 0 || limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	var rows []eventRow
	var err error
	if name == "" {
		err = r.db.SelectContext(ctx, &rows,
			`SELECT id, session_id, name, params, occurred_at FROM analytics_events
			 ORDER BY occurred_at DESC LIMIT $1`, limit)
	} else {
		err = r.db.SelectContext(ctx, &rows,
			`SELECT id, session_id, name, params, occurred_at FROM analytics_events
			 WHERE name = $1 ORDER BY occurred_at DESC LIMIT $2`, name, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("select analytics events: %w", err)
	}

	events := make([]domain.AnalyticsEvent, 0, len(rows))
	for _, row := range rows {
		e := domain.AnalyticsEvent{
			ID:         row.ID,
			SessionID:  row.SessionID,
			Name:       row.Name,
			OccurredAt: row.OccurredAt,
		}
		if len(row.Params) > 0 {
			if err = json.Unmarshal(row.Params, &e.Params); err != nil {
				return nil, fmt.Errorf("decode params of %s: %w", row.ID, err)
			}
		}
		events = append(events, e)
	}
	return events, nil
}

// Ping checks the database connection.
func (r *Reader) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
