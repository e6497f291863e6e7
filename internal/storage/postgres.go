// Package storage archives analytics events in PostgreSQL.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	infralogger "github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/domain"
)

const (
	// columnsPerRow is the number of columns inserted per event row.
	columnsPerRow = 5

	// insertBatchSize is the maximum number of rows per INSERT statement.
	insertBatchSize = 50

	flushTimeout = 5 * time.Second
)

// ErrBufferFull is returned by Emit when the buffer cannot take more events.
var ErrBufferFull = errors.New("event buffer full")

// Buffer is a channel-based event buffer for non-blocking ingestion.
type Buffer struct {
	events chan domain.AnalyticsEvent
	closed chan struct{}
	once   sync.Once
}

// NewBuffer creates a buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		events: make(chan domain.AnalyticsEvent, capacity),
		closed: make(chan struct{}),
	}
}

// Send performs a non-blocking send. It returns false if the buffer is full.
func (b *Buffer) Send(event domain.AnalyticsEvent) bool {
	select {
	case b.events <- event:
		return true
	default:
		return false
	}
}

// Name identifies the buffer as an analytics sink.
func (b *Buffer) Name() string { return "archive" }

// Emit queues the event for archiving.
func (b *Buffer) Emit(_ context.Context, event domain.AnalyticsEvent) error {
	if !b.Send(event) {
		return ErrBufferFull
	}
	return nil
}

// Len returns the number of queued events.
func (b *Buffer) Len() int {
	return len(b.events)
}

// Close signals the buffer to stop. It is safe to call multiple times.
func (b *Buffer) Close() {
	b.once.Do(func() {
		close(b.closed)
	})
}

// Store batches buffered events into PostgreSQL.
type Store struct {
	db             *sqlx.DB
	buffer         *Buffer
	log            infralogger.Logger
	flushInterval  time.Duration
	flushThreshold int
	wg             sync.WaitGroup
}

// NewStore creates a Store draining buffer.
func NewStore(
	db *sqlx.DB,
	buffer *Buffer,
	log infralogger.Logger,
	flushInterval time.Duration,
	flushThreshold int,
) *Store {
	return &Store{
		db:             db,
		buffer:         buffer,
		log:            log,
		flushInterval:  flushInterval,
		flushThreshold: flushThreshold,
	}
}

// Start launches the flush goroutine.
func (s *Store) Start() {
	s.wg.Add(1)
	go s.flushLoop()
}

// Stop closes the buffer and waits for the final flush.
func (s *Store) Stop() {
	s.buffer.Close()
	s.wg.Wait()
}

// flushLoop flushes when the batch reaches flushThreshold or on every tick.
func (s *Store) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]domain.AnalyticsEvent, 0, s.flushThreshold)

	for {
		select {
		case event := <-s.buffer.events:
			batch = append(batch, event)
			if len(batch) >= s.flushThreshold {
				s.flush(batch)
				batch = make([]domain.AnalyticsEvent, 0, s.flushThreshold)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = make([]domain.AnalyticsEvent, 0, s.flushThreshold)
			}

		case <-s.buffer.closed:
			s.drain(&batch)
			if len(batch) > 0 {
				s.flush(batch)
			}
			return
		}
	}
}

func (s *Store) drain(batch *[]domain.AnalyticsEvent) {
	for {
		select {
		case event := <-s.buffer.events:
			*batch = append(*batch, event)
		default:
			return
		}
	}
}

// flush writes a batch in chunks of insertBatchSize. Failed chunks are
// logged and dropped.
func (s *Store) flush(batch []domain.AnalyticsEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	for start := 0; start < len(batch); start += insertBatchSize {
		end := min(start+insertBatchSize, len(batch))

		if err := s.batchInsert(ctx, batch[start:end]); err != nil {
			s.log.Error("Failed to insert analytics events",
				infralogger.Error(err),
				infralogger.Int("batch_size", end-start),
			)
		}
	}

	s.log.Debug("Flushed analytics events", infralogger.Int("total", len(batch)))
}

func (s *Store) batchInsert(ctx context.Context, events []domain.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	args := make([]any, 0, len(events)*columnsPerRow)
	var sb strings.Builder
	sb.WriteString("INSERT INTO analytics_events (id, session_id, name, params, occurred_at) VALUES ")

	for i := range events {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeValueTuple(&sb, i)

		params, err := json.Marshal(events[i].Params)
		if err != nil {
			return fmt.Errorf("encode params of %s: %w", events[i].ID, err)
		}
		args = append(args,
			events[i].ID, events[i].SessionID, events[i].Name, params, events[i].OccurredAt,
		)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("exec batch insert: %w", err)
	}
	return nil
}

// writeValueTuple writes one ($1, ..., $5) tuple offset by the row index.
func writeValueTuple(sb *strings.Builder, rowIndex int) {
	base := rowIndex * columnsPerRow
	fmt.Fprintf(sb, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
}
