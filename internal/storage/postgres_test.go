package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	infralogger "github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/domain"
	"github.com/performartech/hinis-website/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent(t *testing.T, id string) domain.AnalyticsEvent {
	t.Helper()

	return domain.AnalyticsEvent{
		ID:         id,
		SessionID:  "sess1",
		Name:       "form_submission",
		Params:     map[string]string{"form_type": "contato_com_programa"},
		OccurredAt: time.Now(),
	}
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestBuffer_Send(t *testing.T) {
	t.Parallel()

	buf := storage.NewBuffer(10)
	defer buf.Close()

	if !buf.Send(newTestEvent(t, "e1")) {
		t.Fatal("expected Send to succeed on non-full buffer")
	}
	assert.Equal(t, 1, buf.Len())
}

func TestBuffer_EmitFull(t *testing.T) {
	t.Parallel()

	buf := storage.NewBuffer(1)
	defer buf.Close()

	require.NoError(t, buf.Emit(context.Background(), newTestEvent(t, "e1")))
	require.ErrorIs(t, buf.Emit(context.Background(), newTestEvent(t, "e2")), storage.ErrBufferFull)
}

func TestStore_FlushesOnStop(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO analytics_events \(id, session_id, name, params, occurred_at\) VALUES \(\$1, \$2, \$3, \$4, \$5\), \(\$6, \$7, \$8, \$9, \$10\)`).
		WithArgs(
			"e1", "sess1", "form_submission", sqlmock.AnyArg(), sqlmock.AnyArg(),
			"e2", "sess1", "form_submission", sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	buf := storage.NewBuffer(10)
	store := storage.NewStore(db, buf, infralogger.NewNop(), time.Hour, 100)
	store.Start()

	require.True(t, buf.Send(newTestEvent(t, "e1")))
	require.True(t, buf.Send(newTestEvent(t, "e2")))
	store.Stop()

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FlushesAtThreshold(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO analytics_events`).
		WithArgs("e1", "sess1", "form_submission", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	buf := storage.NewBuffer(10)
	store := storage.NewStore(db, buf, infralogger.NewNop(), time.Hour, 1)
	store.Start()
	defer store.Stop()

	require.True(t, buf.Send(newTestEvent(t, "e1")))

	require.Eventually(t, func() bool {
		return mock.ExpectationsWereMet() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestReader_Recent(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	occurred := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "session_id", "name", "params", "occurred_at"}).
		AddRow("e1", "sess1", "utm_campaign_start", []byte(`{"campaign_type":"new_session"}`), occurred)

	mock.ExpectQuery(`SELECT id, session_id, name, params, occurred_at FROM analytics_events\s+WHERE name = \$1`).
		WithArgs("utm_campaign_start", 20).
		WillReturnRows(rows)

	events, err := storage.NewReader(db).Recent(context.Background(), "utm_campaign_start", 20)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new_session", events[0].Params["campaign_type"])
	assert.Equal(t, occurred, events[0].OccurredAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReader_RecentClampsLimit(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT id, session_id, name, params, occurred_at FROM analytics_events\s+ORDER BY`).
		WithArgs(storage.MaxRecentLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "name", "params", "occurred_at"}))

	events, err := storage.NewReader(db).Recent(context.Background(), "", 10_000)
	require.NoError(t, err)
	assert.Empty(t, events)
	require.NoError(t, mock.ExpectationsWereMet())
}
