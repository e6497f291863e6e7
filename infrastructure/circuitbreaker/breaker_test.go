package circuitbreaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/performartech/hinis-website/infrastructure/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	b := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 2,
		Timeout:          time.Minute,
		Now:              func() time.Time { return now },
	})

	require.ErrorIs(t, b.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, circuitbreaker.StateClosed, b.State())
	require.ErrorIs(t, b.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, circuitbreaker.StateOpen, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_HalfOpenProbeCloses(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	var transitions []string
	b := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 1,
		Timeout:          time.Minute,
		Now:              func() time.Time { return now },
		OnStateChange: func(_, to circuitbreaker.State) {
			transitions = append(transitions, to.String())
		},
	})

	_ = b.Execute(func() error { return errBoom })
	now = now.Add(time.Minute)

	require.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, circuitbreaker.StateClosed, b.State())
	assert.Equal(t, []string{"open", "half-open", "closed"}, transitions)
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	b := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 1,
		Timeout:          time.Second,
		Now:              func() time.Time { return now },
	})

	_ = b.Execute(func() error { return errBoom })
	now = now.Add(2 * time.Second)
	_ = b.Execute(func() error { return errBoom })

	assert.Equal(t, circuitbreaker.StateOpen, b.State())
	b.Reset()
	assert.Equal(t, circuitbreaker.StateClosed, b.State())
}
