package scheduler

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsBadExpression(t *testing.T) {
	cr := NewCron(time.UTC)
	_, err := cr.Add("bad", "not a schedule", 0, FuncJob(func(context.Context) error { return nil }))
	assert.Error(t, err)

	_, err = cr.Add("purge", Every(time.Hour), 0, FuncJob(func(context.Context) error { return nil }))
	require.NoError(t, err)
	assert.Len(t, cr.Entries(), 1)
}

func TestRunnerAppliesTimeout(t *testing.T) {
	cr := NewCron(time.UTC)
	var deadline bool
	cr.runner("slow", 10*time.Millisecond, FuncJob(func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	}))()
	assert.True(t, deadline)
}

func TestStopCancelsJobs(t *testing.T) {
	cr := NewCron(time.UTC)
	cr.Start()
	done := make(chan error, 1)
	go cr.runner("wait", 0, FuncJob(func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	}))()
	cr.Stop()

	select {
	case err := <-done:
		assert.True(t, stderrors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("job was not cancelled")
	}
}

func TestEvery(t *testing.T) {
	assert.Equal(t, "@every 1h0m0s", Every(time.Hour))
}
