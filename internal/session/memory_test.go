package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTracker(t *testing.T) {
	ctx := context.Background()

	t.Run("初始状态未勾选", func(t *testing.T) {
		tracker := NewMemoryTracker(time.Hour)
		done, err := tracker.IsDone(ctx, "s1", KindReminder, "r1")
		require.NoError(t, err)
		assert.False(t, done)
	})

	t.Run("勾选后可查询到", func(t *testing.T) {
		tracker := NewMemoryTracker(time.Hour)
		require.NoError(t, tracker.MarkDone(ctx, "s1", KindReminder, "r1"))

		done, err := tracker.IsDone(ctx, "s1", KindReminder, "r1")
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("勾选按会话隔离", func(t *testing.T) {
		tracker := NewMemoryTracker(time.Hour)
		require.NoError(t, tracker.MarkDone(ctx, "s1", KindReminder, "r1"))

		done, err := tracker.IsDone(ctx, "s2", KindReminder, "r1")
		require.NoError(t, err)
		assert.False(t, done)
	})

	t.Run("勾选按类型隔离", func(t *testing.T) {
		tracker := NewMemoryTracker(time.Hour)
		require.NoError(t, tracker.MarkDone(ctx, "s1", KindReminder, "x1"))

		done, err := tracker.IsDone(ctx, "s1", KindMeeting, "x1")
		require.NoError(t, err)
		assert.False(t, done)
	})

	t.Run("清除勾选后回到未完成", func(t *testing.T) {
		tracker := NewMemoryTracker(time.Hour)
		require.NoError(t, tracker.MarkDone(ctx, "s1", KindMeeting, "m1"))
		require.NoError(t, tracker.ClearDone(ctx, "s1", KindMeeting, "m1"))

		done, err := tracker.IsDone(ctx, "s1", KindMeeting, "m1")
		require.NoError(t, err)
		assert.False(t, done)
	})

	t.Run("会话过期后勾选消失", func(t *testing.T) {
		tracker := NewMemoryTracker(10 * time.Millisecond)
		require.NoError(t, tracker.MarkDone(ctx, "s1", KindReminder, "r1"))

		time.Sleep(30 * time.Millisecond)

		done, err := tracker.IsDone(ctx, "s1", KindReminder, "r1")
		require.NoError(t, err)
		assert.False(t, done)
	})
}
