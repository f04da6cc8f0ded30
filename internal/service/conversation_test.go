package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConversations(t *testing.T, ttl time.Duration) *Conversations {
	t.Helper()
	c, err := NewConversations(ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConversationsDefaultIdle(t *testing.T) {
	c := newTestConversations(t, time.Minute)

	stage, err := c.Get("1")
	require.NoError(t, err)
	assert.Equal(t, StageIdle, stage)

	stage, err = c.Take("1")
	require.NoError(t, err)
	assert.Equal(t, StageIdle, stage)
}

func TestConversationsTakeConsumesOnce(t *testing.T) {
	c := newTestConversations(t, time.Minute)
	require.NoError(t, c.Set("1", StageAwaitingEvent))
	require.NoError(t, c.Set("2", StageAwaitingTime))

	stage, err := c.Get("1")
	require.NoError(t, err)
	assert.Equal(t, StageAwaitingEvent, stage, "get does not consume")

	stage, err = c.Take("1")
	require.NoError(t, err)
	assert.Equal(t, StageAwaitingEvent, stage)

	stage, err = c.Take("1")
	require.NoError(t, err)
	assert.Equal(t, StageIdle, stage)

	stage, err = c.Get("2")
	require.NoError(t, err)
	assert.Equal(t, StageAwaitingTime, stage, "chats are independent")
}

func TestConversationsLatestStageWins(t *testing.T) {
	c := newTestConversations(t, time.Minute)
	require.NoError(t, c.Set("1", StageAwaitingEvent))
	require.NoError(t, c.Set("1", StageAwaitingDeleteName))

	stage, err := c.Take("1")
	require.NoError(t, err)
	assert.Equal(t, StageAwaitingDeleteName, stage)
}

func TestConversationsIdleAndClear(t *testing.T) {
	c := newTestConversations(t, time.Minute)
	require.NoError(t, c.Set("1", StageAwaitingTime))
	require.NoError(t, c.Set("1", StageIdle))

	stage, err := c.Get("1")
	require.NoError(t, err)
	assert.Equal(t, StageIdle, stage)

	require.NoError(t, c.Clear("never-set"))
}

func TestConversationsExpire(t *testing.T) {
	c := newTestConversations(t, 50*time.Millisecond)
	require.NoError(t, c.Set("1", StageAwaitingEvent))

	assert.Eventually(t, func() bool {
		stage, err := c.Get("1")
		return err == nil && stage == StageIdle
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "idle", StageIdle.String())
	assert.Equal(t, "awaiting_event", StageAwaitingEvent.String())
	assert.Equal(t, "awaiting_delete_name", StageAwaitingDeleteName.String())
	assert.Equal(t, "awaiting_time", StageAwaitingTime.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
