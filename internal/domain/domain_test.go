package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m, s int) int64 {
	return time.Date(2024, 5, 1, h, m, s, 0, time.UTC).UnixMilli()
}

func TestAggregates(t *testing.T) {
	m1 := ChatMessage{UserID: "a", Timestamp: at(10, 0, 5)}

	assert.True(t, Aggregates(m1, ChatMessage{UserID: "a", Timestamp: at(10, 0, 45)}))
	assert.False(t, Aggregates(m1, ChatMessage{UserID: "a", Timestamp: at(10, 1, 2)}))
	assert.False(t, Aggregates(m1, ChatMessage{UserID: "b", Timestamp: at(10, 0, 6)}))
}

func TestControlApplyKeepsUnsetFields(t *testing.T) {
	off := false
	open := AccessOpen
	c := DefaultControl().Apply(ControlPatch{AllowMicrophone: &off, Access: &open})

	assert.False(t, c.AllowMicrophone)
	assert.Equal(t, AccessOpen, c.Access)
	assert.True(t, c.AllowVideo)
	assert.True(t, c.AllowSendChat)
}

func TestControlFullPatchRoundTrip(t *testing.T) {
	want := ControlPolicy{HostManagement: true, AllowReaction: true, Access: AccessOpen}
	assert.Equal(t, want, DefaultControl().Apply(FullPatch(want)))
}

func TestControlAllows(t *testing.T) {
	c := DefaultControl()
	c.AllowSendChat = false

	assert.False(t, c.Allows(ActionSendChat, false))
	assert.True(t, c.Allows(ActionSendChat, true))
	assert.True(t, c.Allows(ActionReaction, false))
}

func TestRoomIsHost(t *testing.T) {
	r := Room{Hosts: []UserID{"u1"}}
	assert.True(t, r.IsHost("u1"))
	assert.False(t, r.IsHost("u2"))
	assert.False(t, r.IsHost(""))
}
