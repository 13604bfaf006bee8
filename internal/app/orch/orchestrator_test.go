package orch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/dkeye/Huddle/internal/storage"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) drain(t *testing.T) []protocol.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Event, 0, len(c.frames))
	for _, f := range c.frames {
		ev, err := protocol.DecodeEvent(f)
		require.NoError(t, err)
		out = append(out, ev)
	}
	c.frames = nil
	return out
}

type client struct {
	sid      core.SessionID
	uid      domain.UserID
	peer     domain.PeerID
	conn     *fakeConn
	canceled bool
}

type harness struct {
	t     *testing.T
	o     *Orchestrator
	store *storage.Store
	room  domain.Room
}

func newHarness(t *testing.T, access domain.Access) *harness {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "orch.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	ctx := context.Background()
	room, err := store.CreateRoom(ctx, "host-user")
	require.NoError(t, err)
	room.Control.Access = access
	require.NoError(t, store.UpdateControl(ctx, room.ID, "host-user", room.Control))

	o := New(app.NewRegistry(), app.NewRoomManager(store), store, app.SimplePolicy{})
	return &harness{t: t, o: o, store: store, room: room}
}

func (h *harness) connect(sid string, uid domain.UserID) *client {
	c := &client{sid: core.SessionID(sid), uid: uid, conn: &fakeConn{}}
	h.o.Connect(c.sid, uid, c.conn, func() { c.canceled = true })
	h.o.OpenPeer(c.sid)
	evs := c.conn.drain(h.t)
	require.Len(h.t, evs, 1)
	opened, ok := evs[0].(protocol.PeerOpened)
	require.True(h.t, ok)
	assert.Equal(h.t, uid, opened.UserID)
	c.peer = opened.PeerID
	return c
}

func (h *harness) requestJoin(c *client, host bool) {
	h.o.RequestJoin(context.Background(), c.sid, protocol.JoinRequest{
		RoomID: h.room.ID,
		User:   domain.Participant{PeerID: c.peer, Name: string(c.uid), Host: host},
	})
}

func (h *harness) roomJoin(c *client) {
	h.o.JoinRoom(c.sid, protocol.RoomJoin{RoomID: h.room.ID, User: domain.Participant{PeerID: c.peer, Name: string(c.uid)}})
}

func (h *harness) joinAsHost() *client {
	host := h.connect("s-host", "host-user")
	h.requestJoin(host, false)
	assert.Equal(h.t, []protocol.Event{protocol.Accepted(host.peer)}, host.conn.drain(h.t))
	h.roomJoin(host)
	host.conn.drain(h.t)
	return host
}

func TestTrustedAdmissionFlow(t *testing.T) {
	h := newHarness(t, domain.AccessTrusted)
	host := h.joinAsHost()

	guest := h.connect("s-guest", "guest-user")
	h.requestJoin(guest, true) // asserted host flag is ignored
	assert.Empty(t, guest.conn.drain(t))

	evs := host.conn.drain(t)
	require.Len(t, evs, 1)
	waiting, ok := evs[0].(protocol.Waiting)
	require.True(t, ok)
	require.Len(t, waiting, 1)
	assert.Equal(t, guest.peer, waiting[0].PeerID)
	assert.False(t, waiting[0].Host)
	assert.Equal(t, domain.UserID("guest-user"), waiting[0].UserID)

	// announcing before admission is refused
	h.roomJoin(guest)
	assert.Equal(t, []protocol.Event{protocol.JoinFailed(domain.ErrNotAdmitted.Error())}, guest.conn.drain(t))

	h.o.Accept(host.sid, guest.peer)
	assert.Equal(t, []protocol.Event{protocol.Accepted(guest.peer)}, guest.conn.drain(t))

	h.roomJoin(guest)
	hostEvs := host.conn.drain(t)
	require.Len(t, hostEvs, 2)
	joined, ok := hostEvs[0].(protocol.Joined)
	require.True(t, ok)
	assert.Equal(t, guest.peer, joined.PeerID)
	assert.Equal(t, protocol.Count(1), hostEvs[1])

	guestEvs := guest.conn.drain(t)
	require.Len(t, guestEvs, 2)
	assert.Equal(t, protocol.Count(1), guestEvs[0])
	assert.IsType(t, protocol.ControlChanged{}, guestEvs[1])
}

func TestOpenAccessAdmitsImmediately(t *testing.T) {
	h := newHarness(t, domain.AccessOpen)
	guest := h.connect("s-guest", "guest-user")
	h.requestJoin(guest, false)
	assert.Equal(t, []protocol.Event{protocol.Accepted(guest.peer)}, guest.conn.drain(t))
}

func TestRequestJoinDuplicatePeerReconnects(t *testing.T) {
	h := newHarness(t, domain.AccessOpen)
	guest := h.connect("s-guest", "guest-user")
	h.requestJoin(guest, false)
	guest.conn.drain(t)

	h.requestJoin(guest, false)
	evs := guest.conn.drain(t)
	require.Len(t, evs, 1)
	assert.IsType(t, protocol.Reconnect{}, evs[0])
}

func TestRequestJoinRejectsForeignPeerID(t *testing.T) {
	h := newHarness(t, domain.AccessOpen)
	guest := h.connect("s-guest", "guest-user")
	h.o.RequestJoin(context.Background(), guest.sid, protocol.JoinRequest{
		RoomID: h.room.ID,
		User:   domain.Participant{PeerID: "someone-else"},
	})
	assert.Equal(t, []protocol.Event{protocol.JoinFailed("peer id mismatch")}, guest.conn.drain(t))
}

func TestRejectWaitingAndUnknown(t *testing.T) {
	h := newHarness(t, domain.AccessTrusted)
	host := h.joinAsHost()
	a := h.connect("s-a", "a")
	b := h.connect("s-b", "b")
	h.requestJoin(a, false)
	h.requestJoin(b, false)
	host.conn.drain(t)

	h.o.Reject(host.sid, "ghost")
	h.o.Reject(host.sid, a.peer)
	h.o.Reject(host.sid, b.peer)

	assert.Contains(t, a.conn.drain(t), protocol.Event(protocol.Rejected(a.peer)))
	assert.Contains(t, b.conn.drain(t), protocol.Event(protocol.Rejected(b.peer)))

	room, err := h.o.Rooms.Get(context.Background(), h.room.ID)
	require.NoError(t, err)
	assert.Empty(t, room.Waiting())
}

func TestNonHostCannotAccept(t *testing.T) {
	h := newHarness(t, domain.AccessTrusted)
	h.joinAsHost()
	a := h.connect("s-a", "a")
	b := h.connect("s-b", "b")
	h.requestJoin(a, false)
	h.requestJoin(b, false)

	h.o.Accept(a.sid, b.peer)
	for _, ev := range b.conn.drain(t) {
		assert.NotEqual(t, protocol.Event(protocol.Accepted(b.peer)), ev)
	}
}

func TestDisconnectBroadcastsLeave(t *testing.T) {
	h := newHarness(t, domain.AccessOpen)
	host := h.joinAsHost()
	guest := h.connect("s-guest", "guest-user")
	h.requestJoin(guest, false)
	h.roomJoin(guest)
	host.conn.drain(t)

	h.o.Disconnect(guest.sid)
	assert.Equal(t, []protocol.Event{protocol.Left(guest.peer), protocol.Count(0)}, host.conn.drain(t))
	_, ok := h.o.Registry.SessionByPeer(guest.peer)
	assert.False(t, ok)
}

func TestHostMuteAndControlChange(t *testing.T) {
	h := newHarness(t, domain.AccessOpen)
	host := h.joinAsHost()
	guest := h.connect("s-guest", "guest-user")
	h.requestJoin(guest, false)
	h.roomJoin(guest)
	guest.conn.drain(t)

	h.o.MuteUser(host.sid, protocol.HostMuteUser{RoomID: h.room.ID, PeerID: guest.peer})
	assert.Equal(t, []protocol.Event{protocol.MutedUser(guest.peer)}, guest.conn.drain(t))

	c := domain.DefaultControl()
	c.AllowSendChat = false
	h.o.ChangeControl(context.Background(), host.sid, protocol.ChangeControl{RoomID: h.room.ID, Control: c})
	assert.Equal(t, []protocol.Event{protocol.ControlChanged(c)}, guest.conn.drain(t))
	host.conn.drain(t)

	stored, err := h.store.GetRoom(context.Background(), h.room.ID)
	require.NoError(t, err)
	assert.False(t, stored.Control.AllowSendChat)

	// chat is now dropped for the guest
	h.o.Chat(guest.sid, protocol.ChatPost{RoomID: h.room.ID, Message: domain.ChatMessage{Text: "hi"}})
	assert.Empty(t, host.conn.drain(t))

	h.o.ChangeControl(context.Background(), guest.sid, protocol.ChangeControl{RoomID: h.room.ID, Control: c})
	assert.Equal(t, []protocol.Event{protocol.ChangeControlFailed(domain.ErrNotHost.Error())}, guest.conn.drain(t))
}

func TestChatStampsUserID(t *testing.T) {
	h := newHarness(t, domain.AccessOpen)
	host := h.joinAsHost()
	guest := h.connect("s-guest", "guest-user")
	h.requestJoin(guest, false)
	h.roomJoin(guest)
	host.conn.drain(t)

	h.o.Chat(guest.sid, protocol.ChatPost{RoomID: h.room.ID, Message: domain.ChatMessage{UserID: "spoofed", Text: "hi", Aggregate: true}})
	evs := host.conn.drain(t)
	require.Len(t, evs, 1)
	msg, ok := evs[0].(protocol.ChatReceived)
	require.True(t, ok)
	assert.Equal(t, domain.UserID("guest-user"), msg.UserID)
	assert.False(t, msg.Aggregate)
}

func TestRelayOfferStampsSender(t *testing.T) {
	h := newHarness(t, domain.AccessOpen)
	host := h.joinAsHost()
	guest := h.connect("s-guest", "guest-user")
	h.requestJoin(guest, false)
	h.roomJoin(guest)
	host.conn.drain(t)

	h.o.RelayOffer(guest.sid, protocol.Offer{To: host.peer, From: "forged", SDP: "v=0", Metadata: &domain.Participant{PeerID: "forged"}})
	evs := host.conn.drain(t)
	require.Len(t, evs, 1)
	offer, ok := evs[0].(protocol.Offer)
	require.True(t, ok)
	assert.Equal(t, guest.peer, offer.From)
	assert.Equal(t, guest.peer, offer.Metadata.PeerID)

	h.o.RelayAnswer(host.sid, protocol.Answer{To: guest.peer, SDP: "v=0"})
	assert.Equal(t, []protocol.Event{protocol.Answer{To: guest.peer, From: host.peer, SDP: "v=0"}}, guest.conn.drain(t))
}

func TestBackpressureKicksSlowMember(t *testing.T) {
	h := newHarness(t, domain.AccessOpen)
	host := h.joinAsHost()
	guest := h.connect("s-guest", "guest-user")
	h.requestJoin(guest, false)
	h.roomJoin(guest)

	guest.conn.full = true
	h.o.ShareScreen(host.sid)
	assert.True(t, guest.canceled)
	assert.False(t, host.canceled)
}
