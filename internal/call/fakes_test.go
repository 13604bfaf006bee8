package call

import (
	"context"
	"io"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

type fakeSignal struct {
	mu     sync.Mutex
	sent   []protocol.Command
	events chan protocol.Event
	done   chan struct{}
	once   sync.Once
	closed bool
}

func newFakeSignal() *fakeSignal {
	return &fakeSignal{events: make(chan protocol.Event, 16), done: make(chan struct{})}
}

func (f *fakeSignal) Send(cmd protocol.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrTransportLost
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeSignal) Events() <-chan protocol.Event { return f.events }
func (f *fakeSignal) Done() <-chan struct{}         { return f.done }

func (f *fakeSignal) Close() {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.done)
	})
}

func (f *fakeSignal) commands() []protocol.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.Command(nil), f.sent...)
}

func sentOf[T protocol.Command](f *fakeSignal) []T {
	var out []T
	for _, c := range f.commands() {
		if v, ok := c.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

type fakeRooms struct {
	room domain.Room
	host bool
	err  error
}

func (f fakeRooms) LookupRoom(context.Context, domain.RoomID) (domain.Room, bool, error) {
	return f.room, f.host, f.err
}

type fakeDialer struct {
	mu        sync.Mutex
	conns     map[domain.PeerID][]*fakeConn
	newSender func(webrtc.TrackLocal) core.TrackSender
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(map[domain.PeerID][]*fakeConn)}
}

func (d *fakeDialer) NewConnection(peer domain.PeerID) (core.MediaConnection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &fakeConn{peer: peer, newSender: d.newSender}
	d.conns[peer] = append(d.conns[peer], c)
	return c, nil
}

func (d *fakeDialer) dialed(peer domain.PeerID) []*fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[peer]
}

type fakeConn struct {
	peer      domain.PeerID
	newSender func(webrtc.TrackLocal) core.TrackSender

	mu       sync.Mutex
	senders  []core.TrackSender
	removed  []core.TrackSender
	answers  []string
	onTrack  func(context.Context, core.RemoteTrack)
	onClosed func()
	closed   bool
}

func (c *fakeConn) Start(context.Context) error { return nil }

func (c *fakeConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cb := c.onClosed
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) CreateOffer() (*webrtc.SessionDescription, error) {
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "offer-to-" + string(c.peer)}, nil
}

func (c *fakeConn) ApplyOfferAndCreateAnswer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "answer-" + offer.SDP}, nil
}

func (c *fakeConn) ApplyAnswer(answer webrtc.SessionDescription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers = append(c.answers, answer.SDP)
	return nil
}

func (c *fakeConn) AddLocalTrack(t webrtc.TrackLocal) (core.TrackSender, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s core.TrackSender = &fakeSender{track: t}
	if c.newSender != nil {
		if custom := c.newSender(t); custom != nil {
			s = custom
		}
	}
	c.senders = append(c.senders, s)
	return s, nil
}

func (c *fakeConn) RemoveSender(s core.TrackSender) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, s)
	return nil
}

func (c *fakeConn) OnTrack(fn func(context.Context, core.RemoteTrack)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrack = fn
}

func (c *fakeConn) OnClosed(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClosed = fn
}

func (c *fakeConn) emit(t core.RemoteTrack) {
	c.mu.Lock()
	cb := c.onTrack
	c.mu.Unlock()
	cb(context.Background(), t)
}

type fakeSender struct {
	mu    sync.Mutex
	track webrtc.TrackLocal
}

func (s *fakeSender) Track() webrtc.TrackLocal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

func (s *fakeSender) ReplaceTrack(t webrtc.TrackLocal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track = t
	return nil
}

type fakeRemoteTrack struct {
	id   string
	kind webrtc.RTPCodecType
	pkts chan *rtp.Packet
	once sync.Once
}

func newRemoteTrack(id string, kind webrtc.RTPCodecType) *fakeRemoteTrack {
	return &fakeRemoteTrack{id: id, kind: kind, pkts: make(chan *rtp.Packet, 4)}
}

func (t *fakeRemoteTrack) ID() string                { return t.id }
func (t *fakeRemoteTrack) StreamID() string          { return "remote" }
func (t *fakeRemoteTrack) Kind() webrtc.RTPCodecType { return t.kind }

func (t *fakeRemoteTrack) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	p, ok := <-t.pkts
	if !ok {
		return nil, nil, io.EOF
	}
	return p, nil, nil
}

func (t *fakeRemoteTrack) end() { t.once.Do(func() { close(t.pkts) }) }

type recordingSink struct {
	mu   sync.Mutex
	seen map[domain.PeerID]int
}

func (r *recordingSink) WriteRTP(peer domain.PeerID, _ string, _ *rtp.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[domain.PeerID]int)
	}
	r.seen[peer]++
}

func (r *recordingSink) count(peer domain.PeerID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[peer]
}
