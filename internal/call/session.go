// Package call runs one participant's side of a mesh call: admission,
// the connection mesh, the participant registry, host controls, chat and presence.
//
// All session state is owned by a single event loop. Network events, media
// callbacks and user actions are queued onto it; blocking work (ICE gathering,
// device capture) runs off the loop and posts its result back.
package call

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrRejected      = errors.New("call: rejected by host")
	ErrRemoved       = errors.New("call: removed by host")
	ErrTransportLost = errors.New("call: signaling transport lost")
	ErrJoinFailed    = errors.New("call: join failed")
)

type State int32

const (
	StateIdle State = iota
	StateRequesting
	StateWaiting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateWaiting:
		return "waiting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "idle"
	}
}

type Config struct {
	RoomID    domain.RoomID
	Name      string
	Photo     string
	AutoAdmit bool
	// AdmitDelay lets transient state settle between acceptance and the presence announce.
	AdmitDelay time.Duration
	// WaitingTimeout relaxes the local waiting flag. It never cancels the request.
	WaitingTimeout time.Duration
	ReloadDelay    time.Duration
}

// TrackSink receives remote media for rendering.
type TrackSink interface {
	WriteRTP(peer domain.PeerID, trackID string, pkt *rtp.Packet)
}

type Deps struct {
	Signal   core.SignalChannel
	Rooms    core.RoomLookup
	Dialer   core.MediaDialer
	Media    *media.Controller
	Notifier Notifier
	Sink     TrackSink
}

type Session struct {
	cfg      Config
	signal   core.SignalChannel
	rooms    core.RoomLookup
	dialer   core.MediaDialer
	media    *media.Controller
	notifier Notifier
	sink     TrackSink
	logger   zerolog.Logger

	registry *Registry
	links    map[domain.PeerID]*link

	// loop-owned
	ctx       context.Context
	room      domain.Room
	host      bool
	control   domain.ControlPolicy
	peerID    domain.PeerID
	userID    domain.UserID
	accepted  bool
	waitingUI bool
	waitTimer *time.Timer
	chat      []domain.ChatMessage
	unread    int
	finished  bool
	err       error

	state  atomic.Int32
	tasks  chan func()
	done   chan struct{}
	spawn  func(func())
	inline bool
	now    func() time.Time
}

func New(cfg Config, deps Deps) *Session {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	return &Session{
		cfg:      cfg,
		signal:   deps.Signal,
		rooms:    deps.Rooms,
		dialer:   deps.Dialer,
		media:    deps.Media,
		notifier: notifier,
		sink:     deps.Sink,
		logger:   log.With().Str("module", "call").Str("room", string(cfg.RoomID)).Logger(),
		registry: NewRegistry(),
		links:    make(map[domain.PeerID]*link),
		control:  domain.DefaultControl(),
		ctx:      context.Background(),
		tasks:    make(chan func(), 64),
		done:     make(chan struct{}),
		spawn:    func(fn func()) { go fn() },
		now:      time.Now,
	}
}

// Run drives the session until it ends and returns the reason it ended.
// A voluntary leave returns nil.
func (s *Session) Run(ctx context.Context) error {
	if err := s.start(ctx); err != nil {
		s.finish(err)
		return err
	}
	for {
		select {
		case <-s.done:
			return s.err
		case <-ctx.Done():
			s.finish(nil)
		case fn := <-s.tasks:
			fn()
		case ev, ok := <-s.signal.Events():
			if !ok {
				s.transportLost()
				continue
			}
			s.handle(ev)
		case <-s.signal.Done():
			s.transportLost()
		}
	}
}

// start looks the room up, captures local media and opens a transport identity.
func (s *Session) start(ctx context.Context) error {
	s.ctx = ctx
	room, host, err := s.rooms.LookupRoom(ctx, s.cfg.RoomID)
	if err != nil {
		s.notify(NoticeWarning, "", "Invalid code or link")
		return fmt.Errorf("room lookup: %w", err)
	}
	s.room = room
	s.host = host
	s.control = room.Control

	status := s.media.Start(ctx)
	s.logger.Info().Bool("host", host).Str("media", status.String()).Msg("session starting")

	if err := s.send(protocol.CountQuery(room.ID)); err != nil {
		return err
	}
	if err := s.send(protocol.PeerOpenRequest{}); err != nil {
		return err
	}
	s.setState(StateRequesting)
	return nil
}

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) {
	if prev := State(s.state.Swap(int32(st))); prev != st {
		s.logger.Info().Str("from", prev.String()).Str("to", st.String()).Msg("state")
	}
}

// Done is closed when the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err reports why the session ended. Valid after Done is closed.
func (s *Session) Err() error {
	<-s.done
	return s.err
}

func (s *Session) Registry() *Registry { return s.registry }

func (s *Session) post(fn func()) {
	select {
	case s.tasks <- fn:
	case <-s.done:
	}
}

// do runs fn on the loop and waits for it.
func (s *Session) do(fn func()) {
	if s.inline {
		fn()
		return
	}
	ran := make(chan struct{})
	s.post(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
	case <-s.done:
	}
}

// after runs fn on the loop once d has elapsed.
func (s *Session) after(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { s.post(fn) })
}

func (s *Session) send(cmd protocol.Command) error {
	if err := s.signal.Send(cmd); err != nil {
		s.logger.Warn().Err(err).Str("type", cmd.Type()).Msg("send failed")
		return fmt.Errorf("send %s: %w", cmd.Type(), err)
	}
	return nil
}

func (s *Session) self() protocol.RoomPeer {
	return protocol.RoomPeer{RoomID: s.room.ID, PeerID: s.peerID}
}

func (s *Session) localParticipant() domain.Participant {
	return domain.Participant{
		PeerID:  s.peerID,
		UserID:  s.userID,
		Name:    s.cfg.Name,
		Photo:   s.cfg.Photo,
		Muted:   s.media.Muted(),
		Visible: s.media.Visible(),
		Host:    s.host,
	}
}

// Accessors below read loop-owned state through the loop.

func (s *Session) PeerID() domain.PeerID {
	var id domain.PeerID
	s.do(func() { id = s.peerID })
	return id
}

func (s *Session) IsHost() bool {
	var host bool
	s.do(func() { host = s.host })
	return host
}

func (s *Session) Controls() domain.ControlPolicy {
	var c domain.ControlPolicy
	s.do(func() { c = s.control })
	return c
}

// WaitingUI reports whether the local "waiting for the host" flag is still raised.
func (s *Session) WaitingUI() bool {
	var w bool
	s.do(func() { w = s.waitingUI })
	return w
}
