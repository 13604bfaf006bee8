package media

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

type GateState int32

const (
	GateLive GateState = iota
	GateMuted
	GateStopped
)

// Gate forwards packets from one capture source into one local track.
// A gate without a source is a placeholder: the track exists but stays silent.
type Gate struct {
	Track *webrtc.TrackLocalStaticRTP

	src     Source
	state   atomic.Int32
	onEnded func()
	done    chan struct{}
	stop    sync.Once
}

func newGate(id, stream string, codec webrtc.RTPCodecCapability, src Source) (*Gate, error) {
	track, err := webrtc.NewTrackLocalStaticRTP(codec, id, stream)
	if err != nil {
		return nil, err
	}
	g := &Gate{Track: track, src: src, done: make(chan struct{})}
	if src == nil {
		g.state.Store(int32(GateStopped))
		close(g.done)
	}
	return g, nil
}

func (g *Gate) State() GateState { return GateState(g.state.Load()) }

func (g *Gate) Live() bool { return g.State() == GateLive }

// SetEnabled mutes or unmutes a live gate. Stopped gates stay stopped.
func (g *Gate) SetEnabled(on bool) {
	next := GateMuted
	if on {
		next = GateLive
	}
	for {
		cur := g.state.Load()
		if GateState(cur) == GateStopped {
			return
		}
		if g.state.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

// Stop ends capture. The track stays valid for senders still holding it.
func (g *Gate) Stop() {
	g.stop.Do(func() {
		g.state.Store(int32(GateStopped))
		if g.src != nil {
			_ = g.src.Close()
		}
	})
}

// Done is closed once the pump has returned.
func (g *Gate) Done() <-chan struct{} { return g.done }

// run reads packets from the source and writes them to the track while live.
// onEnded fires when the source ends on its own, not after Stop.
func (g *Gate) run(logger zerolog.Logger) {
	defer close(g.done)
	for {
		pkt, err := g.src.ReadRTP()
		if err != nil {
			stopped := g.State() == GateStopped
			g.Stop()
			if !stopped {
				if !errors.Is(err, io.EOF) {
					logger.Warn().Err(err).Msg("capture read error")
				}
				if g.onEnded != nil {
					g.onEnded()
				}
			}
			return
		}
		g.forward(pkt, logger)
	}
}

func (g *Gate) forward(pkt *rtp.Packet, logger zerolog.Logger) {
	switch g.State() {
	case GateMuted, GateStopped:
	case GateLive:
		if err := g.Track.WriteRTP(pkt); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			logger.Error().Err(err).Msg("write RTP error")
		}
	}
}
