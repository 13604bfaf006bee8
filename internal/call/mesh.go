package call

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/pion/webrtc/v4"
)

// link is the single media connection to one remote peer.
type link struct {
	peer    domain.PeerID
	conn    core.MediaConnection
	senders map[string]core.TrackSender
	// screenTag is the remote screen track id announced in the last offer.
	screenTag string
	videos    int
}

func (s *Session) onJoined(p domain.Participant) {
	if !s.accepted || p.PeerID == "" || p.PeerID == s.peerID {
		return
	}
	_, known := s.registry.Snapshot().People[p.PeerID]
	s.registry.RemoveWaiting(p.PeerID)
	s.registry.Merge(map[domain.PeerID]Patch{p.PeerID: FromParticipant(p)})
	if !known {
		who := p.Name
		if p.Host {
			who = "Host"
		}
		s.notify(NoticeInfo, p.PeerID, fmt.Sprintf("%s join the call", who))
	}
	s.dial(p.PeerID)
}

// dial places the outbound call to peer unless a connection already exists.
func (s *Session) dial(peer domain.PeerID) {
	if _, ok := s.links[peer]; ok {
		return
	}
	l, err := s.openLink(peer)
	if err != nil {
		s.logger.Warn().Err(err).Str("target", string(peer)).Msg("dial failed")
		return
	}
	s.logger.Info().Str("target", string(peer)).Msg("calling")
	s.negotiate(l, false)
}

func (s *Session) openLink(peer domain.PeerID) (*link, error) {
	conn, err := s.dialer.NewConnection(peer)
	if err != nil {
		return nil, err
	}
	l := &link{peer: peer, conn: conn, senders: make(map[string]core.TrackSender)}
	conn.OnClosed(func() { s.post(func() { s.linkClosed(l) }) })
	conn.OnTrack(func(_ context.Context, t core.RemoteTrack) { s.post(func() { s.bindTrack(l, t) }) })
	if err := conn.Start(s.ctx); err != nil {
		conn.Close()
		return nil, err
	}
	for _, t := range s.media.Tracks() {
		s.attach(l, t)
	}
	s.links[peer] = l
	s.registry.Merge(map[domain.PeerID]Patch{peer: {Conn: conn}})
	return l, nil
}

func (s *Session) attach(l *link, t webrtc.TrackLocal) {
	sender, err := l.conn.AddLocalTrack(t)
	if err != nil {
		s.logger.Warn().Err(err).Str("target", string(l.peer)).Str("track", t.ID()).Msg("add track")
		return
	}
	l.senders[t.ID()] = sender
}

// negotiate creates an offer off the loop and sends it once gathering completes.
func (s *Session) negotiate(l *link, renegotiate bool) {
	meta := s.localParticipant()
	screen := ""
	if _, ok := l.senders[media.TrackScreen]; ok {
		screen = media.TrackScreen
	}
	conn := l.conn
	s.spawn(func() {
		offer, err := conn.CreateOffer()
		s.post(func() {
			if err != nil {
				s.logger.Warn().Err(err).Str("target", string(l.peer)).Msg("create offer")
				return
			}
			if s.links[l.peer] != l {
				return
			}
			_ = s.send(protocol.Offer{
				To:          l.peer,
				SDP:         offer.SDP,
				Metadata:    &meta,
				ScreenTrack: screen,
				Renegotiate: renegotiate,
			})
		})
	})
}

// onOffer answers an inbound call, or a renegotiation on an existing link.
func (s *Session) onOffer(o protocol.Offer) {
	if !s.accepted {
		return
	}
	if o.Renegotiate {
		l, ok := s.links[o.From]
		if !ok {
			s.logger.Warn().Str("from", string(o.From)).Msg("renegotiation for unknown link")
			return
		}
		l.screenTag = o.ScreenTrack
		s.answer(l, o.SDP)
		return
	}
	if o.Metadata == nil {
		s.notify(NoticeWarning, o.From, "Incoming call has no metadata!")
		return
	}
	caller := *o.Metadata
	caller.PeerID = o.From

	if old, ok := s.links[caller.PeerID]; ok {
		s.dropLink(old)
	}
	s.registry.RemoveWaiting(caller.PeerID)
	s.registry.Merge(map[domain.PeerID]Patch{caller.PeerID: FromParticipant(caller)})

	l, err := s.openLink(caller.PeerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("from", string(caller.PeerID)).Msg("answer failed")
		return
	}
	l.screenTag = o.ScreenTrack
	s.logger.Info().Str("from", string(caller.PeerID)).Str("name", caller.Name).Msg("answering call")
	s.answer(l, o.SDP)
}

func (s *Session) answer(l *link, sdp string) {
	conn := l.conn
	s.spawn(func() {
		ans, err := conn.ApplyOfferAndCreateAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp})
		s.post(func() {
			if err != nil {
				s.logger.Warn().Err(err).Str("target", string(l.peer)).Msg("create answer")
				return
			}
			if s.links[l.peer] != l {
				return
			}
			_ = s.send(protocol.Answer{To: l.peer, SDP: ans.SDP})
		})
	})
}

func (s *Session) onAnswer(a protocol.Answer) {
	l, ok := s.links[a.From]
	if !ok {
		s.logger.Debug().Str("from", string(a.From)).Msg("answer for unknown link")
		return
	}
	if err := l.conn.ApplyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: a.SDP}); err != nil {
		s.logger.Warn().Err(err).Str("from", string(a.From)).Msg("apply answer")
	}
}

// bindTrack stores an inbound track on its participant and recognizes a screen share.
func (s *Session) bindTrack(l *link, t core.RemoteTrack) {
	if s.links[l.peer] != l {
		return
	}
	s.registry.Merge(map[domain.PeerID]Patch{l.peer: {AddTrack: t}})
	if t.Kind() == webrtc.RTPCodecTypeVideo {
		l.videos++
		if l.isScreen(t) {
			s.registry.Present(l.peer, t)
			s.logger.Info().Str("presenter", string(l.peer)).Str("track", t.ID()).Msg("screen share detected")
		}
	}
	go s.readTrack(l.peer, t)
}

// isScreen prefers the explicit role tag and falls back to "second video track is the screen".
func (l *link) isScreen(t core.RemoteTrack) bool {
	switch {
	case l.screenTag != "":
		return t.ID() == l.screenTag
	case t.ID() == media.TrackScreen:
		return true
	case t.ID() == media.TrackCamera:
		return false
	default:
		return l.videos > 1
	}
}

// readTrack drains one remote track, feeding the sink unless the peer is suppressed.
func (s *Session) readTrack(peer domain.PeerID, t core.RemoteTrack) {
	for {
		pkt, _, err := t.ReadRTP()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug().Err(err).Str("target", string(peer)).Str("track", t.ID()).Msg("track read")
			}
			s.post(func() { s.trackEnded(peer, t) })
			return
		}
		if s.sink == nil {
			continue
		}
		if p, ok := s.registry.Snapshot().People[peer]; ok && p.DontWatch {
			continue
		}
		s.sink.WriteRTP(peer, t.ID(), pkt)
	}
}

func (s *Session) trackEnded(peer domain.PeerID, t core.RemoteTrack) {
	if s.registry.ClearPresentTrack(t) {
		s.logger.Info().Str("presenter", string(peer)).Msg("screen share ended")
	}
	if _, ok := s.registry.Snapshot().People[peer]; ok {
		s.registry.Merge(map[domain.PeerID]Patch{peer: {DropTrack: t}})
	}
}

func (s *Session) linkClosed(l *link) {
	if s.links[l.peer] != l {
		return
	}
	delete(s.links, l.peer)
	s.logger.Info().Str("target", string(l.peer)).Msg("connection closed")
}

func (s *Session) dropLink(l *link) {
	delete(s.links, l.peer)
	l.conn.Close()
}

// replaceAll swaps the outbound track with the given id on every connection in place.
func (s *Session) replaceAll(id string, track webrtc.TrackLocal) {
	for peer, l := range s.links {
		sender, ok := l.senders[id]
		if !ok {
			s.attach(l, track)
			s.negotiate(l, true)
			continue
		}
		if err := sender.ReplaceTrack(track); err != nil {
			s.logger.Warn().Err(err).Str("target", string(peer)).Str("track", id).Msg("replace track")
		}
	}
}

func (s *Session) publishScreen(track webrtc.TrackLocal) {
	for _, l := range s.links {
		s.attach(l, track)
		s.negotiate(l, true)
	}
}

func (s *Session) unpublishScreen() {
	for peer, l := range s.links {
		sender, ok := l.senders[media.TrackScreen]
		if !ok {
			continue
		}
		delete(l.senders, media.TrackScreen)
		if err := l.conn.RemoveSender(sender); err != nil {
			s.logger.Warn().Err(err).Str("target", string(peer)).Msg("remove screen track")
			continue
		}
		s.negotiate(l, true)
	}
}
