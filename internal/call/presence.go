package call

import (
	"errors"
	"fmt"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

// onLeft tears down a departed peer. Our own peer id means we were dropped.
func (s *Session) onLeft(peer domain.PeerID) {
	if peer == s.peerID {
		s.finish(nil)
		return
	}
	if l, ok := s.links[peer]; ok {
		s.dropLink(l)
	}
	p, known := s.registry.Snapshot().People[peer]
	if s.registry.Remove(peer) && known {
		s.notify(NoticeInfo, peer, fmt.Sprintf("%s left the call", p.Name))
	}
}

// onMutedUser applies a host mute. For other peers it only marks the registry.
func (s *Session) onMutedUser(peer domain.PeerID) {
	if peer != s.peerID {
		s.onFlip(peer, func(Person) Patch { return Patch{Muted: ptr(true)} })
		return
	}
	if s.host || s.media.Muted() {
		return
	}
	if err := s.media.SetMic(false); err != nil {
		s.logger.Debug().Err(err).Msg("mute microphone")
		return
	}
	_ = s.send(protocol.DisableMicrophone(s.self()))
	s.notify(NoticeWarning, peer, "You are muted by host")
}

func (s *Session) onRemovedUser(peer domain.PeerID) {
	if peer != s.peerID {
		return
	}
	s.notify(NoticeWarning, peer, "You have been removed from the call")
	s.finish(ErrRemoved)
}

func (s *Session) onRemovedSharedScreen(peer domain.PeerID) {
	if peer != s.peerID {
		s.registry.ClearPresent(peer)
		return
	}
	if s.media.Sharing() {
		s.stopShare(true)
		s.notify(NoticeWarning, peer, "Host stopped your screen share")
	}
}

// onFlip merges a derived patch into a known participant.
func (s *Session) onFlip(peer domain.PeerID, fn func(Person) Patch) {
	p, ok := s.registry.Snapshot().People[peer]
	if !ok {
		s.logger.Debug().Str("target", string(peer)).Msg("state flip for unknown peer")
		return
	}
	s.registry.Merge(map[domain.PeerID]Patch{peer: fn(p)})
}

// onSharedScreen: another presenter takes over, so a local share stops quietly.
func (s *Session) onSharedScreen(peer domain.PeerID) {
	if peer == s.peerID || !s.media.Sharing() {
		return
	}
	s.logger.Info().Str("presenter", string(peer)).Msg("screen share taken over")
	s.stopShare(false)
}

func (s *Session) onStoppedScreenShare(peer domain.PeerID) {
	s.registry.ClearPresent(peer)
}

// finish is the single terminal sequence for leave, removal, rejection and
// transport loss.
func (s *Session) finish(err error) {
	if s.finished {
		return
	}
	s.finished = true
	lost := errors.Is(err, ErrTransportLost)
	if s.accepted && !lost {
		_ = s.send(protocol.UserLeave(s.self()))
	}
	if s.waitTimer != nil {
		s.waitTimer.Stop()
	}
	for _, l := range s.links {
		l.conn.Close()
	}
	s.links = make(map[domain.PeerID]*link)
	s.registry.Reset()
	s.media.Reset()
	s.signal.Close()
	s.control = domain.DefaultControl()
	s.waitingUI = false

	if lost && !s.accepted {
		s.setState(StateIdle)
	} else {
		s.setState(StateDisconnected)
	}
	s.accepted = false
	s.err = err
	if err != nil {
		s.logger.Info().Err(err).Msg("session ended")
	} else {
		s.logger.Info().Msg("session ended")
	}
	close(s.done)
}
