package call

import (
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

// Host operations. Each one is a no-op for non-hosts.

func (s *Session) hostDo(fn func()) {
	s.do(func() {
		if s.finished || !s.host || !s.accepted {
			return
		}
		fn()
	})
}

func (s *Session) target(peer domain.PeerID) protocol.RoomPeer {
	return protocol.RoomPeer{RoomID: s.room.ID, PeerID: peer}
}

func (s *Session) MuteUser(peer domain.PeerID) {
	s.hostDo(func() { _ = s.send(protocol.HostMuteUser(s.target(peer))) })
}

// MuteAll sends one mute per participant that is not already muted.
func (s *Session) MuteAll() {
	s.hostDo(func() {
		people := s.registry.Snapshot().People
		for _, peer := range sortedKeys(people) {
			if people[peer].Muted {
				continue
			}
			_ = s.send(protocol.HostMuteUser(s.target(peer)))
		}
	})
}

func (s *Session) RemoveUser(peer domain.PeerID) {
	s.hostDo(func() { _ = s.send(protocol.HostRemoveUser(s.target(peer))) })
}

func (s *Session) RemoveSharedScreen(peer domain.PeerID) {
	s.hostDo(func() {
		if s.send(protocol.HostRemoveSharedScreen(s.target(peer))) == nil {
			s.registry.ClearPresent(peer)
		}
	})
}

// ChangeControl merges patch into the local policy and broadcasts the result.
// The local copy is kept even if the server later refuses it.
func (s *Session) ChangeControl(patch domain.ControlPatch) {
	s.hostDo(func() {
		s.control = s.control.Apply(patch)
		if err := s.send(protocol.ChangeControl{RoomID: s.room.ID, Control: s.control}); err != nil {
			s.notify(NoticeWarning, "", "failed to change control")
		}
	})
}

func (s *Session) Accept(peer domain.PeerID) {
	s.do(func() { s.decide(peer, true) })
}

func (s *Session) Reject(peer domain.PeerID) {
	s.do(func() { s.decide(peer, false) })
}

func (s *Session) AcceptAll() {
	s.do(func() {
		for _, peer := range sortedKeys(s.registry.Snapshot().Waiting) {
			s.decide(peer, true)
		}
	})
}

// RejectAll sends one reject per waiting peer.
func (s *Session) RejectAll() {
	s.do(func() {
		for _, peer := range sortedKeys(s.registry.Snapshot().Waiting) {
			s.decide(peer, false)
		}
	})
}
