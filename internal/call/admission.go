package call

import (
	"fmt"
	"slices"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

// onPeerOpened records the transport identity and asks to join.
// The client waits for the host unless it hosts the room or access is open.
func (s *Session) onPeerOpened(e protocol.PeerOpened) {
	if s.peerID != "" {
		s.logger.Debug().Str("peer", string(e.PeerID)).Msg("peer already open")
		return
	}
	s.peerID = e.PeerID
	s.userID = e.UserID
	s.logger = s.logger.With().Str("peer", string(e.PeerID)).Logger()

	if err := s.send(protocol.JoinRequest{RoomID: s.room.ID, User: s.localParticipant()}); err != nil {
		return
	}
	if s.host || s.control.Access == domain.AccessOpen {
		s.setState(StateRequesting)
	} else {
		s.setState(StateWaiting)
	}

	s.waitingUI = true
	if s.cfg.WaitingTimeout > 0 {
		s.waitTimer = s.after(s.cfg.WaitingTimeout, func() {
			if !s.accepted {
				s.waitingUI = false
				s.logger.Debug().Msg("waiting flag relaxed")
			}
		})
	}
}

func (s *Session) onAccepted(peer domain.PeerID) {
	if peer != s.peerID || s.accepted {
		return
	}
	s.registry.RemoveWaiting(peer)
	if s.cfg.AdmitDelay <= 0 {
		s.admit()
		return
	}
	s.after(s.cfg.AdmitDelay, s.admit)
}

// admit moves to connected and announces full presence so every other
// connected participant learns to dial this one.
func (s *Session) admit() {
	if s.finished || s.accepted {
		return
	}
	s.accepted = true
	s.waitingUI = false
	if s.waitTimer != nil {
		s.waitTimer.Stop()
	}
	s.setState(StateConnected)
	_ = s.send(protocol.RoomJoin{RoomID: s.room.ID, User: s.localParticipant()})
}

func (s *Session) onRejected(peer domain.PeerID) {
	if peer == s.peerID {
		s.notify(NoticeWarning, peer, "You are not allowed to join!")
		s.finish(ErrRejected)
		return
	}
	if s.host {
		s.registry.RemoveWaiting(peer)
	}
}

func (s *Session) onJoinFailed(reason string) {
	s.notify(NoticeWarning, "", reason)
	if reason == domain.ErrRoomNotFound.Error() {
		s.finish(domain.ErrRoomNotFound)
		return
	}
	s.finish(fmt.Errorf("%w: %s", ErrJoinFailed, reason))
}

// onReconnect: the server already counts this peer as present, so announce again.
func (s *Session) onReconnect(p domain.Participant) {
	if p.PeerID != s.peerID {
		return
	}
	if !s.accepted {
		s.admit()
		return
	}
	_ = s.send(protocol.RoomJoin{RoomID: s.room.ID, User: s.localParticipant()})
}

func (s *Session) onWaiting(list []domain.Participant) {
	if !s.host {
		return
	}
	patches := make(map[domain.PeerID]Patch, len(list))
	for _, p := range list {
		if p.PeerID == "" || p.PeerID == s.peerID {
			continue
		}
		patches[p.PeerID] = FromParticipant(p)
	}
	if len(patches) == 0 {
		return
	}
	s.registry.MergeWaiting(patches)
	s.notify(NoticeInfo, "", "Someone want to join this call")
	if s.cfg.AutoAdmit {
		for _, peer := range sortedKeys(patches) {
			s.decide(peer, true)
		}
	}
}

// decide sends one accept or reject for peer and drops it from the waiting map.
func (s *Session) decide(peer domain.PeerID, accept bool) {
	if !s.host {
		return
	}
	if _, ok := s.registry.Snapshot().Waiting[peer]; !ok {
		s.logger.Debug().Str("target", string(peer)).Msg("not waiting")
		return
	}
	var cmd protocol.Command = protocol.RejectRequest(peer)
	if accept {
		cmd = protocol.AcceptRequest(peer)
	}
	if err := s.send(cmd); err != nil {
		return
	}
	s.registry.RemoveWaiting(peer)
}

func sortedKeys[V any](m map[domain.PeerID]V) []domain.PeerID {
	keys := make([]domain.PeerID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// transportLost ends the session. Before admission it quietly returns to idle;
// after admission the embedder is told to reload.
func (s *Session) transportLost() {
	if s.finished {
		return
	}
	if s.accepted {
		s.notifier.Notify(Notice{Kind: NoticeReload, Text: "Connection error, reloading...", Delay: s.cfg.ReloadDelay})
	}
	s.finish(ErrTransportLost)
}
