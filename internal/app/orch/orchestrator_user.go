package orch

import (
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// updateSelf applies fn to the caller's own participant record and
// broadcasts ev to the rest of the room.
func (o *Orchestrator) updateSelf(sid core.SessionID, fn func(*domain.Participant), ev func(domain.PeerID) protocol.Event) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, room, ok := o.admitted(sid)
	if !ok {
		return false
	}
	peer := sess.Meta().PeerID
	if _, ok := room.UpdatePerson(peer, fn); !ok {
		return false
	}
	o.broadcast(room, sid, ev(peer))
	return true
}

func (o *Orchestrator) ToggleAudio(sid core.SessionID) {
	ok := o.updateSelf(sid,
		func(p *domain.Participant) { p.Muted = !p.Muted },
		func(peer domain.PeerID) protocol.Event { return protocol.ToggledAudio(peer) })
	if !ok {
		o.replyError(sid, protocol.ToggleAudioFailed(domain.ErrUnknownPeer.Error()))
	}
}

func (o *Orchestrator) ToggleVideo(sid core.SessionID) {
	ok := o.updateSelf(sid,
		func(p *domain.Participant) { p.Visible = !p.Visible },
		func(peer domain.PeerID) protocol.Event { return protocol.ToggledVideo(peer) })
	if !ok {
		o.replyError(sid, protocol.ToggleVideoFailed(domain.ErrUnknownPeer.Error()))
	}
}

func (o *Orchestrator) DisableMicrophone(sid core.SessionID) {
	o.updateSelf(sid,
		func(p *domain.Participant) { p.Muted = true },
		func(peer domain.PeerID) protocol.Event { return protocol.MicrophoneDisabled(peer) })
}

func (o *Orchestrator) DisableCamera(sid core.SessionID) {
	o.updateSelf(sid,
		func(p *domain.Participant) { p.Visible = false },
		func(peer domain.PeerID) protocol.Event { return protocol.CameraDisabled(peer) })
}

func (o *Orchestrator) ShareScreen(sid core.SessionID) {
	o.relayAllowed(sid, domain.ActionShareScreen, func(peer domain.PeerID) protocol.Event { return protocol.SharedScreen(peer) })
}

func (o *Orchestrator) StopShareScreen(sid core.SessionID) {
	o.relayAllowed(sid, -1, func(peer domain.PeerID) protocol.Event { return protocol.StoppedScreenShare(peer) })
}

func (o *Orchestrator) Reaction(sid core.SessionID, r protocol.SendReaction) {
	o.relayAllowed(sid, domain.ActionReaction, func(peer domain.PeerID) protocol.Event {
		return protocol.Reacted{RoomID: r.RoomID, PeerID: peer, Reaction: r.Reaction}
	})
}

// Chat relays a message with the sender's user id stamped by the server.
func (o *Orchestrator) Chat(sid core.SessionID, post protocol.ChatPost) {
	o.relayAllowed(sid, domain.ActionSendChat, func(domain.PeerID) protocol.Event {
		msg := post.Message
		if sess, ok := o.Registry.GetSession(sid); ok {
			msg.UserID = sess.Meta().UserID
		}
		msg.Aggregate = false
		return protocol.ChatReceived(msg)
	})
}

// relayAllowed broadcasts an event from an admitted peer when the room policy
// permits action. A negative action is always allowed.
func (o *Orchestrator) relayAllowed(sid core.SessionID, action domain.Action, ev func(domain.PeerID) protocol.Event) {
	sess, room, ok := o.admitted(sid)
	if !ok {
		return
	}
	meta := sess.Meta()
	rec := room.Room()
	if action >= 0 && !rec.Control.Allows(action, rec.IsHost(meta.UserID)) {
		log.Debug().Str("module", "orch").Str("peer", string(meta.PeerID)).Stringer("action", action).Msg("action not allowed")
		return
	}
	o.broadcast(room, sid, ev(meta.PeerID))
}

func (o *Orchestrator) replyError(sid core.SessionID, m protocol.Message) {
	if sess, ok := o.Registry.GetSession(sid); ok {
		o.emit(sess, m)
	}
}
