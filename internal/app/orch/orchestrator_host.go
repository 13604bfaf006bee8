package orch

import (
	"context"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) MuteUser(sid core.SessionID, cmd protocol.HostMuteUser) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, room, ok := o.hostRoom(sid)
	if !ok {
		return
	}
	if _, ok := room.UpdatePerson(cmd.PeerID, func(p *domain.Participant) { p.Muted = true }); !ok {
		log.Debug().Str("module", "orch").Str("peer", string(cmd.PeerID)).Msg("mute: unknown peer")
		return
	}
	o.broadcast(room, sid, protocol.MutedUser(cmd.PeerID))
}

// RemoveUser tells the room the peer was removed and evicts it server-side.
func (o *Orchestrator) RemoveUser(sid core.SessionID, cmd protocol.HostRemoveUser) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, room, ok := o.hostRoom(sid)
	if !ok {
		return
	}
	if _, ok := room.Person(cmd.PeerID); !ok {
		log.Debug().Str("module", "orch").Str("peer", string(cmd.PeerID)).Msg("remove: unknown peer")
		return
	}
	o.broadcast(room, sid, protocol.RemovedUser(cmd.PeerID))
	if target, ok := o.Registry.SessionByPeer(cmd.PeerID); ok {
		o.leaveRoom(target.ID())
	}
}

func (o *Orchestrator) RemoveSharedScreen(sid core.SessionID, cmd protocol.HostRemoveSharedScreen) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, room, ok := o.hostRoom(sid)
	if !ok {
		return
	}
	o.broadcast(room, sid, protocol.RemovedSharedScreen(cmd.PeerID))
}

// ChangeControl persists the policy and replicates it to the whole room, author included.
func (o *Orchestrator) ChangeControl(ctx context.Context, sid core.SessionID, cmd protocol.ChangeControl) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	_, room, ok := o.hostRoom(sid)
	if !ok {
		o.emit(sess, protocol.ChangeControlFailed(domain.ErrNotHost.Error()))
		return
	}
	rec := room.Room()
	if err := o.Store.UpdateControl(ctx, rec.ID, sess.Meta().UserID, cmd.Control); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(rec.ID)).Msg("change control")
		o.emit(sess, protocol.ChangeControlFailed(err.Error()))
		return
	}
	room.SetControl(cmd.Control)
	o.broadcast(room, "", protocol.ControlChanged(cmd.Control))
}
