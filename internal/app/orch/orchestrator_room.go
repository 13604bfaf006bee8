package orch

import (
	"context"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// RequestJoin places the caller into the room's people set right away when it
// hosts the room or the room is open, otherwise into the waiting set.
// Host status comes from the stored room record, never from the payload.
func (o *Orchestrator) RequestJoin(ctx context.Context, sid core.SessionID, req protocol.JoinRequest) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	meta := sess.Meta()
	if meta.PeerID == "" || meta.PeerID != req.User.PeerID {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("join with foreign peer id")
		o.emit(sess, protocol.JoinFailed("peer id mismatch"))
		return
	}
	room, err := o.Rooms.Get(ctx, req.RoomID)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("room", string(req.RoomID)).Msg("join: room lookup")
		o.emit(sess, protocol.JoinFailed(err.Error()))
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := room.Person(meta.PeerID); exists {
		o.emit(sess, protocol.Reconnect(req.User))
		return
	}
	if meta.Room != req.RoomID {
		o.leaveRoom(sid)
		o.Registry.UpdateRoom(sid, req.RoomID)
	}
	room.AddMember(sess)

	rec := room.Room()
	user := req.User
	user.UserID = meta.UserID
	user.Host = rec.IsHost(meta.UserID)

	if user.Host || rec.Control.Access == domain.AccessOpen {
		o.admit(room, sess, user)
		o.emit(sess, protocol.Accepted(user.PeerID))
		log.Info().Str("module", "orch").Str("room", string(rec.ID)).Str("peer", string(user.PeerID)).Bool("host", user.Host).Msg("admitted")
		return
	}
	room.PutWaiting(user)
	o.broadcast(room, sid, protocol.Waiting{user})
	log.Info().Str("module", "orch").Str("room", string(rec.ID)).Str("peer", string(user.PeerID)).Msg("waiting for host")
}

func (o *Orchestrator) admit(room core.CallRoom, sess core.MemberSession, user domain.Participant) {
	room.PutPerson(user)
	sess.UpdateMeta(func(m *domain.Member) { m.Admitted = true })
}

// Accept lets a waiting peer in. Unknown peers are ignored.
func (o *Orchestrator) Accept(sid core.SessionID, peer domain.PeerID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, room, ok := o.hostRoom(sid)
	if !ok {
		return
	}
	user, ok := room.TakeWaiting(peer)
	if !ok {
		log.Debug().Str("module", "orch").Str("peer", string(peer)).Msg("accept: not waiting")
		return
	}
	target, ok := o.Registry.SessionByPeer(peer)
	if !ok {
		return
	}
	o.admit(room, target, user)
	o.emit(target, protocol.Accepted(peer))
}

func (o *Orchestrator) Reject(sid core.SessionID, peer domain.PeerID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, room, ok := o.hostRoom(sid)
	if !ok {
		return
	}
	if _, ok := room.TakeWaiting(peer); !ok {
		log.Debug().Str("module", "orch").Str("peer", string(peer)).Msg("reject: not waiting")
		return
	}
	o.emitTo(peer, protocol.Rejected(peer))
}

// Count replies with the number of admitted people, not counting the caller.
func (o *Orchestrator) Count(ctx context.Context, sid core.SessionID, id domain.RoomID) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	room, err := o.Rooms.Get(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("room", string(id)).Msg("count: room lookup")
		return
	}
	n := room.Count()
	if _, in := room.Person(sess.Meta().PeerID); in {
		n--
	}
	o.emit(sess, protocol.Count(n))
}

// JoinRoom announces an admitted peer to the rest of the room.
func (o *Orchestrator) JoinRoom(sid core.SessionID, req protocol.RoomJoin) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, room, ok := o.admitted(sid)
	if !ok || room.Room().ID != req.RoomID {
		if s, found := o.Registry.GetSession(sid); found {
			o.emit(s, protocol.JoinFailed(domain.ErrNotAdmitted.Error()))
		}
		return
	}
	meta := sess.Meta()
	rec := room.Room()
	user := req.User
	user.PeerID = meta.PeerID
	user.UserID = meta.UserID
	user.Host = rec.IsHost(meta.UserID)
	room.PutPerson(user)

	o.broadcast(room, sid, protocol.Joined(user))
	o.broadcastCount(room)
	o.emit(sess, protocol.ControlChanged(rec.Control))
	if user.Host {
		if waiting := room.Waiting(); len(waiting) > 0 {
			o.emit(sess, protocol.Waiting(waiting))
		}
	}
	log.Info().Str("module", "orch").Str("room", string(rec.ID)).Str("peer", string(user.PeerID)).Msg("joined")
}

func (o *Orchestrator) Leave(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.leaveRoom(sid)
}

// leaveRoom must be called with o.mu held.
func (o *Orchestrator) leaveRoom(sid core.SessionID) {
	roomID, sess, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	o.Registry.RemoveRoom(sid)
	room, err := o.Rooms.Get(context.Background(), roomID)
	if err != nil {
		return
	}
	peer := sess.Meta().PeerID
	room.RemoveMember(sid)
	if room.RemovePerson(peer) {
		o.broadcast(room, sid, protocol.Left(peer))
		o.broadcastCount(room)
	}
	if room.MemberCount() == 0 {
		o.Rooms.StopRoom(roomID)
	}
	log.Info().Str("module", "orch").Str("room", string(roomID)).Str("peer", string(peer)).Msg("left")
}

// admitted returns the caller's room once it passed the waiting room.
func (o *Orchestrator) admitted(sid core.SessionID) (core.MemberSession, core.CallRoom, bool) {
	roomID, sess, ok := o.Registry.RoomOf(sid)
	if !ok || !sess.Meta().Admitted {
		return nil, nil, false
	}
	room, err := o.Rooms.Get(context.Background(), roomID)
	if err != nil {
		return nil, nil, false
	}
	return sess, room, true
}

func (o *Orchestrator) hostRoom(sid core.SessionID) (core.MemberSession, core.CallRoom, bool) {
	sess, room, ok := o.admitted(sid)
	if !ok {
		return nil, nil, false
	}
	rec := room.Room()
	if !rec.IsHost(sess.Meta().UserID) {
		log.Warn().Err(domain.ErrNotHost).Str("module", "orch").Str("sid", string(sid)).Str("room", string(rec.ID)).Msg("host command rejected")
		return nil, nil, false
	}
	return sess, room, true
}
