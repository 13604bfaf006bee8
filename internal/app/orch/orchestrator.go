// Package orch coordinates signaling sessions, rooms and admission on the server.
package orch

import (
	"context"
	"sync"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Store    app.RoomStore
	Policy   app.Policy

	// mu serializes admission and presence transitions across read pumps.
	mu sync.Mutex
}

func New(reg *app.Registry, rooms core.RoomManager, store app.RoomStore, policy app.Policy) *Orchestrator {
	return &Orchestrator{Registry: reg, Rooms: rooms, Store: store, Policy: policy}
}

// Connect registers a new signaling session for the given user.
func (o *Orchestrator) Connect(sid core.SessionID, uid domain.UserID, conn core.SignalConnection, cancel context.CancelFunc) core.MemberSession {
	sess := core.NewMemberSession(sid, *domain.NewMember(uid), conn)
	o.Registry.BindSignal(sess, cancel)
	return sess
}

// Disconnect drops every trace of the session: room presence, waiting entry, peer id.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.mu.Lock()
	o.leaveRoom(sid)
	o.mu.Unlock()
	o.Registry.Unbind(sid)
}

// OpenPeer issues the caller a fresh transport identity.
func (o *Orchestrator) OpenPeer(sid core.SessionID) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	o.mu.Lock()
	// a new identity means the previous one left its room
	o.leaveRoom(sid)
	o.mu.Unlock()
	peer, ok := o.Registry.OpenPeer(sid)
	if !ok {
		return
	}
	o.emit(sess, protocol.PeerOpened{PeerID: peer, UserID: sess.Meta().UserID})
}

func (o *Orchestrator) Ping(sid core.SessionID) {
	if sess, ok := o.Registry.GetSession(sid); ok {
		o.emit(sess, protocol.Pong{})
	}
}

// KickBySID closes the session's transport; cleanup runs from the read pump.
func (o *Orchestrator) KickBySID(sid core.SessionID) {
	o.Registry.Cancel(sid)
}

func (o *Orchestrator) emit(sess core.MemberSession, m protocol.Message) {
	if err := core.Send(sess.Signal(), m); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sess.ID())).Str("type", m.Type()).Msg("emit failed")
	}
}

func (o *Orchestrator) emitTo(peer domain.PeerID, m protocol.Message) bool {
	sess, ok := o.Registry.SessionByPeer(peer)
	if !ok {
		return false
	}
	o.emit(sess, m)
	return true
}

// broadcast fans m out to every member except from and applies the
// backpressure policy to members that could not keep up.
func (o *Orchestrator) broadcast(room core.CallRoom, from core.SessionID, m protocol.Message) {
	frame, err := protocol.Encode(m)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("broadcast encode")
		return
	}
	res := room.Broadcast(from, frame)
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(slow.ID())).Msg("kicking slow member")
			o.KickBySID(slow.ID())
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}

// broadcastCount sends every member the number of admitted people other than itself.
func (o *Orchestrator) broadcastCount(room core.CallRoom) {
	total := room.Count()
	for _, sess := range room.Members() {
		n := total
		if _, in := room.Person(sess.Meta().PeerID); in {
			n--
		}
		o.emit(sess, protocol.Count(n))
	}
}
