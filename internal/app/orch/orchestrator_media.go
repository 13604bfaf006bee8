package orch

import (
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// peerInRoom resolves an admitted target peer sharing the caller's room.
func (o *Orchestrator) peerInRoom(sid core.SessionID, to domain.PeerID) (from domain.PeerID, target core.MemberSession, ok bool) {
	sess, room, ok := o.admitted(sid)
	if !ok {
		return "", nil, false
	}
	target, ok = o.Registry.SessionByPeer(to)
	if !ok {
		return "", nil, false
	}
	if _, member := room.Member(target.ID()); !member || !target.Meta().Admitted {
		return "", nil, false
	}
	return sess.Meta().PeerID, target, true
}

// RelayOffer forwards a media offer to its addressee, stamping the sender.
func (o *Orchestrator) RelayOffer(sid core.SessionID, offer protocol.Offer) {
	from, target, ok := o.peerInRoom(sid, offer.To)
	if !ok {
		log.Debug().Str("module", "orch.media").Str("sid", string(sid)).Str("to", string(offer.To)).Msg("offer: no such peer")
		return
	}
	offer.From = from
	if offer.Metadata != nil {
		offer.Metadata.PeerID = from
	}
	o.emit(target, offer)
}

func (o *Orchestrator) RelayAnswer(sid core.SessionID, answer protocol.Answer) {
	from, target, ok := o.peerInRoom(sid, answer.To)
	if !ok {
		log.Debug().Str("module", "orch.media").Str("sid", string(sid)).Str("to", string(answer.To)).Msg("answer: no such peer")
		return
	}
	answer.From = from
	o.emit(target, answer)
}
