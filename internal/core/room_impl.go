package core

import (
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// callRoom is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type callRoom struct {
	mu      sync.RWMutex
	room    domain.Room
	bySID   map[SessionID]MemberSession
	people  map[domain.PeerID]domain.Participant
	waiting map[domain.PeerID]domain.Participant
}

func NewCallRoom(room domain.Room) CallRoom {
	return &callRoom{
		room:    room,
		bySID:   make(map[SessionID]MemberSession),
		people:  make(map[domain.PeerID]domain.Participant),
		waiting: make(map[domain.PeerID]domain.Participant),
	}
}

func (r *callRoom) Room() domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.room
	room.Hosts = slices.Clone(r.room.Hosts)
	return room
}

func (r *callRoom) SetControl(c domain.ControlPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.room.Control = c
}

func (r *callRoom) AddMember(ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[ms.ID()] = ms
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(ms.ID())).Msg("member added")
}

func (r *callRoom) RemoveMember(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bySID, sid)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Msg("member removed")
}

func (r *callRoom) Member(sid SessionID) (MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms, ok := r.bySID[sid]
	return ms, ok
}

func (r *callRoom) Members() []MemberSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []MemberSession
	for _, ms := range r.bySID {
		out = append(out, ms)
	}
	return out
}

func (r *callRoom) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *callRoom) Person(peer domain.PeerID) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.people[peer]
	return p, ok
}

func (r *callRoom) PutPerson(p domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.people[p.PeerID] = p
}

func (r *callRoom) UpdatePerson(peer domain.PeerID, fn func(*domain.Participant)) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.people[peer]
	if !ok {
		return p, false
	}
	fn(&p)
	r.people[peer] = p
	return p, true
}

func (r *callRoom) RemovePerson(peer domain.PeerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, inPeople := r.people[peer]
	_, inWaiting := r.waiting[peer]
	delete(r.people, peer)
	delete(r.waiting, peer)
	return inPeople || inWaiting
}

func (r *callRoom) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.people)
}

func (r *callRoom) PutWaiting(p domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waiting[p.PeerID] = p
}

func (r *callRoom) TakeWaiting(peer domain.PeerID) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.waiting[peer]
	delete(r.waiting, peer)
	return p, ok
}

// Waiting returns the waiting set ordered by peer id.
func (r *callRoom) Waiting() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Participant
	for _, p := range r.waiting {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Participant) int { return strings.Compare(string(a.PeerID), string(b.PeerID)) })
	return out
}

func (r *callRoom) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, m := range r.bySID {
		if sid == from {
			continue
		}
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *callRoom) Unicast(to SessionID, data Frame) error {
	r.mu.RLock()
	m, ok := r.bySID[to]
	r.mu.RUnlock()
	if !ok {
		return domain.ErrUnknownPeer
	}
	return m.Signal().TrySend(data)
}
