package core

import (
	"sync"

	"github.com/dkeye/Huddle/internal/domain"
)

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	id   SessionID
	conn SignalConnection

	mu   sync.RWMutex
	meta domain.Member
}

func NewMemberSession(id SessionID, meta domain.Member, conn SignalConnection) MemberSession {
	return &memberSession{id: id, meta: meta, conn: conn}
}

func (m *memberSession) ID() SessionID            { return m.id }
func (m *memberSession) Signal() SignalConnection { return m.conn }

func (m *memberSession) Meta() domain.Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta
}

func (m *memberSession) UpdateMeta(fn func(*domain.Member)) domain.Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.meta)
	return m.meta
}
