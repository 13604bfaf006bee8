package call

import (
	"slices"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

// SendChat appends a message locally and posts it. It reports false when
// the policy forbids chat or the client is not admitted yet.
func (s *Session) SendChat(text string) bool {
	var sent bool
	s.do(func() {
		if s.finished || !s.accepted || text == "" || !s.allowed(domain.ActionSendChat) {
			return
		}
		msg := domain.ChatMessage{
			UserID:    s.userID,
			Name:      s.cfg.Name,
			Text:      text,
			Timestamp: s.now().UnixMilli(),
		}
		s.appendChat(msg)
		sent = s.send(protocol.ChatPost{Message: msg, RoomID: s.room.ID}) == nil
	})
	return sent
}

// appendChat keeps receive order; aggregate is derived from the previous line.
func (s *Session) appendChat(msg domain.ChatMessage) {
	msg.Aggregate = false
	if n := len(s.chat); n > 0 {
		msg.Aggregate = domain.Aggregates(s.chat[n-1], msg)
	}
	s.chat = append(s.chat, msg)
}

func (s *Session) onChat(msg domain.ChatMessage) {
	if !s.accepted {
		return
	}
	s.appendChat(msg)
	if msg.UserID != s.userID {
		s.unread++
	}
}

func (s *Session) Chat() []domain.ChatMessage {
	var out []domain.ChatMessage
	s.do(func() { out = slices.Clone(s.chat) })
	return out
}

func (s *Session) Unread() int {
	var n int
	s.do(func() { n = s.unread })
	return n
}

func (s *Session) MarkChatRead() {
	s.do(func() { s.unread = 0 })
}

// SendReaction broadcasts a reaction and shows it locally.
func (s *Session) SendReaction(reaction string) bool {
	var sent bool
	s.do(func() {
		if s.finished || !s.accepted || reaction == "" || !s.allowed(domain.ActionReaction) {
			return
		}
		r := protocol.Reaction{RoomID: s.room.ID, PeerID: s.peerID, Reaction: reaction}
		if s.send(protocol.SendReaction(r)) != nil {
			return
		}
		s.onReacted(r)
		sent = true
	})
	return sent
}

func (s *Session) onReacted(r protocol.Reaction) {
	if !s.accepted {
		return
	}
	s.notify(NoticeReaction, r.PeerID, r.Reaction)
}
