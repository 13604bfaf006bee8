package call

import (
	"time"

	"github.com/dkeye/Huddle/internal/domain"
)

type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeWarning
	NoticeReaction
	// NoticeReload asks the embedder to rejoin after Delay.
	NoticeReload
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeWarning:
		return "warning"
	case NoticeReaction:
		return "reaction"
	case NoticeReload:
		return "reload"
	default:
		return "info"
	}
}

// Notice is a user-facing message raised by the session.
type Notice struct {
	Kind   NoticeKind
	Text   string
	PeerID domain.PeerID
	Delay  time.Duration
}

type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

func (s *Session) notify(kind NoticeKind, peer domain.PeerID, text string) {
	s.notifier.Notify(Notice{Kind: kind, PeerID: peer, Text: text})
}
