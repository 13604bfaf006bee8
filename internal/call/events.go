package call

import (
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

// handle routes one server event. It runs on the loop.
func (s *Session) handle(ev protocol.Event) {
	if s.finished {
		return
	}
	switch e := ev.(type) {
	case protocol.PeerOpened:
		s.onPeerOpened(e)
	case protocol.Waiting:
		s.onWaiting(e)
	case protocol.Accepted:
		s.onAccepted(domain.PeerID(e))
	case protocol.Rejected:
		s.onRejected(domain.PeerID(e))
	case protocol.JoinFailed:
		s.onJoinFailed(string(e))
	case protocol.Reconnect:
		s.onReconnect(domain.Participant(e))
	case protocol.Count:
		s.registry.SetCount(int(e))

	case protocol.Joined:
		s.onJoined(domain.Participant(e))
	case protocol.Offer:
		s.onOffer(e)
	case protocol.Answer:
		s.onAnswer(e)
	case protocol.Left:
		s.onLeft(domain.PeerID(e))

	case protocol.MutedUser:
		s.onMutedUser(domain.PeerID(e))
	case protocol.RemovedUser:
		s.onRemovedUser(domain.PeerID(e))
	case protocol.RemovedSharedScreen:
		s.onRemovedSharedScreen(domain.PeerID(e))
	case protocol.ControlChanged:
		s.onControlChanged(domain.ControlPolicy(e))
	case protocol.ChangeControlFailed:
		s.notify(NoticeWarning, "", "failed to change control")

	case protocol.ToggledAudio:
		s.onFlip(domain.PeerID(e), func(p Person) Patch { return Patch{Muted: ptr(!p.Muted)} })
	case protocol.ToggledVideo:
		s.onFlip(domain.PeerID(e), func(p Person) Patch { return Patch{Visible: ptr(!p.Visible)} })
	case protocol.MicrophoneDisabled:
		s.onFlip(domain.PeerID(e), func(Person) Patch { return Patch{Muted: ptr(true)} })
	case protocol.CameraDisabled:
		s.onFlip(domain.PeerID(e), func(Person) Patch { return Patch{Visible: ptr(false)} })
	case protocol.ToggleAudioFailed:
		s.notify(NoticeWarning, "", "failed to toggle microphone")
	case protocol.ToggleVideoFailed:
		s.notify(NoticeWarning, "", "failed to toggle camera")

	case protocol.SharedScreen:
		s.onSharedScreen(domain.PeerID(e))
	case protocol.StoppedScreenShare:
		s.onStoppedScreenShare(domain.PeerID(e))

	case protocol.Reacted:
		s.onReacted(protocol.Reaction(e))
	case protocol.ChatReceived:
		s.onChat(domain.ChatMessage(e))

	case protocol.Pong:
	default:
		s.logger.Warn().Str("type", ev.Type()).Msg("unhandled event")
	}
}
