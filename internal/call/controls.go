package call

import (
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

func (s *Session) allowed(a domain.Action) bool {
	return s.control.Allows(a, s.host)
}

// onControlChanged applies a host policy broadcast and, for non-hosts,
// brings local media back inside it.
func (s *Session) onControlChanged(next domain.ControlPolicy) {
	prev := s.control
	s.control = next
	s.logger.Info().Interface("control", next).Msg("control changed")
	if s.host {
		return
	}
	s.reconcile(prev, next)
}

func (s *Session) reconcile(prev, next domain.ControlPolicy) {
	if !next.AllowMicrophone && (prev.AllowMicrophone || !s.media.Muted()) {
		wasOn := !s.media.Muted()
		if wasOn {
			if err := s.media.SetMic(false); err != nil {
				s.logger.Debug().Err(err).Msg("mute microphone")
			}
		}
		if s.accepted {
			_ = s.send(protocol.DisableMicrophone(s.self()))
		}
		if wasOn {
			s.notify(NoticeWarning, s.peerID, "Microphone disabled by host")
		}
	}

	if !next.AllowVideo && (prev.AllowVideo || s.media.Visible()) {
		wasOn := s.media.TurnOffCamera()
		if s.accepted {
			_ = s.send(protocol.DisableCamera(s.self()))
		}
		if wasOn {
			s.notify(NoticeWarning, s.peerID, "Camera disabled by host")
		}
	}

	if !next.AllowShareScreen {
		if s.media.Sharing() {
			s.stopShare(true)
			s.notify(NoticeWarning, s.peerID, "Screen sharing disabled by host")
		} else if prev.AllowShareScreen {
			// Local containment only: a remote presenter may still be sending.
			s.registry.ClearPresent("")
		}
	}
}
