package call

import (
	"context"
	"errors"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/dkeye/Huddle/internal/protocol"
)

// ErrEnded is returned by actions attempted after the session finished.
var ErrEnded = errors.New("call: session ended")

// ToggleMic flips the local microphone. Unmuting is a no-op when the policy forbids it.
func (s *Session) ToggleMic() error {
	var err error
	s.do(func() {
		if s.finished {
			err = ErrEnded
			return
		}
		if s.media.Muted() && !s.allowed(domain.ActionMicrophone) {
			s.logger.Debug().Msg("microphone not allowed")
			return
		}
		if _, err = s.media.ToggleMic(); err != nil {
			s.notify(NoticeWarning, s.peerID, "Microphone is unavailable")
			return
		}
		if s.accepted {
			_ = s.send(protocol.ToggleAudio(s.self()))
		}
	})
	return err
}

// ToggleCamera turns a live camera off, or captures a fresh feed and swaps it
// into every connection before committing it locally.
func (s *Session) ToggleCamera(ctx context.Context) error {
	var (
		err     error
		capture bool
	)
	s.do(func() {
		switch {
		case s.finished:
			err = ErrEnded
		case s.media.Visible():
			if s.media.TurnOffCamera() && s.accepted {
				_ = s.send(protocol.ToggleVideo(s.self()))
			}
		case !s.allowed(domain.ActionVideo):
			s.logger.Debug().Msg("video not allowed")
		default:
			capture = true
		}
	})
	if err != nil || !capture {
		return err
	}

	g, err := s.media.CaptureCamera(ctx)
	if err != nil {
		s.do(func() { s.notify(NoticeWarning, s.peerID, "Camera is unavailable") })
		return err
	}
	s.do(func() {
		if s.finished || s.media.Visible() {
			g.Stop()
			return
		}
		s.replaceAll(media.TrackCamera, g.Track)
		s.media.CommitCamera(g)
		if s.accepted {
			_ = s.send(protocol.ToggleVideo(s.self()))
		}
	})
	return nil
}

// ShareScreen captures the display and publishes it to every connection.
// A share ending on its own is announced as stopped.
func (s *Session) ShareScreen(ctx context.Context) error {
	var (
		err error
		ok  bool
	)
	s.do(func() {
		switch {
		case s.finished:
			err = ErrEnded
		case !s.accepted:
		case !s.allowed(domain.ActionShareScreen):
			s.logger.Debug().Msg("share screen not allowed")
		default:
			ok = true
		}
	})
	if err != nil || !ok {
		return err
	}

	var g *media.Gate
	g, err = s.media.CaptureScreen(ctx, func() {
		s.post(func() {
			if s.media.Screen() == g {
				s.stopShare(true)
			}
		})
	})
	if err != nil {
		return err
	}
	s.do(func() {
		if s.finished {
			g.Stop()
			return
		}
		s.unpublishScreen()
		s.media.CommitScreen(g)
		s.registry.ClearPresent("")
		s.publishScreen(g.Track)
		_ = s.send(protocol.ShareScreen(s.self()))
	})
	return nil
}

func (s *Session) StopShareScreen() {
	s.do(func() { s.stopShare(true) })
}

// stopShare removes the local screen from every connection, then releases it.
func (s *Session) stopShare(announce bool) {
	if !s.media.Sharing() {
		return
	}
	s.unpublishScreen()
	s.media.StopShareScreen()
	if announce && s.accepted {
		_ = s.send(protocol.StopShareScreen(s.self()))
	}
}

// SetDontWatch suppresses or restores local rendering of one participant.
func (s *Session) SetDontWatch(peer domain.PeerID, on bool) {
	s.do(func() {
		if _, ok := s.registry.Snapshot().People[peer]; !ok {
			return
		}
		s.registry.Merge(map[domain.PeerID]Patch{peer: {DontWatch: ptr(on)}})
	})
}

// Leave ends the session voluntarily.
func (s *Session) Leave() {
	s.do(func() { s.finish(nil) })
}
