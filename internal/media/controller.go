// Package media owns the local capture tracks of one participant.
package media

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Status int

const (
	StatusIdle Status = iota
	StatusSuccess
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRejected:
		return "rejected"
	default:
		return "idle"
	}
}

// Track ids double as role tags on the wire.
const (
	TrackAudio  = "audio"
	TrackCamera = "camera"
	TrackScreen = "screen"
)

var (
	audioCodec = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}
	videoCodec = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}
)

// Controller is the single owner of the local tracks. Connections only hold references.
type Controller struct {
	devices Devices
	stream  string
	logger  zerolog.Logger

	mu      sync.RWMutex
	status  Status
	mic     *Gate
	camera  *Gate
	screen  *Gate
	muted   bool
	visible bool
}

func NewController(devices Devices, stream string) *Controller {
	return &Controller{
		devices: devices,
		stream:  stream,
		logger:  log.With().Str("module", "media").Str("stream", stream).Logger(),
		visible: true,
	}
}

// Start captures microphone and camera independently. A denied modality is
// left off; when both are denied the status becomes rejected and the outbound
// set is a silent placeholder.
func (c *Controller) Start(ctx context.Context) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusSuccess {
		return c.status
	}

	micSrc, micErr := c.devices.Microphone(ctx)
	if micErr != nil {
		c.logger.Warn().Err(micErr).Msg("audio permission denied")
	}
	camSrc, camErr := c.devices.Camera(ctx)
	if camErr != nil {
		c.logger.Warn().Err(camErr).Msg("video permission denied")
	}

	var err error
	if micSrc != nil {
		if c.mic, err = newGate(TrackAudio, c.stream, audioCodec, micSrc); err != nil {
			c.logger.Error().Err(err).Msg("audio track")
			_ = micSrc.Close()
			c.mic = nil
		}
	}
	if c.camera, err = newGate(TrackCamera, c.stream, videoCodec, camSrc); err != nil {
		c.logger.Error().Err(err).Msg("video track")
		if camSrc != nil {
			_ = camSrc.Close()
		}
		c.camera = nil
	}

	if c.mic == nil && (c.camera == nil || c.camera.src == nil) {
		c.status = StatusRejected
		c.muted = true
		c.visible = false
		c.logger.Warn().Msg("both audio and video permissions were denied")
		return c.status
	}

	c.status = StatusSuccess
	c.muted = c.mic == nil
	c.visible = c.camera != nil && c.camera.src != nil
	if c.mic != nil {
		go c.mic.run(c.logger.With().Str("track", TrackAudio).Logger())
	}
	if c.visible {
		go c.camera.run(c.logger.With().Str("track", TrackCamera).Logger())
	}
	return c.status
}

func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Controller) Muted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.muted
}

func (c *Controller) Visible() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visible
}

func (c *Controller) Sharing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.screen != nil
}

// Screen returns the gate of the current share, if any.
func (c *Controller) Screen() *Gate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.screen
}

// Tracks is the outbound set for a new connection: audio, camera (or a
// placeholder), then the screen while sharing.
func (c *Controller) Tracks() []webrtc.TrackLocal {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]webrtc.TrackLocal, 0, 3)
	if c.mic != nil {
		out = append(out, c.mic.Track)
	}
	if c.camera == nil {
		g, err := newGate(TrackCamera, c.stream, videoCodec, nil)
		if err != nil {
			c.logger.Error().Err(err).Msg("placeholder track")
		} else {
			c.camera = g
		}
	}
	if c.camera != nil {
		out = append(out, c.camera.Track)
	}
	if c.screen != nil {
		out = append(out, c.screen.Track)
	}
	return out
}

// SetMic enables or disables the microphone without touching any connection.
func (c *Controller) SetMic(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mic == nil {
		return ErrNoStream
	}
	c.mic.SetEnabled(on)
	c.muted = !on
	return nil
}

// ToggleMic flips the microphone and reports the new muted state.
func (c *Controller) ToggleMic() (bool, error) {
	if err := c.SetMic(c.Muted()); err != nil {
		return c.Muted(), err
	}
	return c.Muted(), nil
}

// TurnOffCamera stops a live camera. It reports whether anything changed.
func (c *Controller) TurnOffCamera() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.camera == nil || c.camera.State() == GateStopped {
		return false
	}
	c.camera.Stop()
	c.visible = false
	return true
}

// CaptureCamera opens a fresh camera feed without publishing it. The caller
// swaps the returned track into every connection, then calls CommitCamera.
func (c *Controller) CaptureCamera(ctx context.Context) (*Gate, error) {
	src, err := c.devices.Camera(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture camera: %w", err)
	}
	g, err := newGate(TrackCamera, c.stream, videoCodec, src)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return g, nil
}

func (c *Controller) CommitCamera(g *Gate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.camera != nil {
		c.camera.Stop()
	}
	c.camera = g
	c.visible = true
	if c.status == StatusIdle {
		c.status = StatusSuccess
	}
	go g.run(c.logger.With().Str("track", TrackCamera).Logger())
}

// CaptureScreen opens a display feed. onEnded runs when the feed ends on its own.
func (c *Controller) CaptureScreen(ctx context.Context, onEnded func()) (*Gate, error) {
	src, err := c.devices.Display(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture display: %w", err)
	}
	g, err := newGate(TrackScreen, c.stream, videoCodec, src)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	g.onEnded = onEnded
	return g, nil
}

// CommitScreen publishes g as the shared screen and returns the share it replaced.
func (c *Controller) CommitScreen(g *Gate) *Gate {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.screen
	if prev != nil {
		prev.Stop()
	}
	c.screen = g
	go g.run(c.logger.With().Str("track", TrackScreen).Logger())
	return prev
}

// StopShareScreen ends the current share and returns its gate.
func (c *Controller) StopShareScreen() (*Gate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.screen
	if g == nil {
		return nil, false
	}
	c.screen = nil
	g.Stop()
	return g, true
}

// Reset stops every capture and returns to the idle defaults.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range []*Gate{c.mic, c.camera, c.screen} {
		if g != nil {
			g.Stop()
		}
	}
	c.mic, c.camera, c.screen = nil, nil, nil
	c.status = StatusIdle
	c.muted = false
	c.visible = true
}
