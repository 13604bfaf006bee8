package media

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	packets chan *rtp.Packet
	once    sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{packets: make(chan *rtp.Packet, 4)}
}

func (s *fakeSource) ReadRTP() (*rtp.Packet, error) {
	pkt, ok := <-s.packets
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

func (s *fakeSource) Close() error {
	s.once.Do(func() { close(s.packets) })
	return nil
}

type fakeDevices struct {
	mic, cam, display bool
	screens           []*fakeSource
}

func (d *fakeDevices) Microphone(context.Context) (Source, error) {
	if !d.mic {
		return nil, ErrPermissionDenied
	}
	return newFakeSource(), nil
}

func (d *fakeDevices) Camera(context.Context) (Source, error) {
	if !d.cam {
		return nil, ErrPermissionDenied
	}
	return newFakeSource(), nil
}

func (d *fakeDevices) Display(context.Context) (Source, error) {
	if !d.display {
		return nil, ErrPermissionDenied
	}
	s := newFakeSource()
	d.screens = append(d.screens, s)
	return s, nil
}

func trackIDs(c *Controller) []string {
	var ids []string
	for _, t := range c.Tracks() {
		ids = append(ids, t.ID())
	}
	return ids
}

func TestStartCapturesBoth(t *testing.T) {
	c := NewController(&fakeDevices{mic: true, cam: true}, "s")
	assert.Equal(t, StatusSuccess, c.Start(context.Background()))
	assert.False(t, c.Muted())
	assert.True(t, c.Visible())
	assert.Equal(t, []string{TrackAudio, TrackCamera}, trackIDs(c))
}

func TestStartPartialAndRejected(t *testing.T) {
	c := NewController(&fakeDevices{cam: true}, "s")
	assert.Equal(t, StatusSuccess, c.Start(context.Background()))
	assert.True(t, c.Muted())
	assert.ErrorIs(t, c.SetMic(true), ErrNoStream)

	c = NewController(&fakeDevices{}, "s")
	assert.Equal(t, StatusRejected, c.Start(context.Background()))
	assert.True(t, c.Muted())
	assert.False(t, c.Visible())
	// a placeholder keeps the outbound set non-empty
	assert.Equal(t, []string{TrackCamera}, trackIDs(c))
}

func TestToggleMic(t *testing.T) {
	c := NewController(&fakeDevices{mic: true}, "s")
	c.Start(context.Background())

	muted, err := c.ToggleMic()
	require.NoError(t, err)
	assert.True(t, muted)
	assert.Equal(t, GateMuted, c.mic.State())

	muted, err = c.ToggleMic()
	require.NoError(t, err)
	assert.False(t, muted)
	assert.True(t, c.mic.Live())
}

func TestCameraOffThenRecapture(t *testing.T) {
	c := NewController(&fakeDevices{mic: true, cam: true}, "s")
	c.Start(context.Background())
	old := c.camera

	assert.True(t, c.TurnOffCamera())
	assert.False(t, c.TurnOffCamera())
	assert.False(t, c.Visible())

	g, err := c.CaptureCamera(context.Background())
	require.NoError(t, err)
	assert.False(t, c.Visible(), "capture alone does not publish")

	c.CommitCamera(g)
	assert.True(t, c.Visible())
	assert.NotSame(t, old, c.camera)
	assert.Equal(t, TrackCamera, g.Track.ID())
}

func TestCaptureCameraDenied(t *testing.T) {
	c := NewController(&fakeDevices{mic: true}, "s")
	c.Start(context.Background())
	_, err := c.CaptureCamera(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestScreenShareEndsOnItsOwn(t *testing.T) {
	d := &fakeDevices{mic: true, cam: true, display: true}
	c := NewController(d, "s")
	c.Start(context.Background())

	ended := make(chan struct{})
	g, err := c.CaptureScreen(context.Background(), func() { close(ended) })
	require.NoError(t, err)
	assert.Nil(t, c.CommitScreen(g))
	assert.True(t, c.Sharing())
	assert.Equal(t, []string{TrackAudio, TrackCamera, TrackScreen}, trackIDs(c))

	d.screens[0].packets <- &rtp.Packet{}
	_ = d.screens[0].Close()
	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatal("onEnded not called")
	}
}

func TestStopShareScreenDoesNotReportEnded(t *testing.T) {
	d := &fakeDevices{display: true}
	c := NewController(d, "s")

	called := false
	g, err := c.CaptureScreen(context.Background(), func() { called = true })
	require.NoError(t, err)
	c.CommitScreen(g)

	stopped, ok := c.StopShareScreen()
	require.True(t, ok)
	<-stopped.Done()
	assert.False(t, called)
	assert.False(t, c.Sharing())

	_, ok = c.StopShareScreen()
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	c := NewController(&fakeDevices{mic: true, cam: true}, "s")
	c.Start(context.Background())
	mic := c.mic
	c.Reset()
	<-mic.Done()
	assert.Equal(t, StatusIdle, c.Status())
	assert.False(t, c.Muted())
	assert.True(t, c.Visible())
}
