package rtc

import (
	"context"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Huddle/internal/core"
)

var _ core.MediaDialer = (*Factory)(nil)
var _ core.MediaConnection = (*WebRTCConnection)(nil)

func newTrack(t *testing.T, id string) *webrtc.TrackLocalStaticRTP {
	t.Helper()
	track, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, id, "stream")
	require.NoError(t, err)
	return track
}

func TestOfferAnswerNegotiation(t *testing.T) {
	f, err := NewFactory(nil)
	require.NoError(t, err)

	caller, err := f.NewConnection("callee")
	require.NoError(t, err)
	callee, err := f.NewConnection("caller")
	require.NoError(t, err)
	t.Cleanup(caller.Close)
	t.Cleanup(callee.Close)

	require.NoError(t, caller.Start(context.Background()))
	require.NoError(t, callee.Start(context.Background()))

	sender, err := caller.AddLocalTrack(newTrack(t, "camera"))
	require.NoError(t, err)
	assert.Equal(t, "camera", sender.Track().ID())

	offer, err := caller.CreateOffer()
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeOffer, offer.Type)

	answer, err := callee.ApplyOfferAndCreateAnswer(*offer)
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	require.NoError(t, caller.ApplyAnswer(*answer))

	// replacing keeps the same sender
	require.NoError(t, sender.ReplaceTrack(newTrack(t, "camera")))
	require.NoError(t, caller.RemoveSender(sender))
}

func TestRemoveForeignSender(t *testing.T) {
	f, err := NewFactory(nil)
	require.NoError(t, err)
	c, err := f.NewConnection("p")
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.ErrorIs(t, c.RemoveSender(foreignSender{}), ErrForeignSender)
}

type foreignSender struct{}

func (foreignSender) Track() webrtc.TrackLocal              { return nil }
func (foreignSender) ReplaceTrack(webrtc.TrackLocal) error { return nil }

func TestCloseRunsCallbackOnce(t *testing.T) {
	f, err := NewFactory([]string{"stun:stun.l.google.com:19302"})
	require.NoError(t, err)
	c, err := f.NewConnection("p")
	require.NoError(t, err)

	calls := 0
	c.OnClosed(func() { calls++ })
	require.NoError(t, c.Start(context.Background()))

	c.Close()
	c.Close()
	assert.True(t, c.IsClosed())
	assert.Equal(t, 1, calls)

	_, err = c.AddLocalTrack(newTrack(t, "camera"))
	assert.ErrorIs(t, err, ErrClosed)
}
