package call

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Huddle/internal/domain"
)

func TestMergeDisjointFieldsCommutes(t *testing.T) {
	track := newRemoteTrack("cam", webrtc.RTPCodecTypeVideo)
	muted := map[domain.PeerID]Patch{"p1": {Muted: ptr(true)}}
	bound := map[domain.PeerID]Patch{"p1": {AddTrack: track, Name: ptr("Ann")}}

	a := NewRegistry()
	a.Merge(muted)
	a.Merge(bound)

	b := NewRegistry()
	b.Merge(bound)
	b.Merge(muted)

	assert.Equal(t, a.Snapshot().People, b.Snapshot().People)
	p := a.Snapshot().People["p1"]
	assert.Equal(t, domain.PeerID("p1"), p.PeerID)
	assert.True(t, p.Muted)
	assert.Equal(t, "Ann", p.Name)
	assert.Len(t, p.Tracks, 1)
}

func TestMergeKeepsOldSnapshotIntact(t *testing.T) {
	r := NewRegistry()
	r.Merge(map[domain.PeerID]Patch{"p1": {Name: ptr("Ann")}})
	before := r.Snapshot()

	r.Merge(map[domain.PeerID]Patch{"p1": {Muted: ptr(true)}, "p2": {Name: ptr("Bob")}})

	assert.Len(t, before.People, 1)
	assert.False(t, before.People["p1"].Muted)
	assert.Len(t, r.Snapshot().People, 2)
	assert.Equal(t, "Ann", r.Snapshot().People["p1"].Name)
}

func TestMergeTrackAddAndDrop(t *testing.T) {
	r := NewRegistry()
	cam := newRemoteTrack("cam", webrtc.RTPCodecTypeVideo)
	mic := newRemoteTrack("mic", webrtc.RTPCodecTypeAudio)
	r.Merge(map[domain.PeerID]Patch{"p1": {AddTrack: cam}})
	r.Merge(map[domain.PeerID]Patch{"p1": {AddTrack: mic}})
	r.Merge(map[domain.PeerID]Patch{"p1": {AddTrack: cam}})
	held := r.Snapshot().People["p1"].Tracks
	require.Len(t, held, 2)

	r.Merge(map[domain.PeerID]Patch{"p1": {DropTrack: cam}})
	assert.Len(t, held, 2)
	assert.Len(t, r.Snapshot().People["p1"].Tracks, 1)
}

func TestRemoveClearsBothMapsAndPresenter(t *testing.T) {
	r := NewRegistry()
	screen := newRemoteTrack("screen", webrtc.RTPCodecTypeVideo)
	r.Merge(map[domain.PeerID]Patch{"p1": {Name: ptr("Ann")}})
	r.MergeWaiting(map[domain.PeerID]Patch{"p1": {Name: ptr("Ann")}, "p2": {Name: ptr("Bob")}})
	r.Present("p1", screen)

	assert.True(t, r.Remove("p1"))
	snap := r.Snapshot()
	assert.NotContains(t, snap.People, domain.PeerID("p1"))
	assert.NotContains(t, snap.Waiting, domain.PeerID("p1"))
	assert.Contains(t, snap.Waiting, domain.PeerID("p2"))
	assert.Empty(t, snap.PresentID)
	assert.Nil(t, snap.SharedScreen)

	assert.False(t, r.Remove("ghost"))
	assert.Same(t, snap, r.Snapshot())
}

func TestClearPresentOnlyForHolder(t *testing.T) {
	r := NewRegistry()
	screen := newRemoteTrack("screen", webrtc.RTPCodecTypeVideo)
	r.Present("p1", screen)

	assert.False(t, r.ClearPresent("p2"))
	assert.Equal(t, domain.PeerID("p1"), r.Snapshot().PresentID)

	assert.False(t, r.ClearPresentTrack(newRemoteTrack("other", webrtc.RTPCodecTypeVideo)))
	assert.True(t, r.ClearPresentTrack(screen))
	assert.Empty(t, r.Snapshot().PresentID)

	r.Present("p1", screen)
	assert.True(t, r.ClearPresent(""))
	assert.False(t, r.ClearPresent(""))
}
