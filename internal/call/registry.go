package call

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Person is one remote participant as this client sees it.
type Person struct {
	domain.Participant
	Conn      core.MediaConnection
	Tracks    []core.RemoteTrack
	DontWatch bool
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	UserID    *domain.UserID
	Name      *string
	Photo     *string
	Muted     *bool
	Visible   *bool
	Host      *bool
	DontWatch *bool
	Conn      core.MediaConnection
	AddTrack  core.RemoteTrack
	DropTrack core.RemoteTrack
}

func ptr[T any](v T) *T { return &v }

// FromParticipant builds a patch carrying every field of p.
func FromParticipant(p domain.Participant) Patch {
	return Patch{
		UserID:  ptr(p.UserID),
		Name:    ptr(p.Name),
		Photo:   ptr(p.Photo),
		Muted:   ptr(p.Muted),
		Visible: ptr(p.Visible),
		Host:    ptr(p.Host),
	}
}

func (p Patch) apply(dst *Person) {
	if p.UserID != nil {
		dst.UserID = *p.UserID
	}
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Photo != nil {
		dst.Photo = *p.Photo
	}
	if p.Muted != nil {
		dst.Muted = *p.Muted
	}
	if p.Visible != nil {
		dst.Visible = *p.Visible
	}
	if p.Host != nil {
		dst.Host = *p.Host
	}
	if p.DontWatch != nil {
		dst.DontWatch = *p.DontWatch
	}
	if p.Conn != nil {
		dst.Conn = p.Conn
	}
	if p.AddTrack != nil && !slices.Contains(dst.Tracks, p.AddTrack) {
		dst.Tracks = append(slices.Clone(dst.Tracks), p.AddTrack)
	}
	if p.DropTrack != nil {
		dst.Tracks = slices.DeleteFunc(slices.Clone(dst.Tracks), func(t core.RemoteTrack) bool {
			return t == p.DropTrack
		})
	}
}

// Snapshot is an immutable view of the registry. Callers must not modify its maps.
type Snapshot struct {
	People       map[domain.PeerID]Person
	Waiting      map[domain.PeerID]Person
	Count        int
	PresentID    domain.PeerID
	SharedScreen core.RemoteTrack
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		People:  map[domain.PeerID]Person{},
		Waiting: map[domain.PeerID]Person{},
	}
}

// Registry holds the participant maps. Every write produces a new snapshot.
type Registry struct {
	mu  sync.Mutex
	cur atomic.Pointer[Snapshot]
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.cur.Store(emptySnapshot())
	return r
}

func (r *Registry) Snapshot() *Snapshot { return r.cur.Load() }

func (r *Registry) update(fn func(next *Snapshot) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := *r.cur.Load()
	if !fn(&next) {
		return false
	}
	r.cur.Store(&next)
	return true
}

func mergeInto(m map[domain.PeerID]Person, patches map[domain.PeerID]Patch) map[domain.PeerID]Person {
	out := maps.Clone(m)
	for id, patch := range patches {
		p, ok := out[id]
		if !ok {
			p.PeerID = id
		}
		patch.apply(&p)
		out[id] = p
	}
	return out
}

// Merge shallow-merges each patch into the matching participant, creating it if absent.
func (r *Registry) Merge(patches map[domain.PeerID]Patch) {
	r.update(func(next *Snapshot) bool {
		next.People = mergeInto(next.People, patches)
		return true
	})
}

func (r *Registry) MergeWaiting(patches map[domain.PeerID]Patch) {
	r.update(func(next *Snapshot) bool {
		next.Waiting = mergeInto(next.Waiting, patches)
		return true
	})
}

// Remove drops peer from both maps and releases the presenter slot it held.
// It reports whether anything changed.
func (r *Registry) Remove(peer domain.PeerID) bool {
	return r.update(func(next *Snapshot) bool {
		_, inPeople := next.People[peer]
		_, inWaiting := next.Waiting[peer]
		presenting := next.PresentID == peer && peer != ""
		if !inPeople && !inWaiting && !presenting {
			return false
		}
		if inPeople {
			next.People = maps.Clone(next.People)
			delete(next.People, peer)
		}
		if inWaiting {
			next.Waiting = maps.Clone(next.Waiting)
			delete(next.Waiting, peer)
		}
		if presenting {
			next.PresentID = ""
			next.SharedScreen = nil
		}
		return true
	})
}

func (r *Registry) RemoveWaiting(peer domain.PeerID) bool {
	return r.update(func(next *Snapshot) bool {
		if _, ok := next.Waiting[peer]; !ok {
			return false
		}
		next.Waiting = maps.Clone(next.Waiting)
		delete(next.Waiting, peer)
		return true
	})
}

func (r *Registry) SetCount(n int) {
	r.update(func(next *Snapshot) bool {
		next.Count = n
		return true
	})
}

// Present records peer as the single recognized presenter.
func (r *Registry) Present(peer domain.PeerID, track core.RemoteTrack) {
	r.update(func(next *Snapshot) bool {
		next.PresentID = peer
		next.SharedScreen = track
		return true
	})
}

// ClearPresent empties the shared-screen slot when peer holds it.
// An empty peer clears it unconditionally.
func (r *Registry) ClearPresent(peer domain.PeerID) bool {
	return r.update(func(next *Snapshot) bool {
		if next.PresentID == "" && next.SharedScreen == nil {
			return false
		}
		if peer != "" && next.PresentID != peer {
			return false
		}
		next.PresentID = ""
		next.SharedScreen = nil
		return true
	})
}

// ClearPresentTrack empties the shared-screen slot when it shows track.
func (r *Registry) ClearPresentTrack(track core.RemoteTrack) bool {
	return r.update(func(next *Snapshot) bool {
		if next.SharedScreen == nil || next.SharedScreen != track {
			return false
		}
		next.PresentID = ""
		next.SharedScreen = nil
		return true
	})
}

func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cur.Store(emptySnapshot())
}
