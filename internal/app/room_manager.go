package app

import (
	"context"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomStore is the persisted side of rooms.
type RoomStore interface {
	CreateRoom(ctx context.Context, uid domain.UserID) (domain.Room, error)
	GetRoom(ctx context.Context, id domain.RoomID) (domain.Room, error)
	UpdateControl(ctx context.Context, id domain.RoomID, uid domain.UserID, c domain.ControlPolicy) error
}

// RoomManagerImpl keeps live rooms in memory, loading them from the store on first use.
type RoomManagerImpl struct {
	store RoomStore

	mu    sync.RWMutex
	rooms map[domain.RoomID]core.CallRoom
}

func NewRoomManager(store RoomStore) *RoomManagerImpl {
	return &RoomManagerImpl{store: store, rooms: make(map[domain.RoomID]core.CallRoom)}
}

func (f *RoomManagerImpl) Get(ctx context.Context, id domain.RoomID) (core.CallRoom, error) {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok {
		return room, nil
	}
	rec, err := f.store.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[id]; ok {
		return room, nil
	}
	room = core.NewCallRoom(rec)
	f.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room loaded")
	return room, nil
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, core.RoomInfo{ID: id, MemberCount: r.MemberCount()})
	}
	return out
}

func (f *RoomManagerImpl) StopRoom(id domain.RoomID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room stopped")
}
