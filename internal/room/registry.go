package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry holds every live room keyed by join code. It is always injected;
// there is no package-level instance.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	logger zerolog.Logger
}

// NewRegistry creates an empty room registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		logger: logger.With().Str("component", "room_registry").Logger(),
	}
}

// Register inserts a room under a freshly generated unique code and returns
// the code.
func (r *Registry) Register(room *Room) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Try up to 10 times before giving up on a unique code.
	for attempt := 0; attempt < 10; attempt++ {
		code, err := NewRoomCode()
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		if _, exists := r.rooms[code]; exists {
			continue
		}
		room.Code = code
		r.rooms[code] = room
		r.logger.Info().Str("room_code", code).Int("live_rooms", len(r.rooms)).Msg("room registered")
		return code, nil
	}
	return "", fmt.Errorf("could not allocate a unique room code")
}

// Get returns a live room by code.
func (r *Registry) Get(code string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[code]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Remove drops a room from the registry.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[code]; exists {
		delete(r.rooms, code)
		r.logger.Info().Str("room_code", code).Int("live_rooms", len(r.rooms)).Msg("room removed")
	}
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Stale returns rooms whose last activity is older than maxAge.
func (r *Registry) Stale(maxAge time.Duration, now time.Time) []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stale []*Room
	for _, room := range r.rooms {
		room.mu.Lock()
		idle := now.Sub(room.lastActivity)
		room.mu.Unlock()
		if idle > maxAge {
			stale = append(stale, room)
		}
	}
	return stale
}
