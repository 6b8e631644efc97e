package room

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAssignsUniqueCodes(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		rm := &Room{byConn: make(map[string]*Participant)}
		code, err := registry.Register(rm)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Equal(t, code, rm.Code)
		assert.False(t, seen[code], "code %s assigned twice", code)
		seen[code] = true
	}
	assert.Equal(t, 50, registry.Len())
}

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	rm := &Room{byConn: make(map[string]*Participant)}
	code, err := registry.Register(rm)
	require.NoError(t, err)

	got, err := registry.Get(code)
	require.NoError(t, err)
	assert.Same(t, rm, got)

	_, err = registry.Get("ZZZZZZ")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryRemove(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	rm := &Room{byConn: make(map[string]*Participant)}
	code, err := registry.Register(rm)
	require.NoError(t, err)

	registry.Remove(code)
	assert.Equal(t, 0, registry.Len())
	_, err = registry.Get(code)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// Removing an unknown code is a no-op.
	registry.Remove("ZZZZZZ")
}

func TestRegistryStale(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	now := time.Now()

	fresh := &Room{byConn: make(map[string]*Participant), lastActivity: now}
	idle := &Room{byConn: make(map[string]*Participant), lastActivity: now.Add(-3 * time.Hour)}
	_, err := registry.Register(fresh)
	require.NoError(t, err)
	idleCode, err := registry.Register(idle)
	require.NoError(t, err)

	stale := registry.Stale(2*time.Hour, now)
	require.Len(t, stale, 1)
	assert.Equal(t, idleCode, stale[0].Code)
}
