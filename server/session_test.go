package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu       sync.Mutex
	received [][]byte
	closed   bool
}

func (f *fakeSink) Send(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, b)
}

func (f *fakeSink) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSink) getReceived() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received
}

func TestSession_Send_SkipsWhenClosed(t *testing.T) {
	sink := &fakeSink{}
	s := newSession(sink)

	s.Send([]byte("first"))
	s.markClosed()
	s.Send([]byte("dropped"))

	assert.Len(t, sink.getReceived(), 1)
	assert.False(t, s.IsActive())
}

func TestSession_Close_DelegatesToSink(t *testing.T) {
	sink := &fakeSink{}
	s := newSession(sink)

	s.Close()

	assert.True(t, sink.closed)
}

func TestSession_RoomAndPlayerInfo(t *testing.T) {
	s := newSession(&fakeSink{})

	assert.Equal(t, "", s.CurrentRoomID())

	s.SetCurrentRoomID("room1")
	assert.Equal(t, "room1", s.CurrentRoomID())

	s.SetPlayerInfo("Ada", "#fff")
	assert.Equal(t, "Ada", s.PlayerName())
	assert.Equal(t, "#fff", s.PlayerColor())
}

func TestSessionRegistry_CreateAndLookup(t *testing.T) {
	reg := NewSessionRegistry()
	connHandle := &struct{}{}

	s := reg.Create(connHandle, &fakeSink{})

	assert.Equal(t, s, reg.GetByConn(connHandle))
	assert.Equal(t, s, reg.GetByID(s.ID))
	assert.Equal(t, 1, reg.Count())
}

func TestSessionRegistry_Remove(t *testing.T) {
	reg := NewSessionRegistry()
	connHandle := &struct{}{}
	s := reg.Create(connHandle, &fakeSink{})

	removed := reg.Remove(connHandle)

	require.NotNil(t, removed)
	assert.Equal(t, s.ID, removed.ID)
	assert.False(t, removed.IsActive())
	assert.Nil(t, reg.GetByConn(connHandle))
	assert.Nil(t, reg.GetByID(s.ID))
	assert.Equal(t, 0, reg.Count())
}

func TestSessionRegistry_Remove_UnknownIsNil(t *testing.T) {
	reg := NewSessionRegistry()
	assert.Nil(t, reg.Remove(&struct{}{}))
}

func TestSessionRegistry_CloseAll(t *testing.T) {
	reg := NewSessionRegistry()
	sinkA, sinkB := &fakeSink{}, &fakeSink{}
	reg.Create(&struct{}{}, sinkA)
	reg.Create(&struct{}{}, sinkB)

	reg.CloseAll()

	assert.True(t, sinkA.closed)
	assert.True(t, sinkB.closed)
}
