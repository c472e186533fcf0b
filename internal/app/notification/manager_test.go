package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/mixbox/internal/app/playback"
	"github.com/osa030/mixbox/internal/domain/track"
)

type recordingStream struct {
	mu  sync.Mutex
	got []*Notification
	err error
}

func (s *recordingStream) Send(n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, n)
	return nil
}

func (s *recordingStream) received() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Notification(nil), s.got...)
}

type blockingStream struct {
	release chan struct{}
}

func (s *blockingStream) Send(*Notification) error {
	<-s.release
	return nil
}

func TestManager_Broadcast(t *testing.T) {
	m := NewManager(0)
	a := &recordingStream{}
	b := &recordingStream{}
	m.Subscribe(a)
	m.Subscribe(b)

	m.Broadcast(&Notification{Type: "track_changed"})
	m.Broadcast(&Notification{Type: "state_changed"})

	for _, s := range []*recordingStream{a, b} {
		got := s.received()
		require.Len(t, got, 2)
		assert.Equal(t, uint64(1), got[0].SequenceNo)
		assert.Equal(t, uint64(2), got[1].SequenceNo)
		assert.Equal(t, "state_changed", got[1].Type)
	}
}

func TestManager_BroadcastRemovesClosedStreams(t *testing.T) {
	m := NewManager(0)
	m.Subscribe(&recordingStream{err: ErrStreamClosed})
	m.Subscribe(&recordingStream{err: errors.New("transient")})
	m.Subscribe(&recordingStream{})

	m.Broadcast(&Notification{Type: "queue_ended"})
	assert.Equal(t, 2, m.SubscriberCount())
}

func TestManager_BroadcastTimeout(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	blocked := &blockingStream{release: make(chan struct{})}
	defer close(blocked.release)
	ok := &recordingStream{}
	m.Subscribe(blocked)
	m.Subscribe(ok)

	start := time.Now()
	m.Broadcast(&Notification{Type: "track_changed"})

	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, ok.received(), 1)
}

func TestManager_SendAndUnsubscribe(t *testing.T) {
	m := NewManager(0)
	s := &recordingStream{}
	id := m.Subscribe(s)

	require.NoError(t, m.Send(id, &Notification{Type: "state_changed"}))
	assert.Len(t, s.received(), 1)

	m.Unsubscribe(id)
	assert.Error(t, m.Send(id, &Notification{}))
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestChannelStream(t *testing.T) {
	s := NewChannelStream(1)

	require.NoError(t, s.Send(&Notification{Type: "a"}))
	assert.ErrorIs(t, s.Send(&Notification{Type: "b"}), ErrStreamFull)

	n := <-s.C()
	assert.Equal(t, "a", n.Type)

	s.Close()
	s.Close()
	assert.ErrorIs(t, s.Send(&Notification{}), ErrStreamClosed)
}

func TestFromEvent(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := &track.Track{ID: "t1"}

	n := FromEvent(playback.Event{
		Type:        playback.EventTrackChanged,
		Track:       tr,
		Index:       2,
		State:       playback.StatePlaying,
		QueueLength: 5,
	}, at)

	assert.Equal(t, "track_changed", n.Type)
	assert.Equal(t, "playing", n.State)
	assert.Equal(t, 2, n.Index)
	assert.Equal(t, 5, n.QueueLength)
	assert.Equal(t, "t1", n.Track.ID)
	assert.Equal(t, at, n.At)
	assert.Zero(t, n.SequenceNo)
}
