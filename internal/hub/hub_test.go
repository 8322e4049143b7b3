package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/metrics"
)

type fakeChannel struct {
	mu     sync.Mutex
	sent   [][]byte
	fail   bool
	closed bool
}

func (f *fakeChannel) Send(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrChannelClosed
	}
	if f.fail {
		return errors.New("broken pipe")
	}
	f.sent = append(f.sent, p)
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeChannel) messages(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.sent))
	for _, b := range f.sent {
		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		out = append(out, m)
	}
	return out
}

func newTestHub() (*Hub, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return New(zap.NewNop().Sugar(), m), m
}

func TestDeliverOfflineQueuesAndConnectFlushesInOrder(t *testing.T) {
	h, m := newTestHub()

	for i := 1; i <= 3; i++ {
		st := h.Deliver("alice", map[string]any{"type": "notification", "seq": i})
		assert.Equal(t, StatusQueued, st)
	}
	assert.Equal(t, 3, h.PendingCount("alice"))

	ch := &fakeChannel{}
	h.Connect("alice", ch)

	msgs := ch.messages(t)
	require.Len(t, msgs, 3)
	for i, msg := range msgs {
		assert.EqualValues(t, i+1, msg["seq"])
	}
	assert.Zero(t, h.PendingCount("alice"))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PendingFlushed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connections))
}

func TestDeliverLive(t *testing.T) {
	h, _ := newTestHub()
	ch := &fakeChannel{}
	h.Connect("bob", ch)

	assert.Equal(t, StatusSent, h.Deliver("bob", map[string]string{"type": "notification"}))
	assert.Len(t, ch.messages(t), 1)
	assert.Zero(t, h.PendingCount("bob"))
}

func TestDeliverFallsBackWhenSendFails(t *testing.T) {
	h, _ := newTestHub()
	broken := &fakeChannel{fail: true}
	h.Connect("carol", broken)

	assert.Equal(t, StatusQueued, h.Deliver("carol", map[string]int{"n": 1}))
	assert.Equal(t, 1, h.PendingCount("carol"))

	fresh := &fakeChannel{}
	h.Connect("carol", fresh)
	assert.Len(t, fresh.messages(t), 1)
	assert.Zero(t, h.PendingCount("carol"))
}

func TestDeliverUnmarshalablePayloadIsDropped(t *testing.T) {
	h, _ := newTestHub()
	assert.Equal(t, StatusDropped, h.Deliver("dave", map[string]any{"bad": make(chan int)}))
	assert.Zero(t, h.PendingCount("dave"))
}

func TestConnectReplacesAndClosesPrevious(t *testing.T) {
	h, m := newTestHub()
	first := &fakeChannel{}
	second := &fakeChannel{}

	h.Connect("erin", first)
	h.Connect("erin", second)

	assert.True(t, first.closed)
	assert.False(t, second.closed)
	assert.Equal(t, 1, h.ConnectionCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connections))

	h.Deliver("erin", map[string]string{"type": "notification"})
	assert.Empty(t, first.messages(t))
	assert.Len(t, second.messages(t), 1)
}

func TestDisconnectOnlyRemovesCurrentChannel(t *testing.T) {
	h, _ := newTestHub()
	stale := &fakeChannel{}
	current := &fakeChannel{}

	h.Connect("frank", stale)
	h.Connect("frank", current)

	assert.False(t, h.Disconnect("frank", stale))
	assert.True(t, h.IsOnline("frank"))

	assert.True(t, h.Disconnect("frank", current))
	assert.False(t, h.IsOnline("frank"))
	assert.False(t, h.Disconnect("frank", current))
}

func TestDisconnectUnknownUserIsNoop(t *testing.T) {
	h, _ := newTestHub()
	assert.False(t, h.Disconnect("nobody", &fakeChannel{}))
}

func TestFlushFailureDoesNotAbortConnect(t *testing.T) {
	h, _ := newTestHub()
	h.Deliver("gina", map[string]int{"n": 1})
	h.Deliver("gina", map[string]int{"n": 2})

	broken := &fakeChannel{fail: true}
	h.Connect("gina", broken)

	assert.True(t, h.IsOnline("gina"))
	assert.Equal(t, 2, h.PendingCount("gina"))

	ok := &fakeChannel{}
	h.Connect("gina", ok)
	msgs := ok.messages(t)
	require.Len(t, msgs, 2)
	assert.EqualValues(t, 1, msgs[0]["n"])
	assert.EqualValues(t, 2, msgs[1]["n"])
}

// boundedChannel accepts at most room payloads until drain is called.
type boundedChannel struct {
	fakeChannel
	room int
}

func (b *boundedChannel) Send(p []byte) error {
	b.mu.Lock()
	if b.room == 0 {
		b.mu.Unlock()
		return errors.New("buffer full")
	}
	b.room--
	b.mu.Unlock()
	return b.fakeChannel.Send(p)
}

func (b *boundedChannel) drain(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.room += n
}

func TestBacklogLargerThanChannelIsKeptInOrder(t *testing.T) {
	h, m := newTestHub()
	for i := 1; i <= 10; i++ {
		h.Deliver("hana", map[string]int{"seq": i})
	}

	ch := &boundedChannel{room: 4}
	h.Connect("hana", ch)
	require.Len(t, ch.messages(t), 4)
	assert.Equal(t, 6, h.PendingCount("hana"))

	// New payloads wait behind the backlog.
	assert.Equal(t, StatusQueued, h.Deliver("hana", map[string]int{"seq": 11}))
	assert.Equal(t, 7, h.PendingCount("hana"))

	ch.drain(5)
	assert.Equal(t, 5, h.Flush("hana", ch))
	assert.Equal(t, 2, h.PendingCount("hana"))

	ch.drain(10)
	assert.Equal(t, StatusSent, h.Deliver("hana", map[string]int{"seq": 12}))
	assert.Zero(t, h.PendingCount("hana"))

	msgs := ch.messages(t)
	require.Len(t, msgs, 12)
	for i, msg := range msgs {
		assert.EqualValues(t, i+1, msg["seq"])
	}
	assert.Equal(t, 11.0, testutil.ToFloat64(m.PendingFlushed))
}

func TestFlushIgnoresStaleChannel(t *testing.T) {
	h, _ := newTestHub()
	h.Deliver("ivan", map[string]int{"seq": 1})
	old := &boundedChannel{}
	h.Connect("ivan", old)
	h.Connect("ivan", &boundedChannel{})

	old.drain(1)
	assert.Zero(t, h.Flush("ivan", old))
	assert.Equal(t, 1, h.PendingCount("ivan"))
}

func TestBroadcastSkipsExcludedAndOffline(t *testing.T) {
	h, m := newTestHub()
	author, reader, broken := &fakeChannel{}, &fakeChannel{}, &fakeChannel{fail: true}
	h.Connect("author", author)
	h.Connect("reader", reader)
	h.Connect("broken", broken)

	sent := h.Broadcast(map[string]string{"type": "new_post"}, "author")

	assert.Equal(t, 1, sent)
	assert.Empty(t, author.messages(t))
	require.Len(t, reader.messages(t), 1)
	assert.Zero(t, h.PendingCount("broken"))
	assert.Zero(t, h.PendingCount("offline"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deliveries.WithLabelValues("dropped")))
}

func TestConcurrentDeliverAndConnect(t *testing.T) {
	h, _ := newTestHub()
	const users, perUser = 20, 50

	var wg sync.WaitGroup
	chans := make([]*fakeChannel, users)
	for u := 0; u < users; u++ {
		chans[u] = &fakeChannel{}
		uid := fmt.Sprintf("user-%d", u)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < perUser; i++ {
				h.Deliver(uid, map[string]int{"seq": i})
			}
		}()
		go func(ch *fakeChannel) {
			defer wg.Done()
			h.Connect(uid, ch)
		}(chans[u])
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		uid := fmt.Sprintf("user-%d", u)
		got := chans[u].messages(t)
		assert.Equal(t, perUser, len(got)+h.PendingCount(uid), uid)
		for i, msg := range got {
			assert.EqualValues(t, i, msg["seq"], uid)
		}
	}
}

func TestShutdownClosesLiveChannels(t *testing.T) {
	h, m := newTestHub()
	a, b := &fakeChannel{}, &fakeChannel{}
	h.Connect("a", a)
	h.Connect("b", b)

	h.Shutdown()

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Zero(t, h.ConnectionCount())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Connections))
}
