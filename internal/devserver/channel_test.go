package devserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timedMessage is a broadcast frame with its receive time.
type timedMessage struct {
	event BroadcastEvent
	at    time.Time
}

// dialChannel connects a test subscriber to a channel behind httptest.
func dialChannel(t *testing.T, ch *Channel) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(ch.HandleWebSocket))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn, srv
}

// readMessages collects n frames from the connection.
func readMessages(t *testing.T, conn *websocket.Conn, n int, timeout time.Duration) []timedMessage {
	t.Helper()
	var out []timedMessage
	conn.SetReadDeadline(time.Now().Add(timeout))
	for len(out) < n {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "expected %d frames, got %d", n, len(out))
		var ev BroadcastEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		out = append(out, timedMessage{event: ev, at: time.Now()})
	}
	return out
}

// waitFor polls until the condition holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestChannel_PublishDelivers(t *testing.T) {
	ch := NewChannel(0)
	defer ch.Close()

	conn, srv := dialChannel(t, ch)
	defer srv.Close()
	defer conn.Close()

	waitFor(t, time.Second, func() bool { return ch.ClientCount() == 1 },
		"client never registered")

	ch.Publish(LogEvent("💿 Rebuilding..."))

	got := readMessages(t, conn, 1, time.Second)
	assert.Equal(t, BroadcastLog, got[0].event.Type)
	assert.Equal(t, "💿 Rebuilding...", got[0].event.Message)
}

// One file change plus one successful
// 120ms rebuild produces LOG, LOG "Rebuilt", RELOAD, each delivered at
// least the configured 50ms after its publish call.
func TestChannel_DelayedRebuildSequence(t *testing.T) {
	const delay = 50 * time.Millisecond

	ch := NewChannel(delay)
	defer ch.Close()

	conn, srv := dialChannel(t, ch)
	defer srv.Close()
	defer conn.Close()

	waitFor(t, time.Second, func() bool { return ch.ClientCount() == 1 },
		"client never registered")

	sink := NewBroadcastSink(ch)
	published := time.Now()
	sink.OnRebuildEvent(RebuildEvent{Kind: RebuildStarted})
	sink.OnRebuildEvent(RebuildEvent{Kind: RebuildFinished, OK: true, Duration: 120 * time.Millisecond})

	got := readMessages(t, conn, 3, 2*time.Second)

	assert.Equal(t, BroadcastLog, got[0].event.Type)
	assert.Equal(t, "💿 Rebuilding...", got[0].event.Message)
	assert.Equal(t, BroadcastLog, got[1].event.Type)
	assert.Equal(t, "💿 Rebuilt in 120ms", got[1].event.Message)
	assert.Equal(t, BroadcastReload, got[2].event.Type)
	assert.Empty(t, got[2].event.Message)

	for i, msg := range got {
		assert.GreaterOrEqual(t, msg.at.Sub(published), delay,
			"frame %d delivered before its delay elapsed", i)
	}
}

// A burst of delayed publishes all comes due at once; delivery must stay
// serialized (gorilla/websocket allows one writer per connection) and keep
// publish order.
func TestChannel_BurstOfDelayedPublishes(t *testing.T) {
	const frames = 500

	ch := NewChannel(20 * time.Millisecond)
	defer ch.Close()

	conn, srv := dialChannel(t, ch)
	defer srv.Close()
	defer conn.Close()

	waitFor(t, time.Second, func() bool { return ch.ClientCount() == 1 },
		"client never registered")

	for i := 0; i < frames; i++ {
		ch.Publish(LogEvent("frame " + strconv.Itoa(i)))
	}

	got := readMessages(t, conn, frames, 10*time.Second)
	for i, msg := range got {
		assert.Equal(t, "frame "+strconv.Itoa(i), msg.event.Message,
			"frames must arrive in publish order")
	}
}

func TestChannel_ClosedConnectionSkippedSilently(t *testing.T) {
	ch := NewChannel(30 * time.Millisecond)
	defer ch.Close()

	conn, srv := dialChannel(t, ch)
	defer srv.Close()

	waitFor(t, time.Second, func() bool { return ch.ClientCount() == 1 },
		"client never registered")

	// Schedule a delivery, then close the subscriber before it fires.
	ch.Publish(ReloadEvent())
	conn.Close()

	// No panic, and membership converges to the open set.
	waitFor(t, time.Second, func() bool { return ch.ClientCount() == 0 },
		"membership should converge after the client closed")
}

func TestChannel_CloseStopsDeliveries(t *testing.T) {
	ch := NewChannel(40 * time.Millisecond)

	conn, srv := dialChannel(t, ch)
	defer srv.Close()
	defer conn.Close()

	waitFor(t, time.Second, func() bool { return ch.ClientCount() == 1 },
		"client never registered")

	// In-flight delayed publish, then close before it fires: nothing may
	// reach the subscriber after Close returns.
	ch.Publish(LogEvent("too late"))
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close(), "Close must be idempotent")

	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break // closed or timed out without a frame
		}
		assert.NotContains(t, string(data), "too late",
			"no event may be emitted after Close returned")
	}
}

func TestChannel_PublishAfterCloseIsNoop(t *testing.T) {
	ch := NewChannel(0)
	require.NoError(t, ch.Close())
	ch.Publish(LogEvent("dropped")) // must not panic
	assert.Equal(t, 0, ch.ClientCount())
}

func TestChannel_OpenAndPort(t *testing.T) {
	ch := NewChannel(0)
	require.NoError(t, ch.Open(0))
	defer ch.Close()

	port := ch.Port()
	require.NotZero(t, port)

	url := "ws://127.0.0.1:" + strconv.Itoa(port) + "/socket"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitFor(t, time.Second, func() bool { return ch.ClientCount() == 1 },
		"client never registered")
}
