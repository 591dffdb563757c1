package notifications

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	kind int
	data []byte
}

// fakeConn replays inbound frames then fails reads; writes are recorded.
type fakeConn struct {
	mu      sync.Mutex
	inbound []frame
	written []frame
	closed  bool
	failW   bool
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) writes() []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]frame(nil), f.written...)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inbound) == 0 {
		return 0, nil, errors.New("connection closed")
	}
	next := f.inbound[0]
	f.inbound = f.inbound[1:]
	return next.kind, next.data, nil
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failW {
		return errors.New("broken pipe")
	}
	f.written = append(f.written, frame{kind: kind, data: append([]byte(nil), data...)})
	return nil
}

func TestClient_ReadPumpAnswersPingAndUnregisters(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{inbound: []frame{
		{websocket.TextMessage, []byte(`{"type":"ping"}`)},
		{websocket.TextMessage, []byte(`hello`)},
		{websocket.BinaryMessage, []byte(`{"type":"ping"}`)},
	}}
	c, err := hub.Register(3, conn)
	require.NoError(t, err)

	c.ReadPump()

	assert.Equal(t, 0, hub.ConnectionCount())
	assert.True(t, conn.isClosed())
	pong, ok := <-c.Send
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"pong","payload":null}`, string(pong))
	_, open := <-c.Send
	assert.False(t, open, "only one pong; channel closed by unregister")
}

func TestClient_WritePumpFlushesThenCloses(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(NewHub(), conn, 4)
	c.Send <- []byte(`{"type":"notification"}`)
	c.Send <- []byte(`{"type":"feed_item_added"}`)
	close(c.Send)

	c.writeLoop(time.NewTicker(time.Hour))

	got := conn.writes()
	require.Len(t, got, 3)
	assert.Equal(t, `{"type":"notification"}`, string(got[0].data))
	assert.Equal(t, websocket.TextMessage, got[1].kind)
	assert.Equal(t, websocket.CloseMessage, got[2].kind)
	assert.True(t, conn.isClosed())
}

func TestClient_WritePumpStopsOnWriteError(t *testing.T) {
	conn := &fakeConn{failW: true}
	c := NewClient(NewHub(), conn, 5)
	c.Send <- []byte("x")

	done := make(chan struct{})
	go func() {
		c.writeLoop(time.NewTicker(time.Hour))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write loop did not exit on write error")
	}
	assert.True(t, conn.isClosed())
}

func TestIsPing(t *testing.T) {
	assert.True(t, isPing([]byte(` {"type":"ping"} `)))
	assert.False(t, isPing([]byte(`{"type":"pong"}`)))
	assert.False(t, isPing([]byte(`ping`)))
	assert.False(t, isPing(nil))
}
