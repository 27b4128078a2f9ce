// SPDX-License-Identifier: MIT
package transport

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, wst *WebSocketTransport) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return wst.Clients() > 0 }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func TestWebSocketTransport_BroadcastsJSON(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	require.NoError(t, err)
	defer wst.Close()

	conn := dial(t, wst)
	require.NoError(t, wst.Send(spectrumSnapshot(5)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, uint64(5), msg.Seq)
	assert.Equal(t, "spectrum", msg.Kind)
	assert.Equal(t, []float64{0, 100, 200, 300}, msg.X)
	assert.Equal(t, []float64{-90, -40, -6, -70}, msg.Y)
}

func TestWebSocketTransport_SendNeverBlocks(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	require.NoError(t, err)
	defer wst.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for seq := uint64(0); seq < 10*broadcastQueue; seq++ {
			_ = wst.Send(spectrumSnapshot(seq))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked with no clients reading")
	}
}

func TestWebSocketTransport_Close(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	require.NoError(t, err)

	conn := dial(t, wst)
	require.NoError(t, wst.Close())
	require.NoError(t, wst.Close())

	assert.Error(t, wst.Send(spectrumSnapshot(1)))
	assert.Zero(t, wst.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "client connection is closed by the server")
}

func TestWebSocketTransport_ListenError(t *testing.T) {
	_, err := NewWebSocketTransport("256.0.0.1:bad")
	assert.Error(t, err)
}
