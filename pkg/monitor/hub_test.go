package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itohio/gorover/pkg/color"
	"github.com/itohio/gorover/pkg/control"
	"github.com/itohio/gorover/pkg/motor"
	"github.com/itohio/gorover/pkg/rover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := New("run-1")
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

var moving = rover.Status{
	Control:   control.Normal,
	Motor:     motor.Moving,
	Direction: motor.DirForward,
	Color:     color.Magenta,
	Distance:  42,
	Voltage:   3900,
}

func TestNewMessage(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := NewMessage("abc", at, moving)

	assert.Equal(t, Message{
		Run:       "abc",
		Time:      at,
		Control:   "normal",
		Motor:     "moving",
		Direction: "forward",
		Color:     "magenta",
		Distance:  42,
		Voltage:   3900,
	}, msg)
}

func TestHub_Broadcast(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.Publish(moving)

	msg := readMessage(t, conn)
	assert.Equal(t, "run-1", msg.Run)
	assert.Equal(t, "moving", msg.Motor)
	assert.Equal(t, "magenta", msg.Color)
	assert.Equal(t, uint16(42), msg.Distance)
}

func TestHub_LateClientGetsLastStatus(t *testing.T) {
	hub, srv := startHub(t)

	hub.Publish(rover.Status{Control: control.Blocked, Color: color.Unknown})
	hub.Publish(moving)

	conn := dial(t, srv)
	msg := readMessage(t, conn)
	assert.Equal(t, "forward", msg.Direction)
	assert.Equal(t, uint16(3900), msg.Voltage)
}

func TestHub_Disconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_Status(t *testing.T) {
	hub, srv := startHub(t)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	hub.Publish(moving)

	resp, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Equal(t, "normal", msg.Control)
}
