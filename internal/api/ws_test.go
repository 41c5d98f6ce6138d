package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locpulse/pkg/model"
)

func dialWS(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func wsWaitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPageClientRegistersAndReceivesBroadcast(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env)

	wsWaitFor(t, func() bool { return env.reg.Len() == 1 })

	env.reg.Broadcast(model.NewMessage(model.MsgUpdateLastNotified, model.UpdateLastNotifiedPayload{
		Lat: 51.5696, Lng: 14.3739, PlaceName: "Spremberg",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg model.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, model.MsgUpdateLastNotified, msg.Type)

	var p model.UpdateLastNotifiedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, "Spremberg", p.PlaceName)
}

func TestPageClientRemovedOnDisconnect(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env)
	wsWaitFor(t, func() bool { return env.reg.Len() == 1 })

	conn.Close()
	wsWaitFor(t, func() bool { return env.reg.Len() == 0 })
}

func TestNavigateReachesConnectedPage(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env)
	wsWaitFor(t, func() bool { return env.reg.Len() == 1 })

	env.router.Displayed(model.Notification{
		Title:     "You've moved!",
		PlaceName: "Spremberg",
		Data:      model.NotificationData{URL: "/settings/profile", Tab: "location"},
	})
	env.router.Click(model.ClickIntent{Action: model.ActionUpdate})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	// The broadcast and the NAVIGATE both arrive; order is not guaranteed.
	var sawNavigate, sawUpdate bool
	for i := 0; i < 3 && !(sawNavigate && sawUpdate); i++ {
		var msg model.Message
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg.Type {
		case model.MsgNavigate:
			var p model.NavigatePayload
			require.NoError(t, json.Unmarshal(msg.Payload, &p))
			assert.Equal(t, "/settings/profile", p.URL)
			assert.Equal(t, "location", p.Tab)
			sawNavigate = true
		case model.MsgUpdateLastNotified:
			sawUpdate = true
		case model.MsgFocus:
		}
	}
	assert.True(t, sawNavigate)
	assert.True(t, sawUpdate)
}

