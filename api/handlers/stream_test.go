package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/webextract/agent"
	"github.com/BaSui01/webextract/api"
	"github.com/BaSui01/webextract/types"
)

func streamTestServer(t *testing.T, events *agent.Broadcaster) *httptest.Server {
	t.Helper()
	h := NewStreamHandler(events, nil, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(h.HandleStream))
	t.Cleanup(srv.Close)
	return srv
}

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	return conn
}

func TestStreamHandler_DeliversEvents(t *testing.T) {
	events := agent.NewBroadcaster()
	srv := streamTestServer(t, events)

	conn := dialStream(t, srv)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 等订阅建立后再发布
	var got api.ProgressEvent
	require.Eventually(t, func() bool {
		events.Publish(agent.Event{
			Type:    agent.EventSiteFinished,
			Website: "bankrate",
			Status:  types.SiteStatusSuccess,
			Items:   3,
		})
		readCtx, readCancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer readCancel()
		return wsjson.Read(readCtx, conn, &got) == nil
	}, 3*time.Second, 50*time.Millisecond)

	assert.Equal(t, "site_finished", got.Type)
	assert.Equal(t, "bankrate", got.Website)
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, 3, got.Items)
	assert.False(t, got.Timestamp.IsZero())
}

func TestStreamHandler_ClientDisconnectUnsubscribes(t *testing.T) {
	events := agent.NewBroadcaster()
	srv := streamTestServer(t, events)

	conn := dialStream(t, srv)
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	// 断开后发布不应阻塞或 panic
	assert.NotPanics(t, func() {
		for i := 0; i < 10; i++ {
			events.Publish(agent.Event{Type: agent.EventRunStarted})
		}
	})
}
