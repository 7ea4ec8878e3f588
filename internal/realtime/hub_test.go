package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/metrics"
	"scholarcrm/internal/pkg/jwt"
)

type roles map[string]domain.Role

func (r roles) ResolveActor(_ context.Context, uid string) (domain.Actor, error) {
	role, ok := r[uid]
	if !ok {
		return domain.Actor{}, domain.ErrNotFound
	}
	return domain.Actor{UID: uid, Role: role}, nil
}

func newServer(t *testing.T) (*httptest.Server, *Hub, *metrics.Metrics, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := metrics.New(prometheus.NewRegistry())
	hub := NewHub()
	hub.Follow(m)

	j := jwt.New("test-secret", time.Hour)
	r := gin.New()
	r.GET("/ws/events", NewHandler(hub, j, roles{"M1": domain.RoleSalesManager, "C1": domain.RoleClient}, nil).Stream)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, m, j
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events?token=" + token
}

func TestStream_DeliversTransitions(t *testing.T) {
	srv, hub, m, j := newServer(t)

	token, err := j.GenerateToken("M1", string(domain.RoleSalesManager))
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connected() == 1 }, time.Second, 10*time.Millisecond)

	m.ObserveTransition("lead", "new", "converted")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type    string             `json:"type"`
		Payload metrics.Transition `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, EventTransition, ev.Type)
	assert.Equal(t, "lead", ev.Payload.Entity)
	assert.Equal(t, "converted", ev.Payload.To)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Connected() == 0 }, time.Second, 10*time.Millisecond)
}

func TestStream_Rejections(t *testing.T) {
	srv, _, _, j := newServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, "garbage"), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	client, err := j.GenerateToken("C1", string(domain.RoleClient))
	require.NoError(t, err)
	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, client), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	ghost, err := j.GenerateToken("ghost", string(domain.RoleAdmin))
	require.NoError(t, err)
	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, ghost), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBroadcast_NoConnections(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() { hub.Broadcast(&Event{Type: EventTransition}) })
	assert.Zero(t, hub.Connected())
}
