package realtime

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/pkg/jwt"
	"scholarcrm/internal/pkg/response"
)

// ActorResolver loads the current role for a token's user id.
type ActorResolver interface {
	ResolveActor(ctx context.Context, uid string) (domain.Actor, error)
}

// Handler upgrades authenticated staff requests to the event stream.
type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	resolver ActorResolver
	upgrader websocket.Upgrader
}

// NewHandler accepts origins from allowed, or any origin when allowed is empty.
func NewHandler(hub *Hub, jwtService *jwt.Service, resolver ActorResolver, allowed []string) *Handler {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		origins[o] = true
	}
	return &Handler{
		hub:      hub,
		jwt:      jwtService,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
	}
}

// Stream handles GET /ws/events?token=JWT. Browsers cannot set headers on a WebSocket
// handshake, so the token travels in the query string.
func (h *Handler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "token query parameter is required")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	actor, err := h.resolver.ResolveActor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !actor.Role.IsStaff() {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Event stream is for staff")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn("websocket upgrade failed", "uid", actor.UID, "error", err)
		return
	}

	h.hub.Serve(conn, actor)
}
