package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/pkg/jwt"
	"scholarcrm/internal/pkg/response"
)

const actorKey = "actor"

// ActorResolver loads the current role for an authenticated user id. Roles can change after
// a token is issued, so the token's role claim is only a fallback.
type ActorResolver interface {
	ResolveActor(ctx context.Context, uid string) (domain.Actor, error)
}

// JWTAuth validates the bearer token and stores the caller's actor in the context.
// A nil resolver trusts the role claim.
func JWTAuth(jwtService *jwt.Service, resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		actor := domain.Actor{UID: claims.UserID, Role: domain.Role(claims.Role)}
		if resolver != nil {
			actor, err = resolver.ResolveActor(c.Request.Context(), claims.UserID)
			if errors.Is(err, domain.ErrNotFound) {
				response.Error(c, http.StatusUnauthorized, "USER_NOT_FOUND", "Account no longer exists")
				c.Abort()
				return
			}
			if err != nil {
				_ = c.Error(err)
				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not resolve account")
				c.Abort()
				return
			}
		}

		c.Set("user_id", actor.UID)
		c.Set("role", string(actor.Role))
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor stored by JWTAuth.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

// MustActor returns the stored actor or writes a 401 and reports false.
func MustActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
		c.Abort()
	}
	return actor, ok
}
