package middleware

import (
	"net/http"
	"strings"

	"ticketgate/internal/shared/config"
	"ticketgate/internal/shared/constants"
	"ticketgate/internal/shared/utils/response"
	"ticketgate/pkg/cache"
	"ticketgate/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const identityKey = "identity"

// Identity is the single session-context type owning the caller's
// credential. It is resolved once per request by ResolveIdentity; nothing
// else in the gateway consults headers or caches for auth state ad hoc.
type Identity struct {
	UserID string
	Email  string
	Role   string
	// Token is the raw bearer credential, forwarded verbatim on every
	// upstream call.
	Token string
}

// IdentityFrom returns the resolved identity for this request, if any.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}

// ResolveIdentity parses the Authorization header into an Identity and
// stores it in the request context. The active-role cache in Redis is a
// recovery fallback for tokens whose role claim is absent; it is written
// back whenever the claim is present so the fallback stays warm.
//
// Requests without a usable bearer pass through without an identity;
// RequireIdentity decides whether that is fatal.
func ResolveIdentity(cfg *config.Config, cacheSvc cache.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}
		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})
		if err != nil || !token.Valid {
			log.LogAuthFailure(c.Request.Context(), "invalid or expired token", c.ClientIP())
			c.Next()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.Next()
			return
		}

		identity := Identity{
			UserID: claimString(claims, "user_id"),
			Email:  claimString(claims, "email"),
			Role:   claimString(claims, "role"),
			Token:  tokenString,
		}

		if cacheSvc != nil && identity.UserID != "" {
			roleKey := constants.BuildActiveRoleKey(identity.UserID)
			if identity.Role == "" {
				var cachedRole string
				if err := cacheSvc.Get(c.Request.Context(), roleKey, &cachedRole); err == nil {
					identity.Role = cachedRole
				}
			} else {
				_ = cacheSvc.Set(c.Request.Context(), roleKey, identity.Role, cfg.Redis.RoleCacheTTL)
			}
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireIdentity aborts with 401 when no bearer credential resolved.
// Handlers behind it never reach the upstream backend unauthenticated.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFrom(c); !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized,
				"authentication required; please log in again", nil, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole aborts with 403 unless the resolved identity carries the
// required role.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized,
				"authentication required; please log in again", nil, nil)
			c.Abort()
			return
		}
		if identity.Role != requiredRole {
			response.RespondJSON(c, "error", http.StatusForbidden,
				"Insufficient permissions", nil, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func claimString(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return value
	}
	return ""
}
