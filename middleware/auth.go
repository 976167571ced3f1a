package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mingyan/blogserver/cache"
	"github.com/mingyan/blogserver/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextEmailKey stores the authenticated email inside Gin context.
	ContextEmailKey = "email"
	// ContextNicknameKey stores the nickname inside Gin context.
	ContextNicknameKey = "nickname"
	// ContextTokenKey stores the raw bearer token for logout.
	ContextTokenKey = "token"
)

func bearerToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setIdentity(ctx *gin.Context, token string, claims *utils.Claims) {
	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextEmailKey, claims.Email)
	ctx.Set(ContextNicknameKey, claims.Nickname)
	ctx.Set(ContextTokenKey, token)
}

// AuthRequired ensures the request is authenticated via JWT and that the
// token has not been revoked.
func AuthRequired(blacklist *cache.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "missing or malformed authorization header")
			ctx.Abort()
			return
		}

		if blacklist != nil && blacklist.Contains(ctx.Request.Context(), token) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		setIdentity(ctx, token, claims)
		ctx.Next()
	}
}

// OptionalAuth resolves the viewer identity when a valid token is present and
// lets the request through anonymously otherwise. Listings use it so liked
// state can be projected for signed-in viewers.
func OptionalAuth(blacklist *cache.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			ctx.Next()
			return
		}
		if blacklist != nil && blacklist.Contains(ctx.Request.Context(), token) {
			ctx.Next()
			return
		}
		if claims, err := utils.ParseToken(token); err == nil {
			setIdentity(ctx, token, claims)
		}
		ctx.Next()
	}
}

// ViewerID returns the authenticated user id from the Gin context, or nil
// for anonymous requests.
func ViewerID(ctx *gin.Context) *uint {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(uint)
	if !ok {
		return nil
	}
	return &id
}
