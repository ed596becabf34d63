package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hhuzhang0517/genrtl-saas/common/logger"
)

type contextKey string

const ownerContextKey contextKey = "owner_id"

type AuthConfig struct {
	Secret []byte
	Issuer string // Optional: enforced when set
}

// RequireAuth accepts an HS256 bearer token whose subject is the caller's
// owner UUID and attaches that owner to the request context.
func RequireAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractBearer(c.GetHeader("Authorization"))
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		ownerID, err := parseOwner(tokenStr, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), ownerContextKey, ownerID)
		ctx = logger.WithLogFields(ctx, logger.LogFields{OwnerID: logger.Ptr(ownerID.String())})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetOwnerID returns the authenticated owner, if any.
func GetOwnerID(ctx context.Context) (uuid.UUID, bool) {
	ownerID, ok := ctx.Value(ownerContextKey).(uuid.UUID)
	return ownerID, ok
}

// WithOwnerID is used by tests and internal callers that authenticate by other means.
func WithOwnerID(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerContextKey, ownerID)
}

func extractBearer(header string) string {
	parts := strings.Fields(header)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func parseOwner(tokenStr string, cfg AuthConfig) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return cfg.Secret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, errors.New("token is not valid")
	}

	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("subject is not an owner id")
	}
	if ownerID == uuid.Nil {
		return uuid.Nil, errors.New("subject is empty")
	}
	return ownerID, nil
}
