package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/signald/serverconf/internal/crypto"
)

const tokenIssuer = "serverconf"

// TokenAuthenticator issues and verifies HS256 bearer tokens. The signing
// key is derived from the configured secret, never the secret itself.
type TokenAuthenticator struct {
	key []byte
}

// NewTokenAuthenticator derives the signing key from secret
func NewTokenAuthenticator(secret string) (*TokenAuthenticator, error) {
	key, err := crypto.DeriveKey(secret, crypto.InfoTokenSigning)
	if err != nil {
		return nil, fmt.Errorf("derive token signing key: %w", err)
	}
	return &TokenAuthenticator{key: key}, nil
}

// Issue creates a token for subject valid for ttl
func (a *TokenAuthenticator) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("token subject must not be empty")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.key)
}

// Verify validates a token and returns its subject
func (a *TokenAuthenticator) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.key, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}

// Middleware requires an "Authorization: Bearer <token>" header
func (a *TokenAuthenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		subject, err := a.Verify(parts[1])
		if err != nil {
			slog.Warn("Invalid token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ActorContextKey, subject)
		c.Next()
	}
}
