package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Rech03/CES-sub001/internal/response"
)

const (
	// ContextKeyClaims is the Gin context key for the validated claims.
	ContextKeyClaims = "claims"
	// ContextKeyToken is the Gin context key for the raw bearer token. The
	// raw token is kept because every upstream platform call is made on the
	// student's behalf with their own credentials.
	ContextKeyToken = "bearer_token"

	roleStudent = "student"
)

// Claims are the fields this service reads from the platform's tokens.
// Tokens are minted and revoked by the platform's auth service; this service
// only verifies the signature and extracts identity.
type Claims struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RequireStudent validates a student bearer token from the Authorization
// header.
func RequireStudent(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		authorize(c, secret, tokenStr)
	}
}

// RequireStudentWS validates a student token from the ?token= query param.
// Used for WebSocket upgrade requests, which cannot set headers from the
// browser.
func RequireStudentWS(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		authorize(c, secret, tokenStr)
	}
}

func authorize(c *gin.Context, secret, tokenStr string) {
	claims, err := ValidateToken(secret, tokenStr)
	if err != nil {
		code := response.ErrTokenInvalid
		if errors.Is(err, jwt.ErrTokenExpired) {
			code = response.ErrTokenExpired
		}
		response.AbortFail(c, http.StatusUnauthorized, code)
		return
	}

	if claims.Role != roleStudent {
		response.AbortFail(c, http.StatusForbidden, response.ErrStudentAccessOnly)
		return
	}

	c.Set(ContextKeyClaims, claims)
	c.Set(ContextKeyToken, tokenStr)
	c.Next()
}

// ValidateToken parses and verifies an HS256 token from the platform.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// GetClaims retrieves the validated claims from the Gin context.
func GetClaims(c *gin.Context) *Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetToken retrieves the raw bearer token from the Gin context.
func GetToken(c *gin.Context) string {
	val, exists := c.Get(ContextKeyToken)
	if !exists {
		return ""
	}
	token, _ := val.(string)
	return token
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
