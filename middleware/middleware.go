package middleware

import (
	"context"
	"fmt"
	"net/http"

	"timegrid/globals"
	"timegrid/rdx"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if websocket.IsWebSocketUpgrade(r) {
			// WebSocket clients carry the token in the query string;
			// the hub validates it during the upgrade.
			next(w, r, ps)
			return
		}

		claims, err := ValidateJWT(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, globals.UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
		next(w, r.WithContext(ctx), ps)
	}
}

// AdminOnly wraps Authenticate and additionally requires the admin role.
func AdminOnly(next httprouter.Handle) httprouter.Handle {
	return Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		role, _ := r.Context().Value(globals.RoleKey).(string)
		if role != "admin" {
			http.Error(w, "Admin privileges required", http.StatusForbidden)
			return
		}
		next(w, r, ps)
	})
}

// ValidateJWT parses a "Bearer <token>" header value, checks the signature
// and confirms the token is still the active one in the Redis cache.
func ValidateJWT(header string) (*Claims, error) {
	if len(header) < 8 || header[:7] != "Bearer " {
		return nil, fmt.Errorf("invalid token")
	}
	return ValidateToken(header[7:])
}

// ValidateToken checks a raw token string (no Bearer prefix).
func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return globals.JwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	if !rdx.TokenActive(claims.UserID, tokenString) {
		return nil, fmt.Errorf("token revoked")
	}
	return claims, nil
}
