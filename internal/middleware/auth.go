package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ridgegate-systems/fwbridge/internal/httputil"
)

var errInvalidToken = errors.New("invalid token")

// APIClaims are the claims carried by bridge API tokens.
type APIClaims struct {
	Subject string `json:"sub_name,omitempty"`
	jwt.RegisteredClaims
}

// BearerAuth validates HMAC-signed bearer tokens on the exposed API.
// An empty secret disables authentication entirely, for development
// setups.
func BearerAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				httputil.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			token, err := jwt.ParseWithClaims(tokenString, &APIClaims{}, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errInvalidToken
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				httputil.WriteError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
