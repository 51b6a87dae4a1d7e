package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type SubjectKey struct{}

// GetSubjectFromContext retrieves the token subject from the context.
func GetSubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey{}).(string)
	return subject, ok
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RequireScoreToken returns a middleware that checks for a valid HMAC-signed JWT.
// When secret is empty the middleware lets every request through.
func RequireScoreToken(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. authorizationヘッダーからJWTを取得
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
				return
			}

			// 2. JWTの検証とパース
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				// アルゴリズムがHMACであることを確認
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				log.Printf("AuthMiddleware Error: JWT parse error: %v", err)
				writeJSONError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			// 3. subクレームがあればContextに設定して次のハンドラに渡す
			ctx := r.Context()
			if subject, err := token.Claims.GetSubject(); err == nil && subject != "" {
				ctx = context.WithValue(ctx, SubjectKey{}, subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
