package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ayush/task-manager/backend/internal/apperr"
	"github.com/ayush/task-manager/backend/internal/auth"
	"github.com/ayush/task-manager/backend/internal/logger"
	"github.com/ayush/task-manager/backend/internal/respond"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireAuth is middleware that validates the Authorization bearer token
// and injects the user id into the request context.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				respond.Error(w, r, apperr.ErrUnauthorized)
				return
			}

			claims, err := tokens.Verify(tokenStr)
			if err != nil {
				logger.FromContext(r.Context()).Debug("token rejected", zap.Error(err))
				respond.Error(w, r, err)
				return
			}

			ctx := auth.WithUserID(r.Context(), claims.UserID)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("user_id", claims.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
