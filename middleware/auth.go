package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/matchpoint-dev/pingpong-tournaments/services"
)

type contextKey string

const adminContextKey contextKey = "admin_id"

// Authenticate verifies the Bearer token and stores the admin ID in the
// request context. Requests without a valid token get a 401.
func Authenticate(authService services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			adminID, err := authService.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAdminIDFromContext(ctx context.Context) (int, error) {
	adminID, ok := ctx.Value(adminContextKey).(int)
	if !ok || adminID <= 0 {
		return 0, errors.New("admin ID not found in context")
	}
	return adminID, nil
}
