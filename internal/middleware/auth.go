package middleware

import (
	"context"
	"net/http"
	"strings"

	initdata "github.com/telegram-mini-apps/init-data-golang"

	"daily-tips/internal/logger"
	"daily-tips/internal/models"
)

type contextKey string

// UserContextKey is the key for the user in the context.
const UserContextKey = contextKey("user")

type UserStore interface {
	UpsertUser(ctx context.Context, telegramID int64, username string) (*models.User, error)
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext returns the user set by AuthMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// AuthMiddleware validates the Telegram Mini App initData and upserts the user.
// Deactivated users are rejected with 403.
func AuthMiddleware(users UserStore, botToken string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			scheme, raw, found := strings.Cut(authHeader, " ")
			if !found || scheme != "tma" || raw == "" {
				http.Error(w, "Authorization header format must be 'tma <initData>'", http.StatusUnauthorized)
				return
			}

			if botToken == "" {
				log.Error("telegram bot token is not configured")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if err := initdata.Validate(raw, botToken, 0); err != nil {
				log.Warn("invalid init data", "error", err)
				http.Error(w, "Invalid init data", http.StatusUnauthorized)
				return
			}

			data, err := initdata.Parse(raw)
			if err != nil {
				log.Warn("failed to parse init data", "error", err)
				http.Error(w, "Error parsing init data", http.StatusBadRequest)
				return
			}
			if data.User.ID == 0 {
				http.Error(w, "Init data carries no user", http.StatusUnauthorized)
				return
			}

			user, err := users.UpsertUser(r.Context(), data.User.ID, data.User.Username)
			if err != nil {
				log.Error("failed to upsert user", "telegram_id", data.User.ID, "error", err)
				http.Error(w, "Failed to authenticate user", http.StatusInternalServerError)
				return
			}
			if !user.IsActive {
				http.Error(w, "User is inactive", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin lets only admins through. It must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
