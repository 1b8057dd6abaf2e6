package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/telegram"
)

const telegramAuthScheme = "tma "

type telegramUserKey struct{}

// TelegramAuth validates the Mini App init data sent as
// "Authorization: tma <initData>". With bypass enabled, requests without a
// valid header pass through with no Telegram user attached.
func TelegramAuth(v *telegram.Validator, bypass bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, telegramAuthScheme)
			if !found || raw == "" {
				if bypass {
					next.ServeHTTP(w, r)
					return
				}
				response.Unauthorized(w, "Missing Telegram init data")
				return
			}

			data, err := v.Validate(raw)
			if err != nil {
				if bypass {
					slog.Debug("telegram auth bypassed", "error", err)
					next.ServeHTTP(w, r)
					return
				}
				response.Unauthorized(w, "Invalid Telegram init data")
				return
			}

			ctx := context.WithValue(r.Context(), telegramUserKey{}, data.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TelegramUserFromContext returns the user authenticated by TelegramAuth.
func TelegramUserFromContext(ctx context.Context) (telegram.User, bool) {
	u, ok := ctx.Value(telegramUserKey{}).(telegram.User)
	return u, ok
}
