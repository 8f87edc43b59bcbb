package auth

import (
	"net/http"
	"selection_assistant/pkg/bridge"
	"selection_assistant/pkg/logger"
	responsex "selection_assistant/pkg/response"
	"strings"
)

// BridgeToken 校验前台签发的 Bearer 令牌；secret 为空时不校验
func BridgeToken(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		if len(key) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				responsex.RespondWithError(w, http.StatusUnauthorized, "Missing access token")
				return
			}

			if err := bridge.ParseToken(key, token); err != nil {
				logger.Logger.Warn("rejected bridge token", "remote", r.RemoteAddr, "error", err.Error())
				responsex.RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
