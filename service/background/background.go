package background

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"selection_assistant/config"
	"selection_assistant/models/models"
	"selection_assistant/pkg/bridge"
	"selection_assistant/pkg/logger"
	responsex "selection_assistant/pkg/response"
	"selection_assistant/service/background/middleware/auth"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
)

type LanguagesResponse struct {
	Languages       []config.Language `json:"languages"`
	SuggestedModels []string          `json:"suggested_models"`
	Total           int               `json:"total"`
}

// NewRouter 后台 HTTP 路由：消息通道、语言列表、健康检查
func NewRouter(cfg config.BackgroundConfig, router *bridge.Router) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Basic CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		responsex.RespondWithJSON(w, http.StatusOK, models.Response{Code: http.StatusOK, Msg: "ok", Data: map[string]interface{}{}})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/languages", GetSupportedLanguages)

		r.Group(func(r chi.Router) {
			r.Use(auth.BridgeToken(cfg.Secret))
			r.Post("/messages", MessagesHandler(router))
		})
	})
	return r
}

func GetSupportedLanguages(w http.ResponseWriter, r *http.Request) {
	responsex.RespondWithJSON(w, http.StatusOK, models.Response{
		Code: http.StatusOK,
		Msg:  "Languages retrieved successfully",
		Data: LanguagesResponse{
			Languages:       config.SupportedLanguages,
			SuggestedModels: config.SuggestedModels,
			Total:           len(config.SupportedLanguages),
		},
	})
}

// MessagesHandler 接收一个 Envelope，返回对应的 Reply
func MessagesHandler(router *bridge.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var env bridge.Envelope
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&env); err != nil {
			responsex.RespondWithError(w, http.StatusBadRequest, "Invalid request format. Please check your request body.")
			return
		}
		if env.ID == "" {
			responsex.RespondWithError(w, http.StatusBadRequest, "Message id is missing")
			return
		}

		res := router.Dispatch(r.Context(), env.Request)
		responsex.RespondWithJSON(w, http.StatusOK, bridge.Reply{ID: env.ID, Result: res})
	}
}

// Run 启动后台服务，ctx 结束时优雅退出
func Run(ctx context.Context, cfg config.BackgroundConfig, router *bridge.Router) error {
	if cfg.Secret == "" {
		logger.Logger.Warn("background secret is empty, bridge requests are not authenticated", "listen", cfg.Listen)
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           NewRouter(cfg, router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Info("background listening", "listen", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
