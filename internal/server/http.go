package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/auth"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/config"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/game"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/logging"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/quiz"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/room"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/standings"
	httperrors "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/errors"
)

// Handlers collects every HTTP-facing component the server exposes.
type Handlers struct {
	Auth      *auth.HTTPHandlers
	Quiz      *quiz.HTTPHandlers
	Standings *standings.HTTPHandler
	Games     *game.HTTPHandlers
	Room      *room.Handler
}

// NewHTTPServer wires routes and middleware into an http.Server. The ready
// func pings downstream dependencies for the readiness probe.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, authSvc *auth.Service, h Handlers, ready func(context.Context) error) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				reqLogger := logging.FromContext(r.Context())
				reqLogger.Error().Err(err).Msg("readiness check failed")
				httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Dependency unavailable")
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/auth/register", h.Auth.Register)
	mux.HandleFunc("/v1/auth/login", h.Auth.Login)
	mux.HandleFunc("/v1/auth/guest", h.Auth.CreateGuest)
	mux.HandleFunc("/v1/auth/convert", h.Auth.ConvertGuest)
	mux.HandleFunc("/v1/auth/refresh", h.Auth.RefreshToken)
	mux.HandleFunc("/v1/oauth/google/start", h.Auth.OAuthStart)
	mux.HandleFunc("/v1/oauth/google/callback", h.Auth.OAuthCallback)
	mux.HandleFunc("/v1/users/me", h.Auth.GetMe)

	mux.HandleFunc("/v1/quizzes", h.Quiz.Collection)
	mux.HandleFunc("/v1/quizzes/{id}", h.Quiz.Item)

	mux.HandleFunc("/v1/standings/{window}", h.Standings.HandleGet)

	mux.HandleFunc("/v1/games", h.Games.ListGames)
	mux.HandleFunc("/v1/games/{id}", h.Games.GetGame)

	mux.HandleFunc("/ws/rooms", roomSocketHandler(authSvc, h.Room, cfg.CORS.AllowedOrigins, logger))

	var handler http.Handler = mux
	handler = auth.Middleware(authSvc, logger)(handler)
	handler = corsMiddleware(cfg.CORS, handler)
	handler = requestLogger(logger, handler)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

// roomSocketHandler upgrades /ws/rooms connections. The token query
// parameter is optional: anonymous players can join rooms, but a bad token
// is rejected before the upgrade.
func roomSocketHandler(authSvc *auth.Service, roomHandler *room.Handler, allowedOrigins []string, logger zerolog.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(allowedOrigins, origin)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var identity *room.Identity
		if token := r.URL.Query().Get("token"); token != "" {
			claims, err := authSvc.ValidateToken(token)
			if err != nil {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired token")
				return
			}
			identity = &room.Identity{
				UserID:      claims.UserID,
				DisplayName: claims.DisplayName,
				IsGuest:     claims.IsGuest,
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		roomHandler.HandleConnection(conn, identity)
	}
}

func corsMiddleware(cfg config.CORS, next http.Handler) http.Handler {
	allowedMethods := strings.Join(cfg.AllowedMethods, ", ")
	allowedHeaders := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(cfg.AllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			w.Header().Set("Access-Control-Max-Age", maxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func requestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.IntoContext(r.Context(), logger)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r.WithContext(ctx))

		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack keeps WebSocket upgrades working behind the logging wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
