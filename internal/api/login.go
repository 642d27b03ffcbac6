package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stefando/ingestGatewayAWS/internal/auth"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

// Authenticator exchanges user credentials for tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error)
}

// NewLoginRouter serves POST /login for clients that cannot reach Cognito directly.
func NewLoginRouter(a Authenticator, logger *slog.Logger) *chi.Mux {
	logger = log.WithComponent(logger, "login")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Post("/login", handleLogin(a, logger))
	r.Post("/v1/login", handleLogin(a, logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

func handleLogin(a Authenticator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		resp, err := a.Authenticate(r.Context(), &req)
		if err != nil {
			logger.Warn("authentication failed",
				"request_id", middleware.GetReqID(r.Context()),
				"tenant", req.Tenant,
				"username", req.Username,
				"error", err,
			)
			writeMessage(w, http.StatusUnauthorized, "Authentication failed.")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
