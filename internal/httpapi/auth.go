package httpapi

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/edueval/teaching-system/internal/auth"
	"github.com/edueval/teaching-system/internal/domain/users"
)

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type sessionResponse struct {
	User  users.User    `json:"user"`
	Token tokenResponse `json:"token"`
}

func issueToken(tokens *auth.TokenManager, user users.User) (tokenResponse, error) {
	if tokens == nil {
		return tokenResponse{}, errors.New("token manager not configured")
	}
	token, err := tokens.Issue(auth.Subject{ID: user.ID, Email: user.Email, Role: string(user.Role)})
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

func registerAuthRoutes(mux *http.ServeMux, logger *slog.Logger, service users.Service, authn *authenticator, opts Options) {
	mux.HandleFunc("POST /v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if !decodeJSON(w, r, &payload) {
			return
		}

		user, err := service.Register(r.Context(), users.RegisterInput{
			Email:    payload.Email,
			Name:     payload.Name,
			Password: payload.Password,
			Role:     payload.Role,
		})
		if err != nil {
			respondDomainError(w, logger, "register", err)
			return
		}

		token, err := issueToken(opts.Tokens, user)
		if err != nil {
			logger.Error("issue token failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.Info("user registered", "user_id", user.ID, "role", user.Role)
		respondJSON(w, http.StatusCreated, sessionResponse{User: user, Token: token})
	})

	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if !opts.Limiter.Allow(clientIP(r)) {
			retry := int(math.Ceil(opts.Limiter.RetryAfter().Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			respondError(w, http.StatusTooManyRequests, "too many login attempts")
			return
		}

		var payload struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decodeJSON(w, r, &payload) {
			return
		}

		user, err := service.Authenticate(r.Context(), payload.Email, payload.Password)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) || errors.Is(err, users.ErrInvalidPassword) {
				respondError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			respondDomainError(w, logger, "login", err)
			return
		}

		token, err := issueToken(opts.Tokens, user)
		if err != nil {
			logger.Error("issue token failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if opts.Sessions != nil {
			if err := opts.Sessions.SaveToken(w, r, token.AccessToken); err != nil {
				logger.Warn("save session failed", "err", err)
			}
		}

		respondJSON(w, http.StatusOK, sessionResponse{User: user, Token: token})
	})

	mux.HandleFunc("POST /v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if opts.Sessions != nil {
			if err := opts.Sessions.Clear(w, r); err != nil {
				logger.Warn("clear session failed", "err", err)
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	})

	mux.HandleFunc("GET /v1/me", authn.require(func(w http.ResponseWriter, r *http.Request, p Principal) {
		user, err := service.Get(r.Context(), p.ID)
		if err != nil {
			respondDomainError(w, logger, "get user", err)
			return
		}
		respondJSON(w, http.StatusOK, user)
	}))

	mux.HandleFunc("GET /v1/users", authn.require(func(w http.ResponseWriter, r *http.Request, _ Principal) {
		handleUserList(w, r, logger, service)
	}, users.RoleAdmin))
}

func handleUserList(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service users.Service) {
	query := r.URL.Query()
	offset, limit := 0, 50
	if v := query.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid offset parameter")
			return
		}
		offset = parsed
	}
	if v := query.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	results, err := service.List(r.Context(), offset, limit)
	if err != nil {
		respondDomainError(w, logger, "list users", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":   results,
		"offset": offset,
		"limit":  limit,
	})
}
