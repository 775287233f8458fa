package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/edueval/teaching-system/internal/auth"
	"github.com/edueval/teaching-system/internal/domain/users"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID    string
	Email string
	Role  users.Role
}

// CanRead reports whether the principal may read records owned by ownerID.
func (p Principal) CanRead(ownerID string) bool {
	return p.Role.Staff() || p.ID == ownerID
}

type authedHandler func(w http.ResponseWriter, r *http.Request, p Principal)

type authenticator struct {
	logger   *slog.Logger
	users    users.Service
	tokens   *auth.TokenManager
	sessions *auth.SessionStore
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (a *authenticator) principal(r *http.Request) (Principal, error) {
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" && a.sessions != nil {
		raw, _ = a.sessions.Token(r)
	}
	if raw == "" {
		return Principal{}, errUnauthenticated
	}
	if a.tokens == nil {
		return Principal{}, auth.ErrInvalidToken
	}
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return Principal{}, err
	}

	// The stored role wins over the claim so a demotion takes effect before
	// the token expires.
	user, err := a.users.Get(r.Context(), claims.Subject)
	if err != nil {
		return Principal{}, err
	}
	return Principal{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}

var errUnauthenticated = errors.New("authentication required")

// require wraps next so it only runs for an authenticated caller holding
// one of roles. No roles means any authenticated caller.
func (a *authenticator) require(next authedHandler, roles ...users.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := a.principal(r)
		if err != nil {
			switch {
			case errors.Is(err, errUnauthenticated):
				respondError(w, http.StatusUnauthorized, errUnauthenticated.Error())
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, users.ErrNotFound):
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
			default:
				a.logger.Error("resolve principal failed", "err", err)
				respondError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, p.Role) {
			respondError(w, http.StatusForbidden, "insufficient role")
			return
		}
		next(w, r, p)
	}
}

var staffRoles = []users.Role{users.RoleTeacher, users.RoleAdmin}
