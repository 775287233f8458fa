package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName     = "teaching-system-session"
	sessionTokenKey = "access_token"
)

// SessionStore keeps the access token in a signed cookie for browser clients.
type SessionStore struct {
	store *sessions.CookieStore
}

// NewSessionStore builds a cookie store keyed by secret. Cookies are marked
// Secure outside of development.
func NewSessionStore(secret string, secure bool, maxAge int) *SessionStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

// SaveToken writes the token into the session cookie.
func (s *SessionStore) SaveToken(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values[sessionTokenKey] = token
	return sess.Save(r, w)
}

// Token returns the access token stored in the request's session cookie.
func (s *SessionStore) Token(r *http.Request) (string, bool) {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return "", false
	}
	token, ok := sess.Values[sessionTokenKey].(string)
	return token, ok && token != ""
}

// Clear expires the session cookie.
func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, sessionName)
	delete(sess.Values, sessionTokenKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
