package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"filevault/internal/server/auth"
	"filevault/internal/server/models"
)

type ctxKey string

const userIDKey ctxKey = "userID"

const sessionCookieName = "session"

// userID returns the authenticated user id placed in the context by
// requireAuth.
func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

// requireAuth is the access gate in front of every catalog operation: it
// validates the session cookie and stores the user id in the request
// context. Unauthenticated requests are redirected to the login page.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		id, err := auth.GetUserIDFromToken(cookie.Value, s.sessionSecret)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, id)
		next(w, r.WithContext(ctx))
	}
}

// currentUser resolves the session cookie to an account, for pages that are
// reachable both signed in and out. Returns nil when there is no valid
// session or the account no longer exists.
func (s *Server) currentUser(r *http.Request) *models.User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	id, err := auth.GetUserIDFromToken(cookie.Value, s.sessionSecret)
	if err != nil {
		return nil
	}

	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return user
}

// establishSession issues a signed session cookie for the user.
func (s *Server) establishSession(w http.ResponseWriter, id int64) error {
	token, err := auth.GenerateToken(id, s.sessionSecret, s.sessionTTL)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// clearSession expires the session cookie.
func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// methodOverride lets HTML forms express PUT and DELETE: a urlencoded POST
// with a _method field is re-routed under that verb before the mux sees it.
func (s *Server) methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost &&
			strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			if err := r.ParseForm(); err == nil {
				switch strings.ToUpper(r.PostForm.Get("_method")) {
				case http.MethodPut:
					r.Method = http.MethodPut
				case http.MethodDelete:
					r.Method = http.MethodDelete
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
