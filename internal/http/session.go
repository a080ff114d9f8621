package http

import (
	"net/http"
	"time"

	"bankdash/internal/session"
)

const (
	sessionCookieName = "bankdash_session"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

// sessionID returns the browser's session id, or "" when the cookie is
// missing or was not issued by us.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || !session.ValidID(c.Value) {
		return ""
	}
	return c.Value
}

// actionSession is the session an action runs under. Anonymous requests get
// a throwaway id so they fail on the missing token without sharing in-flight
// flags with each other.
func actionSession(r *http.Request) string {
	if id := sessionID(r); id != "" {
		return id
	}
	return session.NewID()
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// redirect sends the browser to target, through HX-Redirect for htmx
// requests so the whole page navigates instead of a fragment swap.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
