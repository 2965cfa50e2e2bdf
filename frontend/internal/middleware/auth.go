package middleware

import (
	"net/http"
	"net/url"
	"strings"

	internal_errors "github.com/itchan-dev/foro/shared/errors"
	mw "github.com/itchan-dev/foro/shared/middleware"
)

// Auth wraps shared auth middleware with redirect behavior for form posts
type Auth struct {
	sharedAuth    *mw.Auth
	secureCookies bool
}

func NewAuth(sharedAuth *mw.Auth, secureCookies bool) *Auth {
	return &Auth{
		sharedAuth:    sharedAuth,
		secureCookies: secureCookies,
	}
}

// NeedAuth sends anonymous form posts back to the page they came from with
// an inline notice instead of an error page.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.wrapWithRedirect(a.sharedAuth.NeedAuth())
}

// OptionalAuth populates the account if available (no redirect needed)
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return a.sharedAuth.OptionalAuth()
}

// authRedirectWriter intercepts 401/403 and redirects back
type authRedirectWriter struct {
	http.ResponseWriter
	request       *http.Request
	secureCookies bool
	redirected    bool
}

func (w *authRedirectWriter) WriteHeader(statusCode int) {
	if w.redirected {
		return
	}
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		w.redirected = true
		SetFlash(w.ResponseWriter, FlashError, internal_errors.ErrNotAuthenticated.Error(), w.secureCookies)
		http.Redirect(w.ResponseWriter, w.request, backTarget(w.request), http.StatusSeeOther)
		return
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *authRedirectWriter) Write(data []byte) (int, error) {
	if w.redirected {
		return len(data), nil
	}
	return w.ResponseWriter.Write(data)
}

// backTarget is the same-origin page the post came from, else the forum
// page derived from the request path.
func backTarget(r *http.Request) string {
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" && (ref.Host == "" || ref.Host == r.Host) {
		return ref.RequestURI()
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "foros" {
		return "/foros/" + parts[1]
	}
	return "/foros"
}

func (a *Auth) wrapWithRedirect(authMiddleware func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapper := &authRedirectWriter{
				ResponseWriter: w,
				request:        r,
				secureCookies:  a.secureCookies,
			}
			authMiddleware(next).ServeHTTP(wrapper, r)
		})
	}
}
