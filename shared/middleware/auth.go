package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/itchan-dev/foro/shared/domain"
	jwt_internal "github.com/itchan-dev/foro/shared/jwt"
	"github.com/itchan-dev/foro/shared/logger"
	"github.com/itchan-dev/foro/shared/utils"
)

// Key to store the account in the request context
type key int

const AccountKey key = 0

// Auth reads the gateway's session token from the cookie or the
// Authorization header.
type Auth struct {
	jwtService    jwt_internal.JwtService
	cookieName    string
	secureCookies bool
}

func NewAuth(jwtService jwt_internal.JwtService, cookieName string, secureCookies bool) *Auth {
	if cookieName == "" {
		cookieName = "accessToken"
	}
	return &Auth{
		jwtService:    jwtService,
		cookieName:    cookieName,
		secureCookies: secureCookies,
	}
}

var errNoToken = errors.New("no token")

// NeedAuth rejects requests without a decodable session token.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(false)
}

// AdminOnly additionally requires the admin claim.
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return a.auth(true)
}

// OptionalAuth populates the account when a token is present and readable.
// Pages are public; only mutations need an account.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := a.extractAccount(r)
			if err != nil && !errors.Is(err, errNoToken) {
				logger.Log.Debug("ignoring unreadable session token", "error", err)
			}
			if account != nil {
				r = r.WithContext(context.WithValue(r.Context(), AccountKey, account))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Auth) extractAccount(r *http.Request) (*domain.Account, error) {
	var tokenString string
	if cookie, err := r.Cookie(a.cookieName); err == nil {
		tokenString = cookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}
	if tokenString == "" {
		return nil, errNoToken
	}
	return a.jwtService.DecodeToken(tokenString)
}

func (a *Auth) auth(adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := a.extractAccount(r)
			if err != nil {
				if errors.Is(err, errNoToken) {
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
					return
				}
				// stale or broken cookie: drop it so the browser stops sending it
				http.SetCookie(w, &http.Cookie{
					Name:     a.cookieName,
					Value:    "",
					Path:     "/",
					MaxAge:   -1,
					HttpOnly: true,
					Secure:   a.secureCookies,
					SameSite: http.SameSiteLaxMode,
				})
				utils.WriteErrorAndStatusCode(w, err)
				return
			}

			if adminOnly && !account.Admin {
				http.Error(w, "Access denied. Only for admin", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), AccountKey, account)))
		})
	}
}

// GetAccountFromContext returns the signed-in account or nil.
func GetAccountFromContext(r *http.Request) *domain.Account {
	account, _ := r.Context().Value(AccountKey).(*domain.Account)
	return account
}
