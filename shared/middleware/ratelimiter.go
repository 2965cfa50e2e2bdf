package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/itchan-dev/foro/shared/middleware/ratelimiter"
	"github.com/itchan-dev/foro/shared/utils"
)

// RateLimit rejects requests once getIdentity's bucket is empty. Admins are
// not limited.
func RateLimit(rl *ratelimiter.UserRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if account := GetAccountFromContext(r); account != nil && account.Admin {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(identity) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetAccountOrIP identifies signed-in users by account and anonymous ones by
// address, so unauthenticated form posts are limited too.
func GetAccountOrIP(r *http.Request) (string, error) {
	if account := GetAccountFromContext(r); account != nil {
		return "account_" + account.Id.String(), nil
	}
	ip, err := GetIP(r)
	if err != nil {
		return "", err
	}
	return "ip_" + ip, nil
}

// GetAccountID requires an account set by a previous middleware.
func GetAccountID(r *http.Request) (string, error) {
	account := GetAccountFromContext(r)
	if account == nil {
		return "", errors.New("Can't get account id")
	}
	return "account_" + account.Id.String(), nil
}

// GetIP extracts the client IP from RemoteAddr only; forwarding headers are
// not trusted.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}
	return ip, nil
}
