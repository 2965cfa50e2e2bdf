package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itchan-dev/foro/shared/domain"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
)

// JwtService reads the account out of the gateway's session token. The
// gateway re-validates every token it receives, so the frontend only decodes
// the payload; the signature is never checked here.
type JwtService interface {
	NewToken(account domain.Account) (string, error)
	DecodeToken(jwtStr string) (*domain.Account, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
	parser    *jwt.Parser
}

// New returns a service. secretKey is only used by NewToken (tests and the
// CLI mint tokens); decoding works without it.
func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey: secretKey, ttl: ttl, parser: jwt.NewParser()}
}

// claim names the gateway has used for the account id, most specific first
var accountClaims = []string{"idcuenta", "uid", "id", "sub"}

func (j *Jwt) NewToken(account domain.Account) (string, error) {
	if j.secretKey == "" {
		return "", errors.New("Can't create token: no signing key configured")
	}
	claims := jwt.MapClaims{}
	claims["idcuenta"] = account.Id.String()
	if account.DisplayName != "" {
		claims["nombre"] = account.DisplayName
	}
	claims["admin"] = account.Admin
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("Can't create token: %w", err)
	}
	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*domain.Account, error) {
	claims := jwt.MapClaims{}
	if _, _, err := j.parser.ParseUnverified(jwtStr, claims); err != nil {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized, Err: err}
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Before(time.Now()) {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Access token expired", StatusCode: http.StatusUnauthorized}
	}

	account := &domain.Account{}
	for _, name := range accountClaims {
		if id := claimString(claims[name]); id != "" {
			account.Id = domain.AccountId(id)
			break
		}
	}
	if account.Id.IsZero() {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Access token has no account", StatusCode: http.StatusUnauthorized}
	}
	account.DisplayName = claimString(claims["nombre"])
	account.Admin, _ = claims["admin"].(bool)
	return account, nil
}

func claimString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}
