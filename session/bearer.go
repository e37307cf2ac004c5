package session

import (
	"errors"
	"strings"
)

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrBadAuthorization     = errors.New("bad auth header")
)

const bearerPrefix = "Bearer "

// bearerFromString extracts a compact JWT from an Authorization value.
func bearerFromString(raw string) (string, error) {
	raw = strings.Trim(raw, " ")
	if raw == "" {
		return "", ErrMissingAuthorization
	}
	if len(raw) <= len(bearerPrefix) || !strings.HasPrefix(raw, bearerPrefix) {
		return "", ErrBadAuthorization
	}
	token := raw[len(bearerPrefix):]
	if strings.Count(token, ".") != 2 {
		return "", ErrBadAuthorization
	}
	return token, nil
}
