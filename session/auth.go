package session

import (
	"errors"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"projectboard/domain"
)

const defaultJWKSCacheTTL = 15 * time.Minute

// Auth verifies bearer tokens and turns their claims into a domain.User.
// Production tokens are RS256 checked against a JWKS; test mode accepts
// HS256 tokens signed with a shared secret.
type Auth struct {
	JWKS       *keyfunc.JWKS
	Audience   string
	Issuer     string
	TestMode   bool
	TestSecret []byte

	parser      *jwt.Parser
	keyCache    sync.Map
	keyCacheTTL time.Duration
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

func NewAuth(jwks *keyfunc.JWKS, audience, issuer string, cacheTTL time.Duration) *Auth {
	if cacheTTL == 0 {
		cacheTTL = defaultJWKSCacheTTL
	}
	return &Auth{
		JWKS:        jwks,
		Audience:    audience,
		Issuer:      issuer,
		parser:      jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
		keyCacheTTL: cacheTTL,
	}
}

// NewTestAuth accepts HS256 tokens signed with secret.
func NewTestAuth(secret []byte, audience, issuer string) *Auth {
	return &Auth{
		Audience:   audience,
		Issuer:     issuer,
		TestMode:   true,
		TestSecret: secret,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// UserFromAuthHeader verifies the token carried by an Authorization value.
func (a *Auth) UserFromAuthHeader(h string) (domain.User, error) {
	token, err := bearerFromString(h)
	if err != nil {
		return domain.User{}, err
	}
	return a.UserFromBearer(token)
}

func (a *Auth) UserFromBearer(token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, ErrBadAuthorization
	}
	var parsed *jwt.Token
	var err error
	if a.TestMode {
		parsed, err = a.parser.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return a.TestSecret, nil
		})
	} else {
		parsed, err = a.parser.Parse(token, a.keyForToken)
	}
	if err != nil {
		return domain.User{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.User{}, errors.New("invalid claims")
	}
	now := time.Now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return domain.User{}, errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return domain.User{}, errors.New("token not valid yet")
	}
	if a.Audience != "" && !claims.VerifyAudience(a.Audience, false) {
		return domain.User{}, errors.New("invalid audience")
	}
	if a.Issuer != "" && !claims.VerifyIssuer(a.Issuer, false) {
		return domain.User{}, errors.New("invalid issuer")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return domain.User{}, errors.New("missing sub")
	}
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	return domain.User{UID: sub, DisplayName: name, Email: email}, nil
}

func (a *Auth) keyForToken(token *jwt.Token) (any, error) {
	if a.JWKS == nil {
		return nil, errors.New("jwks not configured")
	}
	kid, _ := token.Header["kid"].(string)
	if kid != "" && a.keyCacheTTL > 0 {
		if cached, ok := a.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if time.Now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			a.keyCache.Delete(kid)
		}
	}
	key, err := a.JWKS.Keyfunc(token)
	if err != nil {
		return nil, err
	}
	if kid != "" && a.keyCacheTTL > 0 {
		a.keyCache.Store(kid, cachedKey{key: key, expiresAt: time.Now().Add(a.keyCacheTTL)})
	}
	return key, nil
}

// SignTestToken mints an HS256 token for user that a NewTestAuth with the
// same secret, audience and issuer accepts.
func SignTestToken(secret []byte, user domain.User, audience, issuer string, ttl time.Duration) (string, error) {
	if user.UID == "" {
		return "", errors.New("missing sub")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": user.UID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if user.DisplayName != "" {
		claims["name"] = user.DisplayName
	}
	if user.Email != "" {
		claims["email"] = user.Email
	}
	if audience != "" {
		claims["aud"] = audience
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
