package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"riceMarketplace/models"
)

// DefaultSessionTTL is used when a Sessions is built with a non-positive TTL.
const DefaultSessionTTL = 24 * time.Hour

// Sessions issues and validates HS256 session tokens binding a browser (or RPC
// client) to an account id until the token expires.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions returns a token manager. The secret must not be empty.
func NewSessions(secret string, ttl time.Duration) (*Sessions, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns how long issued tokens stay valid.
func (s *Sessions) TTL() time.Duration { return s.ttl }

type sessionClaims struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Issue signs a token for the account.
func (s *Sessions) Issue(f *models.Farmer) (string, time.Time, error) {
	if f == nil || f.ID == 0 {
		return "", time.Time{}, errors.New("cannot issue session for unsaved account")
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := sessionClaims{
		Name: f.Username,
		Kind: string(f.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(f.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// Parse validates the token signature and expiry and returns its principal.
func (s *Sessions) Parse(tokenStr string) (*Principal, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}
	tok, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*sessionClaims)
	if c == nil || c.Subject == "" || c.Name == "" || c.Kind == "" {
		return nil, errors.New("invalid claims")
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.New("invalid subject")
	}
	return &Principal{AccountID: id, Name: c.Name, Kind: models.Role(strings.ToLower(c.Kind))}, nil
}
