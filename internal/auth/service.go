package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const AccessTokenTTL = 15 * time.Minute

var ErrTokenInvalid = errors.New("token invalid")

// Service signs and validates the bearer tokens issued by the account backend.
// Accounts themselves live elsewhere; this service only trusts the shared secret.
type Service struct {
	secret []byte
	now    func() time.Time
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret), now: time.Now}
}

// IssueAccessToken mints a token for userID. Used by tooling such as runsim.
func (s *Service) IssueAccessToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user_id required")
	}
	if ttl <= 0 {
		ttl = AccessTokenTTL
	}
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := parseClaims(token, s.secret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func parseClaims(token string, secret []byte) (*Claims, error) {
	parsed, err := parseClaimsFn(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

var parseClaimsFn = jwt.ParseWithClaims
