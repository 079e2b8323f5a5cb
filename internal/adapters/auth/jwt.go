package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

var errSigningAlg = errors.New("unexpected signing algorithm")

type identityClaims struct {
	UUID string `json:"uuid"`
	jwt.RegisteredClaims
}

// JWTVerifier issues and verifies HS256 tokens carrying the identity in the "uuid" claim.
type JWTVerifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTVerifier(secret string, ttl time.Duration) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (v *JWTVerifier) Issue() (string, domain.Identity, error) {
	id := domain.NewIdentity()
	token, err := v.IssueFor(id)
	if err != nil {
		return "", "", err
	}
	return token, id, nil
}

func (v *JWTVerifier) IssueFor(id domain.Identity) (string, error) {
	now := v.now()
	claims := identityClaims{
		UUID: string(id),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if v.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(v.ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (v *JWTVerifier) Verify(credential string) (domain.Identity, bool) {
	if credential == "" {
		return "", false
	}
	token, err := jwt.ParseWithClaims(credential, &identityClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errSigningAlg
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil {
		log.Debug().Str("module", "auth").Err(err).Msg("token rejected")
		return "", false
	}
	claims, ok := token.Claims.(*identityClaims)
	if !ok || !token.Valid || claims.UUID == "" || len(claims.UUID) > domain.MaxIdentityLen {
		return "", false
	}
	return domain.Identity(claims.UUID), true
}
