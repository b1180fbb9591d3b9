package authenticator

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rafflelab/backend/config"
)

var ErrEmptySecret = errors.New("token secret is empty")

type operatorClaims[T any] struct {
	jwt.RegisteredClaims
	Object T `json:"obj,omitempty"`
}

type jwtTokenEngine[T any] struct {
	secret     []byte
	expiration time.Duration
	counter    atomic.Int64
}

func NewTokenEngine[T any](cfg config.TokenConfigs) TokenEngine[T] {
	return &jwtTokenEngine[T]{
		secret:     []byte(cfg.Secret),
		expiration: cfg.Expiration,
	}
}

func (e *jwtTokenEngine[T]) Generate(sub string, obj T) (string, error) {
	if len(e.secret) == 0 {
		return "", ErrEmptySecret
	}

	now := time.Now()
	claims := operatorClaims[T]{
		Object: obj,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        fmt.Sprintf("%d-%d", now.Unix(), e.counter.Add(1)),
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if e.expiration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(e.expiration))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.secret)
}

func (e *jwtTokenEngine[T]) Verify(token string) (T, error) {
	var claims operatorClaims[T]
	if len(e.secret) == 0 {
		return claims.Object, ErrEmptySecret
	}

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return e.secret, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return claims.Object, nil
}
