// Package auth issues and verifies the bearer tokens that carry a caller's
// ledger address.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/congo-pay/omnibus/internal/address"
)

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrTokenExpired = errors.New("auth: token expired")
)

// Service signs tokens whose subject is a ledger address.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for addr and its expiry.
func (s *Service) Issue(addr address.Address) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := map[string]any{
		"sub": addr.String(),
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	signed, err := SignHS256(claims, s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the token and returns the caller address it names.
func (s *Service) Verify(token string) (address.Address, error) {
	claims, err := ParseAndVerifyHS256(token, s.secret)
	if err != nil {
		return address.Address{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return address.Address{}, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	if s.now().Unix() >= int64(exp) {
		return address.Address{}, ErrTokenExpired
	}
	sub, _ := claims["sub"].(string)
	addr, err := address.Parse(sub)
	if err != nil {
		return address.Address{}, fmt.Errorf("%w: subject: %v", ErrInvalidToken, err)
	}
	return addr, nil
}
