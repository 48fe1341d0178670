package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/congo-pay/omnibus/internal/address"
)

var caller = address.MustParse("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("secret", time.Minute)
	token, exp, err := svc.Issue(caller)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, caller, got)
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	token, _, err := NewService("secret", time.Minute).Issue(caller)
	require.NoError(t, err)

	_, err = NewService("other", time.Minute).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewService("secret", time.Minute)
	token, _, err := svc.Issue(caller)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	svc := NewService("secret", time.Minute)
	for _, token := range []string{"", "a.b", "a.b.c", strings.Repeat("x", 40)} {
		_, err := svc.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken, token)
	}

	unsigned, err := SignHS256(map[string]any{"sub": "nobody", "exp": time.Now().Add(time.Hour).Unix()}, []byte("secret"))
	require.NoError(t, err)
	_, err = svc.Verify(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)
}
