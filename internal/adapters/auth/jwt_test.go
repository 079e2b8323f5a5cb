package auth

import (
	"testing"
	"time"

	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_IssueVerify(t *testing.T) {
	t.Parallel()
	v := NewJWTVerifier("secret", time.Hour)

	token, id, err := v.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, ok := v.Verify(token)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestJWTVerifier_IssueFor(t *testing.T) {
	t.Parallel()
	v := NewJWTVerifier("secret", 0)

	token, err := v.IssueFor("fixed-id")
	require.NoError(t, err)
	got, ok := v.Verify(token)
	assert.True(t, ok)
	assert.Equal(t, domain.Identity("fixed-id"), got)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	t.Parallel()
	v := NewJWTVerifier("secret", time.Hour)
	other := NewJWTVerifier("other", time.Hour)
	foreign, err := other.IssueFor("x")
	require.NoError(t, err)

	expired := NewJWTVerifier("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, err := expired.IssueFor("x")
	require.NoError(t, err)

	noClaim, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"Empty", ""},
		{"Garbage", "not-a-token"},
		{"WrongSecret", foreign},
		{"Expired", stale},
		{"MissingClaim", noClaim},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := v.Verify(tt.token)
			assert.False(t, ok)
		})
	}
}
