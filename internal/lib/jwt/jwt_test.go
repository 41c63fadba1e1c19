package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndParseToken(t *testing.T) {
	id := Identity{Subject: "6f1c2a1e-0000-4000-8000-000000000001", Email: "ana@example.com", Name: "Ana"}

	token, err := NewToken(id, "secret", time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, id, *got)
}

func TestParseTokenNameFallsBackToEmail(t *testing.T) {
	token, err := NewToken(Identity{Subject: "u1", Email: "bob@example.com"}, "secret", time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Name)
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := NewToken(Identity{Subject: "u1"}, "secret", time.Hour)
	require.NoError(t, err)
	expired, err := NewToken(Identity{Subject: "u1"}, "secret", -time.Minute)
	require.NoError(t, err)
	noSubject, err := NewToken(Identity{}, "secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other"},
		{"expired", expired, "secret"},
		{"no subject", noSubject, "secret"},
		{"garbage", "not.a.token", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}
