package identity

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
	"github.com/IlyasAtabaev731/wallet/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCredentialStore struct {
	creds map[string]models.Credential
}

func (f *fakeCredentialStore) SaveCredential(_ context.Context, cred models.Credential) error {
	if _, ok := f.creds[cred.Email]; ok {
		return storage.ErrUserExists
	}
	f.creds[cred.Email] = cred
	return nil
}

func (f *fakeCredentialStore) GetCredential(_ context.Context, email string) (*models.Credential, error) {
	cred, ok := f.creds[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &cred, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLocal() *LocalProvider {
	store := &fakeCredentialStore{creds: make(map[string]models.Credential)}
	return NewLocalProvider(store, discardLogger(), "secret", time.Hour)
}

func TestLocalSignUpAndSignIn(t *testing.T) {
	p := newLocal()
	ctx := context.Background()

	res, err := p.SignUp(ctx, SignUpParams{Email: "Ana@Example.com", Password: "Passw0rdX", Name: "Ana"})
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.NotEmpty(t, res.UserSub)

	_, err = p.SignUp(ctx, SignUpParams{Email: "ana@example.com", Password: "Passw0rdX", Name: "Ana"})
	assert.ErrorIs(t, err, ErrUserExists)

	signIn, err := p.SignIn(ctx, "ana@example.com", "Passw0rdX")
	require.NoError(t, err)
	require.True(t, signIn.SignedIn)
	require.NotNil(t, signIn.Tokens)
	assert.Equal(t, 3600, signIn.Tokens.ExpiresIn)

	id, err := p.Verify(ctx, signIn.Tokens.IDToken)
	require.NoError(t, err)
	assert.Equal(t, Identity{Subject: res.UserSub, Email: "ana@example.com", Name: "Ana"}, *id)

	_, err = p.SignIn(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@example.com", "Passw0rdX")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalSignUpValidation(t *testing.T) {
	p := newLocal()
	ctx := context.Background()

	tests := []SignUpParams{
		{Email: "ana@example.com", Password: "Passw0rdX", Name: "A"},
		{Email: "not-an-email", Password: "Passw0rdX", Name: "Ana"},
		{Email: "ana@example.com", Password: "short1A", Name: "Ana"},
		{Email: "ana@example.com", Password: "alllowercase1", Name: "Ana"},
		{Email: "ana@example.com", Password: "NoDigitsHere", Name: "Ana"},
	}
	for _, params := range tests {
		_, err := p.SignUp(ctx, params)
		assert.ErrorIs(t, err, ErrValidation, "%+v", params)
	}
}

func TestLocalUnsupportedAndNoops(t *testing.T) {
	p := newLocal()
	ctx := context.Background()

	assert.ErrorIs(t, p.ForgotPassword(ctx, "ana@example.com"), ErrUnsupported)
	assert.ErrorIs(t, p.ConfirmForgotPassword(ctx, "ana@example.com", "123456", "Passw0rdX"), ErrUnsupported)
	assert.NoError(t, p.ConfirmSignUp(ctx, "ana@example.com", "123456"))
	assert.NoError(t, p.SignOut(ctx, "token"))

	_, err := p.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
