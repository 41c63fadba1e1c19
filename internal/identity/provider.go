// Package identity signs users in through an identity provider and keeps a
// local user record in step with the provider's subject.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotConfirmed   = errors.New("user not confirmed")
	ErrInvalidCode        = errors.New("invalid confirmation code")
	ErrUnsupported        = errors.New("operation not supported by provider")
)

// Identity is the authenticated subject as reported by the provider.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

type Tokens struct {
	AccessToken string `json:"accessToken"`
	IDToken     string `json:"idToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

type SignUpParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type SignUpResult struct {
	UserSub   string `json:"userSub"`
	Confirmed bool   `json:"confirmed"`
}

// SignInResult carries tokens when SignedIn, otherwise the provider's next
// challenge (for example a password change).
type SignInResult struct {
	SignedIn bool    `json:"isSignedIn"`
	NextStep string  `json:"nextStep,omitempty"`
	Tokens   *Tokens `json:"tokens,omitempty"`
}

type Provider interface {
	SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
	SignOut(ctx context.Context, accessToken string) error
	// Verify checks a bearer token and returns the identity it carries.
	Verify(ctx context.Context, token string) (*Identity, error)
}
