package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
	"github.com/IlyasAtabaev731/wallet/internal/lib/jwt"
	"github.com/IlyasAtabaev731/wallet/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type CredentialStore interface {
	SaveCredential(ctx context.Context, cred models.Credential) error
	GetCredential(ctx context.Context, email string) (*models.Credential, error)
}

// LocalProvider keeps bcrypt password hashes itself and issues HS256 tokens.
// Accounts are confirmed on sign-up and password reset is not available.
type LocalProvider struct {
	store     CredentialStore
	logger    *slog.Logger
	jwtSecret string
	tokenTTL  time.Duration
}

func NewLocalProvider(store CredentialStore, logger *slog.Logger, jwtSecret string, tokenTTL time.Duration) *LocalProvider {
	return &LocalProvider{store: store, logger: logger, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (p *LocalProvider) SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error) {
	const op = "identity.LocalProvider.SignUp"

	if err := params.Validate(); err != nil {
		return nil, err
	}

	p.logger.Info("Register new user", slog.String("email", params.Email))

	passHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		p.logger.Error("Failed to hash password", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cred := models.Credential{
		UserID:       uuid.NewString(),
		Email:        strings.ToLower(params.Email),
		Name:         params.Name,
		PasswordHash: string(passHash),
	}
	if err := p.store.SaveCredential(ctx, cred); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, ErrUserExists
		}
		p.logger.Error("Failed to save credential", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &SignUpResult{UserSub: cred.UserID, Confirmed: true}, nil
}

func (p *LocalProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	return nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	const op = "identity.LocalProvider.SignIn"

	cred, err := p.store.GetCredential(ctx, strings.ToLower(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.NewToken(jwt.Identity{Subject: cred.UserID, Email: cred.Email, Name: cred.Name}, p.jwtSecret, p.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &SignInResult{
		SignedIn: true,
		Tokens:   &Tokens{AccessToken: token, IDToken: token, ExpiresIn: int(p.tokenTTL.Seconds())},
	}, nil
}

func (p *LocalProvider) ForgotPassword(ctx context.Context, email string) error {
	return ErrUnsupported
}

func (p *LocalProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	return ErrUnsupported
}

// SignOut is a no-op: local tokens are stateless and expire on their own.
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	return nil
}

func (p *LocalProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	id, err := jwt.ParseToken(token, p.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return &Identity{Subject: id.Subject, Email: id.Email, Name: id.Name}, nil
}
