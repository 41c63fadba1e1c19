package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const keySetTTL = time.Hour

type cognitoAPI interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, opts ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, opts ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, opts ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	ForgotPassword(ctx context.Context, in *cip.ForgotPasswordInput, opts ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, in *cip.ConfirmForgotPasswordInput, opts ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, opts ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

// CognitoProvider runs the sign-up and sign-in flows against a Cognito user
// pool and verifies its tokens against the pool's JWKS.
type CognitoProvider struct {
	client   cognitoAPI
	logger   *slog.Logger
	clientID string
	issuer   string
	jwksURL  string

	mu        sync.Mutex
	keys      jwk.Set
	fetchedAt time.Time
}

func NewCognitoProvider(ctx context.Context, logger *slog.Logger, region, userPoolID, clientID string) (*CognitoProvider, error) {
	const op = "identity.NewCognitoProvider"

	if region == "" || userPoolID == "" || clientID == "" {
		return nil, fmt.Errorf("%s: region, user pool id and client id are required", op)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)

	return &CognitoProvider{
		client:   cip.NewFromConfig(awsCfg),
		logger:   logger,
		clientID: clientID,
		issuer:   issuer,
		jwksURL:  issuer + "/.well-known/jwks.json",
	}, nil
}

func mapCognitoErr(op string, err error) error {
	var (
		notAuthorized *types.NotAuthorizedException
		notFound      *types.UserNotFoundException
		exists        *types.UsernameExistsException
		notConfirmed  *types.UserNotConfirmedException
		badCode       *types.CodeMismatchException
		expiredCode   *types.ExpiredCodeException
		badPassword   *types.InvalidPasswordException
	)
	switch {
	case errors.As(err, &notAuthorized), errors.As(err, &notFound):
		return ErrInvalidCredentials
	case errors.As(err, &exists):
		return ErrUserExists
	case errors.As(err, &notConfirmed):
		return ErrUserNotConfirmed
	case errors.As(err, &badCode), errors.As(err, &expiredCode):
		return ErrInvalidCode
	case errors.As(err, &badPassword):
		return fmt.Errorf("%w: %s", ErrValidation, badPassword.ErrorMessage())
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (p *CognitoProvider) SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error) {
	const op = "identity.CognitoProvider.SignUp"

	if err := params.Validate(); err != nil {
		return nil, err
	}

	out, err := p.client.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(params.Email),
		Password: aws.String(params.Password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(params.Email)},
			{Name: aws.String("name"), Value: aws.String(params.Name)},
		},
	})
	if err != nil {
		return nil, mapCognitoErr(op, err)
	}

	return &SignUpResult{UserSub: aws.ToString(out.UserSub), Confirmed: out.UserConfirmed}, nil
}

func (p *CognitoProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	const op = "identity.CognitoProvider.ConfirmSignUp"

	if err := validateCode(code); err != nil {
		return err
	}

	_, err := p.client.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return mapCognitoErr(op, err)
	}

	return nil
}

func (p *CognitoProvider) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	const op = "identity.CognitoProvider.SignIn"

	out, err := p.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, mapCognitoErr(op, err)
	}

	res := out.AuthenticationResult
	if res == nil {
		return &SignInResult{SignedIn: false, NextStep: string(out.ChallengeName)}, nil
	}
	if res.AccessToken == nil || res.IdToken == nil {
		return nil, fmt.Errorf("%s: authentication result without tokens", op)
	}

	return &SignInResult{
		SignedIn: true,
		Tokens: &Tokens{
			AccessToken: aws.ToString(res.AccessToken),
			IDToken:     aws.ToString(res.IdToken),
			ExpiresIn:   int(res.ExpiresIn),
		},
	}, nil
}

func (p *CognitoProvider) ForgotPassword(ctx context.Context, email string) error {
	const op = "identity.CognitoProvider.ForgotPassword"

	if err := validateEmail(email); err != nil {
		return err
	}

	_, err := p.client.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email),
	})
	if err != nil {
		return mapCognitoErr(op, err)
	}

	return nil
}

func (p *CognitoProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	const op = "identity.CognitoProvider.ConfirmForgotPassword"

	if err := validateCode(code); err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	_, err := p.client.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	if err != nil {
		return mapCognitoErr(op, err)
	}

	return nil
}

func (p *CognitoProvider) SignOut(ctx context.Context, accessToken string) error {
	const op = "identity.CognitoProvider.SignOut"

	_, err := p.client.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		return mapCognitoErr(op, err)
	}

	return nil
}

func (p *CognitoProvider) keySet(ctx context.Context) (jwk.Set, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.keys != nil && time.Since(p.fetchedAt) < keySetTTL {
		return p.keys, nil
	}

	keys, err := jwk.Fetch(ctx, p.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	p.keys, p.fetchedAt = keys, time.Now()

	return keys, nil
}

// Verify accepts Cognito ID tokens issued for this client and access tokens
// whose client_id claim matches it.
func (p *CognitoProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	keys, err := p.keySet(ctx)
	if err != nil {
		return nil, err
	}

	t, err := jwt.ParseString(token, jwt.WithKeySet(keys), jwt.WithValidate(true), jwt.WithIssuer(p.issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	use := claimString(t, "token_use")
	switch use {
	case "id":
		if !contains(t.Audience(), p.clientID) {
			return nil, fmt.Errorf("%w: invalid audience", ErrInvalidToken)
		}
	case "access":
		if claimString(t, "client_id") != p.clientID {
			return nil, fmt.Errorf("%w: invalid client", ErrInvalidToken)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected token_use %q", ErrInvalidToken, use)
	}

	id := &Identity{
		Subject: t.Subject(),
		Email:   claimString(t, "email"),
		Name:    claimString(t, "name"),
	}
	if id.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	if id.Name == "" {
		id.Name = id.Email
	}
	if id.Name == "" {
		id.Name = claimString(t, "username")
	}

	return id, nil
}

func claimString(t jwt.Token, name string) string {
	v, ok := t.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
