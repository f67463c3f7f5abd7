package usecase

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/rbroggi/clients/internal/core/model"
	"github.com/rbroggi/clients/internal/core/ports"
)

// AuthenticatorArgs contains the mandatory arguments for the Authenticator.
type AuthenticatorArgs struct {
	// ServiceAccounts maps a client id to the argon2id hash of its secret.
	ServiceAccounts map[string]string

	// Issuer signs the tokens handed out to authenticated accounts.
	Issuer ports.TokenIssuer
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(args AuthenticatorArgs) *Authenticator {
	return &Authenticator{accounts: args.ServiceAccounts, issuer: args.Issuer}
}

// Authenticator exchanges service-account credentials for access tokens.
type Authenticator struct {
	accounts map[string]string
	issuer   ports.TokenIssuer
}

// IssueToken returns model.ErrInvalidCredentials when the account is unknown or the
// secret does not match.
func (a *Authenticator) IssueToken(ctx context.Context, args model.IssueTokenArgs) (*model.IssueTokenResponse, error) {
	hash, ok := a.accounts[args.ClientID]
	if !ok || args.ClientSecret == "" {
		return nil, model.ErrInvalidCredentials
	}

	// ComparePasswordAndHash performs a constant-time comparison between a
	// plain-text secret and an Argon2id hash in the reference C format.
	match, err := argon2id.ComparePasswordAndHash(args.ClientSecret, hash)
	if err != nil {
		return nil, fmt.Errorf("error comparing secret hash of client [%s]: %w", args.ClientID, err)
	}
	if !match {
		return nil, model.ErrInvalidCredentials
	}

	token, expiresAt, err := a.issuer.Issue(args.ClientID)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	return &model.IssueTokenResponse{AccessToken: token, ExpiresAt: expiresAt}, nil
}
