package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rbroggi/clients/internal/core/model"
	"github.com/stretchr/testify/require"
)

type MockIssuer struct {
	subject string
	err     error
}

func (m *MockIssuer) Issue(subject string) (string, time.Time, error) {
	m.subject = subject
	if m.err != nil {
		return "", time.Time{}, m.err
	}
	return "token-for-" + subject, dummyTime, nil
}

func TestAuthenticator_IssueToken(t *testing.T) {
	params := &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	hash, err := argon2id.CreateHash("s3cret", params)
	require.NoError(t, err)
	issuerErr := errors.New("signing failed")

	tests := []struct {
		name        string
		args        model.IssueTokenArgs
		issuerErr   error
		expectedErr error
	}{
		{name: "valid credentials", args: model.IssueTokenArgs{ClientID: "billing", ClientSecret: "s3cret"}},
		{name: "wrong secret", args: model.IssueTokenArgs{ClientID: "billing", ClientSecret: "nope"}, expectedErr: model.ErrInvalidCredentials},
		{name: "unknown client", args: model.IssueTokenArgs{ClientID: "other", ClientSecret: "s3cret"}, expectedErr: model.ErrInvalidCredentials},
		{name: "empty secret", args: model.IssueTokenArgs{ClientID: "billing"}, expectedErr: model.ErrInvalidCredentials},
		{name: "issuer failure", args: model.IssueTokenArgs{ClientID: "billing", ClientSecret: "s3cret"}, issuerErr: issuerErr, expectedErr: issuerErr},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			issuer := &MockIssuer{err: test.issuerErr}
			auth := NewAuthenticator(AuthenticatorArgs{
				ServiceAccounts: map[string]string{"billing": hash},
				Issuer:          issuer,
			})
			resp, err := auth.IssueToken(context.Background(), test.args)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "token-for-billing", resp.AccessToken)
			require.Equal(t, dummyTime, resp.ExpiresAt)
			require.Equal(t, "billing", issuer.subject)
		})
	}
}
