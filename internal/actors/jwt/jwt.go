package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that are malformed, expired or signed by someone else.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the JWT claims of the access tokens.
type Claims struct {
	jwtlib.RegisteredClaims
}

// ServiceArgs contains the mandatory arguments to build a Service.
type ServiceArgs struct {
	// SigningKey is the HS256 shared secret.
	SigningKey []byte
	Issuer     string
	Audience   string
	// TTL is the lifetime of issued tokens.
	TTL time.Duration
}

// ServiceOptArgs are the optional arguments for building a Service.
type ServiceOptArgs = func(*Service)

// WithNowFunc can be used to override the clock. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) ServiceOptArgs {
	return func(s *Service) {
		s.nowFunc = nowFunc
	}
}

// Service issues and verifies HS256 access tokens.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	ttl        time.Duration
	nowFunc    func() time.Time
}

// NewService creates a Service.
func NewService(args ServiceArgs, optArgs ...ServiceOptArgs) (*Service, error) {
	if len(args.SigningKey) == 0 {
		return nil, errors.New("signing key must not be empty")
	}
	if args.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", args.TTL)
	}
	s := &Service{
		signingKey: args.SigningKey,
		issuer:     args.Issuer,
		audience:   args.Audience,
		ttl:        args.TTL,
		nowFunc:    time.Now,
	}
	for _, opt := range optArgs {
		opt(s)
	}
	return s, nil
}

// Issue returns a signed token for subject together with its expiry.
func (s *Service) Issue(subject string) (string, time.Time, error) {
	now := s.nowFunc().UTC()
	expiresAt := now.Add(s.ttl)
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses tokenString and checks signature, issuer, audience and lifetime
// with no clock skew allowance.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwtlib.ParseWithClaims(tokenString, claims, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, jwtlib.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(s.issuer),
		jwtlib.WithAudience(s.audience),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.nowFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
